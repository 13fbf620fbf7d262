package rewardstake

import "math/big"

// Position is the per-user accrual record. The held asset is never
// custodied: StakedBalance is a snapshot of the external balance at the last
// stake call, and claims settle against min(external, staked).
type Position struct {
	StakedBalance *big.Int
	StakeTime     int64
	LastClaimTime int64
	TotalClaimed  *big.Int
}

// Clone produces a deep copy to protect internal references.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	clone.StakedBalance = copyBigInt(p.StakedBalance)
	clone.TotalClaimed = copyBigInt(p.TotalClaimed)
	return &clone
}

// MultiplierTier grants a basis-point multiplier to balances at or above the
// threshold. Tier 0 always covers threshold 0.
type MultiplierTier struct {
	MinBalance    *big.Int
	MultiplierBps uint32
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
