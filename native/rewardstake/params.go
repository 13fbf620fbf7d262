package rewardstake

import "math/big"

// ModuleName is the pause-switch key for staking mutations.
const ModuleName = "rewardstake"

// BpsDenominator is the fixed denominator for multiplier and split ratios.
const BpsDenominator = 10_000

// Params are the admin-configurable accrual constants.
type Params struct {
	// EpochSeconds is the accrual time unit; fractional epochs always count.
	EpochSeconds int64
	// BaseRateWad is the reward per held token per epoch at 1x multiplier,
	// expressed in 1e18 fixed point.
	BaseRateWad *big.Int
	// BuyCreditBps is the share of the elapsed period credited at the new
	// balance on a restake that increased holdings. Default 20%.
	BuyCreditBps uint32
	// MinClaimSeconds throttles claim spam; it is not an accrual boundary.
	MinClaimSeconds int64
}

// DefaultParams returns the reference constants: one-day epochs, one reward
// unit per token per epoch at 1x, 20% buy credit, one-hour claim throttle.
func DefaultParams() Params {
	return Params{
		EpochSeconds:    86_400,
		BaseRateWad:     new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		BuyCreditBps:    2_000,
		MinClaimSeconds: 3_600,
	}
}

// Validate ensures the parameters fall within acceptable bounds.
func (p Params) Validate() error {
	if p.EpochSeconds <= 0 {
		return ErrInvalidParams
	}
	if p.BaseRateWad == nil || p.BaseRateWad.Sign() <= 0 {
		return ErrInvalidParams
	}
	if p.BuyCreditBps > BpsDenominator {
		return ErrInvalidParams
	}
	if p.MinClaimSeconds < 0 {
		return ErrInvalidParams
	}
	return nil
}

// Clone produces a deep copy to protect internal references.
func (p Params) Clone() Params {
	clone := p
	clone.BaseRateWad = copyBigInt(p.BaseRateWad)
	return clone
}
