package rewardstake

import (
	"math/big"
	"sort"
)

// TierTable is the multiplier lookup, kept sorted ascending by threshold so
// lookups can bisect for the greatest threshold <= balance. The reference
// system scanned the thresholds linearly from the top; the sorted-array
// bisection returns the same multiplier for every balance at O(log n).
type TierTable struct {
	tiers []MultiplierTier
}

// NewTierTable validates and sorts the tiers. Tier 0 must cover threshold 0
// so every balance resolves to a multiplier.
func NewTierTable(tiers []MultiplierTier) (*TierTable, error) {
	if len(tiers) == 0 {
		return nil, ErrInvalidTiers
	}
	sorted := make([]MultiplierTier, len(tiers))
	for i, tier := range tiers {
		if tier.MinBalance == nil || tier.MinBalance.Sign() < 0 {
			return nil, ErrInvalidTiers
		}
		if tier.MultiplierBps == 0 {
			return nil, ErrInvalidTiers
		}
		sorted[i] = MultiplierTier{
			MinBalance:    new(big.Int).Set(tier.MinBalance),
			MultiplierBps: tier.MultiplierBps,
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinBalance.Cmp(sorted[j].MinBalance) < 0
	})
	if sorted[0].MinBalance.Sign() != 0 {
		return nil, ErrInvalidTiers
	}
	return &TierTable{tiers: sorted}, nil
}

// DefaultTierTable returns the bootstrap multipliers: 1x from zero, then
// 1.1x, 1.25x and 1.5x at growing holdings.
func DefaultTierTable() *TierTable {
	oneToken := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	threshold := func(tokens int64) *big.Int {
		return new(big.Int).Mul(big.NewInt(tokens), oneToken)
	}
	table, err := NewTierTable([]MultiplierTier{
		{MinBalance: big.NewInt(0), MultiplierBps: 10_000},
		{MinBalance: threshold(10_000), MultiplierBps: 11_000},
		{MinBalance: threshold(100_000), MultiplierBps: 12_500},
		{MinBalance: threshold(1_000_000), MultiplierBps: 15_000},
	})
	if err != nil {
		panic("rewardstake: invalid default tier table")
	}
	return table
}

// MultiplierFor returns the multiplier of the highest tier whose threshold
// does not exceed the balance, falling back to tier 0.
func (t *TierTable) MultiplierFor(balance *big.Int) uint32 {
	if t == nil || len(t.tiers) == 0 {
		return BpsDenominator
	}
	if balance == nil || balance.Sign() <= 0 {
		return t.tiers[0].MultiplierBps
	}
	// First index whose threshold exceeds the balance; the tier before it wins.
	idx := sort.Search(len(t.tiers), func(i int) bool {
		return t.tiers[i].MinBalance.Cmp(balance) > 0
	})
	if idx == 0 {
		return t.tiers[0].MultiplierBps
	}
	return t.tiers[idx-1].MultiplierBps
}

// Tiers returns a copy of the sorted table for the query surface.
func (t *TierTable) Tiers() []MultiplierTier {
	if t == nil {
		return nil
	}
	out := make([]MultiplierTier, len(t.tiers))
	for i, tier := range t.tiers {
		out[i] = MultiplierTier{
			MinBalance:    new(big.Int).Set(tier.MinBalance),
			MultiplierBps: tier.MultiplierBps,
		}
	}
	return out
}
