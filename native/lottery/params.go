package lottery

import "math/big"

const (
	// TierCount is the fixed number of ticket tiers.
	TierCount = 10

	// TokenLTO is the base coin, TokenZLT the secondary asset and TokenPTS
	// the reward credit. Tickets can be paid in any of the three.
	TokenLTO = "LTO"
	TokenZLT = "ZLT"
	TokenPTS = "PTS"
)

// ModuleName is the pause-switch key for draw execution and ticket sales.
const ModuleName = "lottery"

var oneToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// DefaultTiers returns the ten bootstrap tiers. Weights double per tier
// (1, 2, 4, ..., 512) and prices scale linearly with weight.
func DefaultTiers() [TierCount]*Tier {
	var tiers [TierCount]*Tier
	for i := range tiers {
		weight := uint64(1) << uint(i)
		tiers[i] = &Tier{
			Weight:   weight,
			PriceLTO: scaleTokens(weight, 5),
			PriceZLT: scaleTokens(weight, 500),
			PricePTS: scaleTokens(weight, 1000),
		}
	}
	return tiers
}

func scaleTokens(weight, perUnit uint64) *big.Int {
	amount := new(big.Int).SetUint64(weight)
	amount.Mul(amount, new(big.Int).SetUint64(perUnit))
	return amount.Mul(amount, oneToken)
}
