package rewardstake

import "math/big"

var wad = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// accrueShare computes
//
//	balance * elapsed/epoch * rate * multiplier * share
//
// as one integer fraction, truncating only at the end. Keeping the elapsed
// time in seconds inside the fraction is what makes fractional epochs exact:
// a period of 1.5 epochs accrues exactly 1.5x the per-epoch reward instead
// of truncating to a whole epoch count.
func accrueShare(balance *big.Int, elapsed int64, params Params, multiplierBps uint32, shareBps uint32) *big.Int {
	if balance == nil || balance.Sign() <= 0 || elapsed <= 0 || shareBps == 0 {
		return big.NewInt(0)
	}
	if params.EpochSeconds <= 0 || params.BaseRateWad == nil || params.BaseRateWad.Sign() <= 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Set(balance)
	numerator.Mul(numerator, big.NewInt(elapsed))
	numerator.Mul(numerator, params.BaseRateWad)
	numerator.Mul(numerator, new(big.Int).SetUint64(uint64(multiplierBps)))
	numerator.Mul(numerator, new(big.Int).SetUint64(uint64(shareBps)))

	denominator := big.NewInt(params.EpochSeconds)
	denominator.Mul(denominator, wad)
	denominator.Mul(denominator, big.NewInt(BpsDenominator))
	denominator.Mul(denominator, big.NewInt(BpsDenominator))
	return numerator.Quo(numerator, denominator)
}

// claimReward applies the selling-penalty rule for a plain claim: the entire
// elapsed period accrues at min(external, staked) with that balance's
// multiplier. Holding more earlier in the period earns nothing once the
// balance has dropped.
func claimReward(staked, external *big.Int, elapsed int64, params Params, tiers *TierTable) *big.Int {
	effective := staked
	if external != nil && (effective == nil || external.Cmp(effective) < 0) {
		effective = external
	}
	return accrueShare(effective, elapsed, params, tiers.MultiplierFor(effective), BpsDenominator)
}

// restakeReward applies the asymmetric balance-change rule when a staker
// re-bases:
//
//   - balance decreased: the whole period accrues at the new, lower balance,
//     retroactively erasing the benefit of the earlier larger holding.
//   - balance held or grew: most of the period accrues at the old balance and
//     BuyCreditBps of it at the new one, so buying never retroactively
//     inflates the full period.
func restakeReward(old, current *big.Int, elapsed int64, params Params, tiers *TierTable) *big.Int {
	if current != nil && old != nil && current.Cmp(old) < 0 {
		return accrueShare(current, elapsed, params, tiers.MultiplierFor(current), BpsDenominator)
	}
	oldShare := accrueShare(old, elapsed, params, tiers.MultiplierFor(old), BpsDenominator-params.BuyCreditBps)
	newShare := accrueShare(current, elapsed, params, tiers.MultiplierFor(current), params.BuyCreditBps)
	return oldShare.Add(oldShare, newShare)
}
