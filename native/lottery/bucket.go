package lottery

import "math/big"

// CreditBase adds to the bucket's base coin balance.
func (b *PrizeBucket) CreditBase(amount *big.Int) {
	if b == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	if b.Base == nil {
		b.Base = big.NewInt(0)
	}
	b.Base = new(big.Int).Add(b.Base, amount)
}

// CreditAux adds to the bucket's holding of one auxiliary asset, registering
// the asset in the iteration list on its first nonzero balance.
func (b *PrizeBucket) CreditAux(token string, amount *big.Int) {
	if b == nil || token == "" || amount == nil || amount.Sign() <= 0 {
		return
	}
	if b.AuxAmounts == nil {
		b.AuxAmounts = make(map[string]*big.Int)
	}
	current, ok := b.AuxAmounts[token]
	if !ok || current == nil || current.Sign() == 0 {
		if !ok {
			b.AuxAssets = append(b.AuxAssets, token)
		}
		current = big.NewInt(0)
	}
	b.AuxAmounts[token] = new(big.Int).Add(current, amount)
}

// Drain pays min(requested, base) of the base coin and the entire current
// holding of every registered auxiliary asset, then clears the asset list.
func (b *PrizeBucket) Drain(requestedBase *big.Int) (*big.Int, []AuxPayout) {
	if b == nil {
		return big.NewInt(0), nil
	}
	if b.Base == nil {
		b.Base = big.NewInt(0)
	}
	paidBase := big.NewInt(0)
	if requestedBase != nil && requestedBase.Sign() > 0 {
		if requestedBase.Cmp(b.Base) > 0 {
			paidBase.Set(b.Base)
		} else {
			paidBase.Set(requestedBase)
		}
		b.Base = new(big.Int).Sub(b.Base, paidBase)
	}
	payouts := make([]AuxPayout, 0, len(b.AuxAssets))
	for _, token := range b.AuxAssets {
		amount := b.AuxAmounts[token]
		if amount == nil || amount.Sign() == 0 {
			continue
		}
		payouts = append(payouts, AuxPayout{Token: token, Amount: new(big.Int).Set(amount)})
	}
	b.AuxAssets = nil
	b.AuxAmounts = make(map[string]*big.Int)
	return paidBase, payouts
}
