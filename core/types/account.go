package types

import "math/big"

// Account holds the balances tracked by the lottery host ledger. LTO is the
// base coin used for prizes, ZLT is the held asset that drives reward accrual
// and PTS is the non-transferable reward credit minted by the accrual engine.
// Arbitrary auxiliary prize assets live in TokenBalances keyed by symbol.
type Account struct {
	Nonce         uint64              `json:"nonce"`
	BalanceLTO    *big.Int            `json:"balanceLTO"`
	BalanceZLT    *big.Int            `json:"balanceZLT"`
	BalancePTS    *big.Int            `json:"balancePTS"`
	TokenBalances map[string]*big.Int `json:"tokenBalances,omitempty"`
}

// NewAccount returns an account with all balances initialised to zero.
func NewAccount() *Account {
	return &Account{
		BalanceLTO: big.NewInt(0),
		BalanceZLT: big.NewInt(0),
		BalancePTS: big.NewInt(0),
	}
}

// Normalize replaces nil balance pointers with zero values so callers can
// mutate the account without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return NewAccount()
	}
	if a.BalanceLTO == nil {
		a.BalanceLTO = big.NewInt(0)
	}
	if a.BalanceZLT == nil {
		a.BalanceZLT = big.NewInt(0)
	}
	if a.BalancePTS == nil {
		a.BalancePTS = big.NewInt(0)
	}
	return a
}
