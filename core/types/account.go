package types

import "math/big"

// Account holds the balances tracked by the ledger for a single address: the
// native asset used for creation fees and arbitration deposits, plus any
// registered fungible assets keyed by symbol.
type Account struct {
	Nonce          uint64              `json:"nonce"`
	BalanceNative  *big.Int            `json:"balanceNative"`
	TokenBalances  map[string]*big.Int `json:"tokenBalances,omitempty"`
	Username       string              `json:"username,omitempty"`
	EscrowActivity uint64              `json:"escrowActivity,omitempty"`
}

// TokenBalance returns the balance recorded for the supplied symbol. Missing
// entries read as zero.
func (a *Account) TokenBalance(symbol string) *big.Int {
	if a == nil || a.TokenBalances == nil {
		return big.NewInt(0)
	}
	bal, ok := a.TokenBalances[symbol]
	if !ok || bal == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

// SetTokenBalance records the balance for the supplied symbol, allocating the
// balance map on first use.
func (a *Account) SetTokenBalance(symbol string, amount *big.Int) {
	if a == nil {
		return
	}
	if a.TokenBalances == nil {
		a.TokenBalances = make(map[string]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	a.TokenBalances[symbol] = new(big.Int).Set(amount)
}
