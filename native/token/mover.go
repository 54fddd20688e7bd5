package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"fundvault/core/types"
)

var (
	// ErrNonCompliantAsset marks movers whose transfer calls do not report
	// success or failure correctly. They are rejected at registration.
	ErrNonCompliantAsset = errors.New("token: non-compliant asset")
	// ErrAssetNotRegistered is returned when resolving an unknown symbol.
	ErrAssetNotRegistered = errors.New("token: asset not registered")
	// ErrInsufficientBalance is returned when a transfer exceeds the source
	// balance.
	ErrInsufficientBalance = errors.New("token: insufficient balance")
)

// AccountState exposes the account records a ledger-backed mover operates on.
type AccountState interface {
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Mover moves units of one fungible asset between a party and the module
// vault. Implementations must report failures; movers that swallow them are
// rejected by the registry probe.
type Mover interface {
	Symbol() string
	TransferIn(from [20]byte, amount *big.Int) error
	TransferOut(to [20]byte, amount *big.Int) error
	BalanceOf(addr [20]byte) (*big.Int, error)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{BalanceNative: big.NewInt(0)}
	}
	if acc.BalanceNative == nil {
		acc.BalanceNative = big.NewInt(0)
	}
	return acc
}

func checkAmount(amount *big.Int) error {
	if amount == nil {
		return fmt.Errorf("token: nil transfer amount")
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("token: negative transfer amount")
	}
	return nil
}

// LedgerMover moves a registered token between account balances and the module
// vault account.
type LedgerMover struct {
	state  AccountState
	vault  [20]byte
	symbol string
}

// NewLedgerMover binds a mover for symbol to the supplied account state and
// vault address.
func NewLedgerMover(state AccountState, vault [20]byte, symbol string) (*LedgerMover, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	if trimmed == "" {
		return nil, fmt.Errorf("token: symbol required")
	}
	if state == nil {
		return nil, fmt.Errorf("token: account state required")
	}
	return &LedgerMover{state: state, vault: vault, symbol: trimmed}, nil
}

func (m *LedgerMover) Symbol() string { return m.symbol }

func (m *LedgerMover) TransferIn(from [20]byte, amount *big.Int) error {
	return m.move(from, m.vault, amount)
}

func (m *LedgerMover) TransferOut(to [20]byte, amount *big.Int) error {
	return m.move(m.vault, to, amount)
}

func (m *LedgerMover) BalanceOf(addr [20]byte) (*big.Int, error) {
	acc, err := m.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return ensureAccount(acc).TokenBalance(m.symbol), nil
}

func (m *LedgerMover) move(from, to [20]byte, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromAcc, err := m.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := m.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	fromBal := fromAcc.TokenBalance(m.symbol)
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	fromAcc.SetTokenBalance(m.symbol, new(big.Int).Sub(fromBal, amount))
	toAcc.SetTokenBalance(m.symbol, new(big.Int).Add(toAcc.TokenBalance(m.symbol), amount))
	if err := m.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return m.state.PutAccount(to[:], toAcc)
}

// NativeMover moves the native asset used for creation fees and arbitration
// deposits between accounts and the module vault.
type NativeMover struct {
	state AccountState
	vault [20]byte
}

// NewNativeMover binds a native-asset mover to the supplied state and vault.
func NewNativeMover(state AccountState, vault [20]byte) *NativeMover {
	return &NativeMover{state: state, vault: vault}
}

func (m *NativeMover) TransferIn(from [20]byte, amount *big.Int) error {
	return m.Move(from, m.vault, amount)
}

func (m *NativeMover) TransferOut(to [20]byte, amount *big.Int) error {
	return m.Move(m.vault, to, amount)
}

// Move transfers native units between two arbitrary accounts.
func (m *NativeMover) Move(from, to [20]byte, amount *big.Int) error {
	if m == nil || m.state == nil {
		return fmt.Errorf("token: native mover not configured")
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	fromAcc, err := m.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := m.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	if fromAcc.BalanceNative.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	fromAcc.BalanceNative = new(big.Int).Sub(fromAcc.BalanceNative, amount)
	toAcc.BalanceNative = new(big.Int).Add(toAcc.BalanceNative, amount)
	if err := m.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return m.state.PutAccount(to[:], toAcc)
}

// BalanceOf reports the native balance for the supplied address.
func (m *NativeMover) BalanceOf(addr [20]byte) (*big.Int, error) {
	acc, err := m.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(ensureAccount(acc).BalanceNative), nil
}

// Registry tracks the movers available to the ledger. Registration runs a
// conformance probe so assets with broken transfer semantics never reach a
// transaction.
type Registry struct {
	mu     sync.RWMutex
	movers map[string]Mover
}

func NewRegistry() *Registry {
	return &Registry{movers: make(map[string]Mover)}
}

// Register probes the mover and stores it under its symbol on success.
func (r *Registry) Register(m Mover) error {
	if m == nil {
		return fmt.Errorf("token: nil mover")
	}
	if err := probe(m); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movers[m.Symbol()] = m
	return nil
}

// Resolve returns the registered mover for symbol.
func (r *Registry) Resolve(symbol string) (Mover, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.movers[trimmed]
	if !ok {
		return nil, ErrAssetNotRegistered
	}
	return m, nil
}

// probe exercises transfers that cannot legitimately succeed. A conforming
// mover reports both as failures; one that reports success is rejected.
func probe(m Mover) error {
	if strings.TrimSpace(m.Symbol()) == "" {
		return fmt.Errorf("%w: empty symbol", ErrNonCompliantAsset)
	}
	var zero [20]byte
	if err := m.TransferIn(zero, big.NewInt(-1)); err == nil {
		return fmt.Errorf("%w: negative transfer reported success", ErrNonCompliantAsset)
	}
	if err := m.TransferIn(zero, nil); err == nil {
		return fmt.Errorf("%w: nil amount transfer reported success", ErrNonCompliantAsset)
	}
	return nil
}
