package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"fundvault/core/types"
	"fundvault/native/fundme"
	"fundvault/storage"
)

var (
	fundmeTxPrefix      = []byte("fundme/tx/")
	fundmeContribPrefix = []byte("fundme/contrib/")
	fundmeDisputePrefix = []byte("fundme/dispute/")
	directPrefix        = []byte("direct/escrow/")
	directDisputePrefix = []byte("direct/dispute/")
	accountPrefix       = []byte("account/")

	fundmeSeqKey = []byte("fundme/seq")
	directSeqKey = []byte("direct/seq")
)

// VaultAddress derives the deterministic custody address for a module. Funds
// held by an engine live under this address so balances stay auditable.
func VaultAddress(module string) [20]byte {
	hash := ethcrypto.Keccak256([]byte("fundvault/module/" + module))
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}

// Ledger persists accounts, campaigns and escrows in a key-value database
// using a JSON codec. All methods are safe for concurrent use; the engines
// additionally serialize mutating operations at the gateway.
type Ledger struct {
	mu sync.RWMutex
	db storage.Database
}

// NewLedger wraps a key-value database.
func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) put(key []byte, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %q: %w", key, err)
	}
	return l.db.Put(key, raw)
}

func (l *Ledger) get(key []byte, out any) (bool, error) {
	raw, err := l.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %q: %w", key, err)
	}
	return true, nil
}

func (l *Ledger) nextSeq(key []byte) (uint64, error) {
	raw, err := l.db.Get(key)
	var next uint64 = 1
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		next = binary.BigEndian.Uint64(raw) + 1
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := l.db.Put(key, buf); err != nil {
		return 0, err
	}
	return next, nil
}

func uintKey(prefix []byte, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

func contributionKey(transactionID uint64, funder [20]byte) []byte {
	key := uintKey(fundmeContribPrefix, transactionID)
	return append(key, funder[:]...)
}

// FundMeNextID allocates the next campaign identifier.
func (l *Ledger) FundMeNextID() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextSeq(fundmeSeqKey)
}

// FundMePut stores a sanitized copy of the transaction.
func (l *Ledger) FundMePut(tx *fundme.Transaction) error {
	sanitized, err := fundme.SanitizeTransaction(tx)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.put(uintKey(fundmeTxPrefix, sanitized.ID), sanitized)
}

// FundMeGet loads a transaction by id.
func (l *Ledger) FundMeGet(id uint64) (*fundme.Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var tx fundme.Transaction
	ok, err := l.get(uintKey(fundmeTxPrefix, id), &tx)
	if err != nil || !ok {
		return nil, false
	}
	return &tx, true
}

// ContributionPut records a funder's cumulative contribution.
func (l *Ledger) ContributionPut(transactionID uint64, funder [20]byte, total *big.Int) error {
	if total == nil || total.Sign() < 0 {
		return fmt.Errorf("state: contribution must be non-negative")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Put(contributionKey(transactionID, funder), []byte(total.String()))
}

// ContributionGet loads a funder's cumulative contribution.
func (l *Ledger) ContributionGet(transactionID uint64, funder [20]byte) (*big.Int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	raw, err := l.db.Get(contributionKey(transactionID, funder))
	if err != nil {
		return nil, false
	}
	total, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, false
	}
	return total, true
}

type disputeRef struct {
	TransactionID uint64 `json:"transactionId"`
	MilestoneID   uint64 `json:"milestoneId"`
}

// DisputeIndexPut maps an authority dispute id to its milestone.
func (l *Ledger) DisputeIndexPut(disputeID uint64, transactionID, milestoneID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.put(uintKey(fundmeDisputePrefix, disputeID), disputeRef{
		TransactionID: transactionID,
		MilestoneID:   milestoneID,
	})
}

// DisputeIndexGet resolves an authority dispute id to its milestone.
func (l *Ledger) DisputeIndexGet(disputeID uint64) (uint64, uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var ref disputeRef
	ok, err := l.get(uintKey(fundmeDisputePrefix, disputeID), &ref)
	if err != nil || !ok {
		return 0, 0, false
	}
	return ref.TransactionID, ref.MilestoneID, true
}

// DirectNextID allocates the next escrow identifier.
func (l *Ledger) DirectNextID() (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextSeq(directSeqKey)
}

// DirectPut stores a sanitized copy of the escrow.
func (l *Ledger) DirectPut(esc *fundme.DirectEscrow) error {
	sanitized, err := fundme.SanitizeDirectEscrow(esc)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.put(uintKey(directPrefix, sanitized.ID), sanitized)
}

// DirectGet loads an escrow by id.
func (l *Ledger) DirectGet(id uint64) (*fundme.DirectEscrow, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var esc fundme.DirectEscrow
	ok, err := l.get(uintKey(directPrefix, id), &esc)
	if err != nil || !ok {
		return nil, false
	}
	return &esc, true
}

// DirectDisputeIndexPut maps an authority dispute id to its escrow.
func (l *Ledger) DirectDisputeIndexPut(disputeID, escrowID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.put(uintKey(directDisputePrefix, disputeID), escrowID)
}

// DirectDisputeIndexGet resolves an authority dispute id to its escrow.
func (l *Ledger) DirectDisputeIndexGet(disputeID uint64) (uint64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var escrowID uint64
	ok, err := l.get(uintKey(directDisputePrefix, disputeID), &escrowID)
	if err != nil || !ok {
		return 0, false
	}
	return escrowID, true
}

// GetAccount loads an account, returning an empty account when absent.
func (l *Ledger) GetAccount(addr []byte) (*types.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	key := append(append([]byte(nil), accountPrefix...), addr...)
	account := &types.Account{
		BalanceNative: big.NewInt(0),
		TokenBalances: make(map[string]*big.Int),
	}
	if _, err := l.get(key, account); err != nil {
		return nil, err
	}
	if account.BalanceNative == nil {
		account.BalanceNative = big.NewInt(0)
	}
	if account.TokenBalances == nil {
		account.TokenBalances = make(map[string]*big.Int)
	}
	return account, nil
}

// PutAccount stores an account.
func (l *Ledger) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := append(append([]byte(nil), accountPrefix...), addr...)
	return l.put(key, account)
}
