package fundme

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
)

// BpsDenominator is the fixed-point base for milestone unlock fractions.
const BpsDenominator = 10_000

// MilestoneStatus tracks the dispute state machine of a single milestone.
type MilestoneStatus uint8

const (
	// MilestoneCreated marks milestones that have not been proposed for
	// release yet.
	MilestoneCreated MilestoneStatus = iota
	// MilestoneClaiming marks milestones inside the withdrawal grace period,
	// open to a fee-race challenge.
	MilestoneClaiming
	// MilestoneDisputed marks milestones escalated to the arbitration
	// authority. The frozen claimable amount does not move until a ruling.
	MilestoneDisputed
	// MilestoneResolved is terminal. Resolved milestones are never mutated
	// again.
	MilestoneResolved
)

// Valid reports whether the status value is within the supported range.
func (s MilestoneStatus) Valid() bool {
	switch s {
	case MilestoneCreated, MilestoneClaiming, MilestoneDisputed, MilestoneResolved:
		return true
	default:
		return false
	}
}

// ErrInvalidTransaction describes malformed transaction definitions.
var ErrInvalidTransaction = errors.New("fundme: invalid transaction")

// Milestone is one stage of a transaction, unlocking a fixed-point share of
// the remaining pool once claimed and uncontested or ruled in the
// beneficiary's favour.
type Milestone struct {
	ID              uint64          `json:"id"`
	UnlockBps       uint32          `json:"unlockBps"`
	AmountClaimable *big.Int        `json:"amountClaimable"`
	AmountClaimed   *big.Int        `json:"amountClaimed"`
	Status          MilestoneStatus `json:"status"`
	DisputeID       uint64          `json:"disputeId"`
	GraceDeadline   int64           `json:"graceDeadline"`
	Round           *DisputeRound   `json:"round"`
}

// Clone returns a deep copy of the milestone.
func (m *Milestone) Clone() *Milestone {
	if m == nil {
		return nil
	}
	clone := *m
	if m.AmountClaimable != nil {
		clone.AmountClaimable = new(big.Int).Set(m.AmountClaimable)
	}
	if m.AmountClaimed != nil {
		clone.AmountClaimed = new(big.Int).Set(m.AmountClaimed)
	}
	clone.Round = m.Round.Clone()
	return &clone
}

func (m *Milestone) ensureAmounts() {
	if m.AmountClaimable == nil {
		m.AmountClaimable = big.NewInt(0)
	}
	if m.AmountClaimed == nil {
		m.AmountClaimed = big.NewInt(0)
	}
	if m.Round == nil {
		m.Round = NewDisputeRound()
	}
}

// Transaction is one crowdfunding campaign: a funding pool released to the
// beneficiary milestone by milestone.
type Transaction struct {
	ID                  uint64       `json:"id"`
	Beneficiary         [20]byte     `json:"beneficiary"`
	Token               string       `json:"token"`
	ArbitratorExtraData []byte       `json:"arbitratorExtraData,omitempty"`
	WithdrawGrace       int64        `json:"withdrawGrace"`
	TotalFunded         *big.Int     `json:"totalFunded"`
	RemainingFunds      *big.Int     `json:"remainingFunds"`
	Milestones          []*Milestone `json:"milestones"`
	CurrentMilestone    uint64       `json:"currentMilestone"`
	CreatedAt           int64        `json:"createdAt"`
}

// Clone returns a deep copy of the transaction so callers can safely mutate
// the copy without affecting the stored instance.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	if t.TotalFunded != nil {
		clone.TotalFunded = new(big.Int).Set(t.TotalFunded)
	}
	if t.RemainingFunds != nil {
		clone.RemainingFunds = new(big.Int).Set(t.RemainingFunds)
	}
	if len(t.ArbitratorExtraData) > 0 {
		clone.ArbitratorExtraData = append([]byte(nil), t.ArbitratorExtraData...)
	}
	if len(t.Milestones) > 0 {
		clone.Milestones = make([]*Milestone, len(t.Milestones))
		for i, m := range t.Milestones {
			clone.Milestones[i] = m.Clone()
		}
	}
	return &clone
}

// Milestone returns the milestone with the supplied index.
func (t *Transaction) Milestone(id uint64) *Milestone {
	if t == nil || id >= uint64(len(t.Milestones)) {
		return nil
	}
	return t.Milestones[id]
}

// SanitizeTransaction validates and normalises the supplied transaction,
// returning a cloned instance with non-nil amount fields. The original value
// is not mutated.
func SanitizeTransaction(t *Transaction) (*Transaction, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transaction", ErrInvalidTransaction)
	}
	clone := t.Clone()
	if clone.TotalFunded == nil {
		clone.TotalFunded = big.NewInt(0)
	}
	if clone.RemainingFunds == nil {
		clone.RemainingFunds = big.NewInt(0)
	}
	if clone.TotalFunded.Sign() < 0 || clone.RemainingFunds.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative funding totals", ErrInvalidTransaction)
	}
	if len(clone.Milestones) == 0 {
		return nil, fmt.Errorf("%w: at least one milestone required", ErrInvalidTransaction)
	}
	var sum uint64
	for _, m := range clone.Milestones {
		if m == nil {
			return nil, fmt.Errorf("%w: nil milestone", ErrInvalidTransaction)
		}
		if !m.Status.Valid() {
			return nil, fmt.Errorf("%w: invalid milestone status %d", ErrInvalidTransaction, m.Status)
		}
		m.ensureAmounts()
		sum += uint64(m.UnlockBps)
	}
	if sum != BpsDenominator {
		return nil, fmt.Errorf("%w: unlock fractions must sum to %d bps", ErrInvalidTransaction, BpsDenominator)
	}
	return clone, nil
}

// EvidenceGroupID derives the deterministic evidence identifier for a
// milestone: the transaction and milestone ids packed as two 128-bit
// big-endian fields into one 256-bit value. The same pair always yields the
// same identifier, keeping the stream interoperable with existing observers.
func EvidenceGroupID(transactionID, milestoneID uint64) [32]byte {
	var id [32]byte
	binary.BigEndian.PutUint64(id[8:16], transactionID)
	binary.BigEndian.PutUint64(id[24:32], milestoneID)
	return id
}
