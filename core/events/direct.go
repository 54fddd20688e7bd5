package events

import (
	"encoding/hex"
	"math/big"

	"fundvault/core/types"
)

const (
	TypeDirectCreated        = "direct.escrow.created"
	TypeDirectMetaEvidence   = "direct.escrow.meta_evidence"
	TypeDirectPayment        = "direct.escrow.payment"
	TypeDirectHasToPayFee    = "direct.escrow.has_to_pay_fee"
	TypeDirectDisputeCreated = "direct.escrow.dispute_created"
	TypeDirectRulingApplied  = "direct.escrow.ruling_applied"
	TypeDirectResolved       = "direct.escrow.resolved"
)

type DirectCreated struct {
	EscrowID  uint64
	Sender    [20]byte
	Receiver  [20]byte
	Amount    *big.Int
	CreatedAt int64
}

func (DirectCreated) EventType() string { return TypeDirectCreated }

func (e DirectCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeDirectCreated,
		Attributes: map[string]string{
			"escrowId":  uintToString(e.EscrowID),
			"sender":    hex.EncodeToString(e.Sender[:]),
			"receiver":  hex.EncodeToString(e.Receiver[:]),
			"amount":    formatAmount(e.Amount),
			"createdAt": intToString(e.CreatedAt),
		},
	}
}

type DirectMetaEvidence struct {
	EscrowID uint64
	URI      string
}

func (DirectMetaEvidence) EventType() string { return TypeDirectMetaEvidence }

func (e DirectMetaEvidence) Event() *types.Event {
	return &types.Event{
		Type: TypeDirectMetaEvidence,
		Attributes: map[string]string{
			"escrowId": uintToString(e.EscrowID),
			"uri":      e.URI,
		},
	}
}

// DirectPayment records a voluntary transfer made while no dispute is open.
// Party is the caller that moved the funds.
type DirectPayment struct {
	EscrowID uint64
	Amount   *big.Int
	Party    [20]byte
}

func (DirectPayment) EventType() string { return TypeDirectPayment }

func (e DirectPayment) Event() *types.Event {
	return &types.Event{
		Type: TypeDirectPayment,
		Attributes: map[string]string{
			"escrowId": uintToString(e.EscrowID),
			"amount":   formatAmount(e.Amount),
			"party":    hex.EncodeToString(e.Party[:]),
		},
	}
}

type DirectHasToPayFee struct {
	EscrowID uint64
	Party    string
	Deadline int64
}

func (DirectHasToPayFee) EventType() string { return TypeDirectHasToPayFee }

func (e DirectHasToPayFee) Event() *types.Event {
	return &types.Event{
		Type: TypeDirectHasToPayFee,
		Attributes: map[string]string{
			"escrowId": uintToString(e.EscrowID),
			"party":    e.Party,
			"deadline": intToString(e.Deadline),
		},
	}
}

type DirectDisputeCreated struct {
	EscrowID  uint64
	DisputeID uint64
}

func (DirectDisputeCreated) EventType() string { return TypeDirectDisputeCreated }

func (e DirectDisputeCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeDirectDisputeCreated,
		Attributes: map[string]string{
			"escrowId":  uintToString(e.EscrowID),
			"disputeId": uintToString(e.DisputeID),
		},
	}
}

type DirectRulingApplied struct {
	EscrowID  uint64
	DisputeID uint64
	Ruling    uint64
}

func (DirectRulingApplied) EventType() string { return TypeDirectRulingApplied }

func (e DirectRulingApplied) Event() *types.Event {
	return &types.Event{
		Type: TypeDirectRulingApplied,
		Attributes: map[string]string{
			"escrowId":  uintToString(e.EscrowID),
			"disputeId": uintToString(e.DisputeID),
			"ruling":    uintToString(e.Ruling),
		},
	}
}

type DirectResolved struct {
	EscrowID uint64
	Outcome  string
}

func (DirectResolved) EventType() string { return TypeDirectResolved }

func (e DirectResolved) Event() *types.Event {
	return &types.Event{
		Type: TypeDirectResolved,
		Attributes: map[string]string{
			"escrowId": uintToString(e.EscrowID),
			"outcome":  e.Outcome,
		},
	}
}
