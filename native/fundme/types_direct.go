package fundme

import (
	"fmt"
	"math/big"
)

// DirectStatus tracks the lifecycle of a two-party escrow.
type DirectStatus uint8

const (
	// DirectNoDispute is the working state: partial releases and refunds
	// are allowed and either side may open the fee race.
	DirectNoDispute DirectStatus = iota
	// DirectWaitingSender means the receiver staked its fee and the sender
	// must counter before the deadline.
	DirectWaitingSender
	// DirectWaitingReceiver means the sender staked its fee and the receiver
	// must counter before the deadline.
	DirectWaitingReceiver
	// DirectDisputeCreated means both fees are staked and the authority
	// holds the outcome.
	DirectDisputeCreated
	// DirectResolved is terminal.
	DirectResolved
)

func (s DirectStatus) Valid() bool { return s <= DirectResolved }

func (s DirectStatus) String() string {
	switch s {
	case DirectNoDispute:
		return "no_dispute"
	case DirectWaitingSender:
		return "waiting_sender"
	case DirectWaitingReceiver:
		return "waiting_receiver"
	case DirectDisputeCreated:
		return "dispute_created"
	case DirectResolved:
		return "resolved"
	default:
		return fmt.Sprintf("direct_status(%d)", uint8(s))
	}
}

// DirectEscrow is a single sender/receiver deal with an execution deadline.
// The escrowed amount shrinks as partial payments and reimbursements are
// made; whatever remains at resolution goes to the ruling winner. The fee
// race reuses DisputeRound with the receiver on the claimant side.
type DirectEscrow struct {
	ID              uint64        `json:"id"`
	Sender          [20]byte      `json:"sender"`
	Receiver        [20]byte      `json:"receiver"`
	Token           string        `json:"token"`
	Amount          *big.Int      `json:"amount"`
	Deadline        int64         `json:"deadline"`
	Status          DirectStatus  `json:"status"`
	DisputeID       uint64        `json:"disputeId"`
	Round           *DisputeRound `json:"round"`
	ExtraData       []byte        `json:"extraData,omitempty"`
	CreatedAt       int64         `json:"createdAt"`
	ResolvedOutcome string        `json:"resolvedOutcome,omitempty"`
}

// Clone returns a deep copy safe for callers to mutate.
func (d *DirectEscrow) Clone() *DirectEscrow {
	if d == nil {
		return nil
	}
	clone := *d
	if d.Amount != nil {
		clone.Amount = new(big.Int).Set(d.Amount)
	}
	clone.Round = d.Round.Clone()
	clone.ExtraData = append([]byte(nil), d.ExtraData...)
	return &clone
}

// SanitizeDirectEscrow validates a stored record and normalizes nil amounts.
func SanitizeDirectEscrow(d *DirectEscrow) (*DirectEscrow, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil escrow", ErrInvalidTransaction)
	}
	clone := d.Clone()
	if clone.Amount == nil {
		clone.Amount = big.NewInt(0)
	}
	if clone.Amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative escrow amount", ErrInvalidTransaction)
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("%w: invalid escrow status %d", ErrInvalidTransaction, clone.Status)
	}
	if clone.Round == nil {
		clone.Round = NewDisputeRound()
	}
	return clone, nil
}
