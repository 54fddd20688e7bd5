package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"fundvault/core/types"
)

const (
	TypeFundMeTransactionCreated = "fundme.transaction.created"
	TypeFundMeMetaEvidence       = "fundme.transaction.meta_evidence"
	TypeFundMeTransactionFunded  = "fundme.transaction.funded"
	TypeFundMeMilestoneProposed  = "fundme.milestone.proposed"
	TypeFundMeEvidence           = "fundme.milestone.evidence"
	TypeFundMeHasToPayFee        = "fundme.milestone.has_to_pay_fee"
	TypeFundMeDisputeCreated     = "fundme.milestone.dispute_created"
	TypeFundMeRulingApplied      = "fundme.milestone.ruling_applied"
	TypeFundMeMilestoneResolved  = "fundme.milestone.resolved"
)

type FundMeTransactionCreated struct {
	TransactionID uint64
	Beneficiary   [20]byte
	Token         string
	Milestones    uint64
	CreatedAt     int64
}

func (FundMeTransactionCreated) EventType() string { return TypeFundMeTransactionCreated }

func (e FundMeTransactionCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeTransactionCreated,
		Attributes: map[string]string{
			"transactionId": uintToString(e.TransactionID),
			"beneficiary":   hex.EncodeToString(e.Beneficiary[:]),
			"token":         e.Token,
			"milestones":    uintToString(e.Milestones),
			"createdAt":     intToString(e.CreatedAt),
		},
	}
}

type FundMeMetaEvidence struct {
	TransactionID uint64
	URI           string
}

func (FundMeMetaEvidence) EventType() string { return TypeFundMeMetaEvidence }

func (e FundMeMetaEvidence) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeMetaEvidence,
		Attributes: map[string]string{
			"transactionId": uintToString(e.TransactionID),
			"uri":           e.URI,
		},
	}
}

type FundMeTransactionFunded struct {
	TransactionID uint64
	Funder        [20]byte
	Amount        *big.Int
}

func (FundMeTransactionFunded) EventType() string { return TypeFundMeTransactionFunded }

func (e FundMeTransactionFunded) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeTransactionFunded,
		Attributes: map[string]string{
			"transactionId": uintToString(e.TransactionID),
			"funder":        hex.EncodeToString(e.Funder[:]),
			"amount":        formatAmount(e.Amount),
		},
	}
}

type FundMeMilestoneProposed struct {
	TransactionID   uint64
	MilestoneID     uint64
	AmountClaimable *big.Int
	GraceDeadline   int64
}

func (FundMeMilestoneProposed) EventType() string { return TypeFundMeMilestoneProposed }

func (e FundMeMilestoneProposed) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeMilestoneProposed,
		Attributes: map[string]string{
			"transactionId":   uintToString(e.TransactionID),
			"milestoneId":     uintToString(e.MilestoneID),
			"amountClaimable": formatAmount(e.AmountClaimable),
			"graceDeadline":   intToString(e.GraceDeadline),
		},
	}
}

type FundMeEvidence struct {
	GroupID   [32]byte
	Submitter [20]byte
	URI       string
}

func (FundMeEvidence) EventType() string { return TypeFundMeEvidence }

func (e FundMeEvidence) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeEvidence,
		Attributes: map[string]string{
			"evidenceGroupId": hex.EncodeToString(e.GroupID[:]),
			"submitter":       hex.EncodeToString(e.Submitter[:]),
			"uri":             e.URI,
		},
	}
}

// FundMeHasToPayFee names the side that must counter-deposit before the fee
// race deadline elapses.
type FundMeHasToPayFee struct {
	TransactionID uint64
	MilestoneID   uint64
	Party         string
	Deadline      int64
}

func (FundMeHasToPayFee) EventType() string { return TypeFundMeHasToPayFee }

func (e FundMeHasToPayFee) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeHasToPayFee,
		Attributes: map[string]string{
			"transactionId": uintToString(e.TransactionID),
			"milestoneId":   uintToString(e.MilestoneID),
			"party":         e.Party,
			"deadline":      intToString(e.Deadline),
		},
	}
}

type FundMeDisputeCreated struct {
	TransactionID uint64
	MilestoneID   uint64
	DisputeID     uint64
	Challenger    [20]byte
}

func (FundMeDisputeCreated) EventType() string { return TypeFundMeDisputeCreated }

func (e FundMeDisputeCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeDisputeCreated,
		Attributes: map[string]string{
			"transactionId": uintToString(e.TransactionID),
			"milestoneId":   uintToString(e.MilestoneID),
			"disputeId":     uintToString(e.DisputeID),
			"challenger":    hex.EncodeToString(e.Challenger[:]),
		},
	}
}

type FundMeRulingApplied struct {
	TransactionID uint64
	MilestoneID   uint64
	DisputeID     uint64
	Ruling        uint64
}

func (FundMeRulingApplied) EventType() string { return TypeFundMeRulingApplied }

func (e FundMeRulingApplied) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeRulingApplied,
		Attributes: map[string]string{
			"transactionId": uintToString(e.TransactionID),
			"milestoneId":   uintToString(e.MilestoneID),
			"disputeId":     uintToString(e.DisputeID),
			"ruling":        uintToString(e.Ruling),
		},
	}
}

type FundMeMilestoneResolved struct {
	TransactionID  uint64
	MilestoneID    uint64
	AmountClaimed  *big.Int
	RemainingFunds *big.Int
}

func (FundMeMilestoneResolved) EventType() string { return TypeFundMeMilestoneResolved }

func (e FundMeMilestoneResolved) Event() *types.Event {
	return &types.Event{
		Type: TypeFundMeMilestoneResolved,
		Attributes: map[string]string{
			"transactionId":  uintToString(e.TransactionID),
			"milestoneId":    uintToString(e.MilestoneID),
			"amountClaimed":  formatAmount(e.AmountClaimed),
			"remainingFunds": formatAmount(e.RemainingFunds),
		},
	}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func intToString(v int64) string {
	return strconv.FormatInt(v, 10)
}

func uintToString(v uint64) string {
	return strconv.FormatUint(v, 10)
}
