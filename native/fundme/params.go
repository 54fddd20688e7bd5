package fundme

import (
	"fmt"
	"math/big"
)

// Params collects the fee and timeout policy shared by both escrow variants.
// All values are pure configuration; the engines never mutate them.
type Params struct {
	// CreateTransactionFee is the flat native-asset payment required to open
	// a crowdfunding transaction.
	CreateTransactionFee *big.Int
	// MaxMilestones bounds the milestone schedule length at creation.
	MaxMilestones uint32
	// FeeDepositTimeout is how long the second side of the fee race has to
	// counter-deposit, in seconds.
	FeeDepositTimeout int64
	// AppealWindow is how long a preliminary ruling stays appealable, in
	// seconds. Consumed by the arbitration authority configuration.
	AppealWindow int64
	// SplitBps is the claimant side's share of the contested amount on a
	// split ruling, in basis points. The beneficiary plays the claimant in
	// the milestone variant, the receiver in the two-party variant.
	SplitBps uint32
	// DefaultWithdrawGrace is applied when a transaction is created without
	// an explicit grace period, in seconds.
	DefaultWithdrawGrace int64
}

// DefaultParams returns the policy used when no configuration overrides it.
func DefaultParams() Params {
	return Params{
		CreateTransactionFee: big.NewInt(1),
		MaxMilestones:        20,
		FeeDepositTimeout:    3600,
		AppealWindow:         3600,
		SplitBps:             5000,
		DefaultWithdrawGrace: 86400,
	}
}

// Validate checks the policy ranges.
func (p Params) Validate() error {
	if p.CreateTransactionFee == nil || p.CreateTransactionFee.Sign() < 0 {
		return fmt.Errorf("fundme: create transaction fee must be non-negative")
	}
	if p.MaxMilestones == 0 {
		return fmt.Errorf("fundme: max milestones must be positive")
	}
	if p.FeeDepositTimeout <= 0 {
		return fmt.Errorf("fundme: fee deposit timeout must be positive")
	}
	if p.AppealWindow <= 0 {
		return fmt.Errorf("fundme: appeal window must be positive")
	}
	if p.SplitBps > BpsDenominator {
		return fmt.Errorf("fundme: split bps out of range: %d", p.SplitBps)
	}
	if p.DefaultWithdrawGrace <= 0 {
		return fmt.Errorf("fundme: default withdraw grace must be positive")
	}
	return nil
}
