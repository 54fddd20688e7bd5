package fundme

import (
	"errors"
	"fmt"
	"math/big"
)

// Party identifies a side of the dispute fee race. The milestone variant maps
// the claimant to the beneficiary and the challenger to the funder
// representative; the two-party variant maps them to receiver and sender.
type Party uint8

const (
	PartyNone Party = iota
	PartyClaimant
	PartyChallenger
)

func (p Party) String() string {
	switch p {
	case PartyClaimant:
		return "claimant"
	case PartyChallenger:
		return "challenger"
	default:
		return "none"
	}
}

// Other returns the opposing side.
func (p Party) Other() Party {
	switch p {
	case PartyClaimant:
		return PartyChallenger
	case PartyChallenger:
		return PartyClaimant
	default:
		return PartyNone
	}
}

// ErrFeeAlreadyDeposited is returned when a side tries to stake its
// arbitration fee twice in the same round.
var ErrFeeAlreadyDeposited = errors.New("fundme: arbitration fee already deposited")

// DisputeRound tracks the paired arbitration deposits required before a
// dispute can be escalated. The first depositor sets a counter-deadline for
// the other side; abandonment past that deadline resolves the round in the
// staker's favour without involving the authority.
type DisputeRound struct {
	ClaimantFee     *big.Int `json:"claimantFee"`
	ChallengerFee   *big.Int `json:"challengerFee"`
	Challenger      [20]byte `json:"challenger"`
	CounterDeadline int64    `json:"counterDeadline"`
	DisputeID       uint64   `json:"disputeId"`
}

// NewDisputeRound returns an empty round with zeroed deposits.
func NewDisputeRound() *DisputeRound {
	return &DisputeRound{ClaimantFee: big.NewInt(0), ChallengerFee: big.NewInt(0)}
}

// Clone returns a deep copy of the round.
func (r *DisputeRound) Clone() *DisputeRound {
	if r == nil {
		return nil
	}
	clone := *r
	if r.ClaimantFee != nil {
		clone.ClaimantFee = new(big.Int).Set(r.ClaimantFee)
	}
	if r.ChallengerFee != nil {
		clone.ChallengerFee = new(big.Int).Set(r.ChallengerFee)
	}
	return &clone
}

func (r *DisputeRound) fee(side Party) *big.Int {
	switch side {
	case PartyClaimant:
		if r.ClaimantFee == nil {
			r.ClaimantFee = big.NewInt(0)
		}
		return r.ClaimantFee
	case PartyChallenger:
		if r.ChallengerFee == nil {
			r.ChallengerFee = big.NewInt(0)
		}
		return r.ChallengerFee
	default:
		return big.NewInt(0)
	}
}

// Deposited reports whether the side has already staked its fee.
func (r *DisputeRound) Deposited(side Party) bool {
	if r == nil {
		return false
	}
	return r.fee(side).Sign() > 0
}

// Deposit records a side's arbitration fee. The first deposit arms the
// counter-deadline for the opposing side and, for the challenger side,
// records the representative identity. Complete is true once both sides have
// staked.
func (r *DisputeRound) Deposit(side Party, from [20]byte, amount *big.Int, counterDeadline int64) (bool, error) {
	if r == nil {
		return false, fmt.Errorf("fundme: nil dispute round")
	}
	if side != PartyClaimant && side != PartyChallenger {
		return false, fmt.Errorf("fundme: invalid fee race side %d", side)
	}
	if amount == nil || amount.Sign() <= 0 {
		return false, fmt.Errorf("fundme: fee deposit must be positive")
	}
	if r.Deposited(side) {
		return false, ErrFeeAlreadyDeposited
	}
	r.fee(side).Set(amount)
	if side == PartyChallenger && r.Challenger == ([20]byte{}) {
		r.Challenger = from
	}
	if !r.Deposited(side.Other()) {
		r.CounterDeadline = counterDeadline
	}
	return r.Deposited(side.Other()), nil
}

// Add increases a side's stake, used when a side re-funds its fee on appeal.
func (r *DisputeRound) Add(side Party, amount *big.Int) {
	if r == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	r.fee(side).Add(r.fee(side), amount)
}

// AbandonedBy returns the side that staked its fee alone and whose opponent
// let the counter-deadline lapse, or PartyNone when the race is still live.
func (r *DisputeRound) AbandonedBy(now int64) Party {
	if r == nil || r.CounterDeadline == 0 || now <= r.CounterDeadline {
		return PartyNone
	}
	claimant := r.Deposited(PartyClaimant)
	challenger := r.Deposited(PartyChallenger)
	switch {
	case claimant && !challenger:
		return PartyChallenger
	case challenger && !claimant:
		return PartyClaimant
	default:
		return PartyNone
	}
}

// FeePayouts splits the staked fees for the supplied winner: the winning side
// recovers its own stake plus the loser's forfeited stake, while PartyNone
// (a split ruling) returns each stake to its depositor.
func (r *DisputeRound) FeePayouts(winner Party) (toClaimant, toChallenger *big.Int) {
	if r == nil {
		return big.NewInt(0), big.NewInt(0)
	}
	claimant := new(big.Int).Set(r.fee(PartyClaimant))
	challenger := new(big.Int).Set(r.fee(PartyChallenger))
	switch winner {
	case PartyClaimant:
		return claimant.Add(claimant, challenger), big.NewInt(0)
	case PartyChallenger:
		return big.NewInt(0), challenger.Add(challenger, claimant)
	default:
		return claimant, challenger
	}
}
