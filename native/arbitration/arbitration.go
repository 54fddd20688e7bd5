// Package arbitration defines the narrow capability surface between the
// escrow engines and an external ruling authority, plus a centralized
// reference authority with an appeal window.
package arbitration

import (
	"errors"
	"math/big"
)

// RulingRefused is the authority's "no side favoured" code. Engines treat it
// as a split outcome. Codes 1..choices favour one of the registered sides.
const RulingRefused uint64 = 0

var (
	// ErrUnauthorizedRuler rejects ruling callbacks that do not originate
	// from the authority registered for the dispute.
	ErrUnauthorizedRuler = errors.New("arbitration: unauthorized ruler")
	// ErrInsufficientFee rejects dispute or appeal payments below the
	// computed cost.
	ErrInsufficientFee = errors.New("arbitration: insufficient fee")
	// ErrDisputeNotFound is returned for unknown dispute identifiers.
	ErrDisputeNotFound = errors.New("arbitration: dispute not found")
	// ErrAppealPeriodOpen rejects finalization while the appeal window is
	// still running.
	ErrAppealPeriodOpen = errors.New("arbitration: appeal period still open")
	// ErrAppealPeriodOver rejects appeals lodged after the window elapsed.
	ErrAppealPeriodOver = errors.New("arbitration: appeal period over")
	// ErrDisputeSolved rejects operations on a finally ruled dispute.
	ErrDisputeSolved = errors.New("arbitration: dispute already solved")
)

// Arbitrable receives the asynchronous ruling callback. Implementations must
// verify the caller against the authority registered for the dispute and
// reject anything else with ErrUnauthorizedRuler.
type Arbitrable interface {
	Rule(caller [20]byte, disputeID uint64, ruling uint64) error
}

// Arbitrator is the outbound capability surface consumed from the authority.
// The extraData parameter is opaque configuration forwarded unchanged from
// the transaction that opened the dispute.
type Arbitrator interface {
	Address() [20]byte
	ArbitrationCost(extraData []byte) *big.Int
	AppealCost(disputeID uint64, extraData []byte) *big.Int
	CreateDispute(arbitrable Arbitrable, choices uint64, extraData []byte, fee *big.Int) (uint64, error)
	Appeal(disputeID uint64, extraData []byte, fee *big.Int) error
}
