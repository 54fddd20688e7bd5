package fundme

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"fundvault/core/events"
	"fundvault/native/arbitration"
	nativecommon "fundvault/native/common"
	"fundvault/native/token"
)

const moduleName = "fundme"

// rulingOptions is the number of sides the authority can favour: the
// beneficiary or the funders. RulingRefused (0) splits.
const rulingOptions = 2

const (
	// RulingBeneficiary releases the frozen claim and both fee stakes to the
	// beneficiary.
	RulingBeneficiary uint64 = 1
	// RulingFunders returns the frozen claim to the pool and both fee stakes
	// to the challenger representative.
	RulingFunders uint64 = 2
)

var (
	errNilState = errors.New("fundme engine: state not configured")

	// ErrPaymentTooSmall rejects creation payments below the flat fee.
	ErrPaymentTooSmall = errors.New("fundme: creation payment too small")
	// ErrTooManyMilestones rejects schedules longer than the configured max.
	ErrTooManyMilestones = errors.New("fundme: too many milestones")
	// ErrFractionsNotComplete rejects unlock fractions that do not sum to
	// exactly 1.0 in basis points.
	ErrFractionsNotComplete = errors.New("fundme: unlock fractions do not sum to one")
	// ErrTransactionNotFound is returned for unknown transaction ids.
	ErrTransactionNotFound = errors.New("fundme: transaction not found")
	// ErrMilestoneNotFound is returned for out-of-range milestone ids.
	ErrMilestoneNotFound = errors.New("fundme: milestone not found")
	// ErrOnlyBeneficiary rejects claim requests by anyone else.
	ErrOnlyBeneficiary = errors.New("fundme: only the beneficiary may claim")
	// ErrMilestoneNotClaimable rejects activity on a milestone other than the
	// current one.
	ErrMilestoneNotClaimable = errors.New("fundme: milestone not claimable yet")
	// ErrInvalidTransition marks operations illegal in the current status.
	ErrInvalidTransition = errors.New("fundme: invalid milestone transition")
	// ErrGraceNotElapsed rejects finalization before the grace deadline.
	ErrGraceNotElapsed = errors.New("fundme: withdrawal grace period not elapsed")
	// ErrDisputePending rejects uncontested finalization while a fee stake is
	// on deposit.
	ErrDisputePending = errors.New("fundme: fee race in progress")
	// ErrNotFunder rejects challenge deposits from parties without a
	// recorded contribution.
	ErrNotFunder = errors.New("fundme: caller has no recorded contribution")
	// ErrDeadlineNotReached rejects timeout claims before the counter
	// deadline lapsed.
	ErrDeadlineNotReached = errors.New("fundme: counter deadline not reached")
	// ErrAlreadyResolved rejects any action on a resolved milestone. Rulings
	// and timeouts are idempotent-by-design entry points, so this is the
	// load-bearing defensive check.
	ErrAlreadyResolved = errors.New("fundme: milestone already resolved")
	// ErrDisputeNotFound is returned for ruling callbacks with an unknown
	// dispute id.
	ErrDisputeNotFound = errors.New("fundme: dispute not found")
	// ErrInvalidRuling rejects ruling codes outside the supported range.
	ErrInvalidRuling = errors.New("fundme: invalid ruling")
	// ErrNotDisputeParty rejects appeals from anyone but the two staked
	// sides.
	ErrNotDisputeParty = errors.New("fundme: caller is not a dispute party")
)

type engineState interface {
	FundMeNextID() (uint64, error)
	FundMePut(*Transaction) error
	FundMeGet(id uint64) (*Transaction, bool)
	ContributionPut(transactionID uint64, funder [20]byte, total *big.Int) error
	ContributionGet(transactionID uint64, funder [20]byte) (*big.Int, bool)
	DisputeIndexPut(disputeID uint64, transactionID, milestoneID uint64) error
	DisputeIndexGet(disputeID uint64) (transactionID, milestoneID uint64, ok bool)
}

// Engine owns the crowdfunding transactions and drives the per-milestone
// dispute state machine. All mutating operations assume serialized execution
// by the host; the engine never blocks waiting for time or rulings.
type Engine struct {
	state       engineState
	registry    *token.Registry
	native      *token.NativeMover
	arbitrator  arbitration.Arbitrator
	params      Params
	feeTreasury [20]byte
	emitter     events.Emitter
	nowFn       func() int64
	pauses      nativecommon.PauseView
}

// NewEngine creates a fundme engine with default policy and a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		params:  DefaultParams(),
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetRegistry configures the asset mover registry.
func (e *Engine) SetRegistry(r *token.Registry) { e.registry = r }

// SetNativeMover configures the native-asset mover used for fees and
// arbitration deposits.
func (e *Engine) SetNativeMover(m *token.NativeMover) { e.native = m }

// SetArbitrator configures the arbitration authority for new disputes.
func (e *Engine) SetArbitrator(a arbitration.Arbitrator) { e.arbitrator = a }

// SetParams overrides the fee and timeout policy.
func (e *Engine) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// Params returns the active policy.
func (e *Engine) Params() Params { return e.params }

// SetFeeTreasury configures the address that receives creation fees.
func (e *Engine) SetFeeTreasury(addr [20]byte) { e.feeTreasury = addr }

// SetPauses configures the module pause view.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) guard() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) loadTransaction(id uint64) (*Transaction, error) {
	tx, ok := e.state.FundMeGet(id)
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

// CreateTransaction opens a crowdfunding campaign. The caller pays the flat
// creation fee in the native asset; unlock fractions are basis points that
// must sum to exactly BpsDenominator. Returns the new sequential id.
func (e *Engine) CreateTransaction(caller [20]byte, payment *big.Int, unlockBps []uint32, tokenSymbol string, extraData []byte, withdrawGrace int64, metaEvidence string) (uint64, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	if payment == nil || payment.Cmp(e.params.CreateTransactionFee) < 0 {
		return 0, ErrPaymentTooSmall
	}
	if uint32(len(unlockBps)) > e.params.MaxMilestones {
		return 0, ErrTooManyMilestones
	}
	if len(unlockBps) == 0 {
		return 0, fmt.Errorf("%w: at least one milestone required", ErrInvalidTransaction)
	}
	var sum uint64
	for _, bps := range unlockBps {
		sum += uint64(bps)
	}
	if sum != BpsDenominator {
		return 0, ErrFractionsNotComplete
	}
	if e.registry == nil {
		return 0, token.ErrAssetNotRegistered
	}
	mover, err := e.registry.Resolve(tokenSymbol)
	if err != nil {
		return 0, err
	}
	if withdrawGrace <= 0 {
		withdrawGrace = e.params.DefaultWithdrawGrace
	}
	if err := e.native.Move(caller, e.feeTreasury, payment); err != nil {
		return 0, err
	}
	id, err := e.state.FundMeNextID()
	if err != nil {
		return 0, err
	}
	now := e.now()
	tx := &Transaction{
		ID:                  id,
		Beneficiary:         caller,
		Token:               mover.Symbol(),
		ArbitratorExtraData: append([]byte(nil), extraData...),
		WithdrawGrace:       withdrawGrace,
		TotalFunded:         big.NewInt(0),
		RemainingFunds:      big.NewInt(0),
		Milestones:          make([]*Milestone, len(unlockBps)),
		CreatedAt:           now,
	}
	for i, bps := range unlockBps {
		tx.Milestones[i] = &Milestone{
			ID:              uint64(i),
			UnlockBps:       bps,
			AmountClaimable: big.NewInt(0),
			AmountClaimed:   big.NewInt(0),
			Status:          MilestoneCreated,
			Round:           NewDisputeRound(),
		}
	}
	if err := e.state.FundMePut(tx); err != nil {
		return 0, err
	}
	e.emit(events.FundMeTransactionCreated{
		TransactionID: id,
		Beneficiary:   caller,
		Token:         tx.Token,
		Milestones:    uint64(len(tx.Milestones)),
		CreatedAt:     now,
	})
	if strings.TrimSpace(metaEvidence) != "" {
		e.emit(events.FundMeMetaEvidence{TransactionID: id, URI: metaEvidence})
	}
	return id, nil
}

// FundTransaction moves amount of the campaign asset from the caller into the
// pool. Mover failures propagate unmodified and leave the ledger untouched.
func (e *Engine) FundTransaction(caller [20]byte, id uint64, amount *big.Int) error {
	if err := e.guard(); err != nil {
		return err
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("fundme: funding amount must be positive")
	}
	mover, err := e.registry.Resolve(tx.Token)
	if err != nil {
		return err
	}
	if err := mover.TransferIn(caller, amount); err != nil {
		return err
	}
	tx.TotalFunded = new(big.Int).Add(tx.TotalFunded, amount)
	tx.RemainingFunds = new(big.Int).Add(tx.RemainingFunds, amount)
	total, _ := e.state.ContributionGet(id, caller)
	if total == nil {
		total = big.NewInt(0)
	}
	total = new(big.Int).Add(total, amount)
	if err := e.state.ContributionPut(id, caller, total); err != nil {
		return err
	}
	if err := e.state.FundMePut(tx); err != nil {
		return err
	}
	e.emit(events.FundMeTransactionFunded{TransactionID: id, Funder: caller, Amount: amount})
	return nil
}

// MilestoneAmountClaimable computes the share of the remaining pool the
// milestone would unlock right now: remaining funds scaled by the milestone's
// fraction re-normalized against all not-yet-resolved fractions at or above
// it. Integer division truncates toward zero; remainders stay in the pool for
// later milestones.
func (e *Engine) MilestoneAmountClaimable(id, milestoneID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	return milestoneClaimable(tx, milestoneID)
}

func milestoneClaimable(tx *Transaction, milestoneID uint64) (*big.Int, error) {
	m := tx.Milestone(milestoneID)
	if m == nil {
		return nil, ErrMilestoneNotFound
	}
	var unclaimedBps uint64
	for _, candidate := range tx.Milestones[milestoneID:] {
		if candidate.Status != MilestoneResolved {
			unclaimedBps += uint64(candidate.UnlockBps)
		}
	}
	if unclaimedBps == 0 {
		return big.NewInt(0), nil
	}
	claimable := new(big.Int).Mul(tx.RemainingFunds, new(big.Int).SetUint64(uint64(m.UnlockBps)))
	return claimable.Div(claimable, new(big.Int).SetUint64(unclaimedBps)), nil
}

// RequestClaimMilestone proposes the current milestone for release. Only the
// beneficiary may call; the claimable amount is computed and frozen, the
// grace clock starts, and the deterministic evidence identifier is published.
func (e *Engine) RequestClaimMilestone(caller [20]byte, id, milestoneID uint64, evidenceURI string) error {
	if err := e.guard(); err != nil {
		return err
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return err
	}
	if caller != tx.Beneficiary {
		return ErrOnlyBeneficiary
	}
	if milestoneID >= uint64(len(tx.Milestones)) {
		return ErrMilestoneNotFound
	}
	if milestoneID != tx.CurrentMilestone {
		return ErrMilestoneNotClaimable
	}
	m := tx.Milestone(milestoneID)
	if m.Status == MilestoneResolved {
		return ErrAlreadyResolved
	}
	if m.Status != MilestoneCreated {
		return fmt.Errorf("%w: milestone %d already claiming", ErrInvalidTransition, milestoneID)
	}
	claimable, err := milestoneClaimable(tx, milestoneID)
	if err != nil {
		return err
	}
	m.AmountClaimable = claimable
	m.Status = MilestoneClaiming
	m.GraceDeadline = e.now() + tx.WithdrawGrace
	if err := e.state.FundMePut(tx); err != nil {
		return err
	}
	e.emit(events.FundMeMilestoneProposed{
		TransactionID:   id,
		MilestoneID:     milestoneID,
		AmountClaimable: claimable,
		GraceDeadline:   m.GraceDeadline,
	})
	e.emit(events.FundMeEvidence{
		GroupID:   EvidenceGroupID(id, milestoneID),
		Submitter: caller,
		URI:       evidenceURI,
	})
	return nil
}

// ClaimMilestone finalizes an unchallenged claim once the grace period has
// elapsed. Any caller may invoke it.
func (e *Engine) ClaimMilestone(id, milestoneID uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return err
	}
	m := tx.Milestone(milestoneID)
	if m == nil {
		return ErrMilestoneNotFound
	}
	if m.Status == MilestoneResolved {
		return ErrAlreadyResolved
	}
	if m.Status != MilestoneClaiming {
		return fmt.Errorf("%w: milestone %d not claiming", ErrInvalidTransition, milestoneID)
	}
	if m.Round.Deposited(PartyClaimant) || m.Round.Deposited(PartyChallenger) {
		return ErrDisputePending
	}
	if e.now() < m.GraceDeadline {
		return ErrGraceNotElapsed
	}
	return e.resolveBeneficiary(tx, m, big.NewInt(0))
}

// PayDisputeFeeByFunders stakes the challenger side of the fee race. The
// caller must have a recorded contribution; the first qualifying depositor
// becomes the challenger representative for the dispute instance.
func (e *Engine) PayDisputeFeeByFunders(caller [20]byte, id, milestoneID uint64, payment *big.Int) error {
	return e.payDisputeFee(caller, id, milestoneID, payment, PartyChallenger)
}

// PayDisputeFeeByBeneficiary stakes the beneficiary side of the fee race,
// either countering a challenge or staking defensively first.
func (e *Engine) PayDisputeFeeByBeneficiary(caller [20]byte, id, milestoneID uint64, payment *big.Int) error {
	return e.payDisputeFee(caller, id, milestoneID, payment, PartyClaimant)
}

func (e *Engine) payDisputeFee(caller [20]byte, id, milestoneID uint64, payment *big.Int, side Party) error {
	if err := e.guard(); err != nil {
		return err
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return err
	}
	m := tx.Milestone(milestoneID)
	if m == nil {
		return ErrMilestoneNotFound
	}
	if m.Status == MilestoneResolved {
		return ErrAlreadyResolved
	}
	if m.Status != MilestoneClaiming {
		return fmt.Errorf("%w: milestone %d accepts no fee deposits", ErrInvalidTransition, milestoneID)
	}
	switch side {
	case PartyClaimant:
		if caller != tx.Beneficiary {
			return ErrOnlyBeneficiary
		}
	case PartyChallenger:
		contribution, ok := e.state.ContributionGet(id, caller)
		if !ok || contribution == nil || contribution.Sign() <= 0 {
			return ErrNotFunder
		}
	}
	cost := e.arbitrator.ArbitrationCost(tx.ArbitratorExtraData)
	if payment == nil || payment.Cmp(cost) < 0 {
		return arbitration.ErrInsufficientFee
	}
	if m.Round.Deposited(side) {
		return ErrFeeAlreadyDeposited
	}
	if err := e.native.TransferIn(caller, payment); err != nil {
		return err
	}
	complete, err := m.Round.Deposit(side, caller, payment, e.now()+e.params.FeeDepositTimeout)
	if err != nil {
		return err
	}
	if !complete {
		if err := e.state.FundMePut(tx); err != nil {
			return err
		}
		e.emit(events.FundMeHasToPayFee{
			TransactionID: id,
			MilestoneID:   milestoneID,
			Party:         side.Other().String(),
			Deadline:      m.Round.CounterDeadline,
		})
		return nil
	}
	disputeID, err := e.arbitrator.CreateDispute(e, rulingOptions, tx.ArbitratorExtraData, cost)
	if err != nil {
		// The authority rejected the dispute; hand the stake back. The
		// round mutation is discarded with the unsaved transaction.
		if refundErr := e.native.TransferOut(caller, payment); refundErr != nil {
			return refundErr
		}
		return err
	}
	m.Status = MilestoneDisputed
	m.DisputeID = disputeID
	m.Round.DisputeID = disputeID
	if err := e.state.DisputeIndexPut(disputeID, id, milestoneID); err != nil {
		return err
	}
	if err := e.state.FundMePut(tx); err != nil {
		return err
	}
	e.emit(events.FundMeDisputeCreated{
		TransactionID: id,
		MilestoneID:   milestoneID,
		DisputeID:     disputeID,
		Challenger:    m.Round.Challenger,
	})
	return nil
}

// TimeoutByFunders resolves the fee race in the challengers' favour after the
// beneficiary failed to counter-deposit in time. The outcome equals a funders
// ruling without involving the authority.
func (e *Engine) TimeoutByFunders(id, milestoneID uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return err
	}
	m := tx.Milestone(milestoneID)
	if m == nil {
		return ErrMilestoneNotFound
	}
	if m.Status == MilestoneResolved {
		return ErrAlreadyResolved
	}
	if m.Status != MilestoneClaiming {
		return fmt.Errorf("%w: milestone %d has no fee race", ErrInvalidTransition, milestoneID)
	}
	if m.Round.AbandonedBy(e.now()) != PartyClaimant {
		return ErrDeadlineNotReached
	}
	_, toChallenger := m.Round.FeePayouts(PartyChallenger)
	return e.resolveChallengers(tx, m, toChallenger)
}

// TimeoutByBeneficiary finalizes the claim after the beneficiary staked its
// fee and no funder countered in time, equivalent to an uncontested
// withdrawal plus refund of the stake.
func (e *Engine) TimeoutByBeneficiary(id, milestoneID uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return err
	}
	m := tx.Milestone(milestoneID)
	if m == nil {
		return ErrMilestoneNotFound
	}
	if m.Status == MilestoneResolved {
		return ErrAlreadyResolved
	}
	if m.Status != MilestoneClaiming {
		return fmt.Errorf("%w: milestone %d has no fee race", ErrInvalidTransition, milestoneID)
	}
	if m.Round.AbandonedBy(e.now()) != PartyChallenger {
		return ErrDeadlineNotReached
	}
	toClaimant, _ := m.Round.FeePayouts(PartyClaimant)
	return e.resolveBeneficiary(tx, m, toClaimant)
}

// AppealRuling re-funds a side's arbitration fee to request reconsideration
// of a preliminary ruling. The dispute identifier does not change.
func (e *Engine) AppealRuling(caller [20]byte, id, milestoneID uint64, payment *big.Int) error {
	if err := e.guard(); err != nil {
		return err
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return err
	}
	m := tx.Milestone(milestoneID)
	if m == nil {
		return ErrMilestoneNotFound
	}
	if m.Status == MilestoneResolved {
		return ErrAlreadyResolved
	}
	if m.Status != MilestoneDisputed {
		return fmt.Errorf("%w: milestone %d not disputed", ErrInvalidTransition, milestoneID)
	}
	var side Party
	switch caller {
	case tx.Beneficiary:
		side = PartyClaimant
	case m.Round.Challenger:
		side = PartyChallenger
	default:
		return ErrNotDisputeParty
	}
	cost := e.arbitrator.AppealCost(m.DisputeID, tx.ArbitratorExtraData)
	if payment == nil || payment.Cmp(cost) < 0 {
		return arbitration.ErrInsufficientFee
	}
	if err := e.native.TransferIn(caller, payment); err != nil {
		return err
	}
	if err := e.arbitrator.Appeal(m.DisputeID, tx.ArbitratorExtraData, payment); err != nil {
		// The appeal was rejected; hand the stake back.
		if refundErr := e.native.TransferOut(caller, payment); refundErr != nil {
			return refundErr
		}
		return err
	}
	m.Round.Add(side, payment)
	return e.state.FundMePut(tx)
}

// Rule applies the authority's final decision for a dispute. Only the
// registered authority may call; re-invocation after resolution fails with
// ErrAlreadyResolved and moves no funds.
func (e *Engine) Rule(caller [20]byte, disputeID uint64, ruling uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	if e.arbitrator == nil || caller != e.arbitrator.Address() {
		return arbitration.ErrUnauthorizedRuler
	}
	id, milestoneID, ok := e.state.DisputeIndexGet(disputeID)
	if !ok {
		return ErrDisputeNotFound
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return err
	}
	m := tx.Milestone(milestoneID)
	if m == nil {
		return ErrMilestoneNotFound
	}
	if m.Status == MilestoneResolved {
		return ErrAlreadyResolved
	}
	if m.Status != MilestoneDisputed {
		return fmt.Errorf("%w: milestone %d not disputed", ErrInvalidTransition, milestoneID)
	}
	if ruling > rulingOptions {
		return ErrInvalidRuling
	}
	var resolveErr error
	switch ruling {
	case RulingBeneficiary:
		toClaimant, _ := m.Round.FeePayouts(PartyClaimant)
		resolveErr = e.resolveBeneficiary(tx, m, toClaimant)
	case RulingFunders:
		_, toChallenger := m.Round.FeePayouts(PartyChallenger)
		resolveErr = e.resolveChallengers(tx, m, toChallenger)
	default:
		resolveErr = e.resolveSplit(tx, m)
	}
	if resolveErr != nil {
		return resolveErr
	}
	// Emitted only once the resolution stuck; a replayed stream never shows
	// a ruling that moved no funds.
	e.emit(events.FundMeRulingApplied{
		TransactionID: id,
		MilestoneID:   milestoneID,
		DisputeID:     disputeID,
		Ruling:        ruling,
	})
	return nil
}

// resolveBeneficiary releases the frozen claim to the beneficiary, optionally
// with a native fee refund. State is stored before any outbound transfer so a
// reentrant call observes the resolved status.
func (e *Engine) resolveBeneficiary(tx *Transaction, m *Milestone, feeRefund *big.Int) error {
	claimed := new(big.Int).Set(m.AmountClaimable)
	m.AmountClaimed = claimed
	tx.RemainingFunds = new(big.Int).Sub(tx.RemainingFunds, claimed)
	m.Status = MilestoneResolved
	tx.CurrentMilestone++
	if err := e.state.FundMePut(tx); err != nil {
		return err
	}
	if claimed.Sign() > 0 {
		mover, err := e.registry.Resolve(tx.Token)
		if err != nil {
			return err
		}
		if err := mover.TransferOut(tx.Beneficiary, claimed); err != nil {
			return err
		}
	}
	if feeRefund != nil && feeRefund.Sign() > 0 {
		if err := e.native.TransferOut(tx.Beneficiary, feeRefund); err != nil {
			return err
		}
	}
	e.emit(events.FundMeMilestoneResolved{
		TransactionID:  tx.ID,
		MilestoneID:    m.ID,
		AmountClaimed:  claimed,
		RemainingFunds: tx.RemainingFunds,
	})
	return nil
}

// resolveChallengers reverses the freeze: the claimable amount stays in the
// remaining pool for later milestones or final refund, and the staked fees go
// to the challenger representative.
func (e *Engine) resolveChallengers(tx *Transaction, m *Milestone, feePayout *big.Int) error {
	m.AmountClaimable = big.NewInt(0)
	m.Status = MilestoneResolved
	tx.CurrentMilestone++
	challenger := m.Round.Challenger
	if err := e.state.FundMePut(tx); err != nil {
		return err
	}
	if feePayout != nil && feePayout.Sign() > 0 {
		if err := e.native.TransferOut(challenger, feePayout); err != nil {
			return err
		}
	}
	e.emit(events.FundMeMilestoneResolved{
		TransactionID:  tx.ID,
		MilestoneID:    m.ID,
		AmountClaimed:  big.NewInt(0),
		RemainingFunds: tx.RemainingFunds,
	})
	return nil
}

// resolveSplit divides the frozen claim per the configured ratio and hands
// each side its own fee stake back.
func (e *Engine) resolveSplit(tx *Transaction, m *Milestone) error {
	share := new(big.Int).Mul(m.AmountClaimable, new(big.Int).SetUint64(uint64(e.params.SplitBps)))
	share.Div(share, big.NewInt(BpsDenominator))
	toClaimant, toChallenger := m.Round.FeePayouts(PartyNone)
	challenger := m.Round.Challenger
	m.AmountClaimed = new(big.Int).Set(share)
	tx.RemainingFunds = new(big.Int).Sub(tx.RemainingFunds, share)
	m.Status = MilestoneResolved
	tx.CurrentMilestone++
	if err := e.state.FundMePut(tx); err != nil {
		return err
	}
	if share.Sign() > 0 {
		mover, err := e.registry.Resolve(tx.Token)
		if err != nil {
			return err
		}
		if err := mover.TransferOut(tx.Beneficiary, share); err != nil {
			return err
		}
	}
	if toClaimant.Sign() > 0 {
		if err := e.native.TransferOut(tx.Beneficiary, toClaimant); err != nil {
			return err
		}
	}
	if toChallenger.Sign() > 0 {
		if err := e.native.TransferOut(challenger, toChallenger); err != nil {
			return err
		}
	}
	e.emit(events.FundMeMilestoneResolved{
		TransactionID:  tx.ID,
		MilestoneID:    m.ID,
		AmountClaimed:  share,
		RemainingFunds: tx.RemainingFunds,
	})
	return nil
}

// Transaction returns a copy of the stored transaction.
func (e *Engine) Transaction(id uint64) (*Transaction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	tx, err := e.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	return tx.Clone(), nil
}

// MilestoneOf returns a copy of one milestone.
func (e *Engine) MilestoneOf(id, milestoneID uint64) (*Milestone, error) {
	tx, err := e.Transaction(id)
	if err != nil {
		return nil, err
	}
	m := tx.Milestone(milestoneID)
	if m == nil {
		return nil, ErrMilestoneNotFound
	}
	return m, nil
}

// Contribution returns the cumulative amount the funder has contributed.
func (e *Engine) Contribution(id uint64, funder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if _, err := e.loadTransaction(id); err != nil {
		return nil, err
	}
	total, ok := e.state.ContributionGet(id, funder)
	if !ok || total == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(total), nil
}
