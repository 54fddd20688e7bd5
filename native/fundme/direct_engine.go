package fundme

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"fundvault/core/events"
	"fundvault/native/arbitration"
	nativecommon "fundvault/native/common"
	"fundvault/native/token"
)

const directModuleName = "direct"

const (
	// DirectRulingSender refunds the remaining escrow and both fee stakes
	// to the sender.
	DirectRulingSender uint64 = 1
	// DirectRulingReceiver releases the remaining escrow and both fee
	// stakes to the receiver.
	DirectRulingReceiver uint64 = 2
)

var (
	// ErrEscrowNotFound is returned for unknown escrow ids.
	ErrEscrowNotFound = errors.New("direct: escrow not found")
	// ErrOnlySender rejects operations reserved for the sender.
	ErrOnlySender = errors.New("direct: only the sender may call")
	// ErrOnlyReceiver rejects operations reserved for the receiver.
	ErrOnlyReceiver = errors.New("direct: only the receiver may call")
	// ErrAmountExceedsEscrow rejects partial releases beyond the balance.
	ErrAmountExceedsEscrow = errors.New("direct: amount exceeds escrowed balance")
	// ErrEscrowNotExpired rejects execution before the deadline.
	ErrEscrowNotExpired = errors.New("direct: execution deadline not reached")
	// ErrEscrowDisputed rejects payments and execution once a fee race or
	// dispute is active.
	ErrEscrowDisputed = errors.New("direct: escrow is contested")
	// ErrEscrowResolved rejects any action on a terminal escrow.
	ErrEscrowResolved = errors.New("direct: escrow already resolved")
)

type directState interface {
	DirectNextID() (uint64, error)
	DirectPut(*DirectEscrow) error
	DirectGet(id uint64) (*DirectEscrow, bool)
	DirectDisputeIndexPut(disputeID, escrowID uint64) error
	DirectDisputeIndexGet(disputeID uint64) (escrowID uint64, ok bool)
}

// DirectEngine drives single sender/receiver escrows. It shares the fee race
// mechanics with the crowdfunding engine: the receiver plays the claimant
// side, the sender the challenger side.
type DirectEngine struct {
	state      directState
	registry   *token.Registry
	native     *token.NativeMover
	arbitrator arbitration.Arbitrator
	params     Params
	emitter    events.Emitter
	nowFn      func() int64
	pauses     nativecommon.PauseView
}

// NewDirectEngine creates a direct escrow engine with default policy.
func NewDirectEngine() *DirectEngine {
	return &DirectEngine{
		params:  DefaultParams(),
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *DirectEngine) SetState(state directState)          { e.state = state }
func (e *DirectEngine) SetRegistry(r *token.Registry)       { e.registry = r }
func (e *DirectEngine) SetNativeMover(m *token.NativeMover) { e.native = m }

// SetArbitrator configures the arbitration authority for new disputes.
func (e *DirectEngine) SetArbitrator(a arbitration.Arbitrator) { e.arbitrator = a }

// SetParams overrides the fee and timeout policy.
func (e *DirectEngine) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e.params = p
	return nil
}

// SetPauses configures the module pause view.
func (e *DirectEngine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *DirectEngine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *DirectEngine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *DirectEngine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *DirectEngine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *DirectEngine) guard() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	return nativecommon.Guard(e.pauses, directModuleName)
}

func (e *DirectEngine) load(id uint64) (*DirectEscrow, error) {
	esc, ok := e.state.DirectGet(id)
	if !ok {
		return nil, ErrEscrowNotFound
	}
	return esc, nil
}

// CreateEscrow locks amount of the given asset from the sender for the
// receiver, to be released by the sender, executed after the deadline, or
// disputed. Returns the new sequential id.
func (e *DirectEngine) CreateEscrow(sender, receiver [20]byte, amount *big.Int, tokenSymbol string, extraData []byte, timeout int64, metaEvidence string) (uint64, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, fmt.Errorf("direct: escrow amount must be positive")
	}
	if timeout <= 0 {
		timeout = e.params.DefaultWithdrawGrace
	}
	if e.registry == nil {
		return 0, token.ErrAssetNotRegistered
	}
	mover, err := e.registry.Resolve(tokenSymbol)
	if err != nil {
		return 0, err
	}
	if err := mover.TransferIn(sender, amount); err != nil {
		return 0, err
	}
	id, err := e.state.DirectNextID()
	if err != nil {
		return 0, err
	}
	now := e.now()
	esc := &DirectEscrow{
		ID:        id,
		Sender:    sender,
		Receiver:  receiver,
		Token:     mover.Symbol(),
		Amount:    new(big.Int).Set(amount),
		Deadline:  now + timeout,
		Status:    DirectNoDispute,
		Round:     NewDisputeRound(),
		ExtraData: append([]byte(nil), extraData...),
		CreatedAt: now,
	}
	if err := e.state.DirectPut(esc); err != nil {
		return 0, err
	}
	e.emit(events.DirectCreated{
		EscrowID:  id,
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		CreatedAt: now,
	})
	if metaEvidence != "" {
		e.emit(events.DirectMetaEvidence{EscrowID: id, URI: metaEvidence})
	}
	return id, nil
}

// Pay releases part of the escrow to the receiver. Sender only, and only
// while uncontested.
func (e *DirectEngine) Pay(caller [20]byte, id uint64, amount *big.Int) error {
	return e.partialTransfer(caller, id, amount, true)
}

// Reimburse returns part of the escrow to the sender. Receiver only, and
// only while uncontested.
func (e *DirectEngine) Reimburse(caller [20]byte, id uint64, amount *big.Int) error {
	return e.partialTransfer(caller, id, amount, false)
}

func (e *DirectEngine) partialTransfer(caller [20]byte, id uint64, amount *big.Int, toReceiver bool) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status == DirectResolved {
		return ErrEscrowResolved
	}
	if esc.Status != DirectNoDispute {
		return ErrEscrowDisputed
	}
	var recipient [20]byte
	if toReceiver {
		if caller != esc.Sender {
			return ErrOnlySender
		}
		recipient = esc.Receiver
	} else {
		if caller != esc.Receiver {
			return ErrOnlyReceiver
		}
		recipient = esc.Sender
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("direct: transfer amount must be positive")
	}
	if amount.Cmp(esc.Amount) > 0 {
		return ErrAmountExceedsEscrow
	}
	esc.Amount = new(big.Int).Sub(esc.Amount, amount)
	if esc.Amount.Sign() == 0 {
		esc.Status = DirectResolved
		if toReceiver {
			esc.ResolvedOutcome = "paid"
		} else {
			esc.ResolvedOutcome = "reimbursed"
		}
	}
	if err := e.state.DirectPut(esc); err != nil {
		return err
	}
	mover, err := e.registry.Resolve(esc.Token)
	if err != nil {
		return err
	}
	if err := mover.TransferOut(recipient, amount); err != nil {
		return err
	}
	e.emit(events.DirectPayment{EscrowID: id, Amount: amount, Party: caller})
	if esc.Status == DirectResolved {
		e.emit(events.DirectResolved{EscrowID: id, Outcome: esc.ResolvedOutcome})
	}
	return nil
}

// ExecuteTransaction releases the whole remaining escrow to the receiver
// after the deadline, provided no fee race started. Any caller may invoke it.
func (e *DirectEngine) ExecuteTransaction(id uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status == DirectResolved {
		return ErrEscrowResolved
	}
	if esc.Status != DirectNoDispute {
		return ErrEscrowDisputed
	}
	if e.now() < esc.Deadline {
		return ErrEscrowNotExpired
	}
	return e.resolveFull(esc, esc.Receiver, "executed", nil, [20]byte{})
}

// PayArbitrationFeeBySender stakes the sender side of the fee race.
func (e *DirectEngine) PayArbitrationFeeBySender(caller [20]byte, id uint64, payment *big.Int) error {
	return e.payArbitrationFee(caller, id, payment, PartyChallenger)
}

// PayArbitrationFeeByReceiver stakes the receiver side of the fee race.
func (e *DirectEngine) PayArbitrationFeeByReceiver(caller [20]byte, id uint64, payment *big.Int) error {
	return e.payArbitrationFee(caller, id, payment, PartyClaimant)
}

func (e *DirectEngine) payArbitrationFee(caller [20]byte, id uint64, payment *big.Int, side Party) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status == DirectResolved {
		return ErrEscrowResolved
	}
	if esc.Status == DirectDisputeCreated {
		return ErrEscrowDisputed
	}
	switch side {
	case PartyChallenger:
		if caller != esc.Sender {
			return ErrOnlySender
		}
	case PartyClaimant:
		if caller != esc.Receiver {
			return ErrOnlyReceiver
		}
	}
	cost := e.arbitrator.ArbitrationCost(esc.ExtraData)
	if payment == nil || payment.Cmp(cost) < 0 {
		return arbitration.ErrInsufficientFee
	}
	if esc.Round.Deposited(side) {
		return ErrFeeAlreadyDeposited
	}
	if err := e.native.TransferIn(caller, payment); err != nil {
		return err
	}
	complete, err := esc.Round.Deposit(side, caller, payment, e.now()+e.params.FeeDepositTimeout)
	if err != nil {
		return err
	}
	if !complete {
		waitingOn := "sender"
		if side == PartyChallenger {
			esc.Status = DirectWaitingReceiver
			waitingOn = "receiver"
		} else {
			esc.Status = DirectWaitingSender
		}
		if err := e.state.DirectPut(esc); err != nil {
			return err
		}
		e.emit(events.DirectHasToPayFee{
			EscrowID: id,
			Party:    waitingOn,
			Deadline: esc.Round.CounterDeadline,
		})
		return nil
	}
	disputeID, err := e.arbitrator.CreateDispute(e, rulingOptions, esc.ExtraData, cost)
	if err != nil {
		// The authority rejected the dispute; hand the stake back. The
		// round mutation is discarded with the unsaved escrow.
		if refundErr := e.native.TransferOut(caller, payment); refundErr != nil {
			return refundErr
		}
		return err
	}
	esc.Status = DirectDisputeCreated
	esc.DisputeID = disputeID
	esc.Round.DisputeID = disputeID
	if err := e.state.DirectDisputeIndexPut(disputeID, id); err != nil {
		return err
	}
	if err := e.state.DirectPut(esc); err != nil {
		return err
	}
	e.emit(events.DirectDisputeCreated{EscrowID: id, DisputeID: disputeID})
	return nil
}

// TimeOutBySender wins the escrow for the sender after the receiver failed
// to counter the fee stake in time.
func (e *DirectEngine) TimeOutBySender(id uint64) error {
	return e.timeOut(id, PartyChallenger)
}

// TimeOutByReceiver wins the escrow for the receiver after the sender failed
// to counter the fee stake in time.
func (e *DirectEngine) TimeOutByReceiver(id uint64) error {
	return e.timeOut(id, PartyClaimant)
}

func (e *DirectEngine) timeOut(id uint64, winner Party) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status == DirectResolved {
		return ErrEscrowResolved
	}
	expected := DirectWaitingReceiver
	if winner == PartyClaimant {
		expected = DirectWaitingSender
	}
	if esc.Status != expected {
		return fmt.Errorf("direct: escrow %d not waiting on the lapsed party", id)
	}
	if esc.Round.AbandonedBy(e.now()) != winner.Other() {
		return ErrDeadlineNotReached
	}
	toClaimant, toChallenger := esc.Round.FeePayouts(winner)
	if winner == PartyChallenger {
		return e.resolveFull(esc, esc.Sender, "timeout_sender", toChallenger, esc.Sender)
	}
	return e.resolveFull(esc, esc.Receiver, "timeout_receiver", toClaimant, esc.Receiver)
}

// AppealRuling re-funds a side's arbitration fee to request reconsideration.
func (e *DirectEngine) AppealRuling(caller [20]byte, id uint64, payment *big.Int) error {
	if err := e.guard(); err != nil {
		return err
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status == DirectResolved {
		return ErrEscrowResolved
	}
	if esc.Status != DirectDisputeCreated {
		return fmt.Errorf("direct: escrow %d not disputed", id)
	}
	var side Party
	switch caller {
	case esc.Receiver:
		side = PartyClaimant
	case esc.Sender:
		side = PartyChallenger
	default:
		return ErrNotDisputeParty
	}
	cost := e.arbitrator.AppealCost(esc.DisputeID, esc.ExtraData)
	if payment == nil || payment.Cmp(cost) < 0 {
		return arbitration.ErrInsufficientFee
	}
	if err := e.native.TransferIn(caller, payment); err != nil {
		return err
	}
	if err := e.arbitrator.Appeal(esc.DisputeID, esc.ExtraData, payment); err != nil {
		if refundErr := e.native.TransferOut(caller, payment); refundErr != nil {
			return refundErr
		}
		return err
	}
	esc.Round.Add(side, payment)
	return e.state.DirectPut(esc)
}

// Rule applies the authority's final decision. A refused ruling (0) splits
// the remaining escrow evenly and returns each side its own fee stake.
func (e *DirectEngine) Rule(caller [20]byte, disputeID uint64, ruling uint64) error {
	if err := e.guard(); err != nil {
		return err
	}
	if e.arbitrator == nil || caller != e.arbitrator.Address() {
		return arbitration.ErrUnauthorizedRuler
	}
	id, ok := e.state.DirectDisputeIndexGet(disputeID)
	if !ok {
		return ErrDisputeNotFound
	}
	esc, err := e.load(id)
	if err != nil {
		return err
	}
	if esc.Status == DirectResolved {
		return ErrEscrowResolved
	}
	if esc.Status != DirectDisputeCreated {
		return fmt.Errorf("direct: escrow %d not disputed", id)
	}
	if ruling > rulingOptions {
		return ErrInvalidRuling
	}
	var resolveErr error
	switch ruling {
	case DirectRulingSender:
		_, toChallenger := esc.Round.FeePayouts(PartyChallenger)
		resolveErr = e.resolveFull(esc, esc.Sender, "ruled_sender", toChallenger, esc.Sender)
	case DirectRulingReceiver:
		toClaimant, _ := esc.Round.FeePayouts(PartyClaimant)
		resolveErr = e.resolveFull(esc, esc.Receiver, "ruled_receiver", toClaimant, esc.Receiver)
	default:
		resolveErr = e.resolveSplitDirect(esc)
	}
	if resolveErr != nil {
		return resolveErr
	}
	// Emitted only once the resolution stuck; a replayed stream never shows
	// a ruling that moved no funds.
	e.emit(events.DirectRulingApplied{EscrowID: id, DisputeID: disputeID, Ruling: ruling})
	return nil
}

// resolveFull moves the whole remaining escrow to winner plus an optional
// native fee payout. State is stored before any outbound transfer.
func (e *DirectEngine) resolveFull(esc *DirectEscrow, winner [20]byte, outcome string, feePayout *big.Int, feeRecipient [20]byte) error {
	amount := new(big.Int).Set(esc.Amount)
	esc.Amount = big.NewInt(0)
	esc.Status = DirectResolved
	esc.ResolvedOutcome = outcome
	if err := e.state.DirectPut(esc); err != nil {
		return err
	}
	if amount.Sign() > 0 {
		mover, err := e.registry.Resolve(esc.Token)
		if err != nil {
			return err
		}
		if err := mover.TransferOut(winner, amount); err != nil {
			return err
		}
	}
	if feePayout != nil && feePayout.Sign() > 0 {
		if err := e.native.TransferOut(feeRecipient, feePayout); err != nil {
			return err
		}
	}
	e.emit(events.DirectResolved{EscrowID: esc.ID, Outcome: outcome})
	return nil
}

func (e *DirectEngine) resolveSplitDirect(esc *DirectEscrow) error {
	receiverShare := new(big.Int).Mul(esc.Amount, new(big.Int).SetUint64(uint64(e.params.SplitBps)))
	receiverShare.Div(receiverShare, big.NewInt(BpsDenominator))
	senderShare := new(big.Int).Sub(esc.Amount, receiverShare)
	toClaimant, toChallenger := esc.Round.FeePayouts(PartyNone)
	esc.Amount = big.NewInt(0)
	esc.Status = DirectResolved
	esc.ResolvedOutcome = "split"
	if err := e.state.DirectPut(esc); err != nil {
		return err
	}
	mover, err := e.registry.Resolve(esc.Token)
	if err != nil {
		return err
	}
	if senderShare.Sign() > 0 {
		if err := mover.TransferOut(esc.Sender, senderShare); err != nil {
			return err
		}
	}
	if receiverShare.Sign() > 0 {
		if err := mover.TransferOut(esc.Receiver, receiverShare); err != nil {
			return err
		}
	}
	if toClaimant.Sign() > 0 {
		if err := e.native.TransferOut(esc.Receiver, toClaimant); err != nil {
			return err
		}
	}
	if toChallenger.Sign() > 0 {
		if err := e.native.TransferOut(esc.Sender, toChallenger); err != nil {
			return err
		}
	}
	e.emit(events.DirectResolved{EscrowID: esc.ID, Outcome: "split"})
	return nil
}

// Escrow returns a copy of the stored escrow.
func (e *DirectEngine) Escrow(id uint64) (*DirectEscrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	esc, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return esc.Clone(), nil
}
