package fundme

import (
	"errors"
	"math/big"
	"testing"

	"fundvault/core/events"
	"fundvault/native/arbitration"
	"fundvault/native/token"
)

var (
	sender   = addr(0x11)
	receiver = addr(0x12)
)

func (m *mockState) DirectNextID() (uint64, error) {
	m.seq++
	return m.seq, nil
}

func (m *mockState) DirectPut(esc *DirectEscrow) error {
	if m.escrows == nil {
		m.escrows = make(map[uint64]*DirectEscrow)
	}
	m.escrows[esc.ID] = esc.Clone()
	return nil
}

func (m *mockState) DirectGet(id uint64) (*DirectEscrow, bool) {
	esc, ok := m.escrows[id]
	if !ok {
		return nil, false
	}
	return esc.Clone(), true
}

func (m *mockState) DirectDisputeIndexPut(disputeID, escrowID uint64) error {
	if m.directDisputes == nil {
		m.directDisputes = make(map[uint64]uint64)
	}
	m.directDisputes[disputeID] = escrowID
	return nil
}

func (m *mockState) DirectDisputeIndexGet(disputeID uint64) (uint64, bool) {
	escrowID, ok := m.directDisputes[disputeID]
	return escrowID, ok
}

func newTestDirectEngine(t *testing.T) (*DirectEngine, *mockState, *arbitration.Centralized, *testClock) {
	t.Helper()
	ms := newMockState()
	clock := &testClock{now: 1_000}
	arb := arbitration.NewCentralized(arbAddr, big.NewInt(arbFee), testWindow)
	arb.SetNowFunc(clock.fn())

	registry := token.NewRegistry()
	mover, err := token.NewLedgerMover(ms, vaultAddr, testToken)
	if err != nil {
		t.Fatalf("build mover: %v", err)
	}
	if err := registry.Register(mover); err != nil {
		t.Fatalf("register mover: %v", err)
	}

	engine := NewDirectEngine()
	engine.SetState(ms)
	engine.SetRegistry(registry)
	engine.SetNativeMover(token.NewNativeMover(ms, vaultAddr))
	engine.SetArbitrator(arb)
	engine.SetEmitter(events.NewLog())
	engine.SetNowFunc(clock.fn())

	ms.creditNative(sender, 1_000)
	ms.creditNative(receiver, 1_000)
	ms.creditToken(sender, testToken, 1_000)
	return engine, ms, arb, clock
}

func mustCreateEscrow(t *testing.T, engine *DirectEngine, amount int64, timeout int64) uint64 {
	t.Helper()
	id, err := engine.CreateEscrow(sender, receiver, big.NewInt(amount), testToken, nil, timeout, "ipfs://deal")
	if err != nil {
		t.Fatalf("create escrow: %v", err)
	}
	return id
}

func TestCreateEscrowLocksFunds(t *testing.T) {
	engine, ms, _, _ := newTestDirectEngine(t)
	id := mustCreateEscrow(t, engine, 200, 500)
	if got := ms.tokenBalance(sender, testToken); got.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("sender balance = %s, want 800", got)
	}
	esc, err := engine.Escrow(id)
	if err != nil {
		t.Fatalf("load escrow: %v", err)
	}
	if esc.Amount.Cmp(big.NewInt(200)) != 0 || esc.Status != DirectNoDispute {
		t.Fatalf("unexpected escrow: %+v", esc)
	}
	if esc.Deadline != 1_500 {
		t.Fatalf("deadline = %d, want 1500", esc.Deadline)
	}
}

func TestPayAndReimburse(t *testing.T) {
	engine, ms, _, _ := newTestDirectEngine(t)
	id := mustCreateEscrow(t, engine, 200, 500)

	if err := engine.Pay(receiver, id, big.NewInt(50)); !errors.Is(err, ErrOnlySender) {
		t.Fatalf("expected ErrOnlySender, got %v", err)
	}
	if err := engine.Pay(sender, id, big.NewInt(250)); !errors.Is(err, ErrAmountExceedsEscrow) {
		t.Fatalf("expected ErrAmountExceedsEscrow, got %v", err)
	}
	if err := engine.Pay(sender, id, big.NewInt(50)); err != nil {
		t.Fatalf("pay: %v", err)
	}
	if err := engine.Reimburse(sender, id, big.NewInt(50)); !errors.Is(err, ErrOnlyReceiver) {
		t.Fatalf("expected ErrOnlyReceiver, got %v", err)
	}
	if err := engine.Reimburse(receiver, id, big.NewInt(150)); err != nil {
		t.Fatalf("reimburse: %v", err)
	}

	if got := ms.tokenBalance(receiver, testToken); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("receiver balance = %s, want 50", got)
	}
	if got := ms.tokenBalance(sender, testToken); got.Cmp(big.NewInt(950)) != 0 {
		t.Fatalf("sender balance = %s, want 950", got)
	}
	esc, err := engine.Escrow(id)
	if err != nil {
		t.Fatalf("load escrow: %v", err)
	}
	// Fully drained, so the escrow closed on the reimbursement.
	if esc.Status != DirectResolved || esc.ResolvedOutcome != "reimbursed" {
		t.Fatalf("unexpected terminal state: %+v", esc)
	}
	if err := engine.Pay(sender, id, big.NewInt(1)); !errors.Is(err, ErrEscrowResolved) {
		t.Fatalf("expected ErrEscrowResolved, got %v", err)
	}
}

func TestExecuteAfterDeadline(t *testing.T) {
	engine, ms, _, clock := newTestDirectEngine(t)
	id := mustCreateEscrow(t, engine, 200, 500)
	if err := engine.ExecuteTransaction(id); !errors.Is(err, ErrEscrowNotExpired) {
		t.Fatalf("expected ErrEscrowNotExpired, got %v", err)
	}
	clock.now += 500
	if err := engine.ExecuteTransaction(id); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := ms.tokenBalance(receiver, testToken); got.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("receiver balance = %s, want 200", got)
	}
}

func TestDirectFeeRaceTimeouts(t *testing.T) {
	engine, ms, _, clock := newTestDirectEngine(t)
	id := mustCreateEscrow(t, engine, 200, 10_000)

	if err := engine.PayArbitrationFeeBySender(sender, id, big.NewInt(arbFee)); err != nil {
		t.Fatalf("sender stake: %v", err)
	}
	esc, err := engine.Escrow(id)
	if err != nil {
		t.Fatalf("load escrow: %v", err)
	}
	if esc.Status != DirectWaitingReceiver {
		t.Fatalf("status = %v, want waiting_receiver", esc.Status)
	}
	// Voluntary transfers stop once the race is on.
	if err := engine.Pay(sender, id, big.NewInt(1)); !errors.Is(err, ErrEscrowDisputed) {
		t.Fatalf("expected ErrEscrowDisputed, got %v", err)
	}
	if err := engine.ExecuteTransaction(id); !errors.Is(err, ErrEscrowDisputed) {
		t.Fatalf("expected ErrEscrowDisputed, got %v", err)
	}
	if err := engine.TimeOutBySender(id); !errors.Is(err, ErrDeadlineNotReached) {
		t.Fatalf("expected ErrDeadlineNotReached, got %v", err)
	}

	clock.now += DefaultParams().FeeDepositTimeout + 1
	nativeBefore := ms.nativeBalance(sender)
	if err := engine.TimeOutBySender(id); err != nil {
		t.Fatalf("timeout: %v", err)
	}
	if got := ms.tokenBalance(sender, testToken); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("sender token balance = %s, want 1000", got)
	}
	refund := new(big.Int).Sub(ms.nativeBalance(sender), nativeBefore)
	if refund.Cmp(big.NewInt(arbFee)) != 0 {
		t.Fatalf("fee refund = %s, want %d", refund, arbFee)
	}
}

func escalateDirect(t *testing.T, engine *DirectEngine, id uint64) uint64 {
	t.Helper()
	if err := engine.PayArbitrationFeeByReceiver(receiver, id, big.NewInt(arbFee)); err != nil {
		t.Fatalf("receiver stake: %v", err)
	}
	if err := engine.PayArbitrationFeeBySender(sender, id, big.NewInt(arbFee)); err != nil {
		t.Fatalf("sender stake: %v", err)
	}
	esc, err := engine.Escrow(id)
	if err != nil {
		t.Fatalf("load escrow: %v", err)
	}
	if esc.Status != DirectDisputeCreated {
		t.Fatalf("status = %v, want dispute_created", esc.Status)
	}
	return esc.DisputeID
}

func TestDirectRulingSenderWins(t *testing.T) {
	engine, ms, arb, clock := newTestDirectEngine(t)
	id := mustCreateEscrow(t, engine, 200, 10_000)
	disputeID := escalateDirect(t, engine, id)

	nativeBefore := ms.nativeBalance(sender)
	if err := arb.GiveRuling(disputeID, DirectRulingSender); err != nil {
		t.Fatalf("preliminary ruling: %v", err)
	}
	clock.now += testWindow + 1
	if err := arb.GiveRuling(disputeID, DirectRulingSender); err != nil {
		t.Fatalf("final ruling: %v", err)
	}

	if got := ms.tokenBalance(sender, testToken); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("sender token balance = %s, want 1000", got)
	}
	feeDiff := new(big.Int).Sub(ms.nativeBalance(sender), nativeBefore)
	if feeDiff.Cmp(big.NewInt(2*arbFee)) != 0 {
		t.Fatalf("fee payout = %s, want %d", feeDiff, 2*arbFee)
	}
	if err := engine.Rule(arbAddr, disputeID, DirectRulingSender); !errors.Is(err, ErrEscrowResolved) {
		t.Fatalf("expected ErrEscrowResolved, got %v", err)
	}
}

func TestDirectSplitRuling(t *testing.T) {
	engine, ms, arb, clock := newTestDirectEngine(t)
	id := mustCreateEscrow(t, engine, 201, 10_000)
	disputeID := escalateDirect(t, engine, id)

	if err := arb.GiveRuling(disputeID, arbitration.RulingRefused); err != nil {
		t.Fatalf("preliminary ruling: %v", err)
	}
	clock.now += testWindow + 1
	if err := arb.GiveRuling(disputeID, arbitration.RulingRefused); err != nil {
		t.Fatalf("final ruling: %v", err)
	}

	// 201 splits 100/101 with the truncation remainder going to the sender.
	if got := ms.tokenBalance(sender, testToken); got.Cmp(big.NewInt(900)) != 0 {
		t.Fatalf("sender token balance = %s, want 900", got)
	}
	if got := ms.tokenBalance(receiver, testToken); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("receiver token balance = %s, want 100", got)
	}
}

func TestDirectRuleAuthorization(t *testing.T) {
	engine, _, _, _ := newTestDirectEngine(t)
	id := mustCreateEscrow(t, engine, 200, 10_000)
	disputeID := escalateDirect(t, engine, id)

	if err := engine.Rule(outsider, disputeID, DirectRulingSender); !errors.Is(err, arbitration.ErrUnauthorizedRuler) {
		t.Fatalf("expected ErrUnauthorizedRuler, got %v", err)
	}
	if err := engine.Rule(arbAddr, disputeID+7, DirectRulingSender); !errors.Is(err, ErrDisputeNotFound) {
		t.Fatalf("expected ErrDisputeNotFound, got %v", err)
	}
}

func TestDirectDisputeCreationFailureRefundsStake(t *testing.T) {
	engine, ms, arb, _ := newTestDirectEngine(t)
	createErr := errors.New("authority unavailable")
	engine.SetArbitrator(&rejectingArbitrator{Centralized: arb, createErr: createErr})

	id := mustCreateEscrow(t, engine, 200, 500)
	if err := engine.PayArbitrationFeeBySender(sender, id, big.NewInt(arbFee)); err != nil {
		t.Fatalf("sender stake: %v", err)
	}

	before := ms.nativeBalance(receiver)
	if err := engine.PayArbitrationFeeByReceiver(receiver, id, big.NewInt(arbFee)); !errors.Is(err, createErr) {
		t.Fatalf("expected dispute creation error, got %v", err)
	}
	if got := ms.nativeBalance(receiver); got.Cmp(before) != 0 {
		t.Fatalf("receiver balance = %s, want %s after refund", got, before)
	}
	esc, err := engine.Escrow(id)
	if err != nil {
		t.Fatalf("load escrow: %v", err)
	}
	if esc.Status != DirectWaitingReceiver {
		t.Fatalf("status = %v, want waiting receiver", esc.Status)
	}
	if esc.Round.Deposited(PartyClaimant) {
		t.Fatal("receiver stake persisted despite failed dispute creation")
	}
	if !esc.Round.Deposited(PartyChallenger) {
		t.Fatal("sender stake lost")
	}
}

// brokenDirectWrites fails escrow writes so a resolution cannot complete.
type brokenDirectWrites struct {
	*mockState
}

func (s *brokenDirectWrites) DirectPut(*DirectEscrow) error { return errors.New("storage offline") }

func TestDirectRulingEventRequiresCompletedResolution(t *testing.T) {
	engine, ms, arb, clock := newTestDirectEngine(t)
	log := events.NewLog()
	engine.SetEmitter(log)

	id := mustCreateEscrow(t, engine, 200, 500)
	disputeID := escalateDirect(t, engine, id)

	engine.SetState(&brokenDirectWrites{mockState: ms})
	if err := arb.GiveRuling(disputeID, DirectRulingSender); err != nil {
		t.Fatalf("preliminary ruling: %v", err)
	}
	clock.now += testWindow + 1
	if err := arb.GiveRuling(disputeID, DirectRulingSender); err == nil {
		t.Fatal("expected resolution failure")
	}
	for _, evt := range log.Snapshot() {
		if evt.Type == events.TypeDirectRulingApplied {
			t.Fatal("ruling event emitted for a resolution that never took effect")
		}
	}
}
