package arbitration

import (
	"errors"
	"math/big"
	"testing"
)

type recordingArbitrable struct {
	caller    [20]byte
	disputeID uint64
	ruling    uint64
	calls     int
}

func (r *recordingArbitrable) Rule(caller [20]byte, disputeID, ruling uint64) error {
	r.caller = caller
	r.disputeID = disputeID
	r.ruling = ruling
	r.calls++
	return nil
}

func newTestAuthority() (*Centralized, *int64) {
	now := int64(1_000)
	var addr [20]byte
	addr[19] = 0xAB
	c := NewCentralized(addr, big.NewInt(10), 100)
	c.SetNowFunc(func() int64 { return now })
	return c, &now
}

func TestCreateDisputeValidation(t *testing.T) {
	c, _ := newTestAuthority()
	target := &recordingArbitrable{}
	if _, err := c.CreateDispute(nil, 2, nil, big.NewInt(10)); err == nil {
		t.Fatal("expected nil arbitrable rejection")
	}
	if _, err := c.CreateDispute(target, 2, nil, big.NewInt(5)); !errors.Is(err, ErrInsufficientFee) {
		t.Fatalf("expected ErrInsufficientFee, got %v", err)
	}
	id, err := c.CreateDispute(target, 2, nil, big.NewInt(10))
	if err != nil {
		t.Fatalf("create dispute: %v", err)
	}
	if id != 1 {
		t.Fatalf("first dispute id = %d, want 1", id)
	}
}

func TestRulingFlowWithAppealWindow(t *testing.T) {
	c, now := newTestAuthority()
	target := &recordingArbitrable{}
	id, err := c.CreateDispute(target, 2, nil, big.NewInt(10))
	if err != nil {
		t.Fatalf("create dispute: %v", err)
	}

	if err := c.GiveRuling(id, 1); err != nil {
		t.Fatalf("preliminary ruling: %v", err)
	}
	if target.calls != 0 {
		t.Fatal("preliminary ruling must not dispatch")
	}
	status, ruling, err := c.DisputeStatus(id)
	if err != nil || status != DisputeAppealable || ruling != 1 {
		t.Fatalf("status = %v/%d (%v), want appealable/1", status, ruling, err)
	}
	if !c.Appealable(id) {
		t.Fatal("dispute should accept appeals inside the window")
	}

	// A second ruling inside the window is premature.
	if err := c.GiveRuling(id, 1); !errors.Is(err, ErrAppealPeriodOpen) {
		t.Fatalf("expected ErrAppealPeriodOpen, got %v", err)
	}

	*now += 101
	if c.Appealable(id) {
		t.Fatal("window lapsed, appeals must close")
	}
	if err := c.Appeal(id, nil, big.NewInt(10)); !errors.Is(err, ErrAppealPeriodOver) {
		t.Fatalf("expected ErrAppealPeriodOver, got %v", err)
	}
	if err := c.GiveRuling(id, 2); err != nil {
		t.Fatalf("final ruling: %v", err)
	}
	if target.calls != 1 || target.ruling != 2 || target.disputeID != id {
		t.Fatalf("dispatch = %+v", target)
	}
	if target.caller != c.Address() {
		t.Fatal("dispatch must identify the authority")
	}
	if err := c.GiveRuling(id, 2); !errors.Is(err, ErrDisputeSolved) {
		t.Fatalf("expected ErrDisputeSolved, got %v", err)
	}
}

func TestAppealReopensDispute(t *testing.T) {
	c, _ := newTestAuthority()
	target := &recordingArbitrable{}
	id, err := c.CreateDispute(target, 2, nil, big.NewInt(10))
	if err != nil {
		t.Fatalf("create dispute: %v", err)
	}
	if err := c.Appeal(id, nil, big.NewInt(10)); err == nil {
		t.Fatal("expected rejection before any ruling")
	}
	if err := c.GiveRuling(id, 1); err != nil {
		t.Fatalf("preliminary ruling: %v", err)
	}
	if err := c.Appeal(id, nil, big.NewInt(3)); !errors.Is(err, ErrInsufficientFee) {
		t.Fatalf("expected ErrInsufficientFee, got %v", err)
	}
	if err := c.Appeal(id, nil, big.NewInt(10)); err != nil {
		t.Fatalf("appeal: %v", err)
	}
	status, _, err := c.DisputeStatus(id)
	if err != nil || status != DisputeWaiting {
		t.Fatalf("status = %v (%v), want waiting after appeal", status, err)
	}
}
