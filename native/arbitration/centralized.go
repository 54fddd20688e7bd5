package arbitration

import (
	"fmt"
	"math/big"
	"sync"
	"time"
)

// DisputeStatus tracks a dispute inside the centralized authority.
type DisputeStatus uint8

const (
	// DisputeWaiting marks disputes awaiting a preliminary ruling.
	DisputeWaiting DisputeStatus = iota
	// DisputeAppealable marks disputes whose preliminary ruling can still be
	// appealed by re-funding within the window.
	DisputeAppealable
	// DisputeSolved is terminal; the ruling has been dispatched.
	DisputeSolved
)

type dispute struct {
	id             uint64
	arbitrable     Arbitrable
	choices        uint64
	ruling         uint64
	status         DisputeStatus
	appealDeadline int64
	appeals        uint32
}

// Centralized is a single-operator arbitration authority with an appealable
// ruling flow: the first GiveRuling opens the appeal window, a second
// GiveRuling after the window dispatches the final ruling to the arbitrable.
type Centralized struct {
	mu           sync.Mutex
	addr         [20]byte
	fee          *big.Int
	appealWindow int64
	nowFn        func() int64
	nextID       uint64
	disputes     map[uint64]*dispute
}

// NewCentralized creates an authority identified by addr charging a flat fee
// per dispute and per appeal.
func NewCentralized(addr [20]byte, fee *big.Int, appealWindow int64) *Centralized {
	if fee == nil {
		fee = big.NewInt(0)
	}
	return &Centralized{
		addr:         addr,
		fee:          new(big.Int).Set(fee),
		appealWindow: appealWindow,
		nowFn:        func() int64 { return time.Now().Unix() },
		disputes:     make(map[uint64]*dispute),
	}
}

// SetNowFunc overrides the time source, primarily used in tests.
func (c *Centralized) SetNowFunc(now func() int64) {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	c.mu.Lock()
	c.nowFn = now
	c.mu.Unlock()
}

// Address identifies the authority for callback authorization.
func (c *Centralized) Address() [20]byte { return c.addr }

// ArbitrationCost returns the fee required to open a dispute. The extraData
// is accepted for interface compatibility and never interpreted.
func (c *Centralized) ArbitrationCost([]byte) *big.Int {
	return new(big.Int).Set(c.fee)
}

// AppealCost returns the fee required to appeal a preliminary ruling.
func (c *Centralized) AppealCost(uint64, []byte) *big.Int {
	return new(big.Int).Set(c.fee)
}

// CreateDispute registers a dispute bound to the supplied arbitrable. The
// payment must cover ArbitrationCost. Dispute identifiers start at 1 so the
// zero value stays "unset" in ledger records.
func (c *Centralized) CreateDispute(arbitrable Arbitrable, choices uint64, extraData []byte, fee *big.Int) (uint64, error) {
	if arbitrable == nil {
		return 0, fmt.Errorf("arbitration: nil arbitrable")
	}
	if choices == 0 {
		return 0, fmt.Errorf("arbitration: at least one ruling option required")
	}
	if fee == nil || fee.Cmp(c.ArbitrationCost(extraData)) < 0 {
		return 0, ErrInsufficientFee
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	d := &dispute{id: c.nextID, arbitrable: arbitrable, choices: choices, status: DisputeWaiting}
	c.disputes[d.id] = d
	return d.id, nil
}

// Appeal re-opens an appealable dispute while the window is still running.
func (c *Centralized) Appeal(disputeID uint64, extraData []byte, fee *big.Int) error {
	if fee == nil || fee.Cmp(c.AppealCost(disputeID, extraData)) < 0 {
		return ErrInsufficientFee
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.disputes[disputeID]
	if !ok {
		return ErrDisputeNotFound
	}
	switch d.status {
	case DisputeSolved:
		return ErrDisputeSolved
	case DisputeWaiting:
		return fmt.Errorf("arbitration: no ruling to appeal")
	}
	if c.nowFn() > d.appealDeadline {
		return ErrAppealPeriodOver
	}
	d.status = DisputeWaiting
	d.appealDeadline = 0
	d.appeals++
	return nil
}

// GiveRuling records the operator's decision. On a waiting dispute the ruling
// becomes appealable and the window opens; on an appealable dispute past its
// window the ruling is final and dispatched to the arbitrable.
func (c *Centralized) GiveRuling(disputeID uint64, ruling uint64) error {
	c.mu.Lock()
	d, ok := c.disputes[disputeID]
	if !ok {
		c.mu.Unlock()
		return ErrDisputeNotFound
	}
	if ruling > d.choices {
		c.mu.Unlock()
		return fmt.Errorf("arbitration: ruling %d exceeds choices %d", ruling, d.choices)
	}
	now := c.nowFn()
	switch d.status {
	case DisputeSolved:
		c.mu.Unlock()
		return ErrDisputeSolved
	case DisputeWaiting:
		d.ruling = ruling
		d.status = DisputeAppealable
		d.appealDeadline = now + c.appealWindow
		c.mu.Unlock()
		return nil
	}
	if now <= d.appealDeadline {
		c.mu.Unlock()
		return ErrAppealPeriodOpen
	}
	d.ruling = ruling
	d.status = DisputeSolved
	arbitrable := d.arbitrable
	c.mu.Unlock()
	// Dispatch outside the lock: the arbitrable may call back into the
	// authority (e.g. cost queries) while applying the ruling.
	return arbitrable.Rule(c.addr, disputeID, ruling)
}

// DisputeStatus reports the current status and ruling for a dispute.
func (c *Centralized) DisputeStatus(disputeID uint64) (DisputeStatus, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.disputes[disputeID]
	if !ok {
		return 0, 0, ErrDisputeNotFound
	}
	return d.status, d.ruling, nil
}

// Appealable reports whether the dispute currently accepts appeals.
func (c *Centralized) Appealable(disputeID uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.disputes[disputeID]
	if !ok {
		return false
	}
	return d.status == DisputeAppealable && c.nowFn() <= d.appealDeadline
}
