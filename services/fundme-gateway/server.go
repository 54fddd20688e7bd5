package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fundvault/core/events"
	"fundvault/native/arbitration"
	"fundvault/native/fundme"
	"fundvault/native/token"
	"fundvault/observability/metrics"
	"fundvault/state"
)

// Server exposes the escrow engines over HTTP. Mutating operations are
// serialized by a single mutex so engine state transitions never interleave.
type Server struct {
	mu sync.Mutex

	engine  *fundme.Engine
	direct  *fundme.DirectEngine
	arb     *arbitration.Centralized
	ledger  *state.Ledger
	native  *token.NativeMover
	log     *events.Log
	logger  *slog.Logger
	metrics *metrics.FundMeMetrics
}

// NewServer wires the gateway around fully configured engines.
func NewServer(engine *fundme.Engine, direct *fundme.DirectEngine, arb *arbitration.Centralized, ledger *state.Ledger, native *token.NativeMover, eventLog *events.Log, logger *slog.Logger) *Server {
	return &Server{
		engine:  engine,
		direct:  direct,
		arb:     arb,
		ledger:  ledger,
		native:  native,
		log:     eventLog,
		logger:  logger,
		metrics: metrics.FundMe(),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/v1/events", s.handleEvents)
	r.Get("/v1/accounts/{addr}", s.handleAccount)
	r.Post("/v1/admin/credit", s.handleCredit)

	r.Route("/v1/fundme/transactions", func(r chi.Router) {
		r.Post("/", s.handleCreateTransaction)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTransaction)
			r.Post("/fund", s.handleFund)
			r.Get("/contributions/{addr}", s.handleContribution)
			r.Route("/milestones/{mid}", func(r chi.Router) {
				r.Get("/", s.handleGetMilestone)
				r.Get("/claimable", s.handleClaimable)
				r.Post("/request-claim", s.handleRequestClaim)
				r.Post("/claim", s.handleClaim)
				r.Post("/fee/funders", s.handleFeeFunders)
				r.Post("/fee/beneficiary", s.handleFeeBeneficiary)
				r.Post("/timeout/funders", s.handleTimeoutFunders)
				r.Post("/timeout/beneficiary", s.handleTimeoutBeneficiary)
				r.Post("/appeal", s.handleAppeal)
			})
		})
	})

	r.Route("/v1/direct/escrows", func(r chi.Router) {
		r.Post("/", s.handleCreateEscrow)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetEscrow)
			r.Post("/pay", s.handlePay)
			r.Post("/reimburse", s.handleReimburse)
			r.Post("/execute", s.handleExecute)
			r.Post("/fee/sender", s.handleFeeSender)
			r.Post("/fee/receiver", s.handleFeeReceiver)
			r.Post("/timeout/sender", s.handleTimeoutSender)
			r.Post("/timeout/receiver", s.handleTimeoutReceiver)
			r.Post("/appeal", s.handleDirectAppeal)
		})
	})

	r.Post("/v1/arbitrator/disputes/{id}/ruling", s.handleGiveRuling)
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		s.metrics.RequestDuration.WithLabelValues(route, strconv.Itoa(ww.Status())).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.log.Snapshot())
}

type creditRequest struct {
	Address string `json:"address"`
	Token   string `json:"token,omitempty"`
	Amount  string `json:"amount"`
}

// handleCredit seeds balances. The gateway runs its own ledger, so deposits
// from an external settlement layer are out of scope; operators use this to
// mirror them.
func (s *Server) handleCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	addr, err := parseAddress(req.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if amount.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("credit amount must be positive"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.ledger.GetAccount(addr[:])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if req.Token == "" {
		account.BalanceNative = new(big.Int).Add(account.BalanceNative, amount)
	} else {
		symbol := strings.ToUpper(strings.TrimSpace(req.Token))
		account.SetTokenBalance(symbol, new(big.Int).Add(account.TokenBalance(symbol), amount))
	}
	if err := s.ledger.PutAccount(addr[:], account); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := s.ledger.GetAccount(addr[:])
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type createTransactionRequest struct {
	Caller        string   `json:"caller"`
	Payment       string   `json:"payment"`
	UnlockBps     []uint32 `json:"unlockBps"`
	Token         string   `json:"token"`
	ExtraData     string   `json:"extraData,omitempty"`
	WithdrawGrace int64    `json:"withdrawGrace,omitempty"`
	MetaEvidence  string   `json:"metaEvidence,omitempty"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	extra, err := parseHex(req.ExtraData)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	id, err := s.engine.CreateTransaction(caller, payment, req.UnlockBps, req.Token, extra, req.WithdrawGrace, req.MetaEvidence)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.TransactionsCreated.Inc()
	writeJSON(w, http.StatusCreated, map[string]uint64{"transactionId": id})
}

type fundRequest struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req fundRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.engine.FundTransaction(caller, id, amount)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.FundedTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "funded"})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tx, err := s.engine.Transaction(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleGetMilestone(w http.ResponseWriter, r *http.Request) {
	id, mid, err := pathMilestone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	m, err := s.engine.MilestoneOf(id, mid)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleClaimable(w http.ResponseWriter, r *http.Request) {
	id, mid, err := pathMilestone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	claimable, err := s.engine.MilestoneAmountClaimable(id, mid)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"claimable": claimable.String()})
}

func (s *Server) handleContribution(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	addr, err := parseAddress(chi.URLParam(r, "addr"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	total, err := s.engine.Contribution(id, addr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"contribution": total.String()})
}

type requestClaimRequest struct {
	Caller      string `json:"caller"`
	EvidenceURI string `json:"evidenceUri,omitempty"`
}

func (s *Server) handleRequestClaim(w http.ResponseWriter, r *http.Request) {
	id, mid, err := pathMilestone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req requestClaimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.engine.RequestClaimMilestone(caller, id, mid, req.EvidenceURI)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.ClaimsRequested.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "claiming"})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, mid, err := pathMilestone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.engine.ClaimMilestone(id, mid)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

type feeRequest struct {
	Caller  string `json:"caller"`
	Payment string `json:"payment"`
}

func (s *Server) milestoneFee(w http.ResponseWriter, r *http.Request, pay func(caller [20]byte, id, mid uint64, payment *big.Int) error) {
	id, mid, err := pathMilestone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req feeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = pay(caller, id, mid, payment)
	m, stateErr := s.engine.MilestoneOf(id, mid)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if stateErr == nil && m.Status == fundme.MilestoneDisputed {
		s.metrics.DisputesOpened.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "fee_deposited"})
}

func (s *Server) handleFeeFunders(w http.ResponseWriter, r *http.Request) {
	s.milestoneFee(w, r, s.engine.PayDisputeFeeByFunders)
}

func (s *Server) handleFeeBeneficiary(w http.ResponseWriter, r *http.Request) {
	s.milestoneFee(w, r, s.engine.PayDisputeFeeByBeneficiary)
}

func (s *Server) handleTimeoutFunders(w http.ResponseWriter, r *http.Request) {
	s.milestoneTimeout(w, r, s.engine.TimeoutByFunders, "funders")
}

func (s *Server) handleTimeoutBeneficiary(w http.ResponseWriter, r *http.Request) {
	s.milestoneTimeout(w, r, s.engine.TimeoutByBeneficiary, "beneficiary")
}

func (s *Server) milestoneTimeout(w http.ResponseWriter, r *http.Request, timeout func(id, mid uint64) error, winner string) {
	id, mid, err := pathMilestone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = timeout(id, mid)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.Timeouts.WithLabelValues(winner).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleAppeal(w http.ResponseWriter, r *http.Request) {
	id, mid, err := pathMilestone(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req feeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.engine.AppealRuling(caller, id, mid, payment)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "appealed"})
}

type createEscrowRequest struct {
	Sender       string `json:"sender"`
	Receiver     string `json:"receiver"`
	Amount       string `json:"amount"`
	Token        string `json:"token"`
	ExtraData    string `json:"extraData,omitempty"`
	Timeout      int64  `json:"timeout,omitempty"`
	MetaEvidence string `json:"metaEvidence,omitempty"`
}

func (s *Server) handleCreateEscrow(w http.ResponseWriter, r *http.Request) {
	var req createEscrowRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sender, err := parseAddress(req.Sender)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receiver, err := parseAddress(req.Receiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	extra, err := parseHex(req.ExtraData)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	id, err := s.direct.CreateEscrow(sender, receiver, amount, req.Token, extra, req.Timeout, req.MetaEvidence)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.EscrowsCreated.Inc()
	writeJSON(w, http.StatusCreated, map[string]uint64{"escrowId": id})
}

func (s *Server) handleGetEscrow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	esc, err := s.direct.Escrow(id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, esc)
}

func (s *Server) directTransfer(w http.ResponseWriter, r *http.Request, op func(caller [20]byte, id uint64, amount *big.Int) error) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req fundRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = op(caller, id, amount)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	s.directTransfer(w, r, s.direct.Pay)
}

func (s *Server) handleReimburse(w http.ResponseWriter, r *http.Request) {
	s.directTransfer(w, r, s.direct.Reimburse)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.direct.ExecuteTransaction(id)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "executed"})
}

func (s *Server) handleFeeSender(w http.ResponseWriter, r *http.Request) {
	s.directTransfer(w, r, func(caller [20]byte, id uint64, amount *big.Int) error {
		return s.direct.PayArbitrationFeeBySender(caller, id, amount)
	})
}

func (s *Server) handleFeeReceiver(w http.ResponseWriter, r *http.Request) {
	s.directTransfer(w, r, func(caller [20]byte, id uint64, amount *big.Int) error {
		return s.direct.PayArbitrationFeeByReceiver(caller, id, amount)
	})
}

func (s *Server) handleTimeoutSender(w http.ResponseWriter, r *http.Request) {
	s.directTimeout(w, r, s.direct.TimeOutBySender, "sender")
}

func (s *Server) handleTimeoutReceiver(w http.ResponseWriter, r *http.Request) {
	s.directTimeout(w, r, s.direct.TimeOutByReceiver, "receiver")
}

func (s *Server) directTimeout(w http.ResponseWriter, r *http.Request, timeout func(id uint64) error, winner string) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = timeout(id)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	s.metrics.Timeouts.WithLabelValues(winner).Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleDirectAppeal(w http.ResponseWriter, r *http.Request) {
	s.directTransfer(w, r, s.direct.AppealRuling)
}

type rulingRequest struct {
	Ruling uint64 `json:"ruling"`
}

// handleGiveRuling drives the embedded centralized authority. The first call
// opens the appeal window; a second call after the window dispatches the
// final ruling into the owning engine.
func (s *Server) handleGiveRuling(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req rulingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	err = s.arb.GiveRuling(id, req.Ruling)
	var status arbitration.DisputeStatus
	if err == nil {
		status, _, _ = s.arb.DisputeStatus(id)
	}
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	// Only the second, dispatching call applies a ruling; the first merely
	// opens the appeal window.
	if status == arbitration.DisputeSolved {
		s.metrics.RulingsApplied.WithLabelValues(strconv.FormatUint(req.Ruling, 10)).Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ruling_recorded"})
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func pathMilestone(r *http.Request) (uint64, uint64, error) {
	id, err := pathID(r, "id")
	if err != nil {
		return 0, 0, err
	}
	mid, err := pathID(r, "mid")
	if err != nil {
		return 0, 0, err
	}
	return id, mid, nil
}

func parseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil || len(decoded) != 20 {
		return addr, fmt.Errorf("invalid address %q", raw)
	}
	copy(addr[:], decoded)
	return addr, nil
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", raw)
	}
	return amount, nil
}

func parseHex(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload")
	}
	return decoded, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, fundme.ErrTransactionNotFound),
		errors.Is(err, fundme.ErrMilestoneNotFound),
		errors.Is(err, fundme.ErrEscrowNotFound),
		errors.Is(err, fundme.ErrDisputeNotFound),
		errors.Is(err, arbitration.ErrDisputeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fundme.ErrOnlyBeneficiary),
		errors.Is(err, fundme.ErrOnlySender),
		errors.Is(err, fundme.ErrOnlyReceiver),
		errors.Is(err, fundme.ErrNotFunder),
		errors.Is(err, fundme.ErrNotDisputeParty),
		errors.Is(err, arbitration.ErrUnauthorizedRuler):
		status = http.StatusForbidden
	case errors.Is(err, fundme.ErrAlreadyResolved),
		errors.Is(err, fundme.ErrEscrowResolved),
		errors.Is(err, fundme.ErrInvalidTransition),
		errors.Is(err, fundme.ErrDisputePending),
		errors.Is(err, fundme.ErrEscrowDisputed),
		errors.Is(err, fundme.ErrFeeAlreadyDeposited):
		status = http.StatusConflict
	case errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, arbitration.ErrInsufficientFee),
		errors.Is(err, fundme.ErrPaymentTooSmall):
		status = http.StatusPaymentRequired
	}
	writeError(w, status, err)
}
