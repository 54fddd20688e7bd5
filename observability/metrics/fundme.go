package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FundMeMetrics aggregates the escrow counters exported by the gateway.
type FundMeMetrics struct {
	TransactionsCreated prometheus.Counter
	EscrowsCreated      prometheus.Counter
	FundedTotal         prometheus.Counter
	ClaimsRequested     prometheus.Counter
	DisputesOpened      prometheus.Counter
	RulingsApplied      *prometheus.CounterVec
	Timeouts            *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
}

var (
	fundmeOnce    sync.Once
	fundmeMetrics *FundMeMetrics
)

// FundMe returns the process-wide metrics set, registering the collectors on
// first use.
func FundMe() *FundMeMetrics {
	fundmeOnce.Do(func() {
		fundmeMetrics = &FundMeMetrics{
			TransactionsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "fundvault",
				Subsystem: "fundme",
				Name:      "transactions_created_total",
				Help:      "Number of crowdfunding campaigns created.",
			}),
			EscrowsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "fundvault",
				Subsystem: "direct",
				Name:      "escrows_created_total",
				Help:      "Number of two-party escrows created.",
			}),
			FundedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "fundvault",
				Subsystem: "fundme",
				Name:      "fund_operations_total",
				Help:      "Number of successful funding operations.",
			}),
			ClaimsRequested: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "fundvault",
				Subsystem: "fundme",
				Name:      "claims_requested_total",
				Help:      "Number of milestone claim proposals.",
			}),
			DisputesOpened: promauto.NewCounter(prometheus.CounterOpts{
				Namespace: "fundvault",
				Subsystem: "fundme",
				Name:      "disputes_opened_total",
				Help:      "Number of disputes escalated to the arbitration authority.",
			}),
			RulingsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fundvault",
				Subsystem: "fundme",
				Name:      "rulings_applied_total",
				Help:      "Number of final rulings applied, labelled by outcome.",
			}, []string{"ruling"}),
			Timeouts: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "fundvault",
				Subsystem: "fundme",
				Name:      "fee_race_timeouts_total",
				Help:      "Number of fee races resolved by abandonment, labelled by winner.",
			}, []string{"winner"}),
			RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "fundvault",
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Gateway request latency.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "status"}),
		}
	})
	return fundmeMetrics
}
