package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "pos_terminal"

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeInvalid = "invalid"
)

// Metrics holds the service counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	settlements    *prometheus.CounterVec
	settledAmount  *prometheus.CounterVec
	salesFetches   *prometheus.CounterVec
	activeSessions prometheus.Gauge
	receiptsFailed prometheus.Counter
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement attempts by outcome.",
		}, []string{"outcome"}),
		settledAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settled_amount_total",
			Help:      "Amount of confirmed settlements by payment method.",
		}, []string{"method"}),
		salesFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_fetches_total",
			Help:      "Sales listing fetches from the remote service by outcome.",
		}, []string{"outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "terminal_sessions",
			Help:      "Open terminal sessions.",
		}),
		receiptsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_print_failures_total",
			Help:      "Receipts that could not be printed after a settlement.",
		}),
	}

	reg.MustRegister(m.settlements, m.settledAmount, m.salesFetches, m.activeSessions, m.receiptsFailed)
	return m
}

func (m *Metrics) SettlementSucceeded(method string, amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(OutcomeSuccess).Inc()
	m.settledAmount.WithLabelValues(method).Add(amount.InexactFloat64())
}

func (m *Metrics) SettlementFailed(outcome string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SalesFetched(ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	m.salesFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) ReceiptFailed() {
	if m == nil {
		return
	}
	m.receiptsFailed.Inc()
}
