package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/bookkeeper/internal/domain"
)

// Metrics holds all Prometheus metrics and implements usecase.Recorder.
type Metrics struct {
	// Journal metrics
	TransactionsPosted prometheus.Counter
	LinesPosted        prometheus.Counter

	// Balance metrics
	BalanceLookups *prometheus.CounterVec

	// Exchange-rate metrics
	RateUpdates *prometheus.CounterVec

	// Audit retention metrics
	AuditRows *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Journal metrics
		TransactionsPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_transactions_posted_total",
			Help: "Total number of transactions posted to the journal",
		}),
		LinesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_entry_lines_posted_total",
			Help: "Total number of entry lines posted to the journal",
		}),

		// Balance metrics
		BalanceLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_balance_lookups_total",
				Help: "Balance lookups by outcome (hit, recompute, direct)",
			},
			[]string{"outcome"},
		),

		// Exchange-rate metrics
		RateUpdates: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_rate_updates_total",
				Help: "Exchange-rate updates by policy",
			},
			[]string{"policy"},
		),

		// Audit retention metrics
		AuditRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_fx_audit_rows_removed_total",
				Help: "FX audit rows removed by retention mode",
			},
			[]string{"mode"},
		),
	}
}

// TransactionPosted records one posted transaction with lines lines.
func (m *Metrics) TransactionPosted(lines int) {
	m.TransactionsPosted.Inc()
	m.LinesPosted.Add(float64(lines))
}

// BalanceLookup records how a balance was answered.
func (m *Metrics) BalanceLookup(outcome string) {
	m.BalanceLookups.WithLabelValues(outcome).Inc()
}

// RateUpdated records an exchange-rate update.
func (m *Metrics) RateUpdated(policy domain.PolicyMode) {
	m.RateUpdates.WithLabelValues(string(policy)).Inc()
}

// AuditRowsRemoved records rows deleted by a retention run.
func (m *Metrics) AuditRowsRemoved(mode domain.RetentionMode, rows int) {
	m.AuditRows.WithLabelValues(string(mode)).Add(float64(rows))
}
