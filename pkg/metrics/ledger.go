package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics counts ledger outcomes for purchases and reversals.
type LedgerMetrics struct {
	purchases *prometheus.CounterVec
	reversals prometheus.Counter
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_purchases_total",
		Help: "Purchase attempts by outcome.",
	}, []string{"outcome"})
	reversals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_reversals_total",
		Help: "Completed purchase reversals.",
	})
	reg.MustRegister(purchases, reversals)
	return &LedgerMetrics{
		purchases: purchases,
		reversals: reversals,
	}
}

// IncPurchase records a purchase attempt with the given outcome label.
func (l *LedgerMetrics) IncPurchase(outcome string) {
	if l == nil || l.purchases == nil {
		return
	}
	l.purchases.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncReversal records a completed compensation.
func (l *LedgerMetrics) IncReversal() {
	if l == nil || l.reversals == nil {
		return
	}
	l.reversals.Inc()
}
