package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics records invoice scheduler outcomes.
type BillingMetrics struct {
	candidates prometheus.Counter
	created    prometheus.Counter
	failed     prometheus.Counter
	skipped    prometheus.Counter
}

// NewBillingMetrics registers the billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	candidates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_invoice_candidates",
		Help: "Recurring billables due within the look-ahead window.",
	})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_invoices_created",
		Help: "Invoices created by the scheduler.",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_invoices_failed",
		Help: "Invoice creations that failed after retries.",
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_invoices_skipped",
		Help: "Candidates skipped because an open invoice already exists.",
	})
	reg.MustRegister(candidates, created, failed, skipped)
	return &BillingMetrics{
		candidates: candidates,
		created:    created,
		failed:     failed,
		skipped:    skipped,
	}
}

// AddCandidates records how many billables were due this run.
func (b *BillingMetrics) AddCandidates(n int) {
	if b == nil || b.candidates == nil {
		return
	}
	b.candidates.Add(float64(n))
}

// IncCreated increments the created invoice counter.
func (b *BillingMetrics) IncCreated() {
	if b == nil || b.created == nil {
		return
	}
	b.created.Inc()
}

// IncFailed increments the failed invoice counter.
func (b *BillingMetrics) IncFailed() {
	if b == nil || b.failed == nil {
		return
	}
	b.failed.Inc()
}

// IncSkipped increments the duplicate-skip counter.
func (b *BillingMetrics) IncSkipped() {
	if b == nil || b.skipped == nil {
		return
	}
	b.skipped.Inc()
}
