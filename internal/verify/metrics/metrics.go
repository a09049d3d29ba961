package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verify module.
type Metrics struct {
	// Attempt outcomes by terminal state and document class
	AttemptOutcome *prometheus.CounterVec

	// Vendor round-trip latency by backend and call
	VendorLatency *prometheus.HistogramVec

	// Vendor transport failures by kind (timeout vs connection)
	VendorNetworkErrors *prometheus.CounterVec

	// Attempts blocked before dispatch, by reason (throttled, locked_out)
	AttemptsBlocked *prometheus.CounterVec

	// Resubmissions of an image already known to fail
	KnownFailureResubmits *prometheus.CounterVec
}

// New creates a Metrics instance with all verify module metrics registered.
func New() *Metrics {
	return &Metrics{
		AttemptOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_verify_attempts_total",
			Help: "Total submission attempts by terminal state and document class",
		}, []string{"state", "doc_class"}),

		VendorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docauth_vendor_request_duration_seconds",
			Help:    "Duration of vendor calls by backend and call name",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"backend", "call"}),

		VendorNetworkErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_vendor_network_errors_total",
			Help: "Total vendor transport failures by kind",
		}, []string{"kind"}), // kind: "timeout", "connection"

		AttemptsBlocked: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_verify_attempts_blocked_total",
			Help: "Attempts refused before vendor dispatch by reason",
		}, []string{"reason"}),

		KnownFailureResubmits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_verify_known_failure_resubmits_total",
			Help: "Resubmissions of a previously failed image by side",
		}, []string{"side"}),
	}
}

// IncrementOutcome records one finished attempt.
func (m *Metrics) IncrementOutcome(state, docClass string) {
	if m != nil {
		m.AttemptOutcome.WithLabelValues(state, docClass).Inc()
	}
}

// ObserveVendorLatency records the duration of one vendor call.
func (m *Metrics) ObserveVendorLatency(backend, call string, d time.Duration) {
	if m != nil {
		m.VendorLatency.WithLabelValues(backend, call).Observe(d.Seconds())
	}
}

// IncrementNetworkError records a vendor transport failure.
func (m *Metrics) IncrementNetworkError(timeout bool) {
	if m == nil {
		return
	}
	kind := "connection"
	if timeout {
		kind = "timeout"
	}
	m.VendorNetworkErrors.WithLabelValues(kind).Inc()
}

// IncrementBlocked records an attempt refused before dispatch.
func (m *Metrics) IncrementBlocked(reason string) {
	if m != nil {
		m.AttemptsBlocked.WithLabelValues(reason).Inc()
	}
}

// IncrementKnownFailureResubmit records a resubmitted known-failing image.
func (m *Metrics) IncrementKnownFailureResubmit(side string) {
	if m != nil {
		m.KnownFailureResubmits.WithLabelValues(side).Inc()
	}
}
