package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteRequestLatency records remote API latency by endpoint and outcome.
	RemoteRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "photoshare_client_remote_request_seconds",
		Help:    "Remote API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})

	// MutationsTotal counts mutations by action and outcome.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_client_mutations_total",
		Help: "Total number of client mutations by action and outcome",
	}, []string{"action", "outcome"})

	// OptimisticRollbacks counts optimistic changes that had to be compensated.
	OptimisticRollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_client_optimistic_rollbacks_total",
		Help: "Total number of optimistic changes reverted after a remote failure",
	}, []string{"action"})

	// GuardRedirects counts navigation redirects by decision kind.
	GuardRedirects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_client_guard_redirects_total",
		Help: "Total number of navigation redirects issued by access guards",
	}, []string{"kind"})

	// StorageErrors counts failed durable session storage operations.
	StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "photoshare_client_storage_errors_total",
		Help: "Total number of failed session storage operations",
	}, []string{"backend", "op"})
)

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeRejected    = "rejected"
	OutcomeUnreachable = "unreachable"
	OutcomeCanceled    = "canceled"
	OutcomeSkipped     = "skipped"
)

// TrackRequest returns a function that records request latency when called (e.g. defer).
func TrackRequest(endpoint string) func(outcome string) {
	start := time.Now()
	return func(outcome string) {
		RemoteRequestLatency.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	}
}

// RecordMutation increments the mutation counter.
func RecordMutation(action, outcome string) {
	MutationsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordRollback increments the rollback counter for the action.
func RecordRollback(action string) {
	OptimisticRollbacks.WithLabelValues(action).Inc()
}
