package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CRDTUpdatesTotal counts updates applied to a CRDT, by type and outcome.
	CRDTUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horao_crdt_updates_total",
		Help: "Total CRDT updates applied, by crdt type and outcome",
	}, []string{"crdt_type", "outcome"})

	// CRDTConvergenceSeconds observes the time to merge a remote update set.
	CRDTConvergenceSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "horao_crdt_merge_duration_seconds",
		Help:    "Time to merge a remote update set into local state",
		Buckets: prometheus.DefBuckets,
	})

	// MerkleDivergingLeaves reports the number of leaves a diff found to differ.
	MerkleDivergingLeaves = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "horao_merkle_diverging_leaves",
		Help:    "Number of diverging merkle leaves found during a tree diff",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	// SyncRoundsTotal counts synchronization rounds with a peer, by outcome.
	SyncRoundsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horao_sync_rounds_total",
		Help: "Total peer synchronization rounds, by outcome",
	}, []string{"peer", "outcome"})

	// SyncRoundDuration observes how long a synchronize round against one
	// peer took.
	SyncRoundDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "horao_sync_round_duration_seconds",
		Help:    "Duration of a synchronize round against a peer",
		Buckets: prometheus.DefBuckets,
	}, []string{"peer"})

	// SyncPendingChanges tracks the unsynced change count per peer.
	SyncPendingChanges = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "horao_sync_pending_changes",
		Help: "Unsynchronized change count observed for a peer",
	}, []string{"peer"})

	// SchedulerDecisionsTotal counts admission decisions by verdict and reason.
	SchedulerDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "horao_scheduler_decisions_total",
		Help: "Total scheduling decisions, by verdict and reason",
	}, []string{"verdict", "reason"})

	// SchedulerDecisionDuration observes how long an admission check took.
	SchedulerDecisionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "horao_scheduler_decision_duration_seconds",
		Help:    "Time to evaluate a claim admission decision",
		Buckets: prometheus.DefBuckets,
	})

	// InfrastructureCapacity reports current total/claimed capacity by resource kind.
	InfrastructureCapacity = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "horao_infrastructure_capacity",
		Help: "Observed infrastructure capacity, by resource kind and state",
	}, []string{"resource", "state"})
)

func init() {
	prometheus.MustRegister(
		CRDTUpdatesTotal,
		CRDTConvergenceSeconds,
		MerkleDivergingLeaves,
		SyncRoundsTotal,
		SyncRoundDuration,
		SyncPendingChanges,
		SchedulerDecisionsTotal,
		SchedulerDecisionDuration,
		InfrastructureCapacity,
	)
}

// Timer is a convenience wrapper for timing operations and observing the
// elapsed duration against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed duration on a plain histogram.
func (t *Timer) ObserveDuration(h prometheus.Histogram) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed duration on a histogram vector
// using the given label values.
func (t *Timer) ObserveDurationVec(hv *prometheus.HistogramVec, labelValues ...string) {
	hv.WithLabelValues(labelValues...).Observe(t.Duration().Seconds())
}

// Handler returns the HTTP handler that exposes metrics in the Prometheus
// text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
