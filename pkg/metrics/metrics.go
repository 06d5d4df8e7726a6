// Package metrics exposes the Prometheus counters that make sync health
// and cache-tier effectiveness observable, supplementing the spec's
// functional description with the ambient telemetry a production service
// of this shape carries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SyncAttemptsTotal counts every webhook delivery attempt, live or
	// replayed from the durable queue.
	SyncAttemptsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shodhan",
		Subsystem: "sync",
		Name:      "attempts_total",
		Help:      "Total number of webhook delivery attempts, live or replayed.",
	})

	// SyncSuccessTotal counts attempts that received a 2xx response.
	SyncSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shodhan",
		Subsystem: "sync",
		Name:      "success_total",
		Help:      "Total number of webhook deliveries that succeeded.",
	})

	// SyncFailureTotal counts attempts that failed (transport error or
	// non-2xx status), whether the submission was then queued, requeued or
	// dropped.
	SyncFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shodhan",
		Subsystem: "sync",
		Name:      "failure_total",
		Help:      "Total number of webhook delivery attempts that failed.",
	})

	// SyncQueueDepth records how many unexpired submissions the durable
	// queue held at the start of the most recent drain.
	SyncQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "shodhan",
		Subsystem: "sync",
		Name:      "queue_depth",
		Help:      "Number of submissions queued for delivery at the start of the last drain.",
	})

	// CacheTierHitsTotal counts lookups resolved by each cache tier, so an
	// operator can see how much traffic the LLM never has to see.
	CacheTierHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shodhan",
		Subsystem: "cache",
		Name:      "tier_hits_total",
		Help:      "Number of queries resolved per cache tier.",
	}, []string{"tier"})
)

// MustRegister registers every collector in this package against reg. Call
// once at process startup.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		SyncAttemptsTotal,
		SyncSuccessTotal,
		SyncFailureTotal,
		SyncQueueDepth,
		CacheTierHitsTotal,
	)
}
