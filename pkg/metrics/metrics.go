// Package metrics exposes the pipeline's Prometheus collectors,
// registered on a dedicated registry. Each process holds its own copy of
// that registry; only the admin HTTP process (cmd/server) serves it,
// alongside the health endpoints, so the values cmd/scheduler and
// cmd/worker record are not served by any endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the process-wide collector registry. Every collector below
// is registered on it in init(); cmd/server mounts
// promhttp.HandlerFor(Registry, ...) on the admin server.
var Registry = prometheus.NewRegistry()

var (
	MessagesScheduledTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messages_scheduled_total",
		Help: "Rows created by the Daily Pre-calc Scheduler or an ingress event.",
	})

	MessagesEnqueuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messages_enqueued_total",
		Help: "Rows promoted SCHEDULED to ENQUEUED by the Minute Dispatcher.",
	})

	MessagesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messages_sent_total",
		Help: "Send attempts resolved by the worker pool, partitioned by outcome.",
	}, []string{"outcome"})

	MessagesDeadTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messages_dead_total",
		Help: "Rows transitioned to DEAD, terminally.",
	})

	RecoveryRequeuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recovery_requeued_total",
		Help: "Rows re-enqueued by the Recovery Sweeper, partitioned by rule.",
	}, []string{"rule"})

	SendLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "send_latency_seconds",
		Help:    "Email Sender call latency, end to end including inner retries.",
		Buckets: prometheus.DefBuckets,
	})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "queue_depth",
		Help: "Most recently observed depth of the durable queue's work queue.",
	})

	CircuitState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "circuit_state",
		Help: "Email Sender circuit breaker state: 0=closed, 1=open, 2=half-open.",
	})
)

func init() {
	Registry.MustRegister(
		MessagesScheduledTotal,
		MessagesEnqueuedTotal,
		MessagesSentTotal,
		MessagesDeadTotal,
		RecoveryRequeuedTotal,
		SendLatencySeconds,
		QueueDepth,
		CircuitState,
	)
}
