package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskpulse"

var (
	// GatewayRequests counts remote calls. Labels: operation, code (domain error code or "ok").
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Remote API calls by operation and outcome",
	}, []string{"operation", "code"})

	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Remote API call latency in seconds",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	// Rollbacks counts optimistic mutations reverted after a remote failure. Labels: operation.
	Rollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "rollbacks_total",
		Help:      "Optimistic task mutations rolled back",
	}, []string{"operation"})

	// StaleResponses counts responses discarded because a newer request for the task was issued.
	StaleResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tasks",
		Name:      "stale_responses_total",
		Help:      "Remote responses discarded as superseded",
	}, []string{"operation"})

	// Events counts tracking events. Labels: kind, outcome (queued, dropped, delivered, failed, buffered).
	Events = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tracker",
		Name:      "events_total",
		Help:      "Tracking events by kind and outcome",
	}, []string{"kind", "outcome"})

	// Refreshes counts analytics refreshes. Labels: outcome (ok, error).
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "analytics",
		Name:      "refreshes_total",
		Help:      "Analytics snapshot refreshes",
	}, []string{"outcome"})

	BufferSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "tracker",
		Name:      "buffer_size",
		Help:      "Events waiting in the retry buffer",
	})
)
