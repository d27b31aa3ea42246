// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts HTTP requests handled by the API.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// AgentExecutionsTotal counts finished agent executions by terminal status.
	AgentExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_executions_total",
			Help: "Total number of testing agent executions by terminal status.",
		},
		[]string{"agent_type", "status"},
	)

	// ActiveExecutions tracks the number of executions currently in flight.
	ActiveExecutions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_executions",
			Help: "Number of agent executions currently running.",
		},
	)

	// ScheduledDispatchesTotal counts cron-triggered execution dispatches.
	ScheduledDispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_dispatches_total",
			Help: "Total number of cron-triggered agent dispatches by outcome.",
		},
		[]string{"schedule", "outcome"},
	)
)
