// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_wizard_transitions_total",
			Help: "Total number of wizard page transitions",
		},
		[]string{"from", "to"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_validation_failures_total",
			Help: "Total number of rejected page advances",
		},
		[]string{"page"},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_pipeline_runs_total",
			Help: "Total number of submission pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	EstimateResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_estimate_results_total",
			Help: "Total number of estimate requests by result",
		},
		[]string{"result"},
	)

	AddressQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quote_address_queries_total",
			Help: "Total number of address suggestion lookups by result",
		},
		[]string{"result"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quote_wizard_active_sessions",
			Help: "Number of live wizard sessions",
		},
	)
)
