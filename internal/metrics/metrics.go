// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_predictions_total",
			Help: "Total predictions served, by domain and source",
		},
		[]string{"domain", "source"},
	)

	PredictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_prediction_errors_total",
			Help: "Errors swallowed on the prediction path, by component",
		},
		[]string{"component"},
	)

	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_fallbacks_total",
			Help: "Predictions answered by the heuristic fallback predictor",
		},
		[]string{"domain"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foresight_prediction_duration_seconds",
			Help:    "Prediction latency by domain",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"domain"},
	)

	OutcomesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foresight_outcomes_recorded_total",
			Help: "Ground-truth outcomes recorded, by domain and correctness",
		},
		[]string{"domain", "correct"},
	)
)
