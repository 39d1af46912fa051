package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "circle-media/backend/pkg/errors"
)

// ============================================================================
// Prometheus Metrics
// ============================================================================

var (
	// operationsTotal counts engine operations by outcome
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_engine_operations_total",
		Help: "Total engine operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// operationDuration tracks engine operation latency including store calls
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circle_engine_operation_duration_seconds",
		Help:    "Engine operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"operation"})

	// toggleDirections counts which way set toggles moved
	toggleDirections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_engine_toggle_total",
		Help: "Set toggles by operation and direction",
	}, []string{"operation", "direction"})
)

// outcome labels an error for the operations counter
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if t := apperrors.TypeOf(err); t != "" {
		return string(t)
	}
	return "error"
}

// observe records one finished operation. Call as
// defer e.observe(op, time.Now(), &err).
func (e *Engine) observe(op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	operationsTotal.WithLabelValues(op, outcome(err)).Inc()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
