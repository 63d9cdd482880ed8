package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MovementMetrics records stock movement and fulfillment outcomes.
type MovementMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	retries  prometheus.Counter
	units    *prometheus.CounterVec
}

// NewMovementMetrics registers the movement metrics on the provided registerer.
func NewMovementMetrics(reg prometheus.Registerer) *MovementMetrics {
	if reg == nil {
		return &MovementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_operation_duration_seconds",
		Help:    "Duration of stock operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_operation_success",
		Help: "Successful stock operations.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_operation_failure",
		Help: "Failed stock operations, labelled by error code.",
	}, []string{"operation", "code"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_movement_retries_total",
		Help: "Movement transactions retried after concurrent modification.",
	})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_units_moved_total",
		Help: "Units moved between locations.",
	}, []string{"operation"})
	reg.MustRegister(duration, success, failure, retries, units)
	return &MovementMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		retries:  retries,
		units:    units,
	}
}

// ObserveDuration records the duration for the named operation.
func (m *MovementMetrics) ObserveDuration(operation string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (m *MovementMetrics) IncSuccess(operation string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncFailure increments the failure counter for the named operation and error code.
func (m *MovementMetrics) IncFailure(operation string, code string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

// IncRetry counts a movement transaction retry.
func (m *MovementMetrics) IncRetry() {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Inc()
}

// AddUnitsMoved accumulates moved units for the named operation.
func (m *MovementMetrics) AddUnitsMoved(operation string, quantity int) {
	if m == nil || m.units == nil || quantity <= 0 {
		return
	}
	m.units.WithLabelValues(normalizeLabel(operation)).Add(float64(quantity))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
