// Package metrics exposes Prometheus instrumentation for the booking engine.
package metrics

import (
	"errors"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	seatsReleased prometheus.Counter
	sweeps        *prometheus.CounterVec
}

// New registers the collectors on reg. A nil *Metrics is a valid no-op.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flightreserve",
			Name:      "booking_operations_total",
			Help:      "Booking engine operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flightreserve",
			Name:      "booking_operation_duration_seconds",
			Help:      "Duration of booking engine operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		seatsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flightreserve",
			Name:      "sweeper_seats_released_total",
			Help:      "Seats returned to inventory by the expiry sweeper.",
		}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flightreserve",
			Name:      "sweeper_runs_total",
			Help:      "Expiry sweeper ticks by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.operations, m.duration, m.seatsReleased, m.sweeps)
	return m
}

func (m *Metrics) ObserveOperation(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, Outcome(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) SeatsReleased(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.seatsReleased.Add(float64(n))
}

func (m *Metrics) SweepFinished(err error) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(Outcome(err)).Inc()
}

// Outcome maps an error to a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	default:
		return "error"
	}
}
