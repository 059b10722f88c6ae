package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("create", time.Now(), nil)
	m.ObserveOperation("create", time.Now(), &domain.SeatConflictError{Seat: "1A"})
	m.ObserveOperation("create", time.Now(), &domain.SeatConflictError{Seat: "1B"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("create", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("create", "conflict")))
}

func TestMetrics_SeatsReleased(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SeatsReleased(3)
	m.SeatsReleased(0)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.seatsReleased))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("create", time.Now(), nil)
	m.SeatsReleased(1)
	m.SweepFinished(nil)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "not_found", Outcome(domain.ErrBookingNotFound))
	assert.Equal(t, "invalid_state", Outcome(domain.ErrTooLateToReschedule))
	assert.Equal(t, "validation", Outcome(domain.Validation("bad")))
	assert.Equal(t, "transient", Outcome(domain.Transient(errors.New("timeout"))))
	assert.Equal(t, "error", Outcome(errors.New("x")))
}
