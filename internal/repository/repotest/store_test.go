package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	store.AddInstance(domain.FlightInstance{ID: 1, ScheduledDeparture: time.Now().Add(time.Hour)}, "1A")

	boom := errors.New("boom")
	err := store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Repositories) error {
		require.NoError(t, tx.Seats().SetStatus(ctx, 1, domain.MustSeatSet("1A"), domain.SeatStatusBooked))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.SeatStatusAvailable, store.SeatStatus(1, "1A"))
}

func TestStore_FailOnNth(t *testing.T) {
	store := NewStore()
	store.AddInstance(domain.FlightInstance{ID: 1}, "1A")
	boom := errors.New("boom")
	store.FailOnNth("seats.SetStatus", 2, boom)

	seats := domain.MustSeatSet("1A")
	assert.NoError(t, store.Seats().SetStatus(context.Background(), 1, seats, domain.SeatStatusBooked))
	assert.ErrorIs(t, store.Seats().SetStatus(context.Background(), 1, seats, domain.SeatStatusAvailable), boom)
	assert.Equal(t, 2, store.Calls("seats.SetStatus"))
}

func TestStore_ClearFaults(t *testing.T) {
	store := NewStore()
	store.AddInstance(domain.FlightInstance{ID: 1}, "1A")
	store.FailOn("seats.SetStatus", errors.New("boom"))
	seats := domain.MustSeatSet("1A")
	require.Error(t, store.Seats().SetStatus(context.Background(), 1, seats, domain.SeatStatusBooked))

	store.ClearFaults()

	assert.Equal(t, 0, store.Calls("seats.SetStatus"))
	assert.NoError(t, store.Seats().SetStatus(context.Background(), 1, seats, domain.SeatStatusBooked))
	assert.Equal(t, 1, store.Calls("seats.SetStatus"))
}

func TestStore_DuplicatePNR(t *testing.T) {
	store := NewStore()
	store.AddBooking(domain.Booking{PNR: "ABC123", Status: domain.BookingStatusConfirmed})

	err := store.Bookings().Create(context.Background(), &domain.Booking{PNR: "ABC123"})
	assert.ErrorIs(t, err, repository.ErrDuplicatePNR)
}

func TestStore_InvariantViolations(t *testing.T) {
	store := NewStore()
	store.AddInstance(domain.FlightInstance{ID: 1}, "1A", "1B")
	store.SetSeatStatus(1, "1A", domain.SeatStatusBooked)

	assert.Equal(t, []string{"instance 1 seat 1A booked=true held=false"}, store.InvariantViolations())

	store.AddBooking(domain.Booking{FlightInstanceID: 1, Seats: domain.MustSeatSet("1A"), Status: domain.BookingStatusConfirmed})
	assert.Empty(t, store.InvariantViolations())
}
