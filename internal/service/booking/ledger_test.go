package booking

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotDeparted(t *testing.T) {
	b := &domain.Booking{ScheduledDeparture: testNow}

	assert.NoError(t, NotDeparted(testNow.Add(-time.Minute))(b))
	assert.ErrorIs(t, NotDeparted(testNow)(b), domain.ErrTooLateToReschedule)
	assert.ErrorIs(t, NotDeparted(testNow.Add(time.Minute))(b), domain.ErrTooLateToReschedule)
}

func TestDepartureBoundaryMatchesInstance(t *testing.T) {
	b := &domain.Booking{ScheduledDeparture: testNow}
	fi := &domain.FlightInstance{ScheduledDeparture: testNow}

	assert.True(t, b.HasDeparted(testNow))
	assert.Equal(t, fi.HasDeparted(testNow), b.HasDeparted(testNow))
	assert.Equal(t, fi.HasDeparted(testNow.Add(-time.Second)), b.HasDeparted(testNow.Add(-time.Second)))
}

func TestLedger_MarkCancelled_PreconditionFailureLeavesBooking(t *testing.T) {
	store := seedStore()
	b := store.AddBooking(domain.Booking{
		PNR: "QWERTY", UserID: 1, FlightInstanceID: instanceX, Seats: domain.MustSeatSet("3A"),
		Status: domain.BookingStatusConfirmed, ScheduledDeparture: testNow.Add(-time.Hour),
	})

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Repositories) error {
		l := ledger{bookings: tx.Bookings(), now: testNow}
		_, err := l.MarkCancelled(ctx, b.ID, NotDeparted(testNow))
		return err
	})

	assert.ErrorIs(t, err, domain.ErrInvalidState)
	got, _ := store.Booking(b.ID)
	assert.Equal(t, domain.BookingStatusConfirmed, got.Status)
}

func TestLedger_Create_AssignsConfirmedState(t *testing.T) {
	store := seedStore()
	var created domain.Booking

	err := store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Repositories) error {
		l := ledger{bookings: tx.Bookings(), pnrs: &sequencePNR{codes: []string{"ZX81AB"}}, attempts: 1, now: testNow}
		b := &domain.Booking{UserID: 3, FlightInstanceID: instanceX, Seats: domain.MustSeatSet("4A"), Status: domain.BookingStatusCancelled}
		if err := l.Create(ctx, b); err != nil {
			return err
		}
		created = *b
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ZX81AB", created.PNR)
	assert.Equal(t, domain.BookingStatusConfirmed, created.Status)
	assert.Equal(t, testNow, created.BookedAt)
	assert.NotZero(t, created.ID)
}

func TestLedger_Get(t *testing.T) {
	store := seedStore()
	b := store.AddBooking(domain.Booking{
		PNR: "GET001", UserID: 1, FlightInstanceID: instanceX, Seats: domain.MustSeatSet("3A"),
		Status: domain.BookingStatusConfirmed, ScheduledDeparture: testNow.Add(time.Hour),
	})
	l := ledger{bookings: store.Bookings(), now: testNow}

	got, err := l.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "GET001", got.PNR)

	_, err = l.Get(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestSettlement_RejectsNonPositiveAmount(t *testing.T) {
	_, err := settlement{}.Record(context.Background(), 1, 0, 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRescheduleTransactionID(t *testing.T) {
	assert.Equal(t, "RESCHEDULE_42", rescheduleTransactionID(42))
}
