package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/pnr"
	"github.com/Domenick1991/flightreserve/internal/repository"
)

// Precondition is checked against a locked, confirmed booking before it is
// cancelled.
type Precondition func(b *domain.Booking) error

// NotDeparted rejects bookings whose snapshotted departure is before now.
func NotDeparted(now time.Time) Precondition {
	return func(b *domain.Booking) error {
		if b.HasDeparted(now) {
			return domain.ErrTooLateToReschedule
		}
		return nil
	}
}

type ledger struct {
	bookings repository.BookingRepository
	pnrs     pnr.Generator
	attempts int
	now      time.Time
}

// Create stores b as a confirmed booking with a fresh PNR. A PNR collision is
// retried with a new code up to the configured number of attempts.
func (l ledger) Create(ctx context.Context, b *domain.Booking) error {
	b.Status = domain.BookingStatusConfirmed
	b.BookedAt = l.now
	b.CancelledAt = nil

	for attempt := 1; attempt <= l.attempts; attempt++ {
		code, err := l.pnrs.Generate()
		if err != nil {
			return fmt.Errorf("failed to generate pnr: %w", err)
		}
		b.PNR = code

		err = l.bookings.Create(ctx, b)
		if errors.Is(err, repository.ErrDuplicatePNR) {
			continue
		}
		return err
	}
	return fmt.Errorf("no unique pnr after %d attempts", l.attempts)
}

// Acquire loads and row-locks a booking that must still be confirmed and
// satisfy every precondition.
func (l ledger) Acquire(ctx context.Context, id int64, preconditions ...Precondition) (*domain.Booking, error) {
	b, err := l.bookings.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsConfirmed() {
		return nil, domain.InvalidState("booking %d is already %s", id, b.Status)
	}
	for _, check := range preconditions {
		if err := check(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Get reads a booking without locking it.
func (l ledger) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	return l.bookings.Get(ctx, id)
}

func (l ledger) MarkCancelled(ctx context.Context, id int64, preconditions ...Precondition) (*domain.Booking, error) {
	if _, err := l.Acquire(ctx, id, preconditions...); err != nil {
		return nil, err
	}
	return l.bookings.MarkCancelled(ctx, id, l.now)
}
