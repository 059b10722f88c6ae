package booking

import (
	"context"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository"
)

// inventory is the seat inventory of one transaction. Every mutation path
// locks the exact rows first and only then reads their status.
type inventory struct {
	seats repository.SeatRepository
}

// Lock takes row locks on the requested seats and fails with
// ErrSeatsNotFound unless every seat exists.
func (i inventory) Lock(ctx context.Context, instanceID int64, seats domain.SeatSet) ([]domain.Seat, error) {
	locked, err := i.seats.LockSeats(ctx, instanceID, seats)
	if err != nil {
		return nil, err
	}
	if len(locked) != seats.Len() {
		return nil, domain.ErrSeatsNotFound
	}
	return locked, nil
}

// Reserve locks the seats and checks that all of them are available. The
// conflict names the first unavailable seat in seat order.
func (i inventory) Reserve(ctx context.Context, instanceID int64, seats domain.SeatSet) error {
	locked, err := i.Lock(ctx, instanceID, seats)
	if err != nil {
		return err
	}
	for _, seat := range locked {
		if seat.Status != domain.SeatStatusAvailable {
			return &domain.SeatConflictError{FlightInstanceID: instanceID, Seat: seat.Number}
		}
	}
	return nil
}

// Claim marks previously reserved seats as booked.
func (i inventory) Claim(ctx context.Context, instanceID int64, seats domain.SeatSet) error {
	return i.seats.SetStatus(ctx, instanceID, seats, domain.SeatStatusBooked)
}

func (i inventory) Release(ctx context.Context, instanceID int64, seats domain.SeatSet) error {
	return i.seats.SetStatus(ctx, instanceID, seats, domain.SeatStatusAvailable)
}

// TryClaim reserves and claims the seats in one step. Concurrent callers on
// overlapping seats serialize on the row locks, so at most one succeeds.
func (i inventory) TryClaim(ctx context.Context, instanceID int64, seats domain.SeatSet) error {
	if err := i.Reserve(ctx, instanceID, seats); err != nil {
		return err
	}
	return i.Claim(ctx, instanceID, seats)
}
