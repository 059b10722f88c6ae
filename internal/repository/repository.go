package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicatePNR is returned by BookingRepository.Create when the generated
// reference collides with an existing booking.
var ErrDuplicatePNR = errors.New("duplicate pnr")

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type SeatRepository interface {
	// LockSeats takes exclusive row locks on exactly the requested seats, in
	// seat order, and returns the rows that exist.
	LockSeats(ctx context.Context, instanceID int64, seats domain.SeatSet) ([]domain.Seat, error)
	SetStatus(ctx context.Context, instanceID int64, seats domain.SeatSet, status domain.SeatStatus) error
	ListByInstance(ctx context.Context, instanceID int64) ([]domain.Seat, error)
	// ReleaseBooked locks every booked seat of the instance and makes it
	// available, returning the released seat numbers.
	ReleaseBooked(ctx context.Context, instanceID int64) ([]string, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	Get(ctx context.Context, id int64) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	MarkCancelled(ctx context.Context, id int64, at time.Time) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	List(ctx context.Context, limit, offset int) ([]domain.Booking, error)
}

type FlightRepository interface {
	GetInstance(ctx context.Context, id int64) (*domain.FlightInstance, error)
	SearchByRoute(ctx context.Context, routeID int64, from, to time.Time, statuses []string) ([]domain.FlightInstanceSummary, error)
	DepartedWithBookedSeats(ctx context.Context, now time.Time) ([]int64, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories interface {
	Seats() SeatRepository
	Bookings() BookingRepository
	Flights() FlightRepository
	Payments() PaymentRepository
}

// Store hands out pool-bound repositories for reads and runs atomic units.
type Store interface {
	Repositories
	// WithinTx runs fn in a single transaction. fn's writes commit together
	// when it returns nil and are rolled back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error
}

type rowScanner interface {
	Scan(dest ...any) error
}
