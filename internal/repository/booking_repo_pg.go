package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `booking_id, pnr, user_id, flight_instance_id, seat_numbers, status,
	booking_date, cancelled_at, scheduled_departure, scheduled_arrival, rescheduled_from`

const pnrConstraint = "bookings_pnr_key"

type PGBookingRepository struct {
	db Querier
}

func NewBookingRepository(db Querier) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Create inserts the booking inside a savepoint so that a PNR collision can
// be retried without aborting the enclosing transaction.
func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	sp, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer sp.Rollback(ctx)

	err = sp.QueryRow(ctx, `INSERT INTO bookings
		(pnr, user_id, flight_instance_id, seat_numbers, status, booking_date, scheduled_departure, scheduled_arrival, rescheduled_from)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING booking_id`,
		booking.PNR, booking.UserID, booking.FlightInstanceID, booking.Seats.Labels(), booking.Status,
		booking.BookedAt, booking.ScheduledDeparture, booking.ScheduledArrival, booking.RescheduledFrom).
		Scan(&booking.ID)
	if err != nil {
		if isUniqueViolation(err, pnrConstraint) {
			return ErrDuplicatePNR
		}
		return err
	}

	return sp.Commit(ctx)
}

func (r *PGBookingRepository) Get(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1`, id)
}

func (r *PGBookingRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id = $1 FOR UPDATE`, id)
}

func (r *PGBookingRepository) MarkCancelled(ctx context.Context, id int64, at time.Time) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status = $2, cancelled_at = $3
		WHERE booking_id = $1 AND status = $4
		RETURNING `+bookingColumns, id, domain.BookingStatusCancelled, at, domain.BookingStatusConfirmed))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.InvalidState("booking %d is not confirmed", id)
	}
	return b, err
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE user_id = $1 ORDER BY scheduled_departure DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *PGBookingRepository) List(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		ORDER BY booking_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *PGBookingRepository) getOne(ctx context.Context, query string, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b     domain.Booking
		seats []string
	)
	if err := row.Scan(&b.ID, &b.PNR, &b.UserID, &b.FlightInstanceID, &seats, &b.Status,
		&b.BookedAt, &b.CancelledAt, &b.ScheduledDeparture, &b.ScheduledArrival, &b.RescheduledFrom); err != nil {
		return nil, err
	}

	set, err := domain.NewSeatSet(seats)
	if err != nil {
		return nil, fmt.Errorf("booking %d has a malformed seat list: %w", b.ID, err)
	}
	b.Seats = set
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
