package repository

import (
	"context"

	"github.com/Domenick1991/flightreserve/internal/domain"
)

type PGSeatRepository struct {
	db Querier
}

func NewSeatRepository(db Querier) SeatRepository {
	return &PGSeatRepository{db: db}
}

func (r *PGSeatRepository) LockSeats(ctx context.Context, instanceID int64, seats domain.SeatSet) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_id, flight_instance_id, seat_number, status
		FROM flight_seats
		WHERE flight_instance_id = $1 AND seat_number = ANY($2::text[])
		ORDER BY seat_number
		FOR UPDATE`, instanceID, seats.Labels())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSeats(rows)
}

func (r *PGSeatRepository) SetStatus(ctx context.Context, instanceID int64, seats domain.SeatSet, status domain.SeatStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE flight_seats SET status = $3, updated_at = now()
		WHERE flight_instance_id = $1 AND seat_number = ANY($2::text[])`, instanceID, seats.Labels(), status)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() != int64(seats.Len()) {
		return domain.ErrSeatsNotFound
	}
	return nil
}

func (r *PGSeatRepository) ListByInstance(ctx context.Context, instanceID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_id, flight_instance_id, seat_number, status
		FROM flight_seats WHERE flight_instance_id = $1 ORDER BY seat_id`, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectSeats(rows)
}

func (r *PGSeatRepository) ReleaseBooked(ctx context.Context, instanceID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `WITH locked AS (
			SELECT seat_id FROM flight_seats
			WHERE flight_instance_id = $1 AND status = $2
			ORDER BY seat_number
			FOR UPDATE
		)
		UPDATE flight_seats fs SET status = $3, updated_at = now()
		FROM locked WHERE fs.seat_id = locked.seat_id
		RETURNING fs.seat_number`, instanceID, domain.SeatStatusBooked, domain.SeatStatusAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	released := make([]string, 0)
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		released = append(released, number)
	}
	return released, rows.Err()
}

type seatRows interface {
	rowScanner
	Next() bool
	Err() error
}

func collectSeats(rows seatRows) ([]domain.Seat, error) {
	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightInstanceID, &s.Number, &s.Status); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

var _ SeatRepository = (*PGSeatRepository)(nil)
