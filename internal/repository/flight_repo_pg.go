package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/jackc/pgx/v5"
)

type PGFlightRepository struct {
	db Querier
}

func NewFlightRepository(db Querier) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) GetInstance(ctx context.Context, id int64) (*domain.FlightInstance, error) {
	row := r.db.QueryRow(ctx, `SELECT fi.id, fi.flight_id, f.flight_number, f.route_id,
			fi.scheduled_departure, fi.scheduled_arrival, fi.status
		FROM flight_instances fi
		JOIN flights f ON f.id = fi.flight_id
		WHERE fi.id = $1`, id)

	var fi domain.FlightInstance
	if err := row.Scan(&fi.ID, &fi.FlightID, &fi.FlightNumber, &fi.RouteID, &fi.ScheduledDeparture, &fi.ScheduledArrival, &fi.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightInstanceNotFound
		}
		return nil, err
	}
	return &fi, nil
}

func (r *PGFlightRepository) SearchByRoute(ctx context.Context, routeID int64, from, to time.Time, statuses []string) ([]domain.FlightInstanceSummary, error) {
	rows, err := r.db.Query(ctx, `SELECT fi.id, fi.flight_id, f.flight_number,
			fi.scheduled_departure, fi.scheduled_arrival, fi.status
		FROM flight_instances fi
		JOIN flights f ON f.id = fi.flight_id
		WHERE f.route_id = $1
		  AND fi.scheduled_departure >= $2 AND fi.scheduled_departure < $3
		  AND LOWER(fi.status) = ANY($4::text[])
		ORDER BY fi.scheduled_departure ASC`, routeID, from, to, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.FlightInstanceSummary, 0)
	for rows.Next() {
		var s domain.FlightInstanceSummary
		if err := rows.Scan(&s.ID, &s.FlightID, &s.FlightNumber, &s.ScheduledDeparture, &s.ScheduledArrival, &s.Status); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *PGFlightRepository) DepartedWithBookedSeats(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT fi.id
		FROM flight_instances fi
		JOIN flight_seats fs ON fs.flight_instance_id = fi.id
		WHERE fi.scheduled_departure <= $1 AND fs.status = $2
		ORDER BY fi.id`, now, domain.SeatStatusBooked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
