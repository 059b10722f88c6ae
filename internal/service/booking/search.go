package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/logger"
)

const searchDateLayout = "2006-01-02"

// SearchRescheduleCandidates lists instances on the booking's route departing
// on date, a calendar day in the search time zone. The booking's own instance
// is left out.
func (s *BookingService) SearchRescheduleCandidates(ctx context.Context, bookingID int64, date string) ([]domain.FlightInstanceSummary, error) {
	day, err := time.ParseInLocation(searchDateLayout, date, s.searchLocation)
	if err != nil {
		return nil, domain.Validation("date must be formatted as YYYY-MM-DD")
	}

	booking, err := s.ledger(s.store, s.now()).Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	current, err := s.store.Flights().GetInstance(ctx, booking.FlightInstanceID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.routeInstancesOn(ctx, current.RouteID, day)
	if err != nil {
		return nil, err
	}

	out := make([]domain.FlightInstanceSummary, 0, len(candidates))
	for _, c := range candidates {
		if c.ID != booking.FlightInstanceID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *BookingService) routeInstancesOn(ctx context.Context, routeID int64, day time.Time) ([]domain.FlightInstanceSummary, error) {
	key := day.Format(searchDateLayout)
	if s.cache != nil {
		cached, ok, err := s.cache.GetRescheduleCandidates(ctx, routeID, key)
		if err != nil {
			logger.FromContext(ctx).Warn("reschedule cache read failed", "route_id", routeID, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	found, err := s.store.Flights().SearchByRoute(ctx, routeID, day, day.AddDate(0, 0, 1), domain.ReschedulableStatuses)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRescheduleCandidates(ctx, routeID, key, found); err != nil {
			logger.FromContext(ctx).Warn("reschedule cache write failed", "route_id", routeID, "error", err)
		}
	}
	return found, nil
}
