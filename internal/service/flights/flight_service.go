package flights

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository"
)

type FlightUseCase interface {
	GetInstance(ctx context.Context, id int64) (*domain.FlightInstance, error)
	ListSeats(ctx context.Context, instanceID int64) ([]domain.Seat, error)
}

type InstanceCache interface {
	GetInstance(ctx context.Context, id int64) (*domain.FlightInstance, error)
	SetInstance(ctx context.Context, instance *domain.FlightInstance) error
}

type FlightService struct {
	flights repository.FlightRepository
	seats   repository.SeatRepository
	cache   InstanceCache
}

func NewFlightService(flights repository.FlightRepository, seats repository.SeatRepository, cache InstanceCache) *FlightService {
	return &FlightService{flights: flights, seats: seats, cache: cache}
}

// GetInstance serves instance details from the cache when possible. Schedule
// data is reference data, so a short-lived stale copy is acceptable.
func (s *FlightService) GetInstance(ctx context.Context, id int64) (*domain.FlightInstance, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetInstance(ctx, id); err == nil && cached != nil {
			return cached, nil
		}
	}

	instance, err := s.flights.GetInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetInstance(ctx, instance); err != nil {
			slog.Warn("failed to cache flight instance", "flight_instance_id", id, "error", err)
		}
	}
	return instance, nil
}

// ListSeats always reads the database; seat status must never come from a
// cache.
func (s *FlightService) ListSeats(ctx context.Context, instanceID int64) ([]domain.Seat, error) {
	if _, err := s.GetInstance(ctx, instanceID); err != nil {
		return nil, err
	}
	return s.seats.ListByInstance(ctx, instanceID)
}

var _ FlightUseCase = (*FlightService)(nil)
