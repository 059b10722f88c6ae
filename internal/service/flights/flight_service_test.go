package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) GetInstance(ctx context.Context, id int64) (*domain.FlightInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightInstance), args.Error(1)
}

func (m *MockFlightRepository) SearchByRoute(ctx context.Context, routeID int64, from, to time.Time, statuses []string) ([]domain.FlightInstanceSummary, error) {
	args := m.Called(ctx, routeID, from, to, statuses)
	return args.Get(0).([]domain.FlightInstanceSummary), args.Error(1)
}

func (m *MockFlightRepository) DepartedWithBookedSeats(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]int64), args.Error(1)
}

type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) LockSeats(ctx context.Context, instanceID int64, seats domain.SeatSet) ([]domain.Seat, error) {
	args := m.Called(ctx, instanceID, seats)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) SetStatus(ctx context.Context, instanceID int64, seats domain.SeatSet, status domain.SeatStatus) error {
	args := m.Called(ctx, instanceID, seats, status)
	return args.Error(0)
}

func (m *MockSeatRepository) ListByInstance(ctx context.Context, instanceID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, instanceID)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) ReleaseBooked(ctx context.Context, instanceID int64) ([]string, error) {
	args := m.Called(ctx, instanceID)
	return args.Get(0).([]string), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetInstance(ctx context.Context, id int64) (*domain.FlightInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightInstance), args.Error(1)
}

func (m *MockCache) SetInstance(ctx context.Context, instance *domain.FlightInstance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func testInstance() *domain.FlightInstance {
	departure := time.Date(2026, 5, 1, 6, 30, 0, 0, time.UTC)
	return &domain.FlightInstance{
		ID:                 12,
		FlightID:           3,
		FlightNumber:       "FR204",
		RouteID:            2,
		ScheduledDeparture: departure,
		ScheduledArrival:   departure.Add(2 * time.Hour),
		Status:             "Scheduled",
	}
}

func TestFlightService_GetInstance_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, nil, mockCache)
	ctx := context.Background()
	instance := testInstance()

	mockCache.On("GetInstance", ctx, int64(12)).Return(nil, nil)
	mockRepo.On("GetInstance", ctx, int64(12)).Return(instance, nil)
	mockCache.On("SetInstance", ctx, instance).Return(nil)

	got, err := service.GetInstance(ctx, 12)

	require.NoError(t, err)
	assert.Equal(t, instance, got)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_GetInstance_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, nil, mockCache)
	ctx := context.Background()
	instance := testInstance()

	mockCache.On("GetInstance", ctx, int64(12)).Return(instance, nil)

	got, err := service.GetInstance(ctx, 12)

	require.NoError(t, err)
	assert.Equal(t, instance, got)
	mockRepo.AssertNotCalled(t, "GetInstance", mock.Anything, mock.Anything)
}

func TestFlightService_GetInstance_CacheWriteErrorIgnored(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, nil, mockCache)
	ctx := context.Background()
	instance := testInstance()

	mockCache.On("GetInstance", ctx, int64(12)).Return(nil, errors.New("redis down"))
	mockRepo.On("GetInstance", ctx, int64(12)).Return(instance, nil)
	mockCache.On("SetInstance", ctx, instance).Return(errors.New("redis down"))

	got, err := service.GetInstance(ctx, 12)

	require.NoError(t, err)
	assert.Equal(t, instance, got)
}

func TestFlightService_GetInstance_NotFound(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, nil)
	ctx := context.Background()

	mockRepo.On("GetInstance", ctx, int64(99)).Return(nil, domain.ErrFlightInstanceNotFound)

	_, err := service.GetInstance(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFlightService_ListSeats(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockSeats := &MockSeatRepository{}
	service := NewFlightService(mockRepo, mockSeats, nil)
	ctx := context.Background()
	seats := []domain.Seat{
		{ID: 1, FlightInstanceID: 12, Number: "1A", Status: domain.SeatStatusAvailable},
		{ID: 2, FlightInstanceID: 12, Number: "1B", Status: domain.SeatStatusBooked},
	}

	mockRepo.On("GetInstance", ctx, int64(12)).Return(testInstance(), nil)
	mockSeats.On("ListByInstance", ctx, int64(12)).Return(seats, nil)

	got, err := service.ListSeats(ctx, 12)

	require.NoError(t, err)
	assert.Equal(t, seats, got)
}

func TestFlightService_ListSeats_UnknownInstance(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockSeats := &MockSeatRepository{}
	service := NewFlightService(mockRepo, mockSeats, nil)
	ctx := context.Background()

	mockRepo.On("GetInstance", ctx, int64(99)).Return(nil, domain.ErrFlightInstanceNotFound)

	_, err := service.ListSeats(ctx, 99)

	assert.ErrorIs(t, err, domain.ErrFlightInstanceNotFound)
	mockSeats.AssertNotCalled(t, "ListByInstance", mock.Anything, mock.Anything)
}
