package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetRescheduleCandidates(ctx context.Context, routeID int64, date string) ([]domain.FlightInstanceSummary, bool, error) {
	args := m.Called(ctx, routeID, date)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]domain.FlightInstanceSummary), args.Bool(1), args.Error(2)
}

func (m *MockCache) SetRescheduleCandidates(ctx context.Context, routeID int64, date string, candidates []domain.FlightInstanceSummary) error {
	args := m.Called(ctx, routeID, date, candidates)
	return args.Error(0)
}

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	return loc
}

// searchStore has a booking on instance 10 and, on the same route, instances
// around the 2026-03-06 IST day boundary.
func searchStore() (*repotest.Store, domain.Booking) {
	store := repotest.NewStore()
	add := func(id, route int64, departure time.Time, status string) {
		store.AddInstance(domain.FlightInstance{
			ID: id, FlightID: id, FlightNumber: "FR1", RouteID: route,
			ScheduledDeparture: departure, ScheduledArrival: departure.Add(2 * time.Hour), Status: status,
		}, "1A")
	}
	add(10, 1, time.Date(2026, 3, 6, 4, 0, 0, 0, time.UTC), "Scheduled")
	add(11, 1, time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC), "On-Time")   // 01:30 IST on the 6th
	add(12, 1, time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC), "active")    // 15:30 IST
	add(13, 1, time.Date(2026, 3, 6, 19, 0, 0, 0, time.UTC), "Scheduled") // 00:30 IST on the 7th
	add(14, 1, time.Date(2026, 3, 6, 8, 0, 0, 0, time.UTC), "Cancelled")
	add(15, 2, time.Date(2026, 3, 6, 8, 0, 0, 0, time.UTC), "Scheduled")

	b := store.AddBooking(domain.Booking{
		PNR: "ABC123", UserID: 1, FlightInstanceID: 10, Seats: domain.MustSeatSet("1A"),
		Status: domain.BookingStatusConfirmed, ScheduledDeparture: time.Date(2026, 3, 6, 4, 0, 0, 0, time.UTC),
	})
	return store, b
}

func ids(items []domain.FlightInstanceSummary) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestSearchRescheduleCandidates_FiltersByRouteDayAndStatus(t *testing.T) {
	store, b := searchStore()
	svc := NewBookingService(store, nil, nil, "", WithSearchLocation(kolkata(t)))

	got, err := svc.SearchRescheduleCandidates(context.Background(), b.ID, "2026-03-06")

	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12}, ids(got))
}

func TestSearchRescheduleCandidates_InvalidDate(t *testing.T) {
	store, b := searchStore()
	svc := NewBookingService(store, nil, nil, "")

	_, err := svc.SearchRescheduleCandidates(context.Background(), b.ID, "06/03/2026")

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSearchRescheduleCandidates_UnknownBooking(t *testing.T) {
	store, _ := searchStore()
	svc := NewBookingService(store, nil, nil, "")

	_, err := svc.SearchRescheduleCandidates(context.Background(), 404, "2026-03-06")

	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestSearchRescheduleCandidates_CacheHit(t *testing.T) {
	store, b := searchStore()
	store.FailOn("flights.SearchByRoute", errors.New("must not query"))
	cached := []domain.FlightInstanceSummary{{ID: 10}, {ID: 42}}

	cache := &MockCache{}
	cache.On("GetRescheduleCandidates", mock.Anything, int64(1), "2026-03-06").Return(cached, true, nil)
	svc := NewBookingService(store, cache, nil, "", WithSearchLocation(kolkata(t)))

	got, err := svc.SearchRescheduleCandidates(context.Background(), b.ID, "2026-03-06")

	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids(got))
	cache.AssertNotCalled(t, "SetRescheduleCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchRescheduleCandidates_CacheMissStoresRouteResult(t *testing.T) {
	store, b := searchStore()
	cache := &MockCache{}
	cache.On("GetRescheduleCandidates", mock.Anything, int64(1), "2026-03-06").Return(nil, false, nil)
	cache.On("SetRescheduleCandidates", mock.Anything, int64(1), "2026-03-06",
		mock.MatchedBy(func(c []domain.FlightInstanceSummary) bool { return len(c) == 3 })).Return(nil)
	svc := NewBookingService(store, cache, nil, "", WithSearchLocation(kolkata(t)))

	got, err := svc.SearchRescheduleCandidates(context.Background(), b.ID, "2026-03-06")

	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12}, ids(got))
	cache.AssertExpectations(t)
}

func TestSearchRescheduleCandidates_CacheErrorFallsBack(t *testing.T) {
	store, b := searchStore()
	cache := &MockCache{}
	cache.On("GetRescheduleCandidates", mock.Anything, mock.Anything, mock.Anything).Return(nil, false, errors.New("redis down"))
	cache.On("SetRescheduleCandidates", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	svc := NewBookingService(store, cache, nil, "", WithSearchLocation(kolkata(t)))

	got, err := svc.SearchRescheduleCandidates(context.Background(), b.ID, "2026-03-06")

	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12}, ids(got))
}
