package booking

import (
	"context"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/Domenick1991/flightreserve/internal/metrics"
	"github.com/Domenick1991/flightreserve/internal/pnr"
	"github.com/Domenick1991/flightreserve/internal/repository"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
	RescheduleBooking(ctx context.Context, input RescheduleInput) (*RescheduleResult, error)
	SearchRescheduleCandidates(ctx context.Context, bookingID int64, date string) ([]domain.FlightInstanceSummary, error)
	GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error)
	ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListBookings(ctx context.Context, limit, offset int) ([]domain.Booking, error)
}

type Cache interface {
	GetRescheduleCandidates(ctx context.Context, routeID int64, date string) ([]domain.FlightInstanceSummary, bool, error)
	SetRescheduleCandidates(ctx context.Context, routeID int64, date string, candidates []domain.FlightInstanceSummary) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

const (
	defaultPNRAttempts = 5
	defaultListLimit   = 50
	maxListLimit       = 200
)

type BookingService struct {
	store              repository.Store
	cache              Cache
	producer           Producer
	metrics            *metrics.Metrics
	bookingTopic       string
	notificationsTopic string
	pnrs               pnr.Generator
	pnrAttempts        int
	currency           string
	searchLocation     *time.Location
	now                func() time.Time
}

type CreateBookingInput struct {
	UserID           int64    `json:"user_id"`
	FlightInstanceID int64    `json:"flight_instance_id"`
	SeatNumbers      []string `json:"seat_numbers"`
}

type RescheduleInput struct {
	BookingID              int64 `json:"booking_id"`
	TargetFlightInstanceID int64 `json:"new_flight_instance_id"`
	// FareDeltaMinor is the extra amount due, in minor currency units.
	FareDeltaMinor int64 `json:"additional_amount_minor"`
}

type RescheduleResult struct {
	Original *domain.Booking `json:"original_booking"`
	Booking  *domain.Booking `json:"new_booking"`
	Payment  *domain.Payment `json:"payment,omitempty"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithPNRGenerator(g pnr.Generator) BookingServiceOption {
	return func(s *BookingService) {
		s.pnrs = g
	}
}

func WithPNRAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.pnrAttempts = n
		}
	}
}

func WithSettlementCurrency(currency string) BookingServiceOption {
	return func(s *BookingService) {
		s.currency = currency
	}
}

// WithSearchLocation sets the time zone in which search dates are interpreted.
func WithSearchLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		if loc != nil {
			s.searchLocation = loc
		}
	}
}

func WithMetrics(m *metrics.Metrics) BookingServiceOption {
	return func(s *BookingService) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	store repository.Store,
	cache Cache,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		store:          store,
		cache:          cache,
		producer:       producer,
		bookingTopic:   bookingTopic,
		pnrs:           pnr.NewGenerator(),
		pnrAttempts:    defaultPNRAttempts,
		currency:       "INR",
		searchLocation: time.UTC,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) observe(operation string, started time.Time, err *error) {
	s.metrics.ObserveOperation(operation, started, *err)
}

func (s *BookingService) ledger(tx repository.Repositories, now time.Time) ledger {
	return ledger{bookings: tx.Bookings(), pnrs: s.pnrs, attempts: s.pnrAttempts, now: now}
}

// CreateBooking claims the requested seats and records a confirmed booking in
// one transaction. It is the only path that marks seats booked.
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (created *domain.Booking, err error) {
	defer s.observe("create", time.Now(), &err)

	if input.UserID <= 0 {
		return nil, domain.Validation("user_id is required")
	}
	if input.FlightInstanceID <= 0 {
		return nil, domain.Validation("flight_instance_id is required")
	}
	seats, err := domain.NewSeatSet(input.SeatNumbers)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		if err := (inventory{seats: tx.Seats()}).TryClaim(ctx, input.FlightInstanceID, seats); err != nil {
			return err
		}

		instance, err := tx.Flights().GetInstance(ctx, input.FlightInstanceID)
		if err != nil {
			return err
		}

		booking := &domain.Booking{
			UserID:             input.UserID,
			FlightInstanceID:   instance.ID,
			Seats:              seats,
			ScheduledDeparture: instance.ScheduledDeparture,
			ScheduledArrival:   instance.ScheduledArrival,
		}
		if err := s.ledger(tx, now).Create(ctx, booking); err != nil {
			return err
		}

		created = booking
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Info("booking rejected",
			"flight_instance_id", input.FlightInstanceID, "seats", seats.String(), "error", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("booking created", "booking_id", created.ID, "pnr", created.PNR)
	s.publish(ctx, bookingEvent(eventBookingCreated, created, now))
	return created, nil
}

// CancelBooking marks a confirmed booking cancelled and returns its seats to
// inventory in the same transaction. The seat rows are locked in seat order
// before they are written, like every other inventory mutation.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) (cancelled *domain.Booking, err error) {
	defer s.observe("cancel", time.Now(), &err)

	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		booking, err := s.ledger(tx, now).MarkCancelled(ctx, bookingID)
		if err != nil {
			return err
		}
		inv := inventory{seats: tx.Seats()}
		if _, err := inv.Lock(ctx, booking.FlightInstanceID, booking.Seats); err != nil {
			return err
		}
		if err := inv.Release(ctx, booking.FlightInstanceID, booking.Seats); err != nil {
			return err
		}
		cancelled = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("booking cancelled", "booking_id", cancelled.ID, "pnr", cancelled.PNR)
	s.publish(ctx, bookingEvent(eventBookingCancelled, cancelled, now))
	return cancelled, nil
}

// RescheduleBooking replaces a confirmed booking with a new one on another
// flight instance, keeping the seat labels. All checks, including target seat
// availability, happen before the original booking is touched.
func (s *BookingService) RescheduleBooking(ctx context.Context, input RescheduleInput) (result *RescheduleResult, err error) {
	defer s.observe("reschedule", time.Now(), &err)

	if input.BookingID <= 0 {
		return nil, domain.Validation("booking_id is required")
	}
	if input.TargetFlightInstanceID <= 0 {
		return nil, domain.Validation("new_flight_instance_id is required")
	}

	now := s.now()
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		led := s.ledger(tx, now)
		original, err := led.Acquire(ctx, input.BookingID, NotDeparted(now))
		if err != nil {
			return err
		}
		if original.FlightInstanceID == input.TargetFlightInstanceID {
			return domain.Validation("booking is already on flight instance %d", original.FlightInstanceID)
		}

		target, err := tx.Flights().GetInstance(ctx, input.TargetFlightInstanceID)
		if err != nil {
			return err
		}
		if target.HasDeparted(now) {
			return domain.InvalidState("flight instance %d has already departed", target.ID)
		}

		inv := inventory{seats: tx.Seats()}
		if err := lockForExchange(ctx, inv, original, target.ID); err != nil {
			return err
		}

		cancelled, err := tx.Bookings().MarkCancelled(ctx, original.ID, now)
		if err != nil {
			return err
		}
		if err := inv.Release(ctx, original.FlightInstanceID, original.Seats); err != nil {
			return err
		}

		replacement := &domain.Booking{
			UserID:             original.UserID,
			FlightInstanceID:   target.ID,
			Seats:              original.Seats,
			ScheduledDeparture: target.ScheduledDeparture,
			ScheduledArrival:   target.ScheduledArrival,
			RescheduledFrom:    &original.ID,
		}
		if err := led.Create(ctx, replacement); err != nil {
			return err
		}
		if err := inv.Claim(ctx, target.ID, replacement.Seats); err != nil {
			return err
		}

		result = &RescheduleResult{Original: cancelled, Booking: replacement}
		if input.FareDeltaMinor > 0 {
			rec := settlement{payments: tx.Payments(), currency: s.currency, now: now}
			payment, err := rec.Record(ctx, replacement.ID, input.FareDeltaMinor, original.ID)
			if err != nil {
				return err
			}
			result.Payment = payment
		}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx).Info("reschedule rejected",
			"booking_id", input.BookingID, "target_instance_id", input.TargetFlightInstanceID, "error", err)
		return nil, err
	}

	logger.FromContext(ctx).Info("booking rescheduled",
		"booking_id", result.Original.ID, "new_booking_id", result.Booking.ID, "pnr", result.Booking.PNR)
	event := bookingEvent(eventBookingRescheduled, result.Booking, now)
	event.PreviousBookingID = result.Original.ID
	event.FareDeltaMinor = max(input.FareDeltaMinor, 0)
	s.publish(ctx, event)
	return result, nil
}

// lockForExchange locks the booking's seats on both instances in ascending
// instance id order. Only the target rows must be present and available.
func lockForExchange(ctx context.Context, inv inventory, original *domain.Booking, targetID int64) error {
	lockOriginal := func() error {
		_, err := inv.seats.LockSeats(ctx, original.FlightInstanceID, original.Seats)
		return err
	}
	lockTarget := func() error {
		return inv.Reserve(ctx, targetID, original.Seats)
	}

	if original.FlightInstanceID < targetID {
		if err := lockOriginal(); err != nil {
			return err
		}
		return lockTarget()
	}
	if err := lockTarget(); err != nil {
		return err
	}
	return lockOriginal()
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	return s.ledger(s.store, s.now()).Get(ctx, bookingID)
}

func (s *BookingService) ListUserBookings(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.store.Bookings().ListByUser(ctx, userID)
}

func (s *BookingService) ListBookings(ctx context.Context, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	if offset < 0 {
		return nil, domain.Validation("offset must not be negative")
	}
	return s.store.Bookings().List(ctx, limit, offset)
}

var _ BookingUseCase = (*BookingService)(nil)
