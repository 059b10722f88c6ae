package booking

import (
	"context"
	"strconv"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/kafka"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/google/uuid"
)

const (
	eventBookingCreated     = kafka.EventBookingCreated
	eventBookingCancelled   = kafka.EventBookingCancelled
	eventBookingRescheduled = kafka.EventBookingRescheduled
)

func bookingEvent(eventType string, b *domain.Booking, at time.Time) kafka.BookingEvent {
	return kafka.BookingEvent{
		ID:                 uuid.NewString(),
		Type:               eventType,
		BookingID:          b.ID,
		PNR:                b.PNR,
		UserID:             b.UserID,
		FlightInstanceID:   b.FlightInstanceID,
		SeatNumbers:        b.Seats.Labels(),
		Status:             string(b.Status),
		ScheduledDeparture: b.ScheduledDeparture,
		OccurredAt:         at,
	}
}

// publish runs after commit. A failed publish is logged and never affects the
// outcome of the operation.
func (s *BookingService) publish(ctx context.Context, event kafka.BookingEvent) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	key := strconv.FormatInt(event.BookingID, 10)
	if err := s.producer.Publish(ctx, s.bookingTopic, key, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish booking event", "type", event.Type, "booking_id", event.BookingID, "error", err)
		return
	}
	if s.notificationsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, key, event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish notification", "type", event.Type, "booking_id", event.BookingID, "error", err)
	}
}
