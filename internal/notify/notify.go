// Package notify turns booking events into passenger notifications. Delivery
// channels are external; the sender writes the rendered message to the log.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Domenick1991/flightreserve/internal/kafka"
)

type Sender struct {
	logger   *slog.Logger
	location *time.Location
}

func NewSender(logger *slog.Logger, location *time.Location) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if location == nil {
		location = time.UTC
	}
	return &Sender{logger: logger, location: location}
}

// Send renders and delivers the message for event. Events that concern no
// passenger are ignored.
func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	msg, ok := s.Render(event)
	if !ok {
		return nil
	}
	s.logger.InfoContext(ctx, "notification sent",
		"event_id", event.ID, "type", event.Type, "user_id", event.UserID, "pnr", event.PNR, "message", msg)
	return nil
}

func (s *Sender) Render(event kafka.BookingEvent) (string, bool) {
	seats := strings.Join(event.SeatNumbers, ", ")
	departure := event.ScheduledDeparture.In(s.location).Format("02 Jan 2006 15:04 MST")

	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Booking %s confirmed: seats %s, departing %s.", event.PNR, seats, departure), true
	case kafka.EventBookingCancelled:
		return fmt.Sprintf("Booking %s has been cancelled. Seats %s were released.", event.PNR, seats), true
	case kafka.EventBookingRescheduled:
		msg := fmt.Sprintf("Your flight was rescheduled. New booking %s: seats %s, departing %s.", event.PNR, seats, departure)
		if event.FareDeltaMinor > 0 {
			msg += fmt.Sprintf(" A fare difference of %d.%02d was charged.", event.FareDeltaMinor/100, event.FareDeltaMinor%100)
		}
		return msg, true
	default:
		return "", false
	}
}
