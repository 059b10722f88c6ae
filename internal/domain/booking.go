package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking owns a snapshot of its seats and of the flight schedule taken when
// it was created. Bookings are never moved between instances in place; a
// reschedule cancels one booking and creates another.
type Booking struct {
	ID                 int64         `json:"booking_id"`
	PNR                string        `json:"pnr"`
	UserID             int64         `json:"user_id"`
	FlightInstanceID   int64         `json:"flight_instance_id"`
	Seats              SeatSet       `json:"seat_numbers"`
	Status             BookingStatus `json:"status"`
	BookedAt           time.Time     `json:"booking_date"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	ScheduledDeparture time.Time     `json:"scheduled_departure"`
	ScheduledArrival   time.Time     `json:"scheduled_arrival"`
	RescheduledFrom    *int64        `json:"rescheduled_from,omitempty"`
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// HasDeparted reports whether the snapshotted departure is at or before now,
// the same boundary FlightInstance.HasDeparted and the sweeper use.
func (b *Booking) HasDeparted(now time.Time) bool {
	return !b.ScheduledDeparture.After(now)
}
