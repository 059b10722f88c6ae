package domain

import "time"

// FlightInstance is one dated occurrence of a flight. It is reference data
// owned outside the booking engine.
type FlightInstance struct {
	ID                 int64     `json:"id"`
	FlightID           int64     `json:"flight_id"`
	FlightNumber       string    `json:"flight_number"`
	RouteID            int64     `json:"route_id"`
	ScheduledDeparture time.Time `json:"scheduled_departure"`
	ScheduledArrival   time.Time `json:"scheduled_arrival"`
	Status             string    `json:"status"`
}

func (f *FlightInstance) HasDeparted(now time.Time) bool {
	return !f.ScheduledDeparture.After(now)
}

// FlightInstanceSummary is the row returned by the reschedule search.
type FlightInstanceSummary struct {
	ID                 int64     `json:"id"`
	FlightID           int64     `json:"flight_id"`
	FlightNumber       string    `json:"flight_number"`
	ScheduledDeparture time.Time `json:"scheduled_departure"`
	ScheduledArrival   time.Time `json:"scheduled_arrival"`
	Status             string    `json:"status"`
}

// ReschedulableStatuses are the instance statuses a booking may move to.
var ReschedulableStatuses = []string{"on-time", "scheduled", "active"}
