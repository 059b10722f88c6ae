package domain

import (
	"encoding/json"
	"slices"
	"strings"
)

type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusBooked    SeatStatus = "booked"
)

type Seat struct {
	ID               int64      `json:"seat_id"`
	FlightInstanceID int64      `json:"flight_instance_id"`
	Number           string     `json:"seat_number"`
	Status           SeatStatus `json:"status"`
}

// SeatSet is an immutable set of seat labels kept in canonical (sorted) order.
// The zero value is an empty set.
type SeatSet struct {
	labels []string
}

// NewSeatSet trims labels and rejects empty input, blank labels and
// duplicates. Labels are otherwise kept as the seat map spells them.
func NewSeatSet(labels []string) (SeatSet, error) {
	if len(labels) == 0 {
		return SeatSet{}, Validation("at least one seat number is required")
	}

	normalized := make([]string, 0, len(labels))
	for _, l := range labels {
		n := strings.TrimSpace(l)
		if n == "" {
			return SeatSet{}, Validation("seat number must not be blank")
		}
		normalized = append(normalized, n)
	}
	slices.Sort(normalized)
	for i := 1; i < len(normalized); i++ {
		if normalized[i] == normalized[i-1] {
			return SeatSet{}, Validation("seat %s requested more than once", normalized[i])
		}
	}

	return SeatSet{labels: normalized}, nil
}

// MustSeatSet is NewSeatSet for literals known to be valid.
func MustSeatSet(labels ...string) SeatSet {
	s, err := NewSeatSet(labels)
	if err != nil {
		panic(err)
	}
	return s
}

// Labels returns a copy of the labels in canonical order.
func (s SeatSet) Labels() []string {
	return slices.Clone(s.labels)
}

func (s SeatSet) Len() int {
	return len(s.labels)
}

func (s SeatSet) Equal(other SeatSet) bool {
	return slices.Equal(s.labels, other.labels)
}

func (s SeatSet) String() string {
	return strings.Join(s.labels, ",")
}

func (s SeatSet) MarshalJSON() ([]byte, error) {
	if s.labels == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.labels)
}

func (s *SeatSet) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err != nil {
		return err
	}
	set, err := NewSeatSet(labels)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
