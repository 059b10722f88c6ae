// Package repotest provides an in-memory repository.Store for tests.
//
// Transactions are fully serialized and run against a private copy of the
// data that replaces the shared copy only on success, so every unit is
// atomic and isolated. Failures can be injected per repository operation.
package repotest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository"
)

type Store struct {
	mu    sync.Mutex
	state *state

	faultsMu sync.Mutex
	faults   map[string]fault
	calls    map[string]int
}

type fault struct {
	nth int // 0 fails every call
	err error
}

type state struct {
	instances map[int64]domain.FlightInstance
	seats     map[int64]map[string]domain.Seat
	bookings  map[int64]domain.Booking
	payments  []domain.Payment

	nextSeatID    int64
	nextBookingID int64
	nextPaymentID int64
}

func NewStore() *Store {
	return &Store{
		state: &state{
			instances: make(map[int64]domain.FlightInstance),
			seats:     make(map[int64]map[string]domain.Seat),
			bookings:  make(map[int64]domain.Booking),
		},
		faults: make(map[string]fault),
		calls:  make(map[string]int),
	}
}

func (s *state) clone() *state {
	c := &state{
		instances:     make(map[int64]domain.FlightInstance, len(s.instances)),
		seats:         make(map[int64]map[string]domain.Seat, len(s.seats)),
		bookings:      make(map[int64]domain.Booking, len(s.bookings)),
		payments:      slices.Clone(s.payments),
		nextSeatID:    s.nextSeatID,
		nextBookingID: s.nextBookingID,
		nextPaymentID: s.nextPaymentID,
	}
	for id, fi := range s.instances {
		c.instances[id] = fi
	}
	for id, seats := range s.seats {
		m := make(map[string]domain.Seat, len(seats))
		for n, seat := range seats {
			m[n] = seat
		}
		c.seats[id] = m
	}
	for id, b := range s.bookings {
		c.bookings[id] = b
	}
	return c
}

// FailOn makes every call of op return err. op is "<repo>.<Method>", e.g.
// "seats.SetStatus" or "payments.Create".
func (s *Store) FailOn(op string, err error) {
	s.FailOnNth(op, 0, err)
}

// FailOnNth makes only the nth (1-based) call of op return err.
func (s *Store) FailOnNth(op string, nth int, err error) {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	s.faults[op] = fault{nth: nth, err: err}
	s.calls[op] = 0
}

// ClearFaults disarms every fault and resets the call counters.
func (s *Store) ClearFaults() {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	s.faults = make(map[string]fault)
	s.calls = make(map[string]int)
}

// Calls reports how many times op was invoked since it was last armed.
func (s *Store) Calls(op string) int {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	return s.calls[op]
}

func (s *Store) check(op string) error {
	s.faultsMu.Lock()
	defer s.faultsMu.Unlock()
	s.calls[op]++
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	if f.nth == 0 || f.nth == s.calls[op] {
		return f.err
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &repos{store: s, with: func(f func(*state) error) error { return f(work) }}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) pooled() *repos {
	return &repos{store: s, with: func(f func(*state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return f(s.state)
	}}
}

func (s *Store) Seats() repository.SeatRepository       { return s.pooled() }
func (s *Store) Bookings() repository.BookingRepository { return bookingRepo{s.pooled()} }
func (s *Store) Flights() repository.FlightRepository   { return flightRepo{s.pooled()} }
func (s *Store) Payments() repository.PaymentRepository { return paymentRepo{s.pooled()} }

// AddInstance registers a flight instance with the given seats, all available.
func (s *Store) AddInstance(fi domain.FlightInstance, seats ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.instances[fi.ID] = fi
	m, ok := s.state.seats[fi.ID]
	if !ok {
		m = make(map[string]domain.Seat)
		s.state.seats[fi.ID] = m
	}
	for _, n := range seats {
		s.state.nextSeatID++
		m[n] = domain.Seat{ID: s.state.nextSeatID, FlightInstanceID: fi.ID, Number: n, Status: domain.SeatStatusAvailable}
	}
}

func (s *Store) SetSeatStatus(instanceID int64, seat string, status domain.SeatStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.state.seats[instanceID][seat]
	row.Status = status
	s.state.seats[instanceID][seat] = row
}

// AddBooking stores b as-is, without touching seat state.
func (s *Store) AddBooking(b domain.Booking) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.nextBookingID++
	b.ID = s.state.nextBookingID
	s.state.bookings[b.ID] = b
	return b
}

func (s *Store) SeatStatus(instanceID int64, seat string) domain.SeatStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.seats[instanceID][seat].Status
}

// BookedSeats lists booked seat numbers of the instance in order.
func (s *Store) BookedSeats(instanceID int64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	booked := make([]string, 0)
	for n, seat := range s.state.seats[instanceID] {
		if seat.Status == domain.SeatStatusBooked {
			booked = append(booked, n)
		}
	}
	sort.Strings(booked)
	return booked
}

func (s *Store) Booking(id int64) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.bookings[id]
	return b, ok
}

func (s *Store) AllBookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Booking, 0, len(s.state.bookings))
	for _, b := range s.state.bookings {
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

func (s *Store) AllPayments() []domain.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.payments)
}

// InvariantViolations compares, per instance, the booked seats with the
// seats held by confirmed bookings and describes every mismatch.
func (s *Store) InvariantViolations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := make(map[int64]map[string]int64)
	var problems []string
	for _, b := range s.state.bookings {
		if b.Status != domain.BookingStatusConfirmed {
			continue
		}
		if held[b.FlightInstanceID] == nil {
			held[b.FlightInstanceID] = make(map[string]int64)
		}
		for _, n := range b.Seats.Labels() {
			if other, dup := held[b.FlightInstanceID][n]; dup {
				problems = append(problems, fmt.Sprintf("instance %d seat %s held by bookings %d and %d", b.FlightInstanceID, n, other, b.ID))
			}
			held[b.FlightInstanceID][n] = b.ID
		}
	}

	for instanceID, seats := range s.state.seats {
		for n, seat := range seats {
			_, isHeld := held[instanceID][n]
			booked := seat.Status == domain.SeatStatusBooked
			if booked != isHeld {
				problems = append(problems, fmt.Sprintf("instance %d seat %s booked=%t held=%t", instanceID, n, booked, isHeld))
			}
		}
	}
	sort.Strings(problems)
	return problems
}

type repos struct {
	store *Store
	with  func(func(*state) error) error
}

func (r *repos) Seats() repository.SeatRepository       { return r }
func (r *repos) Bookings() repository.BookingRepository { return bookingRepo{r} }
func (r *repos) Flights() repository.FlightRepository   { return flightRepo{r} }
func (r *repos) Payments() repository.PaymentRepository { return paymentRepo{r} }

func (r *repos) LockSeats(_ context.Context, instanceID int64, seats domain.SeatSet) ([]domain.Seat, error) {
	if err := r.store.check("seats.LockSeats"); err != nil {
		return nil, err
	}
	var out []domain.Seat
	err := r.with(func(st *state) error {
		out = make([]domain.Seat, 0, seats.Len())
		for _, n := range seats.Labels() {
			if seat, ok := st.seats[instanceID][n]; ok {
				out = append(out, seat)
			}
		}
		return nil
	})
	return out, err
}

func (r *repos) SetStatus(_ context.Context, instanceID int64, seats domain.SeatSet, status domain.SeatStatus) error {
	if err := r.store.check("seats.SetStatus"); err != nil {
		return err
	}
	return r.with(func(st *state) error {
		for _, n := range seats.Labels() {
			if _, ok := st.seats[instanceID][n]; !ok {
				return domain.ErrSeatsNotFound
			}
		}
		for _, n := range seats.Labels() {
			seat := st.seats[instanceID][n]
			seat.Status = status
			st.seats[instanceID][n] = seat
		}
		return nil
	})
}

func (r *repos) ListByInstance(_ context.Context, instanceID int64) ([]domain.Seat, error) {
	if err := r.store.check("seats.ListByInstance"); err != nil {
		return nil, err
	}
	var out []domain.Seat
	err := r.with(func(st *state) error {
		out = make([]domain.Seat, 0, len(st.seats[instanceID]))
		for _, seat := range st.seats[instanceID] {
			out = append(out, seat)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		return nil
	})
	return out, err
}

func (r *repos) ReleaseBooked(_ context.Context, instanceID int64) ([]string, error) {
	if err := r.store.check("seats.ReleaseBooked"); err != nil {
		return nil, err
	}
	released := make([]string, 0)
	err := r.with(func(st *state) error {
		for n, seat := range st.seats[instanceID] {
			if seat.Status == domain.SeatStatusBooked {
				seat.Status = domain.SeatStatusAvailable
				st.seats[instanceID][n] = seat
				released = append(released, n)
			}
		}
		sort.Strings(released)
		return nil
	})
	return released, err
}

type bookingRepo struct{ *repos }

func (r bookingRepo) Create(_ context.Context, b *domain.Booking) error {
	if err := r.store.check("bookings.Create"); err != nil {
		return err
	}
	return r.with(func(st *state) error {
		for _, existing := range st.bookings {
			if existing.PNR == b.PNR {
				return repository.ErrDuplicatePNR
			}
		}
		st.nextBookingID++
		b.ID = st.nextBookingID
		st.bookings[b.ID] = *b
		return nil
	})
}

func (r bookingRepo) Get(_ context.Context, id int64) (*domain.Booking, error) {
	if err := r.store.check("bookings.Get"); err != nil {
		return nil, err
	}
	return r.get(id)
}

func (r bookingRepo) GetForUpdate(_ context.Context, id int64) (*domain.Booking, error) {
	if err := r.store.check("bookings.GetForUpdate"); err != nil {
		return nil, err
	}
	return r.get(id)
}

func (r bookingRepo) get(id int64) (*domain.Booking, error) {
	var out *domain.Booking
	err := r.with(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return domain.ErrBookingNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r bookingRepo) MarkCancelled(_ context.Context, id int64, at time.Time) (*domain.Booking, error) {
	if err := r.store.check("bookings.MarkCancelled"); err != nil {
		return nil, err
	}
	var out *domain.Booking
	err := r.with(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok || b.Status != domain.BookingStatusConfirmed {
			return domain.InvalidState("booking %d is not confirmed", id)
		}
		b.Status = domain.BookingStatusCancelled
		b.CancelledAt = &at
		st.bookings[id] = b
		out = &b
		return nil
	})
	return out, err
}

func (r bookingRepo) ListByUser(_ context.Context, userID int64) ([]domain.Booking, error) {
	if err := r.store.check("bookings.ListByUser"); err != nil {
		return nil, err
	}
	var out []domain.Booking
	err := r.with(func(st *state) error {
		out = make([]domain.Booking, 0)
		for _, b := range st.bookings {
			if b.UserID == userID {
				out = append(out, b)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDeparture.After(out[j].ScheduledDeparture) })
		return nil
	})
	return out, err
}

func (r bookingRepo) List(_ context.Context, limit, offset int) ([]domain.Booking, error) {
	if err := r.store.check("bookings.List"); err != nil {
		return nil, err
	}
	var out []domain.Booking
	err := r.with(func(st *state) error {
		all := make([]domain.Booking, 0, len(st.bookings))
		for _, b := range st.bookings {
			all = append(all, b)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].BookedAt.After(all[j].BookedAt) })
		if offset > len(all) {
			offset = len(all)
		}
		end := min(offset+limit, len(all))
		out = all[offset:end]
		return nil
	})
	return out, err
}

type flightRepo struct{ *repos }

func (r flightRepo) GetInstance(_ context.Context, id int64) (*domain.FlightInstance, error) {
	if err := r.store.check("flights.GetInstance"); err != nil {
		return nil, err
	}
	var out *domain.FlightInstance
	err := r.with(func(st *state) error {
		fi, ok := st.instances[id]
		if !ok {
			return domain.ErrFlightInstanceNotFound
		}
		out = &fi
		return nil
	})
	return out, err
}

func (r flightRepo) SearchByRoute(_ context.Context, routeID int64, from, to time.Time, statuses []string) ([]domain.FlightInstanceSummary, error) {
	if err := r.store.check("flights.SearchByRoute"); err != nil {
		return nil, err
	}
	var out []domain.FlightInstanceSummary
	err := r.with(func(st *state) error {
		out = make([]domain.FlightInstanceSummary, 0)
		for _, fi := range st.instances {
			if fi.RouteID != routeID || fi.ScheduledDeparture.Before(from) || !fi.ScheduledDeparture.Before(to) {
				continue
			}
			if !slices.Contains(statuses, strings.ToLower(fi.Status)) {
				continue
			}
			out = append(out, domain.FlightInstanceSummary{
				ID:                 fi.ID,
				FlightID:           fi.FlightID,
				FlightNumber:       fi.FlightNumber,
				ScheduledDeparture: fi.ScheduledDeparture,
				ScheduledArrival:   fi.ScheduledArrival,
				Status:             fi.Status,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].ScheduledDeparture.Before(out[j].ScheduledDeparture) })
		return nil
	})
	return out, err
}

func (r flightRepo) DepartedWithBookedSeats(_ context.Context, now time.Time) ([]int64, error) {
	if err := r.store.check("flights.DepartedWithBookedSeats"); err != nil {
		return nil, err
	}
	var out []int64
	err := r.with(func(st *state) error {
		out = make([]int64, 0)
		for id, fi := range st.instances {
			if fi.ScheduledDeparture.After(now) {
				continue
			}
			for _, seat := range st.seats[id] {
				if seat.Status == domain.SeatStatusBooked {
					out = append(out, id)
					break
				}
			}
		}
		slices.Sort(out)
		return nil
	})
	return out, err
}

type paymentRepo struct{ *repos }

func (r paymentRepo) Create(_ context.Context, p *domain.Payment) error {
	if err := r.store.check("payments.Create"); err != nil {
		return err
	}
	return r.with(func(st *state) error {
		st.nextPaymentID++
		p.ID = st.nextPaymentID
		st.payments = append(st.payments, *p)
		return nil
	})
}

var _ repository.Store = (*Store)(nil)
