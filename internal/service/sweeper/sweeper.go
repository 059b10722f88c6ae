// Package sweeper reclaims seat inventory of departed flight instances.
//
// The sweeper shares no in-process state with the booking service. It runs
// every instance in its own transaction and relies on the same row locks as
// the booking paths, so a sweep can never interleave with a claim in flight.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Domenick1991/flightreserve/internal/kafka"
	"github.com/Domenick1991/flightreserve/internal/logger"
	"github.com/Domenick1991/flightreserve/internal/metrics"
	"github.com/Domenick1991/flightreserve/internal/repository"
	"github.com/google/uuid"
)

const DefaultInterval = time.Minute

// Lease keeps replicas from sweeping at the same time.
type Lease interface {
	AcquireSweepLock(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context, owner string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type ExpirySweeper struct {
	store    repository.Store
	lease    Lease
	leaseTTL time.Duration
	producer Producer
	topic    string
	metrics  *metrics.Metrics
	interval time.Duration
	owner    string
	now      func() time.Time

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

type Option func(*ExpirySweeper)

func WithLease(lease Lease, ttl time.Duration) Option {
	return func(s *ExpirySweeper) {
		s.lease = lease
		s.leaseTTL = ttl
	}
}

func WithProducer(producer Producer, topic string) Option {
	return func(s *ExpirySweeper) {
		s.producer = producer
		s.topic = topic
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ExpirySweeper) {
		s.metrics = m
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *ExpirySweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *ExpirySweeper) {
		s.now = now
	}
}

func NewExpirySweeper(store repository.Store, opts ...Option) *ExpirySweeper {
	s := &ExpirySweeper{
		store:    store,
		interval: DefaultInterval,
		owner:    uuid.NewString(),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.leaseTTL <= 0 {
		s.leaseTTL = s.interval
	}
	return s
}

// Start sweeps once immediately and then on every tick until Stop is called
// or ctx is done. Ticks never overlap.
func (s *ExpirySweeper) Start(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info("starting expiry sweeper", "interval", s.interval.String(), "owner", s.owner)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			s.tick(ctx)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				log.Info("expiry sweeper stopped", "reason", ctx.Err())
				return
			case <-s.done:
				log.Info("expiry sweeper stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *ExpirySweeper) tick(ctx context.Context) {
	released, err := s.SweepOnce(ctx)
	s.metrics.SweepFinished(err)
	log := logger.FromContext(ctx)
	if err != nil {
		log.Error("expiry sweep failed", "error", err, "seats_released", released)
		return
	}
	if released > 0 {
		log.Info("expiry sweep finished", "seats_released", released)
	} else {
		log.Debug("expiry sweep found nothing to reclaim")
	}
}

// SweepOnce returns every booked seat of every departed instance to
// inventory. Bookings are left untouched, so a confirmed booking on a
// departed instance no longer holds booked seats. It returns the number of
// seats released; a failing instance does not stop the others.
func (s *ExpirySweeper) SweepOnce(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)
	if s.lease != nil {
		acquired, err := s.lease.AcquireSweepLock(ctx, s.owner, s.leaseTTL)
		switch {
		case err != nil:
			log.Warn("sweep lease unavailable, sweeping anyway", "error", err)
		case !acquired:
			log.Debug("sweep lease held by another worker")
			return 0, nil
		default:
			defer func() {
				if err := s.lease.ReleaseSweepLock(context.WithoutCancel(ctx), s.owner); err != nil {
					log.Warn("failed to release sweep lease", "error", err)
				}
			}()
		}
	}

	now := s.now()
	instances, err := s.store.Flights().DepartedWithBookedSeats(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find departed instances: %w", err)
	}

	var (
		total int
		errs  []error
	)
	for _, id := range instances {
		released, err := s.sweepInstance(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("flight instance %d: %w", id, err))
			continue
		}
		total += len(released)
		s.metrics.SeatsReleased(len(released))
		log.Info("reclaimed seats of departed flight", "flight_instance_id", id, "seats", released)
		s.publish(ctx, id, released, now)
	}
	return total, errors.Join(errs...)
}

func (s *ExpirySweeper) sweepInstance(ctx context.Context, instanceID int64) ([]string, error) {
	var released []string
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repositories) error {
		var err error
		released, err = tx.Seats().ReleaseBooked(ctx, instanceID)
		return err
	})
	return released, err
}

func (s *ExpirySweeper) publish(ctx context.Context, instanceID int64, seats []string, at time.Time) {
	if s.producer == nil || s.topic == "" || len(seats) == 0 {
		return
	}
	event := kafka.BookingEvent{
		ID:               uuid.NewString(),
		Type:             kafka.EventSeatsReclaimed,
		FlightInstanceID: instanceID,
		SeatNumbers:      seats,
		OccurredAt:       at,
	}
	if err := s.producer.Publish(ctx, s.topic, strconv.FormatInt(instanceID, 10), event); err != nil {
		logger.FromContext(ctx).Warn("failed to publish seats reclaimed event", "flight_instance_id", instanceID, "error", err)
	}
}
