package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct {
	pool             *pgxpool.Pool
	lockTimeout      time.Duration
	statementTimeout time.Duration
}

type StoreOption func(*PGStore)

// WithLockTimeout bounds how long a statement waits for a row lock.
func WithLockTimeout(d time.Duration) StoreOption {
	return func(s *PGStore) {
		s.lockTimeout = d
	}
}

func WithStatementTimeout(d time.Duration) StoreOption {
	return func(s *PGStore) {
		s.statementTimeout = d
	}
}

func NewStore(pool *pgxpool.Pool, opts ...StoreOption) *PGStore {
	s := &PGStore{pool: pool}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PGStore) Seats() SeatRepository       { return NewSeatRepository(s.pool) }
func (s *PGStore) Bookings() BookingRepository { return NewBookingRepository(s.pool) }
func (s *PGStore) Flights() FlightRepository   { return NewFlightRepository(s.pool) }
func (s *PGStore) Payments() PaymentRepository { return NewPaymentRepository(s.pool) }

// WithinTx runs fn in a READ COMMITTED transaction. The caller's cancellation
// is not propagated: once started, the unit either commits or rolls back on
// its own. The lock and statement timeouts bound the work inside fn; commit
// and rollback run outside that deadline so a slow unit never leaves the
// commit outcome unknown.
func (s *PGStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repositories) error) error {
	base := context.WithoutCancel(ctx)
	work := base
	if budget := s.lockTimeout + s.statementTimeout; budget > 0 {
		var cancel context.CancelFunc
		work, cancel = context.WithTimeout(base, budget)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(work, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify(fmt.Errorf("begin tx: %w", err))
	}
	defer func() { _ = tx.Rollback(base) }()

	if err := s.applyTimeouts(work, tx); err != nil {
		return classify(err)
	}

	if err := fn(work, txRepositories{tx: tx}); err != nil {
		return classify(err)
	}

	if err := tx.Commit(base); err != nil {
		return classify(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

func (s *PGStore) applyTimeouts(ctx context.Context, tx pgx.Tx) error {
	if s.lockTimeout > 0 {
		if _, err := tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, fmt.Sprintf("%dms", s.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}
	if s.statementTimeout > 0 {
		if _, err := tx.Exec(ctx, `SELECT set_config('statement_timeout', $1, true)`, fmt.Sprintf("%dms", s.statementTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}
	return nil
}

type txRepositories struct {
	tx pgx.Tx
}

func (r txRepositories) Seats() SeatRepository       { return NewSeatRepository(r.tx) }
func (r txRepositories) Bookings() BookingRepository { return NewBookingRepository(r.tx) }
func (r txRepositories) Flights() FlightRepository   { return NewFlightRepository(r.tx) }
func (r txRepositories) Payments() PaymentRepository { return NewPaymentRepository(r.tx) }

var _ Store = (*PGStore)(nil)
