package repository

import (
	"context"

	"github.com/Domenick1991/flightreserve/internal/domain"
)

type PGPaymentRepository struct {
	db Querier
}

func NewPaymentRepository(db Querier) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.QueryRow(ctx, `INSERT INTO payments
		(booking_id, amount_minor, currency, status, payment_method, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING payment_id`,
		p.BookingID, p.AmountMinor, p.Currency, p.Status, p.Method, p.TransactionID, p.CreatedAt).
		Scan(&p.ID)
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
