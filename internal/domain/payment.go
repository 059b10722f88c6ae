package domain

import "time"

const (
	PaymentStatusSuccess = "success"
	PaymentMethodCard    = "card"
)

// Payment is a settlement ledger row. Rows are only ever appended.
type Payment struct {
	ID            int64     `json:"payment_id"`
	BookingID     int64     `json:"booking_id"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	Method        string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
}
