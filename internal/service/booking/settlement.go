package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/repository"
)

// settlement appends the payment row for a reschedule fare difference.
// Executing the payment is left to the gateway.
type settlement struct {
	payments repository.PaymentRepository
	currency string
	now      time.Time
}

func (s settlement) Record(ctx context.Context, bookingID, amountMinor, originalBookingID int64) (*domain.Payment, error) {
	if amountMinor <= 0 {
		return nil, domain.Validation("settlement amount must be positive")
	}

	payment := &domain.Payment{
		BookingID:     bookingID,
		AmountMinor:   amountMinor,
		Currency:      s.currency,
		Status:        domain.PaymentStatusSuccess,
		Method:        domain.PaymentMethodCard,
		TransactionID: rescheduleTransactionID(originalBookingID),
		CreatedAt:     s.now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func rescheduleTransactionID(originalBookingID int64) string {
	return fmt.Sprintf("RESCHEDULE_%d", originalBookingID)
}
