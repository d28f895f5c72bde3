package entity

import "time"

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusSucceeded  = "succeeded"
	PaymentStatusFailed     = "failed"
	PaymentStatusCanceled   = "canceled"
	PaymentStatusRefunded   = "refunded"
)

type Payment struct {
	ID uint64

	ReservationID uint64

	SessionID string
	IntentID  *string

	AmountCents   int64
	Currency      string
	CustomerEmail string

	Status        string
	RefundedCents int64

	LastEventAt *time.Time
	SettledAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanTransitionPayment reports whether from -> to is a forward move in the
// payment lifecycle. The only exit from a terminal status is succeeded -> refunded.
func CanTransitionPayment(from, to string) bool {
	switch from {
	case PaymentStatusPending:
		switch to {
		case PaymentStatusProcessing, PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCanceled:
			return true
		}
	case PaymentStatusProcessing:
		switch to {
		case PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCanceled:
			return true
		}
	case PaymentStatusSucceeded:
		return to == PaymentStatusRefunded
	}
	return false
}

func IsPaymentActive(status string) bool {
	return status == PaymentStatusPending || status == PaymentStatusProcessing
}
