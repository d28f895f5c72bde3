package provider

import (
	"context"
	"errors"
	"time"

	"github.com/vibast-solutions/ms-go-reservations/app/entity"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrSessionNotFound  = errors.New("checkout session not found")
)

type CheckoutSessionInput struct {
	ReservationID uint64
	AmountCents   int64
	Currency      string
	ProductName   string
	Description   string
	CustomerEmail string
	ExpiresAt     time.Time
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
	IntentID      string
	AmountTotal   int64
	Currency      string
	CustomerEmail string
	ExpiresAt     time.Time
	Metadata      map[string]string
}

type RefundInput struct {
	IntentID      string
	AmountCents   int64
	Reason        string
	ReservationID uint64
	PaymentID     uint64
}

type Refund struct {
	ID          string
	Status      string
	AmountCents int64
}

// Event is a verified provider webhook reduced to what the ledger needs.
// Tag is empty for event types the service does not handle.
type Event struct {
	ID            string
	Type          string
	Tag           string
	SessionID     string
	IntentID      string
	PaymentStatus string
	ReservationID uint64
	OccurredAt    time.Time
	Payload       []byte
}

type Provider interface {
	Code() string
	CreateCheckoutSession(ctx context.Context, input *CheckoutSessionInput) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, input *RefundInput) (*Refund, error)
	VerifyAndParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// MapEventType maps a provider event type onto a ledger tag. paymentStatus is
// the checkout session payment_status and only matters for completed sessions.
func MapEventType(eventType, paymentStatus string) string {
	switch eventType {
	case "checkout.session.completed":
		if paymentStatus == "unpaid" {
			return entity.EventPaymentProcessing
		}
		return entity.EventSessionCompleted
	case "checkout.session.async_payment_succeeded":
		return entity.EventSessionCompleted
	case "checkout.session.async_payment_failed":
		return entity.EventPaymentFailed
	case "payment_intent.payment_failed":
		// One declined attempt; the session stays open for another card.
		return entity.EventPaymentDeclined
	case "checkout.session.expired":
		return entity.EventSessionExpired
	case "charge.refunded":
		return entity.EventChargeRefunded
	default:
		return ""
	}
}
