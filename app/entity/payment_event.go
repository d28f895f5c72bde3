package entity

import "time"

const (
	PaymentEventOutcomeApplied = "applied"
	PaymentEventOutcomeStale   = "stale"
	PaymentEventOutcomeIgnored = "ignored"
	// Recorded events are kept for history and never move the payment.
	PaymentEventOutcomeRecorded = "recorded"
)

type PaymentEvent struct {
	ID uint64

	PaymentID uint64

	EventType string
	Outcome   string

	OldStatus *string
	NewStatus string

	ProviderEventID *string
	PayloadJSON     *string

	OccurredAt time.Time
	CreatedAt  time.Time
}

// Ledger event tags. Provider events are mapped onto these before they reach the ledger.
const (
	EventSessionCompleted  = "session_completed"
	EventPaymentProcessing = "payment_processing"
	EventSessionExpired    = "session_expired"
	EventPaymentFailed     = "payment_failed"
	EventPaymentDeclined   = "payment_declined"
	EventChargeRefunded    = "charge_refunded"
)
