package entity

import "time"

const (
	CallbackStatusProcessed = "processed"
	CallbackStatusIgnored   = "ignored"
	CallbackStatusRejected  = "rejected"
	CallbackStatusFailed    = "failed"
)

// PaymentCallback is one inbound provider webhook delivery.
type PaymentCallback struct {
	ID uint64

	Provider        string
	ProviderEventID *string
	EventType       *string
	Signature       string
	PayloadJSON     string
	Status          string
	Error           *string

	CreatedAt time.Time
}
