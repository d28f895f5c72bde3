// Package events publishes reservation lifecycle events to RabbitMQ. Publishing
// is best effort: failures are returned to the caller, which logs and moves on.
package events

import (
	"context"
	"time"
)

const (
	TypeReservationCreated  = "reservation.created"
	TypeReservationUpdated  = "reservation.updated"
	TypeReservationPaid     = "reservation.paid"
	TypeReservationCanceled = "reservation.canceled"
	TypeReservationRefunded = "reservation.refunded"
	TypeRefundRequired      = "payment.refund_required"
)

type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID uint64    `json:"reservation_id"`
	Status        string    `json:"status"`
	Kind          string    `json:"kind"`
	RoomID        uint64    `json:"room_id"`
	Date          string    `json:"date"`
	Start         string    `json:"start"`
	End           string    `json:"end"`
	Persons       int       `json:"persons"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event ReservationEvent) error
	Close() error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ReservationEvent) error { return nil }

func (Nop) Close() error { return nil }
