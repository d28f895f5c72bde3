package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/events"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/metrics"
	"github.com/vibast-solutions/ms-go-reservations/app/provider"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
)

// OutcomeDuplicate is reported when the provider event id was already recorded.
const OutcomeDuplicate = "duplicate"

// LedgerEvent is a payment event already mapped onto a ledger tag. ID is the
// provider event id; an empty ID disables the per-event duplicate check.
type LedgerEvent struct {
	ID            string
	Tag           string
	Type          string
	SessionID     string
	IntentID      string
	ReservationID uint64
	OccurredAt    time.Time
	Payload       []byte
	// Synthetic events come from a provider lookup stamped with the local
	// clock. They skip the ordering check and leave LastEventAt alone.
	Synthetic bool
}

type ApplyResult struct {
	Outcome     string
	Payment     *entity.Payment
	Reservation *entity.Reservation
}

// Ledger tracks payment attempts and cascades settled states onto reservations.
type Ledger struct {
	store     *repository.Store
	publisher events.Publisher
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewLedger(store *repository.Store, publisher events.Publisher) *Ledger {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Ledger{
		store:     store,
		publisher: publisher,
		logger:    factory.NewModuleLogger("payment-ledger"),
		now:       time.Now,
	}
}

func (l *Ledger) RecordPending(ctx context.Context, reservationID uint64, sessionID string, amountCents int64, currency, customerEmail string) (*entity.Payment, error) {
	return l.recordPending(ctx, l.store, reservationID, sessionID, amountCents, currency, customerEmail)
}

func (l *Ledger) recordPending(ctx context.Context, tx *repository.Store, reservationID uint64, sessionID string, amountCents int64, currency, customerEmail string) (*entity.Payment, error) {
	sessionID = strings.TrimSpace(sessionID)
	if reservationID == 0 || sessionID == "" || amountCents <= 0 {
		return nil, ErrInvalidRequest
	}

	now := l.now().UTC()
	payment := &entity.Payment{
		ReservationID: reservationID,
		SessionID:     sessionID,
		AmountCents:   amountCents,
		Currency:      strings.ToLower(strings.TrimSpace(currency)),
		CustomerEmail: strings.TrimSpace(customerEmail),
		Status:        entity.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.Payments().Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyExists) {
			return nil, ErrPaymentAlreadyExists
		}
		return nil, err
	}
	return payment, nil
}

// ApplyEvent moves the payment, and its reservation, to the state the event
// implies. Replays, stale events and disallowed transitions are recorded and
// leave both rows untouched.
func (l *Ledger) ApplyEvent(ctx context.Context, event *LedgerEvent) (*ApplyResult, error) {
	target, ok := targetPaymentStatus(event.Tag)
	if !ok {
		return nil, fmt.Errorf("%w: unknown ledger event %q", ErrInvalidRequest, event.Tag)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = l.now().UTC()
	}

	located, err := l.locate(ctx, event)
	if err != nil {
		return nil, err
	}
	reservation, err := l.store.Reservations().FindByID(ctx, located.ReservationID)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, ErrReservationNotFound
	}

	result := &ApplyResult{}
	var published *events.ReservationEvent

	err = l.store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := lockRoom(ctx, tx, reservation.RoomID); err != nil {
			return err
		}

		payment, err := tx.Payments().FindByID(ctx, located.ID)
		if err != nil {
			return err
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		current, err := tx.Reservations().FindByID(ctx, payment.ReservationID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrReservationNotFound
		}
		result.Payment = payment
		result.Reservation = current

		now := l.now().UTC()
		oldStatus := payment.Status
		outcome := entity.PaymentEventOutcomeApplied
		switch {
		case target == "":
			outcome = entity.PaymentEventOutcomeRecorded
			target = payment.Status
		case !event.Synthetic && payment.LastEventAt != nil && event.OccurredAt.Before(*payment.LastEventAt):
			outcome = entity.PaymentEventOutcomeStale
		case payment.Status == target, !entity.CanTransitionPayment(payment.Status, target):
			outcome = entity.PaymentEventOutcomeIgnored
		}
		result.Outcome = outcome

		record := &entity.PaymentEvent{
			PaymentID:  payment.ID,
			EventType:  event.Tag,
			Outcome:    outcome,
			OldStatus:  &oldStatus,
			NewStatus:  target,
			OccurredAt: event.OccurredAt,
			CreatedAt:  now,
		}
		if id := strings.TrimSpace(event.ID); id != "" {
			record.ProviderEventID = &id
		}
		if len(event.Payload) > 0 {
			payload := string(event.Payload)
			record.PayloadJSON = &payload
		}
		if err := tx.PaymentEvents().Create(ctx, record); err != nil {
			return err
		}

		if outcome == entity.PaymentEventOutcomeIgnored && target == entity.PaymentStatusSucceeded &&
			(payment.Status == entity.PaymentStatusFailed || payment.Status == entity.PaymentStatusCanceled) {
			published = l.refundRequired(payment, current, now)
		}
		if outcome != entity.PaymentEventOutcomeApplied {
			return nil
		}

		payment.Status = target
		occurred := event.OccurredAt.UTC()
		if !event.Synthetic {
			payment.LastEventAt = &occurred
		}
		if intentID := strings.TrimSpace(event.IntentID); intentID != "" {
			payment.IntentID = &intentID
		}
		switch target {
		case entity.PaymentStatusSucceeded:
			payment.SettledAt = &occurred
		case entity.PaymentStatusRefunded:
			if payment.RefundedCents == 0 {
				payment.RefundedCents = payment.AmountCents
			}
		}
		payment.UpdatedAt = now
		if err := tx.Payments().Update(ctx, payment); err != nil {
			return err
		}

		published, err = l.cascade(ctx, tx, current, target, now)
		return err
	})
	if errors.Is(err, repository.ErrDuplicateEvent) {
		metrics.IncPaymentEvent(event.Tag, OutcomeDuplicate)
		return &ApplyResult{Outcome: OutcomeDuplicate, Payment: located, Reservation: reservation}, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.IncPaymentEvent(event.Tag, result.Outcome)
	if published != nil {
		publish(ctx, l.publisher, l.logger, *published)
	}
	return result, nil
}

// ApplySession feeds a provider session lookup through ApplyEvent. The event id
// is derived from the session and tag so repeated lookups are replays. A nil
// session means the provider no longer knows it and counts as expired.
func (l *Ledger) ApplySession(ctx context.Context, payment *entity.Payment, session *provider.CheckoutSession) (*ApplyResult, error) {
	tag := sessionTag(session)
	if tag == "" {
		return &ApplyResult{Outcome: entity.PaymentEventOutcomeIgnored, Payment: payment}, nil
	}
	var intentID string
	if session != nil {
		intentID = session.IntentID
	}

	return l.ApplyEvent(ctx, &LedgerEvent{
		ID:            "sync:" + payment.SessionID + ":" + tag,
		Tag:           tag,
		Type:          "session.sync",
		SessionID:     payment.SessionID,
		IntentID:      intentID,
		ReservationID: payment.ReservationID,
		OccurredAt:    l.now().UTC(),
		Synthetic:     true,
	})
}

// cascade moves the reservation after the payment reached target. A reservation
// canceled by its owner while paying stays canceled.
func (l *Ledger) cascade(ctx context.Context, tx *repository.Store, reservation *entity.Reservation, target string, now time.Time) (*events.ReservationEvent, error) {
	var next, eventType string
	switch target {
	case entity.PaymentStatusSucceeded:
		next, eventType = entity.ReservationStatusPaid, events.TypeReservationPaid
	case entity.PaymentStatusCanceled, entity.PaymentStatusFailed:
		next, eventType = entity.ReservationStatusCanceled, events.TypeReservationCanceled
	case entity.PaymentStatusRefunded:
		next, eventType = entity.ReservationStatusCanceled, events.TypeReservationRefunded
	default:
		return nil, nil
	}

	if reservation.Status == next {
		return nil, nil
	}
	if !entity.CanTransitionReservation(reservation.Status, next) {
		if target == entity.PaymentStatusSucceeded {
			l.logger.WithFields(logrus.Fields{
				"reservation_id": reservation.ID,
				"status":         reservation.Status,
				"security_event": true,
			}).Warn("Payment settled for a reservation that is no longer payable, refund required")
			evt := reservationEvent(events.TypeRefundRequired, reservation, now)
			return &evt, nil
		}
		return nil, nil
	}

	reservation.Status = next
	reservation.UpdatedAt = now
	if err := tx.Reservations().Update(ctx, reservation); err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}

	evt := reservationEvent(eventType, reservation, now)
	return &evt, nil
}

// refundRequired flags money taken on a payment the ledger already closed.
// Both rows stay as they are; the settlement has to be refunded by hand.
func (l *Ledger) refundRequired(payment *entity.Payment, reservation *entity.Reservation, now time.Time) *events.ReservationEvent {
	l.logger.WithFields(logrus.Fields{
		"payment_id":     payment.ID,
		"reservation_id": reservation.ID,
		"payment_status": payment.Status,
		"session_id":     payment.SessionID,
		"security_event": true,
	}).Warn("Payment settled after terminal state, refund required")

	evt := reservationEvent(events.TypeRefundRequired, reservation, now)
	evt.AmountCents = payment.AmountCents
	return &evt
}

func (l *Ledger) locate(ctx context.Context, event *LedgerEvent) (*entity.Payment, error) {
	repo := l.store.Payments()

	if sessionID := strings.TrimSpace(event.SessionID); sessionID != "" {
		payment, err := repo.FindBySessionID(ctx, sessionID)
		if err != nil || payment != nil {
			return payment, err
		}
	}
	if intentID := strings.TrimSpace(event.IntentID); intentID != "" {
		payment, err := repo.FindByIntentID(ctx, intentID)
		if err != nil || payment != nil {
			return payment, err
		}
	}
	if event.ReservationID > 0 {
		payment, err := repo.FindLatestByReservation(ctx, event.ReservationID)
		if err != nil || payment != nil {
			return payment, err
		}
	}
	return nil, ErrPaymentNotFound
}

func targetPaymentStatus(tag string) (string, bool) {
	switch tag {
	case entity.EventSessionCompleted:
		return entity.PaymentStatusSucceeded, true
	case entity.EventPaymentProcessing:
		return entity.PaymentStatusProcessing, true
	case entity.EventSessionExpired:
		return entity.PaymentStatusCanceled, true
	case entity.EventPaymentFailed:
		return entity.PaymentStatusFailed, true
	case entity.EventPaymentDeclined:
		return "", true
	case entity.EventChargeRefunded:
		return entity.PaymentStatusRefunded, true
	default:
		return "", false
	}
}

func sessionTag(session *provider.CheckoutSession) string {
	if session == nil {
		return entity.EventSessionExpired
	}
	switch {
	case session.PaymentStatus == "paid" || session.PaymentStatus == "no_payment_required":
		return entity.EventSessionCompleted
	case session.Status == "expired":
		return entity.EventSessionExpired
	case session.Status == "complete":
		return entity.EventPaymentProcessing
	default:
		return ""
	}
}

func reservationEvent(eventType string, reservation *entity.Reservation, now time.Time) events.ReservationEvent {
	evt := events.ReservationEvent{
		Type:          eventType,
		ReservationID: reservation.ID,
		Status:        reservation.Status,
		Kind:          reservation.Kind,
		RoomID:        reservation.RoomID,
		Date:          reservation.Date,
		Start:         reservation.Start,
		End:           reservation.End,
		Persons:       reservation.Persons,
		OccurredAt:    now,
	}
	if reservation.TotalCents != nil {
		evt.AmountCents = *reservation.TotalCents
	}
	return evt
}

func publish(ctx context.Context, publisher events.Publisher, logger logrus.FieldLogger, evt events.ReservationEvent) {
	if err := publisher.Publish(ctx, evt); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"event":          evt.Type,
			"reservation_id": evt.ReservationID,
		}).Warn("Publish reservation event failed")
	}
}
