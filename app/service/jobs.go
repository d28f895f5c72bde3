package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/events"
	"github.com/vibast-solutions/ms-go-reservations/app/provider"
)

// RunReconcileBatch asks the provider about open payments that have not moved
// for a while and applies what it reports.
func (s *ReservationService) RunReconcileBatch(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}

	now := s.now().UTC()
	staleAfter := s.cfg.Payments.ReconcileStaleAfter
	if staleAfter <= 0 {
		staleAfter = 15 * time.Minute
	}
	items, err := s.store.Payments().ListForReconcile(ctx, now.Add(-staleAfter), s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, payment := range items {
		if payment == nil {
			continue
		}

		session, err := s.provider.GetCheckoutSession(ctx, payment.SessionID)
		if err != nil && !errors.Is(err, provider.ErrSessionNotFound) {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}

		result, err := s.ledger.ApplySession(ctx, payment, session)
		if err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		s.logger.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"session_id": payment.SessionID,
			"outcome":    result.Outcome,
		}).Debug("Reconciled payment")
	}

	return firstErr
}

// RunSweepOrphansBatch cancels paid-flow reservations that never got a payment
// row once the checkout window has passed.
func (s *ReservationService) RunSweepOrphansBatch(ctx context.Context) error {
	now := s.now().UTC()
	expiry := s.cfg.Payments.SessionExpiry
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}
	items, err := s.store.Reservations().ListOrphans(ctx, now.Add(-expiry), s.batchSize())
	if err != nil {
		return err
	}

	var firstErr error
	for _, item := range items {
		if item == nil {
			continue
		}

		var canceled *entity.Reservation
		err := s.transition(ctx, item.ID, func(current *entity.Reservation) (bool, error) {
			if current.Status != entity.ReservationStatusPaymentInProgress {
				return false, nil
			}
			current.Status = entity.ReservationStatusCanceled
			canceled = current
			return true, nil
		})
		if err != nil {
			firstErr = keepFirstErr(firstErr, err)
			continue
		}
		if canceled != nil {
			publish(ctx, s.publisher, s.logger, reservationEvent(events.TypeReservationCanceled, canceled, now))
		}
	}

	return firstErr
}

func (s *ReservationService) batchSize() int32 {
	if s.cfg.Payments.JobBatchSize > 0 {
		return s.cfg.Payments.JobBatchSize
	}
	return defaultBatchSize
}

func keepFirstErr(current error, candidate error) error {
	if current != nil {
		return current
	}
	return candidate
}
