package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/metrics"
	"github.com/vibast-solutions/ms-go-reservations/app/provider"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
)

const maxCallbackErrorLength = 1024

type WebhookResult struct {
	EventID string
	Type    string
	Status  string
	Outcome string
}

// WebhookService verifies provider deliveries and hands them to the ledger.
// Every delivery is recorded, including rejected ones.
type WebhookService struct {
	store    *repository.Store
	ledger   *Ledger
	provider provider.Provider
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewWebhookService(store *repository.Store, ledger *Ledger, paymentProvider provider.Provider) *WebhookService {
	return &WebhookService{
		store:    store,
		ledger:   ledger,
		provider: paymentProvider,
		logger:   factory.NewModuleLogger("webhook-service"),
		now:      time.Now,
	}
}

// Handle returns ErrInvalidSignature for unverifiable deliveries. Any other
// error means the event was not applied and the provider should retry.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	signature = strings.TrimSpace(signature)

	event, err := s.provider.VerifyAndParseWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidSignature) {
			s.logger.WithFields(logrus.Fields{
				"security_event": true,
				"provider":       s.provider.Code(),
			}).Warn("Rejected webhook with invalid signature")
			s.record(ctx, nil, payload, signature, entity.CallbackStatusRejected, err)
			return nil, ErrInvalidSignature
		}
		s.record(ctx, nil, payload, signature, entity.CallbackStatusFailed, err)
		return nil, fmt.Errorf("parse webhook: %w", err)
	}

	result := &WebhookResult{EventID: event.ID, Type: event.Type}
	if event.Tag == "" {
		result.Status = entity.CallbackStatusIgnored
		s.record(ctx, event, payload, signature, result.Status, nil)
		return result, nil
	}

	applied, err := s.ledger.ApplyEvent(ctx, &LedgerEvent{
		ID:            event.ID,
		Tag:           event.Tag,
		Type:          event.Type,
		SessionID:     event.SessionID,
		IntentID:      event.IntentID,
		ReservationID: event.ReservationID,
		OccurredAt:    event.OccurredAt,
		Payload:       event.Payload,
	})
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"session_id": event.SessionID,
		}).Error("Apply webhook event failed")
		s.record(ctx, event, payload, signature, entity.CallbackStatusFailed, err)
		return nil, err
	}

	result.Status = entity.CallbackStatusProcessed
	result.Outcome = applied.Outcome
	s.record(ctx, event, payload, signature, result.Status, nil)
	return result, nil
}

func (s *WebhookService) record(ctx context.Context, event *provider.Event, payload []byte, signature, status string, cause error) {
	metrics.IncWebhook(status)

	callback := &entity.PaymentCallback{
		Provider:    s.provider.Code(),
		Signature:   truncate(signature, 512),
		PayloadJSON: string(payload),
		Status:      status,
		CreatedAt:   s.now().UTC(),
	}
	if event != nil {
		if id := strings.TrimSpace(event.ID); id != "" {
			callback.ProviderEventID = &id
		}
		if t := strings.TrimSpace(event.Type); t != "" {
			callback.EventType = &t
		}
	}
	if cause != nil {
		msg := truncate(cause.Error(), maxCallbackErrorLength)
		callback.Error = &msg
	}

	if err := s.store.Callbacks().Create(ctx, callback); err != nil {
		s.logger.WithError(err).WithField("status", status).Error("Persist webhook callback failed")
	}
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
