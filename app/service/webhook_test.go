package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/provider"
)

const testWebhookSecret = "whsec_test"

func newWebhookEnv(t *testing.T) (*testEnv, *WebhookService) {
	t.Helper()
	env := newTestEnv(t)
	stripe := provider.NewStripeProvider(provider.StripeConfig{WebhookSecret: testWebhookSecret})
	return env, NewWebhookService(env.store, env.ledger, stripe)
}

func sessionPayload(eventID, eventType, sessionID string, created time.Time) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":%q,"created":%d,"data":{"object":{"id":%q,"object":"checkout.session","payment_intent":"pi_wh","payment_status":"paid"}}}`,
		eventID, eventType, created.Unix(), sessionID,
	))
}

func callbacksByStatus(t *testing.T, env *testEnv, status string) []*entity.PaymentCallback {
	t.Helper()
	items, err := env.store.Callbacks().ListByStatus(context.Background(), status, 10)
	require.NoError(t, err)
	return items
}

func TestWebhookHandleCompletedSession(t *testing.T) {
	env, webhooks := newWebhookEnv(t)
	ctx := context.Background()
	result := submitPrivatization(t, env, futureDate(8))

	payload := sessionPayload("evt_wh_1", "checkout.session.completed", result.SessionID, time.Now())
	signature := provider.SignPayload(payload, testWebhookSecret, time.Now())

	handled, err := webhooks.Handle(ctx, payload, signature)
	require.NoError(t, err)
	assert.Equal(t, entity.CallbackStatusProcessed, handled.Status)
	assert.Equal(t, entity.PaymentEventOutcomeApplied, handled.Outcome)

	reservation, payment := loadState(t, env, result)
	assert.Equal(t, entity.ReservationStatusPaid, reservation.Status)
	assert.Equal(t, entity.PaymentStatusSucceeded, payment.Status)

	replay, err := webhooks.Handle(ctx, payload, signature)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, replay.Outcome)

	processed := callbacksByStatus(t, env, entity.CallbackStatusProcessed)
	require.Len(t, processed, 2)
	require.NotNil(t, processed[0].ProviderEventID)
	assert.Equal(t, "evt_wh_1", *processed[0].ProviderEventID)
}

func TestWebhookHandleRejectsInvalidSignature(t *testing.T) {
	env, webhooks := newWebhookEnv(t)
	result := submitPrivatization(t, env, futureDate(8))

	payload := sessionPayload("evt_wh_1", "checkout.session.completed", result.SessionID, time.Now())
	_, err := webhooks.Handle(context.Background(), payload, provider.SignPayload(payload, "whsec_other", time.Now()))
	require.ErrorIs(t, err, ErrInvalidSignature)

	_, err = webhooks.Handle(context.Background(), payload, "")
	require.ErrorIs(t, err, ErrInvalidSignature)

	assert.Len(t, callbacksByStatus(t, env, entity.CallbackStatusRejected), 2)
	reservation, payment := loadState(t, env, result)
	assert.Equal(t, entity.ReservationStatusPaymentInProgress, reservation.Status)
	assert.Equal(t, entity.PaymentStatusPending, payment.Status)
}

func TestWebhookHandleIgnoresUnknownType(t *testing.T) {
	env, webhooks := newWebhookEnv(t)

	payload := []byte(`{"id":"evt_x","type":"customer.created","created":1759334400,"data":{"object":{"id":"cus_1","object":"customer"}}}`)
	handled, err := webhooks.Handle(context.Background(), payload, provider.SignPayload(payload, testWebhookSecret, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, entity.CallbackStatusIgnored, handled.Status)
	assert.Len(t, callbacksByStatus(t, env, entity.CallbackStatusIgnored), 1)
}

func TestWebhookHandleUnknownSessionFails(t *testing.T) {
	env, webhooks := newWebhookEnv(t)

	payload := sessionPayload("evt_wh_9", "checkout.session.completed", "cs_unknown", time.Now())
	_, err := webhooks.Handle(context.Background(), payload, provider.SignPayload(payload, testWebhookSecret, time.Now()))
	require.ErrorIs(t, err, ErrPaymentNotFound)

	failed := callbacksByStatus(t, env, entity.CallbackStatusFailed)
	require.Len(t, failed, 1)
	require.NotNil(t, failed[0].Error)
}

func TestWebhookHandleParseError(t *testing.T) {
	env := newTestEnv(t)
	env.provider.webhookErr = errors.New("unexpected end of JSON input")
	webhooks := NewWebhookService(env.store, env.ledger, env.provider)

	_, err := webhooks.Handle(context.Background(), []byte(`{`), "t=1,v1=x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
	assert.Len(t, callbacksByStatus(t, env, entity.CallbackStatusFailed), 1)
}
