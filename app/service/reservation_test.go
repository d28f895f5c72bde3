package service

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibast-solutions/ms-go-reservations/app/entity"
	"github.com/vibast-solutions/ms-go-reservations/app/events"
	"github.com/vibast-solutions/ms-go-reservations/app/export"
	"github.com/vibast-solutions/ms-go-reservations/app/provider"
	"github.com/xuri/excelize/v2"
)

var (
	owner    = Requester{UserID: "7", Role: RoleUser}
	stranger = Requester{UserID: "8", Role: RoleUser}
	admin    = Requester{UserID: "admin", Role: RoleAdmin}
)

func TestSubmitStandard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := standardInput(futureDate(6), "9:00", "11:30")
	in.Comment = "  anniversaire  "
	in.ClientIP = "203.0.113.7"
	result, err := env.svc.Submit(ctx, in, owner)
	require.NoError(t, err)

	reservation := result.Reservation
	assert.NotZero(t, reservation.ID)
	assert.Equal(t, entity.ReservationStatusConfirmed, reservation.Status)
	assert.Equal(t, "09:00", reservation.Start)
	assert.Equal(t, "11:30", reservation.End)
	require.NotNil(t, reservation.Comment)
	assert.Equal(t, "anniversaire", *reservation.Comment)
	require.NotNil(t, reservation.UserID)
	assert.Equal(t, "7", *reservation.UserID)
	assert.Nil(t, result.Payment)
	assert.Empty(t, env.provider.created)
	assert.Equal(t, []string{events.TypeReservationCreated}, env.publisher.types())
}

func TestSubmitStandardWithoutAutoConfirm(t *testing.T) {
	env := newTestEnv(t, func(cfg *WorkflowConfig) { cfg.Reservations.AutoConfirm = false })

	result, err := env.svc.Submit(context.Background(), standardInput(futureDate(6), "18:00", "20:00"), Requester{})
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusPending, result.Reservation.Status)
	assert.Nil(t, result.Reservation.UserID)
}

func TestSubmitCollectsFieldErrors(t *testing.T) {
	env := newTestEnv(t)

	in := submitInput{
		Name:      "J",
		Email:     "not-an-email",
		Phone:     "123",
		RoomID:    1,
		Date:      "2020-01-01",
		StartTime: "18:00",
		EndTime:   "17:00",
		Persons:   0,
	}
	_, err := env.svc.Submit(context.Background(), in, Requester{})
	require.ErrorIs(t, err, ErrInvalidRequest)

	fields := validationFields(t, err)
	for _, field := range []string{"name", "email", "phone", "date", "end_time", "persons"} {
		assert.Contains(t, fields, field)
	}

	_, err = env.svc.Submit(context.Background(), submitInput{Kind: "vip"}, Requester{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSubmitChecksRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := standardInput(futureDate(6), "18:00", "20:00")
	in.RoomID = 99
	_, err := env.svc.Submit(ctx, in, Requester{})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	in = standardInput(futureDate(6), "18:00", "20:00")
	in.RoomID = 2
	in.Persons = 30
	_, err = env.svc.Submit(ctx, in, Requester{})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, validationFields(t, err), "persons")
}

func TestSubmitPrivatizationOpensCheckout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	date := futureDate(9)

	result, err := env.svc.Submit(ctx, privatizationInput(date, 12), owner)
	require.NoError(t, err)

	assert.Equal(t, entity.ReservationStatusPaymentInProgress, result.Reservation.Status)
	require.NotNil(t, result.Reservation.TotalCents)
	assert.Equal(t, int64(74000), *result.Reservation.TotalCents)
	assert.Equal(t, int64(74000), result.Quote.TotalCents)
	assert.NotEmpty(t, result.CheckoutURL)
	assert.Equal(t, "cs_test_1", result.SessionID)
	assert.False(t, result.ExpiresAt.IsZero())

	require.Len(t, env.provider.created, 1)
	input := env.provider.created[0]
	assert.Equal(t, result.Reservation.ID, input.ReservationID)
	assert.Equal(t, int64(74000), input.AmountCents)
	assert.Equal(t, "12", input.Metadata["persons"])
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), input.ExpiresAt, time.Minute)

	stored, err := env.store.Reservations().FindByID(ctx, result.Reservation.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SessionID)
	assert.Equal(t, "cs_test_1", *stored.SessionID)

	payment, err := env.store.Payments().FindBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	require.NotNil(t, payment)
	assert.Equal(t, entity.PaymentStatusPending, payment.Status)
	assert.Equal(t, "eur", payment.Currency)
	assert.Equal(t, "jeanne@example.com", payment.CustomerEmail)
}

func TestSubmitPrivatizationProviderFailureReleasesSlot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	date := futureDate(9)
	env.provider.createErr = errors.New("stripe down")

	_, err := env.svc.Submit(ctx, privatizationInput(date, 12), Requester{})
	require.ErrorIs(t, err, ErrExternalService)

	list, err := env.svc.List(ctx, listInput{Date: date}, admin)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.ReservationStatusCanceled, list[0].Status)

	env.provider.createErr = nil
	_, err = env.svc.Submit(ctx, privatizationInput(date, 12), Requester{})
	assert.NoError(t, err)
}

func TestSubmitPrivatizationBounds(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Submit(context.Background(), privatizationInput(futureDate(9), 9), Requester{})
	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, validationFields(t, err), "persons")
	assert.Empty(t, env.provider.created)
}

func TestGetAndListAreOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mine, err := env.svc.Submit(ctx, standardInput(futureDate(6), "18:00", "20:00"), owner)
	require.NoError(t, err)
	_, err = env.svc.Submit(ctx, standardInput(futureDate(6), "20:00", "22:00"), stranger)
	require.NoError(t, err)

	_, err = env.svc.Get(ctx, mine.Reservation.ID, owner)
	assert.NoError(t, err)
	_, err = env.svc.Get(ctx, mine.Reservation.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.svc.Get(ctx, mine.Reservation.ID, Requester{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.svc.Get(ctx, mine.Reservation.ID, admin)
	assert.NoError(t, err)
	_, err = env.svc.Get(ctx, 404, admin)
	assert.ErrorIs(t, err, ErrReservationNotFound)

	list, err := env.svc.List(ctx, listInput{}, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.Reservation.ID, list[0].ID)

	all, err := env.svc.List(ctx, listInput{}, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.svc.List(ctx, listInput{}, Requester{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	date := futureDate(6)

	result, err := env.svc.Submit(ctx, standardInput(date, "18:00", "20:00"), owner)
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, result.Reservation.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	canceled, err := env.svc.Cancel(ctx, result.Reservation.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCanceled, canceled.Status)

	again, err := env.svc.Cancel(ctx, result.Reservation.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCanceled, again.Status)
	assert.Equal(t, []string{events.TypeReservationCreated, events.TypeReservationCanceled}, env.publisher.types())

	_, err = env.svc.Submit(ctx, standardInput(date, "18:00", "20:00"), owner)
	assert.NoError(t, err)
}

func TestCancelPaidRequiresRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	result := submitPrivatization(t, env, futureDate(8))

	_, err := env.ledger.ApplyEvent(ctx, &LedgerEvent{ID: "evt_1", Tag: entity.EventSessionCompleted, SessionID: result.SessionID, OccurredAt: time.Now().UTC()})
	require.NoError(t, err)

	_, err = env.svc.Cancel(ctx, result.Reservation.ID, owner)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	payments, err := env.svc.Payments(ctx, result.Reservation.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, entity.PaymentStatusSucceeded, payments[0].Status)
}

func TestUpdate(t *testing.T) {
	env := newTestEnv(t, func(cfg *WorkflowConfig) { cfg.Reservations.AutoConfirm = false })
	ctx := context.Background()
	date := futureDate(6)

	first, err := env.svc.Submit(ctx, standardInput(date, "18:00", "20:00"), owner)
	require.NoError(t, err)
	_, err = env.svc.Submit(ctx, standardInput(date, "20:00", "22:00"), stranger)
	require.NoError(t, err)

	_, err = env.svc.Update(ctx, first.Reservation.ID, updateInput{EndTime: strPtr("21:00")}, owner)
	assert.ErrorIs(t, err, ErrSlotConflict)

	updated, err := env.svc.Update(ctx, first.Reservation.ID, updateInput{StartTime: strPtr("17:30"), Persons: intPtr(6), Comment: strPtr("gâteau")}, owner)
	require.NoError(t, err)
	assert.Equal(t, "17:30", updated.Start)
	assert.Equal(t, "20:00", updated.End)
	assert.Equal(t, 6, updated.Persons)

	_, err = env.svc.Update(ctx, first.Reservation.ID, updateInput{Status: strPtr(entity.ReservationStatusConfirmed)}, owner)
	assert.ErrorIs(t, err, ErrForbidden)

	confirmed, err := env.svc.Update(ctx, first.Reservation.ID, updateInput{Status: strPtr(entity.ReservationStatusConfirmed)}, admin)
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusConfirmed, confirmed.Status)

	_, err = env.svc.Update(ctx, first.Reservation.ID, updateInput{Status: strPtr(entity.ReservationStatusPaid)}, admin)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = env.svc.Update(ctx, first.Reservation.ID, updateInput{Persons: intPtr(80)}, owner)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = env.svc.Cancel(ctx, first.Reservation.ID, owner)
	require.NoError(t, err)
	_, err = env.svc.Update(ctx, first.Reservation.ID, updateInput{Comment: strPtr("late")}, owner)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateRejectsPrivatization(t *testing.T) {
	env := newTestEnv(t)
	result := submitPrivatization(t, env, futureDate(8))

	_, err := env.svc.Update(context.Background(), result.Reservation.ID, updateInput{Comment: strPtr("x")}, owner)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestAdminRefund(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	result := submitPrivatization(t, env, futureDate(8))

	_, _, err := env.svc.AdminRefund(ctx, result.Reservation.ID, 0, "client malade")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.ledger.ApplyEvent(ctx, &LedgerEvent{ID: "evt_1", Tag: entity.EventSessionCompleted, SessionID: result.SessionID, IntentID: "pi_1", OccurredAt: time.Now().UTC()})
	require.NoError(t, err)

	_, _, err = env.svc.AdminRefund(ctx, result.Reservation.ID, 999999, "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	reservation, payment, err := env.svc.AdminRefund(ctx, result.Reservation.ID, 0, "client malade")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservationStatusCanceled, reservation.Status)
	assert.Equal(t, entity.PaymentStatusRefunded, payment.Status)
	assert.Equal(t, int64(74000), payment.RefundedCents)

	require.Len(t, env.provider.refunds, 1)
	assert.Equal(t, "pi_1", env.provider.refunds[0].IntentID)
	assert.Equal(t, "client malade", env.provider.refunds[0].Reason)

	webhook, err := env.ledger.ApplyEvent(ctx, &LedgerEvent{ID: "evt_2", Tag: entity.EventChargeRefunded, IntentID: "pi_1", OccurredAt: time.Now().UTC()})
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentEventOutcomeIgnored, webhook.Outcome)
}

func TestAdminRefundProviderFailureChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	result := submitPrivatization(t, env, futureDate(8))

	_, err := env.ledger.ApplyEvent(ctx, &LedgerEvent{ID: "evt_1", Tag: entity.EventSessionCompleted, SessionID: result.SessionID, IntentID: "pi_1", OccurredAt: time.Now().UTC()})
	require.NoError(t, err)
	before, beforePayment := loadState(t, env, result)

	env.provider.refundErr = errors.New("refund declined")
	_, _, err = env.svc.AdminRefund(ctx, result.Reservation.ID, 0, "")
	require.ErrorIs(t, err, ErrExternalService)

	after, afterPayment := loadState(t, env, result)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, entity.ReservationStatusPaid, after.Status)
	assert.Equal(t, beforePayment.Status, afterPayment.Status)
	assert.Equal(t, int64(0), afterPayment.RefundedCents)
}

func TestGetSessionStatusSyncsLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	result := submitPrivatization(t, env, futureDate(8))

	status, err := env.svc.GetSessionStatus(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentStatusPending, status.Payment.Status)

	env.provider.setSession(result.SessionID, func(s *provider.CheckoutSession) {
		s.Status = "complete"
		s.PaymentStatus = "paid"
		s.IntentID = "pi_sync"
	})

	status, err = env.svc.GetSessionStatus(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "paid", status.Session.PaymentStatus)
	assert.Equal(t, entity.PaymentStatusSucceeded, status.Payment.Status)
	assert.Equal(t, entity.ReservationStatusPaid, status.Reservation.Status)

	_, err = env.svc.GetSessionStatus(ctx, "cs_missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	env.provider.getErr = errors.New("timeout")
	_, err = env.svc.GetSessionStatus(ctx, result.SessionID)
	assert.ErrorIs(t, err, ErrExternalService)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Submit(ctx, standardInput(futureDate(6), "18:00", "20:00"), owner)
	require.NoError(t, err)
	result := submitPrivatization(t, env, futureDate(8))
	_, err = env.ledger.ApplyEvent(ctx, &LedgerEvent{ID: "evt_1", Tag: entity.EventSessionCompleted, SessionID: result.SessionID, OccurredAt: time.Now().UTC()})
	require.NoError(t, err)

	stats, err := env.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Reservations.Total)
	assert.Equal(t, int64(1), stats.Reservations.Paid)
	assert.Equal(t, int64(1), stats.Reservations.Privatizations)
	assert.Equal(t, int64(1), stats.Payments.Succeeded)
	assert.Equal(t, int64(74000), stats.Payments.RevenueCents)
}

func TestExportIncludesPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Submit(ctx, standardInput(futureDate(6), "18:00", "20:00"), owner)
	require.NoError(t, err)
	result := submitPrivatization(t, env, futureDate(8))

	var buf bytes.Buffer
	require.NoError(t, env.svc.Export(ctx, listInput{}, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var found bool
	for _, row := range rows[1:] {
		if row[0] == strconv.FormatUint(result.Reservation.ID, 10) {
			found = true
			assert.Equal(t, entity.PaymentStatusPending, row[12])
		}
	}
	assert.True(t, found)
}
