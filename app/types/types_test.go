package types

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(method, target, body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestSubmitReservationRequestTrimsFields(t *testing.T) {
	ctx := newContext(http.MethodPost, "/reservations", `{"kind":" Standard ","name":"  Jeanne ","email":" jeanne@example.com ","room_id":1,"date":" 2026-11-02 ","start_time":"18:00 ","end_time":" 20:00","persons":4}`)

	req, err := NewSubmitReservationRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.Kind != "standard" || req.Name != "Jeanne" || req.Email != "jeanne@example.com" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Date != "2026-11-02" || req.StartTime != "18:00" || req.EndTime != "20:00" {
		t.Fatalf("unexpected slot fields: %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req.Kind = "brunch"
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestCreatePrivatizationRequestForcesKind(t *testing.T) {
	ctx := newContext(http.MethodPost, "/payment/create-reservation", `{"kind":"standard","persons":12}`)

	req, err := NewCreatePrivatizationRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.Kind != "privatization" || req.Persons != 12 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestReservationIDRequest(t *testing.T) {
	ctx := newContext(http.MethodGet, "/reservations/12", "")
	ctx.SetParamNames("id")
	ctx.SetParamValues("12")

	req, err := NewReservationIDRequestFromContext(ctx, "id")
	if err != nil || req.ID != 12 {
		t.Fatalf("unexpected result: %+v %v", req, err)
	}

	ctx.SetParamValues("0")
	req, err = NewReservationIDRequestFromContext(ctx, "id")
	if err != nil {
		t.Fatalf("expected parse to succeed, got %v", err)
	}
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for zero id")
	}

	ctx.SetParamValues("abc")
	if _, err := NewReservationIDRequestFromContext(ctx, "id"); err == nil {
		t.Fatal("expected error for non numeric id")
	}
}

func TestUpdateReservationRequestRequiresAField(t *testing.T) {
	ctx := newContext(http.MethodPut, "/reservations/3", `{}`)
	ctx.SetParamNames("id")
	ctx.SetParamValues("3")

	req, err := NewUpdateReservationRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for empty update")
	}

	ctx = newContext(http.MethodPut, "/reservations/3", `{"persons":6,"status":" confirmed "}`)
	ctx.SetParamNames("id")
	ctx.SetParamValues("3")
	req, err = NewUpdateReservationRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.ID != 3 || req.Persons == nil || *req.Persons != 6 || *req.Status != "confirmed" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Phone != nil || req.Date != nil {
		t.Fatal("expected fields not sent to stay nil")
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestListReservationsRequest(t *testing.T) {
	req, err := NewListReservationsRequestFromContext(newContext(http.MethodGet, "/reservations", ""))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.Limit != 50 || req.Offset != 0 {
		t.Fatalf("unexpected defaults: %+v", req)
	}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	req, err = NewListReservationsRequestFromContext(newContext(http.MethodGet, "/reservations?status=PAID&kind=privatization&room_id=2&limit=10&offset=20", ""))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.Status != "paid" || req.Kind != "privatization" || req.RoomID != 2 || req.Limit != 10 || req.Offset != 20 {
		t.Fatalf("unexpected request: %+v", req)
	}

	for _, query := range []string{"limit=0", "limit=501", "offset=-1", "status=lost", "kind=brunch"} {
		req, err := NewListReservationsRequestFromContext(newContext(http.MethodGet, "/reservations?"+query, ""))
		if err != nil {
			t.Fatalf("%s: unexpected parse error %v", query, err)
		}
		if err := req.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", query)
		}
	}

	if _, err := NewListReservationsRequestFromContext(newContext(http.MethodGet, "/reservations?room_id=x", "")); err == nil {
		t.Fatal("expected parse error for room_id")
	}
}

func TestRefundRequest(t *testing.T) {
	ctx := newContext(http.MethodPost, "/payment/refund/4", "")
	ctx.SetParamNames("reservationId")
	ctx.SetParamValues("4")

	req, err := NewRefundRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error without body, got %v", err)
	}
	if req.ReservationID != 4 || req.AmountCents != 0 {
		t.Fatalf("unexpected request: %+v", req)
	}

	ctx = newContext(http.MethodPost, "/payment/refund/4", `{"amount_cents":-5,"reason":" oops "}`)
	ctx.SetParamNames("reservationId")
	ctx.SetParamValues("4")
	req, err = NewRefundRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.Reason != "oops" {
		t.Fatalf("unexpected reason %q", req.Reason)
	}
	if err := req.Validate(); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestWebhookRequestKeepsRawBody(t *testing.T) {
	body := `{"id":"evt_1",  "type":"checkout.session.completed"}`
	ctx := newContext(http.MethodPost, "/webhooks/stripe", body)
	ctx.Request().Header.Set("Stripe-Signature", " t=1,v1=abc ")

	req, err := NewWebhookRequestFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(req.Payload) != body || req.Signature != "t=1,v1=abc" {
		t.Fatalf("unexpected request: %q %q", req.Payload, req.Signature)
	}

	empty, err := NewWebhookRequestFromContext(newContext(http.MethodPost, "/webhooks/stripe", ""))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := empty.Validate(); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestWebhookRequestRejectsOversizedBody(t *testing.T) {
	exact := strings.Repeat("a", maxWebhookBodyBytes)
	req, err := NewWebhookRequestFromContext(newContext(http.MethodPost, "/webhooks/stripe", exact))
	if err != nil || len(req.Payload) != maxWebhookBodyBytes {
		t.Fatalf("expected body at the limit to pass, got %v", err)
	}

	_, err = NewWebhookRequestFromContext(newContext(http.MethodPost, "/webhooks/stripe", exact+"a"))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestLoginAndCalculateValidate(t *testing.T) {
	login, err := NewLoginRequestFromContext(newContext(http.MethodPost, "/auth/login", `{"username":" admin ","password":""}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if login.Username != "admin" {
		t.Fatalf("unexpected username %q", login.Username)
	}
	if err := login.Validate(); err == nil {
		t.Fatal("expected error for missing password")
	}

	calc, err := NewCalculatePriceRequestFromContext(newContext(http.MethodPost, "/payment/calculate", `{"persons":0}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := calc.Validate(); err == nil {
		t.Fatal("expected error for zero persons")
	}
}
