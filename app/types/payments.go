package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const maxWebhookBodyBytes = 1 << 20

var ErrPayloadTooLarge = errors.New("webhook payload exceeds 1 MiB")

type CalculatePriceRequest struct {
	Persons int `json:"persons"`
}

func NewCalculatePriceRequestFromContext(ctx echo.Context) (*CalculatePriceRequest, error) {
	var body CalculatePriceRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func (r *CalculatePriceRequest) Validate() error {
	if r.Persons <= 0 {
		return errors.New("persons must be > 0")
	}
	return nil
}

// NewCreatePrivatizationRequestFromContext binds the submission body and
// forces the privatization kind.
func NewCreatePrivatizationRequestFromContext(ctx echo.Context) (*SubmitReservationRequest, error) {
	req, err := NewSubmitReservationRequestFromContext(ctx)
	if err != nil {
		return nil, err
	}
	req.Kind = "privatization"
	return req, nil
}

type SessionStatusRequest struct {
	SessionID string
}

func NewSessionStatusRequestFromContext(ctx echo.Context) *SessionStatusRequest {
	return &SessionStatusRequest{SessionID: strings.TrimSpace(ctx.Param("sessionId"))}
}

func (r *SessionStatusRequest) Validate() error {
	if r.SessionID == "" {
		return errors.New("session id is required")
	}
	return nil
}

type RefundRequest struct {
	ReservationID uint64 `json:"-"`
	AmountCents   int64  `json:"amount_cents"`
	Reason        string `json:"reason"`
}

func NewRefundRequestFromContext(ctx echo.Context) (*RefundRequest, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("reservationId")), 10, 64)
	if err != nil {
		return nil, err
	}

	var body RefundRequest
	if ctx.Request().ContentLength != 0 {
		if err := ctx.Bind(&body); err != nil {
			return nil, err
		}
	}
	body.ReservationID = id
	body.Reason = strings.TrimSpace(body.Reason)
	return &body, nil
}

func (r *RefundRequest) Validate() error {
	if r.ReservationID == 0 {
		return errors.New("invalid reservation id")
	}
	if r.AmountCents < 0 {
		return errors.New("amount_cents must be >= 0")
	}
	if len(r.Reason) > 500 {
		return errors.New("reason must be at most 500 characters")
	}
	return nil
}

// WebhookRequest keeps the body byte for byte; the signature covers it.
// Bodies over the limit are refused rather than cut.
type WebhookRequest struct {
	Payload   []byte
	Signature string
}

func NewWebhookRequestFromContext(ctx echo.Context) (*WebhookRequest, error) {
	payload, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxWebhookBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(payload) > maxWebhookBodyBytes {
		return nil, ErrPayloadTooLarge
	}
	return &WebhookRequest{
		Payload:   payload,
		Signature: strings.TrimSpace(ctx.Request().Header.Get("Stripe-Signature")),
	}, nil
}

func (r *WebhookRequest) Validate() error {
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	return nil
}

type QuoteResponse struct {
	Persons        int    `json:"persons"`
	Currency       string `json:"currency"`
	BaseCents      int64  `json:"base_cents"`
	PerPersonCents int64  `json:"per_person_cents"`
	TotalCents     int64  `json:"total_cents"`
}

type Payment struct {
	ID            uint64 `json:"id"`
	ReservationID uint64 `json:"reservation_id"`
	SessionID     string `json:"session_id"`
	IntentID      string `json:"intent_id,omitempty"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	RefundedCents int64  `json:"refunded_cents"`
	SettledAt     string `json:"settled_at,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type CheckoutResponse struct {
	Reservation *Reservation `json:"reservation"`
	CheckoutURL string       `json:"checkout_url"`
	SessionID   string       `json:"session_id"`
	TotalCents  int64        `json:"total_cents"`
	Currency    string       `json:"currency"`
	ExpiresAt   string       `json:"expires_at"`
}

// SessionReservation is what the public session lookup exposes; contact
// details and the owning user stay private.
type SessionReservation struct {
	ID         uint64 `json:"id"`
	RoomID     uint64 `json:"room_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Persons    int    `json:"persons"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	TotalCents *int64 `json:"total_cents,omitempty"`
}

type SessionStatusResponse struct {
	SessionID     string              `json:"session_id"`
	Status        string              `json:"status,omitempty"`
	PaymentStatus string              `json:"payment_status,omitempty"`
	Payment       *Payment            `json:"payment"`
	Reservation   *SessionReservation `json:"reservation"`
}

type RefundResponse struct {
	Reservation *Reservation `json:"reservation"`
	Payment     *Payment     `json:"payment"`
}

type ReservationPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Status   string `json:"status"`
	Outcome  string `json:"outcome,omitempty"`
}
