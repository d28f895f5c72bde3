package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	stripeCode           = "stripe"
	defaultStripeBaseURL = "https://api.stripe.com"
)

type StripeConfig struct {
	SecretKey                 string
	WebhookSecret             string
	APIBaseURL                string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

type StripeProvider struct {
	cfg    StripeConfig
	client *http.Client
	now    func() time.Time
}

type stripeAPIError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *stripeAPIError) Error() string {
	return fmt.Sprintf("stripe request failed: path=%s status=%d body=%s", e.Path, e.StatusCode, e.Body)
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tolerance := cfg.SignatureToleranceSeconds
	if tolerance <= 0 {
		tolerance = 300
	}
	cfg.SignatureToleranceSeconds = tolerance
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultStripeBaseURL
	}

	return &StripeProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (p *StripeProvider) Code() string {
	return stripeCode
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, input *CheckoutSessionInput) (*CheckoutSession, error) {
	if strings.TrimSpace(p.cfg.SecretKey) == "" {
		return nil, errors.New("stripe secret key is not configured")
	}

	reservationID := strconv.FormatUint(input.ReservationID, 10)

	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("payment_method_types[0]", "card")
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", strings.ToLower(input.Currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.AmountCents, 10))
	values.Set("line_items[0][price_data][product_data][name]", productName(input.ProductName))
	if d := strings.TrimSpace(input.Description); d != "" {
		values.Set("line_items[0][price_data][product_data][description]", d)
	}
	if e := strings.TrimSpace(input.CustomerEmail); e != "" {
		values.Set("customer_email", e)
	}
	values.Set("success_url", input.SuccessURL)
	values.Set("cancel_url", input.CancelURL)
	values.Set("client_reference_id", reservationID)
	if !input.ExpiresAt.IsZero() {
		values.Set("expires_at", strconv.FormatInt(input.ExpiresAt.Unix(), 10))
	}

	for k, v := range input.Metadata {
		values.Set("metadata["+k+"]", v)
		values.Set("payment_intent_data[metadata]["+k+"]", v)
	}
	values.Set("metadata[reservation_id]", reservationID)
	values.Set("payment_intent_data[metadata][reservation_id]", reservationID)

	body, err := p.postForm(ctx, "/v1/checkout/sessions", values, "checkout-"+reservationID)
	if err != nil {
		return nil, err
	}

	session, err := parseCheckoutSession(body)
	if err != nil {
		return nil, err
	}
	if session.ID == "" || session.URL == "" {
		return nil, errors.New("stripe checkout session response missing id or url")
	}
	return session, nil
}

func (p *StripeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.APIBaseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)

	body, err := p.do(req, "/v1/checkout/sessions")
	if err != nil {
		var apiErr *stripeAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return parseCheckoutSession(body)
}

func (p *StripeProvider) CreateRefund(ctx context.Context, input *RefundInput) (*Refund, error) {
	if strings.TrimSpace(p.cfg.SecretKey) == "" {
		return nil, errors.New("stripe secret key is not configured")
	}
	if strings.TrimSpace(input.IntentID) == "" {
		return nil, errors.New("payment intent id is required for refunds")
	}

	values := url.Values{}
	values.Set("payment_intent", input.IntentID)
	if input.AmountCents > 0 {
		values.Set("amount", strconv.FormatInt(input.AmountCents, 10))
	}
	values.Set("reason", "requested_by_customer")
	values.Set("metadata[reservation_id]", strconv.FormatUint(input.ReservationID, 10))
	if r := strings.TrimSpace(input.Reason); r != "" {
		values.Set("metadata[reason]", r)
	}

	idempotencyKey := fmt.Sprintf("refund-%d-%d-%d", input.ReservationID, input.PaymentID, input.AmountCents)
	body, err := p.postForm(ctx, "/v1/refunds", values, idempotencyKey)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Status == "failed" || payload.Status == "canceled" {
		return nil, fmt.Errorf("stripe refund %s ended with status %s", payload.ID, payload.Status)
	}

	return &Refund{ID: payload.ID, Status: payload.Status, AmountCents: payload.Amount}, nil
}

func (p *StripeProvider) VerifyAndParseWebhook(_ context.Context, payload []byte, signature string) (*Event, error) {
	if strings.TrimSpace(p.cfg.WebhookSecret) == "" {
		return nil, errors.New("stripe webhook secret is not configured")
	}
	if !verifyStripeSignature(payload, signature, p.cfg.WebhookSecret, p.cfg.SignatureToleranceSeconds, p.now()) {
		return nil, ErrInvalidSignature
	}

	var envelope struct {
		ID      string `json:"id"`
		Type    string `json:"type"`
		Created int64  `json:"created"`
		Data    struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode stripe event: %w", err)
	}

	var object struct {
		ID            string            `json:"id"`
		Object        string            `json:"object"`
		PaymentIntent interface{}       `json:"payment_intent"`
		PaymentStatus string            `json:"payment_status"`
		Metadata      map[string]string `json:"metadata"`
	}
	if len(envelope.Data.Object) > 0 {
		if err := json.Unmarshal(envelope.Data.Object, &object); err != nil {
			return nil, fmt.Errorf("decode stripe event object: %w", err)
		}
	}

	event := &Event{
		ID:            strings.TrimSpace(envelope.ID),
		Type:          strings.TrimSpace(envelope.Type),
		PaymentStatus: object.PaymentStatus,
		ReservationID: parseReservationID(object.Metadata),
		OccurredAt:    time.Unix(envelope.Created, 0).UTC(),
		Payload:       payload,
	}
	if envelope.Created == 0 {
		event.OccurredAt = p.now().UTC()
	}

	switch object.Object {
	case "checkout.session":
		event.SessionID = strings.TrimSpace(object.ID)
		event.IntentID = parseStringish(object.PaymentIntent)
	case "payment_intent":
		event.IntentID = strings.TrimSpace(object.ID)
	case "charge":
		event.IntentID = parseStringish(object.PaymentIntent)
	}
	event.Tag = MapEventType(event.Type, event.PaymentStatus)

	return event, nil
}

func (p *StripeProvider) postForm(ctx context.Context, path string, values url.Values, idempotencyKey string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIBaseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	return p.do(req, path)
}

func (p *StripeProvider) do(req *http.Request, path string) ([]byte, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &stripeAPIError{Path: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

func parseCheckoutSession(body []byte) (*CheckoutSession, error) {
	var payload struct {
		ID              string            `json:"id"`
		URL             string            `json:"url"`
		Status          string            `json:"status"`
		PaymentStatus   string            `json:"payment_status"`
		PaymentIntent   interface{}       `json:"payment_intent"`
		AmountTotal     int64             `json:"amount_total"`
		Currency        string            `json:"currency"`
		CustomerEmail   string            `json:"customer_email"`
		ExpiresAt       int64             `json:"expires_at"`
		Metadata        map[string]string `json:"metadata"`
		CustomerDetails *struct {
			Email string `json:"email"`
		} `json:"customer_details"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	session := &CheckoutSession{
		ID:            strings.TrimSpace(payload.ID),
		URL:           strings.TrimSpace(payload.URL),
		Status:        payload.Status,
		PaymentStatus: payload.PaymentStatus,
		IntentID:      parseStringish(payload.PaymentIntent),
		AmountTotal:   payload.AmountTotal,
		Currency:      payload.Currency,
		CustomerEmail: payload.CustomerEmail,
		Metadata:      payload.Metadata,
	}
	if session.CustomerEmail == "" && payload.CustomerDetails != nil {
		session.CustomerEmail = payload.CustomerDetails.Email
	}
	if payload.ExpiresAt > 0 {
		session.ExpiresAt = time.Unix(payload.ExpiresAt, 0).UTC()
	}
	if session.Metadata == nil {
		session.Metadata = map[string]string{}
	}
	return session, nil
}

func productName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "reservation"
	}
	return name
}

func parseReservationID(metadata map[string]string) uint64 {
	raw := strings.TrimSpace(metadata["reservation_id"])
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func verifyStripeSignature(payload []byte, signatureHeader string, webhookSecret string, toleranceSeconds int64, now time.Time) bool {
	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" || strings.TrimSpace(webhookSecret) == "" {
		return false
	}

	parts := strings.Split(signatureHeader, ",")
	var ts string
	v1 := make([]string, 0, 1)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "t=") {
			ts = strings.TrimSpace(strings.TrimPrefix(part, "t="))
		}
		if strings.HasPrefix(part, "v1=") {
			v1 = append(v1, strings.TrimSpace(strings.TrimPrefix(part, "v1=")))
		}
	}
	if ts == "" || len(v1) == 0 {
		return false
	}

	tsUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	nowUnix := now.Unix()
	if nowUnix-tsUnix > toleranceSeconds || tsUnix-nowUnix > toleranceSeconds {
		return false
	}

	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, _ = mac.Write([]byte(ts + "."))
	_, _ = mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range v1 {
		candidate, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(candidate, expected) {
			return true
		}
	}

	return false
}

// SignPayload builds a Stripe-Signature header value for payload at ts.
func SignPayload(payload []byte, secret string, ts time.Time) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(unix + "."))
	_, _ = mac.Write(payload)
	return "t=" + unix + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func parseStringish(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]interface{}:
		if raw, ok := t["id"]; ok {
			if s, ok := raw.(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
