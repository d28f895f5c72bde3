package types

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func NewLoginRequestFromContext(ctx echo.Context) (*LoginRequest, error) {
	var body LoginRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Username = strings.TrimSpace(body.Username)
	return &body, nil
}

func (r *LoginRequest) Validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
}

type StatsResponse struct {
	TotalReservations int64            `json:"total_reservations"`
	PaidReservations  int64            `json:"paid_reservations"`
	Privatizations    int64            `json:"privatizations"`
	ByStatus          map[string]int64 `json:"by_status"`
	SucceededPayments int64            `json:"succeeded_payments"`
	RevenueCents      int64            `json:"revenue_cents"`
}
