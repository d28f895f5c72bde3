package controller

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/auth"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
	"github.com/vibast-solutions/ms-go-reservations/config"
)

type AuthController struct {
	issuer *auth.TokenIssuer
	cfg    config.AuthConfig
	logger logrus.FieldLogger
}

func NewAuthController(issuer *auth.TokenIssuer, cfg config.AuthConfig) *AuthController {
	return &AuthController{
		issuer: issuer,
		cfg:    cfg,
		logger: factory.NewModuleLogger("auth-controller"),
	}
}

// Login authenticates the configured admin account.
func (c *AuthController) Login(ctx echo.Context) error {
	req, err := types.NewLoginRequestFromContext(ctx)
	if err != nil {
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	if req.Username != c.cfg.AdminUsername || !auth.VerifyPassword(c.cfg.AdminPasswordHash, req.Password) {
		factory.LoggerWithContext(c.logger, ctx).WithFields(logrus.Fields{
			"username":       req.Username,
			"security_event": true,
		}).Warn("Rejected login")
		return writeError(ctx, http.StatusUnauthorized, "unauthorized", "invalid credentials")
	}

	token, err := c.issuer.Issue(req.Username, service.RoleAdmin)
	if err != nil {
		factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Issue token failed")
		return writeError(ctx, http.StatusInternalServerError, "internal_error", "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.LoginResponse{
		Token:     token.Token,
		TokenType: "Bearer",
		ExpiresAt: token.ExpiresAt.UTC().Format(time.RFC3339),
	})
}
