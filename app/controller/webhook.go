package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
)

type WebhookController struct {
	webhookService *service.WebhookService
	logger         logrus.FieldLogger
}

func NewWebhookController(webhookService *service.WebhookService) *WebhookController {
	return &WebhookController{
		webhookService: webhookService,
		logger:         factory.NewModuleLogger("webhooks-controller"),
	}
}

// Stripe answers 200 for everything that was handled or deliberately ignored
// and 500 when the event should be redelivered.
func (c *WebhookController) Stripe(ctx echo.Context) error {
	req, err := types.NewWebhookRequestFromContext(ctx)
	if errors.Is(err, types.ErrPayloadTooLarge) {
		factory.LoggerWithContext(c.logger, ctx).Warn("Rejected oversized stripe webhook")
		return writeError(ctx, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
	}
	if err != nil {
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	result, err := c.webhookService.Handle(ctx.Request().Context(), req.Payload, req.Signature)
	if err != nil {
		return c.writeWebhookError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, &types.WebhookResponse{Received: true, Status: result.Status, Outcome: result.Outcome})
}

// writeWebhookError answers 400 only for signature failures. Every other
// processing error is a 500 so that Stripe redelivers the event.
func (c *WebhookController) writeWebhookError(ctx echo.Context, err error) error {
	if errors.Is(err, service.ErrInvalidSignature) {
		return writeError(ctx, http.StatusBadRequest, "invalid_signature", "invalid signature")
	}
	factory.LoggerWithContext(c.logger, ctx).WithError(err).Error("Handle stripe webhook failed")
	return writeError(ctx, http.StatusInternalServerError, "internal_error", "webhook processing failed")
}
