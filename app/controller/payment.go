package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/mapper"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
)

type PaymentController struct {
	reservationService *service.ReservationService
	logger             logrus.FieldLogger
}

func NewPaymentController(reservationService *service.ReservationService) *PaymentController {
	return &PaymentController{
		reservationService: reservationService,
		logger:             factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Calculate(ctx echo.Context) error {
	req, err := types.NewCalculatePriceRequestFromContext(ctx)
	if err != nil {
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	quote, err := c.reservationService.CalculatePrice(req.Persons)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Calculate price")
	}

	return ctx.JSON(http.StatusOK, mapper.QuoteToResponse(quote))
}

func (c *PaymentController) CreateReservation(ctx echo.Context) error {
	req, err := types.NewCreatePrivatizationRequestFromContext(ctx)
	if err != nil {
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	result, err := c.reservationService.Submit(ctx.Request().Context(), req, requesterFromContext(ctx))
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Create privatization")
	}

	return ctx.JSON(http.StatusCreated, mapper.CheckoutToResponse(result))
}

func (c *PaymentController) SessionStatus(ctx echo.Context) error {
	req := types.NewSessionStatusRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	status, err := c.reservationService.GetSessionStatus(ctx.Request().Context(), req.SessionID)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Get session status")
	}

	return ctx.JSON(http.StatusOK, mapper.SessionStatusToResponse(req.SessionID, status))
}

func (c *PaymentController) Refund(ctx echo.Context) error {
	req, err := types.NewRefundRequestFromContext(ctx)
	if err != nil {
		return writeBadRequest(ctx, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	reservation, payment, err := c.reservationService.AdminRefund(ctx.Request().Context(), req.ReservationID, req.AmountCents, req.Reason)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Refund reservation")
	}

	factory.LoggerWithContext(c.logger, ctx).WithFields(logrus.Fields{
		"reservation_id": reservation.ID,
		"payment_id":     payment.ID,
		"refunded_cents": payment.RefundedCents,
	}).Info("Reservation refunded")
	return ctx.JSON(http.StatusOK, &types.RefundResponse{
		Reservation: mapper.ReservationToResponse(reservation),
		Payment:     mapper.PaymentToResponse(payment),
	})
}
