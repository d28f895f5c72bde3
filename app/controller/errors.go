package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/middleware"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
)

func writeError(ctx echo.Context, statusCode int, code, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message, Code: code})
}

func writeBadRequest(ctx echo.Context, message string) error {
	return writeError(ctx, http.StatusBadRequest, "validation_error", message)
}

// writeServiceError maps service errors onto the API error codes. Anything it
// does not recognise is logged and reported as an internal error.
func writeServiceError(ctx echo.Context, logger logrus.FieldLogger, err error, operation string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "validation failed", Code: "validation_error", Fields: verr.Fields})
	case errors.Is(err, service.ErrInvalidRequest):
		return writeError(ctx, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, service.ErrInvalidSignature):
		return writeError(ctx, http.StatusBadRequest, "invalid_signature", "invalid signature")
	case errors.Is(err, service.ErrUnauthorized):
		return writeError(ctx, http.StatusUnauthorized, "unauthorized", "authentication required")
	case errors.Is(err, service.ErrForbidden):
		return writeError(ctx, http.StatusForbidden, "forbidden", "access denied")
	case errors.Is(err, service.ErrReservationNotFound):
		return writeError(ctx, http.StatusNotFound, "not_found", "reservation not found")
	case errors.Is(err, service.ErrRoomNotFound):
		return writeError(ctx, http.StatusNotFound, "not_found", "room not found")
	case errors.Is(err, service.ErrPaymentNotFound):
		return writeError(ctx, http.StatusNotFound, "not_found", "payment not found")
	case errors.Is(err, service.ErrSlotConflict):
		return writeError(ctx, http.StatusConflict, "slot_conflict", "the slot is already booked")
	case errors.Is(err, service.ErrPaymentAlreadyExists):
		return writeError(ctx, http.StatusConflict, "conflict", "payment already exists")
	case errors.Is(err, service.ErrInvalidStatus):
		return writeError(ctx, http.StatusConflict, "invalid_status", err.Error())
	case errors.Is(err, service.ErrExternalService):
		factory.LoggerWithContext(logger, ctx).WithError(err).Warn(operation + " failed at payment provider")
		return writeError(ctx, http.StatusBadGateway, "external_service_error", "payment provider unavailable")
	default:
		factory.LoggerWithContext(logger, ctx).WithError(err).Error(operation + " failed")
		return writeError(ctx, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requesterFromContext(ctx echo.Context) service.Requester {
	userID, _ := ctx.Get(middleware.ContextUserID).(string)
	role, _ := ctx.Get(middleware.ContextRole).(string)
	return service.Requester{UserID: userID, Role: role}
}
