package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-reservations/app/factory"
	"github.com/vibast-solutions/ms-go-reservations/app/mapper"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminController struct {
	reservationService *service.ReservationService
	logger             logrus.FieldLogger
}

func NewAdminController(reservationService *service.ReservationService) *AdminController {
	return &AdminController{
		reservationService: reservationService,
		logger:             factory.NewModuleLogger("admin-controller"),
	}
}

func (c *AdminController) Stats(ctx echo.Context) error {
	stats, err := c.reservationService.Stats(ctx.Request().Context())
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Load stats")
	}
	return ctx.JSON(http.StatusOK, mapper.StatsToResponse(stats))
}

func (c *AdminController) ReservationPayments(ctx echo.Context) error {
	req, err := types.NewReservationIDRequestFromContext(ctx, "id")
	if err != nil {
		return writeBadRequest(ctx, "invalid reservation id")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	items, err := c.reservationService.Payments(ctx.Request().Context(), req.ID)
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "List reservation payments")
	}
	return ctx.JSON(http.StatusOK, &types.ReservationPaymentsResponse{Payments: mapper.PaymentsToResponse(items)})
}

// Export buffers the workbook so that a failure still yields a JSON error.
func (c *AdminController) Export(ctx echo.Context) error {
	req, err := types.NewListReservationsRequestFromContext(ctx)
	if err != nil {
		return writeBadRequest(ctx, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	var buf bytes.Buffer
	if err := c.reservationService.Export(ctx.Request().Context(), req, &buf); err != nil {
		return writeServiceError(ctx, c.logger, err, "Export reservations")
	}

	filename := fmt.Sprintf("reservations_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
