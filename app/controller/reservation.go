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

type ReservationController struct {
	reservationService *service.ReservationService
	logger             logrus.FieldLogger
}

func NewReservationController(reservationService *service.ReservationService) *ReservationController {
	return &ReservationController{
		reservationService: reservationService,
		logger:             factory.NewModuleLogger("reservations-controller"),
	}
}

func (c *ReservationController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *ReservationController) ListRooms(ctx echo.Context) error {
	rooms, err := c.reservationService.Rooms(ctx.Request().Context())
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "List rooms")
	}
	return ctx.JSON(http.StatusOK, &types.ListRoomsResponse{Rooms: mapper.RoomsToResponse(rooms)})
}

func (c *ReservationController) Submit(ctx echo.Context) error {
	req, err := types.NewSubmitReservationRequestFromContext(ctx)
	if err != nil {
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}
	if req.Kind == "privatization" {
		return writeBadRequest(ctx, "privatizations are booked through /payment/create-reservation")
	}

	result, err := c.reservationService.Submit(ctx.Request().Context(), req, requesterFromContext(ctx))
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Submit reservation")
	}

	return ctx.JSON(http.StatusCreated, &types.ReservationEnvelopeResponse{Reservation: mapper.ReservationToResponse(result.Reservation)})
}

func (c *ReservationController) List(ctx echo.Context) error {
	req, err := types.NewListReservationsRequestFromContext(ctx)
	if err != nil {
		return writeBadRequest(ctx, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	items, err := c.reservationService.List(ctx.Request().Context(), req, requesterFromContext(ctx))
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "List reservations")
	}

	return ctx.JSON(http.StatusOK, &types.ListReservationsResponse{Reservations: mapper.ReservationsToResponse(items)})
}

func (c *ReservationController) Get(ctx echo.Context) error {
	req, err := types.NewReservationIDRequestFromContext(ctx, "id")
	if err != nil {
		return writeBadRequest(ctx, "invalid reservation id")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	item, err := c.reservationService.Get(ctx.Request().Context(), req.ID, requesterFromContext(ctx))
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Get reservation")
	}

	return ctx.JSON(http.StatusOK, &types.ReservationEnvelopeResponse{Reservation: mapper.ReservationToResponse(item)})
}

func (c *ReservationController) Update(ctx echo.Context) error {
	req, err := types.NewUpdateReservationRequestFromContext(ctx)
	if err != nil {
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	item, err := c.reservationService.Update(ctx.Request().Context(), req.ID, req, requesterFromContext(ctx))
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Update reservation")
	}

	return ctx.JSON(http.StatusOK, &types.ReservationEnvelopeResponse{Reservation: mapper.ReservationToResponse(item)})
}

func (c *ReservationController) Cancel(ctx echo.Context) error {
	req, err := types.NewReservationIDRequestFromContext(ctx, "id")
	if err != nil {
		return writeBadRequest(ctx, "invalid reservation id")
	}
	if err := req.Validate(); err != nil {
		return writeBadRequest(ctx, err.Error())
	}

	item, err := c.reservationService.Cancel(ctx.Request().Context(), req.ID, requesterFromContext(ctx))
	if err != nil {
		return writeServiceError(ctx, c.logger, err, "Cancel reservation")
	}

	return ctx.JSON(http.StatusOK, &types.ReservationEnvelopeResponse{Reservation: mapper.ReservationToResponse(item)})
}
