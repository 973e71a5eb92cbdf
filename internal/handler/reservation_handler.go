package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slotify/slotify/internal/availability"
	"github.com/slotify/slotify/internal/dto"
	"github.com/slotify/slotify/internal/models"
	"github.com/slotify/slotify/internal/service"
)

type ReservationHandler struct {
	svc service.SlotAllocator
	hub *availability.Hub
}

func NewReservationHandler(svc service.SlotAllocator, hub *availability.Hub) *ReservationHandler {
	return &ReservationHandler{svc: svc, hub: hub}
}

// RegisterRoutes mounts the booking routes. reserveMw wraps only the reserve
// endpoint, e.g. with a rate limiter.
func (h *ReservationHandler) RegisterRoutes(e *echo.Echo, reserveMw ...echo.MiddlewareFunc) {
	slots := e.Group("/api/v1/slots")
	slots.POST("/:id/reservations", h.Reserve, reserveMw...)
	slots.GET("/:id/reservations", h.ListReservations)
	slots.GET("/:id/availability", h.GetAvailability)
	slots.GET("/:id/availability/ws", h.StreamAvailability)
	slots.GET("/:id/audit", h.Audit)

	reservations := e.Group("/api/v1/reservations")
	reservations.GET("/:id", h.GetReservation)
	reservations.DELETE("/:id", h.Release)
	reservations.POST("/:id/confirm", h.Confirm)
}

func (h *ReservationHandler) Reserve(c echo.Context) error {
	slotID, err := parseID(c, "slot")
	if err != nil {
		return err
	}

	var req dto.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	reservation, err := h.svc.Reserve(c.Request().Context(), slotID, req.CustomerID, req.PartySize)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.ToReservationResponse(reservation))
}

// Release cancels a reservation. Repeating it returns the cancelled reservation.
func (h *ReservationHandler) Release(c echo.Context) error {
	id, err := parseID(c, "reservation")
	if err != nil {
		return err
	}

	reservation, err := h.svc.Release(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) Confirm(c echo.Context) error {
	id, err := parseID(c, "reservation")
	if err != nil {
		return err
	}

	reservation, err := h.svc.Confirm(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := parseID(c, "reservation")
	if err != nil {
		return err
	}

	reservation, err := h.svc.GetReservation(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) ListReservations(c echo.Context) error {
	slotID, err := parseID(c, "slot")
	if err != nil {
		return err
	}

	var status *models.ReservationStatus
	if s := c.QueryParam("status"); s != "" {
		rs := models.ReservationStatus(s)
		if !rs.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
		}
		status = &rs
	}

	reservations, err := h.svc.ListReservations(c.Request().Context(), slotID, status)
	if err != nil {
		return serviceError(c, err)
	}

	resp := make([]dto.ReservationResponse, len(reservations))
	for i := range reservations {
		resp[i] = dto.ToReservationResponse(&reservations[i])
	}

	return c.JSON(http.StatusOK, resp)
}

// GetAvailability serves the display copy. It may trail the latest commit.
func (h *ReservationHandler) GetAvailability(c echo.Context) error {
	slotID, err := parseID(c, "slot")
	if err != nil {
		return err
	}

	a, err := h.svc.Availability(c.Request().Context(), slotID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, a)
}

func (h *ReservationHandler) StreamAvailability(c echo.Context) error {
	slotID, err := parseID(c, "slot")
	if err != nil {
		return err
	}

	initial, err := h.svc.Availability(c.Request().Context(), slotID)
	if err != nil {
		return serviceError(c, err)
	}

	return h.hub.Serve(c.Response(), c.Request(), slotID, initial)
}

func (h *ReservationHandler) Audit(c echo.Context) error {
	slotID, err := parseID(c, "slot")
	if err != nil {
		return err
	}

	audit, err := h.svc.Audit(c.Request().Context(), slotID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, audit)
}
