package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/slotify/slotify/internal/dto"
	"github.com/slotify/slotify/internal/service"
)

var kindStatus = map[string]int{
	service.KindSlotNotFound:        http.StatusNotFound,
	service.KindReservationNotFound: http.StatusNotFound,
	service.KindAppointmentNotFound: http.StatusNotFound,
	service.KindInvalidPartySize:    http.StatusBadRequest,
	service.KindInvalidSlot:         http.StatusBadRequest,
	service.KindCapacityExceeded:    http.StatusConflict,
	service.KindInvalidState:        http.StatusConflict,
	service.KindRetryable:           http.StatusServiceUnavailable,
}

// serviceError maps a service error to an HTTP error carrying its kind.
func serviceError(c echo.Context, err error) error {
	kind := service.KindOf(err)

	code, ok := kindStatus[kind]
	if !ok {
		log.Printf("[Handler] %s %s: %v", c.Request().Method, c.Path(), err)
		return echo.NewHTTPError(http.StatusInternalServerError, dto.ErrorResponse{
			Kind:    service.KindInternal,
			Message: "internal server error",
		})
	}

	msg := err.Error()
	if kind == service.KindRetryable {
		c.Response().Header().Set("Retry-After", "1")
		msg = service.ErrRetryable.Error()
	}
	return echo.NewHTTPError(code, dto.ErrorResponse{Kind: kind, Message: msg})
}

func parseID(c echo.Context, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+what+" id")
	}
	return uint(id), nil
}
