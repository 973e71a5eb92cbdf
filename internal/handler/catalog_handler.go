package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/slotify/slotify/internal/dto"
	"github.com/slotify/slotify/internal/models"
	"github.com/slotify/slotify/internal/service"
)

type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) RegisterRoutes(e *echo.Echo) {
	appointments := e.Group("/api/v1/appointments")
	appointments.POST("", h.CreateAppointment)
	appointments.GET("", h.ListAppointments)
	appointments.GET("/:id", h.GetAppointment)
	appointments.POST("/:id/slots", h.CreateSlot)
	appointments.GET("/:id/slots", h.ListSlots)

	e.GET("/api/v1/slots/:id", h.GetSlot)
}

func (h *CatalogHandler) CreateAppointment(c echo.Context) error {
	var req dto.CreateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	appointment := &models.Appointment{
		OrganizerID:     req.OrganizerID,
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		DefaultCapacity: req.DefaultCapacity,
		Price:           req.Price,
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), appointment); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.ToAppointmentResponse(appointment))
}

func (h *CatalogHandler) ListAppointments(c echo.Context) error {
	appointments, err := h.svc.ListAppointments(c.Request().Context(), c.QueryParam("organizer_id"))
	if err != nil {
		return serviceError(c, err)
	}

	resp := make([]dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		resp[i] = dto.ToAppointmentResponse(&appointments[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetAppointment(c echo.Context) error {
	id, err := parseID(c, "appointment")
	if err != nil {
		return err
	}

	appointment, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToAppointmentResponse(appointment))
}

func (h *CatalogHandler) CreateSlot(c echo.Context) error {
	appointmentID, err := parseID(c, "appointment")
	if err != nil {
		return err
	}

	var req dto.CreateSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	slot := &models.TimeSlot{
		AppointmentID: appointmentID,
		Date:          date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		MaxCapacity:   req.MaxCapacity,
	}
	if err := h.svc.CreateSlot(c.Request().Context(), slot); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.ToSlotResponse(slot))
}

func (h *CatalogHandler) ListSlots(c echo.Context) error {
	appointmentID, err := parseID(c, "appointment")
	if err != nil {
		return err
	}

	slots, err := h.svc.ListSlots(c.Request().Context(), appointmentID)
	if err != nil {
		return serviceError(c, err)
	}

	resp := make([]dto.SlotResponse, len(slots))
	for i := range slots {
		resp[i] = dto.ToSlotResponse(&slots[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) GetSlot(c echo.Context) error {
	id, err := parseID(c, "slot")
	if err != nil {
		return err
	}

	slot, err := h.svc.GetSlot(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToSlotResponse(slot))
}
