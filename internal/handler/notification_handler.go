package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slotify/slotify/internal/repository"
)

type NotificationHandler struct {
	repo repository.NotificationRepository
}

func NewNotificationHandler(repo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/customers/:id/notifications", h.ListByCustomer)
}

func (h *NotificationHandler) ListByCustomer(c echo.Context) error {
	customerID := c.Param("id")
	if customerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "customer id is required")
	}

	notifications, err := h.repo.FindByCustomerID(c.Request().Context(), customerID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, notifications)
}
