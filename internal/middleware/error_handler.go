package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/slotify/slotify/internal/dto"
)

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	resp := dto.ErrorResponse{Message: err.Error()}

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch m := he.Message.(type) {
		case dto.ErrorResponse:
			resp = m
		case string:
			resp.Message = m
		}
	}

	_ = c.JSON(code, resp)
}
