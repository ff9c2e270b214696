// Package response writes the API envelope and converts handler errors into it.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Page is the data payload of paginated listings.
type Page[T any] struct {
	Items []T   `json:"items"`
	Page  int64 `json:"page"`
	Limit int64 `json:"limit"`
	Total int64 `json:"total"`
}

// JSON writes a successful envelope.
func JSON(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// OK writes a 200 envelope.
func OK(c echo.Context, message string, data any) error {
	return JSON(c, http.StatusOK, message, data)
}

// Created writes a 201 envelope.
func Created(c echo.Context, message string, data any) error {
	return JSON(c, http.StatusCreated, message, data)
}

// ErrorHandler returns an echo.HTTPErrorHandler that renders every error as an envelope.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := resolve(err)
		if status >= http.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("uri", c.Request().RequestURI).
				Int("status", status).
				Msg("request failed")
		}

		body := Envelope{Success: false, Message: message}
		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Error().Err(writeErr).Msg("failed to write error response")
		}
	}
}

func resolve(err error) (int, string) {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		status := apperr.HTTPStatus(appErr.Kind)
		if status >= http.StatusInternalServerError && appErr.Kind != apperr.KindUpstream {
			return status, http.StatusText(status)
		}
		return status, appErr.Message
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := http.StatusText(httpErr.Code)
		if httpErr.Message != nil {
			msg = fmt.Sprint(httpErr.Message)
		}
		return httpErr.Code, msg
	}

	return http.StatusInternalServerError, "Internal server error"
}
