package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/vidtube/backend/internal/apperr"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid argument", apperr.InvalidArgument("title is required"), http.StatusBadRequest, "title is required"},
		{"unauthenticated", apperr.Unauthenticated("Unauthorized request"), http.StatusUnauthorized, "Unauthorized request"},
		{"forbidden", apperr.Forbidden("You are not the owner"), http.StatusForbidden, "You are not the owner"},
		{"not found", apperr.NotFound("Video not found"), http.StatusNotFound, "Video not found"},
		{"conflict", apperr.Conflict("Username already exists"), http.StatusConflict, "Username already exists"},
		{"upstream keeps its message", apperr.Upstream("Failed to list videos", cause), http.StatusInternalServerError, "Failed to list videos"},
		{"wrapped upstream", fmt.Errorf("publish: %w", apperr.Upstream("Failed to upload videoFile", cause)), http.StatusInternalServerError, "Failed to upload videoFile"},
		{"internal hides its message", &apperr.Error{Kind: apperr.KindInternal, Message: "db password is wrong"}, http.StatusInternalServerError, "Internal Server Error"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"), http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"plain error", cause, http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := resolve(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestErrorHandler_WritesEnvelope(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	rec := httptest.NewRecorder()

	ErrorHandler(zerolog.Nop())(apperr.Upstream("Failed to list videos", errors.New("timeout")), e.NewContext(req, rec))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Failed to list videos","data":null}`, rec.Body.String())
}
