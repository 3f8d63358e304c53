package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentdesk/internal/app/commands"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/app/queries"
	"rentdesk/internal/domain/shared/apperr"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// statusFor maps the error taxonomy onto HTTP.
func statusFor(err error) (int, string) {
	if errors.Is(err, policies.ErrUnauthenticated) {
		return http.StatusUnauthorized, "unauthenticated"
	}
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		return http.StatusBadRequest, "validation"
	case apperr.ErrConflict:
		return http.StatusConflict, "conflict"
	case apperr.ErrInvalidState:
		return http.StatusConflict, "invalid_state"
	case apperr.ErrForbidden:
		return http.StatusForbidden, "forbidden"
	case apperr.ErrNotFound:
		return http.StatusNotFound, "not_found"
	}
	if errors.Is(err, commands.ErrHandlerNotFound) || errors.Is(err, queries.ErrHandlerNotFound) {
		return http.StatusNotImplemented, ""
	}
	return http.StatusInternalServerError, ""
}

func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status, kind := statusFor(err)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), "request failed", "route", c.FullPath(), "error", err)
		}
		c.JSON(status, errorBody{Error: "internal error"})
		return
	}
	c.JSON(status, errorBody{Error: err.Error(), Kind: kind})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorBody{Error: msg, Kind: "validation"})
}
