package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/rbac-accounts/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// domainStatus maps each domain sentinel to its HTTP status. The sentinel's own
// message is what the client sees.
var domainStatus = []struct {
	err  error
	code int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrWeakPassword, http.StatusBadRequest},
	{domain.ErrInvalidRole, http.StatusBadRequest},
	{domain.ErrIncorrectPassword, http.StatusBadRequest},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrDuplicateEmail, http.StatusConflict},
	{domain.ErrSelfDeletion, http.StatusConflict},
	{domain.ErrLastAdmin, http.StatusConflict},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range domainStatus {
		if errors.Is(err, m.err) {
			return m.code, m.err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
