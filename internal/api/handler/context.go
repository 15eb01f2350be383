package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/rbac-accounts/internal/api/middleware"
	"github.com/99minutos/rbac-accounts/internal/core/domain"
)

// sessionFromContext returns the session middleware.Auth verified for this request.
func sessionFromContext(c echo.Context) (*domain.Session, error) {
	sess, ok := c.Get(middleware.ContextSession).(*domain.Session)
	if !ok || sess == nil {
		return nil, domain.ErrUnauthenticated
	}
	return sess, nil
}
