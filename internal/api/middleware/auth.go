package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
	"github.com/99minutos/rbac-accounts/internal/core/service"
)

// Context keys set by Auth.
const (
	ContextSession = "session"
	ContextEmail   = "email"
	ContextRole    = "role"
)

// TokenParser validates a bearer token and returns its claims.
type TokenParser interface {
	Parse(raw string) (*service.SessionClaims, error)
}

// Auth validates the JWT, checks that it still belongs to the active session
// and injects the session into context.
func Auth(tokens TokenParser, sessions ports.SessionService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := tokens.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			// A token outlives its session after logout, a password change or a newer login.
			sess, err := sessions.Current(c.Request().Context())
			if err != nil {
				return err
			}
			if sess == nil || sess.ID != claims.SessionID {
				return echo.NewHTTPError(http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
			}

			c.Set(ContextSession, sess)
			c.Set(ContextEmail, sess.Email)
			c.Set(ContextRole, string(sess.Role))

			return next(c)
		}
	}
}
