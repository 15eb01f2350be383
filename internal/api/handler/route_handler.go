package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/rbac-accounts/internal/api/metrics"
	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

// RouteHandler exposes the view router to clients that render the pages themselves.
type RouteHandler struct {
	sessions ports.SessionService
}

func NewRouteHandler(sessions ports.SessionService) *RouteHandler {
	return &RouteHandler{sessions: sessions}
}

// Resolve maps a location fragment to the view to render for the current session.
//
// @Summary      Resolve a view
// @Tags         routes
// @Produce      json
// @Param        fragment  query     string  false  "Location fragment, e.g. #/admin"
// @Param        startup   query     bool    false  "Apply the startup landing rules"
// @Success      200       {object}  domain.Resolution
// @Router       /routes/resolve [get]
func (h *RouteHandler) Resolve(c echo.Context) error {
	sess, err := h.sessions.Current(c.Request().Context())
	if err != nil {
		return err
	}

	fragment := c.QueryParam("fragment")
	startup, _ := strconv.ParseBool(c.QueryParam("startup"))

	var res domain.Resolution
	if startup {
		res = domain.Startup(fragment, sess)
	} else {
		res = domain.Resolve(fragment, sess)
	}
	metrics.RouteResolutionsTotal.WithLabelValues(string(res.View), strconv.FormatBool(res.Redirected)).Inc()

	return c.JSON(http.StatusOK, res)
}
