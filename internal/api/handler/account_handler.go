package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/rbac-accounts/internal/api/metrics"
	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

// AccountHandler serves the signed-in user's own pages.
type AccountHandler struct {
	accounts ports.AccountService
	sessions ports.SessionService
}

func NewAccountHandler(accounts ports.AccountService, sessions ports.SessionService) *AccountHandler {
	return &AccountHandler{accounts: accounts, sessions: sessions}
}

// Welcome returns the session snapshot and the account counts per role.
//
// @Summary      Welcome dashboard
// @Tags         account
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  welcomeResponse
// @Failure      401  {object}  map[string]string
// @Router       /welcome [get]
func (h *AccountHandler) Welcome(c echo.Context) error {
	sess, err := sessionFromContext(c)
	if err != nil {
		return err
	}

	stats, err := h.accounts.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, welcomeResponse{Session: toSessionResponse(*sess), Stats: stats})
}

// ChangePassword replaces the caller's password and signs them out.
//
// @Summary      Change password
// @Tags         account
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /account/password [post]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	sess, err := sessionFromContext(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	err = h.accounts.ChangePassword(ctx, sess.Email, req.CurrentPassword, req.NewPassword)
	metrics.PasswordChangesTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		metrics.ObservePolicyRejection(err)
		return err
	}

	if err := h.sessions.End(ctx); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Message:  "password updated, please sign in again",
		Redirect: domain.FragmentFor(domain.ViewLogin),
	})
}
