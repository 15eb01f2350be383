package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/rbac-accounts/internal/api/metrics"
	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

// TokenIssuer signs a bearer token bound to one session.
type TokenIssuer interface {
	Issue(sess domain.Session) (string, error)
}

type AuthHandler struct {
	accounts ports.AccountService
	sessions ports.SessionService
	tokens   TokenIssuer
}

func NewAuthHandler(accounts ports.AccountService, sessions ports.SessionService, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{accounts: accounts, sessions: sessions, tokens: tokens}
}

// Register creates a Student account and signs the new user in.
//
// @Summary      Register a new student
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration form"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.ObservePolicyRejection(err)
		return err
	}

	user, err := h.accounts.Register(c.Request().Context(), req.Email, req.Name, req.Password)
	if err != nil {
		metrics.ObservePolicyRejection(err)
		return err
	}
	metrics.AccountsCreatedTotal.WithLabelValues(string(user.Role), "register").Inc()

	resp, err := h.signIn(c, *user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login authenticates a user, replaces the active session and returns a token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.accounts.Verify(c.Request().Context(), req.Email, req.Password)
	metrics.LoginAttemptsTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	resp, err := h.signIn(c, *user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout ends the active session.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.End(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Session returns the active session, or 204 when nobody is signed in.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Success      204
// @Router       /session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sess, err := h.sessions.Current(c.Request().Context())
	if err != nil {
		return err
	}
	if sess == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, toSessionResponse(*sess))
}

func (h *AuthHandler) signIn(c echo.Context, user domain.User) (authResponse, error) {
	sess, err := h.sessions.Start(c.Request().Context(), user)
	if err != nil {
		return authResponse{}, err
	}
	token, err := h.tokens.Issue(*sess)
	if err != nil {
		return authResponse{}, err
	}
	return authResponse{
		Token:    token,
		User:     toUserResponse(user),
		Session:  toSessionResponse(*sess),
		Redirect: domain.LandingFragment(user.Role),
	}, nil
}
