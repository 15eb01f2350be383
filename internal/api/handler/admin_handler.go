package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/rbac-accounts/internal/api/metrics"
	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

// AdminHandler serves the user management table. Every route requires the Admin role.
type AdminHandler struct {
	accounts ports.AccountService
}

func NewAdminHandler(accounts ports.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// ListUsers returns the filtered and sorted user table.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  false  "Case-insensitive search on name or email"
// @Param        role  query     string  false  "Role filter"  Enums(Admin, Student)
// @Param        sort  query     string  false  "Sort order"   Enums(name_asc, name_desc, date_asc, date_desc)
// @Success      200   {object}  listUsersResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	q := domain.UserQuery{
		Search: c.QueryParam("q"),
		Role:   domain.Role(c.QueryParam("role")),
		Sort:   c.QueryParam("sort"),
	}
	if q.Role != "" && !q.Role.Valid() {
		return domain.ErrInvalidRole
	}

	users, err := h.accounts.Query(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listUsersResponse{Users: toUserResponses(users), Count: len(users)})
}

// CreateUser adds an account with an explicit role.
//
// @Summary      Create user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "New account"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.ObservePolicyRejection(err)
		return err
	}

	user, err := h.accounts.Create(c.Request().Context(), ports.CreateAccountInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		metrics.ObservePolicyRejection(err)
		return err
	}
	metrics.AccountsCreatedTotal.WithLabelValues(string(user.Role), "admin").Inc()

	return c.JSON(http.StatusCreated, toUserResponse(*user))
}

// DeleteUser removes an account after the self-deletion and last-admin checks.
//
// @Summary      Delete user
// @Tags         admin
// @Security     BearerAuth
// @Param        email  path  string  true  "Account email"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /admin/users/{email} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actor, err := sessionFromContext(c)
	if err != nil {
		return err
	}

	email, err := url.PathUnescape(c.Param("email"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}

	deleted, err := h.accounts.AdminDelete(c.Request().Context(), *actor, email)
	if err != nil {
		metrics.ObservePolicyRejection(err)
		return err
	}
	if !deleted {
		return domain.ErrUserNotFound
	}
	metrics.AccountsDeletedTotal.Inc()

	return c.NoContent(http.StatusNoContent)
}
