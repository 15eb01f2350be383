package handler

import (
	"time"

	"github.com/99minutos/rbac-accounts/internal/core/domain"
)

// ── Requests ────────────────────────────────────────────────────────────────

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirm" validate:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	Confirm         string `json:"confirm" validate:"required,eqfield=NewPassword"`
}

type createUserRequest struct {
	Name     string      `json:"name" validate:"required"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
	Role     domain.Role `json:"role" validate:"required"`
}

// ── Responses ───────────────────────────────────────────────────────────────

// userResponse is the public view of an account. The digest never leaves the service.
type userResponse struct {
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type sessionResponse struct {
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

type authResponse struct {
	Token    string          `json:"token"`
	User     userResponse    `json:"user"`
	Session  sessionResponse `json:"session"`
	Redirect string          `json:"redirect"`
}

type welcomeResponse struct {
	Session sessionResponse   `json:"session"`
	Stats   domain.RoleCounts `json:"stats"`
}

type listUsersResponse struct {
	Users []userResponse `json:"users"`
	Count int            `json:"count"`
}

type messageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// ── Mappers ─────────────────────────────────────────────────────────────────

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

func toSessionResponse(s domain.Session) sessionResponse {
	return sessionResponse{
		Email:     s.Email,
		Name:      s.Name,
		Role:      s.Role,
		CreatedAt: s.CreatedAt,
	}
}
