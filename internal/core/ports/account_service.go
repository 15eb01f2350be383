package ports

import (
	"context"

	"github.com/99minutos/rbac-accounts/internal/core/domain"
)

// CreateAccountInput carries the fields required to create an account.
type CreateAccountInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// PasswordHasher turns plaintext passwords into stored digests.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(digest, plain string) bool
}

// AccountService defines the account lifecycle operations.
type AccountService interface {
	List(ctx context.Context) ([]domain.User, error)
	Query(ctx context.Context, q domain.UserQuery) ([]domain.User, error)
	Stats(ctx context.Context) (domain.RoleCounts, error)
	Create(ctx context.Context, in CreateAccountInput) (*domain.User, error)
	Register(ctx context.Context, email, name, password string) (*domain.User, error)
	Verify(ctx context.Context, email, password string) (*domain.User, error)
	ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error
	Delete(ctx context.Context, email string) (bool, error)
	// AdminDelete applies the self-deletion and last-admin guards before deleting.
	AdminDelete(ctx context.Context, actor domain.Session, email string) (bool, error)
}

// SessionService manages the single active session.
type SessionService interface {
	Start(ctx context.Context, user domain.User) (*domain.Session, error)
	Current(ctx context.Context) (*domain.Session, error)
	End(ctx context.Context) error
}
