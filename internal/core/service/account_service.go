package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

// UsersKey is the storage key holding the serialized account collection.
const UsersKey = "rbac_users_v1"

// AccountService owns the persisted account collection. Every mutation is a
// single atomic read-modify-write of the whole blob.
type AccountService struct {
	store  ports.KVStore
	hasher ports.PasswordHasher
	log    zerolog.Logger
	now    func() time.Time
}

func NewAccountService(store ports.KVStore, hasher ports.PasswordHasher, log zerolog.Logger) *AccountService {
	if hasher == nil {
		hasher = SHA256Hasher{}
	}
	return &AccountService{store: store, hasher: hasher, log: log, now: time.Now}
}

// List returns the accounts in insertion order. Missing or corrupt data is
// reported as an empty collection.
func (s *AccountService) List(ctx context.Context) ([]domain.User, error) {
	raw, err := s.store.Get(ctx, UsersKey)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return s.decode(raw), nil
}

// Query returns the accounts filtered and ordered for the admin table.
func (s *AccountService) Query(ctx context.Context, q domain.UserQuery) ([]domain.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ApplyQuery(users, q), nil
}

// Stats counts accounts per role.
func (s *AccountService) Stats(ctx context.Context) (domain.RoleCounts, error) {
	users, err := s.List(ctx)
	if err != nil {
		return domain.RoleCounts{}, err
	}
	return domain.CountByRole(users), nil
}

// Find looks an account up by case-insensitive email.
func (s *AccountService) Find(ctx context.Context, email string) (*domain.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(users, email); i >= 0 {
		u := users[i]
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

// Create validates and appends a new account. Checks run in order: required
// fields, duplicate email, password complexity.
func (s *AccountService) Create(ctx context.Context, in ports.CreateAccountInput) (*domain.User, error) {
	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" || in.Password == "" || in.Role == "" {
		return nil, domain.ErrValidation
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	weak := domain.ValidatePassword(in.Password)
	var hash string
	if weak == nil {
		var err error
		if hash, err = s.hasher.Hash(in.Password); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	var created domain.User
	err := s.store.Update(ctx, UsersKey, func(current []byte) ([]byte, error) {
		users := s.decode(current)
		if indexOf(users, email) >= 0 {
			return nil, domain.ErrDuplicateEmail
		}
		if weak != nil {
			return nil, weak
		}
		created = domain.User{
			Email:        email,
			Name:         name,
			PasswordHash: hash,
			Role:         in.Role,
			CreatedAt:    s.now().UTC(),
		}
		return encode(append(users, created))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("email", created.Email).Str("role", string(created.Role)).Msg("user created")
	return &created, nil
}

// Register is the self-service sign-up; the role is always Student.
func (s *AccountService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	return s.Create(ctx, ports.CreateAccountInput{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     domain.RoleStudent,
	})
}

// Verify checks credentials. Unknown email and wrong password produce the
// same error so callers cannot tell them apart.
func (s *AccountService) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(users, email)
	if i < 0 {
		s.log.Debug().Msg("login with unknown email")
		return nil, domain.ErrInvalidCredentials
	}
	if !s.hasher.Compare(users[i].PasswordHash, password) {
		s.log.Debug().Str("email", users[i].Email).Msg("login with wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	u := users[i]
	return &u, nil
}

// ChangePassword replaces the stored digest after checking the current
// password and the complexity of the new one. Nothing is written on failure.
func (s *AccountService) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	err := s.store.Update(ctx, UsersKey, func(current []byte) ([]byte, error) {
		users := s.decode(current)
		i := indexOf(users, email)
		if i < 0 {
			return nil, domain.ErrUserNotFound
		}
		if !s.hasher.Compare(users[i].PasswordHash, currentPassword) {
			return nil, domain.ErrIncorrectPassword
		}
		if err := domain.ValidatePassword(newPassword); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return nil, fmt.Errorf("change password: %w", err)
		}
		users[i].PasswordHash = hash
		return encode(users)
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("email", domain.NormalizeEmail(email)).Msg("password changed")
	return nil
}

// Delete removes the account matching email. It reports whether anything was
// removed and applies no policy guard; see AdminDelete.
func (s *AccountService) Delete(ctx context.Context, email string) (bool, error) {
	return s.remove(ctx, email, nil)
}

// AdminDelete deletes on behalf of actor, rejecting self-deletion and the
// removal of the last Admin. The guard and the delete share one update.
func (s *AccountService) AdminDelete(ctx context.Context, actor domain.Session, email string) (bool, error) {
	return s.remove(ctx, email, func(users []domain.User) error {
		return domain.CheckDeletion(actor.Email, users, email)
	})
}

// SeedAdmin creates the bootstrap Admin when the collection is empty.
func (s *AccountService) SeedAdmin(ctx context.Context, email, name, password string) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || strings.TrimSpace(name) == "" || password == "" {
		return false, domain.ErrValidation
	}
	if err := domain.ValidatePassword(password); err != nil {
		return false, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	seeded := false
	err = s.store.Update(ctx, UsersKey, func(current []byte) ([]byte, error) {
		seeded = false
		if len(s.decode(current)) > 0 {
			return nil, nil
		}
		seeded = true
		return encode([]domain.User{{
			Email:        email,
			Name:         strings.TrimSpace(name),
			PasswordHash: hash,
			Role:         domain.RoleAdmin,
			CreatedAt:    s.now().UTC(),
		}})
	})
	if err != nil {
		return false, err
	}

	if seeded {
		s.log.Info().Str("email", email).Msg("seeded admin account")
	}
	return seeded, nil
}

func (s *AccountService) remove(ctx context.Context, email string, guard func([]domain.User) error) (bool, error) {
	if domain.NormalizeEmail(email) == "" {
		return false, nil
	}

	removed := false
	err := s.store.Update(ctx, UsersKey, func(current []byte) ([]byte, error) {
		removed = false
		users := s.decode(current)
		if guard != nil {
			if err := guard(users); err != nil {
				return nil, err
			}
		}

		kept := make([]domain.User, 0, len(users))
		for _, u := range users {
			if !domain.SameEmail(u.Email, email) {
				kept = append(kept, u)
			}
		}
		if len(kept) == len(users) {
			return nil, nil
		}
		removed = true
		return encode(kept)
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.log.Info().Str("email", domain.NormalizeEmail(email)).Msg("user deleted")
	}
	return removed, nil
}

func (s *AccountService) decode(raw []byte) []domain.User {
	if len(raw) == 0 {
		return []domain.User{}
	}
	var users []domain.User
	if err := json.Unmarshal(raw, &users); err != nil {
		s.log.Warn().Err(err).Msg("stored users are unreadable, treating as empty")
		return []domain.User{}
	}
	if users == nil {
		users = []domain.User{}
	}
	return users
}

func encode(users []domain.User) ([]byte, error) {
	raw, err := json.Marshal(users)
	if err != nil {
		return nil, fmt.Errorf("encode users: %w", err)
	}
	return raw, nil
}

func indexOf(users []domain.User, email string) int {
	if domain.NormalizeEmail(email) == "" {
		return -1
	}
	for i, u := range users {
		if domain.SameEmail(u.Email, email) {
			return i
		}
	}
	return -1
}
