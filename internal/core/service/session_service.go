package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

// SessionKey is the storage key holding the current session.
const SessionKey = "rbac_session_v1"

// SessionService keeps at most one session. A new Start replaces the previous one.
type SessionService struct {
	store ports.KVStore
	log   zerolog.Logger
	now   func() time.Time
	newID func() string
}

func NewSessionService(store ports.KVStore, log zerolog.Logger) *SessionService {
	return &SessionService{store: store, log: log, now: time.Now, newID: uuid.NewString}
}

// Start snapshots user into a new session and persists it.
func (s *SessionService) Start(ctx context.Context, user domain.User) (*domain.Session, error) {
	sess := domain.SnapshotSession(user, s.newID(), s.now().UTC())
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Put(ctx, SessionKey, raw); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.log.Info().Str("email", sess.Email).Str("role", string(sess.Role)).Msg("session started")
	return &sess, nil
}

// Current returns the active session, or nil when there is none or the
// stored record cannot be read.
func (s *SessionService) Current(ctx context.Context) (*domain.Session, error) {
	raw, err := s.store.Get(ctx, SessionKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var sess *domain.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		s.log.Warn().Err(err).Msg("stored session is unreadable, treating as signed out")
		return nil, nil
	}
	if sess == nil || sess.Email == "" {
		return nil, nil
	}
	return sess, nil
}

// End removes the active session, if any.
func (s *SessionService) End(ctx context.Context) error {
	if err := s.store.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.log.Info().Msg("session ended")
	return nil
}
