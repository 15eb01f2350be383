package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/rbac-accounts/internal/core/domain"
	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

type stubAccountService struct {
	queryFn          func(ctx context.Context, q domain.UserQuery) ([]domain.User, error)
	statsFn          func(ctx context.Context) (domain.RoleCounts, error)
	createFn         func(ctx context.Context, in ports.CreateAccountInput) (*domain.User, error)
	registerFn       func(ctx context.Context, email, name, password string) (*domain.User, error)
	verifyFn         func(ctx context.Context, email, password string) (*domain.User, error)
	changePasswordFn func(ctx context.Context, email, current, next string) error
	adminDeleteFn    func(ctx context.Context, actor domain.Session, email string) (bool, error)
}

func (s *stubAccountService) List(ctx context.Context) ([]domain.User, error) {
	return s.queryFn(ctx, domain.UserQuery{})
}

func (s *stubAccountService) Query(ctx context.Context, q domain.UserQuery) ([]domain.User, error) {
	return s.queryFn(ctx, q)
}

func (s *stubAccountService) Stats(ctx context.Context) (domain.RoleCounts, error) {
	return s.statsFn(ctx)
}

func (s *stubAccountService) Create(ctx context.Context, in ports.CreateAccountInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubAccountService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	return s.registerFn(ctx, email, name, password)
}

func (s *stubAccountService) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	return s.verifyFn(ctx, email, password)
}

func (s *stubAccountService) ChangePassword(ctx context.Context, email, current, next string) error {
	return s.changePasswordFn(ctx, email, current, next)
}

func (s *stubAccountService) Delete(ctx context.Context, email string) (bool, error) {
	return s.adminDeleteFn(ctx, domain.Session{}, email)
}

func (s *stubAccountService) AdminDelete(ctx context.Context, actor domain.Session, email string) (bool, error) {
	return s.adminDeleteFn(ctx, actor, email)
}

// stubSessionService keeps the single session in memory.
type stubSessionService struct {
	current *domain.Session
	ended   bool
}

func (s *stubSessionService) Start(_ context.Context, user domain.User) (*domain.Session, error) {
	sess := domain.SnapshotSession(user, "sid-1", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.current = &sess
	return &sess, nil
}

func (s *stubSessionService) Current(context.Context) (*domain.Session, error) {
	return s.current, nil
}

func (s *stubSessionService) End(context.Context) error {
	s.current = nil
	s.ended = true
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(sess domain.Session) (string, error) {
	return "token-" + sess.ID, nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newTestEcho()
	sessions := &stubSessionService{}
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, email, name, password string) (*domain.User, error) {
			if email != "alice@example.com" || name != "Alice" || password != "Abc123!@" {
				t.Fatalf("unexpected args: %s %s %s", email, name, password)
			}
			return &domain.User{Email: email, Name: name, Role: domain.RoleStudent, PasswordHash: "digest"}, nil
		},
	}
	h := NewAuthHandler(stub, sessions, stubTokens{})

	body := `{"name":"Alice","email":"alice@example.com","password":"Abc123!@","confirm":"Abc123!@"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token-sid-1" || resp["redirect"] != "#/welcome" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["email"] != "alice@example.com" || user["role"] != "Student" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
	if strings.Contains(rec.Body.String(), "digest") {
		t.Fatalf("password digest leaked: %s", rec.Body.String())
	}
	if sessions.current == nil || sessions.current.Email != "alice@example.com" {
		t.Fatalf("expected a session to be started")
	}
}

func TestAuthHandler_Register_PasswordsDoNotMatch(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, email, name, password string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, &stubSessionService{}, stubTokens{})

	body := `{"name":"Alice","email":"alice@example.com","password":"Abc123!@","confirm":"Abc123!#"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())

	err := h.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest || he.Message != "passwords do not match" {
		t.Fatalf("expected 400 passwords do not match, got %v", err)
	}
}

func TestAuthHandler_Register_MissingFieldIsValidationError(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAccountService{}, &stubSessionService{}, stubTokens{})

	body := `{"name":"","email":"alice@example.com","password":"x","confirm":"y"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())

	if err := h.Register(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	e := newTestEcho()
	sessions := &stubSessionService{}
	stub := &stubAccountService{
		registerFn: func(ctx context.Context, email, name, password string) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	h := NewAuthHandler(stub, sessions, stubTokens{})

	body := `{"name":"Bob","email":"bob@example.com","password":"Abc123!@","confirm":"Abc123!@"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", body), httptest.NewRecorder())

	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if sessions.current != nil {
		t.Fatalf("no session should be started on failure")
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAccountService{}, &stubSessionService{}, stubTokens{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/register", "not-json"), httptest.NewRecorder())

	err := h.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_AdminLandsOnAdmin(t *testing.T) {
	e := newTestEcho()
	stub := &stubAccountService{
		verifyFn: func(ctx context.Context, email, password string) (*domain.User, error) {
			if email != "admin@example.com" || password != "Admin@123" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &domain.User{Email: email, Name: "Administrator", Role: domain.RoleAdmin}, nil
		},
	}
	h := NewAuthHandler(stub, &stubSessionService{}, stubTokens{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"admin@example.com","password":"Admin@123"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Token != "token-sid-1" || resp.Redirect != "#/admin" || resp.Session.Role != domain.RoleAdmin {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newTestEcho()
	sessions := &stubSessionService{}
	stub := &stubAccountService{
		verifyFn: func(ctx context.Context, email, password string) (*domain.User, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(stub, sessions, stubTokens{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", `{"email":"alice@example.com","password":"bad"}`), httptest.NewRecorder())

	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if sessions.current != nil {
		t.Fatalf("no session should be started on failure")
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	h := NewAuthHandler(&stubAccountService{}, &stubSessionService{}, stubTokens{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/auth/login", "{"), httptest.NewRecorder())

	err := h.Login(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_LogoutAndSession(t *testing.T) {
	e := newTestEcho()
	sessions := &stubSessionService{}
	h := NewAuthHandler(&stubAccountService{}, sessions, stubTokens{})
	_, _ = sessions.Start(context.Background(), domain.User{Email: "a@example.com", Name: "A", Role: domain.RoleStudent})

	rec := httptest.NewRecorder()
	if err := h.Session(e.NewContext(httptest.NewRequest(http.MethodGet, "/session", nil), rec)); err != nil {
		t.Fatalf("session: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "a@example.com") {
		t.Fatalf("expected current session, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	if err := h.Logout(e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), rec)); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Code != http.StatusNoContent || !sessions.ended {
		t.Fatalf("expected 204 and ended session, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	_ = h.Session(e.NewContext(httptest.NewRequest(http.MethodGet, "/session", nil), rec))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 after logout, got %d", rec.Code)
	}
}
