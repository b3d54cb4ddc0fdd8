package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vidalevel/habits/internal/events"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/internal/notify"
	"github.com/vidalevel/habits/internal/tokenstore"
	"github.com/vidalevel/habits/pkg/habit"
)

type State int

const (
	Unauthenticated State = iota
	Loading
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// ErrInvalidResponse is returned when the backend reports success but the
// login payload lacks a user or a token the token store would accept.
var ErrInvalidResponse = errors.New("invalid server response")

// ValidationError is a local input error detected before any request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type API interface {
	Login(ctx context.Context, email, password string) (*habit.LoginResponse, error)
	RegisterUser(ctx context.Context, r habit.RegisterRequest) (*habit.User, error)
}

type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Avatar          string
}

// Manager owns the authenticated identity. It is the only writer of the
// token store.
//
// Login and Register must not be called again while a previous call is in
// flight (State() == Loading); callers are expected to serialize them.
type Manager struct {
	api    API
	tokens *tokenstore.Store
	bus    *events.Bus
	notify notify.Notifier

	mu      sync.RWMutex
	user    *habit.User
	loading bool
}

// New restores any persisted session. A cached user without a valid token
// is dropped.
func New(api API, tokens *tokenstore.Store, bus *events.Bus, n notify.Notifier) *Manager {
	if n == nil {
		n = notify.Discard
	}
	m := &Manager{api: api, tokens: tokens, bus: bus, notify: n}

	u, ok := tokens.ReadUser()
	if !ok {
		return m
	}
	if _, valid := tokens.Read(); !valid {
		logger.Debug("Discarding cached user without a valid token", "user_id", u.ID)
		if err := tokens.Clear(); err != nil {
			logger.Warn("Failed to clear stale session", "error", err)
		}
		return m
	}
	m.user = u
	logger.Debug("Restored session", "user_id", u.ID)
	return m
}

// User returns a copy of the current user, or nil.
func (m *Manager) User() *habit.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// IsAuthenticated re-checks the stored token on every call.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	hasUser := m.user != nil
	m.mu.RUnlock()
	if !hasUser {
		return false
	}
	_, ok := m.tokens.Read()
	return ok
}

func (m *Manager) State() State {
	m.mu.RLock()
	loading := m.loading
	m.mu.RUnlock()
	if loading {
		return Loading
	}
	if m.IsAuthenticated() {
		return Authenticated
	}
	return Unauthenticated
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.loading = v
	m.mu.Unlock()
}

func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return m.fail(&ValidationError{Msg: "email and password are required"})
	}

	m.setLoading(true)
	defer m.setLoading(false)

	logger.DebugContext(ctx, "Logging in", "email", email)
	res, err := m.api.Login(ctx, email, password)
	if err != nil {
		logger.WarnContext(ctx, "Login failed", "email", email, "error", err)
		return m.fail(err)
	}
	if res == nil || res.User == nil || !tokenstore.IsLikelyJWT(res.AccessToken) {
		logger.WarnContext(ctx, "Login response missing a usable token or user", "email", email)
		return m.fail(ErrInvalidResponse)
	}

	if err := m.tokens.Save(res.AccessToken); err != nil {
		return m.fail(err)
	}
	if err := m.tokens.SaveUser(*res.User); err != nil {
		_ = m.tokens.Clear()
		return m.fail(err)
	}

	u := *res.User
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()

	logger.InfoContext(ctx, "Logged in", "user_id", u.ID)
	m.notify.Success("Logged in successfully")
	m.publish()
	return nil
}

// Register validates locally, creates the account and then logs in with the
// same credentials.
func (m *Manager) Register(ctx context.Context, r Registration) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	if r.Name == "" || r.Email == "" || r.Password == "" {
		return m.fail(&ValidationError{Msg: "name, email and password are required"})
	}
	if r.Password != r.ConfirmPassword {
		return m.fail(&ValidationError{Msg: "passwords do not match"})
	}

	m.setLoading(true)
	req := habit.RegisterRequest{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
	if r.Avatar != "" {
		req.Avatar = &r.Avatar
	}
	_, err := m.api.RegisterUser(ctx, req)
	m.setLoading(false)
	if err != nil {
		logger.WarnContext(ctx, "Registration failed", "email", r.Email, "error", err)
		return m.fail(err)
	}

	logger.InfoContext(ctx, "Account created", "email", r.Email)
	m.notify.Success("Account created, logging in")
	if err := m.Login(ctx, r.Email, r.Password); err != nil {
		return fmt.Errorf("login after registration: %w", err)
	}
	return nil
}

// Logout is safe to call without a session.
func (m *Manager) Logout() error {
	m.mu.Lock()
	had := m.user != nil
	m.user = nil
	m.mu.Unlock()

	if err := m.tokens.Clear(); err != nil {
		return err
	}
	if had {
		logger.Info("Logged out")
		m.notify.Success("Logged out")
		m.publish()
	}
	return nil
}

func (m *Manager) fail(err error) error {
	m.notify.Error(err.Error())
	return err
}

func (m *Manager) publish() {
	if m.bus != nil {
		m.bus.Publish(events.SessionChanged)
	}
}
