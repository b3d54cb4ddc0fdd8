package session

import (
	"context"
	"errors"
	"testing"

	"github.com/vidalevel/habits/internal/apiclient"
	"github.com/vidalevel/habits/internal/events"
	"github.com/vidalevel/habits/internal/storage"
	"github.com/vidalevel/habits/internal/tokenstore"
	"github.com/vidalevel/habits/pkg/habit"
)

const validToken = "header.payload1.signature"

type mockAPI struct {
	loginCalls    int
	registerCalls int
	loginRes      *habit.LoginResponse
	loginErr      error
	registerErr   error
	registered    habit.RegisterRequest
}

func (f *mockAPI) Login(ctx context.Context, email, password string) (*habit.LoginResponse, error) {
	f.loginCalls++
	return f.loginRes, f.loginErr
}

func (f *mockAPI) RegisterUser(ctx context.Context, r habit.RegisterRequest) (*habit.User, error) {
	f.registerCalls++
	f.registered = r
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &habit.User{ID: 1, Name: r.Name, Email: r.Email}, nil
}

type mockNotifier struct {
	successes []string
	errors    []string
}

func (m *mockNotifier) Success(msg string) { m.successes = append(m.successes, msg) }
func (m *mockNotifier) Error(msg string)   { m.errors = append(m.errors, msg) }

func newManager(api *mockAPI) (*Manager, *tokenstore.Store, *storage.Memory, *mockNotifier) {
	kv := storage.NewMemory()
	tokens := tokenstore.New(kv)
	n := &mockNotifier{}
	return New(api, tokens, events.New(), n), tokens, kv, n
}

func okLogin(name string) *habit.LoginResponse {
	return &habit.LoginResponse{
		AccessToken: validToken,
		User:        &habit.User{ID: 7, Name: name, Email: "ana@x.com"},
	}
}

func TestLogin_Success(t *testing.T) {
	api := &mockAPI{loginRes: okLogin("Ana")}
	m, tokens, _, n := newManager(api)

	if err := m.Login(context.Background(), "ana@x.com", "pw1"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if m.State() != Authenticated {
		t.Fatalf("got state %v", m.State())
	}
	if tok, ok := tokens.Read(); !ok || tok != validToken {
		t.Fatal("token not persisted")
	}
	if u, ok := tokens.ReadUser(); !ok || u.Name != "Ana" {
		t.Fatal("user not persisted")
	}
	if len(n.successes) != 1 {
		t.Fatalf("got notifications %v", n.successes)
	}
}

func TestLogin_MissingUserIsInvalidResponse(t *testing.T) {
	api := &mockAPI{loginRes: &habit.LoginResponse{AccessToken: validToken}}
	m, tokens, _, n := newManager(api)

	err := m.Login(context.Background(), "ana@x.com", "pw1")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("got %v want ErrInvalidResponse", err)
	}
	if m.State() != Unauthenticated {
		t.Fatalf("got state %v", m.State())
	}
	if _, ok := tokens.Read(); ok {
		t.Fatal("token must not be persisted")
	}
	if len(n.errors) != 1 || n.errors[0] != "invalid server response" {
		t.Fatalf("got %v", n.errors)
	}
}

func TestLogin_MissingTokenIsInvalidResponse(t *testing.T) {
	api := &mockAPI{loginRes: &habit.LoginResponse{User: &habit.User{ID: 1}}}
	m, _, _, _ := newManager(api)

	if err := m.Login(context.Background(), "a@x.com", "pw"); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("got %v", err)
	}
	if m.User() != nil {
		t.Fatal("user must not be set")
	}
}

func TestLogin_MalformedTokenIsInvalidResponse(t *testing.T) {
	api := &mockAPI{loginRes: &habit.LoginResponse{AccessToken: "opaque", User: &habit.User{ID: 7, Name: "Ana"}}}
	kv := storage.NewMemory()
	tokens := tokenstore.New(kv)
	bus := events.New()
	ch, cancel := bus.Subscribe(events.SessionChanged)
	defer cancel()
	n := &mockNotifier{}
	m := New(api, tokens, bus, n)

	if err := m.Login(context.Background(), "ana@x.com", "pw1"); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("got %v want ErrInvalidResponse", err)
	}
	if m.State() != Unauthenticated || m.User() != nil {
		t.Fatalf("state=%v user=%v", m.State(), m.User())
	}
	if _, ok, _ := kv.Get("token"); ok {
		t.Fatal("token must not be persisted")
	}
	if len(n.successes) != 0 {
		t.Fatalf("got successes %v", n.successes)
	}
	select {
	case <-ch:
		t.Fatal("session.changed must not be published")
	default:
	}
}

func TestLogin_BackendErrorLeavesSessionUnchanged(t *testing.T) {
	api := &mockAPI{loginErr: &apiclient.APIError{Status: 401, Message: "bad credentials"}}
	m, _, _, n := newManager(api)

	err := m.Login(context.Background(), "a@x.com", "pw")
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v", err)
	}
	if m.State() != Unauthenticated {
		t.Fatalf("got state %v", m.State())
	}
	if len(n.errors) != 1 || n.errors[0] != "bad credentials" {
		t.Fatalf("got %v", n.errors)
	}
}

func TestLogin_EmptyCredentialsNoRequest(t *testing.T) {
	api := &mockAPI{}
	m, _, _, _ := newManager(api)

	err := m.Login(context.Background(), "", "pw")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v", err)
	}
	if api.loginCalls != 0 {
		t.Fatal("no request should be sent")
	}
}

func TestRegister_AutoLogin(t *testing.T) {
	api := &mockAPI{loginRes: okLogin("Ana")}
	m, _, _, _ := newManager(api)

	err := m.Register(context.Background(), Registration{
		Name: "Ana", Email: "ana@x.com", Password: "pw1", ConfirmPassword: "pw1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if m.State() != Authenticated {
		t.Fatalf("got state %v", m.State())
	}
	if u := m.User(); u == nil || u.Name != "Ana" {
		t.Fatalf("got user %+v", u)
	}
	if api.registerCalls != 1 || api.loginCalls != 1 {
		t.Fatalf("register=%d login=%d", api.registerCalls, api.loginCalls)
	}
	if api.registered.Avatar != nil {
		t.Fatal("avatar should be null when not given")
	}
}

func TestRegister_PasswordMismatchNoRequest(t *testing.T) {
	api := &mockAPI{loginRes: okLogin("Ana")}
	m, _, _, n := newManager(api)

	err := m.Register(context.Background(), Registration{
		Name: "Ana", Email: "ana@x.com", Password: "pw1", ConfirmPassword: "pw2",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v", err)
	}
	if api.registerCalls != 0 || api.loginCalls != 0 {
		t.Fatal("no request should be sent")
	}
	if m.State() != Unauthenticated {
		t.Fatalf("got state %v", m.State())
	}
	if len(n.errors) != 1 {
		t.Fatalf("got %v", n.errors)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	api := &mockAPI{}
	m, _, _, _ := newManager(api)

	err := m.Register(context.Background(), Registration{Email: "a@x.com", Password: "p", ConfirmPassword: "p"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v", err)
	}
	if api.registerCalls != 0 {
		t.Fatal("no request should be sent")
	}
}

func TestRegister_LoginFailureFails(t *testing.T) {
	api := &mockAPI{loginRes: &habit.LoginResponse{}}
	m, _, _, _ := newManager(api)

	err := m.Register(context.Background(), Registration{
		Name: "Ana", Email: "ana@x.com", Password: "pw1", ConfirmPassword: "pw1",
	})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("got %v", err)
	}
	if m.State() != Unauthenticated {
		t.Fatalf("got state %v", m.State())
	}
}

func TestLogout_Idempotent(t *testing.T) {
	api := &mockAPI{loginRes: okLogin("Ana")}
	m, tokens, _, _ := newManager(api)
	bus := m.bus
	ch, cancel := bus.Subscribe(events.SessionChanged)
	defer cancel()

	if err := m.Login(context.Background(), "ana@x.com", "pw1"); err != nil {
		t.Fatal(err)
	}
	<-ch

	if err := m.Logout(); err != nil {
		t.Fatal(err)
	}
	if err := m.Logout(); err != nil {
		t.Fatal(err)
	}
	if m.State() != Unauthenticated || m.User() != nil {
		t.Fatalf("got state %v user %v", m.State(), m.User())
	}
	if _, ok := tokens.Read(); ok {
		t.Fatal("token survived logout")
	}

	<-ch
	select {
	case <-ch:
		t.Fatal("second logout should not publish")
	default:
	}
}

func TestNew_RestoresSession(t *testing.T) {
	kv := storage.NewMemory()
	tokens := tokenstore.New(kv)
	_ = tokens.Save(validToken)
	_ = tokens.SaveUser(habit.User{ID: 3, Name: "Ana"})

	m := New(&mockAPI{}, tokens, events.New(), nil)
	if m.State() != Authenticated {
		t.Fatalf("got state %v", m.State())
	}
}

func TestNew_DropsUserWithoutValidToken(t *testing.T) {
	kv := storage.NewMemory()
	tokens := tokenstore.New(kv)
	_ = kv.Put(tokenstore.TokenKey, "garbage")
	_ = tokens.SaveUser(habit.User{ID: 3, Name: "Ana"})

	m := New(&mockAPI{}, tokens, events.New(), nil)
	if m.State() != Unauthenticated || m.User() != nil {
		t.Fatalf("got state %v", m.State())
	}
	if _, found, _ := kv.Get(tokenstore.UserKey); found {
		t.Fatal("stale cached user should be cleared")
	}
}

func TestIsAuthenticated_RechecksToken(t *testing.T) {
	api := &mockAPI{loginRes: okLogin("Ana")}
	m, _, kv, _ := newManager(api)
	if err := m.Login(context.Background(), "ana@x.com", "pw1"); err != nil {
		t.Fatal(err)
	}

	// token removed behind the manager's back
	_ = kv.Delete(tokenstore.TokenKey)
	if m.IsAuthenticated() {
		t.Fatal("expected unauthenticated after external token removal")
	}

	_ = kv.Put(tokenstore.TokenKey, "tampered")
	if m.IsAuthenticated() {
		t.Fatal("expected unauthenticated after tampering")
	}
}
