package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/pkg/habit"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req habit.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	acct, ok := s.store.userByEmail(strings.TrimSpace(req.Email))
	if !ok || !checkPassword(acct.passwordHash, req.Password) {
		logger.Info("Login rejected", "email", req.Email)
		recordAuthEvent("login", "failed")
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.issueToken(acct.ID)
	if err != nil {
		logger.Error("Failed to sign token", "user_id", acct.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	recordAuthEvent("login", "success")
	logger.Info("User logged in", "user_id", acct.ID)
	u := acct.User
	_ = writeJSON(w, http.StatusOK, habit.LoginResponse{AccessToken: token, User: &u})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req habit.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if problems := validateRegistration(req); problems != nil {
		_ = writeJSON(w, http.StatusBadRequest, map[string]any{"message": problems})
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	u := habit.User{Name: strings.TrimSpace(req.Name), Email: strings.TrimSpace(req.Email)}
	if req.Avatar != nil {
		u.Avatar = *req.Avatar
	}
	created, err := s.store.createUser(u, hash)
	if errors.Is(err, errEmailTaken) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	recordAuthEvent("register", "success")
	logger.Info("User registered", "user_id", created.ID)
	_ = writeJSON(w, http.StatusCreated, created)
}

// validateRegistration reports problems per field, the way form-backed
// backends do.
func validateRegistration(req habit.RegisterRequest) map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		problems["name"] = "name is required"
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		problems["email"] = "a valid email is required"
	}
	if len(req.Password) < 3 {
		problems["password"] = "password must be at least 3 characters"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	_ = writeJSON(w, http.StatusOK, s.store.listUsers())
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	u, found := s.store.user(id)
	if !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	_ = writeJSON(w, http.StatusOK, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	if id != userIDFromContext(r) {
		writeError(w, http.StatusForbidden, "cannot modify another user")
		return
	}
	var fields struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	u, err := s.store.updateUser(id, func(u *habit.User) {
		if fields.Name != nil && strings.TrimSpace(*fields.Name) != "" {
			u.Name = strings.TrimSpace(*fields.Name)
		}
		if fields.Avatar != nil {
			u.Avatar = *fields.Avatar
		}
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	_ = writeJSON(w, http.StatusOK, u)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, param+" must be a positive integer")
		return 0, false
	}
	return id, true
}
