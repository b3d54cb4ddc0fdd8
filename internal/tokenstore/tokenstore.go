// Package tokenstore persists the session bearer token and the cached user
// profile, and decides whether a stored token is usable.
//
// Tokens are only checked for shape. The client never verifies signatures;
// that is the backend's job.
package tokenstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vidalevel/habits/internal/logger"
	"github.com/vidalevel/habits/internal/storage"
	"github.com/vidalevel/habits/pkg/habit"
	"golang.org/x/oauth2"
)

const (
	TokenKey = "token"
	UserKey  = "auth_user"

	minSegmentLen = 6
)

type Store struct {
	kv storage.Store
}

func New(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// IsLikelyJWT reports whether token has three dot-separated segments, each
// longer than five characters.
func IsLikelyJWT(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if len(p) < minSegmentLen {
			return false
		}
	}
	return true
}

func (s *Store) Save(token string) error {
	if err := s.kv.Put(TokenKey, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Read returns the stored token if it looks valid. Anything else stored under
// the token key is purged.
func (s *Store) Read() (string, bool) {
	token, found, err := s.kv.Get(TokenKey)
	if err != nil {
		logger.Warn("Failed to read stored token", "error", err)
		return "", false
	}
	if !found {
		return "", false
	}
	if !IsLikelyJWT(token) {
		logger.Debug("Purging malformed stored token")
		if err := s.kv.Delete(TokenKey); err != nil {
			logger.Warn("Failed to purge malformed token", "error", err)
		}
		return "", false
	}
	return token, true
}

// OAuthToken wraps the stored token for use with oauth2.Token.SetAuthHeader.
func (s *Store) OAuthToken() (*oauth2.Token, bool) {
	token, ok := s.Read()
	if !ok {
		return nil, false
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, true
}

// Clear removes both the token and the cached user.
func (s *Store) Clear() error {
	if err := s.kv.Delete(TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if err := s.kv.Delete(UserKey); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	return nil
}

func (s *Store) SaveUser(u habit.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	if err := s.kv.Put(UserKey, string(data)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// ReadUser returns the cached profile. A corrupt entry is purged.
func (s *Store) ReadUser() (*habit.User, bool) {
	raw, found, err := s.kv.Get(UserKey)
	if err != nil {
		logger.Warn("Failed to read cached user", "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	var u habit.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		logger.Debug("Purging corrupt cached user", "error", err)
		if err := s.kv.Delete(UserKey); err != nil {
			logger.Warn("Failed to purge cached user", "error", err)
		}
		return nil, false
	}
	return &u, true
}

type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// Inspect decodes the token payload without verifying it, for display only.
func Inspect(token string) (*TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	info := &TokenInfo{}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
