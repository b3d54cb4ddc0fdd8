package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vidalevel/habits/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

type userCtxKey struct{}

func hashPassword(pw string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
}

func checkPassword(hash []byte, pw string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(pw)) == nil
}

func (s *Server) issueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		Issuer:    "habits-devserver",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) verifyToken(raw string) (int64, error) {
	tok, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, err
	}
	claims, ok := tok.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, errors.New("unexpected claims type")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad subject: %w", err)
	}
	return id, nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			recordAuthEvent("verification", "missing_token")
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		id, err := s.verifyToken(strings.TrimPrefix(ah, "Bearer "))
		if err != nil {
			logger.Debug("Token verification failed", "error", err)
			recordAuthEvent("verification", "failed")
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if _, ok := s.store.user(id); !ok {
			recordAuthEvent("verification", "unknown_user")
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userCtxKey{}, id)))
	})
}

func userIDFromContext(r *http.Request) int64 {
	id, _ := r.Context().Value(userCtxKey{}).(int64)
	return id
}
