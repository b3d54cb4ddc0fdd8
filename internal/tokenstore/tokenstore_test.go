package tokenstore

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vidalevel/habits/internal/storage"
	"github.com/vidalevel/habits/pkg/habit"
)

const validToken = "header.payload1.signature"

func TestRead_Valid(t *testing.T) {
	kv := storage.NewMemory()
	s := New(kv)

	if err := s.Save(validToken); err != nil {
		t.Fatal(err)
	}
	got, ok := s.Read()
	if !ok || got != validToken {
		t.Fatalf("Read() = %q, %v", got, ok)
	}
}

func TestRead_InvalidIsPurged(t *testing.T) {
	invalid := []string{
		"",
		"not-a-token",
		"aaaaaa.bbbbbb",
		"aaaaaa.bbbbbb.cccccc.dddddd",
		"aaaaa.bbbbbb.cccccc",
		"aaaaaa.bbbbbb.ccccc",
		"aaaaaa..cccccc",
		"undefined",
		"null",
	}
	for _, tok := range invalid {
		t.Run(tok, func(t *testing.T) {
			kv := storage.NewMemory()
			_ = kv.Put(TokenKey, tok)
			s := New(kv)

			if got, ok := s.Read(); ok {
				t.Fatalf("Read() = %q, want absent", got)
			}
			if _, found, _ := kv.Get(TokenKey); found {
				t.Fatal("invalid token was not purged")
			}
		})
	}
}

func TestRead_Missing(t *testing.T) {
	s := New(storage.NewMemory())
	if _, ok := s.Read(); ok {
		t.Fatal("expected no token")
	}
}

func TestClear(t *testing.T) {
	kv := storage.NewMemory()
	s := New(kv)
	_ = s.Save(validToken)
	_ = s.SaveUser(habit.User{ID: 1, Name: "Ana"})

	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Read(); ok {
		t.Fatal("token survived Clear")
	}
	if _, ok := s.ReadUser(); ok {
		t.Fatal("user survived Clear")
	}
	// clearing an empty store is fine
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
}

func TestReadUser_CorruptIsPurged(t *testing.T) {
	kv := storage.NewMemory()
	_ = kv.Put(UserKey, "{not json")
	s := New(kv)

	if _, ok := s.ReadUser(); ok {
		t.Fatal("expected corrupt user to be ignored")
	}
	if _, found, _ := kv.Get(UserKey); found {
		t.Fatal("corrupt user was not purged")
	}
}

func TestOAuthToken(t *testing.T) {
	s := New(storage.NewMemory())
	if _, ok := s.OAuthToken(); ok {
		t.Fatal("expected no token")
	}
	_ = s.Save(validToken)
	tok, ok := s.OAuthToken()
	if !ok {
		t.Fatal("expected token")
	}
	if tok.Type() != "Bearer" || tok.AccessToken != validToken {
		t.Fatalf("unexpected token %+v", tok)
	}
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("whatever"))
	if err != nil {
		t.Fatal(err)
	}

	info, err := Inspect(signed)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Subject != "42" {
		t.Fatalf("got subject %q", info.Subject)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Fatalf("got exp %v want %v", info.ExpiresAt, exp)
	}

	if _, err := Inspect(validToken); err == nil {
		t.Fatal("expected decode error for opaque token")
	}
}
