package keyring

import (
	"errors"
	"fmt"

	"github.com/vidalevel/habits/internal/storage"
	gokeyring "github.com/zalando/go-keyring"
)

const serviceName = "habits"

// Store keeps session data in the OS keyring, one secret per key.
type Store struct {
	service string
}

func New(profile string) *Store {
	service := serviceName
	if profile != "" {
		service = serviceName + ":" + profile
	}
	return &Store{service: service}
}

func (s *Store) Get(key string) (string, bool, error) {
	v, err := gokeyring.Get(s.service, key)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("keyring get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Put(key, value string) error {
	if err := gokeyring.Set(s.service, key, value); err != nil {
		return fmt.Errorf("keyring set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(key string) error {
	err := gokeyring.Delete(s.service, key)
	if err != nil && !errors.Is(err, gokeyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

var _ storage.Store = (*Store)(nil)
