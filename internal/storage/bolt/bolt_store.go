package bolt

import (
	"github.com/vidalevel/habits/internal/storage"
	"go.etcd.io/bbolt"
)

const rootBucket = "profiles"
const defaultProfile = "default"

type Store struct {
	db      *bbolt.DB
	profile string
}

// Open opens (creating if needed) the bolt file at path. Keys are scoped to
// profile so several accounts can share one file.
func Open(path, profile string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	if profile == "" {
		profile = defaultProfile
	}
	s := &Store{db: db, profile: profile}

	if err := db.Update(func(tx *bbolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(rootBucket))
		if err != nil {
			return err
		}
		_, err = root.CreateBucketIfNotExists([]byte(profile))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) profileBucket(tx *bbolt.Tx) *bbolt.Bucket {
	return tx.Bucket([]byte(rootBucket)).Bucket([]byte(s.profile))
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) (string, bool, error) {
	var (
		out   string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := s.profileBucket(tx).Get([]byte(key))
		if v == nil {
			return nil
		}
		out, found = string(v), true
		return nil
	})
	return out, found, err
}

func (s *Store) Put(key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return s.profileBucket(tx).Put([]byte(key), []byte(value))
	})
}

func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return s.profileBucket(tx).Delete([]byte(key))
	})
}

var _ storage.Store = (*Store)(nil)
