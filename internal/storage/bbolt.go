package storage

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/citasmart/citasmart-go/internal/errs"
)

var bucketName = []byte("kv")

// BoltStore implements Store backed by a single-bucket bbolt database file.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens (or creates) a bbolt database at path and ensures the bucket
// exists.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", path, errs.ErrStorage, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w: %w", errs.ErrStorage, err)
	}
	return &BoltStore{db: db}, nil
}

// Set durably stores value under key.
func (s *BoltStore) Set(key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set %q: %w: %w", key, errs.ErrStorage, err)
	}
	return nil
}

// Get returns the stored value and whether it was present.
func (s *BoltStore) Get(key string) (string, bool, error) {
	var val []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketName).Get([]byte(key)); v != nil {
			val = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w: %w", key, errs.ErrStorage, err)
	}
	if val == nil {
		return "", false, nil
	}
	return string(val), true, nil
}

// Remove deletes key; absent keys are a no-op.
func (s *BoltStore) Remove(key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w: %w", key, errs.ErrStorage, err)
	}
	return nil
}

// Keys enumerates stored keys with the given prefix.
func (s *BoltStore) Keys(prefix string) ([]string, error) {
	var keys []string
	p := []byte(prefix)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketName).Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("keys %q: %w: %w", prefix, errs.ErrStorage, err)
	}
	return keys, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
