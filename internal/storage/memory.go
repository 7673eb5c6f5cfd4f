package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/citasmart/citasmart-go/internal/errs"
)

// MemoryStore implements Store with an in-process map. It is used in tests and
// as an ephemeral fallback when no durable path is configured. FailWrites and
// FailReads force errs.ErrStorage results to exercise degradation paths.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string

	FailWrites bool
	FailReads  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return fmt.Errorf("set %q: %w", key, errs.ErrStorage)
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return "", false, fmt.Errorf("get %q: %w", key, errs.ErrStorage)
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *MemoryStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return fmt.Errorf("remove %q: %w", key, errs.ErrStorage)
	}
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailReads {
		return nil, fmt.Errorf("keys %q: %w", prefix, errs.ErrStorage)
	}
	var keys []string
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Close() error { return nil }
