// Package cache implements the offline response cache: a time-bounded map from
// request identity to the last observed response body, persisted under the
// offline_ key namespace.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/citasmart/citasmart-go/internal/storage"
)

// DefaultMaxAge is the freshness window applied when callers pass 0.
const DefaultMaxAge = 24 * time.Hour

const keyPrefix = "offline_"

type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // unix millis
}

// SizeInfo reports diagnostic cache usage. EstimatedBytes assumes two bytes
// per stored character, matching the wide-character accounting of the storage
// engine this layout was designed for; it is not exact.
type SizeInfo struct {
	Count          int   `json:"count"`
	EstimatedBytes int64 `json:"estimatedBytes"`
}

// Cache stores response payloads with lazy, on-read eviction. Writes are
// best-effort: storage failures are logged and swallowed, never surfaced.
type Cache struct {
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
}

// New constructs a Cache over the given store.
func New(store storage.Store, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{store: store, log: log, now: time.Now}
}

// Put stores payload under key with the current timestamp, overwriting any
// prior entry. Failures never escalate to the caller.
func (c *Cache) Put(key string, payload []byte) {
	e := entry{Data: json.RawMessage(payload), Timestamp: c.now().UnixMilli()}
	raw, err := json.Marshal(e)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(keyPrefix+key, string(raw)); err != nil {
		c.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Get returns the payload for key if an entry exists and is younger than
// maxAge (0 means DefaultMaxAge). A stale entry is deleted and reported
// absent; stale data is never returned.
func (c *Cache) Get(key string, maxAge time.Duration) ([]byte, bool) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	raw, ok, err := c.store.Get(keyPrefix + key)
	if err != nil {
		c.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// Unreadable entry: drop it rather than serve garbage.
		_ = c.store.Remove(keyPrefix + key)
		return nil, false
	}
	age := c.now().Sub(time.UnixMilli(e.Timestamp))
	if age >= maxAge {
		if err := c.store.Remove(keyPrefix + key); err != nil {
			c.log.Warn("stale entry eviction failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return []byte(e.Data), true
}

// Clear removes every cache entry, leaving all other persisted state intact.
func (c *Cache) Clear() error {
	keys, err := c.store.Keys(keyPrefix)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	for _, k := range keys {
		if err := c.store.Remove(k); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return nil
}

// Size reports entry count and estimated footprint of the cache namespace.
func (c *Cache) Size() (SizeInfo, error) {
	keys, err := c.store.Keys(keyPrefix)
	if err != nil {
		return SizeInfo{}, fmt.Errorf("cache size: %w", err)
	}
	info := SizeInfo{Count: len(keys)}
	for _, k := range keys {
		v, ok, err := c.store.Get(k)
		if err != nil || !ok {
			continue
		}
		info.EstimatedBytes += int64(len(v)) * 2
	}
	return info, nil
}
