package limiter

import (
	"context"
	"encoding/hex"
	"sync"
	"time"
)

type counter struct {
	fails        int
	windowStart  time.Time
	blockedUntil time.Time
}

// Memory is an in-process sliding-window limiter with lockout. State is lost
// on restart, which is acceptable for a development server.
type Memory struct {
	mu       sync.Mutex
	counters map[string]*counter

	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

var _ Limiter = (*Memory)(nil)

// NewMemory constructs an in-memory limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		counters: make(map[string]*counter),
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		now:      time.Now,
	}
}

func key(email string, ipHash []byte) string {
	return email + "|" + hex.EncodeToString(ipHash)
}

// Allow reports whether login is currently allowed and a retry-after duration.
func (m *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[key(email, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if now := m.now(); c.blockedUntil.After(now) {
		return false, c.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success resets counters for (email, ip).
func (m *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counters, key(email, ipHash))
	return nil
}

// Failure records a failed attempt; when maxFails is reached within the
// window, a block is placed.
func (m *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	k := key(email, ipHash)
	c, ok := m.counters[k]
	if !ok || now.Sub(c.windowStart) > m.window {
		c = &counter{windowStart: now}
		m.counters[k] = c
	}
	c.fails++
	if c.fails >= m.maxFails {
		c.blockedUntil = now.Add(m.blockFor)
		return true, m.blockFor, nil
	}
	return false, 0, nil
}
