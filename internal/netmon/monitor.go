// Package netmon tracks connectivity as a single observable boolean. The
// monitor itself is transport-agnostic; a Prober feeds it transitions.
package netmon

import (
	"sync"

	"go.uber.org/zap"

	"github.com/citasmart/citasmart-go/internal/notify"
)

// Monitor holds the current online state and notifies subscribers once per
// transition. No history is kept.
type Monitor struct {
	mu     sync.Mutex
	online bool
	subs   map[chan bool]struct{}

	notifier *notify.Notifier
	log      *zap.Logger
}

// New constructs a Monitor with the given initial state. notifier may be nil.
func New(initialOnline bool, notifier *notify.Notifier, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{
		online:   initialOnline,
		subs:     make(map[chan bool]struct{}),
		notifier: notifier,
		log:      log,
	}
}

// IsOnline returns the current connectivity state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe returns a channel that receives the current state immediately and
// then one value per transition. Sends are non-blocking.
func (m *Monitor) Subscribe() <-chan bool {
	ch := make(chan bool, 8)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[ch] = struct{}{}
	ch <- m.online
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Monitor) Unsubscribe(ch <-chan bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		if sub == ch {
			delete(m.subs, sub)
			close(sub)
			return
		}
	}
}

// SetOnline records a connectivity signal. Only edges are published: setting
// the same value twice emits nothing the second time.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	subs := make([]chan bool, 0, len(m.subs))
	for sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	m.log.Info("connectivity changed", zap.Bool("online", online))
	for _, sub := range subs {
		select {
		case sub <- online:
		default:
		}
	}

	if m.notifier != nil {
		if online {
			m.notifier.Success("Conexión restaurada")
		} else {
			m.notifier.Warning("Sin conexión a internet. Trabajando offline")
		}
	}
}
