// Package session owns the authenticated-user session: the persisted token
// pair and user snapshot, login/register/refresh/logout, local expiry checks
// and a broadcast of auth-state changes.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/citasmart/citasmart-go/internal/errs"
	"github.com/citasmart/citasmart-go/internal/model"
	"github.com/citasmart/citasmart-go/internal/storage"
)

// Persisted storage keys. The offline cache uses the disjoint offline_ prefix;
// these names must not collide with it.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyCurrentUser  = "currentUser"
)

// Transport submits one API request and returns the raw response body. The
// request interception pipeline implements it; the indirection keeps session
// and pipeline decoupled.
type Transport interface {
	Execute(ctx context.Context, method, path string, body any) ([]byte, error)
}

// Manager is the single per-process session owner.
type Manager struct {
	store     storage.Store
	transport Transport
	log       *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	user *model.User
	subs map[chan model.AuthState]struct{}
}

// New constructs a Manager and rehydrates once from the store: a persisted,
// unexpired token together with a stored user is republished as the current
// session. A stale session is left in place here; it is dropped lazily on the
// next IsAuthenticated check or failed refresh.
func New(store storage.Store, transport Transport, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store:     store,
		transport: transport,
		log:       log,
		now:       time.Now,
		subs:      make(map[chan model.AuthState]struct{}),
	}
	m.rehydrate()
	return m
}

func (m *Manager) rehydrate() {
	token, ok, err := m.store.Get(KeyAccessToken)
	if err != nil || !ok {
		return
	}
	rawUser, ok, err := m.store.Get(KeyCurrentUser)
	if err != nil || !ok {
		return
	}
	if tokenExpired(token, m.now()) {
		return
	}
	var u model.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		m.log.Warn("stored user unreadable", zap.Error(err))
		return
	}
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	m.log.Info("session rehydrated", zap.String("email", u.Email))
}

// Login authenticates and persists the returned session. On failure the
// backend error propagates unchanged and any prior session is untouched.
func (m *Manager) Login(ctx context.Context, creds model.Credentials) (model.Session, error) {
	raw, err := m.transport.Execute(ctx, "POST", "/auth/login", creds)
	if err != nil {
		return model.Session{}, err
	}
	return m.adoptSession(raw)
}

// Register creates an account. It does not establish a session.
func (m *Manager) Register(ctx context.Context, reg model.Registration) (model.User, error) {
	raw, err := m.transport.Execute(ctx, "POST", "/auth/register", reg)
	if err != nil {
		return model.User{}, err
	}
	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return model.User{}, fmt.Errorf("decode register response: %w", err)
	}
	return u, nil
}

// Refresh exchanges the stored refresh token for a new session. With no stored
// refresh token it fails with errs.ErrNoSession before touching the network.
func (m *Manager) Refresh(ctx context.Context) (model.Session, error) {
	rt, ok, err := m.store.Get(KeyRefreshToken)
	if err != nil || !ok || rt == "" {
		return model.Session{}, errs.ErrNoSession
	}
	raw, err := m.transport.Execute(ctx, "POST", "/auth/refresh", map[string]string{"refreshToken": rt})
	if err != nil {
		return model.Session{}, err
	}
	return m.adoptSession(raw)
}

// adoptSession decodes, persists and publishes a login/refresh response.
// Persistence failures surface to the caller: a session that cannot be stored
// would silently vanish on restart.
func (m *Manager) adoptSession(raw []byte) (model.Session, error) {
	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Session{}, fmt.Errorf("decode session response: %w", err)
	}
	userJSON, err := json.Marshal(s.User)
	if err != nil {
		return model.Session{}, fmt.Errorf("encode user: %w", err)
	}
	if err := m.store.Set(KeyAccessToken, s.AccessToken); err != nil {
		return model.Session{}, err
	}
	if err := m.store.Set(KeyRefreshToken, s.RefreshToken); err != nil {
		return model.Session{}, err
	}
	if err := m.store.Set(KeyCurrentUser, string(userJSON)); err != nil {
		return model.Session{}, err
	}

	u := s.User
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
	m.publish(model.AuthState{Authenticated: true, User: &u})
	m.log.Info("session established", zap.String("email", u.Email))
	return s, nil
}

// Logout clears the persisted session and publishes signed-out. Idempotent.
func (m *Manager) Logout() {
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyCurrentUser} {
		if err := m.store.Remove(k); err != nil {
			m.log.Warn("logout cleanup", zap.String("key", k), zap.Error(err))
		}
	}
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	m.publish(model.AuthState{Authenticated: false})
}

// IsAuthenticated reports whether a persisted token exists with an exp claim
// in the future. Purely local: it can be stale relative to server-side
// revocation.
func (m *Manager) IsAuthenticated() bool {
	token, ok, err := m.store.Get(KeyAccessToken)
	if err != nil || !ok {
		return false
	}
	return !tokenExpired(token, m.now())
}

// CurrentUser returns the last published user snapshot, or nil when signed
// out. No I/O.
func (m *Manager) CurrentUser() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Subscribe returns a channel receiving the current auth state immediately,
// then every transition. Sends are non-blocking.
func (m *Manager) Subscribe() <-chan model.AuthState {
	ch := make(chan model.AuthState, 8)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[ch] = struct{}{}
	ch <- model.AuthState{Authenticated: m.user != nil, User: m.user}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Manager) Unsubscribe(ch <-chan model.AuthState) {
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

func (m *Manager) publish(st model.AuthState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subs {
		select {
		case sub <- st:
		default:
		}
	}
}
