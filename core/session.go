package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Session maps an opaque identifier to a user id. ExpiresAt slides forward on
// every successful validation (idle-timeout renewal).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SessionManager interface {
	// Create issues a new session for userID and returns its identifier.
	Create(ctx context.Context, userID string) (string, error)

	// Validate resolves sessionID. A missing or expired session rejects with
	// ExpiredSession; a live one authenticates and slides its expiry forward.
	Validate(ctx context.Context, sessionID string) (AuthResult, error)

	// Destroy removes the session. Destroying an unknown session is not an
	// error.
	Destroy(ctx context.Context, sessionID string) error
}

// MemorySessionManager keeps sessions in process memory. Sessions do not
// survive a restart, which matches the revocable, server-held nature of the
// cookie flow.
type MemorySessionManager struct {
	sessions    *SyncMap[string, Session]
	idleTimeout time.Duration
	now         func() time.Time
}

type SessionOption func(*MemorySessionManager)

func WithIdleTimeout(d time.Duration) SessionOption {
	return func(m *MemorySessionManager) {
		m.idleTimeout = d
	}
}

// WithClock overrides the time source. Tests use it to force expiry.
func WithClock(now func() time.Time) SessionOption {
	return func(m *MemorySessionManager) {
		m.now = now
	}
}

func NewMemorySessionManager(opts ...SessionOption) *MemorySessionManager {
	m := &MemorySessionManager{
		sessions:    NewSyncMap[string, Session](),
		idleTimeout: time.Hour,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemorySessionManager) Create(ctx context.Context, userID string) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}

	m.sessions.Store(id, Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: m.now().Add(m.idleTimeout),
	})

	return id, nil
}

func (m *MemorySessionManager) Validate(ctx context.Context, sessionID string) (AuthResult, error) {
	result := Rejected(ExpiredSession)

	// Lookup, expiry check and renewal happen under one lock so concurrent
	// requests against the same session cannot interleave.
	m.sessions.Update(sessionID, func(s Session, ok bool) (Session, bool) {
		if !ok {
			return s, false
		}
		if m.now().After(s.ExpiresAt) {
			return s, false
		}
		s.ExpiresAt = m.now().Add(m.idleTimeout)
		result = Authenticated(s.UserID)
		return s, true
	})

	return result, nil
}

func (m *MemorySessionManager) Destroy(ctx context.Context, sessionID string) error {
	m.sessions.Delete(sessionID)
	return nil
}

// PruneExpired drops sessions past their expiry. The app runs it periodically
// so abandoned sessions do not accumulate.
func (m *MemorySessionManager) PruneExpired() {
	now := m.now()
	m.sessions.Prune(func(_ string, s Session) bool {
		return now.After(s.ExpiresAt)
	})
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
