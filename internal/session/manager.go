// Package session implements the server-side session store: opaque tokens
// issued at login, resolved on every protected request, destroyed at
// logout and purged after an absolute expiry window.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Manager issues and resolves sessions against the Store. Expiry is an
// absolute window measured from creation; there is no sliding renewal.
type Manager struct {
	store storage.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewManager(store storage.Store, ttl time.Duration) *Manager {
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// TTL returns the session lifetime, used by the HTTP layer to set the
// cookie max age.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a session for userID and returns its token.
func (m *Manager) Issue(ctx context.Context, userID int64) (string, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return "", err
	}
	now := m.now()
	sess := core.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return token, nil
}

// Resolve maps a token back to a user id. Unknown and expired tokens both
// come back as core.ErrNoSession; expired rows are removed on the way out.
func (m *Manager) Resolve(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, core.ErrNoSession
	}
	sess, err := m.store.GetSession(ctx, token)
	if errors.Is(err, core.ErrNotFound) {
		return 0, core.ErrNoSession
	}
	if err != nil {
		return 0, err
	}
	if !m.now().Before(sess.ExpiresAt) {
		if err := m.store.DeleteSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return 0, core.ErrNoSession
	}
	return sess.UserID, nil
}

// Destroy removes the session. It is idempotent: destroying a missing or
// already-expired session is not an error.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.DeleteSession(ctx, token)
}

// PurgeExpired removes all expired sessions; the janitor in main calls
// this periodically so abandoned logins do not accumulate.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpiredSessions(ctx)
}
