package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// fakeSessionStore implements just enough of storage.Store for the manager.
type fakeSessionStore struct {
	storage.Store

	mu       sync.Mutex
	sessions map[string]core.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]core.Session)}
}

func (f *fakeSessionStore) CreateSession(_ context.Context, s core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeSessionStore) GetSession(_ context.Context, token string) (*core.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionStore) DeleteExpiredSessions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	now := time.Now()
	for token, s := range f.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

func TestIssueAndResolve(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store, 24*time.Hour)
	ctx := context.Background()

	token, err := m.Issue(ctx, 42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}

	userID, err := m.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if userID != 42 {
		t.Errorf("Resolve = %d, want 42", userID)
	}
}

func TestIssueTokensAreUnique(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store, time.Hour)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, err := m.Issue(ctx, int64(i))
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		if seen[token] {
			t.Fatal("duplicate token issued")
		}
		seen[token] = true
	}
}

func TestResolveRejectsMissing(t *testing.T) {
	m := NewManager(newFakeSessionStore(), time.Hour)
	ctx := context.Background()

	if _, err := m.Resolve(ctx, ""); !errors.Is(err, core.ErrNoSession) {
		t.Errorf("empty token: got %v, want ErrNoSession", err)
	}
	if _, err := m.Resolve(ctx, "never-issued"); !errors.Is(err, core.ErrNoSession) {
		t.Errorf("unknown token: got %v, want ErrNoSession", err)
	}
}

func TestResolveRejectsExpired(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store, time.Hour)
	ctx := context.Background()

	token, err := m.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Expiry is absolute: jump the clock past the window.
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if _, err := m.Resolve(ctx, token); !errors.Is(err, core.ErrNoSession) {
		t.Fatalf("expired token: got %v, want ErrNoSession", err)
	}

	// The expired row was deleted on the way out.
	if _, err := store.GetSession(ctx, token); !errors.Is(err, core.ErrNotFound) {
		t.Error("expired session should have been removed")
	}
}

func TestDestroyIsIdempotent(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store, time.Hour)
	ctx := context.Background()

	token, err := m.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := m.Destroy(ctx, token); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if err := m.Destroy(ctx, token); err != nil {
		t.Errorf("second Destroy should be a no-op, got %v", err)
	}
	if err := m.Destroy(ctx, ""); err != nil {
		t.Errorf("Destroy with empty token should be a no-op, got %v", err)
	}

	if _, err := m.Resolve(ctx, token); !errors.Is(err, core.ErrNoSession) {
		t.Error("destroyed session should not resolve")
	}
}

func TestPurgeExpired(t *testing.T) {
	store := newFakeSessionStore()
	m := NewManager(store, time.Hour)
	ctx := context.Background()

	now := time.Now()
	store.CreateSession(ctx, core.Session{Token: "old", UserID: 1, ExpiresAt: now.Add(-time.Minute)})
	store.CreateSession(ctx, core.Session{Token: "new", UserID: 1, ExpiresAt: now.Add(time.Hour)})

	n, err := m.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d sessions, want 1", n)
	}
}
