// Package services orchestrates the domain operations: account lifecycle
// and ledger reads/writes, on top of the storage and session layers.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/session"
	"fintrack/internal/storage"
)

// AuthService implements registration, login, logout and session checks.
type AuthService struct {
	store    storage.Store
	sessions *session.Manager
}

func NewAuthService(store storage.Store, sessions *session.Manager) *AuthService {
	return &AuthService{store: store, sessions: sessions}
}

// Register creates a user with a hashed password. No session is created;
// the client logs in separately. A duplicate email comes back as
// core.ErrEmailTaken so the handler can decide how much to reveal.
func (s *AuthService) Register(ctx context.Context, name, email, password string) error {
	if err := core.ValidateRegistration(name, email, password); err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStorage, err)
	}
	user, err := s.store.CreateUser(ctx, name, email, hash)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return nil
}

// Login verifies credentials and issues a session. Unknown email and bad
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*core.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, "", core.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", core.ErrInvalidCredentials
	}
	token, err := s.sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return user, token, nil
}

// Logout destroys the caller's session. It always succeeds: logging out
// with a missing or invalid session is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// CheckAuth returns the display name for an authenticated user id. A user
// that no longer resolves is an auth failure, matching the 401 the route
// has always returned.
func (s *AuthService) CheckAuth(ctx context.Context, userID int64) (string, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return "", core.ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return user.Name, nil
}
