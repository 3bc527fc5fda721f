package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/storage"
)

var _ Authenticator = (*SessionManager)(nil)

// SessionManager owns the device session: a single "current user" record in
// the store, set by Register and Login and cleared by Logout.
type SessionManager struct {
	accounts   *Accounts
	store      storage.Store
	pointerKey string
	logger     *slog.Logger
}

// NewSessionManager creates a session manager persisting the pointer under pointerKey.
func NewSessionManager(accounts *Accounts, store storage.Store, pointerKey string, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		accounts:   accounts,
		store:      store,
		pointerKey: pointerKey,
		logger:     logger,
	}
}

// Register creates the account and makes it the current user.
func (m *SessionManager) Register(ctx context.Context, p RegisterParams) (models.AuthResult, error) {
	user, err := m.accounts.Register(ctx, p)
	if err != nil {
		m.logger.Warn("Registration failed", "email", p.Email, "error", err)
		return models.AuthResult{}, err
	}
	return m.start(ctx, user.Public())
}

// Login checks the credentials and makes the account the current user.
func (m *SessionManager) Login(ctx context.Context, email, secret string) (models.AuthResult, error) {
	user, err := m.accounts.Authenticate(ctx, email, secret)
	if err != nil {
		m.logger.Warn("Login failed", "email", email, "error", err)
		return models.AuthResult{}, err
	}
	return m.start(ctx, user.Public())
}

// Logout clears the session pointer. It is idempotent.
func (m *SessionManager) Logout(ctx context.Context) error {
	if err := m.store.Remove(ctx, m.pointerKey); err != nil {
		return fmt.Errorf("%w: clear session: %w", models.ErrStoreUnavailable, err)
	}
	m.logger.Info("Session cleared")
	return nil
}

// CurrentUser reads the session pointer. It returns nil, nil when nobody is
// logged in. The pointer is not re-validated against the users collection.
func (m *SessionManager) CurrentUser(ctx context.Context) (*models.PublicUser, error) {
	raw, err := m.store.Get(ctx, m.pointerKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read session: %w", models.ErrStoreUnavailable, err)
	}

	var user *models.PublicUser
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("%w: decode session: %w", models.ErrCorruptStore, err)
	}
	if user != nil && user.ID == "" {
		return nil, fmt.Errorf("%w: session record has no user id", models.ErrCorruptStore)
	}
	return user, nil
}

// ActingUserID returns the current user's ID or models.ErrNotAuthenticated.
func (m *SessionManager) ActingUserID(ctx context.Context) (string, error) {
	user, err := m.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", models.ErrNotAuthenticated
	}
	return user.ID, nil
}

func (m *SessionManager) start(ctx context.Context, user models.PublicUser) (models.AuthResult, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return models.AuthResult{}, fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.pointerKey, raw); err != nil {
		return models.AuthResult{}, fmt.Errorf("%w: write session: %w", models.ErrStoreUnavailable, err)
	}

	m.logger.Info("Session started", "user_id", user.ID)
	return models.AuthResult{User: user, Token: LocalToken(user.ID)}, nil
}
