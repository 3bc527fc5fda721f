package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/visitlog/internal/collection"
	"github.com/mmynk/visitlog/internal/idgen"
	"github.com/mmynk/visitlog/internal/models"
)

// RegisterParams holds the fields of a new account.
type RegisterParams struct {
	Email  string
	Name   string
	Phone  *string
	Secret string
}

// Accounts owns the users collection: creating accounts and verifying secrets.
// It knows nothing about sessions, so the device session manager and the
// remote server share it.
type Accounts struct {
	users  *collection.Collection[models.User]
	hasher Hasher
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// AccountsOption configures Accounts.
type AccountsOption func(*Accounts)

// WithHasher replaces the default bcrypt hasher.
func WithHasher(h Hasher) AccountsOption {
	return func(a *Accounts) { a.hasher = h }
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) AccountsOption {
	return func(a *Accounts) { a.now = now }
}

// WithIDGenerator replaces idgen.New.
func WithIDGenerator(newID func() string) AccountsOption {
	return func(a *Accounts) { a.newID = newID }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) AccountsOption {
	return func(a *Accounts) { a.logger = l }
}

// NewAccounts creates the account registry over users.
func NewAccounts(users *collection.Collection[models.User], opts ...AccountsOption) *Accounts {
	a := &Accounts{
		users:  users,
		hasher: NewBcryptHasher(),
		now:    time.Now,
		newID:  idgen.New,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func validateRegister(p RegisterParams) error {
	ierr := &models.InputError{}
	if strings.TrimSpace(p.Email) == "" {
		ierr.Add("email", "required")
	}
	if strings.TrimSpace(p.Name) == "" {
		ierr.Add("name", "required")
	}
	switch {
	case p.Secret == "":
		ierr.Add("password", "required")
	case len(p.Secret) > MaxSecretBytes:
		ierr.Add("password", "too long")
	}
	if ierr.HasErrors() {
		return ierr
	}
	return nil
}

// Register creates a new account. Email comparison is case-sensitive.
func (a *Accounts) Register(ctx context.Context, p RegisterParams) (models.User, error) {
	if err := validateRegister(p); err != nil {
		return models.User{}, err
	}

	// Hash outside the collection lock; bcrypt is deliberately slow.
	hash, err := a.hasher.Hash(p.Secret)
	if err != nil {
		return models.User{}, err
	}

	var phone *string
	if p.Phone != nil && *p.Phone != "" {
		v := *p.Phone
		phone = &v
	}

	user := models.User{
		ID:         a.newID(),
		Email:      p.Email,
		Name:       p.Name,
		Phone:      phone,
		SecretHash: hash,
		CreatedAt:  a.now().UTC(),
	}

	err = a.users.Update(ctx, func(users map[string]models.User) error {
		for _, u := range users {
			if u.Email == p.Email {
				return models.ErrDuplicateEmail
			}
		}
		users[user.ID] = user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	a.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Authenticate returns the account for email if secret matches its hash.
func (a *Accounts) Authenticate(ctx context.Context, email, secret string) (models.User, error) {
	user, err := a.byEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}

	if err := a.hasher.Compare(user.SecretHash, secret); err != nil {
		if errors.Is(err, ErrHashMismatch) {
			a.logger.Warn("Login rejected", "user_id", user.ID, "reason", "secret mismatch")
			return models.User{}, models.ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("%w: unreadable secret hash for user %s: %w", models.ErrCorruptStore, user.ID, err)
	}
	return user, nil
}

// Get returns the account with id, or ErrUserNotFound.
func (a *Accounts) Get(ctx context.Context, id string) (models.User, error) {
	users, err := a.users.LoadAll(ctx)
	if err != nil {
		return models.User{}, err
	}
	u, ok := users[id]
	if !ok {
		return models.User{}, models.ErrUserNotFound
	}
	return u, nil
}

func (a *Accounts) byEmail(ctx context.Context, email string) (models.User, error) {
	matches, err := a.users.Filter(ctx, func(u models.User) bool { return u.Email == email })
	if err != nil {
		return models.User{}, err
	}
	if len(matches) == 0 {
		return models.User{}, models.ErrUserNotFound
	}
	return matches[0], nil
}
