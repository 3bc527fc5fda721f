package auth

import (
	"context"

	"github.com/mmynk/visitlog/internal/models"
)

// Authenticator is the session surface a client drives: who is logged in, and
// the operations that change it. SessionManager implements it over the local
// store; the remote client implements it over the network.
type Authenticator interface {
	// Register creates an account and starts a session for it.
	Register(ctx context.Context, p RegisterParams) (models.AuthResult, error)

	// Login verifies the credentials and starts a session.
	Login(ctx context.Context, email, secret string) (models.AuthResult, error)

	// Logout ends the session. Ending an absent session is not an error.
	Logout(ctx context.Context) error

	// CurrentUser returns the logged-in user, or nil when logged out.
	CurrentUser(ctx context.Context) (*models.PublicUser, error)
}
