package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/rpc"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// userKey is the context key for the authenticated user.
	userKey contextKey = "user"
	// slotKey holds a *userSlot that outer interceptors read after the call.
	slotKey contextKey = "user_slot"
)

// userSlot reports the authenticated user ID back to an outer interceptor.
type userSlot struct {
	id string
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user models.PublicUser) context.Context {
	if slot, ok := ctx.Value(slotKey).(*userSlot); ok {
		slot.id = user.ID
	}
	return context.WithValue(ctx, userKey, user)
}

// GetUser extracts the authenticated user from the context.
func GetUser(ctx context.Context) (models.PublicUser, bool) {
	user, ok := ctx.Value(userKey).(models.PublicUser)
	return user, ok
}

// GetUserID extracts the user ID from the context.
// Returns empty string if not found.
func GetUserID(ctx context.Context) string {
	user, _ := GetUser(ctx)
	return user.ID
}

// ContextResolver resolves the acting user from the request context set by
// RequireAuth. It lets the repositories serve many users at once.
type ContextResolver struct{}

func (ContextResolver) ActingUserID(ctx context.Context) (string, error) {
	if id := GetUserID(ctx); id != "" {
		return id, nil
	}
	return "", models.ErrNotAuthenticated
}

// RequireAuth returns an interceptor that validates the bearer token of every
// procedure except the public ones, and stores the token's user in the
// request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if rpc.PublicProcedures[req.Spec().Procedure] {
				return next(ctx, req)
			}

			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, rpc.ToConnectError(auth.ErrMissingToken)
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || tokenString == "" {
				return nil, rpc.ToConnectError(auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, rpc.ToConnectError(err)
			}

			return next(WithUser(ctx, claims.User()), req)
		}
	}
}
