// Package repository provides ownership-scoped access to properties and visits.
//
// Every operation first resolves the acting user through a UserResolver and
// fails with models.ErrNotAuthenticated when there is none. Reads return only
// the acting user's records; nothing found is an empty slice, not an error.
package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/visitlog/internal/idgen"
)

// UserResolver names the user on whose behalf an operation runs.
// On the device this is the session manager; on the server, the request context.
type UserResolver interface {
	// ActingUserID returns the user ID or models.ErrNotAuthenticated.
	ActingUserID(ctx context.Context) (string, error)
}

type options struct {
	now          func() time.Time
	newID        func() string
	logger       *slog.Logger
	lenientLinks bool
}

// Option configures a repository.
type Option func(*options)

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator replaces idgen.New.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLenientPropertyLinks lets visits reference any property ID, including
// ones that do not exist or belong to another user.
func WithLenientPropertyLinks() Option {
	return func(o *options) { o.lenientLinks = true }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		newID:  idgen.New,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
