// Package session tracks the client's authentication state for the UI layer.
//
// A Coordinator starts in PhaseHydrating, moves to PhaseAuthenticated or
// PhaseAnonymous once Hydrate has read the persisted session, and from then on
// only toggles between those two. It never returns to PhaseHydrating.
package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/models"
)

// ErrAlreadyHydrated is returned when Hydrate is called more than once.
var ErrAlreadyHydrated = errors.New("session already hydrated")

// Phase is the coordinator state.
type Phase int

const (
	PhaseHydrating Phase = iota
	PhaseAuthenticated
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseHydrating:
		return "hydrating"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// State is a snapshot of the coordinator.
type State struct {
	Phase Phase
	User  *models.PublicUser
	Token string
}

// Loading reports whether the persisted session is still being read.
func (s State) Loading() bool { return s.Phase == PhaseHydrating }

// IsAuthenticated reports whether a user is logged in.
func (s State) IsAuthenticated() bool { return s.Phase == PhaseAuthenticated }

// Coordinator derives UI session state from an auth.Authenticator.
type Coordinator struct {
	auth   auth.Authenticator
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	hydrated  bool
	listeners []func(State)
}

// tokenSource is implemented by authenticators that hold a session token of
// their own, such as the remote client.
type tokenSource interface {
	SessionToken() string
}

// NewCoordinator returns a coordinator in PhaseHydrating.
func NewCoordinator(a auth.Authenticator, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		auth:   a,
		logger: logger,
		state:  State{Phase: PhaseHydrating},
	}
}

// State returns the current snapshot.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every new state. fn runs synchronously
// after the transition and must not call back into the coordinator.
func (c *Coordinator) Subscribe(fn func(State)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Hydrate reads the persisted session. A stored user authenticates the
// session without re-checking credentials. On error the coordinator ends up
// anonymous and the error is returned.
func (c *Coordinator) Hydrate(ctx context.Context) error {
	c.mu.Lock()
	if c.hydrated {
		c.mu.Unlock()
		return ErrAlreadyHydrated
	}
	c.hydrated = true
	c.mu.Unlock()

	user, err := c.auth.CurrentUser(ctx)
	if err != nil {
		c.logger.Error("Failed to load stored session", "error", err)
		c.settle(State{Phase: PhaseAnonymous})
		return err
	}
	if user == nil {
		c.settle(State{Phase: PhaseAnonymous})
		return nil
	}

	token := auth.LocalToken(user.ID)
	if ts, ok := c.auth.(tokenSource); ok {
		token = ts.SessionToken()
	}
	c.logger.Info("Session restored", "user_id", user.ID)
	c.settle(State{Phase: PhaseAuthenticated, User: user, Token: token})
	return nil
}

// Login authenticates; on failure the state is left unchanged.
func (c *Coordinator) Login(ctx context.Context, email, secret string) error {
	res, err := c.auth.Login(ctx, email, secret)
	if err != nil {
		return err
	}
	c.authenticated(res)
	return nil
}

// Register creates an account and authenticates it; on failure the state is
// left unchanged.
func (c *Coordinator) Register(ctx context.Context, p auth.RegisterParams) error {
	res, err := c.auth.Register(ctx, p)
	if err != nil {
		return err
	}
	c.authenticated(res)
	return nil
}

// Logout ends the session. The state becomes anonymous even if clearing the
// stored session failed; that error is still returned.
func (c *Coordinator) Logout(ctx context.Context) error {
	err := c.auth.Logout(ctx)
	c.set(State{Phase: PhaseAnonymous})
	return err
}

func (c *Coordinator) authenticated(res models.AuthResult) {
	user := res.User
	c.set(State{Phase: PhaseAuthenticated, User: &user, Token: res.Token})
}

// settle applies the hydration result unless a login or logout already
// moved the coordinator out of PhaseHydrating.
func (c *Coordinator) settle(s State) {
	c.mu.Lock()
	if c.state.Phase != PhaseHydrating {
		c.mu.Unlock()
		return
	}
	c.state = s
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	notify(listeners, s)
}

func (c *Coordinator) set(s State) {
	c.mu.Lock()
	c.state = s
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	notify(listeners, s)
}

func notify(listeners []func(State), s State) {
	for _, fn := range listeners {
		fn(s)
	}
}
