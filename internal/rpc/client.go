package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/core"
	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/storage"
)

var _ core.API = (*Client)(nil)

// remoteSession is what the client remembers after Register or Login.
type remoteSession struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

// Client talks to a visitlog server. It offers the same operations as the
// local core and keeps the session (user and bearer token) in memory,
// optionally mirrored to a storage.Store so it survives restarts.
type Client struct {
	httpClient connect.HTTPClient
	store      storage.Store
	sessionKey string

	register             *connect.Client[RegisterRequest, AuthResponse]
	login                *connect.Client[LoginRequest, AuthResponse]
	getCurrentUser       *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
	listProperties       *connect.Client[ListPropertiesRequest, ListPropertiesResponse]
	createProperty       *connect.Client[CreatePropertyRequest, CreatePropertyResponse]
	listVisits           *connect.Client[ListVisitsRequest, ListVisitsResponse]
	listVisitsByProperty *connect.Client[ListVisitsByPropertyRequest, ListVisitsResponse]
	createVisit          *connect.Client[CreateVisitRequest, CreateVisitResponse]

	mu      sync.Mutex
	session *remoteSession
	loaded  bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc connect.HTTPClient) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionStore persists the session under key in store.
func WithSessionStore(store storage.Store, key string) ClientOption {
	return func(c *Client) {
		c.store = store
		c.sessionKey = key
	}
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	copts := []connect.ClientOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(c.bearer()),
	}

	c.register = connect.NewClient[RegisterRequest, AuthResponse](c.httpClient, baseURL+RegisterProcedure, copts...)
	c.login = connect.NewClient[LoginRequest, AuthResponse](c.httpClient, baseURL+LoginProcedure, copts...)
	c.getCurrentUser = connect.NewClient[GetCurrentUserRequest, GetCurrentUserResponse](c.httpClient, baseURL+GetCurrentUserProcedure, copts...)
	c.listProperties = connect.NewClient[ListPropertiesRequest, ListPropertiesResponse](c.httpClient, baseURL+ListPropertiesProcedure, copts...)
	c.createProperty = connect.NewClient[CreatePropertyRequest, CreatePropertyResponse](c.httpClient, baseURL+CreatePropertyProcedure, copts...)
	c.listVisits = connect.NewClient[ListVisitsRequest, ListVisitsResponse](c.httpClient, baseURL+ListVisitsProcedure, copts...)
	c.listVisitsByProperty = connect.NewClient[ListVisitsByPropertyRequest, ListVisitsResponse](c.httpClient, baseURL+ListVisitsByPropertyProcedure, copts...)
	c.createVisit = connect.NewClient[CreateVisitRequest, CreateVisitResponse](c.httpClient, baseURL+CreateVisitProcedure, copts...)
	return c
}

// bearer attaches the session token to every non-public call.
func (c *Client) bearer() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if token := c.SessionToken(); token != "" && !PublicProcedures[req.Spec().Procedure] {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

// SessionToken returns the bearer token of the current session, if any.
func (c *Client) SessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

func (c *Client) Register(ctx context.Context, p auth.RegisterParams) (models.AuthResult, error) {
	resp, err := c.register.CallUnary(ctx, connect.NewRequest(&RegisterRequest{
		Email:    p.Email,
		Name:     p.Name,
		Phone:    p.Phone,
		Password: p.Secret,
	}))
	if err != nil {
		return models.AuthResult{}, FromConnectError(err)
	}
	return c.start(ctx, resp.Msg)
}

func (c *Client) Login(ctx context.Context, email, secret string) (models.AuthResult, error) {
	resp, err := c.login.CallUnary(ctx, connect.NewRequest(&LoginRequest{Email: email, Password: secret}))
	if err != nil {
		return models.AuthResult{}, FromConnectError(err)
	}
	return c.start(ctx, resp.Msg)
}

// Logout forgets the session. Tokens are stateless, so the server is not
// contacted.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.session = nil
	c.loaded = true
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Remove(ctx, c.sessionKey); err != nil {
		return fmt.Errorf("%w: clear session: %w", models.ErrStoreUnavailable, err)
	}
	return nil
}

// CurrentUser returns the user of the remembered session, or nil.
func (c *Client) CurrentUser(ctx context.Context) (*models.PublicUser, error) {
	s, err := c.current(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	user := s.User
	return &user, nil
}

// FetchCurrentUser asks the server who the token belongs to.
func (c *Client) FetchCurrentUser(ctx context.Context) (models.PublicUser, error) {
	if err := c.requireSession(ctx); err != nil {
		return models.PublicUser{}, err
	}
	resp, err := c.getCurrentUser.CallUnary(ctx, connect.NewRequest(&GetCurrentUserRequest{}))
	if err != nil {
		return models.PublicUser{}, FromConnectError(err)
	}
	return resp.Msg.User, nil
}

func (c *Client) ListProperties(ctx context.Context) ([]models.Property, error) {
	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}
	resp, err := c.listProperties.CallUnary(ctx, connect.NewRequest(&ListPropertiesRequest{}))
	if err != nil {
		return nil, FromConnectError(err)
	}
	if resp.Msg.Properties == nil {
		return []models.Property{}, nil
	}
	return resp.Msg.Properties, nil
}

func (c *Client) CreateProperty(ctx context.Context, in models.PropertyInput) (models.Property, error) {
	if err := c.requireSession(ctx); err != nil {
		return models.Property{}, err
	}
	resp, err := c.createProperty.CallUnary(ctx, connect.NewRequest(&CreatePropertyRequest{
		Name:        in.Name,
		Address:     in.Address,
		Description: in.Description,
	}))
	if err != nil {
		return models.Property{}, FromConnectError(err)
	}
	return resp.Msg.Property, nil
}

func (c *Client) ListVisits(ctx context.Context) ([]models.Visit, error) {
	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}
	resp, err := c.listVisits.CallUnary(ctx, connect.NewRequest(&ListVisitsRequest{}))
	if err != nil {
		return nil, FromConnectError(err)
	}
	return visitsOrEmpty(resp.Msg.Visits), nil
}

func (c *Client) ListVisitsByProperty(ctx context.Context, propertyID string) ([]models.Visit, error) {
	if err := c.requireSession(ctx); err != nil {
		return nil, err
	}
	resp, err := c.listVisitsByProperty.CallUnary(ctx, connect.NewRequest(&ListVisitsByPropertyRequest{PropertyID: propertyID}))
	if err != nil {
		return nil, FromConnectError(err)
	}
	return visitsOrEmpty(resp.Msg.Visits), nil
}

func (c *Client) CreateVisit(ctx context.Context, in models.VisitInput) (models.Visit, error) {
	if err := c.requireSession(ctx); err != nil {
		return models.Visit{}, err
	}
	resp, err := c.createVisit.CallUnary(ctx, connect.NewRequest(&CreateVisitRequest{
		PropertyID:   in.PropertyID,
		VisitDate:    in.VisitDate,
		NeedsParking: in.NeedsParking,
		Reason:       in.Reason,
	}))
	if err != nil {
		return models.Visit{}, FromConnectError(err)
	}
	return resp.Msg.Visit, nil
}

func visitsOrEmpty(v []models.Visit) []models.Visit {
	if v == nil {
		return []models.Visit{}
	}
	return v
}

func (c *Client) requireSession(ctx context.Context) error {
	s, err := c.current(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return models.ErrNotAuthenticated
	}
	return nil
}

// current returns the in-memory session, loading it from the store once.
func (c *Client) current(ctx context.Context) (*remoteSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded || c.store == nil {
		return c.session, nil
	}

	raw, err := c.store.Get(ctx, c.sessionKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("%w: read session: %w", models.ErrStoreUnavailable, err)
	default:
		var s *remoteSession
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: decode session: %w", models.ErrCorruptStore, err)
		}
		if s != nil && (s.User.ID == "" || s.Token == "") {
			return nil, fmt.Errorf("%w: session record is incomplete", models.ErrCorruptStore)
		}
		c.session = s
	}
	c.loaded = true
	return c.session, nil
}

func (c *Client) start(ctx context.Context, resp *AuthResponse) (models.AuthResult, error) {
	s := &remoteSession{User: resp.User, Token: resp.Token}
	if c.store != nil {
		raw, err := json.Marshal(s)
		if err != nil {
			return models.AuthResult{}, fmt.Errorf("encode session: %w", err)
		}
		if err := c.store.Set(ctx, c.sessionKey, raw); err != nil {
			return models.AuthResult{}, fmt.Errorf("%w: write session: %w", models.ErrStoreUnavailable, err)
		}
	}

	c.mu.Lock()
	c.session = s
	c.loaded = true
	c.mu.Unlock()
	return models.AuthResult{User: resp.User, Token: resp.Token}, nil
}
