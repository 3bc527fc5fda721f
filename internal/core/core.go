// Package core assembles the device data layer around one store handle and
// exposes its public operations.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/collection"
	"github.com/mmynk/visitlog/internal/idgen"
	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/repository"
	"github.com/mmynk/visitlog/internal/storage"
)

// Config holds the optional dependencies of Core. Zero values select defaults.
type Config struct {
	// KeyPrefix namespaces the store keys. Defaults to storage.DefaultKeyPrefix.
	KeyPrefix *string

	Hasher auth.Hasher
	Now    func() time.Time
	NewID  func() string
	Logger *slog.Logger

	// LenientPropertyLinks lets visits reference property IDs that the user
	// does not own or that do not exist.
	LenientPropertyLinks bool
}

// Core is the device data layer: accounts, the session, properties and visits.
type Core struct {
	store      storage.Store
	keys       storage.Keys
	session    *auth.SessionManager
	properties *repository.PropertyRepository
	visits     *repository.VisitRepository
	logger     *slog.Logger
}

// Open wires every component over store. The store stays owned by the caller.
func Open(store storage.Store, cfg Config) *Core {
	prefix := storage.DefaultKeyPrefix
	if cfg.KeyPrefix != nil {
		prefix = *cfg.KeyPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = idgen.New
	}
	if cfg.Hasher == nil {
		cfg.Hasher = auth.NewBcryptHasher()
	}
	keys := storage.NewKeys(prefix)

	accounts := auth.NewAccounts(
		collection.New[models.User](store, keys.Users),
		auth.WithHasher(cfg.Hasher),
		auth.WithClock(cfg.Now),
		auth.WithIDGenerator(cfg.NewID),
		auth.WithLogger(cfg.Logger),
	)
	session := auth.NewSessionManager(accounts, store, keys.CurrentUser, cfg.Logger)

	repoOpts := []repository.Option{
		repository.WithClock(cfg.Now),
		repository.WithIDGenerator(cfg.NewID),
		repository.WithLogger(cfg.Logger),
	}
	if cfg.LenientPropertyLinks {
		repoOpts = append(repoOpts, repository.WithLenientPropertyLinks())
	}
	properties := repository.NewPropertyRepository(collection.New[models.Property](store, keys.Properties), session, repoOpts...)
	visits := repository.NewVisitRepository(collection.New[models.Visit](store, keys.Visits), properties, session, repoOpts...)

	return &Core{
		store:      store,
		keys:       keys,
		session:    session,
		properties: properties,
		visits:     visits,
		logger:     cfg.Logger,
	}
}

func (c *Core) Register(ctx context.Context, p auth.RegisterParams) (models.AuthResult, error) {
	return c.session.Register(ctx, p)
}

func (c *Core) Login(ctx context.Context, email, secret string) (models.AuthResult, error) {
	return c.session.Login(ctx, email, secret)
}

func (c *Core) Logout(ctx context.Context) error {
	return c.session.Logout(ctx)
}

func (c *Core) CurrentUser(ctx context.Context) (*models.PublicUser, error) {
	return c.session.CurrentUser(ctx)
}

func (c *Core) ListProperties(ctx context.Context) ([]models.Property, error) {
	return c.properties.List(ctx)
}

func (c *Core) GetProperty(ctx context.Context, id string) (models.Property, error) {
	return c.properties.Get(ctx, id)
}

func (c *Core) CreateProperty(ctx context.Context, in models.PropertyInput) (models.Property, error) {
	return c.properties.Create(ctx, in)
}

func (c *Core) ListVisits(ctx context.Context) ([]models.Visit, error) {
	return c.visits.ListAll(ctx)
}

func (c *Core) ListVisitsByProperty(ctx context.Context, propertyID string) ([]models.Visit, error) {
	return c.visits.ListByProperty(ctx, propertyID)
}

func (c *Core) ListVisitDetails(ctx context.Context) ([]models.VisitDetail, error) {
	return c.visits.ListDetailed(ctx)
}

func (c *Core) CreateVisit(ctx context.Context, in models.VisitInput) (models.Visit, error) {
	return c.visits.Create(ctx, in)
}

// Reset deletes every account, the session and all records from the store.
func (c *Core) Reset(ctx context.Context) error {
	if err := c.store.Remove(ctx, c.keys.All()...); err != nil {
		return fmt.Errorf("%w: reset: %w", models.ErrStoreUnavailable, err)
	}
	c.logger.Warn("All data cleared")
	return nil
}
