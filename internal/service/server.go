package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/collection"
	"github.com/mmynk/visitlog/internal/middleware"
	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/repository"
	"github.com/mmynk/visitlog/internal/rpc"
	"github.com/mmynk/visitlog/internal/storage"
)

// Options holds the optional dependencies of New.
type Options struct {
	// KeyPrefix namespaces the store keys. Nil selects storage.DefaultKeyPrefix.
	KeyPrefix            *string
	Hasher               auth.Hasher
	Logger               *slog.Logger
	LenientPropertyLinks bool
}

// New wires a VisitLogService over store. Sessions live in bearer tokens, so
// the current-user key is never written.
func New(store storage.Store, jwtManager *auth.JWTManager, opts Options) *VisitLogService {
	prefix := storage.DefaultKeyPrefix
	if opts.KeyPrefix != nil {
		prefix = *opts.KeyPrefix
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	keys := storage.NewKeys(prefix)

	accountOpts := []auth.AccountsOption{auth.WithLogger(opts.Logger)}
	if opts.Hasher != nil {
		accountOpts = append(accountOpts, auth.WithHasher(opts.Hasher))
	}
	accounts := auth.NewAccounts(collection.New[models.User](store, keys.Users), accountOpts...)

	repoOpts := []repository.Option{repository.WithLogger(opts.Logger)}
	if opts.LenientPropertyLinks {
		repoOpts = append(repoOpts, repository.WithLenientPropertyLinks())
	}
	resolver := middleware.ContextResolver{}
	properties := repository.NewPropertyRepository(collection.New[models.Property](store, keys.Properties), resolver, repoOpts...)
	visits := repository.NewVisitRepository(collection.New[models.Visit](store, keys.Visits), properties, resolver, repoOpts...)

	return NewVisitLogService(accounts, jwtManager, properties, visits, opts.Logger)
}

// Handler mounts svc behind the logging and auth interceptors, outermost first.
func Handler(svc *VisitLogService, jwtManager *auth.JWTManager, logger *slog.Logger) (string, http.Handler) {
	return rpc.NewVisitLogServiceHandler(svc,
		connect.WithInterceptors(
			middleware.LoggingInterceptor(logger),
			middleware.RequireAuth(jwtManager),
		),
	)
}
