// Package backend opens the storage.Store selected by the configuration.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/visitlog/internal/config"
	"github.com/mmynk/visitlog/internal/storage"
	"github.com/mmynk/visitlog/internal/storage/memory"
	"github.com/mmynk/visitlog/internal/storage/postgres"
	"github.com/mmynk/visitlog/internal/storage/s3store"
	"github.com/mmynk/visitlog/internal/storage/sqlite"
)

// Open connects to cfg.StoreBackend. The caller closes the returned store.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage initialized", "backend", cfg.StoreBackend, "database", cfg.DBPath)
		return store, nil

	case config.BackendMemory:
		logger.Warn("Storage initialized", "backend", cfg.StoreBackend, "durable", false)
		return memory.New(), nil

	case config.BackendPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("Storage initialized", "backend", cfg.StoreBackend)
		return store, nil

	case config.BackendS3:
		store, err := s3store.New(ctx, s3store.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Storage initialized", "backend", cfg.StoreBackend, "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.StoreBackend)
	}
}
