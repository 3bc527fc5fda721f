package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/config"
	"github.com/mmynk/visitlog/internal/metrics"
	"github.com/mmynk/visitlog/internal/service"
	"github.com/mmynk/visitlog/internal/storage/backend"
	"github.com/mmynk/visitlog/pkg/logging"
)

const (
	_readHeaderTimeout = 5 * time.Second
	_idleTimeout       = time.Minute
	_shutdownPeriod    = 30 * time.Second
)

func main() {
	cfg, err := config.Load("server", os.Args[1:], ".env")
	var help *config.HelpError
	if errors.As(err, &help) {
		fmt.Fprint(os.Stderr, "usage: server [flags]\n\nflags:\n", help.Defaults)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Setup(cfg.LogLevel, logging.FormatJSON)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET must be set", config.ErrInvalidConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics, err := metrics.NewStoreMetrics(reg)
	if err != nil {
		return err
	}

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	svc := service.New(storeMetrics.Instrument(cfg.StoreBackend, store), jwtManager, service.Options{
		KeyPrefix:            cfg.KeyPrefix,
		Logger:               logger,
		LenientPropertyLinks: cfg.LenientPropertyLinks,
	})
	rpcPath, rpcHandler := service.Handler(svc, jwtManager, logger)

	app := &application{logger: logger, registry: reg}

	// h2c serves HTTP/2 without TLS, which Connect clients expect.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h2c.NewHandler(app.routes(rpcPath, rpcHandler), &http2.Server{}),
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		ReadHeaderTimeout: _readHeaderTimeout,
		IdleTimeout:       _idleTimeout,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down", "addr", srv.Addr)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), _shutdownPeriod)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Connect server starting", "addr", srv.Addr, "backend", cfg.StoreBackend)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}

	logger.Info("Server stopped", "addr", srv.Addr)
	return nil
}
