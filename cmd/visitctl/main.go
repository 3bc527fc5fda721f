// Command visitctl manages properties and visits from the terminal, either on
// a local store or against a visitlog server when SERVER_URL is set.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mmynk/visitlog/internal/config"
	"github.com/mmynk/visitlog/internal/core"
	"github.com/mmynk/visitlog/internal/rpc"
	"github.com/mmynk/visitlog/internal/session"
	"github.com/mmynk/visitlog/internal/storage"
	"github.com/mmynk/visitlog/internal/storage/backend"
	"github.com/mmynk/visitlog/pkg/logging"
)

const usage = `usage: visitctl [flags] <command> [args]

commands:
  register -email E -name N [-phone P]   create an account and log in
  login -email E                         log in
  logout                                 end the session
  whoami                                 show the logged-in user
  properties [add -name N -address A [-description D]]
  visits [-property ID] [add -property ID -date D [-parking] [-reason R]]
  reset -yes                             delete all local data
`

func main() {
	cfg, err := config.Load("visitctl", os.Args[1:], ".env")
	var help *config.HelpError
	if errors.As(err, &help) {
		fmt.Fprint(os.Stderr, usage, "\nflags:\n", help.Defaults)
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	logger := logging.Setup(cfg.LogLevel, logging.FormatText)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var (
		api   core.API
		local *core.Core
	)
	if cfg.ServerURL != "" {
		prefix := storage.DefaultKeyPrefix
		if cfg.KeyPrefix != nil {
			prefix = *cfg.KeyPrefix
		}
		sessionKey := storage.NewKeys(prefix + "remote:").CurrentUser
		api = rpc.NewClient(cfg.ServerURL, rpc.WithSessionStore(store, sessionKey))
		logger.Debug("Using remote server", "url", cfg.ServerURL)
	} else {
		local = core.Open(store, core.Config{
			KeyPrefix:            cfg.KeyPrefix,
			Logger:               logger,
			LenientPropertyLinks: cfg.LenientPropertyLinks,
		})
		api = local
	}

	app := &cli{
		api:      api,
		local:    local,
		coord:    session.NewCoordinator(api, logger),
		logger:   logger,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		password: promptPassword,
	}
	return app.run(ctx, cfg.Args)
}

// promptPassword reads a secret without echo from a terminal, or a plain line
// when stdin is piped.
func promptPassword(in *bufio.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Password: ")
	if isTerminal(os.Stdin) {
		pw, err := readPassword(os.Stdin)
		fmt.Fprintln(out)
		return string(pw), err
	}
	return readLine(in)
}
