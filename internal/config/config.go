// Package config loads runtime settings from defaults, an optional .env file,
// the environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// HelpError is returned by Load when -h or -help is passed. It matches
// flag.ErrHelp.
type HelpError struct {
	// Defaults is the flag listing printed by flag.FlagSet.PrintDefaults.
	Defaults string
}

func (e *HelpError) Error() string { return "help requested" }

func (e *HelpError) Unwrap() error { return flag.ErrHelp }

// Config holds every setting of the server and the CLI.
type Config struct {
	LogLevel string

	StoreBackend string

	// KeyPrefix namespaces the store keys. Nil keeps the default prefix.
	KeyPrefix *string
	DBPath    string

	DatabaseDSN string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string

	HTTPAddr  string
	JWTSecret string
	JWTTTL    time.Duration

	LenientPropertyLinks bool

	// ServerURL switches the CLI to the remote server when set.
	ServerURL string

	// Args holds the arguments left after the flags.
	Args []string
}

func defaults() Config {
	return Config{
		LogLevel:     "info",
		StoreBackend: BackendSQLite,
		DBPath:       "./data/visitlog.db",
		S3Region:     "us-east-1",
		HTTPAddr:     ":8080",
		JWTTTL:       24 * time.Hour,
	}
}

// Load builds the configuration for the program name from args (without the
// program name itself). envFile is read if it exists; a missing file is not an
// error.
func Load(name string, args []string, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := defaults()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.parseFlags(name, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("STORE_BACKEND", &c.StoreBackend)
	str("DB_PATH", &c.DBPath)
	str("DATABASE_DSN", &c.DatabaseDSN)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_ENDPOINT", &c.S3Endpoint)
	str("S3_ACCESS_KEY", &c.S3AccessKey)
	str("S3_SECRET_KEY", &c.S3SecretKey)
	str("S3_PREFIX", &c.S3Prefix)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("JWT_SECRET", &c.JWTSecret)
	str("SERVER_URL", &c.ServerURL)

	if v, ok := lookup("STORE_KEY_PREFIX"); ok {
		c.KeyPrefix = &v
	}
	if v, ok := lookup("JWT_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: JWT_TTL: %v", ErrInvalidConfig, err)
		}
		c.JWTTTL = d
	}
	if v, ok := lookup("LENIENT_PROPERTY_LINKS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: LENIENT_PROPERTY_LINKS: %v", ErrInvalidConfig, err)
		}
		c.LenientPropertyLinks = b
	}
	return nil
}

func (c *Config) parseFlags(name string, args []string) error {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&c.StoreBackend, "store", c.StoreBackend, "store backend: sqlite, memory, postgres, s3")
	fs.StringVar(&c.DBPath, "db", c.DBPath, "sqlite database path")
	fs.StringVar(&c.DatabaseDSN, "dsn", c.DatabaseDSN, "postgres connection string")
	fs.StringVar(&c.S3Bucket, "s3-bucket", c.S3Bucket, "s3 bucket")
	fs.StringVar(&c.HTTPAddr, "addr", c.HTTPAddr, "http listen address")
	fs.StringVar(&c.ServerURL, "server", c.ServerURL, "remote server url")
	fs.DurationVar(&c.JWTTTL, "jwt-ttl", c.JWTTTL, "token lifetime")
	fs.BoolVar(&c.LenientPropertyLinks, "lenient-links", c.LenientPropertyLinks, "accept visits for unknown properties")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			var b strings.Builder
			fs.SetOutput(&b)
			fs.PrintDefaults()
			return &HelpError{Defaults: b.String()}
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Args = fs.Args()
	return nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: DB_PATH is required for the sqlite backend", ErrInvalidConfig)
		}
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: DATABASE_DSN is required for the postgres backend", ErrInvalidConfig)
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%w: S3_BUCKET is required for the s3 backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("%w: JWT_TTL must be positive", ErrInvalidConfig)
	}
	return nil
}
