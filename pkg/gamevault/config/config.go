package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/canvasforge/gamevault/pkg/gamevault"
	repomemory "github.com/canvasforge/gamevault/pkg/gamevault/repo/memory"
	repopg "github.com/canvasforge/gamevault/pkg/gamevault/repo/postgres"
	storememory "github.com/canvasforge/gamevault/pkg/gamevault/store/memory"
	stores3 "github.com/canvasforge/gamevault/pkg/gamevault/store/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		DatabaseType:   "memory",
		StoreType:      "memory",
		MaxContentSize: gamevault.DefaultMaxContentSize,
	}
}

// ServerConfig represents server configuration for the gamevault service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// Whether to apply the postgres schema at startup (development only)
	InitSchema bool

	// Content store configuration
	StoreType string // "memory", "s3"
	S3        stores3.Config

	// Payload ceiling enforced by the service and the configured store
	MaxContentSize int64
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if c.StoreType != "memory" && c.StoreType != "s3" {
		return errors.New("store_type must be 'memory' or 's3'")
	}
	if c.StoreType == "s3" && c.S3.Bucket == "" {
		return errors.New("s3 bucket is required when using the s3 store")
	}

	if c.MaxContentSize <= 0 {
		return errors.New("max content size must be positive")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (gamevault.Service, error) {
	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.buildContentStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build content store: %w", err)
	}

	return gamevault.New(
		gamevault.WithRepository(repo),
		gamevault.WithContentStore(store),
		gamevault.WithMaxContentSize(c.MaxContentSize),
	)
}

func (c *ServerConfig) buildRepository(ctx context.Context) (gamevault.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		repo := repopg.NewWithPool(pool)
		if c.InitSchema {
			if err := repo.InitSchema(ctx); err != nil {
				return nil, err
			}
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) buildContentStore() (gamevault.ContentStore, error) {
	switch c.StoreType {
	case "memory":
		return storememory.New(storememory.WithMaxSize(c.MaxContentSize)), nil
	case "s3":
		s3cfg := c.S3
		s3cfg.MaxSizeBytes = c.MaxContentSize
		return stores3.New(s3cfg)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", c.StoreType)
	}
}
