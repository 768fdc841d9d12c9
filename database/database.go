package database

import (
	"context"
	"fmt"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/database/memory"
	"github.com/sagarc03/filegate/database/postgres"
	"github.com/sagarc03/filegate/database/sqlite"
)

// Config holds the configuration for connecting to a metadata backend.
type Config struct {
	// Type specifies the database type: "sqlite", "postgres" or "memory"
	Type string `mapstructure:"type" validate:"required,oneof=sqlite postgres memory"`
	// DSN is the data source name (connection string). Ignored by "memory".
	DSN string `mapstructure:"dsn" validate:"required_unless=Type memory"`
	// Tables holds the table names used by the backend
	Tables filegate.Tables `mapstructure:"tables"`
	// AutoMigrate creates missing tables on startup
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// Database is an open metadata backend.
type Database interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Migrate creates the required tables. It is idempotent.
	Migrate(ctx context.Context) error
	// Validate checks that the existing schema matches what the repo expects.
	Validate(ctx context.Context) error
	// GetRepo returns the file metadata repository. SQL and memory backends
	// also implement filegate.MetaDataScanner.
	GetRepo() filegate.MetaDataRepo
	// Close releases the connection.
	Close() error
}

// Connect opens the configured backend after validating the table names.
// It does not migrate; call Migrate or use Open.
func Connect(ctx context.Context, cfg Config) (Database, error) {
	if err := cfg.Tables.Validate(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return sqlite.Connect(ctx, cfg.DSN, cfg.Tables)
	case "postgres":
		return postgres.Connect(ctx, cfg.DSN, cfg.Tables)
	case "memory":
		return memory.Connect(ctx, cfg.Tables)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects, pings, migrates when AutoMigrate is set, and validates the schema.
func Open(ctx context.Context, cfg Config) (Database, error) {
	db, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate %s: %w", cfg.Type, err)
		}
	}

	if err := db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("validate %s schema: %w", cfg.Type, err)
	}

	return db, nil
}
