// Package database provides a unified interface for connecting to metadata backends.
//
// The package supports multiple backends and handles connection management,
// migrations, and schema validation.
//
// # Supported Backends
//
//   - PostgreSQL: Production backend using a pgx connection pool
//   - SQLite: Lightweight backend for development and single-node deployments
//   - Memory: go-memdb backed store for tests and throwaway instances
//
// # Usage
//
//	cfg := database.Config{
//	    Type:        "sqlite",
//	    DSN:         "filegate.db",
//	    Tables:      filegate.Tables{FileMeta: "file_meta"},
//	    AutoMigrate: true,
//	}
//
//	db, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
//   - database/memory: In-process implementation using hashicorp/go-memdb
package database
