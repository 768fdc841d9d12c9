package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sagarc03/filegate"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the app
func getTableMigrations(tables filegate.Tables) []TableMigration {
	migrations := []TableMigration{}

	migrations = append(migrations, TableMigration{
		TableName: tables.FileMeta,
		Up:        createFileMetaTable(tables.FileMeta),
		Down:      dropTable(tables.FileMeta),
	})

	return migrations
}

func Migrate(ctx context.Context, db *sql.DB, tables filegate.Tables) error {
	migrations := getTableMigrations(tables)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, tables filegate.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createFileMetaTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexUser := quoteIdentifier(fmt.Sprintf("idx_%s_user_id", tableName))

		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
				object_key TEXT NOT NULL UNIQUE,
				filename TEXT NOT NULL,
				content_type TEXT NOT NULL,
				size_bytes INTEGER NOT NULL CHECK (size_bytes > 0),
				user_id TEXT NOT NULL,
				thumbnail_key TEXT,
				created_at TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (user_id, id)
		`, indexUser, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index user_id: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
