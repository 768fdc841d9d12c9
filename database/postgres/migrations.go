package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/filegate"
)

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, pool *pgxpool.Pool) error
	Down      func(ctx context.Context, pool *pgxpool.Pool) error
}

func getTableMigrations(tables filegate.Tables) []TableMigration {
	return []TableMigration{
		{
			TableName: tables.FileMeta,
			Up:        createFileMetaTable(tables.FileMeta),
			Down:      dropTable(tables.FileMeta),
		},
	}
}

// Migrate creates every table the service needs. It is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tables filegate.Tables) error {
	for _, migration := range getTableMigrations(tables) {
		if err := migration.Up(ctx, pool); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}
	return nil
}

// DropTables drops every table created by Migrate, in reverse order.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tables filegate.Tables) error {
	migrations := getTableMigrations(tables)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, pool); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createFileMetaTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		quotedTable := pgx.Identifier{tableName}.Sanitize()
		indexUser := pgx.Identifier{fmt.Sprintf("idx_%s_user_id", tableName)}.Sanitize()

		sql := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
				object_key TEXT NOT NULL UNIQUE,
				filename TEXT NOT NULL,
				content_type TEXT NOT NULL,
				size_bytes BIGINT NOT NULL CHECK (size_bytes > 0),
				user_id TEXT NOT NULL,
				thumbnail_key TEXT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS %s
			ON %s (user_id, id DESC);
		`,
			quotedTable,
			indexUser, quotedTable,
		)

		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create file meta table: %w", err)
		}
		return nil
	}
}

func dropTable(tableName string) func(context.Context, *pgxpool.Pool) error {
	return func(ctx context.Context, pool *pgxpool.Pool) error {
		sql := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{tableName}.Sanitize())
		_, err := pool.Exec(ctx, sql)
		return err
	}
}
