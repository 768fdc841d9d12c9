package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/database/internal/repotest"
	"github.com/sagarc03/filegate/database/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestDatabase_Validate(t *testing.T) {
	ctx := context.Background()

	t.Run("success - valid schema after migrate", func(t *testing.T) {
		db, err := sqlite.Connect(ctx, ":memory:", filegate.Tables{FileMeta: "file_meta"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		require.NoError(t, db.Migrate(ctx))
		assert.NoError(t, db.Validate(ctx))
	})

	t.Run("error - table does not exist", func(t *testing.T) {
		db, err := sqlite.Connect(ctx, ":memory:", filegate.Tables{FileMeta: "file_meta"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		err = db.Validate(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("error - wrong column type", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "wrong.db")

		raw, err := sql.Open("sqlite", path)
		require.NoError(t, err)
		_, err = raw.ExecContext(ctx, `
			CREATE TABLE file_meta (
				id INTEGER NOT NULL PRIMARY KEY,
				object_key TEXT NOT NULL,
				filename TEXT NOT NULL,
				content_type TEXT NOT NULL,
				size_bytes TEXT NOT NULL,
				user_id TEXT NOT NULL,
				thumbnail_key TEXT,
				created_at TEXT NOT NULL
			)
		`)
		require.NoError(t, err)
		require.NoError(t, raw.Close())

		db, err := sqlite.Connect(ctx, path, filegate.Tables{FileMeta: "file_meta"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		err = db.Validate(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "size_bytes")
	})

	t.Run("error - missing columns", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.db")

		raw, err := sql.Open("sqlite", path)
		require.NoError(t, err)
		_, err = raw.ExecContext(ctx, `CREATE TABLE file_meta (id INTEGER NOT NULL PRIMARY KEY)`)
		require.NoError(t, err)
		require.NoError(t, raw.Close())

		db, err := sqlite.Connect(ctx, path, filegate.Tables{FileMeta: "file_meta"})
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		err = db.Validate(ctx)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "missing columns")
	})
}

func TestMigrate_DropTables(t *testing.T) {
	ctx := context.Background()

	raw, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	raw.SetMaxOpenConns(1)
	defer func() { _ = raw.Close() }()

	tables := filegate.Tables{FileMeta: "file_meta"}

	require.NoError(t, sqlite.Migrate(ctx, raw, tables))
	require.NoError(t, sqlite.Migrate(ctx, raw, tables), "migrate should be idempotent")
	assert.NoError(t, sqlite.ValidateSchema(ctx, raw, tables))

	require.NoError(t, sqlite.DropTables(ctx, raw, tables))
	assert.Error(t, sqlite.ValidateSchema(ctx, raw, tables), "table should be gone after drop")
}

func TestDatabase_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "filegate.db")
	tables := filegate.Tables{FileMeta: "file_meta"}

	db, err := sqlite.Connect(ctx, path, tables)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))

	saved, err := db.GetRepo().Save(ctx, repotest.NewMeta("u1", "kept.txt"))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := sqlite.Connect(ctx, path, tables)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetRepo().FindByKey(ctx, saved.Key)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
}

func TestRepo(t *testing.T) {
	repotest.Run(t, setupTestRepo)
}
