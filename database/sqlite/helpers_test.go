package sqlite_test

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/database/sqlite"
	"github.com/stretchr/testify/assert"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) (filegate.MetaDataRepo, func()) {
	t.Helper()

	ctx := context.Background()

	tableName := fmt.Sprintf("file_meta_%s", getRandomString(t))
	tables := filegate.Tables{FileMeta: tableName}

	db, err := sqlite.Connect(ctx, ":memory:", tables)
	assert.NoError(t, err, "failed to connect")

	err = db.Migrate(ctx)
	assert.NoError(t, err, "failed to migrate")

	repo := db.GetRepo()

	cleanup := func() {
		_ = db.Close()
	}

	return repo, cleanup
}
