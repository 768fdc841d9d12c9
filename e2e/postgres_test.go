package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testCleanup  func()
	testDSN      string
	testPoolErr  error
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL database shared by
// all E2E tests. The container is stopped from TestMain.
func getSharedPostgresDatabase(t *testing.T) (dsn string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container in short mode")
	}

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			testPoolErr = err
			return
		}

		testCleanup = func() {
			if testPool != nil {
				testPool.Close()
			}
			_ = testcontainers.TerminateContainer(pgContainer)
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testPoolErr = err
			return
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			testPoolErr = err
			return
		}
		if err := pool.Ping(ctx); err != nil {
			testPoolErr = err
			return
		}

		testPool = pool
		testDSN = connectionStr
	})

	if testPoolErr != nil {
		t.Fatalf("failed to start postgres: %v", testPoolErr)
	}

	return testDSN
}
