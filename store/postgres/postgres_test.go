package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"

	"github.com/padraicbc/f1sim/db"
	"github.com/padraicbc/f1sim/store/storetest"
)

// setupTestDB starts a PostgreSQL container and creates the tables.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	bdb := db.Open(dsn, false)
	t.Cleanup(func() { _ = bdb.Close() })
	require.NoError(t, bdb.PingContext(ctx))
	require.NoError(t, db.CreateTables(ctx, bdb))
	// Second call must be a no-op.
	require.NoError(t, db.CreateTables(ctx, bdb))
	return bdb
}

func TestStore(t *testing.T) {
	s := New(setupTestDB(t))

	t.Run("profiles", func(t *testing.T) { storetest.Profiles(t, s) })
	t.Run("circuits", func(t *testing.T) { storetest.Circuits(t, s) })
	t.Run("runs", func(t *testing.T) { storetest.Runs(t, s) })
	t.Run("users", func(t *testing.T) { storetest.Users(t, s) })
}
