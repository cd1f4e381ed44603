package postgres

import (
	"context"
	"io/fs"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schemaDir holds the SQL applied by migrations.RunPostgresMigrations. It is
// read from disk because the migrations package imports this one.
const schemaDir = "../migrations/postgres"

// setupTestDB starts a disposable PostgreSQL with the wallet-risk schema.
// The returned func stops the container.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("wallet_risk"),
		postgres.WithUsername("risk"),
		postgres.WithPassword("risk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn, WithMaxConns(4))
	require.NoError(t, err)

	applySchema(t, ctx, pool)

	return pool, func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	}
}

func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	files, err := fs.Glob(os.DirFS(schemaDir), "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no schema files in %s", schemaDir)
	sort.Strings(files)

	for _, name := range files {
		body, err := os.ReadFile(schemaDir + "/" + name)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, string(body))
		require.NoError(t, err, "apply %s", name)
	}
}

func ptr[T any](v T) *T {
	return &v
}
