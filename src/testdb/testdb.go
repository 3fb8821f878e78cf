/*
Package testdb gives database-backed tests a freshly migrated Postgres schema
of their own. Tests are skipped unless INKWELL_TEST_DB names a database that
the configured Postgres user can create schemas in.
*/
package testdb

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"git.inkwell.blog/inkwell/inkwell/src/config"
	"git.inkwell.blog/inkwell/inkwell/src/db"
	"git.inkwell.blog/inkwell/inkwell/src/migration/migrations"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/stretchr/testify/require"
)

const EnvVar = "INKWELL_TEST_DB"

// Returns a pool whose connections all use a new schema with every migration
// applied. The schema is dropped when the test finishes.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbName := os.Getenv(EnvVar)
	if dbName == "" {
		t.Skipf("%s not set; skipping database test", EnvVar)
	}

	ctx := context.Background()
	schema := "test_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	cfg := config.PostgresConfig{
		DbName:   dbName,
		LogLevel: tracelog.LogLevelError,
		MinConn:  1,
		MaxConn:  8,
	}

	setup := db.NewConnWithConfig(cfg)
	_, err := setup.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema))
	setup.Close(ctx)
	require.NoError(t, err)

	cfg.RuntimeParams = map[string]string{"search_path": schema}
	pool := db.NewConnPoolWithConfig(cfg)

	t.Cleanup(func() {
		pool.Close()
		teardown := db.NewConnWithConfig(config.PostgresConfig{DbName: dbName, LogLevel: tracelog.LogLevelError})
		defer teardown.Close(ctx)
		_, err := teardown.Exec(ctx, fmt.Sprintf("DROP SCHEMA %s CASCADE", schema))
		if err != nil {
			t.Logf("failed to drop test schema %s: %v", schema, err)
		}
	})

	for _, version := range migrations.SortedVersions() {
		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		err = migrations.All[version].Up(ctx, tx)
		if err != nil {
			tx.Rollback(ctx)
			require.NoError(t, err, "migration %v", version)
		}
		require.NoError(t, tx.Commit(ctx))
	}

	return pool
}
