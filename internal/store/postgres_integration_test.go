//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/rshade/carbonledger/internal/engine"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("carbonledger"),
		postgrescontainer.WithUsername("ledger"),
		postgrescontainer.WithPassword("ledger"),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgresStore(t *testing.T) {
	dsn := startPostgres(t)

	runConformance(t, func(t *testing.T) engine.Store {
		ctx := context.Background()
		// Each subtest gets its own schema so the tables start empty.
		schema := "t_" + uuid.NewString()[:8]
		admin, err := pgxpool.New(ctx, dsn)
		require.NoError(t, err)
		_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
		require.NoError(t, err)
		admin.Close()

		s, err := OpenPostgresStore(ctx, dsn+"&search_path="+schema)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestPostgresStore_IncompatibleFactorVersion(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t)

	s, err := OpenPostgresStore(ctx, dsn)
	require.NoError(t, err)
	_, err = s.pool.Exec(ctx, `UPDATE ledger_meta SET value = '9.0.0' WHERE key = $1`, factorVersionKey)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = OpenPostgresStore(ctx, dsn)
	require.ErrorIs(t, err, ErrIncompatibleFactorVersion)
}
