package pgtest_test

import (
	"context"
	"os"
	"testing"

	"github.com/Leopold1975/juicebox/internal/pkg/pgtools/pgtest"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestPoolHoldsDatabaseLock(t *testing.T) {
	pool := pgtest.Pool(t)
	pgtest.Truncate(t, pool)

	ctx := context.Background()

	var users int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&users))
	require.Zero(t, users)

	other, err := pgx.Connect(ctx, os.Getenv(pgtest.EnvURL))
	require.NoError(t, err)

	defer other.Close(ctx)

	var acquired bool
	require.NoError(t, other.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", pgtest.LockKey).Scan(&acquired))
	require.False(t, acquired)
}
