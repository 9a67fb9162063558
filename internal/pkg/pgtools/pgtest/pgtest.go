// Package pgtest opens a migrated database for repository integration tests.
// The tests are skipped unless JUICEBOX_TEST_DATABASE_URL is set.
//
// Test binaries of different packages share the database, so Pool holds a
// session advisory lock until the test that asked for it finishes.
package pgtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Leopold1975/juicebox/internal/pkg/config"
	"github.com/Leopold1975/juicebox/internal/pkg/pgtools"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const EnvURL = "JUICEBOX_TEST_DATABASE_URL"

// LockKey is the advisory lock key that serializes the integration suites.
const LockKey int64 = 0x6a75696365

// Pool waits for exclusive use of the test database, brings the schema up to
// date and returns a pool over it. Callers reset data with Truncate.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skipf("%s is not set", EnvURL)
	}

	lock(t, url)

	if err := pgtools.ApplyMigration(config.PostgresDB{URL: url}); err != nil { //nolint:exhaustruct
		t.Fatalf("cannot apply migrations error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15) //nolint:gomnd
	defer cancel()

	pool, err := pgtools.Connect(ctx, url)
	if err != nil {
		t.Fatalf("cannot connect error: %v", err)
	}

	t.Cleanup(pool.Close)

	return pool
}

// lock is registered before the pool so that its cleanup runs after the pool
// is closed.
func lock(t *testing.T, url string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*5) //nolint:gomnd
	defer cancel()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		t.Fatalf("cannot connect error: %v", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", LockKey); err != nil {
		_ = conn.Close(context.Background())

		t.Fatalf("cannot take advisory lock error: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()

		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", LockKey); err != nil {
			t.Logf("cannot release advisory lock error: %v", err)
		}

		_ = conn.Close(ctx)
	})
}

// Truncate empties every table and resets the id sequences.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), "TRUNCATE post_tags, tags, posts, users RESTART IDENTITY CASCADE")
	if err != nil {
		t.Fatalf("cannot truncate error: %v", err)
	}
}
