// Package testutil opens the PostgreSQL database used by repository integration tests.
package testutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/yigit/mentorlink/internal/app/migrations"
)

var errMissingDSN = errors.New("missing TEST_POSTGRES_DSN")

var (
	dbOnce sync.Once
	pool   *pgxpool.Pool
	dbErr  error
)

// MigrationsDir returns the repository's migrations directory
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
}

// DB returns a migrated pool, skipping the test when TEST_POSTGRES_DSN is unset
func DB(tb testing.TB) *pgxpool.Pool {
	tb.Helper()

	dbOnce.Do(func() {
		dsn := os.Getenv("TEST_POSTGRES_DSN")
		if dsn == "" {
			dbErr = errMissingDSN
			return
		}

		ctx := context.Background()
		pool, dbErr = pgxpool.New(ctx, dsn)
		if dbErr != nil {
			return
		}
		if dbErr = pool.Ping(ctx); dbErr != nil {
			return
		}
		_, dbErr = migrations.NewMigrator(pool, zerolog.Nop()).MigrateFromDirectory(ctx, MigrationsDir())
	})

	if errors.Is(dbErr, errMissingDSN) {
		tb.Skip("set TEST_POSTGRES_DSN to run repo integration tests")
	}
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return pool
}

// Reset empties every seeder table
func Reset(tb testing.TB, db *pgxpool.Pool) {
	tb.Helper()
	if _, err := db.Exec(context.Background(), "TRUNCATE attendance_history, gpa_history, students CASCADE"); err != nil {
		tb.Fatalf("truncate: %v", err)
	}
}
