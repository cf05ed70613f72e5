// Package dbtest opens migrated SQLite databases for repository tests.
package dbtest

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/JaimeStill/tagline/migrations"
	"github.com/JaimeStill/tagline/pkg/database"
)

// Open migrates a fresh SQLite database under t.TempDir and returns its pool.
// The pool is closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()

	cfg := database.Config{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tagline.db"),
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("database config: %v", err)
	}

	if err := migrations.Up(cfg.Driver, cfg.Dsn()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sys, err := database.New(&cfg, Logger())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	db := sys.Connection()
	t.Cleanup(func() { db.Close() })
	return db
}

// Logger returns a logger that discards output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
