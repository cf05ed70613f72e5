// Package migrations embeds the schema for each supported dialect and applies
// it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Dialect names, matching the database config driver values.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Migrator wraps a migrate instance together with the connection it owns.
type Migrator struct {
	*migrate.Migrate
}

// New opens a dedicated connection for dsn and prepares a migrator for the
// driver's embedded schema. The caller must Close the returned Migrator.
func New(driver, dsn string) (*Migrator, error) {
	sqlDriver, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	instance, err := withInstance(driver, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s migration driver: %w", driver, err)
	}

	source, err := iofs.New(files, driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, instance)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{Migrate: m}, nil
}

// Close releases the source and the migrator's connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.Migrate.Close()
	return errors.Join(srcErr, dbErr)
}

// Up applies all pending migrations. An already-current schema is not an error.
func Up(driver, dsn string) error {
	m, err := New(driver, dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func withInstance(driver string, db *sql.DB) (database.Driver, error) {
	switch driver {
	case Postgres:
		return postgres.WithInstance(db, &postgres.Config{})
	case SQLite:
		return sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported driver: %q", driver)
	}
}

func sqlDriverName(driver string) (string, error) {
	switch driver {
	case Postgres:
		return "pgx", nil
	case SQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unsupported driver: %q", driver)
	}
}
