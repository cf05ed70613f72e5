// Package infrastructure assembles the shared systems that domain packages
// depend on: lifecycle coordination, logging, database, storage, and metrics.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/tagline/internal/config"
	"github.com/JaimeStill/tagline/migrations"
	"github.com/JaimeStill/tagline/pkg/database"
	"github.com/JaimeStill/tagline/pkg/lifecycle"
	"github.com/JaimeStill/tagline/pkg/metrics"
	"github.com/JaimeStill/tagline/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Metrics   *prometheus.Registry

	dbConfig *database.Config
}

// New creates an Infrastructure from the application configuration, logging to stderr.
// Systems are constructed but not started; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit log destination.
func NewWithWriter(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Logging, w)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Metrics:   metrics.NewRegistry(),
		dbConfig:  &cfg.Database,
	}, nil
}

// NewLogger builds the service logger from the logging config.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Start applies pending migrations when configured and registers database and
// storage hooks with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if i.dbConfig.ShouldMigrate() {
		i.Logger.Info("applying migrations", "driver", i.dbConfig.Driver)
		if err := migrations.Up(i.dbConfig.Driver, i.dbConfig.Dsn()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	return nil
}
