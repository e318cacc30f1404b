// Package factory opens the configured document store and builds its repositories.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/config"
	"github.com/prn-tf/gallery/internal/repository"
	"github.com/prn-tf/gallery/internal/repository/postgres"
	"github.com/prn-tf/gallery/internal/repository/sqlite"
)

// Open connects to the database selected by cfg.Driver.
// Migrations are not applied; callers decide when to run them.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Database, error) {
	switch cfg.Driver {
	case "sqlite":
		return openSQLite(ctx, cfg, logger)
	case "postgres":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// OpenAndMigrate opens the database and applies pending migrations.
func OpenAndMigrate(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Database, error) {
	db, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrator.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Database, error) {
	sqliteCfg := sqlite.DefaultConfig(cfg.Path)
	if cfg.JournalMode != "" {
		sqliteCfg.JournalMode = cfg.JournalMode
	}
	if cfg.BusyTimeout > 0 {
		sqliteCfg.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.CacheSize != 0 {
		sqliteCfg.CacheSize = cfg.CacheSize
	}
	if cfg.SynchronousMode != "" {
		sqliteCfg.SynchronousMode = cfg.SynchronousMode
	}

	db, err := sqlite.NewDB(ctx, sqliteCfg, logger.With().Str("db", "sqlite").Logger())
	if err != nil {
		return nil, err
	}

	return &repository.Database{
		Repos: &repository.Repositories{
			User:  sqlite.NewUserRepository(db),
			Image: sqlite.NewImageRepository(db),
		},
		Health:   db,
		Migrator: db,
	}, nil
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Database, error) {
	pgCfg := postgres.Config{
		DSN:             cfg.DSN(),
		MaxConns:        int32(cfg.MaxOpenConns),
		MinConns:        int32(cfg.MaxIdleConns),
		MaxConnLifetime: cfg.ConnMaxLifetime,
		MaxConnIdleTime: cfg.ConnMaxIdleTime,
	}

	db, err := postgres.NewDB(ctx, pgCfg, logger.With().Str("db", "postgres").Logger())
	if err != nil {
		return nil, err
	}

	return &repository.Database{
		Repos: &repository.Repositories{
			User:  postgres.NewUserRepository(db),
			Image: postgres.NewImageRepository(db),
		},
		Health:   db,
		Migrator: db,
	}, nil
}
