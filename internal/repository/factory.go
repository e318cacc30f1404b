// Package repository defines data access interfaces for the gallery.
// This file contains the types returned by the database factory.
package repository

import "context"

// Repositories holds all repository instances.
type Repositories struct {
	User  UserRepository
	Image ImageRepository
}

// DatabaseHealth is an interface for database health checks.
// This interface satisfies handler.DatabaseChecker for health endpoints.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Migrator applies and reports schema migrations.
type Migrator interface {
	Migrate(ctx context.Context) error
	Version(ctx context.Context) (int, error)
	Pending(ctx context.Context) (int, error)
}

// Database is an open store: its repositories, health check and migrator.
type Database struct {
	Repos    *Repositories
	Health   DatabaseHealth
	Migrator Migrator
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.Health.Close()
}
