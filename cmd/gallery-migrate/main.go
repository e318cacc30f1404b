// Package main is the entry point for the gallery database migration tool.
// This tool manages SQLite and PostgreSQL schema migrations.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/config"
	"github.com/prn-tf/gallery/internal/logging"
	"github.com/prn-tf/gallery/internal/repository"
	"github.com/prn-tf/gallery/internal/repository/factory"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")

	switch command {
	case "version":
		fmt.Printf("Gallery Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		_ = fs.Parse(os.Args[2:])
		exitOnError(withDatabase(*configPath, func(ctx context.Context, db *repository.Database, _ zerolog.Logger) error {
			before, err := db.Migrator.Version(ctx)
			if err != nil {
				return err
			}
			if err := db.Migrator.Migrate(ctx); err != nil {
				return err
			}
			after, err := db.Migrator.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Migrated from version %d to %d\n", before, after)
			return nil
		}))

	case "status":
		_ = fs.Parse(os.Args[2:])
		exitOnError(withDatabase(*configPath, func(ctx context.Context, db *repository.Database, _ zerolog.Logger) error {
			current, err := db.Migrator.Version(ctx)
			if err != nil {
				return err
			}
			pending, err := db.Migrator.Pending(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Current version: %d\n", current)
			fmt.Printf("Pending migrations: %d\n", pending)
			return nil
		}))

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func withDatabase(configPath string, fn func(context.Context, *repository.Database, zerolog.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cfg.Logging.Output = "stderr"
	cfg.Logging.Format = "console"
	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := context.Background()
	db, err := factory.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return fn(ctx, db, logger)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Gallery Migration Tool

Usage:
  gallery-migrate <command> [--config path]

Commands:
  up          Run all pending migrations
  status      Show current migration status
  version     Print version information
  help        Show this help message

Environment Variables:
  GALLERY_DATABASE_DRIVER    sqlite (default) or postgres
  GALLERY_DATABASE_PATH      SQLite database file
  GALLERY_DATABASE_HOST      PostgreSQL host

Examples:
  gallery-migrate up
  gallery-migrate status --config ./configs/config.yaml`)
}
