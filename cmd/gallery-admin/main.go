// Package main is the entry point for the gallery admin CLI.
// This tool provides administrative commands for managing users, images and secrets.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gallery/internal/auth"
	"github.com/prn-tf/gallery/internal/config"
	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/logging"
	"github.com/prn-tf/gallery/internal/pkg/crypto"
	"github.com/prn-tf/gallery/internal/repository"
	"github.com/prn-tf/gallery/internal/repository/factory"
	"github.com/prn-tf/gallery/internal/service"
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
	args := os.Args[2:]

	var err error
	switch command {
	case "version":
		fmt.Printf("Gallery Admin CLI\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "user":
		err = runUser(args)

	case "image":
		err = runImage(args)

	case "gen-secret":
		var secret string
		secret, err = crypto.GenerateSigningSecret()
		if err == nil {
			fmt.Println(secret)
		}

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env bundles what the data commands need.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	db     *repository.Database
	logger zerolog.Logger
}

func openEnv(configPath string) (*env, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	// Command results go to stdout, logs to stderr.
	cfg.Logging.Output = "stderr"
	cfg.Logging.Format = "console"
	cfg.Logging.Level = "warn"
	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	db, err := factory.OpenAndMigrate(ctx, cfg.Database, logger)
	if err != nil {
		stop()
		_ = closeLog()
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
		stop()
		_ = closeLog()
	}
	return &env{ctx: ctx, cfg: cfg, db: db, logger: logger}, cleanup, nil
}

func runUser(args []string) error {
	if len(args) < 1 || args[0] != "create" {
		return errors.New(`usage: gallery-admin user create --username <name> --password <password>`)
	}

	fs := flag.NewFlagSet("user create", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	username := fs.String("username", "", "username to register")
	password := fs.String("password", "", "password for the new user")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("--username and --password are required")
	}

	e, cleanup, err := openEnv(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	hasher, err := crypto.NewPasswordHasher(e.cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	credentials := service.NewCredentialService(e.db.Repos.User, hasher, e.logger)
	result, err := credentials.Register(e.ctx, *username, *password)
	if err != nil {
		return err
	}
	if result == service.AlreadyExists {
		return fmt.Errorf("username %q is already taken", *username)
	}

	fmt.Printf("Created user %s\n", *username)
	return nil
}

func runImage(args []string) error {
	if len(args) < 1 || args[0] != "add" {
		return errors.New(`usage: gallery-admin image add --owner <username> --name <name> --src <path>`)
	}

	fs := flag.NewFlagSet("image add", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to configuration file")
	owner := fs.String("owner", "", "username of the image owner")
	name := fs.String("name", "", "image name")
	src := fs.String("src", "", "image source path or URL")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	e, cleanup, err := openEnv(*configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	owners := e.db.Repos.User
	images := service.NewImageService(
		e.db.Repos.Image,
		owners,
		auth.NewOwnershipAuthorizer(owners, e.logger),
		e.cfg.Images.MaxNameLength,
		e.logger,
	)

	image, err := images.Create(e.ctx, service.CreateImageInput{
		OwnerUsername: *owner,
		Src:           *src,
		Name:          *name,
	})
	if err != nil {
		return errors.New(domain.Detail(err))
	}

	fmt.Printf("Created image %s\n", image.ID)
	return nil
}

func printUsage() {
	fmt.Println(`Gallery Admin CLI

Usage:
  gallery-admin <command> [arguments]

Commands:
  user        Manage users (create)
  image       Manage images (add)
  gen-secret  Print a random token signing secret
  version     Print version information
  help        Show this help message

Examples:
  gallery-admin user create --username alice --password s3cret
  gallery-admin image add --owner alice --name Sunset --src /uploads/sunset.png
  gallery-admin gen-secret

Flags shared by data commands:
  --config    Path to configuration file (default: ./config.yaml)`)
}
