// Package main is the entry point for the gallery API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/gallery/internal/auth"
	"github.com/prn-tf/gallery/internal/cache/memory"
	"github.com/prn-tf/gallery/internal/cache/redis"
	"github.com/prn-tf/gallery/internal/config"
	"github.com/prn-tf/gallery/internal/handler"
	"github.com/prn-tf/gallery/internal/logging"
	"github.com/prn-tf/gallery/internal/metrics"
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
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(configPath string) error {
	// A missing .env file is fine; real environment variables still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting gallery server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := factory.OpenAndMigrate(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cache, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()

	owners := repository.NewCachedOwnerResolver(db.Repos.User, cache, cfg.Auth.OwnerCacheTTL, logger)

	hasher, err := crypto.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to create password hasher: %w", err)
	}

	codec, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret: []byte(cfg.Auth.JWTSecret),
		TTL:    cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}

	credentials := service.NewCredentialService(db.Repos.User, hasher, logger)
	authService := service.NewAuthService(credentials, codec, logger)
	authorizer := auth.NewOwnershipAuthorizer(owners, logger)
	imageService := service.NewImageService(db.Repos.Image, owners, authorizer, cfg.Images.MaxNameLength, logger)

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:  handler.NewAuthHandler(authService, cfg.Server.MaxBodySize, logger),
		ImageHandler: handler.NewImageHandler(imageService, cfg.Server.MaxBodySize, logger),
		AuthGate:     auth.Middleware(codec, logger),
		Database:     db.Health,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	servers := []*http.Server{srv}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		servers = append(servers, &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, s := range servers {
		go func(s *http.Server) {
			logger.Info().Str("addr", s.Addr).Msg("listening")
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server on %s failed: %w", s.Addr, err)
			}
		}(s)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
	case err = <-errCh:
		logger.Error().Err(err).Msg("server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	for _, s := range servers {
		if shutdownErr := s.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn().Err(shutdownErr).Str("addr", s.Addr).Msg("graceful shutdown failed")
		}
	}

	return err
}

// openCache returns the owner-id cache. Redis is used when enabled and
// falls back to process memory when it cannot be reached at startup.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Cache, func()) {
	if cfg.Redis.Enabled {
		c, err := redis.NewCache(ctx, cfg.Redis, logger)
		if err == nil {
			return c, func() { _ = c.Close() }
		}
		logger.Warn().Err(err).Msg("redis unavailable, using in-memory owner cache")
	}

	c := memory.NewCache(time.Minute)
	return c, c.Stop
}
