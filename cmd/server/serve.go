package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/nhadat/listing-auth/internal/auth"
	"github.com/nhadat/listing-auth/internal/avatar"
	"github.com/nhadat/listing-auth/internal/cache"
	"github.com/nhadat/listing-auth/internal/config"
	"github.com/nhadat/listing-auth/internal/http/handlers"
	"github.com/nhadat/listing-auth/internal/logger"
	"github.com/nhadat/listing-auth/internal/metrics"
	"github.com/nhadat/listing-auth/internal/server"
	"github.com/nhadat/listing-auth/internal/session"
	"github.com/nhadat/listing-auth/internal/storage"
	"github.com/nhadat/listing-auth/internal/storage/memory"
	"github.com/nhadat/listing-auth/internal/storage/postgres"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.SetupDefault(os.Stdout, !cfg.IsProduction())

	checks := map[string]handlers.Pinger{}

	var store storage.UserStore
	if cfg.DatabaseURL != "" {
		pg, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("init database: %w", err)
		}
		defer pg.Close()
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
		store = pg
		checks["postgres"] = pg
	} else {
		log.Warn("DATABASE_URL not set; using in-memory user store")
		store = memory.NewStore()
	}

	var identityCache session.IdentityCache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.Dial(ctx, cfg.RedisURL, cfg.IdentityCacheTTL)
		if err != nil {
			log.Warn("identity cache disabled", slog.Any("error", err))
		} else {
			defer rc.Close()
			identityCache = rc
			checks["redis"] = rc
		}
	}

	avatars, err := newAvatarResolver(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	sessions := session.NewService(store, tokens, auth.NewBcryptHasher(cfg.BcryptCost), session.Options{
		AccessTTL:   cfg.AccessTokenTTL,
		RefreshTTL:  cfg.RefreshTokenTTL,
		DefaultRole: cfg.DefaultRoleName,
		Avatars:     avatars,
		Cache:       identityCache,
		Events:      collector,
		Logger:      log,
	})

	srv := server.New(cfg, server.Deps{
		Sessions: sessions,
		Tokens:   tokens,
		Metrics:  collector,
		Gatherer: reg,
		Logger:   log,
		Checks:   checks,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info("auth service listening", slog.String("addr", cfg.HTTPAddress()), slog.String("env", cfg.Environment))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown error", slog.Any("error", err))
	}
	log.Info("auth service stopped")
	return nil
}

// newAvatarResolver prefers presigned S3 URLs, then a public base URL, then none.
func newAvatarResolver(ctx context.Context, cfg config.Config) (session.AvatarResolver, error) {
	switch {
	case cfg.S3Bucket != "":
		r, err := avatar.NewS3Resolver(ctx, avatar.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Expires:   cfg.AvatarURLTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("init avatar resolver: %w", err)
		}
		return r, nil
	case cfg.AvatarPublicBaseURL != "":
		return avatar.StaticResolver{BaseURL: cfg.AvatarPublicBaseURL}, nil
	default:
		return nil, nil
	}
}
