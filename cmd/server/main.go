package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"

	"github.com/focusnest/webhook-service/internal/archive"
	"github.com/focusnest/webhook-service/internal/config"
	"github.com/focusnest/webhook-service/internal/dedupe"
	"github.com/focusnest/webhook-service/internal/httpapi"
	"github.com/focusnest/webhook-service/internal/profile"
	"github.com/focusnest/webhook-service/internal/webhook"
	"github.com/focusnest/webhook-service/pkg/auth"
	"github.com/focusnest/webhook-service/pkg/logging"
	"github.com/focusnest/webhook-service/pkg/server"
)

const serviceName = "webhook-service"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.New(os.Stdout, serviceName, logging.ParseLevel(cfg.LogLevel))

	repo, cleanup, err := newRepository(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("repository init error: %w", err))
	}
	defer cleanup()

	signatures, err := webhook.NewVerifier(cfg.ClerkWebhookSecret, webhook.WithTolerance(cfg.WebhookTolerance))
	if err != nil {
		panic(fmt.Errorf("webhook verifier error: %w", err))
	}

	verifier, err := auth.NewVerifier(auth.Config{
		Mode:     auth.Mode(cfg.AuthMode),
		JWKSURL:  cfg.ClerkJWKSURL,
		Audience: cfg.ClerkAudience,
		Issuer:   cfg.ClerkIssuer,
		Logger:   logger,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}
	if closer, ok := verifier.(interface{ Close() }); ok {
		defer closer.Close()
	}

	deps := httpapi.Deps{
		Verifier:     signatures,
		Service:      profile.NewService(repo, logger, profile.WithDeletions(cfg.SyncDeletions)),
		Logger:       logger,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	if pinger, ok := repo.(profile.Pinger); ok {
		deps.Readiness = pinger
	}

	if cfg.DedupeEnabled {
		client, err := dedupe.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			panic(fmt.Errorf("redis init error: %w", err))
		}
		defer client.Close()
		deps.Dedupe = dedupe.NewRedisStore(client, cfg.DedupeTTL)
		logger.Info("delivery dedupe enabled", slog.String("addr", cfg.RedisAddr))
	}

	if cfg.ArchiveEnabled() {
		archiver, err := archive.NewGCSArchiver(ctx, cfg.ArchiveBucket, cfg.ArchivePrefix)
		if err != nil {
			panic(fmt.Errorf("archive init error: %w", err))
		}
		defer archiver.Close()
		deps.Archiver = archiver
		logger.Info("payload archive enabled", slog.String("bucket", cfg.ArchiveBucket))
	}

	router := server.NewRouter(serviceName, func(r chi.Router) {
		httpapi.RegisterRoutes(r, deps, auth.Middleware(verifier))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("profile store selected", slog.String("datastore", cfg.Datastore), slog.Bool("syncDeletions", cfg.SyncDeletions))

	if err := server.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func newRepository(ctx context.Context, cfg config.Config) (profile.Repository, func(), error) {
	switch cfg.Datastore {
	case config.DatastoreFirestore:
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("firestore client: %w", err)
		}
		return profile.NewFirestoreRepository(client), func() { _ = client.Close() }, nil
	case config.DatastorePostgres:
		return newSQLRepository(ctx, profile.DialectPostgres, cfg.DatabaseURL, cfg.AutoMigrate)
	case config.DatastoreSQLite:
		return newSQLRepository(ctx, profile.DialectSQLite, cfg.SQLitePath, cfg.AutoMigrate)
	case config.DatastoreMemory:
		return profile.NewMemoryRepository(), func() {}, nil
	default:
		client := &http.Client{Timeout: 10 * time.Second}
		return profile.NewSupabaseRepository(cfg.SupabaseURL, cfg.SupabaseKey, client), func() {}, nil
	}
}

func newSQLRepository(ctx context.Context, dialect profile.Dialect, dsn string, migrate bool) (profile.Repository, func(), error) {
	db, err := profile.OpenSQL(ctx, dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	repo := profile.NewSQLRepository(db, dialect)
	if migrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate profiles: %w", err)
		}
	}
	return repo, func() { _ = db.Close() }, nil
}
