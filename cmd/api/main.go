package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TheRealSoutrikDas/stackit/backend/internal/auth"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/config"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/database"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/forum"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/handlers"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/media"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/middleware"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/notify"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/search"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/server"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/session"
	"github.com/TheRealSoutrikDas/stackit/backend/internal/store"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("stackit api failed", "error", err)
		os.Exit(1)
	}
}

// run wires the dependencies and serves until SIGINT or SIGTERM. Errors are
// returned so deferred cleanup runs before the process exits.
func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ctx := context.Background()

	var (
		dataStore forum.Store
		db        *database.Database
	)
	switch cfg.StoreDriver {
	case "memory":
		slog.Warn("using in-memory store; data is lost on restart")
		dataStore = store.NewMemoryStore()
	case "postgres":
		var err error
		db, err = database.Open(ctx, cfg.DatabaseURL, cfg.LogSQL)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		dataStore = store.NewGormStore(db.GORM())
	}

	var revoker session.Revoker
	if strings.TrimSpace(cfg.RedisURL) != "" {
		slog.Info("using redis for token revocation")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisStore.Close()
		revoker = redisStore
	} else {
		slog.Info("using in-process token revocation")
		revoker = session.NewMemoryStore()
	}

	var engine search.Engine
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		engine = meiliClient
	}
	searchService := search.NewService(engine, search.NewStoreSearcher(dataStore))

	var sender notify.Sender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFrom != "" {
		sender = notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	}
	notifier := notify.New(dataStore, sender)

	var uploader media.Uploader
	if cfg.MinioEndpoint != "" {
		minioStore, err := media.NewMinioStore(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
		})
		if err != nil {
			slog.Error("object storage unavailable; avatar uploads disabled", "error", err)
		} else {
			uploader = minioStore
		}
	}

	forumService := forum.NewService(dataStore, forum.WithIndexer(searchService), forum.WithNotifier(notifier))
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	handler := handlers.NewHandler(handlers.Deps{
		Forum:        forumService,
		Tokens:       tokens,
		Revoker:      revoker,
		Search:       searchService,
		Uploader:     uploader,
		SecureCookie: cfg.CookieSecure,
	})
	httpServer := server.NewServer(server.Options{
		Config:  cfg,
		Handler: handler,
		Auth:    middleware.NewAuthenticator(tokens, revoker, dataStore),
		DB:      db,
		Store:   dataStore,
		Revoker: revoker,
		Search:  searchService,
	})

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("StackIt API listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	searchService.Wait()
	notifier.Wait()
	slog.Info("server stopped")
	return nil
}
