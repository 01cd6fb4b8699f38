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

	"github.com/spf13/cobra"

	"github.com/terra-clan/learnpath/internal/api"
	"github.com/terra-clan/learnpath/internal/catalog"
	"github.com/terra-clan/learnpath/internal/config"
	"github.com/terra-clan/learnpath/internal/generation"
	"github.com/terra-clan/learnpath/internal/health"
	"github.com/terra-clan/learnpath/internal/janitor"
	"github.com/terra-clan/learnpath/internal/learning"
	"github.com/terra-clan/learnpath/internal/storage"
	"github.com/terra-clan/learnpath/internal/videosearch"
)

func serveCmd() *cobra.Command {
	var ephemeral bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the learnpath HTTP API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ephemeral {
				cfg.Store.Backend = config.BackendMemory
			}
			setupLogging(cfg)
			return serve(cfg)
		},
	}

	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep everything in memory, ignoring STORE_BACKEND")
	return cmd
}

func serve(cfg *config.Config) error {
	if err := cfg.RequireCredentials(); err != nil {
		slog.Error("missing credentials", "error", err)
		return err
	}

	slog.Info("starting learnpath",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
	)

	// Create context for initialization
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	store, err := storage.Open(initCtx, cfg.Store)
	if err != nil {
		slog.Error("failed to open store", "error", err)
		return err
	}
	defer store.Close()

	cat, err := catalog.Load(cfg.Catalog.Dir)
	if err != nil {
		slog.Error("failed to load catalog", "dir", cfg.Catalog.Dir, "error", err)
		return err
	}

	gen, err := generation.NewGeminiClient(initCtx, cfg.Generation)
	if err != nil {
		slog.Error("failed to create generation client", "error", err)
		return err
	}

	searcher, err := videosearch.NewYouTubeClient(cfg.Search)
	if err != nil {
		slog.Error("failed to create video search client", "error", err)
		return err
	}

	// Health checks
	registry := health.NewRegistry()
	registry.Register("store", health.CheckerFunc(store.Ping))
	if cfg.Store.Backend == config.BackendPostgres {
		probe, err := health.NewPostgresProbe(cfg.Store.Database.DSN)
		if err != nil {
			slog.Error("failed to create postgres probe", "error", err)
			return err
		}
		defer probe.Close()
		registry.Register("postgres", probe)
	}

	// Learning services
	persister := learning.NewPersister(store)
	levels := learning.NewLevelService(cat, store)
	sessions := learning.NewSessions(cfg.Sessions.TTL, learning.Deps{
		Catalog:   cat,
		Levels:    levels,
		Paths:     learning.NewPathService(store, gen),
		Content:   learning.NewContentService(store, gen, searcher),
		Persister: persister,
	})

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	janitor.New(sessions, store, cfg.Janitor.Interval, cfg.Janitor.PurgeLegacyKeys).Start(ctx)

	// Setup HTTP server
	server := api.NewServer(cfg.Server, api.Deps{
		Catalog:  cat,
		Levels:   levels,
		Sessions: sessions,
		Store:    store,
		Health:   registry,
		Clients:  cfg.Auth.Clients,
	})
	if len(cfg.Auth.Clients) == 0 {
		slog.Warn("no API clients configured, authentication disabled")
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr, "model", gen.Model())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		slog.Error("HTTP server error", "error", err)
		return err
	}

	slog.Info("shutting down gracefully...")

	// Cancel context to stop background workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Flush pending progress writes before the store closes
	persister.Wait()

	slog.Info("learnpath stopped")
	return nil
}
