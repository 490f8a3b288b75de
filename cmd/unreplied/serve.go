package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/systemshift/unreplied/internal/server/api"
	"github.com/systemshift/unreplied/internal/server/conversations"
	"github.com/systemshift/unreplied/internal/server/graph"
	"github.com/systemshift/unreplied/internal/server/reputation"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort != "" {
			cfg.Port = servePort
		}

		ctx := context.Background()
		repo, err := graph.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("opening %s store: %w", cfg.DBDriver, err)
		}
		defer repo.Close(ctx)
		logger.Info("store ready", "driver", cfg.DBDriver)

		orch, err := reputation.NewFromConfig(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("initializing reputation providers: %w", err)
		}
		logger.Info("reputation providers ready", "mock", cfg.MockMode, "ttl", cfg.CacheTTL, "expiry", cfg.CacheExpiry)

		resolver := conversations.NewResolver(repo, conversations.Options{
			ExcludeAnswered: cfg.ExcludeAnswered,
			TrueReplyCount:  cfg.TrueReplyCount,
			DefaultDays:     cfg.WindowDays,
			Timeout:         cfg.ResolveTimeout,
			Logger:          logger,
		})

		srv := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      api.New(resolver, orch, logger).Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", "http://localhost:"+cfg.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		// Graceful shutdown
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		}

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		logger.Info("server exited")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (overrides PORT)")
}
