package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/amiyamandal-dev/contentdesk/internal/app"
	"github.com/amiyamandal-dev/contentdesk/internal/config"
	"github.com/amiyamandal-dev/contentdesk/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "contentdesk",
	Short: "Serve the content viewer, the authoring form and the content API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return run(cmd.Context())
	},
	SilenceUsage: true,
}

func main() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting content desk server",
		"version", "1.0.0",
		"mode", cfg.Server.Mode,
		"auth", cfg.Auth.Enabled,
	)

	// Open stores and build services
	a, err := app.Open(cfg, log)
	if err != nil {
		log.Error("Failed to open stores", "error", err)
		return err
	}
	defer a.Close()

	// Keep the search index in step with the store
	if cfg.Search.SyncInterval > 0 {
		go a.IndexSync.Start(ctx, cfg.Search.SyncInterval)
		defer a.IndexSync.Stop()
	} else if _, err := a.IndexSync.Sync(ctx); err != nil {
		log.Warn("Failed to sync search index", "error", err)
	}

	if cfg.Storage.GCInterval > 0 {
		gcCtx, stopGC := context.WithCancel(ctx)
		defer stopGC()
		go a.DB.RunGC(gcCtx, cfg.Storage.GCInterval, func(err error) {
			log.Warn("Storage GC failed", "error", err)
		})
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Handler(prometheus.NewRegistry()),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		log.Error("Server failed to start", "error", err)
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server stopped gracefully")
	return nil
}
