package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/jafarshop/ledgersync/internal/api"
	"github.com/jafarshop/ledgersync/internal/app"
	"github.com/jafarshop/ledgersync/internal/config"
	"github.com/jafarshop/ledgersync/internal/service"
)

func main() {
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting ledgersync server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("storefront", cfg.Storefront.Driver),
		zap.String("ledger_transport", cfg.Ledger.Transport),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	// Initialize router
	router := api.NewRouter(cfg, a.Repos, a.Syncer, logger)

	// Create HTTP server; manual syncs run inside the request
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	go service.RunSyncLoop(ctx, a.Syncer, cfg.Sync.Interval, cfg.Sync.RunOnStartup, logger)
	logger.Info("Sync job started",
		zap.Duration("interval", cfg.Sync.Interval),
		zap.Bool("run_on_startup", cfg.Sync.RunOnStartup),
	)

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
