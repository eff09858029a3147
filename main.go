package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/address-simplifier/app/bootstrap"
	"github.com/address-simplifier/app/config"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// 1. .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: cannot read .env: %v", err)
	}

	// 2. Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("Cannot load configuration: ", err)
	}

	// 3. Logger
	logger, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatal("Cannot initialize logger: ", err)
	}
	defer logger.Sync()

	logger.Info("Starting Address Simplifier Service",
		zap.String("env", cfg.App.Env),
		zap.String("lookup_url", cfg.Oracle.URL),
		zap.Int("pool_size", cfg.Oracle.PoolSize))

	// 4. Services, browser sessions and cache
	app, err := bootstrap.New(context.Background(), cfg, logger, nil)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	// 5. HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 6. Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := app.Close(ctx); err != nil {
		logger.Error("Failed to release resources", zap.Error(err))
	}

	logger.Info("Server exited")
}
