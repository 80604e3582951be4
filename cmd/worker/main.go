package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shipsync/internal/app"
	"shipsync/internal/config"
	"shipsync/internal/database"
	"shipsync/internal/logger"
	"shipsync/internal/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	scheduler, err := app.NewScheduler(cfg, app.NewShopClient(cfg, logger), db, logger)
	if err != nil {
		logger.Fatal("%v", err)
	}

	// Initialize worker
	w := worker.New(cfg, logger, scheduler)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker
	logger.Info("Starting worker...")
	go w.Start(ctx)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	w.Stop()
}
