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

	"shipsync/internal/api"
	"shipsync/internal/app"
	"shipsync/internal/config"
	"shipsync/internal/logger"
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

	services, err := app.NewAPI(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services: %v", err)
	}
	defer services.Close()

	if cfg.ProfileRebajasID == "" || cfg.ProfileGeneralID == "" {
		logger.Warn("shipping profile ids are not fully configured; unconfigured profiles are skipped")
	}

	// Initialize API server
	server := api.New(cfg, logger, services.Deps)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
