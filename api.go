// Package handler is the serverless entrypoint: each invocation is routed
// through the same gin engine the long-running API server uses.
package handler

import (
	"fmt"
	"net/http"
	"sync"

	"shipsync/internal/api"
	"shipsync/internal/app"
	"shipsync/internal/config"
	"shipsync/internal/logger"
)

var (
	initOnce sync.Once
	router   http.Handler
	initErr  error
)

func initRouter() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	if err := cfg.Validate(); err != nil {
		initErr = err
		return
	}
	log := logger.New(cfg.LogLevel)

	services, err := app.NewAPI(cfg, log)
	if err != nil {
		initErr = err
		return
	}
	// Warm instances reuse the connections; they are never closed explicitly.
	router = api.New(cfg, log, services.Deps).Router()
}

// Handler serves one request.
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(initRouter)
	if initErr != nil {
		http.Error(w, fmt.Sprintf("Initialization failed: %v", initErr), http.StatusInternalServerError)
		return
	}
	router.ServeHTTP(w, r)
}
