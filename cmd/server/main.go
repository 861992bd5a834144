// Package main is the entry point for the salesync API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "salesync/internal/infrastructure/http/v1"
	"salesync/internal/relay"
	"salesync/internal/store"
	"salesync/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("starting salesync server")

	// --- Entity store (seeded, volatile) ---
	entityStore := store.New(log)

	// --- Hub and broadcast relay ---
	hub := relay.NewHub(log)
	broadcast := relay.New(entityStore, hub, log)

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	go broadcast.Run(relayCtx)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Store:      entityStore,
		Hub:        hub,
		Logger:     log,
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3000"),
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:        ":" + port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the websocket endpoint holds connections open.
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}
	stopRelay()

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
