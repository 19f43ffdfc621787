package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferncreek/porchlight/internal/config"
	"github.com/ferncreek/porchlight/internal/database"
	"github.com/ferncreek/porchlight/internal/logging"
	"github.com/ferncreek/porchlight/internal/loghub"
	"github.com/ferncreek/porchlight/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// The hub logger bypasses the hub tee so a stalled-subscriber
	// warning cannot publish back into the hub it came from.
	baseHandler := logging.Handler(cfg.LogLevel)
	hub := loghub.NewHub(cfg.LogBufferSize, slog.New(baseHandler).With("component", "loghub"))

	rootHandler := baseHandler
	if cfg.EnableLogViewer {
		rootHandler = logging.NewHubHandler(baseHandler, hub)
	}
	logger := slog.New(rootHandler)
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	srv := server.New(cfg, db, hub, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0, // log streams stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	// Expired rate-limit windows accumulate between sign-in attempts;
	// everything else is swept on the request path.
	cleanupDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupDone:
				return
			}
		}
	}()

	go func() {
		logger.Info("porchlight listening", "addr", "http://localhost:"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(cleanupDone)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
