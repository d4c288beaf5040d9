package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/contextcat/internal/aggregate"
	"github.com/dgallion1/contextcat/internal/api"
	"github.com/dgallion1/contextcat/internal/config"
	"github.com/dgallion1/contextcat/internal/pipeline"
	"github.com/dgallion1/contextcat/internal/settings"
	"github.com/dgallion1/contextcat/internal/source"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the document source.
	src, err := source.Open(cfg, log)
	if err != nil {
		log.Error("open document source", "error", err)
		os.Exit(1)
	}
	store := settings.NewStore(cfg.SettingsFile)

	// Initialize pipeline.
	agg := aggregate.New(src.Vault, log, cfg.MaxConcurrentReads)
	orch := pipeline.NewOrchestrator(cfg, agg, src.Writer, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, agg, src.Vault, store, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
		src.Close()
	}()

	log.Info("starting contextcat", "port", cfg.Port, "settings", cfg.SettingsFile)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
