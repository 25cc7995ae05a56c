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

	"github.com/dgallion1/manualgen/internal/api"
	"github.com/dgallion1/manualgen/internal/config"
	"github.com/dgallion1/manualgen/internal/fetch"
	"github.com/dgallion1/manualgen/internal/pipeline"
	"github.com/dgallion1/manualgen/internal/style"
	"go.uber.org/automaxprocs/maxprocs"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Error ignored: Set only fails on an invalid GOMAXPROCS, where the
	// runtime default applies.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Info("maxprocs", "detail", fmt.Sprintf(format, args...))
	}))

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize pipeline.
	fetcher := fetch.NewClient(cfg.FetchTimeout, cfg.MaxAssetBytes).WithLogger(log)
	runner, err := pipeline.NewRunner(style.Default(), fetcher, log, cfg)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	orch := pipeline.NewOrchestrator(cfg, runner, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting manualgen", "port", cfg.Port, "workers", cfg.WorkerCount, "artifact_dir", cfg.ArtifactDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
}
