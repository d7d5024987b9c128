package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmethakanbesel/countervalues/internal/config"
	"github.com/ahmethakanbesel/countervalues/internal/countervalue"
	"github.com/ahmethakanbesel/countervalues/internal/currency"
	"github.com/ahmethakanbesel/countervalues/internal/platform/sqlite"
	"github.com/ahmethakanbesel/countervalues/internal/provider/httpapi"
	"github.com/ahmethakanbesel/countervalues/internal/provider/mock"
	"github.com/ahmethakanbesel/countervalues/internal/refresh"
	"github.com/ahmethakanbesel/countervalues/internal/repository/ratemap"
	"github.com/ahmethakanbesel/countervalues/internal/server"
)

func main() {
	cfg := config.Load()

	// Root context: cancelled on SIGINT/SIGTERM so an in-flight sync stops
	// promptly during graceful shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Open database
	db, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	registry := currency.DefaultRegistry()

	settings, err := loadSettings(cfg, registry)
	if err != nil {
		slog.Error("failed to load settings", "error", err)
		os.Exit(1)
	}
	slog.Info("tracking pairs", "count", len(settings.TrackingPairs), "autofill", settings.AutofillGaps, "hourly", cfg.Hourly)

	var provider countervalue.Provider
	if cfg.Mock {
		provider = mock.New()
	} else {
		provider = httpapi.New(httpapi.WithBaseURL(cfg.ProviderURL))
	}

	svc := countervalue.NewService(provider,
		countervalue.WithWorkers(cfg.Workers),
		countervalue.WithHourly(cfg.Hourly),
	)

	// Restore the last snapshot so lookups work before the first sync.
	repo := ratemap.NewRepository(db.DB)
	snap, err := repo.Load(rootCtx)
	if err != nil {
		slog.Error("failed to restore snapshot", "error", err)
		snap = countervalue.Snapshot{}
	}
	initial := countervalue.Import(snap, settings.AutofillGaps, svc.Now())
	slog.Info("snapshot restored", "pairs", len(initial.Data))

	refresher := refresh.New(svc, func() countervalue.Settings { return settings },
		refresh.WithStore(repo),
		refresh.WithInterval(cfg.RefreshInterval),
		refresh.WithInitialState(initial),
		refresh.WithClock(svc.Now),
		// without a settings file the restored pairs are all there is to serve
		refresh.WithPrune(cfg.SettingsFile != ""),
	)
	refreshDone := make(chan struct{})
	go func() {
		refresher.Run(rootCtx)
		close(refreshDone)
	}()

	// HTTP server: rootCtx is the BaseContext so request contexts are
	// cancelled on shutdown.
	srv := server.New(rootCtx, cfg.Port, server.NewHandler(registry, refresher, svc))

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	<-done

	rootCancel()

	// Wait for the running sync to stop before shutting down HTTP.
	<-refreshDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

func loadSettings(cfg config.Config, registry *currency.Registry) (countervalue.Settings, error) {
	settings := countervalue.Settings{AutofillGaps: cfg.AutofillGaps}
	if cfg.SettingsFile == "" {
		slog.Warn("no settings file, only restored pairs are served")
		return settings, nil
	}

	f, err := config.LoadSettingsFile(cfg.SettingsFile)
	if err != nil {
		return settings, err
	}
	pairs, err := f.TrackingPairs(registry, cfg.Countervalue)
	if err != nil {
		return settings, err
	}
	settings.TrackingPairs = pairs
	return settings, nil
}
