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

	"github.com/lysyi3m/feedsink/app/api"
	"github.com/lysyi3m/feedsink/app/cfg"
	"github.com/lysyi3m/feedsink/app/database"
	"github.com/lysyi3m/feedsink/app/feed"
	"github.com/lysyi3m/feedsink/app/listing"
	"github.com/lysyi3m/feedsink/app/logsink"
	"github.com/lysyi3m/feedsink/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting Feedsink", "version", appCfg.Version, "port", appCfg.Port)

	sink := logsink.New(logsink.Config{
		Dir:   appCfg.LogDir,
		Debug: appCfg.Debug,
		Force: appCfg.LogForce,
	})
	defer sink.Close()
	if sink.Enabled() {
		slog.Info("Diagnostics log enabled", "path", sink.Path())
	}

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Debug("Database ready", "path", db.Path(), "version", version, "dirty", dirty)

	itemRepo := database.NewItemRepository(db, sink)
	sourceRepo := database.NewSourceRepository(db)

	sourceCache := feed.NewSourceCache(appCfg.SourcesDir)
	if err := sourceCache.Run(); err != nil {
		slog.Warn("Some feed sources could not be loaded", "error", err)
	}
	slog.Info("Feed sources loaded", "dir", appCfg.SourcesDir, "count", sourceCache.GetSourceCount())

	fetcher := feed.NewFetcher(feed.NewParser(), sink, appCfg.UserAgent)
	normalizer := feed.NewNormalizer(sink)

	scheduler := tasks.NewScheduler(sourceCache, fetcher, normalizer, itemRepo, sourceRepo, sink, tasks.Settings{
		FetchTimeout: appCfg.FetchTimeoutDuration(),
		InsecureTLS:  appCfg.InsecureTLS,
		FetchWindow:  appCfg.FetchWindow,
		Retention:    appCfg.Retention(),
	})
	if appCfg.InsecureTLS {
		slog.Warn("TLS certificate verification is disabled for feed fetches; set --strict-tls to enable it")
	}
	if err := scheduler.ScheduleRecurring(appCfg.SchedulerEvery()); err != nil {
		slog.Error("Failed to schedule ingestion", "error", err)
		os.Exit(1)
	}
	defer scheduler.CancelSchedule()

	handler := api.NewHandler(listing.NewService(itemRepo), sourceCache, sourceRepo, scheduler, appCfg.BaseUrl)
	router := api.NewServer(handler, appCfg.RateLimit, appCfg.RateBurst)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Feedsink shutdown complete")
}
