package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aerodash/aerodash/internal/cache"
	"github.com/aerodash/aerodash/internal/config"
	"github.com/aerodash/aerodash/internal/dashboard"
	"github.com/aerodash/aerodash/internal/logging"
	"github.com/aerodash/aerodash/internal/table"
	"github.com/aerodash/aerodash/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	// Validate already checked the encoding name.
	enc, _ := table.ParseEncoding(cfg.Data.Encoding)

	opts := []dashboard.Option{dashboard.WithLogger(logger)}
	if cfg.Cache.Enabled {
		opts = append(opts, dashboard.WithCache(cache.New[*table.Table]()))
	}

	service, err := dashboard.NewService(dashboard.Sources{
		Airports:          cfg.Data.Airports(),
		Reports:           cfg.Data.Reports(),
		AirportsDelimiter: cfg.Data.AirportsDelimiter,
		ReportDelimiter:   cfg.Data.ReportDelimiter,
		Encoding:          enc,
	}, opts...)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// A failed warm load is not fatal: requests retry it and report the
	// file error until the files are fixed.
	if cfg.Cache.WarmOnStart {
		if snap, err := service.Load(context.Background()); err != nil {
			slog.Warn("initial load failed", "error", err)
		} else {
			for _, f := range snap.Report.Files {
				slog.Debug("source file", "file", f.String())
			}
		}
	}

	server := web.NewServer(service, cfg.Server)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
