package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"orderboard/internal/cli"
	apphttp "orderboard/internal/http"
	"orderboard/internal/log"
)

func main() {
	cfg, logger := cli.MustInit("orderboard")

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize dashboard", log.FieldError, err)
		os.Exit(1)
	}

	if err := app.Service.Init(context.Background()); err != nil {
		logger.Error("Failed to prepare output directory", log.FieldError, err, "output_dir", cfg.OutputDir)
		_ = app.Close()
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:               cfg.Addr(),
		Dashboard:          app.Service,
		Metrics:            app.Metrics,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RunTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		_ = app.Close()
	})

	logger.Info("Starting orderboard server",
		"addr", cfg.Addr(),
		"refresh_mode", app.Service.Mode(),
		"input", cfg.InputPath,
		"output_dir", cfg.OutputDir,
		"ledger", cfg.LedgerEnabled(),
		"messaging", app.Targets.Events != nil,
		"sheets", cfg.SheetsEnabled())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "addr", cfg.Addr())
		_ = app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
