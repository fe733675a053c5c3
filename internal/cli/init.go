// Package cli provides the initialization shared by cmd/orderboard,
// cmd/orderboard-worker and cmd/orderboard-etl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderboard/internal/backend"
	"orderboard/internal/cache"
	"orderboard/internal/config"
	"orderboard/internal/core"
	"orderboard/internal/export"
	"orderboard/internal/log"
	"orderboard/internal/metrics"
	"orderboard/internal/pipeline"
	"orderboard/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads the configuration from the environment and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the process logger from the configured level and format
// and installs it as the slog default.
func SetupLogger(cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger, nil
}

// MustInit loads the env file, the configuration and the logger, exiting the
// process when any of them fails.
func MustInit(binary string) (*config.Config, *log.Logger) {
	LoadEnvFile()

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", binary, err)
		os.Exit(1)
	}
	logger, err := SetupLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", binary, err)
		os.Exit(1)
	}
	return cfg, logger
}

// NewPipeline builds the exporter and the runner for the configured input.
func NewPipeline(cfg *config.Config, logger *log.Logger) (*pipeline.Runner, *export.Exporter) {
	exp := export.NewExporter(cfg.OutputDir, cfg.WriteWorkbook, logger)
	runner := pipeline.NewRunner(pipeline.Options{
		InputPath:    cfg.InputPath,
		Delimiter:    cfg.Delimiter(),
		TopCustomers: cfg.TopCustomers,
	}, exp, logger)
	return runner, exp
}

// App is a fully wired dashboard service with its publish targets.
type App struct {
	Config   *config.Config
	Service  *services.DashboardService
	Exporter *export.Exporter
	Metrics  *metrics.Metrics
	Targets  *backend.Targets
	CacheMgr *cache.Manager
	logger   *log.Logger
}

// NewApp opens the configured targets and builds the dashboard service.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	targets, err := backend.NewFactory(logger).CreateTargets(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	runner, exp := NewPipeline(cfg, logger)
	tables := cache.NewFileCache[core.Table](16, 10*time.Minute)

	mgr := cache.NewManager(logger)
	mgr.Register(tables)
	mgr.StartCleanup(5 * time.Minute)

	dcfg := services.DashboardConfig{
		Runner:      runner,
		Exporter:    exp,
		Metrics:     m,
		Tables:      tables,
		RefreshMode: cfg.RefreshMode,
		RunTimeout:  cfg.RunTimeout,

		PublishTimeout: cfg.PublishTimeout,
	}
	targets.Apply(&dcfg)

	return &App{
		Config:   cfg,
		Service:  services.NewDashboardService(dcfg, logger),
		Exporter: exp,
		Metrics:  m,
		Targets:  targets,
		CacheMgr: mgr,
		logger:   logger,
	}, nil
}

// Close stops the cache janitor and releases the publish targets.
func (a *App) Close() error {
	a.CacheMgr.Stop()
	if err := a.Targets.Close(); err != nil {
		a.logger.Error("Failed to close publish targets", log.FieldError, err)
		return err
	}
	return nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has returned.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
