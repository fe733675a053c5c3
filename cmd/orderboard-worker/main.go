package main

import (
	"context"
	"errors"
	"os"
	"time"

	"orderboard/internal/cli"
	"orderboard/internal/log"
	"orderboard/internal/worker"
)

func main() {
	cfg, logger := cli.MustInit("orderboard-worker")
	logger.Info("Starting orderboard-worker")

	if !cfg.MessagingEnabled() {
		logger.Error("ORDERBOARD_AMQP_URL is required for the worker")
		os.Exit(1)
	}

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize worker", log.FieldError, err)
		os.Exit(1)
	}
	if app.Targets.Events == nil {
		logger.Error("AMQP broker unreachable", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		_ = app.Close()
		os.Exit(1)
	}
	if err := app.Service.Init(context.Background()); err != nil {
		logger.Error("Failed to prepare output directory", log.FieldError, err, "output_dir", cfg.OutputDir)
		_ = app.Close()
		os.Exit(1)
	}

	var history worker.RunHistory
	if app.Targets.Ledger != nil {
		history = app.Targets.Ledger
	}
	w := worker.NewRunWorker(app.Service, history, cfg.InputPath, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		_ = app.Close()
	})

	// Catch up on requests missed while the worker was down
	logger.Info("Performing startup run check...")
	if err := w.StartupCheck(ctx); err != nil {
		logger.Error("Failed startup run check", log.FieldError, err)
	}

	if err := app.Targets.Events.ConsumeRunRequests(ctx, w.HandleRunRequest); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		_ = app.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
