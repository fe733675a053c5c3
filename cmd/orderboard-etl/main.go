package main

import (
	"context"
	"os"

	"orderboard/internal/cli"
	"orderboard/internal/log"
	"orderboard/internal/services"
)

func main() {
	cfg, logger := cli.MustInit("orderboard-etl")

	ctx := context.Background()
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize pipeline", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	res, err := app.Service.Refresh(ctx, services.TriggerCLI)
	if err != nil {
		logger.Error("Pipeline run failed", log.FieldError, err, "input", cfg.InputPath)
		_ = app.Close()
		os.Exit(1)
	}

	logger.Info("Pipeline run completed",
		log.FieldRows, len(res.Dataset.Orders),
		log.FieldDuration, res.Duration().Milliseconds(),
		"output_dir", cfg.OutputDir)

	printReport(os.Stdout, res.Aggregates.Tables(), res.Report)
}
