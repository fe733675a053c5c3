package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"orderboard/internal/amqp"
	"orderboard/internal/cache"
	"orderboard/internal/core"
	"orderboard/internal/log"
	"orderboard/internal/pipeline"
	"orderboard/internal/services"
	"orderboard/internal/storage"
)

// Refresher reruns the pipeline.
type Refresher interface {
	Refresh(ctx context.Context, trigger string) (*pipeline.Result, error)
}

// RunHistory exposes the latest recorded run.
type RunHistory interface {
	LatestRun(ctx context.Context) (core.RunRecord, error)
}

// RunWorker executes pipeline runs requested over AMQP.
type RunWorker struct {
	refresher Refresher
	history   RunHistory
	inputPath string
	seen      cache.Cache[time.Time]
	logger    *log.Logger
}

// NewRunWorker creates a worker. history may be nil when no ledger is configured.
func NewRunWorker(refresher Refresher, history RunHistory, inputPath string, logger *log.Logger) *RunWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &RunWorker{
		refresher: refresher,
		history:   history,
		inputPath: inputPath,
		seen:      cache.NewLRUCache[time.Time](256, time.Hour),
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRunRequest processes one run request. Redelivered requests that
// already completed are acknowledged without running again.
func (w *RunWorker) HandleRunRequest(ctx context.Context, msg *amqp.RunRequestMessage) error {
	if at, ok := w.seen.Get(msg.RequestID); ok {
		w.logger.InfoContext(ctx, "Run request already processed",
			"request_id", msg.RequestID,
			"processed_at", at)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing run request",
		"request_id", msg.RequestID,
		log.FieldTrigger, msg.Trigger,
		"requested_at", msg.RequestedAt)

	res, err := w.refresher.Refresh(ctx, services.TriggerAMQP)
	if err != nil {
		var runErr *services.RunError
		if errors.As(err, &runErr) && !errors.Is(err, context.Canceled) {
			// The failure is recorded in the ledger; a retry would fail the same way.
			w.seen.Set(msg.RequestID, time.Now())
			w.logger.WarnContext(ctx, "Requested run failed",
				"request_id", msg.RequestID,
				log.FieldRunID, runErr.RunID,
				log.FieldError, err)
			return nil
		}
		return fmt.Errorf("refresh: %w", err)
	}

	w.seen.Set(msg.RequestID, time.Now())
	w.logger.InfoContext(ctx, "Run request completed",
		"request_id", msg.RequestID,
		log.FieldRows, len(res.Dataset.Orders),
		log.FieldDuration, res.Duration().Milliseconds())
	return nil
}

// StartupCheck runs the pipeline when the input changed after the latest
// recorded run, or when no run was ever recorded. It recovers from requests
// missed while the worker was down.
func (w *RunWorker) StartupCheck(ctx context.Context) error {
	if w.history == nil {
		return nil
	}

	latest, err := w.history.LatestRun(ctx)
	switch {
	case errors.Is(err, storage.ErrNoRuns):
		w.logger.InfoContext(ctx, "No recorded runs on startup, running pipeline")
	case err != nil:
		return fmt.Errorf("latest run: %w", err)
	default:
		info, err := os.Stat(w.inputPath)
		if err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
		if latest.Status == core.RunSucceeded && !info.ModTime().After(latest.FinishedAt) {
			w.logger.InfoContext(ctx, "Outputs are up to date",
				log.FieldRunID, latest.ID,
				"finished_at", latest.FinishedAt)
			return nil
		}
		w.logger.InfoContext(ctx, "Input changed since latest run, running pipeline",
			log.FieldRunID, latest.ID)
	}

	if _, err := w.refresher.Refresh(ctx, services.TriggerStartup); err != nil {
		return fmt.Errorf("startup run: %w", err)
	}
	return nil
}
