package backend

import (
	"context"
	"errors"
	"fmt"

	"orderboard/internal/amqp"
	"orderboard/internal/log"
	gsheet "orderboard/internal/sheets/google"
	"orderboard/internal/sheets/memory"
	"orderboard/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new target factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateTargets implements Factory.CreateTargets. The ledger and the sheets
// target must open when configured; the broker is optional and a failed dial
// only disables run events.
func (f *DefaultFactory) CreateTargets(ctx context.Context, config Config) (*Targets, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	t := &Targets{}
	var closers []func() error
	t.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	if config.SQLiteDBPath != "" {
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize run ledger: %w", err)
		}
		t.Ledger = repo
		closers = append(closers, repo.Close)
		f.logger.Info("Initialized run ledger", "db_path", config.SQLiteDBPath)
	}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without run events", log.FieldError, err)
		} else {
			t.Events = client
			closers = append(closers, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	switch config.Sheets {
	case GoogleSheets:
		cli, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			ServiceAccountFile: config.GoogleServiceAccountFile,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
		}, f.logger)
		if err != nil {
			_ = t.Close()
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		t.Sheets = cli
		f.logger.Info("Initialized Google Sheets target")
	case MemorySheets:
		t.Sheets = memory.New()
		f.logger.Info("Initialized memory sheets target")
	}

	return t, nil
}
