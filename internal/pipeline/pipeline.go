package pipeline

import (
	"context"
	"fmt"
	"time"

	"orderboard/internal/core"
	"orderboard/internal/log"
)

// Sink persists the output of a run.
type Sink interface {
	Write(ctx context.Context, ds *core.Dataset, agg core.Aggregates) error
}

// Options configures a Runner.
type Options struct {
	InputPath    string
	Delimiter    rune
	TopCustomers int
}

// Result is the outcome of one successful run.
type Result struct {
	Dataset    *core.Dataset
	Report     CleanReport
	Aggregates core.Aggregates
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Runner executes load, clean, derive, aggregate and export in order.
type Runner struct {
	opts   Options
	sink   Sink
	logger *log.Logger
	now    func() time.Time
}

// NewRunner creates a runner. A nil sink skips the export stage.
func NewRunner(opts Options, sink Sink, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Runner{
		opts:   opts,
		sink:   sink,
		logger: logger.WithComponent(log.ComponentPipeline),
		now:    time.Now,
	}
}

// Run executes the whole pipeline from scratch. Cancelling ctx stops the run
// between stages.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	res := &Result{StartedAt: r.now()}

	raw, err := LoadFile(ctx, r.opts.InputPath, LoadOptions{Delimiter: r.opts.Delimiter})
	if err != nil {
		return nil, err
	}
	r.logger.DebugContext(ctx, "Orders loaded", log.FieldRows, len(raw.Rows), log.FieldFile, r.opts.InputPath)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline cancelled after load: %w", err)
	}

	ds, report := Clean(raw)
	res.Report = report
	r.logger.DebugContext(ctx, "Orders cleaned",
		log.FieldRows, len(ds.Orders),
		"duplicates_removed", report.DuplicatesRemoved,
		"prices_imputed", report.PricesImputed,
		"unparsed_dates", report.UnparsedDates,
	)

	Derive(ds)
	res.Dataset = ds
	res.Aggregates = Aggregate(ds, r.opts.TopCustomers)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline cancelled after aggregate: %w", err)
	}

	if r.sink != nil {
		if err := r.sink.Write(ctx, ds, res.Aggregates); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	res.FinishedAt = r.now()

	r.logger.InfoContext(ctx, "Pipeline run completed",
		log.FieldRows, len(ds.Orders),
		log.FieldDuration, res.Duration().Milliseconds(),
		"categories", len(res.Aggregates.Categories),
	)
	return res, nil
}
