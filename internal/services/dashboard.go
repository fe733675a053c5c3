package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"orderboard/internal/amqp"
	"orderboard/internal/cache"
	"orderboard/internal/config"
	"orderboard/internal/core"
	"orderboard/internal/export"
	"orderboard/internal/log"
	"orderboard/internal/metrics"
	"orderboard/internal/pipeline"
	"orderboard/internal/sheets"
	"orderboard/internal/storage"
)

// Run triggers recorded in the ledger.
const (
	TriggerRequest = "request"
	TriggerStartup = "startup"
	TriggerAMQP    = "amqp"
	TriggerCLI     = "cli"
)

// Publish targets reported in orderboard_publish_failures_total.
const (
	TargetLedger = "sqlite"
	TargetSheets = "sheets"
	TargetEvents = "amqp"
)

var (
	// ErrLedgerDisabled is returned by Runs when no SQLite database is configured.
	ErrLedgerDisabled = errors.New("run ledger is not configured")
	// ErrMessagingDisabled is returned by RequestRun when no broker is configured.
	ErrMessagingDisabled = errors.New("messaging is not configured")
	// ErrUnknownDownload is returned for a download name that is not exported.
	ErrUnknownDownload = errors.New("unknown download")
	// ErrRunNotFound is returned by Snapshot for an id the ledger does not know.
	ErrRunNotFound = storage.ErrRunNotFound
)

// RunError reports a failed pipeline run.
type RunError struct {
	RunID string
	Err   error
}

func (e *RunError) Error() string { return e.Err.Error() }

func (e *RunError) Unwrap() error { return e.Err }

// Ledger persists run records and aggregate snapshots.
type Ledger interface {
	RecordRun(ctx context.Context, run core.RunRecord) error
	SaveSnapshot(ctx context.Context, runID string, agg core.Aggregates) error
	ListRuns(ctx context.Context, limit int) ([]core.RunRecord, error)
	GetRun(ctx context.Context, id string) (core.RunRecord, error)
	LoadSnapshot(ctx context.Context, runID string) (core.Aggregates, error)
}

// RunSnapshot is a recorded run with the aggregates it stored. Failed runs
// carry no aggregates.
type RunSnapshot struct {
	Run        core.RunRecord
	Aggregates core.Aggregates
}

// RunEvents publishes run lifecycle messages.
type RunEvents interface {
	PublishRunRequest(ctx context.Context, msg *amqp.RunRequestMessage) error
	PublishRunCompleted(ctx context.Context, msg *amqp.RunCompletedMessage) error
}

// Download is an exported file ready to be served.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

var downloads = map[string]struct {
	file        string
	contentType string
}{
	"category":  {export.FileCategorySummary, "text/csv"},
	"customers": {export.FileTopCustomers, "text/csv"},
	"stats":     {export.FileSummaryStats, "text/csv"},
	"cleaned":   {export.FileCleanedOrders, "text/csv"},
	"workbook":  {export.FileWorkbook, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
}

// DashboardConfig wires a DashboardService. Ledger, Events and Sheets are optional.
type DashboardConfig struct {
	Runner      *pipeline.Runner
	Exporter    *export.Exporter
	Metrics     *metrics.Metrics
	Tables      *cache.FileCache[core.Table]
	Ledger      Ledger
	Events      RunEvents
	Sheets      sheets.AggregatePublisher
	RefreshMode string
	RunTimeout  time.Duration
	// PublishTimeout bounds the fan-out to Ledger, Events and Sheets.
	PublishTimeout time.Duration
}

// DashboardService runs the pipeline and serves its outputs. Runs and file
// reads are serialised by one mutex.
type DashboardService struct {
	mu       sync.Mutex
	runner   *pipeline.Runner
	exporter *export.Exporter
	metrics  *metrics.Metrics
	tables   *cache.FileCache[core.Table]
	ledger   Ledger
	events   RunEvents
	sheets   sheets.AggregatePublisher
	mode     string
	timeout  time.Duration
	pubLimit time.Duration
	logger   *log.Logger
	now      func() time.Time
}

func NewDashboardService(cfg DashboardConfig, logger *log.Logger) *DashboardService {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Tables == nil {
		cfg.Tables = cache.NewFileCache[core.Table](16, 10*time.Minute)
	}
	if cfg.RefreshMode == "" {
		cfg.RefreshMode = config.RefreshOnRequest
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = time.Minute
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 15 * time.Second
	}
	return &DashboardService{
		runner:   cfg.Runner,
		exporter: cfg.Exporter,
		metrics:  cfg.Metrics,
		tables:   cfg.Tables,
		ledger:   cfg.Ledger,
		events:   cfg.Events,
		sheets:   cfg.Sheets,
		mode:     cfg.RefreshMode,
		timeout:  cfg.RunTimeout,
		pubLimit: cfg.PublishTimeout,
		logger:   logger.WithComponent(log.ComponentDashboard),
		now:      time.Now,
	}
}

// Init prepares the output directory and, in startup mode, computes the
// aggregates once. A failed startup run is logged and the dashboard keeps
// serving whatever files exist.
func (s *DashboardService) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.exporter.Dir(), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if s.mode != config.RefreshOnStartup {
		return nil
	}
	if _, err := s.Refresh(ctx, TriggerStartup); err != nil {
		s.logger.WarnContext(ctx, "Startup pipeline run failed", log.FieldError, err)
	}
	return nil
}

// Mode returns the freshness mode.
func (s *DashboardService) Mode() string { return s.mode }

// Refresh runs the pipeline now and publishes its results. Publishing
// happens after the lock is released.
func (s *DashboardService) Refresh(ctx context.Context, trigger string) (*pipeline.Result, error) {
	s.mu.Lock()
	res, publish, err := s.runLocked(ctx, trigger)
	s.mu.Unlock()

	publish()
	return res, err
}

// Dashboard returns the three aggregate tables for the HTML page. In request
// mode the pipeline is rerun first. A failed run is returned as *RunError; a
// missing file as export.ErrOutputMissing.
func (s *DashboardService) Dashboard(ctx context.Context) ([]core.Table, error) {
	publish := func() {}
	defer func() { publish() }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == config.RefreshOnRequest {
		var err error
		if _, publish, err = s.runLocked(ctx, TriggerRequest); err != nil {
			return nil, err
		}
	}
	return s.loadTablesLocked()
}

// Tables returns the aggregate tables as currently exported, without running
// the pipeline.
func (s *DashboardService) Tables(ctx context.Context) ([]core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTablesLocked()
}

func (s *DashboardService) loadTablesLocked() ([]core.Table, error) {
	out := make([]core.Table, 0, len(export.Aggregates))
	for _, a := range export.Aggregates {
		t, err := s.tables.Load(s.exporter.Path(a.File), func(path string) (core.Table, error) {
			return export.ReadTable(path, a.Title, a.Schema)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Download reads an exported file by its download name.
func (s *DashboardService) Download(name string) (Download, error) {
	d, ok := downloads[name]
	if !ok {
		return Download{}, fmt.Errorf("%w: %q", ErrUnknownDownload, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.exporter.Path(d.file)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Download{}, fmt.Errorf("%w: %s", export.ErrOutputMissing, path)
		}
		return Download{}, fmt.Errorf("read %s: %w", path, err)
	}
	s.metrics.Downloaded(name)
	return Download{Name: d.file, ContentType: d.contentType, Data: data}, nil
}

// CheckOutput reports whether the output directory can be listed.
func (s *DashboardService) CheckOutput() error {
	_, err := os.ReadDir(s.exporter.Dir())
	return err
}

// Runs returns the most recent run records.
func (s *DashboardService) Runs(ctx context.Context, limit int) ([]core.RunRecord, error) {
	if s.ledger == nil {
		return nil, ErrLedgerDisabled
	}
	return s.ledger.ListRuns(ctx, limit)
}

// Snapshot returns a recorded run and its stored aggregates.
func (s *DashboardService) Snapshot(ctx context.Context, runID string) (RunSnapshot, error) {
	if s.ledger == nil {
		return RunSnapshot{}, ErrLedgerDisabled
	}
	run, err := s.ledger.GetRun(ctx, runID)
	if err != nil {
		return RunSnapshot{}, err
	}
	snap := RunSnapshot{Run: run}
	if run.Status != core.RunSucceeded {
		return snap, nil
	}
	if snap.Aggregates, err = s.ledger.LoadSnapshot(ctx, runID); err != nil {
		return RunSnapshot{}, fmt.Errorf("load snapshot %s: %w", runID, err)
	}
	return snap, nil
}

// CheckLedger pings the ledger database when one is configured.
func (s *DashboardService) CheckLedger(ctx context.Context) error {
	if s.ledger == nil {
		return ErrLedgerDisabled
	}
	if p, ok := s.ledger.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// RequestRun asks a worker to rerun the pipeline.
func (s *DashboardService) RequestRun(ctx context.Context) (*amqp.RunRequestMessage, error) {
	if s.events == nil {
		return nil, ErrMessagingDisabled
	}
	msg := amqp.NewRunRequestMessage(TriggerAMQP)
	if err := s.events.PublishRunRequest(ctx, msg); err != nil {
		return nil, fmt.Errorf("publish run request: %w", err)
	}
	return msg, nil
}

// runLocked runs the pipeline and returns the publication of its outcome,
// to be called once s.mu is released.
func (s *DashboardService) runLocked(ctx context.Context, trigger string) (*pipeline.Result, func(), error) {
	run := core.RunRecord{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		StartedAt: s.now().UTC(),
	}
	logger := s.logger.With(log.FieldRunID, run.ID, log.FieldTrigger, trigger)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	res, err := s.runner.Run(runCtx)
	cancel()
	run.FinishedAt = s.now().UTC()

	if err != nil {
		run.Status = core.RunFailed
		run.Error = err.Error()
		s.metrics.ObserveRun(string(run.Status), run.Duration())
		log.NewStructuredLogger(s.logger).LogError(ctx, "Pipeline run failed", err,
			log.ComponentDashboard, log.OpRun, log.NewFields().WithRun(run.ID, trigger))
		return nil, s.publication(ctx, logger, run, nil), &RunError{RunID: run.ID, Err: err}
	}

	run.Status = core.RunSucceeded
	run.InputRows = res.Report.InputRows
	run.CleanRows = len(res.Dataset.Orders)
	run.DuplicatesRemoved = res.Report.DuplicatesRemoved
	s.metrics.ObserveRun(string(run.Status), run.Duration())
	s.metrics.AddRows(metrics.StageLoad, run.InputRows)
	s.metrics.AddRows(metrics.StageClean, run.CleanRows)

	return res, s.publication(ctx, logger, run, res), nil
}

// publication detaches publishing from the caller's cancellation and bounds
// it by the publish timeout.
func (s *DashboardService) publication(ctx context.Context, logger *log.Logger, run core.RunRecord, res *pipeline.Result) func() {
	return func() {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.pubLimit)
		defer cancel()
		s.publish(pubCtx, logger, run, res)
	}
}

// publish fans the run out to the optional targets. Failures are logged and
// counted, never returned.
func (s *DashboardService) publish(ctx context.Context, logger *log.Logger, run core.RunRecord, res *pipeline.Result) {
	var g errgroup.Group

	if s.ledger != nil {
		g.Go(func() error {
			err := s.ledger.RecordRun(ctx, run)
			if err == nil && res != nil {
				err = s.ledger.SaveSnapshot(ctx, run.ID, res.Aggregates)
			}
			s.reportPublish(ctx, logger, TargetLedger, err)
			return nil
		})
	}

	if s.sheets != nil && res != nil {
		tables := res.Aggregates.Tables()
		g.Go(func() error {
			s.reportPublish(ctx, logger, TargetSheets, s.sheets.Publish(ctx, tables))
			return nil
		})
	}

	if s.events != nil {
		var revenue float64
		if res != nil {
			revenue = res.Aggregates.Stats.TotalRevenue
		}
		msg := amqp.NewRunCompletedMessage(run, revenue)
		g.Go(func() error {
			s.reportPublish(ctx, logger, TargetEvents, s.events.PublishRunCompleted(ctx, msg))
			return nil
		})
	}

	_ = g.Wait()
}

func (s *DashboardService) reportPublish(ctx context.Context, logger *log.Logger, target string, err error) {
	if err == nil {
		logger.DebugContext(ctx, "Run published", log.FieldTarget, target)
		return
	}
	s.metrics.PublishFailed(target)
	logger.WarnContext(ctx, "Publish target failed", log.FieldTarget, target, log.FieldError, err)
}

// Close releases the ledger and the broker connection when they are closable.
func (s *DashboardService) Close() error {
	var errs []error
	if c, ok := s.ledger.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("ledger: %w", err))
		}
	}
	if c, ok := s.events.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}
	return errors.Join(errs...)
}
