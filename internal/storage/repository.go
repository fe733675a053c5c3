package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"orderboard/internal/core"
	"orderboard/internal/log"

	_ "modernc.org/sqlite"
)

var (
	// ErrNoRuns is returned by LatestRun when the ledger is empty.
	ErrNoRuns = errors.New("no pipeline runs recorded")
	// ErrRunNotFound is returned by GetRun for an unknown id.
	ErrRunNotFound = errors.New("pipeline run not found")
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository is the run ledger: run records plus the aggregate
// snapshot of every successful run.
type SQLiteRepository struct {
	db     *sql.DB
	logger *log.Logger
}

func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	repo := &SQLiteRepository{db: db, logger: logger.WithComponent(log.ComponentStorage)}
	repo.logger.Info("Run ledger ready", log.FieldFile, dbPath, "schema_version", version)
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RecordRun inserts or replaces a run record.
func (r *SQLiteRepository) RecordRun(ctx context.Context, run core.RunRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO pipeline_runs
			(id, triggered_by, started_at, finished_at, status, input_rows, clean_rows, duplicates_removed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Trigger,
		run.StartedAt.UTC().Format(timeLayout), run.FinishedAt.UTC().Format(timeLayout),
		string(run.Status), run.InputRows, run.CleanRows, run.DuplicatesRemoved, run.Error,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	r.logger.DebugContext(ctx, "Run recorded", log.FieldRunID, run.ID, "status", run.Status)
	return nil
}

// SaveSnapshot stores the category summary and top customers of a run,
// replacing any previous snapshot of the same run.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, runID string, agg core.Aggregates) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM category_summary_snapshots WHERE run_id = ?",
		"DELETE FROM top_customer_snapshots WHERE run_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, runID); err != nil {
			return fmt.Errorf("clear snapshot %s: %w", runID, err)
		}
	}

	for i, c := range agg.Categories {
		var avg sql.NullFloat64
		if c.AverageOrderValue.Valid {
			avg = sql.NullFloat64{Float64: c.AverageOrderValue.Value, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_summary_snapshots
				(run_id, position, product_category, total_revenue, average_order_value, order_count)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, i, c.ProductCategory, c.TotalRevenue, avg, c.OrderCount,
		); err != nil {
			return fmt.Errorf("insert category snapshot: %w", err)
		}
	}

	for i, c := range agg.TopCustomers {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO top_customer_snapshots (run_id, position, customer_id, total_amount)
			VALUES (?, ?, ?, ?)`,
			runID, i, c.CustomerID, c.TotalAmount,
		); err != nil {
			return fmt.Errorf("insert customer snapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot %s: %w", runID, err)
	}
	return nil
}

// LoadSnapshot returns the stored category summary and top customers of a run.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, runID string) (core.Aggregates, error) {
	var agg core.Aggregates

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_category, total_revenue, average_order_value, order_count
		FROM category_summary_snapshots WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return agg, fmt.Errorf("query category snapshot: %w", err)
	}
	for rows.Next() {
		var c core.CategorySummary
		var avg sql.NullFloat64
		if err := rows.Scan(&c.ProductCategory, &c.TotalRevenue, &avg, &c.OrderCount); err != nil {
			rows.Close()
			return agg, fmt.Errorf("scan category snapshot: %w", err)
		}
		c.AverageOrderValue = core.NullFloat{Value: avg.Float64, Valid: avg.Valid}
		agg.Categories = append(agg.Categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return agg, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT customer_id, total_amount
		FROM top_customer_snapshots WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return agg, fmt.Errorf("query customer snapshot: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c core.CustomerTotal
		if err := rows.Scan(&c.CustomerID, &c.TotalAmount); err != nil {
			return agg, fmt.Errorf("scan customer snapshot: %w", err)
		}
		agg.TopCustomers = append(agg.TopCustomers, c)
	}
	return agg, rows.Err()
}

// ListRuns returns the most recent runs, newest first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, limit int) ([]core.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, triggered_by, started_at, finished_at, status, input_rows, clean_rows, duplicates_removed, error
		FROM pipeline_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []core.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run by id, or ErrRunNotFound.
func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (core.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, triggered_by, started_at, finished_at, status, input_rows, clean_rows, duplicates_removed, error
		FROM pipeline_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LatestRun returns the most recent run, or ErrNoRuns.
func (r *SQLiteRepository) LatestRun(ctx context.Context) (core.RunRecord, error) {
	runs, err := r.ListRuns(ctx, 1)
	if err != nil {
		return core.RunRecord{}, err
	}
	if len(runs) == 0 {
		return core.RunRecord{}, ErrNoRuns
	}
	return runs[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (core.RunRecord, error) {
	var (
		run               core.RunRecord
		started, finished string
		status            string
	)
	if err := s.Scan(&run.ID, &run.Trigger, &started, &finished, &status,
		&run.InputRows, &run.CleanRows, &run.DuplicatesRemoved, &run.Error); err != nil {
		return run, fmt.Errorf("scan run: %w", err)
	}
	var err error
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return run, fmt.Errorf("parse started_at of run %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return run, fmt.Errorf("parse finished_at of run %s: %w", run.ID, err)
	}
	run.Status = core.RunStatus(status)
	return run, nil
}
