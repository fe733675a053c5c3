package backend

import (
	"context"

	"orderboard/internal/amqp"
	"orderboard/internal/services"
	"orderboard/internal/sheets"
	"orderboard/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Targets holds the optional publish targets of a pipeline run. A nil field
// means the target is disabled.
type Targets struct {
	Ledger  *storage.SQLiteRepository
	Events  *amqp.Client
	Sheets  sheets.AggregatePublisher
	Cleanup CleanupFunc
}

// Close releases every opened target.
func (t *Targets) Close() error {
	if t == nil || t.Cleanup == nil {
		return nil
	}
	return t.Cleanup()
}

// Apply sets the enabled targets on a dashboard configuration. Disabled
// targets stay nil interfaces.
func (t *Targets) Apply(cfg *services.DashboardConfig) {
	if t.Ledger != nil {
		cfg.Ledger = t.Ledger
	}
	if t.Events != nil {
		cfg.Events = t.Events
	}
	if t.Sheets != nil {
		cfg.Sheets = t.Sheets
	}
}

// Factory creates publish targets based on configuration
type Factory interface {
	// CreateTargets opens every target enabled in config
	CreateTargets(ctx context.Context, config Config) (*Targets, error)
}

// SheetsType selects the spreadsheet publish target.
type SheetsType string

const (
	GoogleSheets SheetsType = "google"
	MemorySheets SheetsType = "memory"
	NoSheets     SheetsType = "none"
)

// String implements fmt.Stringer
func (st SheetsType) String() string {
	return string(st)
}

// IsValid returns true if the sheets type is valid
func (st SheetsType) IsValid() bool {
	switch st {
	case GoogleSheets, MemorySheets, NoSheets:
		return true
	default:
		return false
	}
}
