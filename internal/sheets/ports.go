package sheets

import (
	"context"

	"orderboard/internal/core"
)

// Ports for outbound adapters.
type (
	// AggregatePublisher mirrors the aggregate tables of a run to an external
	// spreadsheet, one tab per table.
	AggregatePublisher interface {
		Publish(ctx context.Context, tables []core.Table) error
	}
)
