package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderboard/internal/core"
	"orderboard/internal/log"
)

type recordingSink struct {
	calls int
	agg   core.Aggregates
	err   error
}

func (s *recordingSink) Write(_ context.Context, _ *core.Dataset, agg core.Aggregates) error {
	s.calls++
	s.agg = agg
	return s.err
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunnerRun(t *testing.T) {
	sink := &recordingSink{}
	r := NewRunner(Options{InputPath: writeInput(t, sampleCSV), TopCustomers: 3}, sink, log.Discard())

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sink.calls)
	assert.Len(t, res.Dataset.Orders, 7)
	assert.Equal(t, 1, res.Report.DuplicatesRemoved)
	assert.Len(t, res.Aggregates.TopCustomers, 3)
	assert.Equal(t, res.Aggregates, sink.agg)
	assert.False(t, res.FinishedAt.Before(res.StartedAt))
}

func TestRunnerErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		r := NewRunner(Options{InputPath: filepath.Join(t.TempDir(), "nope.csv")}, nil, log.Discard())
		_, err := r.Run(context.Background())
		assert.ErrorIs(t, err, ErrInputNotFound)
	})

	t.Run("sink failure", func(t *testing.T) {
		boom := errors.New("disk full")
		r := NewRunner(Options{InputPath: writeInput(t, sampleCSV)}, &recordingSink{err: boom}, log.Discard())
		_, err := r.Run(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		sink := &recordingSink{}
		r := NewRunner(Options{InputPath: writeInput(t, sampleCSV)}, sink, log.Discard())
		_, err := r.Run(ctx)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, sink.calls)
	})
}
