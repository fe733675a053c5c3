package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderboard/internal/amqp"
	"orderboard/internal/core"
	"orderboard/internal/log"
	"orderboard/internal/pipeline"
	"orderboard/internal/services"
	"orderboard/internal/storage"
)

type fakeRefresher struct {
	triggers []string
	err      error
}

func (f *fakeRefresher) Refresh(_ context.Context, trigger string) (*pipeline.Result, error) {
	f.triggers = append(f.triggers, trigger)
	if f.err != nil {
		return nil, f.err
	}
	now := time.Now()
	return &pipeline.Result{Dataset: &core.Dataset{}, StartedAt: now, FinishedAt: now}, nil
}

type fakeHistory struct {
	run core.RunRecord
	err error
}

func (h fakeHistory) LatestRun(context.Context) (core.RunRecord, error) { return h.run, h.err }

func TestHandleRunRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("runs once per request id", func(t *testing.T) {
		r := &fakeRefresher{}
		w := NewRunWorker(r, nil, "", log.Discard())
		msg := amqp.NewRunRequestMessage("api")

		require.NoError(t, w.HandleRunRequest(ctx, msg))
		require.NoError(t, w.HandleRunRequest(ctx, msg))
		require.NoError(t, w.HandleRunRequest(ctx, amqp.NewRunRequestMessage("api")))

		assert.Equal(t, []string{services.TriggerAMQP, services.TriggerAMQP}, r.triggers)
	})

	t.Run("failed run is acknowledged", func(t *testing.T) {
		r := &fakeRefresher{err: &services.RunError{RunID: "r1", Err: pipeline.ErrEmptyInput}}
		w := NewRunWorker(r, nil, "", log.Discard())

		assert.NoError(t, w.HandleRunRequest(ctx, amqp.NewRunRequestMessage("api")))
	})

	t.Run("other errors are returned for requeue", func(t *testing.T) {
		r := &fakeRefresher{err: errors.New("boom")}
		w := NewRunWorker(r, nil, "", log.Discard())
		msg := amqp.NewRunRequestMessage("api")

		assert.Error(t, w.HandleRunRequest(ctx, msg))
		r.err = nil
		assert.NoError(t, w.HandleRunRequest(ctx, msg))
		assert.Len(t, r.triggers, 2)
	})
}

func TestStartupCheck(t *testing.T) {
	input := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(input, []byte("OrderID\n"), 0o644))
	info, err := os.Stat(input)
	require.NoError(t, err)
	mtime := info.ModTime()

	tests := []struct {
		name    string
		history RunHistory
		wantRun bool
	}{
		{"no ledger", nil, false},
		{"empty ledger", fakeHistory{err: storage.ErrNoRuns}, true},
		{"up to date", fakeHistory{run: core.RunRecord{Status: core.RunSucceeded, FinishedAt: mtime.Add(time.Minute)}}, false},
		{"input changed", fakeHistory{run: core.RunRecord{Status: core.RunSucceeded, FinishedAt: mtime.Add(-time.Minute)}}, true},
		{"latest failed", fakeHistory{run: core.RunRecord{Status: core.RunFailed, FinishedAt: mtime.Add(time.Minute)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRefresher{}
			w := NewRunWorker(r, tt.history, input, log.Discard())
			require.NoError(t, w.StartupCheck(context.Background()))
			if tt.wantRun {
				assert.Equal(t, []string{services.TriggerStartup}, r.triggers)
			} else {
				assert.Empty(t, r.triggers)
			}
		})
	}

	t.Run("ledger error", func(t *testing.T) {
		w := NewRunWorker(&fakeRefresher{}, fakeHistory{err: errors.New("locked")}, input, log.Discard())
		assert.Error(t, w.StartupCheck(context.Background()))
	})
}
