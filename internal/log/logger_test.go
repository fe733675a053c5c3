package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestLoggerJSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatJSON, Component: ComponentPipeline, Output: &buf})

	logger.WithComponent(ComponentExport).Info("Outputs exported", FieldRows, 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Outputs exported", rec["msg"])
	assert.Equal(t, ComponentExport, rec[FieldComponent])
	assert.EqualValues(t, 3, rec[FieldRows])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("hidden")
	assert.Zero(t, buf.Len())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "component=app")
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatJSON, Output: &buf})

	NewStructuredLogger(logger).LogError(context.Background(), "Pipeline run failed", errors.New("input not found"),
		ComponentDashboard, OpRun, NewFields().WithRun("run-1", "cli"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, ComponentDashboard, rec[FieldComponent])
	assert.Equal(t, OpRun, rec[FieldOperation])
	assert.Equal(t, "run-1", rec[FieldRunID])
	assert.Equal(t, "cli", rec[FieldTrigger])
	assert.Equal(t, "input not found", rec[FieldError])
}
