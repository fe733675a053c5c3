package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"orderboard/internal/core"
)

// RunRequestMessage asks a worker to rerun the pipeline.
type RunRequestMessage struct {
	RequestID   string    `json:"request_id"`
	Trigger     string    `json:"trigger"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewRunRequestMessage creates a request with a fresh id.
func NewRunRequestMessage(trigger string) *RunRequestMessage {
	return &RunRequestMessage{
		RequestID:   uuid.NewString(),
		Trigger:     trigger,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RunRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunRequestMessageFromJSON decodes a run request. A message without an id
// is rejected.
func RunRequestMessageFromJSON(data []byte) (*RunRequestMessage, error) {
	var msg RunRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RequestID == "" {
		return nil, fmt.Errorf("run request without request_id")
	}
	return &msg, nil
}

// RunCompletedMessage is published after every pipeline run.
type RunCompletedMessage struct {
	RunID             string         `json:"run_id"`
	Status            core.RunStatus `json:"status"`
	InputRows         int            `json:"input_rows"`
	CleanRows         int            `json:"clean_rows"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	TotalRevenue      float64        `json:"total_revenue"`
	Error             string         `json:"error,omitempty"`
	FinishedAt        time.Time      `json:"finished_at"`
}

// NewRunCompletedMessage builds the event for a ledger record.
func NewRunCompletedMessage(run core.RunRecord, totalRevenue float64) *RunCompletedMessage {
	return &RunCompletedMessage{
		RunID:             run.ID,
		Status:            run.Status,
		InputRows:         run.InputRows,
		CleanRows:         run.CleanRows,
		DuplicatesRemoved: run.DuplicatesRemoved,
		TotalRevenue:      totalRevenue,
		Error:             run.Error,
		FinishedAt:        run.FinishedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *RunCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunCompletedMessageFromJSON decodes a run-completed event.
func RunCompletedMessageFromJSON(data []byte) (*RunCompletedMessage, error) {
	var msg RunCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
