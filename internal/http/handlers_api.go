package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"orderboard/internal/core"
	"orderboard/internal/export"
	"orderboard/internal/log"
	"orderboard/internal/middleware/trace"
	"orderboard/internal/services"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: msg, RequestID: trace.GetRequestID(r.Context())})
}

// loadTables answers the request itself when the aggregates cannot be read.
func (s *Server) loadTables(w http.ResponseWriter, r *http.Request) ([]core.Table, bool) {
	tables, err := s.dashboard.Tables(r.Context())
	switch {
	case errors.Is(err, export.ErrOutputMissing):
		renderError(w, r, http.StatusNotFound, "aggregates not exported yet")
		return nil, false
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Loading aggregates failed", log.FieldError, err)
		renderError(w, r, http.StatusInternalServerError, "failed to load aggregates")
		return nil, false
	}
	return tables, true
}

// handleSummary returns the three aggregates as JSON.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	tables, ok := s.loadTables(w, r)
	if !ok {
		return
	}
	out := make(map[string][]map[string]any, len(tables))
	for _, t := range tables {
		out[aggregateKey(t.Name)] = tableRecords(t)
	}
	render.JSON(w, r, out)
}

// handleChart returns the Plotly figure of revenue by category.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	tables, ok := s.loadTables(w, r)
	if !ok {
		return
	}
	for _, t := range tables {
		if t.Name == core.TableCategorySummary {
			render.JSON(w, r, categoryChart(t))
			return
		}
	}
	renderError(w, r, http.StatusNotFound, "category summary not exported yet")
}

// handleListRuns returns the most recent ledger entries.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			renderError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := s.dashboard.Runs(r.Context(), limit)
	switch {
	case errors.Is(err, services.ErrLedgerDisabled):
		renderError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Listing runs failed", log.FieldError, err, log.FieldOperation, log.OpList)
		renderError(w, r, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []core.RunRecord{}
	}
	render.JSON(w, r, runs)
}

type runSnapshotResponse struct {
	Run       core.RunRecord   `json:"run"`
	Category  []map[string]any `json:"category,omitempty"`
	Customers []map[string]any `json:"customers,omitempty"`
}

// handleGetRun returns one ledger entry with the aggregates it stored.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap, err := s.dashboard.Snapshot(r.Context(), id)
	switch {
	case errors.Is(err, services.ErrLedgerDisabled):
		renderError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, services.ErrRunNotFound):
		renderError(w, r, http.StatusNotFound, "run not found")
		return
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Loading run snapshot failed", log.FieldError, err, log.FieldRunID, id)
		renderError(w, r, http.StatusInternalServerError, "failed to load run")
		return
	}

	resp := runSnapshotResponse{Run: snap.Run}
	if snap.Run.Status == core.RunSucceeded {
		resp.Category = tableRecords(core.CategoryTable(snap.Aggregates.Categories))
		resp.Customers = tableRecords(core.CustomerTable(snap.Aggregates.TopCustomers))
	}
	render.JSON(w, r, resp)
}

type runRequestResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// handleRequestRun queues an asynchronous pipeline run.
func (s *Server) handleRequestRun(w http.ResponseWriter, r *http.Request) {
	msg, err := s.dashboard.RequestRun(r.Context())
	switch {
	case errors.Is(err, services.ErrMessagingDisabled):
		renderError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Run request failed", log.FieldError, err, log.FieldOperation, log.OpPublish)
		renderError(w, r, http.StatusBadGateway, "failed to queue run")
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, runRequestResponse{RequestID: msg.RequestID, Status: "queued"})
}
