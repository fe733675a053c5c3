package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"orderboard/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.tracer.GetStats()
	render.JSON(w, r, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"requests": map[string]int64{
			"total":     stats.TotalRequests,
			"in_flight": stats.InFlight,
		},
	})
}

// handleReady checks that templates are loaded, the output directory is
// readable and the ledger, when enabled, answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if err := s.dashboard.CheckOutput(); err != nil {
		checks["output_dir"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["output_dir"] = "ok"
	}

	switch err := s.dashboard.CheckLedger(r.Context()); {
	case errors.Is(err, services.ErrLedgerDisabled):
		checks["ledger"] = "disabled"
	case err != nil:
		checks["ledger"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	default:
		checks["ledger"] = "ok"
	}

	render.Status(r, httpStatus)
	render.JSON(w, r, map[string]any{
		"status": status,
		"checks": checks,
	})
}
