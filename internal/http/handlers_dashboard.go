package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"orderboard/internal/export"
	"orderboard/internal/log"
	"orderboard/internal/services"
)

const missingOutputHTML = "<h3>CSV file not found. Did the pipeline run successfully?</h3>"

// handleIndex renders the dashboard. Pipeline failures and missing outputs
// are reported in the page body with status 200.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	tables, err := s.dashboard.Dashboard(ctx)
	var runErr *services.RunError
	switch {
	case errors.As(err, &runErr):
		writeHTML(w, http.StatusOK, "<pre>Error running pipeline: "+template.HTMLEscapeString(runErr.Error())+"</pre>")
		return
	case errors.Is(err, export.ErrOutputMissing):
		logger.WarnContext(ctx, "Aggregate file missing", log.FieldError, err)
		writeHTML(w, http.StatusOK, missingOutputHTML)
		return
	case err != nil:
		logger.ErrorContext(ctx, "Loading aggregates failed", log.FieldError, err, log.FieldOperation, log.OpRead)
		http.Error(w, "failed to load aggregates", http.StatusInternalServerError)
		return
	}

	// Render into a buffer so a template error never leaves half a page.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", newDashboardView(tables, time.Now())); err != nil {
		logger.ErrorContext(ctx, "Dashboard template execution failed", log.FieldError, err, log.FieldOperation, log.OpRender)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleDownload streams an exported file as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	d, err := s.dashboard.Download(name)
	switch {
	case errors.Is(err, services.ErrUnknownDownload):
		http.NotFound(w, r)
		return
	case errors.Is(err, export.ErrOutputMissing):
		log.FromContext(ctx).WarnContext(ctx, "Download requested before export", log.FieldFile, name, log.FieldError, err)
		http.Error(w, fmt.Sprintf("Output file for %q not found. Did the pipeline run successfully?", name), http.StatusInternalServerError)
		return
	case err != nil:
		log.FromContext(ctx).ErrorContext(ctx, "Download failed", log.FieldFile, name, log.FieldError, err, log.FieldOperation, log.OpDownload)
		http.Error(w, "failed to read output file", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+d.Name)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
