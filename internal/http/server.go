package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"orderboard/internal/amqp"
	"orderboard/internal/core"
	"orderboard/internal/log"
	"orderboard/internal/metrics"
	"orderboard/internal/middleware/ratelimit"
	"orderboard/internal/middleware/security"
	"orderboard/internal/middleware/trace"
	"orderboard/internal/services"
	appweb "orderboard/web"
)

// Dashboard is the service behind the HTTP surface.
type Dashboard interface {
	Dashboard(ctx context.Context) ([]core.Table, error)
	Tables(ctx context.Context) ([]core.Table, error)
	Download(name string) (services.Download, error)
	Runs(ctx context.Context, limit int) ([]core.RunRecord, error)
	Snapshot(ctx context.Context, runID string) (services.RunSnapshot, error)
	CheckLedger(ctx context.Context) error
	RequestRun(ctx context.Context) (*amqp.RunRequestMessage, error)
	CheckOutput() error
}

// ServerConfig wires a Server.
type ServerConfig struct {
	Addr               string
	Dashboard          Dashboard
	Metrics            *metrics.Metrics
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	dashboard Dashboard
	metrics   *metrics.Metrics
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	logger    *log.Logger
	started   time.Time
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(cfg ServerConfig, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		dashboard: cfg.Dashboard,
		metrics:   cfg.Metrics,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}, logger),
		detector:  security.NewDetector(logger),
		logger:    logger.WithComponent(log.ComponentHTTP),
		started:   time.Now(),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, nil)

	r := chi.NewRouter()
	r.Use(log.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(s.detector.Middleware)
	r.Use(headers.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.With(limit).Get("/", s.handleIndex)
		r.Get("/download/{name}", s.handleDownload)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(security.NoStore)
		r.Get("/summary", s.handleSummary)
		r.Get("/chart", s.handleChart)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.With(limit).Post("/runs", s.handleRequestRun)
	})

	return r
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	if err := s.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
