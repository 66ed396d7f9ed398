package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetbook/internal/cache"
	applog "budgetbook/internal/log"
	"budgetbook/internal/services"
	"budgetbook/internal/session"
)

// Server wires the budgeting services to a JSON API. Read endpoints go
// through a small LRU view cache; every entry mutation drops the
// owner's cached views.
type Server struct {
	http.Server

	entries    *services.EntryService
	categories *services.CategoryService
	templates  *services.TemplateService
	calendar   *services.CalendarService
	dashboard  *services.DashboardService
	selection  *services.Selection
	session    *session.Session

	rateLimiter *rateLimiter
	viewCache   *cache.LRUCache[[]byte]
	cacheMgr    *cache.Manager

	logger     *applog.Logger
	structured *applog.StructuredLogger
	metrics    securityMetrics

	shutdownOnce sync.Once
}

// Deps carries everything the server needs.
type Deps struct {
	Entries    *services.EntryService
	Categories *services.CategoryService
	Templates  *services.TemplateService
	Calendar   *services.CalendarService
	Dashboard  *services.DashboardService
	Selection  *services.Selection
	Session    *session.Session
	Logger     *applog.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		entries:     deps.Entries,
		categories:  deps.Categories,
		templates:   deps.Templates,
		calendar:    deps.Calendar,
		dashboard:   deps.Dashboard,
		selection:   deps.Selection,
		session:     deps.Session,
		rateLimiter: newRateLimiter(60, time.Minute),
		viewCache:   cache.NewLRUCache[[]byte](200, 5*time.Minute),
		cacheMgr:    cache.NewManager(),
		logger:      logger.WithComponent(applog.ComponentHTTP),
		structured:  applog.NewStructuredLogger(logger),
	}
	s.cacheMgr.Register(s.viewCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/me", s.secure(s.handleMe))

	mux.HandleFunc("GET /api/selection", s.secure(s.handleGetSelection))
	mux.HandleFunc("PUT /api/selection", s.secure(s.handlePutSelection))

	mux.HandleFunc("GET /api/entries", s.secure(s.handleListEntries))
	mux.HandleFunc("POST /api/entries", s.secure(s.handleCreateEntry))
	mux.HandleFunc("PATCH /api/entries/{id}", s.secure(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /api/entries/{id}", s.secure(s.handleDeleteEntry))
	mux.HandleFunc("POST /api/entries/copy", s.secure(s.handleCopyMonth))
	mux.HandleFunc("POST /api/entries/clear", s.secure(s.handleClearMonth))
	mux.HandleFunc("POST /api/entries/filters", s.secure(s.handleToggleFilter))
	mux.HandleFunc("DELETE /api/entries/filters", s.secure(s.handleClearFilters))

	mux.HandleFunc("GET /api/categories", s.secure(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.secure(s.handleCreateCategory))
	mux.HandleFunc("POST /api/categories/defaults", s.secure(s.handleSeedCategories))
	mux.HandleFunc("PATCH /api/categories/{id}", s.secure(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.secure(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/templates", s.secure(s.handleListTemplates))
	mux.HandleFunc("POST /api/templates", s.secure(s.handleSaveTemplate))
	mux.HandleFunc("POST /api/templates/actions", s.secure(s.handleStageTemplateAction))
	mux.HandleFunc("DELETE /api/templates/actions", s.secure(s.handleCancelTemplateAction))
	mux.HandleFunc("POST /api/templates/actions/confirm", s.secure(s.handleConfirmTemplateAction))

	mux.HandleFunc("GET /api/calendar", s.secure(s.handleCalendar))
	mux.HandleFunc("POST /api/calendar/day", s.secure(s.handleSelectDay))

	mux.HandleFunc("GET /api/dashboard", s.secure(s.handleDashboard))
	mux.HandleFunc("PUT /api/dashboard/chart-mode", s.secure(s.handleChartMode))

	mux.HandleFunc("GET /api/preferences", s.secure(s.handleGetPreferences))
	mux.HandleFunc("PUT /api/preferences", s.secure(s.handlePutPreferences))

	return s
}

// secure adds security headers, rate limiting on mutations, request
// tracing and request logging.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		logger := s.logger.With(applog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), applog.LoggerContextKey, logger)
		r = r.WithContext(ctx)

		if detectSuspiciousRequest(r, &s.metrics) {
			logger.WarnContext(ctx, "Suspicious request pattern",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, &s.metrics) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		s.structured.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
