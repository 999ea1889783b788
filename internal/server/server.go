// Package server exposes the assistant over HTTP: the chat (REST and a
// websocket), the catalog, contact-form inquiries and the admin panel.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"export-assistant/internal/admin"
	"export-assistant/internal/catalog"
	"export-assistant/internal/chat"
	"export-assistant/internal/common/logger"
	"export-assistant/internal/common/observability"
	"export-assistant/internal/inquiry"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a backend is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Chat      *chat.Controller
	Sessions  *chat.Sessions
	Catalog   *catalog.Service
	Index     catalog.Searcher // nil without an index
	Inquiries *inquiry.Service
	Admin     *admin.Service
	Logger    logger.Logger
	// Observability traces requests and counts them by route. Optional.
	Observability *observability.Observability

	AllowedOrigins []string
	Checks         map[string]HealthCheck
}

type Server struct {
	deps   Deps
	logger logger.Logger
	mux    *http.ServeMux
}

func New(deps Deps) *Server {
	s := &Server{
		deps:   deps,
		logger: deps.Logger.With(map[string]interface{}{"component": "http"}),
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	s.mux.HandleFunc("POST /api/chat/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/chat/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("POST /api/chat/sessions/{id}/messages", s.handlePostMessage)
	s.mux.HandleFunc("GET /api/chat/sessions/{id}/socket", s.handleSocket)

	s.mux.HandleFunc("GET /api/catalog/products", s.handleProducts)
	s.mux.HandleFunc("GET /api/catalog/products/{id}", s.handleProduct)
	s.mux.HandleFunc("GET /api/catalog/leadership", s.handleLeadership)
	s.mux.HandleFunc("GET /api/catalog/category-images", s.handleCategoryImages)
	s.mux.HandleFunc("GET /api/logistics", s.handleLogistics)

	s.mux.HandleFunc("POST /api/inquiries", s.handleSubmitInquiry)

	s.mux.Handle("GET /api/admin/inquiries", s.requireAdmin(s.handleAdminInquiries))
	s.mux.Handle("GET /api/admin/summary", s.requireAdmin(s.handleAdminSummary))
	s.mux.Handle("POST /api/admin/inquiries/{id}/responded", s.requireAdmin(s.handleMarkResponded))
	s.mux.Handle("POST /api/admin/inquiries/{id}/quotation", s.requireAdmin(s.handleDraftQuotation))
	s.mux.Handle("POST /api/admin/seo", s.requireAdmin(s.handleSEO))
	s.mux.Handle("POST /api/admin/translate", s.requireAdmin(s.handleTranslate))
	s.mux.Handle("GET /api/admin/market", s.requireAdmin(s.handleMarket))
	s.mux.Handle("PUT /api/admin/products", s.requireAdmin(s.handleSaveProducts))
	s.mux.Handle("POST /api/admin/products/{id}/description", s.requireAdmin(s.handleRegenerateDescription))
	s.mux.Handle("PUT /api/admin/leadership", s.requireAdmin(s.handleSaveLeadership))
	s.mux.Handle("POST /api/admin/category-images/{category}", s.requireAdmin(s.handleGenerateCategoryImage))
}

// Handler returns the routes wrapped in the CORS, logging and metrics
// middleware.
func (s *Server) Handler() http.Handler {
	return s.instrument(s.cors(s.mux))
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down http server", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for name, check := range s.deps.Checks {
		if err := check(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":   http.StatusText(status),
		"sessions": s.deps.Sessions.Len(),
		"checks":   checks,
	})
}
