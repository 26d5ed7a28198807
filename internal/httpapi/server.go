// Package httpapi exposes the layout pipeline over HTTP.
//
// The API is versioned under /v1 and speaks the same document format as the
// CLI. Stateless layout requests go to POST /v1/layout; stored diagrams are
// managed under /v1/diagrams and can be laid out in place.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flowgridhq/flowgrid/pkg/buildinfo"
	"github.com/flowgridhq/flowgrid/pkg/errors"
	"github.com/flowgridhq/flowgrid/pkg/observability"
	"github.com/flowgridhq/flowgrid/pkg/pipeline"
	"github.com/flowgridhq/flowgrid/pkg/store"
)

// Server is the HTTP API server. Construct with [NewServer], mount with
// [Server.Router].
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
}

// NewServer creates an API server. The store may be nil, which disables the
// /v1/diagrams routes (they respond 404).
func NewServer(runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, store: st, logger: logger}
}

// Router builds the chi router with all routes and middleware mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/v1/health", s.handleHealth)
	r.Get("/v1/version", s.handleVersion)
	r.Post("/v1/layout", s.handleLayout)

	if s.store != nil {
		r.Route("/v1/diagrams", func(r chi.Router) {
			r.Get("/", s.handleListDiagrams)
			r.Put("/{id}", s.handleSaveDiagram)
			r.Get("/{id}", s.handleGetDiagram)
			r.Delete("/{id}", s.handleDeleteDiagram)
			r.Post("/{id}/layout", s.handleLayoutStored)
		})
	}

	return r
}

// logRequests logs every request and feeds the HTTP observability hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), duration)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration,
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error to its HTTP status and writes a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
