// Package server exposes a rig's space graph over HTTP for inspection.
//
// Routes:
//
//	GET  /healthz                  liveness
//	GET  /metrics                  Prometheus metrics
//	GET  /graph?format=svg|dot     node-link diagram of the graph
//	GET  /locate?base=local&name=  resolve devices or reference spaces
//	POST /recenter                 recenter the local spaces
//	GET  /spaces/{space}/offset    offset of local, local_floor, ...
//	PUT  /spaces/{space}/offset    move a reference space
//
// Errors are JSON objects carrying the error code; capability-absent
// conditions map to 409 Conflict.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/xrspace/pkg/config"
	"github.com/matzehuels/xrspace/pkg/errors"
)

// Server serves one rig.
type Server struct {
	rig    *config.Rig
	gather prometheus.Gatherer
	logger *log.Logger
	router chi.Router
}

// New creates a server for rig. Metrics are served from gather; a nil
// gather means [prometheus.DefaultGatherer].
func New(rig *config.Rig, gather prometheus.Gatherer, logger *log.Logger) *Server {
	if gather == nil {
		gather = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{rig: rig, gather: gather, logger: logger}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	r.Get("/graph", s.handleGraph)
	r.Get("/locate", s.handleLocate)
	r.Post("/recenter", s.handleRecenter)
	r.Route("/spaces/{space}", func(r chi.Router) {
		r.Get("/offset", s.handleGetOffset)
		r.Put("/offset", s.handleSetOffset)
	})

	s.router = r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeUnknownDevice, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported, errors.ErrCodeRecenteringNotSupported:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
