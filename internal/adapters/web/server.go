// Package web serves the mapping-review JSON API over HTTP: resolve an
// import's columns, confirm or correct a mapping, and list what a tenant
// has learned.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/corey/colrecon/internal/domain/dictionary"
	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/history"
	"github.com/corey/colrecon/internal/ports"
)

// maxBodyBytes caps request bodies. A resolve request carries headers and
// at most a few values per column.
const maxBodyBytes = 1 << 20

// Service is what the API needs from the application layer.
type Service interface {
	ResolveColumns(ctx context.Context, tenant string, columns []ports.Column) ([]field.MatchResult, error)
	Confirm(ctx context.Context, tenant, header string, f field.Field, confidence float64, source string) (ports.MappingRecord, error)
	Mappings(ctx context.Context, tenant, header string) ([]ports.MappingRecord, error)
	Dictionary() *dictionary.Dictionary
}

// Server serves the review API over HTTP.
type Server struct {
	svc      Service
	logger   *slog.Logger
	listener net.Listener
	httpSrv  *http.Server
	started  time.Time
	stopOnce sync.Once

	addrFilePath string // .colrecon/run/http.addr
}

// NewServer creates an HTTP server for the review API.
// The bound address is written to addrFilePath for discovery; empty skips it.
func NewServer(svc Service, logger *slog.Logger, addrFilePath string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:          svc,
		logger:       logger,
		started:      time.Now(),
		addrFilePath: addrFilePath,
	}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/fields", s.handleFields).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{tenant}/resolve", s.handleResolve).Methods(http.MethodPost)
	api.HandleFunc("/tenants/{tenant}/mappings", s.handleConfirm).Methods(http.MethodPost)
	api.HandleFunc("/tenants/{tenant}/mappings", s.handleMappings).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Start begins listening on addr. Writes the bound address to the addr file.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.started = time.Now()
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.addrFilePath != "" {
		os.WriteFile(s.addrFilePath, []byte(ln.Addr().String()), 0644)
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "err", err)
		}
	}()
	s.logger.Info("review API listening", "addr", ln.Addr().String())
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			s.httpSrv.Shutdown(ctx)
		}
		if s.addrFilePath != "" {
			os.Remove(s.addrFilePath)
		}
	})
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the API base URL.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResult{
		Status:  "ok",
		Aliases: s.svc.Dictionary().Len(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	counts := s.svc.Dictionary().Counts()
	all := field.All()
	result := FieldsResult{Fields: make([]FieldInfo, 0, len(all)), Count: len(all)}
	for _, f := range all {
		result.Fields = append(result.Fields, FieldInfo{Field: string(f), Aliases: counts[f]})
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]

	var req ResolveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Columns) == 0 {
		writeError(w, http.StatusBadRequest, "columns must not be empty")
		return
	}

	results, err := s.svc.ResolveColumns(r.Context(), tenant, req.Columns)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	unresolved := 0
	for _, res := range results {
		if !res.Resolved() {
			unresolved++
		}
	}
	writeJSON(w, http.StatusOK, ResolveResult{Results: results, Unresolved: unresolved})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]

	var req ConfirmRequest
	if !decodeBody(w, r, &req) {
		return
	}
	confidence := history.DefaultConfidence
	if req.Confidence != nil {
		confidence = *req.Confidence
	}

	rec, err := s.svc.Confirm(r.Context(), tenant, req.Header, field.Field(req.Field), confidence, req.Source)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleMappings(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenant"]
	header := r.URL.Query().Get("header")

	recs, err := s.svc.Mappings(r.Context(), tenant, header)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if recs == nil {
		recs = []ports.MappingRecord{}
	}
	writeJSON(w, http.StatusOK, MappingsResult{Mappings: recs, Count: len(recs)})
}

// =============================================================================
// Helpers
// =============================================================================

// statusFor maps validation errors to 400; anything else is the store.
func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrUnknownField),
		errors.Is(err, history.ErrConfidenceRange),
		errors.Is(err, history.ErrEmptyHeader),
		errors.Is(err, history.ErrEmptyTenant):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResult{Error: msg})
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if rec.status >= 500 {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method, "path", r.URL.Path, "status", rec.status,
			"elapsed", time.Since(start).Round(time.Microsecond))
	})
}
