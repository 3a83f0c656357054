package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/teampulse/teampulse/internal/analytics"
	"github.com/teampulse/teampulse/internal/config"
	"github.com/teampulse/teampulse/internal/db"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server for the REST API.
type Server struct {
	mu      sync.RWMutex
	cfg     config.Config
	db      *db.DB
	engine  *analytics.Engine
	mux     *http.ServeMux
	httpSrv *http.Server
	version VersionInfo

	// now is the clock handlers evaluate "the current instant"
	// with. Tests pin it; production uses time.Now.
	now func() time.Time
}

// New creates a new Server.
func New(
	cfg config.Config, database *db.DB, engine *analytics.Engine,
	opts ...Option,
) *Server {
	s := &Server{
		cfg:    cfg,
		db:     database,
		engine: engine,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

// WithClock overrides the handler clock, allowing tests to query at
// fixed instants. Nil is ignored.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func (s *Server) routes() {
	// API v1 routes
	s.mux.Handle("POST /api/v1/teams", s.withTimeout(s.handleCreateTeam))
	s.mux.Handle("GET /api/v1/teams/{id}", s.withTimeout(s.handleGetTeam))
	s.mux.Handle(
		"GET /api/v1/teams/{id}/overview", s.withTimeout(s.handleOverview),
	)
	s.mux.Handle(
		"GET /api/v1/teams/{id}/members/{userID}/overview",
		s.withTimeout(s.handleMemberOverview),
	)
	s.mux.Handle(
		"GET /api/v1/teams/{id}/progress", s.withTimeout(s.handleProgress),
	)
	s.mux.Handle(
		"GET /api/v1/teams/{id}/timeline", s.withTimeout(s.handleTimeline),
	)
	s.mux.Handle(
		"GET /api/v1/teams/{id}/members/{userID}/timeline",
		s.withTimeout(s.handleMemberTimeline),
	)
	s.mux.Handle(
		"GET /api/v1/teams/{id}/history", s.withTimeout(s.handleHistory),
	)
	s.mux.Handle(
		"POST /api/v1/teams/{id}/target", s.withTimeout(s.handleSetTarget),
	)
	s.mux.Handle(
		"POST /api/v1/teams/{id}/members/{userID}/target",
		s.withTimeout(s.handleSetMemberTarget),
	)
	s.mux.Handle(
		"POST /api/v1/teams/{id}/activities",
		s.withTimeout(s.handleLogActivity),
	)

	s.mux.Handle("GET /api/v1/stats", s.withTimeout(s.handleGetStats))
	s.mux.Handle("GET /api/v1/version", s.withTimeout(s.handleGetVersion))
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

func (s *Server) handleGetStats(
	w http.ResponseWriter, r *http.Request,
) {
	stats, err := s.db.GetStats(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(logMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set(
				"Access-Control-Allow-Origin", "*",
			)
			w.Header().Set(
				"Access-Control-Allow-Methods",
				"GET, POST, OPTIONS",
			)
			w.Header().Set(
				"Access-Control-Allow-Headers",
				"Content-Type",
			)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Printf("%s %s", r.Method, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}
