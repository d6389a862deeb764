package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lazypower/memboost/internal/monitor"
	"github.com/lazypower/memboost/internal/procs"
	"github.com/lazypower/memboost/internal/reclaim"
	"github.com/lazypower/memboost/internal/stats"
	"github.com/lazypower/memboost/internal/store"
)

// Server is the daemon-local HTTP API: live snapshots, process listing,
// manual boost triggering, and event log queries.
type Server struct {
	db        *store.DB
	collector stats.Collector
	procs     procs.Enumerator
	orch      *reclaim.Orchestrator
	mon       *monitor.Monitor
	router    chi.Router
	version   string
	started   time.Time
}

// New creates a Server. mon may be nil when no monitor is running.
func New(db *store.DB, orch *reclaim.Orchestrator, mon *monitor.Monitor, version string) *Server {
	s := &Server{
		db:        db,
		collector: orch.Stats,
		procs:     orch.Procs,
		orch:      orch,
		mon:       mon,
		version:   version,
		started:   time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/snapshot", s.handleSnapshot)
		r.Get("/top", s.handleTop)
		r.Get("/events", s.handleEvents)
		r.Post("/boost", s.handleBoost)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	monState := ""
	if s.mon != nil {
		monState = string(s.mon.State())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"monitor": monState,
	})
}
