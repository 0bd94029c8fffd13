package server

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lazypower/thoughtgraph/internal/metrics"
	"github.com/lazypower/thoughtgraph/internal/store"
	"github.com/lazypower/thoughtgraph/internal/viewer"
)

// Options configure a Server. Zero values disable the optional parts.
type Options struct {
	Version     string
	Logger      *zap.Logger
	Metrics     *metrics.Collector
	CORSOrigins []string
	UI          fs.FS

	// NewView builds a fresh, unmounted graph view. Without it the /view
	// routes answer 503.
	NewView func() *viewer.View
}

// Server is the thoughtgraph HTTP server: the content API the graph view
// fetches from, plus the view itself.
type Server struct {
	db      *store.DB
	router  chi.Router
	opts    Options
	logger  *zap.Logger
	started time.Time

	viewMu sync.Mutex
	view   *viewer.View
	closed bool
}

// New creates a new Server over the given database.
func New(db *store.DB, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Server{
		db:      db,
		opts:    opts,
		logger:  opts.Logger,
		started: time.Now(),
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
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))
	if s.opts.Metrics != nil {
		r.Use(instrument(s.opts.Metrics))
	}
	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/graph/api/data/", s.handleGraphData)

	r.Route("/topics/api", func(r chi.Router) {
		r.Get("/hierarchy/data/", s.handleHierarchy)
		r.Get("/stats/", s.handleStats)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/search/", s.handleSearch)
		r.Get("/tags/", s.handleTags)
		r.Get("/tags/{tag}/", s.handleTagItems)
		r.Post("/items/", s.handleCreateItem)
		r.Get("/{kind}/", s.handleListItems)
		r.Get("/{kind}/{id}/", s.handleGetItem)
	})

	r.Route("/view", func(r chi.Router) {
		r.Get("/status", s.handleViewStatus)
		r.Get("/frame", s.handleViewFrame)
		r.Get("/svg", s.handleViewSVG)
		r.Post("/remount", s.handleRemount)
		r.Post("/drag/{nodeID}/start", s.handleDragStart)
		r.Post("/drag/{nodeID}/move", s.handleDragMove)
		r.Post("/drag/{nodeID}/end", s.handleDragEnd)
	})

	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}

	r.Get("/*", s.spaHandler())

	s.router = r
}

// MountView mounts a fresh graph view and swaps it in. The previous view
// is unmounted once the new one is in place, so one layout keeps running.
func (s *Server) MountView(ctx context.Context) (*viewer.View, error) {
	if s.opts.NewView == nil {
		return nil, errNoViewer
	}
	v := s.opts.NewView()
	err := v.Mount(ctx)

	s.viewMu.Lock()
	if s.closed {
		s.viewMu.Unlock()
		v.Unmount()
		return nil, errClosed
	}
	old := s.view
	s.view = v
	s.viewMu.Unlock()
	if old != nil {
		old.Unmount()
	}

	if err != nil {
		s.logger.Warn("graph view failed to mount", zap.Error(err))
		return v, err
	}
	return v, nil
}

// Close unmounts the current view, stopping its layout. Views mounted
// after Close are unmounted straight away.
func (s *Server) Close() {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	s.closed = true
	if s.view != nil {
		s.view.Unmount()
	}
}

func (s *Server) currentView() *viewer.View {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()
	return s.view
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	view := "none"
	if v := s.currentView(); v != nil {
		view = string(v.Status())
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.opts.Version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
		"view":    view,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
