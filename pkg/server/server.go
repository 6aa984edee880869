// Package server is an HTTP preview server for interactive renderers.
//
// Each uploaded graph becomes a session: a renderer on a raster surface,
// confined to its own schedule.Ticker goroutine. Handlers never touch a
// renderer directly; they submit work with Ticker.Call and wait for it.
//
// # Routes
//
//	POST   /sessions                     upload a verbose JSON graph
//	DELETE /sessions/{id}                kill the renderer
//	GET    /sessions/{id}/frame.png      current frame
//	GET    /sessions/{id}/frame.svg      current frame as SVG
//	GET    /sessions/{id}/pick?x=&y=     node and edge under a viewport point
//	POST   /sessions/{id}/pointer        feed a pointer event to the captor
//	GET    /sessions/{id}/camera         camera state
//	PUT    /sessions/{id}/camera         move the camera
//	GET    /sessions/{id}/settings       settings as TOML
//	PATCH  /sessions/{id}/settings       update settings by key
//	GET    /sessions/{id}/positions      node positions
//	GET    /sessions/{id}/layout         layout progress
//	POST   /sessions/{id}/layout         start a forceatlas2 layout
//	DELETE /sessions/{id}/layout         stop it
//	GET    /healthz
//
// Session ids are random UUIDs. Layouts requested at upload go through a
// pipeline runner whose cache keys carry the "server:" prefix, so a cache
// shared with the CLI keeps the two apart.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/stagegraph/pkg/buildinfo"
	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/errors"
	pkgio "github.com/matzehuels/stagegraph/pkg/io"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
)

// Defaults for [Config].
const (
	DefaultAddr         = ":8080"
	DefaultMaxSessions  = 64
	DefaultTickInterval = 16 * time.Millisecond
	DefaultCallTimeout  = 10 * time.Second
	maxUploadBytes      = 32 << 20
)

// keyPrefix scopes the cache keys of server layouts.
const keyPrefix = "server:"

// Config configures a [Server].
type Config struct {
	Addr string

	// Render carries the frame size, settings and overrides of new
	// sessions. Its Input and Formats are ignored.
	Render pipeline.Options
	IO     pkgio.Options

	// Layout is the default of POST /layout.
	Layout pipeline.Layout

	// Cache stores layouts computed at upload. Nil disables caching. The
	// server does not close it.
	Cache cache.Cache

	MaxSessions  int
	TickInterval time.Duration
	CallTimeout  time.Duration

	Logger *log.Logger
	Hooks  observability.ServerHooks
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.IO.EdgeFromField == "" {
		c.IO = pkgio.DefaultOptions()
	}
	if c.Layout.Algorithm == "" {
		c.Layout = pipeline.DefaultLayout()
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = DefaultMaxSessions
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.Hooks == nil {
		c.Hooks = observability.Server()
	}
	if c.Cache == nil {
		c.Cache = cache.NewNullCache()
	}
	c.Render.Logger = c.Logger
	c.Render.SetRenderDefaults()
	return c
}

// Server holds the sessions and their router.
type Server struct {
	cfg    Config
	router chi.Router
	runner *pipeline.Runner

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates a server. Sessions live until deleted or until [Server.Close].
func New(cfg Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg.withDefaults(),
		sessions: make(map[uuid.UUID]*session),
		ctx:      ctx,
		cancel:   cancel,
	}
	s.runner = pipeline.NewRunner(s.cfg.Cache, cache.NewScopedKeyer(nil, keyPrefix), s.cfg.Logger)
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// closes every session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.cfg.Logger.Info("preview server listening", "addr", s.cfg.Addr)

	select {
	case err := <-errc:
		s.Close()
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close kills every session.
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uuid.UUID]*session)
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
	s.cancel()
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.count(), "build": buildinfo.Get()})
	})
	r.Post("/sessions", s.handleCreate)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Use(s.withSession)
		r.Delete("/", s.handleDelete)
		r.Get("/frame.png", s.handleFramePNG)
		r.Get("/frame.svg", s.handleFrameSVG)
		r.Get("/pick", s.handlePick)
		r.Post("/pointer", s.handlePointer)
		r.Get("/camera", s.handleGetCamera)
		r.Put("/camera", s.handlePutCamera)
		r.Get("/settings", s.handleGetSettings)
		r.Patch("/settings", s.handlePatchSettings)
		r.Get("/positions", s.handlePositions)
		r.Get("/layout", s.handleLayoutStatus)
		r.Post("/layout", s.handleStartLayout)
		r.Delete("/layout", s.handleStopLayout)
	})
	return r
}

// observe reports every request to the server hooks, labelled by route
// pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.cfg.Hooks.OnRequest(r.Context(), r.Method, route, status, time.Since(start))
		s.cfg.Logger.Debug("request", "method", r.Method, "route", route, "status", status, "duration", time.Since(start))
	})
}

func (s *Server) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSetting, errors.ErrCodeInvalidGraph,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidContainer, errors.ErrCodeMissingProgram:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeKilled:
		status = http.StatusGone
	case errors.ErrCodeUnsupported:
		status = http.StatusNotImplemented
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	default:
		if stderrors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
	}
	writeJSON(w, status, map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(errors.GetCode(err)),
	})
}
