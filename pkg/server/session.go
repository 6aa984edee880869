package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout/forceatlas2"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
	"github.com/matzehuels/stagegraph/pkg/raster"
	"github.com/matzehuels/stagegraph/pkg/renderer"
	"github.com/matzehuels/stagegraph/pkg/schedule"
)

// session owns one renderer. Every field below ticker is confined to the
// ticker goroutine.
type session struct {
	id     uuid.UUID
	ticker *schedule.Ticker
	cancel context.CancelFunc
	done   chan struct{}

	renderer *renderer.Renderer
	surface  *raster.Surface
	scene    *pipeline.Scene

	mu           sync.Mutex
	layoutCancel context.CancelFunc
	generation   int
	batches      int
}

type sessionKey struct{}

// open mounts a renderer for scene and starts its ticker loop.
func (s *Server) open(scene *pipeline.Scene, opts pipeline.Options) (*session, error) {
	s.mu.Lock()
	full := len(s.sessions) >= s.cfg.MaxSessions
	s.mu.Unlock()
	if full {
		return nil, errors.New(errors.ErrCodeUnsupported, "session limit of %d reached", s.cfg.MaxSessions)
	}

	ticker := schedule.NewTicker()
	r, surface, err := pipeline.NewRenderer(scene, opts, ticker)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(s.ctx)
	sess := &session{
		id:       uuid.New(),
		ticker:   ticker,
		cancel:   cancel,
		done:     make(chan struct{}),
		renderer: r,
		surface:  surface,
		scene:    scene,
	}
	go func() {
		defer close(sess.done)
		_ = ticker.Run(ctx, s.cfg.TickInterval)
	}()

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	s.cfg.Logger.Info("session opened", "id", sess.id, "nodes", scene.Graph.NodeCount(), "edges", scene.Graph.EdgeCount())
	return sess, nil
}

func (s *Server) lookup(id uuid.UUID) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *Server) remove(id uuid.UUID) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	return sess, ok
}

// withSession resolves {id} and stores the session in the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "invalid session id %q", chi.URLParam(r, "id")))
			return
		}
		sess, ok := s.lookup(id)
		if !ok {
			writeError(w, errors.New(errors.ErrCodeNotFound, "session %s not found", id))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(r *http.Request) *session {
	return r.Context().Value(sessionKey{}).(*session)
}

// call runs fn on the session goroutine and returns its error.
func (s *Server) call(ctx context.Context, sess *session, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	var err error
	if cerr := sess.ticker.Call(ctx, func() { err = fn() }); cerr != nil {
		if cerr == schedule.ErrStopped {
			return errors.New(errors.ErrCodeKilled, "session closed")
		}
		return errors.Wrap(errors.ErrCodeTimeout, cerr, "session busy")
	}
	return err
}

// close stops the layout, kills the renderer on its goroutine and stops
// the ticker.
func (sess *session) close() {
	sess.stopLayout()
	ctx, cancel := context.WithTimeout(context.Background(), DefaultCallTimeout)
	defer cancel()
	_ = sess.ticker.Call(ctx, sess.renderer.Kill)
	sess.cancel()
	<-sess.done
}

// =============================================================================
// Layout
// =============================================================================

// startLayout runs sv in the background. Batches are applied on the
// session goroutine, each followed by a refresh. sv must have been created
// on the session goroutine.
func (sess *session) startLayout(parent context.Context, sv *forceatlas2.Supervisor) {
	sess.stopLayout()
	ctx, cancel := context.WithCancel(parent)
	sess.mu.Lock()
	sess.generation++
	gen := sess.generation
	sess.layoutCancel = cancel
	sess.batches = 0
	sess.mu.Unlock()

	batches := sv.Start(ctx)
	go func() {
		for nodes := range batches {
			sess.ticker.Post(func() {
				forceatlas2.AssignLayoutChanges(sess.scene.Graph, nodes)
				sess.renderer.ScheduleRefresh()
			})
			sess.mu.Lock()
			sess.batches++
			sess.mu.Unlock()
		}
		sess.mu.Lock()
		if sess.generation == gen {
			sess.layoutCancel = nil
		}
		sess.mu.Unlock()
		cancel()
	}()
}

func (sess *session) stopLayout() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.layoutCancel != nil {
		sess.layoutCancel()
		sess.layoutCancel = nil
	}
}

// layoutState reports whether a layout runs and how many batches it has
// delivered.
func (sess *session) layoutState() (running bool, batches int) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.layoutCancel != nil, sess.batches
}
