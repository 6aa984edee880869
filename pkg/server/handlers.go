package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/errors"
	pkgio "github.com/matzehuels/stagegraph/pkg/io"
	"github.com/matzehuels/stagegraph/pkg/layout/forceatlas2"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
	"github.com/matzehuels/stagegraph/pkg/renderer"
	"github.com/matzehuels/stagegraph/pkg/settings"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// =============================================================================
// Sessions
// =============================================================================

type sessionResponse struct {
	ID           string `json:"id"`
	Nodes        int    `json:"nodes"`
	Edges        int    `json:"edges"`
	LayoutCached bool   `json:"layout_cached,omitempty"`
}

// handleCreate reads a verbose JSON graph. Query parameters width, height
// and pixel_ratio size the frame; init=circular|noise seeds positions and
// layout=<algorithm> runs a full layout through the server cache first.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	g, choices, keys, err := pkgio.ReadJSON(http.MaxBytesReader(w, r.Body, maxUploadBytes), s.cfg.IO)
	if err != nil {
		writeError(w, err)
		return
	}
	scene := &pipeline.Scene{Graph: g, Choices: choices, Keys: keys}

	opts := s.cfg.Render
	q := r.URL.Query()
	for name, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, errors.New(errors.ErrCodeInvalidInput, "%s must be a positive integer, got %q", name, v))
				return
			}
			*dst = n
		}
	}
	if v := q.Get("pixel_ratio"); v != "" {
		pr, err := strconv.ParseFloat(v, 64)
		if err != nil || pr <= 0 {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "pixel_ratio must be positive, got %q", v))
			return
		}
		opts.PixelRatio = pr
	}
	if seed := q.Get("init"); seed != "" {
		l := s.cfg.Layout
		l.Init, l.Algorithm = "", seed
		if seed != pipeline.AlgorithmCircular && seed != pipeline.AlgorithmNoise {
			writeError(w, errors.New(errors.ErrCodeInvalidInput, "init must be circular or noise, got %q", seed))
			return
		}
		if err := pipeline.GenerateLayout(r.Context(), g, l, s.cfg.Logger); err != nil {
			writeError(w, err)
			return
		}
	}

	var cached bool
	if algorithm := q.Get("layout"); algorithm != "" {
		lopts := pipeline.Options{Layout: s.cfg.Layout, IO: s.cfg.IO, Logger: s.cfg.Logger}
		lopts.Layout.Algorithm = algorithm
		if cached, err = s.runner.LayoutWithCacheInfo(r.Context(), scene, lopts); err != nil {
			writeError(w, err)
			return
		}
	}

	sess, err := s.open(scene, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:           sess.id.String(),
		Nodes:        g.NodeCount(),
		Edges:        g.EdgeCount(),
		LayoutCached: cached,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if _, ok := s.remove(sess.id); ok {
		sess.close()
		s.cfg.Logger.Info("session closed", "id", sess.id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Frames
// =============================================================================

func (s *Server) handleFramePNG(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var buf bytes.Buffer
	err := s.call(r.Context(), sess, func() error {
		if err := sess.renderer.Render(); err != nil {
			return err
		}
		return sess.surface.EncodePNG(&buf)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleFrameSVG(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	opts := s.cfg.Render
	opts.Formats = []string{pipeline.FormatSVG}
	opts.AllLabels = r.URL.Query().Get("labels") == "all"

	var data []byte
	err := s.call(r.Context(), sess, func() error {
		if err := sess.renderer.Render(); err != nil {
			return err
		}
		artifacts, err := pipeline.Encode(r.Context(), sess.renderer, sess.surface, sess.scene, opts)
		data = artifacts[pipeline.FormatSVG]
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// =============================================================================
// Picking and pointer events
// =============================================================================

type pickResponse struct {
	Node *int   `json:"node"`
	Key  string `json:"key,omitempty"`
	Edge *int   `json:"edge"`
}

func point(r *http.Request) (transform.Point, error) {
	var p transform.Point
	for name, dst := range map[string]*float64{"x": &p.X, "y": &p.Y} {
		v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return p, errors.New(errors.ErrCodeInvalidInput, "%s must be a number", name)
		}
		*dst = v
	}
	return p, nil
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	p, err := point(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var resp pickResponse
	err = s.call(r.Context(), sess, func() error {
		if id, ok := sess.renderer.NodeAt(p); ok {
			resp.Node, resp.Key = &id, sess.scene.Keys[id]
		}
		if id, ok := sess.renderer.EdgeAt(p.X, p.Y); ok {
			resp.Edge = &id
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type pointerRequest struct {
	Type  string  `json:"type"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Delta float64 `json:"delta,omitempty"`
}

type pointerResponse struct {
	HoveredNode *int `json:"hovered_node"`
	HoveredEdge *int `json:"hovered_edge"`
}

var pointerTypes = map[string]bool{
	"move":                       true,
	string(renderer.Click):       true,
	string(renderer.RightClick):  true,
	string(renderer.DoubleClick): true,
	string(renderer.Wheel):       true,
	string(renderer.Down):        true,
	string(renderer.Leave):       true,
}

// handlePointer feeds one captor event to the renderer. "move" updates hover
// state; other types dispatch pointer events.
func (s *Server) handlePointer(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req pointerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !pointerTypes[req.Type] {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown pointer event %q", req.Type))
		return
	}

	var resp pointerResponse
	err := s.call(r.Context(), sess, func() error {
		e := &renderer.PointerEvent{X: req.X, Y: req.Y, Delta: req.Delta}
		if req.Type == "move" {
			sess.renderer.HandleMove(e)
		} else {
			sess.renderer.HandlePointer(renderer.EventType(req.Type), e)
		}
		if id, ok := sess.renderer.HoveredNode(); ok {
			resp.HoveredNode = &id
		}
		if id, ok := sess.renderer.HoveredEdge(); ok {
			resp.HoveredEdge = &id
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Camera and settings
// =============================================================================

func (s *Server) handleGetCamera(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var state camera.State
	if err := s.call(r.Context(), sess, func() error {
		state = sess.renderer.Camera().State()
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handlePutCamera moves the camera and returns the state after ratio
// clamping.
func (s *Server) handlePutCamera(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var state camera.State
	if err := decodeBody(r, &state); err != nil {
		writeError(w, err)
		return
	}
	for name, v := range map[string]float64{"x": state.X, "y": state.Y, "angle": state.Angle} {
		if err := errors.ValidateFinite(name, v); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := errors.ValidatePositive("ratio", state.Ratio); err != nil {
		writeError(w, err)
		return
	}
	err := s.call(r.Context(), sess, func() error {
		sess.renderer.Camera().SetState(state)
		state = sess.renderer.Camera().State()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var st settings.Settings
	if err := s.call(r.Context(), sess, func() error {
		st = sess.renderer.Settings()
		return nil
	}); err != nil {
		writeError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := st.Encode(&buf); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/toml")
	_, _ = w.Write(buf.Bytes())
}

// handlePatchSettings applies a JSON object of snake_case settings keys. The
// update is all or nothing.
func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var values map[string]any
	if err := decodeBody(r, &values); err != nil {
		writeError(w, err)
		return
	}
	err := s.call(r.Context(), sess, func() error {
		return sess.renderer.UpdateSettings(func(st *settings.Settings) error {
			return st.SetAll(values)
		})
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(values)})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var data []byte
	err := s.call(r.Context(), sess, func() error {
		var err error
		data, err = sess.scene.Positions()
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// =============================================================================
// Layout
// =============================================================================

type layoutRequest struct {
	// Iterations of zero runs until DELETE /layout.
	Iterations *int                  `json:"iterations"`
	Settings   *forceatlas2.Settings `json:"settings"`
}

type layoutResponse struct {
	Running bool `json:"running"`
	Batches int  `json:"batches"`
}

func (s *Server) handleStartLayout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	req := layoutRequest{}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}
	fa := s.cfg.Layout.ForceAtlas2
	if req.Settings != nil {
		fa = *req.Settings
	}
	if err := fa.Validate(); err != nil {
		writeError(w, err)
		return
	}
	iterations := s.cfg.Layout.Iterations
	if req.Iterations != nil {
		iterations = *req.Iterations
	}
	if iterations < 0 {
		writeError(w, errors.New(errors.ErrCodeInvalidInput, "iterations must be non-negative, got %d", iterations))
		return
	}

	var sv *forceatlas2.Supervisor
	err := s.call(r.Context(), sess, func() error {
		sv = forceatlas2.NewSupervisor(sess.scene.Graph, fa, forceatlas2.SupervisorOptions{
			BatchIterations: pipeline.DefaultBatch,
			MaxIterations:   iterations,
			Logger:          s.cfg.Logger,
		})
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	sess.startLayout(s.ctx, sv)
	writeJSON(w, http.StatusAccepted, layoutResponse{Running: true})
}

func (s *Server) handleLayoutStatus(w http.ResponseWriter, r *http.Request) {
	running, batches := sessionFrom(r).layoutState()
	writeJSON(w, http.StatusOK, layoutResponse{Running: running, Batches: batches})
}

func (s *Server) handleStopLayout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.stopLayout()
	_, batches := sess.layoutState()
	writeJSON(w, http.StatusOK, layoutResponse{Running: false, Batches: batches})
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode body")
	}
	return nil
}
