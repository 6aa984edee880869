package renderer

import (
	"maps"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/frame"
	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/labels"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/pick"
	"github.com/matzehuels/stagegraph/pkg/program"
	"github.com/matzehuels/stagegraph/pkg/schedule"
	"github.com/matzehuels/stagegraph/pkg/settings"
	"github.com/matzehuels/stagegraph/pkg/spatial"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// Renderer draws one graph into one container. It is confined to a single
// execution context: every method must be called from the goroutine that
// runs its frame requester.
type Renderer struct {
	graph         *graph.Graph
	choices       *graph.ValueChoices
	container     Container
	settings      settings.Settings
	applyDefaults bool
	customBBox    *graph.Extent

	camera    *camera.Camera
	tr        *transform.Transformer
	frames    schedule.FrameRequester
	sched     *schedule.Scheduler
	index     Index
	labelGrid LabelGrid
	compiler  frame.Compiler
	picker    pick.Picker
	hover     *pick.Hover
	captor    CaptorState

	nodeFactories  map[int]program.Factory
	edgeFactories  map[int]program.Factory
	hoverFactories map[int]program.Factory
	nodePrograms   map[int]program.Program
	edgePrograms   map[int]program.Program
	hoverPrograms  map[int]program.Program

	layers    Layers
	edgeLayer pick.EdgeLayer

	width, height float64
	pixelRatio    float64
	last          frame.Result
	params        program.Params
	ratio         float64 // graph to viewport ratio of the last frame

	displayedNodeLabels map[int]struct{}
	displayedEdgeLabels map[int]struct{}

	listeners listeners
	offCamera func()
	lastErr   error
	killed    bool

	logger *log.Logger
	hooks  observability.RenderHooks
}

// New builds a renderer for g mounted on container and runs the first
// refresh synchronously, so configuration errors such as an unregistered
// program type or an empty container are returned here.
func New(g *graph.Graph, container Container, opts Options) (*Renderer, error) {
	if container == nil {
		return nil, errors.New(errors.ErrCodeInvalidContainer, "renderer: nil container")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	s := settings.Default()
	if opts.Settings != nil {
		s = opts.Settings.Clone()
	}
	if err := s.SetAll(opts.Overrides); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	r := &Renderer{
		graph:               g,
		choices:             opts.Choices,
		container:           container,
		settings:            s,
		applyDefaults:       opts.ApplyDefaultVisuals,
		camera:              camera.New(),
		tr:                  transform.New(),
		frames:              opts.Frames,
		index:               opts.Index,
		labelGrid:           opts.LabelGrid,
		hover:               pick.NewHover(),
		nodeFactories:       opts.NodePrograms,
		edgeFactories:       opts.EdgePrograms,
		hoverFactories:      opts.HoverPrograms,
		layers:              opts.Layers,
		edgeLayer:           opts.EdgeLayer,
		pixelRatio:          container.PixelRatio(),
		displayedNodeLabels: map[int]struct{}{},
		displayedEdgeLabels: map[int]struct{}{},
		listeners:           newListeners(),
		logger:              opts.Logger,
		hooks:               opts.Hooks,
	}
	if r.index == nil {
		r.index = spatial.New(spatial.DefaultCells)
	}
	if r.labelGrid == nil {
		r.labelGrid = labels.New()
	}
	r.compiler = frame.Compiler{Index: r.index, Labels: r.labelGrid}
	r.picker = pick.Picker{
		Index:       r.index,
		Transformer: r.tr,
		Edges:       r.edgeLayer,
		ScaleSize:   func(size float64) float64 { return r.ScaleSize(size) },
	}
	r.nodePrograms = r.buildPrograms(r.nodeFactories)
	r.edgePrograms = r.buildPrograms(r.edgeFactories)
	r.hoverPrograms = r.buildPrograms(r.hoverFactories)
	r.sched = schedule.New(r.frames, r.renderFrame, r.renderHighlightedNodes)

	r.applyCameraBounds()
	r.offCamera = r.camera.OnUpdated(func(camera.State) { r.sched.ScheduleRender() })

	if err := r.Resize(); err != nil {
		return nil, err
	}
	if err := r.Refresh(); err != nil {
		r.Kill()
		return nil, err
	}
	r.logger.Debug("renderer ready", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return r, nil
}

func (r *Renderer) buildPrograms(factories map[int]program.Factory) map[int]program.Program {
	out := make(map[int]program.Program, len(factories))
	for t, f := range factories {
		out[t] = f(r)
	}
	return out
}

// Graph returns the current graph. It implements program.Source.
func (r *Renderer) Graph() *graph.Graph { return r.graph }

// Choices returns the value choices paired with the graph. It implements
// program.Source.
func (r *Renderer) Choices() *graph.ValueChoices { return r.choices }

// SetGraph swaps the graph and its value choices atomically. Nil choices
// keep the current ones. Hover and label caches are reset and a refresh is
// scheduled. An invalid graph is refused and the renderer keeps the old one.
func (r *Renderer) SetGraph(g *graph.Graph, choices *graph.ValueChoices) error {
	if err := r.alive(); err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	r.graph = g
	if choices != nil {
		r.choices = choices
	}
	r.hover.Reset()
	clear(r.displayedNodeLabels)
	clear(r.displayedEdgeLabels)
	r.sched.ScheduleRefresh()
	return nil
}

// Camera returns the camera. Changing its state schedules a render.
func (r *Renderer) Camera() *camera.Camera { return r.camera }

// SetCamera replaces the camera, carrying over the configured bounds.
func (r *Renderer) SetCamera(c *camera.Camera) {
	if c == nil || r.killed {
		return
	}
	r.offCamera()
	r.camera = c
	r.applyCameraBounds()
	r.offCamera = c.OnUpdated(func(camera.State) { r.sched.ScheduleRender() })
	r.sched.ScheduleRender()
}

// Settings returns a copy of the current settings.
func (r *Renderer) Settings() settings.Settings { return r.settings.Clone() }

// SetSetting changes one setting by its TOML key and schedules a refresh.
func (r *Renderer) SetSetting(key string, value any) error {
	return r.UpdateSettings(func(s *settings.Settings) error { return s.Set(key, value) })
}

// UpdateSettings applies fn to a copy of the settings. The copy replaces the
// settings only if fn succeeds and the result validates.
func (r *Renderer) UpdateSettings(fn func(*settings.Settings) error) error {
	if err := r.alive(); err != nil {
		return err
	}
	next := r.settings.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	r.settings = next
	r.handleSettingsUpdate()
	return nil
}

// SetSettings replaces every setting.
func (r *Renderer) SetSettings(s settings.Settings) error {
	return r.UpdateSettings(func(next *settings.Settings) error {
		*next = s.Clone()
		return nil
	})
}

func (r *Renderer) handleSettingsUpdate() {
	r.applyCameraBounds()
	r.camera.SetState(r.camera.ValidateState(r.camera.State()))
	r.sched.ScheduleRefresh()
}

func (r *Renderer) applyCameraBounds() {
	r.camera.MinRatio, r.camera.MaxRatio = r.settings.CameraBounds()
}

// CustomBBox returns the framing box override, or nil.
func (r *Renderer) CustomBBox() *graph.Extent {
	if r.customBBox == nil {
		return nil
	}
	b := *r.customBBox
	return &b
}

// SetCustomBBox frames the graph against box instead of its extent from the
// next refresh on. The box is expressed in the graph's coordinates at that
// refresh. Nil restores automatic framing.
func (r *Renderer) SetCustomBBox(box *graph.Extent) {
	if box != nil {
		b := *box
		box = &b
	}
	r.customBBox = box
	r.sched.ScheduleRefresh()
}

// ResetVisuals overwrites the visual columns with the configured defaults
// on the next refresh.
func (r *Renderer) ResetVisuals() {
	r.applyDefaults = true
	r.sched.ScheduleRefresh()
}

// ScheduleRender queues a frame.
func (r *Renderer) ScheduleRender() { r.sched.ScheduleRender() }

// ScheduleRefresh queues a full refresh and a frame.
func (r *Renderer) ScheduleRefresh() { r.sched.ScheduleRefresh() }

// Err returns the error of the last scheduled frame, if any.
func (r *Renderer) Err() error { return r.lastErr }

// Resize reads the container size. A change resizes the layers and is
// reported to resize listeners. An empty container is an error unless the
// allow_invalid_container setting is on.
func (r *Renderer) Resize() error {
	if err := r.alive(); err != nil {
		return err
	}
	w, h := r.container.Size()
	pr := r.container.PixelRatio()
	if pr <= 0 {
		pr = 1
	}
	if (w <= 0 || h <= 0) && !r.settings.AllowInvalidContainer {
		return errors.New(errors.ErrCodeInvalidContainer,
			"container has width %v and height %v; set allow_invalid_container to render anyway", w, h)
	}
	if w == r.width && h == r.height && pr == r.pixelRatio && r.width != 0 {
		return nil
	}
	r.width, r.height, r.pixelRatio = w, h, pr
	r.picker.PixelRatio = pr
	r.layers.Resize(int(w*pr), int(h*pr), pr)
	r.listeners.resize.Emit(ResizeEvent{Width: w, Height: h})
	return nil
}

// Kill cancels pending frames, drops every listener and detaches from the
// container. It is idempotent.
func (r *Renderer) Kill() {
	if r.killed {
		return
	}
	r.listeners.kill.Emit(struct{}{})
	r.sched.Cancel()
	r.offCamera()
	r.listeners.clear()
	r.hover.Reset()
	clear(r.displayedNodeLabels)
	clear(r.displayedEdgeLabels)
	r.killed = true
	r.logger.Debug("renderer killed")
}

func (r *Renderer) alive() error {
	if r.killed {
		return errors.New(errors.ErrCodeKilled, "renderer was killed")
	}
	return nil
}

// =============================================================================
// Refresh and render
// =============================================================================

// Refresh recompiles the draw batches, the spatial index and the label grid
// and draws a frame.
func (r *Renderer) Refresh() error {
	r.sched.MarkDirty()
	return r.Render()
}

// Render draws a frame now, recompiling first when a refresh is pending.
func (r *Renderer) Render() error {
	if err := r.alive(); err != nil {
		return err
	}
	start := time.Now()
	r.listeners.beforeRender.Emit(struct{}{})
	defer r.listeners.afterRender.Emit(struct{}{})
	r.sched.CancelRender()

	if err := r.Resize(); err != nil {
		return err
	}
	if r.sched.ConsumeProcess() {
		if err := r.process(); err != nil {
			r.sched.MarkDirty()
			return err
		}
	}
	r.layers.Clear()

	if r.graph.NodeCount() == 0 {
		return nil
	}

	moving := r.camera.IsAnimated() || r.captor.Moving || r.captor.Dragging || r.captor.Wheeling
	r.syncTransformer()
	state := r.camera.State()
	viewport := r.tr.Viewport()
	matrix := r.tr.Matrix()
	r.ratio = r.tr.GraphToViewportRatio()
	r.params = program.Params{
		Matrix:          matrix,
		Width:           r.width,
		Height:          r.height,
		PixelRatio:      r.pixelRatio,
		ZoomRatio:       state.Ratio,
		CorrectionRatio: transform.MatrixImpact(matrix, state, viewport),
	}
	r.params.SizeRatio = 1 / r.ScaleSize(1)

	for _, t := range sortedTypes(r.nodePrograms) {
		r.nodePrograms[t].Render(r.params)
	}
	if !r.settings.HideEdgesOnMove || !moving {
		for _, t := range sortedTypes(r.edgePrograms) {
			r.edgePrograms[t].Render(r.params)
		}
	}

	defer func() { r.hooks.OnFrame(time.Since(start), moving) }()
	if r.settings.HideLabelsOnMove && moving {
		return nil
	}
	r.renderLabels()
	r.renderEdgeLabels()
	r.renderHighlightedNodes()
	return nil
}

func (r *Renderer) renderFrame() {
	if err := r.Render(); err != nil {
		r.lastErr = err
		r.logger.Error("render failed", "err", err)
		return
	}
	r.lastErr = nil
}

func (r *Renderer) process() error {
	start := time.Now()
	r.syncTransformer()
	res, err := r.compiler.Compile(frame.Input{
		Graph:         r.graph,
		Settings:      &r.settings,
		Transformer:   r.tr,
		Viewport:      r.tr.Viewport(),
		CustomBBox:    r.customBBox,
		ApplyDefaults: r.applyDefaults,
		NodePrograms:  r.nodePrograms,
		EdgePrograms:  r.edgePrograms,
		ScaleSize:     r.ScaleSizeAt,
	})
	r.hooks.OnRefresh(r.graph.NodeCount(), r.graph.EdgeCount(), time.Since(start), err)
	if err != nil {
		return err
	}
	r.applyDefaults = false
	r.last = res
	r.picker.Graph = r.graph
	r.picker.MaxNodeSize = res.MaxNodeSize
	r.logger.Debug("processed graph",
		"nodes", r.graph.NodeCount(),
		"edges", r.graph.EdgeCount(),
		"forced_labels", len(res.ForcedNodeLabels),
		"duration", time.Since(start))
	return nil
}

func (r *Renderer) syncTransformer() {
	r.tr.Update(r.camera.State(), transform.Dimensions{Width: r.width, Height: r.height}, r.settings.StagePadding)
}

func sortedTypes(programs map[int]program.Program) []int {
	return slices.Sorted(maps.Keys(programs))
}
