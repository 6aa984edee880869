package renderer

import (
	"io"
	"math"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/program"
	"github.com/matzehuels/stagegraph/pkg/schedule"
	"github.com/matzehuels/stagegraph/pkg/spatial"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

type recordingLayers struct {
	labels      []Label
	hoverLabels []Label
	edgeLabels  []EdgeLabel
	clears      int
	resizes     int
}

func (l *recordingLayers) Resize(int, int, float64) { l.resizes++ }
func (l *recordingLayers) Clear() {
	l.clears++
	l.labels, l.edgeLabels = nil, nil
}
func (l *recordingLayers) ClearHover()                { l.hoverLabels = nil }
func (l *recordingLayers) DrawLabel(lb Label)         { l.labels = append(l.labels, lb) }
func (l *recordingLayers) DrawEdgeLabel(lb EdgeLabel) { l.edgeLabels = append(l.edgeLabels, lb) }
func (l *recordingLayers) DrawHoverLabel(lb Label)    { l.hoverLabels = append(l.hoverLabels, lb) }

type paintedLayer bool

func (p paintedLayer) ColoredAt(int, int) bool { return bool(p) }

type harness struct {
	r      *Renderer
	ticker *schedule.Ticker
	index  *spatial.Grid
	nodes  *program.Recorder
	edges  *program.Recorder
	hover  *program.Recorder
	layers *recordingLayers
}

func square() *graph.Graph {
	g := graph.NewVisual(4, 4, 0, 0)
	corners := [][2]float32{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	for i, c := range corners {
		g.Nodes.X[i], g.Nodes.Y[i] = c[0], c[1]
		g.Edges.From[i], g.Edges.To[i] = int32(i), int32((i+1)%4)
	}
	return g
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func newHarness(t *testing.T, g *graph.Graph, overrides map[string]any) *harness {
	t.Helper()
	return newHarnessIn(t, g, FixedContainer{Width: 800, Height: 600}, overrides)
}

func newHarnessIn(t *testing.T, g *graph.Graph, container Container, overrides map[string]any) *harness {
	t.Helper()
	h := &harness{
		ticker: schedule.NewTicker(),
		index:  spatial.New(spatial.DefaultCells),
		nodes:  program.NewRecorder(),
		edges:  program.NewRecorder(),
		hover:  program.NewRecorder(),
		layers: &recordingLayers{},
	}
	r, err := New(g, container, Options{
		Overrides:           overrides,
		ApplyDefaultVisuals: true,
		NodePrograms:        map[int]program.Factory{0: h.nodes.Factory()},
		EdgePrograms:        map[int]program.Factory{0: h.edges.Factory()},
		HoverPrograms:       map[int]program.Factory{0: h.hover.Factory()},
		Index:               h.index,
		Frames:              h.ticker,
		Layers:              h.layers,
		EdgeLayer:           paintedLayer(true),
		Logger:              quietLogger(),
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	h.r = r
	return h
}

func (h *harness) nodePos(i int) transform.Point {
	g := h.r.Graph()
	return h.r.FramedGraphToViewport(transform.Point{X: float64(g.Nodes.X[i]), Y: float64(g.Nodes.Y[i])})
}

func TestSquareScenario(t *testing.T) {
	h := newHarness(t, square(), nil)
	want := graph.Extent{X: [2]float64{0, 10}, Y: [2]float64{0, 10}}
	if got := h.r.Extent(); got != want {
		t.Errorf("Extent() = %+v, want %+v", got, want)
	}
	if got := h.index.Len(); got != 4 {
		t.Errorf("index entries = %d, want 4", got)
	}
	if h.nodes.Renders != 1 || h.edges.Renders != 1 {
		t.Errorf("renders = %d, %d, want 1, 1", h.nodes.Renders, h.edges.Renders)
	}
	if !h.nodes.Complete() || !h.edges.Complete() {
		t.Error("batches not fully processed")
	}
}

func TestNewErrors(t *testing.T) {
	bad := square()
	bad.Edges.To[0] = 9

	typed := square()
	typed.SetNodeFlags(1, graph.NodeFlags{Type: 2})

	tests := []struct {
		name      string
		g         *graph.Graph
		container Container
		defaults  bool
		want      errors.Code
	}{
		{"invalid graph", bad, FixedContainer{Width: 10, Height: 10}, true, errors.ErrCodeInvalidGraph},
		{"empty container", square(), FixedContainer{}, true, errors.ErrCodeInvalidContainer},
		{"missing program", typed, FixedContainer{Width: 10, Height: 10}, false, errors.ErrCodeMissingProgram},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.g, tt.container, Options{ApplyDefaultVisuals: tt.defaults, Logger: quietLogger()})
			if !errors.Is(err, tt.want) {
				t.Errorf("New() = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestAllowInvalidContainer(t *testing.T) {
	_, err := New(square(), FixedContainer{}, Options{
		Overrides: map[string]any{"allow_invalid_container": true},
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Errorf("New() with allow_invalid_container = %v", err)
	}
}

func TestInvertedCameraBounds(t *testing.T) {
	_, err := New(square(), FixedContainer{Width: 10, Height: 10}, Options{
		Overrides: map[string]any{"min_camera_ratio": 2.0, "max_camera_ratio": 1.0},
		Logger:    quietLogger(),
	})
	if !errors.Is(err, errors.ErrCodeInvalidSetting) {
		t.Errorf("New() = %v, want INVALID_SETTING", err)
	}
}

func TestScheduleRenderCoalesces(t *testing.T) {
	h := newHarness(t, square(), nil)
	h.r.ScheduleRender()
	h.r.ScheduleRender()
	h.r.Camera().SetState(camera.State{X: 0.4, Y: 0.5, Ratio: 1})
	if got := h.ticker.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}
	h.ticker.Tick()
	if h.nodes.Renders != 2 {
		t.Errorf("renders = %d, want 2", h.nodes.Renders)
	}
	if h.nodes.Reallocs != 1 {
		t.Errorf("reallocs = %d, want 1 without refresh", h.nodes.Reallocs)
	}
}

func TestSetSettingSchedulesRefresh(t *testing.T) {
	h := newHarness(t, square(), nil)
	if err := h.r.SetSetting("label_density", 0.5); err != nil {
		t.Fatalf("SetSetting() = %v", err)
	}
	h.ticker.Tick()
	if h.nodes.Reallocs != 2 {
		t.Errorf("reallocs = %d, want 2 after refresh", h.nodes.Reallocs)
	}
	if got := h.r.Settings().LabelDensity; got != 0.5 {
		t.Errorf("LabelDensity = %v, want 0.5", got)
	}

	if err := h.r.SetSetting("label_density", -1); !errors.Is(err, errors.ErrCodeInvalidSetting) {
		t.Errorf("SetSetting(-1) = %v, want INVALID_SETTING", err)
	}
	if got := h.r.Settings().LabelDensity; got != 0.5 {
		t.Errorf("LabelDensity = %v after failed set, want 0.5", got)
	}
}

func TestCameraBoundsFollowSettings(t *testing.T) {
	h := newHarness(t, square(), nil)
	h.r.Camera().SetState(camera.State{X: 0.5, Y: 0.5, Ratio: 5})
	if err := h.r.SetSetting("max_camera_ratio", 2.0); err != nil {
		t.Fatal(err)
	}
	if got := h.r.Camera().Ratio(); got != 2 {
		t.Errorf("Ratio() = %v, want 2 after bounding", got)
	}
}

func TestScaleSize(t *testing.T) {
	h := newHarness(t, square(), nil)
	tests := []struct {
		ratio, want float64
	}{
		{1, 10},
		{4, 5},
		{0.25, 20},
	}
	for _, tt := range tests {
		if got := h.r.ScaleSizeAt(10, tt.ratio); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ScaleSizeAt(10, %v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestNodeAtZoomedOut(t *testing.T) {
	g := graph.NewVisual(2, 0, 0, 0)
	g.Nodes.X[1] = 1000
	h := newHarness(t, g, nil)

	for _, ratio := range []float64{1, 16, 32, 64, 256} {
		h.r.Camera().SetState(camera.State{X: 0.5, Y: 0.5, Ratio: ratio})
		p := h.nodePos(0)
		radius := h.r.ScaleSize(float64(h.r.Graph().NodeSize(0)))
		inside := transform.Point{X: p.X + radius - 0.1, Y: p.Y}
		if id, ok := h.r.NodeAt(inside); !ok || id != 0 {
			t.Errorf("ratio %v: NodeAt(%+v) = %d, %v, want 0, true (radius %v)", ratio, inside, id, ok, radius)
		}
		outside := transform.Point{X: p.X - radius - 0.5, Y: p.Y}
		if id, ok := h.r.NodeAt(outside); ok {
			t.Errorf("ratio %v: NodeAt(%+v) = %d, want miss", ratio, outside, id)
		}
	}
}

func TestClickDispatch(t *testing.T) {
	h := newHarness(t, square(), map[string]any{"enable_edge_click_events": true})

	var got []string
	h.r.OnNode(Click, func(e NodeEvent) { got = append(got, "node") })
	h.r.OnEdge(Click, func(e EdgeEvent) { got = append(got, "edge") })
	h.r.OnStage(Click, func(e StageEvent) { got = append(got, "stage") })

	p0, p1 := h.nodePos(0), h.nodePos(1)
	mid := transform.Point{X: (p0.X + p1.X) / 2, Y: (p0.Y + p1.Y) / 2}

	h.r.HandlePointer(Click, &PointerEvent{X: p0.X, Y: p0.Y})
	h.r.HandlePointer(Click, &PointerEvent{X: mid.X, Y: mid.Y})
	h.r.HandlePointer(Click, &PointerEvent{X: 400, Y: 300})

	if want := []string{"node", "edge", "stage"}; !slices.Equal(got, want) {
		t.Errorf("dispatch = %v, want %v", got, want)
	}
}

func TestEdgeClicksDisabledFallToStage(t *testing.T) {
	h := newHarness(t, square(), nil)
	stage := 0
	h.r.OnStage(Click, func(StageEvent) { stage++ })
	p0, p1 := h.nodePos(0), h.nodePos(1)
	h.r.HandlePointer(Click, &PointerEvent{X: (p0.X + p1.X) / 2, Y: (p0.Y + p1.Y) / 2})
	if stage != 1 {
		t.Errorf("stage clicks = %d, want 1", stage)
	}
}

func TestHoverPairs(t *testing.T) {
	h := newHarness(t, square(), nil)
	var got []string
	h.r.OnNode(Enter, func(e NodeEvent) { got = append(got, "enter", string(rune('0'+e.Node))) })
	h.r.OnNode(Leave, func(e NodeEvent) { got = append(got, "leave", string(rune('0'+e.Node))) })

	p0, p2 := h.nodePos(0), h.nodePos(2)
	h.r.HandleMove(&PointerEvent{X: p0.X, Y: p0.Y})
	h.r.HandleMove(&PointerEvent{X: p0.X + 1, Y: p0.Y})
	h.r.HandleMove(&PointerEvent{X: p2.X, Y: p2.Y})
	h.r.HandleMove(&PointerEvent{X: 400, Y: 300})

	want := []string{"enter", "0", "leave", "0", "enter", "2", "leave", "2"}
	if !slices.Equal(got, want) {
		t.Errorf("hover = %v, want %v", got, want)
	}
}

func TestHoverDrawsHighlight(t *testing.T) {
	h := newHarness(t, square(), nil)
	p0 := h.nodePos(0)
	h.r.HandleMove(&PointerEvent{X: p0.X, Y: p0.Y})
	h.ticker.Tick()
	if h.hover.Capacity != 1 || h.hover.Slots[0] != 0 || h.hover.Renders != 1 {
		t.Errorf("hover batch = %+v, want node 0 drawn once", h.hover)
	}
	if len(h.layers.hoverLabels) != 1 || h.layers.hoverLabels[0].ID != 0 {
		t.Errorf("hover labels = %+v, want node 0", h.layers.hoverLabels)
	}
}

func TestEdgeHover(t *testing.T) {
	h := newHarness(t, square(), map[string]any{"enable_edge_hover_events": true})
	var entered []int
	h.r.OnEdge(Enter, func(e EdgeEvent) { entered = append(entered, e.Edge) })

	p1, p2 := h.nodePos(1), h.nodePos(2)
	h.r.HandleMove(&PointerEvent{X: (p1.X + p2.X) / 2, Y: (p1.Y + p2.Y) / 2})
	if !slices.Equal(entered, []int{1}) {
		t.Errorf("entered edges = %v, want [1]", entered)
	}
	if id, ok := h.r.HoveredEdge(); !ok || id != 1 {
		t.Errorf("HoveredEdge() = %d, %v", id, ok)
	}
}

func TestHideEdgesOnMove(t *testing.T) {
	h := newHarness(t, square(), map[string]any{"hide_edges_on_move": true})
	h.r.SetCaptorState(CaptorState{Dragging: true})
	if err := h.r.Render(); err != nil {
		t.Fatal(err)
	}
	if h.nodes.Renders != 2 || h.edges.Renders != 1 {
		t.Errorf("renders = %d, %d, want 2, 1", h.nodes.Renders, h.edges.Renders)
	}
}

func TestLabels(t *testing.T) {
	g := square()
	h := newHarness(t, g, nil)
	choices := h.r.Choices()
	for i := range 4 {
		g.Nodes.Features[g.NodeVisual().Label][i] = float32(choices.InternLabel("n" + string(rune('0'+i))))
	}
	if err := h.r.Render(); err != nil {
		t.Fatal(err)
	}
	if len(h.layers.labels) != 4 {
		t.Errorf("labels drawn = %d, want 4", len(h.layers.labels))
	}

	if err := h.r.SetSetting("render_labels", false); err != nil {
		t.Fatal(err)
	}
	h.ticker.Tick()
	if len(h.layers.labels) != 0 {
		t.Errorf("labels drawn = %d with render_labels off, want 0", len(h.layers.labels))
	}
}

func TestSetGraph(t *testing.T) {
	h := newHarness(t, square(), nil)
	p0 := h.nodePos(0)
	h.r.HandleMove(&PointerEvent{X: p0.X, Y: p0.Y})

	bad := square()
	bad.Edges.From = bad.Edges.From[:2]
	if err := h.r.SetGraph(bad, nil); !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("SetGraph(bad) = %v, want INVALID_GRAPH", err)
	}
	if _, ok := h.r.HoveredNode(); !ok {
		t.Error("refused swap reset the hover")
	}

	next := graph.NewVisual(2, 0, 0, 0)
	next.Nodes.X[1] = 1
	if err := h.r.SetGraph(next, nil); err != nil {
		t.Fatalf("SetGraph() = %v", err)
	}
	if _, ok := h.r.HoveredNode(); ok {
		t.Error("swap kept the hover")
	}
	h.ticker.Tick()
	if h.index.Len() != 2 {
		t.Errorf("index entries = %d after swap, want 2", h.index.Len())
	}
}

func TestKill(t *testing.T) {
	h := newHarness(t, square(), nil)
	kills := 0
	h.r.OnKill(func() { kills++ })
	h.r.ScheduleRender()
	h.r.Kill()
	h.r.Kill()
	if kills != 1 {
		t.Errorf("kill listeners ran %d times, want 1", kills)
	}
	if h.ticker.Pending() != 0 {
		t.Errorf("Pending() = %d after Kill, want 0", h.ticker.Pending())
	}
	if err := h.r.Render(); !errors.Is(err, errors.ErrCodeKilled) {
		t.Errorf("Render() after Kill = %v, want KILLED", err)
	}
}

func TestSnapshot(t *testing.T) {
	h := newHarness(t, square(), nil)
	h.r.Graph().SetNodeFlags(3, graph.NodeFlags{Hidden: true})
	snap := h.r.Snapshot()
	if len(snap.Nodes) != 3 {
		t.Errorf("nodes = %d, want 3 visible", len(snap.Nodes))
	}
	if len(snap.Edges) != 2 {
		t.Errorf("edges = %d, want 2 without hidden endpoints", len(snap.Edges))
	}
	if snap.Nodes[0].Hex != "#000" || snap.Nodes[0].Size != 10 {
		t.Errorf("node 0 = %+v", snap.Nodes[0])
	}
}

// sizedContainer is a Container whose size tests can change.
type sizedContainer struct{ w, h float64 }

func (c *sizedContainer) Size() (float64, float64) { return c.w, c.h }
func (c *sizedContainer) PixelRatio() float64 { return 1 }

func TestRenderNotificationsPairOnFailure(t *testing.T) {
	c := &sizedContainer{w: 800, h: 600}
	h := newHarnessIn(t, square(), c, nil)
	var before, after int
	h.r.OnBeforeRender(func() { before++ })
	h.r.OnAfterRender(func() { after++ })

	if err := h.r.Render(); err != nil {
		t.Fatalf("Render() = %v", err)
	}
	c.w, c.h = 0, 0
	if err := h.r.Render(); !errors.Is(err, errors.ErrCodeInvalidContainer) {
		t.Fatalf("Render() on empty container = %v, want INVALID_CONTAINER", err)
	}
	if before != 2 || after != 2 {
		t.Errorf("before = %d, after = %d, want 2 and 2", before, after)
	}
}
