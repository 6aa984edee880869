package viewer

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	pkgio "github.com/matzehuels/stagegraph/pkg/io"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
	"github.com/matzehuels/stagegraph/pkg/renderer"
)

// square puts its corners on (30,70), (30,30), (70,30) and (70,70) of a
// 100x100 window.
const square = `{
  "nodes": [
    {"key": "a", "attributes": {"x": 0, "y": 0}},
    {"key": "b", "attributes": {"x": 0, "y": 10}},
    {"key": "c", "attributes": {"x": 10, "y": 10}},
    {"key": "d", "attributes": {"x": 10, "y": 0}}
  ],
  "edges": [
    {"source": "a", "target": "b"},
    {"source": "b", "target": "c"},
    {"source": "c", "target": "d"},
    {"source": "d", "target": "a"}
  ]
}`

func newTestController(t *testing.T) *controller {
	t.Helper()
	g, choices, keys, err := pkgio.ReadJSON(strings.NewReader(square), pkgio.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	c, err := newController(&pipeline.Scene{Graph: g, Choices: choices, Keys: keys}, Options{
		Render: pipeline.Options{Width: 100, Height: 100},
		Logger: log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("newController() = %v", err)
	}
	t.Cleanup(c.close)
	return c
}

func at(x, y float64) Input { return Input{X: x, Y: y, Inside: true, Now: time.Now()} }

func TestHover(t *testing.T) {
	c := newTestController(t)
	c.step(at(30, 70))
	if id, ok := c.renderer.HoveredNode(); !ok || id != 0 {
		t.Errorf("HoveredNode() = %d, %v, want 0, true", id, ok)
	}
	c.step(at(50, 50))
	if _, ok := c.renderer.HoveredNode(); ok {
		t.Error("HoveredNode() still set over empty stage")
	}
}

func TestClicks(t *testing.T) {
	c := newTestController(t)
	var clicks, doubles []int
	c.renderer.OnNode(renderer.Click, func(e renderer.NodeEvent) { clicks = append(clicks, e.Node) })
	c.renderer.OnNode(renderer.DoubleClick, func(e renderer.NodeEvent) { doubles = append(doubles, e.Node) })

	now := time.Now()
	press := func(at time.Time) {
		c.step(Input{X: 70, Y: 30, Inside: true, Pressed: true, Now: at})
		c.step(Input{X: 70, Y: 30, Inside: true, Released: true, Now: at})
	}
	press(now)
	press(now.Add(100 * time.Millisecond))
	press(now.Add(time.Second))

	if len(clicks) != 2 || clicks[0] != 2 {
		t.Errorf("clicks = %v, want [2 2]", clicks)
	}
	if len(doubles) != 1 || doubles[0] != 2 {
		t.Errorf("double clicks = %v, want [2]", doubles)
	}
}

func TestDragPans(t *testing.T) {
	c := newTestController(t)
	clicked := false
	c.renderer.OnStage(renderer.Click, func(renderer.StageEvent) { clicked = true })

	c.step(at(50, 50))
	in := at(50, 50)
	in.Pressed = true
	c.step(in)
	c.step(at(60, 50))
	in = at(60, 50)
	in.Released = true
	c.step(in)

	if st := c.renderer.Camera().State(); st.X >= 0.5 {
		t.Errorf("camera X = %v, want < 0.5 after dragging right", st.X)
	}
	if clicked {
		t.Error("drag emitted a click")
	}
}

func TestWheelZooms(t *testing.T) {
	c := newTestController(t)
	in := at(50, 50)
	in.Wheel = 1
	c.step(in)
	if got, want := c.renderer.Camera().State().Ratio, 1/zoomStep; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("ratio = %v, want %v", got, want)
	}
}

func TestResize(t *testing.T) {
	c := newTestController(t)
	c.frame()
	c.resize(200, 120)
	c.step(at(0, 0))
	surface, changed := c.frame()
	if w, h := surface.Size(); w != 200 || h != 120 {
		t.Errorf("surface = %dx%d, want 200x120", w, h)
	}
	if !changed {
		t.Error("frame() changed = false after resize")
	}
	if _, changed := c.frame(); changed {
		t.Error("frame() changed = true without a new frame")
	}
}

func TestLiveLayout(t *testing.T) {
	c := newTestController(t)
	before := c.scene.Graph.Nodes.X[0]
	c.startLayout(context.Background(), pipeline.Layout{
		Iterations:  20,
		ForceAtlas2: pipeline.DefaultLayout().ForceAtlas2,
	})

	deadline := time.Now().Add(5 * time.Second)
	for c.scene.Graph.Nodes.X[0] == before {
		if time.Now().After(deadline) {
			t.Fatal("layout batches were never applied")
		}
		c.step(at(0, 0))
		time.Sleep(5 * time.Millisecond)
	}
}
