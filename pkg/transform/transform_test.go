package transform

import (
	"math"
	"math/rand"
	"testing"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/graph"
)

const eps = 1e-9

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestMatrixInverse(t *testing.T) {
	states := []camera.State{
		camera.DefaultState(),
		{X: 0.3, Y: 0.8, Angle: 1.1, Ratio: 0.25},
		{X: -2, Y: 4, Angle: -2.5, Ratio: 7},
	}
	viewports := []Dimensions{{800, 600}, {300, 900}, {512, 512}}
	dims := []Dimensions{{10, 4}, {1, 1}, {3, 30}}
	for _, s := range states {
		for _, vp := range viewports {
			for _, gd := range dims {
				m := CameraMatrix(s, vp, gd, 30, false)
				inv := CameraMatrix(s, vp, gd, 30, true)
				id := inv.Multiply(m)
				want := Identity()
				for i := range id {
					if !near(id[i], want[i], 1e-9) {
						t.Fatalf("inv·m = %v, want identity (state %+v vp %+v dims %+v)", id, s, vp, gd)
					}
				}
			}
		}
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := New()
	tr.SetFraming(graph.Extent{X: [2]float64{-5, 15}, Y: [2]float64{0, 8}})
	for i := 0; i < 200; i++ {
		s := camera.State{
			X:     rng.Float64(),
			Y:     rng.Float64(),
			Angle: rng.Float64() * 2 * math.Pi,
			Ratio: 0.1 + rng.Float64()*5,
		}
		tr.Update(s, Dimensions{Width: 200 + rng.Float64()*800, Height: 200 + rng.Float64()*800}, 30)
		p := Point{X: rng.Float64()*2 - 0.5, Y: rng.Float64()*2 - 0.5}
		back := tr.ViewportToFramedGraph(tr.FramedGraphToViewport(p))
		if !near(back.X, p.X, 1e-9) || !near(back.Y, p.Y, 1e-9) {
			t.Fatalf("round trip %+v -> %+v (state %+v)", p, back, s)
		}
		gp := Point{X: rng.Float64() * 20, Y: rng.Float64() * 20}
		gback := tr.ViewportToGraph(tr.GraphToViewport(gp))
		if !near(gback.X, gp.X, 1e-7) || !near(gback.Y, gp.Y, 1e-7) {
			t.Fatalf("graph round trip %+v -> %+v", gp, gback)
		}
	}
}

func TestFramedGraphToViewport(t *testing.T) {
	tr := New()
	tr.Update(camera.DefaultState(), Dimensions{Width: 100, Height: 100}, 0)
	tests := []struct {
		in   Point
		want Point
	}{
		{Point{0.5, 0.5}, Point{50, 50}},
		{Point{1, 1}, Point{100, 0}},
		{Point{0, 0}, Point{0, 100}},
	}
	for _, tt := range tests {
		got := tr.FramedGraphToViewport(tt.in)
		if !near(got.X, tt.want.X, eps) || !near(got.Y, tt.want.Y, eps) {
			t.Errorf("FramedGraphToViewport(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestOverridesDoNotMutate(t *testing.T) {
	tr := New()
	tr.Update(camera.DefaultState(), Dimensions{Width: 100, Height: 100}, 0)
	zoomed := camera.State{X: 0.5, Y: 0.5, Ratio: 0.5}
	got := tr.FramedGraphToViewport(Point{1, 0.5}, WithState(zoomed))
	if !near(got.X, 150, eps) {
		t.Errorf("zoomed X = %v, want 150", got.X)
	}
	if tr.State() != camera.DefaultState() {
		t.Errorf("State() = %+v, override leaked", tr.State())
	}
	live := tr.FramedGraphToViewport(Point{1, 0.5})
	if !near(live.X, 100, eps) {
		t.Errorf("live X = %v, want 100", live.X)
	}
	viaMatrix := tr.FramedGraphToViewport(Point{1, 0.5}, WithMatrix(tr.Matrix()))
	if viaMatrix != live {
		t.Errorf("WithMatrix = %+v, want %+v", viaMatrix, live)
	}
}

func TestViewportToFramedGraphNaN(t *testing.T) {
	tr := New()
	tr.Update(camera.DefaultState(), Dimensions{Width: 0, Height: 0}, 0)
	got := tr.ViewportToFramedGraph(Point{10, 10})
	if math.IsNaN(got.X) || math.IsNaN(got.Y) {
		t.Errorf("ViewportToFramedGraph = %+v, want NaN coerced to 0", got)
	}
}

func TestNormalization(t *testing.T) {
	tests := []struct {
		name  string
		e     graph.Extent
		ratio float64
		in    Point
		want  Point
	}{
		{"square", graph.Extent{X: [2]float64{0, 10}, Y: [2]float64{0, 10}}, 10, Point{10, 0}, Point{1, 0}},
		{"wide pads y", graph.Extent{X: [2]float64{0, 4}, Y: [2]float64{0, 2}}, 4, Point{0, 0}, Point{0, 0.25}},
		{"single node", graph.Extent{X: [2]float64{3, 3}, Y: [2]float64{-1, -1}}, 1, Point{3, -1}, Point{0.5, 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalization(tt.e)
			if n.Ratio != tt.ratio {
				t.Errorf("Ratio = %v, want %v", n.Ratio, tt.ratio)
			}
			got := n.Apply(tt.in)
			if !near(got.X, tt.want.X, eps) || !near(got.Y, tt.want.Y, eps) {
				t.Errorf("Apply(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
			back := n.Inverse(got)
			if !near(back.X, tt.in.X, eps) || !near(back.Y, tt.in.Y, eps) {
				t.Errorf("Inverse(%+v) = %+v, want %+v", got, back, tt.in)
			}
		})
	}
}

func TestNormalizationApplyTo(t *testing.T) {
	g := graph.NewVisual(4, 0, 0, 0)
	copy(g.Nodes.X, []float32{0, 0, 10, 10})
	copy(g.Nodes.Y, []float32{0, 10, 10, 0})
	NewNormalization(g.Extent()).ApplyTo(g)
	for i := range g.Nodes.X {
		x, y := g.Nodes.X[i], g.Nodes.Y[i]
		if x < 0 || x > 1 || y < 0 || y > 1 {
			t.Errorf("node %d = (%v, %v), want inside unit square", i, x, y)
		}
	}
}

func TestCorrectionRatio(t *testing.T) {
	tests := []struct {
		name     string
		viewport Dimensions
		graph    Dimensions
		want     float64
	}{
		{"opposed aspects", Dimensions{200, 100}, Dimensions{1, 2}, 1},
		{"both square", Dimensions{100, 100}, Dimensions{5, 5}, 1},
		{"both wide", Dimensions{400, 100}, Dimensions{2, 1}, 2},
		{"both tall", Dimensions{100, 300}, Dimensions{1, 4}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CorrectionRatio(tt.viewport, tt.graph); !near(got, tt.want, eps) {
				t.Errorf("CorrectionRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGraphDimensions(t *testing.T) {
	got := GraphDimensions(graph.Extent{X: [2]float64{2, 2}, Y: [2]float64{0, 5}})
	if got != (Dimensions{Width: 1, Height: 5}) {
		t.Errorf("GraphDimensions() = %+v, want {1 5}", got)
	}
}

func TestZoomedStateKeepsTarget(t *testing.T) {
	tr := New()
	tr.Update(camera.DefaultState(), Dimensions{Width: 400, Height: 300}, 0)
	target := Point{X: 100, Y: 80}
	before := tr.ViewportToFramedGraph(target)

	s := tr.ZoomedState(target, 0.5)
	tr.Update(s, tr.Viewport(), 0)
	after := tr.ViewportToFramedGraph(target)
	if !near(before.X, after.X, 1e-9) || !near(before.Y, after.Y, 1e-9) {
		t.Errorf("target moved from %+v to %+v", before, after)
	}
}

func TestViewRectangle(t *testing.T) {
	tr := New()
	tr.Update(camera.DefaultState(), Dimensions{Width: 100, Height: 100}, 0)
	r := tr.ViewRectangle()
	want := Rectangle{X1: 0, Y1: 1, X2: 1, Y2: 1, Height: 1}
	if !near(r.X1, want.X1, eps) || !near(r.Y1, want.Y1, eps) || !near(r.X2, want.X2, eps) ||
		!near(r.Y2, want.Y2, eps) || !near(r.Height, want.Height, eps) {
		t.Errorf("ViewRectangle() = %+v, want %+v", r, want)
	}
}

func TestGraphToViewportRatio(t *testing.T) {
	tr := New()
	tr.SetFraming(graph.Extent{X: [2]float64{0, 10}, Y: [2]float64{0, 10}})
	tr.Update(camera.DefaultState(), Dimensions{Width: 100, Height: 100}, 0)
	if got := tr.GraphToViewportRatio(); !near(got, 10, 1e-9) {
		t.Errorf("GraphToViewportRatio() = %v, want 10", got)
	}
}
