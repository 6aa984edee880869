package raster

import (
	"bytes"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/renderer"
	"github.com/matzehuels/stagegraph/pkg/schedule"
)

func square(edgeType uint8) *graph.Graph {
	g := graph.NewVisual(4, 4, 0, 0)
	corners := [][2]float32{{0, 0}, {0, 10}, {10, 10}, {10, 0}}
	for i, c := range corners {
		g.Nodes.X[i], g.Nodes.Y[i] = c[0], c[1]
		g.Edges.From[i], g.Edges.To[i] = int32(i), int32((i+1)%4)
		g.SetEdgeFlags(i, graph.EdgeFlags{Type: edgeType})
	}
	return g
}

// render draws g on a 100x100 surface. With the default padding of 30 the
// corners land on (30,70), (30,30), (70,30) and (70,70).
func render(t *testing.T, g *graph.Graph) *Surface {
	t.Helper()
	s := NewSurface(100, 100, 1)
	nodes, edges, hover := s.Programs()
	_, err := renderer.New(g, renderer.FixedContainer{Width: 100, Height: 100}, renderer.Options{
		ApplyDefaultVisuals: true,
		NodePrograms:        nodes,
		EdgePrograms:        edges,
		HoverPrograms:       hover,
		Frames:              schedule.NewTicker(),
		Layers:              s,
		EdgeLayer:           s,
		Logger:              log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("renderer.New() = %v", err)
	}
	return s
}

func opaque(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a != 0
}

func TestSurfaceDrawsGraph(t *testing.T) {
	s := render(t, square(0))
	img := s.Image()

	if r, g, b, _ := img.At(30, 70).RGBA(); r == 0xffff && g == 0xffff && b == 0xffff {
		t.Error("node centre (30,70) is background")
	}
	if r, g, b, _ := img.At(50, 50).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Error("square centre (50,50) is not background")
	}
	if !s.ColoredAt(30, 50) && !s.ColoredAt(29, 50) {
		t.Error("ColoredAt(30, 50) = false, want edge pixel")
	}
	if s.ColoredAt(50, 50) {
		t.Error("ColoredAt(50, 50) = true, want empty")
	}
	if s.ColoredAt(-1, 0) || s.ColoredAt(100, 0) {
		t.Error("ColoredAt out of bounds = true")
	}
}

func TestSurfaceArrows(t *testing.T) {
	s := render(t, square(1))
	// Edge 0 runs from (30,70) up to (30,30); its head sits just below the
	// target disc.
	if !s.ColoredAt(30, 50) && !s.ColoredAt(29, 50) {
		t.Error("arrow body missing")
	}
	if !s.ColoredAt(30, 44) {
		t.Error("arrow head missing at (30,44)")
	}
}

func TestSurfaceClear(t *testing.T) {
	s := render(t, square(0))
	s.Clear()
	for _, p := range [][2]int{{30, 70}, {30, 50}} {
		if opaque(s.layer(layerNodes).Image().At(p[0], p[1])) || s.ColoredAt(p[0], p[1]) {
			t.Errorf("pixel %v survived Clear", p)
		}
	}
}

func TestHoverLabel(t *testing.T) {
	s := NewSurface(100, 100, 1)
	s.DrawHoverLabel(renderer.Label{X: 20, Y: 50, NodeSize: 5, Text: "node", Size: 14, Color: color.RGBA{A: 0xff}})
	hover := s.layer(layerHover).Image()
	if !opaque(hover.At(20, 50)) {
		t.Error("hover halo missing")
	}
	if !opaque(hover.At(40, 50)) {
		t.Error("hover label box missing")
	}

	s.ClearHover()
	if opaque(s.layer(layerHover).Image().At(20, 50)) {
		t.Error("hover layer survived ClearHover")
	}
}

func TestEncodePNG(t *testing.T) {
	s := render(t, square(0))
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG() = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Errorf("bounds = %v, want 100x100", b)
	}
}
