package transform

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/graph"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Normalization maps graph coordinates into the unit square, padding the
// shorter axis so the aspect ratio is preserved.
type Normalization struct {
	Ratio float64
	DX    float64
	DY    float64
}

// NewNormalization builds the normalization for extent e. A degenerate
// extent gets ratio 1.
func NewNormalization(e graph.Extent) Normalization {
	ratio := math.Max(e.X[1]-e.X[0], e.Y[1]-e.Y[0])
	if ratio == 0 || math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		ratio = 1
	}
	dx := (e.X[1] + e.X[0]) / 2
	dy := (e.Y[1] + e.Y[0]) / 2
	if math.IsNaN(dx) {
		dx = 0
	}
	if math.IsNaN(dy) {
		dy = 0
	}
	return Normalization{Ratio: ratio, DX: dx, DY: dy}
}

// Apply maps a graph point into framed-graph space.
func (n Normalization) Apply(p Point) Point {
	return Point{X: 0.5 + (p.X-n.DX)/n.Ratio, Y: 0.5 + (p.Y-n.DY)/n.Ratio}
}

// Inverse maps a framed-graph point back into graph space.
func (n Normalization) Inverse(p Point) Point {
	return Point{X: n.DX + n.Ratio*(p.X-0.5), Y: n.DY + n.Ratio*(p.Y-0.5)}
}

// ApplyTo normalizes every node coordinate of g in place.
func (n Normalization) ApplyTo(g *graph.Graph) {
	for i := range g.Nodes.X {
		g.Nodes.X[i] = float32(0.5 + (float64(g.Nodes.X[i])-n.DX)/n.Ratio)
		g.Nodes.Y[i] = float32(0.5 + (float64(g.Nodes.Y[i])-n.DY)/n.Ratio)
	}
}

// GraphDimensions returns the extent spans, using 1 for a zero span.
func GraphDimensions(e graph.Extent) Dimensions {
	w, h := e.Width(), e.Height()
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return Dimensions{Width: w, Height: h}
}
