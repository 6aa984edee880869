package transform

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/graph"
)

// Transformer converts points between graph, framed-graph and viewport
// space for one camera, viewport and framing. The forward and inverse
// matrices are cached and rebuilt by [Transformer.Update].
type Transformer struct {
	state     camera.State
	viewport  Dimensions
	graphDims Dimensions
	padding   float64
	norm      Normalization

	matrix    Matrix
	invMatrix Matrix
}

// New returns a transformer for the default camera over a unit framing.
func New() *Transformer {
	t := &Transformer{
		state:     camera.DefaultState(),
		viewport:  Dimensions{Width: 1, Height: 1},
		graphDims: Dimensions{Width: 1, Height: 1},
		norm:      Normalization{Ratio: 1, DX: 0.5, DY: 0.5},
	}
	t.rebuild()
	return t
}

// SetFraming records the bounding box the graph is framed against.
func (t *Transformer) SetFraming(bbox graph.Extent) {
	t.graphDims = GraphDimensions(bbox)
	t.norm = NewNormalization(bbox)
	t.rebuild()
}

// Update records the live camera state, viewport and padding and rebuilds
// the cached matrices.
func (t *Transformer) Update(s camera.State, viewport Dimensions, padding float64) {
	t.state = s
	t.viewport = viewport
	t.padding = padding
	t.rebuild()
}

func (t *Transformer) rebuild() {
	t.matrix = CameraMatrix(t.state, t.viewport, t.graphDims, t.padding, false)
	t.invMatrix = CameraMatrix(t.state, t.viewport, t.graphDims, t.padding, true)
}

// Matrix returns the cached forward matrix.
func (t *Transformer) Matrix() Matrix { return t.matrix }

// InverseMatrix returns the cached inverse matrix.
func (t *Transformer) InverseMatrix() Matrix { return t.invMatrix }

// Normalization returns the current graph normalization.
func (t *Transformer) Normalization() Normalization { return t.norm }

// GraphDimensions returns the framed graph spans.
func (t *Transformer) GraphDimensions() Dimensions { return t.graphDims }

// Viewport returns the live viewport dimensions.
func (t *Transformer) Viewport() Dimensions { return t.viewport }

// State returns the live camera state.
func (t *Transformer) State() camera.State { return t.state }

// Padding returns the live stage padding.
func (t *Transformer) Padding() float64 { return t.padding }

// =============================================================================
// Overrides
// =============================================================================

// Option overrides one input of a conversion without touching live state.
type Option func(*override)

type override struct {
	state     *camera.State
	matrix    *Matrix
	viewport  *Dimensions
	graphDims *Dimensions
	padding   *float64
}

func (o *override) recompute() bool {
	return o.state != nil || o.viewport != nil || o.graphDims != nil || o.padding != nil
}

// WithState converts under camera state s.
func WithState(s camera.State) Option { return func(o *override) { o.state = &s } }

// WithMatrix converts with a precomputed matrix. For viewport to graph
// conversions the matrix must be an inverse matrix.
func WithMatrix(m Matrix) Option { return func(o *override) { o.matrix = &m } }

// WithViewport converts for a viewport of the given dimensions.
func WithViewport(d Dimensions) Option { return func(o *override) { o.viewport = &d } }

// WithGraphDimensions converts against the given graph spans.
func WithGraphDimensions(d Dimensions) Option { return func(o *override) { o.graphDims = &d } }

// WithPadding converts with the given stage padding.
func WithPadding(p float64) Option { return func(o *override) { o.padding = &p } }

func (t *Transformer) resolve(inverse bool, opts []Option) (Matrix, Dimensions) {
	var o override
	for _, opt := range opts {
		opt(&o)
	}
	viewport := t.viewport
	if o.viewport != nil {
		viewport = *o.viewport
	}
	if o.matrix != nil {
		return *o.matrix, viewport
	}
	if !o.recompute() {
		if inverse {
			return t.invMatrix, viewport
		}
		return t.matrix, viewport
	}
	s, dims, padding := t.state, t.graphDims, t.padding
	if o.state != nil {
		s = *o.state
	}
	if o.graphDims != nil {
		dims = *o.graphDims
	}
	if o.padding != nil {
		padding = *o.padding
	}
	return CameraMatrix(s, viewport, dims, padding, inverse), viewport
}

// =============================================================================
// Conversions
// =============================================================================

// FramedGraphToViewport maps a framed-graph point to viewport pixels, origin
// top-left.
func (t *Transformer) FramedGraphToViewport(p Point, opts ...Option) Point {
	m, vp := t.resolve(false, opts)
	x, y := m.Apply(p.X, p.Y, 1)
	return Point{X: (1 + x) * vp.Width / 2, Y: (1 - y) * vp.Height / 2}
}

// ViewportToFramedGraph maps viewport pixels to framed-graph space. NaN
// results from a collapsed matrix become 0.
func (t *Transformer) ViewportToFramedGraph(p Point, opts ...Option) Point {
	m, vp := t.resolve(true, opts)
	x, y := m.Apply(p.X/vp.Width*2-1, 1-p.Y/vp.Height*2, 1)
	if math.IsNaN(x) {
		x = 0
	}
	if math.IsNaN(y) {
		y = 0
	}
	return Point{X: x, Y: y}
}

// GraphToViewport maps a graph point to viewport pixels.
func (t *Transformer) GraphToViewport(p Point, opts ...Option) Point {
	return t.FramedGraphToViewport(t.norm.Apply(p), opts...)
}

// ViewportToGraph maps viewport pixels to graph space.
func (t *Transformer) ViewportToGraph(p Point, opts ...Option) Point {
	return t.norm.Inverse(t.ViewportToFramedGraph(p, opts...))
}

// GraphToViewportRatio returns the viewport length of a unit graph length.
func (t *Transformer) GraphToViewportRatio() float64 {
	p1 := t.GraphToViewport(Point{})
	p2 := t.GraphToViewport(Point{X: 1, Y: 1})
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y) / math.Sqrt2
}

// Rectangle is the framed-graph region visible in the viewport. (X1, Y1) is
// the top-left corner, (X2, Y2) the top-right one.
type Rectangle struct {
	X1     float64 `json:"x1"`
	Y1     float64 `json:"y1"`
	X2     float64 `json:"x2"`
	Y2     float64 `json:"y2"`
	Height float64 `json:"height"`
}

// ViewRectangle returns the framed-graph rectangle covered by the viewport.
func (t *Transformer) ViewRectangle() Rectangle {
	p1 := t.ViewportToFramedGraph(Point{})
	p2 := t.ViewportToFramedGraph(Point{X: t.viewport.Width})
	h := t.ViewportToFramedGraph(Point{Y: t.viewport.Height})
	return Rectangle{X1: p1.X, Y1: p1.Y, X2: p2.X, Y2: p2.Y, Height: p2.Y - h.Y}
}

// ZoomedState returns the camera state at ratio that keeps the framed-graph
// point under target fixed on screen. The caller clamps ratio.
func (t *Transformer) ZoomedState(target Point, ratio float64) camera.State {
	s := t.state
	diff := ratio / s.Ratio
	mouse := t.ViewportToFramedGraph(target)
	centre := t.ViewportToFramedGraph(Point{X: t.viewport.Width / 2, Y: t.viewport.Height / 2})
	return camera.State{
		X:     (mouse.X-centre.X)*(1-diff) + s.X,
		Y:     (mouse.Y-centre.Y)*(1-diff) + s.Y,
		Angle: s.Angle,
		Ratio: ratio,
	}
}
