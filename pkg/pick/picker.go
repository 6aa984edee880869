// Package pick resolves viewport points to the nodes and edges drawn there
// and tracks which of them the pointer hovers.
//
// Node picking is geometric: candidates come from the spatial index built by
// the last refresh and are tested against their on-screen circle. Edge
// picking first probes the edge layer so that a pointer over empty canvas
// costs one pixel read, then tests every visible edge as a thick segment in
// framed-graph space.
package pick

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// Candidates is the read side of the spatial index. Coordinates are framed
// graph coordinates with y pointing down. Point returns every entry whose
// centre may lie within radius of (x, y).
type Candidates interface {
	Point(x, y, radius float64) []int
}

// EdgeLayer reports whether the pixel at device coordinates (x, y) of the
// edge layer was painted by the last frame.
type EdgeLayer interface {
	ColoredAt(x, y int) bool
}

// Picker answers hit tests against the graph as of the last refresh.
type Picker struct {
	Graph       *graph.Graph
	Transformer *transform.Transformer
	Index       Candidates

	// Edges is probed before the geometric edge pass. Nil skips the probe.
	Edges      EdgeLayer
	PixelRatio float64

	// ScaleSize converts an authored size to pixels at the current ratio.
	ScaleSize func(size float64) float64
	// MaxNodeSize is the largest authored size of a visible node as of the
	// last refresh. It bounds the index query.
	MaxNodeSize float64
}

// NodeAt returns the visible node whose on-screen disc contains p. When
// discs overlap the closest centre wins.
func (pk *Picker) NodeAt(p transform.Point) (int, bool) {
	g := pk.Graph
	if g == nil || pk.Index == nil || g.NodeCount() == 0 {
		return 0, false
	}
	framed := pk.Transformer.ViewportToFramedGraph(p)

	best, bestDist := -1, math.Inf(1)
	for _, id := range pk.Index.Point(framed.X, 1-framed.Y, pk.reach(p, framed)) {
		if id >= g.NodeCount() || g.NodeHidden(id) {
			continue
		}
		pos := pk.Transformer.FramedGraphToViewport(transform.Point{
			X: float64(g.Nodes.X[id]),
			Y: float64(g.Nodes.Y[id]),
		})
		size := pk.scale(float64(g.NodeSize(id)))
		if d, ok := onDisc(p, pos, size); ok && d < bestDist {
			best, bestDist = id, d
		}
	}
	return best, best >= 0
}

// reach returns the framed-graph distance covered by the largest on-screen
// node radius around p. The sum of both axis images bounds the image of any
// direction.
func (pk *Picker) reach(p, framed transform.Point) float64 {
	r := pk.scale(pk.MaxNodeSize)
	if r <= 0 {
		return 0
	}
	fx := pk.Transformer.ViewportToFramedGraph(transform.Point{X: p.X + r, Y: p.Y})
	fy := pk.Transformer.ViewportToFramedGraph(transform.Point{X: p.X, Y: p.Y + r})
	return math.Hypot(fx.X-framed.X, fx.Y-framed.Y) + math.Hypot(fy.X-framed.X, fy.Y-framed.Y)
}

func onDisc(p, centre transform.Point, radius float64) (float64, bool) {
	if p.X < centre.X-radius || p.X > centre.X+radius ||
		p.Y < centre.Y-radius || p.Y > centre.Y+radius {
		return 0, false
	}
	d := math.Hypot(p.X-centre.X, p.Y-centre.Y)
	return d, d < radius
}

// EdgeAt returns the visible edge drawn under the viewport point (x, y).
// Among overlapping edges the highest z index wins, ties going to the edge
// stored last.
func (pk *Picker) EdgeAt(x, y float64) (int, bool) {
	g := pk.Graph
	if g == nil || g.EdgeCount() == 0 {
		return 0, false
	}
	if pk.Edges != nil {
		pr := pk.PixelRatio
		if pr <= 0 {
			pr = 1
		}
		if !pk.Edges.ColoredAt(int(x*pr), int(y*pr)) {
			return 0, false
		}
	}

	ratio, ok := pk.calibrate()
	if !ok {
		return 0, false
	}
	p := pk.Transformer.ViewportToFramedGraph(transform.Point{X: x, Y: y})

	best, bestZ := -1, int16(math.MinInt16)
	for i := 0; i < g.EdgeCount(); i++ {
		if !pk.edgeVisible(i) {
			continue
		}
		s, t := g.Edges.From[i], g.Edges.To[i]
		thickness := pk.scale(float64(g.EdgeSize(i))) * ratio
		if !onSegment(p,
			transform.Point{X: float64(g.Nodes.X[s]), Y: float64(g.Nodes.Y[s])},
			transform.Point{X: float64(g.Nodes.X[t]), Y: float64(g.Nodes.Y[t])},
			thickness) {
			continue
		}
		if z := g.Edges.Z[i]; best < 0 || z >= bestZ {
			best, bestZ = i, z
		}
	}
	return best, best >= 0
}

// calibrate returns the framed-graph length of one viewport pixel, measured
// on the first visible edge with distinct endpoints.
func (pk *Picker) calibrate() (float64, bool) {
	g := pk.Graph
	for i := 0; i < g.EdgeCount(); i++ {
		if !pk.edgeVisible(i) {
			continue
		}
		s, t := g.Edges.From[i], g.Edges.To[i]
		a := transform.Point{X: float64(g.Nodes.X[s]), Y: float64(g.Nodes.Y[s])}
		b := transform.Point{X: float64(g.Nodes.X[t]), Y: float64(g.Nodes.Y[t])}
		graphLength := math.Hypot(b.X-a.X, b.Y-a.Y)
		if graphLength == 0 {
			continue
		}
		va, vb := pk.Transformer.FramedGraphToViewport(a), pk.Transformer.FramedGraphToViewport(b)
		viewportLength := math.Hypot(vb.X-va.X, vb.Y-va.Y)
		if viewportLength == 0 {
			continue
		}
		return graphLength / viewportLength, true
	}
	return 0, false
}

func (pk *Picker) edgeVisible(i int) bool {
	g := pk.Graph
	return !g.EdgeHidden(i) && !g.NodeHidden(int(g.Edges.From[i])) && !g.NodeHidden(int(g.Edges.To[i]))
}

func (pk *Picker) scale(size float64) float64 {
	if pk.ScaleSize == nil {
		return size
	}
	return pk.ScaleSize(size)
}

// onSegment reports whether p lies within thickness/2 of segment ab, after a
// bounding-box check expanded by thickness.
func onSegment(p, a, b transform.Point, thickness float64) bool {
	if p.X < math.Min(a.X, b.X)-thickness || p.X > math.Max(a.X, b.X)+thickness ||
		p.Y < math.Min(a.Y, b.Y)-thickness || p.Y > math.Max(a.Y, b.Y)+thickness {
		return false
	}
	return segmentDistance(p, a, b) < thickness/2
}

func segmentDistance(p, a, b transform.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
