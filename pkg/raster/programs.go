package raster

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/program"
)

// Arrow head proportions relative to the edge thickness.
const (
	arrowLengthRatio = 2.5
	arrowWidthRatio  = 2
	arrowMinLength   = 6
)

// Programs returns the default program sets: a disc for node type 0, a line
// for edge type 0 and an arrow for edge type 1.
func (s *Surface) Programs() (nodes, edges, hover map[int]program.Factory) {
	nodes = map[int]program.Factory{0: s.NodeCircle()}
	edges = map[int]program.Factory{0: s.EdgeLine(), 1: s.EdgeArrow()}
	hover = map[int]program.Factory{0: s.HoverCircle()}
	return nodes, edges, hover
}

// slots is the shared slot bookkeeping of the raster programs.
type slots struct {
	src program.Source
	ids []int
}

func (b *slots) Reallocate(capacity int) {
	if cap(b.ids) >= capacity {
		b.ids = b.ids[:capacity]
	} else {
		b.ids = make([]int, capacity)
	}
	for i := range b.ids {
		b.ids[i] = -1
	}
}

func (b *slots) Process(offset, id int) { b.ids[offset] = id }

// project maps framed-graph coordinates to device pixels.
func project(p program.Params, x, y float32) (float64, float64) {
	cx, cy := p.Matrix.Apply(float64(x), float64(y), 1)
	return (1 + cx) * p.Width / 2 * p.PixelRatio, (1 - cy) * p.Height / 2 * p.PixelRatio
}

// pixels converts an authored size to device pixels.
func pixels(p program.Params, size float32) float64 {
	if p.SizeRatio == 0 {
		return 0
	}
	return float64(size) / p.SizeRatio * p.PixelRatio
}

// =============================================================================
// Nodes
// =============================================================================

type nodeCircle struct {
	slots
	surface *Surface
	target  layer
	halo    bool
}

// NodeCircle draws nodes as filled discs on the node layer.
func (s *Surface) NodeCircle() program.Factory {
	return func(src program.Source) program.Program {
		return &nodeCircle{slots: slots{src: src}, surface: s, target: layerNodes}
	}
}

// HoverCircle draws hovered and highlighted nodes on the hover-node layer.
func (s *Surface) HoverCircle() program.Factory {
	return func(src program.Source) program.Program {
		return &nodeCircle{slots: slots{src: src}, surface: s, target: layerHoverNodes, halo: true}
	}
}

func (c *nodeCircle) Render(p program.Params) {
	dc := c.surface.layer(c.target)
	g, choices := c.src.Graph(), c.src.Choices()
	for _, id := range c.ids {
		if id < 0 || id >= g.NodeCount() || g.NodeHidden(id) {
			continue
		}
		x, y := project(p, g.Nodes.X[id], g.Nodes.Y[id])
		r := pixels(p, g.NodeSize(id))
		if c.halo {
			dc.SetRGB(1, 1, 1)
			dc.DrawCircle(x, y, r+2*p.PixelRatio)
			dc.Fill()
		}
		dc.SetColor(choices.RGBA(g.NodeColor(id)))
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}
}

// =============================================================================
// Edges
// =============================================================================

type edgeSegment struct {
	slots
	surface *Surface
	// head shortens the segment to leave room for an arrow head.
	head bool
}

type arrowHead struct {
	slots
	surface *Surface
}

// EdgeLine draws edges as straight lines.
func (s *Surface) EdgeLine() program.Factory {
	return func(src program.Source) program.Program {
		return &edgeSegment{slots: slots{src: src}, surface: s}
	}
}

// EdgeArrow draws edges as lines ending in a head at the target node.
func (s *Surface) EdgeArrow() program.Factory {
	body := func(src program.Source) program.Program {
		return &edgeSegment{slots: slots{src: src}, surface: s, head: true}
	}
	head := func(src program.Source) program.Program {
		return &arrowHead{slots: slots{src: src}, surface: s}
	}
	return program.NewCompound(body, head)
}

type edgeGeometry struct {
	x1, y1, x2, y2 float64
	thickness      float64
	targetRadius   float64
}

func geometry(g *graph.Graph, p program.Params, id int) (edgeGeometry, bool) {
	if id < 0 || id >= g.EdgeCount() || g.EdgeHidden(id) {
		return edgeGeometry{}, false
	}
	s, t := int(g.Edges.From[id]), int(g.Edges.To[id])
	if g.NodeHidden(s) || g.NodeHidden(t) {
		return edgeGeometry{}, false
	}
	var e edgeGeometry
	e.x1, e.y1 = project(p, g.Nodes.X[s], g.Nodes.Y[s])
	e.x2, e.y2 = project(p, g.Nodes.X[t], g.Nodes.Y[t])
	e.thickness = pixels(p, g.EdgeSize(id))
	e.targetRadius = pixels(p, g.NodeSize(t))
	return e, true
}

func headLength(thickness float64) float64 {
	return math.Max(thickness*arrowLengthRatio, arrowMinLength)
}

func (l *edgeSegment) Render(p program.Params) {
	dc := l.surface.layer(layerEdges)
	g, choices := l.src.Graph(), l.src.Choices()
	for _, id := range l.ids {
		e, ok := geometry(g, p, id)
		if !ok {
			continue
		}
		x2, y2 := e.x2, e.y2
		if l.head {
			dx, dy := e.x2-e.x1, e.y2-e.y1
			d := math.Hypot(dx, dy)
			if d == 0 {
				continue
			}
			back := e.targetRadius + headLength(e.thickness)
			x2, y2 = e.x2-dx/d*back, e.y2-dy/d*back
		}
		stroke(dc, e.x1, e.y1, x2, y2, e.thickness, choices, g.EdgeColor(id))
	}
}

func stroke(dc *gg.Context, x1, y1, x2, y2, width float64, choices *graph.ValueChoices, code int) {
	dc.SetColor(choices.RGBA(code))
	dc.SetLineWidth(width)
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()
}

func (a *arrowHead) Render(p program.Params) {
	dc := a.surface.layer(layerEdges)
	g, choices := a.src.Graph(), a.src.Choices()
	for _, id := range a.ids {
		e, ok := geometry(g, p, id)
		if !ok {
			continue
		}
		dx, dy := e.x2-e.x1, e.y2-e.y1
		d := math.Hypot(dx, dy)
		if d == 0 {
			continue
		}
		dx, dy = dx/d, dy/d
		tipX, tipY := e.x2-dx*e.targetRadius, e.y2-dy*e.targetRadius
		length := headLength(e.thickness)
		half := math.Max(e.thickness*arrowWidthRatio, length/2) / 2
		baseX, baseY := tipX-dx*length, tipY-dy*length

		dc.SetColor(choices.RGBA(g.EdgeColor(id)))
		dc.MoveTo(tipX, tipY)
		dc.LineTo(baseX-dy*half, baseY+dx*half)
		dc.LineTo(baseX+dy*half, baseY-dx*half)
		dc.ClosePath()
		dc.Fill()
	}
}
