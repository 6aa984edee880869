package renderer

import (
	"image/color"

	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/program"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// Labels further than these margins outside the viewport are culled.
const (
	labelMarginX = 150
	labelMarginY = 50
)

func (r *Renderer) renderLabels() {
	clear(r.displayedNodeLabels)
	if !r.settings.RenderLabels {
		return
	}
	g := r.graph
	candidates := r.labelGrid.LabelsToDisplay(r.camera.Ratio(), r.settings.LabelDensity)
	candidates = append(candidates, r.last.ForcedNodeLabels...)
	labelColor := r.labelColor(r.settings.LabelColor)

	for _, id := range candidates {
		if id >= g.NodeCount() {
			continue
		}
		if _, done := r.displayedNodeLabels[id]; done {
			continue
		}
		flags := g.NodeFlags(id)
		if flags.Hidden {
			continue
		}
		size := r.ScaleSize(float64(g.NodeSize(id)))
		if !flags.ForceLabel && size < r.settings.LabelRenderedSizeThreshold {
			continue
		}
		pos := r.FramedGraphToViewport(transform.Point{X: float64(g.Nodes.X[id]), Y: float64(g.Nodes.Y[id])})
		if pos.X < -labelMarginX || pos.X > r.width+labelMarginX ||
			pos.Y < -labelMarginY || pos.Y > r.height+labelMarginY {
			continue
		}
		r.displayedNodeLabels[id] = struct{}{}
		if text := r.choices.Label(g.NodeLabel(id)); text != "" {
			r.layers.DrawLabel(r.nodeLabel(id, text, pos, size, labelColor))
		}
	}
}

// renderEdgeLabels draws the labels of edges whose two extremities have a
// displayed label, plus forced edge labels.
func (r *Renderer) renderEdgeLabels() {
	clear(r.displayedEdgeLabels)
	if !r.settings.RenderEdgeLabels {
		return
	}
	g := r.graph
	ev := g.EdgeVisual()
	edgeColor := r.labelColor(r.settings.EdgeLabelColor)

	draw := func(id int) {
		if _, done := r.displayedEdgeLabels[id]; done || g.EdgeHidden(id) {
			return
		}
		r.displayedEdgeLabels[id] = struct{}{}
		text := r.choices.Label(int(g.Edges.Features[ev.Label][id]))
		if text == "" {
			return
		}
		s, t := g.Edges.From[id], g.Edges.To[id]
		p1 := r.FramedGraphToViewport(transform.Point{X: float64(g.Nodes.X[s]), Y: float64(g.Nodes.Y[s])})
		p2 := r.FramedGraphToViewport(transform.Point{X: float64(g.Nodes.X[t]), Y: float64(g.Nodes.Y[t])})
		r.layers.DrawEdgeLabel(EdgeLabel{
			ID:        id,
			Text:      text,
			X1:        p1.X,
			Y1:        p1.Y,
			X2:        p2.X,
			Y2:        p2.Y,
			Thickness: r.ScaleSize(float64(g.EdgeSize(id))),
			Font:      r.settings.LabelFont,
			Size:      r.settings.EdgeLabelSize,
			Color:     edgeColor,
		})
	}

	for i := 0; i < g.EdgeCount(); i++ {
		_, s := r.displayedNodeLabels[int(g.Edges.From[i])]
		_, t := r.displayedNodeLabels[int(g.Edges.To[i])]
		if s && t {
			draw(i)
		}
	}
	for _, id := range r.last.ForcedEdgeLabels {
		draw(id)
	}
}

// renderHighlightedNodes redraws the hovered node and the highlighted nodes
// on the hover layer, with their labels regardless of size.
func (r *Renderer) renderHighlightedNodes() {
	r.layers.ClearHover()
	g := r.graph
	if g.NodeCount() == 0 {
		return
	}

	var nodes []int
	hovered, ok := r.hover.Node()
	if ok && hovered < g.NodeCount() && !g.NodeHidden(hovered) {
		nodes = append(nodes, hovered)
	}
	for _, id := range r.last.Highlighted {
		if (!ok || id != hovered) && id < g.NodeCount() {
			nodes = append(nodes, id)
		}
	}
	if len(nodes) == 0 {
		return
	}

	labelColor := r.labelColor(r.settings.LabelColor)
	counts := map[int]int{}
	for _, id := range nodes {
		size := r.ScaleSize(float64(g.NodeSize(id)))
		pos := r.FramedGraphToViewport(transform.Point{X: float64(g.Nodes.X[id]), Y: float64(g.Nodes.Y[id])})
		text := r.choices.Label(g.NodeLabel(id))
		r.layers.DrawHoverLabel(r.nodeLabel(id, text, pos, size, labelColor))
		counts[int(g.NodeFlags(id).Type)]++
	}

	if len(r.hoverPrograms) == 0 {
		return
	}
	offsets := map[int]int{}
	for t, p := range r.hoverPrograms {
		p.Reallocate(counts[t])
	}
	for _, id := range nodes {
		t := int(g.NodeFlags(id).Type)
		p, ok := r.hoverPrograms[t]
		if !ok {
			continue
		}
		p.Process(offsets[t], id)
		offsets[t]++
	}
	params := r.params
	if params == (program.Params{}) {
		return
	}
	for _, t := range sortedTypes(r.hoverPrograms) {
		r.hoverPrograms[t].Render(params)
	}
}

func (r *Renderer) nodeLabel(id int, text string, pos transform.Point, size float64, c color.RGBA) Label {
	return Label{
		ID:       id,
		Text:     text,
		X:        pos.X,
		Y:        pos.Y,
		NodeSize: size,
		Font:     r.settings.LabelFont,
		Size:     r.settings.LabelSize,
		Color:    c,
	}
}

func (r *Renderer) labelColor(s string) color.RGBA {
	c, err := graph.ParseColor(s)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return c
}
