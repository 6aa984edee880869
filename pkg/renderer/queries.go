package renderer

import (
	"cmp"
	"image/color"
	"slices"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/settings"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// =============================================================================
// Coordinate conversions
// =============================================================================

// FramedGraphToViewport maps a framed-graph point to viewport pixels under
// the live camera unless opts override it.
func (r *Renderer) FramedGraphToViewport(p transform.Point, opts ...transform.Option) transform.Point {
	r.syncTransformer()
	return r.tr.FramedGraphToViewport(p, opts...)
}

// ViewportToFramedGraph maps viewport pixels to framed-graph space.
func (r *Renderer) ViewportToFramedGraph(p transform.Point, opts ...transform.Option) transform.Point {
	r.syncTransformer()
	return r.tr.ViewportToFramedGraph(p, opts...)
}

// GraphToViewport maps a graph point to viewport pixels, using the framing
// of the last refresh.
func (r *Renderer) GraphToViewport(p transform.Point, opts ...transform.Option) transform.Point {
	r.syncTransformer()
	return r.tr.GraphToViewport(p, opts...)
}

// ViewportToGraph maps viewport pixels to graph space.
func (r *Renderer) ViewportToGraph(p transform.Point, opts ...transform.Option) transform.Point {
	r.syncTransformer()
	return r.tr.ViewportToGraph(p, opts...)
}

// Dimensions returns the container size as of the last resize.
func (r *Renderer) Dimensions() transform.Dimensions {
	return transform.Dimensions{Width: r.width, Height: r.height}
}

// BBox returns the box the graph was framed against at the last refresh.
func (r *Renderer) BBox() graph.Extent { return r.last.BBox }

// Extent returns the node extent measured at the last refresh.
func (r *Renderer) Extent() graph.Extent { return r.last.Extent }

// ScaleSize converts an authored size to pixels at the current camera ratio.
func (r *Renderer) ScaleSize(size float64) float64 {
	return r.ScaleSizeAt(size, r.camera.Ratio())
}

// ScaleSizeAt converts an authored size to pixels at the given camera
// ratio. Sizes shrink with the zoom function; with item_sizes_reference set
// to positions they also follow the graph to viewport ratio.
func (r *Renderer) ScaleSizeAt(size, ratio float64) float64 {
	scaled := size / r.settings.ZoomToSizeRatio.Apply(ratio)
	if r.settings.ItemSizesReference == settings.SizesPositions {
		scaled *= ratio * r.ratio
	}
	return scaled
}

// ViewRectangle returns the framed-graph rectangle visible in the viewport.
func (r *Renderer) ViewRectangle() transform.Rectangle {
	r.syncTransformer()
	return r.tr.ViewRectangle()
}

// ViewportZoomedState returns the camera state that zooms to ratio while
// keeping the graph point under target fixed. The ratio is clamped to the
// camera bounds.
func (r *Renderer) ViewportZoomedState(target transform.Point, ratio float64) camera.State {
	r.syncTransformer()
	return r.tr.ZoomedState(target, r.camera.BoundedRatio(ratio))
}

// NodeAt returns the node under the viewport point p.
func (r *Renderer) NodeAt(p transform.Point) (int, bool) {
	r.syncTransformer()
	return r.picker.NodeAt(p)
}

// EdgeAt returns the edge under the viewport point (x, y).
func (r *Renderer) EdgeAt(x, y float64) (int, bool) {
	r.syncTransformer()
	return r.picker.EdgeAt(x, y)
}

// HoveredNode returns the node under the pointer.
func (r *Renderer) HoveredNode() (int, bool) { return r.hover.Node() }

// HoveredEdge returns the edge under the pointer.
func (r *Renderer) HoveredEdge() (int, bool) { return r.hover.Edge() }

// DisplayedLabels returns the ids of the node labels drawn by the last
// frame.
func (r *Renderer) DisplayedLabels() []int {
	out := make([]int, 0, len(r.displayedNodeLabels))
	for id := range r.displayedNodeLabels {
		out = append(out, id)
	}
	return out
}

// =============================================================================
// Snapshot
// =============================================================================

// SnapshotNode is a visible node in viewport pixels.
type SnapshotNode struct {
	ID     int        `json:"id"`
	X      float64    `json:"x"`
	Y      float64    `json:"y"`
	Size   float64    `json:"size"`
	Color  color.RGBA `json:"-"`
	Hex    string     `json:"color"`
	Label  string     `json:"label,omitempty"`
	Type   int        `json:"type"`
	Shown  bool       `json:"label_shown"`
	Zindex int        `json:"z"`
}

// SnapshotEdge is a visible edge in viewport pixels.
type SnapshotEdge struct {
	ID        int        `json:"id"`
	From      int        `json:"from"`
	To        int        `json:"to"`
	X1        float64    `json:"x1"`
	Y1        float64    `json:"y1"`
	X2        float64    `json:"x2"`
	Y2        float64    `json:"y2"`
	Thickness float64    `json:"thickness"`
	Color     color.RGBA `json:"-"`
	Hex       string     `json:"color"`
	Label     string     `json:"label,omitempty"`
	Type      int        `json:"type"`
	Zindex    int        `json:"z"`
}

// Snapshot is the visible scene in viewport pixels, the way exporters see
// it. Edges come first, then nodes, each in draw order.
type Snapshot struct {
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Camera     camera.State   `json:"camera"`
	LabelFont  string         `json:"label_font,omitempty"`
	LabelSize  float64        `json:"label_size"`
	LabelColor string         `json:"label_color"`
	Nodes      []SnapshotNode `json:"nodes"`
	Edges      []SnapshotEdge `json:"edges"`
}

// Snapshot captures the graph as it was at the last refresh, projected with
// the current camera.
func (r *Renderer) Snapshot() Snapshot {
	g := r.graph
	snap := Snapshot{
		Width:      r.width,
		Height:     r.height,
		Camera:     r.camera.State(),
		LabelFont:  r.settings.LabelFont,
		LabelSize:  r.settings.LabelSize,
		LabelColor: r.settings.LabelColor,
	}
	pos := make([]transform.Point, g.NodeCount())
	for i := range pos {
		pos[i] = r.FramedGraphToViewport(transform.Point{X: float64(g.Nodes.X[i]), Y: float64(g.Nodes.Y[i])})
	}

	for i := 0; i < g.EdgeCount(); i++ {
		s, t := int(g.Edges.From[i]), int(g.Edges.To[i])
		if g.EdgeHidden(i) || g.NodeHidden(s) || g.NodeHidden(t) {
			continue
		}
		code := g.EdgeColor(i)
		snap.Edges = append(snap.Edges, SnapshotEdge{
			ID:        i,
			From:      s,
			To:        t,
			X1:        pos[s].X,
			Y1:        pos[s].Y,
			X2:        pos[t].X,
			Y2:        pos[t].Y,
			Thickness: r.ScaleSize(float64(g.EdgeSize(i))),
			Color:     r.choices.RGBA(code),
			Hex:       r.choices.Color(code),
			Label:     r.choices.Label(int(g.Edges.Features[g.EdgeVisual().Label][i])),
			Type:      int(g.EdgeFlags(i).Type),
			Zindex:    int(g.Edges.Z[i]),
		})
	}
	for i := 0; i < g.NodeCount(); i++ {
		if g.NodeHidden(i) {
			continue
		}
		_, shown := r.displayedNodeLabels[i]
		code := g.NodeColor(i)
		snap.Nodes = append(snap.Nodes, SnapshotNode{
			ID:     i,
			X:      pos[i].X,
			Y:      pos[i].Y,
			Size:   r.ScaleSize(float64(g.NodeSize(i))),
			Color:  r.choices.RGBA(code),
			Hex:    r.choices.Color(code),
			Label:  r.choices.Label(g.NodeLabel(i)),
			Type:   int(g.NodeFlags(i).Type),
			Shown:  shown,
			Zindex: int(g.Nodes.Z[i]),
		})
	}
	if r.settings.ZIndex {
		slices.SortStableFunc(snap.Edges, func(a, b SnapshotEdge) int { return cmp.Compare(a.Zindex, b.Zindex) })
		slices.SortStableFunc(snap.Nodes, func(a, b SnapshotNode) int { return cmp.Compare(a.Zindex, b.Zindex) })
	}
	return snap
}
