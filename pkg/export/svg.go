package export

import (
	"bytes"
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/stagegraph/pkg/fonts"
	"github.com/matzehuels/stagegraph/pkg/renderer"
)

// SVGOption configures [WriteSVG].
type SVGOption func(*svgWriter)

type svgWriter struct {
	background string
	allLabels  bool
	arrowType  int
}

// WithBackground fills the canvas with a CSS color. Empty leaves it
// transparent.
func WithBackground(c string) SVGOption { return func(w *svgWriter) { w.background = c } }

// WithAllLabels writes every node label, not only the ones the renderer
// displayed.
func WithAllLabels() SVGOption { return func(w *svgWriter) { w.allLabels = true } }

// WithArrowType sets the edge type drawn with an arrow head. The default
// is 1.
func WithArrowType(t int) SVGOption { return func(w *svgWriter) { w.arrowType = t } }

// WriteSVG writes snap as an SVG document.
func WriteSVG(w io.Writer, snap renderer.Snapshot, opts ...SVGOption) error {
	sw := svgWriter{background: "white", arrowType: 1}
	for _, opt := range opts {
		opt(&sw)
	}

	var buf bytes.Buffer
	width, height := px(snap.Width), px(snap.Height)
	canvas := svg.New(&buf)
	canvas.Start(width, height)
	if sw.background != "" {
		canvas.Rect(0, 0, width, height, "fill:"+sw.background)
	}

	canvas.Gid("edges")
	for _, e := range snap.Edges {
		sw.edge(canvas, e, snap)
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range snap.Nodes {
		canvas.Circle(px(n.X), px(n.Y), max(px(n.Size), 1), "fill:"+fill(n.Hex))
	}
	canvas.Gend()

	family := snap.LabelFont
	if family == "" {
		family = fonts.FallbackFontFamily
	}
	canvas.Group(fmt.Sprintf("font-family:%s;font-size:%.0fpx;fill:%s", family, snap.LabelSize, fill(snap.LabelColor)))
	for _, n := range snap.Nodes {
		if n.Label == "" || !(n.Shown || sw.allLabels) {
			continue
		}
		canvas.Text(px(n.X+n.Size+3), px(n.Y+snap.LabelSize/3), n.Label)
	}
	canvas.Gend()

	canvas.End()
	_, err := w.Write(buf.Bytes())
	return err
}

func (sw svgWriter) edge(canvas *svg.SVG, e renderer.SnapshotEdge, snap renderer.Snapshot) {
	style := fmt.Sprintf("stroke:%s;stroke-width:%.2f", fill(e.Hex), math.Max(e.Thickness, 1))
	if e.Type != sw.arrowType {
		canvas.Line(px(e.X1), px(e.Y1), px(e.X2), px(e.Y2), style)
		return
	}

	dx, dy := e.X2-e.X1, e.Y2-e.Y1
	d := math.Hypot(dx, dy)
	if d == 0 {
		return
	}
	dx, dy = dx/d, dy/d
	target := nodeSize(snap, e.To)
	length := math.Max(e.Thickness*2.5, 6)
	half := math.Max(e.Thickness*2, length/2) / 2
	tipX, tipY := e.X2-dx*target, e.Y2-dy*target
	baseX, baseY := tipX-dx*length, tipY-dy*length

	canvas.Line(px(e.X1), px(e.Y1), px(baseX), px(baseY), style)
	canvas.Polygon(
		[]int{px(tipX), px(baseX - dy*half), px(baseX + dy*half)},
		[]int{px(tipY), px(baseY + dx*half), px(baseY - dx*half)},
		"fill:"+fill(e.Hex),
	)
}

func nodeSize(snap renderer.Snapshot, id int) float64 {
	for _, n := range snap.Nodes {
		if n.ID == id {
			return n.Size
		}
	}
	return 0
}

func px(v float64) int { return int(math.Round(v)) }

func fill(hex string) string {
	if hex == "" {
		return "none"
	}
	return hex
}
