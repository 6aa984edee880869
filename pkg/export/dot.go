package export

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stagegraph/pkg/renderer"
)

// pointsPerPixel converts viewport pixels (96 dpi) to Graphviz points.
const pointsPerPixel = 72.0 / 96.0

// ToDOT converts a snapshot to Graphviz DOT with every node pinned at its
// viewport position, so neato reproduces the scene instead of laying it out.
func ToDOT(snap renderer.Snapshot) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  node [shape=circle, style=filled, fixedsize=true, label=\"\", xlabel=\"\", penwidth=0];\n")
	buf.WriteString("\n")

	for _, n := range snap.Nodes {
		attrs := []string{
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", n.X*pointsPerPixel, (snap.Height-n.Y)*pointsPerPixel),
			fmt.Sprintf("width=%.3f", 2*n.Size/96),
			fmt.Sprintf("fillcolor=%q", dotColor(n.Hex)),
		}
		if n.Label != "" {
			attrs = append(attrs, fmt.Sprintf("xlabel=%q", n.Label))
		}
		fmt.Fprintf(&buf, "  n%d [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range snap.Edges {
		attrs := []string{
			fmt.Sprintf("color=%q", dotColor(e.Hex)),
			fmt.Sprintf("penwidth=%.2f", e.Thickness*pointsPerPixel),
		}
		if e.Type != 1 {
			attrs = append(attrs, "arrowhead=none")
		}
		if e.Label != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Label))
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// dotColor expands #RGB, which Graphviz does not accept.
func dotColor(hex string) string {
	if hex == "" {
		return "transparent"
	}
	if len(hex) == 4 && hex[0] == '#' {
		return string([]byte{'#', hex[1], hex[1], hex[2], hex[2], hex[3], hex[3]})
	}
	return hex
}

// RenderDOT renders a DOT graph with Graphviz in the given format. SVG output
// gets a normalized viewBox.
func RenderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if format == graphviz.SVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
