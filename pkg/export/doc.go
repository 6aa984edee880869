// Package export writes renderer snapshots to files.
//
// # Formats
//
// A [renderer.Snapshot] is the visible scene in viewport pixels. It can be
// written as:
//
//   - SVG, drawn with github.com/ajstarks/svgo ([WriteSVG])
//   - Graphviz DOT with pinned positions ([ToDOT]), rendered to SVG or PNG
//     through github.com/goccy/go-graphviz ([RenderDOT])
//   - JSON ([WriteJSON])
//   - PDF, converted from SVG by rsvg-convert ([ToPDF])
//
// Raster PNG output of the live scene is provided by the raster package.
//
//	snap := r.Snapshot()
//	var buf bytes.Buffer
//	if err := export.WriteSVG(&buf, snap); err != nil {
//		return err
//	}
//	pdf, err := export.ToPDF(buf.Bytes())
package export
