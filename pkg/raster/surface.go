// Package raster is a software drawing backend for the renderer.
//
// A [Surface] keeps one github.com/fogleman/gg context per layer, sized in
// device pixels:
//
//	edges, nodes, edge labels, labels, hover nodes, hover
//
// It implements renderer.Layers for the label and hover layers, provides
// draw programs for nodes and edges, and answers edge-layer pixel probes for
// edge picking. [Surface.Image] flattens the layers in that order.
package raster

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/stagegraph/pkg/fonts"
	"github.com/matzehuels/stagegraph/pkg/renderer"
)

type layer int

const (
	layerEdges layer = iota
	layerNodes
	layerEdgeLabels
	layerLabels
	layerHoverNodes
	layerHover
	layerCount
)

// Surface is a stack of raster layers.
type Surface struct {
	// Background fills the flattened image. Nil leaves it transparent.
	Background color.Color
	// Fonts resolves label faces. Nil uses the bitmap face only.
	Fonts *fonts.Cache

	width, height int
	pixelRatio    float64
	layers        [layerCount]*gg.Context
}

// NewSurface returns a surface of width x height device pixels.
func NewSurface(width, height int, pixelRatio float64) *Surface {
	s := &Surface{Background: color.White}
	s.Resize(width, height, pixelRatio)
	return s
}

// Resize reallocates every layer. Layer contents are lost.
func (s *Surface) Resize(width, height int, pixelRatio float64) {
	width, height = max(width, 1), max(height, 1)
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	s.width, s.height, s.pixelRatio = width, height, pixelRatio
	for i := range s.layers {
		s.layers[i] = gg.NewContext(width, height)
	}
}

// Size returns the surface size in device pixels.
func (s *Surface) Size() (width, height int) { return s.width, s.height }

func (s *Surface) layer(l layer) *gg.Context { return s.layers[l] }

func wipe(dc *gg.Context) {
	dc.SetRGBA(0, 0, 0, 0)
	dc.Clear()
}

// Clear wipes every layer.
func (s *Surface) Clear() {
	for _, dc := range s.layers {
		wipe(dc)
	}
}

// ClearHover wipes the hover and hover-node layers.
func (s *Surface) ClearHover() {
	wipe(s.layers[layerHover])
	wipe(s.layers[layerHoverNodes])
}

// ColoredAt reports whether the edge layer has a non-transparent pixel at
// device coordinates (x, y).
func (s *Surface) ColoredAt(x, y int) bool {
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return false
	}
	_, _, _, a := s.layers[layerEdges].Image().At(x, y).RGBA()
	return a != 0
}

// Image flattens the layers over the background.
func (s *Surface) Image() image.Image {
	dc := gg.NewContext(s.width, s.height)
	if s.Background != nil {
		dc.SetColor(s.Background)
		dc.Clear()
	}
	for _, l := range s.layers {
		dc.DrawImage(l.Image(), 0, 0)
	}
	return dc.Image()
}

// EncodePNG writes the flattened image as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	return png.Encode(w, s.Image())
}

// SavePNG writes the flattened image to path.
func (s *Surface) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.EncodePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// =============================================================================
// Labels
// =============================================================================

func (s *Surface) face(dc *gg.Context, path string, size float64) {
	if s.Fonts == nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	f, _ := s.Fonts.Face(path, size*s.pixelRatio)
	dc.SetFontFace(f)
}

// DrawLabel draws a node label right of its node.
func (s *Surface) DrawLabel(l renderer.Label) {
	dc := s.layer(layerLabels)
	s.drawNodeLabel(dc, l)
}

func (s *Surface) drawNodeLabel(dc *gg.Context, l renderer.Label) {
	if l.Text == "" {
		return
	}
	pr := s.pixelRatio
	s.face(dc, l.Font, l.Size)
	dc.SetColor(l.Color)
	dc.DrawString(l.Text, (l.X+l.NodeSize+3)*pr, (l.Y+l.Size/3)*pr)
}

// DrawHoverLabel draws the node on a white halo with its label in a box.
func (s *Surface) DrawHoverLabel(l renderer.Label) {
	dc := s.layer(layerHover)
	pr := s.pixelRatio
	x, y, r := l.X*pr, l.Y*pr, l.NodeSize*pr
	pad := 2 * pr

	dc.SetRGBA(0, 0, 0, 0.25)
	dc.DrawCircle(x+pr, y+pr, r+pad)
	dc.Fill()
	dc.SetColor(color.White)
	dc.DrawCircle(x, y, r+pad)
	dc.Fill()

	if l.Text != "" {
		s.face(dc, l.Font, l.Size)
		w, _ := dc.MeasureString(l.Text)
		h := math.Max(l.Size*pr, 2*r) + 2*pad
		dc.DrawRoundedRectangle(x, y-h/2, r+3*pr+w+5*pr, h, 2*pr)
		dc.Fill()
	}
	s.drawNodeLabel(dc, l)
}

// DrawEdgeLabel draws an edge label centred on the edge, along its
// direction.
func (s *Surface) DrawEdgeLabel(l renderer.EdgeLabel) {
	if l.Text == "" {
		return
	}
	dc := s.layer(layerEdgeLabels)
	pr := s.pixelRatio
	x1, y1, x2, y2 := l.X1*pr, l.Y1*pr, l.X2*pr, l.Y2*pr
	angle := math.Atan2(y2-y1, x2-x1)
	if angle > math.Pi/2 || angle < -math.Pi/2 {
		angle += math.Pi
	}
	cx, cy := (x1+x2)/2, (y1+y2)/2

	s.face(dc, l.Font, l.Size)
	dc.Push()
	dc.RotateAbout(angle, cx, cy)
	dc.SetColor(l.Color)
	dc.DrawStringAnchored(l.Text, cx, cy-l.Thickness*pr/2-pr, 0.5, 0)
	dc.Pop()
}
