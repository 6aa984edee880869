package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/export"
	"github.com/matzehuels/stagegraph/pkg/raster"
	"github.com/matzehuels/stagegraph/pkg/renderer"
	"github.com/matzehuels/stagegraph/pkg/schedule"
)

// NewRenderer mounts a renderer for scene on a raster surface of the
// configured size. Frames nil uses a fresh ticker, which suits one-shot
// rendering: New draws the first frame synchronously.
func NewRenderer(scene *Scene, opts Options, frames schedule.FrameRequester) (*renderer.Renderer, *raster.Surface, error) {
	opts.SetRenderDefaults()
	return Mount(scene, renderer.FixedContainer{
		Width:  float64(opts.Width),
		Height: float64(opts.Height),
		Ratio:  opts.PixelRatio,
	}, opts, frames)
}

// Mount is [NewRenderer] on a caller-provided container. The renderer
// resizes the surface to the container on every refresh.
func Mount(scene *Scene, container renderer.Container, opts Options, frames schedule.FrameRequester) (*renderer.Renderer, *raster.Surface, error) {
	opts.SetRenderDefaults()
	w, h := container.Size()
	surface := raster.NewSurface(int(w), int(h), container.PixelRatio())
	if opts.Background != "" {
		c, err := colorful.Hex(opts.Background)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "background %q", opts.Background)
		}
		surface.Background = c
	}
	if frames == nil {
		frames = schedule.NewTicker()
	}

	nodes, edges, hover := surface.Programs()
	r, err := renderer.New(scene.Graph, container, renderer.Options{
		Settings:      opts.Settings,
		Overrides:     opts.Overrides,
		Choices:       scene.Choices,
		NodePrograms:  nodes,
		EdgePrograms:  edges,
		HoverPrograms: hover,
		Frames:        frames,
		Layers:        surface,
		EdgeLayer:     surface,
		Logger:        opts.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	if opts.Camera != nil {
		r.Camera().SetState(*opts.Camera)
		if err := r.Render(); err != nil {
			r.Kill()
			return nil, nil, err
		}
	}
	return r, surface, nil
}

// Render draws one frame of scene and encodes it in every requested format.
func Render(ctx context.Context, scene *Scene, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}
	r, surface, err := NewRenderer(scene, opts, nil)
	if err != nil {
		return nil, err
	}
	defer r.Kill()
	return Encode(ctx, r, surface, scene, opts)
}

// Encode exports the current frame of r in opts.Formats.
func Encode(ctx context.Context, r *renderer.Renderer, surface *raster.Surface, scene *Scene, opts Options) (map[string][]byte, error) {
	snap := r.Snapshot()
	artifacts := make(map[string][]byte, len(opts.Formats))

	var svgData []byte
	svgOnce := func() ([]byte, error) {
		if svgData != nil {
			return svgData, nil
		}
		var buf bytes.Buffer
		background := opts.Background
		if background == "" {
			background = "#FFFFFF"
		}
		svgOpts := []export.SVGOption{export.WithBackground(background)}
		if opts.AllLabels {
			svgOpts = append(svgOpts, export.WithAllLabels())
		}
		if err := export.WriteSVG(&buf, snap, svgOpts...); err != nil {
			return nil, err
		}
		svgData = buf.Bytes()
		return svgData, nil
	}

	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var data []byte
		var err error

		switch format {
		case FormatPNG:
			var buf bytes.Buffer
			err = surface.EncodePNG(&buf)
			data = buf.Bytes()
		case FormatSVG:
			data, err = svgOnce()
		case FormatPDF:
			var svg []byte
			if svg, err = svgOnce(); err == nil {
				data, err = export.ToPDF(svg)
			}
		case FormatJSON:
			var buf bytes.Buffer
			err = export.WriteJSON(&buf, snap)
			data = buf.Bytes()
		case FormatDOT:
			data = []byte(export.ToDOT(snap))
		case FormatPositions:
			data, err = scene.Positions()
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
