// Package pipeline runs the load → layout → render pipeline shared by the CLI
// and the preview server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a verbose JSON graph into a [Scene]
//  2. Layout: position the nodes (circular, noise, forceatlas2)
//  3. Render: draw one frame and export it (PNG, SVG, JSON, DOT, PDF)
//
// Layouts and artifacts are cached by content hash through a [cache.Cache],
// so re-rendering an unchanged graph with unchanged options skips the
// layout entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "graph.json",
//	    Formats: []string{"png", "svg"},
//	})
//	if err != nil {
//	    return err
//	}
//	png := result.Artifacts["png"]
//
// Run individual stages:
//
//	scene, err := pipeline.Load(opts.Input, opts.IO)
//	hit, err := runner.LayoutWithCacheInfo(ctx, scene, opts)
//	artifacts, err := runner.Render(ctx, scene, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/errors"
	pkgio "github.com/matzehuels/stagegraph/pkg/io"
	"github.com/matzehuels/stagegraph/pkg/layout/circular"
	"github.com/matzehuels/stagegraph/pkg/layout/forceatlas2"
	"github.com/matzehuels/stagegraph/pkg/layout/noise"
	"github.com/matzehuels/stagegraph/pkg/settings"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth is the default frame width in pixels.
	DefaultWidth = 800

	// DefaultHeight is the default frame height in pixels.
	DefaultHeight = 600

	// DefaultIterations is the default number of force-directed iterations.
	DefaultIterations = 100

	// DefaultBatch is the number of iterations between two layout hook
	// reports.
	DefaultBatch = 10
)

// Layout algorithms.
const (
	AlgorithmNone        = "none"
	AlgorithmCircular    = "circular"
	AlgorithmNoise       = "noise"
	AlgorithmForceAtlas2 = forceatlas2.Algorithm
)

// DefaultAlgorithm is the default layout algorithm.
const DefaultAlgorithm = AlgorithmForceAtlas2

// Format constants for output formats.
const (
	FormatPNG       = "png"
	FormatSVG       = "svg"
	FormatPDF       = "pdf"
	FormatJSON      = "json"
	FormatDOT       = "dot"
	FormatPositions = "positions"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:       true,
	FormatSVG:       true,
	FormatPDF:       true,
	FormatJSON:      true,
	FormatDOT:       true,
	FormatPositions: true,
}

// ValidAlgorithms is the set of supported layout algorithms.
var ValidAlgorithms = map[string]bool{
	AlgorithmNone:        true,
	AlgorithmCircular:    true,
	AlgorithmNoise:       true,
	AlgorithmForceAtlas2: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Layout configures the layout stage. It decodes from the [layout] table
// of a config file.
type Layout struct {
	Algorithm string `toml:"algorithm" json:"algorithm"`
	// Init runs before Algorithm to seed positions: "", circular or noise.
	Init       string `toml:"init" json:"init,omitempty"`
	Iterations int    `toml:"iterations" json:"iterations,omitempty"`

	Circular    circular.Options     `toml:"circular" json:"circular"`
	Noise       noise.Options        `toml:"noise" json:"noise"`
	ForceAtlas2 forceatlas2.Settings `toml:"forceatlas2" json:"forceatlas2"`
}

// DefaultLayout returns a forceatlas2 layout seeded with a circular one.
// It runs in LinLogMode, which keeps coordinates bounded for any iteration
// count.
func DefaultLayout() Layout {
	fa := forceatlas2.DefaultSettings()
	fa.LinLogMode = true
	return Layout{
		Algorithm:   DefaultAlgorithm,
		Init:        AlgorithmCircular,
		Iterations:  DefaultIterations,
		Circular:    circular.DefaultOptions(),
		Noise:       noise.DefaultOptions(),
		ForceAtlas2: fa,
	}
}

// Options contains all configuration for the pipeline.
type Options struct {
	// Load options
	Input string        `json:"input,omitempty"`
	IO    pkgio.Options `json:"-"`

	// Layout options
	Layout  Layout `json:"layout"`
	Refresh bool   `json:"refresh,omitempty"`

	// Render options
	Formats    []string           `json:"formats,omitempty"`
	Width      int                `json:"width,omitempty"`
	Height     int                `json:"height,omitempty"`
	PixelRatio float64            `json:"pixel_ratio,omitempty"`
	Settings   *settings.Settings `json:"settings,omitempty"`
	Overrides  map[string]any     `json:"overrides,omitempty"`
	Camera     *camera.State      `json:"camera,omitempty"`
	AllLabels  bool               `json:"all_labels,omitempty"`
	Background string             `json:"background,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Scene *Scene

	// GraphHash is the content hash of the loaded graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool // every artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid format: %q (must be one of: png, svg, pdf, json, dot, positions)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAlgorithm checks that a layout algorithm is valid.
func ValidateAlgorithm(algorithm string) error {
	if !ValidAlgorithms[algorithm] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid algorithm: %q (must be one of: none, circular, noise, forceatlas2)", algorithm)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every stage and applies defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input is required")
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults fills the zero fields of the layout options.
func (o *Options) SetLayoutDefaults() {
	def := DefaultLayout()
	if o.Layout.Algorithm == "" {
		o.Layout.Algorithm = def.Algorithm
		if o.Layout.Init == "" {
			o.Layout.Init = def.Init
		}
	}
	if o.Layout.Iterations == 0 {
		o.Layout.Iterations = def.Iterations
	}
	if o.Layout.Circular == (circular.Options{}) {
		o.Layout.Circular = def.Circular
	}
	if o.Layout.Noise == (noise.Options{}) {
		o.Layout.Noise = def.Noise
	}
	if o.Layout.ForceAtlas2 == (forceatlas2.Settings{}) {
		o.Layout.ForceAtlas2 = def.ForceAtlas2
	}
	if o.IO.EdgeFromField == "" && o.IO.EdgeToField == "" {
		o.IO = pkgio.DefaultOptions()
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for the layout stage.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := ValidateAlgorithm(o.Layout.Algorithm); err != nil {
		return err
	}
	switch o.Layout.Init {
	case "", AlgorithmCircular, AlgorithmNoise:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid init: %q (must be circular or noise)", o.Layout.Init)
	}
	if o.Layout.Iterations < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "iterations must be non-negative, got %d", o.Layout.Iterations)
	}
	if o.Layout.Algorithm == AlgorithmForceAtlas2 {
		return o.Layout.ForceAtlas2.Validate()
	}
	return nil
}

// SetRenderDefaults fills the zero fields of the render options.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.PixelRatio == 0 {
		o.PixelRatio = 1
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for the render stage.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "frame size must be positive, got %dx%d", o.Width, o.Height)
	}
	if err := errors.ValidatePositive("pixel_ratio", o.PixelRatio); err != nil {
		return err
	}
	if o.Settings != nil {
		return o.Settings.Validate()
	}
	return nil
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutKeyOpts returns cache key options for the layout stage.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	k := cache.LayoutKeyOpts{
		Algorithm:  o.Layout.Algorithm,
		Iterations: o.Layout.Iterations,
	}
	switch o.Layout.Algorithm {
	case AlgorithmForceAtlas2:
		k.Settings = o.Layout.ForceAtlas2
	case AlgorithmCircular:
		k.Settings = o.Layout.Circular
	case AlgorithmNoise:
		k.Settings = o.Layout.Noise
	}
	if o.Layout.Init != "" {
		k.Algorithm = fmt.Sprintf("%s+%s", o.Layout.Init, o.Layout.Algorithm)
		k.Seed = o.Layout.Noise.Seed
		k.Scale = o.Layout.Circular.Scale
	}
	return k
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Width:      o.Width,
		Height:     o.Height,
		PixelRatio: o.PixelRatio,
		Camera:     o.Camera,
		Settings: struct {
			Settings   *settings.Settings `json:"settings,omitempty"`
			Overrides  map[string]any     `json:"overrides,omitempty"`
			AllLabels  bool               `json:"all_labels,omitempty"`
			Background string             `json:"background,omitempty"`
		}{o.Settings, o.Overrides, o.AllLabels, o.Background},
	}
}
