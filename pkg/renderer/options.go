package renderer

import (
	"image/color"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/frame"
	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/pick"
	"github.com/matzehuels/stagegraph/pkg/program"
	"github.com/matzehuels/stagegraph/pkg/schedule"
	"github.com/matzehuels/stagegraph/pkg/settings"
)

// Container is the drawing surface the renderer is mounted on.
type Container interface {
	// Size returns the container size in CSS-like pixels.
	Size() (width, height float64)
	// PixelRatio returns the number of device pixels per container pixel.
	PixelRatio() float64
}

// FixedContainer is a Container of constant size.
type FixedContainer struct {
	Width, Height float64
	Ratio         float64
}

func (c FixedContainer) Size() (float64, float64) { return c.Width, c.Height }

func (c FixedContainer) PixelRatio() float64 {
	if c.Ratio <= 0 {
		return 1
	}
	return c.Ratio
}

// Index is the spatial index the renderer writes on refresh and reads when
// picking nodes.
type Index interface {
	frame.Index
	pick.Candidates
}

// LabelGrid is the label placement grid.
type LabelGrid interface {
	frame.LabelGrid
	LabelsToDisplay(ratio, density float64) []int
}

// Label is a node label to draw, in viewport pixels.
type Label struct {
	ID   int
	Text string
	// X and Y locate the node centre, NodeSize is its rendered radius.
	X, Y     float64
	NodeSize float64
	Font     string
	Size     float64
	Color    color.RGBA
}

// EdgeLabel is an edge label to draw, in viewport pixels.
type EdgeLabel struct {
	ID             int
	Text           string
	X1, Y1, X2, Y2 float64
	Thickness      float64
	Font           string
	Size           float64
	Color          color.RGBA
}

// Layers are the non-program drawing layers: node labels, edge labels and
// the hover layer. Programs draw on their own.
type Layers interface {
	Resize(width, height int, pixelRatio float64)
	// Clear wipes every layer before a frame.
	Clear()
	// ClearHover wipes the hover layer and the hovered-node batches.
	ClearHover()
	DrawLabel(l Label)
	DrawEdgeLabel(l EdgeLabel)
	DrawHoverLabel(l Label)
}

type nopLayers struct{}

func (nopLayers) Resize(int, int, float64) {}
func (nopLayers) Clear()                   {}
func (nopLayers) ClearHover()              {}
func (nopLayers) DrawLabel(Label)          {}
func (nopLayers) DrawEdgeLabel(EdgeLabel)  {}
func (nopLayers) DrawHoverLabel(Label)     {}

// Options configures a renderer. The zero value renders headlessly with the
// default settings.
type Options struct {
	// Settings replaces the defaults. Overrides are applied on top by key.
	Settings  *settings.Settings
	Overrides map[string]any

	// Choices decodes the label and color columns. Nil selects the default
	// tables.
	Choices *graph.ValueChoices

	// ApplyDefaultVisuals overwrites color, size, flags and z with the
	// configured defaults on the first refresh.
	ApplyDefaultVisuals bool

	// NodePrograms and EdgePrograms map a type code to its program. Nil maps
	// register program.Discard for type 0.
	NodePrograms  map[int]program.Factory
	EdgePrograms  map[int]program.Factory
	HoverPrograms map[int]program.Factory

	Index     Index
	LabelGrid LabelGrid
	Frames    schedule.FrameRequester
	Layers    Layers
	EdgeLayer pick.EdgeLayer

	Logger *log.Logger
	Hooks  observability.RenderHooks
}

func (o Options) withDefaults() Options {
	if o.Choices == nil {
		o.Choices = graph.DefaultValueChoices()
	}
	if o.NodePrograms == nil {
		o.NodePrograms = map[int]program.Factory{0: program.Discard}
	}
	if o.EdgePrograms == nil {
		o.EdgePrograms = map[int]program.Factory{0: program.Discard}
	}
	if o.Frames == nil {
		o.Frames = schedule.NewTicker()
	}
	if o.Layers == nil {
		o.Layers = nopLayers{}
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Hooks == nil {
		o.Hooks = observability.Render()
	}
	return o
}
