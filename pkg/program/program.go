// Package program defines the draw-batch contract between the renderer and
// its drawing backends.
//
// Each node or edge type is drawn by one [Program]. Every full refresh the
// renderer calls Reallocate with the exact number of entities of that type,
// then Process once per entity with contiguous slot offsets starting at 0.
// Render draws every reallocated slot with the shared [Params] of the frame
// and may be called many times between refreshes.
//
// Programs are built per renderer from a [Factory], which receives a
// [Source] to read graph columns from. This keeps backends free of any
// dependency on the renderer package.
package program

import (
	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// Params are the per-frame values shared by every program.
type Params struct {
	Matrix          transform.Matrix
	Width           float64
	Height          float64
	PixelRatio      float64
	ZoomRatio       float64
	SizeRatio       float64
	CorrectionRatio float64
}

// Program is one draw batch.
type Program interface {
	// Reallocate sizes the batch for capacity entities and forgets previous
	// slots. It is called before any Process of a refresh.
	Reallocate(capacity int)
	// Process writes entity id into slot offset.
	Process(offset, id int)
	// Render draws every slot.
	Render(p Params)
}

// Source gives programs read access to the renderer's data.
type Source interface {
	Graph() *graph.Graph
	Choices() *graph.ValueChoices
}

// Factory builds a program bound to a source.
type Factory func(src Source) Program

// Compound draws several programs as one, in order.
type Compound []Program

// NewCompound returns a factory combining the given factories.
func NewCompound(factories ...Factory) Factory {
	return func(src Source) Program {
		c := make(Compound, len(factories))
		for i, f := range factories {
			c[i] = f(src)
		}
		return c
	}
}

func (c Compound) Reallocate(capacity int) {
	for _, p := range c {
		p.Reallocate(capacity)
	}
}

func (c Compound) Process(offset, id int) {
	for _, p := range c {
		p.Process(offset, id)
	}
}

func (c Compound) Render(params Params) {
	for _, p := range c {
		p.Render(params)
	}
}

type discard struct{}

func (discard) Reallocate(int)   {}
func (discard) Process(int, int) {}
func (discard) Render(Params)    {}

// Discard is a factory for programs that draw nothing.
func Discard(Source) Program { return discard{} }
