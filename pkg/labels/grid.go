// Package labels implements the cell-based label placement grid.
//
// Candidates are bucketed by viewport position under the default camera. Each
// cell keeps its candidates ordered by decreasing node size, and the number of
// labels shown per cell grows as the camera zooms in.
package labels

import (
	"cmp"
	"math"
	"slices"
)

type candidate struct {
	id   int
	size float64
}

// Grid is a label placement grid. Add all candidates, then call Organize
// once before querying.
type Grid struct {
	cellSize float64
	columns  int
	rows     int
	cells    [][]candidate
}

// New returns an empty grid. Call ResizeAndClear before use.
func New() *Grid {
	return &Grid{}
}

// ResizeAndClear sets the grid dimensions and drops every candidate.
func (g *Grid) ResizeAndClear(width, height, cellSize float64) {
	if cellSize <= 0 {
		cellSize = 1
	}
	g.cellSize = cellSize
	g.columns = int(math.Ceil(width / cellSize))
	g.rows = int(math.Ceil(height / cellSize))
	if g.columns < 0 {
		g.columns = 0
	}
	if g.rows < 0 {
		g.rows = 0
	}
	n := g.columns * g.rows
	if cap(g.cells) >= n {
		g.cells = g.cells[:n]
		for i := range g.cells {
			g.cells[i] = g.cells[i][:0]
		}
		return
	}
	g.cells = make([][]candidate, n)
}

func (g *Grid) key(x, y float64) (int, bool) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0, false
	}
	cx := int(math.Floor(x / g.cellSize))
	cy := int(math.Floor(y / g.cellSize))
	if cx < 0 || cy < 0 || cx >= g.columns || cy >= g.rows {
		return 0, false
	}
	return cy*g.columns + cx, true
}

// Add records id as a label candidate at viewport position (x, y). Positions
// outside the grid are ignored.
func (g *Grid) Add(id int, size, x, y float64) {
	k, ok := g.key(x, y)
	if !ok {
		return
	}
	g.cells[k] = append(g.cells[k], candidate{id: id, size: size})
}

// Organize sorts every cell by decreasing size, then increasing id.
func (g *Grid) Organize() {
	for _, cell := range g.cells {
		slices.SortStableFunc(cell, func(a, b candidate) int {
			if c := cmp.Compare(b.size, a.size); c != 0 {
				return c
			}
			return cmp.Compare(a.id, b.id)
		})
	}
}

// LabelsToDisplay returns the ids to label at camera ratio with the given
// density. Each cell contributes at most ceil(density/ratio²) candidates.
func (g *Grid) LabelsToDisplay(ratio, density float64) []int {
	area := g.cellSize * g.cellSize
	scaledArea := area / ratio / ratio
	perCell := int(math.Ceil(scaledArea * density / area))

	var out []int
	for _, cell := range g.cells {
		for i := 0; i < min(perCell, len(cell)); i++ {
			out = append(out, cell[i].id)
		}
	}
	return out
}
