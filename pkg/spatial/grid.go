// Package spatial provides a uniform-grid spatial index over the unit square.
//
// The renderer inserts every visible node as a circle in framed-graph space
// (y pointing up) and the picker asks for candidates near a point. Node sizes
// on screen depend on the camera, so the inserted radius only covers the
// refresh-time size; the picker passes the current on-screen reach to
// [Grid.Point] and runs the exact viewport-space test on the result.
package spatial

import "math"

// DefaultCells is the grid resolution used by [New] when cells <= 0.
const DefaultCells = 32

// Grid is a G×G bucket grid over [0,1]². Coordinates outside the unit square
// are clamped into the edge cells.
type Grid struct {
	cells    int
	buckets  [][]int
	oversize []int
	count    int

	seen  []uint32
	stamp uint32
}

// New returns an empty grid with cells×cells buckets.
func New(cells int) *Grid {
	if cells <= 0 {
		cells = DefaultCells
	}
	return &Grid{cells: cells, buckets: make([][]int, cells*cells)}
}

// Clear removes every entry and keeps the allocated buckets.
func (g *Grid) Clear() {
	for i := range g.buckets {
		g.buckets[i] = g.buckets[i][:0]
	}
	g.oversize = g.oversize[:0]
	g.count = 0
}

// Len returns the number of inserted entries.
func (g *Grid) Len() int { return g.count }

func (g *Grid) cell(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	c := int(math.Floor(v * float64(g.cells)))
	if c < 0 {
		return 0
	}
	if c >= g.cells {
		return g.cells - 1
	}
	return c
}

// Add inserts the circle (x, y, radius) under id. A zero radius is a point.
func (g *Grid) Add(id int, x, y, radius float64) {
	g.count++
	r := math.Abs(radius)
	x0, x1 := g.cell(x-r), g.cell(x+r)
	y0, y1 := g.cell(y-r), g.cell(y+r)
	if x1-x0 > g.cells/2 || y1-y0 > g.cells/2 {
		g.oversize = append(g.oversize, id)
		return
	}
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			k := cy*g.cells + cx
			g.buckets[k] = append(g.buckets[k], id)
		}
	}
}

// Point returns the ids of entries that may lie within radius of (x, y): the
// entries of every cell overlapping that box, one ring of neighbouring cells
// and the oversized entries. A zero radius scans the enclosing cell and its
// eight neighbours. Each id appears once.
func (g *Grid) Point(x, y, radius float64) []int {
	g.stamp++
	if g.stamp == 0 {
		clear(g.seen)
		g.stamp = 1
	}
	var out []int
	visit := func(id int) {
		if id >= len(g.seen) {
			grown := make([]uint32, id+1+id/2)
			copy(grown, g.seen)
			g.seen = grown
		}
		if g.seen[id] == g.stamp {
			return
		}
		g.seen[id] = g.stamp
		out = append(out, id)
	}

	r := math.Abs(radius)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		r = 1
	}
	x0, x1 := max(g.cell(x-r)-1, 0), min(g.cell(x+r)+1, g.cells-1)
	y0, y1 := max(g.cell(y-r)-1, 0), min(g.cell(y+r)+1, g.cells-1)
	for ny := y0; ny <= y1; ny++ {
		for nx := x0; nx <= x1; nx++ {
			for _, id := range g.buckets[ny*g.cells+nx] {
				visit(id)
			}
		}
	}
	for _, id := range g.oversize {
		visit(id)
	}
	return out
}
