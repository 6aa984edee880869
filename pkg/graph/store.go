package graph

import "math"

// VisualColumns is the number of reserved trailing feature columns.
const VisualColumns = 4

// Column is a fixed-width feature column.
type Column []float32

// Visual holds the resolved positions of the reserved feature columns.
type Visual struct {
	Color int
	Label int
	Size  int
	Flags int
}

// VisualFor resolves the reserved column positions for a feature set of the
// given size.
func VisualFor(count int) Visual {
	return Visual{
		Color: count - 4,
		Label: count - 3,
		Size:  count - 2,
		Flags: count - 1,
	}
}

// Nodes is the node half of a graph.
type Nodes struct {
	X        []float32
	Y        []float32
	Z        []int16
	Features []Column
}

// Edges is the edge half of a graph.
type Edges struct {
	From     []int32
	To       []int32
	Weight   []float32
	Z        []int16
	Features []Column
}

// Graph is a fixed-shape struct-of-arrays graph.
type Graph struct {
	Nodes Nodes
	Edges Edges
}

// New wraps pre-built columns into a Graph. It does not validate; see
// [Graph.Validate].
func New(nodes Nodes, edges Edges) *Graph {
	return &Graph{Nodes: nodes, Edges: edges}
}

// NewVisual allocates a graph with nodeFeatures and edgeFeatures plain
// columns followed by the four reserved visual columns. Edge weights start
// at 1.
func NewVisual(nodeCount, edgeCount, nodeFeatures, edgeFeatures int) *Graph {
	g := &Graph{
		Nodes: Nodes{
			X:        make([]float32, nodeCount),
			Y:        make([]float32, nodeCount),
			Z:        make([]int16, nodeCount),
			Features: makeColumns(nodeFeatures+VisualColumns, nodeCount),
		},
		Edges: Edges{
			From:     make([]int32, edgeCount),
			To:       make([]int32, edgeCount),
			Weight:   make([]float32, edgeCount),
			Z:        make([]int16, edgeCount),
			Features: makeColumns(edgeFeatures+VisualColumns, edgeCount),
		},
	}
	for i := range g.Edges.Weight {
		g.Edges.Weight[i] = 1
	}
	return g
}

func makeColumns(n, length int) []Column {
	cols := make([]Column, n)
	for i := range cols {
		cols[i] = make(Column, length)
	}
	return cols
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes.X) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges.From) }

// NodeVisual resolves the reserved node columns from the live column count.
func (g *Graph) NodeVisual() Visual { return VisualFor(len(g.Nodes.Features)) }

// EdgeVisual resolves the reserved edge columns from the live column count.
func (g *Graph) EdgeVisual() Visual { return VisualFor(len(g.Edges.Features)) }

// =============================================================================
// Node Accessors
// =============================================================================

// NodeFlags decodes the flags byte of node i.
func (g *Graph) NodeFlags(i int) NodeFlags {
	return DecodeNodeFlags(uint8(g.Nodes.Features[g.NodeVisual().Flags][i]))
}

// SetNodeFlags encodes f into the flags byte of node i.
func (g *Graph) SetNodeFlags(i int, f NodeFlags) {
	g.Nodes.Features[g.NodeVisual().Flags][i] = float32(EncodeNodeFlags(f))
}

// NodeHidden reports whether node i is hidden.
func (g *Graph) NodeHidden(i int) bool {
	return uint8(g.Nodes.Features[g.NodeVisual().Flags][i])&1 == 1
}

// NodeSize returns the size of node i.
func (g *Graph) NodeSize(i int) float32 {
	return g.Nodes.Features[g.NodeVisual().Size][i]
}

// NodeColor returns the color code of node i.
func (g *Graph) NodeColor(i int) int {
	return int(g.Nodes.Features[g.NodeVisual().Color][i])
}

// NodeLabel returns the label code of node i.
func (g *Graph) NodeLabel(i int) int {
	return int(g.Nodes.Features[g.NodeVisual().Label][i])
}

// =============================================================================
// Edge Accessors
// =============================================================================

// EdgeFlags decodes the flags byte of edge i.
func (g *Graph) EdgeFlags(i int) EdgeFlags {
	return DecodeEdgeFlags(uint8(g.Edges.Features[g.EdgeVisual().Flags][i]))
}

// SetEdgeFlags encodes f into the flags byte of edge i.
func (g *Graph) SetEdgeFlags(i int, f EdgeFlags) {
	g.Edges.Features[g.EdgeVisual().Flags][i] = float32(EncodeEdgeFlags(f))
}

// EdgeHidden reports whether edge i is hidden.
func (g *Graph) EdgeHidden(i int) bool {
	return uint8(g.Edges.Features[g.EdgeVisual().Flags][i])&1 == 1
}

// EdgeSize returns the thickness of edge i.
func (g *Graph) EdgeSize(i int) float32 {
	return g.Edges.Features[g.EdgeVisual().Size][i]
}

// EdgeColor returns the color code of edge i.
func (g *Graph) EdgeColor(i int) int {
	return int(g.Edges.Features[g.EdgeVisual().Color][i])
}

// =============================================================================
// Extent
// =============================================================================

// Extent is an axis-aligned bounding box in graph units.
type Extent struct {
	X [2]float64 `json:"x"`
	Y [2]float64 `json:"y"`
}

// Width returns the horizontal span of e.
func (e Extent) Width() float64 { return e.X[1] - e.X[0] }

// Height returns the vertical span of e.
func (e Extent) Height() float64 { return e.Y[1] - e.Y[0] }

// Extent computes the bounding box of all node coordinates. An empty graph
// yields the unit box.
func (g *Graph) Extent() Extent {
	if g.NodeCount() == 0 {
		return Extent{X: [2]float64{0, 1}, Y: [2]float64{0, 1}}
	}
	e := Extent{
		X: [2]float64{math.Inf(1), math.Inf(-1)},
		Y: [2]float64{math.Inf(1), math.Inf(-1)},
	}
	for i := range g.Nodes.X {
		x, y := float64(g.Nodes.X[i]), float64(g.Nodes.Y[i])
		e.X[0] = math.Min(e.X[0], x)
		e.X[1] = math.Max(e.X[1], x)
		e.Y[0] = math.Min(e.Y[0], y)
		e.Y[1] = math.Max(e.Y[1], y)
	}
	return e
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	return &Graph{
		Nodes: Nodes{
			X:        append([]float32(nil), g.Nodes.X...),
			Y:        append([]float32(nil), g.Nodes.Y...),
			Z:        append([]int16(nil), g.Nodes.Z...),
			Features: cloneColumns(g.Nodes.Features),
		},
		Edges: Edges{
			From:     append([]int32(nil), g.Edges.From...),
			To:       append([]int32(nil), g.Edges.To...),
			Weight:   append([]float32(nil), g.Edges.Weight...),
			Z:        append([]int16(nil), g.Edges.Z...),
			Features: cloneColumns(g.Edges.Features),
		},
	}
}

func cloneColumns(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = append(Column(nil), c...)
	}
	return out
}
