package forceatlas2

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/graph"
)

// Flat buffer strides.
const (
	NodeStride = 10
	EdgeStride = 3
)

// Node buffer fields.
const (
	nodeX = iota
	nodeY
	nodeDx
	nodeDy
	nodeOldDx
	nodeOldDy
	nodeMass
	nodeConvergence
	nodeSize
)

// Edge buffer fields. Endpoints are node indices.
const (
	edgeSource = iota
	edgeTarget
	edgeWeight
)

// Matrices are the flat layout buffers of one graph.
type Matrices struct {
	Nodes []float32
	Edges []float32
}

// ToMatrices copies the layout inputs of g into fresh buffers. The buffers
// share nothing with g.
func ToMatrices(g *graph.Graph, s Settings) (Matrices, error) {
	if err := g.Validate(); err != nil {
		return Matrices{}, err
	}
	n, m := g.NodeCount(), g.EdgeCount()
	size := g.Nodes.Features[g.NodeVisual().Size]
	mat := Matrices{
		Nodes: make([]float32, n*NodeStride),
		Edges: make([]float32, m*EdgeStride),
	}
	for i := 0; i < n; i++ {
		row := mat.Nodes[i*NodeStride:]
		row[nodeX], row[nodeY] = g.Nodes.X[i], g.Nodes.Y[i]
		row[nodeMass] = 1
		row[nodeConvergence] = 1
		row[nodeSize] = size[i]
	}
	for e := 0; e < m; e++ {
		row := mat.Edges[e*EdgeStride:]
		from, to, w := g.Edges.From[e], g.Edges.To[e], g.Edges.Weight[e]
		row[edgeSource], row[edgeTarget], row[edgeWeight] = float32(from), float32(to), w
		if s.DegreeMass {
			mat.Nodes[int(from)*NodeStride+nodeMass] += w
			mat.Nodes[int(to)*NodeStride+nodeMass] += w
		}
	}
	return mat, nil
}

// AssignLayoutChanges copies the positions of a node buffer into g.
func AssignLayoutChanges(g *graph.Graph, nodes []float32) {
	for i := 0; i < g.NodeCount() && (i+1)*NodeStride <= len(nodes); i++ {
		g.Nodes.X[i] = nodes[i*NodeStride+nodeX]
		g.Nodes.Y[i] = nodes[i*NodeStride+nodeY]
	}
}

// Finite reports whether every position in a node buffer is finite.
func Finite(nodes []float32) bool {
	for i := 0; i+nodeY < len(nodes); i += NodeStride {
		x, y := float64(nodes[i+nodeX]), float64(nodes[i+nodeY])
		if math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
			return false
		}
	}
	return true
}

// IterateMatrices advances the buffers by iterations steps. Forces,
// masses and convergence are carried in the node buffer, so successive
// calls continue where the previous one stopped.
func IterateMatrices(nodes, edges []float32, s Settings, iterations int) error {
	if err := s.Validate(); err != nil {
		return err
	}
	st, err := unpack(nodes, edges)
	if err != nil {
		return err
	}
	for range iterations {
		st.step(s)
	}
	st.pack(nodes)
	return nil
}

func unpack(nodes, edges []float32) (state, error) {
	if len(nodes)%NodeStride != 0 || len(edges)%EdgeStride != 0 {
		return state{}, errors.New(errors.ErrCodeInvalidInput,
			"layout buffers of length %d and %d are not multiples of %d and %d",
			len(nodes), len(edges), NodeStride, EdgeStride)
	}
	n, m := len(nodes)/NodeStride, len(edges)/EdgeStride
	st := newState(n)
	st.x, st.y, st.size = make([]float32, n), make([]float32, n), make([]float32, n)
	for i := 0; i < n; i++ {
		row := nodes[i*NodeStride:]
		st.x[i], st.y[i] = row[nodeX], row[nodeY]
		st.dx[i], st.dy[i] = row[nodeDx], row[nodeDy]
		st.oldDx[i], st.oldDy[i] = row[nodeOldDx], row[nodeOldDy]
		st.mass[i], st.conv[i], st.size[i] = row[nodeMass], row[nodeConvergence], row[nodeSize]
	}
	st.from, st.to, st.weight = make([]int32, m), make([]int32, m), make([]float32, m)
	for e := 0; e < m; e++ {
		row := edges[e*EdgeStride:]
		from, to := int32(row[edgeSource]), int32(row[edgeTarget])
		if from < 0 || int(from) >= n || to < 0 || int(to) >= n {
			return state{}, errors.New(errors.ErrCodeInvalidInput,
				"edge %d endpoints (%d, %d) out of range [0, %d)", e, from, to, n)
		}
		st.from[e], st.to[e], st.weight[e] = from, to, row[edgeWeight]
	}
	return st, nil
}

func (st *state) pack(nodes []float32) {
	for i := range st.x {
		row := nodes[i*NodeStride:]
		row[nodeX], row[nodeY] = st.x[i], st.y[i]
		row[nodeDx], row[nodeDy] = st.dx[i], st.dy[i]
		row[nodeOldDx], row[nodeOldDy] = st.oldDx[i], st.oldDy[i]
		row[nodeMass], row[nodeConvergence] = st.mass[i], st.conv[i]
	}
}
