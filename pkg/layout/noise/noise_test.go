package noise

import (
	"math"
	"testing"

	"github.com/matzehuels/stagegraph/pkg/graph"
)

func coincident(n int) *graph.Graph { return graph.NewVisual(n, 0, 0, 0) }

func TestApplyDeterministic(t *testing.T) {
	a, b := coincident(8), coincident(8)
	Apply(a, DefaultOptions())
	Apply(b, DefaultOptions())
	for i := range a.Nodes.X {
		if a.Nodes.X[i] != b.Nodes.X[i] || a.Nodes.Y[i] != b.Nodes.Y[i] {
			t.Errorf("node %d differs between runs with the same seed", i)
		}
	}
}

func TestApplySeparatesCoincidentNodes(t *testing.T) {
	g := coincident(8)
	opts := DefaultOptions()
	Apply(g, opts)

	seen := map[[2]float32]bool{}
	for i := range g.Nodes.X {
		p := [2]float32{g.Nodes.X[i], g.Nodes.Y[i]}
		if seen[p] {
			t.Errorf("node %d shares position %v", i, p)
		}
		seen[p] = true
		if math.Abs(float64(p[0])) > opts.Amount || math.Abs(float64(p[1])) > opts.Amount {
			t.Errorf("node %d displaced to %v, want within %v", i, p, opts.Amount)
		}
	}
}
