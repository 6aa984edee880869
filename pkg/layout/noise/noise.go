// Package noise displaces node positions with OpenSimplex noise.
//
// The displacement of a node depends on its position, its index and the
// seed only, so the same seed reproduces the same layout. Nodes sharing a
// position are pushed apart because their index enters the third noise
// dimension.
package noise

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/matzehuels/stagegraph/pkg/graph"
)

// Options tune the jitter.
type Options struct {
	Seed int64 `toml:"seed" json:"seed"`
	// Frequency scales positions before sampling.
	Frequency float64 `toml:"frequency" json:"frequency"`
	// Amount is the largest displacement per axis.
	Amount float64 `toml:"amount" json:"amount"`
}

// DefaultOptions returns a small jitter suitable before a force-directed
// run on a unit-scale layout.
func DefaultOptions() Options {
	return Options{Seed: 1, Frequency: 0.5, Amount: 0.05}
}

// phase spreads node indices along the third noise axis.
const phase = 0.618

// Apply displaces every node of g.
func Apply(g *graph.Graph, opts Options) {
	n := opensimplex.New(opts.Seed)
	for i := range g.Nodes.X {
		x, y := float64(g.Nodes.X[i]), float64(g.Nodes.Y[i])
		z := float64(i) * phase
		dx := n.Eval3(x*opts.Frequency, y*opts.Frequency, z)
		dy := n.Eval3(x*opts.Frequency+100, y*opts.Frequency+100, z)
		g.Nodes.X[i] = float32(x + dx*opts.Amount)
		g.Nodes.Y[i] = float32(y + dy*opts.Amount)
	}
}
