// Package circular places nodes evenly on a circle.
package circular

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/graph"
)

// Options position the circle. Node i lands at angle i*2π/n:
//
//	x = Scale*cos(a) + (Center-0.5)*Scale
//	y = Scale*sin(a) + (Center-0.5)*Scale
type Options struct {
	Center float64 `toml:"center" json:"center"`
	Scale  float64 `toml:"scale" json:"scale"`
}

// DefaultOptions returns a unit circle around the origin.
func DefaultOptions() Options { return Options{Center: 0.5, Scale: 1} }

// Apply overwrites the positions of g.
func Apply(g *graph.Graph, opts Options) {
	n := g.NodeCount()
	offset := (opts.Center - 0.5) * opts.Scale
	for i := 0; i < n; i++ {
		a := float64(i) * 2 * math.Pi / float64(n)
		g.Nodes.X[i] = float32(opts.Scale*math.Cos(a) + offset)
		g.Nodes.Y[i] = float32(opts.Scale*math.Sin(a) + offset)
	}
}
