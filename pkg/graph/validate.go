package graph

import (
	"github.com/matzehuels/stagegraph/pkg/errors"
)

// Validate checks the shape invariants of g: every node column has
// NodeCount entries, every edge column has EdgeCount entries, both feature
// sets carry the reserved visual columns, and every endpoint is a valid node
// index. It returns an error with code [errors.ErrCodeInvalidGraph].
func (g *Graph) Validate() error {
	if g == nil {
		return errors.New(errors.ErrCodeInvalidGraph, "graph is nil")
	}
	n := g.NodeCount()
	if len(g.Nodes.Y) != n || len(g.Nodes.Z) != n {
		return errors.New(errors.ErrCodeInvalidGraph,
			"node columns disagree: x=%d y=%d z=%d", n, len(g.Nodes.Y), len(g.Nodes.Z))
	}
	if len(g.Nodes.Features) < VisualColumns {
		return errors.New(errors.ErrCodeInvalidGraph,
			"nodes need at least %d feature columns, got %d", VisualColumns, len(g.Nodes.Features))
	}
	for i, col := range g.Nodes.Features {
		if len(col) != n {
			return errors.New(errors.ErrCodeInvalidGraph,
				"node feature column %d has %d entries, want %d", i, len(col), n)
		}
	}

	m := g.EdgeCount()
	if len(g.Edges.To) != m || len(g.Edges.Weight) != m || len(g.Edges.Z) != m {
		return errors.New(errors.ErrCodeInvalidGraph,
			"edge columns disagree: from=%d to=%d weight=%d z=%d",
			m, len(g.Edges.To), len(g.Edges.Weight), len(g.Edges.Z))
	}
	if len(g.Edges.Features) < VisualColumns {
		return errors.New(errors.ErrCodeInvalidGraph,
			"edges need at least %d feature columns, got %d", VisualColumns, len(g.Edges.Features))
	}
	for i, col := range g.Edges.Features {
		if len(col) != m {
			return errors.New(errors.ErrCodeInvalidGraph,
				"edge feature column %d has %d entries, want %d", i, len(col), m)
		}
	}
	for i := 0; i < m; i++ {
		from, to := g.Edges.From[i], g.Edges.To[i]
		if from < 0 || int(from) >= n || to < 0 || int(to) >= n {
			return errors.New(errors.ErrCodeInvalidGraph,
				"edge %d endpoints (%d, %d) out of range [0, %d)", i, from, to, n)
		}
	}
	return nil
}
