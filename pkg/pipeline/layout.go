package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/layout/circular"
	"github.com/matzehuels/stagegraph/pkg/layout/forceatlas2"
	"github.com/matzehuels/stagegraph/pkg/layout/noise"
	"github.com/matzehuels/stagegraph/pkg/observability"
)

// =============================================================================
// Layout Generation
// =============================================================================

// GenerateLayout positions the nodes of g in place: the init layout first,
// then the main algorithm.
func GenerateLayout(ctx context.Context, g *graph.Graph, l Layout, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	if err := applyStatic(ctx, g, l.Init, l); err != nil {
		return err
	}
	if l.Algorithm != AlgorithmForceAtlas2 {
		return applyStatic(ctx, g, l.Algorithm, l)
	}
	return runForceAtlas2(ctx, g, l, logger)
}

func applyStatic(ctx context.Context, g *graph.Graph, algorithm string, l Layout) error {
	hooks := observability.Layout()
	start := time.Now()
	switch algorithm {
	case AlgorithmCircular:
		hooks.OnLayoutStart(ctx, algorithm, g.NodeCount())
		circular.Apply(g, l.Circular)
	case AlgorithmNoise:
		hooks.OnLayoutStart(ctx, algorithm, g.NodeCount())
		noise.Apply(g, l.Noise)
	case "", AlgorithmNone:
		return nil
	default:
		return ValidateAlgorithm(algorithm)
	}
	hooks.OnLayoutComplete(ctx, algorithm, time.Since(start), nil)
	return nil
}

// =============================================================================
// ForceAtlas2
// =============================================================================

// runForceAtlas2 drives a supervisor to completion and applies the final
// batch. Cancelling ctx keeps the positions of the last batch received.
func runForceAtlas2(ctx context.Context, g *graph.Graph, l Layout, logger *log.Logger) error {
	if l.Iterations == 0 {
		return nil
	}
	sv := forceatlas2.NewSupervisor(g, l.ForceAtlas2, forceatlas2.SupervisorOptions{
		BatchIterations: min(DefaultBatch, l.Iterations),
		MaxIterations:   l.Iterations,
		Logger:          logger,
	})
	var last []float32
	for nodes := range sv.Start(ctx) {
		last = nodes
	}
	if last != nil {
		forceatlas2.AssignLayoutChanges(g, last)
	}
	return sv.Err()
}
