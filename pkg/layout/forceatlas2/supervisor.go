package forceatlas2

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/observability"
)

// Algorithm is the name reported to layout hooks.
const Algorithm = "forceatlas2"

// SupervisorOptions configure a [Supervisor].
type SupervisorOptions struct {
	// BatchIterations is the number of iterations between two sends.
	// Default 1.
	BatchIterations int
	// MaxIterations stops the layout after that many iterations. Zero runs
	// until the context is cancelled.
	MaxIterations int
	Logger        *log.Logger
	Hooks         observability.LayoutHooks
}

// Supervisor runs a layout on its own goroutine over private copies of a
// graph's layout inputs.
type Supervisor struct {
	settings Settings
	opts     SupervisorOptions
	mat      Matrices
	err      error
	nodes    int
}

// NewSupervisor snapshots g. The supervisor never reads g again.
func NewSupervisor(g *graph.Graph, s Settings, opts SupervisorOptions) *Supervisor {
	if opts.BatchIterations <= 0 {
		opts.BatchIterations = 1
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Hooks == nil {
		opts.Hooks = observability.Layout()
	}
	sv := &Supervisor{settings: s, opts: opts, nodes: g.NodeCount()}
	sv.mat, sv.err = ToMatrices(g, s)
	if sv.err == nil {
		sv.err = s.Validate()
	}
	return sv
}

// Start runs the layout until ctx is done or MaxIterations is reached. Each
// batch sends a copy of the node buffer, to be applied with
// [AssignLayoutChanges] by the graph's owner. The channel is closed when the
// layout stops; [Supervisor.Err] then reports why. A batch that leaves a
// coordinate non-finite is not sent and stops the layout with [ErrDiverged].
func (sv *Supervisor) Start(ctx context.Context) <-chan []float32 {
	out := make(chan []float32)
	go func() {
		defer close(out)
		start := time.Now()
		sv.opts.Hooks.OnLayoutStart(ctx, Algorithm, sv.nodes)
		defer func() {
			sv.opts.Hooks.OnLayoutComplete(ctx, Algorithm, time.Since(start), sv.err)
		}()
		if sv.err != nil {
			return
		}

		done := 0
		for sv.opts.MaxIterations == 0 || done < sv.opts.MaxIterations {
			if err := ctx.Err(); err != nil {
				sv.err = err
				return
			}
			batch := sv.opts.BatchIterations
			if sv.opts.MaxIterations > 0 {
				batch = min(batch, sv.opts.MaxIterations-done)
			}

			t := time.Now()
			if err := IterateMatrices(sv.mat.Nodes, sv.mat.Edges, sv.settings, batch); err != nil {
				sv.err = err
				return
			}
			done += batch
			sv.opts.Hooks.OnLayoutBatch(ctx, Algorithm, batch, time.Since(t))
			if !Finite(sv.mat.Nodes) {
				sv.err = ErrDiverged
				return
			}

			select {
			case out <- append([]float32(nil), sv.mat.Nodes...):
			case <-ctx.Done():
				sv.err = ctx.Err()
				return
			}
		}
		sv.opts.Logger.Debug("layout finished", "algorithm", Algorithm, "iterations", done, "duration", time.Since(start))
	}()
	return out
}

// Err returns the error that stopped the layout. It is only meaningful after
// the channel returned by Start is closed.
func (sv *Supervisor) Err() error { return sv.err }
