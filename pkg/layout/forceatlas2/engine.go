package forceatlas2

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/graph"
)

// state is the working set of one layout. Positions may alias graph
// columns.
type state struct {
	x, y   []float32
	size   []float32
	mass   []float32
	dx, dy []float32
	oldDx  []float32
	oldDy  []float32
	conv   []float32

	from, to []int32
	weight   []float32
}

func newState(nodes int) state {
	st := state{
		mass:  make([]float32, nodes),
		dx:    make([]float32, nodes),
		dy:    make([]float32, nodes),
		oldDx: make([]float32, nodes),
		oldDy: make([]float32, nodes),
		conv:  make([]float32, nodes),
	}
	for i := range st.mass {
		st.mass[i] = 1
		st.conv[i] = 1
	}
	return st
}

// addDegreeMass adds each edge weight to the mass of both endpoints.
func (st *state) addDegreeMass() {
	for e := range st.from {
		st.mass[st.from[e]] += st.weight[e]
		st.mass[st.to[e]] += st.weight[e]
	}
}

// Engine runs ForceAtlas2 in place on a graph's coordinate columns.
type Engine struct {
	settings Settings
	st       state
}

// New returns an engine over g. The engine writes g.Nodes.X and g.Nodes.Y
// and keeps its force accumulators across calls to [Engine.Step].
func New(g *graph.Graph, s Settings) (*Engine, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	st := newState(g.NodeCount())
	st.x, st.y = g.Nodes.X, g.Nodes.Y
	st.size = g.Nodes.Features[g.NodeVisual().Size]
	st.from, st.to, st.weight = g.Edges.From, g.Edges.To, g.Edges.Weight
	if s.DegreeMass {
		st.addDegreeMass()
	}
	return &Engine{settings: s, st: st}, nil
}

// Step runs one iteration.
func (e *Engine) Step() { e.st.step(e.settings) }

// Run runs steps iterations.
func (e *Engine) Run(steps int) {
	for range steps {
		e.st.step(e.settings)
	}
}

// Apply lays g out in place with steps iterations. Zero steps selects
// [DefaultSteps].
func Apply(g *graph.Graph, s Settings, steps int) error {
	e, err := New(g, s)
	if err != nil {
		return err
	}
	if steps <= 0 {
		steps = DefaultSteps
	}
	e.Run(steps)
	return nil
}

func (st *state) step(s Settings) {
	order := len(st.x)

	copy(st.oldDx, st.dx)
	copy(st.oldDy, st.dy)
	clear(st.dx)
	clear(st.dy)

	outboundCompensation := 0.0
	if s.OutboundAttractionDistribution {
		for n := 0; n < order; n++ {
			outboundCompensation += float64(st.mass[n]) / float64(order)
		}
	}

	st.repulse(s)
	st.gravitate(s)
	st.attract(s, outboundCompensation)
	st.move(s)
}

// push applies factor along (xd, yd) to n1 and its opposite to n2.
func (st *state) push(n1, n2 int, xd, yd, factor float64) {
	st.dx[n1] += float32(xd * factor)
	st.dy[n1] += float32(yd * factor)
	st.dx[n2] -= float32(xd * factor)
	st.dy[n2] -= float32(yd * factor)
}

func (st *state) repulse(s Settings) {
	coefficient := s.ScalingRatio
	for n1 := range st.x {
		for n2 := 0; n2 < n1; n2++ {
			xd := float64(st.x[n1] - st.x[n2])
			yd := float64(st.y[n1] - st.y[n2])
			masses := coefficient * float64(st.mass[n1]) * float64(st.mass[n2])

			if s.AdjustSizes {
				d := math.Hypot(xd, yd) - float64(st.size[n1]) - float64(st.size[n2])
				switch {
				case d > 0:
					st.push(n1, n2, xd, yd, masses/d/d)
				case d < 0:
					st.push(n1, n2, xd, yd, 100*masses)
				}
				continue
			}
			if d := math.Hypot(xd, yd); d > 0 {
				st.push(n1, n2, xd, yd, masses/d)
			}
		}
	}
}

func (st *state) gravitate(s Settings) {
	g := s.Gravity / s.ScalingRatio
	coefficient := s.ScalingRatio
	for n := range st.x {
		xd, yd := float64(st.x[n]), float64(st.y[n])
		d := math.Hypot(xd, yd)
		if d == 0 {
			continue
		}
		factor := coefficient * float64(st.mass[n]) * g
		if !s.StrongGravityMode {
			factor /= d
		}
		st.dx[n] -= float32(xd * factor)
		st.dy[n] -= float32(yd * factor)
	}
}

func (st *state) attract(s Settings, outboundCompensation float64) {
	coefficient := 1.0
	if s.OutboundAttractionDistribution {
		coefficient = outboundCompensation
	}
	for e := range st.from {
		n1, n2 := int(st.from[e]), int(st.to[e])
		ewc := math.Pow(float64(st.weight[e]), s.EdgeWeightInfluence)
		xd := float64(st.x[n1] - st.x[n2])
		yd := float64(st.y[n1] - st.y[n2])

		d := math.Hypot(xd, yd)
		if s.AdjustSizes {
			d -= float64(st.size[n1]) + float64(st.size[n2])
		}

		var factor float64
		switch {
		case s.LinLogMode:
			if d <= 0 {
				continue
			}
			factor = -coefficient * ewc * math.Log(1+d) / d
		case s.AdjustSizes && d <= 0:
			continue
		default:
			factor = -coefficient * ewc
		}
		if s.OutboundAttractionDistribution {
			factor /= float64(st.mass[n1])
		}
		st.push(n1, n2, xd, yd, factor)
	}
}

func (st *state) move(s Settings) {
	for n := range st.x {
		dx, dy := float64(st.dx[n]), float64(st.dy[n])
		oldDx, oldDy := float64(st.oldDx[n]), float64(st.oldDy[n])
		mass := float64(st.mass[n])

		if s.AdjustSizes {
			if force := math.Hypot(dx, dy); force > MaxForce {
				dx, dy = dx*MaxForce/force, dy*MaxForce/force
				st.dx[n], st.dy[n] = float32(dx), float32(dy)
			}
		}

		swinging := mass * math.Hypot(oldDx-dx, oldDy-dy)
		traction := math.Hypot(oldDx+dx, oldDy+dy) / 2

		var speed float64
		if s.AdjustSizes {
			speed = 0.1 * math.Log(1+traction) / (1 + math.Sqrt(swinging))
		} else {
			speed = float64(st.conv[n]) * math.Log(1+traction) / (1 + math.Sqrt(swinging))
			st.conv[n] = float32(math.Min(1, math.Sqrt(speed*(dx*dx+dy*dy)/(1+math.Sqrt(swinging)))))
		}

		// The new position is the net force carried forward by the damped
		// previous force.
		st.x[n] = float32(dx + oldDx*speed/s.SlowDown)
		st.y[n] = float32(dy + oldDy*speed/s.SlowDown)
	}
}
