// Package camera holds the view state used to project a framed graph onto a
// viewport.
//
// A [State] is expressed in framed-graph space: X and Y locate the centre of
// the view in [0,1], Angle rotates the view and Ratio is the inverse zoom
// (larger ratios show more of the graph).
package camera

import (
	"math"

	"github.com/matzehuels/stagegraph/pkg/event"
)

// State is a camera position.
type State struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	Ratio float64 `json:"ratio"`
}

// DefaultState returns the centred, unrotated, unzoomed state.
func DefaultState() State {
	return State{X: 0.5, Y: 0.5, Angle: 0, Ratio: 1}
}

// Camera is a mutable camera with optional ratio bounds. It is confined to
// the renderer's execution context.
type Camera struct {
	// MinRatio and MaxRatio bound Ratio. Zero means unbounded.
	MinRatio float64
	MaxRatio float64

	state    State
	previous State
	enabled  bool
	animated bool

	updated event.Listeners[State]
}

// New returns an enabled camera at [DefaultState].
func New() *Camera {
	s := DefaultState()
	return &Camera{state: s, previous: s, enabled: true}
}

// State returns the current state.
func (c *Camera) State() State { return c.state }

// PreviousState returns the state before the last change.
func (c *Camera) PreviousState() State { return c.previous }

// Ratio returns the current ratio.
func (c *Camera) Ratio() float64 { return c.state.Ratio }

// Enable allows state changes.
func (c *Camera) Enable() { c.enabled = true }

// Disable freezes the camera; SetState becomes a no-op.
func (c *Camera) Disable() { c.enabled = false }

// Enabled reports whether the camera accepts state changes.
func (c *Camera) Enabled() bool { return c.enabled }

// SetAnimated marks the camera as moving under an animation.
func (c *Camera) SetAnimated(v bool) { c.animated = v }

// IsAnimated reports whether an animation is in progress.
func (c *Camera) IsAnimated() bool { return c.animated }

// BoundedRatio clamps ratio into [MinRatio, MaxRatio], ignoring unset bounds.
func (c *Camera) BoundedRatio(ratio float64) float64 {
	if c.MinRatio > 0 {
		ratio = math.Max(ratio, c.MinRatio)
	}
	if c.MaxRatio > 0 {
		ratio = math.Min(ratio, c.MaxRatio)
	}
	return ratio
}

// ValidateState returns s with its ratio clamped to the camera bounds.
func (c *Camera) ValidateState(s State) State {
	s.Ratio = c.BoundedRatio(s.Ratio)
	return s
}

// SetState moves the camera to s after validation. Listeners registered with
// OnUpdated run only when the state actually changed.
func (c *Camera) SetState(s State) {
	if !c.enabled {
		return
	}
	s = c.ValidateState(s)
	c.previous = c.state
	if s == c.state {
		return
	}
	c.state = s
	c.updated.Emit(s)
}

// UpdateState applies fn to a copy of the current state and sets the result.
func (c *Camera) UpdateState(fn func(State) State) {
	c.SetState(fn(c.state))
}

// HasChanged reports whether the state differs from the previous one.
func (c *Camera) HasChanged() bool { return c.state != c.previous }

// OnUpdated registers fn to run after each state change.
func (c *Camera) OnUpdated(fn func(State)) (off func()) {
	return c.updated.Add(fn)
}
