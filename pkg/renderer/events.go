package renderer

import (
	"github.com/matzehuels/stagegraph/pkg/event"
	"github.com/matzehuels/stagegraph/pkg/pick"
	"github.com/matzehuels/stagegraph/pkg/settings"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// EventType names a pointer interaction.
type EventType string

// Pointer interactions. Enter and Leave concern hover for nodes and edges
// and the pointer crossing the container edge for the stage.
const (
	Click       EventType = "click"
	RightClick  EventType = "rightClick"
	DoubleClick EventType = "doubleClick"
	Wheel       EventType = "wheel"
	Down        EventType = "down"
	Enter       EventType = "enter"
	Leave       EventType = "leave"
)

var eventTypes = []EventType{Click, RightClick, DoubleClick, Wheel, Down, Enter, Leave}

// PointerEvent is a normalized pointer event from the input captor.
type PointerEvent struct {
	// X and Y are viewport pixels, origin top-left.
	X, Y float64
	// Delta is the wheel delta for Wheel events.
	Delta float64
	// Original is the captor's raw event, passed through untouched.
	Original any

	prevented bool
}

// Point returns the event position.
func (e *PointerEvent) Point() transform.Point { return transform.Point{X: e.X, Y: e.Y} }

// PreventDefault asks the captor to skip its default handling, such as
// panning the camera on drag or zooming on wheel.
func (e *PointerEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *PointerEvent) DefaultPrevented() bool { return e.prevented }

// NodeEvent is the payload of node notifications.
type NodeEvent struct {
	Node  int
	Event *PointerEvent
}

// EdgeEvent is the payload of edge notifications.
type EdgeEvent struct {
	Edge  int
	Event *PointerEvent
}

// StageEvent is the payload of stage notifications.
type StageEvent struct {
	Event *PointerEvent
}

// ResizeEvent is the payload of resize notifications.
type ResizeEvent struct {
	Width, Height float64
}

// CaptorState is what the input captor knows about the ongoing gesture.
type CaptorState struct {
	Dragging bool
	Moving   bool
	Wheeling bool
}

type listeners struct {
	node  map[EventType]*event.Listeners[NodeEvent]
	edge  map[EventType]*event.Listeners[EdgeEvent]
	stage map[EventType]*event.Listeners[StageEvent]

	beforeRender event.Listeners[struct{}]
	afterRender  event.Listeners[struct{}]
	resize       event.Listeners[ResizeEvent]
	kill         event.Listeners[struct{}]
}

func newListeners() listeners {
	l := listeners{
		node:  make(map[EventType]*event.Listeners[NodeEvent], len(eventTypes)),
		edge:  make(map[EventType]*event.Listeners[EdgeEvent], len(eventTypes)),
		stage: make(map[EventType]*event.Listeners[StageEvent], len(eventTypes)),
	}
	for _, t := range eventTypes {
		l.node[t] = &event.Listeners[NodeEvent]{}
		l.edge[t] = &event.Listeners[EdgeEvent]{}
		l.stage[t] = &event.Listeners[StageEvent]{}
	}
	return l
}

func (l *listeners) clear() {
	for _, t := range eventTypes {
		l.node[t].Clear()
		l.edge[t].Clear()
		l.stage[t].Clear()
	}
	l.beforeRender.Clear()
	l.afterRender.Clear()
	l.resize.Clear()
	l.kill.Clear()
}

// =============================================================================
// Registration
// =============================================================================

// OnNode registers fn for node events of type t. Unknown types are ignored
// and return a no-op remover.
func (r *Renderer) OnNode(t EventType, fn func(NodeEvent)) (off func()) {
	if l, ok := r.listeners.node[t]; ok {
		return l.Add(fn)
	}
	return func() {}
}

// OnEdge registers fn for edge events of type t.
func (r *Renderer) OnEdge(t EventType, fn func(EdgeEvent)) (off func()) {
	if l, ok := r.listeners.edge[t]; ok {
		return l.Add(fn)
	}
	return func() {}
}

// OnStage registers fn for stage events of type t.
func (r *Renderer) OnStage(t EventType, fn func(StageEvent)) (off func()) {
	if l, ok := r.listeners.stage[t]; ok {
		return l.Add(fn)
	}
	return func() {}
}

// OnBeforeRender registers fn to run at the start of every frame.
func (r *Renderer) OnBeforeRender(fn func()) (off func()) {
	return r.listeners.beforeRender.Add(func(struct{}) { fn() })
}

// OnAfterRender registers fn to run at the end of every frame.
func (r *Renderer) OnAfterRender(fn func()) (off func()) {
	return r.listeners.afterRender.Add(func(struct{}) { fn() })
}

// OnResize registers fn to run when the container size changed.
func (r *Renderer) OnResize(fn func(ResizeEvent)) (off func()) {
	return r.listeners.resize.Add(fn)
}

// OnKill registers fn to run once when the renderer is killed.
func (r *Renderer) OnKill(fn func()) (off func()) {
	return r.listeners.kill.Add(func(struct{}) { fn() })
}

// =============================================================================
// Captor entry points
// =============================================================================

// SetCaptorState records the gesture state used to decide whether the
// stage is moving.
func (r *Renderer) SetCaptorState(s CaptorState) { r.captor = s }

// HandleMove updates node and edge hover for a pointer move.
func (r *Renderer) HandleMove(e *PointerEvent) {
	if r.killed {
		return
	}
	r.syncTransformer()
	node, ok := r.picker.NodeAt(e.Point())
	if !ok {
		node = pick.None
	}
	if transitions := r.hover.SetNode(node); len(transitions) > 0 {
		r.emitHover(transitions, e)
		r.sched.ScheduleHighlight()
	}

	switch r.settings.EnableEdgeHoverEvents {
	case settings.HoverOn:
		r.checkEdgeHover(e)
	case settings.HoverDebounce:
		r.sched.Debounce(func() { r.checkEdgeHover(e) })
	}
}

func (r *Renderer) checkEdgeHover(e *PointerEvent) {
	edge := pick.None
	if _, hovered := r.hover.Node(); !hovered {
		if id, ok := r.EdgeAt(e.X, e.Y); ok {
			edge = id
		}
	}
	r.emitHover(r.hover.SetEdge(edge), e)
}

func (r *Renderer) emitHover(transitions []pick.Transition, e *PointerEvent) {
	for _, tr := range transitions {
		t := Enter
		if tr.Kind == pick.Leave {
			t = Leave
		}
		if tr.Edge {
			r.listeners.edge[t].Emit(EdgeEvent{Edge: tr.ID, Event: e})
		} else {
			r.listeners.node[t].Emit(NodeEvent{Node: tr.ID, Event: e})
		}
	}
}

// HandlePointer dispatches a click, right click, double click, wheel or
// down event to the node under the pointer, else to the edge under it when
// edge events of that kind are enabled, else to the stage. Enter and Leave
// report the pointer crossing the container edge; Leave also ends any
// hover.
func (r *Renderer) HandlePointer(t EventType, e *PointerEvent) {
	if r.killed {
		return
	}
	switch t {
	case Enter:
		r.listeners.stage[Enter].Emit(StageEvent{Event: e})
		return
	case Leave:
		transitions := append(r.hover.SetNode(pick.None), r.hover.SetEdge(pick.None)...)
		if len(transitions) > 0 {
			r.emitHover(transitions, e)
			r.sched.ScheduleHighlight()
		}
		r.listeners.stage[Leave].Emit(StageEvent{Event: e})
		return
	}
	if _, ok := r.listeners.stage[t]; !ok {
		return
	}

	r.syncTransformer()
	node, ok := r.hover.Node()
	if !ok {
		node, ok = r.picker.NodeAt(e.Point())
	}
	if ok {
		r.listeners.node[t].Emit(NodeEvent{Node: node, Event: e})
		return
	}

	edgeEvents := r.settings.EnableEdgeClickEvents
	if t == Wheel {
		edgeEvents = r.settings.EnableEdgeWheelEvents
	}
	if edgeEvents {
		if edge, ok := r.EdgeAt(e.X, e.Y); ok {
			r.listeners.edge[t].Emit(EdgeEvent{Edge: edge, Event: e})
			return
		}
	}
	r.listeners.stage[t].Emit(StageEvent{Event: e})
}
