// Package schedule coalesces render work onto display-refresh callbacks.
//
// A [FrameRequester] stands in for the platform's display refresh: it runs a
// callback on the next frame. The [Scheduler] keeps at most one pending
// callback per kind of work, so any number of render requests issued during
// a frame cost a single draw. A refresh request marks the graph data dirty and
// then schedules a render; the render consumes the flag.
//
// [Ticker] is the reference requester. It doubles as the confinement
// mechanism for a renderer: every renderer call happens on the goroutine that
// runs Tick, and other goroutines submit work with Post or Call.
package schedule

// Handle identifies a requested frame. The zero Handle is never issued.
type Handle uint64

// FrameRequester runs callbacks on the next display refresh.
type FrameRequester interface {
	RequestFrame(fn func()) Handle
	CancelFrame(h Handle)
}

// Scheduler debounces render, highlight and generic per-frame work. It is
// confined to the owner's execution context.
type Scheduler struct {
	frames    FrameRequester
	render    func()
	highlight func()

	renderFrame    Handle
	highlightFrame Handle
	debounceFrame  Handle
	needToProcess  bool
}

// New returns a scheduler that calls render and highlight from frames
// requested on frames. highlight may be nil.
func New(frames FrameRequester, render, highlight func()) *Scheduler {
	return &Scheduler{frames: frames, render: render, highlight: highlight}
}

// ScheduleRender requests a draw on the next frame. Repeated calls before the
// frame fires are no-ops.
func (s *Scheduler) ScheduleRender() {
	if s.renderFrame != 0 {
		return
	}
	s.renderFrame = s.frames.RequestFrame(func() {
		s.renderFrame = 0
		s.render()
	})
}

// ScheduleRefresh marks the data dirty and requests a draw.
func (s *Scheduler) ScheduleRefresh() {
	s.needToProcess = true
	s.ScheduleRender()
}

// ScheduleHighlight requests a hover-layer draw unless one, or a full
// render, is already pending.
func (s *Scheduler) ScheduleHighlight() {
	if s.highlight == nil || s.highlightFrame != 0 || s.renderFrame != 0 {
		return
	}
	s.highlightFrame = s.frames.RequestFrame(func() {
		s.highlightFrame = 0
		s.highlight()
	})
}

// Debounce runs fn on the next frame unless a debounced call is already
// pending, in which case fn is dropped.
func (s *Scheduler) Debounce(fn func()) {
	if s.debounceFrame != 0 {
		return
	}
	s.debounceFrame = s.frames.RequestFrame(func() {
		s.debounceFrame = 0
		fn()
	})
}

// MarkDirty sets the reprocess flag without scheduling anything.
func (s *Scheduler) MarkDirty() { s.needToProcess = true }

// NeedsProcess reports whether a refresh is pending.
func (s *Scheduler) NeedsProcess() bool { return s.needToProcess }

// ConsumeProcess returns and clears the reprocess flag.
func (s *Scheduler) ConsumeProcess() bool {
	v := s.needToProcess
	s.needToProcess = false
	return v
}

// RenderPending reports whether a render frame is pending.
func (s *Scheduler) RenderPending() bool { return s.renderFrame != 0 }

// CancelRender drops a pending render frame.
func (s *Scheduler) CancelRender() {
	if s.renderFrame != 0 {
		s.frames.CancelFrame(s.renderFrame)
		s.renderFrame = 0
	}
}

// Cancel drops every pending frame. It is idempotent.
func (s *Scheduler) Cancel() {
	s.CancelRender()
	if s.highlightFrame != 0 {
		s.frames.CancelFrame(s.highlightFrame)
		s.highlightFrame = 0
	}
	if s.debounceFrame != 0 {
		s.frames.CancelFrame(s.debounceFrame)
		s.debounceFrame = 0
	}
}
