package schedule

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned by Call when the ticker loop has exited.
var ErrStopped = errors.New("schedule: ticker stopped")

// Ticker is a [FrameRequester] driven by explicit Tick calls or by Run.
// RequestFrame, CancelFrame, Post and Call are safe for concurrent use; the
// callbacks themselves run on the goroutine calling Tick.
type Ticker struct {
	mu      sync.Mutex
	next    Handle
	frames  []frame
	tasks   []func()
	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

type frame struct {
	h  Handle
	fn func()
}

// NewTicker returns an idle ticker.
func NewTicker() *Ticker {
	return &Ticker{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// RequestFrame queues fn for the next Tick.
func (t *Ticker) RequestFrame(fn func()) Handle {
	t.mu.Lock()
	t.next++
	h := t.next
	t.frames = append(t.frames, frame{h: h, fn: fn})
	t.mu.Unlock()
	return h
}

// CancelFrame drops a queued frame. Unknown handles are ignored.
func (t *Ticker) CancelFrame(h Handle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, f := range t.frames {
		if f.h == h {
			t.frames = append(t.frames[:i:i], t.frames[i+1:]...)
			return
		}
	}
}

// Pending returns the number of queued frames.
func (t *Ticker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

// Post queues fn to run on the ticking goroutine before the next frames.
func (t *Ticker) Post(fn func()) {
	t.mu.Lock()
	t.tasks = append(t.tasks, fn)
	t.mu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the ticking goroutine and waits for it to return.
func (t *Ticker) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	t.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-t.stopped:
		return ErrStopped
	}
}

// Tick runs queued tasks, then every frame queued before this call. Frames
// requested by those callbacks wait for the next Tick. It returns the number
// of frames run.
func (t *Ticker) Tick() int {
	t.runTasks()

	t.mu.Lock()
	frames := t.frames
	t.frames = nil
	t.mu.Unlock()
	for _, f := range frames {
		f.fn()
	}
	return len(frames)
}

// Run ticks every interval and runs posted tasks as they arrive until ctx is
// done. After Run returns, Call fails with ErrStopped.
func (t *Ticker) Run(ctx context.Context, interval time.Duration) error {
	defer t.once.Do(func() { close(t.stopped) })
	tk := time.NewTicker(interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			t.Tick()
		case <-t.wake:
			t.runTasks()
		}
	}
}

func (t *Ticker) runTasks() {
	t.mu.Lock()
	tasks := t.tasks
	t.tasks = nil
	t.mu.Unlock()
	for _, fn := range tasks {
		fn()
	}
}
