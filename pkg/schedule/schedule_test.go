package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleRenderIdempotent(t *testing.T) {
	tk := NewTicker()
	renders := 0
	s := New(tk, func() { renders++ }, nil)

	s.ScheduleRender()
	s.ScheduleRender()
	s.ScheduleRender()
	if got := tk.Pending(); got != 1 {
		t.Errorf("Pending() = %d, want 1", got)
	}
	tk.Tick()
	if renders != 1 {
		t.Errorf("renders = %d, want 1", renders)
	}
	if s.RenderPending() {
		t.Error("RenderPending() = true after tick")
	}

	s.ScheduleRender()
	tk.Tick()
	if renders != 2 {
		t.Errorf("renders = %d, want 2", renders)
	}
}

func TestScheduleRefreshSetsFlag(t *testing.T) {
	tk := NewTicker()
	var processed []bool
	var s *Scheduler
	s = New(tk, func() { processed = append(processed, s.ConsumeProcess()) }, nil)

	s.ScheduleRender()
	s.ScheduleRefresh()
	tk.Tick()
	s.ScheduleRender()
	tk.Tick()

	if len(processed) != 2 || !processed[0] || processed[1] {
		t.Errorf("processed = %v, want [true false]", processed)
	}
}

func TestHighlightSkippedWhileRenderPending(t *testing.T) {
	tk := NewTicker()
	highlights := 0
	s := New(tk, func() {}, func() { highlights++ })

	s.ScheduleRender()
	s.ScheduleHighlight()
	tk.Tick()
	if highlights != 0 {
		t.Errorf("highlights = %d, want 0 while render pending", highlights)
	}
	s.ScheduleHighlight()
	s.ScheduleHighlight()
	tk.Tick()
	if highlights != 1 {
		t.Errorf("highlights = %d, want 1", highlights)
	}
}

func TestDebounce(t *testing.T) {
	tk := NewTicker()
	s := New(tk, func() {}, nil)
	var got []int
	s.Debounce(func() { got = append(got, 1) })
	s.Debounce(func() { got = append(got, 2) })
	tk.Tick()
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("debounced calls = %v, want [1]", got)
	}
}

func TestCancelIdempotent(t *testing.T) {
	tk := NewTicker()
	renders := 0
	s := New(tk, func() { renders++ }, func() {})
	s.ScheduleRender()
	s.Debounce(func() { renders++ })
	s.Cancel()
	s.Cancel()
	if tk.Pending() != 0 {
		t.Errorf("Pending() = %d after Cancel, want 0", tk.Pending())
	}
	tk.Tick()
	if renders != 0 {
		t.Errorf("renders = %d after Cancel, want 0", renders)
	}
	s.ScheduleRender()
	if tk.Pending() != 1 {
		t.Errorf("Pending() = %d after re-schedule, want 1", tk.Pending())
	}
}

func TestFramesRequestedDuringTickWait(t *testing.T) {
	tk := NewTicker()
	calls := 0
	var loop func()
	loop = func() {
		calls++
		tk.RequestFrame(loop)
	}
	tk.RequestFrame(loop)
	if n := tk.Tick(); n != 1 {
		t.Errorf("Tick() = %d, want 1", n)
	}
	tk.Tick()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestTickerRunAndCall(t *testing.T) {
	tk := NewTicker()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tk.Run(ctx, time.Millisecond) }()

	var frames atomic.Int32
	tk.RequestFrame(func() { frames.Add(1) })

	var v int
	if err := tk.Call(ctx, func() { v = 42 }); err != nil {
		t.Fatalf("Call() = %v", err)
	}
	if v != 42 {
		t.Errorf("v = %d, want 42", v)
	}

	deadline := time.Now().Add(2 * time.Second)
	for frames.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if frames.Load() != 1 {
		t.Errorf("frames = %d, want 1", frames.Load())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if err := tk.Call(context.Background(), func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Call() after stop = %v, want ErrStopped", err)
	}
}
