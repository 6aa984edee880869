package program

import (
	"slices"
	"testing"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	p := r.Factory()(nil)
	p.Reallocate(3)
	p.Process(0, 7)
	p.Process(2, 9)
	if r.Complete() {
		t.Error("Complete() = true with an empty slot")
	}
	p.Process(1, 8)
	if !r.Complete() {
		t.Error("Complete() = false after all slots")
	}
	if !slices.Equal(r.Slots, []int{7, 8, 9}) {
		t.Errorf("Slots = %v, want [7 8 9]", r.Slots)
	}
	p.Render(Params{Width: 10})
	if r.Renders != 1 || r.LastParams.Width != 10 {
		t.Errorf("Renders = %d, LastParams = %+v", r.Renders, r.LastParams)
	}
}

func TestRecorderOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Process past capacity did not panic")
		}
	}()
	r := NewRecorder()
	r.Reallocate(1)
	r.Process(1, 0)
}

func TestCompound(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	c := NewCompound(a.Factory(), b.Factory(), Discard)(nil)
	c.Reallocate(1)
	c.Process(0, 4)
	c.Render(Params{})
	for name, r := range map[string]*Recorder{"a": a, "b": b} {
		if r.Capacity != 1 || r.Slots[0] != 4 || r.Renders != 1 {
			t.Errorf("%s = %+v, want capacity 1, slot 4, one render", name, r)
		}
	}
}
