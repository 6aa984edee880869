package program

// Recorder is a program that remembers what it was asked to draw. It backs
// headless runs and tests.
type Recorder struct {
	Capacity    int
	Slots       []int
	Reallocs    int
	Renders     int
	LastParams  Params
	unprocessed int
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Factory returns a factory that always yields r.
func (r *Recorder) Factory() Factory {
	return func(Source) Program { return r }
}

func (r *Recorder) Reallocate(capacity int) {
	r.Capacity = capacity
	r.Reallocs++
	r.Slots = make([]int, capacity)
	for i := range r.Slots {
		r.Slots[i] = -1
	}
	r.unprocessed = capacity
}

func (r *Recorder) Process(offset, id int) {
	if offset < 0 || offset >= len(r.Slots) {
		panic("program: process offset out of reallocated range")
	}
	if r.Slots[offset] < 0 {
		r.unprocessed--
	}
	r.Slots[offset] = id
}

func (r *Recorder) Render(p Params) {
	r.Renders++
	r.LastParams = p
}

// Complete reports whether every reallocated slot was processed.
func (r *Recorder) Complete() bool { return r.unprocessed == 0 }
