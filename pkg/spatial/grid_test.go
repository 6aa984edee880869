package spatial

import (
	"math"
	"slices"
	"testing"
)

func TestGridPoint(t *testing.T) {
	g := New(10)
	g.Add(0, 0.05, 0.05, 0)
	g.Add(1, 0.95, 0.95, 0.01)
	g.Add(2, 0.5, 0.5, 0.9)

	tests := []struct {
		name string
		x, y float64
		want []int
	}{
		{"near first", 0.06, 0.04, []int{0, 2}},
		{"near second", 0.9, 0.9, []int{1, 2}},
		{"middle", 0.5, 0.5, []int{2}},
		{"outside clamps", -3, -3, []int{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Point(tt.x, tt.y, 0)
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Point(%v, %v, 0) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestGridPointRadius(t *testing.T) {
	g := New(32)
	g.Add(0, 0.1, 0.5, 0.001)
	g.Add(1, 0.9, 0.5, 0.001)

	tests := []struct {
		name   string
		radius float64
		want   []int
	}{
		{"neighbours only", 0, nil},
		{"reaches first", 0.2, []int{0}},
		{"reaches both", 0.65, []int{0, 1}},
		{"infinite", math.Inf(1), []int{0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Point(0.3, 0.5, tt.radius)
			slices.Sort(got)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Point(0.3, 0.5, %v) = %v, want %v", tt.radius, got, tt.want)
			}
		})
	}
}

func TestGridDeduplicates(t *testing.T) {
	g := New(8)
	g.Add(3, 0.5, 0.5, 0.2)
	got := g.Point(0.5, 0.5, 0)
	if !slices.Equal(got, []int{3}) {
		t.Errorf("Point() = %v, want [3]", got)
	}
}

func TestGridClearAndLen(t *testing.T) {
	g := New(0)
	for i := 0; i < 4; i++ {
		g.Add(i, float64(i)/4, 0.5, 0)
	}
	if g.Len() != 4 {
		t.Errorf("Len() = %d, want 4", g.Len())
	}
	g.Clear()
	if g.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", g.Len())
	}
	if got := g.Point(0.5, 0.5, 0); len(got) != 0 {
		t.Errorf("Point() after Clear = %v, want empty", got)
	}
}
