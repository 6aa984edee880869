package graph

import (
	"image/color"
	"testing"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

func TestNodeFlagsRoundTrip(t *testing.T) {
	for _, h := range []bool{false, true} {
		for _, hi := range []bool{false, true} {
			for _, f := range []bool{false, true} {
				for typ := uint8(0); typ <= 3; typ++ {
					in := NodeFlags{Hidden: h, Highlighted: hi, ForceLabel: f, Type: typ}
					if got := DecodeNodeFlags(EncodeNodeFlags(in)); got != in {
						t.Errorf("DecodeNodeFlags(EncodeNodeFlags(%+v)) = %+v", in, got)
					}
				}
			}
		}
	}
}

func TestEdgeFlagsRoundTrip(t *testing.T) {
	for _, h := range []bool{false, true} {
		for _, f := range []bool{false, true} {
			for typ := uint8(0); typ <= 7; typ++ {
				in := EdgeFlags{Hidden: h, ForceLabel: f, Type: typ}
				if got := DecodeEdgeFlags(EncodeEdgeFlags(in)); got != in {
					t.Errorf("DecodeEdgeFlags(EncodeEdgeFlags(%+v)) = %+v", in, got)
				}
			}
		}
	}
}

func TestEncodeNodeFlagsLayout(t *testing.T) {
	tests := []struct {
		name string
		in   NodeFlags
		want uint8
	}{
		{"zero", NodeFlags{}, 0},
		{"hidden", NodeFlags{Hidden: true}, 0b00001},
		{"highlighted", NodeFlags{Highlighted: true}, 0b00010},
		{"force label", NodeFlags{ForceLabel: true}, 0b00100},
		{"type 3", NodeFlags{Type: 3}, 0b11000},
		{"type overflow masked", NodeFlags{Type: 5}, 0b01000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeNodeFlags(tt.in); got != tt.want {
				t.Errorf("EncodeNodeFlags(%+v) = %05b, want %05b", tt.in, got, tt.want)
			}
		})
	}
}

func TestVisualFor(t *testing.T) {
	v := VisualFor(6)
	want := Visual{Color: 2, Label: 3, Size: 4, Flags: 5}
	if v != want {
		t.Errorf("VisualFor(6) = %+v, want %+v", v, want)
	}
}

func TestNewVisual(t *testing.T) {
	g := NewVisual(3, 2, 1, 0)
	if g.NodeCount() != 3 || g.EdgeCount() != 2 {
		t.Fatalf("counts = (%d, %d), want (3, 2)", g.NodeCount(), g.EdgeCount())
	}
	if len(g.Nodes.Features) != 5 {
		t.Errorf("node features = %d, want 5", len(g.Nodes.Features))
	}
	if len(g.Edges.Features) != 4 {
		t.Errorf("edge features = %d, want 4", len(g.Edges.Features))
	}
	for i, w := range g.Edges.Weight {
		if w != 1 {
			t.Errorf("weight[%d] = %v, want 1", i, w)
		}
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestAccessors(t *testing.T) {
	g := NewVisual(2, 1, 0, 0)
	nv := g.NodeVisual()
	g.Nodes.Features[nv.Size][1] = 7
	g.Nodes.Features[nv.Color][1] = 3
	g.Nodes.Features[nv.Label][1] = 9
	g.SetNodeFlags(1, NodeFlags{Hidden: true, Type: 2})
	g.SetEdgeFlags(0, EdgeFlags{ForceLabel: true, Type: 6})

	if got := g.NodeSize(1); got != 7 {
		t.Errorf("NodeSize(1) = %v, want 7", got)
	}
	if got := g.NodeColor(1); got != 3 {
		t.Errorf("NodeColor(1) = %v, want 3", got)
	}
	if got := g.NodeLabel(1); got != 9 {
		t.Errorf("NodeLabel(1) = %v, want 9", got)
	}
	if !g.NodeHidden(1) || g.NodeHidden(0) {
		t.Errorf("NodeHidden = (%v, %v), want (false, true)", g.NodeHidden(0), g.NodeHidden(1))
	}
	if got := g.NodeFlags(1).Type; got != 2 {
		t.Errorf("NodeFlags(1).Type = %d, want 2", got)
	}
	if got := g.EdgeFlags(0); got != (EdgeFlags{ForceLabel: true, Type: 6}) {
		t.Errorf("EdgeFlags(0) = %+v", got)
	}
	if g.EdgeHidden(0) {
		t.Error("EdgeHidden(0) = true, want false")
	}
}

func TestExtent(t *testing.T) {
	tests := []struct {
		name string
		xs   []float32
		ys   []float32
		want Extent
	}{
		{"empty", nil, nil, Extent{X: [2]float64{0, 1}, Y: [2]float64{0, 1}}},
		{"single", []float32{3}, []float32{-2}, Extent{X: [2]float64{3, 3}, Y: [2]float64{-2, -2}}},
		{"square", []float32{0, 0, 10, 10}, []float32{0, 10, 10, 0}, Extent{X: [2]float64{0, 10}, Y: [2]float64{0, 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewVisual(len(tt.xs), 0, 0, 0)
			copy(g.Nodes.X, tt.xs)
			copy(g.Nodes.Y, tt.ys)
			if got := g.Extent(); got != tt.want {
				t.Errorf("Extent() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	g := NewVisual(2, 1, 0, 0)
	g.Nodes.X[0] = 4
	g.Edges.To[0] = 1
	c := g.Clone()
	c.Nodes.X[0] = 9
	c.Nodes.Features[0][0] = 1
	c.Edges.To[0] = 0
	if g.Nodes.X[0] != 4 || g.Nodes.Features[0][0] != 0 || g.Edges.To[0] != 1 {
		t.Error("Clone shares storage with the original")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *Graph)
	}{
		{"short y", func(g *Graph) { g.Nodes.Y = g.Nodes.Y[:1] }},
		{"short feature", func(g *Graph) { g.Nodes.Features[2] = g.Nodes.Features[2][:1] }},
		{"too few node features", func(g *Graph) { g.Nodes.Features = g.Nodes.Features[:3] }},
		{"short weight", func(g *Graph) { g.Edges.Weight = nil }},
		{"too few edge features", func(g *Graph) { g.Edges.Features = nil }},
		{"endpoint out of range", func(g *Graph) { g.Edges.To[0] = 2 }},
		{"negative endpoint", func(g *Graph) { g.Edges.From[0] = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewVisual(2, 1, 0, 0)
			tt.mutate(g)
			err := g.Validate()
			if !errors.Is(err, errors.ErrCodeInvalidGraph) {
				t.Errorf("Validate() = %v, want INVALID_GRAPH", err)
			}
		})
	}

	var nilGraph *Graph
	if err := nilGraph.Validate(); err == nil {
		t.Error("Validate() on nil graph = nil, want error")
	}
}

func TestDefaultChoices(t *testing.T) {
	vc := DefaultValueChoices()
	if got := len(vc.Labels()); got != 256 {
		t.Errorf("len(labels) = %d, want 256", got)
	}
	if got := len(vc.Colors()); got != 217 {
		t.Errorf("len(colors) = %d, want 217", got)
	}
	tests := []struct {
		code int
		want string
	}{
		{0, ""},
		{1, "#000"},
		{2, "#002"},
		{6, "#00D"},
		{216, "#DDD"},
		{217, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := vc.Color(tt.code); got != tt.want {
			t.Errorf("Color(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
	if got := vc.Label(12); got != "l12" {
		t.Errorf("Label(12) = %q, want l12", got)
	}
}

func TestChoicesPrependEmpty(t *testing.T) {
	vc := NewValueChoices([]string{"a", "b"}, []string{"", "#f00"})
	if got := vc.Labels(); len(got) != 3 || got[0] != "" || got[1] != "a" {
		t.Errorf("Labels() = %q, want [\"\" a b]", got)
	}
	if got := vc.Colors(); len(got) != 2 {
		t.Errorf("Colors() = %q, want 2 entries", got)
	}
	if code, ok := vc.LabelCode("b"); !ok || code != 2 {
		t.Errorf("LabelCode(b) = (%d, %v), want (2, true)", code, ok)
	}
	if _, ok := vc.LabelCode("zzz"); ok {
		t.Error("LabelCode(zzz) found, want missing")
	}
}

func TestInternLabel(t *testing.T) {
	vc := NewValueChoices([]string{}, nil)
	a := vc.InternLabel("alpha")
	b := vc.InternLabel("beta")
	again := vc.InternLabel("alpha")
	if a != 1 || b != 2 || again != 1 {
		t.Errorf("InternLabel codes = (%d, %d, %d), want (1, 2, 1)", a, b, again)
	}
	if got := vc.InternLabel(""); got != 0 {
		t.Errorf("InternLabel(\"\") = %d, want 0", got)
	}
}

func TestRGBA(t *testing.T) {
	vc := NewValueChoices(nil, []string{"#f00", "#00ff00", "nope"})
	tests := []struct {
		code int
		want color.RGBA
	}{
		{0, color.RGBA{}},
		{1, color.RGBA{R: 255, A: 255}},
		{2, color.RGBA{G: 255, A: 255}},
		{3, color.RGBA{}},
	}
	for _, tt := range tests {
		if got := vc.RGBA(tt.code); got != tt.want {
			t.Errorf("RGBA(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
