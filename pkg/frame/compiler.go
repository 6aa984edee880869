package frame

import (
	"cmp"
	"maps"
	"math"
	"slices"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/program"
	"github.com/matzehuels/stagegraph/pkg/settings"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// Index is the write side of the spatial index.
type Index interface {
	Clear()
	Add(id int, x, y, radius float64)
}

// LabelGrid is the write side of the label placement grid.
type LabelGrid interface {
	ResizeAndClear(width, height, cellSize float64)
	Add(id int, size, x, y float64)
	Organize()
}

// Input is everything one refresh reads or writes.
type Input struct {
	Graph       *graph.Graph
	Settings    *settings.Settings
	Transformer *transform.Transformer
	Viewport    transform.Dimensions

	// CustomBBox frames the graph against a fixed box instead of its extent.
	CustomBBox *graph.Extent
	// ApplyDefaults overwrites color, size, flags and z with the defaults
	// from Settings before compiling.
	ApplyDefaults bool

	NodePrograms map[int]program.Program
	EdgePrograms map[int]program.Program

	// ScaleSize converts an authored size at a camera ratio into pixels.
	ScaleSize func(size, ratio float64) float64
}

// Result summarizes a refresh.
type Result struct {
	Extent        graph.Extent
	BBox          graph.Extent
	Normalization transform.Normalization

	ForcedNodeLabels []int
	ForcedEdgeLabels []int
	Highlighted      []int

	// MaxNodeSize is the largest authored size among visible nodes.
	MaxNodeSize float64

	NodeCounts map[int]int
	EdgeCounts map[int]int

	// NodeZ and EdgeZ are the z-index extents. They are only tracked while
	// the z_index setting is on and are [0, 0] otherwise.
	NodeZ [2]int
	EdgeZ [2]int
}

// Compiler rebuilds the spatial index, the label grid and the draw batches
// from a graph.
type Compiler struct {
	Index  Index
	Labels LabelGrid
}

// Compile runs a full refresh. Node coordinates of in.Graph are normalized
// in place. A node or edge type without a program aborts the refresh with
// errors.ErrCodeMissingProgram before any program is touched.
func (c *Compiler) Compile(in Input) (Result, error) {
	g, s, tr := in.Graph, in.Settings, in.Transformer

	c.Index.Clear()
	c.Labels.ResizeAndClear(in.Viewport.Width, in.Viewport.Height, s.LabelGridCellSize)

	res := Result{Extent: g.Extent()}
	res.BBox = res.Extent
	if in.CustomBBox != nil {
		res.BBox = *in.CustomBBox
	}
	tr.SetFraming(res.BBox)
	res.Normalization = tr.Normalization()
	nullMatrix := transform.CameraMatrix(camera.DefaultState(), in.Viewport, tr.GraphDimensions(), s.StagePadding, false)

	if in.ApplyDefaults {
		applyNodeDefaults(g, s)
		applyEdgeDefaults(g, s)
	}
	res.Normalization.ApplyTo(g)

	// Pass 1: tally types, forced labels and z extents.
	nv, ev := g.NodeVisual(), g.EdgeVisual()
	res.NodeCounts = map[int]int{}
	res.EdgeCounts = map[int]int{}
	nodeZ := [2]int{math.MaxInt, math.MinInt}
	edgeZ := [2]int{math.MaxInt, math.MinInt}

	for i := 0; i < g.NodeCount(); i++ {
		f := graph.DecodeNodeFlags(uint8(g.Nodes.Features[nv.Flags][i]))
		res.NodeCounts[int(f.Type)]++
		if f.ForceLabel {
			res.ForcedNodeLabels = append(res.ForcedNodeLabels, i)
		}
		if s.ZIndex {
			trackZ(&nodeZ, int(g.Nodes.Z[i]))
		}
	}
	for i := 0; i < g.EdgeCount(); i++ {
		f := graph.DecodeEdgeFlags(uint8(g.Edges.Features[ev.Flags][i]))
		res.EdgeCounts[int(f.Type)]++
		if f.ForceLabel && !f.Hidden {
			res.ForcedEdgeLabels = append(res.ForcedEdgeLabels, i)
		}
		if s.ZIndex {
			trackZ(&edgeZ, int(g.Edges.Z[i]))
		}
	}
	if s.ZIndex && g.NodeCount() > 0 {
		res.NodeZ = nodeZ
	}
	if s.ZIndex && g.EdgeCount() > 0 {
		res.EdgeZ = edgeZ
	}

	if err := checkPrograms("node", res.NodeCounts, in.NodePrograms); err != nil {
		return res, err
	}
	if err := checkPrograms("edge", res.EdgeCounts, in.EdgePrograms); err != nil {
		return res, err
	}

	// Pass 2: fill batches, index and label grid.
	offsets := reallocate(in.NodePrograms, res.NodeCounts)
	ratio := res.Normalization.Ratio
	for _, i := range order(g.NodeCount(), s.ZIndex && res.NodeZ[0] != res.NodeZ[1], func(i int) int16 { return g.Nodes.Z[i] }) {
		f := graph.DecodeNodeFlags(uint8(g.Nodes.Features[nv.Flags][i]))
		x, y := float64(g.Nodes.X[i]), float64(g.Nodes.Y[i])
		size := float64(g.Nodes.Features[nv.Size][i])
		if !f.Hidden {
			c.Index.Add(i, x, 1-y, in.ScaleSize(size, 1)/ratio)
			res.MaxNodeSize = max(res.MaxNodeSize, size)
			p := tr.FramedGraphToViewport(transform.Point{X: x, Y: y}, transform.WithMatrix(nullMatrix), transform.WithViewport(in.Viewport))
			c.Labels.Add(i, size, p.X, p.Y)
		}
		t := int(f.Type)
		in.NodePrograms[t].Process(offsets[t], i)
		offsets[t]++
		if f.Highlighted && !f.Hidden {
			res.Highlighted = append(res.Highlighted, i)
		}
	}
	c.Labels.Organize()

	offsets = reallocate(in.EdgePrograms, res.EdgeCounts)
	for _, i := range order(g.EdgeCount(), s.ZIndex && res.EdgeZ[0] != res.EdgeZ[1], func(i int) int16 { return g.Edges.Z[i] }) {
		t := int(graph.DecodeEdgeFlags(uint8(g.Edges.Features[ev.Flags][i])).Type)
		in.EdgePrograms[t].Process(offsets[t], i)
		offsets[t]++
	}
	return res, nil
}

func trackZ(ext *[2]int, z int) {
	ext[0] = min(ext[0], z)
	ext[1] = max(ext[1], z)
}

func checkPrograms(kind string, counts map[int]int, programs map[int]program.Program) error {
	for _, t := range slices.Sorted(maps.Keys(counts)) {
		if programs[t] == nil {
			return errors.New(errors.ErrCodeMissingProgram, "no program registered for %s type %d", kind, t)
		}
	}
	return nil
}

// reallocate sizes every registered program, including types absent from
// this graph, and returns zeroed per-type offsets.
func reallocate(programs map[int]program.Program, counts map[int]int) map[int]int {
	offsets := make(map[int]int, len(programs))
	for t, p := range programs {
		p.Reallocate(counts[t])
		offsets[t] = 0
	}
	return offsets
}

// order returns 0..n-1, stably sorted by ascending z when byZ is set.
func order(n int, byZ bool, z func(int) int16) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	if byZ {
		slices.SortStableFunc(ids, func(a, b int) int { return cmp.Compare(z(a), z(b)) })
	}
	return ids
}

func applyNodeDefaults(g *graph.Graph, s *settings.Settings) {
	v := g.NodeVisual()
	flags := float32(graph.EncodeNodeFlags(graph.NodeFlags{Type: uint8(s.DefaultNodeType)}))
	for i := 0; i < g.NodeCount(); i++ {
		g.Nodes.Features[v.Color][i] = float32(s.DefaultNodeColor)
		g.Nodes.Features[v.Size][i] = float32(s.DefaultNodeSize)
		g.Nodes.Features[v.Flags][i] = flags
		g.Nodes.Z[i] = 0
	}
}

func applyEdgeDefaults(g *graph.Graph, s *settings.Settings) {
	v := g.EdgeVisual()
	flags := float32(graph.EncodeEdgeFlags(graph.EdgeFlags{Type: uint8(s.DefaultEdgeType)}))
	for i := 0; i < g.EdgeCount(); i++ {
		g.Edges.Features[v.Color][i] = float32(s.DefaultEdgeColor)
		g.Edges.Features[v.Size][i] = float32(s.DefaultEdgeSize)
		g.Edges.Features[v.Flags][i] = flags
		g.Edges.Z[i] = 0
	}
}
