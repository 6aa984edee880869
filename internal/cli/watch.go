package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/layout/forceatlas2"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
)

// Plot glyphs
const (
	glyphNode = '●'
	glyphEdge = '·'
)

var (
	plotNodeStyle = lipgloss.NewStyle().Foreground(colorCyan)
	plotEdgeStyle = lipgloss.NewStyle().Foreground(colorDim)
	plotFrame     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
)

// watchCommand creates the watch command for following a live layout.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "watch <graph.json|url>",
		Short: "Follow a live ForceAtlas2 layout in the terminal",
		Long: `Run ForceAtlas2 on a graph and plot every batch in the terminal.

Keys: p pauses and resumes, s saves the current positions, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := c.baseOptions(args[0])
			flags.apply(cmd, &opts)
			opts.Layout.Algorithm = pipeline.AlgorithmForceAtlas2
			if err := opts.ValidateForLayout(); err != nil {
				return err
			}
			if output == "" {
				output = basePath("", args[0]) + "." + extension(pipeline.FormatPositions)
			}

			runner, err := c.newRunner(ctx, true)
			if err != nil {
				return err
			}
			defer runner.Close()
			scene, err := runner.Load(ctx, opts)
			if err != nil {
				return err
			}

			pre := opts.Layout
			pre.Algorithm = pipeline.AlgorithmNone
			if err := pipeline.GenerateLayout(ctx, scene.Graph, pre, c.Logger); err != nil {
				return err
			}

			m := newWatchModel(ctx, scene, opts.Layout, output)
			defer m.stop()
			final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}
			wm := final.(watchModel)
			wm.stop()
			return wm.err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "positions file written by s (default: <input>.positions.json)")

	return cmd
}

// =============================================================================
// watchModel - live layout plot
// =============================================================================

// batchMsg carries one supervisor batch. gen identifies the run that sent
// it; batches of a paused run are dropped.
type batchMsg struct {
	gen   int
	nodes []float32
}

type layoutDoneMsg struct {
	gen int
	err error
}

// watchModel is the bubbletea model of the watch command. It owns the
// graph: batches are applied in Update only.
type watchModel struct {
	ctx    context.Context
	scene  *pipeline.Scene
	layout pipeline.Layout
	output string

	cancel  context.CancelFunc
	batches <-chan []float32
	sv      *forceatlas2.Supervisor
	gen     int

	iterations int
	paused     bool
	done       bool
	status     string
	err        error
	started    time.Time

	width, height int
}

func newWatchModel(ctx context.Context, scene *pipeline.Scene, l pipeline.Layout, output string) watchModel {
	m := watchModel{
		ctx:     ctx,
		scene:   scene,
		layout:  l,
		output:  output,
		width:   80,
		height:  24,
		started: time.Now(),
	}
	m.run()
	return m
}

// run starts a supervisor over the remaining iterations.
func (m *watchModel) run() {
	ctx, cancel := context.WithCancel(m.ctx)
	m.gen++
	m.cancel = cancel
	m.sv = forceatlas2.NewSupervisor(m.scene.Graph, m.layout.ForceAtlas2, forceatlas2.SupervisorOptions{
		BatchIterations: pipeline.DefaultBatch,
		MaxIterations:   m.remaining(),
	})
	m.batches = m.sv.Start(ctx)
}

func (m *watchModel) remaining() int {
	if m.layout.Iterations <= 0 {
		return 0
	}
	return max(m.layout.Iterations-m.iterations, 0)
}

func (m *watchModel) stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// wait receives the next batch of the current run.
func (m watchModel) wait() tea.Cmd {
	gen, ch, sv := m.gen, m.batches, m.sv
	return func() tea.Msg {
		nodes, ok := <-ch
		if !ok {
			return layoutDoneMsg{gen: gen, err: sv.Err()}
		}
		return batchMsg{gen: gen, nodes: nodes}
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.wait()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.stop()
			return m, tea.Quit
		case "p", " ":
			return m.togglePause()
		case "s":
			m.save()
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case batchMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		forceatlas2.AssignLayoutChanges(m.scene.Graph, msg.nodes)
		m.iterations += pipeline.DefaultBatch
		if m.layout.Iterations > 0 {
			m.iterations = min(m.iterations, m.layout.Iterations)
		}
		return m, m.wait()
	case layoutDoneMsg:
		if msg.gen != m.gen || m.paused {
			return m, nil
		}
		m.done = true
		if msg.err != nil && m.ctx.Err() == nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.status = fmt.Sprintf("converged after %d iterations in %s", m.iterations, time.Since(m.started).Round(time.Millisecond))
	}
	return m, nil
}

func (m watchModel) togglePause() (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}
	if m.paused {
		if m.layout.Iterations > 0 && m.remaining() == 0 {
			m.done = true
			return m, nil
		}
		m.paused = false
		m.status = ""
		m.run()
		return m, m.wait()
	}
	m.paused = true
	m.gen++
	m.stop()
	m.status = "paused"
	return m, nil
}

func (m *watchModel) save() {
	data, err := m.scene.Positions()
	if err == nil {
		err = writeFile(m.output, data)
	}
	if err != nil {
		m.status = "save failed: " + err.Error()
		return
	}
	m.status = "saved " + m.output
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("ForceAtlas2"))
	b.WriteString(" ")
	b.WriteString(StyleDim.Render("p pause  s save  q quit"))
	b.WriteString("\n")

	b.WriteString(plotFrame.Render(m.plot(max(m.width-2, 10), max(m.height-5, 5))))
	b.WriteString("\n")

	g := m.scene.Graph
	progress := fmt.Sprintf("%d", m.iterations)
	if m.layout.Iterations > 0 {
		progress += fmt.Sprintf("/%d", m.layout.Iterations)
	}
	b.WriteString(statsLine(g.NodeCount(), g.EdgeCount()))
	b.WriteString(StyleDim.Render(" · iterations "))
	b.WriteString(StyleNumber.Render(progress))
	if m.status != "" {
		b.WriteString(StyleDim.Render(" · "))
		b.WriteString(StyleValue.Render(m.status))
	}
	return b.String()
}

// plot draws the graph into a cols x rows character grid. The layout bounds
// are fitted to the grid with y pointing up.
func (m watchModel) plot(cols, rows int) string {
	g := m.scene.Graph
	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", cols))
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range g.NodeCount() {
		if g.NodeHidden(i) {
			continue
		}
		x, y := float64(g.Nodes.X[i]), float64(g.Nodes.Y[i])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if math.IsInf(minX, 1) {
		return joinGrid(grid)
	}
	spanX, spanY := math.Max(maxX-minX, 1e-9), math.Max(maxY-minY, 1e-9)
	cell := func(i int) (int, int) {
		cx := (float64(g.Nodes.X[i]) - minX) / spanX * float64(cols-1)
		cy := (maxY - float64(g.Nodes.Y[i])) / spanY * float64(rows-1)
		return int(math.Round(cx)), int(math.Round(cy))
	}

	for e := range g.EdgeCount() {
		s, t := int(g.Edges.From[e]), int(g.Edges.To[e])
		if g.EdgeHidden(e) || g.NodeHidden(s) || g.NodeHidden(t) {
			continue
		}
		x0, y0 := cell(s)
		x1, y1 := cell(t)
		line(x0, y0, x1, y1, func(x, y int) { grid[y][x] = glyphEdge })
	}
	for i := range g.NodeCount() {
		if g.NodeHidden(i) {
			continue
		}
		x, y := cell(i)
		grid[y][x] = glyphNode
	}
	return joinGrid(grid)
}

func joinGrid(grid [][]rune) string {
	lines := make([]string, len(grid))
	for r, row := range grid {
		var b strings.Builder
		for _, ch := range row {
			switch ch {
			case glyphNode:
				b.WriteString(plotNodeStyle.Render(string(ch)))
			case glyphEdge:
				b.WriteString(plotEdgeStyle.Render(string(ch)))
			default:
				b.WriteRune(ch)
			}
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

// line visits the cells of a Bresenham line from (x0, y0) to (x1, y1).
func line(x0, y0, x1, y1 int, visit func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		visit(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
