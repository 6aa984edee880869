// Package viewer shows a scene in a desktop window.
//
// The window drives the renderer from its update loop: every tick applies
// pointer input, posted layout batches and due frames on the window
// goroutine, which owns the renderer and the graph. Dragging pans the
// camera and the wheel zooms around the cursor.
//
// The window needs cgo. Builds without it return an UNSUPPORTED error from
// [Run].
package viewer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/layout/forceatlas2"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
	"github.com/matzehuels/stagegraph/pkg/raster"
	"github.com/matzehuels/stagegraph/pkg/renderer"
	"github.com/matzehuels/stagegraph/pkg/schedule"
	"github.com/matzehuels/stagegraph/pkg/transform"
)

// Defaults of [Options].
const (
	DefaultTitle = "stagegraph"

	// zoomStep is the camera ratio factor of one wheel notch.
	zoomStep = 1.2
	// doubleClick is the longest gap between the clicks of a double click.
	doubleClick = 300 * time.Millisecond
	// dragSlop is the distance in pixels a press may travel and still click.
	dragSlop = 3
)

// Options configure the window.
type Options struct {
	Title string
	// Render carries size, settings and overrides. Width and Height size the
	// initial window.
	Render pipeline.Options
	// Layout runs a live ForceAtlas2 layout when non-nil.
	Layout *pipeline.Layout
	Logger *log.Logger
}

func (o *Options) setDefaults() {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	o.Render.Logger = o.Logger
	o.Render.SetRenderDefaults()
}

// container is a renderer container the window resizes.
type container struct {
	mu            sync.Mutex
	width, height float64
}

func (c *container) Size() (float64, float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *container) PixelRatio() float64 { return 1 }

func (c *container) set(w, h float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w == c.width && h == c.height {
		return false
	}
	c.width, c.height = w, h
	return true
}

// Input is the pointer state of one window tick.
type Input struct {
	X, Y float64
	// Pressed and Released report left button transitions during the tick.
	Pressed, Released bool
	RightClicked      bool
	// Wheel is the vertical wheel offset, positive away from the user.
	Wheel float64
	// Inside reports whether the cursor is over the window.
	Inside bool
	Now    time.Time
}

// controller turns window input into renderer calls. Every method runs on
// the window goroutine.
type controller struct {
	scene     *pipeline.Scene
	renderer  *renderer.Renderer
	surface   *raster.Surface
	ticker    *schedule.Ticker
	container *container
	logger    *log.Logger

	cursor    transform.Point
	inside    bool
	pressAt   transform.Point
	pressed   bool
	dragged   bool
	lastClick time.Time
	dirty     bool

	stopLayout context.CancelFunc
}

func newController(scene *pipeline.Scene, opts Options) (*controller, error) {
	opts.setDefaults()
	c := &controller{
		scene:     scene,
		ticker:    schedule.NewTicker(),
		container: &container{width: float64(opts.Render.Width), height: float64(opts.Render.Height)},
		logger:    opts.Logger,
		dirty:     true,
	}
	r, surface, err := pipeline.Mount(scene, c.container, opts.Render, c.ticker)
	if err != nil {
		return nil, err
	}
	c.renderer, c.surface = r, surface
	r.OnAfterRender(func() { c.dirty = true })
	return c, nil
}

// startLayout runs a live layout whose batches are applied on the next
// ticks. It must run on the window goroutine.
func (c *controller) startLayout(ctx context.Context, l pipeline.Layout) {
	ctx, cancel := context.WithCancel(ctx)
	c.stopLayout = cancel
	sv := forceatlas2.NewSupervisor(c.scene.Graph, l.ForceAtlas2, forceatlas2.SupervisorOptions{
		BatchIterations: pipeline.DefaultBatch,
		MaxIterations:   l.Iterations,
		Logger:          c.logger,
	})
	batches := sv.Start(ctx)
	go func() {
		for nodes := range batches {
			c.ticker.Post(func() {
				forceatlas2.AssignLayoutChanges(c.scene.Graph, nodes)
				c.renderer.ScheduleRefresh()
			})
		}
		if err := sv.Err(); err != nil && ctx.Err() == nil {
			c.logger.Warn("layout stopped", "error", err)
		}
	}()
}

// resize follows the window size.
func (c *controller) resize(w, h int) {
	if c.container.set(float64(w), float64(h)) {
		if err := c.renderer.Resize(); err != nil {
			c.logger.Warn("resize failed", "error", err)
			return
		}
		c.renderer.ScheduleRefresh()
	}
}

// step applies one tick of input, then runs posted tasks and due frames.
func (c *controller) step(in Input) {
	p := transform.Point{X: in.X, Y: in.Y}
	e := &renderer.PointerEvent{X: in.X, Y: in.Y, Delta: in.Wheel}

	switch {
	case in.Inside && !c.inside:
		c.renderer.HandlePointer(renderer.Enter, e)
	case !in.Inside && c.inside:
		c.renderer.HandlePointer(renderer.Leave, e)
	}
	c.inside = in.Inside

	if in.Pressed {
		c.pressed, c.dragged, c.pressAt = true, false, p
		c.renderer.HandlePointer(renderer.Down, e)
	}
	if p != c.cursor {
		if c.pressed {
			c.pan(c.cursor, p)
		} else if in.Inside {
			c.renderer.HandleMove(e)
		}
		c.cursor = p
	}
	if in.Released && c.pressed {
		c.pressed = false
		c.renderer.SetCaptorState(renderer.CaptorState{})
		if !c.dragged {
			c.click(e, in.Now)
		}
	}
	if in.RightClicked {
		c.renderer.HandlePointer(renderer.RightClick, e)
	}
	if in.Wheel != 0 {
		c.zoom(p, in.Wheel)
		c.renderer.HandlePointer(renderer.Wheel, e)
	}

	c.ticker.Tick()
}

func (c *controller) click(e *renderer.PointerEvent, now time.Time) {
	if !c.lastClick.IsZero() && now.Sub(c.lastClick) <= doubleClick {
		c.renderer.HandlePointer(renderer.DoubleClick, e)
		c.lastClick = time.Time{}
		return
	}
	c.renderer.HandlePointer(renderer.Click, e)
	c.lastClick = now
}

// pan moves the camera so the graph point under from ends up under to.
func (c *controller) pan(from, to transform.Point) {
	if !c.dragged && math.Hypot(to.X-c.pressAt.X, to.Y-c.pressAt.Y) < dragSlop {
		return
	}
	c.dragged = true
	c.renderer.SetCaptorState(renderer.CaptorState{Dragging: true, Moving: true})

	a := c.renderer.ViewportToFramedGraph(from)
	b := c.renderer.ViewportToFramedGraph(to)
	cam := c.renderer.Camera()
	st := cam.State()
	st.X += a.X - b.X
	st.Y += a.Y - b.Y
	cam.SetState(st)
}

// zoom scales the camera ratio around the cursor, one step per notch.
func (c *controller) zoom(at transform.Point, notches float64) {
	ratio := c.renderer.Camera().State().Ratio / math.Pow(zoomStep, notches)
	c.renderer.Camera().SetState(c.renderer.ViewportZoomedState(at, ratio))
}

// frame returns the flattened surface when a frame was drawn since the
// previous call.
func (c *controller) frame() (*raster.Surface, bool) {
	if !c.dirty {
		return c.surface, false
	}
	c.dirty = false
	return c.surface, true
}

func (c *controller) close() {
	if c.stopLayout != nil {
		c.stopLayout()
	}
	c.renderer.Kill()
}
