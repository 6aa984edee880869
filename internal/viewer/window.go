//go:build cgo

package viewer

import (
	"context"
	"image"
	"image/draw"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/matzehuels/stagegraph/pkg/pipeline"
)

// Run opens a window on scene and blocks until it is closed or ctx is done.
func Run(ctx context.Context, scene *pipeline.Scene, opts Options) error {
	opts.setDefaults()
	c, err := newController(scene, opts)
	if err != nil {
		return err
	}
	defer c.close()
	if opts.Layout != nil {
		c.startLayout(ctx, *opts.Layout)
	}

	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowSize(opts.Render.Width, opts.Render.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	err = ebiten.RunGame(&window{ctx: ctx, c: c})
	if err == ebiten.Termination {
		return ctx.Err()
	}
	return err
}

type window struct {
	ctx context.Context
	c   *controller

	rgba  *image.RGBA
	frame *ebiten.Image
}

func (w *window) Update() error {
	if w.ctx.Err() != nil {
		return ebiten.Termination
	}
	x, y := ebiten.CursorPosition()
	width, height := w.c.container.Size()
	_, wheel := ebiten.Wheel()
	w.c.step(Input{
		X:            float64(x),
		Y:            float64(y),
		Pressed:      inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		Released:     inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft),
		RightClicked: inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight),
		Wheel:        wheel,
		Inside:       x >= 0 && y >= 0 && float64(x) < width && float64(y) < height,
		Now:          time.Now(),
	})
	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	surface, changed := w.c.frame()
	width, height := surface.Size()
	if w.frame == nil || w.frame.Bounds().Dx() != width || w.frame.Bounds().Dy() != height {
		if w.frame != nil {
			w.frame.Deallocate()
		}
		w.frame = ebiten.NewImage(width, height)
		changed = true
	}
	if changed {
		img := surface.Image()
		rgba, ok := img.(*image.RGBA)
		if !ok {
			if w.rgba == nil || w.rgba.Bounds() != img.Bounds() {
				w.rgba = image.NewRGBA(img.Bounds())
			}
			draw.Draw(w.rgba, w.rgba.Bounds(), img, img.Bounds().Min, draw.Src)
			rgba = w.rgba
		}
		w.frame.WritePixels(rgba.Pix)
	}
	screen.DrawImage(w.frame, nil)
}

func (w *window) Layout(outsideWidth, outsideHeight int) (int, int) {
	w.c.resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
