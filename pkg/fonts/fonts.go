// Package fonts resolves label font faces for raster output.
//
// Faces are loaded from TrueType files through github.com/fogleman/gg and
// kept in a [Cache] owned by whoever shares it, typically one raster surface
// or one preview server. An empty path or a file that cannot be loaded falls
// back to the built-in 7x13 bitmap face, so labels always render.
package fonts

import (
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontFamily is the CSS font-family used for labels in SVG output when no
// font file is configured.
const FontFamily = "sans-serif"

// FallbackFontFamily lists generic families for SVG output.
const FallbackFontFamily = `Arial, Helvetica, sans-serif`

type key struct {
	path string
	size float64
}

// Cache loads and keeps font faces. It is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	faces  map[key]font.Face
	failed map[string]error
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{faces: map[key]font.Face{}, failed: map[string]error{}}
}

// Face returns the face for the TrueType file at path in points. The bitmap
// fallback is returned with the load error when path cannot be used.
func (c *Cache) Face(path string, points float64) (font.Face, error) {
	if path == "" {
		return basicfont.Face7x13, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.failed[path]; ok {
		return basicfont.Face7x13, err
	}
	k := key{path: path, size: points}
	if f, ok := c.faces[k]; ok {
		return f, nil
	}
	f, err := gg.LoadFontFace(path, points)
	if err != nil {
		c.failed[path] = err
		return basicfont.Face7x13, err
	}
	c.faces[k] = f
	return f, nil
}

// Len returns the number of loaded faces.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.faces)
}
