package graph

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

const hexDigits = "0123456789ABCDEF"

// ValueChoices maps the integer codes stored in the color and label columns
// to strings. Code 0 is the empty string in both tables.
type ValueChoices struct {
	labels []string
	colors []string

	labelIndex map[string]int
	colorIndex map[string]int
}

// DefaultLabels returns "" followed by l1..l255.
func DefaultLabels() []string {
	labels := make([]string, 256)
	for i := 1; i < len(labels); i++ {
		labels[i] = fmt.Sprintf("l%d", i)
	}
	return labels
}

// DefaultColors returns "" followed by the 216-colour #RGB palette.
func DefaultColors() []string {
	colors := make([]string, 0, 1+6*6*6)
	colors = append(colors, "")
	digit := func(i int) byte { return hexDigits[16*i/6] }
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				colors = append(colors, string([]byte{'#', digit(r), digit(g), digit(b)}))
			}
		}
	}
	return colors
}

// NewValueChoices builds value choices from the given tables. A nil table
// selects the default. A table not starting with "" gets one prepended.
func NewValueChoices(labels, colors []string) *ValueChoices {
	if labels == nil {
		labels = DefaultLabels()
	}
	if colors == nil {
		colors = DefaultColors()
	}
	vc := &ValueChoices{
		labels: withEmpty(labels),
		colors: withEmpty(colors),
	}
	vc.labelIndex = indexOf(vc.labels)
	vc.colorIndex = indexOf(vc.colors)
	return vc
}

// DefaultValueChoices returns value choices with both default tables.
func DefaultValueChoices() *ValueChoices {
	return NewValueChoices(nil, nil)
}

func withEmpty(table []string) []string {
	if len(table) > 0 && table[0] == "" {
		return append([]string(nil), table...)
	}
	return append([]string{""}, table...)
}

func indexOf(table []string) map[string]int {
	m := make(map[string]int, len(table))
	for i, s := range table {
		if _, ok := m[s]; !ok {
			m[s] = i
		}
	}
	return m
}

// Labels returns a copy of the label table.
func (vc *ValueChoices) Labels() []string { return append([]string(nil), vc.labels...) }

// Colors returns a copy of the color table.
func (vc *ValueChoices) Colors() []string { return append([]string(nil), vc.colors...) }

// Label decodes a label code. Out-of-range codes yield "".
func (vc *ValueChoices) Label(code int) string { return lookup(vc.labels, code) }

// Color decodes a color code. Out-of-range codes yield "".
func (vc *ValueChoices) Color(code int) string { return lookup(vc.colors, code) }

func lookup(table []string, code int) string {
	if code < 0 || code >= len(table) {
		return ""
	}
	return table[code]
}

// LabelCode returns the code of s and whether it is present.
func (vc *ValueChoices) LabelCode(s string) (int, bool) {
	code, ok := vc.labelIndex[s]
	return code, ok
}

// ColorCode returns the code of s and whether it is present.
func (vc *ValueChoices) ColorCode(s string) (int, bool) {
	code, ok := vc.colorIndex[s]
	return code, ok
}

// InternLabel returns the code of s, appending it to the table if absent.
func (vc *ValueChoices) InternLabel(s string) int {
	if code, ok := vc.labelIndex[s]; ok {
		return code
	}
	vc.labels = append(vc.labels, s)
	code := len(vc.labels) - 1
	vc.labelIndex[s] = code
	return code
}

// InternColor returns the code of s, appending it to the table if absent.
func (vc *ValueChoices) InternColor(s string) int {
	if code, ok := vc.colorIndex[s]; ok {
		return code
	}
	vc.colors = append(vc.colors, s)
	code := len(vc.colors) - 1
	vc.colorIndex[s] = code
	return code
}

// RGBA decodes a color code into an opaque colour. The empty colour and
// unparsable entries are fully transparent.
func (vc *ValueChoices) RGBA(code int) color.RGBA {
	s := vc.Color(code)
	if s == "" {
		return color.RGBA{}
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// ParseColor parses a #RGB or #RRGGBB string.
func ParseColor(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
