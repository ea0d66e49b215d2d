package overlay

import (
	"unicode/utf8"

	"reloverlay/internal/geom"
)

// Measurer returns the extent of rendered label text. The box is relative
// to the text anchor, which is centered both ways.
type Measurer interface {
	Measure(text string) geom.BoundingBox
}

// MeasureFunc adapts a function to Measurer.
type MeasureFunc func(text string) geom.BoundingBox

func (f MeasureFunc) Measure(text string) geom.BoundingBox { return f(text) }

// DefaultMeasurer estimates 12px text without a font: each rune is 0.6 em.
var DefaultMeasurer Measurer = MeasureFunc(func(text string) geom.BoundingBox {
	const size = 12.0
	w := float64(utf8.RuneCountInString(text)) * size * 0.6
	h := size * 1.15
	return geom.NewBoundingBox(-w/2, -h/2, w, h)
})
