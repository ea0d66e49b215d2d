// Package textmetrics measures label text with the Go Regular font.
package textmetrics

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"reloverlay/internal/geom"
)

// Size is the label font size in pixels.
const Size = 12.0

var parsed = sync.OnceValues(func() (*truetype.Font, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return f, nil
})

// NewFace returns a fresh face at size px and 72 DPI. Faces cache glyphs
// and must not be shared between goroutines.
func NewFace(size float64) (font.Face, error) {
	f, err := parsed()
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Metrics implements overlay.Measurer.
type Metrics struct {
	mu   sync.Mutex
	face font.Face
}

// New returns Metrics for labels rendered at size px.
func New(size float64) (*Metrics, error) {
	face, err := NewFace(size)
	if err != nil {
		return nil, err
	}
	return &Metrics{face: face}, nil
}

// Measure returns the extent of text anchored at its middle, matching
// text-anchor="middle" and dominant-baseline="middle".
func (m *Metrics) Measure(text string) geom.BoundingBox {
	m.mu.Lock()
	defer m.mu.Unlock()

	width := toFloat(font.MeasureString(m.face, text))
	metrics := m.face.Metrics()
	height := toFloat(metrics.Ascent + metrics.Descent)
	return geom.NewBoundingBox(-width/2, -height/2, width, height)
}

// LineHeight is the distance between baselines.
func (m *Metrics) LineHeight() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return toFloat(m.face.Metrics().Height)
}

func toFloat[T ~int32](v T) float64 {
	return float64(v) / 64
}
