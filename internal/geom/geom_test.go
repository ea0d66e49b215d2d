package geom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdapterRereadsSource(t *testing.T) {
	type region struct{ left, top, w, h float64 }
	r := &region{left: 1, top: 2, w: 3, h: 4}

	a := Adapter[*region]{
		Source:    r,
		GetX:      func(s *region) float64 { return s.left },
		GetY:      func(s *region) float64 { return s.top },
		GetWidth:  func(s *region) float64 { return s.w },
		GetHeight: func(s *region) float64 { return s.h },
	}
	require.Equal(t, BoundingBox{X: 1, Y: 2, Width: 3, Height: 4}, a.BoundingBox())

	r.left, r.w = 10, 30
	require.Equal(t, BoundingBox{X: 10, Y: 2, Width: 30, Height: 4}, a.BoundingBox())
}

func TestNewBoundingBoxClampsNegativeExtent(t *testing.T) {
	b := NewBoundingBox(5, 5, -1, -2)
	require.Zero(t, b.Width)
	require.Zero(t, b.Height)
}

func TestPadAndTranslate(t *testing.T) {
	b := BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}

	require.Equal(t, BoundingBox{X: 7, Y: 17, Width: 36, Height: 46}, b.Pad(3))
	require.Equal(t, BoundingBox{X: 0, Y: 25, Width: 30, Height: 40}, b.Translate(-10, 5))
	require.Equal(t, Point{X: 25, Y: 40}, b.Center())
}

func TestUnionAndBounds(t *testing.T) {
	u := Union(
		BoundingBox{X: 0, Y: 0, Width: 10, Height: 10},
		BoundingBox{X: 5, Y: -5, Width: 20, Height: 5},
	)
	require.Equal(t, BoundingBox{X: 0, Y: -5, Width: 25, Height: 15}, u)
	require.Equal(t, BoundingBox{}, Union())

	b := Bounds([]Point{{X: 3, Y: 4}, {X: -1, Y: 8}, {X: 2, Y: 0}})
	require.Equal(t, BoundingBox{X: -1, Y: 0, Width: 4, Height: 8}, b)
}
