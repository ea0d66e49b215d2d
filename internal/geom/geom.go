// Package geom holds the plain geometry values shared by the shape
// watchers, the router and the overlay.
package geom

import "math"

// Point is a position in surface coordinates.
type Point struct {
	X, Y float64
}

// BoundingBox is an axis-aligned box. Width and Height are never negative
// when produced by this package.
type BoundingBox struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewBoundingBox clamps negative extents to zero.
func NewBoundingBox(x, y, width, height float64) BoundingBox {
	return BoundingBox{
		X:      x,
		Y:      y,
		Width:  math.Max(width, 0),
		Height: math.Max(height, 0),
	}
}

func (b BoundingBox) Right() float64  { return b.X + b.Width }
func (b BoundingBox) Bottom() float64 { return b.Y + b.Height }

// Center returns the middle of the box.
func (b BoundingBox) Center() Point {
	return Point{X: b.X + b.Width*0.5, Y: b.Y + b.Height*0.5}
}

// Translate shifts the box by (dx, dy).
func (b BoundingBox) Translate(dx, dy float64) BoundingBox {
	b.X += dx
	b.Y += dy
	return b
}

// Pad grows the box outward by margin on every side.
func (b BoundingBox) Pad(margin float64) BoundingBox {
	return NewBoundingBox(b.X-margin, b.Y-margin, b.Width+margin*2, b.Height+margin*2)
}

// Union returns the smallest box containing all of boxes. The zero box is
// returned when boxes is empty.
func Union(boxes ...BoundingBox) BoundingBox {
	if len(boxes) == 0 {
		return BoundingBox{}
	}
	minX, minY := boxes[0].X, boxes[0].Y
	maxX, maxY := boxes[0].Right(), boxes[0].Bottom()
	for _, b := range boxes[1:] {
		minX = math.Min(minX, b.X)
		minY = math.Min(minY, b.Y)
		maxX = math.Max(maxX, b.Right())
		maxY = math.Max(maxY, b.Bottom())
	}
	return NewBoundingBox(minX, minY, maxX-minX, maxY-minY)
}

// Bounds returns the bounding box of a set of points.
func Bounds(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return NewBoundingBox(minX, minY, maxX-minX, maxY-minY)
}
