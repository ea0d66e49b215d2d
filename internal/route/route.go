// Package route computes orthogonal connectors with rounded corners between
// two bounding boxes.
//
// Boxes that share a horizontal band get a connector that rises above both
// of them (a top path). Boxes stacked over one another get a connector that
// runs along their left or right side (a side path). Route is pure: equal
// inputs give equal outputs.
package route

import (
	"math"

	"reloverlay/internal/geom"
)

const (
	// Limit is the clearance between a box edge and the connector's turn line.
	Limit = 15.0
	// Radius is the corner radius of every turn.
	Radius = 5.0
)

// Orientation of the connector's middle run relative to its endpoints.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

// Side is the margin a side path runs along. Top paths have no side.
type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// controls are the four coordinates a path is built from: the two anchors
// and the per-endpoint turn lines l1, l2.
type controls struct {
	x1, y1, x2, y2 float64
	l1, l2         float64
	toEnd          bool
	side           Side
}

// Route connects start to end.
func Route(start, end geom.BoundingBox) Path {
	if Intersecting(start, end) {
		return build(sidePath(start, end), Horizontal)
	}
	return build(topPath(start, end), Vertical)
}

// Intersecting reports whether the boxes get a side path: they sit at
// different y and one box has a horizontal edge within the other's span.
// Boxes with equal y are never intersecting, even when they overlap.
func Intersecting(a, b geom.BoundingBox) bool {
	if a.Y == b.Y {
		return false
	}
	within := func(v float64, r geom.BoundingBox) bool {
		return r.X <= v && v <= r.Right()
	}
	return within(b.X, a) || within(b.Right(), a) || within(a.X, b) || within(a.Right(), b)
}

func topPath(a, b geom.BoundingBox) controls {
	x1 := a.X + a.Width*0.5
	x2 := b.X + b.Width*0.5

	top := math.Min(a.Y, b.Y) - Limit
	return controls{
		x1:    x1,
		y1:    a.Y,
		x2:    x2,
		y2:    b.Y,
		l1:    math.Min(top, a.Y-Limit),
		l2:    math.Min(top, b.Y-Limit),
		toEnd: x1 < x2,
		side:  SideNone,
	}
}

func sidePath(a, b geom.BoundingBox) controls {
	c := controls{
		y1:   a.Y + a.Height*0.5,
		y2:   b.Y + b.Height*0.5,
		side: SideLeft,
	}
	if math.Min(a.X, b.X)-Limit < 0 {
		c.side = SideRight
	}

	if c.side == SideLeft {
		c.x1, c.x2 = a.X, b.X
		left := math.Min(c.x1, c.x2) - Limit
		c.l1 = math.Min(left, c.x1-Limit)
		c.l2 = math.Min(left, c.x2-Limit)
	} else {
		c.x1, c.x2 = a.Right(), b.Right()
		right := math.Max(c.x1, c.x2) + Limit
		c.l1 = math.Max(right, c.x1+Limit)
		c.l2 = math.Max(right, c.x2+Limit)
	}
	c.toEnd = c.y1 < c.y2
	return c
}
