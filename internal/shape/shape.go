// Package shape binds externally owned regions to geometry watchers.
//
// A Shape answers "where is this region right now" and tells its owner when
// the answer may have changed. Regions are never mutated here.
package shape

import (
	"errors"

	"reloverlay/internal/geom"
)

// ErrNilRegion is returned by Make when there is nothing to watch.
var ErrNilRegion = errors.New("shape: nil region")

// Kind names the region type and selects the watcher strategy.
type Kind string

const (
	KindText      Kind = "textregion"
	KindRectangle Kind = "rectangleregion"
	KindEllipse   Kind = "ellipseregion"
)

// Region is an annotated area owned by an external store.
type Region interface {
	ID() string
	Kind() Kind
	// Subscribe registers fn for geometry changes and returns a function
	// that removes it.
	Subscribe(fn func()) (unsubscribe func())
}

// TextRegion is backed by laid-out text spans in root-absolute coordinates.
type TextRegion interface {
	Region
	Spans() []geom.BoundingBox
}

// PolygonRegion is backed by vertices in root-absolute coordinates.
type PolygonRegion interface {
	Region
	Points() []geom.Point
}

// EllipseRegion is backed by a center and radii.
type EllipseRegion interface {
	Region
	Ellipse() (center geom.Point, rx, ry float64)
}

// StaticRegion is any region able to report a box without being watched.
// Unsupported kinds fall back to it.
type StaticRegion interface {
	Region
	BoundingBox() geom.BoundingBox
}

// Root is the rendering surface. Its origin is read, never written.
type Root interface {
	Origin() geom.Point
}

// Shape is the contract the overlay consumes.
type Shape interface {
	BoundingBox() geom.BoundingBox
	// OnUpdate sets the change callback. The callback carries no payload.
	OnUpdate(fn func())
	// Destroy releases every subscription. It is idempotent.
	Destroy()
}

// Factory builds a Shape for a region; Make is the default.
type Factory func(region Region, root Root) (Shape, error)
