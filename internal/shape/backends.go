package shape

import "reloverlay/internal/geom"

// Make picks a watcher for the region's kind. Unsupported kinds get a
// static shape instead of an error so the relation still renders. Regions
// report root-absolute geometry, so root is only part of the factory
// signature for backends that need to query it.
func Make(region Region, _ Root) (Shape, error) {
	if region == nil {
		return nil, ErrNilRegion
	}
	if box := watchedBox(region); box != nil {
		return newWatcher(region, box), nil
	}
	return staticShape(region), nil
}

func watchedBox(region Region) boxSource {
	switch region.Kind() {
	case KindText:
		if r, ok := region.(TextRegion); ok {
			return spanBox(r)
		}
	case KindRectangle:
		if r, ok := region.(PolygonRegion); ok {
			return polygonBox(r)
		}
	case KindEllipse:
		if r, ok := region.(EllipseRegion); ok {
			return ellipseBox(r)
		}
	}
	return nil
}

func staticShape(region Region) Shape {
	s := &static{}
	if r, ok := region.(StaticRegion); ok {
		s.box = r.BoundingBox()
	}
	return s
}

// spanBox follows the first laid-out span of a text region.
func spanBox(r TextRegion) boxSource {
	first := func(r TextRegion) geom.BoundingBox {
		spans := r.Spans()
		if len(spans) == 0 {
			return geom.BoundingBox{}
		}
		return spans[0]
	}
	return geom.Adapter[TextRegion]{
		Source:    r,
		GetX:      func(r TextRegion) float64 { return first(r).X },
		GetY:      func(r TextRegion) float64 { return first(r).Y },
		GetWidth:  func(r TextRegion) float64 { return first(r).Width },
		GetHeight: func(r TextRegion) float64 { return first(r).Height },
	}
}

func polygonBox(r PolygonRegion) boxSource {
	bounds := func(r PolygonRegion) geom.BoundingBox { return geom.Bounds(r.Points()) }
	return geom.Adapter[PolygonRegion]{
		Source:    r,
		GetX:      func(r PolygonRegion) float64 { return bounds(r).X },
		GetY:      func(r PolygonRegion) float64 { return bounds(r).Y },
		GetWidth:  func(r PolygonRegion) float64 { return bounds(r).Width },
		GetHeight: func(r PolygonRegion) float64 { return bounds(r).Height },
	}
}

func ellipseBox(r EllipseRegion) boxSource {
	return geom.Adapter[EllipseRegion]{
		Source: r,
		GetX: func(r EllipseRegion) float64 {
			c, rx, _ := r.Ellipse()
			return c.X - rx
		},
		GetY: func(r EllipseRegion) float64 {
			c, _, ry := r.Ellipse()
			return c.Y - ry
		},
		GetWidth: func(r EllipseRegion) float64 {
			_, rx, _ := r.Ellipse()
			return rx * 2
		},
		GetHeight: func(r EllipseRegion) float64 {
			_, _, ry := r.Ellipse()
			return ry * 2
		},
	}
}
