package geom

// Adapter reads a BoundingBox out of an arbitrary source through four
// accessors. The source is re-read on every call so the result always
// reflects its current state.
type Adapter[S any] struct {
	Source    S
	GetX      func(S) float64
	GetY      func(S) float64
	GetWidth  func(S) float64
	GetHeight func(S) float64
}

// BoundingBox queries the source.
func (a Adapter[S]) BoundingBox() BoundingBox {
	return NewBoundingBox(a.GetX(a.Source), a.GetY(a.Source), a.GetWidth(a.Source), a.GetHeight(a.Source))
}
