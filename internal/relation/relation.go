// Package relation turns a relation descriptor into a pair of watched
// shapes and keeps them for as long as the relation is rendered.
package relation

import (
	"fmt"
	"sync"
	"time"

	"reloverlay/internal/debounce"
	"reloverlay/internal/geom"
	"reloverlay/internal/shape"
)

const (
	// DefaultColor is used for every connector and arrowhead.
	DefaultColor = "#a0a"
	// DefaultDebounce coalesces bursts of geometry notifications.
	DefaultDebounce = 50 * time.Millisecond
	// DefaultPadding keeps the connector just outside the shapes.
	DefaultPadding = 3.0
)

// Direction says which ends carry an arrowhead.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Bi    Direction = "bi"
)

// MarkerStart reports whether the start of the connector has an arrow.
func (d Direction) MarkerStart() bool { return d == Left || d == Bi }

// MarkerEnd reports whether the end of the connector has an arrow.
func (d Direction) MarkerEnd() bool { return d == Right || d == Bi }

// Descriptor is the externally owned description of a relation. It is read
// on every render and never written.
type Descriptor interface {
	ID() string
	StartNode() shape.Region
	EndNode() shape.Region
	Direction() Direction
	SelectedLabelValues() []string
}

// Relation is the materialized form of a Descriptor. It owns its two
// shapes exclusively.
type Relation struct {
	ID        string
	Start     shape.Shape
	End       shape.Shape
	Direction Direction
	Label     []string
	Color     string

	root     shape.Root
	startID  string
	endID    string
	wait     time.Duration
	padding  float64
	debounce *debounce.Debouncer

	mu        sync.Mutex
	destroyed bool
}

type options struct {
	factory shape.Factory
	wait    time.Duration
	padding float64
	color   string
}

// Option configures Materialize.
type Option func(*options)

// WithFactory replaces shape.Make.
func WithFactory(f shape.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithDebounce changes the change-notification window.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.wait = d }
}

// WithPadding changes the margin added around each shape.
func WithPadding(p float64) Option {
	return func(o *options) { o.padding = p }
}

// WithColor changes the connector color.
func WithColor(c string) Option {
	return func(o *options) { o.color = c }
}

// Materialize builds the shapes for desc. If the second shape cannot be
// built, or its backend panics, the first one is destroyed.
func Materialize(desc Descriptor, root shape.Root, opts ...Option) (*Relation, error) {
	o := options{
		factory: shape.Make,
		wait:    DefaultDebounce,
		padding: DefaultPadding,
		color:   DefaultColor,
	}
	for _, opt := range opts {
		opt(&o)
	}

	startNode, endNode := desc.StartNode(), desc.EndNode()
	start, err := o.factory(startNode, root)
	if err != nil {
		return nil, fmt.Errorf("relation %s: start shape: %w", desc.ID(), err)
	}
	built := false
	defer func() {
		if !built {
			start.Destroy()
		}
	}()
	end, err := o.factory(endNode, root)
	if err != nil {
		return nil, fmt.Errorf("relation %s: end shape: %w", desc.ID(), err)
	}
	built = true

	return &Relation{
		ID:        desc.ID(),
		Start:     start,
		End:       end,
		Direction: desc.Direction(),
		Label:     desc.SelectedLabelValues(),
		Color:     o.color,
		root:      root,
		startID:   regionID(startNode),
		endID:     regionID(endNode),
		wait:      o.wait,
		padding:   o.padding,
	}, nil
}

func regionID(r shape.Region) string {
	if r == nil {
		return ""
	}
	return r.ID()
}

// SameEndpoints reports whether desc still connects the regions this
// relation was built for.
func (r *Relation) SameEndpoints(desc Descriptor) bool {
	s, e := desc.StartNode(), desc.EndNode()
	if s == nil || e == nil {
		return false
	}
	return desc.ID() == r.ID && s.ID() == r.startID && e.ID() == r.endID
}

// Refresh copies the mutable descriptor fields that do not need new shapes.
func (r *Relation) Refresh(desc Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Direction = desc.Direction()
	r.Label = desc.SelectedLabelValues()
}

// OnChange debounces cb and attaches it to both shapes. A relation has one
// change callback; calling OnChange again replaces it.
func (r *Relation) OnChange(cb func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return
	}
	if r.debounce != nil {
		r.debounce.Cancel()
	}
	d := debounce.New(r.wait, func() {
		if r.Destroyed() {
			return
		}
		cb()
	})
	r.debounce = d
	r.Start.OnUpdate(d.Trigger)
	r.End.OnUpdate(d.Trigger)
}

// Destroy cancels a pending change callback and destroys both shapes. Only
// the first call has an effect.
func (r *Relation) Destroy() {
	r.mu.Lock()
	if r.destroyed {
		r.mu.Unlock()
		return
	}
	r.destroyed = true
	d := r.debounce
	r.mu.Unlock()

	if d != nil {
		d.Cancel()
	}
	r.Start.Destroy()
	r.End.Destroy()
}

// Destroyed reports whether Destroy has run.
func (r *Relation) Destroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.destroyed
}

// Dimensions returns both shapes in surface-local coordinates, padded.
func (r *Relation) Dimensions() (start, end geom.BoundingBox) {
	var origin geom.Point
	if r.root != nil {
		origin = r.root.Origin()
	}
	local := func(s shape.Shape) geom.BoundingBox {
		return s.BoundingBox().Translate(-origin.X, -origin.Y).Pad(r.padding)
	}
	return local(r.Start), local(r.End)
}

// Snapshot returns direction and label under the relation lock.
func (r *Relation) Snapshot() (Direction, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Direction, r.Label
}
