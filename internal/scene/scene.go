// Package scene is an in-memory annotation store: regions drawn over a
// surface and the relations between them. Scenes are loaded from and saved
// to HCL files.
package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"reloverlay/internal/geom"
	"reloverlay/internal/relation"
	"reloverlay/internal/shape"
)

var (
	ErrUnknownRegion = errors.New("scene: unknown region")
	ErrUnknownLink   = errors.New("scene: unknown relation")
	ErrDuplicateID   = errors.New("scene: duplicate id")
)

// Link is an immutable relation descriptor. Changing a relation replaces
// its Link.
type Link struct {
	id        string
	start     Region
	end       Region
	direction relation.Direction
	labels    []string
}

func (l Link) ID() string                    { return l.id }
func (l Link) StartNode() shape.Region       { return l.start }
func (l Link) EndNode() shape.Region         { return l.end }
func (l Link) Direction() relation.Direction { return l.direction }
func (l Link) SelectedLabelValues() []string { return slices.Clone(l.labels) }

// Scene is safe for concurrent use. Regions notify their own subscribers;
// structural changes (adding or removing regions and relations) are picked
// up by whoever reads Descriptors again.
type Scene struct {
	mu          sync.RWMutex
	origin      geom.Point
	regions     []Region
	links       []Link
	highlighted string
	hidden      bool
}

func New() *Scene {
	return &Scene{}
}

// Origin implements shape.Root.
func (s *Scene) Origin() geom.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin
}

func (s *Scene) SetOrigin(p geom.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.origin = p
}

// NewID returns a fresh random id.
func NewID() string {
	return uuid.NewString()
}

// Add inserts r. It fails when the id is taken.
func (s *Scene) Add(r Region) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(r.ID()) >= 0 || s.linkIndex(r.ID()) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, r.ID())
	}
	s.regions = append(s.regions, r)
	return nil
}

// Region looks up a region by id.
func (s *Scene) Region(id string) (Region, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.regions[i], true
	}
	return nil, false
}

// Regions returns the regions in insertion order.
func (s *Scene) Regions() []Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.regions)
}

// Move translates a region.
func (s *Scene) Move(id string, dx, dy float64) error {
	r, ok := s.Region(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRegion, id)
	}
	r.SetBox(r.BoundingBox().Translate(dx, dy))
	return nil
}

// Resize grows or shrinks a region from its top-left corner. Extents
// never drop below one unit.
func (s *Scene) Resize(id string, dw, dh float64) error {
	r, ok := s.Region(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRegion, id)
	}
	b := r.BoundingBox()
	r.SetBox(geom.BoundingBox{X: b.X, Y: b.Y, Width: max(b.Width+dw, 1), Height: max(b.Height+dh, 1)})
	return nil
}

// SetBox places a region.
func (s *Scene) SetBox(id string, box geom.BoundingBox) error {
	r, ok := s.Region(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRegion, id)
	}
	r.SetBox(box)
	return nil
}

// Remove deletes a region and every relation touching it.
func (s *Scene) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRegion, id)
	}
	s.regions = slices.Delete(s.regions, i, i+1)
	s.links = slices.DeleteFunc(s.links, func(l Link) bool {
		return l.start.ID() == id || l.end.ID() == id
	})
	if s.linkIndex(s.highlighted) < 0 {
		s.highlighted = ""
	}
	return nil
}

// Connect adds or replaces the relation id between two regions.
func (s *Scene) Connect(id, start, end string, dir relation.Direction, labels ...string) (Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) >= 0 {
		return Link{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	si, ei := s.indexOf(start), s.indexOf(end)
	if si < 0 {
		return Link{}, fmt.Errorf("relation %s: %w: %s", id, ErrUnknownRegion, start)
	}
	if ei < 0 {
		return Link{}, fmt.Errorf("relation %s: %w: %s", id, ErrUnknownRegion, end)
	}

	l := Link{
		id:        id,
		start:     s.regions[si],
		end:       s.regions[ei],
		direction: dir,
		labels:    slices.Clone(labels),
	}
	if i := s.linkIndex(id); i >= 0 {
		s.links[i] = l
	} else {
		s.links = append(s.links, l)
	}
	return l, nil
}

// Disconnect removes a relation.
func (s *Scene) Disconnect(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.linkIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLink, id)
	}
	s.links = slices.Delete(s.links, i, i+1)
	if s.highlighted == id {
		s.highlighted = ""
	}
	return nil
}

// Links returns the relations in insertion order.
func (s *Scene) Links() []Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.links)
}

// Descriptors returns the relations as overlay input.
func (s *Scene) Descriptors() []relation.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]relation.Descriptor, len(s.links))
	for i, l := range s.links {
		out[i] = l
	}
	return out
}

// Highlight selects a relation; "" clears the selection.
func (s *Scene) Highlight(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.linkIndex(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLink, id)
	}
	s.highlighted = id
	return nil
}

func (s *Scene) Highlighted() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highlighted
}

// CycleHighlight moves the selection to the next relation, then to none.
func (s *Scene) CycleHighlight() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.linkIndex(s.highlighted) + 1
	if next >= len(s.links) {
		s.highlighted = ""
	} else {
		s.highlighted = s.links[next].id
	}
	return s.highlighted
}

func (s *Scene) SetVisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = !v
}

func (s *Scene) Visible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.hidden
}

func (s *Scene) indexOf(id string) int {
	return slices.IndexFunc(s.regions, func(r Region) bool { return r.ID() == id })
}

func (s *Scene) linkIndex(id string) int {
	return slices.IndexFunc(s.links, func(l Link) bool { return l.id == id })
}
