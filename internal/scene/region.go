package scene

import (
	"strings"
	"sync"
	"unicode/utf8"

	"reloverlay/internal/geom"
	"reloverlay/internal/shape"
)

// KindArea is a region the overlay has no watcher for. Its connectors are
// placed once and do not follow it.
const KindArea shape.Kind = "arearegion"

// Region is an annotated area of the scene. All regions report their box
// in root-absolute coordinates and notify subscribers when it changes.
type Region interface {
	shape.StaticRegion
	Label() string
	SetBox(geom.BoundingBox)
}

// notifier is the subscription half of every region.
type notifier struct {
	id    string
	label string

	mu   sync.Mutex
	box  geom.BoundingBox
	next int
	subs map[int]func()
}

func (n *notifier) init(id, label string, box geom.BoundingBox) {
	n.id, n.label = id, label
	n.box = geom.NewBoundingBox(box.X, box.Y, box.Width, box.Height)
}

func (n *notifier) ID() string    { return n.id }
func (n *notifier) Label() string { return n.label }

func (n *notifier) BoundingBox() geom.BoundingBox {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.box
}

func (n *notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	key := n.next
	n.next++
	n.subs[key] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs, key)
		})
	}
}

// SetBox replaces the geometry and notifies subscribers outside the lock.
func (n *notifier) SetBox(b geom.BoundingBox) {
	n.mu.Lock()
	n.box = geom.NewBoundingBox(b.X, b.Y, b.Width, b.Height)
	subs := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (n *notifier) subscribers() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Rect is a rectangle annotation, watched through its vertices.
type Rect struct{ notifier }

func NewRect(id, label string, box geom.BoundingBox) *Rect {
	r := &Rect{}
	r.init(id, label, box)
	return r
}

func (r *Rect) Kind() shape.Kind { return shape.KindRectangle }

func (r *Rect) Points() []geom.Point {
	b := r.BoundingBox()
	return []geom.Point{
		{X: b.X, Y: b.Y},
		{X: b.Right(), Y: b.Y},
		{X: b.Right(), Y: b.Bottom()},
		{X: b.X, Y: b.Bottom()},
	}
}

// Ellipse is an ellipse annotation inscribed in its box.
type Ellipse struct{ notifier }

func NewEllipse(id, label string, center geom.Point, rx, ry float64) *Ellipse {
	e := &Ellipse{}
	e.init(id, label, geom.NewBoundingBox(center.X-rx, center.Y-ry, rx*2, ry*2))
	return e
}

func (e *Ellipse) Kind() shape.Kind { return shape.KindEllipse }

func (e *Ellipse) Ellipse() (geom.Point, float64, float64) {
	b := e.BoundingBox()
	return b.Center(), b.Width / 2, b.Height / 2
}

// Text is a text annotation. Each line of its content is one span of
// equal height stacked inside the box.
type Text struct {
	notifier
	content string
}

func NewText(id, content string, box geom.BoundingBox) *Text {
	t := &Text{content: content}
	t.init(id, firstLine(content), box)
	return t
}

func (t *Text) Kind() shape.Kind { return shape.KindText }
func (t *Text) Content() string  { return t.content }

// Spans hug their line's text relative to the longest line.
func (t *Text) Spans() []geom.BoundingBox {
	b := t.BoundingBox()
	lines := strings.Split(t.content, "\n")
	longest := longestLine(lines)
	h := b.Height / float64(len(lines))

	spans := make([]geom.BoundingBox, len(lines))
	for i, line := range lines {
		w := b.Width
		if longest > 0 {
			w = b.Width * float64(utf8.RuneCountInString(line)) / float64(longest)
		}
		spans[i] = geom.NewBoundingBox(b.X, b.Y+h*float64(i), w, h)
	}
	return spans
}

// Area is a region of a kind the overlay does not watch.
type Area struct{ notifier }

func NewArea(id, label string, box geom.BoundingBox) *Area {
	a := &Area{}
	a.init(id, label, box)
	return a
}

func (a *Area) Kind() shape.Kind { return KindArea }

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func longestLine(lines []string) int {
	n := 0
	for _, l := range lines {
		n = max(n, utf8.RuneCountInString(l))
	}
	return n
}
