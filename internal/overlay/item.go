package overlay

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	svg "github.com/ajstarks/svgo"

	"reloverlay/internal/geom"
	"reloverlay/internal/relation"
	"reloverlay/internal/route"
)

const (
	labelPadX = 5.0
	labelPadY = 3.0
)

// View is one relation as it was last rendered.
type View struct {
	ID        string
	Start     geom.BoundingBox
	End       geom.BoundingBox
	Path      route.Path
	Direction relation.Direction
	Label     string
	// LabelBox is the label background relative to Path.Label.
	LabelBox  geom.BoundingBox
	Color     string
	Highlight bool
	Dimmed    bool
}

// item is the rendered visual of one relation.
type item struct {
	rel      *relation.Relation
	measurer Measurer
	logger   *slog.Logger

	mu        sync.Mutex
	dead      bool
	highlight bool
	dimmed    bool
	view      View
	buf       []byte
	renders   int
}

func newItem(rel *relation.Relation, m Measurer, logger *slog.Logger) *item {
	return &item{rel: rel, measurer: m, logger: logger}
}

func (it *item) setState(highlight, dimmed bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.highlight = highlight
	it.dimmed = dimmed
}

// render recomputes the fragment. It reports false when the item is
// destroyed or the relation could not be drawn; in the latter case the
// relation renders as absent.
func (it *item) render() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.dead {
		return false
	}

	view, err := it.layout()
	if err != nil {
		it.logger.Warn("relation not drawn", "relation", it.rel.ID, "error", err)
		it.buf = nil
		return false
	}
	it.view = view
	it.buf = drawFragment(view)
	it.renders++
	return true
}

func (it *item) layout() (v View, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("layout: %v", r)
		}
	}()

	start, end := it.rel.Dimensions()
	dir, labels := it.rel.Snapshot()
	v = View{
		ID:        it.rel.ID,
		Start:     start,
		End:       end,
		Path:      route.Route(start, end),
		Direction: dir,
		Label:     strings.Join(labels, ", "),
		Color:     it.rel.Color,
		Highlight: it.highlight,
		Dimmed:    it.dimmed,
	}
	if v.Label != "" {
		text := it.measurer.Measure(v.Label)
		v.LabelBox = geom.NewBoundingBox(
			text.X-labelPadX,
			text.Y-labelPadY,
			text.Width+labelPadX*2,
			text.Height+labelPadY*2,
		)
	}
	return v, nil
}

// destroy waits for an in-flight render, then releases the relation.
func (it *item) destroy() {
	it.mu.Lock()
	if it.dead {
		it.mu.Unlock()
		return
	}
	it.dead = true
	it.buf = nil
	it.mu.Unlock()

	it.rel.Destroy()
}

func (it *item) fragment() []byte {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.buf
}

func (it *item) snapshot() (View, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.view, it.buf != nil
}

func (it *item) renderCount() int {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.renders
}

func drawFragment(v View) []byte {
	var buf bytes.Buffer
	c := svg.New(&buf)

	opacity := "1"
	if v.Dimmed {
		opacity = "0.5"
	}
	c.Group(`opacity="` + opacity + `"`)

	// Hit areas, unused for now.
	hitRect(c, v.Start)
	hitRect(c, v.End)

	d := v.Path.String()
	stroke := func(extra ...string) []string {
		return append([]string{`stroke="` + v.Color + `"`, `fill="none"`, `stroke-linecap="round"`}, extra...)
	}
	if v.Highlight {
		c.Path(d, stroke(`opacity="0.1"`, `stroke-width="6"`)...)
	}
	attrs := stroke(`stroke-width="2"`)
	if v.Direction.MarkerStart() {
		attrs = append(attrs, `marker-start="url(#`+MarkerID(v.ID)+`)"`)
	}
	if v.Direction.MarkerEnd() {
		attrs = append(attrs, `marker-end="url(#`+MarkerID(v.ID)+`)"`)
	}
	c.Path(d, attrs...)

	if v.Label != "" {
		translate := fmt.Sprintf(`transform="translate(%s, %s)"`,
			route.FormatNumber(v.Path.Label.X), route.FormatNumber(v.Path.Label.Y))
		c.Group(translate, `text-anchor="middle"`, `dominant-baseline="middle"`)
		c.Roundrect(px(v.LabelBox.X), px(v.LabelBox.Y), px(v.LabelBox.Width), px(v.LabelBox.Height), 3, 3,
			`stroke="#fff"`, `stroke-width="2"`, `fill="`+v.Color+`"`)
		c.Text(0, 0, v.Label, `fill="white"`, `style="font-size:12px;font-family:arial"`)
		c.Gend()
	}

	c.Gend()
	return buf.Bytes()
}

func hitRect(c *svg.SVG, b geom.BoundingBox) {
	c.Rect(px(b.X), px(b.Y), px(b.Width), px(b.Height), `fill="none"`)
}

func px(v float64) int {
	return int(math.Round(v))
}
