// Package overlay draws every relation of a scene as one transparent SVG
// layer that sits above the primary content.
//
// The overlay keeps one item per relation id. An item owns the materialized
// relation (and through it the two shape watchers), listens to its debounced
// change notifications and re-renders only its own fragment. Render stitches
// the cached fragments into a document.
//
// Nothing is materialized until Mount: before the root can answer origin
// queries the overlay renders an empty layer.
package overlay

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	svg "github.com/ajstarks/svgo"

	"reloverlay/internal/relation"
	"reloverlay/internal/shape"
)

// Overlay is safe for concurrent use.
type Overlay struct {
	root     shape.Root
	logger   *slog.Logger
	measurer Measurer
	relOpts  []relation.Option
	onRender func(id string)

	mu          sync.Mutex
	mounted     bool
	closed      bool
	visible     bool
	highlighted string
	pending     []relation.Descriptor
	order       []string
	items       map[string]*item
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *Overlay) { o.logger = l }
}

// WithMeasurer injects the label text measurement.
func WithMeasurer(m Measurer) Option {
	return func(o *Overlay) { o.measurer = m }
}

// WithRelationOptions is passed to relation.Materialize.
func WithRelationOptions(opts ...relation.Option) Option {
	return func(o *Overlay) { o.relOpts = append(o.relOpts, opts...) }
}

// WithRenderHook is called with a relation id after that relation alone was
// re-rendered because its geometry changed.
func WithRenderHook(fn func(id string)) Option {
	return func(o *Overlay) { o.onRender = fn }
}

// New returns an unmounted, visible overlay.
func New(root shape.Root, opts ...Option) *Overlay {
	o := &Overlay{
		root:     root,
		logger:   slog.Default(),
		measurer: DefaultMeasurer,
		visible:  true,
		items:    make(map[string]*item),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Mount marks the root as available and materializes the relations passed
// to Update so far.
func (o *Overlay) Mount() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mounted || o.closed {
		return
	}
	o.mounted = true
	o.reconcile()
}

// Mounted reports whether Mount has run.
func (o *Overlay) Mounted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mounted
}

// Update replaces the rendered relation set. Relations whose id and
// endpoints are unchanged keep their shapes; the rest are destroyed before
// new shapes are built. highlighted is a relation id or "".
func (o *Overlay) Update(descs []relation.Descriptor, highlighted string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.pending = descs
	o.highlighted = highlighted
	if o.mounted {
		o.reconcile()
	}
}

// SetVisible hides or shows the layer. Relations stay materialized.
func (o *Overlay) SetVisible(visible bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = visible
}

// Visible reports the visibility flag.
func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Close destroys every relation. The overlay renders empty afterwards.
func (o *Overlay) Close() {
	o.mu.Lock()
	items := o.items
	o.items = make(map[string]*item)
	o.order = nil
	o.pending = nil
	o.closed = true
	o.mounted = false
	o.mu.Unlock()

	for _, it := range items {
		it.destroy()
	}
}

// reconcile must be called with o.mu held.
func (o *Overlay) reconcile() {
	hasHighlight := o.highlighted != ""
	seen := make(map[string]bool, len(o.pending))
	order := make([]string, 0, len(o.pending))

	for _, desc := range o.pending {
		id := desc.ID()
		if seen[id] {
			o.logger.Warn("duplicate relation id ignored", "relation", id)
			continue
		}
		seen[id] = true

		it, ok := o.items[id]
		if ok && !it.rel.SameEndpoints(desc) {
			o.logger.Debug("relation endpoints changed", "relation", id)
			it.destroy()
			delete(o.items, id)
			ok = false
		}
		if ok {
			it.rel.Refresh(desc)
		} else {
			rel, err := o.materialize(desc)
			if err != nil {
				o.logger.Warn("relation not rendered", "relation", id, "error", err)
				continue
			}
			it = newItem(rel, o.measurer, o.logger)
			o.items[id] = it
			rel.OnChange(func() { o.changed(it) })
		}

		highlight := id == o.highlighted
		it.setState(highlight, hasHighlight && !highlight)
		it.render()
		order = append(order, id)
	}

	for id, it := range o.items {
		if !seen[id] {
			it.destroy()
			delete(o.items, id)
		}
	}
	o.order = order
}

// materialize builds one relation; a panic in a shape backend is turned into
// an error so that only this relation goes missing.
func (o *Overlay) materialize(desc relation.Descriptor) (rel *relation.Relation, err error) {
	defer func() {
		if r := recover(); r != nil {
			rel, err = nil, fmt.Errorf("relation %s: %v", desc.ID(), r)
		}
	}()
	return relation.Materialize(desc, o.root, o.relOpts...)
}

func (o *Overlay) changed(it *item) {
	if !it.render() {
		return
	}
	o.logger.Debug("relation re-rendered", "relation", it.rel.ID)
	if o.onRender != nil {
		o.onRender(it.rel.ID)
	}
}

// Render writes the SVG document for the current state.
func (o *Overlay) Render(w io.Writer) error {
	cw := &errWriter{w: w}
	canvas := svg.New(cw)

	o.mu.Lock()
	defer o.mu.Unlock()

	canvas.Startpercent(100, 100, `style="`+layerStyle(o.visible)+`"`)
	if o.mounted {
		canvas.Def()
		for _, id := range o.order {
			arrowMarker(canvas, id, o.items[id].rel.Color)
		}
		canvas.DefEnd()
		for _, id := range o.order {
			cw.Write(o.items[id].fragment())
		}
	}
	canvas.End()
	return cw.err
}

func layerStyle(visible bool) string {
	visibility := "hidden"
	if visible {
		visibility = "visible"
	}
	return "top:0;left:0;width:100%;height:100%;position:absolute;pointer-events:none;z-index:100;visibility:" + visibility
}

func arrowMarker(canvas *svg.SVG, id, color string) {
	canvas.Marker(MarkerID(id), 8, 5, 4, 4, `viewBox="0 0 10 10"`, `orient="auto-start-reverse"`)
	canvas.Path("M 0 0 L 10 5 L 0 10 z", `fill="`+color+`"`)
	canvas.MarkerEnd()
}

// MarkerID is the arrowhead definition id of a relation.
func MarkerID(relationID string) string {
	return "arrow-" + relationID
}

// errWriter keeps the first write error; svgo ignores them.
type errWriter struct {
	w   io.Writer
	err error
}

func (c *errWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.err = err
	return n, err
}

// Snapshot returns the last rendered view of every drawn relation, in
// descriptor order.
func (o *Overlay) Snapshot() []View {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.mounted {
		return nil
	}
	views := make([]View, 0, len(o.order))
	for _, id := range o.order {
		if v, ok := o.items[id].snapshot(); ok {
			views = append(views, v)
		}
	}
	return views
}

// Renders reports how many times a relation's fragment has been computed.
func (o *Overlay) Renders(id string) int {
	o.mu.Lock()
	it, ok := o.items[id]
	o.mu.Unlock()
	if !ok {
		return 0
	}
	return it.renderCount()
}
