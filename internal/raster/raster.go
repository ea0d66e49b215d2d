// Package raster draws overlay views into a PNG.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"

	"reloverlay/internal/geom"
	"reloverlay/internal/overlay"
	"reloverlay/internal/route"
	"reloverlay/internal/textmetrics"
)

// ErrNothingToDraw is returned when there are no views and no regions.
var ErrNothingToDraw = errors.New("raster: nothing to draw")

const (
	margin    = 20.0
	arrowSize = 8.0
	// arrowAngle is the half-width of the arrowhead relative to its length.
	arrowAngle = 0.5
)

// Region is an annotated area drawn beneath the connectors.
type Region struct {
	Box   geom.BoundingBox
	Label string
}

// Options control Draw.
type Options struct {
	// Regions are drawn as outlined boxes; may be empty.
	Regions []Region
	// Background fills the image; white when nil.
	Background color.Color
	// Face renders labels; a Go Regular face is created when nil.
	Face font.Face
}

// Draw renders views onto an image sized to fit everything plus a margin.
func Draw(views []overlay.View, opts Options) (image.Image, error) {
	dc, err := draw(views, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG draws and encodes in one step.
func WritePNG(w io.Writer, views []overlay.View, opts Options) error {
	dc, err := draw(views, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func draw(views []overlay.View, opts Options) (*gg.Context, error) {
	bounds, ok := extent(views, opts.Regions)
	if !ok {
		return nil, ErrNothingToDraw
	}
	face := opts.Face
	if face == nil {
		var err error
		if face, err = textmetrics.NewFace(textmetrics.Size); err != nil {
			return nil, err
		}
	}

	dc := gg.NewContext(int(math.Ceil(bounds.Width+2*margin)), int(math.Ceil(bounds.Height+2*margin)))
	if opts.Background != nil {
		dc.SetColor(opts.Background)
	} else {
		dc.SetColor(color.White)
	}
	dc.Clear()
	dc.SetFontFace(face)
	dc.Translate(margin-bounds.X, margin-bounds.Y)

	for _, r := range opts.Regions {
		drawRegion(dc, r)
	}
	for _, v := range views {
		if err := drawView(dc, v); err != nil {
			return nil, fmt.Errorf("relation %s: %w", v.ID, err)
		}
	}
	return dc, nil
}

func extent(views []overlay.View, regions []Region) (geom.BoundingBox, bool) {
	var boxes []geom.BoundingBox
	for _, r := range regions {
		boxes = append(boxes, r.Box)
	}
	for _, v := range views {
		boxes = append(boxes, v.Start, v.End, geom.Bounds(points(v.Path)))
		if v.Label != "" {
			boxes = append(boxes, v.LabelBox.Translate(v.Path.Label.X, v.Path.Label.Y))
		}
	}
	if len(boxes) == 0 {
		return geom.BoundingBox{}, false
	}
	return geom.Union(boxes...), true
}

// points resolves a path into absolute vertices, one per command.
func points(p route.Path) []geom.Point {
	out := make([]geom.Point, 0, len(p.Commands))
	var cur geom.Point
	for _, c := range p.Commands {
		if c.Op == route.ArcBy {
			cur = geom.Point{X: cur.X + c.X, Y: cur.Y + c.Y}
		} else {
			cur = geom.Point{X: c.X, Y: c.Y}
		}
		out = append(out, cur)
	}
	return out
}

func drawRegion(dc *gg.Context, r Region) {
	dc.SetLineWidth(1)
	dc.SetColor(color.Gray{Y: 0x60})
	dc.DrawRectangle(r.Box.X, r.Box.Y, r.Box.Width, r.Box.Height)
	dc.Stroke()
	if r.Label != "" {
		dc.DrawStringAnchored(r.Label, r.Box.X+r.Box.Width/2, r.Box.Y+r.Box.Height/2, 0.5, 0.5)
	}
}

func drawView(dc *gg.Context, v overlay.View) error {
	base, err := parseColor(v.Color)
	if err != nil {
		return err
	}
	alpha := 1.0
	if v.Dimmed {
		alpha = 0.5
	}

	if v.Highlight {
		dc.SetColor(withAlpha(base, 0.1*alpha))
		dc.SetLineWidth(6)
		tracePath(dc, v.Path)
		dc.Stroke()
	}

	stroke := withAlpha(base, alpha)
	dc.SetColor(stroke)
	dc.SetLineWidth(2)
	dc.SetLineCapRound()
	tracePath(dc, v.Path)
	dc.Stroke()

	pts := points(v.Path)
	if n := len(pts); n >= 2 {
		if v.Direction.MarkerStart() {
			drawArrow(dc, pts[1], pts[0])
		}
		if v.Direction.MarkerEnd() {
			drawArrow(dc, pts[n-2], pts[n-1])
		}
	}

	if v.Label != "" {
		drawLabel(dc, v, stroke, alpha)
	}
	return nil
}

// tracePath replays the commands. Quarter arcs become quadratic curves
// whose control point continues the incoming segment.
func tracePath(dc *gg.Context, p route.Path) {
	var prev, cur geom.Point
	for _, c := range p.Commands {
		switch c.Op {
		case route.MoveTo:
			cur = geom.Point{X: c.X, Y: c.Y}
			dc.MoveTo(cur.X, cur.Y)
		case route.LineTo:
			prev, cur = cur, geom.Point{X: c.X, Y: c.Y}
			dc.LineTo(cur.X, cur.Y)
		case route.ArcBy:
			next := geom.Point{X: cur.X + c.X, Y: cur.Y + c.Y}
			ctrl := geom.Point{X: cur.X, Y: next.Y}
			if prev.Y == cur.Y && prev.X != cur.X {
				ctrl = geom.Point{X: next.X, Y: cur.Y}
			}
			dc.QuadraticTo(ctrl.X, ctrl.Y, next.X, next.Y)
			prev, cur = ctrl, next
		}
	}
}

// drawArrow fills a head at to pointing away from from.
func drawArrow(dc *gg.Context, from, to geom.Point) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length < 0.1 {
		return
	}
	dx /= length
	dy /= length

	dc.MoveTo(to.X, to.Y)
	dc.LineTo(to.X-arrowSize*dx+arrowSize*dy*arrowAngle, to.Y-arrowSize*dy-arrowSize*dx*arrowAngle)
	dc.LineTo(to.X-arrowSize*dx-arrowSize*dy*arrowAngle, to.Y-arrowSize*dy+arrowSize*dx*arrowAngle)
	dc.ClosePath()
	dc.Fill()
}

func drawLabel(dc *gg.Context, v overlay.View, fill color.Color, alpha float64) {
	box := v.LabelBox.Translate(v.Path.Label.X, v.Path.Label.Y)
	dc.DrawRoundedRectangle(box.X, box.Y, box.Width, box.Height, 3)
	dc.SetColor(fill)
	dc.FillPreserve()
	dc.SetColor(withAlpha(colorful.Color{R: 1, G: 1, B: 1}, alpha))
	dc.SetLineWidth(2)
	dc.Stroke()

	dc.SetColor(withAlpha(colorful.Color{R: 1, G: 1, B: 1}, alpha))
	dc.DrawStringAnchored(v.Label, v.Path.Label.X, v.Path.Label.Y, 0.5, 0.5)
}

func parseColor(s string) (colorful.Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return c, nil
}

func withAlpha(c colorful.Color, alpha float64) color.NRGBA {
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}
}
