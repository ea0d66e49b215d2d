package scene

import (
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// WriteSVG draws the regions as an SVG layer in surface-local coordinates,
// matching the overlay drawn above it.
func (s *Scene) WriteSVG(w io.Writer) {
	origin := s.Origin()
	c := svg.New(w)
	c.Startpercent(100, 100, `style="position:absolute;top:0;left:0"`)
	for _, r := range s.Regions() {
		b := r.BoundingBox().Translate(-origin.X, -origin.Y)
		x, y, width, height := px(b.X), px(b.Y), px(b.Width), px(b.Height)
		id := `id="region-` + r.ID() + `"`

		if t, ok := r.(*Text); ok {
			c.Group(id, `fill="#333"`, `style="font-size:12px;font-family:arial"`)
			for i, line := range strings.Split(t.Content(), "\n") {
				c.Text(x, y+12*(i+1), line)
			}
			c.Gend()
			continue
		}

		c.Group(id, `fill="none"`, `stroke="#555"`)
		switch r.(type) {
		case *Ellipse:
			c.Ellipse(x+width/2, y+height/2, width/2, height/2)
		case *Area:
			c.Rect(x, y, width, height, `stroke-dasharray="4 2"`)
		default:
			c.Rect(x, y, width, height)
		}
		if r.Label() != "" {
			c.Text(x+width/2, y+height/2, r.Label(), `fill="#333"`, `stroke="none"`,
				`text-anchor="middle"`, `dominant-baseline="middle"`, `style="font-size:12px;font-family:arial"`)
		}
		c.Gend()
	}
	c.End()
}

func px(v float64) int {
	return int(math.Round(v))
}
