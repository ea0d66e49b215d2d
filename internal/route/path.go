package route

import (
	"math"
	"strconv"
	"strings"

	"reloverlay/internal/geom"
)

// Op is a path command.
type Op int

const (
	MoveTo Op = iota
	LineTo
	// ArcBy is a quarter-turn arc of Radius; X and Y are relative.
	ArcBy
)

// Command is one step of a path. Sweep is only meaningful for ArcBy.
type Command struct {
	Op    Op
	X, Y  float64
	Sweep int
}

// Path is a routed connector.
type Path struct {
	Commands    []Command
	Label       geom.Point
	Orientation Orientation
	Side        Side
	ToEnd       bool
}

// Start is the anchor on the first box.
func (p Path) Start() geom.Point {
	if len(p.Commands) == 0 {
		return geom.Point{}
	}
	return geom.Point{X: p.Commands[0].X, Y: p.Commands[0].Y}
}

// End is the anchor on the second box.
func (p Path) End() geom.Point {
	if len(p.Commands) == 0 {
		return geom.Point{}
	}
	last := p.Commands[len(p.Commands)-1]
	return geom.Point{X: last.X, Y: last.Y}
}

// String renders the SVG path data. The segment right after the move is an
// implicit lineto.
func (p Path) String() string {
	var b strings.Builder
	for i, c := range p.Commands {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch c.Op {
		case MoveTo:
			b.WriteString("M ")
		case LineTo:
			if i == 0 || p.Commands[i-1].Op != MoveTo {
				b.WriteString("L ")
			}
		case ArcBy:
			b.WriteString("a ")
			b.WriteString(FormatNumber(Radius))
			b.WriteByte(' ')
			b.WriteString(FormatNumber(Radius))
			b.WriteString(" 0 0 ")
			b.WriteString(strconv.Itoa(c.Sweep))
			b.WriteByte(' ')
		}
		b.WriteString(FormatNumber(c.X))
		b.WriteByte(' ')
		b.WriteString(FormatNumber(c.Y))
	}
	return b.String()
}

// FormatNumber prints v in shortest round-trip form.
func FormatNumber(v float64) string {
	if v == 0 {
		// Collapses -0.
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// cornerKey indexes the corner table.
type cornerKey struct {
	orientation Orientation
	side        Side
	toEnd       bool
}

// corner holds the unit signs of one routing case. Arc offsets and the two
// turn offsets are multiplied by Radius.
type corner struct {
	sweep    int
	arc1     geom.Point
	arc2     geom.Point
	turn     float64 // offset from the first turn line to where the first arc starts
	approach float64 // offset from the end anchor to where the second arc starts
}

var corners = map[cornerKey]corner{
	{Vertical, SideNone, true}:     {sweep: 1, arc1: geom.Point{X: 1, Y: -1}, arc2: geom.Point{X: 1, Y: 1}, turn: 1, approach: -1},
	{Vertical, SideNone, false}:    {sweep: 0, arc1: geom.Point{X: -1, Y: -1}, arc2: geom.Point{X: -1, Y: 1}, turn: 1, approach: 1},
	{Horizontal, SideRight, true}:  {sweep: 1, arc1: geom.Point{X: 1, Y: 1}, arc2: geom.Point{X: -1, Y: 1}, turn: -1, approach: -1},
	{Horizontal, SideRight, false}: {sweep: 0, arc1: geom.Point{X: 1, Y: -1}, arc2: geom.Point{X: -1, Y: -1}, turn: -1, approach: 1},
	{Horizontal, SideLeft, true}:   {sweep: 0, arc1: geom.Point{X: -1, Y: 1}, arc2: geom.Point{X: 1, Y: 1}, turn: 1, approach: -1},
	{Horizontal, SideLeft, false}:  {sweep: 1, arc1: geom.Point{X: -1, Y: -1}, arc2: geom.Point{X: 1, Y: -1}, turn: 1, approach: 1},
}

func build(c controls, orientation Orientation) Path {
	k := corners[cornerKey{orientation: orientation, side: c.side, toEnd: c.toEnd}]

	var p2, p3, label geom.Point
	if orientation == Vertical {
		p2 = geom.Point{X: c.x1, Y: c.l1 + k.turn*Radius}
		p3 = geom.Point{X: c.x2 + k.approach*Radius, Y: c.l2}
		label = geom.Point{X: math.Min(c.x1, c.x2) + math.Abs(c.x2-c.x1)/2, Y: c.l1}
	} else {
		p2 = geom.Point{X: c.l1 + k.turn*Radius, Y: c.y1}
		p3 = geom.Point{X: c.l2, Y: c.y2 + k.approach*Radius}
		label = geom.Point{X: c.l1, Y: math.Min(c.y1, c.y2) + math.Abs(c.y2-c.y1)/2}
	}

	return Path{
		Commands: []Command{
			{Op: MoveTo, X: c.x1, Y: c.y1},
			{Op: LineTo, X: p2.X, Y: p2.Y},
			{Op: ArcBy, X: k.arc1.X * Radius, Y: k.arc1.Y * Radius, Sweep: k.sweep},
			{Op: LineTo, X: p3.X, Y: p3.Y},
			{Op: ArcBy, X: k.arc2.X * Radius, Y: k.arc2.Y * Radius, Sweep: k.sweep},
			{Op: LineTo, X: c.x2, Y: c.y2},
		},
		Label:       label,
		Orientation: orientation,
		Side:        c.side,
		ToEnd:       c.toEnd,
	}
}

// Corners returns the orthogonal polyline the path follows: its anchors
// and, for every arc, the corner the arc cuts.
func (p Path) Corners() []geom.Point {
	var out []geom.Point
	var prev, cur geom.Point
	for _, c := range p.Commands {
		switch c.Op {
		case MoveTo:
			cur = geom.Point{X: c.X, Y: c.Y}
			out = append(out, cur)
		case LineTo:
			prev, cur = cur, geom.Point{X: c.X, Y: c.Y}
		case ArcBy:
			next := geom.Point{X: cur.X + c.X, Y: cur.Y + c.Y}
			turn := geom.Point{X: cur.X, Y: next.Y}
			if prev.Y == cur.Y && prev.X != cur.X {
				turn = geom.Point{X: next.X, Y: cur.Y}
			}
			out = append(out, turn)
			prev, cur = turn, next
		}
	}
	if len(p.Commands) > 1 {
		out = append(out, cur)
	}
	return out
}
