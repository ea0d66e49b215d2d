package main

import (
	"math"
	"strings"
	"unicode/utf8"

	"reloverlay/internal/geom"
	"reloverlay/internal/overlay"
	"reloverlay/internal/scene"
)

// lineStyle is the rune set for one connector state.
type lineStyle struct {
	horizontal, vertical    rune
	topLeft, topRight       rune
	bottomLeft, bottomRight rune
}

var (
	normalLine    = lineStyle{'─', '│', '┌', '┐', '└', '┘'}
	highlightLine = lineStyle{'━', '┃', '┏', '┓', '┗', '┛'}
	dimmedLine    = lineStyle{'┄', '┆', '┌', '┐', '└', '┘'}
)

// Canvas is a character grid over the scene. Each cell covers
// cellWidth x cellHeight scene units; pan is in cells.
type Canvas struct {
	cells [][]rune
	panX  int
	panY  int
}

func NewCanvas(width, height, panX, panY int) *Canvas {
	if height < 1 {
		height = 1
	}
	if width < 1 {
		width = 1
	}
	cells := make([][]rune, height)
	for i := range cells {
		cells[i] = []rune(strings.Repeat(" ", width))
	}
	return &Canvas{cells: cells, panX: panX, panY: panY}
}

// Render draws regions, then connectors, then labels. Region and connector
// coordinates are surface-local; regions are shifted by the scene origin.
func (c *Canvas) Render(sc *scene.Scene, views []overlay.View, selected string) []string {
	origin := sc.Origin()
	for _, r := range sc.Regions() {
		box := r.BoundingBox().Translate(-origin.X, -origin.Y)
		c.drawRegion(r, box, r.ID() == selected)
	}
	for _, v := range views {
		c.drawConnection(v)
	}
	for _, v := range views {
		if v.Label != "" {
			c.drawLabel(v.Label, v.Path.Label)
		}
	}

	lines := make([]string, len(c.cells))
	for i, row := range c.cells {
		lines[i] = string(row)
	}
	return lines
}

// toCell maps a scene position to a screen cell.
func (c *Canvas) toCell(p geom.Point) point {
	return point{
		X: int(math.Floor(p.X/cellWidth)) - c.panX,
		Y: int(math.Floor(p.Y/cellHeight)) - c.panY,
	}
}

// fromCell maps a screen cell to the scene position of its top-left corner.
func fromCell(x, y, panX, panY int) geom.Point {
	return geom.Point{X: float64(x+panX) * cellWidth, Y: float64(y+panY) * cellHeight}
}

func (c *Canvas) cellSpan(box geom.BoundingBox) (x0, y0, x1, y1 int) {
	tl := c.toCell(geom.Point{X: box.X, Y: box.Y})
	x1 = int(math.Ceil(box.Right()/cellWidth)) - 1 - c.panX
	y1 = int(math.Ceil(box.Bottom()/cellHeight)) - 1 - c.panY
	return tl.X, tl.Y, max(x1, tl.X+1), max(y1, tl.Y+1)
}

func (c *Canvas) isValidPos(x, y int) bool {
	return y >= 0 && y < len(c.cells) && x >= 0 && x < len(c.cells[0])
}

func (c *Canvas) set(x, y int, r rune) {
	if c.isValidPos(x, y) {
		c.cells[y][x] = r
	}
}

func (c *Canvas) drawRegion(r scene.Region, box geom.BoundingBox, isSelected bool) {
	x0, y0, x1, y1 := c.cellSpan(box)

	if t, ok := r.(*scene.Text); ok {
		for i, line := range strings.Split(t.Content(), "\n") {
			c.writeText(x0, y0+i, line)
		}
		return
	}

	// Border runes: corners, horizontal, vertical.
	tl, tr, bl, br, h, v := '+', '+', '+', '+', '-', '|'
	switch r.(type) {
	case *scene.Ellipse:
		tl, tr, bl, br = '╭', '╮', '╰', '╯'
	case *scene.Area:
		h, v = '.', ':'
	}
	if isSelected {
		tl, tr, bl, br, h, v = '#', '#', '#', '#', '#', '#'
	}

	for x := x0 + 1; x < x1; x++ {
		c.set(x, y0, h)
		c.set(x, y1, h)
	}
	for y := y0 + 1; y < y1; y++ {
		c.set(x0, y, v)
		c.set(x1, y, v)
	}
	c.set(x0, y0, tl)
	c.set(x1, y0, tr)
	c.set(x0, y1, bl)
	c.set(x1, y1, br)

	if label := r.Label(); label != "" {
		// Truncate to the inside of the box.
		maxWidth := x1 - x0 - 1
		runes := []rune(label)
		if len(runes) > maxWidth {
			runes = runes[:max(maxWidth, 0)]
		}
		c.writeText(x0+1+(maxWidth-len(runes))/2, (y0+y1)/2, string(runes))
	}
}

func (c *Canvas) writeText(x, y int, text string) {
	i := 0
	for _, ch := range text {
		c.set(x+i, y, ch)
		i++
	}
}

// drawConnection follows the orthogonal corners of the routed path. The
// rounded corners are smaller than a cell and are drawn as plain corners.
func (c *Canvas) drawConnection(v overlay.View) {
	style := normalLine
	switch {
	case v.Highlight:
		style = highlightLine
	case v.Dimmed:
		style = dimmedLine
	}

	var pts []point
	for _, p := range v.Path.Corners() {
		cell := c.toCell(p)
		if n := len(pts); n > 0 && pts[n-1] == cell {
			continue
		}
		pts = append(pts, cell)
	}
	if len(pts) < 2 {
		return
	}

	for i := 0; i+1 < len(pts); i++ {
		c.drawLineSegment(pts[i], pts[i+1], style)
	}
	for i := 1; i+1 < len(pts); i++ {
		c.drawCorner(pts[i-1], pts[i], pts[i+1], style)
	}

	if v.Direction.MarkerStart() {
		c.drawArrow(pts[1], pts[0])
	}
	if v.Direction.MarkerEnd() {
		c.drawArrow(pts[len(pts)-2], pts[len(pts)-1])
	}
}

func (c *Canvas) drawLineSegment(from, to point, style lineStyle) {
	if from.Y == to.Y {
		for x := min(from.X, to.X); x <= max(from.X, to.X); x++ {
			c.set(x, from.Y, style.horizontal)
		}
		return
	}
	if from.X == to.X {
		for y := min(from.Y, to.Y); y <= max(from.Y, to.Y); y++ {
			c.set(from.X, y, style.vertical)
		}
	}
}

func (c *Canvas) drawCorner(prev, corner, next point, style lineStyle) {
	// Direction of the two arms leaving the corner.
	left := prev.X < corner.X || next.X < corner.X
	up := prev.Y < corner.Y || next.Y < corner.Y
	var r rune
	switch {
	case left && up:
		r = style.bottomRight
	case left:
		r = style.topRight
	case up:
		r = style.bottomLeft
	default:
		r = style.topLeft
	}
	c.set(corner.X, corner.Y, r)
}

// drawArrow puts an arrowhead at tip pointing away from from.
func (c *Canvas) drawArrow(from, tip point) {
	var r rune
	switch {
	case tip.Y > from.Y:
		r = '▼'
	case tip.Y < from.Y:
		r = '▲'
	case tip.X > from.X:
		r = '▶'
	default:
		r = '◀'
	}
	c.set(tip.X, tip.Y, r)
}

func (c *Canvas) drawLabel(label string, at geom.Point) {
	p := c.toCell(at)
	text := " " + label + " "
	c.writeText(p.X-utf8.RuneCountInString(text)/2, p.Y, text)
}

// GetRegionAt returns the id of the topmost region covering the cell.
func GetRegionAt(sc *scene.Scene, x, y, panX, panY int) string {
	origin := sc.Origin()
	c := &Canvas{panX: panX, panY: panY}
	regions := sc.Regions()
	for i := len(regions) - 1; i >= 0; i-- {
		box := regions[i].BoundingBox().Translate(-origin.X, -origin.Y)
		x0, y0, x1, y1 := c.cellSpan(box)
		if x >= x0 && x <= x1 && y >= y0 && y <= y1 {
			return regions[i].ID()
		}
	}
	return ""
}
