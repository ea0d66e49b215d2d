package route

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"reloverlay/internal/geom"
)

func box(x, y, w, h float64) geom.BoundingBox {
	return geom.BoundingBox{X: x, Y: y, Width: w, Height: h}
}

// Every cell of the corner table, checked against hand-traced paths.
func TestRouteCornerTable(t *testing.T) {
	tests := []struct {
		name        string
		start, end  geom.BoundingBox
		want        string
		label       geom.Point
		orientation Orientation
		side        Side
		toEnd       bool
	}{
		{
			name:        "vertical toEnd",
			start:       box(0, 0, 50, 20),
			end:         box(100, 0, 40, 20),
			want:        "M 25 0 25 -10 a 5 5 0 0 1 5 -5 L 115 -15 a 5 5 0 0 1 5 5 L 120 0",
			label:       geom.Point{X: 72.5, Y: -15},
			orientation: Vertical,
			side:        SideNone,
			toEnd:       true,
		},
		{
			name:        "vertical backwards",
			start:       box(100, 0, 40, 20),
			end:         box(0, 0, 50, 20),
			want:        "M 120 0 120 -10 a 5 5 0 0 0 -5 -5 L 30 -15 a 5 5 0 0 0 -5 5 L 25 0",
			label:       geom.Point{X: 72.5, Y: -15},
			orientation: Vertical,
			side:        SideNone,
		},
		{
			name:        "right side toEnd",
			start:       box(0, 0, 50, 20),
			end:         box(10, 30, 50, 20),
			want:        "M 50 10 70 10 a 5 5 0 0 1 5 5 L 75 35 a 5 5 0 0 1 -5 5 L 60 40",
			label:       geom.Point{X: 75, Y: 25},
			orientation: Horizontal,
			side:        SideRight,
			toEnd:       true,
		},
		{
			name:        "right side backwards",
			start:       box(10, 30, 50, 20),
			end:         box(0, 0, 50, 20),
			want:        "M 60 40 70 40 a 5 5 0 0 0 5 -5 L 75 15 a 5 5 0 0 0 -5 -5 L 50 10",
			label:       geom.Point{X: 75, Y: 25},
			orientation: Horizontal,
			side:        SideRight,
		},
		{
			name:        "left side toEnd",
			start:       box(100, 0, 50, 20),
			end:         box(120, 40, 50, 20),
			want:        "M 100 10 90 10 a 5 5 0 0 0 -5 5 L 85 45 a 5 5 0 0 0 5 5 L 120 50",
			label:       geom.Point{X: 85, Y: 30},
			orientation: Horizontal,
			side:        SideLeft,
			toEnd:       true,
		},
		{
			name:        "left side backwards",
			start:       box(120, 40, 50, 20),
			end:         box(100, 0, 50, 20),
			want:        "M 120 50 90 50 a 5 5 0 0 1 -5 -5 L 85 15 a 5 5 0 0 1 5 -5 L 100 10",
			label:       geom.Point{X: 85, Y: 30},
			orientation: Horizontal,
			side:        SideLeft,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Route(tt.start, tt.end)
			require.Equal(t, tt.want, p.String())
			require.Equal(t, tt.label, p.Label)
			require.Equal(t, tt.orientation, p.Orientation)
			require.Equal(t, tt.side, p.Side)
			require.Equal(t, tt.toEnd, p.ToEnd)
		})
	}
	require.Len(t, corners, len(tests))
}

// Equal y never yields a side path even though the boxes overlap; this is
// the intended classification, not a geometric overlap test.
func TestEqualYAlwaysTopPath(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		y := rng.Float64() * 200
		a := box(rng.Float64()*300, y, rng.Float64()*100, rng.Float64()*100)
		b := box(rng.Float64()*300, y, rng.Float64()*100, rng.Float64()*100)

		require.False(t, Intersecting(a, b))
		p := Route(a, b)
		require.Equal(t, Vertical, p.Orientation)
		require.Equal(t, SideNone, p.Side)
	}

	require.Equal(t, Vertical, Route(box(0, 0, 50, 20), box(0, 0, 50, 20)).Orientation)
}

func TestSidePathSelection(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 500; i++ {
		a := box(rng.Float64()*60, rng.Float64()*100, 10+rng.Float64()*50, rng.Float64()*40)
		// b starts inside a's span and sits lower.
		b := box(a.X+rng.Float64()*a.Width, a.Y+1+rng.Float64()*100, rng.Float64()*50, rng.Float64()*40)

		require.True(t, Intersecting(a, b))
		p := Route(a, b)
		require.Equal(t, Horizontal, p.Orientation)

		wantRight := min(a.X, b.X)-Limit < 0
		require.Equal(t, wantRight, p.Side == SideRight, "a=%+v b=%+v", a, b)
	}
}

func TestIntersectingIsSymmetric(t *testing.T) {
	narrow := box(20, 0, 10, 10)
	wide := box(0, 50, 100, 10)

	require.True(t, Intersecting(narrow, wide))
	require.True(t, Intersecting(wide, narrow))
	require.False(t, Intersecting(box(0, 0, 10, 10), box(50, 50, 10, 10)))
}

func TestScenarioStackedBoxes(t *testing.T) {
	// Same x, stacked: the spans overlap and y differs, so the boxes take a
	// side path along the right margin.
	p := Route(box(0, 0, 50, 20), box(0, 100, 50, 20))

	require.Equal(t, Horizontal, p.Orientation)
	require.Equal(t, SideRight, p.Side)
	require.Equal(t, "M 50 10 60 10 a 5 5 0 0 1 5 5 L 65 105 a 5 5 0 0 1 -5 5 L 50 110", p.String())
	require.Equal(t, p.Start().X, p.End().X)
}

func TestScenarioOverlappingSpans(t *testing.T) {
	p := Route(box(0, 0, 50, 20), box(10, 30, 50, 20))
	require.Equal(t, Horizontal, p.Orientation)
	require.Equal(t, SideRight, p.Side)
}

func TestRouteIsIdempotent(t *testing.T) {
	a, b := box(3, 7, 40, 12), box(90, 60, 20, 20)
	first, second := Route(a, b), Route(a, b)

	require.Empty(t, cmp.Diff(first, second))
	require.Equal(t, first.String(), second.String())
}

func TestRouteIsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		a := box(rng.Float64()*200, rng.Float64()*200, rng.Float64()*80, rng.Float64()*80)
		b := box(rng.Float64()*200, rng.Float64()*200, rng.Float64()*80, rng.Float64()*80)

		ab, ba := Route(a, b), Route(b, a)
		require.Equal(t, ab.Orientation, ba.Orientation)
		require.Equal(t, ab.Side, ba.Side)
		require.Equal(t, ab.Start(), ba.End())
		require.Equal(t, ab.End(), ba.Start())
		require.Equal(t, ab.Label, ba.Label)
		s, e := ab.Start(), ab.End()
		if ab.Orientation == Vertical && s.X != e.X || ab.Orientation == Horizontal && s.Y != e.Y {
			require.NotEqual(t, ab.ToEnd, ba.ToEnd, "a=%+v b=%+v", a, b)
		}
	}
}

func TestDegenerateBoxes(t *testing.T) {
	p := Route(geom.BoundingBox{}, geom.BoundingBox{})
	require.Equal(t, "M 0 0 0 -10 a 5 5 0 0 0 -5 -5 L 5 -15 a 5 5 0 0 0 -5 5 L 0 0", p.String())
	require.Equal(t, geom.Point{X: 0, Y: -15}, p.Label)
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "0", FormatNumber(math.Copysign(0, -1)))
	require.Equal(t, "12.5", FormatNumber(12.5))
	require.Equal(t, "-3", FormatNumber(-3))
}

func TestCorners(t *testing.T) {
	top := Route(box(0, 0, 50, 20), box(100, 0, 40, 20))
	require.Equal(t, []geom.Point{{X: 25, Y: 0}, {X: 25, Y: -15}, {X: 120, Y: -15}, {X: 120, Y: 0}}, top.Corners())

	side := Route(box(0, 0, 50, 20), box(10, 30, 50, 20))
	require.Equal(t, []geom.Point{{X: 50, Y: 10}, {X: 75, Y: 10}, {X: 75, Y: 40}, {X: 60, Y: 40}}, side.Corners())

	require.Empty(t, Path{}.Corners())
}
