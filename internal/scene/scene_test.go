package scene

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"reloverlay/internal/geom"
	"reloverlay/internal/overlay"
	"reloverlay/internal/relation"
	"reloverlay/internal/shape"
)

const sample = `
origin {
  x = 10
  y = 5
}

region "rect" "db" {
  x      = 20
  y      = 20
  width  = 80
  height = 30
  label  = "Database"
}

region "ellipse" "user" {
  cx = 300
  cy = 35
  rx = 40
  ry = 15
}

region "text" "note" {
  x       = 20
  y       = 120
  width   = 100
  height  = 40
  content = "first line\nsecond"
}

region "area" "legend" {
  x      = 400
  y      = 200
  width  = 60
  height = 60
}

relation "owns" {
  start     = "user"
  end       = "db"
  direction = "right"
  labels    = ["owns", "reads"]
}

relation "annotates" {
  start = "note"
  end   = "db"
}
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)

	require.Equal(t, geom.Point{X: 10, Y: 5}, s.Origin())
	require.Len(t, s.Regions(), 4)

	db, ok := s.Region("db")
	require.True(t, ok)
	require.Equal(t, shape.KindRectangle, db.Kind())
	require.Equal(t, "Database", db.Label())
	require.Equal(t, geom.BoundingBox{X: 20, Y: 20, Width: 80, Height: 30}, db.BoundingBox())

	user, _ := s.Region("user")
	require.Equal(t, geom.BoundingBox{X: 260, Y: 20, Width: 80, Height: 30}, user.BoundingBox())

	note, _ := s.Region("note")
	require.Equal(t, "first line", note.Label())

	legend, _ := s.Region("legend")
	require.Equal(t, KindArea, legend.Kind())

	links := s.Links()
	require.Len(t, links, 2)
	require.Equal(t, "owns", links[0].ID())
	require.Equal(t, relation.Right, links[0].Direction())
	require.Equal(t, []string{"owns", "reads"}, links[0].SelectedLabelValues())
	require.Same(t, user, links[0].StartNode())
	require.Empty(t, links[1].Direction())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "unknown region",
			src: `
relation "r" {
  start = "a"
  end   = "b"
}`,
			want: ErrUnknownRegion,
		},
		{
			name: "duplicate region",
			src: `
region "rect" "a" {
  x = 0
  y = 0
  width = 1
  height = 1
}
region "area" "a" {
  x = 0
  y = 0
  width = 1
  height = 1
}`,
			want: ErrDuplicateID,
		},
		{name: "unsupported kind", src: `region "hexagon" "a" {}`},
		{name: "missing attribute", src: `region "rect" "a" { x = 1 }`},
		{name: "syntax", src: `region "rect" {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			require.Error(t, err)
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
			}
		})
	}
}

type regionState struct {
	ID    string
	Kind  shape.Kind
	Label string
	Box   geom.BoundingBox
}

type linkState struct {
	ID, Start, End string
	Direction      relation.Direction
	Labels         []string
}

func state(s *Scene) ([]regionState, []linkState) {
	var rs []regionState
	for _, r := range s.Regions() {
		rs = append(rs, regionState{r.ID(), r.Kind(), r.Label(), r.BoundingBox()})
	}
	var ls []linkState
	for _, l := range s.Links() {
		ls = append(ls, linkState{l.ID(), l.StartNode().ID(), l.EndNode().ID(), l.Direction(), l.SelectedLabelValues()})
	}
	return rs, ls
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)
	require.NoError(t, s.Move("db", 7.5, -2))

	path := filepath.Join(t.TempDir(), "scene.hcl")
	require.NoError(t, s.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)

	wantRegions, wantLinks := state(s)
	gotRegions, gotLinks := state(loaded)
	require.Empty(t, cmp.Diff(wantRegions, gotRegions))
	require.Empty(t, cmp.Diff(wantLinks, gotLinks))
	require.Equal(t, s.Origin(), loaded.Origin())
	require.True(t, bytes.Contains(s.Encode(), []byte(`region "text" "note"`)))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.Error(t, err)
}

func TestRegionNotifications(t *testing.T) {
	r := NewRect("a", "", geom.BoundingBox{Width: 10, Height: 10})
	calls := 0
	unsubscribe := r.Subscribe(func() { calls++ })

	r.SetBox(geom.BoundingBox{X: 5, Width: 10, Height: 10})
	require.Equal(t, 1, calls)
	require.Equal(t, []geom.Point{{X: 5}, {X: 15}, {X: 15, Y: 10}, {X: 5, Y: 10}}, r.Points())

	unsubscribe()
	unsubscribe()
	r.SetBox(geom.BoundingBox{})
	require.Equal(t, 1, calls)
	require.Zero(t, r.subscribers())
}

func TestEllipseAndTextGeometry(t *testing.T) {
	e := NewEllipse("e", "", geom.Point{X: 50, Y: 40}, 20, 10)
	c, rx, ry := e.Ellipse()
	require.Equal(t, geom.Point{X: 50, Y: 40}, c)
	require.Equal(t, 20.0, rx)
	require.Equal(t, 10.0, ry)

	text := NewText("t", "abcd\nab", geom.BoundingBox{X: 0, Y: 0, Width: 40, Height: 20})
	require.Equal(t, []geom.BoundingBox{
		{X: 0, Y: 0, Width: 40, Height: 10},
		{X: 0, Y: 10, Width: 20, Height: 10},
	}, text.Spans())
}

func TestSceneEditing(t *testing.T) {
	s := New()
	require.NoError(t, s.Add(NewRect("a", "", geom.BoundingBox{Width: 10, Height: 10})))
	require.NoError(t, s.Add(NewRect("b", "", geom.BoundingBox{X: 50, Width: 10, Height: 10})))
	require.ErrorIs(t, s.Add(NewArea("a", "", geom.BoundingBox{})), ErrDuplicateID)

	_, err := s.Connect("ab", "a", "b", relation.Bi)
	require.NoError(t, err)
	_, err = s.Connect("ax", "a", "x", relation.Bi)
	require.ErrorIs(t, err, ErrUnknownRegion)
	_, err = s.Connect("a", "a", "b", relation.Bi)
	require.ErrorIs(t, err, ErrDuplicateID)

	require.NoError(t, s.Resize("a", -20, 5))
	a, _ := s.Region("a")
	require.Equal(t, geom.BoundingBox{Width: 1, Height: 15}, a.BoundingBox())
	require.ErrorIs(t, s.Move("x", 1, 1), ErrUnknownRegion)

	require.Equal(t, "ab", s.CycleHighlight())
	require.Equal(t, "", s.CycleHighlight())
	require.NoError(t, s.Highlight("ab"))
	require.ErrorIs(t, s.Highlight("zz"), ErrUnknownLink)

	require.NoError(t, s.Remove("b"))
	require.Empty(t, s.Links())
	require.Empty(t, s.Highlighted())
	require.ErrorIs(t, s.Disconnect("ab"), ErrUnknownLink)

	s.SetVisible(false)
	require.False(t, s.Visible())
}

func TestNewIDIsUnique(t *testing.T) {
	require.NotEqual(t, NewID(), NewID())
}

// A scene drives the overlay end to end: moving a region reroutes only
// the relation attached to it.
func TestSceneDrivesOverlay(t *testing.T) {
	s, err := Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)

	rendered := make(chan string, 8)
	o := overlay.New(s,
		overlay.WithRelationOptions(relation.WithDebounce(5*time.Millisecond)),
		overlay.WithRenderHook(func(id string) { rendered <- id }),
	)
	o.Mount()
	o.Update(s.Descriptors(), s.Highlighted())
	defer o.Close()

	views := o.Snapshot()
	require.Len(t, views, 2)
	// Region boxes are translated by the origin and padded.
	require.Equal(t, geom.BoundingBox{X: 7, Y: 12, Width: 86, Height: 36}, views[0].End)
	before := views[0].Path.String()

	require.NoError(t, s.Move("user", 0, 200))
	select {
	case id := <-rendered:
		require.Equal(t, "owns", id)
	case <-time.After(time.Second):
		t.Fatal("no re-render after move")
	}
	require.NotEqual(t, before, o.Snapshot()[0].Path.String())

	// The area region is not watched.
	_, err = s.Connect("legend", "legend", "db", relation.Left)
	require.Error(t, err)
	_, err = s.Connect("keyed", "legend", "db", relation.Left)
	require.NoError(t, err)
	o.Update(s.Descriptors(), "")
	require.NoError(t, s.Move("legend", 100, 0))
	select {
	case id := <-rendered:
		t.Fatalf("unexpected re-render of %s", id)
	case <-time.After(50 * time.Millisecond):
	}

	require.True(t, errors.Is(s.Remove("nope"), ErrUnknownRegion))
}

func TestWriteSVG(t *testing.T) {
	s, err := Parse([]byte(sample), "sample.hcl")
	require.NoError(t, err)

	var buf bytes.Buffer
	s.WriteSVG(&buf)
	doc, err := xmlquery.Parse(&buf)
	require.NoError(t, err)

	// Shifted by the origin (10, 5).
	rect := xmlquery.FindOne(doc, "//g[@id='region-db']/rect")
	require.Equal(t, "10", rect.SelectAttr("x"))
	require.Equal(t, "15", rect.SelectAttr("y"))
	require.Equal(t, "Database", xmlquery.FindOne(doc, "//g[@id='region-db']/text").InnerText())

	require.NotNil(t, xmlquery.FindOne(doc, "//g[@id='region-user']/ellipse"))
	require.Len(t, xmlquery.Find(doc, "//g[@id='region-note']/text"), 2)
	require.Equal(t, "4 2", xmlquery.FindOne(doc, "//g[@id='region-legend']/rect").SelectAttr("stroke-dasharray"))
}
