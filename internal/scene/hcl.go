package scene

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"reloverlay/internal/geom"
	"reloverlay/internal/relation"
)

// Region block kinds as written in scene files.
const (
	blockRect    = "rect"
	blockEllipse = "ellipse"
	blockText    = "text"
	blockArea    = "area"
)

// hclSceneFile is the top-level structure of a scene file.
type hclSceneFile struct {
	Origin    *hclOrigin     `hcl:"origin,block"`
	Regions   []*hclRegion   `hcl:"region,block"`
	Relations []*hclRelation `hcl:"relation,block"`
}

type hclOrigin struct {
	X float64 `hcl:"x"`
	Y float64 `hcl:"y"`
}

// hclRegion defers the body until the kind is known.
type hclRegion struct {
	Kind string   `hcl:"kind,label"`
	ID   string   `hcl:"id,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclBox struct {
	X      float64 `hcl:"x"`
	Y      float64 `hcl:"y"`
	Width  float64 `hcl:"width"`
	Height float64 `hcl:"height"`
	Label  string  `hcl:"label,optional"`
}

type hclEllipse struct {
	CX    float64 `hcl:"cx"`
	CY    float64 `hcl:"cy"`
	RX    float64 `hcl:"rx"`
	RY    float64 `hcl:"ry"`
	Label string  `hcl:"label,optional"`
}

type hclText struct {
	X       float64 `hcl:"x"`
	Y       float64 `hcl:"y"`
	Width   float64 `hcl:"width"`
	Height  float64 `hcl:"height"`
	Content string  `hcl:"content"`
}

type hclRelation struct {
	ID        string   `hcl:"id,label"`
	Start     string   `hcl:"start"`
	End       string   `hcl:"end"`
	Direction string   `hcl:"direction,optional"`
	Labels    []string `hcl:"labels,optional"`
}

// Load reads a scene file.
func Load(path string) (*Scene, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes scene source; filename is used in diagnostics.
func Parse(src []byte, filename string) (*Scene, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scene %s: %w", filename, diags)
	}

	var parsed hclSceneFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scene %s: %w", filename, diags)
	}

	s := New()
	if parsed.Origin != nil {
		s.origin = geom.Point{X: parsed.Origin.X, Y: parsed.Origin.Y}
	}
	for _, block := range parsed.Regions {
		r, err := decodeRegion(block)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", filename, err)
		}
		if err := s.Add(r); err != nil {
			return nil, fmt.Errorf("scene %s: %w", filename, err)
		}
	}
	for _, block := range parsed.Relations {
		if s.linkIndex(block.ID) >= 0 {
			return nil, fmt.Errorf("scene %s: %w: %s", filename, ErrDuplicateID, block.ID)
		}
		_, err := s.Connect(block.ID, block.Start, block.End, relation.Direction(block.Direction), block.Labels...)
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", filename, err)
		}
	}
	return s, nil
}

func decodeRegion(block *hclRegion) (Region, error) {
	var diags hcl.Diagnostics
	var r Region
	switch block.Kind {
	case blockRect, blockArea:
		var b hclBox
		diags = gohcl.DecodeBody(block.Body, nil, &b)
		box := geom.NewBoundingBox(b.X, b.Y, b.Width, b.Height)
		if block.Kind == blockRect {
			r = NewRect(block.ID, b.Label, box)
		} else {
			r = NewArea(block.ID, b.Label, box)
		}
	case blockEllipse:
		var e hclEllipse
		diags = gohcl.DecodeBody(block.Body, nil, &e)
		r = NewEllipse(block.ID, e.Label, geom.Point{X: e.CX, Y: e.CY}, e.RX, e.RY)
	case blockText:
		var t hclText
		diags = gohcl.DecodeBody(block.Body, nil, &t)
		r = NewText(block.ID, t.Content, geom.NewBoundingBox(t.X, t.Y, t.Width, t.Height))
	default:
		return nil, fmt.Errorf("region %s: unsupported kind %q", block.ID, block.Kind)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("region %s: %w", block.ID, diags)
	}
	return r, nil
}

// Encode writes the scene as HCL.
func (s *Scene) Encode() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f := hclwrite.NewEmptyFile()
	body := f.Body()

	if s.origin != (geom.Point{}) {
		o := body.AppendNewBlock("origin", nil).Body()
		o.SetAttributeValue("x", cty.NumberFloatVal(s.origin.X))
		o.SetAttributeValue("y", cty.NumberFloatVal(s.origin.Y))
		body.AppendNewline()
	}

	for _, r := range s.regions {
		encodeRegion(body, r)
		body.AppendNewline()
	}

	for _, l := range s.links {
		b := body.AppendNewBlock("relation", []string{l.id}).Body()
		b.SetAttributeValue("start", cty.StringVal(l.start.ID()))
		b.SetAttributeValue("end", cty.StringVal(l.end.ID()))
		if l.direction != "" {
			b.SetAttributeValue("direction", cty.StringVal(string(l.direction)))
		}
		if len(l.labels) > 0 {
			vals := make([]cty.Value, len(l.labels))
			for i, v := range l.labels {
				vals[i] = cty.StringVal(v)
			}
			b.SetAttributeValue("labels", cty.ListVal(vals))
		}
		body.AppendNewline()
	}
	return f.Bytes()
}

func encodeRegion(body *hclwrite.Body, r Region) {
	box := r.BoundingBox()
	setBox := func(b *hclwrite.Body) {
		b.SetAttributeValue("x", cty.NumberFloatVal(box.X))
		b.SetAttributeValue("y", cty.NumberFloatVal(box.Y))
		b.SetAttributeValue("width", cty.NumberFloatVal(box.Width))
		b.SetAttributeValue("height", cty.NumberFloatVal(box.Height))
	}
	setLabel := func(b *hclwrite.Body) {
		if r.Label() != "" {
			b.SetAttributeValue("label", cty.StringVal(r.Label()))
		}
	}

	switch r := r.(type) {
	case *Ellipse:
		b := body.AppendNewBlock("region", []string{blockEllipse, r.ID()}).Body()
		c, rx, ry := r.Ellipse()
		b.SetAttributeValue("cx", cty.NumberFloatVal(c.X))
		b.SetAttributeValue("cy", cty.NumberFloatVal(c.Y))
		b.SetAttributeValue("rx", cty.NumberFloatVal(rx))
		b.SetAttributeValue("ry", cty.NumberFloatVal(ry))
		setLabel(b)
	case *Text:
		b := body.AppendNewBlock("region", []string{blockText, r.ID()}).Body()
		setBox(b)
		b.SetAttributeValue("content", cty.StringVal(r.Content()))
	case *Rect:
		b := body.AppendNewBlock("region", []string{blockRect, r.ID()}).Body()
		setBox(b)
		setLabel(b)
	default:
		b := body.AppendNewBlock("region", []string{blockArea, r.ID()}).Body()
		setBox(b)
		setLabel(b)
	}
}

// Save writes the scene to path.
func (s *Scene) Save(path string) error {
	if err := os.WriteFile(path, s.Encode(), 0o644); err != nil {
		return fmt.Errorf("save scene: %w", err)
	}
	return nil
}
