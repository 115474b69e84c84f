package svg

import (
	"fmt"
	"strings"
	"testing"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/schematic"
)

func gridSVG(n int, cell, gap float64) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg">`)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			x := float64(col) * (cell + gap)
			y := float64(row) * (cell + gap)
			fmt.Fprintf(&sb, `<rect x="%g" y="%g" width="%g" height="%g" id="die_%d_%d"/>`, x, y, cell, cell, row, col)
		}
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}

func TestParseSimple3x3Grid(t *testing.T) {
	data := []byte(gridSVG(3, 10, 2))
	out, err := Parse(data, schematic.Hints{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if out.DieCount() != 9 {
		t.Fatalf("DieCount() = %d, want 9", out.DieCount())
	}
	if out.FormatType != schematic.FormatSVG {
		t.Errorf("FormatType = %q, want svg", out.FormatType)
	}
	if out.CoordinateSystem != geometry.SVGUnits {
		t.Errorf("CoordinateSystem = %q, want svgUnits", out.CoordinateSystem)
	}
	for _, d := range out.Dies {
		if !d.Available {
			t.Errorf("die %s expected available", d.DieID)
		}
	}
	wantMaxX := 2*12.0 + 10
	if out.LayoutBounds.XMax != wantMaxX {
		t.Errorf("LayoutBounds.XMax = %v, want %v", out.LayoutBounds.XMax, wantMaxX)
	}
}

func TestParse7x7WithCornerMarkersUnavailable(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(gridSVG(7, 8, 1))
	// Splice in four corner markers: small square tick marks whose area
	// sits far outside the die-area band. They still become dies, just
	// unavailable ones, per the 53-shape/49-available scenario.
	doc := sb.String()
	doc = strings.Replace(doc, "</svg>",
		`<rect x="-5" y="-5" width="1" height="1"/>`+
			`<rect x="-5" y="100" width="0.5" height="0.5"/>`+
			`<rect x="100" y="-5" width="0.5" height="0.5"/>`+
			`<rect x="100" y="100" width="0.5" height="0.5"/></svg>`, 1)

	out, err := Parse([]byte(doc), schematic.Hints{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if out.DieCount() != 53 {
		t.Fatalf("DieCount() = %d, want 53 (49 inner + 4 corner markers)", out.DieCount())
	}
	avail := out.AvailableDieCount()
	if avail != 49 {
		t.Fatalf("AvailableDieCount() = %d, want 49", avail)
	}
}

func TestParseNoShapesReturnsErrNoDiesDetected(t *testing.T) {
	_, err := Parse([]byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`), schematic.Hints{})
	if err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestParseGroupTransformPropagates(t *testing.T) {
	doc := `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg">` +
		`<g transform="translate(100,200)">` +
		`<rect x="0" y="0" width="10" height="10" id="a"/>` +
		`<rect x="20" y="0" width="10" height="10" id="b"/>` +
		`</g></svg>`

	out, err := Parse([]byte(doc), schematic.Hints{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if out.DieCount() != 2 {
		t.Fatalf("DieCount() = %d, want 2", out.DieCount())
	}
	var a schematic.DieBoundary
	found := false
	for _, d := range out.Dies {
		if d.DieID == "a" {
			a = d
			found = true
		}
	}
	if !found {
		t.Fatal("die \"a\" not found")
	}
	if a.Bounds.XMin != 100 || a.Bounds.YMin != 200 {
		t.Errorf("group transform not applied: bounds = %+v", a.Bounds)
	}
}

func TestParseTextLabelsNearestShape(t *testing.T) {
	doc := `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg">` +
		`<rect x="0" y="0" width="10" height="10"/>` +
		`<text x="5" y="5">D1</text>` +
		`</svg>`

	out, err := Parse([]byte(doc), schematic.Hints{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if out.DieCount() != 1 {
		t.Fatalf("DieCount() = %d, want 1", out.DieCount())
	}
	if out.Dies[0].DieID != "D1" {
		t.Errorf("DieID = %q, want D1 (nearest label)", out.Dies[0].DieID)
	}
}

func TestRenderProducesWellFormedSVG(t *testing.T) {
	data := &schematic.Data{
		FormatType:       schematic.FormatSVG,
		CoordinateSystem: geometry.SVGUnits,
		Dies: []schematic.DieBoundary{
			{DieID: "d1", Bounds: geometry.Bounds{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, Available: true},
			{DieID: "d2", Bounds: geometry.Bounds{XMin: 12, YMin: 0, XMax: 22, YMax: 10}, Available: false},
		},
	}
	data.ComputeDerived()

	out, err := Render(data, DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "<svg") || !strings.Contains(s, "</svg>") {
		t.Errorf("rendered output missing svg root: %s", s)
	}
	if !strings.Contains(s, "d1") || !strings.Contains(s, "d2") {
		t.Errorf("rendered output missing die labels: %s", s)
	}
}

func TestRenderRejectsDegenerateBounds(t *testing.T) {
	data := &schematic.Data{}
	if _, err := Render(data, DefaultRenderOptions()); err == nil {
		t.Fatal("expected error for degenerate bounds")
	}
}
