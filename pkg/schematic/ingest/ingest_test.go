package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/waferstrat/sampler/pkg/schematic"
)

func TestParseDispatchesSVG(t *testing.T) {
	doc := `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg">` +
		`<rect x="0" y="0" width="10" height="10"/>` +
		`<rect x="12" y="0" width="10" height="10"/>` +
		`</svg>`

	out, err := Parse("layout.svg", []byte(doc), schematic.Hints{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if out.FormatType != schematic.FormatSVG {
		t.Errorf("FormatType = %q, want svg", out.FormatType)
	}
	if out.Filename != "layout.svg" {
		t.Errorf("Filename = %q, want layout.svg", out.Filename)
	}
}

func TestParseUnrecognizedFormat(t *testing.T) {
	_, err := Parse("unknown.bin", []byte("not a schematic"), schematic.Hints{})
	if err == nil {
		t.Fatal("expected error for unrecognized format")
	}
	var parseErr *schematic.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want a *schematic.ParseError", err)
	}
	if parseErr.Format != "" {
		t.Errorf("Format = %q, want empty (unrecognized, not a malformed recognized format)", parseErr.Format)
	}
	for _, want := range []string{"gdsii", "dxf", "svg"} {
		if !strings.Contains(parseErr.Error(), want) {
			t.Errorf("Error() = %q, want it to name accepted format %q", parseErr.Error(), want)
		}
	}
}

func TestErrTooManyDiesMessage(t *testing.T) {
	err := &ErrTooManyDies{Count: 100001, Limit: 100000}
	if !strings.Contains(err.Error(), "100001") {
		t.Errorf("Error() = %q, want it to mention the count", err.Error())
	}
}
