package vendorexport

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestKLAEmitFlipsY(t *testing.T) {
	points := []SitePoint{{X: 1.5, Y: -2.5, Available: true}}
	data, err := KLA{}.Emit(points, Meta{}, nil)
	if err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	if !strings.HasPrefix(string(data), xml.Header) {
		t.Error("output should start with the XML declaration")
	}

	var plan klaSamplingPlan
	if err := xml.Unmarshal(data, &plan); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}
	if plan.XMLName.Local != "KLA_SamplingPlan" {
		t.Errorf("root element = %q, want KLA_SamplingPlan", plan.XMLName.Local)
	}
	if plan.Version != klaSchemaVersion {
		t.Errorf("version attr = %q, want %q", plan.Version, klaSchemaVersion)
	}
	if len(plan.Sites) != 1 {
		t.Fatalf("len(Sites) = %d, want 1", len(plan.Sites))
	}
	if plan.Sites[0].X != 1.5 || plan.Sites[0].Y != 2.5 {
		t.Errorf("Site = %+v, want X=1.5 Y=2.5 (Y flipped from -2.5)", plan.Sites[0])
	}
	if !plan.Sites[0].Enabled {
		t.Error("Site.Enabled should be true")
	}
}

func TestKLAEmitIncludesValidationInfo(t *testing.T) {
	validation := &ValidationSummary{Score: 0.75, Status: "warning"}
	data, err := KLA{}.Emit(nil, Meta{}, validation)
	if err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}
	var plan klaSamplingPlan
	if err := xml.Unmarshal(data, &plan); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}
	if plan.Validation == nil {
		t.Fatal("expected ValidationInfo to be present")
	}
	if plan.Validation.Score != 0.75 || plan.Validation.Status != "warning" {
		t.Errorf("Validation = %+v, want {0.75 warning}", plan.Validation)
	}
}

func TestKLARegistered(t *testing.T) {
	e, err := Builtins.Get("kla")
	if err != nil {
		t.Fatalf("Builtins.Get(kla) returned error: %v", err)
	}
	if e.ContentType() != "application/xml" {
		t.Errorf("ContentType = %q, want application/xml", e.ContentType())
	}
}
