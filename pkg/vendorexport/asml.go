package vendorexport

import "encoding/json"

// asmlSchemaVersion is the ASML_JSON schema version this emitter writes.
const asmlSchemaVersion = "1.0"

// ASML emits a simulation's selected points as ASML_JSON: center-origin,
// y-up, matching the engine's canonical coordinate system directly (no
// translation needed).
type ASML struct{}

func (ASML) Name() string        { return "asml" }
func (ASML) ContentType() string { return "application/json" }

type asmlSamplingPoint struct {
	SiteX   float64 `json:"SiteX"`
	SiteY   float64 `json:"SiteY"`
	Enabled bool    `json:"Enabled"`
}

type asmlWaferData struct {
	Size    string `json:"size"`
	Product string `json:"product_type"`
	Layer   string `json:"layer"`
}

type asmlDocument struct {
	Format          string              `json:"format"`
	Version         string              `json:"version"`
	WaferData       asmlWaferData       `json:"wafer_data"`
	SamplingPoints  []asmlSamplingPoint `json:"sampling_points"`
	ValidationScore *float64            `json:"validation_score,omitempty"`
	VendorSpecific  map[string]any      `json:"vendor_specific"`
}

func (ASML) Emit(points []SitePoint, meta Meta, validation *ValidationSummary) ([]byte, error) {
	sites := make([]asmlSamplingPoint, len(points))
	for i, p := range points {
		sites[i] = asmlSamplingPoint{SiteX: p.X, SiteY: p.Y, Enabled: p.Available}
	}

	vendorSpecific := meta.VendorSpecificParams
	if vendorSpecific == nil {
		vendorSpecific = map[string]any{}
	}

	doc := asmlDocument{
		Format:  "ASML_JSON",
		Version: asmlSchemaVersion,
		WaferData: asmlWaferData{
			Size:    meta.WaferSize,
			Product: meta.ProductType,
			Layer:   meta.ProcessLayer,
		},
		SamplingPoints: sites,
		VendorSpecific: vendorSpecific,
	}
	if validation != nil {
		score := validation.Score
		doc.ValidationScore = &score
	}

	return json.MarshalIndent(doc, "", "  ")
}

func init() {
	Builtins.Register("asml", ASML{})
}
