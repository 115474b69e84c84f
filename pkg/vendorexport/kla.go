package vendorexport

import "encoding/xml"

const klaSchemaVersion = "2.0"

// KLA emits a simulation's selected points as KLA_SamplingPlan XML. Each
// Y value is negated relative to the engine's canonical center-origin,
// y-up representation; X is written unchanged and the origin is not
// moved to a wafer corner.
type KLA struct{}

func (KLA) Name() string        { return "kla" }
func (KLA) ContentType() string { return "application/xml" }

type klaSite struct {
	XMLName xml.Name `xml:"Site"`
	X       float64  `xml:"X_Position,attr"`
	Y       float64  `xml:"Y_Position,attr"`
	Enabled bool     `xml:"Enabled,attr"`
}

type klaValidationInfo struct {
	XMLName xml.Name `xml:"ValidationInfo"`
	Score   float64  `xml:"score,attr"`
	Status  string   `xml:"status,attr"`
}

type klaSamplingPlan struct {
	XMLName    xml.Name           `xml:"KLA_SamplingPlan"`
	Version    string             `xml:"version,attr"`
	Sites      []klaSite          `xml:"Site"`
	Validation *klaValidationInfo `xml:"ValidationInfo,omitempty"`
}

func (KLA) Emit(points []SitePoint, meta Meta, validation *ValidationSummary) ([]byte, error) {
	sites := make([]klaSite, len(points))
	for i, p := range points {
		sites[i] = klaSite{X: p.X, Y: -p.Y, Enabled: p.Available}
	}

	plan := klaSamplingPlan{Version: klaSchemaVersion, Sites: sites}
	if validation != nil {
		plan.Validation = &klaValidationInfo{Score: validation.Score, Status: validation.Status}
	}

	body, err := xml.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func init() {
	Builtins.Register("kla", KLA{})
}
