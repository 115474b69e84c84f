package schematic

import (
	"strconv"
	"time"

	"github.com/waferstrat/sampler/pkg/geometry"
)

// FormatType identifies the source layout format a schematic was parsed
// from.
type FormatType string

const (
	FormatGDSII FormatType = "gdsii"
	FormatDXF   FormatType = "dxf"
	FormatSVG   FormatType = "svg"
)

// DieBoundary is an axis-aligned rectangle describing one die's footprint
// on the layout, as recovered by a format parser. Non-rectangular source
// shapes are reduced to their bounding box.
type DieBoundary struct {
	DieID     string            `json:"dieId"`
	Bounds    geometry.Bounds   `json:"bounds"`
	Available bool              `json:"available"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// CenterX returns the horizontal center of the boundary.
func (d DieBoundary) CenterX() float64 { return d.Bounds.CenterX() }

// CenterY returns the vertical center of the boundary.
func (d DieBoundary) CenterY() float64 { return d.Bounds.CenterY() }

// Width returns xMax - xMin.
func (d DieBoundary) Width() float64 { return d.Bounds.Width() }

// Height returns yMax - yMin.
func (d DieBoundary) Height() float64 { return d.Bounds.Height() }

// Area returns width * height.
func (d DieBoundary) Area() float64 { return d.Bounds.Area() }

// SourceMetadata carries provenance fields a parser can fill in about the
// authoring tool that produced the layout.
type SourceMetadata struct {
	Software    string  `json:"software,omitempty"`
	Units       string  `json:"units,omitempty"`
	ScaleFactor float64 `json:"scaleFactor,omitempty"`
}

// Statistics are derived, read-only summary figures over Dies.
type Statistics struct {
	DieCount          int     `json:"dieCount"`
	AvailableDieCount int     `json:"availableDieCount"`
	MedianArea        float64 `json:"medianArea"`
}

// Data is the uniform output of every format parser: a schematic's
// filename, detected format, coordinate system, and the die boundaries
// recovered from it.
type Data struct {
	ID               string                    `json:"id"`
	Filename         string                    `json:"filename"`
	FormatType       FormatType                `json:"formatType"`
	UploadDate       time.Time                 `json:"uploadDate"`
	CoordinateSystem geometry.CoordinateSystem `json:"coordinateSystem"`
	WaferSize        string                    `json:"waferSize,omitempty"`
	Dies             []DieBoundary             `json:"dies"`
	LayoutBounds     geometry.Bounds           `json:"layoutBounds"`
	Statistics       Statistics                `json:"statistics"`
	Metadata         SourceMetadata            `json:"metadata"`
}

// DieCount returns len(Dies).
func (d *Data) DieCount() int { return len(d.Dies) }

// AvailableDieCount returns the number of dies with Available == true.
func (d *Data) AvailableDieCount() int {
	n := 0
	for _, die := range d.Dies {
		if die.Available {
			n++
		}
	}
	return n
}

// ComputeDerived fills in LayoutBounds and Statistics from Dies. Parsers
// call this once all dies have been collected.
func (d *Data) ComputeDerived() {
	bounds := make([]geometry.Bounds, len(d.Dies))
	areas := make([]float64, len(d.Dies))
	for i, die := range d.Dies {
		bounds[i] = die.Bounds
		areas[i] = die.Area()
	}
	d.LayoutBounds = geometry.Enclosing(bounds)
	d.Statistics = Statistics{
		DieCount:          len(d.Dies),
		AvailableDieCount: d.AvailableDieCount(),
		MedianArea:        median(areas),
	}
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// SizeFilter drops dies whose area falls outside [Min, Max]. A zero value
// (Min == 0 && Max == 0) disables filtering.
type SizeFilter struct {
	Min, Max float64
}

// Active reports whether the filter should be applied.
func (f SizeFilter) Active() bool { return f.Min != 0 || f.Max != 0 }

// Admits reports whether an area of the given size passes the filter.
func (f SizeFilter) Admits(area float64) bool {
	if !f.Active() {
		return true
	}
	return area >= f.Min && area <= f.Max
}

// Hints carry optional, format-specific parsing guidance supplied by the
// caller.
type Hints struct {
	TargetCell      string
	TargetLayer     string
	CoordinateScale float64
	DieSizeFilter   SizeFilter
}

// ParseError describes a structured schematic parse failure.
type ParseError struct {
	Format FormatType
	Offset int64
	Reason string
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return string(e.Format) + " parse error at offset " + strconv.FormatInt(e.Offset, 10) + ": " + e.Reason
	}
	return string(e.Format) + " parse error: " + e.Reason
}

// ErrNoDiesDetected is returned by a parser when detection produces fewer
// than one die.
var ErrNoDiesDetected = &ParseError{Reason: "no dies detected"}
