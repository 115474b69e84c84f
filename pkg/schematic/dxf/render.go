package dxf

import (
	"fmt"
	"strings"

	"github.com/waferstrat/sampler/pkg/schematic"
)

// Render writes a minimal ASCII DXF exchange file re-emitting data's die
// boundaries as closed LWPOLYLINE entities on layer "DIES", one unavailable
// die rendered on layer "DIES_UNAVAILABLE" instead. The output round-trips
// through Parse: each polyline's four corners recover the original
// geometry.Bounds.
func Render(data *schematic.Data) ([]byte, error) {
	var b strings.Builder

	writePair := func(code int, val string) {
		fmt.Fprintf(&b, "%d\n%s\n", code, val)
	}

	writePair(0, "SECTION")
	writePair(2, "ENTITIES")

	for _, die := range data.Dies {
		layer := "DIES"
		if !die.Available {
			layer = "DIES_UNAVAILABLE"
		}
		writePair(0, "LWPOLYLINE")
		writePair(8, layer)
		writePair(1, die.DieID)
		writePair(90, "4")
		writePair(70, "1")

		corners := [4][2]float64{
			{die.Bounds.XMin, die.Bounds.YMin},
			{die.Bounds.XMax, die.Bounds.YMin},
			{die.Bounds.XMax, die.Bounds.YMax},
			{die.Bounds.XMin, die.Bounds.YMax},
		}
		for _, c := range corners {
			writePair(10, fmt.Sprintf("%g", c[0]))
			writePair(20, fmt.Sprintf("%g", c[1]))
		}
	}

	writePair(0, "ENDSEC")
	writePair(0, "EOF")

	return []byte(b.String()), nil
}
