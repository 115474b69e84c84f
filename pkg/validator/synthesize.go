package validator

import (
	"sort"

	"github.com/waferstrat/sampler/pkg/schematic"
	"github.com/waferstrat/sampler/pkg/wafer"
)

// synthesizeWaferMap builds a wafer.Map from a schematic's die boundaries
// so a strategy's rules (which operate on integer grid coordinates) can
// be executed against a real layout. Dies are sorted into rows by
// centerY, using half the median die height as the row-grouping
// tolerance, then into columns by centerX within each row. The resulting
// grid coordinates are purely an index space: a strategy's
// transformations (flip, scale, rotate, translate) are what map that
// index space into the schematic's physical coordinates, which is why
// alignment validation applies them before comparing against die bounds.
func synthesizeWaferMap(dies []schematic.DieBoundary) *wafer.Map {
	sorted := append([]schematic.DieBoundary(nil), dies...)
	heights := make([]float64, len(sorted))
	for i, d := range sorted {
		heights[i] = d.Height()
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CenterY() != sorted[j].CenterY() {
			return sorted[i].CenterY() < sorted[j].CenterY()
		}
		return sorted[i].CenterX() < sorted[j].CenterX()
	})

	tol := medianOf(heights) / 2

	wm := wafer.NewMap()
	gridY := -1
	col := 0
	rowY := 0.0
	for i, d := range sorted {
		if i == 0 || d.CenterY()-rowY > tol {
			gridY++
			col = 0
			rowY = d.CenterY()
		}
		_ = wm.AddDie(wafer.Die{X: col, Y: gridY, Available: d.Available})
		col++
	}
	return wm
}

// medianOf returns the median of vals, or 0 for an empty slice.
func medianOf(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
