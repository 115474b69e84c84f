package validator

import (
	"fmt"
	"math"

	"github.com/waferstrat/sampler/pkg/execution"
)

// defaultMaxClusterDensity is the number of neighboring selected points
// (within clusterRadius) a single point may have before the neighborhood
// is flagged as overly dense.
const defaultMaxClusterDensity = 3

// detectClusters flags points with more than defaultMaxClusterDensity
// neighbors within radius, a proxy for tool throughput problems caused
// by over-sampling a small region.
func detectClusters(points []execution.SelectedPoint, radius float64, mode Mode) []Conflict {
	if radius <= 0 {
		return nil
	}
	var conflicts []Conflict
	for i, p := range points {
		count := 0
		for j, q := range points {
			if i == j {
				continue
			}
			if math.Hypot(p.X-q.X, p.Y-q.Y) <= radius {
				count++
			}
		}
		if count > defaultMaxClusterDensity {
			conflicts = append(conflicts, Conflict{
				ConflictType:  ConflictClusterViolation,
				StrategyPoint: p,
				Description:   fmt.Sprintf("%d other selected points fall within radius %.4g of (%.4g, %.4g)", count, radius, p.X, p.Y),
				Severity:      severityFor(ConflictClusterViolation, mode),
			})
		}
	}
	return conflicts
}
