package rule

import (
	"math"
	"sort"

	"github.com/waferstrat/sampler/pkg/wafer"
)

// CenterEdgeParams are the validated parameters for the centerEdge rule.
type CenterEdgeParams struct {
	CenterCount int
	EdgeCount   int
	EdgeMargin  float64
}

// CenterEdge picks the dies closest to the wafer centroid, then the
// dies closest to the hull minus an edge margin.
type CenterEdge struct{}

func (CenterEdge) Name() string { return "centerEdge" }

func (CenterEdge) Validate(params map[string]any) (any, []ValidationError) {
	var errs []ValidationError

	centerCount, ok := toInt(params["centerCount"])
	if !ok || centerCount < 0 {
		errs = append(errs, ValidationError{Field: "centerCount", Message: "must be a non-negative integer"})
	}
	edgeCount, ok := toInt(params["edgeCount"])
	if !ok || edgeCount < 0 {
		errs = append(errs, ValidationError{Field: "edgeCount", Message: "must be a non-negative integer"})
	}
	edgeMargin, ok := toFloat(params["edgeMargin"])
	if !ok || edgeMargin < 0 {
		errs = append(errs, ValidationError{Field: "edgeMargin", Message: "must be a non-negative number"})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return CenterEdgeParams{CenterCount: centerCount, EdgeCount: edgeCount, EdgeMargin: edgeMargin}, nil
}

func (CenterEdge) Apply(wm *wafer.Map, validated any, _ Context) ([]Candidate, error) {
	p := validated.(CenterEdgeParams)
	available := wm.AvailableDies()
	if len(available) == 0 {
		return nil, nil
	}

	cx, cy, _ := wm.Centroid()
	type distDie struct {
		d wafer.Die
		r float64
	}
	dd := make([]distDie, len(available))
	for i, d := range available {
		dd[i] = distDie{d: d, r: math.Hypot(float64(d.X)-cx, float64(d.Y)-cy)}
	}
	sort.Slice(dd, func(i, j int) bool {
		if dd[i].r != dd[j].r {
			return dd[i].r < dd[j].r
		}
		if dd[i].d.X != dd[j].d.X {
			return dd[i].d.X < dd[j].d.X
		}
		return dd[i].d.Y < dd[j].d.Y
	})

	var out []Candidate

	n := p.CenterCount
	if n > len(dd) {
		n = len(dd)
	}
	maxR := dd[len(dd)-1].r
	for i := 0; i < n; i++ {
		priority := 1.0
		if maxR > 0 {
			priority = 1.0 - dd[i].r/maxR*float64(i)/float64(max(n-1, 1))
		}
		out = append(out, Candidate{Coord: dd[i].d.Coord(), Priority: clamp01(priority)})
	}

	hullR := dd[len(dd)-1].r - p.EdgeMargin
	edgeCandidates := make([]distDie, 0, len(dd))
	for _, e := range dd {
		if e.r >= hullR {
			edgeCandidates = append(edgeCandidates, e)
		}
	}
	sort.Slice(edgeCandidates, func(i, j int) bool {
		if edgeCandidates[i].r != edgeCandidates[j].r {
			return edgeCandidates[i].r > edgeCandidates[j].r
		}
		if edgeCandidates[i].d.X != edgeCandidates[j].d.X {
			return edgeCandidates[i].d.X < edgeCandidates[j].d.X
		}
		return edgeCandidates[i].d.Y < edgeCandidates[j].d.Y
	})

	m := p.EdgeCount
	if m > len(edgeCandidates) {
		m = len(edgeCandidates)
	}
	for i := 0; i < m; i++ {
		norm := 1.0
		if maxR > 0 {
			norm = edgeCandidates[i].r / maxR
		}
		out = append(out, Candidate{Coord: edgeCandidates[i].d.Coord(), Priority: clamp01(0.8 * norm)})
	}

	return out, nil
}

func (CenterEdge) Estimate(wm *wafer.Map, validated any) Estimate {
	p, ok := validated.(CenterEdgeParams)
	if !ok {
		return Estimate{ExpectedCostClass: CostMedium}
	}
	count := p.CenterCount + p.EdgeCount
	class := CostLow
	if len(wm.AvailableDies()) > 1000 {
		class = CostMedium
	}
	return Estimate{ExpectedPointCount: count, ExpectedCostClass: class}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func init() {
	Builtins.Register("centerEdge", CenterEdge{})
}
