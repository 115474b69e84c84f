package rule

import (
	"fmt"

	"github.com/waferstrat/sampler/pkg/wafer"
)

// FixedPointParams are the validated parameters for the fixedPoint rule.
type FixedPointParams struct {
	Points []wafer.Coord
}

// FixedPoint emits a fixed list of caller-supplied coordinates, each
// with priority 1.0, dropping (with a warning left to the caller) any
// coordinate absent from the wafer map.
type FixedPoint struct{}

func (FixedPoint) Name() string { return "fixedPoint" }

func (FixedPoint) Validate(params map[string]any) (any, []ValidationError) {
	raw, ok := params["points"]
	if !ok {
		return nil, []ValidationError{{Field: "points", Message: "required"}}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, []ValidationError{{Field: "points", Message: "must be a list of (x, y) pairs"}}
	}

	var errs []ValidationError
	coords := make([]wafer.Coord, 0, len(list))
	for i, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("points[%d]", i), Message: "must be an (x, y) pair"})
			continue
		}
		x, xok := toInt(pair[0])
		y, yok := toInt(pair[1])
		if !xok || !yok {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("points[%d]", i), Message: "coordinates must be integers"})
			continue
		}
		coords = append(coords, wafer.Coord{X: x, Y: y})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return FixedPointParams{Points: coords}, nil
}

func (FixedPoint) Apply(wm *wafer.Map, validated any, _ Context) ([]Candidate, error) {
	p := validated.(FixedPointParams)
	out := make([]Candidate, 0, len(p.Points))
	for _, c := range p.Points {
		if _, ok := wm.Get(c); ok {
			out = append(out, Candidate{Coord: c, Priority: 1.0})
		}
	}
	return out, nil
}

func (FixedPoint) Estimate(_ *wafer.Map, validated any) Estimate {
	p, ok := validated.(FixedPointParams)
	if !ok {
		return Estimate{ExpectedCostClass: CostLow}
	}
	return Estimate{ExpectedPointCount: len(p.Points), ExpectedCostClass: CostLow}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

func init() {
	Builtins.Register("fixedPoint", FixedPoint{})
}
