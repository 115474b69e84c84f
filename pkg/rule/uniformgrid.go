package rule

import (
	"math"

	"github.com/waferstrat/sampler/pkg/wafer"
)

// UniformGridParams are the validated parameters for the uniformGrid
// rule.
type UniformGridParams struct {
	GridSpacing float64
	OffsetX     float64
	OffsetY     float64
	RotationDeg float64
}

// UniformGrid generates a regular lattice of points and snaps each to
// the nearest available die.
type UniformGrid struct{}

func (UniformGrid) Name() string { return "uniformGrid" }

func (UniformGrid) Validate(params map[string]any) (any, []ValidationError) {
	var errs []ValidationError

	spacing, ok := toFloat(params["gridSpacing"])
	if !ok || spacing <= 0 {
		errs = append(errs, ValidationError{Field: "gridSpacing", Message: "must be a positive number"})
	}
	offsetX, _ := toFloat(params["offsetX"])
	offsetY, _ := toFloat(params["offsetY"])
	rotation, _ := toFloat(params["rotation"])

	if len(errs) > 0 {
		return nil, errs
	}
	return UniformGridParams{GridSpacing: spacing, OffsetX: offsetX, OffsetY: offsetY, RotationDeg: rotation}, nil
}

func (UniformGrid) Apply(wm *wafer.Map, validated any, _ Context) ([]Candidate, error) {
	p := validated.(UniformGridParams)
	available := wm.AvailableDies()
	if len(available) == 0 {
		return nil, nil
	}

	rad := p.RotationDeg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	minX, minY, maxX, maxY := available[0].X, available[0].Y, available[0].X, available[0].Y
	for _, d := range available {
		if d.X < minX {
			minX = d.X
		}
		if d.X > maxX {
			maxX = d.X
		}
		if d.Y < minY {
			minY = d.Y
		}
		if d.Y > maxY {
			maxY = d.Y
		}
	}

	seen := map[wafer.Coord]bool{}
	var out []Candidate

	for gx := p.OffsetX; gx <= float64(maxX)+p.GridSpacing; gx += p.GridSpacing {
		for gy := p.OffsetY; gy <= float64(maxY)+p.GridSpacing; gy += p.GridSpacing {
			lx, ly := gx-p.OffsetX, gy-p.OffsetY
			rx := lx*cos - ly*sin + p.OffsetX
			ry := lx*sin + ly*cos + p.OffsetY

			nearest, dist, ok := nearestDie(available, rx, ry)
			if !ok {
				continue
			}
			if seen[nearest.Coord()] {
				continue
			}
			seen[nearest.Coord()] = true

			priority := 1.0 - dist/p.GridSpacing
			out = append(out, Candidate{Coord: nearest.Coord(), Priority: clamp01(priority)})
		}
	}
	return out, nil
}

// nearestDie finds the closest die to (x, y). dies may arrive in
// unspecified order (wafer.Map iterates a Go map internally), so ties
// are broken by ascending (X, Y) to keep the result deterministic
// regardless of that order.
func nearestDie(dies []wafer.Die, x, y float64) (wafer.Die, float64, bool) {
	if len(dies) == 0 {
		return wafer.Die{}, 0, false
	}
	best := dies[0]
	bestDist := math.Hypot(float64(best.X)-x, float64(best.Y)-y)
	for _, d := range dies[1:] {
		dist := math.Hypot(float64(d.X)-x, float64(d.Y)-y)
		if dist < bestDist || (dist == bestDist && (d.X < best.X || (d.X == best.X && d.Y < best.Y))) {
			bestDist = dist
			best = d
		}
	}
	return best, bestDist, true
}

func (UniformGrid) Estimate(wm *wafer.Map, validated any) Estimate {
	p, ok := validated.(UniformGridParams)
	if !ok || p.GridSpacing <= 0 {
		return Estimate{ExpectedCostClass: CostMedium}
	}
	n := len(wm.AvailableDies())
	class := CostLow
	if n > 1000 {
		class = CostHigh
	} else if n > 100 {
		class = CostMedium
	}
	return Estimate{ExpectedPointCount: n, ExpectedCostClass: class}
}

func init() {
	Builtins.Register("uniformGrid", UniformGrid{})
}
