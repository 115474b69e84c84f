package execution

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/rng"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/wafer"
)

// DeriveSeed computes the engine's fallback seed for a strategy that draws
// randomness but whose author never supplied one, following the same
// H(masterSeed, stageName, configHash) derivation every other pipeline
// stage uses, with strategyID+version standing in for the config hash.
func DeriveSeed(strategyID, version string) uint64 {
	h := sha256.Sum256([]byte(strategyID + "@" + version))
	return rng.NewRNG(0, "executionSeed", h[:]).Seed()
}

type mergeEntry struct {
	maxPriority float64
	ruleNames   map[string]bool
}

// point is a candidate sampling site as it moves through dedup, transform
// and constraint application, before being emitted as a SelectedPoint.
type point struct {
	x, y       float64
	ruleSource string
	priority   float64
	available  bool
}

// Execute runs compiled against wm under execCtx, following the fixed
// nine-step algorithm: gate, apply, weight and merge, deduplicate,
// transform, constrain, sort, summarize, warn.
func Execute(ctx context.Context, compiled *strategy.CompiledStrategy, wm *wafer.Map, execCtx strategy.ExecutionContext) (*SimulationResult, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	ruleDist := make(map[string]int)
	for _, cr := range compiled.Rules {
		ruleDist[cr.RuleType] = 0
	}

	if wm.Empty() {
		return emptyResult(ruleDist, WarnEmptyWafer, "wafer map has no dies"), nil
	}

	// toolConstraints.MaxSites == 0 means "zero sites permitted", a
	// distinct, infeasible constraint. A negative or unset MaxSites means
	// "no limit" and is handled later during truncation.
	if execCtx.ToolConstraints.MaxSites == 0 {
		return emptyResult(ruleDist, WarnToolConstraintInfeasible, "maxSites is 0: no sites can be selected"), nil
	}

	// Step 1: gate rules by condition.
	type eligibleRule struct {
		cr        strategy.CompiledRule
		validated any
	}
	var eligible []eligibleRule
	var enabledWeight float64
	seed := DeriveSeed(compiled.DefinitionID, compiled.Version)

	for _, cr := range compiled.Rules {
		if !compiled.GlobalConditions.Satisfied(execCtx) || !cr.Conditions.Satisfied(execCtx) {
			continue
		}
		validated := cr.Validated
		if fs, ok := validated.(rule.FallbackSeeder); ok {
			validated = fs.WithFallbackSeed(seed)
		}
		eligible = append(eligible, eligibleRule{cr: cr, validated: validated})
		enabledWeight += cr.Weight
	}

	if len(eligible) == 0 || enabledWeight <= 0 {
		return emptyResult(ruleDist, WarnNoEligibleRules, "no rule's conditions were satisfied by the execution context"), nil
	}

	var warnings []Warning
	var candidatesGenerated int
	merged := make(map[wafer.Coord]*mergeEntry)

	// Step 2 + 3: apply each eligible rule, weight and merge.
	for _, er := range eligible {
		cands, err := er.cr.Rule.Apply(wm, er.validated, execCtx.RuleContext())
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", er.cr.RuleType, err)
		}
		candidatesGenerated += len(cands)

		if len(cands) == 0 {
			warnings = append(warnings, Warning{
				Code:    WarnRuleProducedNoPoints,
				Message: fmt.Sprintf("rule %q produced 0 points", er.cr.RuleType),
			})
		} else if est := er.cr.Rule.Estimate(wm, er.validated); est.ExpectedPointCount > 0 && len(cands) > est.ExpectedPointCount*3 {
			warnings = append(warnings, Warning{
				Code:    WarnRuleOverproduced,
				Message: fmt.Sprintf("rule %q produced %d points, more than 3x its estimate of %d", er.cr.RuleType, len(cands), est.ExpectedPointCount),
			})
		}

		for _, c := range cands {
			finalPriority := c.Priority * er.cr.Weight / enabledWeight
			e, ok := merged[c.Coord]
			if !ok {
				e = &mergeEntry{ruleNames: make(map[string]bool)}
				merged[c.Coord] = e
			}
			e.ruleNames[er.cr.RuleType] = true
			if finalPriority > e.maxPriority {
				e.maxPriority = finalPriority
			}
		}
	}

	// Step 4: deduplicate by coordinate (already merged above); build the
	// working point list with the pre-transform coordinate retained for
	// the availability lookup.
	points := make([]point, 0, len(merged))
	for coord, e := range merged {
		names := make([]string, 0, len(e.ruleNames))
		for n := range e.ruleNames {
			names = append(names, n)
		}
		sort.Strings(names)
		die, _ := wm.Get(coord)
		points = append(points, point{
			x:          float64(coord.X),
			y:          float64(coord.Y),
			ruleSource: strings.Join(names, ","),
			priority:   e.maxPriority,
			available:  die.Available,
		})
	}

	// Step 5: apply transformations.
	minX, minY, maxX, maxY, _ := wm.Bounds()
	var outOfBounds int
	for i := range points {
		tp := geometry.ApplyTransform(geometry.Point2D{X: points[i].x, Y: points[i].y}, compiled.Transformations)
		points[i].x, points[i].y = tp.X, tp.Y
		if tp.X < float64(minX) || tp.X > float64(maxX) || tp.Y < float64(minY) || tp.Y > float64(maxY) {
			outOfBounds++
		}
	}
	if outOfBounds > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnTransformedOutOfBounds,
			Message: fmt.Sprintf("%d transformed point(s) fall outside the wafer map bounds", outOfBounds),
		})
	}

	deterministicSort(points)

	// Step 6: apply tool constraints.
	beforeConstraints := len(points)
	var spacingRejected int
	if execCtx.ToolConstraints.MinSpacing > 0 {
		kept := points[:0:0]
		for _, p := range points {
			ok := true
			for _, k := range kept {
				if math.Hypot(p.x-k.x, p.y-k.y) < execCtx.ToolConstraints.MinSpacing {
					ok = false
					break
				}
			}
			if ok {
				kept = append(kept, p)
			} else {
				spacingRejected++
			}
		}
		points = kept
	}
	if execCtx.ToolConstraints.MaxSites > 0 && len(points) > execCtx.ToolConstraints.MaxSites {
		points = points[:execCtx.ToolConstraints.MaxSites]
	}
	if beforeConstraints > 0 && float64(spacingRejected)/float64(beforeConstraints) > 0.2 {
		warnings = append(warnings, Warning{
			Code:    WarnSpacingTruncatedExcessive,
			Message: fmt.Sprintf("minSpacing rejected %d of %d candidates (%.0f%%)", spacingRejected, beforeConstraints, 100*float64(spacingRejected)/float64(beforeConstraints)),
		})
	}

	// Step 7: final sort (idempotent given the sort already applied above,
	// restated here because the constraint step can change membership).
	deterministicSort(points)

	// Step 8: statistics.
	selected := make([]SelectedPoint, len(points))
	var cx, cy float64
	for i, p := range points {
		selected[i] = SelectedPoint{X: p.x, Y: p.y, RuleSource: p.ruleSource, Priority: p.priority, Available: p.available}
		cx += p.x
		cy += p.y
		for _, name := range strings.Split(p.ruleSource, ",") {
			ruleDist[name]++
		}
	}
	if len(points) > 0 {
		cx /= float64(len(points))
		cy /= float64(len(points))
	}

	availableDies := len(wm.AvailableDies())
	coveragePct := 0.0
	if availableDies > 0 {
		coveragePct = float64(len(points)) / float64(availableDies) * 100
	}

	return &SimulationResult{
		SelectedPoints: selected,
		CoverageStats: CoverageStats{
			TotalDies:        wm.Len(),
			AvailableDies:    availableDies,
			SelectedCount:    len(points),
			CoveragePct:      coveragePct,
			RuleDistribution: ruleDist,
			CentroidX:        cx,
			CentroidY:        cy,
		},
		PerformanceMetrics: PerformanceMetrics{
			CandidatesGenerated: candidatesGenerated,
			DuplicatesMerged:    candidatesGenerated - len(merged),
			SpacingRejected:     spacingRejected,
		},
		Warnings: warnings,
	}, nil
}

// deterministicSort orders points by priority descending, breaking ties by
// (ruleSource, x, y) ascending, per the execution contract's step 7.
func deterministicSort(points []point) {
	sort.Slice(points, func(i, j int) bool {
		if points[i].priority != points[j].priority {
			return points[i].priority > points[j].priority
		}
		if points[i].ruleSource != points[j].ruleSource {
			return points[i].ruleSource < points[j].ruleSource
		}
		if points[i].x != points[j].x {
			return points[i].x < points[j].x
		}
		return points[i].y < points[j].y
	})
}

func emptyResult(ruleDist map[string]int, code, message string) *SimulationResult {
	return &SimulationResult{
		CoverageStats:      CoverageStats{RuleDistribution: ruleDist},
		PerformanceMetrics: PerformanceMetrics{},
		Warnings:           []Warning{{Code: code, Message: message}},
	}
}
