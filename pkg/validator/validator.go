package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/waferstrat/sampler/pkg/execution"
	"github.com/waferstrat/sampler/pkg/schematic"
	"github.com/waferstrat/sampler/pkg/strategy"
)

// Validate executes compiled against a wafer map synthesized from data's
// die boundaries, then checks every selected point against the real
// layout: points outside every boundary, points that repeat a die,
// points landing on an unavailable die, and overly dense neighborhoods.
// It returns a well-formed Result even when the strategy selects no
// points; only an execution or context error is returned as err.
func Validate(ctx context.Context, data *schematic.Data, compiled *strategy.CompiledStrategy, execCtx strategy.ExecutionContext, mode Mode, validatedBy string) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	wm := synthesizeWaferMap(data.Dies)
	simResult, err := execution.Execute(ctx, compiled, wm, execCtx)
	if err != nil {
		return nil, fmt.Errorf("executing strategy for validation: %w", err)
	}

	idx := newBoundaryIndex(data.Dies)

	var conflicts []Conflict
	hitDieIDs := make(map[string]int)
	var validPoints int

	for _, p := range simResult.SelectedPoints {
		boundary, found := idx.find(p.X, p.Y)
		if !found {
			conflicts = append(conflicts, Conflict{
				ConflictType:  ConflictOutOfBounds,
				StrategyPoint: p,
				Description:   "selected point does not fall within any die boundary",
				Severity:      severityFor(ConflictOutOfBounds, mode),
			})
			continue
		}

		validPoints++
		hitDieIDs[boundary.DieID]++
		if hitDieIDs[boundary.DieID] > 1 {
			conflicts = append(conflicts, Conflict{
				ConflictType:  ConflictDuplicateSite,
				StrategyPoint: p,
				Description:   fmt.Sprintf("die %q already has a selected point", boundary.DieID),
				Severity:      severityFor(ConflictDuplicateSite, mode),
				AffectedDieID: boundary.DieID,
			})
		}
		if !boundary.Available {
			conflicts = append(conflicts, Conflict{
				ConflictType:  ConflictUnavailableDie,
				StrategyPoint: p,
				Description:   fmt.Sprintf("die %q is marked unavailable", boundary.DieID),
				Severity:      severityFor(ConflictUnavailableDie, mode),
				AffectedDieID: boundary.DieID,
			})
		}
	}

	clusterRadius := medianDieWidth(data.Dies)
	conflicts = append(conflicts, detectClusters(simResult.SelectedPoints, clusterRadius, mode)...)

	for i := range conflicts {
		if conflicts[i].Recommendation == "" {
			conflicts[i].Recommendation = recommendationTable[conflicts[i].ConflictType]
		}
	}

	totalPoints := len(simResult.SelectedPoints)
	score := alignmentScore(conflicts, totalPoints)
	coverage := coveragePercent(hitDieIDs, len(data.Dies))
	status := validationStatus(conflicts, score)

	var warnings []string
	for _, w := range simResult.Warnings {
		warnings = append(warnings, w.Message)
	}

	return &Result{
		StrategyID:       compiled.DefinitionID,
		SchematicID:      data.ID,
		ValidationStatus: status,
		AlignmentScore:   score,
		CoveragePct:      coverage,
		TotalPoints:      totalPoints,
		ValidPoints:      validPoints,
		Conflicts:        conflicts,
		Warnings:         warnings,
		Recommendations:  recommendations(conflicts),
		ValidatedBy:      validatedBy,
		ValidationDate:   time.Now(),
	}, nil
}

func medianDieWidth(dies []schematic.DieBoundary) float64 {
	widths := make([]float64, len(dies))
	for i, d := range dies {
		widths[i] = d.Width()
	}
	return medianOf(widths)
}
