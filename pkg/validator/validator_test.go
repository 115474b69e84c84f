package validator

import (
	"context"
	"testing"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/registry"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/schematic"
	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/vendorexport"
)

// grid4x4 returns a schematic with 16 evenly spaced, 10x10 die boundaries
// arranged in a 4x4 grid, all available. The 10-unit pitch keeps the
// synthesized wafer map's integer (0..3, 0..3) grid coordinates well
// inside each die's interior rather than on a shared edge.
func grid4x4(unavailable map[string]bool) *schematic.Data {
	var dies []schematic.DieBoundary
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			id := coordID(x, y)
			dies = append(dies, schematic.DieBoundary{
				DieID:     id,
				Bounds:    geometry.Bounds{XMin: float64(x) * 10, YMin: float64(y) * 10, XMax: float64(x)*10 + 10, YMax: float64(y)*10 + 10},
				Available: !unavailable[id],
			})
		}
	}
	return &schematic.Data{ID: "sch-1", Dies: dies}
}

func coordID(x, y int) string {
	return string(rune('A'+x)) + string(rune('0'+y))
}

// calibratedTransform maps a synthesized wafer grid index i to the
// physical center of die column/row i on a 10-unit pitch, matching
// grid4x4's layout: it is what a real strategy author's transform
// calibration step would have produced for this schematic.
var calibratedTransform = &geometry.TransformationConfig{ScaleFactor: 10, OffsetX: 5, OffsetY: 5}

func compile(t *testing.T, points []any, weight float64) *strategy.CompiledStrategy {
	t.Helper()
	return compileWithTransform(t, points, weight, calibratedTransform)
}

func compileWithTransform(t *testing.T, points []any, weight float64, transform *geometry.TransformationConfig) *strategy.CompiledStrategy {
	t.Helper()
	rules := registry.New[rule.Rule]("rule")
	rules.Register("fixedPoint", rule.FixedPoint{})
	vendors := registry.New[vendorexport.Emitter]("vendorEmitter")

	def := strategy.StrategyDefinition{
		ID:      "strat-1",
		Name:    "test",
		Version: "1.0.0",
		Rules: []strategy.RuleConfig{
			{RuleType: "fixedPoint", Parameters: map[string]any{"points": points}, Weight: weight, Enabled: true},
		},
		Transformations: transform,
	}
	cs, err := strategy.Compile(def, rules, vendors)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	return cs
}

func execCtx() strategy.ExecutionContext {
	return strategy.ExecutionContext{ToolConstraints: rule.ToolConstraints{MaxSites: -1}}
}

func TestValidateCleanAlignmentPasses(t *testing.T) {
	data := grid4x4(nil)
	cs := compile(t, []any{[]any{0, 0}, []any{1, 1}, []any{2, 2}}, 1.0)

	result, err := Validate(context.Background(), data, cs, execCtx(), ModePermissive, "tester")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(result.Conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %+v", result.Conflicts)
	}
	if result.ValidationStatus != StatusPass {
		t.Errorf("ValidationStatus = %q, want pass", result.ValidationStatus)
	}
	if result.AlignmentScore != 1.0 {
		t.Errorf("AlignmentScore = %v, want 1.0", result.AlignmentScore)
	}
	if result.TotalPoints != 3 || result.ValidPoints != 3 {
		t.Errorf("TotalPoints/ValidPoints = %d/%d, want 3/3", result.TotalPoints, result.ValidPoints)
	}
}

func TestValidateOutOfBoundsConflict(t *testing.T) {
	data := grid4x4(nil)
	// An uncalibrated transform leaves the selected point far outside
	// every die boundary (the layout only spans [0, 40] on each axis).
	transform := &geometry.TransformationConfig{ScaleFactor: 1, OffsetX: 100, OffsetY: 100}
	cs := compileWithTransform(t, []any{[]any{0, 0}}, 1.0, transform)

	result, err := Validate(context.Background(), data, cs, execCtx(), ModePermissive, "tester")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].ConflictType != ConflictOutOfBounds {
		t.Fatalf("expected a single outOfBounds conflict, got %+v", result.Conflicts)
	}
	if result.Conflicts[0].Severity != SeverityWarning {
		t.Errorf("permissive outOfBounds severity = %q, want warning", result.Conflicts[0].Severity)
	}
}

func TestValidateStrictModeEscalatesOutOfBounds(t *testing.T) {
	data := grid4x4(nil)
	transform := &geometry.TransformationConfig{ScaleFactor: 1, OffsetX: 100, OffsetY: 100}
	cs := compileWithTransform(t, []any{[]any{0, 0}}, 1.0, transform)

	result, err := Validate(context.Background(), data, cs, execCtx(), ModeStrict, "tester")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0].Severity != SeverityError {
		t.Fatalf("expected the outOfBounds conflict to escalate to error in strict mode, got %+v", result.Conflicts)
	}
	if result.ValidationStatus != StatusFail {
		t.Errorf("ValidationStatus = %q, want fail", result.ValidationStatus)
	}
}

func TestValidateUnavailableDieConflict(t *testing.T) {
	data := grid4x4(map[string]bool{"A0": true})
	cs := compile(t, []any{[]any{0, 0}}, 1.0)

	result, err := Validate(context.Background(), data, cs, execCtx(), ModePermissive, "tester")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	var found bool
	for _, c := range result.Conflicts {
		if c.ConflictType == ConflictUnavailableDie && c.AffectedDieID == "A0" {
			found = true
			if c.Severity != SeverityError {
				t.Errorf("unavailableDie severity = %q, want error", c.Severity)
			}
		}
	}
	if !found {
		t.Fatalf("expected an unavailableDie conflict for A0, got %+v", result.Conflicts)
	}
	if result.ValidationStatus != StatusFail {
		t.Errorf("ValidationStatus = %q, want fail (error-severity conflict present)", result.ValidationStatus)
	}
}

func TestValidateEmptySchematicYieldsZeroScore(t *testing.T) {
	data := &schematic.Data{ID: "sch-empty"}
	cs := compile(t, []any{}, 1.0)

	result, err := Validate(context.Background(), data, cs, execCtx(), ModePermissive, "tester")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if result.TotalPoints != 0 {
		t.Fatalf("TotalPoints = %d, want 0", result.TotalPoints)
	}
	if result.AlignmentScore != 0 {
		t.Errorf("AlignmentScore = %v, want 0 for a strategy with nothing to validate", result.AlignmentScore)
	}
	if result.ValidationStatus != StatusFail {
		t.Errorf("ValidationStatus = %q, want fail", result.ValidationStatus)
	}
}

func TestValidateCoveragePct(t *testing.T) {
	data := grid4x4(nil)
	cs := compile(t, []any{[]any{0, 0}, []any{1, 0}}, 1.0)

	result, err := Validate(context.Background(), data, cs, execCtx(), ModePermissive, "tester")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	want := 2.0 / 16.0 * 100
	if result.CoveragePct != want {
		t.Errorf("CoveragePct = %v, want %v", result.CoveragePct, want)
	}
}

func TestRecommendationsAreDeterministic(t *testing.T) {
	data := grid4x4(nil)
	transform := &geometry.TransformationConfig{ScaleFactor: 1, OffsetX: 100, OffsetY: 100}
	cs := compileWithTransform(t, []any{[]any{0, 0}, []any{1, 1}}, 1.0, transform)

	r1, err := Validate(context.Background(), data, cs, execCtx(), ModePermissive, "tester")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	r2, err := Validate(context.Background(), data, cs, execCtx(), ModePermissive, "tester")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if len(r1.Recommendations) == 0 || len(r1.Recommendations) != len(r2.Recommendations) {
		t.Fatalf("Recommendations not stable across runs: %v vs %v", r1.Recommendations, r2.Recommendations)
	}
	for i := range r1.Recommendations {
		if r1.Recommendations[i] != r2.Recommendations[i] {
			t.Errorf("recommendation %d differs: %q vs %q", i, r1.Recommendations[i], r2.Recommendations[i])
		}
	}
}
