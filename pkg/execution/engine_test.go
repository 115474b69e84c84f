package execution

import (
	"context"
	"testing"

	"github.com/waferstrat/sampler/pkg/registry"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/vendorexport"
	"github.com/waferstrat/sampler/pkg/wafer"
)

func gridWafer(n int) *wafer.Map {
	wm := wafer.NewMap()
	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			wm.AddDie(wafer.Die{X: x, Y: y, Available: true})
		}
	}
	return wm
}

func compileFixedPoint(t *testing.T, points []any, weight float64) *strategy.CompiledStrategy {
	t.Helper()
	rules := registry.New[rule.Rule]("rule")
	rules.Register("fixedPoint", rule.FixedPoint{})
	vendors := registry.New[vendorexport.Emitter]("vendorEmitter")

	def := strategy.StrategyDefinition{
		ID:      "s1",
		Name:    "test",
		Version: "1.0.0",
		Rules: []strategy.RuleConfig{
			{RuleType: "fixedPoint", Parameters: map[string]any{"points": points}, Weight: weight, Enabled: true},
		},
	}
	cs, err := strategy.Compile(def, rules, vendors)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	return cs
}

func TestExecuteBasicSelection(t *testing.T) {
	wm := gridWafer(3)
	cs := compileFixedPoint(t, []any{[]any{0, 0}, []any{1, 1}}, 1.0)

	result, err := Execute(context.Background(), cs, wm, strategy.ExecutionContext{ToolConstraints: rule.ToolConstraints{MaxSites: -1}})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result.SelectedPoints) != 2 {
		t.Fatalf("len(SelectedPoints) = %d, want 2", len(result.SelectedPoints))
	}
	for _, p := range result.SelectedPoints {
		if p.Priority != 1.0 {
			t.Errorf("Priority = %v, want 1.0 (single rule, weight normalizes to itself)", p.Priority)
		}
		if p.RuleSource != "fixedPoint" {
			t.Errorf("RuleSource = %q, want fixedPoint", p.RuleSource)
		}
	}
	if result.CoverageStats.SelectedCount != 2 {
		t.Errorf("SelectedCount = %d, want 2", result.CoverageStats.SelectedCount)
	}
}

func TestExecuteEmptyWafer(t *testing.T) {
	wm := wafer.NewMap()
	cs := compileFixedPoint(t, []any{[]any{0, 0}}, 1.0)

	result, err := Execute(context.Background(), cs, wm, strategy.ExecutionContext{})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result.SelectedPoints) != 0 {
		t.Fatalf("expected 0 selected points for an empty wafer, got %d", len(result.SelectedPoints))
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != WarnEmptyWafer {
		t.Fatalf("expected a single emptyWafer warning, got %+v", result.Warnings)
	}
}

func TestExecuteMaxSitesZeroIsInfeasible(t *testing.T) {
	wm := gridWafer(3)
	cs := compileFixedPoint(t, []any{[]any{0, 0}}, 1.0)

	result, err := Execute(context.Background(), cs, wm, strategy.ExecutionContext{ToolConstraints: rule.ToolConstraints{MaxSites: 0}})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != WarnToolConstraintInfeasible {
		t.Fatalf("expected a single toolConstraintInfeasible warning, got %+v", result.Warnings)
	}
}

func TestExecuteNoEligibleRulesWhenConditionsFail(t *testing.T) {
	wm := gridWafer(3)
	rules := registry.New[rule.Rule]("rule")
	rules.Register("fixedPoint", rule.FixedPoint{})
	vendors := registry.New[vendorexport.Emitter]("vendorEmitter")

	waferSize := "450mm"
	def := strategy.StrategyDefinition{
		ID:      "s1",
		Name:    "test",
		Version: "1.0.0",
		Rules: []strategy.RuleConfig{
			{
				RuleType:   "fixedPoint",
				Parameters: map[string]any{"points": []any{[]any{0, 0}}},
				Weight:     1.0,
				Enabled:    true,
				Conditions: &strategy.ConditionalLogic{WaferSize: &waferSize},
			},
		},
	}
	cs, err := strategy.Compile(def, rules, vendors)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	result, err := Execute(context.Background(), cs, wm, strategy.ExecutionContext{WaferSize: "300mm", ToolConstraints: rule.ToolConstraints{MaxSites: -1}})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != WarnNoEligibleRules {
		t.Fatalf("expected a single noEligibleRules warning, got %+v", result.Warnings)
	}
}

func TestExecuteDeduplicatesAndJoinsRuleSources(t *testing.T) {
	wm := gridWafer(3)
	rules := registry.New[rule.Rule]("rule")
	rules.Register("fixedPoint", rule.FixedPoint{})
	rules.Register("uniformGrid", rule.UniformGrid{})
	vendors := registry.New[vendorexport.Emitter]("vendorEmitter")

	def := strategy.StrategyDefinition{
		ID:      "s1",
		Name:    "test",
		Version: "1.0.0",
		Rules: []strategy.RuleConfig{
			{RuleType: "fixedPoint", Parameters: map[string]any{"points": []any{[]any{0, 0}}}, Weight: 1.0, Enabled: true},
			{RuleType: "uniformGrid", Parameters: map[string]any{"gridSpacing": 1.0, "offsetX": 0.0, "offsetY": 0.0, "rotation": 0.0}, Weight: 1.0, Enabled: true},
		},
	}
	cs, err := strategy.Compile(def, rules, vendors)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	result, err := Execute(context.Background(), cs, wm, strategy.ExecutionContext{ToolConstraints: rule.ToolConstraints{MaxSites: -1}})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	var foundMerged bool
	for _, p := range result.SelectedPoints {
		if p.X == 0 && p.Y == 0 {
			if p.RuleSource != "fixedPoint,uniformGrid" {
				t.Errorf("RuleSource at (0,0) = %q, want fixedPoint,uniformGrid", p.RuleSource)
			}
			foundMerged = true
		}
	}
	if !foundMerged {
		t.Fatal("expected (0,0) to be selected by both rules and merged")
	}
	if result.PerformanceMetrics.DuplicatesMerged < 1 {
		t.Errorf("DuplicatesMerged = %d, want at least 1", result.PerformanceMetrics.DuplicatesMerged)
	}
}

func TestExecuteMinSpacingRejectsCloseCandidates(t *testing.T) {
	wm := gridWafer(5)
	cs := compileFixedPoint(t, []any{[]any{0, 0}, []any{1, 0}, []any{4, 4}}, 1.0)

	result, err := Execute(context.Background(), cs, wm, strategy.ExecutionContext{
		ToolConstraints: rule.ToolConstraints{MaxSites: -1, MinSpacing: 2.0},
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(result.SelectedPoints) != 2 {
		t.Fatalf("len(SelectedPoints) = %d, want 2 (one of the two close points should be rejected)", len(result.SelectedPoints))
	}
}

func TestExecuteIsDeterministicAcrossRuns(t *testing.T) {
	wm := gridWafer(4)
	rules := registry.New[rule.Rule]("rule")
	rules.Register("randomSampling", rule.RandomSampling{})
	vendors := registry.New[vendorexport.Emitter]("vendorEmitter")

	def := strategy.StrategyDefinition{
		ID:      "s1",
		Name:    "test",
		Version: "1.0.0",
		Rules: []strategy.RuleConfig{
			{RuleType: "randomSampling", Parameters: map[string]any{"count": 4}, Weight: 1.0, Enabled: true},
		},
	}
	cs, err := strategy.Compile(def, rules, vendors)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}

	execCtx := strategy.ExecutionContext{ToolConstraints: rule.ToolConstraints{MaxSites: -1}}
	r1, err := Execute(context.Background(), cs, wm, execCtx)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	r2, err := Execute(context.Background(), cs, wm, execCtx)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(r1.SelectedPoints) != len(r2.SelectedPoints) {
		t.Fatalf("selection length differs across runs: %d vs %d", len(r1.SelectedPoints), len(r2.SelectedPoints))
	}
	for i := range r1.SelectedPoints {
		if r1.SelectedPoints[i] != r2.SelectedPoints[i] {
			t.Errorf("point %d differs across runs: %+v vs %+v", i, r1.SelectedPoints[i], r2.SelectedPoints[i])
		}
	}
}

func TestDeriveSeedIsStableAndSensitiveToInputs(t *testing.T) {
	a := DeriveSeed("strategy-1", "1.0.0")
	b := DeriveSeed("strategy-1", "1.0.0")
	if a != b {
		t.Fatal("DeriveSeed should be stable for identical inputs")
	}
	c := DeriveSeed("strategy-1", "1.0.1")
	if a == c {
		t.Fatal("DeriveSeed should change when version changes")
	}
}
