package strategy

import (
	"testing"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/registry"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/vendorexport"
)

func newTestRegistries(t *testing.T) (*registry.Registry[rule.Rule], *registry.Registry[vendorexport.Emitter]) {
	t.Helper()
	rules := registry.New[rule.Rule]("rule")
	rules.Register("fixedPoint", rule.FixedPoint{})
	vendors := registry.New[vendorexport.Emitter]("vendorEmitter")
	return rules, vendors
}

func validDef() StrategyDefinition {
	return StrategyDefinition{
		ID:           "11111111-1111-1111-1111-111111111111",
		Name:         "edge-focus",
		StrategyType: StrategyFixedPoint,
		ProcessStep:  "etch",
		ToolType:     "metrology-1",
		Rules: []RuleConfig{
			{
				RuleType: "fixedPoint",
				Parameters: map[string]any{
					"points": []any{[]any{0, 0}},
				},
				Weight:  1.0,
				Enabled: true,
			},
		},
		Version: "1.0.0",
	}
}

func TestCompileSucceeds(t *testing.T) {
	rules, vendors := newTestRegistries(t)
	cs, err := Compile(validDef(), rules, vendors)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if len(cs.Rules) != 1 {
		t.Fatalf("len(cs.Rules) = %d, want 1", len(cs.Rules))
	}
	if cs.Rules[0].RuleType != "fixedPoint" {
		t.Errorf("RuleType = %q, want fixedPoint", cs.Rules[0].RuleType)
	}
	if cs.Transformations != geometry.IdentityTransform() {
		t.Errorf("Transformations = %+v, want identity", cs.Transformations)
	}
}

func TestCompileAggregatesUnknownPluginAndBadParams(t *testing.T) {
	rules, vendors := newTestRegistries(t)
	def := validDef()
	def.Rules = []RuleConfig{
		{RuleType: "doesNotExist", Parameters: map[string]any{}, Weight: 1, Enabled: true},
		{RuleType: "fixedPoint", Parameters: map[string]any{"points": "garbage"}, Weight: 1, Enabled: true},
	}

	_, err := Compile(def, rules, vendors)
	if err == nil {
		t.Fatal("expected a CompileError")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("error type = %T, want *CompileError", err)
	}
	if len(ce.Reasons) < 2 {
		t.Fatalf("len(ce.Reasons) = %d, want at least 2 (both rules should report independently)", len(ce.Reasons))
	}
}

func TestCompileFailsOnZeroEnabledWeight(t *testing.T) {
	rules, vendors := newTestRegistries(t)
	def := validDef()
	def.Rules[0].Weight = 0

	_, err := Compile(def, rules, vendors)
	if err == nil {
		t.Fatal("expected a CompileError for zero total weight")
	}
}

func TestCompileFailsOnNoEnabledRules(t *testing.T) {
	rules, vendors := newTestRegistries(t)
	def := validDef()
	def.Rules[0].Enabled = false

	_, err := Compile(def, rules, vendors)
	if err == nil {
		t.Fatal("expected a CompileError when no rule is enabled")
	}
}

func TestCompileValidatesTransformBounds(t *testing.T) {
	rules, vendors := newTestRegistries(t)
	def := validDef()
	bad := geometry.TransformationConfig{RotationAngleDeg: 720, ScaleFactor: -1}
	def.Transformations = &bad

	_, err := Compile(def, rules, vendors)
	if err == nil {
		t.Fatal("expected a CompileError for out-of-range transform")
	}
	ce := err.(*CompileError)
	if len(ce.Reasons) < 2 {
		t.Fatalf("expected both rotation and scale issues reported, got %d", len(ce.Reasons))
	}
}

func TestCompileResolvesTargetVendor(t *testing.T) {
	rules, vendors := newTestRegistries(t)
	def := validDef()
	def.TargetVendor = "doesNotExist"

	_, err := Compile(def, rules, vendors)
	if err == nil {
		t.Fatal("expected a CompileError for unresolved vendor")
	}
}

func TestConditionalLogicSatisfied(t *testing.T) {
	waferSize := "300mm"
	var cond *ConditionalLogic = &ConditionalLogic{WaferSize: &waferSize}

	match := ExecutionContext{WaferSize: "300mm"}
	if !cond.Satisfied(match) {
		t.Error("expected condition to match on equal wafer size")
	}

	mismatch := ExecutionContext{WaferSize: "200mm"}
	if cond.Satisfied(mismatch) {
		t.Error("expected condition to fail on differing wafer size")
	}

	var nilCond *ConditionalLogic
	if !nilCond.Satisfied(mismatch) {
		t.Error("nil ConditionalLogic should always be satisfied")
	}
}

func TestConditionalLogicDefectDensityThreshold(t *testing.T) {
	threshold := 0.5
	cond := &ConditionalLogic{DefectDensityThreshold: &threshold}

	if !cond.Satisfied(ExecutionContext{DefectDensity: 0.6}) {
		t.Error("expected density above threshold to satisfy condition")
	}
	if cond.Satisfied(ExecutionContext{DefectDensity: 0.4}) {
		t.Error("expected density below threshold to fail condition")
	}
}
