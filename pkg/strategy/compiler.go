package strategy

import (
	"fmt"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/registry"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/vendorexport"
)

// CompileIssue is one aggregated compilation problem. RuleIndex is nil for
// strategy-level issues (bad transform, missing vendor).
type CompileIssue struct {
	RuleIndex *int
	Field     string
	Message   string
}

// CompileError aggregates every problem found while compiling a
// StrategyDefinition. Compilation never stops at the first issue.
type CompileError struct {
	Reasons []CompileIssue
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("strategy failed to compile: %d issue(s)", len(e.Reasons))
}

// CompiledRule is one enabled rule after successful parameter validation:
// a resolved plugin handle, its validated parameters, its weight as
// configured (not normalized), and the conditions (if any) still to be checked against the
// execution context.
type CompiledRule struct {
	RuleType   string
	Rule       rule.Rule
	Validated  any
	Weight     float64
	Conditions *ConditionalLogic
}

// CompiledStrategy is the immutable, execution-ready form of a
// StrategyDefinition: a resolved plugin handle and validated parameters
// per enabled rule, plus the transform and vendor emitter the definition
// named. Callers must not mutate a CompiledStrategy; Compile and its
// callers treat it as cacheable by (DefinitionID, Version).
type CompiledStrategy struct {
	DefinitionID     string
	Version          string
	GlobalConditions *ConditionalLogic
	Rules            []CompiledRule
	Transformations  geometry.TransformationConfig
	TargetVendor     string
	VendorEmitter    vendorexport.Emitter
}

// Compile resolves def against the given rule registry (typically
// rule.Builtins) and vendor registry (typically vendorexport.Builtins),
// running the five checks from the compilation contract:
//  1. every ruleType resolves in the rule registry
//  2. every rule's parameters pass its own Validate
//  3. transformation parameters are within bounds
//  4. the sum of weights over enabled rules is > 0
//  5. targetVendor, if set, resolves in the vendor registry
//
// All five checks run to completion and every failure is reported
// together in a single *CompileError; Compile never stops at the first
// problem.
func Compile(def StrategyDefinition, rules *registry.Registry[rule.Rule], vendors *registry.Registry[vendorexport.Emitter]) (*CompiledStrategy, error) {
	var issues []CompileIssue
	compiled := make([]CompiledRule, 0, len(def.Rules))
	var enabledWeight float64

	for i, rc := range def.Rules {
		idx := i
		if !rc.Enabled {
			continue
		}

		plugin, err := rules.Get(rc.RuleType)
		if err != nil {
			issues = append(issues, CompileIssue{RuleIndex: &idx, Field: "ruleType", Message: err.Error()})
			continue
		}

		validated, verrs := plugin.Validate(rc.Parameters)
		if len(verrs) > 0 {
			for _, ve := range verrs {
				issues = append(issues, CompileIssue{RuleIndex: &idx, Field: ve.Field, Message: ve.Message})
			}
			continue
		}

		if rc.Weight < 0 {
			issues = append(issues, CompileIssue{RuleIndex: &idx, Field: "weight", Message: "must be non-negative"})
			continue
		}

		compiled = append(compiled, CompiledRule{
			RuleType:   rc.RuleType,
			Rule:       plugin,
			Validated:  validated,
			Weight:     rc.Weight,
			Conditions: rc.Conditions,
		})
		enabledWeight += rc.Weight
	}

	if len(compiled) == 0 {
		issues = append(issues, CompileIssue{Field: "rules", Message: "at least one enabled rule is required"})
	} else if enabledWeight <= 0 {
		issues = append(issues, CompileIssue{Field: "rules", Message: "sum of enabled rule weights must be greater than 0"})
	}

	transform := geometry.IdentityTransform()
	if def.Transformations != nil {
		t := *def.Transformations
		if t.RotationAngleDeg < -360 || t.RotationAngleDeg > 360 {
			issues = append(issues, CompileIssue{Field: "transformations.rotationAngleDeg", Message: "must be within [-360, 360]"})
		}
		if t.ScaleFactor <= 0 {
			issues = append(issues, CompileIssue{Field: "transformations.scaleFactor", Message: "must be greater than 0"})
		}
		transform = t
	}

	var emitter vendorexport.Emitter
	if def.TargetVendor != "" {
		e, err := vendors.Get(def.TargetVendor)
		if err != nil {
			issues = append(issues, CompileIssue{Field: "targetVendor", Message: err.Error()})
		} else {
			emitter = e
		}
	}

	if len(issues) > 0 {
		return nil, &CompileError{Reasons: issues}
	}

	return &CompiledStrategy{
		DefinitionID:     def.ID,
		Version:          def.Version,
		GlobalConditions: def.GlobalConditions,
		Rules:            compiled,
		Transformations:  transform,
		TargetVendor:     def.TargetVendor,
		VendorEmitter:    emitter,
	}, nil
}
