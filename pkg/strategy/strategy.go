package strategy

import (
	"time"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/rule"
)

// StrategyType names the high-level sampling approach a strategy
// implements. It is descriptive metadata; the actual behavior comes from
// the rules list, which may mix rule types regardless of this tag.
type StrategyType string

const (
	StrategyFixedPoint      StrategyType = "fixedPoint"
	StrategyCenterEdge      StrategyType = "centerEdge"
	StrategyUniformGrid     StrategyType = "uniformGrid"
	StrategyRandomSampling  StrategyType = "randomSampling"
	StrategyHotspotPriority StrategyType = "hotspotPriority"
	StrategyAdaptive        StrategyType = "adaptive"
	StrategyCustom          StrategyType = "custom"
)

// LifecycleState is a strategy's position in the draft/review/approved/
// active/deprecated state machine (see pkg/repository).
type LifecycleState string

const (
	StateDraft      LifecycleState = "draft"
	StateReview     LifecycleState = "review"
	StateApproved   LifecycleState = "approved"
	StateActive     LifecycleState = "active"
	StateDeprecated LifecycleState = "deprecated"
)

// ConditionalLogic gates whether a rule or an entire strategy fires for a
// given ExecutionContext. Every set field must match; an unset field means
// "don't care". DefectDensityThreshold is satisfied when the context's
// defect density is at or above the threshold.
type ConditionalLogic struct {
	WaferSize              *string        `json:"waferSize,omitempty"`
	ProductType            *string        `json:"productType,omitempty"`
	ProcessLayer           *string        `json:"processLayer,omitempty"`
	DefectDensityThreshold *float64       `json:"defectDensityThreshold,omitempty"`
	CustomConditions       map[string]any `json:"customConditions,omitempty"`
}

// Satisfied reports whether ctx satisfies every condition in c. A nil
// receiver is always satisfied.
func (c *ConditionalLogic) Satisfied(ctx ExecutionContext) bool {
	if c == nil {
		return true
	}
	if c.WaferSize != nil && *c.WaferSize != ctx.WaferSize {
		return false
	}
	if c.ProductType != nil && *c.ProductType != ctx.ProductType {
		return false
	}
	if c.ProcessLayer != nil && *c.ProcessLayer != ctx.ProcessLayer {
		return false
	}
	if c.DefectDensityThreshold != nil && ctx.DefectDensity < *c.DefectDensityThreshold {
		return false
	}
	for k, want := range c.CustomConditions {
		got, ok := ctx.CustomParams[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ExecutionContext carries everything a strategy's conditions and rules
// may read at execution time: the process/product tags ConditionalLogic
// matches against, plus the process parameters and tool constraints rules
// themselves consume.
type ExecutionContext struct {
	WaferSize       string
	ProductType     string
	ProcessLayer    string
	DefectDensity   float64
	CustomParams    map[string]any
	ProcessParams   map[string]float64
	ToolConstraints rule.ToolConstraints
}

// RuleContext projects the parts of ctx a rule.Rule is allowed to read.
func (ctx ExecutionContext) RuleContext() rule.Context {
	return rule.Context{ProcessParams: ctx.ProcessParams, ToolConstraints: ctx.ToolConstraints}
}

// RuleConfig is one entry in a strategy's ordered rule list: a rule
// plugin name, its raw (pre-validation) parameters, a weight used to
// normalize priorities across rules at execution time, and optional
// conditions gating whether it fires at all.
type RuleConfig struct {
	RuleType   string            `json:"ruleType"`
	Parameters map[string]any    `json:"parameters,omitempty"`
	Weight     float64           `json:"weight"`
	Enabled    bool              `json:"enabled"`
	Conditions *ConditionalLogic `json:"conditions,omitempty"`
}

// StrategyDefinition is the author-facing, persisted form of a sampling
// strategy. The repository edits a draft version in place; an edit to an
// approved-or-later version creates a new (id, version) tuple rather
// than mutating the existing one.
type StrategyDefinition struct {
	ID                   string                         `json:"id"`
	Name                 string                         `json:"name"`
	Description          string                         `json:"description,omitempty"`
	StrategyType         StrategyType                   `json:"strategyType,omitempty"`
	ProcessStep          string                         `json:"processStep"`
	ToolType             string                         `json:"toolType"`
	Rules                []RuleConfig                   `json:"rules"`
	GlobalConditions     *ConditionalLogic              `json:"globalConditions,omitempty"`
	Transformations      *geometry.TransformationConfig `json:"transformations,omitempty"`
	TargetVendor         string                         `json:"targetVendor,omitempty"`
	VendorSpecificParams map[string]any                 `json:"vendorSpecificParams,omitempty"`
	Version              string                         `json:"version"`
	Author               string                         `json:"author"`
	CreatedAt            time.Time                      `json:"createdAt"`
	ModifiedAt           time.Time                      `json:"modifiedAt"`
	LifecycleState       LifecycleState                 `json:"lifecycleState"`
	SchemaVersion        string                         `json:"schemaVersion,omitempty"`
}

// HasRules reports whether the definition has at least one rule, the
// precondition for simulation and for promotion past draft.
func (d StrategyDefinition) HasRules() bool { return len(d.Rules) > 0 }
