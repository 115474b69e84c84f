package rpc

import (
	"context"
	"fmt"

	"github.com/waferstrat/sampler/pkg/geometry"
	"github.com/waferstrat/sampler/pkg/repository"
	"github.com/waferstrat/sampler/pkg/strategy"
)

// CreateStrategyRequest is createStrategy's input: everything an author
// supplies up front. ID, Version, LifecycleState, CreatedAt, and
// ModifiedAt are assigned by the repository, not the caller.
type CreateStrategyRequest struct {
	Name                 string                         `json:"name"`
	Description          string                         `json:"description,omitempty"`
	StrategyType         strategy.StrategyType          `json:"strategyType,omitempty"`
	ProcessStep          string                         `json:"processStep"`
	ToolType             string                         `json:"toolType"`
	Rules                []strategy.RuleConfig          `json:"rules"`
	GlobalConditions     *strategy.ConditionalLogic     `json:"globalConditions,omitempty"`
	Transformations      *geometry.TransformationConfig `json:"transformations,omitempty"`
	TargetVendor         string                         `json:"targetVendor,omitempty"`
	VendorSpecificParams map[string]any                 `json:"vendorSpecificParams,omitempty"`
	Author               string                         `json:"author"`
}

// CreateStrategy creates a new draft strategy.
func (f *Facade) CreateStrategy(_ context.Context, req CreateStrategyRequest) (strategy.StrategyDefinition, *Error) {
	if verr := validateRequired(map[string]string{"name": req.Name, "processStep": req.ProcessStep, "toolType": req.ToolType, "author": req.Author}); verr != nil {
		return strategy.StrategyDefinition{}, verr
	}
	def := strategy.StrategyDefinition{
		ID:                   newID("strat"),
		Name:                 req.Name,
		Description:          req.Description,
		StrategyType:         req.StrategyType,
		ProcessStep:          req.ProcessStep,
		ToolType:             req.ToolType,
		Rules:                req.Rules,
		GlobalConditions:     req.GlobalConditions,
		Transformations:      req.Transformations,
		TargetVendor:         req.TargetVendor,
		VendorSpecificParams: req.VendorSpecificParams,
		Author:               req.Author,
	}
	created, err := f.Strategies.Create(def)
	if err != nil {
		return strategy.StrategyDefinition{}, translate(err, "createStrategy", 0)
	}
	return created, nil
}

// UpdateStrategyRequest is updateStrategy's input.
type UpdateStrategyRequest struct {
	Rules            []strategy.RuleConfig      `json:"rules"`
	GlobalConditions *strategy.ConditionalLogic `json:"globalConditions,omitempty"`
	Bump             repository.BumpKind        `json:"bump,omitempty"`
}

// UpdateStrategy replaces a strategy's rules/conditions, forking a new
// draft version if the current version is approved or later.
func (f *Facade) UpdateStrategy(_ context.Context, id string, req UpdateStrategyRequest) (strategy.StrategyDefinition, *Error) {
	bump := req.Bump
	if bump == "" {
		bump = repository.BumpPatch
	}
	updated, err := f.Strategies.UpdateWithBump(id, bump, func(d *strategy.StrategyDefinition) {
		d.Rules = req.Rules
		d.GlobalConditions = req.GlobalConditions
	})
	if err != nil {
		return strategy.StrategyDefinition{}, translate(err, "updateStrategy", 0)
	}
	return updated, nil
}

// ListStrategiesFilter narrows the strategies ListStrategies returns.
// An empty filter field matches everything.
type ListStrategiesFilter struct {
	Author         string
	StrategyType   strategy.StrategyType
	ProcessStep    string
	LifecycleState strategy.LifecycleState
}

// ListStrategies returns the current version of each strategy named in
// ids that matches filter; ids with no stored strategy are skipped. It
// does not scan strategies outside ids. The repository does not expose an enumeration
// primitive directly, so the façade asks the caller for ids it already
// knows (e.g. from a prior create/list) rather than guessing a global
// scan API. See GetStrategy for per-id lookups.
func (f *Facade) ListStrategies(_ context.Context, ids []string, filter ListStrategiesFilter) []strategy.StrategyDefinition {
	var out []strategy.StrategyDefinition
	for _, id := range ids {
		def, err := f.Strategies.Get(id)
		if err != nil {
			continue
		}
		if filter.Author != "" && def.Author != filter.Author {
			continue
		}
		if filter.StrategyType != "" && def.StrategyType != filter.StrategyType {
			continue
		}
		if filter.ProcessStep != "" && def.ProcessStep != filter.ProcessStep {
			continue
		}
		if filter.LifecycleState != "" && def.LifecycleState != filter.LifecycleState {
			continue
		}
		out = append(out, def)
	}
	return out
}

// GetStrategy returns a strategy's current version, or a specific
// version when version is non-empty.
func (f *Facade) GetStrategy(_ context.Context, id, version string) (strategy.StrategyDefinition, *Error) {
	if version == "" {
		def, err := f.Strategies.Get(id)
		if err != nil {
			return strategy.StrategyDefinition{}, translate(err, "getStrategy", 0)
		}
		return def, nil
	}
	def, err := f.Strategies.GetVersion(id, version)
	if err != nil {
		return strategy.StrategyDefinition{}, translate(err, "getStrategy", 0)
	}
	return def, nil
}

// DeleteStrategy retires a strategy by deprecating it rather than
// erasing its record: a validation result or exported vendor file may
// still reference the version by id, so the repository never hard-
// deletes a strategy aggregate. A draft cannot be deprecated, so
// deleting a strategy whose current version is a draft fails with
// lifecycleViolation.
func (f *Facade) DeleteStrategy(_ context.Context, id string) *Error {
	_, err := f.Strategies.Deprecate(id)
	if err != nil {
		return translate(err, "deleteStrategy", 0)
	}
	return nil
}

// CloneStrategy deep-copies a strategy's latest version into a new id.
func (f *Facade) CloneStrategy(_ context.Context, id, newName, author string) (strategy.StrategyDefinition, *Error) {
	clone, err := f.Strategies.Clone(id, newID("strat"), newName, author)
	if err != nil {
		return strategy.StrategyDefinition{}, translate(err, "cloneStrategy", 0)
	}
	return clone, nil
}

// PromoteStrategy advances a strategy one step along draft -> review ->
// approved -> active, or retracts it back to draft, or deprecates it, per
// the requested target state.
func (f *Facade) PromoteStrategy(_ context.Context, id string, target strategy.LifecycleState, user string) (strategy.StrategyDefinition, *Error) {
	var def strategy.StrategyDefinition
	var err error
	switch target {
	case strategy.StateReview:
		def, err = f.Strategies.PromoteToReview(id)
	case strategy.StateApproved:
		def, err = f.Strategies.Approve(id, user)
	case strategy.StateActive:
		def, err = f.Strategies.Activate(id)
	case strategy.StateDraft:
		def, err = f.Strategies.Retract(id)
	case strategy.StateDeprecated:
		def, err = f.Strategies.Deprecate(id)
	default:
		return strategy.StrategyDefinition{}, newError(CodeValidationError, fmt.Sprintf("unknown target lifecycle state %q", target))
	}
	if err != nil {
		return strategy.StrategyDefinition{}, translate(err, "promote", 0)
	}
	return def, nil
}
