package rpc

import (
	"context"

	"github.com/waferstrat/sampler/pkg/execution"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/wafer"
)

// maxSitesHardLimit is the resource ceiling spec.md §5 names for a single
// simulation, enforced after a caller's own maxSites constraint: a
// caller's tighter limit is respected, a looser or unset one is clamped
// down to this value.
const maxSitesHardLimit = 10_000

// SimulateRequest is the simulate operation's input: the wafer map to
// execute against (inline dies, typically synthesized from a stored
// schematic by the caller) and the execution context the strategy's
// rules and conditions read.
type SimulateRequest struct {
	Dies          []wafer.Die        `json:"dies"`
	WaferSize     string             `json:"waferSize"`
	ProductType   string             `json:"productType"`
	ProcessLayer  string             `json:"processLayer"`
	DefectDensity float64            `json:"defectDensity"`
	CustomParams  map[string]any     `json:"customParams,omitempty"`
	ProcessParams map[string]float64 `json:"processParams,omitempty"`
	MaxSites      int                `json:"maxSites,omitempty"`
	MinSpacing    float64            `json:"minSpacing,omitempty"`
}

// Simulate compiles the named strategy's current version and executes it
// against the request's wafer map, recording whether the run produced
// any error-level warnings so a later approve can check the "simulated
// clean" precondition.
func (f *Facade) Simulate(ctx context.Context, id string, req SimulateRequest) (*execution.SimulationResult, *Error) {
	compiled, def, verr := f.compiledFor(id)
	if verr != nil {
		return nil, verr
	}

	wm := wafer.NewMap()
	for _, d := range req.Dies {
		if err := wm.AddDie(d); err != nil {
			return nil, newError(CodeValidationError, err.Error())
		}
	}

	maxSites := req.MaxSites
	if maxSites <= 0 || maxSites > maxSitesHardLimit {
		maxSites = maxSitesHardLimit
	}

	execCtx := strategy.ExecutionContext{
		WaferSize:     req.WaferSize,
		ProductType:   req.ProductType,
		ProcessLayer:  req.ProcessLayer,
		DefectDensity: req.DefectDensity,
		CustomParams:  req.CustomParams,
		ProcessParams: req.ProcessParams,
		ToolConstraints: rule.ToolConstraints{
			MaxSites:   maxSites,
			MinSpacing: req.MinSpacing,
		},
	}

	var result *execution.SimulationResult
	rerr := runTimed(ctx, "simulate", f.Config.Timeouts.Simulate, func(tctx context.Context) error {
		res, err := execution.Execute(tctx, compiled, wm, execCtx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if rerr != nil {
		return nil, rerr
	}

	hadErrors := false
	for _, w := range result.Warnings {
		switch w.Code {
		case execution.WarnNoEligibleRules, execution.WarnEmptyWafer, execution.WarnToolConstraintInfeasible:
			hadErrors = true
		}
	}
	if recErr := f.Strategies.RecordSimulation(def.ID, hadErrors); recErr != nil {
		return result, translate(recErr, "simulate", 0)
	}

	return result, nil
}
