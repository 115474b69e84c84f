package rpc

import (
	"context"

	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/validator"
)

// ValidateRequest is the validate operation's input: the stored schematic
// to check a strategy's execution against, the execution context, and
// the strictness mode.
type ValidateRequest struct {
	SchematicID   string
	WaferSize     string
	ProductType   string
	ProcessLayer  string
	DefectDensity float64
	CustomParams  map[string]any
	ProcessParams map[string]float64
	MaxSites      int
	MinSpacing    float64
	Mode          validator.Mode
	ValidatedBy   string
}

// Validate compiles the named strategy, executes it against the
// schematic's die layout, and scores the alignment between the two,
// storing the result for later retrieval by id.
func (f *Facade) Validate(ctx context.Context, strategyID string, req ValidateRequest) (*validator.Result, *Error) {
	compiled, def, verr := f.compiledFor(strategyID)
	if verr != nil {
		return nil, verr
	}

	data, err := f.Schematics.Get(req.SchematicID)
	if err != nil {
		return nil, translate(err, "validate", 0)
	}

	mode := req.Mode
	if mode == "" {
		mode = validator.ModePermissive
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

	var result *validator.Result
	rerr := runTimed(ctx, "validate", f.Config.Timeouts.Validate, func(tctx context.Context) error {
		res, err := validator.Validate(tctx, data, compiled, execCtx, mode, req.ValidatedBy)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if rerr != nil {
		return nil, rerr
	}

	result.ID = newID("val")
	result.StrategyID = def.ID
	result.SchematicID = req.SchematicID
	if err := f.Validations.Store(result.ID, result); err != nil {
		return result, translate(err, "validate", 0)
	}

	return result, nil
}

// GetValidationResult returns a stored validation result by id.
func (f *Facade) GetValidationResult(_ context.Context, id string) (*validator.Result, *Error) {
	res, err := f.Validations.Get(id)
	if err != nil {
		return nil, translate(err, "getValidationResult", 0)
	}
	return res, nil
}

// ListValidationResultsBySchematic returns every result recorded against
// a schematic id.
func (f *Facade) ListValidationResultsBySchematic(_ context.Context, schematicID string) []*validator.Result {
	return f.Validations.BySchematic(schematicID)
}

// ListValidationResultsByStrategy returns every result recorded against
// a strategy id.
func (f *Facade) ListValidationResultsByStrategy(_ context.Context, strategyID string) []*validator.Result {
	return f.Validations.ByStrategy(strategyID)
}
