package rpc

import (
	"context"

	"github.com/waferstrat/sampler/pkg/execution"
	"github.com/waferstrat/sampler/pkg/vendorexport"
)

// ExportStrategyRequest is the exportStrategy operation's input: a
// simulation result to render (the caller is responsible for having run
// Simulate first) and an optional validation result id whose score
// annotates the vendor document.
type ExportStrategyRequest struct {
	Result               *execution.SimulationResult
	WaferSize            string
	ProductType          string
	ProcessLayer         string
	VendorSpecificParams map[string]any
	ValidationResultID   string
}

// ExportStrategy renders a strategy's simulation result into its
// targetVendor's wire format. The strategy must compile to a non-nil
// VendorEmitter; a strategy with no targetVendor set has nothing to
// resolve and fails with businessLogicError.
func (f *Facade) ExportStrategy(_ context.Context, strategyID string, req ExportStrategyRequest) ([]byte, string, *Error) {
	compiled, def, verr := f.compiledFor(strategyID)
	if verr != nil {
		return nil, "", verr
	}
	if compiled.VendorEmitter == nil {
		return nil, "", newError(CodeBusinessLogicError, "strategy has no targetVendor configured")
	}
	if req.Result == nil {
		return nil, "", newError(CodeValidationError, "a simulation result is required to export")
	}

	points := make([]vendorexport.SitePoint, len(req.Result.SelectedPoints))
	for i, p := range req.Result.SelectedPoints {
		points[i] = vendorexport.SitePoint{X: p.X, Y: p.Y, Available: p.Available}
	}

	vendorParams := req.VendorSpecificParams
	if vendorParams == nil {
		vendorParams = def.VendorSpecificParams
	}
	meta := vendorexport.Meta{
		WaferSize:            req.WaferSize,
		ProductType:          req.ProductType,
		ProcessLayer:         req.ProcessLayer,
		VendorSpecificParams: vendorParams,
	}

	var summary *vendorexport.ValidationSummary
	if req.ValidationResultID != "" {
		res, err := f.Validations.Get(req.ValidationResultID)
		if err != nil {
			return nil, "", translate(err, "exportStrategy", 0)
		}
		summary = &vendorexport.ValidationSummary{Score: res.AlignmentScore, Status: string(res.ValidationStatus)}
	}

	body, err := compiled.VendorEmitter.Emit(points, meta, summary)
	if err != nil {
		return nil, "", newError(CodeBusinessLogicError, err.Error())
	}
	return body, compiled.VendorEmitter.ContentType(), nil
}
