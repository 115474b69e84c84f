package vendorexport

import "github.com/waferstrat/sampler/pkg/registry"

// SitePoint is the minimal per-point data an emitter needs: a selected
// coordinate in the engine's canonical (center-origin, y-up) system and
// whether the underlying die is available. It deliberately mirrors
// execution.SelectedPoint's relevant fields rather than importing that
// type: pkg/execution imports pkg/strategy, which imports vendorexport to
// resolve targetVendor at compile time, so vendorexport importing
// pkg/execution would close that cycle.
type SitePoint struct {
	X, Y      float64
	Available bool
}

// Meta carries the strategy-level fields an emitter needs but that don't
// travel with the point list itself, again a narrow projection rather
// than StrategyDefinition, for the same import-cycle reason.
type Meta struct {
	WaferSize            string
	ProductType          string
	ProcessLayer         string
	VendorSpecificParams map[string]any
}

// ValidationSummary is the slice of a validation result an emitter can
// annotate its output with. Callers that ran pkg/validator project its
// Result down to this before calling Emit; a nil ValidationSummary means
// the export happened without validation.
type ValidationSummary struct {
	Score  float64
	Status string
}

// Emitter renders a finished simulation into a vendor-specific wire
// format.
type Emitter interface {
	// Name returns the emitter's registration name (e.g. "asml", "kla").
	Name() string

	// ContentType returns the media type of Emit's output.
	ContentType() string

	// Emit serializes points (and, if present, validation) into this
	// emitter's wire format.
	Emit(points []SitePoint, meta Meta, validation *ValidationSummary) ([]byte, error)
}

// Builtins is the process-wide registry of vendor emitters, resolved by
// StrategyDefinition.TargetVendor during strategy compilation.
var Builtins = registry.New[Emitter]("vendorEmitter")
