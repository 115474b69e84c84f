package rpc

import (
	"context"
	"time"

	"github.com/waferstrat/sampler/pkg/registry"
	"github.com/waferstrat/sampler/pkg/repository"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/schematic"
	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/vendorexport"
)

// Facade is the engine's single entry point: every RPC operation is a
// method on Facade, delegating to the repositories and compute packages
// beneath it. It owns no business logic of its own, only request
// validation, timeout enforcement, and error-code translation.
type Facade struct {
	Config EngineConfig

	Strategies  *repository.StrategyRepository
	Schematics  *repository.SchematicRepository
	Validations *repository.ValidationRepository

	Rules   *registry.Registry[rule.Rule]
	Vendors *registry.Registry[vendorexport.Emitter]
}

// NewFacade wires a Facade from the process-wide built-in registries and
// fresh, empty repositories. Callers embedding the engine in a larger
// process that already owns repositories should construct a Facade
// literal directly instead.
func NewFacade(cfg EngineConfig) *Facade {
	return &Facade{
		Config:      cfg,
		Strategies:  repository.NewStrategyRepository(rule.Builtins, vendorexport.Builtins),
		Schematics:  repository.NewSchematicRepository(),
		Validations: repository.NewValidationRepository(),
		Rules:       rule.Builtins,
		Vendors:     vendorexport.Builtins,
	}
}

// runTimed executes fn under a context bounded by the operation's
// configured timeout, translating a deadline or cancellation into the
// matching façade Error.
func runTimed(ctx context.Context, operation string, limit time.Duration, fn func(context.Context) error) *Error {
	tctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	err := fn(tctx)
	if err == nil {
		return nil
	}
	return translate(err, operation, limit)
}

// HealthStatus is the response to the health operation.
type HealthStatus struct {
	Healthy       bool     `json:"healthy"`
	RuleTypes     []string `json:"ruleTypes"`
	VendorFormats []string `json:"vendorFormats"`
}

// Health reports process liveness plus the currently registered plugin
// inventories, letting a caller confirm auto-discovery populated the
// registries it expects.
func (f *Facade) Health(_ context.Context) HealthStatus {
	return HealthStatus{
		Healthy:       true,
		RuleTypes:     f.Rules.List(),
		VendorFormats: f.Vendors.List(),
	}
}

// GetSupportedFormats returns the schematic input formats the engine can
// parse.
func (f *Facade) GetSupportedFormats(_ context.Context) []string {
	return []string{string(schematic.FormatGDSII), string(schematic.FormatDXF), string(schematic.FormatSVG)}
}

// GetRuleTypes returns every registered rule plugin name.
func (f *Facade) GetRuleTypes(_ context.Context) []string {
	return f.Rules.List()
}

// GetVendors returns every registered vendor emitter name.
func (f *Facade) GetVendors(_ context.Context) []string {
	return f.Vendors.List()
}

// validateRequired reports a *Error listing every entry of fields (name
// to value) whose value is empty, aggregating every miss rather than
// stopping at the first; it returns nil when none is empty.
func validateRequired(fields map[string]string) *Error {
	var missing []FieldError
	for name, val := range fields {
		if val == "" {
			missing = append(missing, FieldError{Field: name, Message: "required"})
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &Error{Code: CodeValidationError, Message: "missing required fields", ValidationErrors: missing}
}

// compiledFor resolves and compiles the strategy's current version,
// translating a missing strategy or a failed compile to the right code.
func (f *Facade) compiledFor(id string) (*strategy.CompiledStrategy, strategy.StrategyDefinition, *Error) {
	def, err := f.Strategies.Get(id)
	if err != nil {
		return nil, strategy.StrategyDefinition{}, translate(err, "compile", 0)
	}
	compiled, err := strategy.Compile(def, f.Rules, f.Vendors)
	if err != nil {
		return nil, def, translate(err, "compile", 0)
	}
	return compiled, def, nil
}
