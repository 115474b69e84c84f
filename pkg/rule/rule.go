package rule

import (
	"fmt"

	"github.com/waferstrat/sampler/pkg/wafer"
)

// CostClass is a coarse estimate of how expensive a rule's Apply call
// is expected to be.
type CostClass string

const (
	CostLow    CostClass = "low"
	CostMedium CostClass = "medium"
	CostHigh   CostClass = "high"
)

// Candidate is one die coordinate a rule proposes for sampling, with a
// priority local to that rule; the execution engine normalizes
// priorities across rules via weights.
type Candidate struct {
	Coord    wafer.Coord
	Priority float64
}

// ToolConstraints carries the downstream metrology/lithography tool's
// site-count and spacing limits.
type ToolConstraints struct {
	MaxSites   int
	MinSpacing float64
}

// Context carries the parts of the execution context a rule may read:
// process parameters keyed by name, and the active tool constraints.
type Context struct {
	ProcessParams   map[string]float64
	ToolConstraints ToolConstraints
}

// ValidationError describes one rejected or malformed rule parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Estimate summarizes a rule's expected cost, computed cheaply from the
// wafer alone (no RNG draws, no candidate generation).
type Estimate struct {
	ExpectedPointCount int
	ExpectedCostClass  CostClass
}

// FallbackSeeder is implemented by validated parameter types that draw
// randomness and accept an engine-supplied seed when the strategy
// author didn't specify one.
type FallbackSeeder interface {
	WithFallbackSeed(seed uint64) any
}

// Rule is the sampling-rule plugin contract. Implementations must be
// deterministic: the same wafer, validated parameters, and context (and
// seed, where the rule draws randomness) always yield the same
// Candidate list in the same order.
type Rule interface {
	// Name returns the rule's registration name.
	Name() string

	// Validate checks raw parameters and returns a rule-specific
	// validated representation to pass to Apply, or a list of
	// field-level errors. Never returns both.
	Validate(params map[string]any) (validated any, errs []ValidationError)

	// Apply proposes candidate sites given validated parameters and the
	// execution context.
	Apply(wm *wafer.Map, validated any, ctx Context) ([]Candidate, error)

	// Estimate returns this rule's expected cost over the given wafer,
	// without running Apply.
	Estimate(wm *wafer.Map, validated any) Estimate
}
