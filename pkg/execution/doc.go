// Package execution runs a compiled strategy against a wafer map. Execute
// gates rules by their conditions, applies each eligible rule, normalizes
// and merges candidates by weight, deduplicates by coordinate, applies the
// strategy's geometric transform and the tool's site constraints, and
// returns a fully sorted, statistics-annotated SimulationResult.
//
// Execution never raises on the strategy-level failure modes
// (noEligibleRules, emptyWafer, toolConstraintInfeasible); those return a
// well-formed empty result carrying an explanatory warning instead, so a
// simulation request in the UI never crashes. Only infrastructure errors
// (a rule's Apply call failing, context cancellation) are returned as Go
// errors.
package execution
