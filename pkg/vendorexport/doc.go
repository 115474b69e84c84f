// Package vendorexport holds the vendor-emitter plugin registry and the
// concrete ASML and KLA emitters. Strategy compilation resolves a
// strategy's targetVendor against Builtins; the execution engine never
// imports this package directly, keeping vendor-specific wire formats out
// of the core pipeline.
//
// Emitter.Emit takes SitePoint/Meta/ValidationSummary rather than the
// richer types from pkg/execution and pkg/validator: pkg/strategy imports
// vendorexport to resolve targetVendor at compile time, and both
// pkg/execution and pkg/validator import pkg/strategy, so importing
// either back into vendorexport would close an import cycle. Callers
// project their SimulationResult/Result down to these narrow shapes.
package vendorexport
