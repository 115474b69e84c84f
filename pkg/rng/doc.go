// Package rng provides deterministic random number generation for the
// sampling engine.
//
// # Overview
//
// The RNG type ensures reproducible strategy execution by deriving
// stage-specific seeds from a master seed. This lets randomSampling draw
// its candidate sites deterministically, and lets the execution engine
// derive a seed from (strategyId, version) when the caller supplies
// none.
//
// # Sub-Seed Derivation
//
// Each RNG derives its seed using SHA-256:
//
//	seed_stage = H(masterSeed, stageName, configHash)
//
// where:
//   - masterSeed: top-level seed supplied by the caller, or one derived
//     from (strategyId, version) when absent
//   - stageName: identifies which rule or component is drawing (e.g. a
//     rule's registration name)
//   - configHash: hash of the rule's validated parameters
//
// This ensures:
//  1. Same inputs always produce same RNG sequence (determinism)
//  2. Different rules get independent random sequences (isolation)
//  3. Parameter changes result in different sequences (sensitivity)
//
// # Usage
//
//	configHash := sha256.Sum256([]byte(paramsJSON))
//	r := rng.NewRNG(masterSeed, "randomSampling", configHash[:])
//	idx := r.Intn(len(candidates))
//
// # Thread Safety
//
// RNG instances are NOT thread-safe. Each goroutine should use its own
// RNG instance.
package rng
