// Package rule defines the sampling-rule plugin contract and its
// built-in implementations: fixedPoint, centerEdge, uniformGrid, and
// randomSampling. Rules are pure functions of their inputs: given the
// same wafer, parameters, and context (and seed, where applicable) they
// always produce the same candidate list, so the execution engine can
// guarantee bit-exact reproducibility.
package rule
