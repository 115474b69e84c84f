// Package strategy defines the declarative sampling-strategy model
// (StrategyDefinition, RuleConfig, ConditionalLogic) and compiles it into
// an immutable CompiledStrategy: a resolved plugin handle plus validated
// parameters per enabled rule, ready for the execution engine. Compilation
// aggregates every problem it finds rather than stopping at the first one,
// so a strategy-authoring UI can surface all of them at once.
package strategy
