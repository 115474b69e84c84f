// Package repository stores strategies, schematics, and validation
// results, and enforces the strategy lifecycle state machine
// (draft/review/approved/active/deprecated) and the "at most one active
// version per (processStep, toolType)" cross-aggregate invariant.
//
// Writes to a single strategy aggregate are serialized per-id via a
// mutex embedded in that aggregate's entry. The cross-aggregate active
// invariant locks the two affected entries in canonical (lexicographic
// by id) order to avoid deadlock.
package repository
