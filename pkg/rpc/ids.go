package rpc

import "github.com/google/uuid"

// newID generates a prefixed unique id for a newly created aggregate
// (e.g. "sch-<uuid>", "strat-<uuid>"), matching the id shape
// repository.StrategyRepository and SchematicRepository expect callers
// to supply.
func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
