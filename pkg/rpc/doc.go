// Package rpc is the engine's boundary: request/response shapes for the
// nine operation groups (schematic upload/list/get/delete/die-boundaries,
// strategy create/update/list/get/delete/clone/promote, simulate,
// validate, export, capability queries, health), request validation, and
// the mapping from engine errors to wire status codes. It owns no
// business logic; every operation delegates to pkg/repository,
// pkg/strategy, pkg/execution, pkg/validator, and pkg/vendorexport.
package rpc
