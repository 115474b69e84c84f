package repository

import (
	"fmt"

	"github.com/waferstrat/sampler/pkg/strategy"
)

// LifecycleError reports an illegal lifecycle transition attempt.
type LifecycleError struct {
	From, To strategy.LifecycleState
	Reason   string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("lifecycleViolation: %s -> %s: %s", e.From, e.To, e.Reason)
}

// NotFoundError reports a lookup against an id (and optionally a
// version) that the repository has no record of.
type NotFoundError struct {
	Kind    string
	ID      string
	Version string
}

func (e *NotFoundError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("%s %q has no version %q", e.Kind, e.ID, e.Version)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// BumpKind selects which semver component Update forks a new draft at,
// when the current version is approved or later.
type BumpKind string

const (
	BumpPatch BumpKind = "patch"
	BumpMinor BumpKind = "minor"
	BumpMajor BumpKind = "major"
)
