package repository

import (
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/waferstrat/sampler/pkg/registry"
	"github.com/waferstrat/sampler/pkg/rule"
	"github.com/waferstrat/sampler/pkg/strategy"
	"github.com/waferstrat/sampler/pkg/vendorexport"
)

// activeKey identifies the (processStep, toolType) slot the "at most one
// active version" invariant is enforced over.
type activeKey struct {
	processStep string
	toolType    string
}

// strategyEntry is one strategy aggregate: every version ever created for
// an id, which one is current, and the reviewer/simulation bookkeeping
// the lifecycle transitions consult. mu is an exclusive lock that
// serializes every read and write of this aggregate.
type strategyEntry struct {
	mu sync.Mutex

	id             string
	versions       map[string]strategy.StrategyDefinition
	currentVersion string

	reviewer string

	lastSimVersion   string
	lastSimHadErrors bool
}

// StrategyRepository stores StrategyDefinitions by (id, version) with a
// pointer to the current version per id, and enforces the draft/review/
// approved/active/deprecated lifecycle.
type StrategyRepository struct {
	rules   *registry.Registry[rule.Rule]
	vendors *registry.Registry[vendorexport.Emitter]

	mu      sync.RWMutex
	entries map[string]*strategyEntry

	activeMu    sync.Mutex
	activeIndex map[activeKey]string
}

// NewStrategyRepository constructs an empty repository. rules and
// vendors are the registries PromoteToReview compiles candidate
// strategies against.
func NewStrategyRepository(rules *registry.Registry[rule.Rule], vendors *registry.Registry[vendorexport.Emitter]) *StrategyRepository {
	return &StrategyRepository{
		rules:       rules,
		vendors:     vendors,
		entries:     make(map[string]*strategyEntry),
		activeIndex: make(map[activeKey]string),
	}
}

// Create stores def as a new strategy aggregate in state draft. If
// Version is empty it defaults to "1.0.0". Returns an error if id is
// already in use.
func (r *StrategyRepository) Create(def strategy.StrategyDefinition) (strategy.StrategyDefinition, error) {
	if def.ID == "" {
		return strategy.StrategyDefinition{}, fmt.Errorf("repository: strategy id is required")
	}
	if def.Version == "" {
		def.Version = "1.0.0"
	}
	def.LifecycleState = strategy.StateDraft
	def.CreatedAt = timeNow()
	def.ModifiedAt = def.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.ID]; exists {
		return strategy.StrategyDefinition{}, fmt.Errorf("repository: strategy %q already exists", def.ID)
	}
	r.entries[def.ID] = &strategyEntry{
		id:             def.ID,
		versions:       map[string]strategy.StrategyDefinition{def.Version: def},
		currentVersion: def.Version,
	}
	return def, nil
}

func (r *StrategyRepository) entry(id string) (*strategyEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, &NotFoundError{Kind: "strategy", ID: id}
	}
	return e, nil
}

// Get returns the current version of strategy id.
func (r *StrategyRepository) Get(id string) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.versions[e.currentVersion], nil
}

// GetVersion returns a specific, possibly non-current, version.
func (r *StrategyRepository) GetVersion(id, version string) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	def, ok := e.versions[version]
	if !ok {
		return strategy.StrategyDefinition{}, &NotFoundError{Kind: "strategy", ID: id, Version: version}
	}
	return def, nil
}

// Update applies mutate to strategy id's current version. If the current
// version is approved or later, the mutation instead forks a new draft
// version (patch-bumped) and leaves the approved-or-later version
// untouched.
func (r *StrategyRepository) Update(id string, mutate func(*strategy.StrategyDefinition)) (strategy.StrategyDefinition, error) {
	return r.UpdateWithBump(id, BumpPatch, mutate)
}

// UpdateWithBump is Update with an explicit semver bump component for
// the forked-draft case.
func (r *StrategyRepository) UpdateWithBump(id string, bump BumpKind, mutate func(*strategy.StrategyDefinition)) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.versions[e.currentVersion]
	if isApprovedOrLater(current.LifecycleState) {
		nextVersion, err := bumpVersion(current.Version, bump)
		if err != nil {
			return strategy.StrategyDefinition{}, err
		}
		draft := current
		draft.Version = nextVersion
		draft.LifecycleState = strategy.StateDraft
		draft.ModifiedAt = timeNow()
		mutate(&draft)
		draft.Version = nextVersion
		draft.LifecycleState = strategy.StateDraft
		e.versions[nextVersion] = draft
		e.currentVersion = nextVersion
		return draft, nil
	}

	mutate(&current)
	current.ModifiedAt = timeNow()
	e.versions[e.currentVersion] = current
	return current, nil
}

// RecordSimulation notes whether the latest simulation of id's current
// version produced any errors. Approve consults this.
func (r *StrategyRepository) RecordSimulation(id string, hadErrors bool) error {
	e, err := r.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSimVersion = e.currentVersion
	e.lastSimHadErrors = hadErrors
	return nil
}

// PromoteToReview transitions id's current version from draft to
// review. Requires at least one rule and a clean compile.
func (r *StrategyRepository) PromoteToReview(id string) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	def := e.versions[e.currentVersion]
	if def.LifecycleState != strategy.StateDraft {
		return strategy.StrategyDefinition{}, &LifecycleError{From: def.LifecycleState, To: strategy.StateReview, Reason: "only a draft can be promoted to review"}
	}
	if !def.HasRules() {
		return strategy.StrategyDefinition{}, &LifecycleError{From: def.LifecycleState, To: strategy.StateReview, Reason: "strategy has no rules"}
	}
	if _, err := strategy.Compile(def, r.rules, r.vendors); err != nil {
		return strategy.StrategyDefinition{}, &LifecycleError{From: def.LifecycleState, To: strategy.StateReview, Reason: "strategy does not compile: " + err.Error()}
	}

	def.LifecycleState = strategy.StateReview
	def.ModifiedAt = timeNow()
	e.versions[e.currentVersion] = def
	return def, nil
}

// Approve transitions id's current version from review to approved,
// recording reviewer. Requires the latest recorded simulation of this
// exact version to have produced no errors.
func (r *StrategyRepository) Approve(id, reviewer string) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	def := e.versions[e.currentVersion]
	if def.LifecycleState != strategy.StateReview {
		return strategy.StrategyDefinition{}, &LifecycleError{From: def.LifecycleState, To: strategy.StateApproved, Reason: "only a strategy in review can be approved"}
	}
	if e.lastSimVersion != e.currentVersion || e.lastSimHadErrors {
		return strategy.StrategyDefinition{}, &LifecycleError{From: def.LifecycleState, To: strategy.StateApproved, Reason: "no error-free simulation recorded for this version"}
	}

	e.reviewer = reviewer
	def.LifecycleState = strategy.StateApproved
	def.ModifiedAt = timeNow()
	e.versions[e.currentVersion] = def
	return def, nil
}

// Retract moves id's current version from review or approved back to
// draft, clearing the reviewer field.
func (r *StrategyRepository) Retract(id string) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	def := e.versions[e.currentVersion]
	if def.LifecycleState != strategy.StateReview && def.LifecycleState != strategy.StateApproved {
		return strategy.StrategyDefinition{}, &LifecycleError{From: def.LifecycleState, To: strategy.StateDraft, Reason: "only review or approved can be retracted"}
	}
	e.reviewer = ""
	def.LifecycleState = strategy.StateDraft
	def.ModifiedAt = timeNow()
	e.versions[e.currentVersion] = def
	return def, nil
}

// Deprecate moves id's current version to deprecated, a terminal state,
// from any non-draft state.
func (r *StrategyRepository) Deprecate(id string) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return r.deprecateLocked(e)
}

func (r *StrategyRepository) deprecateLocked(e *strategyEntry) (strategy.StrategyDefinition, error) {
	def := e.versions[e.currentVersion]
	if def.LifecycleState == strategy.StateDraft {
		return strategy.StrategyDefinition{}, &LifecycleError{From: def.LifecycleState, To: strategy.StateDeprecated, Reason: "a draft cannot be deprecated"}
	}
	def.LifecycleState = strategy.StateDeprecated
	def.ModifiedAt = timeNow()
	e.versions[e.currentVersion] = def
	return def, nil
}

// Activate transitions id's current version from approved to active. At
// most one version is active per (processStep, toolType); any prior
// active occupant of that slot is auto-deprecated first. The two
// affected entries are locked in canonical (lexicographic by id) order
// to avoid deadlock against a concurrent Activate on the reverse pair.
func (r *StrategyRepository) Activate(id string) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}

	r.activeMu.Lock()
	defer r.activeMu.Unlock()

	// Peek at the slot key under a brief hold of e.mu, released before the
	// ordered locking below, so we know whether a second entry needs
	// locking and in what order.
	e.mu.Lock()
	def := e.versions[e.currentVersion]
	key := activeKey{processStep: def.ProcessStep, toolType: def.ToolType}
	e.mu.Unlock()

	priorID, hadPrior := r.activeIndex[key]

	if hadPrior && priorID != id {
		first, second := id, priorID
		if priorID < id {
			first, second = priorID, id
		}
		var firstEntry, secondEntry *strategyEntry
		r.mu.RLock()
		firstEntry = r.entries[first]
		secondEntry = r.entries[second]
		r.mu.RUnlock()
		firstEntry.mu.Lock()
		defer firstEntry.mu.Unlock()
		secondEntry.mu.Lock()
		defer secondEntry.mu.Unlock()

		priorEntry := firstEntry
		if priorID != first {
			priorEntry = secondEntry
		}
		if _, err := r.deprecateLocked(priorEntry); err != nil {
			return strategy.StrategyDefinition{}, fmt.Errorf("repository: auto-deprecating prior active strategy %q: %w", priorID, err)
		}

		newDef, err := r.activateLocked(e)
		if err != nil {
			return strategy.StrategyDefinition{}, err
		}
		r.activeIndex[key] = id
		return newDef, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	newDef, err := r.activateLocked(e)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	r.activeIndex[key] = id
	return newDef, nil
}

func (r *StrategyRepository) activateLocked(e *strategyEntry) (strategy.StrategyDefinition, error) {
	def := e.versions[e.currentVersion]
	if def.LifecycleState != strategy.StateApproved {
		return strategy.StrategyDefinition{}, &LifecycleError{From: def.LifecycleState, To: strategy.StateActive, Reason: "only an approved strategy can be activated"}
	}
	def.LifecycleState = strategy.StateActive
	def.ModifiedAt = timeNow()
	e.versions[e.currentVersion] = def
	return def, nil
}

// Clone deep-copies id's current (latest) version into a new aggregate
// at version 1.0.0, lifecycleState draft.
func (r *StrategyRepository) Clone(id, newID, newName, author string) (strategy.StrategyDefinition, error) {
	e, err := r.entry(id)
	if err != nil {
		return strategy.StrategyDefinition{}, err
	}
	e.mu.Lock()
	src := e.versions[e.currentVersion]
	e.mu.Unlock()

	clone := src
	clone.ID = newID
	clone.Name = newName
	clone.Author = author
	clone.Version = "1.0.0"
	clone.LifecycleState = strategy.StateDraft
	clone.Rules = append([]strategy.RuleConfig(nil), src.Rules...)
	clone.VendorSpecificParams = copyMap(src.VendorSpecificParams)

	return r.Create(clone)
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func isApprovedOrLater(s strategy.LifecycleState) bool {
	return s == strategy.StateApproved || s == strategy.StateActive || s == strategy.StateDeprecated
}

func bumpVersion(version string, bump BumpKind) (string, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return "", fmt.Errorf("repository: version %q is not valid semver: %w", version, err)
	}
	var next semver.Version
	switch bump {
	case BumpMinor:
		next = v.IncMinor()
	case BumpMajor:
		next = v.IncMajor()
	default:
		next = v.IncPatch()
	}
	return next.String(), nil
}

// timeNow is a seam so tests could inject a fixed clock; production code
// always calls the real time.Now().
var timeNow = time.Now
