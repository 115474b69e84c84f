package validator

import (
	"time"

	"github.com/waferstrat/sampler/pkg/execution"
)

// Mode selects how strictly conflicts are scored. Strict escalates
// outOfBounds and duplicateSite from warning to error severity;
// permissive leaves every conflict type at its base severity.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

// ConflictType names the kind of misalignment found between a strategy's
// selected points and a schematic's die boundaries.
type ConflictType string

const (
	ConflictOutOfBounds      ConflictType = "outOfBounds"
	ConflictOverlap          ConflictType = "overlap"
	ConflictDuplicateSite    ConflictType = "duplicateSite"
	ConflictUnavailableDie   ConflictType = "unavailableDie"
	ConflictClusterViolation ConflictType = "clusterViolation"
)

// Severity grades how much a Conflict should weigh against the alignment
// score and whether it blocks a pass verdict.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Status is the overall outcome of a validation run.
type Status string

const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
)

// Conflict is one misalignment between a single selected point and the
// schematic it was validated against.
type Conflict struct {
	ConflictType   ConflictType            `json:"conflictType"`
	StrategyPoint  execution.SelectedPoint `json:"strategyPoint"`
	Description    string                  `json:"description"`
	Severity       Severity                `json:"severity"`
	AffectedDieID  string                  `json:"affectedDieId,omitempty"`
	Recommendation string                  `json:"recommendation,omitempty"`
}

// Result is the outcome of validating a compiled strategy's execution
// against a schematic's die layout.
type Result struct {
	ID               string     `json:"id"`
	StrategyID       string     `json:"strategyId"`
	SchematicID      string     `json:"schematicId"`
	ValidationStatus Status     `json:"validationStatus"`
	AlignmentScore   float64    `json:"alignmentScore"`
	CoveragePct      float64    `json:"coveragePct"`
	TotalPoints      int        `json:"totalPoints"`
	ValidPoints      int        `json:"validPoints"`
	Conflicts        []Conflict `json:"conflicts,omitempty"`
	Warnings         []string   `json:"warnings,omitempty"`
	Recommendations  []string   `json:"recommendations,omitempty"`
	ValidatedBy      string     `json:"validatedBy,omitempty"`
	ValidationDate   time.Time  `json:"validationDate"`
}
