package execution

// SelectedPoint is one sampling site chosen by strategy execution, in the
// engine's canonical coordinate system after the strategy's
// transformations have been applied.
type SelectedPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	RuleSource string  `json:"ruleSource"`
	Priority   float64 `json:"priority"`
	Available  bool    `json:"available"`
}

// CoverageStats summarizes how a SimulationResult's selected points relate
// to the wafer they were drawn from.
type CoverageStats struct {
	TotalDies        int            `json:"totalDies"`
	AvailableDies    int            `json:"availableDies"`
	SelectedCount    int            `json:"selectedCount"`
	CoveragePct      float64        `json:"coveragePct"`
	RuleDistribution map[string]int `json:"ruleDistribution,omitempty"`
	CentroidX        float64        `json:"centroidX"`
	CentroidY        float64        `json:"centroidY"`
}

// PerformanceMetrics reports cheap counters describing how execution
// proceeded, useful for surfacing cost back to a strategy author.
type PerformanceMetrics struct {
	CandidatesGenerated int `json:"candidatesGenerated"`
	DuplicatesMerged    int `json:"duplicatesMerged"`
	SpacingRejected     int `json:"spacingRejected"`
}

// Warning codes attached to a SimulationResult. The three "*Infeasible"-
// adjacent codes (NoEligibleRules, EmptyWafer, ToolConstraintInfeasible)
// mark the non-raising failure modes; the rest are advisory.
const (
	WarnNoEligibleRules           = "noEligibleRules"
	WarnEmptyWafer                = "emptyWafer"
	WarnToolConstraintInfeasible  = "toolConstraintInfeasible"
	WarnRuleProducedNoPoints      = "ruleProducedNoPoints"
	WarnRuleOverproduced          = "ruleOverproduced"
	WarnTransformedOutOfBounds    = "transformedOutOfBounds"
	WarnSpacingTruncatedExcessive = "spacingTruncatedExcessive"
)

// Warning is a non-fatal observation attached to a SimulationResult.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SimulationResult is the outcome of executing a CompiledStrategy against
// a WaferMap.
type SimulationResult struct {
	SelectedPoints     []SelectedPoint    `json:"selectedPoints"`
	CoverageStats      CoverageStats      `json:"coverageStats"`
	PerformanceMetrics PerformanceMetrics `json:"performanceMetrics"`
	Warnings           []Warning          `json:"warnings,omitempty"`
}
