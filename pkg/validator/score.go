package validator

// baseSeverity is the severity a conflict type carries in permissive
// mode. Strict mode escalates outOfBounds and duplicateSite to error;
// unavailableDie is always an error and clusterViolation is always a
// warning, in both modes.
func baseSeverity(kind ConflictType) Severity {
	switch kind {
	case ConflictOutOfBounds, ConflictDuplicateSite:
		return SeverityWarning
	case ConflictUnavailableDie:
		return SeverityError
	case ConflictClusterViolation:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func severityFor(kind ConflictType, mode Mode) Severity {
	sev := baseSeverity(kind)
	if mode == ModeStrict && sev == SeverityWarning &&
		(kind == ConflictOutOfBounds || kind == ConflictDuplicateSite) {
		return SeverityError
	}
	return sev
}

// alignmentScore implements 1 - (sum of weighted conflicts) / totalPoints,
// weighting error 1.0, warning 0.4, info 0.1, clamped to [0, 1]. A
// strategy that selects no points has nothing to validate and scores 0.
func alignmentScore(conflicts []Conflict, totalPoints int) float64 {
	if totalPoints == 0 {
		return 0
	}
	var weighted float64
	for _, c := range conflicts {
		switch c.Severity {
		case SeverityError:
			weighted += 1.0
		case SeverityWarning:
			weighted += 0.4
		case SeverityInfo:
			weighted += 0.1
		}
	}
	score := 1 - weighted/float64(totalPoints)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score
}

// coveragePercent is the fraction of boundaries hit by at least one
// selected point, as a percentage.
func coveragePercent(hitDieIDs map[string]int, totalBoundaries int) float64 {
	if totalBoundaries == 0 {
		return 0
	}
	return float64(len(hitDieIDs)) / float64(totalBoundaries) * 100
}

// validationStatus thresholds the alignment score into pass/warning/fail.
// Any error-severity conflict forces a fail regardless of score.
func validationStatus(conflicts []Conflict, score float64) Status {
	for _, c := range conflicts {
		if c.Severity == SeverityError {
			return StatusFail
		}
	}
	switch {
	case score >= 0.9:
		return StatusPass
	case score >= 0.5:
		return StatusWarning
	default:
		return StatusFail
	}
}

// recommendationTable maps a predominant conflict type to a fixed,
// deterministic remediation hint.
var recommendationTable = map[ConflictType]string{
	ConflictOutOfBounds:      "Adjust the transformation offset or tighten the edge margin.",
	ConflictOverlap:          "Reduce rule weight overlap or increase minSpacing.",
	ConflictDuplicateSite:    "Increase minSpacing or reduce overlapping rule weights.",
	ConflictUnavailableDie:   "Tighten the die size filter or add a rule condition excluding unavailable dies.",
	ConflictClusterViolation: "Increase minSpacing or lower sampling density in dense regions.",
}

// conflictPrecedence is the fixed tie-break order used to pick the
// predominant conflict type when counts are equal, keeping the
// recommendation deterministic.
var conflictPrecedence = []ConflictType{
	ConflictOutOfBounds,
	ConflictOverlap,
	ConflictDuplicateSite,
	ConflictUnavailableDie,
	ConflictClusterViolation,
}

func recommendations(conflicts []Conflict) []string {
	if len(conflicts) == 0 {
		return nil
	}
	counts := make(map[ConflictType]int)
	for _, c := range conflicts {
		counts[c.ConflictType]++
	}
	var predominant ConflictType
	best := -1
	for _, kind := range conflictPrecedence {
		if counts[kind] > best {
			best = counts[kind]
			predominant = kind
		}
	}
	if rec, ok := recommendationTable[predominant]; ok {
		return []string{rec}
	}
	return nil
}
