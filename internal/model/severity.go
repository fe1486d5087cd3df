package model

// Severity is the weight of a page issue.
//
// Design decision: We use string constants rather than iota values because
// the severity is part of the report contract and is serialized verbatim
// in JSON, CSV and the audit history.
type Severity string

const (
	// SeverityCritical marks issues that block basic SEO, such as a missing title.
	SeverityCritical Severity = "critical"

	// SeverityWarning marks issues that degrade SEO but do not break it.
	SeverityWarning Severity = "warning"
)

// String returns the severity label.
func (s Severity) String() string {
	return string(s)
}

// Category names used by issues, recommendations and highlights.
const (
	CategoryTechnical     = "Technical SEO"
	CategoryContent       = "Content SEO"
	CategoryAccessibility = "Accessibility"
	CategoryOverall       = "Overall"
)

// HealthStatus is the four-level site health label.
type HealthStatus string

const (
	HealthExcellent        HealthStatus = "excellent"
	HealthGood             HealthStatus = "good"
	HealthNeedsImprovement HealthStatus = "needs_improvement"
	HealthPoor             HealthStatus = "poor"
)

// HealthFromScore maps an averaged overall score to a health label.
// Boundaries are inclusive: exactly 80 is excellent, exactly 60 is good,
// exactly 40 is needs_improvement.
func HealthFromScore(score float64) HealthStatus {
	switch {
	case score >= 80:
		return HealthExcellent
	case score >= 60:
		return HealthGood
	case score >= 40:
		return HealthNeedsImprovement
	default:
		return HealthPoor
	}
}

// AdviceType classifies a piece of site-level advice.
type AdviceType string

const (
	AdviceSuccess  AdviceType = "success"
	AdviceInfo     AdviceType = "info"
	AdviceWarning  AdviceType = "warning"
	AdviceCritical AdviceType = "critical"
)
