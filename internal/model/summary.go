package model

// AverageScores holds category averages across valid pages.
type AverageScores struct {
	Overall       float64 `json:"overall"`
	Technical     float64 `json:"technical_seo"`
	Content       float64 `json:"content_seo"`
	Accessibility float64 `json:"accessibility"`
}

// IssueTotals counts critical issues and warnings across valid pages.
type IssueTotals struct {
	Critical int `json:"critical"`
	Warnings int `json:"warnings"`
}

// IssueCount is one entry of the common issue histogram.
type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// SiteSummary aggregates all valid page analyses of one audit.
// It is recomputed from scratch on every analysis run.
type SiteSummary struct {
	// Error is set instead of the other fields when no page could be analyzed.
	Error string `json:"error,omitempty"`

	TotalPagesAnalyzed int           `json:"total_pages_analyzed"`
	TotalPagesCrawled  int           `json:"total_pages_crawled"`
	TotalBrokenLinks   int           `json:"total_broken_links"`
	AverageScores      AverageScores `json:"average_scores"`
	TotalIssues        IssueTotals   `json:"total_issues"`
	CommonIssues       []IssueCount  `json:"common_issues"`
	HealthStatus       HealthStatus  `json:"health_status"`
}

// Valid reports whether the summary describes at least one analyzed page.
func (s *SiteSummary) Valid() bool {
	return s != nil && s.Error == ""
}

// Advice is a site-level piece of guidance derived from the summary.
type Advice struct {
	Type     AdviceType `json:"type"`
	Category string     `json:"category"`
	Message  string     `json:"message"`
}
