package database

import (
	"github.com/nao1215/seoscan/internal/model"
)

// Trend values of a comparison.
const (
	TrendImproved  = "improved"
	TrendDeclined  = "declined"
	TrendUnchanged = "unchanged"
)

// scoreEpsilon is the smallest overall score change treated as a trend.
const scoreEpsilon = 0.05

// ScoreDelta holds the change of each average score between two audits.
type ScoreDelta struct {
	Overall       float64 `json:"overall"`
	Technical     float64 `json:"technical_seo"`
	Content       float64 `json:"content_seo"`
	Accessibility float64 `json:"accessibility"`
}

// Comparison is the difference between two audits of the same site.
type Comparison struct {
	Site     string       `json:"site"`
	Previous *AuditRecord `json:"previous"`
	Current  *AuditRecord `json:"current"`

	Scores           ScoreDelta `json:"score_delta"`
	CriticalDelta    int        `json:"critical_delta"`
	WarningsDelta    int        `json:"warnings_delta"`
	BrokenLinksDelta int        `json:"broken_links_delta"`

	// HealthChanged is true when the health status differs.
	HealthChanged bool `json:"health_changed"`

	// NewIssues are common issues present only in the current audit.
	NewIssues []model.IssueCount `json:"new_issues,omitempty"`

	// ResolvedIssues are common issues present only in the previous audit.
	ResolvedIssues []model.IssueCount `json:"resolved_issues,omitempty"`

	// Trend is "improved", "declined" or "unchanged" based on the overall score.
	Trend string `json:"trend"`
}

// Compare computes the difference between a previous and a current audit.
// Issue lists keep the order of the summaries' common issue histograms.
func Compare(previous, current *AuditRecord) *Comparison {
	c := &Comparison{
		Site:     current.Site,
		Previous: previous,
		Current:  current,
		Scores: ScoreDelta{
			Overall:       round1(current.Overall - previous.Overall),
			Technical:     round1(current.Technical - previous.Technical),
			Content:       round1(current.Content - previous.Content),
			Accessibility: round1(current.Accessibility - previous.Accessibility),
		},
		CriticalDelta:    current.Critical - previous.Critical,
		WarningsDelta:    current.Warnings - previous.Warnings,
		BrokenLinksDelta: current.BrokenLinks - previous.BrokenLinks,
		HealthChanged:    current.Health != previous.Health,
	}

	prevIssues := commonIssues(previous)
	currIssues := commonIssues(current)
	c.NewIssues = issueDifference(currIssues, prevIssues)
	c.ResolvedIssues = issueDifference(prevIssues, currIssues)

	switch diff := current.Overall - previous.Overall; {
	case diff >= scoreEpsilon:
		c.Trend = TrendImproved
	case diff <= -scoreEpsilon:
		c.Trend = TrendDeclined
	default:
		c.Trend = TrendUnchanged
	}
	return c
}

func commonIssues(r *AuditRecord) []model.IssueCount {
	if !r.Valid() {
		return nil
	}
	return r.Summary.CommonIssues
}

// issueDifference returns the entries of a whose issue text is not in b.
func issueDifference(a, b []model.IssueCount) []model.IssueCount {
	seen := make(map[string]struct{}, len(b))
	for _, ic := range b {
		seen[ic.Issue] = struct{}{}
	}
	var diff []model.IssueCount
	for _, ic := range a {
		if _, ok := seen[ic.Issue]; !ok {
			diff = append(diff, ic)
		}
	}
	return diff
}

func round1(v float64) float64 {
	return model.Round(v, 1)
}
