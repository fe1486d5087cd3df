package database

import (
	"testing"

	"github.com/nao1215/seoscan/internal/model"
)

func record(overall float64, health model.HealthStatus, issues ...string) *AuditRecord {
	common := make([]model.IssueCount, len(issues))
	for i, is := range issues {
		common[i] = model.IssueCount{Issue: is, Count: 2}
	}
	return &AuditRecord{
		Site:          "example.com",
		Overall:       overall,
		Technical:     overall,
		Content:       overall,
		Accessibility: overall,
		Critical:      len(issues),
		Health:        health,
		Summary:       &model.SiteSummary{CommonIssues: common, HealthStatus: health},
	}
}

// TestCompare tests score deltas, issue sets and trend detection.
func TestCompare(t *testing.T) {
	t.Parallel()

	t.Run("improved", func(t *testing.T) {
		t.Parallel()

		prev := record(55.04, model.HealthNeedsImprovement, "Missing H1 tag", "Missing meta description")
		curr := record(81.26, model.HealthExcellent, "Missing meta description", "Low word count (120 words)")

		c := Compare(prev, curr)
		if c.Trend != TrendImproved {
			t.Errorf("expected improved, got %s", c.Trend)
		}
		if c.Scores.Overall != 26.2 {
			t.Errorf("expected overall delta 26.2, got %v", c.Scores.Overall)
		}
		if !c.HealthChanged {
			t.Error("expected health change")
		}
		if c.CriticalDelta != 0 {
			t.Errorf("expected critical delta 0, got %d", c.CriticalDelta)
		}
		if len(c.NewIssues) != 1 || c.NewIssues[0].Issue != "Low word count (120 words)" {
			t.Errorf("unexpected new issues %v", c.NewIssues)
		}
		if len(c.ResolvedIssues) != 1 || c.ResolvedIssues[0].Issue != "Missing H1 tag" {
			t.Errorf("unexpected resolved issues %v", c.ResolvedIssues)
		}
	})

	t.Run("declined", func(t *testing.T) {
		t.Parallel()

		c := Compare(record(70, model.HealthGood), record(65, model.HealthGood, "Missing title tag"))
		if c.Trend != TrendDeclined {
			t.Errorf("expected declined, got %s", c.Trend)
		}
		if c.HealthChanged {
			t.Error("expected no health change")
		}
		if c.CriticalDelta != 1 || len(c.NewIssues) != 1 || len(c.ResolvedIssues) != 0 {
			t.Errorf("unexpected comparison %+v", c)
		}
	})

	t.Run("unchanged within tolerance", func(t *testing.T) {
		t.Parallel()

		c := Compare(record(70, model.HealthGood), record(70.01, model.HealthGood))
		if c.Trend != TrendUnchanged {
			t.Errorf("expected unchanged, got %s", c.Trend)
		}
	})

	t.Run("previous audit failed", func(t *testing.T) {
		t.Parallel()

		prev := &AuditRecord{Site: "example.com", Summary: &model.SiteSummary{Error: "No valid pages analyzed"}}
		c := Compare(prev, record(50, model.HealthNeedsImprovement, "Missing H1 tag"))
		if c.Trend != TrendImproved || len(c.NewIssues) != 1 || c.ResolvedIssues != nil {
			t.Errorf("unexpected comparison %+v", c)
		}
	})
}
