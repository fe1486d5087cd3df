package model

import "testing"

// TestNewAuditReport tests report construction.
func TestNewAuditReport(t *testing.T) {
	t.Parallel()

	r1 := NewAuditReport("https://example.com/blog")
	r2 := NewAuditReport("https://example.com/blog")

	if r1.ID == "" || r1.ID == r2.ID {
		t.Errorf("expected unique non-empty IDs, got %q and %q", r1.ID, r2.ID)
	}
	if r1.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if r1.Site() != "example.com" {
		t.Errorf("expected site example.com, got %q", r1.Site())
	}
}

// TestAuditReportPages tests the page filters and issue counters.
func TestAuditReportPages(t *testing.T) {
	t.Parallel()

	r := NewAuditReport("https://example.com")
	r.Pages = []*PageAnalysis{
		{
			URL:      "https://example.com",
			Issues:   []Issue{{Severity: SeverityCritical, Issue: "Missing H1 tag"}},
			Warnings: []Issue{{Severity: SeverityWarning}, {Severity: SeverityWarning}},
		},
		{URL: "https://example.com/broken", Error: "timeout"},
		{URL: "https://example.com/ok"},
	}

	if got := len(r.ValidPages()); got != 2 {
		t.Errorf("expected 2 valid pages, got %d", got)
	}
	if got := len(r.ErrorPages()); got != 1 {
		t.Errorf("expected 1 error page, got %d", got)
	}

	critical, warnings := r.CountIssues()
	if critical != 1 || warnings != 2 {
		t.Errorf("expected 1 critical and 2 warnings, got %d and %d", critical, warnings)
	}
}
