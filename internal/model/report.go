package model

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AuditReport is the result of one audit of one site.
// Pipeline steps fill it in order: crawl, link check, analysis, advice.
//
// Design decision: We use one report struct that every step mutates rather
// than returning separate values per step because:
//  1. The pipeline passes a single value through all steps
//  2. Partial results survive when a later step fails or times out
//  3. Report writers and the history store consume one type
type AuditReport struct {
	// ID is a random UUID identifying this audit in the history store.
	ID string `json:"id"`

	// URL is the audited root URL.
	URL string `json:"url"`

	// Timestamp is when the audit started.
	Timestamp time.Time `json:"timestamp"`

	// QuickCheck is true for single-page checks.
	QuickCheck bool `json:"quick_check,omitempty"`

	// Crawl holds the raw crawl output. Not serialized: page records carry
	// the full visible text and would bloat every report.
	Crawl *CrawlResult `json:"-"`

	// Pages holds one analysis per crawled page, error pages included.
	Pages []*PageAnalysis `json:"pages"`

	// Summary is the site-level aggregate.
	Summary *SiteSummary `json:"summary,omitempty"`

	// BrokenLinks lists links confirmed as truly broken.
	BrokenLinks []BrokenLinkEntry `json:"broken_links"`

	// Advice is the prioritized site-level guidance.
	Advice []Advice `json:"ai_advice"` //nolint:tagliatelle // key kept for report consumers

	// CrawlStats summarizes the crawl.
	CrawlStats CrawlStats `json:"crawl_stats"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// FailedSteps lists the pipeline steps that returned an error.
	FailedSteps []string `json:"failed_steps,omitempty"`

	// ErrorMessage holds the first step failure, if any.
	ErrorMessage string `json:"error,omitempty"`

	// TimedOut is true when the audit was cancelled before all steps ran.
	TimedOut bool `json:"timed_out,omitempty"`
}

// CrawlStats summarizes a crawl for reports and history.
type CrawlStats struct {
	PagesCrawled int `json:"pages_crawled"`
	LinksFound   int `json:"links_found"`
	BrokenLinks  int `json:"broken_links"`
}

// CrawlResult is the output of one crawl session.
type CrawlResult struct {
	// Pages holds full records and error records in fetch order.
	Pages []*PageRecord `json:"pages"`

	// Links is the sorted, deduplicated set of every link URL discovered.
	Links []string `json:"links"`

	// BrokenLinks is filled by the link checker after the crawl.
	BrokenLinks []BrokenLinkEntry `json:"broken_links"`

	// TotalPagesCrawled equals len(Pages).
	TotalPagesCrawled int `json:"total_pages_crawled"`

	// TotalLinksFound equals len(Links).
	TotalLinksFound int `json:"total_links_found"`
}

// NewAuditReport creates an empty report for the given root URL.
func NewAuditReport(rootURL string) *AuditReport {
	return &AuditReport{
		ID:          uuid.NewString(),
		URL:         rootURL,
		Timestamp:   time.Now(),
		Pages:       make([]*PageAnalysis, 0),
		BrokenLinks: make([]BrokenLinkEntry, 0),
		Advice:      make([]Advice, 0),
	}
}

// Site returns the lower-cased host of the audited URL, used as the history key.
func (r *AuditReport) Site() string {
	u, err := url.Parse(r.URL)
	if err != nil || u.Host == "" {
		return r.URL
	}
	return strings.ToLower(u.Host)
}

// ValidPages returns the analyses of pages that were fetched successfully.
func (r *AuditReport) ValidPages() []*PageAnalysis {
	valid := make([]*PageAnalysis, 0, len(r.Pages))
	for _, p := range r.Pages {
		if !p.IsError() {
			valid = append(valid, p)
		}
	}
	return valid
}

// ErrorPages returns the analyses of pages that failed to fetch.
func (r *AuditReport) ErrorPages() []*PageAnalysis {
	failed := make([]*PageAnalysis, 0)
	for _, p := range r.Pages {
		if p.IsError() {
			failed = append(failed, p)
		}
	}
	return failed
}

// CountIssues returns the number of critical issues and warnings across all pages.
func (r *AuditReport) CountIssues() (critical, warnings int) {
	for _, p := range r.Pages {
		critical += len(p.Issues)
		warnings += len(p.Warnings)
	}
	return critical, warnings
}
