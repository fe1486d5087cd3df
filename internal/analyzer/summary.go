package analyzer

import (
	"errors"
	"sort"

	"github.com/nao1215/seoscan/internal/model"
)

// NoValidPagesMessage is the summary error when every page failed.
const NoValidPagesMessage = "No valid pages analyzed"

// CommonIssueLimit is the size of the common issue histogram.
const CommonIssueLimit = 5

// ErrNoValidPages is returned by Summarize when no page could be analyzed.
var ErrNoValidPages = errors.New("no valid pages analyzed")

// Summarize aggregates the valid page analyses of one site.
// totalCrawled and brokenLinks are carried into the summary as-is.
func Summarize(pages []*model.PageAnalysis, totalCrawled, brokenLinks int) (*model.SiteSummary, error) {
	valid := make([]*model.PageAnalysis, 0, len(pages))
	for _, p := range pages {
		if !p.IsError() {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoValidPages
	}

	var overall, tech, content, access float64
	var totals model.IssueTotals
	counts := make(map[string]int)
	var order []string

	count := func(issues []model.Issue) {
		for _, is := range issues {
			if counts[is.Issue] == 0 {
				order = append(order, is.Issue)
			}
			counts[is.Issue]++
		}
	}

	for _, p := range valid {
		overall += p.OverallScore
		tech += p.Technical.Percentage
		content += p.Content.Percentage
		access += p.Accessibility.Percentage
		totals.Critical += len(p.Issues)
		totals.Warnings += len(p.Warnings)
		count(p.Issues)
		count(p.Warnings)
	}

	n := float64(len(valid))
	avgOverall := overall / n

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > CommonIssueLimit {
		order = order[:CommonIssueLimit]
	}
	common := make([]model.IssueCount, 0, len(order))
	for _, issue := range order {
		common = append(common, model.IssueCount{Issue: issue, Count: counts[issue]})
	}

	return &model.SiteSummary{
		TotalPagesAnalyzed: len(valid),
		TotalPagesCrawled:  totalCrawled,
		TotalBrokenLinks:   brokenLinks,
		AverageScores: model.AverageScores{
			Overall:       model.Round(avgOverall, 1),
			Technical:     model.Round(tech/n, 1),
			Content:       model.Round(content/n, 1),
			Accessibility: model.Round(access/n, 1),
		},
		TotalIssues:  totals,
		CommonIssues: common,
		HealthStatus: model.HealthFromScore(avgOverall),
	}, nil
}
