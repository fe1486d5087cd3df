package analyzer

import (
	"fmt"
	"strconv"

	"github.com/nao1215/seoscan/internal/model"
)

// Highlight icons.
const (
	iconCheck = "check-circle"
	iconAward = "award"
)

// scored bundles the three category results that finding rules read.
type scored struct {
	tech    *model.TechnicalScore
	content *model.ContentScore
	access  *model.AccessibilityScore
}

// issueRule emits an issue or warning when its predicate holds.
type issueRule struct {
	when  func(s scored) bool
	issue func(s scored) model.Issue
}

// criticalRules produce page issues.
var criticalRules = []issueRule{
	{
		when: func(s scored) bool { return s.tech.Details.TitleStatus == "missing" },
		issue: func(scored) model.Issue {
			return critical(model.CategoryTechnical, "Missing title tag",
				fmt.Sprintf("Add a unique, descriptive title tag (%d-%d characters)", IdealTitleMin, IdealTitleMax))
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.MetaStatus == "missing" },
		issue: func(scored) model.Issue {
			return critical(model.CategoryTechnical, "Missing meta description",
				fmt.Sprintf("Add a compelling meta description (%d-%d characters)", IdealMetaMin, IdealMetaMax))
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.H1Status == "missing" },
		issue: func(scored) model.Issue {
			return critical(model.CategoryTechnical, "Missing H1 tag",
				"Add exactly one H1 tag that describes the page content")
		},
	},
}

// warningRules produce page warnings.
var warningRules = []issueRule{
	{
		when: func(s scored) bool {
			return s.tech.Details.TitleStatus == "needs_optimization" && s.tech.Details.TitleLength < IdealTitleMin
		},
		issue: func(s scored) model.Issue {
			return warning(model.CategoryTechnical,
				fmt.Sprintf("Title too short (%d characters)", s.tech.Details.TitleLength),
				fmt.Sprintf("Expand title to %d-%d characters", IdealTitleMin, IdealTitleMax))
		},
	},
	{
		when: func(s scored) bool {
			return s.tech.Details.TitleStatus == "needs_optimization" && s.tech.Details.TitleLength > IdealTitleMax
		},
		issue: func(s scored) model.Issue {
			return warning(model.CategoryTechnical,
				fmt.Sprintf("Title too long (%d characters)", s.tech.Details.TitleLength),
				fmt.Sprintf("Shorten title to %d-%d characters", IdealTitleMin, IdealTitleMax))
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.H1Status == "multiple" },
		issue: func(s scored) model.Issue {
			return warning(model.CategoryTechnical,
				fmt.Sprintf("Multiple H1 tags found (%d)", s.tech.Details.H1Count),
				"Use only one H1 tag per page for better SEO")
		},
	},
	{
		when: func(s scored) bool { return s.content.Details.WordCountStatus == "low" },
		issue: func(s scored) model.Issue {
			return warning(model.CategoryContent,
				fmt.Sprintf("Low word count (%d words)", s.content.Details.WordCount),
				fmt.Sprintf("Add more content. Aim for at least %d words", MinWordCount))
		},
	},
	{
		when: func(s scored) bool { return s.access.Details.ImagesWithoutAlt > 0 },
		issue: func(s scored) model.Issue {
			return warning(model.CategoryAccessibility,
				fmt.Sprintf("%d images missing alt text", s.access.Details.ImagesWithoutAlt),
				"Add descriptive alt text to all images for accessibility and SEO")
		},
	},
}

// recommendationRules produce improvement suggestions.
var recommendationRules = []struct {
	when func(s scored) bool
	rec  model.Recommendation
}{
	{
		when: func(s scored) bool { return !s.tech.Details.HasCanonical },
		rec:  model.Recommendation{Category: model.CategoryTechnical, Recommendation: "Add a canonical URL to avoid duplicate content issues"},
	},
	{
		when: func(s scored) bool { return s.tech.Details.OGTagsStatus != "good" },
		rec:  model.Recommendation{Category: model.CategoryTechnical, Recommendation: "Add Open Graph tags for better social media sharing"},
	},
	{
		when: func(s scored) bool { return s.content.Details.ReadabilityStatus == "needs_improvement" },
		rec:  model.Recommendation{Category: model.CategoryContent, Recommendation: "Improve readability by using shorter sentences and simpler words"},
	},
}

// highlightRule emits a positive highlight when its predicate holds.
type highlightRule struct {
	when      func(s scored) bool
	highlight func(s scored) model.Highlight
}

// highlightRules mirror the optimal/good/excellent statuses.
var highlightRules = []highlightRule{
	{
		when: func(s scored) bool { return s.tech.Details.TitleStatus == "optimal" },
		highlight: func(s scored) model.Highlight {
			return check(model.CategoryTechnical,
				fmt.Sprintf("Perfect title length (%d characters)", s.tech.Details.TitleLength),
				"Your title is optimally sized for search results")
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.MetaStatus == "optimal" },
		highlight: func(s scored) model.Highlight {
			return check(model.CategoryTechnical,
				fmt.Sprintf("Ideal meta description (%d characters)", s.tech.Details.MetaLength),
				"Meta description is perfectly sized for search snippets")
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.H1Status == "optimal" },
		highlight: func(scored) model.Highlight {
			return check(model.CategoryTechnical, "Perfect H1 structure", "Exactly one H1 tag - ideal for SEO")
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.HeadingHierarchy == "valid" },
		highlight: func(scored) model.Highlight {
			return check(model.CategoryTechnical, "Valid heading hierarchy", "Headings follow proper H1→H2→H3 structure")
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.HasCanonical },
		highlight: func(scored) model.Highlight {
			return check(model.CategoryTechnical, "Canonical URL present", "Helps prevent duplicate content issues")
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.OGTagsStatus == "good" },
		highlight: func(scored) model.Highlight {
			return check(model.CategoryTechnical, "Rich Open Graph tags", "Great social media sharing optimization")
		},
	},
	{
		when: func(s scored) bool { return s.tech.Details.Status == "ok" },
		highlight: func(scored) model.Highlight {
			return check(model.CategoryTechnical, "Page loads successfully", "HTTP 200 status - no server errors")
		},
	},
	{
		when: func(s scored) bool {
			st := s.content.Details.WordCountStatus
			return st == "excellent" || st == "good"
		},
		highlight: func(s scored) model.Highlight {
			return check(model.CategoryContent,
				fmt.Sprintf("Substantial content (%d words)", s.content.Details.WordCount),
				"Good amount of content for search engines")
		},
	},
	{
		when: func(s scored) bool { return s.content.Details.ReadabilityStatus == "optimal" },
		highlight: func(s scored) model.Highlight {
			return check(model.CategoryContent, "Excellent readability", "Easy to read - "+s.content.Details.ReadingLevel)
		},
	},
	{
		when: func(s scored) bool { return s.content.Details.Tone == "Positive" },
		highlight: func(scored) model.Highlight {
			return check(model.CategoryContent, "Positive tone detected", "Content has an engaging, positive sentiment")
		},
	},
	{
		when: func(s scored) bool { return s.content.Details.ContentStructure == "well_structured" },
		highlight: func(s scored) model.Highlight {
			return check(model.CategoryContent, "Well-structured content",
				fmt.Sprintf("%d headings organize the content", s.content.Details.TotalHeadings))
		},
	},
	{
		when: func(s scored) bool { return s.content.Details.KeywordStatus == "good" },
		highlight: func(scored) model.Highlight {
			return check(model.CategoryContent, "Good keyword usage", "Content contains relevant keywords")
		},
	},
	{
		when: func(s scored) bool {
			st := s.access.Details.AltTextStatus
			return st == "excellent" || st == "good"
		},
		highlight: func(s scored) model.Highlight {
			return check(model.CategoryAccessibility,
				formatPercent(s.access.Details.ImagesWithAltPercentage)+"% of images have alt text",
				"Great for accessibility and SEO")
		},
	},
	{
		when: func(s scored) bool { return s.access.Details.HeadingAccessibility == "good" },
		highlight: func(scored) model.Highlight {
			return check(model.CategoryAccessibility, "Screen reader friendly headings", "Proper heading structure for accessibility")
		},
	},
	{
		when: func(s scored) bool {
			st := s.access.Details.LinkTextStatus
			return st == "excellent" || st == "good"
		},
		highlight: func(scored) model.Highlight {
			return check(model.CategoryAccessibility, "Descriptive link text", "Links have meaningful text for screen readers")
		},
	},
	{
		when: func(s scored) bool { return s.tech.Percentage >= HighlightPercentage },
		highlight: func(s scored) model.Highlight {
			return award("Excellent technical SEO!", formatPercent(s.tech.Percentage)+"% technical SEO score")
		},
	},
	{
		when: func(s scored) bool { return s.content.Percentage >= HighlightPercentage },
		highlight: func(s scored) model.Highlight {
			return award("Outstanding content quality!", formatPercent(s.content.Percentage)+"% content SEO score")
		},
	},
	{
		when: func(s scored) bool { return s.access.Percentage >= HighlightPercentage },
		highlight: func(s scored) model.Highlight {
			return award("Highly accessible!", formatPercent(s.access.Percentage)+"% accessibility score")
		},
	},
}

func critical(category, issue, recommendation string) model.Issue {
	return model.Issue{Severity: model.SeverityCritical, Category: category, Issue: issue, Recommendation: recommendation}
}

func warning(category, issue, recommendation string) model.Issue {
	return model.Issue{Severity: model.SeverityWarning, Category: category, Issue: issue, Recommendation: recommendation}
}

func check(category, highlight, detail string) model.Highlight {
	return model.Highlight{Category: category, Icon: iconCheck, Highlight: highlight, Detail: detail}
}

func award(highlight, detail string) model.Highlight {
	return model.Highlight{Category: model.CategoryOverall, Icon: iconAward, Highlight: highlight, Detail: detail}
}

// formatPercent prints a one-decimal percentage the way reports show it:
// whole numbers keep a trailing ".0" (e.g. "100.0", "87.5").
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// findings fills the issue, warning, recommendation and highlight lists.
func findings(s scored, a *model.PageAnalysis) {
	for _, r := range criticalRules {
		if r.when(s) {
			a.Issues = append(a.Issues, r.issue(s))
		}
	}
	for _, r := range warningRules {
		if r.when(s) {
			a.Warnings = append(a.Warnings, r.issue(s))
		}
	}
	for _, r := range recommendationRules {
		if r.when(s) {
			a.Recommendations = append(a.Recommendations, r.rec)
		}
	}
	for _, r := range highlightRules {
		if r.when(s) {
			a.Highlights = append(a.Highlights, r.highlight(s))
		}
	}
}
