package analyzer

import (
	"fmt"

	"github.com/nao1215/seoscan/internal/model"
)

// Advice categories that have no page-level counterpart.
const (
	adviceCategoryBrokenLinks = "Technical"
	adviceCategoryPriority    = "Priority"
	adviceCategoryStrategy    = "Content Strategy"
	adviceCategoryQuality     = "Content Quality"
)

// overallAdvice maps the average overall score to the headline advice.
var overallAdvice = []struct {
	min     float64
	kind    model.AdviceType
	message string
}{
	{80, model.AdviceSuccess, "Excellent SEO! Your website is well-optimized. Focus on maintaining quality and monitoring performance."},
	{60, model.AdviceInfo, "Good SEO foundation. Address the warnings to reach excellent status."},
	{40, model.AdviceWarning, "Your SEO needs improvement. Focus on critical issues first."},
	{0, model.AdviceCritical, "Critical SEO issues detected. Immediate action required to improve search visibility."},
}

// GenerateAdvice derives prioritized site-level advice from a summary and
// its page analyses. A summary without valid pages is treated as scoring 0
// in every category. A nil summary yields no advice.
func GenerateAdvice(summary *model.SiteSummary, pages []*model.PageAnalysis) []model.Advice {
	advice := make([]model.Advice, 0)
	if summary == nil {
		return advice
	}
	avg := summary.AverageScores

	for _, band := range overallAdvice {
		if avg.Overall >= band.min || band.min == 0 {
			advice = append(advice, model.Advice{Type: band.kind, Category: model.CategoryOverall, Message: band.message})
			break
		}
	}

	if avg.Technical < 60 {
		advice = append(advice, model.Advice{
			Type:     model.AdviceCritical,
			Category: model.CategoryTechnical,
			Message:  "Fix missing title tags, meta descriptions, and H1 tags. These are fundamental for SEO.",
		})
	}
	if avg.Content < 60 {
		advice = append(advice, model.Advice{
			Type:     model.AdviceWarning,
			Category: model.CategoryContent,
			Message:  "Improve content quality by adding more text, improving readability, and using relevant keywords.",
		})
	}
	if avg.Accessibility < 70 {
		advice = append(advice, model.Advice{
			Type:     model.AdviceWarning,
			Category: model.CategoryAccessibility,
			Message:  "Add alt text to images and ensure proper link text for better accessibility and SEO.",
		})
	}

	if summary.TotalBrokenLinks > 0 {
		advice = append(advice, model.Advice{
			Type:     model.AdviceCritical,
			Category: adviceCategoryBrokenLinks,
			Message:  fmt.Sprintf("Fix %d broken link(s). Broken links hurt user experience and SEO.", summary.TotalBrokenLinks),
		})
	}

	if len(summary.CommonIssues) > 0 {
		top := summary.CommonIssues[0]
		advice = append(advice, model.Advice{
			Type:     model.AdviceInfo,
			Category: adviceCategoryPriority,
			Message:  fmt.Sprintf("Most common issue: %q found on %d page(s). Fix this across your site.", top.Issue, top.Count),
		})
	}

	if len(pages) == 0 {
		return advice
	}

	lowContent, poorReadability := 0, 0
	for _, p := range pages {
		if p.IsError() || p.Content == nil {
			continue
		}
		if p.Content.Details.WordCount < MinWordCount {
			lowContent++
		}
		if p.Content.Details.ReadabilityStatus == "needs_improvement" {
			poorReadability++
		}
	}

	// The share is taken over all pages, error pages included.
	if float64(lowContent) > float64(len(pages))*0.5 {
		advice = append(advice, model.Advice{
			Type:     model.AdviceWarning,
			Category: adviceCategoryStrategy,
			Message:  fmt.Sprintf("%d page(s) have low word count. Add comprehensive, valuable content to improve rankings.", lowContent),
		})
	}
	if poorReadability > 0 {
		advice = append(advice, model.Advice{
			Type:     model.AdviceInfo,
			Category: adviceCategoryQuality,
			Message:  "Improve readability by using shorter sentences, simpler words, and better formatting.",
		})
	}

	return advice
}
