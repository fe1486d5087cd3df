package analyzer

import (
	"errors"
	"log/slog"

	"github.com/nao1215/seoscan/internal/model"
)

// Analyzer scores crawled pages and summarizes sites.
// An Analyzer is stateless apart from its logger and safe for concurrent use.
type Analyzer struct {
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SiteAnalysis is the scoring result of a whole crawl.
type SiteAnalysis struct {
	Pages       []*model.PageAnalysis
	Summary     *model.SiteSummary
	BrokenLinks []model.BrokenLinkEntry
}

// AnalyzePage scores one page record. Error records produce an analysis
// carrying only the URL and the error.
func (a *Analyzer) AnalyzePage(page *model.PageRecord) *model.PageAnalysis {
	if page.IsError() {
		return &model.PageAnalysis{URL: page.URL, Error: page.Error}
	}

	f := gatherFacts(page)
	s := scored{
		tech:    scoreTechnical(f),
		content: scoreContent(f),
		access:  scoreAccessibility(f),
	}

	analysis := &model.PageAnalysis{
		URL:             page.URL,
		Technical:       s.tech,
		Content:         s.content,
		Accessibility:   s.access,
		OverallScore:    model.OverallScore(s.tech.Percentage, s.content.Percentage, s.access.Percentage),
		Issues:          []model.Issue{},
		Warnings:        []model.Issue{},
		Recommendations: []model.Recommendation{},
		Highlights:      []model.Highlight{},
	}
	findings(s, analysis)

	a.logger.Debug("analyzed page", "url", page.URL, "overall", analysis.OverallScore)
	return analysis
}

// AnalyzeSite scores every page of a crawl and builds the site summary.
// When no page is valid the summary only carries an error message.
func (a *Analyzer) AnalyzeSite(crawl *model.CrawlResult) *SiteAnalysis {
	pages := make([]*model.PageAnalysis, 0, len(crawl.Pages))
	for _, page := range crawl.Pages {
		pages = append(pages, a.AnalyzePage(page))
	}

	summary, err := Summarize(pages, crawl.TotalPagesCrawled, len(crawl.BrokenLinks))
	if errors.Is(err, ErrNoValidPages) {
		a.logger.Warn("no valid pages to summarize", "pages", len(pages))
		summary = &model.SiteSummary{Error: NoValidPagesMessage}
	}

	broken := crawl.BrokenLinks
	if broken == nil {
		broken = []model.BrokenLinkEntry{}
	}
	return &SiteAnalysis{Pages: pages, Summary: summary, BrokenLinks: broken}
}

func scoreTechnical(f *facts) *model.TechnicalScore {
	d := model.TechnicalDetails{
		TitleLength: f.titleLen,
		MetaLength:  f.metaLen,
		H1Count:     f.h1Count,
		OGTagsCount: f.ogCount,
		StatusCode:  f.status,
	}
	score := evaluate(technicalRules, f, &d)
	return &model.TechnicalScore{CategoryScore: model.NewCategoryScore(score), Details: d}
}

func scoreContent(f *facts) *model.ContentScore {
	d := model.ContentDetails{
		WordCount:      f.wordCount,
		TopKeywords:    f.keywords.Keywords,
		KeywordDensity: f.keywords.Density,
		TotalHeadings:  f.totalHeadings,
	}
	if f.readable && f.readErr == nil {
		d.FleschReadingEase = model.Round(f.readability.FleschReadingEase, 1)
		d.FleschKincaidGrade = model.Round(f.readability.FleschKincaidGrade, 1)
		d.ReadingLevel = f.readability.ReadingLevel
	}
	if f.hasText {
		d.SentimentPolarity = model.Round(f.polarity, 2)
	}
	score := evaluate(contentRules, f, &d)
	return &model.ContentScore{CategoryScore: model.NewCategoryScore(score), Details: d}
}

func scoreAccessibility(f *facts) *model.AccessibilityScore {
	d := model.AccessibilityDetails{
		TotalImages:      f.totalImages,
		ImagesWithoutAlt: f.imagesWithoutAlt,
		TotalLinks:       f.totalLinks,
		LinksWithoutText: f.linksWithoutText,
	}
	if f.totalImages > 0 {
		d.ImagesWithAltPercentage = model.Round(f.altPct, 1)
	}
	if f.totalLinks > 0 {
		d.LinksWithTextPercentage = model.Round(f.linkTextPct, 1)
	}
	score := evaluate(accessibilityRules, f, &d)
	return &model.AccessibilityScore{CategoryScore: model.NewCategoryScore(score), Details: d}
}
