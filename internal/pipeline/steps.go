package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/seoscan/internal/analyzer"
	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/crawler"
	"github.com/nao1215/seoscan/internal/model"
)

// Step names recorded in AuditReport.PerformedSteps.
const (
	StepCrawl     = "crawl"
	StepLinkCheck = "link_check"
	StepAnalyze   = "analyze"
	StepAdvice    = "advice"
)

// ErrNoCrawlResult is returned by steps that need a crawl when none ran.
var ErrNoCrawlResult = errors.New("no crawl result to process")

// CrawlStep crawls the audited site and stores the raw page records.
//
// Design decision: The crawl is its own step because:
// 1. It is the only step that talks to the audited site
// 2. Its result is reused by both the link check and the analysis
// 3. A quick check is the same step with a page budget of one
type CrawlStep struct {
	// client is the HTTP client used for page fetches.
	client *http.Client

	// opts are passed to every spider created by this step.
	opts []crawler.SpiderOption

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlMaxDepth sets the maximum link depth.
func WithCrawlMaxDepth(depth int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithMaxDepth(depth))
	}
}

// WithCrawlMaxPages sets the page budget.
func WithCrawlMaxPages(maxPages int) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithMaxPages(maxPages))
	}
}

// WithCrawlDelay sets the politeness delay between page fetches.
func WithCrawlDelay(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithDelay(d))
	}
}

// WithCrawlPageTimeout sets the timeout of each page fetch.
func WithCrawlPageTimeout(d time.Duration) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithPageTimeout(d))
	}
}

// WithCrawlUserAgent sets the User-Agent header for page fetches.
func WithCrawlUserAgent(userAgent string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithUserAgent(userAgent))
	}
}

// WithCrawlHeaders sets extra request headers, cookies included.
func WithCrawlHeaders(headers map[string]string) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithHeaders(headers))
	}
}

// WithCrawlMaxBodySize sets the maximum response body size in bytes.
func WithCrawlMaxBodySize(maxBodySize int64) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithMaxBodySize(maxBodySize))
	}
}

// WithCrawlPathFilter restricts which URL paths are crawled.
func WithCrawlPathFilter(filter *crawler.PathFilter) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithPathFilter(filter))
	}
}

// WithCrawlRespectRobots makes the crawl honor robots.txt.
func WithCrawlRespectRobots(respect bool) CrawlStepOption {
	return func(s *CrawlStep) {
		s.opts = append(s.opts, crawler.WithRespectRobots(respect))
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewCrawlStep creates a new crawl step.
func NewCrawlStep(client *http.Client, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		client: client,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

// Do crawls report.URL. A cancelled crawl keeps the pages fetched so far
// on the report and returns the context error.
func (s *CrawlStep) Do(ctx context.Context, report *model.AuditReport) error {
	opts := append([]crawler.SpiderOption{crawler.WithLogger(s.logger)}, s.opts...)
	spider := crawler.NewSpider(s.client, opts...)

	result, err := spider.Crawl(ctx, report.URL)
	if result != nil {
		report.Crawl = result
		report.CrawlStats.PagesCrawled = result.TotalPagesCrawled
		report.CrawlStats.LinksFound = result.TotalLinksFound
	}
	if err != nil {
		return fmt.Errorf("crawl %s: %w", report.URL, err)
	}

	s.logger.Info("crawl completed",
		"url", report.URL,
		"pages", result.TotalPagesCrawled,
		"links", result.TotalLinksFound,
	)
	return nil
}

// LinkCheckStep probes the links found during the crawl and keeps the
// truly broken ones.
type LinkCheckStep struct {
	checker *crawler.LinkChecker
	logger  *slog.Logger
}

// NewLinkCheckStep creates a link check step around a configured checker.
func NewLinkCheckStep(checker *crawler.LinkChecker, logger *slog.Logger) *LinkCheckStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkCheckStep{checker: checker, logger: logger}
}

// Name returns the step name.
func (s *LinkCheckStep) Name() string {
	return StepLinkCheck
}

// Do checks the links of every crawled page.
func (s *LinkCheckStep) Do(ctx context.Context, report *model.AuditReport) error {
	if report.Crawl == nil {
		return ErrNoCrawlResult
	}

	broken, err := s.checker.CheckBrokenLinks(ctx, report.Crawl.Pages)
	if err != nil {
		return fmt.Errorf("link check: %w", err)
	}

	report.Crawl.BrokenLinks = broken
	report.CrawlStats.BrokenLinks = len(broken)
	s.logger.Info("link check completed", "url", report.URL, "broken", len(broken))
	return nil
}

// AnalyzeStep scores every crawled page and builds the site summary.
type AnalyzeStep struct {
	analyzer *analyzer.Analyzer
}

// NewAnalyzeStep creates an analysis step.
func NewAnalyzeStep(a *analyzer.Analyzer) *AnalyzeStep {
	if a == nil {
		a = analyzer.New()
	}
	return &AnalyzeStep{analyzer: a}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return StepAnalyze
}

// Offline reports that analysis runs without network access.
func (s *AnalyzeStep) Offline() bool { return true }

// Do fills Pages, Summary and BrokenLinks from the crawl result.
func (s *AnalyzeStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Crawl == nil {
		return ErrNoCrawlResult
	}

	site := s.analyzer.AnalyzeSite(report.Crawl)
	report.Pages = site.Pages
	report.Summary = site.Summary
	report.BrokenLinks = site.BrokenLinks
	return nil
}

// AdviceStep derives site-level advice from the summary.
type AdviceStep struct{}

// NewAdviceStep creates an advice step.
func NewAdviceStep() *AdviceStep {
	return &AdviceStep{}
}

// Name returns the step name.
func (s *AdviceStep) Name() string {
	return StepAdvice
}

// Offline reports that advice runs without network access.
func (s *AdviceStep) Offline() bool { return true }

// Do fills Advice. It needs the summary built by AnalyzeStep.
func (s *AdviceStep) Do(_ context.Context, report *model.AuditReport) error {
	if report.Summary == nil {
		return ErrNoCrawlResult
	}
	report.Advice = analyzer.GenerateAdvice(report.Summary, report.Pages)
	return nil
}

// DefaultPipelineConfig holds configuration for the default pipeline.
type DefaultPipelineConfig struct {
	// CrawlDepth is the maximum link depth from the root page.
	CrawlDepth int

	// CrawlMaxPages is the maximum number of pages to crawl.
	CrawlMaxPages int

	// CrawlDelay is the delay between page fetches.
	CrawlDelay time.Duration

	// PageTimeout bounds each page fetch.
	PageTimeout time.Duration

	// Cookie is the cookie string to send with page requests.
	Cookie string

	// Headers are additional HTTP headers to send with page requests.
	Headers map[string]string

	// IgnorePatterns are URL path patterns to skip during crawling.
	IgnorePatterns []string

	// FollowPatterns are URL path patterns to follow during crawling.
	FollowPatterns []string

	// RespectRobots makes the crawl honor robots.txt.
	RespectRobots bool

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// CheckLinks enables the broken link check.
	CheckLinks bool

	// ProbeTimeout bounds each link probe.
	ProbeTimeout time.Duration

	// LinkConcurrency is the number of parallel link probes.
	LinkConcurrency int

	// Classifier decides which failed probes count as broken.
	// Nil uses the built-in bot-protected domain list.
	Classifier *crawler.Classifier
}

// DefaultPipelineOption configures a DefaultPipelineConfig.
type DefaultPipelineOption func(*DefaultPipelineConfig)

// WithPipelineCrawlDepth sets the crawl depth for the pipeline.
func WithPipelineCrawlDepth(depth int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDepth = depth
	}
}

// WithPipelineCrawlMaxPages sets the maximum pages to crawl.
func WithPipelineCrawlMaxPages(maxPages int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlMaxPages = maxPages
	}
}

// WithPipelineCrawlDelay sets the delay between page fetches.
func WithPipelineCrawlDelay(delay time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CrawlDelay = delay
	}
}

// WithPipelinePageTimeout sets the per-page fetch timeout.
func WithPipelinePageTimeout(timeout time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.PageTimeout = timeout
	}
}

// WithPipelineCookie sets the cookie for page requests.
func WithPipelineCookie(cookie string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Cookie = cookie
	}
}

// WithPipelineHeaders sets additional HTTP headers.
func WithPipelineHeaders(headers map[string]string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Headers = headers
	}
}

// WithPipelineIgnorePatterns sets URL patterns to skip during crawling.
func WithPipelineIgnorePatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithPipelineFollowPatterns sets URL patterns to follow during crawling.
func WithPipelineFollowPatterns(patterns []string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.FollowPatterns = patterns
	}
}

// WithPipelineRespectRobots makes the crawl honor robots.txt.
func WithPipelineRespectRobots(respect bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.RespectRobots = respect
	}
}

// WithPipelineUserAgent sets the User-Agent header for HTTP requests.
func WithPipelineUserAgent(userAgent string) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.UserAgent = userAgent
	}
}

// WithPipelineMaxBodySize sets the maximum response body size in bytes.
func WithPipelineMaxBodySize(maxBodySize int64) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.MaxBodySize = maxBodySize
	}
}

// WithPipelineCheckLinks enables or disables the broken link check.
func WithPipelineCheckLinks(check bool) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.CheckLinks = check
	}
}

// WithPipelineProbeTimeout sets the per-link probe timeout.
func WithPipelineProbeTimeout(timeout time.Duration) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.ProbeTimeout = timeout
	}
}

// WithPipelineLinkConcurrency sets the number of parallel link probes.
func WithPipelineLinkConcurrency(n int) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.LinkConcurrency = n
	}
}

// WithPipelineClassifier sets the broken link classifier.
func WithPipelineClassifier(cl *crawler.Classifier) DefaultPipelineOption {
	return func(c *DefaultPipelineConfig) {
		c.Classifier = cl
	}
}

// newDefaultPipelineConfig returns the configuration used when no option is given.
func newDefaultPipelineConfig() *DefaultPipelineConfig {
	return &DefaultPipelineConfig{
		CrawlDepth:      config.DefaultMaxDepth,
		CrawlMaxPages:   config.DefaultMaxPages,
		CrawlDelay:      config.DefaultCrawlDelay,
		PageTimeout:     config.DefaultTimeout,
		UserAgent:       config.DefaultUserAgent,
		MaxBodySize:     config.DefaultMaxBodySize,
		CheckLinks:      true,
		ProbeTimeout:    config.DefaultProbeTimeout,
		LinkConcurrency: config.DefaultLinkConcurrency,
	}
}

// OptionsFromConfig translates the global configuration plus the site
// configuration of target into pipeline options. Site values override
// global ones when they are set.
func OptionsFromConfig(cfg *config.Config, target string) []DefaultPipelineOption {
	site := cfg.SiteFor(target)

	depth := cfg.MaxDepth
	if site.Depth != nil {
		depth = *site.Depth
	}
	maxPages := cfg.MaxPages
	if site.MaxPages > 0 {
		maxPages = site.MaxPages
	}
	respectRobots := cfg.RespectRobots
	if site.RespectRobots != nil {
		respectRobots = *site.RespectRobots
	}

	return []DefaultPipelineOption{
		WithPipelineCrawlDepth(depth),
		WithPipelineCrawlMaxPages(maxPages),
		WithPipelineCrawlDelay(cfg.CrawlDelay),
		WithPipelinePageTimeout(cfg.Timeout),
		WithPipelineCookie(site.Cookie),
		WithPipelineHeaders(site.Headers),
		WithPipelineIgnorePatterns(site.IgnorePatterns),
		WithPipelineFollowPatterns(site.FollowPatterns),
		WithPipelineRespectRobots(respectRobots),
		WithPipelineUserAgent(cfg.UserAgent),
		WithPipelineMaxBodySize(cfg.MaxBodySize),
		WithPipelineCheckLinks(cfg.CheckLinks),
		WithPipelineProbeTimeout(cfg.ProbeTimeout),
		WithPipelineLinkConcurrency(cfg.LinkConcurrency),
		WithPipelineClassifier(cfg.SiteConfigs.Classifier()),
	}
}

// DefaultPipeline creates a pipeline with all audit steps configured:
// crawl, link check (unless disabled), analysis and advice.
//
// Design decision: We provide a default pipeline because:
// 1. Every audit runs the same steps in the same order
// 2. Reduces boilerplate in CLI
// 3. The batch processor builds one per target from the same options
//
// The first variadic parameter accepts pipeline options (WithLogger, etc).
// The second accepts pipeline config options (WithPipelineCrawlDepth, etc).
// Steps log through the pipeline's logger.
func DefaultPipeline(client *http.Client, pipelineOpts []Option, configOpts ...DefaultPipelineOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := newDefaultPipelineConfig()
	for _, opt := range configOpts {
		opt(cfg)
	}

	site := config.SiteConfig{Cookie: cfg.Cookie, Headers: cfg.Headers}
	crawlOpts := []CrawlStepOption{
		WithCrawlMaxDepth(cfg.CrawlDepth),
		WithCrawlMaxPages(cfg.CrawlMaxPages),
		WithCrawlDelay(cfg.CrawlDelay),
		WithCrawlPageTimeout(cfg.PageTimeout),
		WithCrawlUserAgent(cfg.UserAgent),
		WithCrawlHeaders(site.RequestHeaders()),
		WithCrawlMaxBodySize(cfg.MaxBodySize),
		WithCrawlRespectRobots(cfg.RespectRobots),
		WithCrawlLogger(p.logger),
	}
	if len(cfg.IgnorePatterns) > 0 || len(cfg.FollowPatterns) > 0 {
		crawlOpts = append(crawlOpts, WithCrawlPathFilter(crawler.NewPathFilter(cfg.IgnorePatterns, cfg.FollowPatterns)))
	}

	p.AddStep(NewCrawlStep(client, crawlOpts...))

	if cfg.CheckLinks {
		classifier := cfg.Classifier
		if classifier == nil {
			classifier = crawler.NewClassifier(nil)
		}
		checker := crawler.NewLinkChecker(client,
			crawler.WithProbeTimeout(cfg.ProbeTimeout),
			crawler.WithLinkConcurrency(cfg.LinkConcurrency),
			crawler.WithClassifier(classifier),
			crawler.WithProbeUserAgent(cfg.UserAgent),
			crawler.WithCheckerLogger(p.logger),
		)
		p.AddStep(NewLinkCheckStep(checker, p.logger))
	}

	p.AddSteps(
		NewAnalyzeStep(analyzer.New(analyzer.WithLogger(p.logger))),
		NewAdviceStep(),
	)

	return p
}
