package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/seoscan/internal/config"
	"github.com/nao1215/seoscan/internal/crawler"
	"github.com/nao1215/seoscan/internal/model"
)

const homePage = `<html><head>
<title>Example Store - Handmade Goods and Gifts for Every Season</title>
<meta name="description" content="Handmade goods from local makers.">
</head><body>
<h1>Welcome</h1>
<p>We sell handmade goods. Every item is made by local makers.</p>
<a href="/about">About us</a>
<a href="/missing">Old catalog</a>
</body></html>`

const aboutPage = `<html><head><title>About</title></head><body>
<h1>About</h1><p>Founded by makers.</p><a href="/">Home</a>
</body></html>`

// newTestSite starts a three-page site where /missing answers 404.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(homePage)) //nolint:errcheck
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(aboutPage)) //nolint:errcheck
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// TestStepNames tests the names recorded in PerformedSteps.
func TestStepNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		step Step
		want string
	}{
		{NewCrawlStep(nil), StepCrawl},
		{NewLinkCheckStep(crawler.NewLinkChecker(nil), nil), StepLinkCheck},
		{NewAnalyzeStep(nil), StepAnalyze},
		{NewAdviceStep(), StepAdvice},
	}
	for _, tt := range tests {
		if got := tt.step.Name(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

// TestCrawlStepDo tests the crawl step against a local site.
func TestCrawlStepDo(t *testing.T) {
	t.Parallel()

	t.Run("stores crawl result and stats", func(t *testing.T) {
		t.Parallel()

		server := newTestSite(t)
		step := NewCrawlStep(server.Client(), WithCrawlDelay(0), WithCrawlMaxDepth(1))

		report := model.NewAuditReport(server.URL + "/")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Crawl == nil {
			t.Fatal("expected crawl result")
		}
		if report.CrawlStats.PagesCrawled != 3 {
			t.Errorf("expected 3 pages crawled, got %d", report.CrawlStats.PagesCrawled)
		}
		if report.CrawlStats.LinksFound != report.Crawl.TotalLinksFound {
			t.Errorf("expected links found %d, got %d", report.Crawl.TotalLinksFound, report.CrawlStats.LinksFound)
		}
	})

	t.Run("page budget of one", func(t *testing.T) {
		t.Parallel()

		server := newTestSite(t)
		step := NewCrawlStep(server.Client(), WithCrawlDelay(0), WithCrawlMaxPages(1), WithCrawlMaxDepth(0))

		report := model.NewAuditReport(server.URL + "/")
		if err := step.Do(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.CrawlStats.PagesCrawled != 1 {
			t.Errorf("expected 1 page crawled, got %d", report.CrawlStats.PagesCrawled)
		}
	})

	t.Run("invalid root URL", func(t *testing.T) {
		t.Parallel()

		report := model.NewAuditReport("ftp://example.com/")
		err := NewCrawlStep(nil).Do(context.Background(), report)
		if !errors.Is(err, crawler.ErrInvalidURL) {
			t.Errorf("expected crawler.ErrInvalidURL, got %v", err)
		}
		if report.Crawl != nil {
			t.Error("expected no crawl result")
		}
	})
}

// TestStepsWithoutCrawl tests steps that depend on a crawl result.
func TestStepsWithoutCrawl(t *testing.T) {
	t.Parallel()

	report := model.NewAuditReport("https://example.com/")

	if err := NewLinkCheckStep(crawler.NewLinkChecker(nil), nil).Do(context.Background(), report); !errors.Is(err, ErrNoCrawlResult) {
		t.Errorf("link check: expected ErrNoCrawlResult, got %v", err)
	}
	if err := NewAnalyzeStep(nil).Do(context.Background(), report); !errors.Is(err, ErrNoCrawlResult) {
		t.Errorf("analyze: expected ErrNoCrawlResult, got %v", err)
	}
	if err := NewAdviceStep().Do(context.Background(), report); !errors.Is(err, ErrNoCrawlResult) {
		t.Errorf("advice: expected ErrNoCrawlResult, got %v", err)
	}
}

// TestAnalyzeAndAdviceSteps tests scoring an existing crawl result.
func TestAnalyzeAndAdviceSteps(t *testing.T) {
	t.Parallel()

	report := model.NewAuditReport("https://example.com/")
	report.Crawl = &model.CrawlResult{
		Pages: []*model.PageRecord{
			model.NewErrorRecord("https://example.com/", errors.New("connection refused"), 0),
		},
		TotalPagesCrawled: 1,
	}

	if err := NewAnalyzeStep(nil).Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary.Valid() {
		t.Error("expected summary error when every page failed")
	}
	if len(report.Pages) != 1 || !report.Pages[0].IsError() {
		t.Errorf("expected one error analysis, got %v", report.Pages)
	}

	if err := NewAdviceStep().Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Advice) == 0 {
		t.Error("expected advice for an invalid summary")
	}
}

// TestDefaultPipeline tests the assembled audit pipeline.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step order", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(nil, nil)
		got := strings.Join(p.StepNames(), ",")
		if got != "crawl,link_check,analyze,advice" {
			t.Errorf("unexpected steps %s", got)
		}
	})

	t.Run("link check disabled", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(nil, nil, WithPipelineCheckLinks(false))
		got := strings.Join(p.StepNames(), ",")
		if got != "crawl,analyze,advice" {
			t.Errorf("unexpected steps %s", got)
		}
	})

	t.Run("full audit of a local site", func(t *testing.T) {
		t.Parallel()

		server := newTestSite(t)
		p := DefaultPipeline(server.Client(), nil,
			WithPipelineCrawlDelay(0),
			WithPipelineCrawlDepth(1),
			WithPipelineProbeTimeout(2*time.Second),
		)

		report := model.NewAuditReport(server.URL + "/")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(report.PerformedSteps) != 4 {
			t.Errorf("expected 4 performed steps, got %v", report.PerformedSteps)
		}
		if !report.Summary.Valid() {
			t.Fatalf("expected valid summary, got %+v", report.Summary)
		}
		if report.Summary.TotalPagesCrawled != 3 {
			t.Errorf("expected 3 pages crawled, got %d", report.Summary.TotalPagesCrawled)
		}
		if len(report.Pages) != 3 {
			t.Errorf("expected 3 page analyses, got %d", len(report.Pages))
		}
		if len(report.BrokenLinks) != 1 {
			t.Fatalf("expected 1 broken link, got %v", report.BrokenLinks)
		}
		bl := report.BrokenLinks[0]
		if bl.URL != server.URL+"/missing" || bl.StatusCode != http.StatusNotFound || bl.LinkText != "Old catalog" {
			t.Errorf("unexpected broken link %+v", bl)
		}
		if report.CrawlStats.BrokenLinks != 1 || report.Summary.TotalBrokenLinks != 1 {
			t.Errorf("expected broken link count 1, got %d/%d", report.CrawlStats.BrokenLinks, report.Summary.TotalBrokenLinks)
		}
		if len(report.Advice) == 0 {
			t.Error("expected advice")
		}
	})
}

// TestOptionsFromConfig tests merging global and site configuration.
func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	respect := true
	rootOnly := 0
	cfg := config.NewConfig()
	cfg.MaxDepth = 3
	cfg.MaxPages = 20
	cfg.CheckLinks = false
	cfg.SiteConfigs = &config.File{
		Defaults: config.SiteConfig{Headers: map[string]string{"X-Audit": "1"}},
		Sites: map[string]config.SiteConfig{
			"example.com": {
				Cookie:         "session=abc",
				MaxPages:       5,
				IgnorePatterns: []string{"/admin/*"},
				RespectRobots:  &respect,
			},
			"landing.example.net": {
				Depth: &rootOnly,
			},
		},
	}

	apply := func(target string) *DefaultPipelineConfig {
		c := newDefaultPipelineConfig()
		for _, opt := range OptionsFromConfig(cfg, target) {
			opt(c)
		}
		return c
	}

	t.Run("site overrides", func(t *testing.T) {
		t.Parallel()

		c := apply("https://www.example.com/shop")
		if c.CrawlDepth != 3 {
			t.Errorf("expected global depth 3, got %d", c.CrawlDepth)
		}
		if c.CrawlMaxPages != 5 {
			t.Errorf("expected site max pages 5, got %d", c.CrawlMaxPages)
		}
		if c.Cookie != "session=abc" || c.Headers["X-Audit"] != "1" {
			t.Errorf("unexpected cookie/headers %q %v", c.Cookie, c.Headers)
		}
		if !c.RespectRobots {
			t.Error("expected site robots override")
		}
		if len(c.IgnorePatterns) != 1 {
			t.Errorf("expected site ignore patterns, got %v", c.IgnorePatterns)
		}
		if c.CheckLinks {
			t.Error("expected link check disabled")
		}
		if c.Classifier == nil {
			t.Error("expected classifier")
		}
	})

	t.Run("unknown site keeps globals", func(t *testing.T) {
		t.Parallel()

		c := apply("https://other.org/")
		if c.CrawlMaxPages != 20 || c.Cookie != "" || c.RespectRobots {
			t.Errorf("unexpected config %+v", c)
		}
		if c.CrawlDepth != 3 {
			t.Errorf("expected global depth 3, got %d", c.CrawlDepth)
		}
	})

	t.Run("site depth 0 overrides the global depth", func(t *testing.T) {
		t.Parallel()

		c := apply("https://landing.example.net/")
		if c.CrawlDepth != 0 {
			t.Errorf("expected depth 0, got %d", c.CrawlDepth)
		}
		if c.CrawlMaxPages != 20 {
			t.Errorf("expected global max pages 20, got %d", c.CrawlMaxPages)
		}
	})
}
