package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/nao1215/seoscan/internal/model"
)

const (
	// DefaultUserAgent is a desktop browser User-Agent. Many sites serve
	// reduced markup or block requests carrying a bot-like agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultMaxPages is the default page budget per crawl.
	DefaultMaxPages = 10

	// DefaultMaxDepth is the default BFS depth limit.
	DefaultMaxDepth = 2

	// DefaultDelay is the default spacing between page fetches.
	DefaultDelay = 500 * time.Millisecond

	// DefaultPageTimeout is the default timeout of a single page fetch.
	DefaultPageTimeout = 10 * time.Second

	// DefaultMaxBodySize limits how much of a page body is read.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024
)

// Spider crawls the internal pages of one site breadth-first.
// It enforces the page budget and depth limit and spaces fetches with a
// rate limiter.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
//
// A Spider holds configuration only. All crawl state lives in a
// crawlSession created per Crawl call, so one Spider may run several
// crawls, sequentially or concurrently.
type Spider struct {
	// client performs page fetches. Redirects follow the client's policy.
	client *http.Client

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page, 1 means one level of links, etc.
	maxDepth int

	// maxPages is a hard ceiling on stored records, error records included.
	maxPages int

	// delay is the minimum spacing between two page fetches.
	delay time.Duration

	// timeout bounds a single page fetch.
	timeout time.Duration

	// userAgent is the User-Agent header to use.
	userAgent string

	// headers are extra request headers (per-site config).
	headers map[string]string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// filter restricts which internal links are enqueued.
	filter *PathFilter

	// respectRobots enables robots.txt filtering of enqueued links.
	respectRobots bool

	// logger receives per-page progress at debug level.
	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to crawl.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the delay between requests. Zero disables throttling.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.delay = d
	}
}

// WithPageTimeout sets the timeout of a single page fetch.
func WithPageTimeout(d time.Duration) SpiderOption {
	return func(s *Spider) {
		s.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithHeaders adds request headers sent with every page fetch.
func WithHeaders(headers map[string]string) SpiderOption {
	return func(s *Spider) {
		s.headers = headers
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithPathFilter restricts enqueued links by path pattern.
// Filtered links still appear in page records and the link set.
func WithPathFilter(f *PathFilter) SpiderOption {
	return func(s *Spider) {
		s.filter = f
	}
}

// WithRespectRobots makes the spider skip links disallowed by robots.txt.
func WithRespectRobots(respect bool) SpiderOption {
	return func(s *Spider) {
		s.respectRobots = respect
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSpider creates a new Spider with the given HTTP client.
//
// Design decision: We require an external client because:
//  1. Transport settings (proxies, TLS) belong to the caller
//  2. The same client is shared with the link checker
//  3. Allows for different configurations in tests
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	if client == nil {
		client = http.DefaultClient
	}
	s := &Spider{
		client:      client,
		maxDepth:    DefaultMaxDepth,
		maxPages:    DefaultMaxPages,
		delay:       DefaultDelay,
		timeout:     DefaultPageTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// queueItem represents an item in the crawl queue.
type queueItem struct {
	url   string
	depth int
}

// crawlSession owns the mutable state of one crawl. It is never shared
// between Crawl calls.
type crawlSession struct {
	root      *url.URL
	extractor *Extractor
	robots    *RobotsRules
	limiter   *rate.Limiter

	queue   []queueItem
	visited map[string]struct{}
	stored  map[string]struct{}
	links   map[string]struct{}
	pages   []*model.PageRecord
}

func (s *Spider) newSession(root *url.URL) (*crawlSession, error) {
	extractor, err := NewExtractor(root.String())
	if err != nil {
		return nil, err
	}

	limit := rate.Inf
	if s.delay > 0 {
		limit = rate.Every(s.delay)
	}

	return &crawlSession{
		root:      root,
		extractor: extractor,
		limiter:   rate.NewLimiter(limit, 1),
		visited:   make(map[string]struct{}),
		stored:    make(map[string]struct{}),
		links:     make(map[string]struct{}),
		pages:     make([]*model.PageRecord, 0, s.maxPages),
	}, nil
}

// Crawl walks the site rooted at rootURL and returns every stored page
// record along with the discovered link set.
//
// Fetch failures never abort the crawl; they are stored as error records.
// When ctx is cancelled the pages gathered so far are returned together
// with ctx.Err().
func (s *Spider) Crawl(ctx context.Context, rootURL string) (*model.CrawlResult, error) {
	root, err := ValidateRootURL(rootURL)
	if err != nil {
		return nil, err
	}

	sess, err := s.newSession(root)
	if err != nil {
		return nil, err
	}

	if s.respectRobots {
		robots, err := FetchRobots(ctx, s.client, root, s.userAgent)
		if err != nil {
			s.logger.Warn("robots.txt unavailable, crawling without it", "url", rootURL, "error", err)
		}
		sess.robots = robots
	}

	sess.queue = append(sess.queue, queueItem{url: rootURL, depth: 0})
	sess.visited[NormalizeURL(rootURL)] = struct{}{}

	for len(sess.queue) > 0 && len(sess.pages) < s.maxPages {
		if err := ctx.Err(); err != nil {
			return sess.result(), err
		}

		item := sess.queue[0]
		sess.queue = sess.queue[1:]

		if item.depth > s.maxDepth {
			continue
		}

		normalized := NormalizeURL(item.url)
		if _, dup := sess.stored[normalized]; dup {
			s.logger.Debug("skipping duplicate", "url", item.url, "normalized", normalized)
			continue
		}

		if err := sess.limiter.Wait(ctx); err != nil {
			return sess.result(), err
		}

		s.logger.Debug("crawling page", "url", item.url, "depth", item.depth)
		page, err := s.fetchPage(ctx, sess.extractor, item.url)
		if err != nil {
			s.logger.Debug("page fetch failed", "url", item.url, "error", err)
			sess.store(normalized, model.NewErrorRecord(item.url, err, item.depth))
			continue
		}
		page.Depth = item.depth
		sess.store(normalized, page)

		if item.depth < s.maxDepth {
			s.enqueueLinks(sess, page, item.depth+1)
		}
	}

	return sess.result(), nil
}

// store appends a record and remembers its normalized URL.
func (sess *crawlSession) store(normalized string, page *model.PageRecord) {
	sess.stored[normalized] = struct{}{}
	sess.pages = append(sess.pages, page)
	for _, link := range page.Links {
		sess.links[link.URL] = struct{}{}
	}
}

// enqueueLinks queues the unvisited internal links of page. URLs are marked
// visited at enqueue time so a URL is queued at most once, and the visited
// set never grows past the page budget.
func (s *Spider) enqueueLinks(sess *crawlSession, page *model.PageRecord, depth int) {
	for _, link := range page.Links {
		if !link.Internal {
			continue
		}
		normalized := NormalizeURL(link.URL)
		if _, seen := sess.visited[normalized]; seen {
			continue
		}
		if len(sess.visited) >= s.maxPages {
			return
		}
		if !s.filter.Allow(link.URL) || !sess.robots.Allowed(link.URL) {
			continue
		}
		sess.visited[normalized] = struct{}{}
		sess.queue = append(sess.queue, queueItem{url: link.URL, depth: depth})
	}
}

// result snapshots the session into a CrawlResult.
func (sess *crawlSession) result() *model.CrawlResult {
	links := make([]string, 0, len(sess.links))
	for link := range sess.links {
		links = append(links, link)
	}
	sort.Strings(links)

	return &model.CrawlResult{
		Pages:             sess.pages,
		Links:             links,
		TotalPagesCrawled: len(sess.pages),
		TotalLinksFound:   len(links),
	}
}

// fetchPage fetches a single page and extracts its record.
// Any HTTP status yields a full record; only transport, read and parse
// failures are returned as errors.
func (s *Spider) fetchPage(ctx context.Context, extractor *Extractor, pageURL string) (*model.PageRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := charset.NewReader(io.LimitReader(resp.Body, s.maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", pageURL, err)
	}

	page, err := extractor.Extract(pageURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", pageURL, err)
	}
	page.StatusCode = resp.StatusCode

	return page, nil
}
