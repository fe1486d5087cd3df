package crawler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/nao1215/seoscan/internal/model"
)

const (
	// DefaultProbeTimeout bounds each HEAD or GET probe.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultLinkConcurrency is the default number of parallel probes.
	DefaultLinkConcurrency = 4

	// LinksPerPage is how many links of each page are probed.
	LinksPerPage = 20
)

// skippedPrefixes are link prefixes that are never probed.
var skippedPrefixes = []string{"mailto:", "tel:", "javascript:", "data:", "ftp:", "file:", "#"}

// LinkChecker probes the links of crawled pages and reports the ones that
// are truly broken.
type LinkChecker struct {
	client      *http.Client
	classifier  *Classifier
	timeout     time.Duration
	userAgent   string
	concurrency int
	logger      *slog.Logger

	// probes collapses concurrent probes of the same URL.
	probes singleflight.Group
}

// LinkCheckerOption configures a LinkChecker.
type LinkCheckerOption func(*LinkChecker)

// WithProbeTimeout sets the timeout of each probe request.
func WithProbeTimeout(d time.Duration) LinkCheckerOption {
	return func(c *LinkChecker) {
		c.timeout = d
	}
}

// WithLinkConcurrency sets how many probes run at once. 1 probes sequentially.
func WithLinkConcurrency(n int) LinkCheckerOption {
	return func(c *LinkChecker) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithClassifier replaces the default classifier.
func WithClassifier(cl *Classifier) LinkCheckerOption {
	return func(c *LinkChecker) {
		if cl != nil {
			c.classifier = cl
		}
	}
}

// WithProbeUserAgent sets the User-Agent of probe requests.
func WithProbeUserAgent(ua string) LinkCheckerOption {
	return func(c *LinkChecker) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithCheckerLogger sets the logger.
func WithCheckerLogger(logger *slog.Logger) LinkCheckerOption {
	return func(c *LinkChecker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewLinkChecker creates a LinkChecker. Redirects follow client's policy.
func NewLinkChecker(client *http.Client, opts ...LinkCheckerOption) *LinkChecker {
	if client == nil {
		client = http.DefaultClient
	}
	c := &LinkChecker{
		client:      client,
		classifier:  NewClassifier(nil),
		timeout:     DefaultProbeTimeout,
		userAgent:   DefaultUserAgent,
		concurrency: DefaultLinkConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// linkCandidate is a distinct probe target with the first place it was seen.
type linkCandidate struct {
	url     string
	foundOn string
	text    string
}

// probeTargets returns the distinct probe targets of pages in discovery
// order: the first LinksPerPage links of each full record, minus the
// skipped schemes and anything that is not http(s).
func probeTargets(pages []*model.PageRecord) []linkCandidate {
	seen := make(map[string]struct{})
	var out []linkCandidate

	for _, page := range pages {
		if page.IsError() {
			continue
		}
		links := page.Links
		if len(links) > LinksPerPage {
			links = links[:LinksPerPage]
		}
		for _, link := range links {
			if !shouldProbe(link.URL) {
				continue
			}
			if _, dup := seen[link.URL]; dup {
				continue
			}
			seen[link.URL] = struct{}{}
			out = append(out, linkCandidate{url: link.URL, foundOn: page.URL, text: link.Text})
		}
	}
	return out
}

// shouldProbe reports whether a link target is an http(s) URL worth probing.
func shouldProbe(target string) bool {
	lower := strings.ToLower(target)
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// CheckBrokenLinks probes the candidate links of pages and returns the
// truly broken ones in candidate order. Probe failures never fail the
// check; only context cancellation is returned as an error.
func (c *LinkChecker) CheckBrokenLinks(ctx context.Context, pages []*model.PageRecord) ([]model.BrokenLinkEntry, error) {
	candidates := probeTargets(pages)
	statuses := make([]int, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, cand := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			statuses[i] = c.Probe(gctx, cand.url)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	broken := make([]model.BrokenLinkEntry, 0)
	for i, cand := range candidates {
		if !c.classifier.IsTrulyBroken(statuses[i], cand.url) {
			continue
		}
		broken = append(broken, model.BrokenLinkEntry{
			URL:        cand.url,
			StatusCode: statuses[i],
			FoundOn:    cand.foundOn,
			LinkText:   cand.text,
		})
	}

	c.logger.Debug("link check finished", "probed", len(candidates), "broken", len(broken))
	return broken, nil
}

// Probe returns the HTTP status of target, or 0 when it cannot be reached.
// A HEAD answered with 405 is retried as GET, as is a HEAD that failed for
// a reason other than the network.
func (c *LinkChecker) Probe(ctx context.Context, target string) int {
	v, _, _ := c.probes.Do(target, func() (any, error) {
		status, err := c.request(ctx, http.MethodHead, target)
		switch {
		case err != nil && isNetworkError(err):
			return 0, nil
		case err != nil, status == http.StatusMethodNotAllowed:
			status, err = c.request(ctx, http.MethodGet, target)
			if err != nil {
				return 0, nil
			}
		}
		return status, nil
	})

	status, _ := v.(int)
	c.logger.Debug("probed link", "url", target, "status", status)
	return status
}

// request issues one probe and returns the status code.
func (c *LinkChecker) request(ctx context.Context, method, target string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	return resp.StatusCode, nil
}

// isNetworkError reports whether err is a timeout or a connection failure.
func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
