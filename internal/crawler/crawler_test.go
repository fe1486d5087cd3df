package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// hitCounter records how many times each path was requested.
type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func newHitCounter() *hitCounter {
	return &hitCounter{hits: make(map[string]int)}
}

func (h *hitCounter) add(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hits[path]++
}

func (h *hitCounter) get(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[path]
}

// TestSpider tests the breadth-first crawl.
func TestSpider(t *testing.T) {
	t.Parallel()

	t.Run("crawls single page", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><head><title>Test</title></head><body>Hello <a href="/next">next</a></body></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxDepth(0), WithDelay(0))

		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Pages) != 1 {
			t.Fatalf("expected 1 page, got %d", len(result.Pages))
		}
		if result.Pages[0].Title != "Test" {
			t.Errorf("expected title 'Test', got %q", result.Pages[0].Title)
		}
		if result.Pages[0].StatusCode != http.StatusOK || result.Pages[0].Depth != 0 {
			t.Errorf("unexpected status/depth %d/%d", result.Pages[0].StatusCode, result.Pages[0].Depth)
		}
		if result.TotalLinksFound != 1 {
			t.Errorf("expected 1 link found, got %d", result.TotalLinksFound)
		}
	})

	t.Run("follows links within depth limit", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body><a href="/page1">Page 1</a><a href="/page2">Page 2</a></body></html>`))
		})
		mux.HandleFunc("/page1", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body><a href="/deep">Deep</a></body></html>`)) //nolint:errcheck
		})
		mux.HandleFunc("/page2", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>Page 2</body></html>`)) //nolint:errcheck
		})
		mux.HandleFunc("/deep", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>Deep</body></html>`)) //nolint:errcheck
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxDepth(1), WithDelay(0))

		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Pages) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(result.Pages))
		}
		for _, page := range result.Pages {
			if strings.HasSuffix(page.URL, "/deep") {
				t.Error("page beyond max depth was crawled")
			}
		}
		if result.Pages[1].Depth != 1 {
			t.Errorf("expected depth 1, got %d", result.Pages[1].Depth)
		}
	})

	t.Run("respects page budget", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			var b strings.Builder
			b.WriteString("<html><body>")
			for i := range 20 {
				fmt.Fprintf(&b, `<a href="/p%d">p%d</a>`, i, i)
			}
			b.WriteString("</body></html>")
			_, _ = w.Write([]byte(b.String())) //nolint:errcheck
		}))
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxPages(5), WithMaxDepth(3), WithDelay(0))

		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Pages) > 5 {
			t.Errorf("expected at most 5 pages, got %d", len(result.Pages))
		}
		if result.TotalPagesCrawled != len(result.Pages) {
			t.Errorf("total %d does not match pages %d", result.TotalPagesCrawled, len(result.Pages))
		}
	})

	t.Run("never fetches a normalized URL twice", func(t *testing.T) {
		t.Parallel()

		counter := newHitCounter()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			counter.add(r.URL.Path)
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body>
				<a href="/a">a</a><a href="/a/">a slash</a><a href="/a#top">a frag</a>
				<a href="/a?x=1">a query</a><a href="/">home</a>
			</body></html>`))
		}))
		defer server.Close()

		spider := NewSpider(server.Client(), WithMaxDepth(3), WithDelay(0))

		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Pages) != 2 {
			t.Errorf("expected 2 pages, got %d", len(result.Pages))
		}
		if counter.get("/a") != 1 || counter.get("/") != 1 {
			t.Errorf("expected one fetch each, got / %d, /a %d", counter.get("/"), counter.get("/a"))
		}
	})

	t.Run("non-2xx pages are full records", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<html><head><title>Not Found</title></head></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		spider := NewSpider(server.Client(), WithDelay(0))

		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		page := result.Pages[0]
		if page.IsError() || page.StatusCode != http.StatusNotFound || page.Title != "Not Found" {
			t.Errorf("unexpected record %+v", page)
		}
	})

	t.Run("unreachable root yields error record", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		rootURL := server.URL
		server.Close()

		spider := NewSpider(&http.Client{Timeout: time.Second}, WithDelay(0))

		result, err := spider.Crawl(context.Background(), rootURL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Pages) != 1 || !result.Pages[0].IsError() {
			t.Fatalf("expected single error record, got %+v", result.Pages)
		}
		if result.Pages[0].StatusCode != 0 {
			t.Errorf("expected status 0, got %d", result.Pages[0].StatusCode)
		}
	})

	t.Run("rejects invalid root", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(http.DefaultClient)

		_, err := spider.Crawl(context.Background(), "example.com")
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		spider := NewSpider(server.Client(), WithDelay(0))
		result, err := spider.Crawl(ctx, server.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || len(result.Pages) != 0 {
			t.Errorf("expected empty partial result, got %+v", result)
		}
	})

	t.Run("path filter and robots limit enqueued links", func(t *testing.T) {
		t.Parallel()

		counter := newHitCounter()
		mux := http.NewServeMux()
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n")) //nolint:errcheck
		})
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			counter.add(r.URL.Path)
			//nolint:errcheck // test handler
			_, _ = w.Write([]byte(`<html><body>
				<a href="/blog/post">post</a>
				<a href="/admin/panel">admin</a>
				<a href="/private/data">private</a>
			</body></html>`))
		})

		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(server.Client(),
			WithMaxDepth(1),
			WithDelay(0),
			WithPathFilter(NewPathFilter([]string{"/admin/*"}, nil)),
			WithRespectRobots(true),
		)

		result, err := spider.Crawl(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if counter.get("/admin/panel") != 0 || counter.get("/private/data") != 0 {
			t.Error("filtered links should not be fetched")
		}
		if counter.get("/blog/post") != 1 {
			t.Error("allowed link should be fetched")
		}
		if result.TotalLinksFound != 3 {
			t.Errorf("filtered links still count as found, expected 3, got %d", result.TotalLinksFound)
		}
	})

	t.Run("sessions are independent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html><body>x</body></html>`)) //nolint:errcheck
		}))
		defer server.Close()

		spider := NewSpider(server.Client(), WithDelay(0))
		for i := range 2 {
			result, err := spider.Crawl(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("crawl %d: unexpected error: %v", i, err)
			}
			if len(result.Pages) != 1 {
				t.Errorf("crawl %d: expected 1 page, got %d", i, len(result.Pages))
			}
		}
	})
}

// TestSpiderOptions tests option application.
func TestSpiderOptions(t *testing.T) {
	t.Parallel()

	s := NewSpider(nil,
		WithMaxDepth(4),
		WithMaxPages(50),
		WithDelay(2*time.Second),
		WithPageTimeout(3*time.Second),
		WithUserAgent("seoscan-test"),
		WithMaxBodySize(1024),
		WithHeaders(map[string]string{"X-Test": "1"}),
	)

	if s.maxDepth != 4 || s.maxPages != 50 {
		t.Errorf("unexpected limits %d/%d", s.maxDepth, s.maxPages)
	}
	if s.delay != 2*time.Second || s.timeout != 3*time.Second {
		t.Errorf("unexpected timing %v/%v", s.delay, s.timeout)
	}
	if s.userAgent != "seoscan-test" || s.maxBodySize != 1024 {
		t.Errorf("unexpected agent/body size %q/%d", s.userAgent, s.maxBodySize)
	}
	if s.client == nil {
		t.Error("expected default client")
	}

	d := NewSpider(nil, WithUserAgent(""))
	if d.userAgent != DefaultUserAgent {
		t.Errorf("empty user agent should keep default, got %q", d.userAgent)
	}
}

// TestMatchPattern tests glob matching of URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"prefix match", "/admin/*", "/admin/dashboard", true},
		{"prefix exact", "/admin/*", "/admin", true},
		{"prefix nested", "/admin/*", "/admin/users/edit", true},
		{"prefix no match", "/admin/*", "/user/profile", false},
		{"prefix partial no match", "/admin/*", "/administrator", false},
		{"extension", "*.pdf", "/docs/file.pdf", true},
		{"extension nested", "*.pdf", "/a/b/c/report.pdf", true},
		{"extension no match", "*.pdf", "/docs/file.txt", false},
		{"exact", "/logout", "/logout", true},
		{"exact no match", "/logout", "/login", false},
		{"single char wildcard", "/api/v?/users", "/api/v1/users", true},
		{"single char wildcard no match", "/api/v?/users", "/api/v10/users", false},
		{"root", "/", "/", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := matchPattern(tt.pattern, tt.path)
			if got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestPathFilter tests ignore and follow pattern precedence.
func TestPathFilter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ignore []string
		follow []string
		url    string
		want   bool
	}{
		{"no patterns", nil, nil, "http://a.com/anything", true},
		{"ignored", []string{"/admin/*"}, nil, "http://a.com/admin/x", false},
		{"not ignored", []string{"/admin/*"}, nil, "http://a.com/blog", true},
		{"followed", nil, []string{"/blog/*"}, "http://a.com/blog/post", true},
		{"not followed", nil, []string{"/blog/*"}, "http://a.com/shop", false},
		{"ignore wins over follow", []string{"*.pdf"}, []string{"/blog/*"}, "http://a.com/blog/x.pdf", false},
		{"empty path is root", nil, []string{"/"}, "http://a.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := NewPathFilter(tt.ignore, tt.follow)
			if got := f.Allow(tt.url); got != tt.want {
				t.Errorf("Allow(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}

	var nilFilter *PathFilter
	if !nilFilter.Allow("http://a.com/x") {
		t.Error("nil filter should allow everything")
	}
}

// TestRobotsRules tests robots.txt handling.
func TestRobotsRules(t *testing.T) {
	t.Parallel()

	t.Run("disallow rules apply", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n")) //nolint:errcheck
		}))
		defer server.Close()

		root, err := ValidateRootURL(server.URL)
		if err != nil {
			t.Fatal(err)
		}
		rules, err := FetchRobots(context.Background(), server.Client(), root, "seoscan")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rules.Allowed(server.URL + "/private/x") {
			t.Error("expected /private/x to be disallowed")
		}
		if !rules.Allowed(server.URL + "/public") {
			t.Error("expected /public to be allowed")
		}
	})

	t.Run("missing robots.txt allows all", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		root, err := ValidateRootURL(server.URL)
		if err != nil {
			t.Fatal(err)
		}
		rules, err := FetchRobots(context.Background(), server.Client(), root, "seoscan")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !rules.Allowed(server.URL + "/anything") {
			t.Error("expected everything to be allowed")
		}
	})

	t.Run("nil rules allow all", func(t *testing.T) {
		t.Parallel()

		var rules *RobotsRules
		if !rules.Allowed("http://a.com/x") {
			t.Error("nil rules should allow everything")
		}
	})
}
