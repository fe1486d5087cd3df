package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/nao1215/seoscan/internal/model"
)

// TestClassifierIsTrulyBroken tests the broken vs. bot-protected policy.
func TestClassifierIsTrulyBroken(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil)

	tests := []struct {
		name   string
		status int
		url    string
		want   bool
	}{
		{"rate limited", 429, "https://example.com/x", false},
		{"anti scraping", 999, "https://www.linkedin.com/in/someone", false},
		{"not found on regular host", 404, "https://example.com/missing", true},
		{"connection failure", 0, "https://example.com/", true},
		{"server error", 503, "https://example.com/", true},
		{"forbidden on regular host", 403, "https://example.com/", false},
		{"unauthorized on regular host", 401, "https://example.com/", false},
		{"forbidden on protected host", 403, "https://www.linkedin.com/in/x", false},
		{"not found on ambiguous host", 404, "https://github.com/user/repo", false},
		{"not found on ambiguous subdomain", 404, "https://gist.github.com/abc", false},
		{"not found on protected host", 404, "https://twitter.com/x", false},
		{"connection failure on protected host", 0, "https://facebook.com/page", false},
		{"server error on protected host", 500, "https://instagram.com/p", true},
		{"lookalike host is not protected", 404, "https://notgithub.com/x", true},
		{"ok", 200, "https://example.com/", false},
		{"redirect", 301, "https://example.com/", false},
		{"empty url", 404, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := c.IsTrulyBroken(tt.status, tt.url); got != tt.want {
				t.Errorf("IsTrulyBroken(%d, %q) = %v, expected %v", tt.status, tt.url, got, tt.want)
			}
		})
	}
}

// TestClassifierCustomDomains tests extending the protected platform table.
func TestClassifierCustomDomains(t *testing.T) {
	t.Parallel()

	domains := append([]ProtectedDomain{}, DefaultProtectedDomains...)
	domains = append(domains, ProtectedDomain{Domain: " Blog.Example.co.uk "})
	c := NewClassifier(domains)

	if c.IsTrulyBroken(404, "https://blog.example.co.uk/post") {
		t.Error("expected custom protected host to be lenient")
	}
	if !c.IsTrulyBroken(404, "https://shop.example.co.uk/post") {
		t.Error("expected sibling host to use the default rules")
	}

	empty := NewClassifier([]ProtectedDomain{})
	if !empty.IsTrulyBroken(404, "https://github.com/x") {
		t.Error("expected no protection with an empty table")
	}
}

// TestShouldProbe tests scheme filtering of probe targets.
func TestShouldProbe(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"https://example.com/":     true,
		"http://example.com/x":     true,
		"mailto:a@example.com":     false,
		"TEL:+123":                 false,
		"javascript:void(0)":       false,
		"data:text/plain,hi":       false,
		"ftp://example.com/file":   false,
		"file:///etc/hosts":        false,
		"#top":                     false,
		"//example.com/protocol":   false,
		"relative/path/never/here": false,
	}

	for target, want := range tests {
		if got := shouldProbe(target); got != want {
			t.Errorf("shouldProbe(%q) = %v, expected %v", target, got, want)
		}
	}
}

// TestProbeTargets tests per-page capping and global deduplication.
func TestProbeTargets(t *testing.T) {
	t.Parallel()

	first := model.NewPageRecord("http://a.com/")
	for i := range 25 {
		first.AddLink(model.Link{URL: "http://a.com/p" + strconv.Itoa(i), Text: "p"})
	}
	second := model.NewPageRecord("http://a.com/p1")
	second.AddLink(model.Link{URL: "http://a.com/p0", Text: "again"})
	second.AddLink(model.Link{URL: "mailto:x@a.com"})
	second.AddLink(model.Link{URL: "http://b.com/", Text: "b"})
	errPage := model.NewErrorRecord("http://a.com/down", nil, 1)

	got := probeTargets([]*model.PageRecord{first, errPage, second})

	if len(got) != LinksPerPage+1 {
		t.Fatalf("expected %d targets, got %d", LinksPerPage+1, len(got))
	}
	if got[0].url != "http://a.com/p0" || got[0].foundOn != "http://a.com/" {
		t.Errorf("first target should keep first page, got %+v", got[0])
	}
	last := got[len(got)-1]
	if last.url != "http://b.com/" || last.foundOn != "http://a.com/p1" {
		t.Errorf("unexpected last target %+v", last)
	}
}

// TestLinkChecker tests probing against a live server.
func TestLinkChecker(t *testing.T) {
	t.Parallel()

	var headOnlyGets atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	mux.HandleFunc("/no-head", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		headOnlyGets.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/gone", http.StatusMovedPermanently)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	page := model.NewPageRecord(server.URL + "/")
	for _, p := range []string{"/ok", "/gone", "/forbidden", "/boom", "/no-head", "/moved", "/gone"} {
		page.AddLink(model.Link{URL: server.URL + p, Text: p, Internal: true})
	}
	page.AddLink(model.Link{URL: "mailto:x@example.com"})

	for _, concurrency := range []int{1, 4} {
		t.Run("concurrency "+strconv.Itoa(concurrency), func(t *testing.T) {
			t.Parallel()

			checker := NewLinkChecker(server.Client(), WithLinkConcurrency(concurrency))
			broken, err := checker.CheckBrokenLinks(context.Background(), []*model.PageRecord{page})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := []struct {
				path   string
				status int
			}{
				{"/gone", http.StatusNotFound},
				{"/boom", http.StatusBadGateway},
				{"/moved", http.StatusNotFound},
			}
			if len(broken) != len(want) {
				t.Fatalf("expected %d broken links, got %d: %+v", len(want), len(broken), broken)
			}
			for i, w := range want {
				if broken[i].URL != server.URL+w.path || broken[i].StatusCode != w.status {
					t.Errorf("broken[%d] = %+v, expected %s %d", i, broken[i], w.path, w.status)
				}
				if broken[i].FoundOn != page.URL || broken[i].LinkText != w.path {
					t.Errorf("broken[%d] has wrong origin %+v", i, broken[i])
				}
			}
		})
	}

	t.Run("405 falls back to GET", func(t *testing.T) {
		t.Parallel()

		checker := NewLinkChecker(server.Client())
		before := headOnlyGets.Load()
		if status := checker.Probe(context.Background(), server.URL+"/no-head"); status != http.StatusOK {
			t.Errorf("expected 200, got %d", status)
		}
		if headOnlyGets.Load() <= before {
			t.Error("expected a GET request")
		}
	})

	t.Run("unreachable host maps to 0", func(t *testing.T) {
		t.Parallel()

		dead := httptest.NewServer(http.NotFoundHandler())
		deadURL := dead.URL
		dead.Close()

		checker := NewLinkChecker(server.Client())
		if status := checker.Probe(context.Background(), deadURL+"/x"); status != 0 {
			t.Errorf("expected 0, got %d", status)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		checker := NewLinkChecker(server.Client())
		if _, err := checker.CheckBrokenLinks(ctx, []*model.PageRecord{page}); err == nil {
			t.Error("expected an error for a cancelled context")
		}
	})
}
