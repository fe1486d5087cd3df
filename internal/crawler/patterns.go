package crawler

import (
	"net/url"
	"path"
	"strings"
)

// PathFilter decides whether a discovered internal URL is enqueued, based on
// glob patterns applied to the URL path.
//
// Filtering is evaluated in this order:
//  1. A path matching any ignore pattern is rejected
//  2. When follow patterns exist, the path must match one of them
//  3. Anything else is accepted
type PathFilter struct {
	ignore []string
	follow []string
}

// NewPathFilter creates a PathFilter. Both slices may be empty.
func NewPathFilter(ignore, follow []string) *PathFilter {
	return &PathFilter{ignore: ignore, follow: follow}
}

// Empty reports whether the filter accepts every path.
func (f *PathFilter) Empty() bool {
	return f == nil || (len(f.ignore) == 0 && len(f.follow) == 0)
}

// Allow reports whether targetURL passes the filter.
func (f *PathFilter) Allow(targetURL string) bool {
	if f.Empty() {
		return true
	}

	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	p := u.Path
	if p == "" {
		p = "/"
	}

	for _, pattern := range f.ignore {
		if matchPattern(pattern, p) {
			return false
		}
	}
	if len(f.follow) == 0 {
		return true
	}
	for _, pattern := range f.follow {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

// matchPattern reports whether a URL path matches a glob pattern.
//
// Supported forms:
//   - "/blog/*" matches "/blog" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - anything else is a path.Match glob ("/docs/v?")
func matchPattern(pattern, p string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*."); ok && !strings.Contains(ext, "/") {
		return strings.HasSuffix(p, "."+ext)
	}

	matched, err := path.Match(pattern, p)
	return err == nil && matched
}
