package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a crawl root is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid URL: must be an absolute http:// or https:// URL")

// NormalizeURL returns the canonical scheme://host/path form of rawURL used
// for deduplication. Query and fragment are dropped, a trailing slash is
// removed unless the path is exactly "/", and an empty path becomes "/".
// Strings that cannot be parsed are returned unchanged.
//
// NormalizeURL is idempotent.
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := u.EscapedPath()
	if strings.HasSuffix(path, "/") && path != "/" {
		path = path[:len(path)-1]
	}
	if path == "" {
		path = "/"
	}

	return u.Scheme + "://" + u.Host + path
}

// SameHost reports whether target points at the given host (host[:port]).
// The comparison is exact, matching the crawl root's authority.
func SameHost(host, target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Host == host
}

// ValidateRootURL checks that rawURL can seed a crawl.
func ValidateRootURL(rawURL string) (*url.URL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}
	return u, nil
}
