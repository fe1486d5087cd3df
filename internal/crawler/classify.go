package crawler

import (
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// StatusAntiScraping is the non-standard status some social networks return
// to automated clients.
const StatusAntiScraping = 999

// ProtectedDomain describes a platform known to answer automated requests
// with access-control statuses instead of the real page.
type ProtectedDomain struct {
	// Domain is the registrable domain, e.g. "linkedin.com".
	Domain string `yaml:"domain"`

	// Ambiguous404 marks platforms that answer 404 to bots for pages that
	// exist, so a 404 there is not evidence of a dead link.
	Ambiguous404 bool `yaml:"ambiguous404"`
}

// DefaultProtectedDomains is the built-in bot-protected platform table.
var DefaultProtectedDomains = []ProtectedDomain{
	{Domain: "linkedin.com"},
	{Domain: "facebook.com"},
	{Domain: "twitter.com"},
	{Domain: "instagram.com"},
	{Domain: "github.com", Ambiguous404: true},
	{Domain: "leetcode.com"},
	{Domain: "hackerrank.com"},
}

// Classifier decides whether a probed link is truly broken or merely
// refused by bot protection.
//
// Design decision: We keep the protected platforms in a table rather than
// in the classification code because:
//  1. Users extend the list from the config file without code changes
//  2. The classification rules stay the same for every platform
//  3. The table is easy to test in isolation
type Classifier struct {
	domains map[string]ProtectedDomain
}

// NewClassifier creates a Classifier for the given platform table.
// A nil table uses DefaultProtectedDomains.
func NewClassifier(domains []ProtectedDomain) *Classifier {
	if domains == nil {
		domains = DefaultProtectedDomains
	}
	c := &Classifier{domains: make(map[string]ProtectedDomain, len(domains))}
	for _, d := range domains {
		key := strings.ToLower(strings.TrimSpace(d.Domain))
		if key == "" {
			continue
		}
		d.Domain = key
		c.domains[key] = d
	}
	return c
}

// IsTrulyBroken reports whether status observed for rawURL means the link
// is dead. Status 0 stands for a connection failure or timeout.
//
// Rules, first match wins:
//  1. 999 and 429 are never broken
//  2. On a protected platform, a 404 flagged ambiguous and any status
//     below 500 are not broken
//  3. 0, 404 and 5xx are broken
//  4. Everything else (400, 401, 403, 405, ...) is access control
func (c *Classifier) IsTrulyBroken(status int, rawURL string) bool {
	if status == StatusAntiScraping || status == http.StatusTooManyRequests {
		return false
	}

	if d, ok := c.protected(rawURL); ok {
		if status == http.StatusNotFound && d.Ambiguous404 {
			return false
		}
		if status < http.StatusInternalServerError {
			return false
		}
	}

	return status == 0 || status == http.StatusNotFound || status >= http.StatusInternalServerError
}

// protected looks up the platform entry matching the URL's host.
func (c *Classifier) protected(rawURL string) (ProtectedDomain, bool) {
	if rawURL == "" || len(c.domains) == 0 {
		return ProtectedDomain{}, false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ProtectedDomain{}, false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ProtectedDomain{}, false
	}

	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		if d, ok := c.domains[etld1]; ok {
			return d, true
		}
	}

	// Entries that are not registrable domains (e.g. "blog.example.com").
	for key, d := range c.domains {
		if host == key || strings.HasSuffix(host, "."+key) {
			return d, true
		}
	}
	return ProtectedDomain{}, false
}
