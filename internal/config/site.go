package config

import (
	"net/url"
	"strings"

	"github.com/nao1215/seoscan/internal/crawler"
)

// SiteConfig holds site-specific crawl settings.
// This allows customizing crawl behavior per audited host.
type SiteConfig struct {
	// Cookie is an HTTP cookie to send when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global crawl depth for this site when set.
	// 0 is a valid override that fetches only the root URL.
	Depth *int `yaml:"depth,omitempty"`

	// MaxPages overrides the global page budget for this site. 0 keeps the global value.
	MaxPages int `yaml:"maxPages,omitempty"`

	// IgnorePatterns are URL path patterns never to crawl.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns restrict crawling to matching URL paths when non-empty.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`

	// RespectRobots overrides the global robots.txt setting when set.
	RespectRobots *bool `yaml:"respectRobots,omitempty"`
}

// RequestHeaders returns the extra request headers of the site, with the
// cookie folded in as a Cookie header. The result is a fresh map.
func (sc SiteConfig) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(sc.Headers)+1)
	for k, v := range sc.Headers {
		headers[k] = v
	}
	if sc.Cookie != "" {
		headers["Cookie"] = sc.Cookie
	}
	return headers
}

// PathFilter builds the crawler path filter from the site patterns.
func (sc SiteConfig) PathFilter() *crawler.PathFilter {
	return crawler.NewPathFilter(sc.IgnorePatterns, sc.FollowPatterns)
}

// File represents the structure of the .seoscan configuration file.
type File struct {
	// Sites maps a host (e.g., "example.com") to its site-specific settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults are applied to every site unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// BotProtectedDomains replaces the built-in list of domains whose
	// 4xx answers are not treated as broken links. Empty keeps the built-in list.
	BotProtectedDomains []crawler.ProtectedDomain `yaml:"botProtectedDomains,omitempty"`
}

// validate rejects site values the crawler cannot use.
func (sc SiteConfig) validate() error {
	if sc.Depth != nil && *sc.Depth < 0 {
		return ErrInvalidMaxDepth
	}
	if sc.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	return nil
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the site-specific configuration with defaults. The host is
// matched case-insensitively and a leading "www." is ignored.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = nil
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.Depth != nil {
		result.Depth = siteConfig.Depth
	}
	if siteConfig.MaxPages != 0 {
		result.MaxPages = siteConfig.MaxPages
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	if len(siteConfig.IgnorePatterns) > 0 {
		result.IgnorePatterns = siteConfig.IgnorePatterns
	}
	if len(siteConfig.FollowPatterns) > 0 {
		result.FollowPatterns = siteConfig.FollowPatterns
	}
	if siteConfig.RespectRobots != nil {
		result.RespectRobots = siteConfig.RespectRobots
	}
	return result
}

// Classifier returns the broken-link classifier configured by the file.
// A nil File yields the built-in domain list.
func (cf *File) Classifier() *crawler.Classifier {
	if cf == nil || len(cf.BotProtectedDomains) == 0 {
		return crawler.NewClassifier(nil)
	}
	return crawler.NewClassifier(cf.BotProtectedDomains)
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	candidates := []string{host, strings.TrimPrefix(host, "www."), "www." + host}
	for key, sc := range cf.Sites {
		k := strings.ToLower(strings.TrimSpace(key))
		for _, c := range candidates {
			if k == c {
				return sc, true
			}
		}
	}
	return SiteConfig{}, false
}

// HostOf returns the host of a URL, or the input itself when it has none.
// Config file keys are hosts, so both "https://example.com/" and
// "example.com" resolve to "example.com".
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return strings.ToLower(u.Host)
}
