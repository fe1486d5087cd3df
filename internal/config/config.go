package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/seoscan/internal/crawler"
)

// Default configuration values.
// The crawl defaults mirror the crawler package so a Config built with
// NewConfig behaves exactly like a Spider built without options.
const (
	// DefaultTimeout is the per-page fetch timeout.
	// 10 seconds is enough for most pages; slower pages become error records
	// rather than stalling the whole audit.
	DefaultTimeout = crawler.DefaultPageTimeout

	// DefaultProbeTimeout is the timeout for each broken-link probe.
	// Probes only need a status line, so they get half the page timeout.
	DefaultProbeTimeout = crawler.DefaultProbeTimeout

	// DefaultMaxDepth is the maximum BFS depth from the root URL.
	// Depth 2 covers the home page, its sections and their articles, which
	// is where most on-page SEO problems live.
	DefaultMaxDepth = crawler.DefaultMaxDepth

	// DefaultMaxPages is the maximum number of pages stored per audit.
	DefaultMaxPages = crawler.DefaultMaxPages

	// DefaultCrawlDelay is the politeness delay between page fetches.
	DefaultCrawlDelay = crawler.DefaultDelay

	// DefaultLinkConcurrency is the number of concurrent link probes.
	DefaultLinkConcurrency = crawler.DefaultLinkConcurrency

	// DefaultBatchSize is the number of concurrent audits when several URLs
	// are given. 1 keeps multi-site audits as polite as single-site ones.
	DefaultBatchSize = 1

	// DefaultUserAgent is the User-Agent header sent with every request.
	// A browser string is used because many sites serve bots a stripped page.
	DefaultUserAgent = crawler.DefaultUserAgent

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = crawler.DefaultMaxBodySize

	// DefaultHistoryLimit is the number of audits listed by the history command.
	DefaultHistoryLimit = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "seoscan"
)

// ReportFormat selects the report renderer.
type ReportFormat string

// Supported report formats.
const (
	FormatText     ReportFormat = "text"
	FormatJSON     ReportFormat = "json"
	FormatMarkdown ReportFormat = "markdown"
	FormatCSV      ReportFormat = "csv"
	FormatXLSX     ReportFormat = "xlsx"
)

// ReportFormats lists every supported format in help-text order.
var ReportFormats = []ReportFormat{FormatText, FormatJSON, FormatMarkdown, FormatCSV, FormatXLSX}

// ParseReportFormat converts a user supplied name into a ReportFormat.
// Matching is case-insensitive and "md" is accepted for markdown.
func ParseReportFormat(name string) (ReportFormat, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "md" {
		n = string(FormatMarkdown)
	}
	for _, f := range ReportFormats {
		if string(f) == n {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReportFormat, name)
}

// Config holds all configuration options for seoscan.
// It is populated from CLI flags, the .env overlay and the config file, then
// passed through the application rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. Per-site overrides live
// in SiteConfigs and are merged when a target's spider is built.
type Config struct {
	// Targets is the list of root URLs to audit.
	Targets []string

	// Timeout is the fetch timeout for each crawled page.
	Timeout time.Duration

	// ProbeTimeout is the timeout for each broken-link probe.
	ProbeTimeout time.Duration

	// MaxDepth is the maximum BFS depth. 0 fetches only the root URL.
	MaxDepth int

	// MaxPages is the maximum number of page records per audit.
	MaxPages int

	// CrawlDelay is the politeness delay between page fetches. 0 disables it.
	CrawlDelay time.Duration

	// CheckLinks enables broken-link probing after the crawl.
	CheckLinks bool

	// LinkConcurrency is the number of concurrent link probes.
	LinkConcurrency int

	// RespectRobots makes the crawler skip URLs disallowed by robots.txt.
	RespectRobots bool

	// BatchSize is the number of concurrent audits for multiple targets.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit path of the config file, if any.
	ConfigFilePath string

	// SiteConfigs holds the parsed config file. Nil when no file was found.
	SiteConfigs *File

	// ReportFormat selects the report renderer.
	ReportFormat ReportFormat

	// ReportFile is the output path. Empty writes to stdout.
	ReportFile string

	// DBDir is the directory of the audit history database.
	// Defaults to the XDG data directory (~/.local/share/seoscan on Linux).
	DBDir string

	// SaveToDB stores audit summaries in the history database.
	SaveToDB bool

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, limits).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:         DefaultTimeout,
		ProbeTimeout:    DefaultProbeTimeout,
		MaxDepth:        DefaultMaxDepth,
		MaxPages:        DefaultMaxPages,
		CrawlDelay:      DefaultCrawlDelay,
		CheckLinks:      true,
		LinkConcurrency: DefaultLinkConcurrency,
		BatchSize:       DefaultBatchSize,
		ReportFormat:    FormatText,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
		UserAgent:       DefaultUserAgent,
		MaxBodySize:     DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for seoscan.
// On Linux: ~/.local/share/seoscan
// On macOS: ~/Library/Application Support/seoscan
// On Windows: %LOCALAPPDATA%\seoscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for seoscan.
// On Linux: ~/.config/seoscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast before any request is sent. The first error
// found is returned because fixing one often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, target := range c.Targets {
		if _, err := crawler.ValidateRootURL(target); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidURL, err)
		}
	}

	if c.MaxPages < 1 {
		return ErrInvalidMaxPages
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Timeout <= 0 || c.ProbeTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.LinkConcurrency <= 0 {
		return ErrInvalidLinkConcurrency
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if _, err := ParseReportFormat(string(c.ReportFormat)); err != nil {
		return err
	}
	return nil
}

// SiteFor returns the effective per-site settings for a root URL.
// Settings from the config file defaults and the matching site entry are
// merged; an absent config file yields the zero SiteConfig.
func (c *Config) SiteFor(rootURL string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(HostOf(rootURL))
}
