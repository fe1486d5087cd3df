package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no URL to audit is given.
	ErrNoTarget = errors.New("no target specified: provide at least one URL")

	// ErrInvalidURL is returned when a target is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid target URL")

	// ErrInvalidMaxPages is returned when the page budget is below 1.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be at least 1")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	// Depth 0 is valid and fetches only the root URL.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidTimeout is returned when a page or probe timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidLinkConcurrency is returned when the probe concurrency is not positive.
	ErrInvalidLinkConcurrency = errors.New("invalid link concurrency: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrUnknownReportFormat is returned for an unsupported --format value.
	ErrUnknownReportFormat = errors.New("unknown report format: use text, json, markdown, csv or xlsx")
)
