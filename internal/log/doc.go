// Package log provides slog loggers that mask secrets.
//
// Site configs can carry cookies and authorization headers, and audited
// URLs sometimes carry tokens in their query string. SecureHandler masks
// these before a record reaches the output handler, in verbose mode too.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching", "url", "https://example.com/?token=abc")
//	// url=https://example.com/?token=***REDACTED***
//	slog.SetDefault(logger)
package log
