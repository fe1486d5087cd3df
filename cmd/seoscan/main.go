// Package main provides the entry point for the seoscan CLI.
//
// seoscan crawls a website, scores every page for technical SEO, content
// quality and accessibility, checks for broken links and prints a report
// with site-level advice. Audit summaries are kept in a local history so
// later audits can be compared with earlier ones.
//
// Usage:
//
//	seoscan audit <url>
//	seoscan check <url>
//	seoscan history [site]
//	seoscan compare <site>
//
// See --help for all available options.
package main

// main is the entry point for seoscan.
func main() {
	Execute()
}
