// Package model defines the core data structures used throughout seoscan.
//
// This package contains the following main types:
//   - PageRecord: One crawled page with extracted SEO data, or an error record
//   - BrokenLinkEntry: A link confirmed as truly broken
//   - PageAnalysis: Category scores, issues and highlights of one page
//   - SiteSummary: Aggregated scores and the site health label
//   - AuditReport: Everything produced by one audit of one site
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The crawler, analyzer, pipeline, report and database packages
// all exchange these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// for the audit history store.
package model
