// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter / FullJSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown with alerts and a pie chart
//   - CSVWriter: one row of scores per page
//   - XLSXWriter: an Excel workbook with summary, pages and broken links
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) to follow the single responsibility
// principle. This allows adding new output formats without modifying
// the core data structures.
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
