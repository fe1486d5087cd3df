// Package analyzer scores crawled pages and summarizes sites.
//
// # Scoring
//
// Every page gets three category scores out of 100 points: technical SEO,
// content SEO and accessibility. Each category is a declarative table of
// criteria; a criterion is an ordered list of bands (predicate, points,
// status) and the first band whose predicate holds wins. Predicates read a
// facts value measured once per page, so the tables carry no logic beyond
// comparisons.
//
// The overall page score weights the category percentages 40/40/20.
//
// # Findings
//
// Issues (critical), warnings, recommendations and positive highlights are
// a second set of rule tables keyed on the category statuses.
//
// # Site level
//
// Summarize averages valid pages, counts issues and builds the common issue
// histogram. GenerateAdvice turns a summary into prioritized advice.
package analyzer
