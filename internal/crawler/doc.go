// Package crawler provides the site crawler of seoscan.
//
// # Architecture
//
// The Spider walks the internal pages of one host breadth-first. Each call to
// Spider.Crawl creates a private crawl session (queue, visited set, stored
// set, link set), so a Spider can be reused and shared between goroutines.
// Pages are turned into model.PageRecord values by the Extractor.
//
// After crawling, the LinkChecker probes the links found on the stored pages
// and the Classifier separates truly broken links from links refused by bot
// protection.
//
// # Components
//
//   - NormalizeURL: canonical scheme://host/path form used for deduplication
//   - Extractor: goquery-based extraction of SEO fields from HTML
//   - Spider: bounded BFS crawl with a page budget, depth limit and delay
//   - PathFilter, RobotsRules: optional filters on which links are enqueued
//   - LinkChecker: HEAD/GET probing of discovered links
//   - Classifier: broken vs. bot-protected decision per status and host
//
// # Politeness
//
//   - Page fetches are sequential and spaced by a rate limiter
//   - robots.txt is honoured when enabled
//   - Link probes are bounded in number per page and in parallelism
//   - Response bodies are size limited
//
// # Usage
//
//	spider := crawler.NewSpider(httpClient, crawler.WithMaxPages(10), crawler.WithMaxDepth(2))
//	result, err := spider.Crawl(ctx, "https://example.com")
//
//	checker := crawler.NewLinkChecker(httpClient)
//	broken, err := checker.CheckBrokenLinks(ctx, result.Pages)
package crawler
