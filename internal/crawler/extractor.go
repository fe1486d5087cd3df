package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/seoscan/internal/model"
)

// invisibleElements are elements whose text never reaches the reader.
var invisibleElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
}

// Extractor turns raw page markup into a model.PageRecord.
//
// Design decision: We query the document with goquery selectors rather than
// hand-walking the tree for every field because:
//  1. Each SEO field maps to one CSS selector, which keeps the rules readable
//  2. goquery sits on golang.org/x/net/html, so malformed markup is tolerated
//  3. The raw *html.Node tree is still available for the visible-text walk
type Extractor struct {
	// rootHost is the host[:port] of the crawl root. Links pointing at
	// exactly this host are tagged internal.
	rootHost string
}

// NewExtractor creates an Extractor for a crawl rooted at rootURL.
func NewExtractor(rootURL string) (*Extractor, error) {
	u, err := url.Parse(rootURL)
	if err != nil {
		return nil, fmt.Errorf("invalid root URL: %w", err)
	}
	return &Extractor{rootHost: u.Host}, nil
}

// Extract parses content fetched from pageURL into a PageRecord.
// Status code and depth are left for the caller to fill in.
func (e *Extractor) Extract(pageURL string, content io.Reader) (*model.PageRecord, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	page := model.NewPageRecord(pageURL)

	page.SetTitle(strings.TrimSpace(doc.Find("title").First().Text()))
	page.SetMetaDescription(metaContent(doc, "description"))
	page.MetaKeywords = metaContent(doc, "keywords")
	page.RobotsMeta = metaContent(doc, "robots")

	doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		page.OGTags[prop] = s.AttrOr("content", "")
	})
	doc.Find(`meta[name^="twitter:"]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		page.TwitterTags[name] = s.AttrOr("content", "")
	})

	page.Canonical = doc.Find(`link[rel~="canonical"]`).First().AttrOr("href", "")

	for _, level := range model.HeadingLevels {
		doc.Find(level).Each(func(_ int, s *goquery.Selection) {
			page.Headings[level] = append(page.Headings[level], strings.TrimSpace(s.Text()))
		})
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		target := resolveHref(base, href)
		page.AddLink(model.Link{
			URL:      target,
			Text:     strings.TrimSpace(s.Text()),
			Internal: SameHost(e.rootHost, target),
		})
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		alt := s.AttrOr("alt", "")
		page.AddImage(model.Image{
			Src:    s.AttrOr("src", ""),
			Alt:    alt,
			Title:  s.AttrOr("title", ""),
			HasAlt: alt != "",
		})
	})

	var fragments []string
	for _, n := range doc.Nodes {
		fragments = collectVisibleText(n, fragments)
	}
	page.SetFullText(strings.Join(fragments, " "))

	return page, nil
}

// metaContent returns the trimmed content of <meta name="name">.
func metaContent(doc *goquery.Document, name string) string {
	sel := doc.Find(`meta[name="` + name + `"]`).First()
	return strings.TrimSpace(sel.AttrOr("content", ""))
}

// resolveHref resolves href against the page URL. Hrefs that cannot be
// parsed are kept verbatim so they still count as discovered links.
func resolveHref(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// collectVisibleText appends the whitespace-collapsed text of every text
// node under n, skipping invisible elements.
func collectVisibleText(n *html.Node, out []string) []string {
	if n.Type == html.ElementNode && invisibleElements[n.Data] {
		return out
	}
	if n.Type == html.TextNode {
		if collapsed := strings.Join(strings.Fields(n.Data), " "); collapsed != "" {
			out = append(out, collapsed)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = collectVisibleText(c, out)
	}
	return out
}
