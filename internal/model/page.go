package model

import (
	"strings"
	"unicode/utf8"
)

// HeadingLevels lists the heading keys in document hierarchy order.
var HeadingLevels = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// PageRecord represents one crawled page with all extracted SEO data.
//
// A PageRecord is either a full record (Error is empty) or an error record
// (Error is set, StatusCode is 0, and only URL and Depth are meaningful).
// The two forms never mix: NewErrorRecord is the only way to build the latter.
//
// Design decision: We keep a single struct for both forms rather than an
// interface with two implementations because:
//  1. Crawl results are an ordered list that mixes both kinds
//  2. JSON output stays flat and matches what report consumers expect
//  3. IsError tells the two forms apart
type PageRecord struct {
	// URL is the URL as it was fetched, including any query or fragment.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code. 0 for error records.
	StatusCode int `json:"status_code"`

	// Depth is the BFS depth at which the page was discovered (root = 0).
	Depth int `json:"depth"`

	// Error holds the fetch failure message for error records.
	Error string `json:"error,omitempty"`

	// Title is the trimmed text of the <title> element.
	Title string `json:"title"`

	// TitleLength is the title length in characters (not bytes).
	TitleLength int `json:"title_length"`

	// MetaDescription is the trimmed content of <meta name="description">.
	MetaDescription string `json:"meta_description"`

	// MetaDescriptionLength is the description length in characters.
	MetaDescriptionLength int `json:"meta_description_length"`

	// MetaKeywords is the trimmed content of <meta name="keywords">.
	MetaKeywords string `json:"meta_keywords"`

	// Canonical is the href of <link rel="canonical">.
	Canonical string `json:"canonical"`

	// OGTags maps every og:* meta property to its content.
	OGTags map[string]string `json:"og_tags"`

	// TwitterTags maps every twitter:* meta name to its content.
	TwitterTags map[string]string `json:"twitter_tags"`

	// RobotsMeta is the content of <meta name="robots">.
	RobotsMeta string `json:"robots_meta"`

	// Headings holds heading texts per level in document order.
	Headings Headings `json:"headings"`

	// Links contains every anchor with an href, resolved to absolute URLs.
	Links []Link `json:"links"`

	// InternalLinksCount is the number of links pointing at the crawl root host.
	InternalLinksCount int `json:"internal_links_count"`

	// ExternalLinksCount is the number of links pointing elsewhere.
	ExternalLinksCount int `json:"external_links_count"`

	// Images contains every <img> element on the page.
	Images []Image `json:"images"`

	// ImagesWithoutAlt counts images whose alt attribute is missing or empty.
	ImagesWithoutAlt int `json:"images_without_alt"`

	// TotalImages is len(Images), kept for report consumers.
	TotalImages int `json:"total_images"`

	// FullText is the cleaned visible text of the page.
	FullText string `json:"full_text"`

	// WordCount is the number of whitespace-delimited tokens in FullText.
	WordCount int `json:"word_count"`
}

// Link is an anchor discovered on a page.
type Link struct {
	// URL is the absolute target URL.
	URL string `json:"url"`

	// Text is the trimmed anchor text.
	Text string `json:"text"`

	// Internal is true when the target host equals the crawl root host.
	Internal bool `json:"is_internal"`
}

// Image is an <img> element discovered on a page.
type Image struct {
	Src    string `json:"src"`
	Alt    string `json:"alt"`
	Title  string `json:"title"`
	HasAlt bool   `json:"has_alt"`
}

// Headings maps a heading level key ("h1".."h6") to its texts.
type Headings map[string][]string

// Count returns the number of headings at the given level key.
func (h Headings) Count(level string) int {
	return len(h[level])
}

// Total returns the number of headings across all levels.
func (h Headings) Total() int {
	total := 0
	for _, level := range HeadingLevels {
		total += len(h[level])
	}
	return total
}

// NewPageRecord creates an empty full record for the given URL.
func NewPageRecord(url string) *PageRecord {
	headings := make(Headings, len(HeadingLevels))
	for _, level := range HeadingLevels {
		headings[level] = []string{}
	}
	return &PageRecord{
		URL:         url,
		OGTags:      make(map[string]string),
		TwitterTags: make(map[string]string),
		Headings:    headings,
		Links:       make([]Link, 0),
		Images:      make([]Image, 0),
	}
}

// NewErrorRecord creates an error record for a page that could not be fetched.
func NewErrorRecord(url string, err error, depth int) *PageRecord {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &PageRecord{
		URL:        url,
		StatusCode: 0,
		Depth:      depth,
		Error:      msg,
	}
}

// IsError reports whether the record is an error record.
func (p *PageRecord) IsError() bool {
	return p.Error != ""
}

// SetTitle sets the title and its character length.
func (p *PageRecord) SetTitle(title string) {
	p.Title = title
	p.TitleLength = utf8.RuneCountInString(title)
}

// SetMetaDescription sets the meta description and its character length.
func (p *PageRecord) SetMetaDescription(desc string) {
	p.MetaDescription = desc
	p.MetaDescriptionLength = utf8.RuneCountInString(desc)
}

// SetFullText sets the visible text and recomputes the word count.
func (p *PageRecord) SetFullText(text string) {
	p.FullText = text
	p.WordCount = len(strings.Fields(text))
}

// AddLink appends a link and updates the internal/external counters.
func (p *PageRecord) AddLink(link Link) {
	p.Links = append(p.Links, link)
	if link.Internal {
		p.InternalLinksCount++
	} else {
		p.ExternalLinksCount++
	}
}

// AddImage appends an image and updates the image counters.
func (p *PageRecord) AddImage(img Image) {
	p.Images = append(p.Images, img)
	p.TotalImages++
	if !img.HasAlt {
		p.ImagesWithoutAlt++
	}
}

// LinksWithoutText counts links whose anchor text is blank.
func (p *PageRecord) LinksWithoutText() int {
	n := 0
	for _, l := range p.Links {
		if strings.TrimSpace(l.Text) == "" {
			n++
		}
	}
	return n
}

// BrokenLinkEntry is a link confirmed as truly broken after classification.
type BrokenLinkEntry struct {
	// URL is the broken target.
	URL string `json:"url"`

	// StatusCode is the observed status; 0 means the connection failed.
	StatusCode int `json:"status_code"`

	// FoundOn is the URL of the page that links to the target.
	FoundOn string `json:"found_on"`

	// LinkText is the anchor text of the first link seen to the target.
	LinkText string `json:"link_text"`
}
