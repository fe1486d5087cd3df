package analyzer

import (
	"github.com/nao1215/seoscan/internal/model"
	"github.com/nao1215/seoscan/internal/textstat"
)

// facts are the measurements of one page that the rule tables read.
// They are computed once per page so every rule is a cheap predicate.
type facts struct {
	titleLen       int
	hasTitle       bool
	metaLen        int
	hasMeta        bool
	h1Count        int
	hierarchyValid bool
	hasCanonical   bool
	ogCount        int
	status         int

	wordCount     int
	hasText       bool
	readable      bool // text present and long enough to score readability
	readability   textstat.ReadabilityScores
	readErr       error
	polarity      float64
	keywords      textstat.KeywordResult
	totalHeadings int

	totalImages      int
	imagesWithoutAlt int
	altPct           float64
	totalLinks       int
	linksWithoutText int
	linkTextPct      float64
}

// gatherFacts measures page.
func gatherFacts(page *model.PageRecord) *facts {
	f := &facts{
		titleLen:         page.TitleLength,
		hasTitle:         page.Title != "",
		metaLen:          page.MetaDescriptionLength,
		hasMeta:          page.MetaDescription != "",
		h1Count:          page.Headings.Count("h1"),
		hierarchyValid:   validHierarchy(page.Headings),
		hasCanonical:     page.Canonical != "",
		ogCount:          len(page.OGTags),
		status:           page.StatusCode,
		wordCount:        page.WordCount,
		hasText:          page.FullText != "",
		totalHeadings:    page.Headings.Total(),
		totalImages:      page.TotalImages,
		imagesWithoutAlt: page.ImagesWithoutAlt,
		totalLinks:       len(page.Links),
		linksWithoutText: page.LinksWithoutText(),
	}

	f.readable = f.hasText && f.wordCount > MinReadabilityWords
	if f.readable {
		f.readability, f.readErr = textstat.Readability(page.FullText)
	}
	if f.hasText {
		f.polarity = textstat.Polarity(page.FullText)
	}
	f.keywords = textstat.ExtractKeywords(page.FullText)

	if f.totalImages > 0 {
		f.altPct = float64(f.totalImages-f.imagesWithoutAlt) / float64(f.totalImages) * 100
	}
	if f.totalLinks > 0 {
		f.linkTextPct = float64(f.totalLinks-f.linksWithoutText) / float64(f.totalLinks) * 100
	}
	return f
}

// validHierarchy reports whether the present heading levels have no gap,
// e.g. h1,h2,h3 or h2,h3 but not h1,h3. A page without headings is invalid.
func validHierarchy(h model.Headings) bool {
	prev := 0
	for i, level := range model.HeadingLevels {
		if h.Count(level) == 0 {
			continue
		}
		n := i + 1
		if prev != 0 && n-prev > 1 {
			return false
		}
		prev = n
	}
	return prev != 0
}
