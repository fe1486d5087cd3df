package analyzer

import (
	"net/http"

	"github.com/nao1215/seoscan/internal/model"
)

// Scoring thresholds.
const (
	IdealTitleMin       = 50
	IdealTitleMax       = 60
	IdealMetaMin        = 150
	IdealMetaMax        = 160
	MinWordCount        = 300
	IdealWordCount      = 1000
	MinReadabilityWords = 50
	MinOGTags           = 4
	MinGoodKeywords     = 5
	WellStructuredCount = 5
	HighlightPercentage = 80
)

// band is one row of a criterion: the first band whose predicate holds
// awards its points and status.
type band struct {
	when   func(*facts) bool
	points int
	status string
}

// criterion is one scored sub-metric. set records the winning status in
// the category details.
type criterion[D any] struct {
	name  string
	bands []band
	set   func(d *D, status string)
}

// always is the catch-all predicate of a criterion's last band.
func always(*facts) bool { return true }

// evaluate runs every criterion of table in order and returns the points.
func evaluate[D any](table []criterion[D], f *facts, d *D) int {
	score := 0
	for _, c := range table {
		for _, b := range c.bands {
			if !b.when(f) {
				continue
			}
			score += b.points
			if c.set != nil {
				c.set(d, b.status)
			}
			break
		}
	}
	return score
}

// technicalRules allocate the 100 technical points.
var technicalRules = []criterion[model.TechnicalDetails]{
	{
		name: "title",
		bands: []band{
			{func(f *facts) bool { return f.hasTitle && inRange(f.titleLen, IdealTitleMin, IdealTitleMax) }, 20, "optimal"},
			{func(f *facts) bool { return f.hasTitle && f.titleLen > 0 }, 10, "needs_optimization"},
			{always, 0, "missing"},
		},
		set: func(d *model.TechnicalDetails, s string) { d.TitleStatus = s },
	},
	{
		name: "meta_description",
		bands: []band{
			{func(f *facts) bool { return f.hasMeta && inRange(f.metaLen, IdealMetaMin, IdealMetaMax) }, 20, "optimal"},
			{func(f *facts) bool { return f.hasMeta && f.metaLen > 0 }, 10, "needs_optimization"},
			{always, 0, "missing"},
		},
		set: func(d *model.TechnicalDetails, s string) { d.MetaStatus = s },
	},
	{
		name: "h1",
		bands: []band{
			{func(f *facts) bool { return f.h1Count == 1 }, 15, "optimal"},
			{func(f *facts) bool { return f.h1Count == 0 }, 0, "missing"},
			{always, 5, "multiple"},
		},
		set: func(d *model.TechnicalDetails, s string) { d.H1Status = s },
	},
	{
		name: "heading_hierarchy",
		bands: []band{
			{func(f *facts) bool { return f.hierarchyValid }, 10, "valid"},
			{always, 0, "invalid"},
		},
		set: func(d *model.TechnicalDetails, s string) { d.HeadingHierarchy = s },
	},
	{
		name: "canonical",
		bands: []band{
			{func(f *facts) bool { return f.hasCanonical }, 10, "present"},
			{always, 0, "missing"},
		},
		set: func(d *model.TechnicalDetails, s string) { d.HasCanonical = s == "present" },
	},
	{
		name: "open_graph",
		bands: []band{
			{func(f *facts) bool { return f.ogCount >= MinOGTags }, 10, "good"},
			{func(f *facts) bool { return f.ogCount > 0 }, 5, "partial"},
			{always, 0, "missing"},
		},
		set: func(d *model.TechnicalDetails, s string) { d.OGTagsStatus = s },
	},
	{
		name: "status_code",
		bands: []band{
			{func(f *facts) bool { return f.status == http.StatusOK }, 15, "ok"},
			{func(f *facts) bool { return f.status >= 300 && f.status < 400 }, 10, "redirect"},
			{always, 0, "error"},
		},
		set: func(d *model.TechnicalDetails, s string) { d.Status = s },
	},
}

// contentRules allocate the 100 content points.
var contentRules = []criterion[model.ContentDetails]{
	{
		name: "word_count",
		bands: []band{
			{func(f *facts) bool { return f.wordCount >= IdealWordCount }, 25, "excellent"},
			{func(f *facts) bool { return f.wordCount >= MinWordCount }, 15, "good"},
			{func(f *facts) bool { return f.wordCount > 0 }, 5, "low"},
			{always, 0, "none"},
		},
		set: func(d *model.ContentDetails, s string) { d.WordCountStatus = s },
	},
	{
		name: "readability",
		bands: []band{
			{func(f *facts) bool { return !f.readable }, 0, "insufficient_text"},
			{func(f *facts) bool { return f.readErr != nil }, 0, "error"},
			{func(f *facts) bool { return inRangeF(f.readability.FleschReadingEase, 60, 80) }, 25, "optimal"},
			{func(f *facts) bool { return inRangeF(f.readability.FleschReadingEase, 50, 90) }, 15, "good"},
			{always, 5, "needs_improvement"},
		},
		set: func(d *model.ContentDetails, s string) { d.ReadabilityStatus = s },
	},
	{
		name: "sentiment",
		bands: []band{
			{func(f *facts) bool { return !f.hasText }, 0, ""},
			{func(f *facts) bool { return f.polarity > 0.1 }, 15, "Positive"},
			{func(f *facts) bool { return f.polarity < -0.1 }, 5, "Negative"},
			{always, 10, "Neutral"},
		},
		set: func(d *model.ContentDetails, s string) { d.Tone = s },
	},
	{
		name: "keywords",
		bands: []band{
			{func(f *facts) bool { return len(f.keywords.Keywords) >= MinGoodKeywords }, 20, "good"},
			{func(f *facts) bool { return len(f.keywords.Keywords) > 0 }, 10, "limited"},
			{always, 0, "none"},
		},
		set: func(d *model.ContentDetails, s string) { d.KeywordStatus = s },
	},
	{
		name: "structure",
		bands: []band{
			{func(f *facts) bool { return f.totalHeadings >= WellStructuredCount }, 15, "well_structured"},
			{func(f *facts) bool { return f.totalHeadings > 0 }, 8, "basic"},
			{always, 0, "poor"},
		},
		set: func(d *model.ContentDetails, s string) { d.ContentStructure = s },
	},
}

// accessibilityRules allocate the 100 accessibility points.
var accessibilityRules = []criterion[model.AccessibilityDetails]{
	{
		name: "alt_text",
		bands: []band{
			{func(f *facts) bool { return f.totalImages == 0 }, 40, "no_images"},
			{func(f *facts) bool { return f.altPct == 100 }, 40, "excellent"},
			{func(f *facts) bool { return f.altPct >= 80 }, 30, "good"},
			{func(f *facts) bool { return f.altPct >= 50 }, 15, "needs_improvement"},
			{always, 5, "poor"},
		},
		set: func(d *model.AccessibilityDetails, s string) { d.AltTextStatus = s },
	},
	{
		name: "heading_accessibility",
		bands: []band{
			{func(f *facts) bool { return f.h1Count == 1 }, 30, "good"},
			{always, 10, "needs_improvement"},
		},
		set: func(d *model.AccessibilityDetails, s string) { d.HeadingAccessibility = s },
	},
	{
		name: "link_text",
		bands: []band{
			{func(f *facts) bool { return f.totalLinks == 0 }, 30, "no_links"},
			{func(f *facts) bool { return f.linkTextPct == 100 }, 30, "excellent"},
			{func(f *facts) bool { return f.linkTextPct >= 90 }, 20, "good"},
			{always, 10, "needs_improvement"},
		},
		set: func(d *model.AccessibilityDetails, s string) { d.LinkTextStatus = s },
	},
}

func inRange(v, lo, hi int) bool { return v >= lo && v <= hi }

func inRangeF(v, lo, hi float64) bool { return v >= lo && v <= hi }
