package model

import "math"

// MaxCategoryScore is the point total of every scoring category.
const MaxCategoryScore = 100

// CategoryScore is the point total of one scoring category.
type CategoryScore struct {
	// Score is the sum of awarded points.
	Score int `json:"score"`

	// MaxScore is always MaxCategoryScore.
	MaxScore int `json:"max_score"`

	// Percentage is Score/MaxScore*100 rounded to one decimal.
	Percentage float64 `json:"percentage"`
}

// NewCategoryScore builds a CategoryScore from awarded points.
func NewCategoryScore(score int) CategoryScore {
	return CategoryScore{
		Score:      score,
		MaxScore:   MaxCategoryScore,
		Percentage: Round(float64(score)/float64(MaxCategoryScore)*100, 1),
	}
}

// TechnicalDetails records the technical sub-metric statuses.
type TechnicalDetails struct {
	TitleStatus      string `json:"title_status"`
	TitleLength      int    `json:"title_length"`
	MetaStatus       string `json:"meta_status"`
	MetaLength       int    `json:"meta_length"`
	H1Status         string `json:"h1_status"`
	H1Count          int    `json:"h1_count"`
	HeadingHierarchy string `json:"heading_hierarchy"`
	HasCanonical     bool   `json:"has_canonical"`
	OGTagsStatus     string `json:"og_tags_status"`
	OGTagsCount      int    `json:"og_tags_count"`
	Status           string `json:"status"`
	StatusCode       int    `json:"status_code"`
}

// Keyword is one salient term of a page.
type Keyword struct {
	Keyword    string  `json:"keyword"`
	TFIDFScore float64 `json:"tfidf_score,omitempty"`
	Count      int     `json:"count"`
	Density    float64 `json:"density"`
}

// ContentDetails records the content sub-metric statuses.
// Readability fields are only meaningful when ReadabilityStatus is one of
// optimal, good or needs_improvement.
type ContentDetails struct {
	WordCountStatus    string             `json:"word_count_status"`
	WordCount          int                `json:"word_count"`
	FleschReadingEase  float64            `json:"flesch_reading_ease,omitempty"`
	ReadabilityStatus  string             `json:"readability_status"`
	FleschKincaidGrade float64            `json:"flesch_kincaid_grade,omitempty"`
	ReadingLevel       string             `json:"reading_level,omitempty"`
	SentimentPolarity  float64            `json:"sentiment_polarity"`
	Tone               string             `json:"tone,omitempty"`
	TopKeywords        []Keyword          `json:"top_keywords"`
	KeywordDensity     map[string]float64 `json:"keyword_density"`
	KeywordStatus      string             `json:"keyword_status"`
	ContentStructure   string             `json:"content_structure"`
	TotalHeadings      int                `json:"total_headings"`
}

// AccessibilityDetails records the accessibility sub-metric statuses.
type AccessibilityDetails struct {
	ImagesWithAltPercentage float64 `json:"images_with_alt_percentage,omitempty"`
	AltTextStatus           string  `json:"alt_text_status"`
	TotalImages             int     `json:"total_images"`
	ImagesWithoutAlt        int     `json:"images_without_alt"`
	HeadingAccessibility    string  `json:"heading_accessibility"`
	LinksWithTextPercentage float64 `json:"links_with_text_percentage,omitempty"`
	LinkTextStatus          string  `json:"link_text_status"`
	TotalLinks              int     `json:"total_links"`
	LinksWithoutText        int     `json:"links_without_text"`
}

// TechnicalScore is the technical category with its details.
type TechnicalScore struct {
	CategoryScore
	Details TechnicalDetails `json:"details"`
}

// ContentScore is the content category with its details.
type ContentScore struct {
	CategoryScore
	Details ContentDetails `json:"details"`
}

// AccessibilityScore is the accessibility category with its details.
type AccessibilityScore struct {
	CategoryScore
	Details AccessibilityDetails `json:"details"`
}

// Issue is a critical issue or a warning found on a page.
type Issue struct {
	Severity       Severity `json:"severity"`
	Category       string   `json:"category"`
	Issue          string   `json:"issue"`
	Recommendation string   `json:"recommendation"`
}

// Recommendation is an improvement suggestion without severity.
type Recommendation struct {
	Category       string `json:"category"`
	Recommendation string `json:"recommendation"`
}

// Highlight is something the page does well.
type Highlight struct {
	Category  string `json:"category"`
	Icon      string `json:"icon"`
	Highlight string `json:"highlight"`
	Detail    string `json:"detail"`
}

// PageAnalysis is the scoring result for one PageRecord.
// For error records only URL and Error are set.
type PageAnalysis struct {
	URL             string              `json:"url"`
	Error           string              `json:"error,omitempty"`
	Technical       *TechnicalScore     `json:"technical_seo,omitempty"`
	Content         *ContentScore       `json:"content_seo,omitempty"`
	Accessibility   *AccessibilityScore `json:"accessibility,omitempty"`
	OverallScore    float64             `json:"overall_score"`
	Issues          []Issue             `json:"issues"`
	Warnings        []Issue             `json:"warnings"`
	Recommendations []Recommendation    `json:"recommendations"`
	Highlights      []Highlight         `json:"positive_highlights"`
}

// IsError reports whether the analysis belongs to an error record.
func (a *PageAnalysis) IsError() bool {
	return a.Error != ""
}

// OverallScore combines category percentages with weights 0.4/0.4/0.2,
// rounded to one decimal.
func OverallScore(technical, content, accessibility float64) float64 {
	return Round(technical*0.4+content*0.4+accessibility*0.2, 1)
}

// Round rounds v to the given number of decimals, ties to even:
// 76.25 becomes 76.2 and 76.75 becomes 76.8.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*p) / p
}
