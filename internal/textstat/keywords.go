package textstat

import (
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/nao1215/seoscan/internal/model"
)

const (
	// MinKeywordTokens is the minimum number of words and of keyword tokens
	// a text needs before keywords are extracted.
	MinKeywordTokens = 10

	// MaxVocabulary caps the TF-IDF vocabulary to the most frequent terms.
	MaxVocabulary = 20

	// MaxKeywords is the number of keywords returned.
	MaxKeywords = 10
)

// ErrEmptyVocabulary is returned when no keyword candidate survives stop
// word filtering.
var ErrEmptyVocabulary = errors.New("empty vocabulary: text contains only stop words")

// KeywordResult holds the top keywords of a text.
type KeywordResult struct {
	// Keywords are ordered by salience, most salient first.
	Keywords []model.Keyword

	// Density maps each keyword to its density. Empty for the frequency
	// fallback.
	Density map[string]float64
}

// termCount is a term with its occurrence count.
type termCount struct {
	term  string
	count int
}

// ExtractKeywords returns the most salient terms of text.
//
// Texts with fewer than MinKeywordTokens whitespace words or keyword
// tokens yield an empty result. Otherwise terms are ranked by TF-IDF; when
// the TF-IDF vocabulary is empty the plain frequency ranking of the same
// tokens is returned instead, with densities left at zero.
func ExtractKeywords(text string) KeywordResult {
	empty := KeywordResult{Keywords: []model.Keyword{}, Density: map[string]float64{}}

	if len(strings.Fields(text)) < MinKeywordTokens {
		return empty
	}
	tokens := KeywordTokens(text)
	if len(tokens) < MinKeywordTokens {
		return empty
	}

	result, err := TFIDF(tokens)
	if err != nil {
		return frequencyKeywords(tokens)
	}
	return result
}

// TFIDF scores tokens as a single-document corpus. With one document the
// smoothed inverse document frequency is 1 for every term, so the score is
// the L2-normalised term frequency over the capped vocabulary.
func TFIDF(tokens []string) (KeywordResult, error) {
	counts := make(map[string]int)
	for _, tok := range tokens {
		if IsStopWord(tok) {
			continue
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return KeywordResult{}, ErrEmptyVocabulary
	}

	vocab := make([]termCount, 0, len(counts))
	for term, n := range counts {
		vocab = append(vocab, termCount{term: term, count: n})
	}
	sort.Slice(vocab, func(i, j int) bool {
		if vocab[i].count != vocab[j].count {
			return vocab[i].count > vocab[j].count
		}
		return vocab[i].term < vocab[j].term
	})
	if len(vocab) > MaxVocabulary {
		vocab = vocab[:MaxVocabulary]
	}

	var norm float64
	for _, tc := range vocab {
		norm += float64(tc.count * tc.count)
	}
	norm = math.Sqrt(norm)

	// Scores are proportional to counts, so vocab is already in rank order.
	top := vocab[:min(MaxKeywords, len(vocab))]
	total := float64(len(tokens))

	result := KeywordResult{
		Keywords: make([]model.Keyword, 0, len(top)),
		Density:  make(map[string]float64, len(top)),
	}
	for _, tc := range top {
		density := model.Round(float64(tc.count)/total*100, 2)
		result.Keywords = append(result.Keywords, model.Keyword{
			Keyword:    tc.term,
			TFIDFScore: model.Round(float64(tc.count)/norm, 3),
			Count:      tc.count,
			Density:    density,
		})
		result.Density[tc.term] = density
	}
	return result, nil
}

// frequencyKeywords ranks tokens by count, ties in order of first
// appearance.
func frequencyKeywords(tokens []string) KeywordResult {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, tok := range tokens {
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > MaxKeywords {
		order = order[:MaxKeywords]
	}

	result := KeywordResult{
		Keywords: make([]model.Keyword, 0, len(order)),
		Density:  map[string]float64{},
	}
	for _, term := range order {
		result.Keywords = append(result.Keywords, model.Keyword{Keyword: term, Count: counts[term]})
	}
	return result
}
