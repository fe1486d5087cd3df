package textstat

import (
	"sync"

	"github.com/jonreiter/govader"
)

var (
	sentimentOnce     sync.Once
	sentimentAnalyzer *govader.SentimentIntensityAnalyzer
	// sentimentMu serializes PolarityScores, which shares the analyzer's
	// lexicon maps between callers.
	sentimentMu sync.Mutex
)

// Polarity returns the sentiment polarity of text in [-1, 1].
//
// The value is the VADER compound score: the lexicon valence of every word,
// adjusted for boosters ("very", "extremely"), negation ("not good",
// "isn't good"), capitalization and punctuation emphasis, then normalized.
// Text without opinion words is neutral (0).
func Polarity(text string) float64 {
	if text == "" {
		return 0
	}
	sentimentOnce.Do(func() {
		sentimentAnalyzer = govader.NewSentimentIntensityAnalyzer()
	})

	sentimentMu.Lock()
	defer sentimentMu.Unlock()
	return sentimentAnalyzer.PolarityScores(text).Compound
}
