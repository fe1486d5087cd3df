package textstat

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// keywordPattern matches alphabetic runs of four or more letters.
	keywordPattern = regexp.MustCompile(`\b[a-zA-Z]{4,}\b`)

	// wordPattern matches alphabetic words, allowing inner apostrophes.
	wordPattern = regexp.MustCompile(`[A-Za-z]+(?:'[A-Za-z]+)*`)

	// sentenceEnd splits text into sentences.
	sentenceEnd = regexp.MustCompile(`[.!?]+`)
)

// lower folds text to lower case with English rules. cases.Caser is not
// safe for concurrent use, so a new one is made per call.
func lower(text string) string {
	return cases.Lower(language.English).String(text)
}

// KeywordTokens returns the lower-cased alphabetic tokens of at least four
// letters in text, in order of appearance.
func KeywordTokens(text string) []string {
	return keywordPattern.FindAllString(lower(text), -1)
}

// Words returns the alphabetic words of text, lower-cased.
func Words(text string) []string {
	return wordPattern.FindAllString(lower(text), -1)
}

// SentenceCount returns the number of non-empty sentences in text.
// It never returns less than 1.
func SentenceCount(text string) int {
	n := 0
	for _, s := range sentenceEnd.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return max(n, 1)
}

// Syllables estimates the syllable count of an English word by counting
// vowel groups. A silent trailing "e" is dropped; every word has at least
// one syllable.
func Syllables(word string) int {
	w := strings.ToLower(strings.Trim(word, "'"))
	if w == "" {
		return 0
	}

	count := 0
	prevVowel := false
	for _, r := range w {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}

	if count > 1 && strings.HasSuffix(w, "e") && !strings.HasSuffix(w, "le") && !strings.HasSuffix(w, "ee") {
		count--
	}
	return max(count, 1)
}
