package textstat

import "errors"

// ErrNoWords is returned when a text contains no alphabetic word.
var ErrNoWords = errors.New("text contains no words")

// Reading level labels by Flesch reading ease.
const (
	LevelVeryEasy        = "Very Easy (5th grade)"
	LevelEasy            = "Easy (6th grade)"
	LevelFairlyEasy      = "Fairly Easy (7th grade)"
	LevelStandard        = "Standard (8th-9th grade)"
	LevelFairlyDifficult = "Fairly Difficult (10th-12th grade)"
	LevelDifficult       = "Difficult (College)"
	LevelVeryDifficult   = "Very Difficult (College graduate)"
)

// ReadabilityScores holds the Flesch metrics of a text.
type ReadabilityScores struct {
	// FleschReadingEase is higher for easier text; typical prose is 0..100.
	FleschReadingEase float64

	// FleschKincaidGrade approximates the US school grade needed.
	FleschKincaidGrade float64

	// ReadingLevel is the label for FleschReadingEase.
	ReadingLevel string

	Words     int
	Sentences int
	Syllables int
}

// Readability computes the Flesch reading ease and Flesch-Kincaid grade of
// text. Scores are not rounded.
func Readability(text string) (ReadabilityScores, error) {
	words := Words(text)
	if len(words) == 0 {
		return ReadabilityScores{}, ErrNoWords
	}

	syllables := 0
	for _, w := range words {
		syllables += Syllables(w)
	}
	sentences := SentenceCount(text)

	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))

	ease := 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
	grade := 0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59

	return ReadabilityScores{
		FleschReadingEase:  ease,
		FleschKincaidGrade: grade,
		ReadingLevel:       ReadingLevel(ease),
		Words:              len(words),
		Sentences:          sentences,
		Syllables:          syllables,
	}, nil
}

// ReadingLevel maps a Flesch reading ease score to a label.
func ReadingLevel(ease float64) string {
	switch {
	case ease >= 90:
		return LevelVeryEasy
	case ease >= 80:
		return LevelEasy
	case ease >= 70:
		return LevelFairlyEasy
	case ease >= 60:
		return LevelStandard
	case ease >= 50:
		return LevelFairlyDifficult
	case ease >= 30:
		return LevelDifficult
	default:
		return LevelVeryDifficult
	}
}
