// Package sentiment scores caption text with a fixed word lexicon and
// correlates caption keywords with attributed revenue.
//
// Emotion sub-scores are heuristic functions of the sentiment score and word
// counts, not an emotion model.
package sentiment

import (
	"math"
	"strings"
	"unicode"
)

// Label is the polarity of a text.
type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// Emotions are heuristic emotion intensities in [0, 1].
type Emotions struct {
	Joy          float64 `json:"joy"`
	Trust        float64 `json:"trust"`
	Fear         float64 `json:"fear"`
	Anger        float64 `json:"anger"`
	Surprise     float64 `json:"surprise"`
	Anticipation float64 `json:"anticipation"`
}

// Analysis is the sentiment of one text.
type Analysis struct {
	SentimentScore     float64  `json:"sentiment_score"`
	SentimentLabel     Label    `json:"sentiment_label"`
	Confidence         float64  `json:"confidence"`
	PositiveWords      int      `json:"positive_words"`
	NegativeWords      int      `json:"negative_words"`
	HealthKeywords     int      `json:"health_keywords"`
	WordCount          int      `json:"word_count"`
	Emotions           Emotions `json:"emotions"`
	MatchedHealthTerms []string `json:"matched_health_terms"`
}

// Analyzer scores text against a lexicon.
type Analyzer struct {
	lex *Lexicon
}

// NewAnalyzer creates an analyzer. A nil lexicon uses DefaultLexicon.
func NewAnalyzer(lex *Lexicon) *Analyzer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Analyzer{lex: lex}
}

// AnalyzeSentiment scores text. The empty string scores 0, neutral, with
// zero confidence.
func (a *Analyzer) AnalyzeSentiment(text string) Analysis {
	words := Tokenize(text)
	res := Analysis{WordCount: len(words), MatchedHealthTerms: []string{}}

	var anticipation int
	seenHealth := make(map[string]struct{})
	for _, w := range words {
		if _, ok := a.lex.Positive[w]; ok {
			res.PositiveWords++
		}
		if _, ok := a.lex.Negative[w]; ok {
			res.NegativeWords++
		}
		if _, ok := a.lex.Health[w]; ok {
			res.HealthKeywords++
			if _, dup := seenHealth[w]; !dup {
				seenHealth[w] = struct{}{}
				res.MatchedHealthTerms = append(res.MatchedHealthTerms, w)
			}
		}
		if _, ok := a.lex.Anticipation[w]; ok {
			anticipation++
		}
	}

	sentimentWords := res.PositiveWords + res.NegativeWords
	var score float64
	if sentimentWords > 0 {
		score = float64(res.PositiveWords-res.NegativeWords) / float64(sentimentWords)
	}
	var healthDensity float64
	if res.WordCount > 0 {
		healthDensity = float64(res.HealthKeywords) / float64(res.WordCount)
	}
	score += 0.1 * math.Min(healthDensity, 0.3)
	score = clamp(score, -1, 1)

	res.SentimentScore = score
	res.SentimentLabel = labelFor(score)
	res.Confidence = math.Min(float64(sentimentWords)/10, 1)

	pos := math.Max(0, score)
	neg := math.Max(0, -score)
	res.Emotions = Emotions{
		Joy:          pos,
		Trust:        math.Min(1, 2*healthDensity+0.5*pos),
		Fear:         0.6 * neg,
		Surprise:     math.Min(1, 0.2*float64(strings.Count(text, "!"))),
		Anticipation: math.Min(1, 0.25*float64(anticipation)),
	}
	if res.NegativeWords > 0 {
		res.Emotions.Anger = 0.4 * neg
	}
	return res
}

// Tokenize lower-cases text, drops every rune that is not a letter, digit or
// whitespace, and splits on whitespace.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, text)
	return strings.Fields(cleaned)
}

func labelFor(score float64) Label {
	switch {
	case score > 0.1:
		return Positive
	case score < -0.1:
		return Negative
	default:
		return Neutral
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

var defaultAnalyzer = NewAnalyzer(nil)

// AnalyzeSentiment scores text with the default lexicon.
func AnalyzeSentiment(text string) Analysis {
	return defaultAnalyzer.AnalyzeSentiment(text)
}
