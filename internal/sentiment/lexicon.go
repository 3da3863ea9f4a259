package sentiment

// Lexicon is the word list set used for scoring. Entries are lower case.
type Lexicon struct {
	Positive     map[string]struct{}
	Negative     map[string]struct{}
	Health       map[string]struct{}
	Anticipation map[string]struct{}
	StopWords    map[string]struct{}
}

// NewLexicon builds a lexicon from word lists.
func NewLexicon(positive, negative, health, anticipation, stop []string) *Lexicon {
	return &Lexicon{
		Positive:     wordSet(positive),
		Negative:     wordSet(negative),
		Health:       wordSet(health),
		Anticipation: wordSet(anticipation),
		StopWords:    wordSet(stop),
	}
}

// DefaultLexicon returns the built-in word lists.
func DefaultLexicon() *Lexicon {
	return NewLexicon(
		[]string{
			"amazing", "awesome", "best", "love", "great", "excellent", "fantastic", "perfect",
			"incredible", "wonderful", "happy", "energized", "strong", "results", "recommend",
			"favorite", "delicious", "effective", "powerful", "boost", "transformed", "gains",
		},
		[]string{
			"bad", "terrible", "awful", "hate", "worst", "disappointed", "poor", "useless",
			"horrible", "waste", "tired", "sick", "pain", "bloated", "overpriced", "fake",
		},
		[]string{
			"health", "healthy", "protein", "vitamins", "nutrition", "fitness", "workout",
			"wellness", "organic", "natural", "energy", "recovery", "immune", "clean", "muscle",
		},
		[]string{
			"soon", "coming", "launch", "new", "tomorrow", "next", "ready", "wait", "excited", "upcoming",
		},
		[]string{
			"this", "that", "with", "from", "have", "your", "just", "what", "when", "will",
			"they", "them", "their", "there", "been", "were", "about", "into", "than", "then",
			"also", "more", "some", "very", "here", "over", "only", "each", "like", "make",
		},
	)
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
