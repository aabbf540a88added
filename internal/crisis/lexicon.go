package crisis

import (
	"regexp"
	"strings"
	"unicode"
)

// sentimentIncrement is added once per matched negative-sentiment pattern
const sentimentIncrement = 3

// urgencyFactor scales the score per urgency word when indicators matched
const urgencyFactor = 0.2

// negative-sentiment phrasings that score even when no catalogue phrase matches
var sentimentPatterns = []string{
	`i can'?t go on`,
	`nobody cares`,
	`life is pointless`,
	`what'?s the point`,
	`tired of living`,
	`no one would miss me`,
	`can'?t do this anymore`,
}

// urgencyWords signal imminence; they amplify an existing match but never
// score on their own
var urgencyWords = []string{"now", "today", "tonight", "immediately", "final", "last"}

// Lexicon matches free text against a weighted indicator catalogue and a
// fixed set of sentiment and urgency patterns. Immutable after construction.
type Lexicon struct {
	indicators []RiskIndicator
	sentiment  []*regexp.Regexp
	urgency    map[string]struct{}
}

// NewLexicon builds a lexicon from an indicator catalogue. The catalogue is
// copied; callers cannot mutate it afterwards.
func NewLexicon(indicators []RiskIndicator) *Lexicon {
	l := &Lexicon{
		indicators: make([]RiskIndicator, len(indicators)),
		sentiment:  make([]*regexp.Regexp, 0, len(sentimentPatterns)),
		urgency:    make(map[string]struct{}, len(urgencyWords)),
	}
	copy(l.indicators, indicators)

	for _, p := range sentimentPatterns {
		l.sentiment = append(l.sentiment, regexp.MustCompile(p))
	}
	for _, w := range urgencyWords {
		l.urgency[w] = struct{}{}
	}
	return l
}

// DefaultLexicon returns the standard indicator catalogue
func DefaultLexicon() *Lexicon {
	return NewLexicon([]RiskIndicator{
		// suicide
		{Phrase: "kill myself", Weight: 10, Category: CategorySuicide},
		{Phrase: "end my life", Weight: 10, Category: CategorySuicide},
		{Phrase: "suicide", Weight: 9, Category: CategorySuicide},
		{Phrase: "want to die", Weight: 9, Category: CategorySuicide},
		{Phrase: "better off dead", Weight: 8, Category: CategorySuicide},
		{Phrase: "no reason to live", Weight: 8, Category: CategorySuicide},
		{Phrase: "end it all", Weight: 7, Category: CategorySuicide},

		// self harm
		{Phrase: "hurt myself", Weight: 8, Category: CategorySelfHarm},
		{Phrase: "cut myself", Weight: 8, Category: CategorySelfHarm},
		{Phrase: "self harm", Weight: 7, Category: CategorySelfHarm},
		{Phrase: "punish myself", Weight: 5, Category: CategorySelfHarm},

		// violence
		{Phrase: "kill them", Weight: 9, Category: CategoryViolence},
		{Phrase: "kill him", Weight: 9, Category: CategoryViolence},
		{Phrase: "kill her", Weight: 9, Category: CategoryViolence},
		{Phrase: "they deserve to suffer", Weight: 8, Category: CategoryViolence},
		{Phrase: "hurt them", Weight: 7, Category: CategoryViolence},
		{Phrase: "make them pay", Weight: 7, Category: CategoryViolence},

		// substance
		{Phrase: "overdose", Weight: 8, Category: CategorySubstance},
		{Phrase: "too many pills", Weight: 7, Category: CategorySubstance},
		{Phrase: "drink myself", Weight: 6, Category: CategorySubstance},
		{Phrase: "blackout", Weight: 4, Category: CategorySubstance},

		// emotional
		{Phrase: "no way out", Weight: 6, Category: CategoryEmotional},
		{Phrase: "hopeless", Weight: 5, Category: CategoryEmotional},
		{Phrase: "worthless", Weight: 5, Category: CategoryEmotional},
		{Phrase: "unbearable", Weight: 5, Category: CategoryEmotional},
		{Phrase: "empty inside", Weight: 4, Category: CategoryEmotional},
		{Phrase: "give up", Weight: 4, Category: CategoryEmotional},
	})
}

// textMatch is the outcome of matching one unit of text
type textMatch struct {
	score      float64
	indicators []RiskIndicator
	categories []Category
}

// Match scores free text against the catalogue. Empty text scores zero.
func (l *Lexicon) Match(text string) textMatch {
	var m textMatch
	if text == "" {
		return m
	}

	lower := strings.ToLower(text)

	for _, ind := range l.indicators {
		if strings.Contains(lower, ind.Phrase) {
			m.indicators = append(m.indicators, ind)
			m.categories = appendCategory(m.categories, ind.Category)
			m.score += float64(ind.Weight)
		}
	}

	for _, re := range l.sentiment {
		if re.MatchString(lower) {
			m.score += sentimentIncrement
			m.categories = appendCategory(m.categories, CategoryEmotional)
		}
	}

	// Urgency amplifies an existing match only; urgency alone is not a signal.
	if count := l.countUrgencyWords(lower); count > 0 && len(m.indicators) > 0 {
		m.score *= 1 + urgencyFactor*float64(count)
	}

	return m
}

// countUrgencyWords counts word-level occurrences of urgency terms
func (l *Lexicon) countUrgencyWords(lower string) int {
	count := 0
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, w := range words {
		if _, ok := l.urgency[w]; ok {
			count++
		}
	}
	return count
}

// appendCategory adds a category preserving detection order, without duplicates
func appendCategory(categories []Category, c Category) []Category {
	for _, existing := range categories {
		if existing == c {
			return categories
		}
	}
	return append(categories, c)
}
