package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// DefaultFuzzyThreshold is the minimum token-sort ratio for a fuzzy span
// match.
const DefaultFuzzyThreshold = 75

// SpanHydrator locates LLM-quoted snippets in the source text. The LLM
// proposes snippets; the hydrator finds them or drops them. Offsets are
// rune positions, never fabricated.
type SpanHydrator struct {
	threshold int
	logger    *zap.Logger
}

// NewSpanHydrator builds a hydrator; threshold <= 0 uses the default
func NewSpanHydrator(threshold int, logger *zap.Logger) *SpanHydrator {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &SpanHydrator{threshold: threshold, logger: logger}
}

// Hydrate locates one target snippet in the text: exact case-insensitive
// match first, then a windowed fuzzy match expanded to whole words. A nil
// span with nil error means the snippet could not be located and is
// dropped.
func (h *SpanHydrator) Hydrate(text, target string) (*valueobjects.Span, error) {
	if text == "" {
		return nil, pkgerrors.NewValidation("cannot hydrate spans against empty text")
	}
	if target == "" {
		return nil, pkgerrors.NewValidation("cannot hydrate an empty span target")
	}

	if span := exactMatch(text, target); span != nil {
		return span, nil
	}
	if span := h.fuzzyMatch(text, target); span != nil {
		return span, nil
	}
	h.logger.Debug("span dropped: no match in source text", zap.String("target", target))
	return nil, nil
}

// HydrateAll hydrates a batch of snippets, dropping misses
func (h *SpanHydrator) HydrateAll(text string, targets []string) ([]valueobjects.Span, error) {
	var spans []valueobjects.Span
	for _, target := range targets {
		span, err := h.Hydrate(text, target)
		if err != nil {
			return nil, err
		}
		if span != nil {
			spans = append(spans, *span)
		}
	}
	return spans, nil
}

// exactMatch finds the target as a case-insensitive substring and returns
// rune offsets into the original text
func exactMatch(text, target string) *valueobjects.Span {
	lowerText := strings.ToLower(text)
	lowerTarget := strings.ToLower(target)
	byteStart := strings.Index(lowerText, lowerTarget)
	if byteStart < 0 {
		return nil
	}
	start := utf8.RuneCountInString(lowerText[:byteStart])
	length := utf8.RuneCountInString(lowerTarget)
	runes := []rune(text)
	end := start + length
	if end > len(runes) {
		end = len(runes)
	}
	return &valueobjects.Span{Start: start, End: end, Text: string(runes[start:end])}
}

// word is one whitespace-delimited token with its rune offsets
type word struct {
	start, end int
}

func tokenizeWords(runes []rune) []word {
	var words []word
	inWord := false
	start := 0
	for i, r := range runes {
		if unicode.IsSpace(r) {
			if inWord {
				words = append(words, word{start: start, end: i})
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		words = append(words, word{start: start, end: len(runes)})
	}
	return words
}

// fuzzyMatch slides word windows close to the target's length over the
// text, scoring each with the token-sort ratio. The best window at or
// above the threshold wins; window edges are word boundaries already, so
// the result is whole words.
func (h *SpanHydrator) fuzzyMatch(text, target string) *valueobjects.Span {
	runes := []rune(text)
	words := tokenizeWords(runes)
	targetWords := len(strings.Fields(target))
	if targetWords == 0 || len(words) == 0 {
		return nil
	}

	bestScore := 0
	var best *valueobjects.Span
	for delta := -2; delta <= 2; delta++ {
		size := targetWords + delta
		if size < 1 || size > len(words) {
			continue
		}
		for i := 0; i+size <= len(words); i++ {
			start := words[i].start
			end := words[i+size-1].end
			window := string(runes[start:end])
			score := fuzzy.TokenSortRatio(window, target)
			if score >= h.threshold && score > bestScore {
				bestScore = score
				best = &valueobjects.Span{Start: start, End: end, Text: window}
			}
		}
	}
	return best
}
