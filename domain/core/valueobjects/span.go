package valueobjects

import (
	"fmt"
	"strings"

	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// Span locates an exact substring inside an immutable document. End is
// exclusive. The invariant is that Text equals the document substring at
// [Start, End) under case folding.
type Span struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// NewSpan creates a span with validation
func NewSpan(start, end int, text string) (Span, error) {
	s := Span{Start: start, End: end, Text: text}
	if err := s.Validate(); err != nil {
		return Span{}, err
	}
	return s, nil
}

// Validate checks the structural span invariants
func (s Span) Validate() error {
	if s.Start < 0 {
		return pkgerrors.NewValidation(fmt.Sprintf("span start %d is negative", s.Start))
	}
	if s.Start >= s.End {
		return pkgerrors.NewValidation(fmt.Sprintf("span start %d must be before end %d", s.Start, s.End))
	}
	if s.Text == "" {
		return pkgerrors.NewValidation("span text cannot be empty")
	}
	return nil
}

// MatchesDocument reports whether the span's text equals the document
// substring at its offsets, compared case-insensitively.
func (s Span) MatchesDocument(document string) bool {
	runes := []rune(document)
	if s.Start < 0 || s.End > len(runes) || s.Start >= s.End {
		return false
	}
	return strings.EqualFold(string(runes[s.Start:s.End]), s.Text)
}

// Equals checks if two spans are identical
func (s Span) Equals(other Span) bool {
	return s.Start == other.Start && s.End == other.End && s.Text == other.Text
}
