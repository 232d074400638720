package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpan(t *testing.T) {
	span, err := NewSpan(5, 10, "hello")
	require.NoError(t, err)
	assert.Equal(t, 5, span.Start)
	assert.Equal(t, 10, span.End)
	assert.Equal(t, "hello", span.Text)
}

func TestNewSpan_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		text       string
	}{
		{"negative start", -1, 5, "x"},
		{"start equals end", 5, 5, "x"},
		{"start after end", 9, 3, "x"},
		{"empty text", 0, 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSpan(tt.start, tt.end, tt.text)
			assert.Error(t, err)
		})
	}
}

func TestSpan_MatchesDocument(t *testing.T) {
	doc := "I talked to María about the project"

	span := Span{Start: 12, End: 17, Text: "María"}
	assert.True(t, span.MatchesDocument(doc), "offsets are rune positions, not bytes")

	// Comparison is case-insensitive.
	folded := Span{Start: 12, End: 17, Text: "maría"}
	assert.True(t, folded.MatchesDocument(doc))

	wrong := Span{Start: 0, End: 5, Text: "María"}
	assert.False(t, wrong.MatchesDocument(doc))

	outOfRange := Span{Start: 30, End: 99, Text: "project"}
	assert.False(t, outOfRange.MatchesDocument(doc))
}
