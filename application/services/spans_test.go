package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSpanHydrator_ExactMatch(t *testing.T) {
	hydrator := NewSpanHydrator(0, zap.NewNop())
	text := "Woke up late. Had coffee with Lucía at the bar near the rehearsal space."

	span, err := hydrator.Hydrate(text, "coffee with Lucía")
	require.NoError(t, err)
	require.NotNil(t, span)

	assert.Equal(t, "coffee with Lucía", span.Text)
	assert.True(t, span.MatchesDocument(text), "offsets must locate the text in the document")
}

func TestSpanHydrator_ExactMatchIsCaseInsensitive(t *testing.T) {
	hydrator := NewSpanHydrator(0, zap.NewNop())
	text := "We discussed the Goldberg Variations for an hour."

	span, err := hydrator.Hydrate(text, "goldberg variations")
	require.NoError(t, err)
	require.NotNil(t, span)
	assert.Equal(t, "Goldberg Variations", span.Text, "span text comes from the document, not the target")
}

func TestSpanHydrator_FuzzyMatch(t *testing.T) {
	hydrator := NewSpanHydrator(75, zap.NewNop())
	text := "After lunch I walked to the rehearsal space and ran the whole setlist twice."

	// The LLM misquotes slightly; the token-sort ratio still clears 75.
	span, err := hydrator.Hydrate(text, "walked to rehearsal space")
	require.NoError(t, err)
	require.NotNil(t, span)
	assert.True(t, span.MatchesDocument(text))
	assert.Contains(t, span.Text, "rehearsal space")
}

func TestSpanHydrator_DropsUnlocatable(t *testing.T) {
	hydrator := NewSpanHydrator(75, zap.NewNop())

	span, err := hydrator.Hydrate("Short entry about nothing in particular.", "quantum chromodynamics seminar")
	require.NoError(t, err)
	assert.Nil(t, span, "a miss is a drop, not an error")
}

func TestSpanHydrator_RejectsEmptyInput(t *testing.T) {
	hydrator := NewSpanHydrator(75, zap.NewNop())

	_, err := hydrator.Hydrate("", "target")
	assert.Error(t, err)
	_, err = hydrator.Hydrate("text", "")
	assert.Error(t, err)
}

func TestSpanHydrator_HydrateAll(t *testing.T) {
	hydrator := NewSpanHydrator(75, zap.NewNop())
	text := "Had coffee. Wrote a song. Slept badly."

	spans, err := hydrator.HydrateAll(text, []string{"Wrote a song", "sailed the Atlantic", "Slept badly"})
	require.NoError(t, err)
	require.Len(t, spans, 2, "unlocatable targets are dropped from the batch")
	for _, span := range spans {
		assert.True(t, span.MatchesDocument(text))
	}
}

func TestSpanHydrator_RuneOffsets(t *testing.T) {
	hydrator := NewSpanHydrator(0, zap.NewNop())
	text := "Überraschung! Lucía llegó temprano."

	span, err := hydrator.Hydrate(text, "llegó temprano")
	require.NoError(t, err)
	require.NotNil(t, span)
	assert.True(t, span.MatchesDocument(text), "multibyte prefixes must not shift the offsets")
}
