package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// fakeResolver resolves from a fixed map; unknown links return NotFound.
type fakeResolver struct {
	notes map[string]*ports.LinkedNote
	calls []string
}

func (r *fakeResolver) ResolveLink(_ context.Context, linkText string) (*ports.LinkedNote, error) {
	r.calls = append(r.calls, linkText)
	if note, ok := r.notes[linkText]; ok {
		return note, nil
	}
	return nil, pkgerrors.NewNotFound("no note for " + linkText)
}

func TestParseWikiLinks(t *testing.T) {
	text := "Saw [[Lucía]] and [[Juan Pérez|Juan]] at [[Café Vinilo]]. [[Lucía]] left early."

	links := ParseWikiLinks(text)
	assert.Equal(t, []string{"Lucía", "Juan Pérez", "Café Vinilo"}, links,
		"unique targets in order of first appearance; alias form resolves to the target")
}

func TestParseWikiLinks_NoLinks(t *testing.T) {
	assert.Empty(t, ParseWikiLinks("a plain entry with no links"))
}

func TestBuildLinkIndex(t *testing.T) {
	luciaID := valueobjects.NewEntityID()
	resolver := &fakeResolver{notes: map[string]*ports.LinkedNote{
		"Lucía": {
			EntityName:    "Lucía",
			CanonicalName: "Lucía Fernández",
			Aliases:       []string{"Lu"},
			EntityID:      &luciaID,
			ShortSummary:  "violinist, old friend",
		},
		Narrator: {EntityName: Narrator, CanonicalName: Narrator},
	}}

	index, err := BuildLinkIndex(context.Background(), resolver, "Coffee with [[Lucía]].", zap.NewNop())
	require.NoError(t, err)

	// One resolver call per unique link, narrator always included.
	assert.Equal(t, []string{"Lucía", Narrator}, resolver.calls)

	// Lookup works by link text, canonical name, and alias, case-folded.
	for _, key := range []string{"Lucía", "lucía fernández", "lu", "LU"} {
		note, ok := index.Lookup(key)
		require.True(t, ok, "lookup by %q", key)
		assert.Equal(t, "Lucía Fernández", note.CanonicalName)
	}

	assert.Equal(t, "Lucía Fernández", index.CanonicalName("Lu"))
	assert.Equal(t, "Someone Else", index.CanonicalName("  Someone Else "), "unknown names pass through trimmed")

	glossary := index.Glossary()
	assert.Contains(t, glossary, "Lucía Fernández: violinist, old friend")
	assert.Contains(t, glossary, Narrator)
}

func TestBuildLinkIndex_ResolutionFailureFallsBack(t *testing.T) {
	resolver := &fakeResolver{notes: map[string]*ports.LinkedNote{}}

	index, err := BuildLinkIndex(context.Background(), resolver, "Met [[Unknown Person]].", zap.NewNop())
	require.NoError(t, err, "a failed resolution must not fail the index")

	note, ok := index.Lookup("Unknown Person")
	require.True(t, ok)
	assert.Equal(t, "Unknown Person", note.CanonicalName)
	assert.Nil(t, note.EntityID)
}
