package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// scriptedLLM answers prompts by substring rules; anything unmatched gets an
// empty JSON array.
type scriptedLLM struct {
	rules []llmRule
	calls int
}

type llmRule struct {
	match    string
	response string
}

func (c *scriptedLLM) Generate(_ context.Context, req ports.GenerateRequest) (string, error) {
	c.calls++
	for _, rule := range c.rules {
		if strings.Contains(req.Prompt, rule.match) {
			return rule.response, nil
		}
	}
	return "[]", nil
}

// fakeGraphReader serves entities from a fixed map; anything else is NotFound.
type fakeGraphReader struct {
	byID map[valueobjects.EntityID]entities.Entity
}

func (g *fakeGraphReader) FindEntity(_ context.Context, _ entities.Kind, id valueobjects.EntityID) (entities.Entity, error) {
	if e, ok := g.byID[id]; ok {
		return e, nil
	}
	return nil, pkgerrors.NewNotFound("no entity " + id.String())
}

func newTestJournal(t *testing.T, text string) *entities.JournalEntry {
	t.Helper()
	journal, err := entities.NewJournalEntry(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), text)
	require.NoError(t, err)
	return journal
}

func newTestExtraction(client ports.LLMClient, resolver ports.LinkResolver, graph GraphReader) *ExtractionService {
	logger := zap.NewNop()
	return NewExtractionService(client, resolver, graph, NewSpanHydrator(75, logger), logger)
}

func TestExtractEntities_DedupWithinType(t *testing.T) {
	// "Lu" is an alias of Lucía Fernández in the link index, so the two
	// candidates collapse into one. "Flow" appears as both a concept and a
	// person name; cross-type collisions must survive.
	client := &scriptedLLM{rules: []llmRule{
		{match: "Extract every real person", response: `[
			{"name": "Lucía", "summary": "violinist", "summary_short": "violinist", "spans": ["coffee with Lucía"]},
			{"name": "Lu", "summary": "violinist again", "summary_short": "", "spans": []},
			{"name": "Flow", "summary": "a person called Flow", "summary_short": "", "spans": []}
		]`},
		{match: "Extract every abstract idea", response: `[
			{"name": "Flow", "summary": "the state of absorption", "summary_short": "", "spans": []}
		]`},
	}}
	resolver := &fakeResolver{notes: map[string]*ports.LinkedNote{
		"Lucía": {EntityName: "Lucía", CanonicalName: "Lucía Fernández", Aliases: []string{"Lu"}},
	}}
	svc := newTestExtraction(client, resolver, &fakeGraphReader{})

	items, err := svc.ExtractEntities(context.Background(), newTestJournal(t, "Had coffee with [[Lucía]]."))
	require.NoError(t, err)

	var names []string
	for _, item := range items {
		names = append(names, string(item.Entity.Kind())+":"+item.Entity.Core().Name)
	}
	assert.ElementsMatch(t, []string{
		"person:Lucía Fernández",
		"person:Flow",
		"concept:Flow",
	}, names)
}

func TestExtractEntities_SpansAreHydrated(t *testing.T) {
	client := &scriptedLLM{rules: []llmRule{
		{match: "Extract every real person", response: `[
			{"name": "Lucía", "summary": "", "summary_short": "", "spans": ["coffee with Lucía", "not in the text at all whatsoever"]}
		]`},
	}}
	resolver := &fakeResolver{notes: map[string]*ports.LinkedNote{}}
	svc := newTestExtraction(client, resolver, &fakeGraphReader{})
	text := "Had coffee with Lucía at the usual bar."

	items, err := svc.ExtractEntities(context.Background(), newTestJournal(t, text))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Len(t, items[0].Spans, 1, "unlocatable spans are dropped")
	assert.True(t, items[0].Spans[0].MatchesDocument(text))
}

func TestExtractEntities_MergesWithExistingGraphEntity(t *testing.T) {
	existing, err := entities.NewPerson("Lucía Fernández", "old friend", "Old friend from the conservatory.")
	require.NoError(t, err)

	client := &scriptedLLM{rules: []llmRule{
		{match: "Extract every real person", response: `[
			{"name": "Lucía", "summary": "played a show together", "summary_short": "", "spans": []}
		]`},
		{match: "Merge these two summaries", response: `{"summary": "Old friend; we played a show together.", "summary_short": "old friend, bandmate"}`},
	}}
	resolver := &fakeResolver{notes: map[string]*ports.LinkedNote{
		"Lucía": {EntityName: "Lucía", CanonicalName: "Lucía Fernández", EntityID: &existing.UUID},
	}}
	graph := &fakeGraphReader{byID: map[valueobjects.EntityID]entities.Entity{existing.UUID: existing}}
	svc := newTestExtraction(client, resolver, graph)

	items, err := svc.ExtractEntities(context.Background(), newTestJournal(t, "Show with [[Lucía]]."))
	require.NoError(t, err)
	require.Len(t, items, 1)

	core := items[0].Entity.Core()
	assert.Equal(t, existing.UUID, core.UUID, "the existing node's uuid is preserved")
	assert.Equal(t, "Old friend; we played a show together.", core.Summary)
	assert.Equal(t, "old friend, bandmate", core.SummaryShort)
}

func TestExtractEntities_HydratesVaultOnlyEntity(t *testing.T) {
	// The vault knows the UUID but the graph has no node yet; the candidate
	// is re-hydrated under the vault's uuid instead of a fresh one.
	vaultID := valueobjects.NewEntityID()
	client := &scriptedLLM{rules: []llmRule{
		{match: "Extract every real person", response: `[
			{"name": "Lucía", "summary": "short note", "summary_short": "", "spans": []}
		]`},
		{match: "Describe the entity", response: `{"name": "Lucía Fernández", "summary": "Violinist; met for coffee.", "summary_short": "violinist"}`},
	}}
	resolver := &fakeResolver{notes: map[string]*ports.LinkedNote{
		"Lucía": {EntityName: "Lucía", CanonicalName: "Lucía Fernández", EntityID: &vaultID},
	}}
	svc := newTestExtraction(client, resolver, &fakeGraphReader{})

	items, err := svc.ExtractEntities(context.Background(), newTestJournal(t, "Coffee with [[Lucía]]."))
	require.NoError(t, err)
	require.Len(t, items, 1)

	core := items[0].Entity.Core()
	assert.Equal(t, vaultID, core.UUID)
	assert.Equal(t, "Violinist; met for coffee.", core.Summary)
}

func TestExtractEntities_EmptyJournal(t *testing.T) {
	svc := newTestExtraction(&scriptedLLM{}, &fakeResolver{}, &fakeGraphReader{})
	_, err := svc.ExtractEntities(context.Background(), nil)
	assert.Error(t, err)
}
