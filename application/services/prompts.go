package services

import (
	"fmt"
	"strings"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/pkg/codec"
)

// entityPromptSpec is the per-type extraction instruction. The journal is
// written in Spanish with wiki-style links; the prompts keep the output
// contract language-neutral JSON.
type entityPromptSpec struct {
	noun        string
	instruction string
	extraFields string
}

var entityPrompts = map[entities.Kind]entityPromptSpec{
	entities.KindPerson: {
		noun:        "people",
		instruction: "Extract every real person mentioned in the journal entry. The narrator counts as a person.",
		extraFields: `"occupation": "...", "birth_date": "YYYY-MM-DD",`,
	},
	entities.KindEmotion: {
		noun:        "emotions",
		instruction: "Extract every named emotion the narrator or others experienced (joy, anxiety, calm...).",
	},
	entities.KindConcept: {
		noun:        "concepts",
		instruction: "Extract every abstract idea or theme the journal reflects on.",
	},
	entities.KindContent: {
		noun:        "content items",
		instruction: "Extract every book, article, video, movie, or other media the journal mentions consuming.",
		extraFields: `"title": "...", "category": "BOOK|ARTICLE|YOUTUBE|MOVIE|MISC", "author": "...", "url": "...",`,
	},
	entities.KindConsumable: {
		noun:        "consumables",
		instruction: "Extract every food, drink, or substance consumed.",
	},
	entities.KindPlace: {
		noun:        "places",
		instruction: "Extract every physical location the journal mentions.",
	},
	entities.KindEvent: {
		noun:        "events",
		instruction: "Extract every discrete event that happened (meetings, outings, incidents).",
		extraFields: `"category": "...", "date": "YYYY-MM-DD", "duration": "2h", "location": "...",`,
	},
	entities.KindProject: {
		noun:        "projects",
		instruction: "Extract every ongoing personal project or undertaking mentioned.",
	},
}

// extractionKinds is the order entity types are extracted in
var extractionKinds = []entities.Kind{
	entities.KindPerson,
	entities.KindEmotion,
	entities.KindConcept,
	entities.KindContent,
	entities.KindConsumable,
	entities.KindPlace,
	entities.KindEvent,
	entities.KindProject,
}

const entitySystemPrompt = `You are an information extraction engine for a personal knowledge graph.
You respond with a single JSON array and nothing else. Every "spans" entry
must be a literal quote copied from the journal text, never a paraphrase.`

func buildEntityPrompt(kind entities.Kind, journalText, glossary string) string {
	spec := entityPrompts[kind]
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", spec.instruction)
	if glossary != "" {
		b.WriteString(glossary)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, `Return a JSON array of %s:
[{"name": "...", %s "summary": "up to 100 words", "summary_short": "up to 30 words", "spans": ["literal quote from the text", ...]}]

Journal entry:
%s`, spec.noun, spec.extraFields, journalText)
	return b.String()
}

const mergeSystemPrompt = `You merge two descriptions of the same entity.
Respond with a single JSON object and nothing else.`

func buildMergePrompt(name, existingSummary, newSummary string) string {
	return fmt.Sprintf(`Merge these two summaries of "%s" into one coherent description.
Keep established facts from the existing summary; add what the new one contributes.

Existing summary:
%s

New summary:
%s

Return JSON: {"summary": "up to 100 words", "summary_short": "up to 30 words"}`,
		name, existingSummary, newSummary)
}

const hydrateSystemPrompt = `You write concise entity descriptions for a knowledge graph.
Respond with a single JSON object and nothing else.`

func buildHydratePrompt(name, journalText string) string {
	return fmt.Sprintf(`Describe the entity "%s" based on how it appears in this journal entry.

Journal entry:
%s

Return JSON: {"name": "%s", "summary": "up to 100 words", "summary_short": "up to 30 words"}`,
		name, journalText, name)
}

const relationshipSystemPrompt = `You extract relationships between known entities.
You respond with a single JSON array and nothing else. Use only the entity
UUIDs listed; never invent UUIDs. Every "spans" entry must be a literal
quote from the journal text.`

func buildRelationshipPrompt(journalText string, curated []codec.EntityWithSpans) string {
	var b strings.Builder
	b.WriteString("Extract relationships between the entities below, based only on the journal entry.\n\nEntities:\n")
	writeEntityCatalog(&b, curated)
	fmt.Fprintf(&b, `
Return a JSON array:
[{"source_uuid": "...", "target_uuid": "...", "type": "WORKS_WITH", "proposed_types": ["...", ...], "summary": "...", "summary_short": "...", "spans": ["literal quote", ...], "context": [{"entity_uuid": "...", "sub_type": ["..."]}]}]

Journal entry:
%s`, journalText)
	return b.String()
}

const feelingSystemPrompt = `You extract feelings: a person experiencing an emotion, or a person's
feeling about a concept. You respond with a single JSON array and nothing
else. Use only the UUIDs listed.`

func buildFeelingPrompt(journalText, date string, persons, emotions, concepts []codec.EntityWithSpans) string {
	var b strings.Builder
	b.WriteString("Extract feelings from the journal entry.\n\nPeople:\n")
	writeEntityCatalog(&b, persons)
	if len(emotions) > 0 {
		b.WriteString("\nEmotions:\n")
		writeEntityCatalog(&b, emotions)
	}
	if len(concepts) > 0 {
		b.WriteString("\nConcepts:\n")
		writeEntityCatalog(&b, concepts)
	}
	fmt.Fprintf(&b, `
The journal is dated %s; timestamps default to that date.
Return a JSON array:
[{"person_uuid": "...", "emotion_uuid": "... or omit", "concept_uuid": "... or omit", "name": "short label", "timestamp": "YYYY-MM-DDTHH:MM:SSZ", "intensity": 1-10 or omit, "duration": "2h or 140s or 1:30 or omit", "spans": ["literal quote", ...]}]

Journal entry:
%s`, date, journalText)
	return b.String()
}

func writeEntityCatalog(b *strings.Builder, items []codec.EntityWithSpans) {
	for _, item := range items {
		core := item.Entity.Core()
		fmt.Fprintf(b, "- %s (%s) uuid=%s: %s\n", core.Name, item.Entity.Kind(), core.UUID, core.SummaryShort)
	}
}
