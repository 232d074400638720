package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

func TestEntityEnvelope_RoundTrip(t *testing.T) {
	person, err := entities.NewPerson("Lucía", "old friend", "Old friend from the conservatory.")
	require.NoError(t, err)
	person.Occupation = "violinist"

	raw, err := MarshalEntity(person)
	require.NoError(t, err)

	// The wire form is a tagged envelope.
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "person", env.Type)

	decoded, err := UnmarshalEntity(raw)
	require.NoError(t, err)
	got, ok := decoded.(*entities.Person)
	require.True(t, ok, "decoding restores the concrete type")
	assert.Equal(t, person.UUID, got.UUID)
	assert.Equal(t, "violinist", got.Occupation)
	assert.Equal(t, person.Core().Summary, got.Core().Summary)
}

func TestEntityEnvelope_PolymorphicList(t *testing.T) {
	person, err := entities.NewPerson("Alex", "", "")
	require.NoError(t, err)
	content, err := entities.NewContent("Gödel, Escher, Bach", "", "", valueobjects.ContentCategoryBook)
	require.NoError(t, err)

	raw, err := MarshalEntityList([]entities.Entity{person, content})
	require.NoError(t, err)

	decoded, err := UnmarshalEntityList(raw)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.Equal(t, entities.KindPerson, decoded[0].Kind())
	assert.Equal(t, entities.KindContent, decoded[1].Kind())
}

func TestUnmarshalEntity_UnknownTag(t *testing.T) {
	_, err := UnmarshalEntity([]byte(`{"type":"starship","data":{}}`))
	assert.Error(t, err)
	assert.False(t, KnownEntityKind("starship"))
}

func TestEntityWithSpans_RoundTrip(t *testing.T) {
	emotion, err := entities.NewEmotion("anxiety", "", "")
	require.NoError(t, err)
	item := EntityWithSpans{
		Entity: emotion,
		Spans:  []valueobjects.Span{{Start: 3, End: 10, Text: "anxious"}},
	}

	raw, err := json.Marshal(item)
	require.NoError(t, err)

	var got EntityWithSpans
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, emotion.UUID, got.Entity.ID())
	assert.Equal(t, entities.KindEmotion, got.Entity.Kind())
	require.Len(t, got.Spans, 1)
	assert.Equal(t, "anxious", got.Spans[0].Text)
}

func TestCuratableItem_RoundTrip(t *testing.T) {
	source := valueobjects.NewEntityID()
	target := valueobjects.NewEntityID()

	rel, err := entities.NewRelation(source, target, "INSPIRED_BY", []string{"INSPIRED_BY", "REFERENCES"})
	require.NoError(t, err)
	conceptRel, err := entities.NewConceptRelation(source, target, valueobjects.ConceptRelSupports)
	require.NoError(t, err)
	feeling, err := entities.NewFeelingEmotion("relief", source, target, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, feeling.SetIntensity(4))

	items := []CuratableItem{
		NewRelationItem(rel,
			[]valueobjects.Span{{Start: 0, End: 5, Text: "intro"}},
			[]RelationshipContext{{EntityUUID: source, SubType: []string{"musical"}}}),
		NewConceptRelationItem(conceptRel),
		NewFeelingEmotionItem(feeling, nil),
	}

	raw, err := json.Marshal(items)
	require.NoError(t, err)

	var got []CuratableItem
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 3)

	assert.Equal(t, CuratableRelation, got[0].Kind)
	require.NotNil(t, got[0].Relation)
	assert.Equal(t, rel.UUID, got[0].UUID())
	assert.Equal(t, []string{"INSPIRED_BY", "REFERENCES"}, got[0].Relation.ProposedTypes)
	require.Len(t, got[0].Context, 1)
	assert.Equal(t, source, got[0].Context[0].EntityUUID)

	assert.Equal(t, CuratableConceptRelation, got[1].Kind)
	require.NotNil(t, got[1].ConceptRelation)
	assert.Equal(t, valueobjects.ConceptRelSupports, got[1].ConceptRelation.Type)

	assert.Equal(t, CuratableFeelingEmotion, got[2].Kind)
	require.NotNil(t, got[2].FeelingEmotion)
	require.NotNil(t, got[2].FeelingEmotion.Intensity)
	assert.Equal(t, 4, *got[2].FeelingEmotion.Intensity)
}

func TestCuratableItem_UnknownKind(t *testing.T) {
	var item CuratableItem
	err := json.Unmarshal([]byte(`{"kind":"telepathy","data":{}}`), &item)
	assert.Error(t, err)
}
