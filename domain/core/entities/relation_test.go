package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

func TestNewRelation(t *testing.T) {
	source := valueobjects.NewEntityID()
	target := valueobjects.NewEntityID()

	rel, err := NewRelation(source, target, "WORKS_WITH", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"WORKS_WITH"}, rel.ProposedTypes, "chosen type backfills proposed_types")

	_, err = NewRelation("", target, "WORKS_WITH", nil)
	assert.Error(t, err)
	_, err = NewRelation(source, target, "", nil)
	assert.Error(t, err)
}

func TestConceptRelation_Reversed(t *testing.T) {
	source := valueobjects.NewEntityID()
	target := valueobjects.NewEntityID()

	rel, err := NewConceptRelation(source, target, valueobjects.ConceptRelPartOf)
	require.NoError(t, err)

	rev := rel.Reversed()
	assert.Equal(t, target, rev.SourceUUID)
	assert.Equal(t, source, rev.TargetUUID)
	assert.Equal(t, valueobjects.ConceptRelHasPart, rev.Type)
	assert.NotEqual(t, rel.UUID, rev.UUID, "the reverse edge is a distinct node")

	// Reversing twice yields an edge equivalent to the original.
	back := rev.Reversed()
	assert.Equal(t, rel.SourceUUID, back.SourceUUID)
	assert.Equal(t, rel.TargetUUID, back.TargetUUID)
	assert.Equal(t, rel.Type, back.Type)
}

func TestNewConceptRelation_RejectsUnknownType(t *testing.T) {
	_, err := NewConceptRelation(valueobjects.NewEntityID(), valueobjects.NewEntityID(), "CAUSES")
	assert.Error(t, err)
}

func TestFeelingEmotion_SetIntensity(t *testing.T) {
	feeling, err := NewFeelingEmotion("dread before the show",
		valueobjects.NewEntityID(), valueobjects.NewEntityID(), time.Now())
	require.NoError(t, err)

	require.NoError(t, feeling.SetIntensity(7))
	require.NotNil(t, feeling.Intensity)
	assert.Equal(t, 7, *feeling.Intensity)

	assert.Error(t, feeling.SetIntensity(0))
	assert.Error(t, feeling.SetIntensity(11))
	assert.Equal(t, 7, *feeling.Intensity, "rejected values leave the previous intensity")
}

func TestNewFeelingEmotion_RequiresEndpoints(t *testing.T) {
	_, err := NewFeelingEmotion("x", "", valueobjects.NewEntityID(), time.Now())
	assert.Error(t, err)
	_, err = NewFeelingEmotion("x", valueobjects.NewEntityID(), "", time.Now())
	assert.Error(t, err)
}
