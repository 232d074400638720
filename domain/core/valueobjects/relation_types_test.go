package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConceptRelationType_Reverse(t *testing.T) {
	pairs := map[ConceptRelationType]ConceptRelationType{
		ConceptRelGeneralizes: ConceptRelSpecificOf,
		ConceptRelPartOf:      ConceptRelHasPart,
		ConceptRelSupports:    ConceptRelSupportedBy,
	}
	for forward, backward := range pairs {
		assert.Equal(t, backward, forward.Reverse())
		assert.Equal(t, forward, backward.Reverse())
	}
}

func TestConceptRelationType_ReverseIsInvolution(t *testing.T) {
	all := []ConceptRelationType{
		ConceptRelGeneralizes, ConceptRelSpecificOf,
		ConceptRelPartOf, ConceptRelHasPart,
		ConceptRelSupports, ConceptRelSupportedBy,
		ConceptRelOpposes, ConceptRelSimilarTo, ConceptRelRelatesTo,
	}
	for _, relType := range all {
		assert.True(t, relType.Valid())
		assert.Equal(t, relType, relType.Reverse().Reverse(), "reverse of reverse must be identity for %s", relType)
	}
}

func TestConceptRelationType_IsSymmetric(t *testing.T) {
	assert.True(t, ConceptRelOpposes.IsSymmetric())
	assert.True(t, ConceptRelSimilarTo.IsSymmetric())
	assert.True(t, ConceptRelRelatesTo.IsSymmetric())
	assert.False(t, ConceptRelGeneralizes.IsSymmetric())
	assert.False(t, ConceptRelPartOf.IsSymmetric())
}

func TestConceptRelationType_Valid(t *testing.T) {
	assert.False(t, ConceptRelationType("CAUSES").Valid())
	assert.False(t, ConceptRelationType("").Valid())
}

func TestContentCategory_Valid(t *testing.T) {
	assert.True(t, ContentCategoryBook.Valid())
	assert.True(t, ContentCategoryMisc.Valid())
	assert.False(t, ContentCategory("PODCAST").Valid())
}
