package workflows

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

func testContentWithQuotes(t *testing.T) *ConceptSourceMaterial {
	t.Helper()
	content, err := entities.NewContent("Gödel, Escher, Bach", "", "", valueobjects.ContentCategoryBook)
	require.NoError(t, err)
	quote, err := entities.NewQuote("The self is a strange loop.", "", "p. 709")
	require.NoError(t, err)
	return &ConceptSourceMaterial{Content: content, Quotes: []*entities.Quote{quote}}
}

func TestConceptExtractionWorkflow_HappyPath(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	var a *Activities

	material := testContentWithQuotes(t)
	contentUUID := material.Content.UUID

	concept, err := entities.NewConcept("strange loop", "", "self-referential hierarchy")
	require.NoError(t, err)
	candidates := []*entities.Concept{concept}

	relation, err := entities.NewConceptRelation(concept.UUID, valueobjects.NewEntityID(), valueobjects.ConceptRelRelatesTo)
	require.NoError(t, err)

	env.OnActivity(a.LoadContentQuotes, mock.Anything, contentUUID).Return(material, nil).Once()
	env.OnActivity(a.ExtractCandidateConcepts, mock.Anything, mock.Anything).Return(candidates, nil).Once()
	env.OnActivity(a.DetectConceptDuplicates, mock.Anything, mock.Anything).
		Return(&ConceptDuplicateSplit{Fresh: candidates}, nil).Once()
	env.OnActivity(a.CritiqueAndRefineConcepts, mock.Anything, mock.Anything).Return(candidates, nil).Once()
	env.OnActivity(a.DiscoverConceptRelations, mock.Anything, mock.Anything).
		Return([]*entities.ConceptRelation{relation}, nil).Once()
	env.OnActivity(a.SubmitConceptCuration, mock.Anything, mock.Anything).Return(nil).Once()
	env.OnActivity(a.WaitForConceptCuration, mock.Anything, contentUUID).
		Return(&ConceptCurationResult{Concepts: candidates, Relations: []*entities.ConceptRelation{relation}}, nil).Once()
	env.OnActivity(a.WriteConceptGraph, mock.Anything, mock.Anything).
		Return(&ConceptWriteOutcome{ConceptCount: 1, RelationCount: 1, SupportCount: 1}, nil).Once()

	env.ExecuteWorkflow(ConceptExtractionWorkflow, ConceptExtractionInput{ContentUUID: contentUUID})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ConceptExtractionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, contentUUID, result.ContentUUID)
	assert.Equal(t, 1, result.ConceptCount)
	assert.Equal(t, 1, result.RelationCount)
	assert.False(t, result.Skipped)

	env.AssertExpectations(t)
}

func TestConceptExtractionWorkflow_NoQuotesSkips(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	var a *Activities

	content, err := entities.NewContent("article without quotes", "", "", valueobjects.ContentCategoryArticle)
	require.NoError(t, err)

	env.OnActivity(a.LoadContentQuotes, mock.Anything, content.UUID).
		Return(&ConceptSourceMaterial{Content: content}, nil).Once()
	env.OnActivity(a.MarkContentProcessed, mock.Anything, content.UUID).Return(nil).Once()

	env.ExecuteWorkflow(ConceptExtractionWorkflow, ConceptExtractionInput{ContentUUID: content.UUID})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ConceptExtractionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.Skipped)

	env.AssertExpectations(t)
}

func TestConceptExtractionWorkflow_DuplicatesOnlySkipCuration(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	var a *Activities

	material := testContentWithQuotes(t)
	contentUUID := material.Content.UUID
	existingUUID := valueobjects.NewEntityID()

	concept, err := entities.NewConcept("strange loop", "", "")
	require.NoError(t, err)

	env.OnActivity(a.LoadContentQuotes, mock.Anything, contentUUID).Return(material, nil).Once()
	env.OnActivity(a.ExtractCandidateConcepts, mock.Anything, mock.Anything).
		Return([]*entities.Concept{concept}, nil).Once()
	env.OnActivity(a.DetectConceptDuplicates, mock.Anything, mock.Anything).
		Return(&ConceptDuplicateSplit{ExistingUUIDs: []valueobjects.EntityID{existingUUID}}, nil).Once()
	// No curation gate when nothing fresh survives the split; the write still
	// runs so the existing concept picks up SUPPORTS edges from the quotes.
	env.OnActivity(a.WriteConceptGraph, mock.Anything, WriteConceptGraphInput{
		ContentUUID:   contentUUID,
		QuoteUUIDs:    material.QuoteUUIDs(),
		ExistingUUIDs: []valueobjects.EntityID{existingUUID},
	}).Return(&ConceptWriteOutcome{SupportCount: 1}, nil).Once()

	env.ExecuteWorkflow(ConceptExtractionWorkflow, ConceptExtractionInput{ContentUUID: contentUUID})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ConceptExtractionResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.True(t, result.Skipped)
	assert.Zero(t, result.ConceptCount)

	env.AssertExpectations(t)
}

func TestConceptExtractionWorkflow_RequiresContentUUID(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	env.ExecuteWorkflow(ConceptExtractionWorkflow, ConceptExtractionInput{})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}
