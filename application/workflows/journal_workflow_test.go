package workflows

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
)

func testJournal(t *testing.T) *entities.JournalEntry {
	t.Helper()
	journal, err := entities.NewJournalEntry(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), "Had coffee with Lucía.")
	require.NoError(t, err)
	return journal
}

func testCuratedEntities(t *testing.T) []codec.EntityWithSpans {
	t.Helper()
	person, err := entities.NewPerson("Lucía", "", "")
	require.NoError(t, err)
	emotion, err := entities.NewEmotion("calm", "", "")
	require.NoError(t, err)
	return []codec.EntityWithSpans{{Entity: person}, {Entity: emotion}}
}

func TestJournalPipelineWorkflow_HappyPath(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	var a *Activities

	journal := testJournal(t)
	curated := testCuratedEntities(t)

	feeling, err := entities.NewFeelingEmotion("calm after coffee",
		curated[0].Entity.ID(), curated[1].Entity.ID(), journal.Date)
	require.NoError(t, err)
	rel, err := entities.NewRelation(curated[0].Entity.ID(), curated[1].Entity.ID(), "FELT", nil)
	require.NoError(t, err)
	feelingItems := []codec.CuratableItem{codec.NewFeelingEmotionItem(feeling, nil)}
	relationItems := []codec.CuratableItem{codec.NewRelationItem(rel, nil, nil)}

	env.OnActivity(a.ExtractEntities, mock.Anything, mock.Anything).Return(curated, nil).Once()
	env.OnActivity(a.SubmitEntityCuration, mock.Anything, mock.Anything).Return(nil).Once()
	env.OnActivity(a.WaitForEntityCuration, mock.Anything, journal.UUID).Return(curated, nil).Once()
	env.OnActivity(a.ExtractFeelings, mock.Anything, mock.Anything).Return(feelingItems, nil).Once()
	env.OnActivity(a.ExtractRelationships, mock.Anything, mock.Anything).Return(relationItems, nil).Once()
	env.OnActivity(a.SubmitRelationshipCuration, mock.Anything, mock.Anything).Return(nil).Once()
	env.OnActivity(a.WaitForRelationshipCuration, mock.Anything, journal.UUID).
		Return(append(feelingItems, relationItems...), nil).Once()
	env.OnActivity(a.WriteToKnowledgeGraph, mock.Anything, mock.Anything).
		Return(&WriteToGraphResult{EntityCount: 2, RelationCount: 1, FeelingCount: 1}, nil).Once()

	env.ExecuteWorkflow(JournalPipelineWorkflow, JournalPipelineInput{Journal: journal})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result JournalPipelineResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, StageCompleted, result.State.Stage)
	assert.Zero(t, result.State.ErrorCount)
	assert.Equal(t, 2, result.EntityCount)
	assert.Equal(t, 2, result.State.CuratedEntityCount)
	assert.Equal(t, 2, result.State.CuratedRelationshipCount)
	assert.Zero(t, result.ContentCount)

	env.AssertExpectations(t)
}

func TestJournalPipelineWorkflow_StartsConceptChildren(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ConceptExtractionWorkflow)
	var a *Activities

	journal := testJournal(t)
	curated := testCuratedEntities(t)
	contentUUID := valueobjects.NewEntityID()

	env.OnActivity(a.ExtractEntities, mock.Anything, mock.Anything).Return(curated, nil)
	env.OnActivity(a.SubmitEntityCuration, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.WaitForEntityCuration, mock.Anything, journal.UUID).Return(curated, nil)
	env.OnActivity(a.ExtractFeelings, mock.Anything, mock.Anything).Return(nil, nil)
	env.OnActivity(a.ExtractRelationships, mock.Anything, mock.Anything).Return(nil, nil)
	env.OnActivity(a.SubmitRelationshipCuration, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.WaitForRelationshipCuration, mock.Anything, journal.UUID).Return(nil, nil)
	env.OnActivity(a.WriteToKnowledgeGraph, mock.Anything, mock.Anything).
		Return(&WriteToGraphResult{EntityCount: 2, ContentUUIDs: []valueobjects.EntityID{contentUUID}}, nil)

	env.OnWorkflow(ConceptExtractionWorkflow, mock.Anything, ConceptExtractionInput{ContentUUID: contentUUID}).
		Return(&ConceptExtractionResult{ContentUUID: contentUUID, Skipped: true}, nil).Once()

	env.ExecuteWorkflow(JournalPipelineWorkflow, JournalPipelineInput{Journal: journal})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result JournalPipelineResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Equal(t, 1, result.ContentCount)
	env.AssertExpectations(t)
}

func TestJournalPipelineWorkflow_ExtractionFailureFailsRun(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()
	var a *Activities

	env.OnActivity(a.ExtractEntities, mock.Anything, mock.Anything).
		Return(nil, temporal.NewNonRetryableApplicationError("journal text cannot be empty", "ValidationFailure", nil))

	env.ExecuteWorkflow(JournalPipelineWorkflow, JournalPipelineInput{Journal: testJournal(t)})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ValidationFailure", appErr.Type())
}

func TestJournalPipelineWorkflow_RejectsEmptyJournal(t *testing.T) {
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	env.ExecuteWorkflow(JournalPipelineWorkflow, JournalPipelineInput{})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
}

func TestJournalWorkflowID(t *testing.T) {
	journal := testJournal(t)
	id := JournalWorkflowID(journal)
	assert.Equal(t, "journal-2024-05-03-"+journal.UUID.String(), id)

	assert.Equal(t, "concept-abc", ConceptWorkflowID("abc"))
}

func TestPipelineState_SnapshotRedactsItems(t *testing.T) {
	journal := testJournal(t)
	state := &pipelineState{
		Stage:             StageWaitEntityCuration,
		JournalEntry:      journal,
		ExtractedEntities: testCuratedEntities(t),
		ErrorCount:        1,
	}

	snap := state.snapshot()
	assert.Equal(t, StageWaitEntityCuration, snap.Stage)
	assert.Equal(t, journal.UUID, snap.JournalUUID)
	assert.Equal(t, "2024-05-03", snap.JournalDate)
	assert.Equal(t, 2, snap.ExtractedEntityCount)
	assert.Equal(t, 1, snap.ErrorCount)
}
