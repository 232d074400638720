package workflows

import (
	"fmt"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/pkg/codec"
)

// Activity timeouts per stage.
const (
	llmActivityTimeout    = 60 * time.Minute
	submitActivityTimeout = 1 * time.Minute
	humanGateTimeout      = 7 * 24 * time.Hour
	humanGateHeartbeat    = 2 * time.Minute
	dbWriteTimeout        = 5 * time.Minute
)

// llmRetryPolicy is shared by every LLM-backed activity: transient
// failures back off exponentially, capped, for at most three attempts.
var llmRetryPolicy = &temporal.RetryPolicy{
	InitialInterval:    2 * time.Second,
	BackoffCoefficient: 2.0,
	MaximumInterval:    5 * time.Minute,
	MaximumAttempts:    3,
	NonRetryableErrorTypes: []string{
		"ValidationFailure",
	},
}

// humanGateRetryPolicy lets a heartbeat-timed-out gate reschedule freely;
// the 7-day schedule-to-close is the only hard limit.
var humanGateRetryPolicy = &temporal.RetryPolicy{
	InitialInterval:    5 * time.Second,
	BackoffCoefficient: 2.0,
	MaximumInterval:    1 * time.Minute,
	MaximumAttempts:    0,
}

func llmOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: llmActivityTimeout,
		RetryPolicy:         llmRetryPolicy,
	})
}

func submitOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: submitActivityTimeout,
	})
}

func humanGateOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		ScheduleToCloseTimeout: humanGateTimeout,
		HeartbeatTimeout:       humanGateHeartbeat,
		RetryPolicy:            humanGateRetryPolicy,
	})
}

func dbWriteOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: dbWriteTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    1 * time.Minute,
			MaximumAttempts:    3,
			NonRetryableErrorTypes: []string{
				"ValidationFailure",
			},
		},
	})
}

// JournalPipelineInput starts one pipeline run. ConceptTaskQueue names the
// queue the drained concept child workflows run on; empty means the
// conventional default.
type JournalPipelineInput struct {
	Journal          *entities.JournalEntry `json:"journal"`
	ConceptTaskQueue string                 `json:"concept_task_queue,omitempty"`
}

// JournalPipelineResult is the terminal summary of one run
type JournalPipelineResult struct {
	State        PipelineState `json:"state"`
	EntityCount  int           `json:"entity_count"`
	ContentCount int           `json:"content_count"`
}

// JournalWorkflowID derives the deterministic workflow id for a journal
func JournalWorkflowID(journal *entities.JournalEntry) string {
	return fmt.Sprintf("journal-%s-%s", journal.DateString(), journal.UUID)
}

// ConceptWorkflowID derives the workflow id for a content's concept run
func ConceptWorkflowID(contentUUID string) string {
	return "concept-" + contentUUID
}

// JournalPipelineWorkflow drives one journal through the eight stages:
// extract entities, queue them for curation, wait for the human, extract
// feelings and relationships over the accepted set, queue and wait again,
// then write everything to the knowledge graph. Cancellation stops the
// workflow at the next suspension point; curation rows and already-written
// graph effects stay.
func JournalPipelineWorkflow(ctx workflow.Context, input JournalPipelineInput) (*JournalPipelineResult, error) {
	if input.Journal == nil || input.Journal.Text == "" {
		return nil, temporal.NewNonRetryableApplicationError("journal is missing or empty", "ValidationFailure", nil)
	}

	state := &pipelineState{
		Stage:        StageSubmitted,
		JournalEntry: input.Journal,
		CreatedAt:    workflow.Now(ctx),
		UpdatedAt:    workflow.Now(ctx),
	}
	if err := workflow.SetQueryHandler(ctx, StatusQuery, func() (PipelineState, error) {
		return state.snapshot(), nil
	}); err != nil {
		return nil, err
	}

	logger := workflow.GetLogger(ctx)
	var a *Activities

	advance := func(stage Stage) {
		state.Stage = stage
		state.UpdatedAt = workflow.Now(ctx)
	}
	fail := func(err error) error {
		state.ErrorCount++
		logger.Error("pipeline stage failed", "stage", state.Stage, "error", err)
		return err
	}

	// ENTITY_PROCESSING
	advance(StageEntityProcessing)
	err := workflow.ExecuteActivity(llmOptions(ctx), a.ExtractEntities, input.Journal).
		Get(ctx, &state.ExtractedEntities)
	if err != nil {
		return nil, fail(err)
	}

	// SUBMIT_ENTITY_CURATION
	advance(StageSubmitEntityCuration)
	err = workflow.ExecuteActivity(submitOptions(ctx), a.SubmitEntityCuration, SubmitEntityCurationInput{
		WorkflowID: workflow.GetInfo(ctx).WorkflowExecution.ID,
		Journal:    input.Journal,
		Items:      state.ExtractedEntities,
	}).Get(ctx, nil)
	if err != nil {
		return nil, fail(err)
	}

	// WAIT_ENTITY_CURATION
	advance(StageWaitEntityCuration)
	err = workflow.ExecuteActivity(humanGateOptions(ctx), a.WaitForEntityCuration, input.Journal.UUID).
		Get(ctx, &state.CuratedEntities)
	if err != nil {
		return nil, fail(err)
	}

	// RELATION_PROCESSING: feelings first, then relationships, both over the
	// curated entity set.
	advance(StageRelationProcessing)
	extractInput := ExtractOverCuratedInput{Journal: input.Journal, Curated: state.CuratedEntities}

	var feelings []codec.CuratableItem
	err = workflow.ExecuteActivity(llmOptions(ctx), a.ExtractFeelings, extractInput).Get(ctx, &feelings)
	if err != nil {
		return nil, fail(err)
	}
	var relationships []codec.CuratableItem
	err = workflow.ExecuteActivity(llmOptions(ctx), a.ExtractRelationships, extractInput).Get(ctx, &relationships)
	if err != nil {
		return nil, fail(err)
	}
	state.ExtractedCuratables = append(feelings, relationships...)

	// SUBMIT_RELATION_CURATION
	advance(StageSubmitRelationCuration)
	err = workflow.ExecuteActivity(submitOptions(ctx), a.SubmitRelationshipCuration, SubmitRelationshipCurationInput{
		WorkflowID:  workflow.GetInfo(ctx).WorkflowExecution.ID,
		JournalUUID: input.Journal.UUID,
		Items:       state.ExtractedCuratables,
	}).Get(ctx, nil)
	if err != nil {
		return nil, fail(err)
	}

	// WAIT_RELATION_CURATION
	advance(StageWaitRelationCuration)
	err = workflow.ExecuteActivity(humanGateOptions(ctx), a.WaitForRelationshipCuration, input.Journal.UUID).
		Get(ctx, &state.CuratedCuratables)
	if err != nil {
		return nil, fail(err)
	}

	// DB_WRITE: runs exactly once per workflow; node creation is not
	// idempotent, so this stage is never re-entered from an earlier stage.
	advance(StageDBWrite)
	var writeResult WriteToGraphResult
	err = workflow.ExecuteActivity(dbWriteOptions(ctx), a.WriteToKnowledgeGraph, WriteToGraphInput{
		Journal:       input.Journal,
		Entities:      state.CuratedEntities,
		Relationships: state.CuratedCuratables,
	}).Get(ctx, &writeResult)
	if err != nil {
		return nil, fail(err)
	}

	// Drain: each newly written Content entity gets its own concept
	// extraction workflow. Children are abandoned on parent close; their
	// 7-day human gate must not pin this workflow open.
	conceptQueue := input.ConceptTaskQueue
	if conceptQueue == "" {
		conceptQueue = DefaultConceptTaskQueue
	}
	for _, contentUUID := range writeResult.ContentUUIDs {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:        ConceptWorkflowID(contentUUID.String()),
			TaskQueue:         conceptQueue,
			ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_ABANDON,
		})
		child := workflow.ExecuteChildWorkflow(childCtx, ConceptExtractionWorkflow, ConceptExtractionInput{
			ContentUUID: contentUUID,
		})
		if err := child.GetChildWorkflowExecution().Get(ctx, nil); err != nil {
			// A duplicate id means a previous run already drained this
			// content; anything else is logged and skipped, never fatal.
			logger.Warn("concept child workflow not started", "content", contentUUID, "error", err)
		}
	}

	advance(StageCompleted)
	return &JournalPipelineResult{
		State:        state.snapshot(),
		EntityCount:  len(state.CuratedEntities),
		ContentCount: len(writeResult.ContentUUIDs),
	}, nil
}
