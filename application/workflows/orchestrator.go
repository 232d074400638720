package workflows

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/domain/core/entities"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// Task queue names. Conventional defaults; override through config.
const (
	DefaultTaskQueue        = "minerva-pipeline"
	DefaultConceptTaskQueue = "minerva-concepts"
)

// Orchestrator is the typed facade the HTTP/CLI layers use to drive the
// pipeline. It owns no state beyond the Temporal client handle.
type Orchestrator struct {
	client           client.Client
	taskQueue        string
	conceptTaskQueue string
	validate         *validator.Validate
	logger           *zap.Logger
}

// NewOrchestrator builds the facade. Empty queue names fall back to the
// conventional defaults.
func NewOrchestrator(c client.Client, taskQueue, conceptTaskQueue string, logger *zap.Logger) *Orchestrator {
	if taskQueue == "" {
		taskQueue = DefaultTaskQueue
	}
	if conceptTaskQueue == "" {
		conceptTaskQueue = DefaultConceptTaskQueue
	}
	return &Orchestrator{
		client:           c,
		taskQueue:        taskQueue,
		conceptTaskQueue: conceptTaskQueue,
		validate:         validator.New(),
		logger:           logger,
	}
}

// submitPayload is the validated shape of a journal submission
type submitPayload struct {
	UUID string `validate:"required,uuid4"`
	Date string `validate:"required,datetime=2006-01-02"`
	Text string `validate:"required,min=1"`
}

// SubmitJournal starts a pipeline workflow for the journal. The workflow
// id is journal-{date}-{uuid}; resubmitting the same journal returns the
// id of the already-running workflow instead of failing.
func (o *Orchestrator) SubmitJournal(ctx context.Context, journal *entities.JournalEntry) (string, error) {
	if journal == nil {
		return "", pkgerrors.NewValidation("journal is required")
	}
	payload := submitPayload{
		UUID: journal.UUID.String(),
		Date: journal.DateString(),
		Text: journal.Text,
	}
	if err := o.validate.Struct(payload); err != nil {
		return "", pkgerrors.NewValidation("invalid journal submission: " + err.Error())
	}

	workflowID := JournalWorkflowID(journal)
	run, err := o.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}, JournalPipelineWorkflow, JournalPipelineInput{
		Journal:          journal,
		ConceptTaskQueue: o.conceptTaskQueue,
	})

	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		o.logger.Info("journal already submitted", zap.String("workflow", workflowID))
		return workflowID, nil
	}
	if err != nil {
		return "", pkgerrors.NewUnavailable("start pipeline workflow", err)
	}

	o.logger.Info("journal submitted",
		zap.String("workflow", run.GetID()),
		zap.String("run", run.GetRunID()))
	return run.GetID(), nil
}

// StartConceptExtraction starts a concept workflow for a content entity
// outside the journal drain (operator-triggered backfills). Idempotent on
// the concept-{uuid} id.
func (o *Orchestrator) StartConceptExtraction(ctx context.Context, content *entities.Content) (string, error) {
	if content == nil || content.UUID.IsEmpty() {
		return "", pkgerrors.NewValidation("content with a uuid is required")
	}
	workflowID := ConceptWorkflowID(content.UUID.String())
	run, err := o.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.conceptTaskQueue,
	}, ConceptExtractionWorkflow, ConceptExtractionInput{ContentUUID: content.UUID})

	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return workflowID, nil
	}
	if err != nil {
		return "", pkgerrors.NewUnavailable("start concept workflow", err)
	}
	return run.GetID(), nil
}

// GetPipelineStatus queries the workflow's redacted state snapshot. The
// query never blocks the workflow; it is answered between suspension
// points.
func (o *Orchestrator) GetPipelineStatus(ctx context.Context, workflowID string) (*PipelineState, error) {
	response, err := o.client.QueryWorkflow(ctx, workflowID, "", StatusQuery)
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return nil, pkgerrors.NewNotFound("no pipeline workflow " + workflowID)
		}
		return nil, pkgerrors.NewUnavailable("query pipeline status", err)
	}
	var state PipelineState
	if err := response.Get(&state); err != nil {
		return nil, pkgerrors.NewInternal("decode pipeline status", err)
	}
	return &state, nil
}

// CancelWorkflow requests cooperative cancellation. Pending curation rows
// and graph effects written so far are preserved; the store stays
// authoritative for post-cancel operator decisions.
func (o *Orchestrator) CancelWorkflow(ctx context.Context, workflowID string) (bool, error) {
	err := o.client.CancelWorkflow(ctx, workflowID, "")
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, pkgerrors.NewUnavailable("cancel pipeline workflow", err)
	}
	o.logger.Info("pipeline workflow canceled", zap.String("workflow", workflowID))
	return true, nil
}

// HealthCheck round-trips to the workflow backend
func (o *Orchestrator) HealthCheck(ctx context.Context) bool {
	_, err := o.client.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err == nil
}
