package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

// ConceptExtractionInput starts a concept run for one content entity
type ConceptExtractionInput struct {
	ContentUUID valueobjects.EntityID `json:"content_uuid"`
}

// ConceptExtractionResult is the terminal summary of a concept run
type ConceptExtractionResult struct {
	ContentUUID   valueobjects.EntityID `json:"content_uuid"`
	ConceptCount  int                   `json:"concept_count"`
	RelationCount int                   `json:"relation_count"`
	Skipped       bool                  `json:"skipped"`
}

const conceptLoadTimeout = 1 * time.Minute

// ConceptExtractionWorkflow drains one Content entity: load its quotes,
// extract candidate concepts, split off duplicates of existing graph
// concepts, run one critique/refine round, discover typed relations, park
// on the human curation gate, write the accepted concepts and edges, and
// mark the content processed. Content without quotes is marked processed
// immediately; duplicates still receive SUPPORTS edges from the quotes.
func ConceptExtractionWorkflow(ctx workflow.Context, input ConceptExtractionInput) (*ConceptExtractionResult, error) {
	if input.ContentUUID.IsEmpty() {
		return nil, temporal.NewNonRetryableApplicationError("content uuid is required", "ValidationFailure", nil)
	}

	var a *Activities

	loadCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: conceptLoadTimeout,
	})
	var material ConceptSourceMaterial
	if err := workflow.ExecuteActivity(loadCtx, a.LoadContentQuotes, input.ContentUUID).Get(ctx, &material); err != nil {
		return nil, err
	}
	if len(material.Quotes) == 0 {
		if err := workflow.ExecuteActivity(loadCtx, a.MarkContentProcessed, input.ContentUUID).Get(ctx, nil); err != nil {
			return nil, err
		}
		return &ConceptExtractionResult{ContentUUID: input.ContentUUID, Skipped: true}, nil
	}

	var candidates []*entities.Concept
	if err := workflow.ExecuteActivity(llmOptions(ctx), a.ExtractCandidateConcepts, material).Get(ctx, &candidates); err != nil {
		return nil, err
	}

	var split ConceptDuplicateSplit
	if err := workflow.ExecuteActivity(llmOptions(ctx), a.DetectConceptDuplicates, candidates).Get(ctx, &split); err != nil {
		return nil, err
	}

	curated := ConceptCurationResult{}
	if len(split.Fresh) > 0 {
		fresh := split.Fresh
		if err := workflow.ExecuteActivity(llmOptions(ctx), a.CritiqueAndRefineConcepts, fresh).Get(ctx, &fresh); err != nil {
			return nil, err
		}

		var relations []*entities.ConceptRelation
		if err := workflow.ExecuteActivity(llmOptions(ctx), a.DiscoverConceptRelations, fresh).Get(ctx, &relations); err != nil {
			return nil, err
		}

		submitInput := SubmitConceptCurationInput{
			WorkflowID:  workflow.GetInfo(ctx).WorkflowExecution.ID,
			ContentUUID: input.ContentUUID,
			Content:     material.Content,
			Concepts:    fresh,
			Relations:   relations,
		}
		if err := workflow.ExecuteActivity(submitOptions(ctx), a.SubmitConceptCuration, submitInput).Get(ctx, nil); err != nil {
			return nil, err
		}

		if err := workflow.ExecuteActivity(humanGateOptions(ctx), a.WaitForConceptCuration, input.ContentUUID).Get(ctx, &curated); err != nil {
			return nil, err
		}
	}

	var outcome ConceptWriteOutcome
	err := workflow.ExecuteActivity(dbWriteOptions(ctx), a.WriteConceptGraph, WriteConceptGraphInput{
		ContentUUID:   input.ContentUUID,
		QuoteUUIDs:    material.QuoteUUIDs(),
		ExistingUUIDs: split.ExistingUUIDs,
		Curated:       curated,
	}).Get(ctx, &outcome)
	if err != nil {
		return nil, err
	}

	return &ConceptExtractionResult{
		ContentUUID:   input.ContentUUID,
		ConceptCount:  outcome.ConceptCount,
		RelationCount: outcome.RelationCount,
		Skipped:       len(split.Fresh) == 0,
	}, nil
}
