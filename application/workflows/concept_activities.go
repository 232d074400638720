package workflows

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// ConceptSourceMaterial is one content entity with its quotes loaded
type ConceptSourceMaterial struct {
	Content *entities.Content `json:"content"`
	Quotes  []*entities.Quote `json:"quotes"`
}

// QuoteUUIDs lists the quote identifiers, for the SUPPORTS edges
func (m ConceptSourceMaterial) QuoteUUIDs() []valueobjects.EntityID {
	out := make([]valueobjects.EntityID, 0, len(m.Quotes))
	for _, q := range m.Quotes {
		out = append(out, q.UUID)
	}
	return out
}

// LoadContentQuotes fetches the content and its attached quotes. Content
// that is already processed loads with no quotes, which makes the workflow
// skip straight to terminal.
func (a *Activities) LoadContentQuotes(ctx context.Context, contentUUID valueobjects.EntityID) (*ConceptSourceMaterial, error) {
	content, err := a.contents.FindByUUID(ctx, contentUUID)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	if content.Status == entities.ContentStatusProcessed {
		return &ConceptSourceMaterial{Content: content}, nil
	}
	quotes, err := a.contents.GetQuotes(ctx, contentUUID)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	return &ConceptSourceMaterial{Content: content, Quotes: quotes}, nil
}

// ExtractCandidateConcepts proposes concepts from the content's quotes
func (a *Activities) ExtractCandidateConcepts(ctx context.Context, material ConceptSourceMaterial) ([]*entities.Concept, error) {
	candidates, err := a.concepts.ExtractConcepts(ctx, material.Content, material.Quotes)
	if err != nil {
		a.metrics.ExtractionFailures.WithLabelValues("concepts").Inc()
		return nil, pkgerrors.Truncate(err)
	}
	a.metrics.ExtractedItems.WithLabelValues("concepts").Add(float64(len(candidates)))
	return candidates, nil
}

// ConceptDuplicateSplit separates genuinely new candidates from ones that
// match existing graph concepts. The existing matches are kept by uuid so
// the write stage can still attach quote support to them.
type ConceptDuplicateSplit struct {
	Fresh         []*entities.Concept     `json:"fresh"`
	ExistingUUIDs []valueobjects.EntityID `json:"existing_uuids,omitempty"`
}

// DetectConceptDuplicates checks each candidate against the graph by name,
// title, and vector similarity
func (a *Activities) DetectConceptDuplicates(ctx context.Context, candidates []*entities.Concept) (*ConceptDuplicateSplit, error) {
	fresh, existing, err := a.concepts.DetectDuplicates(ctx, candidates)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	split := &ConceptDuplicateSplit{Fresh: fresh}
	for _, match := range existing {
		split.ExistingUUIDs = append(split.ExistingUUIDs, match.UUID)
	}
	return split, nil
}

// CritiqueAndRefineConcepts runs one self-critique round; when the critique
// flags issues, a single refine pass rewrites the set.
func (a *Activities) CritiqueAndRefineConcepts(ctx context.Context, concepts []*entities.Concept) ([]*entities.Concept, error) {
	issues, err := a.concepts.Critique(ctx, concepts)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	if len(issues) == 0 {
		return concepts, nil
	}
	a.logger.Info("refining concepts after critique", zap.Int("issues", len(issues)))
	refined, err := a.concepts.Refine(ctx, concepts, issues)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	return refined, nil
}

// DiscoverConceptRelations proposes typed relations among the candidates
// and nearby existing concepts
func (a *Activities) DiscoverConceptRelations(ctx context.Context, concepts []*entities.Concept) ([]*entities.ConceptRelation, error) {
	relations, err := a.concepts.DiscoverRelations(ctx, concepts)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	return relations, nil
}

// SubmitConceptCurationInput queues a concept run for human review. The
// curation store keys the run by the content uuid; concepts queue as
// entity items and relations as relationship items.
type SubmitConceptCurationInput struct {
	WorkflowID  string                      `json:"workflow_id"`
	ContentUUID valueobjects.EntityID       `json:"content_uuid"`
	Content     *entities.Content           `json:"content"`
	Concepts    []*entities.Concept         `json:"concepts"`
	Relations   []*entities.ConceptRelation `json:"relations"`
}

// SubmitConceptCuration queues concepts and their relations atomically per
// phase and notifies that decisions are pending
func (a *Activities) SubmitConceptCuration(ctx context.Context, input SubmitConceptCurationInput) error {
	text := ""
	if input.Content != nil {
		text = input.Content.Title
	}
	if err := a.store.CreateJournalForCuration(ctx, input.ContentUUID, text); err != nil {
		return pkgerrors.Truncate(err)
	}

	entityItems := make([]codec.EntityWithSpans, 0, len(input.Concepts))
	for _, concept := range input.Concepts {
		entityItems = append(entityItems, codec.EntityWithSpans{Entity: concept})
	}
	if err := a.store.QueueEntitiesForCuration(ctx, input.ContentUUID, text, entityItems); err != nil {
		return pkgerrors.Truncate(err)
	}

	relationItems := make([]codec.CuratableItem, 0, len(input.Relations))
	for _, rel := range input.Relations {
		relationItems = append(relationItems, codec.NewConceptRelationItem(rel))
	}
	if err := a.store.QueueRelationshipsForCuration(ctx, input.ContentUUID, relationItems); err != nil {
		return pkgerrors.Truncate(err)
	}

	a.notifyPending(ctx, input.WorkflowID, input.ContentUUID, ports.JournalPendingEntities,
		len(entityItems)+len(relationItems))
	return nil
}

// ConceptCurationResult is the accepted output of a concept curation gate
type ConceptCurationResult struct {
	Concepts  []*entities.Concept         `json:"concepts"`
	Relations []*entities.ConceptRelation `json:"relations"`
}

// WaitForConceptCuration polls the single concept gate: both the concept
// items and the relation items must be fully decided before the run
// advances. Accepted rows reconstitute into their concrete types; anything
// else persisted under the run is skipped with a warning.
func (a *Activities) WaitForConceptCuration(ctx context.Context, contentUUID valueobjects.EntityID) (*ConceptCurationResult, error) {
	err := a.pollUntil(ctx, func(ctx context.Context) (bool, error) {
		pendingEntities, err := a.store.PendingEntityCount(ctx, contentUUID)
		if err != nil {
			return false, err
		}
		pendingRelations, err := a.store.PendingRelationshipCount(ctx, contentUUID)
		if err != nil {
			return false, err
		}
		return pendingEntities == 0 && pendingRelations == 0, nil
	})
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	if err := a.store.CompleteEntityPhase(ctx, contentUUID); err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	if err := a.store.CompleteRelationshipPhase(ctx, contentUUID); err != nil {
		return nil, pkgerrors.Truncate(err)
	}

	result := &ConceptCurationResult{}
	acceptedEntities, err := a.store.GetAcceptedEntitiesWithSpans(ctx, contentUUID)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	for _, item := range acceptedEntities {
		concept, ok := item.Entity.(*entities.Concept)
		if !ok {
			a.logger.Warn("skipping non-concept item in concept curation",
				zap.String("kind", string(item.Entity.Kind())))
			continue
		}
		result.Concepts = append(result.Concepts, concept)
	}

	acceptedRelations, err := a.store.GetAcceptedRelationships(ctx, contentUUID)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	for _, item := range acceptedRelations {
		if item.Kind != codec.CuratableConceptRelation || item.ConceptRelation == nil {
			a.logger.Warn("skipping non-concept-relation item in concept curation",
				zap.String("kind", string(item.Kind)))
			continue
		}
		result.Relations = append(result.Relations, item.ConceptRelation)
	}

	a.metrics.CurationCompletions.WithLabelValues("concepts").Inc()
	return result, nil
}

// WriteConceptGraphInput carries the accepted concept output to the graph
type WriteConceptGraphInput struct {
	ContentUUID   valueobjects.EntityID   `json:"content_uuid"`
	QuoteUUIDs    []valueobjects.EntityID `json:"quote_uuids"`
	ExistingUUIDs []valueobjects.EntityID `json:"existing_uuids,omitempty"`
	Curated       ConceptCurationResult   `json:"curated"`
}

// ConceptWriteOutcome reports what the concept write persisted
type ConceptWriteOutcome struct {
	ConceptCount  int `json:"concept_count"`
	RelationCount int `json:"relation_count"`
	SupportCount  int `json:"support_count"`
}

// WriteConceptGraph persists the accepted concepts, SUPPORTS edges from
// the source quotes to both the new and the pre-existing duplicate
// concepts, and the typed relations. It ends by marking the content
// processed.
func (a *Activities) WriteConceptGraph(ctx context.Context, input WriteConceptGraphInput) (*ConceptWriteOutcome, error) {
	result, err := a.writer.WriteConcepts(ctx, input.ContentUUID, input.Curated.Concepts, input.QuoteUUIDs, input.Curated.Relations)
	if err != nil {
		a.metrics.GraphWriteFailures.Inc()
		return nil, pkgerrors.Truncate(err)
	}

	outcome := &ConceptWriteOutcome{
		ConceptCount:  result.ConceptCount,
		RelationCount: result.RelationCount,
		SupportCount:  result.SupportCount,
	}
	for _, existingUUID := range input.ExistingUUIDs {
		for _, quoteUUID := range input.QuoteUUIDs {
			if err := a.contents.CreateSupports(ctx, quoteUUID, existingUUID); err != nil {
				return nil, pkgerrors.Truncate(err)
			}
			outcome.SupportCount++
		}
	}

	a.metrics.GraphWrites.Inc()
	return outcome, nil
}

// MarkContentProcessed flips the content's processed flag for runs that
// skip extraction entirely
func (a *Activities) MarkContentProcessed(ctx context.Context, contentUUID valueobjects.EntityID) error {
	if err := a.contents.MarkProcessed(ctx, contentUUID); err != nil {
		return pkgerrors.Truncate(err)
	}
	return nil
}
