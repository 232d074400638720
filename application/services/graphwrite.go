package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// GraphWriteService persists curated pipeline output into the knowledge
// graph. Ordering is enforced here, not in the workflow: all entities are
// written before any relationship or feeling that references them. Node
// creation is not idempotent; the workflow runs the write stage exactly
// once. Edge creation uses MERGE and tolerates replays.
type GraphWriteService struct {
	graph     ports.GraphStore
	journals  ports.JournalRepository
	relations ports.RelationRepository
	feelings  ports.FeelingRepository
	concepts  ports.ConceptRepository
	contents  ports.ContentRepository
	logger    *zap.Logger
}

// NewGraphWriteService builds the write service
func NewGraphWriteService(
	graph ports.GraphStore,
	journals ports.JournalRepository,
	relations ports.RelationRepository,
	feelings ports.FeelingRepository,
	concepts ports.ConceptRepository,
	contents ports.ContentRepository,
	logger *zap.Logger,
) *GraphWriteService {
	return &GraphWriteService{
		graph:     graph,
		journals:  journals,
		relations: relations,
		feelings:  feelings,
		concepts:  concepts,
		contents:  contents,
		logger:    logger,
	}
}

// JournalWriteResult summarizes one journal's graph write. ContentUUIDs
// lists the newly persisted Content entities that the concept-extraction
// drain picks up afterwards.
type JournalWriteResult struct {
	JournalUUID   valueobjects.EntityID   `json:"journal_uuid"`
	EntityCount   int                     `json:"entity_count"`
	RelationCount int                     `json:"relation_count"`
	FeelingCount  int                     `json:"feeling_count"`
	ContentUUIDs  []valueobjects.EntityID `json:"content_uuids,omitempty"`
}

// WriteJournalGraph persists the curated output of one journal pipeline:
// the journal node, every curated entity (created, or patched when the
// vault already linked it to an existing node), MENTIONED_IN edges, and
// finally the curated relationships and feelings.
func (s *GraphWriteService) WriteJournalGraph(
	ctx context.Context,
	journal *entities.JournalEntry,
	curatedEntities []codec.EntityWithSpans,
	curatedRelationships []codec.CuratableItem,
) (*JournalWriteResult, error) {
	if journal == nil {
		return nil, pkgerrors.NewValidation("cannot write a nil journal")
	}

	journalUUID, err := s.journals.Create(ctx, journal)
	if err != nil {
		return nil, err
	}
	result := &JournalWriteResult{JournalUUID: journalUUID}

	for _, item := range curatedEntities {
		if err := s.writeEntity(ctx, item.Entity, journalUUID); err != nil {
			return nil, err
		}
		result.EntityCount++
		if item.Entity.Kind() == entities.KindContent {
			result.ContentUUIDs = append(result.ContentUUIDs, item.Entity.ID())
		}
	}

	for _, item := range curatedRelationships {
		switch item.Kind {
		case codec.CuratableRelation:
			if item.Relation == nil {
				continue
			}
			if err := s.relations.CreateRelation(ctx, item.Relation); err != nil {
				return nil, err
			}
			result.RelationCount++
		case codec.CuratableConceptRelation:
			if item.ConceptRelation == nil {
				continue
			}
			if err := s.writeConceptRelation(ctx, item.ConceptRelation); err != nil {
				return nil, err
			}
			result.RelationCount++
		case codec.CuratableFeelingEmotion:
			if item.FeelingEmotion == nil {
				continue
			}
			if _, err := s.feelings.CreateEmotionFeeling(ctx, item.FeelingEmotion); err != nil {
				return nil, err
			}
			result.FeelingCount++
		case codec.CuratableFeelingConcept:
			if item.FeelingConcept == nil {
				continue
			}
			if _, err := s.feelings.CreateConceptFeeling(ctx, item.FeelingConcept); err != nil {
				return nil, err
			}
			result.FeelingCount++
		default:
			s.logger.Warn("skipping curated item of unknown kind", zap.String("kind", string(item.Kind)))
		}
	}

	s.logger.Info("journal graph write complete",
		zap.String("journal", journalUUID.String()),
		zap.Int("entities", result.EntityCount),
		zap.Int("relationships", result.RelationCount),
		zap.Int("feelings", result.FeelingCount))
	return result, nil
}

// writeEntity creates the node, or patches the summaries when the uuid
// already exists in the graph (the merge step resolved it to a known node).
// Either way a MENTIONED_IN edge ties it back to the journal.
func (s *GraphWriteService) writeEntity(ctx context.Context, e entities.Entity, journalUUID valueobjects.EntityID) error {
	exists, err := s.graph.EntityExists(ctx, e.Kind(), e.ID())
	if err != nil {
		return err
	}
	if exists {
		core := e.Core()
		_, err = s.graph.UpdateEntity(ctx, e.Kind(), e.ID(), map[string]any{
			"summary":       core.Summary,
			"summary_short": core.SummaryShort,
		})
	} else {
		_, err = s.graph.CreateEntity(ctx, e)
	}
	if err != nil {
		return err
	}
	return s.journals.LinkMention(ctx, e.ID(), journalUUID)
}

// writeConceptRelation writes the forward edge and its explicit reverse.
// The graph writer itself stays unidirectional; the involution is applied
// here, at the layer that processes curation output.
func (s *GraphWriteService) writeConceptRelation(ctx context.Context, rel *entities.ConceptRelation) error {
	if err := s.concepts.CreateRelation(ctx, rel.SourceUUID, rel.TargetUUID, rel.Type); err != nil {
		return err
	}
	return s.concepts.CreateRelation(ctx, rel.TargetUUID, rel.SourceUUID, rel.Type.Reverse())
}

// ConceptWriteResult summarizes one content's concept write
type ConceptWriteResult struct {
	ContentUUID   valueobjects.EntityID `json:"content_uuid"`
	ConceptCount  int                   `json:"concept_count"`
	SupportCount  int                   `json:"support_count"`
	RelationCount int                   `json:"relation_count"`
}

// WriteConcepts persists the accepted output of a concept-extraction run:
// concept nodes, SUPPORTS edges from the source quotes to every accepted
// concept, and the typed concept relations in both directions. Finally the
// content is marked processed so the drain does not pick it up again.
func (s *GraphWriteService) WriteConcepts(
	ctx context.Context,
	contentUUID valueobjects.EntityID,
	concepts []*entities.Concept,
	quoteUUIDs []valueobjects.EntityID,
	relations []*entities.ConceptRelation,
) (*ConceptWriteResult, error) {
	if contentUUID.IsEmpty() {
		return nil, pkgerrors.NewValidation("content uuid cannot be empty")
	}
	result := &ConceptWriteResult{ContentUUID: contentUUID}

	for _, concept := range concepts {
		exists, err := s.concepts.Exists(ctx, concept.UUID)
		if err != nil {
			return nil, err
		}
		if exists {
			_, err = s.concepts.Update(ctx, concept.UUID, map[string]any{
				"summary":       concept.Summary,
				"summary_short": concept.SummaryShort,
			})
		} else {
			_, err = s.concepts.Create(ctx, concept)
		}
		if err != nil {
			return nil, err
		}
		result.ConceptCount++

		for _, quoteUUID := range quoteUUIDs {
			if err := s.contents.CreateSupports(ctx, quoteUUID, concept.UUID); err != nil {
				return nil, err
			}
			result.SupportCount++
		}
	}

	// Relations may point at concepts the curator rejected, or at neighbors
	// the discovery pass proposed that never existed. Both endpoints must be
	// present in the graph by now; anything else is dropped.
	for _, rel := range relations {
		ok, err := s.conceptEndpointsExist(ctx, rel)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logger.Warn("dropping concept relation with missing endpoint",
				zap.String("source", rel.SourceUUID.String()),
				zap.String("target", rel.TargetUUID.String()))
			continue
		}
		if err := s.writeConceptRelation(ctx, rel); err != nil {
			return nil, err
		}
		result.RelationCount++
	}

	if err := s.contents.MarkProcessed(ctx, contentUUID); err != nil {
		return nil, err
	}

	s.logger.Info("concept graph write complete",
		zap.String("content", contentUUID.String()),
		zap.Int("concepts", result.ConceptCount),
		zap.Int("relations", result.RelationCount))
	return result, nil
}

// conceptEndpointsExist checks both sides of a concept relation
func (s *GraphWriteService) conceptEndpointsExist(ctx context.Context, rel *entities.ConceptRelation) (bool, error) {
	for _, id := range []valueobjects.EntityID{rel.SourceUUID, rel.TargetUUID} {
		exists, err := s.concepts.Exists(ctx, id)
		if err != nil {
			return false, err
		}
		if !exists {
			return false, nil
		}
	}
	return true, nil
}
