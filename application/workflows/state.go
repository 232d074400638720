// Package workflows implements the durable pipeline orchestrator on
// Temporal: one workflow per submitted journal driving the eight-stage
// extraction/curation/write state machine, plus the secondary
// concept-extraction workflow that drains new content entities.
package workflows

import (
	"time"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
)

// Stage is the journal pipeline's position in its state machine. Stages
// advance strictly in declaration order; the history of any run is a
// prefix of this list.
type Stage string

const (
	StageSubmitted              Stage = "SUBMITTED"
	StageEntityProcessing       Stage = "ENTITY_PROCESSING"
	StageSubmitEntityCuration   Stage = "SUBMIT_ENTITY_CURATION"
	StageWaitEntityCuration     Stage = "WAIT_ENTITY_CURATION"
	StageRelationProcessing     Stage = "RELATION_PROCESSING"
	StageSubmitRelationCuration Stage = "SUBMIT_RELATION_CURATION"
	StageWaitRelationCuration   Stage = "WAIT_RELATION_CURATION"
	StageDBWrite                Stage = "DB_WRITE"
	StageCompleted              Stage = "COMPLETED"
)

// StatusQuery is the query name exposed by the journal workflow
const StatusQuery = "status"

// pipelineState is the full per-workflow state. It lives inside the
// workflow and is mutated only between suspension points.
type pipelineState struct {
	Stage                Stage
	JournalEntry         *entities.JournalEntry
	ExtractedEntities    []codec.EntityWithSpans
	CuratedEntities      []codec.EntityWithSpans
	ExtractedCuratables  []codec.CuratableItem
	CuratedCuratables    []codec.CuratableItem
	ErrorCount           int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PipelineState is the redacted snapshot the status query returns. The
// large item arrays are stripped to bound the query payload; only counts
// survive.
type PipelineState struct {
	Stage                      Stage                 `json:"stage"`
	JournalUUID                valueobjects.EntityID `json:"journal_uuid"`
	JournalDate                string                `json:"journal_date"`
	ExtractedEntityCount       int                   `json:"extracted_entity_count"`
	CuratedEntityCount         int                   `json:"curated_entity_count"`
	ExtractedRelationshipCount int                   `json:"extracted_relationship_count"`
	CuratedRelationshipCount   int                   `json:"curated_relationship_count"`
	ErrorCount                 int                   `json:"error_count"`
	CreatedAt                  time.Time             `json:"created_at"`
	UpdatedAt                  time.Time             `json:"updated_at"`
}

// snapshot builds the redacted query view
func (s *pipelineState) snapshot() PipelineState {
	out := PipelineState{
		Stage:                      s.Stage,
		ExtractedEntityCount:       len(s.ExtractedEntities),
		CuratedEntityCount:         len(s.CuratedEntities),
		ExtractedRelationshipCount: len(s.ExtractedCuratables),
		CuratedRelationshipCount:   len(s.CuratedCuratables),
		ErrorCount:                 s.ErrorCount,
		CreatedAt:                  s.CreatedAt,
		UpdatedAt:                  s.UpdatedAt,
	}
	if s.JournalEntry != nil {
		out.JournalUUID = s.JournalEntry.UUID
		out.JournalDate = s.JournalEntry.DateString()
	}
	return out
}
