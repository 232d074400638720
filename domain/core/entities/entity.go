package entities

import (
	"time"

	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// Kind discriminates the concrete entity type in serialized payloads and in
// the curation store's JSON blobs.
type Kind string

const (
	KindPerson          Kind = "person"
	KindEmotion         Kind = "emotion"
	KindConcept         Kind = "concept"
	KindContent         Kind = "content"
	KindConsumable      Kind = "consumable"
	KindPlace           Kind = "place"
	KindEvent           Kind = "event"
	KindProject         Kind = "project"
	KindFeelingEmotion  Kind = "feeling_emotion"
	KindFeelingConcept  Kind = "feeling_concept"
	KindJournalEntry    Kind = "journal_entry"
	KindQuote           Kind = "quote"
	KindChunk           Kind = "chunk"
	KindRelation        Kind = "relation"
	KindConceptRelation Kind = "concept_relation"
)

// Base carries the invariants shared by every node: a stable UUID generated
// at construction unless supplied, a creation timestamp, and a partition tag.
type Base struct {
	UUID      valueobjects.EntityID  `json:"uuid"`
	CreatedAt time.Time              `json:"created_at"`
	Partition valueobjects.Partition `json:"partition"`
}

// NewBase creates a Base with a fresh UUID in the given partition
func NewBase(partition valueobjects.Partition) Base {
	return Base{
		UUID:      valueobjects.NewEntityID(),
		CreatedAt: time.Now(),
		Partition: partition,
	}
}

// ID returns the entity's stable identifier
func (b Base) ID() valueobjects.EntityID {
	return b.UUID
}

// EntityCore is the shared shape of every DOMAIN entity: name, the two
// summaries (short ≤30 words, long ≤100 words as prompt guidance), and an
// optional embedding vector regenerated whenever Summary changes.
type EntityCore struct {
	Base
	Name         string    `json:"name"`
	SummaryShort string    `json:"summary_short"`
	Summary      string    `json:"summary"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

// NewEntityCore creates the shared core for a DOMAIN entity with validation
func NewEntityCore(name, summaryShort, summary string) (EntityCore, error) {
	if name == "" {
		return EntityCore{}, pkgerrors.NewValidation("entity name cannot be empty")
	}
	return EntityCore{
		Base:         NewBase(valueobjects.PartitionDomain),
		Name:         name,
		SummaryShort: summaryShort,
		Summary:      summary,
	}, nil
}

// Core returns a pointer to the shared entity fields
func (c *EntityCore) Core() *EntityCore {
	return c
}

// Entity is the capability every DOMAIN entity exposes to the codec, the
// extraction engine, and the graph writer.
type Entity interface {
	Kind() Kind
	ID() valueobjects.EntityID
	Core() *EntityCore
}
