package ports

import (
	"context"
	"time"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

// EntityRepository is the capability contract every per-label graph
// repository implements. This is a port in hexagonal architecture - the
// domain doesn't know about the graph driver behind it.
//
// Create is not idempotent: repeated calls create new nodes. The pipeline
// guards against double-writes by running its DB_WRITE stage exactly once
// per workflow. Edge creation, by contrast, uses MERGE semantics.
type EntityRepository[T entities.Entity] interface {
	// Create persists the entity, generating an embedding from Summary when
	// none is present, and returns the stored UUID
	Create(ctx context.Context, entity T) (valueobjects.EntityID, error)

	// Update applies a field patch, regenerates the embedding when the patch
	// touches "summary", and sets updated_at. Returns the uuid, or NotFound.
	Update(ctx context.Context, id valueobjects.EntityID, updates map[string]any) (valueobjects.EntityID, error)

	// FindByUUID retrieves an entity, or NotFound
	FindByUUID(ctx context.Context, id valueobjects.EntityID) (T, error)

	// ListAll pages through entities of this label
	ListAll(ctx context.Context, limit, offset int) ([]T, error)

	// Count returns the number of nodes with this label
	Count(ctx context.Context) (int64, error)

	// Exists reports whether a node with the uuid exists under this label
	Exists(ctx context.Context, id valueobjects.EntityID) (bool, error)

	// SearchByText scans string property values for the term
	SearchByText(ctx context.Context, term string, limit int) ([]T, error)

	// Delete detach-deletes the node and all incident edges; true iff a node matched
	Delete(ctx context.Context, id valueobjects.EntityID) (bool, error)

	// VectorSearch embeds the query and runs the label's vector index,
	// filtering below threshold. Embedding failures return an empty slice.
	VectorSearch(ctx context.Context, query string, limit int, threshold float64) ([]T, error)

	// FindSimilar searches with the entity's own embedding, excluding itself
	FindSimilar(ctx context.Context, entity T, limit int) ([]T, error)
}

// ConceptConnection describes one edge incident to a concept
type ConceptConnection struct {
	OtherUUID valueobjects.EntityID
	OtherName string
	Type      valueobjects.ConceptRelationType
	Outgoing  bool
}

// ConceptRepository adds the concept-specific graph operations
type ConceptRepository interface {
	EntityRepository[*entities.Concept]

	// FindByNameOrTitle matches on either the name or title property
	FindByNameOrTitle(ctx context.Context, nameOrTitle string) (*entities.Concept, error)

	// GetConnections lists all typed edges incident to a concept
	GetConnections(ctx context.Context, id valueobjects.EntityID) ([]ConceptConnection, error)

	// CreateRelation creates one directed typed edge with MERGE semantics;
	// calling it twice leaves exactly one edge
	CreateRelation(ctx context.Context, source, target valueobjects.EntityID, relType valueobjects.ConceptRelationType) error

	// GetRelations lists typed relations where the concept is the source
	GetRelations(ctx context.Context, id valueobjects.EntityID) ([]*entities.ConceptRelation, error)

	// DeleteRelation removes one directed typed edge
	DeleteRelation(ctx context.Context, source, target valueobjects.EntityID, relType valueobjects.ConceptRelationType) error

	// FindRelevant runs vector search at the concept-relevance threshold (0.6)
	FindRelevant(ctx context.Context, text string, limit int) ([]*entities.Concept, error)

	// GetConceptContext formats the top K relevant concepts for an LLM prompt
	GetConceptContext(ctx context.Context, text string, k int) (string, error)
}

// ContentRepository adds content-specific graph operations
type ContentRepository interface {
	EntityRepository[*entities.Content]

	// CreateAuthoredBy merges an AUTHORED_BY edge from author to content
	CreateAuthoredBy(ctx context.Context, authorUUID, contentUUID valueobjects.EntityID) error

	// ListUnprocessed returns content that has not been through concept extraction
	ListUnprocessed(ctx context.Context, limit int) ([]*entities.Content, error)

	// MarkProcessed flips the content status after concept extraction
	MarkProcessed(ctx context.Context, id valueobjects.EntityID) error

	// GetQuotes returns the quote nodes attached to a content entity
	GetQuotes(ctx context.Context, id valueobjects.EntityID) ([]*entities.Quote, error)

	// AttachQuote persists a quote node and a HAS_QUOTE edge from the content
	AttachQuote(ctx context.Context, contentUUID valueobjects.EntityID, quote *entities.Quote) error

	// CreateSupports merges a SUPPORTS edge from a quote to a concept
	CreateSupports(ctx context.Context, quoteUUID, conceptUUID valueobjects.EntityID) error
}

// PersonRepository adds person-specific finders
type PersonRepository interface {
	EntityRepository[*entities.Person]

	// FindByOccupation matches persons by occupation substring
	FindByOccupation(ctx context.Context, occupation string, limit int) ([]*entities.Person, error)

	// FindByBirthYear matches persons born in the given year
	FindByBirthYear(ctx context.Context, year int) ([]*entities.Person, error)
}

// EventRepository adds event-specific finders
type EventRepository interface {
	EntityRepository[*entities.Event]

	// FindByDateRange returns events dated within [from, to]
	FindByDateRange(ctx context.Context, from, to time.Time) ([]*entities.Event, error)

	// FindByCategory returns events in a category
	FindByCategory(ctx context.Context, category string, limit int) ([]*entities.Event, error)
}

// FeelingRepository adds feeling-specific finders over both feeling labels
type FeelingRepository interface {
	// CreateEmotionFeeling persists a FeelingEmotion node plus its FELT_BY /
	// FELT edges to the person and emotion, which must already exist
	CreateEmotionFeeling(ctx context.Context, f *entities.FeelingEmotion) (valueobjects.EntityID, error)

	// CreateConceptFeeling persists a FeelingConcept node plus its edges
	CreateConceptFeeling(ctx context.Context, f *entities.FeelingConcept) (valueobjects.EntityID, error)

	// FindByIntensity returns emotion feelings with intensity in [min, max]
	FindByIntensity(ctx context.Context, min, max int) ([]*entities.FeelingEmotion, error)

	// FindByTimeRange returns emotion feelings within [from, to]
	FindByTimeRange(ctx context.Context, from, to time.Time) ([]*entities.FeelingEmotion, error)
}

// JournalRepository persists journal entry nodes. Journal entries are
// LEXICAL documents, not DOMAIN entities, so they sit outside the generic
// capability repository.
type JournalRepository interface {
	// Create persists the journal node with MERGE semantics on uuid, so a
	// replayed graph-write stage is safe
	Create(ctx context.Context, entry *entities.JournalEntry) (valueobjects.EntityID, error)

	// FindByUUID retrieves a journal entry, or NotFound
	FindByUUID(ctx context.Context, id valueobjects.EntityID) (*entities.JournalEntry, error)

	// FindByDate retrieves the entry for a calendar date, or NotFound
	FindByDate(ctx context.Context, date time.Time) (*entities.JournalEntry, error)

	// LinkMention merges a MENTIONED_IN edge from an entity to the journal
	// entry it was extracted from
	LinkMention(ctx context.Context, entityUUID, journalUUID valueobjects.EntityID) error
}

// RelationRepository persists generic typed relations between entities
type RelationRepository interface {
	// CreateRelation merges one directed edge carrying the relation's
	// summary properties. Both endpoints must already exist.
	CreateRelation(ctx context.Context, rel *entities.Relation) error

	// GetRelationsFor lists relations where the entity is source or target
	GetRelationsFor(ctx context.Context, id valueobjects.EntityID) ([]*entities.Relation, error)
}

// GraphStatistics aggregates per-label node counts and edge totals
type GraphStatistics struct {
	NodesByLabel map[string]int64
	EdgeCount    int64
}

// GraphStats exposes the cross-label aggregate query
type GraphStats interface {
	GetStatistics(ctx context.Context) (GraphStatistics, error)
}
