package ports

import (
	"context"
	"time"

	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
)

// JournalCurationStatus is the overall per-journal lattice:
// PENDING_ENTITIES → ENTITIES_DONE → PENDING_RELATIONS → COMPLETED
type JournalCurationStatus string

const (
	JournalPendingEntities  JournalCurationStatus = "PENDING_ENTITIES"
	JournalEntitiesDone     JournalCurationStatus = "ENTITIES_DONE"
	JournalPendingRelations JournalCurationStatus = "PENDING_RELATIONS"
	JournalCompleted        JournalCurationStatus = "COMPLETED"
)

// ItemStatus is the per-item lattice: PENDING → {ACCEPTED, REJECTED}, terminal
type ItemStatus string

const (
	ItemPending  ItemStatus = "PENDING"
	ItemAccepted ItemStatus = "ACCEPTED"
	ItemRejected ItemStatus = "REJECTED"
)

// JournalCuration is a dashboard row for one journal's curation state
type JournalCuration struct {
	UUID          valueobjects.EntityID
	Text          string
	CreatedAt     time.Time
	OverallStatus JournalCurationStatus
}

// PendingTask is one dashboard entry: a journal with outstanding decisions
type PendingTask struct {
	JournalUUID  valueobjects.EntityID
	Phase        JournalCurationStatus
	PendingCount int
	CreatedAt    time.Time
}

// CurationStats holds counts per status bucket across journals, entities,
// and relationships.
type CurationStats struct {
	Journals      map[JournalCurationStatus]int
	Entities      map[ItemStatus]int
	Relationships map[ItemStatus]int
}

// CurationStore is the durable, transactional ledger of pending curation
// items and their human decisions. It is deliberately mechanical: it does
// not refuse premature phase transitions; the orchestration layer checks
// pending counts before advancing.
type CurationStore interface {
	// CreateJournalForCuration inserts the journal row with status
	// PENDING_ENTITIES; repeat calls with the same uuid are no-ops.
	CreateJournalForCuration(ctx context.Context, journalUUID valueobjects.EntityID, text string) error

	// QueueEntitiesForCuration inserts one PENDING item row per entity plus
	// one span row per hydrated span, atomically.
	QueueEntitiesForCuration(ctx context.Context, journalUUID valueobjects.EntityID, text string, items []codec.EntityWithSpans) error

	// AcceptEntity transitions a PENDING item to ACCEPTED with the curated
	// payload; with isUserAdded it inserts a fresh ACCEPTED row instead.
	// Returns the effective uuid, or empty on no-op (already decided).
	AcceptEntity(ctx context.Context, journalUUID, entityUUID valueobjects.EntityID, curated entities.Entity, isUserAdded bool) (valueobjects.EntityID, error)

	// RejectEntity transitions PENDING → REJECTED exactly once; false on
	// missing or already-decided items.
	RejectEntity(ctx context.Context, journalUUID, entityUUID valueobjects.EntityID) (bool, error)

	// GetAcceptedEntitiesWithSpans reconstitutes accepted items into typed
	// entities using the persisted type discriminator. Unknown types are
	// skipped with a warning.
	GetAcceptedEntitiesWithSpans(ctx context.Context, journalUUID valueobjects.EntityID) ([]codec.EntityWithSpans, error)

	// CompleteEntityPhase sets overall_status = ENTITIES_DONE
	CompleteEntityPhase(ctx context.Context, journalUUID valueobjects.EntityID) error

	// PendingEntityCount returns the number of undecided entity items
	PendingEntityCount(ctx context.Context, journalUUID valueobjects.EntityID) (int, error)

	// QueueRelationshipsForCuration inserts PENDING relationship items with
	// their spans and context annotations, atomically, and moves the journal
	// to PENDING_RELATIONS.
	QueueRelationshipsForCuration(ctx context.Context, journalUUID valueobjects.EntityID, items []codec.CuratableItem) error

	// AcceptRelationship mirrors AcceptEntity for relationship items
	AcceptRelationship(ctx context.Context, journalUUID, relationshipUUID valueobjects.EntityID, curated codec.CuratableItem, isUserAdded bool) (valueobjects.EntityID, error)

	// RejectRelationship mirrors RejectEntity for relationship items
	RejectRelationship(ctx context.Context, journalUUID, relationshipUUID valueobjects.EntityID) (bool, error)

	// GetAcceptedRelationships reconstitutes accepted relationship items
	GetAcceptedRelationships(ctx context.Context, journalUUID valueobjects.EntityID) ([]codec.CuratableItem, error)

	// CompleteRelationshipPhase sets overall_status = COMPLETED
	CompleteRelationshipPhase(ctx context.Context, journalUUID valueobjects.EntityID) error

	// PendingRelationshipCount returns the number of undecided relationship items
	PendingRelationshipCount(ctx context.Context, journalUUID valueobjects.EntityID) (int, error)

	// GetJournalStatus returns the overall status, or nil when unknown
	GetJournalStatus(ctx context.Context, journalUUID valueobjects.EntityID) (*JournalCurationStatus, error)

	// Dashboard queries. These always succeed and reflect the last committed state.

	GetJournalsPendingEntityCuration(ctx context.Context) ([]JournalCuration, error)
	GetJournalsPendingRelationshipCuration(ctx context.Context) ([]JournalCuration, error)
	GetAllPendingCurationTasks(ctx context.Context) ([]PendingTask, error)
	GetCurationStats(ctx context.Context) (CurationStats, error)
}
