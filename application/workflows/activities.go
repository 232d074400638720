package workflows

import (
	"context"
	"time"

	"go.temporal.io/sdk/activity"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/application/services"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
	"github.com/alexelgier/minerva/pkg/observability"
)

// DefaultPollInterval is the cadence of the human-gate polling loop. It
// must stay at most a third of the gate's heartbeat timeout; dropping it
// below 10 seconds requires lowering the heartbeat timeout with it.
const DefaultPollInterval = 30 * time.Second

// Activities holds every activity the worker registers. All state lives in
// the injected collaborators; the struct itself is stateless and safe for
// concurrent activity executions.
type Activities struct {
	extraction   *services.ExtractionService
	concepts     *services.ConceptService
	writer       *services.GraphWriteService
	store        ports.CurationStore
	notifier     ports.CurationNotifier
	contents     ports.ContentRepository
	metrics      *observability.Metrics
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewActivities wires the activity set. pollInterval <= 0 uses the default.
func NewActivities(
	extraction *services.ExtractionService,
	concepts *services.ConceptService,
	writer *services.GraphWriteService,
	store ports.CurationStore,
	notifier ports.CurationNotifier,
	contents ports.ContentRepository,
	metrics *observability.Metrics,
	pollInterval time.Duration,
	logger *zap.Logger,
) *Activities {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Activities{
		extraction:   extraction,
		concepts:     concepts,
		writer:       writer,
		store:        store,
		notifier:     notifier,
		contents:     contents,
		metrics:      metrics,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// ExtractEntities runs the entity extraction pass over the journal
func (a *Activities) ExtractEntities(ctx context.Context, journal *entities.JournalEntry) ([]codec.EntityWithSpans, error) {
	items, err := a.extraction.ExtractEntities(ctx, journal)
	if err != nil {
		a.metrics.ExtractionFailures.WithLabelValues("entities").Inc()
		return nil, pkgerrors.Truncate(err)
	}
	a.metrics.ExtractedItems.WithLabelValues("entities").Add(float64(len(items)))
	return items, nil
}

// SubmitEntityCurationInput queues extracted entities for human review
type SubmitEntityCurationInput struct {
	WorkflowID string                  `json:"workflow_id"`
	Journal    *entities.JournalEntry  `json:"journal"`
	Items      []codec.EntityWithSpans `json:"items"`
}

// SubmitEntityCuration creates the journal's curation row, queues the
// extracted entities, and notifies the outside world that decisions are
// pending. Creating an already-present journal row is a no-op, so retries
// are safe.
func (a *Activities) SubmitEntityCuration(ctx context.Context, input SubmitEntityCurationInput) error {
	if input.Journal == nil {
		return pkgerrors.NewValidation("submit requires a journal")
	}
	if err := a.store.CreateJournalForCuration(ctx, input.Journal.UUID, input.Journal.Text); err != nil {
		return pkgerrors.Truncate(err)
	}
	if err := a.store.QueueEntitiesForCuration(ctx, input.Journal.UUID, input.Journal.Text, input.Items); err != nil {
		return pkgerrors.Truncate(err)
	}
	a.notifyPending(ctx, input.WorkflowID, input.Journal.UUID, ports.JournalPendingEntities, len(input.Items))
	return nil
}

// WaitForEntityCuration is the first human gate: it polls the curation
// store until every queued entity item is decided, heartbeating each
// iteration, then closes the entity phase and returns the accepted set.
func (a *Activities) WaitForEntityCuration(ctx context.Context, journalUUID valueobjects.EntityID) ([]codec.EntityWithSpans, error) {
	err := a.pollUntil(ctx, func(ctx context.Context) (bool, error) {
		pending, err := a.store.PendingEntityCount(ctx, journalUUID)
		if err != nil {
			return false, err
		}
		return pending == 0, nil
	})
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	if err := a.store.CompleteEntityPhase(ctx, journalUUID); err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	accepted, err := a.store.GetAcceptedEntitiesWithSpans(ctx, journalUUID)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	a.metrics.CurationCompletions.WithLabelValues("entities").Inc()
	return accepted, nil
}

// ExtractOverCuratedInput feeds the relationship and feeling passes
type ExtractOverCuratedInput struct {
	Journal *entities.JournalEntry  `json:"journal"`
	Curated []codec.EntityWithSpans `json:"curated"`
}

// ExtractFeelings runs the feelings pass over the curated entities
func (a *Activities) ExtractFeelings(ctx context.Context, input ExtractOverCuratedInput) ([]codec.CuratableItem, error) {
	items, err := a.extraction.ExtractFeelings(ctx, input.Journal, input.Curated)
	if err != nil {
		a.metrics.ExtractionFailures.WithLabelValues("feelings").Inc()
		return nil, pkgerrors.Truncate(err)
	}
	a.metrics.ExtractedItems.WithLabelValues("feelings").Add(float64(len(items)))
	return items, nil
}

// ExtractRelationships runs the relationship pass over the curated entities
func (a *Activities) ExtractRelationships(ctx context.Context, input ExtractOverCuratedInput) ([]codec.CuratableItem, error) {
	items, err := a.extraction.ExtractRelationships(ctx, input.Journal, input.Curated)
	if err != nil {
		a.metrics.ExtractionFailures.WithLabelValues("relationships").Inc()
		return nil, pkgerrors.Truncate(err)
	}
	a.metrics.ExtractedItems.WithLabelValues("relationships").Add(float64(len(items)))
	return items, nil
}

// SubmitRelationshipCurationInput queues feelings and relationships
type SubmitRelationshipCurationInput struct {
	WorkflowID  string                `json:"workflow_id"`
	JournalUUID valueobjects.EntityID `json:"journal_uuid"`
	Items       []codec.CuratableItem `json:"items"`
}

// SubmitRelationshipCuration queues the relationship-phase items, which
// also moves the journal to PENDING_RELATIONS, and notifies.
func (a *Activities) SubmitRelationshipCuration(ctx context.Context, input SubmitRelationshipCurationInput) error {
	if err := a.store.QueueRelationshipsForCuration(ctx, input.JournalUUID, input.Items); err != nil {
		return pkgerrors.Truncate(err)
	}
	a.notifyPending(ctx, input.WorkflowID, input.JournalUUID, ports.JournalPendingRelations, len(input.Items))
	return nil
}

// WaitForRelationshipCuration is the second human gate; on completion it
// closes the journal's curation (COMPLETED) and returns the accepted items.
func (a *Activities) WaitForRelationshipCuration(ctx context.Context, journalUUID valueobjects.EntityID) ([]codec.CuratableItem, error) {
	err := a.pollUntil(ctx, func(ctx context.Context) (bool, error) {
		pending, err := a.store.PendingRelationshipCount(ctx, journalUUID)
		if err != nil {
			return false, err
		}
		return pending == 0, nil
	})
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	if err := a.store.CompleteRelationshipPhase(ctx, journalUUID); err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	accepted, err := a.store.GetAcceptedRelationships(ctx, journalUUID)
	if err != nil {
		return nil, pkgerrors.Truncate(err)
	}
	a.metrics.CurationCompletions.WithLabelValues("relationships").Inc()
	return accepted, nil
}

// WriteToGraphInput carries the curated output into the write stage
type WriteToGraphInput struct {
	Journal       *entities.JournalEntry  `json:"journal"`
	Entities      []codec.EntityWithSpans `json:"entities"`
	Relationships []codec.CuratableItem   `json:"relationships"`
}

// WriteToGraphResult reports what landed in the graph
type WriteToGraphResult struct {
	EntityCount   int                     `json:"entity_count"`
	RelationCount int                     `json:"relation_count"`
	FeelingCount  int                     `json:"feeling_count"`
	ContentUUIDs  []valueobjects.EntityID `json:"content_uuids,omitempty"`
}

// WriteToKnowledgeGraph persists the curated pipeline output
func (a *Activities) WriteToKnowledgeGraph(ctx context.Context, input WriteToGraphInput) (*WriteToGraphResult, error) {
	result, err := a.writer.WriteJournalGraph(ctx, input.Journal, input.Entities, input.Relationships)
	if err != nil {
		a.metrics.GraphWriteFailures.Inc()
		return nil, pkgerrors.Truncate(err)
	}
	a.metrics.GraphWrites.Inc()
	return &WriteToGraphResult{
		EntityCount:   result.EntityCount,
		RelationCount: result.RelationCount,
		FeelingCount:  result.FeelingCount,
		ContentUUIDs:  result.ContentUUIDs,
	}, nil
}

// pollUntil runs check on the poll cadence, heartbeating every iteration,
// until it reports done, the context is canceled, or the schedule expires
// upstream. Store errors end the attempt; the gate's retry policy
// reschedules it.
func (a *Activities) pollUntil(ctx context.Context, check func(context.Context) (bool, error)) error {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()
	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		activity.RecordHeartbeat(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// notifyPending emits the best-effort curation notification; failures are
// logged and swallowed because the durable queue is the store itself.
func (a *Activities) notifyPending(ctx context.Context, workflowID string, owner valueobjects.EntityID, phase ports.JournalCurationStatus, count int) {
	err := a.notifier.NotifyPending(ctx, ports.PendingCuration{
		WorkflowID: workflowID,
		OwnerUUID:  owner,
		Phase:      phase,
		ItemCount:  count,
		QueuedAt:   time.Now().UTC(),
	})
	if err != nil {
		a.logger.Warn("curation notification failed",
			zap.String("workflow", workflowID), zap.Error(err))
	}
}
