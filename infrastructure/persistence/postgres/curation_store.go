package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// CurationStore is the PostgreSQL implementation of ports.CurationStore
type CurationStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewCurationStore creates a curation store over an open connection pool
func NewCurationStore(db *sqlx.DB, logger *zap.Logger) *CurationStore {
	return &CurationStore{db: db, logger: logger}
}

var _ ports.CurationStore = (*CurationStore)(nil)

// CreateJournalForCuration inserts the journal row; repeats are no-ops
func (s *CurationStore) CreateJournalForCuration(ctx context.Context, journalUUID valueobjects.EntityID, text string) error {
	if journalUUID.IsEmpty() {
		return pkgerrors.NewValidation("journal uuid cannot be empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_curation (uuid, text, overall_status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (uuid) DO NOTHING`,
		journalUUID.String(), text, string(ports.JournalPendingEntities))
	if err != nil {
		return pkgerrors.NewUnavailable("insert journal curation row", err)
	}
	return nil
}

// QueueEntitiesForCuration inserts one PENDING item per entity and one span
// row per hydrated span. All inserts commit atomically.
func (s *CurationStore) QueueEntitiesForCuration(ctx context.Context, journalUUID valueobjects.EntityID, text string, items []codec.EntityWithSpans) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.NewUnavailable("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO journal_curation (uuid, text, overall_status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (uuid) DO NOTHING`,
		journalUUID.String(), text, string(ports.JournalPendingEntities)); err != nil {
		return pkgerrors.NewUnavailable("upsert journal curation row", err)
	}

	for _, item := range items {
		original, err := codec.MarshalEntity(item.Entity)
		if err != nil {
			return pkgerrors.NewInternal("encode entity for curation", err)
		}
		entityUUID := item.Entity.ID().String()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO entity_curation_items (uuid, journal_id, entity_type, original_data, status)
			 VALUES ($1, $2, $3, $4, $5)`,
			entityUUID, journalUUID.String(), string(item.Entity.Kind()), original, string(ports.ItemPending)); err != nil {
			return pkgerrors.NewUnavailable("insert entity curation item", err)
		}
		if err := s.insertSpans(ctx, tx, journalUUID, entityUUID, item.Spans); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.NewUnavailable("commit entity queue", err)
	}
	return nil
}

func (s *CurationStore) insertSpans(ctx context.Context, tx *sqlx.Tx, journalUUID valueobjects.EntityID, ownerUUID string, spans []valueobjects.Span) error {
	for _, span := range spans {
		spanData, err := json.Marshal(span)
		if err != nil {
			return pkgerrors.NewInternal("encode span", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO span_curation_items (uuid, journal_id, owner_uuid, span_data)
			 VALUES ($1, $2, $3, $4)`,
			valueobjects.NewEntityID().String(), journalUUID.String(), ownerUUID, spanData); err != nil {
			return pkgerrors.NewUnavailable("insert span curation item", err)
		}
	}
	return nil
}

// AcceptEntity transitions PENDING → ACCEPTED, or inserts a fresh ACCEPTED
// row for user-added entities. Accepting an already-accepted item returns
// the same uuid without touching the row; rejected or missing items return
// empty.
func (s *CurationStore) AcceptEntity(ctx context.Context, journalUUID, entityUUID valueobjects.EntityID, curated entities.Entity, isUserAdded bool) (valueobjects.EntityID, error) {
	return s.accept(ctx, acceptParams{
		table:      "entity_curation_items",
		typeColumn: "entity_type",
		journal:    journalUUID,
		item:       entityUUID,
		kind:       string(curated.Kind()),
		marshal:    func() ([]byte, error) { return codec.MarshalEntity(curated) },
		userAdded:  isUserAdded,
	})
}

type acceptParams struct {
	table      string
	typeColumn string
	journal    valueobjects.EntityID
	item       valueobjects.EntityID
	kind       string
	marshal    func() ([]byte, error)
	userAdded  bool
}

func (s *CurationStore) accept(ctx context.Context, p acceptParams) (valueobjects.EntityID, error) {
	curatedData, err := p.marshal()
	if err != nil {
		return "", pkgerrors.NewInternal("encode curated payload", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", pkgerrors.NewUnavailable("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if p.userAdded {
		fresh := valueobjects.NewEntityID()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO `+p.table+` (uuid, journal_id, `+p.typeColumn+`, curated_data, status, is_user_added)
			 VALUES ($1, $2, $3, $4, $5, TRUE)`,
			fresh.String(), p.journal.String(), p.kind, curatedData, string(ports.ItemAccepted)); err != nil {
			return "", pkgerrors.NewUnavailable("insert user-added item", err)
		}
		if err := tx.Commit(); err != nil {
			return "", pkgerrors.NewUnavailable("commit accept", err)
		}
		return fresh, nil
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE `+p.table+`
		 SET status = $1, curated_data = $2
		 WHERE journal_id = $3 AND uuid = $4 AND status = $5`,
		string(ports.ItemAccepted), curatedData, p.journal.String(), p.item.String(), string(ports.ItemPending))
	if err != nil {
		return "", pkgerrors.NewUnavailable("accept item", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Accept is idempotent: re-accepting an accepted item returns the
		// same uuid. Rejected or unknown items are no-ops.
		var status string
		err := tx.GetContext(ctx, &status,
			`SELECT status FROM `+p.table+` WHERE journal_id = $1 AND uuid = $2`,
			p.journal.String(), p.item.String())
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		if err != nil {
			return "", pkgerrors.NewUnavailable("check item status", err)
		}
		if ports.ItemStatus(status) == ports.ItemAccepted {
			return p.item, nil
		}
		return "", nil
	}

	if err := tx.Commit(); err != nil {
		return "", pkgerrors.NewUnavailable("commit accept", err)
	}
	return p.item, nil
}

// RejectEntity transitions PENDING → REJECTED exactly once
func (s *CurationStore) RejectEntity(ctx context.Context, journalUUID, entityUUID valueobjects.EntityID) (bool, error) {
	return s.reject(ctx, "entity_curation_items", journalUUID, entityUUID)
}

func (s *CurationStore) reject(ctx context.Context, table string, journalUUID, itemUUID valueobjects.EntityID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+`
		 SET status = $1
		 WHERE journal_id = $2 AND uuid = $3 AND status = $4`,
		string(ports.ItemRejected), journalUUID.String(), itemUUID.String(), string(ports.ItemPending))
	if err != nil {
		return false, pkgerrors.NewUnavailable("reject item", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

type itemRow struct {
	UUID         string  `db:"uuid"`
	OriginalData []byte  `db:"original_data"`
	CuratedData  []byte  `db:"curated_data"`
	ItemType     string  `db:"item_type"`
}

// GetAcceptedEntitiesWithSpans materializes accepted items back into typed
// entities. Items whose type the codec no longer knows are skipped and
// logged, never surfaced as errors.
func (s *CurationStore) GetAcceptedEntitiesWithSpans(ctx context.Context, journalUUID valueobjects.EntityID) ([]codec.EntityWithSpans, error) {
	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT uuid, original_data, curated_data, entity_type AS item_type
		 FROM entity_curation_items
		 WHERE journal_id = $1 AND status = $2
		 ORDER BY created_at`,
		journalUUID.String(), string(ports.ItemAccepted))
	if err != nil {
		return nil, pkgerrors.NewUnavailable("select accepted entities", err)
	}

	out := make([]codec.EntityWithSpans, 0, len(rows))
	for _, row := range rows {
		payload := row.CuratedData
		if len(payload) == 0 {
			payload = row.OriginalData
		}
		entity, err := codec.UnmarshalEntity(payload)
		if err != nil {
			s.logger.Warn("skipping curation item with unknown entity type",
				zap.String("item_uuid", row.UUID),
				zap.String("entity_type", row.ItemType),
				zap.Error(err))
			continue
		}
		spans, err := s.spansForOwner(ctx, row.UUID)
		if err != nil {
			return nil, err
		}
		out = append(out, codec.EntityWithSpans{Entity: entity, Spans: spans})
	}
	return out, nil
}

func (s *CurationStore) spansForOwner(ctx context.Context, ownerUUID string) ([]valueobjects.Span, error) {
	var raws [][]byte
	err := s.db.SelectContext(ctx, &raws,
		`SELECT span_data FROM span_curation_items WHERE owner_uuid = $1`, ownerUUID)
	if err != nil {
		return nil, pkgerrors.NewUnavailable("select spans", err)
	}
	spans := make([]valueobjects.Span, 0, len(raws))
	for _, raw := range raws {
		var span valueobjects.Span
		if err := json.Unmarshal(raw, &span); err != nil {
			s.logger.Warn("skipping undecodable span row", zap.String("owner_uuid", ownerUUID), zap.Error(err))
			continue
		}
		spans = append(spans, span)
	}
	return spans, nil
}

// CompleteEntityPhase sets overall_status = ENTITIES_DONE
func (s *CurationStore) CompleteEntityPhase(ctx context.Context, journalUUID valueobjects.EntityID) error {
	return s.setJournalStatus(ctx, journalUUID, ports.JournalEntitiesDone)
}

func (s *CurationStore) setJournalStatus(ctx context.Context, journalUUID valueobjects.EntityID, status ports.JournalCurationStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE journal_curation SET overall_status = $1 WHERE uuid = $2`,
		string(status), journalUUID.String())
	if err != nil {
		return pkgerrors.NewUnavailable("update journal status", err)
	}
	return nil
}

// PendingEntityCount returns the number of undecided entity items
func (s *CurationStore) PendingEntityCount(ctx context.Context, journalUUID valueobjects.EntityID) (int, error) {
	return s.pendingCount(ctx, "entity_curation_items", journalUUID)
}

func (s *CurationStore) pendingCount(ctx context.Context, table string, journalUUID valueobjects.EntityID) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM `+table+` WHERE journal_id = $1 AND status = $2`,
		journalUUID.String(), string(ports.ItemPending))
	if err != nil {
		return 0, pkgerrors.NewUnavailable("count pending items", err)
	}
	return count, nil
}

// QueueRelationshipsForCuration inserts PENDING relationship items with
// spans and context annotations, and moves the journal to PENDING_RELATIONS.
func (s *CurationStore) QueueRelationshipsForCuration(ctx context.Context, journalUUID valueobjects.EntityID, items []codec.CuratableItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.NewUnavailable("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, item := range items {
		// The blob keeps only the variant payload; spans and context live in
		// their own tables and are reattached on read.
		bare := item
		bare.Spans = nil
		bare.Context = nil
		original, err := json.Marshal(bare)
		if err != nil {
			return pkgerrors.NewInternal("encode curatable item", err)
		}
		itemUUID := item.UUID()
		if itemUUID.IsEmpty() {
			return pkgerrors.NewValidation("curatable item has no uuid")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relationship_curation_items (uuid, journal_id, relationship_type, original_data, status)
			 VALUES ($1, $2, $3, $4, $5)`,
			itemUUID.String(), journalUUID.String(), string(item.Kind), original, string(ports.ItemPending)); err != nil {
			return pkgerrors.NewUnavailable("insert relationship curation item", err)
		}
		if err := s.insertSpans(ctx, tx, journalUUID, itemUUID.String(), item.Spans); err != nil {
			return err
		}
		for _, rc := range item.Context {
			subTypes, err := json.Marshal(rc.SubType)
			if err != nil {
				return pkgerrors.NewInternal("encode relationship context", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO relationship_context_items (journal_id, relationship_uuid, entity_uuid, sub_type_data)
				 VALUES ($1, $2, $3, $4)`,
				journalUUID.String(), itemUUID.String(), rc.EntityUUID.String(), subTypes); err != nil {
				return pkgerrors.NewUnavailable("insert relationship context item", err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE journal_curation SET overall_status = $1 WHERE uuid = $2`,
		string(ports.JournalPendingRelations), journalUUID.String()); err != nil {
		return pkgerrors.NewUnavailable("advance journal to relation phase", err)
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.NewUnavailable("commit relationship queue", err)
	}
	return nil
}

// AcceptRelationship mirrors AcceptEntity for relationship items
func (s *CurationStore) AcceptRelationship(ctx context.Context, journalUUID, relationshipUUID valueobjects.EntityID, curated codec.CuratableItem, isUserAdded bool) (valueobjects.EntityID, error) {
	return s.accept(ctx, acceptParams{
		table:      "relationship_curation_items",
		typeColumn: "relationship_type",
		journal:    journalUUID,
		item:       relationshipUUID,
		kind:       string(curated.Kind),
		marshal: func() ([]byte, error) {
			bare := curated
			bare.Spans = nil
			bare.Context = nil
			return json.Marshal(bare)
		},
		userAdded: isUserAdded,
	})
}

// RejectRelationship transitions PENDING → REJECTED exactly once
func (s *CurationStore) RejectRelationship(ctx context.Context, journalUUID, relationshipUUID valueobjects.EntityID) (bool, error) {
	return s.reject(ctx, "relationship_curation_items", journalUUID, relationshipUUID)
}

// GetAcceptedRelationships reconstitutes accepted relationship items with
// their spans and context annotations.
func (s *CurationStore) GetAcceptedRelationships(ctx context.Context, journalUUID valueobjects.EntityID) ([]codec.CuratableItem, error) {
	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT uuid, original_data, curated_data, relationship_type AS item_type
		 FROM relationship_curation_items
		 WHERE journal_id = $1 AND status = $2
		 ORDER BY created_at`,
		journalUUID.String(), string(ports.ItemAccepted))
	if err != nil {
		return nil, pkgerrors.NewUnavailable("select accepted relationships", err)
	}

	out := make([]codec.CuratableItem, 0, len(rows))
	for _, row := range rows {
		payload := row.CuratedData
		if len(payload) == 0 {
			payload = row.OriginalData
		}
		var item codec.CuratableItem
		if err := json.Unmarshal(payload, &item); err != nil {
			s.logger.Warn("skipping curation item with unknown relationship kind",
				zap.String("item_uuid", row.UUID),
				zap.String("relationship_type", row.ItemType),
				zap.Error(err))
			continue
		}
		spans, err := s.spansForOwner(ctx, row.UUID)
		if err != nil {
			return nil, err
		}
		item.Spans = spans
		item.Context, err = s.contextForRelationship(ctx, row.UUID)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *CurationStore) contextForRelationship(ctx context.Context, relationshipUUID string) ([]codec.RelationshipContext, error) {
	type contextRow struct {
		EntityUUID  string `db:"entity_uuid"`
		SubTypeData []byte `db:"sub_type_data"`
	}
	var rows []contextRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT entity_uuid, sub_type_data FROM relationship_context_items WHERE relationship_uuid = $1`,
		relationshipUUID)
	if err != nil {
		return nil, pkgerrors.NewUnavailable("select relationship context", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([]codec.RelationshipContext, 0, len(rows))
	for _, row := range rows {
		var subTypes []string
		if err := json.Unmarshal(row.SubTypeData, &subTypes); err != nil {
			s.logger.Warn("skipping undecodable relationship context row",
				zap.String("relationship_uuid", relationshipUUID), zap.Error(err))
			continue
		}
		out = append(out, codec.RelationshipContext{
			EntityUUID: valueobjects.EntityID(row.EntityUUID),
			SubType:    subTypes,
		})
	}
	return out, nil
}

// CompleteRelationshipPhase sets overall_status = COMPLETED
func (s *CurationStore) CompleteRelationshipPhase(ctx context.Context, journalUUID valueobjects.EntityID) error {
	return s.setJournalStatus(ctx, journalUUID, ports.JournalCompleted)
}

// PendingRelationshipCount returns the number of undecided relationship items
func (s *CurationStore) PendingRelationshipCount(ctx context.Context, journalUUID valueobjects.EntityID) (int, error) {
	return s.pendingCount(ctx, "relationship_curation_items", journalUUID)
}

// GetJournalStatus returns the overall status, or nil when unknown
func (s *CurationStore) GetJournalStatus(ctx context.Context, journalUUID valueobjects.EntityID) (*ports.JournalCurationStatus, error) {
	var status string
	err := s.db.GetContext(ctx, &status,
		`SELECT overall_status FROM journal_curation WHERE uuid = $1`, journalUUID.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewUnavailable("select journal status", err)
	}
	s2 := ports.JournalCurationStatus(status)
	return &s2, nil
}

type journalRow struct {
	UUID          string    `db:"uuid"`
	Text          string    `db:"text"`
	CreatedAt     time.Time `db:"created_at"`
	OverallStatus string    `db:"overall_status"`
}

// GetJournalsPendingEntityCuration lists journals still in the entity phase
func (s *CurationStore) GetJournalsPendingEntityCuration(ctx context.Context) ([]ports.JournalCuration, error) {
	return s.journalsByStatus(ctx, ports.JournalPendingEntities)
}

// GetJournalsPendingRelationshipCuration lists journals in the relation phase
func (s *CurationStore) GetJournalsPendingRelationshipCuration(ctx context.Context) ([]ports.JournalCuration, error) {
	return s.journalsByStatus(ctx, ports.JournalPendingRelations)
}

func (s *CurationStore) journalsByStatus(ctx context.Context, status ports.JournalCurationStatus) ([]ports.JournalCuration, error) {
	var rows []journalRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT uuid, text, created_at, overall_status
		 FROM journal_curation
		 WHERE overall_status = $1
		 ORDER BY created_at`,
		string(status))
	if err != nil {
		return nil, pkgerrors.NewUnavailable("select journals by status", err)
	}
	out := make([]ports.JournalCuration, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.JournalCuration{
			UUID:          valueobjects.EntityID(row.UUID),
			Text:          row.Text,
			CreatedAt:     row.CreatedAt,
			OverallStatus: ports.JournalCurationStatus(row.OverallStatus),
		})
	}
	return out, nil
}

// GetAllPendingCurationTasks lists every journal with undecided items
func (s *CurationStore) GetAllPendingCurationTasks(ctx context.Context) ([]ports.PendingTask, error) {
	type taskRow struct {
		UUID          string    `db:"uuid"`
		CreatedAt     time.Time `db:"created_at"`
		OverallStatus string    `db:"overall_status"`
		PendingCount  int       `db:"pending_count"`
	}
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT j.uuid, j.created_at, j.overall_status,
		        (SELECT COUNT(*) FROM entity_curation_items e
		          WHERE e.journal_id = j.uuid AND e.status = 'PENDING')
		      + (SELECT COUNT(*) FROM relationship_curation_items r
		          WHERE r.journal_id = j.uuid AND r.status = 'PENDING') AS pending_count
		 FROM journal_curation j
		 WHERE j.overall_status IN ('PENDING_ENTITIES', 'PENDING_RELATIONS')
		 ORDER BY j.created_at`)
	if err != nil {
		return nil, pkgerrors.NewUnavailable("select pending tasks", err)
	}
	out := make([]ports.PendingTask, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.PendingTask{
			JournalUUID:  valueobjects.EntityID(row.UUID),
			Phase:        ports.JournalCurationStatus(row.OverallStatus),
			PendingCount: row.PendingCount,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}

// GetCurationStats returns counts per status bucket across journals,
// entities, and relationships.
func (s *CurationStore) GetCurationStats(ctx context.Context) (ports.CurationStats, error) {
	stats := ports.CurationStats{
		Journals:      map[ports.JournalCurationStatus]int{},
		Entities:      map[ports.ItemStatus]int{},
		Relationships: map[ports.ItemStatus]int{},
	}

	type bucket struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	var journalBuckets []bucket
	if err := s.db.SelectContext(ctx, &journalBuckets,
		`SELECT overall_status AS status, COUNT(*) AS count FROM journal_curation GROUP BY overall_status`); err != nil {
		return stats, pkgerrors.NewUnavailable("count journals", err)
	}
	for _, b := range journalBuckets {
		stats.Journals[ports.JournalCurationStatus(b.Status)] = b.Count
	}

	var entityBuckets []bucket
	if err := s.db.SelectContext(ctx, &entityBuckets,
		`SELECT status, COUNT(*) AS count FROM entity_curation_items GROUP BY status`); err != nil {
		return stats, pkgerrors.NewUnavailable("count entity items", err)
	}
	for _, b := range entityBuckets {
		stats.Entities[ports.ItemStatus(b.Status)] = b.Count
	}

	var relBuckets []bucket
	if err := s.db.SelectContext(ctx, &relBuckets,
		`SELECT status, COUNT(*) AS count FROM relationship_curation_items GROUP BY status`); err != nil {
		return stats, pkgerrors.NewUnavailable("count relationship items", err)
	}
	for _, b := range relBuckets {
		stats.Relationships[ports.ItemStatus(b.Status)] = b.Count
	}

	return stats, nil
}
