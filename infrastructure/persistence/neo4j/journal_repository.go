package neo4j

import (
	"context"
	"encoding/json"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// JournalRepository persists journal entry nodes and their provenance
// edges. Journal writes use MERGE on uuid so the graph-write stage can be
// replayed.
type JournalRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewJournalRepository builds the journal repository
func NewJournalRepository(driver neo4j.DriverWithContext, logger *zap.Logger) *JournalRepository {
	return &JournalRepository{driver: driver, logger: logger}
}

var _ ports.JournalRepository = (*JournalRepository)(nil)

func journalToProps(entry *entities.JournalEntry) map[string]any {
	props := map[string]any{
		"uuid":       entry.UUID.String(),
		"created_at": entry.CreatedAt.UTC().Format(timeFormat),
		"partition":  string(entry.Partition),
		"date":       entry.Date.Format("2006-01-02"),
		"text":       entry.Text,
	}
	setIfNotEmpty(props, "narrative_excerpt", entry.NarrativeExcerpt)
	setTime(props, "wake_time", entry.WakeTime)
	setTime(props, "sleep_time", entry.SleepTime)
	// Survey vectors are opaque to the graph; a JSON blob keeps them
	// round-trippable without one property per score.
	if surveys, err := json.Marshal(entry.Surveys); err == nil && string(surveys) != "{}" {
		props["surveys"] = string(surveys)
	}
	return props
}

func journalFromProps(props map[string]any) (*entities.JournalEntry, error) {
	uuid := stringProp(props, "uuid")
	if uuid == "" {
		return nil, pkgerrors.NewInternal("journal node has no uuid property", nil)
	}
	date, err := time.Parse("2006-01-02", stringProp(props, "date"))
	if err != nil {
		return nil, pkgerrors.NewInternal("journal node has an invalid date property", err)
	}
	entry := &entities.JournalEntry{
		Base: entities.Base{
			UUID:      valueobjects.EntityID(uuid),
			Partition: valueobjects.Partition(stringProp(props, "partition")),
		},
		Date:             date,
		Text:             stringProp(props, "text"),
		NarrativeExcerpt: stringProp(props, "narrative_excerpt"),
		WakeTime:         parseTimeProp(props, "wake_time"),
		SleepTime:        parseTimeProp(props, "sleep_time"),
	}
	if t := parseTimeProp(props, "created_at"); t != nil {
		entry.CreatedAt = *t
	}
	if surveys := stringProp(props, "surveys"); surveys != "" {
		_ = json.Unmarshal([]byte(surveys), &entry.Surveys)
	}
	return entry, nil
}

// Create persists the journal node; MERGE on uuid makes replays safe
func (r *JournalRepository) Create(ctx context.Context, entry *entities.JournalEntry) (valueobjects.EntityID, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `MERGE (j:JournalEntry {uuid: $uuid})
	          ON CREATE SET j = $props
	          RETURN j.uuid AS uuid`
	uuid, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (string, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"uuid":  entry.UUID.String(),
			"props": journalToProps(entry),
		})
		if err != nil {
			return "", err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return "", err
		}
		uuid, _ := record.Values[0].(string)
		return uuid, nil
	})
	if err != nil {
		return "", pkgerrors.NewUnavailable("create journal entry", err)
	}
	return valueobjects.EntityID(uuid), nil
}

func (r *JournalRepository) findOne(ctx context.Context, query string, params map[string]any, what string) (*entities.JournalEntry, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	entry, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) (*entities.JournalEntry, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, nil
		}
		node, ok := records[0].Values[0].(neo4j.Node)
		if !ok {
			return nil, nil
		}
		return journalFromProps(node.Props)
	})
	if err != nil {
		return nil, pkgerrors.NewUnavailable("find journal entry", err)
	}
	if entry == nil {
		return nil, pkgerrors.NewNotFound("journal entry " + what + " not found")
	}
	return entry, nil
}

// FindByUUID retrieves one journal entry, or NotFound
func (r *JournalRepository) FindByUUID(ctx context.Context, id valueobjects.EntityID) (*entities.JournalEntry, error) {
	return r.findOne(ctx,
		`MATCH (j:JournalEntry {uuid: $uuid}) RETURN j`,
		map[string]any{"uuid": id.String()}, id.String())
}

// FindByDate retrieves the entry for a calendar date, or NotFound
func (r *JournalRepository) FindByDate(ctx context.Context, date time.Time) (*entities.JournalEntry, error) {
	day := date.Format("2006-01-02")
	return r.findOne(ctx,
		`MATCH (j:JournalEntry {date: $date}) RETURN j LIMIT 1`,
		map[string]any{"date": day}, day)
}

// LinkMention merges a MENTIONED_IN edge from an entity to the journal
// entry it was extracted from
func (r *JournalRepository) LinkMention(ctx context.Context, entityUUID, journalUUID valueobjects.EntityID) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `MATCH (n {uuid: $entity}), (j:JournalEntry {uuid: $journal})
	          MERGE (n)-[:MENTIONED_IN]->(j)`
	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"entity":  entityUUID.String(),
			"journal": journalUUID.String(),
		})
		if err != nil {
			return nil, err
		}
		return nil, res.Err()
	})
	if err != nil {
		return pkgerrors.NewUnavailable("link mention", err)
	}
	return nil
}
