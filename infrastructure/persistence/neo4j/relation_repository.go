package neo4j

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// relTypePattern is what a normalized relationship type must look like
// before it is interpolated into Cypher.
var (
	relTypePattern   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	relTypeSeparator = regexp.MustCompile(`[^A-Z0-9]+`)
)

// normalizeRelType upper-cases the LLM-proposed relation type and collapses
// runs of non-alphanumerics into single underscores, e.g. "works with" ->
// "WORKS_WITH".
func normalizeRelType(relType string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(relType))
	normalized = relTypeSeparator.ReplaceAllString(normalized, "_")
	normalized = strings.Trim(normalized, "_")
	if !relTypePattern.MatchString(normalized) {
		return "", pkgerrors.NewValidation("relation type cannot be normalized: " + relType)
	}
	return normalized, nil
}

// RelationRepository persists generic typed relations between DOMAIN
// entities. Edges are keyed on the relation uuid, so a replayed write
// leaves exactly one edge.
type RelationRepository struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewRelationRepository builds the relation repository
func NewRelationRepository(driver neo4j.DriverWithContext, logger *zap.Logger) *RelationRepository {
	return &RelationRepository{driver: driver, logger: logger}
}

var _ ports.RelationRepository = (*RelationRepository)(nil)

// CreateRelation merges one directed edge carrying the relation's summary
// properties. Both endpoints must already exist; a missing endpoint is a
// NotFound, not a silent no-op.
func (r *RelationRepository) CreateRelation(ctx context.Context, rel *entities.Relation) error {
	relType, err := normalizeRelType(rel.Type)
	if err != nil {
		return err
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	props := map[string]any{
		"uuid":           rel.UUID.String(),
		"created_at":     rel.CreatedAt.UTC().Format(timeFormat),
		"proposed_types": rel.ProposedTypes,
	}
	if rel.Summary != "" {
		props["summary"] = rel.Summary
	}
	if rel.SummaryShort != "" {
		props["summary_short"] = rel.SummaryShort
	}
	if len(rel.Embedding) > 0 {
		props["embedding"] = embeddingToProp(rel.Embedding)
	}

	// The relationship type cannot be parameterized; relType passed the
	// pattern check above.
	query := fmt.Sprintf(
		`MATCH (a {uuid: $source}), (b {uuid: $target})
		 MERGE (a)-[rel:%s {uuid: $uuid}]->(b)
		 ON CREATE SET rel = $props
		 RETURN count(rel) AS merged`, relType)
	merged, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (int64, error) {
		res, err := tx.Run(ctx, query, map[string]any{
			"source": rel.SourceUUID.String(),
			"target": rel.TargetUUID.String(),
			"uuid":   rel.UUID.String(),
			"props":  props,
		})
		if err != nil {
			return 0, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return 0, err
		}
		merged, _ := record.Values[0].(int64)
		return merged, nil
	})
	if err != nil {
		return pkgerrors.NewUnavailable("create relation", err)
	}
	if merged == 0 {
		return pkgerrors.NewNotFound(fmt.Sprintf(
			"relation endpoints %s -> %s not found", rel.SourceUUID, rel.TargetUUID))
	}
	return nil
}

// GetRelationsFor lists relations where the entity is source or target.
// Only edges written by this repository carry a uuid property; untyped
// structural edges (HAS_QUOTE, FELT_BY, ...) are excluded by that filter.
func (r *RelationRepository) GetRelationsFor(ctx context.Context, id valueobjects.EntityID) ([]*entities.Relation, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `MATCH (a {uuid: $uuid})-[rel]-(b)
	          WHERE rel.uuid IS NOT NULL
	          RETURN startNode(rel).uuid AS source, endNode(rel).uuid AS target,
	                 type(rel) AS rel_type, properties(rel) AS props`
	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]*entities.Relation, error) {
		res, err := tx.Run(ctx, query, map[string]any{"uuid": id.String()})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rels := make([]*entities.Relation, 0, len(records))
		for _, record := range records {
			source, _ := record.Values[0].(string)
			target, _ := record.Values[1].(string)
			relType, _ := record.Values[2].(string)
			props, _ := record.Values[3].(map[string]any)
			rel := relationFromEdge(source, target, relType, props)
			if rel == nil {
				continue
			}
			rels = append(rels, rel)
		}
		return rels, nil
	})
	if err != nil {
		return nil, pkgerrors.NewUnavailable("get relations", err)
	}
	return out, nil
}

func relationFromEdge(source, target, relType string, props map[string]any) *entities.Relation {
	uuid := stringProp(props, "uuid")
	if uuid == "" || source == "" || target == "" {
		return nil
	}
	rel := &entities.Relation{
		Base: entities.Base{
			UUID:      valueobjects.EntityID(uuid),
			Partition: valueobjects.PartitionDomain,
		},
		SourceUUID:   valueobjects.EntityID(source),
		TargetUUID:   valueobjects.EntityID(target),
		Type:         relType,
		Summary:      stringProp(props, "summary"),
		SummaryShort: stringProp(props, "summary_short"),
		Embedding:    propToEmbedding(props["embedding"]),
	}
	if t := parseTimeProp(props, "created_at"); t != nil {
		rel.CreatedAt = *t
	}
	if proposed, ok := props["proposed_types"].([]any); ok {
		for _, p := range proposed {
			if s, ok := p.(string); ok {
				rel.ProposedTypes = append(rel.ProposedTypes, s)
			}
		}
	}
	if len(rel.ProposedTypes) == 0 {
		rel.ProposedTypes = []string{relType}
	}
	return rel
}
