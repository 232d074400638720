package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// conceptRelevanceThreshold is the floor for FindRelevant / GetConceptContext
const conceptRelevanceThreshold = 0.6

// ConceptRepository adds the concept-specific operations on top of the
// generic label repository.
type ConceptRepository struct {
	*Repository[*entities.Concept]
	driver neo4j.DriverWithContext
}

// NewConceptRepository builds the concept repository
func NewConceptRepository(driver neo4j.DriverWithContext, embedder ports.Embedder, logger *zap.Logger) *ConceptRepository {
	return &ConceptRepository{
		Repository: NewRepository(driver, ConceptMapping, embedder, logger),
		driver:     driver,
	}
}

var _ ports.ConceptRepository = (*ConceptRepository)(nil)

// FindByNameOrTitle matches on either the name or the title property,
// case-insensitively. NotFound when no concept matches.
func (r *ConceptRepository) FindByNameOrTitle(ctx context.Context, nameOrTitle string) (*entities.Concept, error) {
	concepts, err := r.queryNodes(ctx,
		`MATCH (n:Concept)
		 WHERE toLower(n.name) = toLower($value) OR toLower(n.title) = toLower($value)
		 RETURN n LIMIT 1`,
		map[string]any{"value": nameOrTitle})
	if err != nil {
		return nil, err
	}
	if len(concepts) == 0 {
		return nil, pkgerrors.NewNotFound("no concept named " + nameOrTitle)
	}
	return concepts[0], nil
}

// GetConnections lists all typed edges incident to a concept
func (r *ConceptRepository) GetConnections(ctx context.Context, id valueobjects.EntityID) ([]ports.ConceptConnection, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `MATCH (c:Concept {uuid: $uuid})-[rel]-(other:Concept)
	          RETURN other.uuid AS other_uuid, other.name AS other_name,
	                 type(rel) AS rel_type, startNode(rel).uuid = $uuid AS outgoing`
	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]ports.ConceptConnection, error) {
		res, err := tx.Run(ctx, query, map[string]any{"uuid": id.String()})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		conns := make([]ports.ConceptConnection, 0, len(records))
		for _, record := range records {
			otherUUID, _ := record.Values[0].(string)
			otherName, _ := record.Values[1].(string)
			relType, _ := record.Values[2].(string)
			outgoing, _ := record.Values[3].(bool)
			conns = append(conns, ports.ConceptConnection{
				OtherUUID: valueobjects.EntityID(otherUUID),
				OtherName: otherName,
				Type:      valueobjects.ConceptRelationType(relType),
				Outgoing:  outgoing,
			})
		}
		return conns, nil
	})
	if err != nil {
		return nil, pkgerrors.NewUnavailable("get concept connections", err)
	}
	return out, nil
}

// CreateRelation merges one directed typed edge; calling it twice leaves
// exactly one edge. Only the forward direction is written.
func (r *ConceptRepository) CreateRelation(ctx context.Context, source, target valueobjects.EntityID, relType valueobjects.ConceptRelationType) error {
	if !relType.Valid() {
		return pkgerrors.NewValidation("unknown concept relation type: " + string(relType))
	}
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// Relationship types cannot be parameterized in Cypher; relType comes
	// from the closed enum validated above.
	query := fmt.Sprintf(
		`MATCH (a:Concept {uuid: $source}), (b:Concept {uuid: $target})
		 MERGE (a)-[:%s]->(b)`, string(relType))
	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"source": source.String(), "target": target.String()})
		if err != nil {
			return nil, err
		}
		return nil, res.Err()
	})
	if err != nil {
		return pkgerrors.NewUnavailable("create concept relation", err)
	}
	return nil
}

// GetRelations lists typed relations where the concept is the source
func (r *ConceptRepository) GetRelations(ctx context.Context, id valueobjects.EntityID) ([]*entities.ConceptRelation, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `MATCH (a:Concept {uuid: $uuid})-[rel]->(b:Concept)
	          RETURN b.uuid AS target, type(rel) AS rel_type`
	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]*entities.ConceptRelation, error) {
		res, err := tx.Run(ctx, query, map[string]any{"uuid": id.String()})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rels := make([]*entities.ConceptRelation, 0, len(records))
		for _, record := range records {
			target, _ := record.Values[0].(string)
			relType, _ := record.Values[1].(string)
			if !valueobjects.ConceptRelationType(relType).Valid() {
				continue
			}
			rel, err := entities.NewConceptRelation(id, valueobjects.EntityID(target), valueobjects.ConceptRelationType(relType))
			if err != nil {
				continue
			}
			rels = append(rels, rel)
		}
		return rels, nil
	})
	if err != nil {
		return nil, pkgerrors.NewUnavailable("get concept relations", err)
	}
	return out, nil
}

// DeleteRelation removes one directed typed edge
func (r *ConceptRepository) DeleteRelation(ctx context.Context, source, target valueobjects.EntityID, relType valueobjects.ConceptRelationType) error {
	if !relType.Valid() {
		return pkgerrors.NewValidation("unknown concept relation type: " + string(relType))
	}
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf(
		`MATCH (a:Concept {uuid: $source})-[rel:%s]->(b:Concept {uuid: $target})
		 DELETE rel`, string(relType))
	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"source": source.String(), "target": target.String()})
		if err != nil {
			return nil, err
		}
		return nil, res.Err()
	})
	if err != nil {
		return pkgerrors.NewUnavailable("delete concept relation", err)
	}
	return nil
}

// FindRelevant runs vector search at the concept-relevance threshold
func (r *ConceptRepository) FindRelevant(ctx context.Context, text string, limit int) ([]*entities.Concept, error) {
	return r.VectorSearch(ctx, text, limit, conceptRelevanceThreshold)
}

// GetConceptContext formats the top K relevant concepts as prompt context
func (r *ConceptRepository) GetConceptContext(ctx context.Context, text string, k int) (string, error) {
	concepts, err := r.FindRelevant(ctx, text, k)
	if err != nil {
		return "", err
	}
	if len(concepts) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString("Known related concepts:\n")
	for _, c := range concepts {
		name := c.Name
		if c.Title != "" {
			name = c.Title
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, c.SummaryShort)
	}
	return b.String(), nil
}
