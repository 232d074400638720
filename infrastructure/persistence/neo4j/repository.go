package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// similarityThreshold is the default floor for FindSimilar
const similarityThreshold = 0.7

// Repository is the generic per-label graph repository. One session is
// opened per call; there are no cross-call transaction contexts.
type Repository[T entities.Entity] struct {
	driver   neo4j.DriverWithContext
	mapping  Mapping[T]
	embedder ports.Embedder
	logger   *zap.Logger
}

// NewRepository builds a repository for one label
func NewRepository[T entities.Entity](driver neo4j.DriverWithContext, mapping Mapping[T], embedder ports.Embedder, logger *zap.Logger) *Repository[T] {
	return &Repository[T]{
		driver:   driver,
		mapping:  mapping,
		embedder: embedder,
		logger:   logger.With(zap.String("label", mapping.Label)),
	}
}

// Label returns the node label this repository writes
func (r *Repository[T]) Label() string {
	return r.mapping.Label
}

// ensureEmbedding generates the embedding from Summary when absent. An
// entity with no summary is stored without a vector.
func (r *Repository[T]) ensureEmbedding(ctx context.Context, entity T) error {
	core := entity.Core()
	if len(core.Embedding) > 0 || core.Summary == "" {
		return nil
	}
	embedding, err := r.embedder.CreateEmbedding(ctx, core.Summary)
	if err != nil {
		return pkgerrors.NewUnavailable("generate embedding", err)
	}
	core.Embedding = embedding
	return nil
}

// Create persists the entity and returns the stored UUID. Not idempotent:
// repeated calls create duplicate nodes; the pipeline runs DB_WRITE once.
func (r *Repository[T]) Create(ctx context.Context, entity T) (valueobjects.EntityID, error) {
	if err := r.ensureEmbedding(ctx, entity); err != nil {
		return "", err
	}
	props := r.mapping.ToProps(entity)

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf("CREATE (n:%s) SET n = $props RETURN n.uuid AS uuid", r.mapping.Label)
	uuid, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (string, error) {
		res, err := tx.Run(ctx, query, map[string]any{"props": props})
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
		return "", pkgerrors.NewUnavailable("create "+r.mapping.Label, err)
	}
	return valueobjects.EntityID(uuid), nil
}

// Update applies a field patch and bumps updated_at. A patch touching
// "summary" regenerates the embedding; all other patches leave it alone.
func (r *Repository[T]) Update(ctx context.Context, id valueobjects.EntityID, updates map[string]any) (valueobjects.EntityID, error) {
	if len(updates) == 0 {
		return id, nil
	}
	patch := make(map[string]any, len(updates)+2)
	for k, v := range updates {
		patch[k] = v
	}
	if summary, ok := updates["summary"].(string); ok && summary != "" {
		embedding, err := r.embedder.CreateEmbedding(ctx, summary)
		if err != nil {
			return "", pkgerrors.NewUnavailable("regenerate embedding", err)
		}
		patch["embedding"] = embeddingToProp(embedding)
	}
	patch["updated_at"] = time.Now().UTC().Format(timeFormat)

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf("MATCH (n:%s {uuid: $uuid}) SET n += $patch RETURN n.uuid AS uuid", r.mapping.Label)
	uuid, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (string, error) {
		res, err := tx.Run(ctx, query, map[string]any{"uuid": id.String(), "patch": patch})
		if err != nil {
			return "", err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return "", nil
		}
		uuid, _ := records[0].Values[0].(string)
		return uuid, nil
	})
	if err != nil {
		return "", pkgerrors.NewUnavailable("update "+r.mapping.Label, err)
	}
	if uuid == "" {
		return "", pkgerrors.NewNotFound(r.mapping.Label + " " + id.String() + " not found")
	}
	return valueobjects.EntityID(uuid), nil
}

// FindByUUID retrieves one entity, or NotFound
func (r *Repository[T]) FindByUUID(ctx context.Context, id valueobjects.EntityID) (T, error) {
	var zero T
	query := fmt.Sprintf("MATCH (n:%s {uuid: $uuid}) RETURN n", r.mapping.Label)
	nodes, err := r.queryNodes(ctx, query, map[string]any{"uuid": id.String()})
	if err != nil {
		return zero, err
	}
	if len(nodes) == 0 {
		return zero, pkgerrors.NewNotFound(r.mapping.Label + " " + id.String() + " not found")
	}
	return nodes[0], nil
}

// ListAll pages through nodes under the label, oldest first
func (r *Repository[T]) ListAll(ctx context.Context, limit, offset int) ([]T, error) {
	query := fmt.Sprintf(
		"MATCH (n:%s) RETURN n ORDER BY n.created_at SKIP $offset LIMIT $limit", r.mapping.Label)
	return r.queryNodes(ctx, query, map[string]any{"offset": offset, "limit": limit})
}

// Count returns the number of nodes with this label
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", r.mapping.Label)
	count, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) (int64, error) {
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return 0, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return 0, err
		}
		count, _ := record.Values[0].(int64)
		return count, nil
	})
	if err != nil {
		return 0, pkgerrors.NewUnavailable("count "+r.mapping.Label, err)
	}
	return count, nil
}

// Exists reports whether the uuid exists under this label
func (r *Repository[T]) Exists(ctx context.Context, id valueobjects.EntityID) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf("MATCH (n:%s {uuid: $uuid}) RETURN count(n) > 0 AS found", r.mapping.Label)
	found, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) (bool, error) {
		res, err := tx.Run(ctx, query, map[string]any{"uuid": id.String()})
		if err != nil {
			return false, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return false, err
		}
		found, _ := record.Values[0].(bool)
		return found, nil
	})
	if err != nil {
		return false, pkgerrors.NewUnavailable("check "+r.mapping.Label+" exists", err)
	}
	return found, nil
}

// SearchByText scans string property values for the term
func (r *Repository[T]) SearchByText(ctx context.Context, term string, limit int) ([]T, error) {
	query := fmt.Sprintf(
		`MATCH (n:%s)
		 WHERE any(key IN keys(n) WHERE n[key] IS :: STRING AND toLower(n[key]) CONTAINS toLower($term))
		 RETURN n LIMIT $limit`, r.mapping.Label)
	return r.queryNodes(ctx, query, map[string]any{"term": term, "limit": limit})
}

// Delete detach-deletes the node; true iff at least one node matched
func (r *Repository[T]) Delete(ctx context.Context, id valueobjects.EntityID) (bool, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := fmt.Sprintf(
		"MATCH (n:%s {uuid: $uuid}) DETACH DELETE n RETURN count(n) AS deleted", r.mapping.Label)
	deleted, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (int64, error) {
		res, err := tx.Run(ctx, query, map[string]any{"uuid": id.String()})
		if err != nil {
			return 0, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return 0, err
		}
		deleted, _ := record.Values[0].(int64)
		return deleted, nil
	})
	if err != nil {
		return false, pkgerrors.NewUnavailable("delete "+r.mapping.Label, err)
	}
	return deleted > 0, nil
}

// VectorSearch embeds the query and runs the label's vector index. An empty
// or failing embedding degrades to an empty result, logged at warn so
// operators can observe reduced LLM availability.
func (r *Repository[T]) VectorSearch(ctx context.Context, query string, limit int, threshold float64) ([]T, error) {
	embedding, err := r.embedder.CreateEmbedding(ctx, query)
	if err != nil || len(embedding) == 0 {
		r.logger.Warn("vector search degraded: query embedding unavailable", zap.Error(err))
		return nil, nil
	}
	return r.vectorSearchByEmbedding(ctx, embedding, limit, threshold, "")
}

// FindSimilar searches with the entity's own embedding, excluding itself
func (r *Repository[T]) FindSimilar(ctx context.Context, entity T, limit int) ([]T, error) {
	core := entity.Core()
	if len(core.Embedding) == 0 {
		return nil, nil
	}
	return r.vectorSearchByEmbedding(ctx, core.Embedding, limit, similarityThreshold, core.UUID.String())
}

func (r *Repository[T]) vectorSearchByEmbedding(ctx context.Context, embedding []float32, limit int, threshold float64, excludeUUID string) ([]T, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	// The index may return the excluded node, so over-fetch by one.
	k := limit
	if excludeUUID != "" {
		k++
	}
	query := `CALL db.index.vector.queryNodes($index, $k, $embedding)
	          YIELD node, score
	          WHERE score >= $threshold AND ($exclude = '' OR node.uuid <> $exclude)
	          RETURN node LIMIT $limit`
	params := map[string]any{
		"index":     vectorIndexName(r.mapping.Label),
		"k":         k,
		"embedding": embeddingToProp(embedding),
		"threshold": threshold,
		"exclude":   excludeUUID,
		"limit":     limit,
	}

	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]T, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return r.collectNodes(ctx, res)
	})
	if err != nil {
		r.logger.Warn("vector search degraded: index query failed", zap.Error(err))
		return nil, nil
	}
	return out, nil
}

func (r *Repository[T]) queryNodes(ctx context.Context, query string, params map[string]any) ([]T, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]T, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return r.collectNodes(ctx, res)
	})
	if err != nil {
		return nil, pkgerrors.NewUnavailable("query "+r.mapping.Label, err)
	}
	return out, nil
}

func (r *Repository[T]) collectNodes(ctx context.Context, res neo4j.ResultWithContext) ([]T, error) {
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, record := range records {
		node, ok := record.Values[0].(neo4j.Node)
		if !ok {
			continue
		}
		entity, err := r.mapping.FromProps(node.Props)
		if err != nil {
			r.logger.Warn("skipping unmappable node", zap.Error(err))
			continue
		}
		out = append(out, entity)
	}
	return out, nil
}
