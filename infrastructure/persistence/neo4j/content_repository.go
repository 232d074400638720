package neo4j

import (
	"context"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// ContentRepository adds the content-specific operations: authorship edges,
// quote attachment, and the processed flag the concept pipeline drains on.
type ContentRepository struct {
	*Repository[*entities.Content]
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewContentRepository builds the content repository
func NewContentRepository(driver neo4j.DriverWithContext, embedder ports.Embedder, logger *zap.Logger) *ContentRepository {
	return &ContentRepository{
		Repository: NewRepository(driver, ContentMapping, embedder, logger),
		driver:     driver,
		logger:     logger,
	}
}

var _ ports.ContentRepository = (*ContentRepository)(nil)

func (r *ContentRepository) write(ctx context.Context, query string, params map[string]any) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return nil, res.Err()
	})
	return err
}

// CreateAuthoredBy merges an AUTHORED_BY edge from author to content
func (r *ContentRepository) CreateAuthoredBy(ctx context.Context, authorUUID, contentUUID valueobjects.EntityID) error {
	err := r.write(ctx,
		`MATCH (a:Person {uuid: $author}), (c:Content {uuid: $content})
		 MERGE (a)-[:AUTHORED_BY]->(c)`,
		map[string]any{"author": authorUUID.String(), "content": contentUUID.String()})
	if err != nil {
		return pkgerrors.NewUnavailable("create authored-by edge", err)
	}
	return nil
}

// ListUnprocessed returns content that has not been through concept
// extraction, oldest first.
func (r *ContentRepository) ListUnprocessed(ctx context.Context, limit int) ([]*entities.Content, error) {
	return r.queryNodes(ctx,
		`MATCH (c:Content)
		 WHERE c.status <> $processed
		 RETURN c ORDER BY c.created_at LIMIT $limit`,
		map[string]any{"processed": string(entities.ContentStatusProcessed), "limit": limit})
}

// MarkProcessed flips the content status after concept extraction
func (r *ContentRepository) MarkProcessed(ctx context.Context, id valueobjects.EntityID) error {
	err := r.write(ctx,
		`MATCH (c:Content {uuid: $uuid}) SET c.status = $status`,
		map[string]any{"uuid": id.String(), "status": string(entities.ContentStatusProcessed)})
	if err != nil {
		return pkgerrors.NewUnavailable("mark content processed", err)
	}
	return nil
}

// GetQuotes returns the quote nodes attached to a content entity
func (r *ContentRepository) GetQuotes(ctx context.Context, id valueobjects.EntityID) ([]*entities.Quote, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	query := `MATCH (c:Content {uuid: $uuid})-[:HAS_QUOTE]->(q:Quote)
	          RETURN q ORDER BY q.created_at`
	out, err := neo4j.ExecuteRead(ctx, session, func(tx neo4j.ManagedTransaction) ([]*entities.Quote, error) {
		res, err := tx.Run(ctx, query, map[string]any{"uuid": id.String()})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		quotes := make([]*entities.Quote, 0, len(records))
		for _, record := range records {
			node, ok := record.Values[0].(neo4j.Node)
			if !ok {
				continue
			}
			quote, err := quoteFromProps(node.Props)
			if err != nil {
				r.logger.Warn("skipping unmappable quote node", zap.Error(err))
				continue
			}
			quotes = append(quotes, quote)
		}
		return quotes, nil
	})
	if err != nil {
		return nil, pkgerrors.NewUnavailable("get content quotes", err)
	}
	return out, nil
}

// AttachQuote persists a quote node and merges a HAS_QUOTE edge from the
// content. The quote node itself is merged on uuid, so retries are safe.
func (r *ContentRepository) AttachQuote(ctx context.Context, contentUUID valueobjects.EntityID, quote *entities.Quote) error {
	err := r.write(ctx,
		`MATCH (c:Content {uuid: $content})
		 MERGE (q:Quote {uuid: $quote_uuid})
		 ON CREATE SET q = $props
		 MERGE (c)-[:HAS_QUOTE]->(q)`,
		map[string]any{
			"content":    contentUUID.String(),
			"quote_uuid": quote.UUID.String(),
			"props":      quoteToProps(quote),
		})
	if err != nil {
		return pkgerrors.NewUnavailable("attach quote", err)
	}
	return nil
}

// CreateSupports merges a SUPPORTS edge from a quote to a concept
func (r *ContentRepository) CreateSupports(ctx context.Context, quoteUUID, conceptUUID valueobjects.EntityID) error {
	err := r.write(ctx,
		`MATCH (q:Quote {uuid: $quote}), (c:Concept {uuid: $concept})
		 MERGE (q)-[:SUPPORTS]->(c)`,
		map[string]any{"quote": quoteUUID.String(), "concept": conceptUUID.String()})
	if err != nil {
		return pkgerrors.NewUnavailable("create supports edge", err)
	}
	return nil
}
