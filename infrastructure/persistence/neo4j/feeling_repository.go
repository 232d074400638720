package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// FeelingRepository persists both feeling labels. Feelings reference a
// person and an emotion or concept; the referents must already exist, so
// the pipeline writes feelings after the entity pass.
type FeelingRepository struct {
	emotions *Repository[*entities.FeelingEmotion]
	concepts *Repository[*entities.FeelingConcept]
	driver   neo4j.DriverWithContext
	logger   *zap.Logger
}

// NewFeelingRepository builds the feeling repository
func NewFeelingRepository(driver neo4j.DriverWithContext, embedder ports.Embedder, logger *zap.Logger) *FeelingRepository {
	return &FeelingRepository{
		emotions: NewRepository(driver, FeelingEmotionMapping, embedder, logger),
		concepts: NewRepository(driver, FeelingConceptMapping, embedder, logger),
		driver:   driver,
		logger:   logger,
	}
}

var _ ports.FeelingRepository = (*FeelingRepository)(nil)

func (r *FeelingRepository) write(ctx context.Context, query string, params map[string]any) error {
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

// CreateEmotionFeeling persists the feeling node plus its FELT_BY edge to
// the person and FELT edge to the emotion. The node write reuses the
// generic Create; the edges are merged afterwards, so a retry of the edge
// step never duplicates them.
func (r *FeelingRepository) CreateEmotionFeeling(ctx context.Context, f *entities.FeelingEmotion) (valueobjects.EntityID, error) {
	uuid, err := r.emotions.Create(ctx, f)
	if err != nil {
		return "", err
	}
	err = r.write(ctx,
		`MATCH (f:FeelingEmotion {uuid: $feeling})
		 MATCH (p:Person {uuid: $person})
		 MATCH (e:Emotion {uuid: $emotion})
		 MERGE (f)-[:FELT_BY]->(p)
		 MERGE (f)-[:FELT]->(e)`,
		map[string]any{
			"feeling": uuid.String(),
			"person":  f.PersonUUID.String(),
			"emotion": f.EmotionUUID.String(),
		})
	if err != nil {
		return "", pkgerrors.NewUnavailable("link emotion feeling", err)
	}
	return uuid, nil
}

// CreateConceptFeeling persists the feeling node plus its FELT_BY / ABOUT
// edges to the person and concept
func (r *FeelingRepository) CreateConceptFeeling(ctx context.Context, f *entities.FeelingConcept) (valueobjects.EntityID, error) {
	uuid, err := r.concepts.Create(ctx, f)
	if err != nil {
		return "", err
	}
	err = r.write(ctx,
		`MATCH (f:FeelingConcept {uuid: $feeling})
		 MATCH (p:Person {uuid: $person})
		 MATCH (c:Concept {uuid: $concept})
		 MERGE (f)-[:FELT_BY]->(p)
		 MERGE (f)-[:ABOUT]->(c)`,
		map[string]any{
			"feeling": uuid.String(),
			"person":  f.PersonUUID.String(),
			"concept": f.ConceptUUID.String(),
		})
	if err != nil {
		return "", pkgerrors.NewUnavailable("link concept feeling", err)
	}
	return uuid, nil
}

// FindByIntensity returns emotion feelings with intensity in [min, max].
// Feelings without a recorded intensity never match.
func (r *FeelingRepository) FindByIntensity(ctx context.Context, min, max int) ([]*entities.FeelingEmotion, error) {
	return r.emotions.queryNodes(ctx,
		`MATCH (f:FeelingEmotion)
		 WHERE f.intensity >= $min AND f.intensity <= $max
		 RETURN f ORDER BY f.timestamp`,
		map[string]any{"min": min, "max": max})
}

// FindByTimeRange returns emotion feelings timestamped within [from, to]
func (r *FeelingRepository) FindByTimeRange(ctx context.Context, from, to time.Time) ([]*entities.FeelingEmotion, error) {
	return r.emotions.queryNodes(ctx,
		`MATCH (f:FeelingEmotion)
		 WHERE f.timestamp >= $from AND f.timestamp <= $to
		 RETURN f ORDER BY f.timestamp`,
		map[string]any{
			"from": from.UTC().Format(timeFormat),
			"to":   to.UTC().Format(timeFormat),
		})
}
