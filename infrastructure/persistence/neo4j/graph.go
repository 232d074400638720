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

// Graph bundles every per-label repository over one driver and dispatches
// the kind-tagged operations the write stages need. It implements
// ports.GraphStore.
type Graph struct {
	Persons     *PersonRepository
	Emotions    *Repository[*entities.Emotion]
	Concepts    *ConceptRepository
	Contents    *ContentRepository
	Consumables *Repository[*entities.Consumable]
	Places      *Repository[*entities.Place]
	Events      *EventRepository
	Projects    *Repository[*entities.Project]
	Feelings    *FeelingRepository
	Journals    *JournalRepository
	Relations   *RelationRepository
	Stats       *StatsReader
}

// NewGraph wires all repositories over a shared driver
func NewGraph(driver neo4j.DriverWithContext, embedder ports.Embedder, logger *zap.Logger) *Graph {
	return &Graph{
		Persons:     NewPersonRepository(driver, embedder, logger),
		Emotions:    NewRepository(driver, EmotionMapping, embedder, logger),
		Concepts:    NewConceptRepository(driver, embedder, logger),
		Contents:    NewContentRepository(driver, embedder, logger),
		Consumables: NewRepository(driver, ConsumableMapping, embedder, logger),
		Places:      NewRepository(driver, PlaceMapping, embedder, logger),
		Events:      NewEventRepository(driver, embedder, logger),
		Projects:    NewRepository(driver, ProjectMapping, embedder, logger),
		Feelings:    NewFeelingRepository(driver, embedder, logger),
		Journals:    NewJournalRepository(driver, logger),
		Relations:   NewRelationRepository(driver, logger),
		Stats:       NewStatsReader(driver),
	}
}

var _ ports.GraphStore = (*Graph)(nil)

// FindEntity dispatches a lookup on the runtime kind
func (g *Graph) FindEntity(ctx context.Context, kind entities.Kind, id valueobjects.EntityID) (entities.Entity, error) {
	switch kind {
	case entities.KindPerson:
		return g.Persons.FindByUUID(ctx, id)
	case entities.KindEmotion:
		return g.Emotions.FindByUUID(ctx, id)
	case entities.KindConcept:
		return g.Concepts.FindByUUID(ctx, id)
	case entities.KindContent:
		return g.Contents.FindByUUID(ctx, id)
	case entities.KindConsumable:
		return g.Consumables.FindByUUID(ctx, id)
	case entities.KindPlace:
		return g.Places.FindByUUID(ctx, id)
	case entities.KindEvent:
		return g.Events.FindByUUID(ctx, id)
	case entities.KindProject:
		return g.Projects.FindByUUID(ctx, id)
	}
	return nil, pkgerrors.NewValidation("no graph label for entity kind " + string(kind))
}

// EntityExists dispatches an existence check on the runtime kind
func (g *Graph) EntityExists(ctx context.Context, kind entities.Kind, id valueobjects.EntityID) (bool, error) {
	switch kind {
	case entities.KindPerson:
		return g.Persons.Exists(ctx, id)
	case entities.KindEmotion:
		return g.Emotions.Exists(ctx, id)
	case entities.KindConcept:
		return g.Concepts.Exists(ctx, id)
	case entities.KindContent:
		return g.Contents.Exists(ctx, id)
	case entities.KindConsumable:
		return g.Consumables.Exists(ctx, id)
	case entities.KindPlace:
		return g.Places.Exists(ctx, id)
	case entities.KindEvent:
		return g.Events.Exists(ctx, id)
	case entities.KindProject:
		return g.Projects.Exists(ctx, id)
	}
	return false, pkgerrors.NewValidation("no graph label for entity kind " + string(kind))
}

// CreateEntity dispatches a create on the runtime kind
func (g *Graph) CreateEntity(ctx context.Context, e entities.Entity) (valueobjects.EntityID, error) {
	switch v := e.(type) {
	case *entities.Person:
		return g.Persons.Create(ctx, v)
	case *entities.Emotion:
		return g.Emotions.Create(ctx, v)
	case *entities.Concept:
		return g.Concepts.Create(ctx, v)
	case *entities.Content:
		return g.Contents.Create(ctx, v)
	case *entities.Consumable:
		return g.Consumables.Create(ctx, v)
	case *entities.Place:
		return g.Places.Create(ctx, v)
	case *entities.Event:
		return g.Events.Create(ctx, v)
	case *entities.Project:
		return g.Projects.Create(ctx, v)
	}
	return "", pkgerrors.NewValidation("no graph label for entity kind " + string(e.Kind()))
}

// UpdateEntity dispatches a patch on the runtime kind
func (g *Graph) UpdateEntity(ctx context.Context, kind entities.Kind, id valueobjects.EntityID, updates map[string]any) (valueobjects.EntityID, error) {
	switch kind {
	case entities.KindPerson:
		return g.Persons.Update(ctx, id, updates)
	case entities.KindEmotion:
		return g.Emotions.Update(ctx, id, updates)
	case entities.KindConcept:
		return g.Concepts.Update(ctx, id, updates)
	case entities.KindContent:
		return g.Contents.Update(ctx, id, updates)
	case entities.KindConsumable:
		return g.Consumables.Update(ctx, id, updates)
	case entities.KindPlace:
		return g.Places.Update(ctx, id, updates)
	case entities.KindEvent:
		return g.Events.Update(ctx, id, updates)
	case entities.KindProject:
		return g.Projects.Update(ctx, id, updates)
	}
	return "", pkgerrors.NewValidation("no graph label for entity kind " + string(kind))
}
