package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/entities"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
)

// opLog records graph operations in execution order so tests can assert the
// write ordering invariant.
type opLog struct {
	ops []string
}

func (l *opLog) record(op string) { l.ops = append(l.ops, op) }

type fakeGraphStore struct {
	log      *opLog
	existing map[valueobjects.EntityID]bool
}

func (g *fakeGraphStore) FindEntity(context.Context, entities.Kind, valueobjects.EntityID) (entities.Entity, error) {
	panic("not used")
}

func (g *fakeGraphStore) EntityExists(_ context.Context, _ entities.Kind, id valueobjects.EntityID) (bool, error) {
	return g.existing[id], nil
}

func (g *fakeGraphStore) CreateEntity(_ context.Context, e entities.Entity) (valueobjects.EntityID, error) {
	g.log.record("create:" + e.Core().Name)
	return e.ID(), nil
}

func (g *fakeGraphStore) UpdateEntity(_ context.Context, _ entities.Kind, id valueobjects.EntityID, _ map[string]any) (valueobjects.EntityID, error) {
	g.log.record("update:" + id.String())
	return id, nil
}

type fakeJournalRepo struct {
	ports.JournalRepository
	log      *opLog
	mentions int
}

func (r *fakeJournalRepo) Create(_ context.Context, entry *entities.JournalEntry) (valueobjects.EntityID, error) {
	r.log.record("journal")
	return entry.UUID, nil
}

func (r *fakeJournalRepo) LinkMention(context.Context, valueobjects.EntityID, valueobjects.EntityID) error {
	r.mentions++
	return nil
}

type fakeRelationRepo struct {
	ports.RelationRepository
	log *opLog
}

func (r *fakeRelationRepo) CreateRelation(_ context.Context, rel *entities.Relation) error {
	r.log.record("relation:" + rel.Type)
	return nil
}

type fakeFeelingRepo struct {
	ports.FeelingRepository
	log *opLog
}

func (r *fakeFeelingRepo) CreateEmotionFeeling(_ context.Context, f *entities.FeelingEmotion) (valueobjects.EntityID, error) {
	r.log.record("feeling_emotion")
	return f.UUID, nil
}

func (r *fakeFeelingRepo) CreateConceptFeeling(_ context.Context, f *entities.FeelingConcept) (valueobjects.EntityID, error) {
	r.log.record("feeling_concept")
	return f.UUID, nil
}

type conceptEdge struct {
	source, target valueobjects.EntityID
	relType        valueobjects.ConceptRelationType
}

type fakeConceptRepo struct {
	ports.ConceptRepository
	log      *opLog
	existing map[valueobjects.EntityID]bool
	edges    []conceptEdge
}

func (r *fakeConceptRepo) Exists(_ context.Context, id valueobjects.EntityID) (bool, error) {
	return r.existing[id], nil
}

func (r *fakeConceptRepo) Create(_ context.Context, c *entities.Concept) (valueobjects.EntityID, error) {
	r.log.record("concept_create:" + c.Name)
	r.existing[c.UUID] = true
	return c.UUID, nil
}

func (r *fakeConceptRepo) Update(_ context.Context, id valueobjects.EntityID, _ map[string]any) (valueobjects.EntityID, error) {
	r.log.record("concept_update")
	return id, nil
}

func (r *fakeConceptRepo) CreateRelation(_ context.Context, source, target valueobjects.EntityID, relType valueobjects.ConceptRelationType) error {
	r.log.record("concept_relation:" + string(relType))
	r.edges = append(r.edges, conceptEdge{source, target, relType})
	return nil
}

type fakeContentRepo struct {
	ports.ContentRepository
	log       *opLog
	supports  int
	processed []valueobjects.EntityID
}

func (r *fakeContentRepo) CreateSupports(context.Context, valueobjects.EntityID, valueobjects.EntityID) error {
	r.supports++
	return nil
}

func (r *fakeContentRepo) MarkProcessed(_ context.Context, id valueobjects.EntityID) error {
	r.processed = append(r.processed, id)
	return nil
}

type writeFixture struct {
	log      *opLog
	graph    *fakeGraphStore
	journals *fakeJournalRepo
	concepts *fakeConceptRepo
	contents *fakeContentRepo
	svc      *GraphWriteService
}

func newWriteFixture() *writeFixture {
	log := &opLog{}
	f := &writeFixture{
		log:      log,
		graph:    &fakeGraphStore{log: log, existing: map[valueobjects.EntityID]bool{}},
		journals: &fakeJournalRepo{log: log},
		concepts: &fakeConceptRepo{log: log, existing: map[valueobjects.EntityID]bool{}},
		contents: &fakeContentRepo{log: log},
	}
	f.svc = NewGraphWriteService(f.graph, f.journals, &fakeRelationRepo{log: log},
		&fakeFeelingRepo{log: log}, f.concepts, f.contents, zap.NewNop())
	return f
}

func TestWriteJournalGraph(t *testing.T) {
	f := newWriteFixture()
	journal, err := entities.NewJournalEntry(time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), "entry text")
	require.NoError(t, err)

	person, err := entities.NewPerson("Lucía", "", "")
	require.NoError(t, err)
	content, err := entities.NewContent("GEB", "", "", valueobjects.ContentCategoryBook)
	require.NoError(t, err)
	known, err := entities.NewPerson("Alex", "", "updated summary")
	require.NoError(t, err)
	f.graph.existing[known.UUID] = true

	rel, err := entities.NewRelation(person.UUID, known.UUID, "KNOWS", nil)
	require.NoError(t, err)
	feeling, err := entities.NewFeelingEmotion("calm", known.UUID, person.UUID, journal.Date)
	require.NoError(t, err)

	result, err := f.svc.WriteJournalGraph(context.Background(), journal,
		[]codec.EntityWithSpans{{Entity: person}, {Entity: content}, {Entity: known}},
		[]codec.CuratableItem{
			codec.NewRelationItem(rel, nil, nil),
			codec.NewFeelingEmotionItem(feeling, nil),
		})
	require.NoError(t, err)

	assert.Equal(t, journal.UUID, result.JournalUUID)
	assert.Equal(t, 3, result.EntityCount)
	assert.Equal(t, 1, result.RelationCount)
	assert.Equal(t, 1, result.FeelingCount)
	assert.Equal(t, []valueobjects.EntityID{content.UUID}, result.ContentUUIDs)
	assert.Equal(t, 3, f.journals.mentions, "every entity gets a MENTIONED_IN edge")

	// Journal first, then all entities (the known one patched, not recreated),
	// then relationships and feelings.
	assert.Equal(t, []string{
		"journal",
		"create:Lucía",
		"create:GEB",
		"update:" + known.UUID.String(),
		"relation:KNOWS",
		"feeling_emotion",
	}, f.log.ops)
}

func TestWriteJournalGraph_ConceptRelationWritesBothDirections(t *testing.T) {
	f := newWriteFixture()
	journal, err := entities.NewJournalEntry(time.Now(), "entry")
	require.NoError(t, err)

	source := valueobjects.NewEntityID()
	target := valueobjects.NewEntityID()
	rel, err := entities.NewConceptRelation(source, target, valueobjects.ConceptRelPartOf)
	require.NoError(t, err)

	_, err = f.svc.WriteJournalGraph(context.Background(), journal, nil,
		[]codec.CuratableItem{codec.NewConceptRelationItem(rel)})
	require.NoError(t, err)

	require.Len(t, f.concepts.edges, 2)
	assert.Equal(t, conceptEdge{source, target, valueobjects.ConceptRelPartOf}, f.concepts.edges[0])
	assert.Equal(t, conceptEdge{target, source, valueobjects.ConceptRelHasPart}, f.concepts.edges[1])
}

func TestWriteJournalGraph_NilJournal(t *testing.T) {
	f := newWriteFixture()
	_, err := f.svc.WriteJournalGraph(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}

func TestWriteConcepts(t *testing.T) {
	f := newWriteFixture()
	contentUUID := valueobjects.NewEntityID()
	quotes := []valueobjects.EntityID{valueobjects.NewEntityID(), valueobjects.NewEntityID()}

	fresh, err := entities.NewConcept("emergence", "", "")
	require.NoError(t, err)
	known, err := entities.NewConcept("recursion", "", "refined summary")
	require.NoError(t, err)
	f.concepts.existing[known.UUID] = true

	goodRel, err := entities.NewConceptRelation(fresh.UUID, known.UUID, valueobjects.ConceptRelRelatesTo)
	require.NoError(t, err)
	danglingRel, err := entities.NewConceptRelation(fresh.UUID, valueobjects.NewEntityID(), valueobjects.ConceptRelSupports)
	require.NoError(t, err)

	result, err := f.svc.WriteConcepts(context.Background(), contentUUID,
		[]*entities.Concept{fresh, known}, quotes,
		[]*entities.ConceptRelation{goodRel, danglingRel})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ConceptCount)
	assert.Equal(t, 4, result.SupportCount, "every quote supports every accepted concept")
	assert.Equal(t, 1, result.RelationCount, "the relation with a missing endpoint is dropped")
	assert.Equal(t, 4, f.contents.supports)
	assert.Equal(t, []valueobjects.EntityID{contentUUID}, f.contents.processed)

	// RELATES_TO is symmetric, so both directions carry the same type.
	require.Len(t, f.concepts.edges, 2)
	assert.Equal(t, valueobjects.ConceptRelRelatesTo, f.concepts.edges[0].relType)
	assert.Equal(t, valueobjects.ConceptRelRelatesTo, f.concepts.edges[1].relType)
}

func TestWriteConcepts_EmptyContentUUID(t *testing.T) {
	f := newWriteFixture()
	_, err := f.svc.WriteConcepts(context.Background(), "", nil, nil, nil)
	assert.Error(t, err)
}
