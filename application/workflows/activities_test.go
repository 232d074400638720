package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	"github.com/alexelgier/minerva/domain/core/valueobjects"
	"github.com/alexelgier/minerva/pkg/codec"
	"github.com/alexelgier/minerva/pkg/observability"
)

// fakeCurationStore scripts the pending counts so the poll loop has to
// iterate before the gate opens.
type fakeCurationStore struct {
	ports.CurationStore
	pendingEntities  []int
	entityPollCalls  int
	entityPhaseDone  bool
	accepted         []codec.EntityWithSpans
	createdJournals  []valueobjects.EntityID
	queuedEntityRuns int
}

func (s *fakeCurationStore) CreateJournalForCuration(_ context.Context, journalUUID valueobjects.EntityID, _ string) error {
	s.createdJournals = append(s.createdJournals, journalUUID)
	return nil
}

func (s *fakeCurationStore) QueueEntitiesForCuration(context.Context, valueobjects.EntityID, string, []codec.EntityWithSpans) error {
	s.queuedEntityRuns++
	return nil
}

func (s *fakeCurationStore) PendingEntityCount(context.Context, valueobjects.EntityID) (int, error) {
	if s.entityPollCalls < len(s.pendingEntities) {
		count := s.pendingEntities[s.entityPollCalls]
		s.entityPollCalls++
		return count, nil
	}
	return 0, nil
}

func (s *fakeCurationStore) CompleteEntityPhase(context.Context, valueobjects.EntityID) error {
	s.entityPhaseDone = true
	return nil
}

func (s *fakeCurationStore) GetAcceptedEntitiesWithSpans(context.Context, valueobjects.EntityID) ([]codec.EntityWithSpans, error) {
	return s.accepted, nil
}

type fakeNotifier struct {
	notifications []ports.PendingCuration
	err           error
}

func (n *fakeNotifier) NotifyPending(_ context.Context, p ports.PendingCuration) error {
	n.notifications = append(n.notifications, p)
	return n.err
}

func newTestActivities(store ports.CurationStore, notifier ports.CurationNotifier) *Activities {
	return NewActivities(nil, nil, nil, store, notifier, nil,
		observability.NewMetrics(), 10*time.Millisecond, zap.NewNop())
}

func TestWaitForEntityCuration_PollsUntilDrained(t *testing.T) {
	store := &fakeCurationStore{
		pendingEntities: []int{2, 1, 0},
		accepted:        testCuratedEntities(t),
	}
	a := newTestActivities(store, &fakeNotifier{})

	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestActivityEnvironment()
	env.RegisterActivity(a.WaitForEntityCuration)

	future, err := env.ExecuteActivity(a.WaitForEntityCuration, valueobjects.NewEntityID())
	require.NoError(t, err)

	var accepted []codec.EntityWithSpans
	require.NoError(t, future.Get(&accepted))

	assert.Equal(t, 3, store.entityPollCalls, "polled until pending hit zero")
	assert.True(t, store.entityPhaseDone, "the phase closes after the gate opens")
	assert.Len(t, accepted, 2)
}

func TestSubmitEntityCuration(t *testing.T) {
	store := &fakeCurationStore{}
	notifier := &fakeNotifier{}
	a := newTestActivities(store, notifier)
	journal := testJournal(t)

	err := a.SubmitEntityCuration(context.Background(), SubmitEntityCurationInput{
		WorkflowID: "journal-2024-05-03-x",
		Journal:    journal,
		Items:      testCuratedEntities(t),
	})
	require.NoError(t, err)

	assert.Equal(t, []valueobjects.EntityID{journal.UUID}, store.createdJournals)
	assert.Equal(t, 1, store.queuedEntityRuns)
	require.Len(t, notifier.notifications, 1)
	assert.Equal(t, ports.JournalPendingEntities, notifier.notifications[0].Phase)
	assert.Equal(t, 2, notifier.notifications[0].ItemCount)
}

func TestSubmitEntityCuration_NotificationFailureIsNotFatal(t *testing.T) {
	store := &fakeCurationStore{}
	notifier := &fakeNotifier{err: errors.New("redis down")}
	a := newTestActivities(store, notifier)

	err := a.SubmitEntityCuration(context.Background(), SubmitEntityCurationInput{
		Journal: testJournal(t),
	})
	assert.NoError(t, err, "the durable queue is the store; notification is best effort")
}

func TestSubmitEntityCuration_RequiresJournal(t *testing.T) {
	a := newTestActivities(&fakeCurationStore{}, &fakeNotifier{})
	err := a.SubmitEntityCuration(context.Background(), SubmitEntityCurationInput{})
	assert.Error(t, err)
}
