package workflows

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/domain/core/entities"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

func TestNewOrchestrator_DefaultQueues(t *testing.T) {
	o := NewOrchestrator(nil, "", "", zap.NewNop())
	assert.Equal(t, DefaultTaskQueue, o.taskQueue)
	assert.Equal(t, DefaultConceptTaskQueue, o.conceptTaskQueue)

	o = NewOrchestrator(nil, "custom", "custom-concepts", zap.NewNop())
	assert.Equal(t, "custom", o.taskQueue)
	assert.Equal(t, "custom-concepts", o.conceptTaskQueue)
}

func TestSubmitJournal_RejectsBeforeDialing(t *testing.T) {
	o := NewOrchestrator(nil, "", "", zap.NewNop())

	_, err := o.SubmitJournal(context.Background(), nil)
	assert.True(t, pkgerrors.IsValidation(err))

	// A journal built by hand rather than the constructor carries no UUID
	// and no text; validation stops it before any workflow is started.
	_, err = o.SubmitJournal(context.Background(), &entities.JournalEntry{})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestStartConceptExtraction_RequiresContent(t *testing.T) {
	o := NewOrchestrator(nil, "", "", zap.NewNop())

	_, err := o.StartConceptExtraction(context.Background(), nil)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = o.StartConceptExtraction(context.Background(), &entities.Content{})
	assert.True(t, pkgerrors.IsValidation(err))
}
