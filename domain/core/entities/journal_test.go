package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTemplate = `# 2024-05-03
wake: 07:30
sleep: 23:45
panas: 32/14
bpns: 5, 6, 4
flourishing: 6, 6, 5
## Narrative
Had coffee with [[Lucía]] and talked about the new album.`

func TestParseJournalTemplate(t *testing.T) {
	entry, err := ParseJournalTemplate(sampleTemplate)
	require.NoError(t, err)

	assert.Equal(t, "2024-05-03", entry.DateString())
	assert.Equal(t, sampleTemplate, entry.Text, "the full raw text is kept as Text")
	assert.Equal(t, "Had coffee with [[Lucía]] and talked about the new album.", entry.NarrativeExcerpt)

	require.NotNil(t, entry.WakeTime)
	assert.Equal(t, 7, entry.WakeTime.Hour())
	assert.Equal(t, 30, entry.WakeTime.Minute())
	require.NotNil(t, entry.SleepTime)
	assert.Equal(t, 23, entry.SleepTime.Hour())

	require.NotNil(t, entry.Surveys.PANASPositive)
	assert.Equal(t, 32.0, *entry.Surveys.PANASPositive)
	require.NotNil(t, entry.Surveys.PANASNegative)
	assert.Equal(t, 14.0, *entry.Surveys.PANASNegative)
	assert.Equal(t, []float64{5, 6, 4}, entry.Surveys.BPNS)
	assert.Equal(t, []float64{6, 6, 5}, entry.Surveys.Flourishing)
}

func TestParseJournalTemplate_HeadersOptional(t *testing.T) {
	entry, err := ParseJournalTemplate("# 2024-06-01\nJust the narrative, no headers.")
	require.NoError(t, err)
	assert.Nil(t, entry.WakeTime)
	assert.Nil(t, entry.Surveys.PANASPositive)
	assert.Empty(t, entry.Surveys.BPNS)
}

func TestParseJournalTemplate_RequiresDate(t *testing.T) {
	_, err := ParseJournalTemplate("wake: 07:30\nno date header here")
	assert.Error(t, err)
}

func TestNewJournalEntry_Validation(t *testing.T) {
	date := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)

	_, err := NewJournalEntry(date, "")
	assert.Error(t, err)

	_, err = NewJournalEntry(time.Time{}, "some text")
	assert.Error(t, err)

	entry, err := NewJournalEntry(date, "some text")
	require.NoError(t, err)
	assert.False(t, entry.UUID.IsEmpty())
	assert.Equal(t, KindJournalEntry, entry.Kind())
}
