package service

import (
	"io"
	"testing"

	"coursecat-web/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceDecoder feeds canned rows to the processor.
type sliceDecoder struct {
	columns []string
	rows    []map[string]string
	pos     int
}

func (d *sliceDecoder) Columns() []string { return d.columns }

func (d *sliceDecoder) Next() (map[string]string, error) {
	if d.pos >= len(d.rows) {
		return nil, io.EOF
	}
	row := d.rows[d.pos]
	d.pos++
	return row, nil
}

func (d *sliceDecoder) Reset() error {
	d.pos = 0
	return nil
}

// captureTracker records every callback for assertions.
type captureTracker struct {
	outcomes []RowOutcome
	finished bool
	stats    models.ImportStats
}

func (t *captureTracker) Row(outcome RowOutcome) {
	t.outcomes = append(t.outcomes, outcome)
}

func (t *captureTracker) Finish(stats models.ImportStats) {
	t.finished = true
	t.stats = stats
}

func TestProcessorAggregatesOutcomes(t *testing.T) {
	store := newFakeStore()
	victim := store.seed("Arts", 0, "")
	store.seed("Drama", victim.ID, "")

	decoder := &sliceDecoder{
		columns: []string{"name", "idnumber", "deleted"},
		rows: []map[string]string{
			{"name": "Science", "idnumber": "1001"},
			{"name": "Science/Physics"},
			{"name": ""},
			{"name": "Arts", "deleted": "1"},
		},
	}
	tracker := &captureTracker{}

	policy := createPolicy()
	policy.Mode = models.ModeCreateOrUpdate
	policy.UpdateMode = models.UpdateDataOnly
	policy.AllowDeletes = true

	processor := NewImportProcessor(decoder, store, tracker, defaultOptions(policy))
	stats, err := processor.Execute()
	require.NoError(t, err)

	assert.Equal(t, models.ImportStats{Total: 4, Created: 2, Deleted: 1, Errors: 1}, stats)
	require.Len(t, tracker.outcomes, 4)
	assert.True(t, tracker.finished)
	assert.Equal(t, stats, tracker.stats)

	assert.True(t, tracker.outcomes[0].Succeeded)
	assert.Equal(t, OpCreate, tracker.outcomes[0].Operation)
	assert.NotZero(t, tracker.outcomes[0].CategoryID)

	assert.False(t, tracker.outcomes[2].Succeeded)
	assert.Contains(t, tracker.outcomes[2].Messages, string(ErrMissingMandatoryFields))

	assert.Equal(t, OpDelete, tracker.outcomes[3].Operation)
	assert.Equal(t, 4, tracker.outcomes[3].Line)
}

func TestProcessorCountsAutoCreatedAncestorsOnlyOnce(t *testing.T) {
	store := newFakeStore()
	decoder := &sliceDecoder{
		columns: []string{"name"},
		rows: []map[string]string{
			{"name": "Humanities/History/Modern"},
		},
	}
	tracker := &captureTracker{}

	processor := NewImportProcessor(decoder, store, tracker, defaultOptions(createPolicy()))
	stats, err := processor.Execute()
	require.NoError(t, err)

	// Three categories exist but only the row itself is counted.
	assert.Len(t, store.categories, 3)
	assert.Equal(t, models.ImportStats{Total: 1, Created: 1}, stats)
}

func TestProcessorStoreWriteFailureIsRowError(t *testing.T) {
	store := newFakeStore()
	store.failCreate = true
	decoder := &sliceDecoder{
		columns: []string{"name"},
		rows:    []map[string]string{{"name": "Science"}},
	}
	tracker := &captureTracker{}

	processor := NewImportProcessor(decoder, store, tracker, defaultOptions(createPolicy()))
	stats, err := processor.Execute()
	require.NoError(t, err)

	assert.Equal(t, models.ImportStats{Total: 1, Errors: 1}, stats)
	require.Len(t, tracker.outcomes, 1)
	assert.False(t, tracker.outcomes[0].Succeeded)
	assert.Contains(t, tracker.outcomes[0].Messages, string(ErrStoreCreateFailed))
}

func TestProcessorRejectsMissingColumns(t *testing.T) {
	processor := NewImportProcessor(&sliceDecoder{}, newFakeStore(), &captureTracker{}, defaultOptions(createPolicy()))
	_, err := processor.Execute()
	require.ErrorIs(t, err, ErrNoColumns)
}

func TestProcessorRejectsInvalidPolicy(t *testing.T) {
	decoder := &sliceDecoder{columns: []string{"name"}}
	opts := defaultOptions(createPolicy())
	opts.Policy.Mode = "sideways"

	processor := NewImportProcessor(decoder, newFakeStore(), &captureTracker{}, opts)
	_, err := processor.Execute()
	require.Error(t, err)
}

func TestProcessorRunsOnlyOnce(t *testing.T) {
	decoder := &sliceDecoder{columns: []string{"name"}}
	processor := NewImportProcessor(decoder, newFakeStore(), &captureTracker{}, defaultOptions(createPolicy()))

	_, err := processor.Execute()
	require.NoError(t, err)
	_, err = processor.Execute()
	require.Error(t, err)
}
