package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestionRunStatsRoundTrip(t *testing.T) {
	run := &IngestionRun{RunID: "run-1", Status: RunStatusRunning}

	stats := RunStats{
		StubsTotal:         100,
		StubsProcessed:     100,
		Created:            80,
		SkippedExisting:    10,
		SkippedInvalidDate: 5,
		SkippedMismatch:    2,
		SkippedDuplicate:   1,
		Failed:             2,
	}
	require.NoError(t, run.SetStats(stats))

	decoded, err := run.GetStats()
	require.NoError(t, err)
	assert.Equal(t, stats, decoded)
}

func TestIngestionRunGetStats_EmptyColumn(t *testing.T) {
	run := &IngestionRun{RunID: "run-1"}

	stats, err := run.GetStats()

	require.NoError(t, err)
	assert.Equal(t, RunStats{}, stats)
}

func TestIngestionRunMarkCompleted(t *testing.T) {
	run := &IngestionRun{RunID: "run-1", Status: RunStatusRunning}

	run.MarkCompleted()

	assert.Equal(t, RunStatusCompleted, run.Status)
	require.NotNil(t, run.FinishedAt)
	assert.Nil(t, run.ErrorMessage)
}

func TestIngestionRunMarkFailed(t *testing.T) {
	run := &IngestionRun{RunID: "run-1", Status: RunStatusRunning}

	run.MarkFailed(fmt.Errorf("export fetch returned 404"))

	assert.Equal(t, RunStatusFailed, run.Status)
	require.NotNil(t, run.FinishedAt)
	require.NotNil(t, run.ErrorMessage)
	assert.Equal(t, "export fetch returned 404", *run.ErrorMessage)
}
