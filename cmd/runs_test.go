package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/monitoring"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Source:    "cnpja",
			Status:    model.RunStatusComplete,
			Records:   20,
			Tally:     model.Tally{Inserted: 12, Updated: 3, Skipped: 5},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Source:    "receita",
			Status:    model.RunStatusFailed,
			Error:     "receita: read archive: zip: not a valid zip file",
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-59 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "SOURCE")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "cnpja")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "2m0s")
	assert.Contains(t, output, "receita")
	assert.Contains(t, output, "error: receita: read archive")
}

func TestFormatRunsList_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, nil)
	assert.Contains(t, buf.String(), "ID")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}

func TestFormatRunStats(t *testing.T) {
	snap := &monitoring.RunSnapshot{
		Total:           3,
		Complete:        2,
		Failed:          1,
		FailRate:        1.0 / 3.0,
		Records:         30,
		Outcomes:        model.Tally{Inserted: 20, Skipped: 8, Errors: 2},
		ErrorRate:       0.0666,
		AvgDurationSecs: 90,
		LookbackHours:   24,
		Sources: []monitoring.SourceStats{
			{Source: "cnpja", Runs: 1, Failed: 1},
			{Source: "mock", Runs: 2},
		},
	}

	var buf bytes.Buffer
	formatRunStats(&buf, snap)

	output := buf.String()
	assert.Contains(t, output, "last 24h")
	assert.Contains(t, output, "3 (2 complete, 1 failed, 0 running)")
	assert.Contains(t, output, "33.3%")
	assert.Contains(t, output, "20 inserted, 0 updated, 8 skipped, 2 errors")
	assert.Contains(t, output, "6.7%")
	assert.Contains(t, output, "1m30s")
	assert.Contains(t, output, "SOURCE")
	assert.Contains(t, output, "cnpja")
}

func TestFormatRunStats_NoSources(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, &monitoring.RunSnapshot{LookbackHours: 6})
	assert.Contains(t, buf.String(), "last 6h")
	assert.NotContains(t, buf.String(), "SOURCE")
}

func TestRunStats_FromLedger(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := runBatch(ctx, env, staticSource{name: "mock", records: []model.RawCompany{dealership(), bakery()}}, batchOptions{})
	require.NoError(t, err)
	_, err = runBatch(ctx, env, failingSource{}, batchOptions{})
	require.Error(t, err)

	snap, err := monitoring.NewCollector(env.Store).Collect(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 1, snap.Complete)
	assert.Equal(t, 1, snap.Failed)
	assert.Equal(t, 2, snap.Outcomes.Inserted)
	assert.InDelta(t, 0.5, snap.FailRate, 0.0001)
}
