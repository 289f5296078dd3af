// Package monitoring computes batch-run health over a lookback window and
// raises webhook alerts when failure thresholds are crossed.
package monitoring

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/store"
)

// maxRunsPerWindow bounds how many runs one collection reads.
const maxRunsPerWindow = 10000

// RunSnapshot holds a point-in-time view of run health.
type RunSnapshot struct {
	Total    int     `json:"total"`
	Complete int     `json:"complete"`
	Failed   int     `json:"failed"`
	Running  int     `json:"running"`
	FailRate float64 `json:"fail_rate"`

	// Records and Outcomes sum over finished runs.
	Records   int         `json:"records"`
	Outcomes  model.Tally `json:"outcomes"`
	ErrorRate float64     `json:"error_rate"`

	Sources []SourceStats `json:"sources"`

	AvgDurationSecs float64   `json:"avg_duration_secs"`
	LookbackHours   int       `json:"lookback_hours"`
	CollectedAt     time.Time `json:"collected_at"`
}

// SourceStats counts runs for one source.
type SourceStats struct {
	Source string `json:"source"`
	Runs   int    `json:"runs"`
	Failed int    `json:"failed"`
}

// RunLister is the slice of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers run metrics from the run log.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect gathers a snapshot over the last lookbackHours.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*RunSnapshot, error) {
	now := c.now().UTC()
	snap := &RunSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{
		CreatedAfter: now.Add(-time.Duration(lookbackHours) * time.Hour),
		Limit:        maxRunsPerWindow,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	bySource := make(map[string]*SourceStats)
	var totalDur time.Duration
	for _, r := range runs {
		snap.Total++
		src := bySource[r.Source]
		if src == nil {
			src = &SourceStats{Source: r.Source}
			bySource[r.Source] = src
		}
		src.Runs++

		switch r.Status {
		case model.RunStatusComplete:
			snap.Complete++
			totalDur += r.UpdatedAt.Sub(r.CreatedAt)
		case model.RunStatusFailed:
			snap.Failed++
			src.Failed++
		default:
			snap.Running++
			continue
		}
		snap.Records += r.Records
		snap.Outcomes.Inserted += r.Tally.Inserted
		snap.Outcomes.Updated += r.Tally.Updated
		snap.Outcomes.Skipped += r.Tally.Skipped
		snap.Outcomes.Errors += r.Tally.Errors
	}

	if finished := snap.Complete + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	if total := snap.Outcomes.Total(); total > 0 {
		snap.ErrorRate = float64(snap.Outcomes.Errors) / float64(total)
	}
	if snap.Complete > 0 {
		snap.AvgDurationSecs = totalDur.Seconds() / float64(snap.Complete)
	}

	snap.Sources = make([]SourceStats, 0, len(bySource))
	for _, s := range bySource {
		snap.Sources = append(snap.Sources, *s)
	}
	sort.Slice(snap.Sources, func(i, j int) bool { return snap.Sources[i].Source < snap.Sources[j].Source })

	return snap, nil
}
