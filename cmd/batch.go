package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/source"
)

// batchOptions controls one pass of records through enrichment and
// reconciliation.
type batchOptions struct {
	// DryRun enriches without touching the ledger or the run log.
	DryRun bool
	// Complete, when set, fills in records that arrive without secondary
	// activities before they are classified.
	Complete source.DetailLookup
}

// batchResult summarizes a finished batch.
type batchResult struct {
	RunID     string               `json:"run_id,omitempty"`
	Source    string               `json:"source"`
	Records   int                  `json:"records"`
	Completed int                  `json:"completed"`
	Tally     model.Tally          `json:"tally"`
	Leads     []model.EnrichedLead `json:"leads"`
}

// staticSource serves records already in hand, such as an API request body.
type staticSource struct {
	name    string
	records []model.RawCompany
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Fetch(context.Context) ([]model.RawCompany, error) {
	return s.records, nil
}

// runBatch fetches from src, enriches, and reconciles, recording the batch in
// the run log unless DryRun is set.
func runBatch(ctx context.Context, env *radarEnv, src source.Source, opts batchOptions) (*batchResult, error) {
	log := zap.L().With(zap.String("source", src.Name()))

	if opts.DryRun {
		return processBatch(ctx, env, src, opts)
	}

	run, err := env.Store.CreateRun(ctx, src.Name())
	if err != nil {
		return nil, eris.Wrap(err, "batch: create run")
	}
	log = log.With(zap.String("run_id", run.ID))

	res, runErr := processBatch(ctx, env, src, opts)

	var records int
	var tally model.Tally
	if res != nil {
		res.RunID = run.ID
		records, tally = res.Records, res.Tally
	}
	// The run must be closed out even when ctx was cancelled mid-batch.
	if err := env.Store.CompleteRun(context.WithoutCancel(ctx), run.ID, records, tally, runErr); err != nil {
		log.Error("batch: complete run", zap.Error(err))
	}

	if runErr != nil {
		log.Error("batch: run failed", zap.Error(runErr))
		return nil, runErr
	}

	log.Info("batch: run complete",
		zap.Int("records", records),
		zap.Int("completed", res.Completed),
		zap.Int("inserted", tally.Inserted),
		zap.Int("updated", tally.Updated),
		zap.Int("skipped", tally.Skipped),
		zap.Int("errors", tally.Errors),
	)
	return res, nil
}

func processBatch(ctx context.Context, env *radarEnv, src source.Source, opts batchOptions) (*batchResult, error) {
	res := &batchResult{Source: src.Name()}

	records, err := src.Fetch(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: fetch %s", src.Name())
	}

	if opts.Complete != nil {
		records, res.Completed, err = source.Complete(ctx, records, opts.Complete)
		if err != nil {
			return nil, eris.Wrap(err, "batch: complete details")
		}
	}
	res.Records = len(records)

	res.Leads, err = env.Enricher.EnrichConcurrent(ctx, records, env.Workers)
	if err != nil {
		return nil, eris.Wrap(err, "batch: enrich")
	}

	if !opts.DryRun {
		res.Tally = env.Reconciler.ReconcileAll(ctx, res.Leads)
	}
	return res, nil
}

// formatLeads writes a tabular summary of leads to w.
func formatLeads(out io.Writer, leads []model.EnrichedLead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CNPJ\tNAME\tGROUP\tSIZE\tFEE\tSTATUS\tACTION")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t----\t---\t------\t------")

	for _, l := range leads {
		name := l.TradeName
		if name == "" {
			name = l.LegalName
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.TaxID,
			truncate(name, 30),
			l.GroupID,
			l.SizeTier,
			l.FeeStatus,
			l.LicensingStatus,
			l.Action,
		)
	}
	_ = w.Flush()
}

// formatTally writes a one-line outcome summary.
func formatTally(out io.Writer, res *batchResult) {
	t := res.Tally
	_, _ = fmt.Fprintf(out, "%d records, %d completed: %d inserted, %d updated, %d skipped, %d errors\n",
		res.Records, res.Completed, t.Inserted, t.Updated, t.Skipped, t.Errors)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}
