package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/monitoring"
	"github.com/sells-group/radar-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List batch runs",
	Long:  "Lists scan, lookup, and import runs with their reconciliation tallies.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "ledger")
		if err != nil {
			return err
		}
		defer env.Close()

		status, _ := cmd.Flags().GetString("status")
		src, _ := cmd.Flags().GetString("source")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := env.Store.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Source: src,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "ledger")
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Store.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize run health over a lookback window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "ledger")
		if err != nil {
			return err
		}
		defer env.Close()

		since, _ := cmd.Flags().GetInt("since")
		alert, _ := cmd.Flags().GetBool("alert")
		if since <= 0 {
			since = cfg.Monitoring.LookbackWindowHours
		}

		snap, err := monitoring.NewCollector(env.Store).Collect(ctx, since)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		formatRunStats(os.Stdout, snap)

		alerter := monitoring.NewAlerter(cfg.Monitoring)
		alerts := alerter.Evaluate(snap)
		for _, a := range alerts {
			fmt.Fprintf(os.Stderr, "ALERT [%s] %s\n", a.Severity, a.Message)
		}
		if alert && len(alerts) > 0 {
			if cfg.Monitoring.WebhookURL == "" {
				return eris.New("runs stats: --alert needs monitoring.webhook_url")
			}
			if err := alerter.Notify(ctx, alerts); err != nil {
				return eris.Wrap(err, "runs stats")
			}
			fmt.Fprintf(os.Stderr, "%d alerts sent\n", len(alerts))
		}
		return nil
	},
}

func init() {
	runsStatsCmd.Flags().Int("since", 0, "lookback window in hours (default from config)")
	runsStatsCmd.Flags().Bool("alert", false, "send triggered alerts to the monitoring webhook")

	runsCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsCmd.Flags().String("source", "", "filter by source (mock, cnpja, lookup, receita, api)")
	runsCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsShowCmd, runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTATUS\tRECORDS\tINS\tUPD\tSKIP\tERR\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t-------\t---\t---\t----\t---\t-------\t--------")

	for _, r := range runs {
		dur := r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String()

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Source,
			r.Status,
			r.Records,
			r.Tally.Inserted,
			r.Tally.Updated,
			r.Tally.Skipped,
			r.Tally.Errors,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
		if r.Error != "" {
			_, _ = fmt.Fprintf(w, "\t  error: %s\n", truncate(r.Error, 80))
		}
	}
	_ = w.Flush()
}

// formatRunStats writes a run health summary followed by per-source counts.
func formatRunStats(out io.Writer, snap *monitoring.RunSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\tlast %dh\n", snap.LookbackHours)
	_, _ = fmt.Fprintf(w, "Runs:\t%d (%d complete, %d failed, %d running)\n", snap.Total, snap.Complete, snap.Failed, snap.Running)
	_, _ = fmt.Fprintf(w, "Failure rate:\t%.1f%%\n", snap.FailRate*100)
	_, _ = fmt.Fprintf(w, "Records:\t%d\n", snap.Records)
	_, _ = fmt.Fprintf(w, "Outcomes:\t%d inserted, %d updated, %d skipped, %d errors\n",
		snap.Outcomes.Inserted, snap.Outcomes.Updated, snap.Outcomes.Skipped, snap.Outcomes.Errors)
	_, _ = fmt.Fprintf(w, "Error rate:\t%.1f%%\n", snap.ErrorRate*100)
	_, _ = fmt.Fprintf(w, "Avg duration:\t%s\n", time.Duration(snap.AvgDurationSecs*float64(time.Second)).Round(time.Second))
	_ = w.Flush()

	if len(snap.Sources) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tRUNS\tFAILED")
	_, _ = fmt.Fprintln(w, "------\t----\t------")
	for _, s := range snap.Sources {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", s.Source, s.Runs, s.Failed)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
