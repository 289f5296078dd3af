package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan a registry source for new leads",
	Long:  "Fetches recently registered companies from a source, qualifies them, and reconciles the leads into the ledger.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		name, _ := cmd.Flags().GetString("source")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		complete, _ := cmd.Flags().GetBool("complete")
		asJSON, _ := cmd.Flags().GetBool("json")

		mode := "scan"
		if name == "cnpja" {
			mode = "cnpja"
		}
		env, err := initEnv(ctx, mode)
		if err != nil {
			return err
		}
		defer env.Close()

		src, err := env.sources().Get(name)
		if err != nil {
			return err
		}

		opts := batchOptions{DryRun: dryRun}
		if complete {
			opts.Complete = env.detailLookup()
		}

		res, err := runBatch(ctx, env, src, opts)
		if err != nil {
			return err
		}
		return writeBatchResult(os.Stdout, res, asJSON)
	},
}

func writeBatchResult(out io.Writer, res *batchResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	formatLeads(out, res.Leads)
	formatTally(out, res)
	return nil
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("dry-run", false, "enrich without writing to the ledger")
	cmd.Flags().Bool("json", false, "print leads as JSON")
}

func init() {
	scanCmd.Flags().String("source", "mock", "registry source (mock, cnpja)")
	scanCmd.Flags().Bool("complete", false, "look up details for records missing secondary activities")
	addBatchFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}
