package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/fetcher"
	"github.com/sells-group/radar-cli/internal/source"
	"github.com/sells-group/radar-cli/pkg/cnpja"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup [cnpj...]",
	Short: "Look up specific companies by tax id",
	Long:  "Fetches details for the given tax ids, or ids found in a text file or spreadsheet, then qualifies and reconciles them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		textPath, _ := cmd.Flags().GetString("text")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		asJSON, _ := cmd.Flags().GetBool("json")

		ids, err := collectTaxIDs(args, textPath, xlsxPath)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return eris.New("lookup: no tax ids given")
		}
		zap.L().Info("lookup: collected tax ids", zap.Int("count", len(ids)))

		env, err := initEnv(ctx, "scan")
		if err != nil {
			return err
		}
		defer env.Close()

		src := source.NewTaxIDList(env.detailLookup(), ids)
		res, err := runBatch(ctx, env, src, batchOptions{DryRun: dryRun})
		if err != nil {
			return err
		}
		return writeBatchResult(os.Stdout, res, asJSON)
	},
}

// collectTaxIDs merges ids from arguments, a free-text file, and the cells of
// a spreadsheet. Duplicates are dropped, first occurrence wins.
func collectTaxIDs(args []string, textPath, xlsxPath string) ([]string, error) {
	var ids []string
	ids = append(ids, args...)

	if textPath != "" {
		data, err := os.ReadFile(textPath)
		if err != nil {
			return nil, eris.Wrap(err, "lookup: read text file")
		}
		ids = append(ids, source.ExtractTaxIDs(string(data))...)
	}

	if xlsxPath != "" {
		rows, err := fetcher.ReadXLSX(xlsxPath, "", 0)
		if err != nil {
			return nil, eris.Wrap(err, "lookup: read spreadsheet")
		}
		for _, row := range rows {
			for _, cell := range row {
				cell = strings.TrimSpace(cell)
				if found := source.ExtractTaxIDs(cell); len(found) > 0 {
					ids = append(ids, found...)
				} else if len(cell) == 14 && cnpja.Digits(cell) == cell {
					ids = append(ids, cell)
				}
			}
		}
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		key := cnpja.Digits(id)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, id)
	}
	return out, nil
}

func init() {
	lookupCmd.Flags().String("text", "", "text file to scan for formatted tax ids")
	lookupCmd.Flags().String("xlsx", "", "spreadsheet whose cells hold tax ids")
	addBatchFlags(lookupCmd)
	rootCmd.AddCommand(lookupCmd)
}
