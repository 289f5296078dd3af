package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/fetcher"
	"github.com/sells-group/radar-cli/internal/source"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a Receita Federal establishments dump",
	Long:  "Reads a Receita Federal open-data dump (ZIP or extracted CSV), keeps the configured municipality, and reconciles the leads into the ledger.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		path, _ := cmd.Flags().GetString("file")
		rawURL, _ := cmd.Flags().GetString("url")
		municipality, _ := cmd.Flags().GetString("municipality")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		asJSON, _ := cmd.Flags().GetBool("json")

		if (path == "") == (rawURL == "") {
			return eris.New("import: exactly one of --file or --url is required")
		}
		if municipality != "" {
			cfg.Region.ReceitaCode = municipality
		}

		env, err := initEnv(ctx, "import")
		if err != nil {
			return err
		}
		defer env.Close()

		if rawURL != "" {
			dir, err := os.MkdirTemp("", "radar-import-*")
			if err != nil {
				return eris.Wrap(err, "import: create temp dir")
			}
			defer os.RemoveAll(dir) //nolint:errcheck

			path, err = downloadDump(ctx, fetcher.NewHTTPFetcher(fetcher.HTTPOptions{}), rawURL, dir)
			if err != nil {
				return err
			}
		}

		src := source.NewReceita(source.ReceitaOptions{
			Path:             path,
			Municipality:     cfg.Region.ReceitaCode,
			MunicipalityName: cfg.Region.City,
		})
		res, err := runBatch(ctx, env, src, batchOptions{DryRun: dryRun})
		if err != nil {
			return err
		}
		return writeBatchResult(os.Stdout, res, asJSON)
	},
}

// downloadDump saves rawURL into dir and returns the local path.
func downloadDump(ctx context.Context, d fetcher.Downloader, rawURL, dir string) (string, error) {
	path := filepath.Join(dir, "dump")
	n, err := d.DownloadToFile(ctx, rawURL, path)
	if err != nil {
		return "", eris.Wrap(err, "import: download dump")
	}
	zap.L().Info("import: dump downloaded", zap.String("url", rawURL), zap.Int64("bytes", n))
	return path, nil
}

func init() {
	importCmd.Flags().String("file", "", "path to a dump ZIP or CSV")
	importCmd.Flags().String("url", "", "URL of a dump to download")
	importCmd.Flags().String("municipality", "", "Receita municipality code (default region.receita_code)")
	addBatchFlags(importCmd)
	rootCmd.AddCommand(importCmd)
}
