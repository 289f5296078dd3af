package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/radar-cli/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Print the licensing table in use",
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := taxonomy.Resolve(cfg.Taxonomy.Path)
		if err != nil {
			return err
		}
		formatTaxonomy(os.Stdout, table)
		return nil
	},
}

// formatTaxonomy writes one line per group in priority order.
func formatTaxonomy(out io.Writer, table taxonomy.Table) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "GROUP\tDESCRIPTION\tCODES\tKEYWORDS")
	_, _ = fmt.Fprintln(w, "-----\t-----------\t-----\t--------")
	for _, g := range table {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", g.ID, g.Description, len(g.Codes), strings.Join(g.Keywords, ", "))
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
}
