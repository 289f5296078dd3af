package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Environmental licensing lead radar",
	Long: `Pulls newly registered companies for a municipality, classifies them against
the licensing table, estimates size and fee exemption, and reconciles the
leads into a client ledger that the sales team works from.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlagOverrides(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		zap.L().Debug("config loaded",
			zap.String("store", cfg.Store.Driver),
			zap.String("city", cfg.Region.City),
			zap.Int("workers", cfg.Batch.Workers),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func addGlobalFlags(c *cobra.Command) {
	c.PersistentFlags().String("log-level", "", "override log.level (debug, info, warn, error)")
	c.PersistentFlags().Int("workers", 0, "override batch.workers")
}

// applyFlagOverrides copies explicitly set global flags over loaded config.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("workers") {
		c.Batch.Workers, _ = flags.GetInt("workers")
	}
}

func init() {
	addGlobalFlags(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
