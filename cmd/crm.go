package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/pkg/cnpja"
)

var crmCmd = &cobra.Command{
	Use:   "crm",
	Short: "Track sales follow-up on ledger companies",
}

// -- crm status --

var crmStatusCmd = &cobra.Command{
	Use:   "status <cnpj> <status>",
	Short: "Move a company to a CRM status (Novo, Em Negociação, Cliente, Descartado)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status, err := company.ParseCRMStatus(args[1])
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "ledger")
		if err != nil {
			return err
		}
		defer env.Close()

		taxID := cnpja.Digits(args[0])
		if err := env.Store.SetCRMStatus(ctx, taxID, status); err != nil {
			return eris.Wrap(err, "crm status")
		}
		zap.L().Info("crm status updated", zap.String("cnpj", taxID), zap.String("status", string(status)))
		return nil
	},
}

// -- crm note --

var crmNoteCmd = &cobra.Command{
	Use:   "note <cnpj>",
	Short: "Record an interaction with a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind, _ := cmd.Flags().GetString("kind")
		notes, _ := cmd.Flags().GetString("notes")
		next, _ := cmd.Flags().GetString("next")

		env, err := initEnv(ctx, "ledger")
		if err != nil {
			return err
		}
		defer env.Close()

		in := &company.Interaction{
			TaxID:    cnpja.Digits(args[0]),
			Kind:     kind,
			Notes:    notes,
			NextStep: next,
		}
		if err := env.Store.AddInteraction(ctx, in); err != nil {
			return eris.Wrap(err, "crm note")
		}
		zap.L().Info("crm interaction recorded", zap.String("cnpj", in.TaxID), zap.String("id", in.ID))
		return nil
	},
}

// -- crm history --

var crmHistoryCmd = &cobra.Command{
	Use:   "history <cnpj>",
	Short: "Show a company and its interactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "ledger")
		if err != nil {
			return err
		}
		defer env.Close()

		taxID := cnpja.Digits(args[0])
		c, err := env.Store.GetCompany(ctx, taxID)
		if err != nil {
			return eris.Wrap(err, "crm history")
		}
		if c == nil {
			return eris.Errorf("crm history: company %s not in ledger", taxID)
		}
		interactions, err := env.Store.ListInteractions(ctx, taxID)
		if err != nil {
			return eris.Wrap(err, "crm history")
		}

		formatHistory(os.Stdout, c, interactions)
		return nil
	},
}

// formatHistory writes a company header followed by its interactions, newest
// first.
func formatHistory(out io.Writer, c *company.Company, interactions []company.Interaction) {
	_, _ = fmt.Fprintf(out, "%s  %s\n", c.TaxID, c.LegalName)
	_, _ = fmt.Fprintf(out, "Status: %s  Group: %s  Size: %s  Phone: %s\n\n", c.CRMStatus, c.GroupDescription, c.SizeTier, c.Phone)

	if len(interactions) == 0 {
		_, _ = fmt.Fprintln(out, "No interactions recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATE\tKIND\tNOTES\tNEXT")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t----")
	for _, in := range interactions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			in.CreatedAt.Format("2006-01-02 15:04"),
			in.Kind,
			truncate(in.Notes, 50),
			in.NextStep,
		)
	}
	_ = w.Flush()
}

func init() {
	crmNoteCmd.Flags().String("kind", "Ligação", "interaction kind (call, visit, email, ...)")
	crmNoteCmd.Flags().String("notes", "", "what happened (required)")
	crmNoteCmd.Flags().String("next", "", "agreed next step")
	_ = crmNoteCmd.MarkFlagRequired("notes")

	crmCmd.AddCommand(crmStatusCmd)
	crmCmd.AddCommand(crmNoteCmd)
	crmCmd.AddCommand(crmHistoryCmd)
	rootCmd.AddCommand(crmCmd)
}
