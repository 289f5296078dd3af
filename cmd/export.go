package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/internal/fetcher"
)

const exportPageSize = 500

var exportHeader = []string{
	"CNPJ", "Razão Social", "Nome Fantasia", "Grupo", "Atividade", "Risco",
	"Porte", "Taxa", "Status CRM", "Telefone", "Sócios", "Endereço",
	"Bairro", "Município", "UF", "CEP", "Abertura", "Rota",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger to a spreadsheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path, _ := cmd.Flags().GetString("xlsx")
		status, _ := cmd.Flags().GetString("status")
		district, _ := cmd.Flags().GetString("district")

		filter := company.ListFilter{District: district}
		if status != "" {
			st, err := company.ParseCRMStatus(status)
			if err != nil {
				return err
			}
			filter.CRMStatus = st
		}

		env, err := initEnv(ctx, "ledger")
		if err != nil {
			return err
		}
		defer env.Close()

		companies, err := listAllCompanies(ctx, env.Store, filter)
		if err != nil {
			return err
		}

		if err := fetcher.WriteXLSX(path, "Leads", exportHeader, exportRows(companies)); err != nil {
			return eris.Wrap(err, "export")
		}
		zap.L().Info("export complete", zap.String("path", path), zap.Int("companies", len(companies)))
		return nil
	},
}

// listAllCompanies pages through ListCompanies until the filter is exhausted.
func listAllCompanies(ctx context.Context, st company.Store, filter company.ListFilter) ([]company.Company, error) {
	filter.Limit = exportPageSize
	var all []company.Company
	for {
		page, err := st.ListCompanies(ctx, filter)
		if err != nil {
			return nil, eris.Wrap(err, "export: list companies")
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
		filter.Offset += len(page)
	}
}

func exportRows(companies []company.Company) [][]string {
	rows := make([][]string, 0, len(companies))
	for _, c := range companies {
		address := c.Street
		if c.Number != "" {
			address += ", " + c.Number
		}
		rows = append(rows, []string{
			c.TaxID, c.LegalName, c.TradeName, c.GroupDescription, c.ActivityDescription, c.RiskTag,
			c.SizeTier, c.FeeStatus, string(c.CRMStatus), c.Phone, c.Partners, address,
			c.District, c.Municipality, c.State, c.PostalCode, c.FoundedOn, c.RouteLink,
		})
	}
	return rows
}

func init() {
	exportCmd.Flags().String("xlsx", "", "output spreadsheet path (required)")
	exportCmd.Flags().String("status", "", "only companies in this CRM status")
	exportCmd.Flags().String("district", "", "only companies whose district contains this text")
	_ = exportCmd.MarkFlagRequired("xlsx")
	rootCmd.AddCommand(exportCmd)
}
