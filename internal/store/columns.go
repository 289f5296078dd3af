package store

import (
	"strings"

	"github.com/sells-group/radar-cli/internal/company"
)

// projectionColumns are written on every upsert, in companyArgs order.
var projectionColumns = []string{
	"razao_social", "nome_fantasia", "grupo_atividade", "descricao_atividade",
	"risco", "porte", "status_taxa", "telefone", "qsa",
	"logradouro", "numero", "bairro", "municipio", "uf", "cep",
	"rota_link", "data_abertura", "dados_extra",
}

var companySelect = "cnpj, " + strings.Join(projectionColumns, ", ") + ", status_crm, created_at, updated_at"

func companyArgs(c *company.Company) []any {
	return []any{
		c.LegalName, c.TradeName, c.GroupDescription, c.ActivityDescription,
		c.RiskTag, c.SizeTier, c.FeeStatus, c.Phone, c.Partners,
		c.Street, c.Number, c.District, c.Municipality, c.State, c.PostalCode,
		c.RouteLink, c.FoundedOn, c.Snapshot,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func companyDests(c *company.Company) []any {
	return []any{
		&c.TaxID,
		&c.LegalName, &c.TradeName, &c.GroupDescription, &c.ActivityDescription,
		&c.RiskTag, &c.SizeTier, &c.FeeStatus, &c.Phone, &c.Partners,
		&c.Street, &c.Number, &c.District, &c.Municipality, &c.State, &c.PostalCode,
		&c.RouteLink, &c.FoundedOn, &c.Snapshot,
		&c.CRMStatus, &c.CreatedAt, &c.UpdatedAt,
	}
}

// upsertCompanySQL builds the INSERT ... ON CONFLICT statement for a driver.
// ph returns the placeholder for the 1-based argument index. CRM status and
// created_at are only written on insert.
func upsertCompanySQL(ph func(int) string) string {
	cols := append([]string{"cnpj"}, projectionColumns...)
	cols = append(cols, "status_crm", "created_at", "updated_at")

	phs := make([]string, len(cols))
	for i := range cols {
		phs[i] = ph(i + 1)
	}
	sets := make([]string, 0, len(projectionColumns)+1)
	for _, col := range projectionColumns {
		sets = append(sets, col+" = excluded."+col)
	}
	sets = append(sets, "updated_at = excluded.updated_at")

	return "INSERT INTO companies (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(phs, ", ") +
		") ON CONFLICT (cnpj) DO UPDATE SET " + strings.Join(sets, ", ")
}

func crmStatusOrDefault(s company.CRMStatus) string {
	if s == "" {
		return string(company.CRMNew)
	}
	return string(s)
}

func districtPattern(d string) string {
	return "%" + strings.ToLower(strings.TrimSpace(d)) + "%"
}
