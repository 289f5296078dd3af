package company

import (
	"github.com/sells-group/radar-cli/internal/model"
)

// mergeField binds a ledger column to the lead value that feeds it.
type mergeField struct {
	column string
	lead   func(*model.EnrichedLead) string
	field  func(*Company) *string
}

// mergeFields is the projection merged on every reconciliation.
var mergeFields = []mergeField{
	{"razao_social", func(l *model.EnrichedLead) string { return l.LegalName }, func(c *Company) *string { return &c.LegalName }},
	{"nome_fantasia", func(l *model.EnrichedLead) string { return l.TradeName }, func(c *Company) *string { return &c.TradeName }},
	{"grupo_atividade", func(l *model.EnrichedLead) string { return l.GroupDescription }, func(c *Company) *string { return &c.GroupDescription }},
	{"descricao_atividade", func(l *model.EnrichedLead) string { return l.PrimaryDescription }, func(c *Company) *string { return &c.ActivityDescription }},
	{"risco", func(l *model.EnrichedLead) string { return l.RiskTag }, func(c *Company) *string { return &c.RiskTag }},
	{"porte", func(l *model.EnrichedLead) string { return string(l.SizeTier) }, func(c *Company) *string { return &c.SizeTier }},
	{"status_taxa", func(l *model.EnrichedLead) string { return string(l.FeeStatus) }, func(c *Company) *string { return &c.FeeStatus }},
	{"telefone", func(l *model.EnrichedLead) string { return l.Phone }, func(c *Company) *string { return &c.Phone }},
	{"qsa", func(l *model.EnrichedLead) string { return l.Partners }, func(c *Company) *string { return &c.Partners }},
	{"logradouro", func(l *model.EnrichedLead) string { return l.Street }, func(c *Company) *string { return &c.Street }},
	{"numero", func(l *model.EnrichedLead) string { return l.Number }, func(c *Company) *string { return &c.Number }},
	{"bairro", func(l *model.EnrichedLead) string { return l.District }, func(c *Company) *string { return &c.District }},
	{"municipio", func(l *model.EnrichedLead) string { return l.Municipality }, func(c *Company) *string { return &c.Municipality }},
	{"uf", func(l *model.EnrichedLead) string { return l.State }, func(c *Company) *string { return &c.State }},
	{"cep", func(l *model.EnrichedLead) string { return l.PostalCode }, func(c *Company) *string { return &c.PostalCode }},
	{"rota_link", func(l *model.EnrichedLead) string { return l.RouteLink }, func(c *Company) *string { return &c.RouteLink }},
	{"data_abertura", func(l *model.EnrichedLead) string { return l.FoundedOn }, func(c *Company) *string { return &c.FoundedOn }},
}

// Project builds a fresh ledger record from lead.
func Project(lead *model.EnrichedLead, snapshot string) *Company {
	c := &Company{TaxID: lead.TaxID, Snapshot: snapshot, CRMStatus: CRMNew}
	for _, f := range mergeFields {
		*f.field(c) = f.lead(lead)
	}
	return c
}

// Merge folds lead into existing and returns the merged record with the
// columns that changed. A non-empty lead value replaces a different stored
// value; an empty lead value never blanks a stored one. A differing
// snapshot counts as a change but is not reported as a column.
func Merge(existing *Company, lead *model.EnrichedLead, snapshot string) (*Company, []string, bool) {
	merged := *existing
	var changed []string
	for _, f := range mergeFields {
		next := f.lead(lead)
		cur := f.field(&merged)
		if next != "" && next != *cur {
			*cur = next
			changed = append(changed, f.column)
		}
	}
	dirty := len(changed) > 0 || existing.Snapshot != snapshot
	merged.Snapshot = snapshot
	return &merged, changed, dirty
}
