// Package company defines the client-ledger record and reconciles enriched
// leads into it.
package company

import (
	"slices"
	"time"

	"github.com/rotisserie/eris"
)

// CRMStatus is the sales pipeline stage of a ledger company. It only changes
// through explicit user action.
type CRMStatus string

// CRM statuses.
const (
	CRMNew         CRMStatus = "Novo"
	CRMNegotiating CRMStatus = "Em Negociação"
	CRMClient      CRMStatus = "Cliente"
	CRMDiscarded   CRMStatus = "Descartado"
)

// CRMStatuses lists the valid CRM statuses in pipeline order.
var CRMStatuses = []CRMStatus{CRMNew, CRMNegotiating, CRMClient, CRMDiscarded}

// ParseCRMStatus validates s against the known CRM statuses.
func ParseCRMStatus(s string) (CRMStatus, error) {
	st := CRMStatus(s)
	if !slices.Contains(CRMStatuses, st) {
		return "", eris.Errorf("company: unknown crm status %q", s)
	}
	return st, nil
}

// Company is the ledger record keyed by tax id. Projection fields are stored
// as strings; Snapshot holds the full enriched lead as JSON.
type Company struct {
	TaxID string `json:"cnpj" db:"cnpj"`

	LegalName           string `json:"razao_social" db:"razao_social"`
	TradeName           string `json:"nome_fantasia" db:"nome_fantasia"`
	GroupDescription    string `json:"grupo_atividade" db:"grupo_atividade"`
	ActivityDescription string `json:"descricao_atividade" db:"descricao_atividade"`
	RiskTag             string `json:"risco" db:"risco"`
	SizeTier            string `json:"porte" db:"porte"`
	FeeStatus           string `json:"status_taxa" db:"status_taxa"`
	Phone               string `json:"telefone" db:"telefone"`
	Partners            string `json:"qsa" db:"qsa"`
	Street              string `json:"logradouro" db:"logradouro"`
	Number              string `json:"numero" db:"numero"`
	District            string `json:"bairro" db:"bairro"`
	Municipality        string `json:"municipio" db:"municipio"`
	State               string `json:"uf" db:"uf"`
	PostalCode          string `json:"cep" db:"cep"`
	RouteLink           string `json:"rota_link" db:"rota_link"`
	FoundedOn           string `json:"data_abertura" db:"data_abertura"`

	Snapshot  string    `json:"dados_extra" db:"dados_extra"`
	CRMStatus CRMStatus `json:"status_crm" db:"status_crm"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Interaction is a CRM note recorded against a company.
type Interaction struct {
	ID        string    `json:"id" db:"id"`
	TaxID     string    `json:"cnpj" db:"cnpj"`
	Kind      string    `json:"tipo" db:"tipo"`
	Notes     string    `json:"descricao" db:"descricao"`
	NextStep  string    `json:"proximo_passo" db:"proximo_passo"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
