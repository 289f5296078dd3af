// Package model defines the typed records that flow through the radar
// pipeline: raw registry records, enriched leads, and run bookkeeping.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// RevenueSizeUnknown is the informative revenue-size label used when the
// registry does not report one.
const RevenueSizeUnknown = "Não Informado"

// RawCompany is a company record as supplied by a registry provider. Every
// optional field has a zero value that is safe to render.
type RawCompany struct {
	TaxID     string `json:"cnpj"`
	LegalName string `json:"razao_social"`
	TradeName string `json:"nome_fantasia"`

	PrimaryActivity     string   `json:"cnae_fiscal_principal"`
	PrimaryDescription  string   `json:"cnae_fiscal_descricao"`
	SecondaryActivities []string `json:"cnaes_secundarios"`

	Street       string `json:"logradouro"`
	Number       string `json:"numero"`
	District     string `json:"bairro"`
	Municipality string `json:"municipio"`
	State        string `json:"uf"`
	PostalCode   string `json:"cep"`
	Phone        string `json:"telefone"`
	Partners     string `json:"qsa"`

	// FoundedOn is an ISO date (YYYY-MM-DD). It may be empty or malformed.
	FoundedOn string `json:"data_inicio_atividade"`

	BuiltArea        float64         `json:"area_construida"`
	Capital          decimal.Decimal `json:"capital_social"`
	EstimatedRevenue decimal.Decimal `json:"faturamento_estimado"`
	Employees        Headcount       `json:"qtde_funcionarios"`
	LegalNature      string          `json:"natureza_juridica"`
	RevenueSize      string          `json:"porte_receita"`
}

// ActivityCodes returns the primary code followed by the secondary codes in
// order, skipping empty entries.
func (c RawCompany) ActivityCodes() []string {
	codes := make([]string, 0, 1+len(c.SecondaryActivities))
	if c.PrimaryActivity != "" {
		codes = append(codes, c.PrimaryActivity)
	}
	for _, s := range c.SecondaryActivities {
		if s != "" {
			codes = append(codes, s)
		}
	}
	return codes
}

// CapitalProxy is the monetary magnitude used for sizing: the estimated
// revenue when known, otherwise the registered capital.
func (c RawCompany) CapitalProxy() decimal.Decimal {
	if !c.EstimatedRevenue.IsZero() {
		return c.EstimatedRevenue
	}
	return c.Capital
}

// Clone returns a copy that shares no slices with c.
func (c RawCompany) Clone() RawCompany {
	out := c
	if c.SecondaryActivities != nil {
		out.SecondaryActivities = append([]string(nil), c.SecondaryActivities...)
	}
	return out
}

// Headcount is an employee count as reported by a provider. Providers send
// integers, range strings such as "10-50", or nothing at all.
type Headcount string

// UnmarshalJSON accepts a JSON number, string, or null.
func (h *Headcount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*h = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = Headcount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*h = Headcount(strconv.FormatInt(i, 10))
		return nil
	}
	// Fractional counts truncate toward zero.
	if f, err := n.Float64(); err == nil && math.Abs(f) < math.MaxInt64 {
		*h = Headcount(strconv.FormatInt(int64(math.Trunc(f)), 10))
		return nil
	}
	*h = Headcount(n.String())
	return nil
}
