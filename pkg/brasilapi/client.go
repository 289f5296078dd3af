// Package brasilapi provides a client for the free BrasilAPI CNPJ lookup.
package brasilapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/resilience"
)

const defaultBaseURL = "https://brasilapi.com.br/api"

// Client looks up companies by tax id.
type Client interface {
	// CNPJ returns the registry record for taxID, or nil when it does not exist.
	CNPJ(ctx context.Context, taxID string) (*Company, error)
}

// Company is the BrasilAPI /cnpj/v1 response.
type Company struct {
	CNPJ                string          `json:"cnpj"`
	RazaoSocial         string          `json:"razao_social"`
	NomeFantasia        string          `json:"nome_fantasia"`
	DataInicioAtividade string          `json:"data_inicio_atividade"`
	CNAEFiscal          json.Number     `json:"cnae_fiscal"`
	CNAEFiscalDescricao string          `json:"cnae_fiscal_descricao"`
	CNAEsSecundarios    []SecondaryCNAE `json:"cnaes_secundarios"`
	Logradouro          string          `json:"logradouro"`
	Numero              string          `json:"numero"`
	Bairro              string          `json:"bairro"`
	Municipio           string          `json:"municipio"`
	UF                  string          `json:"uf"`
	CEP                 string          `json:"cep"`
	Telefone            string          `json:"ddd_telefone_1"`
	QSA                 []Partner       `json:"qsa"`
	NaturezaJuridica    string          `json:"natureza_juridica"`
	CapitalSocial       decimal.Decimal `json:"capital_social"`
	Porte               string          `json:"porte"`
}

// SecondaryCNAE is one secondary activity. BrasilAPI reports code 0 when
// there are none.
type SecondaryCNAE struct {
	Codigo    json.Number `json:"codigo"`
	Descricao string      `json:"descricao"`
}

// Partner is a QSA entry.
type Partner struct {
	NomeSocio string `json:"nome_socio"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRetry overrides the retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a BrasilAPI client.
func NewClient(opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("brasilapi", "cnpj")

	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		retry:   retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) CNPJ(ctx context.Context, taxID string) (*Company, error) {
	digits := digitsOnly(taxID)
	if len(digits) != 14 {
		return nil, eris.Errorf("brasilapi: invalid tax id %q", taxID)
	}

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*Company, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cnpj/v1/"+digits, nil)
		if err != nil {
			return nil, eris.Wrap(err, "brasilapi: create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, eris.Wrap(err, "brasilapi: read response body")
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		if err := resilience.CheckResponse("brasilapi", resp, body); err != nil {
			return nil, err
		}

		var out Company
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, eris.Wrap(err, "brasilapi: unmarshal company")
		}
		return &out, nil
	})
}

// ToRawCompany maps a BrasilAPI record to the pipeline's raw record.
func ToRawCompany(c *Company) model.RawCompany {
	if c == nil {
		return model.RawCompany{SecondaryActivities: []string{}}
	}

	out := model.RawCompany{
		TaxID:               c.CNPJ,
		LegalName:           c.RazaoSocial,
		TradeName:           c.NomeFantasia,
		FoundedOn:           c.DataInicioAtividade,
		PrimaryActivity:     c.CNAEFiscal.String(),
		PrimaryDescription:  c.CNAEFiscalDescricao,
		SecondaryActivities: []string{},
		Street:              c.Logradouro,
		Number:              c.Numero,
		District:            c.Bairro,
		Municipality:        c.Municipio,
		State:               c.UF,
		PostalCode:          c.CEP,
		Phone:               c.Telefone,
		LegalNature:         c.NaturezaJuridica,
		Capital:             c.CapitalSocial,
		RevenueSize:         c.Porte,
	}
	if out.TradeName == "" {
		out.TradeName = c.RazaoSocial
	}
	if out.RevenueSize == "" {
		out.RevenueSize = model.RevenueSizeUnknown
	}
	for _, s := range c.CNAEsSecundarios {
		code := s.Codigo.String()
		if code == "" || code == "0" {
			continue
		}
		if s.Descricao != "" {
			code += " - " + s.Descricao
		}
		out.SecondaryActivities = append(out.SecondaryActivities, code)
	}

	names := make([]string, 0, len(c.QSA))
	for _, p := range c.QSA {
		if p.NomeSocio != "" {
			names = append(names, p.NomeSocio)
		}
	}
	out.Partners = strings.Join(names, ", ")
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
