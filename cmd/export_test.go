package main

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/internal/fetcher"
	"github.com/sells-group/radar-cli/internal/model"
)

func TestExportRows(t *testing.T) {
	rows := exportRows([]company.Company{{
		TaxID:     "11222333000181",
		LegalName: "AUTO CENTRO IGUATU LTDA",
		Street:    "Rua Floriano Peixoto",
		Number:    "120",
		District:  "Centro",
		CRMStatus: company.CRMClient,
	}, {
		TaxID:  "44555666000172",
		Street: "Rua Sem Número",
	}})

	require.Len(t, rows, 2)
	assert.Len(t, rows[0], len(exportHeader))
	assert.Equal(t, "11222333000181", rows[0][0])
	assert.Equal(t, "Rua Floriano Peixoto, 120", rows[0][11])
	assert.Equal(t, "Cliente", rows[0][8])
	assert.Equal(t, "Rua Sem Número", rows[1][11])
}

func TestListAllCompanies_Pages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	records := make([]model.RawCompany, 0, exportPageSize+3)
	for i := range exportPageSize + 3 {
		rec := bakery()
		rec.TaxID = fmt.Sprintf("%014d", i+1)
		records = append(records, rec)
	}
	_, err := runBatch(ctx, env, staticSource{name: "mock", records: records}, batchOptions{})
	require.NoError(t, err)

	all, err := listAllCompanies(ctx, env.Store, company.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, exportPageSize+3)

	none, err := listAllCompanies(ctx, env.Store, company.ListFilter{CRMStatus: company.CRMClient})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExport_WritesSpreadsheet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := runBatch(ctx, env, staticSource{name: "mock", records: []model.RawCompany{dealership(), bakery()}}, batchOptions{})
	require.NoError(t, err)

	companies, err := listAllCompanies(ctx, env.Store, company.ListFilter{District: "centro"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	require.NoError(t, fetcher.WriteXLSX(path, "Leads", exportHeader, exportRows(companies)))

	rows, err := fetcher.ReadXLSX(path, "Leads", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, dealership().TaxID, rows[0][0])
}
