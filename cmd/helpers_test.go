package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-cli/internal/enrich"
	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/store"
	"github.com/sells-group/radar-cli/internal/taxonomy"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *radarEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))

	env := newEnv(st, taxonomy.Default(), 2, enrich.WithClock(func() time.Time { return testNow }))
	t.Cleanup(env.Close)
	return env
}

// dealership is a recent vehicle dealer: group 11.00, initial licensing.
func dealership() model.RawCompany {
	return model.RawCompany{
		TaxID:              "11222333000181",
		LegalName:          "AUTO CENTRO IGUATU LTDA",
		TradeName:          "Auto Centro",
		PrimaryActivity:    "4520-0/01",
		PrimaryDescription: "Serviços de manutenção e reparação mecânica de veículos automotores",
		Street:             "Rua Floriano Peixoto",
		Number:             "120",
		District:           "Centro",
		Municipality:       "IGUATU",
		State:              "CE",
		Phone:              "(88) 3581-0000",
		FoundedOn:          testNow.AddDate(0, 0, -10).Format(time.DateOnly),
		Capital:            decimal.NewFromInt(80000),
		LegalNature:        "Sociedade Empresária Limitada",
	}
}

// bakery is a three-year-old food producer: group 13.00.
func bakery() model.RawCompany {
	return model.RawCompany{
		TaxID:           "44555666000172",
		LegalName:       "PADARIA FLORES LTDA",
		PrimaryActivity: "1091-1/02",
		District:        "Flores",
		Municipality:    "IGUATU",
		State:           "CE",
		FoundedOn:       testNow.AddDate(-3, 0, 0).Format(time.DateOnly),
		LegalNature:     "Sociedade Empresária Limitada",
	}
}
