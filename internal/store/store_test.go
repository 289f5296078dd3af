package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testCompany(taxID, name, district string) *company.Company {
	return &company.Company{
		TaxID:        taxID,
		LegalName:    name,
		District:     district,
		Municipality: "IGUATU",
		State:        "CE",
		SizeTier:     "Small",
		Snapshot:     `{"cnpj":"` + taxID + `"}`,
	}
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("GetCompanyMissing", func(t *testing.T) {
		s := newStore(t)
		c, err := s.GetCompany(context.Background(), "00.000.000/0000-00")
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("UpsertInsertsWithDefaultStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := testCompany("11.111.111/0001-11", "Alpha LTDA", "Centro")
		require.NoError(t, s.UpsertCompany(ctx, in))

		got, err := s.GetCompany(ctx, in.TaxID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Alpha LTDA", got.LegalName)
		assert.Equal(t, "Centro", got.District)
		assert.Equal(t, company.CRMNew, got.CRMStatus)
		assert.Equal(t, in.Snapshot, got.Snapshot)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("UpsertPreservesStatusAndCreatedAt", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		in := testCompany("22.222.222/0001-22", "Beta LTDA", "Prado")
		require.NoError(t, s.UpsertCompany(ctx, in))
		first, err := s.GetCompany(ctx, in.TaxID)
		require.NoError(t, err)

		require.NoError(t, s.SetCRMStatus(ctx, in.TaxID, company.CRMNegotiating))

		update := testCompany(in.TaxID, "Beta Comércio LTDA", "Prado")
		update.Phone = "(88) 3581-1234"
		require.NoError(t, s.UpsertCompany(ctx, update))

		got, err := s.GetCompany(ctx, in.TaxID)
		require.NoError(t, err)
		assert.Equal(t, "Beta Comércio LTDA", got.LegalName)
		assert.Equal(t, "(88) 3581-1234", got.Phone)
		assert.Equal(t, company.CRMNegotiating, got.CRMStatus)
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
		assert.False(t, got.UpdatedAt.Before(first.UpdatedAt))
	})

	t.Run("SetCRMStatusUnknownCompany", func(t *testing.T) {
		s := newStore(t)
		err := s.SetCRMStatus(context.Background(), "missing", company.CRMClient)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("ListCompaniesFilters", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.UpsertCompany(ctx, testCompany("1", "Gama", "Centro")))
		require.NoError(t, s.UpsertCompany(ctx, testCompany("2", "Alfa", "Alto do Jucá")))
		require.NoError(t, s.UpsertCompany(ctx, testCompany("3", "Beta", "Vila Centro Norte")))
		require.NoError(t, s.SetCRMStatus(ctx, "3", company.CRMClient))

		all, err := s.ListCompanies(ctx, company.ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Alfa", all[0].LegalName)

		centro, err := s.ListCompanies(ctx, company.ListFilter{District: "centro"})
		require.NoError(t, err)
		assert.Len(t, centro, 2)

		clients, err := s.ListCompanies(ctx, company.ListFilter{District: "CENTRO", CRMStatus: company.CRMClient})
		require.NoError(t, err)
		require.Len(t, clients, 1)
		assert.Equal(t, "3", clients[0].TaxID)

		page, err := s.ListCompanies(ctx, company.ListFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "Beta", page[0].LegalName)
	})

	t.Run("Interactions", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.UpsertCompany(ctx, testCompany("1", "Gama", "Centro")))

		note := &company.Interaction{TaxID: "1", Kind: "Visita", Notes: "Apresentação", NextStep: "Enviar proposta"}
		require.NoError(t, s.AddInteraction(ctx, note))
		assert.NotEmpty(t, note.ID)

		list, err := s.ListInteractions(ctx, "1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Visita", list[0].Kind)
		assert.Equal(t, "Enviar proposta", list[0].NextStep)

		err = s.AddInteraction(ctx, &company.Interaction{TaxID: "missing", Kind: "Ligação"})
		assert.Error(t, err)

		empty, err := s.ListInteractions(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("RunLifecycle", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, "mock")
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusRunning, run.Status)

		tally := model.Tally{Inserted: 3, Updated: 1, Skipped: 2}
		require.NoError(t, s.CompleteRun(ctx, run.ID, 6, tally, nil))

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		assert.Equal(t, 6, got.Records)
		assert.Equal(t, tally, got.Tally)
		assert.Empty(t, got.Error)

		failed, err := s.CreateRun(ctx, "cnpja")
		require.NoError(t, err)
		require.NoError(t, s.CompleteRun(ctx, failed.ID, 0, model.Tally{}, errors.New("credits exhausted")))

		runs, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "cnpja", runs[0].Source)
		assert.Equal(t, "credits exhausted", runs[0].Error)

		bySource, err := s.ListRuns(ctx, RunFilter{Source: "mock"})
		require.NoError(t, err)
		assert.Len(t, bySource, 1)

		recent, err := s.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().Add(-time.Hour)})
		require.NoError(t, err)
		assert.Len(t, recent, 2)

		future, err := s.ListRuns(ctx, RunFilter{CreatedAfter: time.Now().Add(time.Hour)})
		require.NoError(t, err)
		assert.Empty(t, future)

		_, err = s.GetRun(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.CompleteRun(ctx, "nope", 0, model.Tally{}, nil), ErrNotFound)
	})

	t.Run("ReconcilerRoundTrip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		r := company.NewReconciler(s)

		lead := model.EnrichedLead{
			RawCompany: model.RawCompany{
				TaxID:               "33.333.333/0001-33",
				LegalName:           "Delta Reciclagem",
				Phone:               "(88) 3581-0001",
				District:            "Centro",
				SecondaryActivities: []string{},
			},
			GroupID:          "03.00",
			GroupDescription: "RESÍDUOS SÓLIDOS (ALTO RISCO)",
			SizeTier:         model.SizeSmall,
		}
		assert.Equal(t, model.OutcomeInserted, r.Reconcile(ctx, lead))
		assert.Equal(t, model.OutcomeSkipped, r.Reconcile(ctx, lead))

		lead.Phone = ""
		lead.Partners = "Ana Lima"
		assert.Equal(t, model.OutcomeUpdated, r.Reconcile(ctx, lead))

		got, err := s.GetCompany(ctx, lead.TaxID)
		require.NoError(t, err)
		assert.Equal(t, "(88) 3581-0001", got.Phone)
		assert.Equal(t, "Ana Lima", got.Partners)
		assert.Equal(t, company.CRMNew, got.CRMStatus)
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestSQLite_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	require.NoError(t, s.Migrate(context.Background()))
}
