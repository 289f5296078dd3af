package company

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/pkg/cnpja"
)

// Reconciler writes enriched leads into the ledger without discarding data
// gathered by earlier runs.
type Reconciler struct {
	store Store
}

// NewReconciler creates a Reconciler backed by store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile inserts, updates, or skips lead. The ledger key is the tax id
// reduced to digits, so formatted and bare ids address the same row.
// Failures are logged and reported as OutcomeError; they are never retried.
func (r *Reconciler) Reconcile(ctx context.Context, lead model.EnrichedLead) model.Outcome {
	outcome, err := r.reconcile(ctx, &lead)
	log := zap.L().With(zap.String("cnpj", lead.TaxID), zap.String("outcome", string(outcome)))
	if err != nil {
		log.Error("company: reconcile failed", zap.Error(err))
		return model.OutcomeError
	}
	log.Debug("company: reconciled")
	return outcome
}

func (r *Reconciler) reconcile(ctx context.Context, lead *model.EnrichedLead) (model.Outcome, error) {
	lead.TaxID = cnpja.Digits(lead.TaxID)
	if lead.TaxID == "" {
		return model.OutcomeError, eris.New("company: lead has no tax id")
	}

	raw, err := json.Marshal(lead)
	if err != nil {
		return model.OutcomeError, eris.Wrap(err, "company: marshal snapshot")
	}
	snapshot := string(raw)

	existing, err := r.store.GetCompany(ctx, lead.TaxID)
	if err != nil {
		return model.OutcomeError, eris.Wrapf(err, "company: lookup %s", lead.TaxID)
	}

	if existing == nil {
		if err := r.store.UpsertCompany(ctx, Project(lead, snapshot)); err != nil {
			return model.OutcomeError, eris.Wrapf(err, "company: insert %s", lead.TaxID)
		}
		return model.OutcomeInserted, nil
	}

	merged, changed, dirty := Merge(existing, lead, snapshot)
	if !dirty {
		return model.OutcomeSkipped, nil
	}
	if err := r.store.UpsertCompany(ctx, merged); err != nil {
		return model.OutcomeError, eris.Wrapf(err, "company: update %s", lead.TaxID)
	}
	zap.L().Debug("company: merged fields", zap.String("cnpj", lead.TaxID), zap.Strings("columns", changed))
	return model.OutcomeUpdated, nil
}

// ReconcileAll reconciles leads one at a time in order and tallies the
// outcomes. It stops early only when ctx is cancelled; the remaining leads
// are counted as errors.
func (r *Reconciler) ReconcileAll(ctx context.Context, leads []model.EnrichedLead) model.Tally {
	var tally model.Tally
	for i, lead := range leads {
		if err := ctx.Err(); err != nil {
			zap.L().Warn("company: reconcile cancelled",
				zap.Int("remaining", len(leads)-i), zap.Error(err))
			for range leads[i:] {
				tally.Add(model.OutcomeError)
			}
			break
		}
		tally.Add(r.Reconcile(ctx, lead))
	}
	return tally
}
