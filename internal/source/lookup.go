package source

import (
	"context"
	"errors"
	"regexp"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/resilience"
)

var formattedTaxID = regexp.MustCompile(`\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}`)

// ExtractTaxIDs returns the distinct formatted CNPJs (00.000.000/0000-00)
// found in text, in order of first appearance.
func ExtractTaxIDs(text string) []string {
	matches := formattedTaxID.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// TaxIDList fetches specific companies through a DetailLookup.
type TaxIDList struct {
	lookup DetailLookup
	ids    []string
}

// NewTaxIDList creates a source that looks up each tax id in order.
func NewTaxIDList(lookup DetailLookup, ids []string) *TaxIDList {
	return &TaxIDList{lookup: lookup, ids: ids}
}

// Name implements Source.
func (l *TaxIDList) Name() string { return "lookup" }

// Fetch implements Source. Unknown tax ids and failed lookups are logged
// and skipped. An open breaker fails the whole fetch.
func (l *TaxIDList) Fetch(ctx context.Context) ([]model.RawCompany, error) {
	out := make([]model.RawCompany, 0, len(l.ids))
	for _, id := range l.ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := l.lookup.Lookup(ctx, id)
		if errors.Is(err, resilience.ErrOpen) {
			return nil, eris.Wrapf(err, "source: lookup %s", id)
		}
		if err != nil {
			zap.L().Warn("source: lookup failed", zap.String("tax_id", id), zap.Error(err))
			continue
		}
		if rec == nil {
			zap.L().Info("source: tax id not found", zap.String("tax_id", id))
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// GuardedLookup sends lookups through a circuit breaker so a failing detail
// service is skipped until it cools down. Rejected calls return
// resilience.ErrOpen.
type GuardedLookup struct {
	next    DetailLookup
	breaker *resilience.Breaker
}

// NewGuardedLookup wraps next with breaker.
func NewGuardedLookup(next DetailLookup, breaker *resilience.Breaker) *GuardedLookup {
	return &GuardedLookup{next: next, breaker: breaker}
}

// Lookup implements DetailLookup.
func (g *GuardedLookup) Lookup(ctx context.Context, taxID string) (*model.RawCompany, error) {
	return resilience.Guard(ctx, g.breaker, func(ctx context.Context) (*model.RawCompany, error) {
		return g.next.Lookup(ctx, taxID)
	})
}
