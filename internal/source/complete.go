package source

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/resilience"
)

// Complete fetches details for records that arrived without secondary
// activities and overlays every non-empty detail field. Records are
// returned in input order; failed lookups leave the record unchanged. Once
// the lookup reports an open breaker, the remaining records are left as they
// are. The second return value counts records that received details.
func Complete(ctx context.Context, records []model.RawCompany, lookup DetailLookup) ([]model.RawCompany, int, error) {
	out := make([]model.RawCompany, len(records))
	completed := 0
	suspended := false
	for i, rec := range records {
		out[i] = rec.Clone()
		if suspended || len(rec.SecondaryActivities) > 0 || rec.TaxID == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, completed, err
		}

		detail, err := lookup.Lookup(ctx, rec.TaxID)
		if errors.Is(err, resilience.ErrOpen) {
			zap.L().Warn("source: detail service unavailable, skipping remaining lookups", zap.Int("remaining", len(records)-i))
			suspended = true
			continue
		}
		if err != nil {
			zap.L().Warn("source: detail lookup failed", zap.String("tax_id", rec.TaxID), zap.Error(err))
			continue
		}
		if detail == nil {
			continue
		}

		overlay(&out[i], detail)
		completed++
		zap.L().Debug("source: completed record",
			zap.String("tax_id", rec.TaxID),
			zap.Int("secondary_activities", len(detail.SecondaryActivities)),
		)
	}
	return out, completed, nil
}

func overlay(dst *model.RawCompany, src *model.RawCompany) {
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&dst.LegalName, src.LegalName},
		{&dst.TradeName, src.TradeName},
		{&dst.PrimaryActivity, src.PrimaryActivity},
		{&dst.PrimaryDescription, src.PrimaryDescription},
		{&dst.Street, src.Street},
		{&dst.Number, src.Number},
		{&dst.District, src.District},
		{&dst.Municipality, src.Municipality},
		{&dst.State, src.State},
		{&dst.PostalCode, src.PostalCode},
		{&dst.Phone, src.Phone},
		{&dst.Partners, src.Partners},
		{&dst.FoundedOn, src.FoundedOn},
		{&dst.LegalNature, src.LegalNature},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}

	if src.RevenueSize != "" && src.RevenueSize != model.RevenueSizeUnknown {
		dst.RevenueSize = src.RevenueSize
	}
	if len(src.SecondaryActivities) > 0 {
		dst.SecondaryActivities = append([]string(nil), src.SecondaryActivities...)
	}
	if src.BuiltArea > 0 {
		dst.BuiltArea = src.BuiltArea
	}
	if !src.Capital.IsZero() {
		dst.Capital = src.Capital
	}
	if !src.EstimatedRevenue.IsZero() {
		dst.EstimatedRevenue = src.EstimatedRevenue
	}
	if src.Employees != "" {
		dst.Employees = src.Employees
	}
}
