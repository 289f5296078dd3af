// Package enrich turns raw registry records into qualified leads by running
// classification, sizing, fee, and licensing-opportunity rules over them.
package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/radar-cli/internal/classify"
	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/internal/sizing"
	"github.com/sells-group/radar-cli/internal/taxonomy"
)

// Groups whose leads are tagged High-Potential.
var highRiskGroups = map[string]bool{
	taxonomy.GroupSolidWaste: true,
	taxonomy.GroupTextile:    true,
}

// vehicleMarker in a group 06.00 activity description flags a possible
// attached workshop or car wash.
const vehicleMarker = "veículos"

// Enricher applies the lead-qualification rules. It holds no mutable state
// and may be shared across goroutines.
type Enricher struct {
	classifier *classify.Classifier
	now        func() time.Time
	region     Region
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithClock overrides the time source used for company age.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) {
		e.now = now
	}
}

// WithRegion sets the city and state appended to route links.
func WithRegion(r Region) Option {
	return func(e *Enricher) {
		e.region = r
	}
}

// New creates an Enricher backed by classifier.
func New(classifier *classify.Classifier, opts ...Option) *Enricher {
	e := &Enricher{
		classifier: classifier,
		now:        time.Now,
		region:     Region{City: "Iguatu", State: "CE"},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich qualifies each record. Output order matches input order and the
// input records are never modified.
func (e *Enricher) Enrich(records []model.RawCompany) []model.EnrichedLead {
	now := e.now()
	out := make([]model.EnrichedLead, len(records))
	for i := range records {
		out[i] = e.enrichOne(records[i], now)
	}
	return out
}

// EnrichConcurrent is Enrich spread over workers goroutines. Results are
// written by index so ordering is identical to Enrich.
func (e *Enricher) EnrichConcurrent(ctx context.Context, records []model.RawCompany, workers int) ([]model.EnrichedLead, error) {
	if workers <= 1 {
		return e.Enrich(records), nil
	}
	now := e.now()
	out := make([]model.EnrichedLead, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.enrichOne(records[i], now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "enrich: concurrent batch")
	}
	return out, nil
}

// EnrichOne qualifies a single record.
func (e *Enricher) EnrichOne(rec model.RawCompany) model.EnrichedLead {
	return e.enrichOne(rec, e.now())
}

func (e *Enricher) enrichOne(rec model.RawCompany, now time.Time) model.EnrichedLead {
	lead := model.EnrichedLead{
		RawCompany:       rec.Clone(),
		GroupID:          model.GroupIDUnclassified,
		GroupDescription: model.GroupDescUnclassified,
		SizeTier:         model.SizeNotClassified,
		FeeStatus:        model.FeeUnderReview,
		LicensingStatus:  model.StatusNotRequired,
		Action:           model.ActionIgnore,
	}
	applyDefaults(&lead.RawCompany)

	match, ok := e.classifier.Classify(rec.ActivityCodes(), rec.PrimaryDescription)
	if ok {
		e.qualify(&lead, match, now)
	}
	lead.RouteLink = RouteLink(lead.RawCompany, e.region)

	zap.L().Debug("enrich: lead qualified",
		zap.String("cnpj", lead.TaxID),
		zap.String("group", lead.GroupID),
		zap.String("size", string(lead.SizeTier)),
		zap.String("status", string(lead.LicensingStatus)),
	)
	return lead
}

func (e *Enricher) qualify(lead *model.EnrichedLead, match classify.Match, now time.Time) {
	lead.GroupID = match.GroupID
	lead.GroupDescription = match.Description
	lead.ClassifiedBy = string(match.Method)

	if match.GroupID == taxonomy.GroupCommerceServices &&
		strings.Contains(strings.ToLower(lead.PrimaryDescription), vehicleMarker) {
		lead.RiskTag = model.RiskAttachedWorkshop
	}

	lead.SizeTier = sizing.Estimate(lead.PrimaryActivity, sizing.InputsFor(lead.RawCompany))
	lead.FeeStatus = sizing.ClassifyFee(lead.LegalNature, lead.SizeTier)

	lead.LicensingStatus, lead.Action = Opportunity(lead.FoundedOn, now)

	if highRiskGroups[match.GroupID] {
		lead.RiskTag = model.RiskHighPotential
	}
	if lead.SizeTier == model.SizeMicro && lead.RiskTag == "" {
		lead.RiskTag = model.RiskLowImpact
	}
}

// applyDefaults fills UI-consumed optional fields with their empty values.
func applyDefaults(c *model.RawCompany) {
	if c.SecondaryActivities == nil {
		c.SecondaryActivities = []string{}
	}
	if c.RevenueSize == "" {
		c.RevenueSize = model.RevenueSizeUnknown
	}
}
