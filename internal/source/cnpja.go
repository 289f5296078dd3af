package source

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/model"
	"github.com/sells-group/radar-cli/pkg/cnpja"
)

// CNPJaOptions configures the commercial registry scan.
type CNPJaOptions struct {
	// Municipality is the IBGE code to scan.
	Municipality string
	// Window bounds how far back founding dates are searched. Default 365 days.
	Window time.Duration
	// Limit caps the number of records fetched across pages. Default 20.
	Limit int
	Now   func() time.Time
}

// CNPJa scans recently founded offices in a municipality and serves detail
// lookups through the same client.
type CNPJa struct {
	client cnpja.Client
	opts   CNPJaOptions
}

// NewCNPJa creates a CNPJá-backed source.
func NewCNPJa(client cnpja.Client, opts CNPJaOptions) *CNPJa {
	if opts.Window <= 0 {
		opts.Window = 365 * 24 * time.Hour
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CNPJa{client: client, opts: opts}
}

// Name implements Source.
func (s *CNPJa) Name() string { return "cnpja" }

// Fetch implements Source, following pagination until Limit records are
// collected or the provider runs out.
func (s *CNPJa) Fetch(ctx context.Context) ([]model.RawCompany, error) {
	if s.opts.Municipality == "" {
		return nil, eris.New("cnpja: municipality code is required")
	}

	q := cnpja.SearchQuery{
		Municipality: s.opts.Municipality,
		FoundedSince: s.opts.Now().Add(-s.opts.Window),
		Limit:        s.opts.Limit,
	}

	var out []model.RawCompany
	for len(out) < s.opts.Limit {
		page, err := s.client.Search(ctx, q)
		if err != nil {
			return nil, eris.Wrap(err, "cnpja: fetch")
		}
		for i := range page.Records {
			out = append(out, cnpja.ToRawCompany(&page.Records[i]))
		}
		if page.Next == "" || len(page.Records) == 0 {
			break
		}
		q.Token = page.Next
	}
	if len(out) > s.opts.Limit {
		out = out[:s.opts.Limit]
	}

	if len(out) == 0 {
		zap.L().Warn("cnpja: search returned no recently founded companies",
			zap.String("municipality", s.opts.Municipality))
	}
	return out, nil
}

// Lookup implements DetailLookup.
func (s *CNPJa) Lookup(ctx context.Context, taxID string) (*model.RawCompany, error) {
	office, err := s.client.Office(ctx, taxID)
	if err != nil {
		return nil, err
	}
	if office == nil {
		return nil, nil
	}
	raw := cnpja.ToRawCompany(office)
	return &raw, nil
}
