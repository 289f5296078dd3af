package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar-cli/internal/fetcher"
	"github.com/sells-group/radar-cli/internal/model"
)

// Column positions in the Receita Federal "Estabelecimentos" layout.
const (
	colBasic        = 0
	colOrder        = 1
	colCheck        = 2
	colTradeName    = 4
	colFoundedOn    = 10
	colPrimaryCNAE  = 11
	colSecondary    = 12
	colStreetType   = 13
	colStreet       = 14
	colNumber       = 15
	colDistrict     = 17
	colPostalCode   = 18
	colState        = 19
	colMunicipality = 20
	colAreaCode     = 21
	colPhone        = 22

	receitaMinColumns = colPhone + 1
)

// ReceitaOptions configures a Receita dump import.
type ReceitaOptions struct {
	// Path is a ZIP archive of dump parts or a single extracted file.
	Path string
	// Municipality is the Receita (TOM) municipality code to keep.
	Municipality string
	// MunicipalityName is written to the records; the dump only carries the code.
	MunicipalityName string
}

// Receita reads establishments from a Receita Federal open-data dump,
// keeping one municipality.
type Receita struct {
	opts ReceitaOptions
}

// NewReceita creates a dump-backed source.
func NewReceita(opts ReceitaOptions) *Receita {
	return &Receita{opts: opts}
}

// Name implements Source.
func (r *Receita) Name() string { return "receita" }

// Fetch implements Source.
func (r *Receita) Fetch(ctx context.Context) ([]model.RawCompany, error) {
	if r.opts.Path == "" {
		return nil, eris.New("receita: dump path is required")
	}
	if r.opts.Municipality == "" {
		return nil, eris.New("receita: municipality code is required")
	}

	log := zap.L().With(zap.String("source", r.Name()), zap.String("path", r.opts.Path))

	isZip, err := fetcher.IsZIP(r.opts.Path)
	if err != nil {
		return nil, eris.Wrap(err, "receita: inspect dump")
	}

	var out []model.RawCompany
	if isZip {
		n, err := fetcher.WalkZIP(r.opts.Path, nil, func(name string, rd io.Reader) error {
			recs, err := r.parse(ctx, rd)
			if err != nil {
				return err
			}
			log.Info("receita: parsed archive entry", zap.String("entry", name), zap.Int("matched", len(recs)))
			out = append(out, recs...)
			return nil
		})
		if err != nil {
			return nil, eris.Wrap(err, "receita: read archive")
		}
		log.Info("receita: archive done", zap.Int("entries", n), zap.Int("matched", len(out)))
		return out, nil
	}

	f, err := os.Open(r.opts.Path)
	if err != nil {
		return nil, eris.Wrap(err, "receita: open dump")
	}
	defer f.Close() //nolint:errcheck

	out, err = r.parse(ctx, f)
	if err != nil {
		return nil, err
	}
	log.Info("receita: file done", zap.Int("matched", len(out)))
	return out, nil
}

func (r *Receita) parse(ctx context.Context, rd io.Reader) ([]model.RawCompany, error) {
	var out []model.RawCompany
	_, err := fetcher.ScanRows(ctx, rd, fetcher.ReceitaDialect, func(_ int, row []string) error {
		if len(row) >= receitaMinColumns && row[colMunicipality] == r.opts.Municipality {
			out = append(out, r.toRawCompany(row))
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "receita: parse rows")
	}
	return out, nil
}

func (r *Receita) toRawCompany(row []string) model.RawCompany {
	rec := model.RawCompany{
		TaxID:               row[colBasic] + row[colOrder] + row[colCheck],
		TradeName:           row[colTradeName],
		FoundedOn:           receitaDate(row[colFoundedOn]),
		PrimaryActivity:     row[colPrimaryCNAE],
		SecondaryActivities: splitCodes(row[colSecondary]),
		Street:              strings.TrimSpace(row[colStreetType] + " " + row[colStreet]),
		Number:              row[colNumber],
		District:            row[colDistrict],
		PostalCode:          row[colPostalCode],
		State:               row[colState],
		Municipality:        r.opts.MunicipalityName,
		RevenueSize:         model.RevenueSizeUnknown,
	}
	if rec.Municipality == "" {
		rec.Municipality = row[colMunicipality]
	}
	if row[colAreaCode] != "" && row[colPhone] != "" {
		rec.Phone = "(" + row[colAreaCode] + ") " + row[colPhone]
	}
	return rec
}

// receitaDate converts YYYYMMDD to YYYY-MM-DD. Other shapes pass through
// unchanged so downstream date validation can flag them.
func receitaDate(s string) string {
	if len(s) != 8 {
		return s
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return s
		}
	}
	return s[:4] + "-" + s[4:6] + "-" + s[6:]
}

func splitCodes(s string) []string {
	out := []string{}
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
