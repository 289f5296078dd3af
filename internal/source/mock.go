package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sells-group/radar-cli/internal/model"
)

var (
	mockCommerce  = []string{"Mercadinho", "Posto", "Oficina", "Farmácia", "Padaria"}
	mockIndustry  = []string{"Indústria", "Fábrica", "Confecção", "Serraria", "Reciclagem"}
	mockSurnames  = []string{"do João", "Iguatu", "Ceará", "Progresso", "Central", "Norte", "Sul"}
	mockDistricts = []string{"Centro", "Flores", "Brasília", "Alto do Jucá", "Areias", "Veneza"}
	mockTypes     = []string{"EIRELI", "LTDA", "MEI", "S.A."}
)

// MockOptions configures the demo generator.
type MockOptions struct {
	Count int
	Seed  uint64
	// Codes are preferred activity codes; 60% of records draw from them when set.
	Codes        []string
	Municipality string
	State        string
	Now          func() time.Time
}

// Mock generates plausible, reproducible records for demos and tests.
type Mock struct {
	opts MockOptions
}

// NewMock creates a mock source. Count defaults to 50.
func NewMock(opts MockOptions) *Mock {
	if opts.Count <= 0 {
		opts.Count = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Municipality == "" {
		opts.Municipality = "IGUATU"
	}
	if opts.State == "" {
		opts.State = "CE"
	}
	return &Mock{opts: opts}
}

// Name implements Source.
func (m *Mock) Name() string { return "mock" }

// Fetch implements Source. The same seed yields the same records for the
// same clock.
func (m *Mock) Fetch(ctx context.Context) ([]model.RawCompany, error) {
	rng := rand.New(rand.NewPCG(m.opts.Seed, m.opts.Seed^0x9e3779b97f4a7c15))
	now := m.opts.Now()

	out := make([]model.RawCompany, 0, m.opts.Count)
	for range m.opts.Count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, m.record(rng, now))
	}
	return out, nil
}

func (m *Mock) record(rng *rand.Rand, now time.Time) model.RawCompany {
	kind := pick(rng, mockTypes)
	sector := mockCommerce
	if rng.IntN(2) == 1 {
		sector = mockIndustry
	}
	trade := pick(rng, sector) + " " + pick(rng, mockSurnames)

	code := randomCode(rng)
	if len(m.opts.Codes) > 0 && rng.Float64() < 0.6 {
		code = pick(rng, m.opts.Codes)
	}

	secondary := make([]string, rng.IntN(4))
	for i := range secondary {
		secondary[i] = randomCode(rng)
	}

	legalNature := "Sociedade Empresária Limitada"
	if kind == "MEI" {
		legalNature = "Empresário (Individual) - MEI"
	}

	return model.RawCompany{
		TaxID:               randomDigits(rng, 14),
		LegalName:           strings.ToUpper(trade) + " " + kind,
		TradeName:           trade,
		PrimaryActivity:     code,
		SecondaryActivities: secondary,
		FoundedOn:           mockFoundedOn(rng, now),
		Municipality:        m.opts.Municipality,
		State:               m.opts.State,
		District:            pick(rng, mockDistricts),
		Street:              "Rua Exemplo",
		Number:              fmt.Sprintf("%d", 10+rng.IntN(990)),
		LegalNature:         legalNature,
		RevenueSize:         model.RevenueSizeUnknown,
	}
}

// mockFoundedOn returns a date within the last 120 days 30% of the time,
// otherwise one to five years back.
func mockFoundedOn(rng *rand.Rand, now time.Time) string {
	var days int
	if rng.Float64() < 0.3 {
		days = rng.IntN(120)
	} else {
		days = 366 + rng.IntN(365*5-366+1)
	}
	return now.AddDate(0, 0, -days).Format(time.DateOnly)
}

func randomCode(rng *rand.Rand) string {
	return fmt.Sprintf("%d-%d/%02d", 1000+rng.IntN(9000), rng.IntN(10), rng.IntN(100))
}

func randomDigits(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + rng.IntN(10))
	}
	return string(b)
}

func pick(rng *rand.Rand, xs []string) string {
	return xs[rng.IntN(len(xs))]
}
