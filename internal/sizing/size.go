// Package sizing estimates the environmental size tier of a company and
// derives its licensing-fee exemption status.
package sizing

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/radar-cli/internal/classify"
	"github.com/sells-group/radar-cli/internal/model"
)

// Inputs are the numeric attributes the size rules read.
type Inputs struct {
	BuiltArea float64         // m²; 0 when unknown
	Capital   decimal.Decimal // revenue or capital proxy
	Employees int
}

// InputsFor extracts sizing inputs from a raw record.
func InputsFor(c model.RawCompany) Inputs {
	return Inputs{
		BuiltArea: c.BuiltArea,
		Capital:   c.CapitalProxy(),
		Employees: ParseHeadcount(string(c.Employees)),
	}
}

// landSubdivisionCodes trigger the hectare-based rule.
var landSubdivisionCodes = map[string]bool{
	"4213800": true,
	"4110700": true,
	"6810203": true,
}

// Capital thresholds (BRL), inclusive upper bounds for tiers 1-4.
var capitalBands = []decimal.Decimal{
	decimal.NewFromInt(575_000),
	decimal.NewFromInt(1_150_000),
	decimal.NewFromInt(11_500_000),
	decimal.NewFromInt(85_500_000),
}

var (
	employeeBands = []float64{7, 50, 100, 500}
	areaBands     = []float64{250, 1000, 5000, 10000}
	hectareBands  = []float64{10, 30, 50, 100}
)

var tierNames = [...]model.SizeTier{
	1: model.SizeMicro,
	2: model.SizeSmall,
	3: model.SizeMedium,
	4: model.SizeLarge,
	5: model.SizeExceptional,
}

// IsLandSubdivision reports whether the primary activity code selects the
// land-subdivision rule.
func IsLandSubdivision(primaryCode string) bool {
	return landSubdivisionCodes[classify.StripSeparators(primaryCode)]
}

// Estimate computes the size tier. Land-subdivision activities are sized by
// area in hectares; everything else takes the worst of the capital,
// employee, and (when known) built-area scores.
func Estimate(primaryCode string, in Inputs) model.SizeTier {
	if IsLandSubdivision(primaryCode) {
		return tierNames[band(in.BuiltArea/10000.0, hectareBands)]
	}
	return tierNames[GeneralScore(in)]
}

// GeneralScore returns the 1..5 score of the general rule.
func GeneralScore(in Inputs) int {
	score := capitalScore(in.Capital)
	if s := band(float64(in.Employees), employeeBands); s > score {
		score = s
	}
	// Unknown area is left out rather than counted as tier 1.
	if in.BuiltArea > 0 {
		if s := band(in.BuiltArea, areaBands); s > score {
			score = s
		}
	}
	return score
}

// TierRank returns the 1..5 rank of a tier, or 0 for Not Classified.
func TierRank(t model.SizeTier) int {
	for i, name := range tierNames {
		if i > 0 && name == t {
			return i
		}
	}
	return 0
}

func capitalScore(v decimal.Decimal) int {
	for i, limit := range capitalBands {
		if v.LessThanOrEqual(limit) {
			return i + 1
		}
	}
	return len(capitalBands) + 1
}

func band(v float64, limits []float64) int {
	for i, limit := range limits {
		if v <= limit {
			return i + 1
		}
	}
	return len(limits) + 1
}
