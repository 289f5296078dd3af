package sizing

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar-cli/internal/model"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestEstimate_GeneralRule(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want model.SizeTier
	}{
		{"all zero", Inputs{}, model.SizeMicro},
		{"capital at micro limit", Inputs{Capital: dec(575_000)}, model.SizeMicro},
		{"capital just above micro", Inputs{Capital: dec(575_001)}, model.SizeSmall},
		{"capital medium", Inputs{Capital: dec(2_000_000)}, model.SizeMedium},
		{"capital large", Inputs{Capital: dec(85_500_000)}, model.SizeLarge},
		{"capital exceptional", Inputs{Capital: dec(85_500_001)}, model.SizeExceptional},
		{"employees 7", Inputs{Employees: 7}, model.SizeMicro},
		{"employees 8", Inputs{Employees: 8}, model.SizeSmall},
		{"employees 501", Inputs{Employees: 501}, model.SizeExceptional},
		{"area 250", Inputs{BuiltArea: 250}, model.SizeMicro},
		{"area 1000", Inputs{BuiltArea: 1000}, model.SizeSmall},
		{"area 5000", Inputs{BuiltArea: 5000}, model.SizeMedium},
		{"area 10000", Inputs{BuiltArea: 10000}, model.SizeLarge},
		{"area 10001", Inputs{BuiltArea: 10001}, model.SizeExceptional},
		{"worst case wins", Inputs{Capital: dec(100_000), Employees: 3, BuiltArea: 6000}, model.SizeLarge},
		{"capital 2M employees 60 no area", Inputs{Capital: dec(2_000_000), Employees: 60}, model.SizeMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate("4711-3/01", tt.in))
		})
	}
}

func TestEstimate_UnknownAreaNotDowngraded(t *testing.T) {
	in := Inputs{Capital: dec(20_000_000)}
	assert.Equal(t, model.SizeLarge, Estimate("4711301", in))
	assert.Equal(t, 4, GeneralScore(in))
}

func TestEstimate_LandSubdivision(t *testing.T) {
	tests := []struct {
		area float64
		want model.SizeTier
	}{
		{0, model.SizeMicro},
		{100_000, model.SizeMicro},
		{300_000, model.SizeSmall},
		{350_000, model.SizeMedium},
		{500_000, model.SizeMedium},
		{1_000_000, model.SizeLarge},
		{1_000_001, model.SizeExceptional},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Estimate("4213-8/00", Inputs{BuiltArea: tt.area}), "area %v", tt.area)
	}

	// The general rule would put 350,000 m² at Exceptional.
	assert.Equal(t, model.SizeExceptional, Estimate("4711-3/01", Inputs{BuiltArea: 350_000}))
	// Capital is ignored by the land-subdivision rule.
	assert.Equal(t, model.SizeMicro, Estimate("6810203", Inputs{Capital: dec(100_000_000)}))
}

func TestIsLandSubdivision(t *testing.T) {
	assert.True(t, IsLandSubdivision("4213-8/00"))
	assert.True(t, IsLandSubdivision("4110700"))
	assert.True(t, IsLandSubdivision("6810-2/03"))
	assert.False(t, IsLandSubdivision("4120-4/00"))
	assert.False(t, IsLandSubdivision(""))
}

func TestGeneralScore_Monotonic(t *testing.T) {
	capitals := []int64{0, 500_000, 575_000, 600_000, 1_150_000, 5_000_000, 11_500_000, 50_000_000, 85_500_000, 90_000_000}
	employees := []int{0, 5, 7, 8, 50, 51, 100, 101, 500, 501, 1000}
	areas := []float64{0, 100, 250, 251, 1000, 1001, 5000, 5001, 10000, 10001, 50000}

	for _, c := range capitals {
		for _, e := range employees {
			prev := 0
			for _, a := range areas {
				s := GeneralScore(Inputs{Capital: dec(c), Employees: e, BuiltArea: a})
				assert.GreaterOrEqual(t, s, prev, "area increase lowered score (c=%d e=%d a=%v)", c, e, a)
				prev = s
			}
		}
	}
	for _, a := range areas {
		for _, e := range employees {
			prev := 0
			for _, c := range capitals {
				s := GeneralScore(Inputs{Capital: dec(c), Employees: e, BuiltArea: a})
				assert.GreaterOrEqual(t, s, prev)
				prev = s
			}
		}
		for _, c := range capitals {
			prev := 0
			for _, e := range employees {
				s := GeneralScore(Inputs{Capital: dec(c), Employees: e, BuiltArea: a})
				assert.GreaterOrEqual(t, s, prev)
				prev = s
			}
		}
	}
}

func TestTierRank(t *testing.T) {
	assert.Equal(t, 1, TierRank(model.SizeMicro))
	assert.Equal(t, 3, TierRank(model.SizeMedium))
	assert.Equal(t, 5, TierRank(model.SizeExceptional))
	assert.Equal(t, 0, TierRank(model.SizeNotClassified))
}

func TestParseHeadcount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"12", 12},
		{" 12 ", 12},
		{"10-50", 50},
		{"10 - 50", 50},
		{"501-", 0},
		{"muitos", 0},
		{"12.5", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseHeadcount(tt.in), "input %q", tt.in)
	}
}

func TestInputsFor(t *testing.T) {
	in := InputsFor(model.RawCompany{
		BuiltArea:        300,
		Capital:          dec(10_000),
		EstimatedRevenue: dec(700_000),
		Employees:        "1-9",
	})
	assert.Equal(t, 300.0, in.BuiltArea)
	assert.True(t, in.Capital.Equal(dec(700_000)))
	assert.Equal(t, 9, in.Employees)
}

func TestInputsFor_FractionalHeadcount(t *testing.T) {
	var c model.RawCompany
	require.NoError(t, json.Unmarshal([]byte(`{"qtde_funcionarios": 12.5}`), &c))
	assert.Equal(t, 12, InputsFor(c).Employees)
}

func TestClassifyFee(t *testing.T) {
	tests := []struct {
		name   string
		nature string
		tier   model.SizeTier
		want   model.FeeStatus
	}{
		{"mei regardless of tier", "213-5 - Empresário (Individual) MEI", model.SizeExceptional, model.FeeExempt},
		{"microempreendedor lowercase", "microempreendedor individual", model.SizeLarge, model.FeeExempt},
		{"micro tier", "206-2 - Sociedade Empresária Limitada", model.SizeMicro, model.FeeExempt},
		{"subject", "206-2 - Sociedade Empresária Limitada", model.SizeSmall, model.FeeSubject},
		{"empty nature", "", model.SizeMedium, model.FeeSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFee(tt.nature, tt.tier))
		})
	}
}
