package recovery

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-solucoes/gtia/pkg/models/domain"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertAmount(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func newAnalyzer() *Analyzer {
	return NewAnalyzer(tax.NewEngine(tax.DefaultSettings()), DefaultSettings())
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	result, err := newAnalyzer().Analyze(nil)

	require.NoError(t, err)
	assertAmount(t, "0.00", result.TotalSavings)
	assert.Empty(t, result.Opportunities)
	assert.Equal(t, unknownPeriodRange, result.PeriodRange)
	for _, regime := range domain.ComparedRegimes {
		assertAmount(t, "0.00", result.RegimeComparison[regime])
	}
}

func TestAnalyze_SinglePeriodFindings(t *testing.T) {
	// A Presumido company that should be in Simples: the classic
	// overpayment picture from a real intake.
	period := domain.FiscalPeriod{
		Period:     "01/2025",
		Revenue:    dec("200000"),
		Payroll:    dec("50000"),
		PaidAmount: dec("25000"),
		PaidRegime: domain.RegimeLucroPresumido,
		Costs: domain.Costs{Breakdown: domain.CostBreakdown{
			domain.CostEnergy:       dec("5000"),
			domain.CostDirectInputs: dec("80000"),
		}},
	}

	result, err := newAnalyzer().Analyze([]domain.FiscalPeriod{period})
	require.NoError(t, err)

	// Fixed rule order within the period: mismatch, then the heuristic
	// theses. No input-credit finding because Simples is recommended.
	require.Len(t, result.Opportunities, 3)
	assert.Equal(t, domain.OpportunityRegimeMismatch, result.Opportunities[0].Type)
	assert.Equal(t, domain.OpportunityICMSExclusion, result.Opportunities[1].Type)
	assert.Equal(t, domain.OpportunityMonophasic, result.Opportunities[2].Type)

	// Simples total is 20,000, so the mismatch is worth paid - optimal.
	mismatch := result.Opportunities[0]
	assertAmount(t, "5000.00", mismatch.Value)
	assert.Equal(t, "01/2025", mismatch.Period)
	assert.Equal(t, domain.RiskLow, mismatch.Risk)

	// ICMS estimate: 200,000 x 18% x 3.65%; monophasic: 200,000 x 5% x 3.65%.
	assertAmount(t, "1314.00", result.Opportunities[1].Value)
	assertAmount(t, "365.00", result.Opportunities[2].Value)
	assert.Equal(t, domain.RiskMedium, result.Opportunities[2].Risk)

	assertAmount(t, "6679.00", result.TotalSavings)
	assert.Equal(t, "01/2025 a 01/2025", result.PeriodRange)

	// Comparison totals carry each regime's simulated burden.
	assertAmount(t, "20000.00", result.RegimeComparison[domain.RegimeSimplesNacional])
	assertAmount(t, "47060.00", result.RegimeComparison[domain.RegimeLucroPresumido])
	assertAmount(t, "67737.50", result.RegimeComparison[domain.RegimeLucroReal])
}

func TestAnalyze_MismatchRequiresDifferentRegimeAndMateriality(t *testing.T) {
	analyzer := newAnalyzer()

	base := domain.FiscalPeriod{
		Period:     "03/2024",
		Revenue:    dec("100000"),
		Payroll:    dec("20000"),
		PaidRegime: domain.RegimeSimplesNacional,
		Costs:      domain.Costs{Aggregate: dec("40000")},
	}

	// Paid under the recommended regime: no mismatch even if overpaid.
	same := base
	same.PaidAmount = dec("50000")
	result, err := analyzer.Analyze([]domain.FiscalPeriod{same})
	require.NoError(t, err)
	for _, opp := range result.Opportunities {
		assert.NotEqual(t, domain.OpportunityRegimeMismatch, opp.Type)
	}

	// Wrong regime but inside the materiality floor: still no mismatch.
	minor := base
	minor.PaidRegime = domain.RegimeLucroPresumido
	minor.PaidAmount = dec("10009.99") // optimal is 10,000.00
	result, err = analyzer.Analyze([]domain.FiscalPeriod{minor})
	require.NoError(t, err)
	for _, opp := range result.Opportunities {
		assert.NotEqual(t, domain.OpportunityRegimeMismatch, opp.Type)
	}

	// Above the floor it fires.
	major := base
	major.PaidRegime = domain.RegimeLucroPresumido
	major.PaidAmount = dec("10010.01")
	result, err = analyzer.Analyze([]domain.FiscalPeriod{major})
	require.NoError(t, err)
	require.NotEmpty(t, result.Opportunities)
	assert.Equal(t, domain.OpportunityRegimeMismatch, result.Opportunities[0].Type)
	assertAmount(t, "10.01", result.Opportunities[0].Value)
}

func TestAnalyze_InputCreditsWhenRealIsRecommended(t *testing.T) {
	// Heavy eligible costs push Lucro Real below Simples: profit near
	// zero plus large input credits.
	period := domain.FiscalPeriod{
		Period:     "02/2025",
		Revenue:    dec("100000"),
		Payroll:    decimal.Zero,
		PaidAmount: decimal.Zero,
		PaidRegime: domain.RegimeLucroReal,
		Costs: domain.Costs{Breakdown: domain.CostBreakdown{
			domain.CostDirectInputs: dec("90000"),
		}},
	}

	result, err := newAnalyzer().Analyze([]domain.FiscalPeriod{period})
	require.NoError(t, err)

	// LR: PIS 165 + COFINS 760 + IRPJ 1500 + CSLL 900 + ISS 5000 = 8325.
	assertAmount(t, "8325.00", result.RegimeComparison[domain.RegimeLucroReal])

	require.NotEmpty(t, result.Opportunities)
	credit := result.Opportunities[0]
	assert.Equal(t, domain.OpportunityInputCredit, credit.Type)
	assertAmount(t, "8325.00", credit.Value)
	assert.Equal(t, domain.RiskLow, credit.Risk)
}

func TestAnalyze_HeuristicsFireWithEmptyBreakdown(t *testing.T) {
	// An empty (non-nil) breakdown yields zero credits, but the ICMS and
	// monophasic estimates depend only on revenue and must still fire.
	period := domain.FiscalPeriod{
		Period:     "05/2024",
		Revenue:    dec("300000"),
		PaidRegime: domain.RegimeLucroReal,
		Costs:      domain.Costs{Breakdown: domain.CostBreakdown{}},
	}

	result, err := newAnalyzer().Analyze([]domain.FiscalPeriod{period})
	require.NoError(t, err)

	var types []domain.OpportunityType
	for _, opp := range result.Opportunities {
		types = append(types, opp.Type)
	}
	assert.Contains(t, types, domain.OpportunityICMSExclusion)
	assert.Contains(t, types, domain.OpportunityMonophasic)
	assert.NotContains(t, types, domain.OpportunityInputCredit)
	assert.NotContains(t, types, domain.OpportunityMarketingCredit)
}

func TestAnalyze_MarketingCreditThreshold(t *testing.T) {
	analyzer := newAnalyzer()

	build := func(marketing string) domain.FiscalPeriod {
		return domain.FiscalPeriod{
			Period:     "07/2024",
			Revenue:    dec("50000"),
			PaidRegime: domain.RegimeLucroReal,
			Costs: domain.Costs{Breakdown: domain.CostBreakdown{
				domain.CostOther: dec(marketing),
			}},
		}
	}

	// 1,000 x 9.25% = 92.50, under the floor of 100.
	result, err := analyzer.Analyze([]domain.FiscalPeriod{build("1000")})
	require.NoError(t, err)
	for _, opp := range result.Opportunities {
		assert.NotEqual(t, domain.OpportunityMarketingCredit, opp.Type)
	}

	// 2,000 x 9.25% = 185.00 clears it, rated high risk.
	result, err = analyzer.Analyze([]domain.FiscalPeriod{build("2000")})
	require.NoError(t, err)
	var found *domain.Opportunity
	for i := range result.Opportunities {
		if result.Opportunities[i].Type == domain.OpportunityMarketingCredit {
			found = &result.Opportunities[i]
		}
	}
	require.NotNil(t, found)
	assertAmount(t, "185.00", found.Value)
	assert.Equal(t, domain.RiskHigh, found.Risk)
}

func TestAnalyze_AccumulatesAcrossPeriods(t *testing.T) {
	periods := []domain.FiscalPeriod{
		{
			Period: "01/2025", Revenue: dec("200000"), Payroll: dec("50000"),
			PaidAmount: dec("25000"), PaidRegime: domain.RegimeLucroPresumido,
			Costs: domain.Costs{Breakdown: domain.CostBreakdown{
				domain.CostEnergy: dec("5000"), domain.CostDirectInputs: dec("80000"),
			}},
		},
		{
			Period: "02/2025", Revenue: dec("210000"), Payroll: dec("55000"),
			PaidAmount: dec("26000"), PaidRegime: domain.RegimeLucroPresumido,
			Costs: domain.Costs{Breakdown: domain.CostBreakdown{
				domain.CostEnergy: dec("6000"), domain.CostDirectInputs: dec("90000"),
			}},
		},
	}

	result, err := newAnalyzer().Analyze(periods)
	require.NoError(t, err)

	assert.Equal(t, "01/2025 a 02/2025", result.PeriodRange)
	// Simples is the minimum both months: 20,000 + 21,000.
	assertAmount(t, "41000.00", result.RegimeComparison[domain.RegimeSimplesNacional])

	// Period order first, rule order within each period.
	var periodsSeen []string
	for _, opp := range result.Opportunities {
		periodsSeen = append(periodsSeen, opp.Period)
	}
	assert.IsNonDecreasing(t, periodsSeen)

	// Savings must equal the sum of emitted values.
	sum := decimal.Zero
	for _, opp := range result.Opportunities {
		sum = sum.Add(opp.Value)
	}
	assert.True(t, sum.Equal(result.TotalSavings))
}

func TestPeriodRange(t *testing.T) {
	tests := []struct {
		name     string
		labels   []string
		expected string
	}{
		{"empty", nil, unknownPeriodRange},
		{"single", []string{"01/2024"}, "01/2024 a 01/2024"},
		{"unordered input sorts chronologically", []string{"03/2024", "11/2023", "07/2024"}, "11/2023 a 07/2024"},
		{"unparseable falls back to input order", []string{"T1-2024", "T2-2024"}, "T1-2024 a T2-2024"},
		{"mixed falls back to input order", []string{"02/2024", "festa junina"}, "02/2024 a festa junina"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, periodRange(tt.labels))
		})
	}
}
