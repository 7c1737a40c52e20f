// Package recovery turns per-period regime simulations into labelled,
// risk-rated recovery opportunities and aggregates them across a company's
// fiscal history.
package recovery

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/open-solucoes/gtia/pkg/models/domain"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

// Settings contains the materiality thresholds and heuristic assumptions
// used by the opportunity rules.
type Settings struct {
	// MismatchFloor is the minimum gap between paid and optimal amounts
	// worth flagging as a regime mismatch.
	MismatchFloor decimal.Decimal
	// MarketingCreditFloor is the minimum contested marketing credit
	// worth surfacing.
	MarketingCreditFloor decimal.Decimal
	// ICMSRevenueShare is the assumed share of revenue that is embedded
	// state VAT, for the exclusion thesis estimate.
	ICMSRevenueShare decimal.Decimal
	// MonophasicShare is the assumed share of revenue from single-phase
	// taxed products.
	MonophasicShare decimal.Decimal
}

func DefaultSettings() Settings {
	return Settings{
		MismatchFloor:        decimal.RequireFromString("10"),
		MarketingCreditFloor: decimal.RequireFromString("100"),
		ICMSRevenueShare:     decimal.RequireFromString("0.18"),
		MonophasicShare:      decimal.RequireFromString("0.05"),
	}
}

// rule inspects one simulated period and returns at most one finding.
// Rules are stateless and always run in the fixed order set up by
// NewAnalyzer, so the opportunity sequence is deterministic.
type rule func(p domain.FiscalPeriod, sim domain.RegimeSimulation) *domain.Opportunity

// Analyzer iterates fiscal periods, simulates each one and applies the
// opportunity rules. It holds no per-call state; concurrent Analyze calls
// are safe.
type Analyzer struct {
	engine   *tax.Engine
	settings Settings
	rules    []rule
}

func NewAnalyzer(engine *tax.Engine, settings Settings) *Analyzer {
	a := &Analyzer{engine: engine, settings: settings}
	a.rules = []rule{
		a.regimeMismatch,
		a.inputCredits,
		a.icmsExclusion,
		a.monophasicRevenue,
		a.marketingCredits,
	}
	return a
}

// ComputationError is the single fatal failure class of the detector: a
// period whose data could not be processed at all. Recoverable
// malformations never produce it; they default to zero upstream.
type ComputationError struct {
	Period string
	Cause  error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("analysis failed at period %q: %v", e.Period, e.Cause)
}

func (e *ComputationError) Unwrap() error { return e.Cause }

// periodOutcome is the contribution of one period, merged into the running
// result only when the period processed cleanly.
type periodOutcome struct {
	totals        map[domain.Regime]decimal.Decimal
	opportunities []domain.Opportunity
	savings       decimal.Decimal
}

// Analyze runs the full detection pipeline over the given fiscal history.
// Opportunities are appended in input-period order and, within a period,
// in the fixed rule order. An empty history yields a valid zero result.
func (a *Analyzer) Analyze(periods []domain.FiscalPeriod) (domain.AnalysisResult, error) {
	result := domain.AnalysisResult{
		TotalSavings:     decimal.Zero,
		Opportunities:    []domain.Opportunity{},
		RegimeComparison: make(map[domain.Regime]decimal.Decimal, len(domain.ComparedRegimes)),
	}
	for _, regime := range domain.ComparedRegimes {
		result.RegimeComparison[regime] = decimal.Zero
	}

	labels := make([]string, 0, len(periods))
	for _, p := range periods {
		labels = append(labels, p.Period)

		outcome, err := a.analyzePeriod(p)
		if err != nil {
			return result, err
		}

		for regime, total := range outcome.totals {
			result.RegimeComparison[regime] = result.RegimeComparison[regime].Add(total)
		}
		result.Opportunities = append(result.Opportunities, outcome.opportunities...)
		result.TotalSavings = result.TotalSavings.Add(outcome.savings)
	}

	result.PeriodRange = periodRange(labels)
	return result, nil
}

func (a *Analyzer) analyzePeriod(p domain.FiscalPeriod) (outcome periodOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = periodOutcome{}
			err = &ComputationError{Period: p.Period, Cause: fmt.Errorf("%v", r)}
		}
	}()

	sim := a.engine.SimulateRegimes(p.Revenue, p.Payroll, p.Costs)

	outcome.totals = sim.Totals
	outcome.savings = decimal.Zero
	for _, apply := range a.rules {
		if opp := apply(p, sim); opp != nil {
			outcome.opportunities = append(outcome.opportunities, *opp)
			outcome.savings = outcome.savings.Add(opp.Value)
		}
	}
	return outcome, nil
}

const unknownPeriodRange = "Período Desconhecido"

// periodRange formats the chronological span of the analyzed labels as
// "first a last", expecting MM/YYYY labels. If any label fails to parse it
// falls back to the first and last labels in input order.
func periodRange(labels []string) string {
	if len(labels) == 0 {
		return unknownPeriodRange
	}

	first, last := 0, 0
	parsed := make([]time.Time, len(labels))
	for i, label := range labels {
		t, err := time.Parse("01/2006", strings.TrimSpace(label))
		if err != nil {
			return labels[0] + " a " + labels[len(labels)-1]
		}
		parsed[i] = t
		if t.Before(parsed[first]) {
			first = i
		}
		if t.After(parsed[last]) {
			last = i
		}
	}
	return labels[first] + " a " + labels[last]
}
