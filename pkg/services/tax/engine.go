// Package tax implements the per-period tax calculators and the regime
// simulator. Every operation is a pure function of its inputs: no I/O, no
// shared mutable state, safe for concurrent use.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/open-solucoes/gtia/pkg/models/domain"
)

// Statutory rates applied by the calculators. These are fixed constants by
// design; the engine does not fetch live tables.
var (
	// INSS Patronal (CPP), Lei 8.212/91 art. 22.
	inssPatronalRate = decimal.RequireFromString("0.20")

	// PIS/COFINS, cumulative regime (Lei 9.718/98).
	pisCumulativeRate    = decimal.RequireFromString("0.0065")
	cofinsCumulativeRate = decimal.RequireFromString("0.0300")

	// PIS/COFINS, non-cumulative regime (Leis 10.637/02 e 10.833/03).
	pisNonCumulativeRate    = decimal.RequireFromString("0.0165")
	cofinsNonCumulativeRate = decimal.RequireFromString("0.0760")

	// IRPJ: 15% plus a 10% surtax on the monthly base above 20k
	// (Lei 9.249/95). CSLL: 9%.
	irpjRate            = decimal.RequireFromString("0.15")
	irpjSurtaxRate      = decimal.RequireFromString("0.10")
	irpjSurtaxThreshold = decimal.RequireFromString("20000.00")
	csllRate            = decimal.RequireFromString("0.09")

	// Presumed profit bases (Lei 9.249/95 art. 15): services 32%,
	// trade 8% for IRPJ. CSLL keeps the 32% service base.
	servicePresumption = decimal.RequireFromString("0.32")
	tradePresumption   = decimal.RequireFromString("0.08")

	// Simples Nacional single-bracket approximation: a flat effective
	// rate instead of the progressive Anexo III schedule, with a penalty
	// rate above the program's revenue ceiling.
	simplesFlatRate       = decimal.RequireFromString("0.10")
	simplesPenaltyRate    = decimal.RequireFromString("0.30")
	simplesRevenueCeiling = decimal.RequireFromString("3600000")

	// Assumed input-credit efficiency on non-cumulative PIS/COFINS when
	// the caller supplied no cost breakdown to compute actual credits.
	assumedCreditEfficiency = decimal.RequireFromString("0.70")
)

// Settings carries the per-company parameters of the engine.
type Settings struct {
	// CityISSRate is the municipal ISS rate in percent (statutory range
	// 2-5).
	CityISSRate decimal.Decimal
	// Service selects the 32% presumption base; false uses the 8% trade
	// base for IRPJ.
	Service bool
}

// DefaultSettings assumes a service company at the 5% ISS ceiling.
func DefaultSettings() Settings {
	return Settings{
		CityISSRate: decimal.RequireFromString("5.0"),
		Service:     true,
	}
}

// Engine computes individual tax line items and regime comparisons.
type Engine struct {
	settings Settings
}

func NewEngine(settings Settings) *Engine {
	return &Engine{settings: settings}
}

// CityISSRate exposes the configured municipal rate so callers can use it
// as the default on per-invoice calculations.
func (e *Engine) CityISSRate() decimal.Decimal {
	return e.settings.CityISSRate
}

// INSSPatronal computes the employer payroll contribution: 20% of payroll,
// except under Simples Nacional where it is collected inside the unified
// DAS and therefore zero here (Anexo III assumption).
func (e *Engine) INSSPatronal(payroll decimal.Decimal, regime domain.Regime) decimal.Decimal {
	if regime == domain.RegimeSimplesNacional {
		return decimal.Zero
	}
	return domain.FinalizeAmount(payroll.Mul(inssPatronalRate))
}

// Contributions is the PIS/COFINS outcome for one period.
type Contributions struct {
	PIS          decimal.Decimal
	COFINS       decimal.Decimal
	TotalCredits decimal.Decimal
}

// PISCofins computes both federal contributions. Under Lucro Presumido the
// cumulative rates apply with no credit right. Under Lucro Real the
// non-cumulative rates apply and, when a cost breakdown is given, input
// credits on the eligible categories reduce each contribution, floored at
// zero. Any other regime owes nothing here (Simples pays inside the DAS;
// unknown labels take the same branch).
func (e *Engine) PISCofins(revenue decimal.Decimal, regime domain.Regime, costs domain.CostBreakdown) Contributions {
	var pisRate, cofinsRate decimal.Decimal

	switch regime {
	case domain.RegimeLucroPresumido:
		pisRate, cofinsRate = pisCumulativeRate, cofinsCumulativeRate
	case domain.RegimeLucroReal:
		pisRate, cofinsRate = pisNonCumulativeRate, cofinsNonCumulativeRate
	default:
		return Contributions{PIS: decimal.Zero, COFINS: decimal.Zero, TotalCredits: decimal.Zero}
	}

	pisDebit := revenue.Mul(pisRate)
	cofinsDebit := revenue.Mul(cofinsRate)

	pisCredit, cofinsCredit := decimal.Zero, decimal.Zero
	if regime == domain.RegimeLucroReal && costs != nil {
		base := costs.CreditBase()
		pisCredit = base.Mul(pisRate)
		cofinsCredit = base.Mul(cofinsRate)
	}

	pis := pisDebit.Sub(pisCredit)
	if pis.IsNegative() {
		pis = decimal.Zero
	}
	cofins := cofinsDebit.Sub(cofinsCredit)
	if cofins.IsNegative() {
		cofins = decimal.Zero
	}

	return Contributions{
		PIS:          domain.FinalizeAmount(pis),
		COFINS:       domain.FinalizeAmount(cofins),
		TotalCredits: domain.FinalizeAmount(pisCredit.Add(cofinsCredit)),
	}
}

// ProfitTaxes is the IRPJ/CSLL outcome for one period.
type ProfitTaxes struct {
	IRPJ decimal.Decimal
	CSLL decimal.Decimal
}

// IRPJCSLL computes the corporate income taxes. Lucro Presumido taxes a
// presumed base; Lucro Real taxes max(revenue - costs, 0). The 10% IRPJ
// surtax applies to the monthly base above 20k only. Simples owes zero and
// unknown regimes keep a zero base.
func (e *Engine) IRPJCSLL(revenue, totalCosts decimal.Decimal, regime domain.Regime, isService bool) ProfitTaxes {
	if regime == domain.RegimeSimplesNacional {
		return ProfitTaxes{IRPJ: decimal.Zero, CSLL: decimal.Zero}
	}

	irBase, csllBase := decimal.Zero, decimal.Zero
	switch regime {
	case domain.RegimeLucroPresumido:
		presumption := servicePresumption
		if !isService {
			presumption = tradePresumption
		}
		irBase = revenue.Mul(presumption)
		csllBase = revenue.Mul(servicePresumption)
	case domain.RegimeLucroReal:
		profit := revenue.Sub(totalCosts)
		if profit.IsNegative() {
			profit = decimal.Zero
		}
		irBase, csllBase = profit, profit
	}

	irpj := irBase.Mul(irpjRate)
	if irBase.GreaterThan(irpjSurtaxThreshold) {
		irpj = irpj.Add(irBase.Sub(irpjSurtaxThreshold).Mul(irpjSurtaxRate))
	}

	return ProfitTaxes{
		IRPJ: domain.FinalizeAmount(irpj),
		CSLL: domain.FinalizeAmount(csllBase.Mul(csllRate)),
	}
}

// ISS computes the municipal service tax at the configured city rate.
func (e *Engine) ISS(revenue decimal.Decimal) decimal.Decimal {
	return e.ISSAt(revenue, e.settings.CityISSRate)
}

// ISSAt computes ISS at an explicit city rate given in percent.
func (e *Engine) ISSAt(revenue, cityRate decimal.Decimal) decimal.Decimal {
	return domain.FinalizeAmount(revenue.Mul(cityRate.Shift(-2)))
}

// SimulateRegimes computes the total tax burden of one period under each of
// the three regimes and recommends the cheapest. On a tie the regime that
// appears first in domain.ComparedRegimes wins, which makes the result
// deterministic.
//
// Lucro Real PIS/COFINS follows the cost input: with a breakdown, actual
// input credits are computed; without one, the assumed credit efficiency
// haircut stands in for the credits the company would typically hold.
func (e *Engine) SimulateRegimes(revenue, payroll decimal.Decimal, costs domain.Costs) domain.RegimeSimulation {
	totalCosts := costs.Total()

	totals := make(map[domain.Regime]decimal.Decimal, len(domain.ComparedRegimes))

	simplesRate := simplesFlatRate
	if revenue.GreaterThan(simplesRevenueCeiling) {
		simplesRate = simplesPenaltyRate
	}
	totals[domain.RegimeSimplesNacional] = domain.FinalizeAmount(revenue.Mul(simplesRate))

	lpContrib := e.PISCofins(revenue, domain.RegimeLucroPresumido, costs.Breakdown)
	lpProfit := e.IRPJCSLL(revenue, totalCosts, domain.RegimeLucroPresumido, e.settings.Service)
	totals[domain.RegimeLucroPresumido] = e.INSSPatronal(payroll, domain.RegimeLucroPresumido).
		Add(lpContrib.PIS).Add(lpContrib.COFINS).
		Add(lpProfit.IRPJ).Add(lpProfit.CSLL).
		Add(e.ISS(revenue))

	lrContrib := e.PISCofins(revenue, domain.RegimeLucroReal, costs.Breakdown)
	lrPisCofins := lrContrib.PIS.Add(lrContrib.COFINS)
	if costs.Breakdown == nil {
		lrPisCofins = domain.FinalizeAmount(lrPisCofins.Mul(assumedCreditEfficiency))
	}
	lrProfit := e.IRPJCSLL(revenue, totalCosts, domain.RegimeLucroReal, e.settings.Service)
	totals[domain.RegimeLucroReal] = e.INSSPatronal(payroll, domain.RegimeLucroReal).
		Add(lrPisCofins).
		Add(lrProfit.IRPJ).Add(lrProfit.CSLL).
		Add(e.ISS(revenue))

	best := domain.ComparedRegimes[0]
	min, max := totals[best], totals[best]
	for _, regime := range domain.ComparedRegimes[1:] {
		total := totals[regime]
		if total.LessThan(min) {
			min, best = total, regime
		}
		if total.GreaterThan(max) {
			max = total
		}
	}

	return domain.RegimeSimulation{
		Totals:         totals,
		Recommendation: best,
		Savings:        domain.FinalizeAmount(max.Sub(min)),
		CreditsFound:   lrContrib.TotalCredits,
	}
}
