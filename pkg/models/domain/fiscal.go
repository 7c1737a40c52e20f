package domain

import "github.com/shopspring/decimal"

// CostCategory names an entry in a detailed cost breakdown. The category
// keys follow the upload format of the ingestion layer.
type CostCategory string

const (
	CostEnergy       CostCategory = "energia_eletrica"
	CostDirectInputs CostCategory = "insumos_diretos"
	CostBuildingRent CostCategory = "aluguel_predios"
	CostMachinery    CostCategory = "maquinas_equipamentos"
	CostOther        CostCategory = "outros"
)

// CreditEligibleCategories are the cost categories that generate PIS/COFINS
// input credits under the non-cumulative regime (Leis 10.637/02 e 10.833/03).
// "outros" is deliberately excluded; it only feeds the contested marketing
// credit heuristic.
var CreditEligibleCategories = []CostCategory{
	CostEnergy,
	CostDirectInputs,
	CostBuildingRent,
	CostMachinery,
}

// CostBreakdown maps cost categories to monetary amounts. Unknown categories
// are ignored for credit purposes but still count toward the aggregate total
// used by the profit based regimes.
type CostBreakdown map[CostCategory]decimal.Decimal

// Total sums every category, eligible or not.
func (c CostBreakdown) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range c {
		total = total.Add(v)
	}
	return total
}

// CreditBase sums the credit eligible categories only.
func (c CostBreakdown) CreditBase() decimal.Decimal {
	base := decimal.Zero
	for _, cat := range CreditEligibleCategories {
		if v, ok := c[cat]; ok {
			base = base.Add(v)
		}
	}
	return base
}

// Costs carries the operational costs of one period, which arrive either as
// a single aggregate amount or as a detailed breakdown. A non-nil Breakdown
// wins and the total derives from it.
type Costs struct {
	Aggregate decimal.Decimal
	Breakdown CostBreakdown
}

// Total returns the aggregate cost amount used by profit based calculations.
func (c Costs) Total() decimal.Decimal {
	if c.Breakdown != nil {
		return c.Breakdown.Total()
	}
	return c.Aggregate
}

// FiscalPeriod is one reporting month as supplied by the ingestion layer.
// The Period label is usually "MM/YYYY" but is not guaranteed parseable.
// Inputs are immutable: the engines never mutate a FiscalPeriod.
type FiscalPeriod struct {
	Period     string
	Revenue    decimal.Decimal
	Payroll    decimal.Decimal
	PaidAmount decimal.Decimal
	PaidRegime Regime
	Costs      Costs
}
