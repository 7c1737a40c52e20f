package recovery

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/open-solucoes/gtia/pkg/models/domain"
)

// Combined PIS+COFINS rates used by the heuristic estimates: 9.25% under
// the non-cumulative regime, 3.65% otherwise (unknown regimes take the
// cumulative default).
var (
	combinedNonCumulativeRate = decimal.RequireFromString("0.0925")
	combinedCumulativeRate    = decimal.RequireFromString("0.0365")
)

func combinedPISCofinsRate(regime domain.Regime) decimal.Decimal {
	if regime == domain.RegimeLucroReal {
		return combinedNonCumulativeRate
	}
	return combinedCumulativeRate
}

// regimeMismatch flags periods where the company paid under a pricier
// regime than the simulation recommends, beyond the materiality floor.
func (a *Analyzer) regimeMismatch(p domain.FiscalPeriod, sim domain.RegimeSimulation) *domain.Opportunity {
	if p.PaidRegime == sim.Recommendation {
		return nil
	}
	optimal := sim.Totals[sim.Recommendation]
	diff := p.PaidAmount.Sub(optimal)
	if diff.LessThanOrEqual(a.settings.MismatchFloor) {
		return nil
	}
	return &domain.Opportunity{
		Type:   domain.OpportunityRegimeMismatch,
		Period: p.Period,
		Description: fmt.Sprintf("Empresa pagou R$ %s no %s, mas pagaria R$ %s no %s.",
			p.PaidAmount.StringFixed(2), p.PaidRegime, optimal.StringFixed(2), sim.Recommendation),
		Value:      domain.FinalizeAmount(diff),
		LegalBasis: "Planejamento Tributário / Elisão Fiscal Lícita",
		Risk:       domain.RiskLow,
	}
}

// inputCredits surfaces the PIS/COFINS input credits the company could
// claim under the non-cumulative regime, whenever that regime is the
// recommended one and the cost breakdown produced credits. Independent of
// the mismatch rule.
func (a *Analyzer) inputCredits(p domain.FiscalPeriod, sim domain.RegimeSimulation) *domain.Opportunity {
	if sim.Recommendation != domain.RegimeLucroReal || !sim.CreditsFound.IsPositive() {
		return nil
	}
	return &domain.Opportunity{
		Type:        domain.OpportunityInputCredit,
		Period:      p.Period,
		Description: "Créditos de PIS/COFINS sobre insumos operacionais (energia, aluguel, máquinas, insumos).",
		Value:       sim.CreditsFound,
		LegalBasis:  "Leis 10.637/02 e 10.833/03 (Princípio da Não-Cumulatividade)",
		Risk:        domain.RiskLow,
	}
}

// icmsExclusion estimates the savings from excluding state VAT from the
// federal contribution base, settled by the high court (Tema 69). Does not
// apply to Simples Nacional, which has its own collection rules.
func (a *Analyzer) icmsExclusion(p domain.FiscalPeriod, sim domain.RegimeSimulation) *domain.Opportunity {
	if p.PaidRegime == domain.RegimeSimplesNacional {
		return nil
	}
	estimate := p.Revenue.Mul(a.settings.ICMSRevenueShare).Mul(combinedPISCofinsRate(p.PaidRegime))
	if !estimate.IsPositive() {
		return nil
	}
	return &domain.Opportunity{
		Type:        domain.OpportunityICMSExclusion,
		Period:      p.Period,
		Description: "Exclusão do ICMS da base de cálculo do PIS/COFINS (Tese do Século).",
		Value:       domain.FinalizeAmount(estimate),
		LegalBasis:  "STF RE 574.706 (Tema 69)",
		Risk:        domain.RiskLow,
	}
}

// monophasicRevenue estimates contribution paid twice on single-phase
// taxed product revenue. Medium risk: confirming it requires an NCM by NCM
// product review.
func (a *Analyzer) monophasicRevenue(p domain.FiscalPeriod, sim domain.RegimeSimulation) *domain.Opportunity {
	estimate := p.Revenue.Mul(a.settings.MonophasicShare).Mul(combinedPISCofinsRate(p.PaidRegime))
	if !estimate.IsPositive() {
		return nil
	}
	return &domain.Opportunity{
		Type:        domain.OpportunityMonophasic,
		Period:      p.Period,
		Description: "Segregação de receitas monofásicas (PIS/COFINS recolhido na indústria).",
		Value:       domain.FinalizeAmount(estimate),
		LegalBasis:  "Lei 10.147/00 (Autopeças/Farmácia/Cosméticos)",
		Risk:        domain.RiskMedium,
	}
}

// marketingCredits applies the contested extended-input thesis to the
// "outros" cost category. High risk: the credit is routinely disallowed
// and only worth flagging above the configured floor.
func (a *Analyzer) marketingCredits(p domain.FiscalPeriod, sim domain.RegimeSimulation) *domain.Opportunity {
	if p.Costs.Breakdown == nil {
		return nil
	}
	other, ok := p.Costs.Breakdown[domain.CostOther]
	if !ok || !other.IsPositive() {
		return nil
	}
	estimate := other.Mul(combinedPISCofinsRate(p.PaidRegime))
	if estimate.LessThanOrEqual(a.settings.MarketingCreditFloor) {
		return nil
	}
	return &domain.Opportunity{
		Type:        domain.OpportunityMarketingCredit,
		Period:      p.Period,
		Description: "Crédito PIS/COFINS sobre despesas de marketing (conceito estendido de insumo - CARF).",
		Value:       domain.FinalizeAmount(estimate),
		LegalBasis:  "Tese Jurídica Controvertida (Risco de Glosa)",
		Risk:        domain.RiskHigh,
	}
}
