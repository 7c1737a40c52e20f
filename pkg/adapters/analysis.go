package adapters

import (
	"github.com/shopspring/decimal"

	"github.com/open-solucoes/gtia/pkg/models/api"
	"github.com/open-solucoes/gtia/pkg/models/domain"
)

func MapCostsApiToDomain(c *api.Costs) domain.Costs {
	if c == nil {
		return domain.Costs{Aggregate: decimal.Zero}
	}
	if c.Detailed == nil {
		return domain.Costs{Aggregate: c.Aggregate}
	}
	return domain.Costs{Breakdown: domain.CostBreakdown{
		domain.CostEnergy:       c.Detailed.Energy,
		domain.CostDirectInputs: c.Detailed.DirectInputs,
		domain.CostBuildingRent: c.Detailed.BuildingRent,
		domain.CostMachinery:    c.Detailed.Machinery,
		domain.CostOther:        c.Detailed.Other,
	}}
}

func MapFiscalMonthApiToDomain(m api.FiscalMonth) domain.FiscalPeriod {
	return domain.FiscalPeriod{
		Period:     m.Period,
		Revenue:    m.Revenue,
		Payroll:    m.Payroll,
		PaidAmount: m.PaidAmount,
		PaidRegime: domain.ParseRegime(m.PaidRegime),
		Costs:      MapCostsApiToDomain(m.Costs),
	}
}

func MapHistoryApiToDomain(history []api.FiscalMonth) []domain.FiscalPeriod {
	periods := make([]domain.FiscalPeriod, 0, len(history))
	for _, m := range history {
		periods = append(periods, MapFiscalMonthApiToDomain(m))
	}
	return periods
}

func MapSimulationDomainToApi(sim domain.RegimeSimulation) api.SimulationResponse {
	results := make(map[string]string, len(sim.Totals))
	for regime, total := range sim.Totals {
		results[regime.String()] = total.StringFixed(2)
	}
	return api.SimulationResponse{
		Results:        results,
		Recommendation: sim.Recommendation.String(),
		Savings:        sim.Savings.StringFixed(2),
		CreditsFound:   sim.CreditsFound.StringFixed(2),
	}
}

func MapRetentionsDomainToApi(stmt domain.RetentionStatement) api.RetentionsResponse {
	retentions := make(map[string]string, len(stmt.Retentions))
	for name, value := range stmt.Retentions {
		retentions[name] = value.StringFixed(2)
	}
	warnings := stmt.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return api.RetentionsResponse{
		BaseValue:   stmt.BaseValue.StringFixed(2),
		Retentions:  retentions,
		TotalLiquid: stmt.TotalLiquid.StringFixed(2),
		Warnings:    warnings,
	}
}

func MapOpportunityDomainToApi(opp domain.Opportunity) api.Opportunity {
	return api.Opportunity{
		Type:        string(opp.Type),
		Period:      opp.Period,
		Description: opp.Description,
		Value:       opp.Value.StringFixed(2),
		LegalBasis:  opp.LegalBasis,
		Risk:        string(opp.Risk),
	}
}

func MapAnalysisDomainToApi(result domain.AnalysisResult) api.AnalysisResponse {
	opportunities := make([]api.Opportunity, 0, len(result.Opportunities))
	for _, opp := range result.Opportunities {
		opportunities = append(opportunities, MapOpportunityDomainToApi(opp))
	}
	comparison := make(map[string]string, len(result.RegimeComparison))
	for regime, total := range result.RegimeComparison {
		comparison[regime.String()] = total.StringFixed(2)
	}
	return api.AnalysisResponse{
		TotalSavings:     result.TotalSavings.StringFixed(2),
		Opportunities:    opportunities,
		RegimeComparison: comparison,
		PeriodRange:      result.PeriodRange,
	}
}
