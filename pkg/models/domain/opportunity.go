package domain

import "github.com/shopspring/decimal"

// Risk rates how defensible a recovery finding is before a tax authority.
type Risk string

const (
	RiskLow     Risk = "LOW"
	RiskMedium  Risk = "MEDIUM"
	RiskHigh    Risk = "HIGH"
	RiskUnknown Risk = "UNKNOWN"
)

// OpportunityType is the closed set of finding kinds the detector emits.
type OpportunityType string

const (
	OpportunityRegimeMismatch  OpportunityType = "REGIME_MISMATCH"
	OpportunityInputCredit     OpportunityType = "CREDITO_INSUMO"
	OpportunityICMSExclusion   OpportunityType = "EXCLUSAO_ICMS"
	OpportunityMonophasic      OpportunityType = "MONOFASICO"
	OpportunityMarketingCredit OpportunityType = "CREDITO_MARKETING"
)

// Opportunity is one detected recovery finding. Created only by the
// detector and never mutated after creation.
type Opportunity struct {
	Type        OpportunityType
	Period      string
	Description string
	Value       decimal.Decimal
	LegalBasis  string
	Risk        Risk
}

// AnalysisResult aggregates findings across all analyzed periods. It is
// returned by value; the detector retains no state between calls.
type AnalysisResult struct {
	TotalSavings decimal.Decimal
	// Opportunities preserve input-period order, then the fixed rule
	// order within a period.
	Opportunities    []Opportunity
	RegimeComparison map[Regime]decimal.Decimal
	PeriodRange      string
}
