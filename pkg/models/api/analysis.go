package api

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Monetary fields in responses are fixed 2-decimal strings; requests accept
// JSON numbers or quoted numbers (decimal handles both).

type Company struct {
	Name         string `json:"name"`
	CNPJ         string `json:"cnpj"`
	ActivityCode string `json:"activity_code"`
	Regime       string `json:"regime"`
}

type CostBreakdown struct {
	Energy       decimal.Decimal `json:"energia_eletrica"`
	DirectInputs decimal.Decimal `json:"insumos_diretos"`
	BuildingRent decimal.Decimal `json:"aluguel_predios"`
	Machinery    decimal.Decimal `json:"maquinas_equipamentos"`
	Other        decimal.Decimal `json:"outros"`
}

// Costs accepts either a plain number (aggregate costs) or an object with
// per-category amounts, mirroring the two upload formats in the wild.
type Costs struct {
	Aggregate decimal.Decimal
	Detailed  *CostBreakdown
}

func (c *Costs) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var detailed CostBreakdown
		if err := json.Unmarshal(trimmed, &detailed); err != nil {
			return err
		}
		c.Detailed = &detailed
		return nil
	}
	return json.Unmarshal(trimmed, &c.Aggregate)
}

func (c Costs) MarshalJSON() ([]byte, error) {
	if c.Detailed != nil {
		return json.Marshal(c.Detailed)
	}
	return json.Marshal(c.Aggregate)
}

type FiscalMonth struct {
	Period     string          `json:"period"`
	Revenue    decimal.Decimal `json:"revenue"`
	Payroll    decimal.Decimal `json:"payroll"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	PaidRegime string          `json:"paid_regime"`
	Costs      *Costs          `json:"costs,omitempty"`
}

type AnalysisRequest struct {
	Company Company       `json:"company"`
	History []FiscalMonth `json:"history"`
}

type SimulationRequest struct {
	Revenue decimal.Decimal `json:"revenue"`
	Payroll decimal.Decimal `json:"payroll"`
	Costs   *Costs          `json:"costs,omitempty"`
}

type SimulationResponse struct {
	Results        map[string]string `json:"results"`
	Recommendation string            `json:"recommendation"`
	Savings        string            `json:"savings"`
	CreditsFound   string            `json:"credits_found"`
}

type RetentionsRequest struct {
	ServiceValue   decimal.Decimal  `json:"service_value"`
	ProviderRegime string           `json:"provider_regime"`
	CityISSRate    *decimal.Decimal `json:"city_iss_rate,omitempty"`
}

type RetentionsResponse struct {
	BaseValue   string            `json:"base_value"`
	Retentions  map[string]string `json:"retentions"`
	TotalLiquid string            `json:"total_liquid"`
	Warnings    []string          `json:"warnings"`
}

type Opportunity struct {
	Type        string `json:"type"`
	Period      string `json:"period"`
	Description string `json:"description"`
	Value       string `json:"value"`
	LegalBasis  string `json:"legal_basis"`
	Risk        string `json:"risk"`
}

type AnalysisResponse struct {
	TotalSavings     string            `json:"total_savings"`
	Opportunities    []Opportunity     `json:"opportunities"`
	RegimeComparison map[string]string `json:"regime_comparison"`
	PeriodRange      string            `json:"period_range"`
}

type Status struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Timestamp time.Time `json:"timestamp"`
}

type Error struct {
	Error  string `json:"error"`
	Period string `json:"period,omitempty"`
}
