package store

import "time"

// Company is the persisted client record, keyed by CNPJ for upserts.
type Company struct {
	ID           string
	CNPJ         string
	Name         string
	Regime       string
	ActivityCode string
}

// FiscalRecord is one persisted reporting month. Costs are stored as a
// JSON document keyed by cost category.
type FiscalRecord struct {
	ID        string
	CompanyID string
	Period    string
	Revenue   string
	Payroll   string
	TaxesPaid string
	Regime    string
	CostsJSON string
}

// AnalysisRun is the persisted summary of one detector invocation, kept
// for dashboarding.
type AnalysisRun struct {
	ID               string
	CompanyID        string
	TotalSavings     string
	OpportunityCount int
	PeriodRange      string
	CreatedAt        time.Time
}
