package domain

import "github.com/shopspring/decimal"

// RegimeSimulation compares the tax burden of one period under the three
// regimes. Totals always carries exactly the ComparedRegimes keys, each a
// finalized 2-decimal amount.
type RegimeSimulation struct {
	Totals         map[Regime]decimal.Decimal
	Recommendation Regime
	Savings        decimal.Decimal
	// CreditsFound is the PIS/COFINS input credit computed under the
	// non-cumulative regime, zero when no cost breakdown was supplied.
	CreditsFound decimal.Decimal
}

// Retention names used in a RetentionStatement.
const (
	RetentionCSRF = "CSRF"
	RetentionIRRF = "IRRF"
	RetentionINSS = "INSS"
	RetentionISS  = "ISS"
)

// RetentionStatement is the invoice level withholding diagnostic produced
// by the retention calculator. It is independent of the regime simulator.
type RetentionStatement struct {
	BaseValue   decimal.Decimal
	Retentions  map[string]decimal.Decimal
	TotalLiquid decimal.Decimal
	Warnings    []string
}
