package tax

import (
	"github.com/shopspring/decimal"

	"github.com/open-solucoes/gtia/pkg/models/domain"
)

// Withholding rates applied when taking services from third parties.
var (
	// CSRF bundles PIS (0.65%) + COFINS (3.0%) + CSLL (1.0%).
	csrfRate = decimal.RequireFromString("0.0465")
	// Collection is waived when the computed CSRF stays under R$ 10.
	csrfWaiverFloor = decimal.RequireFromString("10.00")
	// INSS on labor assignment, Lei 8.212/91.
	inssRetentionRate = decimal.RequireFromString("0.11")
	// IRRF on professional services.
	irrfServiceRate = decimal.RequireFromString("0.015")
)

// RetentionsOnInvoice computes the mandatory withholdings on a single
// service invoice: the entry diagnostic for taking services from a given
// provider. The provider regime arrives as a free-form label and is
// normalized here; Simples Nacional providers are exempt from CSRF and
// IRRF withholding. cityISSRate is in percent.
//
// This is independent of the regime simulator and callable on its own.
func (e *Engine) RetentionsOnInvoice(serviceValue decimal.Decimal, providerRegime string, cityISSRate decimal.Decimal) domain.RetentionStatement {
	stmt := domain.RetentionStatement{
		BaseValue:  serviceValue,
		Retentions: make(map[string]decimal.Decimal, 4),
	}

	if domain.ParseRegime(providerRegime) == domain.RegimeSimplesNacional {
		stmt.Retentions[domain.RetentionCSRF] = decimal.Zero
		stmt.Retentions[domain.RetentionIRRF] = decimal.Zero
		stmt.Warnings = append(stmt.Warnings,
			"Prestador optante do Simples Nacional: retenção de IRRF/CSRF dispensada conforme IN RFB.")
	} else {
		csrf := domain.FinalizeAmount(serviceValue.Mul(csrfRate))
		if csrf.LessThan(csrfWaiverFloor) {
			stmt.Retentions[domain.RetentionCSRF] = decimal.Zero
			stmt.Warnings = append(stmt.Warnings,
				"Valor de CSRF abaixo de R$ 10,00: retenção dispensada.")
		} else {
			stmt.Retentions[domain.RetentionCSRF] = csrf
		}
		stmt.Retentions[domain.RetentionIRRF] = domain.FinalizeAmount(serviceValue.Mul(irrfServiceRate))
	}

	stmt.Retentions[domain.RetentionINSS] = domain.FinalizeAmount(serviceValue.Mul(inssRetentionRate))
	stmt.Retentions[domain.RetentionISS] = e.ISSAt(serviceValue, cityISSRate)

	total := decimal.Zero
	for _, v := range stmt.Retentions {
		total = total.Add(v)
	}
	stmt.TotalLiquid = serviceValue.Sub(total)

	return stmt
}
