// Package ingest parses fiscal history uploads. The accepted format is the
// CSV template distributed to clients: Brazilian Excel conventions,
// semicolon separated with a comma fallback, BOM tolerated, decimal commas
// tolerated in monetary cells.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/open-solucoes/gtia/pkg/models/domain"
)

// Template column headers, as shipped in the downloadable model file.
const (
	colPeriod     = "Periodo (MM/AAAA)"
	colRevenue    = "Faturamento Total"
	colPayroll    = "Custo Folha Pagamento"
	colPaidAmount = "Impostos Pagos"
	colRegime     = "Regime Tributario"
	colEnergy     = "Custo Energia"
	colInputs     = "Custo Insumos"
	colRent       = "Custo Aluguel"
	colMachinery  = "Custo Maquinas"
	colMarketing  = "Custo Marketing"
)

// Friendly header -> internal field. Matching is case-insensitive and
// ignores accents already absent from the template.
var columnAliases = map[string]string{
	colPeriod:     "periodo",
	colRevenue:    "faturamento",
	colPayroll:    "folha",
	colPaidAmount: "impostos_pagos",
	colRegime:     "regime_pagto",
	colEnergy:     "custo_energia",
	colInputs:     "custo_insumos",
	colRent:       "custo_aluguel",
	colMachinery:  "custo_maquinas",
	colMarketing:  "custo_marketing",
	// Already-internal names are accepted too, for programmatic uploads.
	"periodo":         "periodo",
	"faturamento":     "faturamento",
	"folha":           "folha",
	"impostos_pagos":  "impostos_pagos",
	"regime_pagto":    "regime_pagto",
	"custo_energia":   "custo_energia",
	"custo_insumos":   "custo_insumos",
	"custo_aluguel":   "custo_aluguel",
	"custo_maquinas":  "custo_maquinas",
	"custo_marketing": "custo_marketing",
}

var requiredColumns = []string{"periodo", "faturamento", "folha", "impostos_pagos"}

var costColumns = map[string]domain.CostCategory{
	"custo_energia":   domain.CostEnergy,
	"custo_insumos":   domain.CostDirectInputs,
	"custo_aluguel":   domain.CostBuildingRent,
	"custo_maquinas":  domain.CostMachinery,
	"custo_marketing": domain.CostOther,
}

// ErrMissingColumns reports an upload whose header lacks the minimum
// required fields under either separator.
var ErrMissingColumns = errors.New("csv: missing required columns")

// ParseHistory reads an uploaded CSV into fiscal periods, in row order.
// Rows with malformed numeric cells are not dropped: each bad cell
// defaults to zero so one broken row cannot sink the batch. defaultRegime
// is used when a row has no regime column or an empty cell.
func ParseHistory(r io.Reader, defaultRegime domain.Regime) ([]domain.FiscalPeriod, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("csv: read upload: %w", err)
	}

	rows, index, err := parseWithSeparators(string(content))
	if err != nil {
		return nil, err
	}

	periods := make([]domain.FiscalPeriod, 0, len(rows))
	for _, row := range rows {
		cell := func(field string) string {
			idx, ok := index[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		regime := defaultRegime
		if label := cell("regime_pagto"); label != "" {
			regime = domain.ParseRegime(label)
		}

		breakdown := domain.CostBreakdown{}
		for field, category := range costColumns {
			if _, ok := index[field]; ok {
				breakdown[category] = ParseAmount(cell(field))
			}
		}
		costs := domain.Costs{}
		if len(breakdown) > 0 {
			costs.Breakdown = breakdown
		}

		periods = append(periods, domain.FiscalPeriod{
			Period:     cell("periodo"),
			Revenue:    ParseAmount(cell("faturamento")),
			Payroll:    ParseAmount(cell("folha")),
			PaidAmount: ParseAmount(cell("impostos_pagos")),
			PaidRegime: regime,
			Costs:      costs,
		})
	}
	return periods, nil
}

// parseWithSeparators tries the BR-Excel semicolon first and falls back to
// a plain comma when the required columns don't resolve.
func parseWithSeparators(content string) ([][]string, map[string]int, error) {
	content = strings.TrimPrefix(content, "\uFEFF")

	var lastErr error
	for _, sep := range []rune{';', ','} {
		reader := csv.NewReader(strings.NewReader(content))
		reader.Comma = sep
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true

		records, err := reader.ReadAll()
		if err != nil {
			lastErr = err
			continue
		}
		if len(records) == 0 {
			continue
		}

		index := mapHeader(records[0])
		if hasRequiredColumns(index) {
			return records[1:], index, nil
		}
	}
	if lastErr != nil {
		return nil, nil, fmt.Errorf("csv: parse upload: %w", lastErr)
	}
	return nil, nil, fmt.Errorf("%w: need %s", ErrMissingColumns, strings.Join(requiredColumns, ", "))
}

func mapHeader(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		for alias, field := range columnAliases {
			if strings.EqualFold(name, alias) {
				index[field] = i
				break
			}
		}
	}
	return index
}

func hasRequiredColumns(index map[string]int) bool {
	for _, field := range requiredColumns {
		if _, ok := index[field]; !ok {
			return false
		}
	}
	return true
}

// ParseAmount converts a monetary cell to a decimal, tolerating currency
// prefixes, thousands separators and the decimal comma. Anything that
// still fails to parse defaults to zero; malformed cells never abort the
// upload.
func ParseAmount(cell string) decimal.Decimal {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero
	}

	if strings.Contains(s, ",") {
		// BR convention: dots group thousands, the comma is decimal.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	value, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// Template returns the downloadable CSV model, BOM-prefixed so Excel opens
// it as UTF-8, semicolon separated for the BR locale.
func Template() []byte {
	var b strings.Builder
	b.WriteString("\uFEFF")
	b.WriteString(strings.Join([]string{
		colPeriod, colRevenue, colPayroll, colPaidAmount, colRegime,
		colEnergy, colInputs, colRent, colMarketing,
	}, ";"))
	b.WriteString("\n01/2024;100000.00;20000.00;5000.00;LUCRO_PRESUMIDO;1000.00;30000.00;2000.00;500.00")
	b.WriteString("\n02/2024;120000.00;22000.00;6000.00;LUCRO_PRESUMIDO;1100.00;35000.00;2000.00;500.00")
	b.WriteString("\n")
	return []byte(b.String())
}
