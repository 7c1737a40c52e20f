package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/open-solucoes/gtia/pkg/models/domain"
)

type TableConfig struct {
	TypeWidth        int
	PeriodWidth      int
	ValueWidth       int
	RiskWidth        int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		TypeWidth:        18,
		PeriodWidth:      9,
		ValueWidth:       16,
		RiskWidth:        7,
		DescriptionWidth: 60,
	}
}

// Reporter renders simulation and analysis results as fixed-width text
// tables with Brazilian currency formatting.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

// FormatBRL renders an amount in the Brazilian convention, e.g.
// "R$ 1.234.567,89".
func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	integer, cents := parts[0], parts[1]

	var grouped []string
	for len(integer) > 3 {
		grouped = append([]string{integer[len(integer)-3:]}, grouped...)
		integer = integer[:len(integer)-3]
	}
	grouped = append([]string{integer}, grouped...)

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("R$ %s%s,%s", sign, strings.Join(grouped, "."), cents)
}

func (c *Reporter) funcMap() template.FuncMap {
	return template.FuncMap{
		"brl": FormatBRL,
		"formatRow": func(typ, period, value, risk, desc string) string {
			return fmt.Sprintf("| %-*s | %-*s | %*s | %-*s | %-*s |",
				c.config.TypeWidth, typ,
				c.config.PeriodWidth, period,
				c.config.ValueWidth, value,
				c.config.RiskWidth, risk,
				c.config.DescriptionWidth, truncate(desc, c.config.DescriptionWidth))
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.TypeWidth+2),
				strings.Repeat("-", c.config.PeriodWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.RiskWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-3]) + "..."
}

// HandleSimulation prints the per-regime totals and the recommendation.
func (c *Reporter) HandleSimulation(sim *domain.RegimeSimulation) error {
	tmpl := `
=== Simulação de Regimes ===
{{range .Regimes}}
{{.Name}}: {{brl .Total}}{{end}}

Regime Recomendado: {{.Recommendation}}
Economia Potencial: {{brl .Savings}}
{{if .HasCredits}}Créditos Identificados: {{brl .Credits}}
{{end}}`

	data := struct {
		Regimes []struct {
			Name  string
			Total decimal.Decimal
		}
		Recommendation string
		Savings        decimal.Decimal
		Credits        decimal.Decimal
		HasCredits     bool
	}{
		Recommendation: sim.Recommendation.String(),
		Savings:        sim.Savings,
		Credits:        sim.CreditsFound,
		HasCredits:     sim.CreditsFound.IsPositive(),
	}
	for _, regime := range domain.ComparedRegimes {
		data.Regimes = append(data.Regimes, struct {
			Name  string
			Total decimal.Decimal
		}{Name: regime.String(), Total: sim.Totals[regime]})
	}

	t, err := template.New("simulation").Funcs(c.funcMap()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, data)
}

// HandleRetentions prints the withholding statement for one invoice.
func (c *Reporter) HandleRetentions(stmt *domain.RetentionStatement) error {
	tmpl := `
=== Retenções na Nota Fiscal ===
Valor do Serviço: {{brl .BaseValue}}
{{range .Lines}}
{{.Name}}: {{brl .Value}}{{end}}

Valor Líquido: {{brl .TotalLiquid}}
{{range .Warnings}}
Aviso: {{.}}{{end}}
`

	data := struct {
		BaseValue decimal.Decimal
		Lines     []struct {
			Name  string
			Value decimal.Decimal
		}
		TotalLiquid decimal.Decimal
		Warnings    []string
	}{
		BaseValue:   stmt.BaseValue,
		TotalLiquid: stmt.TotalLiquid,
		Warnings:    stmt.Warnings,
	}
	for _, name := range []string{domain.RetentionCSRF, domain.RetentionIRRF, domain.RetentionINSS, domain.RetentionISS} {
		if value, ok := stmt.Retentions[name]; ok {
			data.Lines = append(data.Lines, struct {
				Name  string
				Value decimal.Decimal
			}{Name: name, Value: value})
		}
	}

	t, err := template.New("retentions").Funcs(c.funcMap()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, data)
}

// HandleAnalysis prints the opportunity table and the regime comparison.
func (c *Reporter) HandleAnalysis(result *domain.AnalysisResult) error {
	tmpl := `
=== Análise de Oportunidades ({{.PeriodRange}}) ===

Comparativo de Regimes:
{{range .Regimes}}
{{.Name}}: {{brl .Total}}{{end}}

{{if .Opportunities}}{{separator}}
{{formatRow "Tipo" "Período" "Valor" "Risco" "Descrição"}}
{{separator}}
{{range .Opportunities}}{{formatRow .Type .Period .Value .Risk .Description}}
{{end}}{{separator}}
{{else}}Nenhuma oportunidade identificada.
{{end}}
Economia Total Estimada: {{brl .TotalSavings}}
`

	type row struct {
		Type        string
		Period      string
		Value       string
		Risk        string
		Description string
	}
	data := struct {
		PeriodRange string
		Regimes     []struct {
			Name  string
			Total decimal.Decimal
		}
		Opportunities []row
		TotalSavings  decimal.Decimal
	}{
		PeriodRange:  result.PeriodRange,
		TotalSavings: result.TotalSavings,
	}
	for _, regime := range domain.ComparedRegimes {
		data.Regimes = append(data.Regimes, struct {
			Name  string
			Total decimal.Decimal
		}{Name: regime.String(), Total: result.RegimeComparison[regime]})
	}
	for _, opp := range result.Opportunities {
		data.Opportunities = append(data.Opportunities, row{
			Type:        string(opp.Type),
			Period:      opp.Period,
			Value:       FormatBRL(opp.Value),
			Risk:        string(opp.Risk),
			Description: opp.Description,
		})
	}

	t, err := template.New("analysis").Funcs(c.funcMap()).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	return t.Execute(c.writer, data)
}
