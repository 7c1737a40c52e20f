package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/open-solucoes/gtia/pkg/models/domain"
	"github.com/open-solucoes/gtia/pkg/models/store"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveCompany upserts by CNPJ and returns the stored company id, which is
// stable across re-uploads of the same client.
func (s *Store) SaveCompany(ctx context.Context, company store.Company) (string, error) {
	id := company.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO companies (id, cnpj, name, regime, activity_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cnpj) DO UPDATE
		SET name = EXCLUDED.name, regime = EXCLUDED.regime,
		    activity_code = EXCLUDED.activity_code, updated_at = NOW()
		RETURNING id`

	var stored string
	err := s.db.QueryRowContext(ctx, query,
		id, company.CNPJ, company.Name, company.Regime, company.ActivityCode,
	).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("save company %s: %w", company.CNPJ, err)
	}
	return stored, nil
}

// SaveFiscalPeriods appends the uploaded history rows for a company.
// Duplicate periods are not rejected; re-analysis of revised data is a
// normal workflow.
func (s *Store) SaveFiscalPeriods(ctx context.Context, companyID string, periods []domain.FiscalPeriod) error {
	query := `
		INSERT INTO fiscal_data (id, company_id, period, revenue, payroll, taxes_paid, regime, costs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, p := range periods {
		costs, err := costsJSON(p.Costs)
		if err != nil {
			return fmt.Errorf("encode costs for period %s: %w", p.Period, err)
		}
		_, err = s.db.ExecContext(ctx, query,
			uuid.NewString(), companyID, p.Period,
			p.Revenue.StringFixed(2), p.Payroll.StringFixed(2), p.PaidAmount.StringFixed(2),
			p.PaidRegime.String(), costs,
		)
		if err != nil {
			return fmt.Errorf("save fiscal period %s: %w", p.Period, err)
		}
	}
	return nil
}

// SaveAnalysis records the run summary used by the dashboard.
func (s *Store) SaveAnalysis(ctx context.Context, companyID string, result domain.AnalysisResult) (string, error) {
	id := uuid.NewString()
	query := `
		INSERT INTO analysis_runs (id, company_id, total_savings, opportunity_count, period_range)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		id, companyID, result.TotalSavings.StringFixed(2),
		len(result.Opportunities), result.PeriodRange,
	)
	if err != nil {
		return "", fmt.Errorf("save analysis run: %w", err)
	}
	return id, nil
}

// GetFiscalPeriods returns a company's stored history in upload order.
func (s *Store) GetFiscalPeriods(ctx context.Context, companyID string) ([]domain.FiscalPeriod, error) {
	query := `
		SELECT period, revenue, payroll, taxes_paid, regime, costs
		FROM fiscal_data
		WHERE company_id = $1
		ORDER BY created_at, period`

	rows, err := s.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("load fiscal periods: %w", err)
	}
	defer rows.Close()

	var periods []domain.FiscalPeriod
	for rows.Next() {
		var rec store.FiscalRecord
		if err := rows.Scan(&rec.Period, &rec.Revenue, &rec.Payroll, &rec.TaxesPaid, &rec.Regime, &rec.CostsJSON); err != nil {
			return nil, fmt.Errorf("scan fiscal period: %w", err)
		}
		periods = append(periods, mapRecordToDomain(rec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fiscal periods: %w", err)
	}
	return periods, nil
}

func costsJSON(costs domain.Costs) (string, error) {
	doc := make(map[string]string)
	if costs.Breakdown != nil {
		for category, value := range costs.Breakdown {
			doc[string(category)] = value.StringFixed(2)
		}
	} else if !costs.Aggregate.IsZero() {
		doc["total"] = costs.Aggregate.StringFixed(2)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func parseStored(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

func mapRecordToDomain(rec store.FiscalRecord) domain.FiscalPeriod {
	period := domain.FiscalPeriod{
		Period:     rec.Period,
		Revenue:    parseStored(rec.Revenue),
		Payroll:    parseStored(rec.Payroll),
		PaidAmount: parseStored(rec.TaxesPaid),
		PaidRegime: domain.ParseRegime(rec.Regime),
	}

	var doc map[string]string
	if err := json.Unmarshal([]byte(rec.CostsJSON), &doc); err != nil || len(doc) == 0 {
		return period
	}
	if total, ok := doc["total"]; ok && len(doc) == 1 {
		period.Costs = domain.Costs{Aggregate: parseStored(total)}
		return period
	}
	breakdown := domain.CostBreakdown{}
	for category, value := range doc {
		breakdown[domain.CostCategory(category)] = parseStored(value)
	}
	period.Costs = domain.Costs{Breakdown: breakdown}
	return period
}
