// Package postgres persists companies, fiscal history and analysis runs.
// Persistence is best-effort by design: the analysis pipeline works the
// same with no database configured.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const companiesSchema = `
	CREATE TABLE IF NOT EXISTS companies (
		id UUID PRIMARY KEY,
		cnpj VARCHAR(18) NOT NULL UNIQUE,
		name TEXT NOT NULL,
		regime VARCHAR(32) NOT NULL,
		activity_code VARCHAR(16),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

const fiscalDataSchema = `
	CREATE TABLE IF NOT EXISTS fiscal_data (
		id UUID PRIMARY KEY,
		company_id UUID NOT NULL REFERENCES companies (id),
		period VARCHAR(16) NOT NULL,
		revenue NUMERIC(18,2) NOT NULL DEFAULT 0,
		payroll NUMERIC(18,2) NOT NULL DEFAULT 0,
		taxes_paid NUMERIC(18,2) NOT NULL DEFAULT 0,
		regime VARCHAR(32) NOT NULL,
		costs JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

const analysisRunsSchema = `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id UUID PRIMARY KEY,
		company_id UUID NOT NULL REFERENCES companies (id),
		total_savings NUMERIC(18,2) NOT NULL DEFAULT 0,
		opportunity_count INT NOT NULL DEFAULT 0,
		period_range TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

var bootQueries = []string{
	companiesSchema,
	fiscalDataSchema,
	analysisRunsSchema,
}

// Settings configure the database connection.
type Settings struct {
	DSN string
}

// NewDB opens the connection and bootstraps the schema.
func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	db, err := sql.Open("postgres", settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, query := range bootQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			db.Close()
			return nil, fmt.Errorf("bootstrap schema: %w", err)
		}
	}
	return db, nil
}
