package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/stayledger/internal/models"
)

// UpsertFinancialConfig inserts a configuration or replaces the one with the same code.
func (q *queries) UpsertFinancialConfig(ctx context.Context, cfg *models.FinancialConfig) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO financial_configs (code, default_tax_percentage, default_commission_percentage)
		 VALUES (?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
		 default_tax_percentage = excluded.default_tax_percentage,
		 default_commission_percentage = excluded.default_commission_percentage`,
		cfg.Code, cfg.DefaultTaxPercentage, cfg.DefaultCommissionPercentage,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert financial config: %w", err)
	}
	return nil
}

// GetFinancialConfig retrieves a configuration by code.
func (q *queries) GetFinancialConfig(ctx context.Context, code string) (*models.FinancialConfig, error) {
	cfg := &models.FinancialConfig{}
	err := q.q.QueryRowContext(ctx,
		"SELECT code, default_tax_percentage, default_commission_percentage FROM financial_configs WHERE code = ?",
		code,
	).Scan(&cfg.Code, &cfg.DefaultTaxPercentage, &cfg.DefaultCommissionPercentage)
	if err == sql.ErrNoRows {
		return nil, notFound("financial config", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get financial config: %w", err)
	}
	return cfg, nil
}
