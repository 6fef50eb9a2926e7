package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/models"
)

// UnitInput is a unit profile as entered by the office.
type UnitInput struct {
	ID          int64               `validate:"required,gt=0"`
	Name        string              `validate:"required,max=200"`
	City        string              `validate:"required,max=100"`
	PaymentType models.PaymentType  `validate:"required,oneof=Owners2 Client"`
	CleaningFee decimal.NullDecimal `validate:"omitempty,gte=0"`
}

// FinancialConfigInput is a financial configuration as entered by the office.
type FinancialConfigInput struct {
	Code                        string              `validate:"required,max=64"`
	DefaultTaxPercentage        decimal.NullDecimal `validate:"omitempty,gte=0,lte=100"`
	DefaultCommissionPercentage decimal.NullDecimal `validate:"omitempty,gte=0,lte=100"`
}

// SaveUnit creates or replaces a unit profile.
func (m *Manager) SaveUnit(ctx context.Context, in UnitInput) (*models.Unit, error) {
	if err := validateInput(m.validate, in); err != nil {
		return nil, err
	}
	unit := &models.Unit{
		ID:          in.ID,
		Name:        strings.TrimSpace(in.Name),
		City:        strings.TrimSpace(in.City),
		PaymentType: in.PaymentType,
		CleaningFee: in.CleaningFee,
	}
	if err := m.store.CreateUnit(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to save unit: %w", err)
	}
	slog.Info("Unit saved", "unit_id", unit.ID, "city", unit.City, "payment_type", unit.PaymentType)
	return unit, nil
}

// SaveFinancialConfig creates or replaces a financial configuration.
func (m *Manager) SaveFinancialConfig(ctx context.Context, in FinancialConfigInput) (*models.FinancialConfig, error) {
	if err := validateInput(m.validate, in); err != nil {
		return nil, err
	}
	cfg := &models.FinancialConfig{
		Code:                        strings.TrimSpace(in.Code),
		DefaultTaxPercentage:        in.DefaultTaxPercentage,
		DefaultCommissionPercentage: in.DefaultCommissionPercentage,
	}
	if err := m.store.UpsertFinancialConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to save financial config: %w", err)
	}
	slog.Info("Financial config saved",
		"code", cfg.Code,
		"tax_percent", cfg.DefaultTaxPercentage,
		"commission_percent", cfg.DefaultCommissionPercentage,
	)
	return cfg, nil
}
