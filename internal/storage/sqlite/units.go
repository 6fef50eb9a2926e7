package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/stayledger/internal/models"
)

// CreateUnit inserts or replaces a unit profile.
func (q *queries) CreateUnit(ctx context.Context, unit *models.Unit) error {
	_, err := q.q.ExecContext(ctx,
		`INSERT INTO units (id, name, city, payment_type, cleaning_fee) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, city = excluded.city,
		 payment_type = excluded.payment_type, cleaning_fee = excluded.cleaning_fee`,
		unit.ID, unit.Name, unit.City, string(unit.PaymentType), unit.CleaningFee,
	)
	if err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}
	return nil
}

// GetUnit retrieves a unit by ID.
func (q *queries) GetUnit(ctx context.Context, unitID int64) (*models.Unit, error) {
	unit := &models.Unit{}
	var paymentType string
	err := q.q.QueryRowContext(ctx,
		"SELECT id, name, city, payment_type, cleaning_fee FROM units WHERE id = ?",
		unitID,
	).Scan(&unit.ID, &unit.Name, &unit.City, &paymentType, &unit.CleaningFee)
	if err == sql.ErrNoRows {
		return nil, notFound("unit", unitID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	unit.PaymentType = models.PaymentType(paymentType)
	return unit, nil
}
