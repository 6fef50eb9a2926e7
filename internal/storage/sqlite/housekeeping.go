package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/stayledger/internal/models"
)

const cleaningColumns = `id, unit_id, city, checkout_date, cleaning_type, status, booking_id,
	o2_collected_fee, cleaning_cost, created_at`

// FindCleaning looks a placeholder up by its natural key.
func (q *queries) FindCleaning(ctx context.Context, unitID int64, checkoutDate, cleaningType string) (*models.HKCleaning, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+cleaningColumns+" FROM hk_cleanings WHERE unit_id = ? AND checkout_date = ? AND cleaning_type = ?",
		unitID, checkoutDate, cleaningType,
	)
	c, err := scanCleaning(row)
	if err == sql.ErrNoRows {
		return nil, notFound("cleaning", fmt.Sprintf("%d/%s/%s", unitID, checkoutDate, cleaningType))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cleaning: %w", err)
	}
	return c, nil
}

// FindCleaningByBooking returns the most recent placeholder linked to a booking.
func (q *queries) FindCleaningByBooking(ctx context.Context, bookingID int64) (*models.HKCleaning, error) {
	row := q.q.QueryRowContext(ctx,
		"SELECT "+cleaningColumns+" FROM hk_cleanings WHERE booking_id = ? ORDER BY created_at DESC LIMIT 1",
		bookingID,
	)
	c, err := scanCleaning(row)
	if err == sql.ErrNoRows {
		return nil, notFound("cleaning for booking", bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cleaning: %w", err)
	}
	return c, nil
}

// CreateCleaning inserts a placeholder. A row with the same natural key is left untouched.
func (q *queries) CreateCleaning(ctx context.Context, c *models.HKCleaning) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	_, err := q.q.ExecContext(ctx,
		"INSERT INTO hk_cleanings ("+cleaningColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(unit_id, checkout_date, cleaning_type) DO NOTHING`,
		c.ID, c.UnitID, c.City, c.CheckoutDate, c.CleaningType, c.Status, c.BookingID,
		c.O2CollectedFee, c.CleaningCost, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cleaning: %w", err)
	}
	return nil
}

// UpdateCleaning overwrites the mutable columns of a placeholder.
func (q *queries) UpdateCleaning(ctx context.Context, c *models.HKCleaning) error {
	res, err := q.q.ExecContext(ctx,
		`UPDATE hk_cleanings SET city = ?, checkout_date = ?, status = ?, booking_id = ?,
			o2_collected_fee = ?, cleaning_cost = ?
		 WHERE id = ?`,
		c.City, c.CheckoutDate, c.Status, c.BookingID, c.O2CollectedFee, c.CleaningCost, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cleaning: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return notFound("cleaning", c.ID)
	}
	return nil
}

// FindActiveRate returns the latest-starting rate of (unit, city) covering date.
func (q *queries) FindActiveRate(ctx context.Context, unitID int64, city, date string) (*models.CleaningRate, error) {
	r := &models.CleaningRate{}
	var effectiveTo sql.NullString
	err := q.q.QueryRowContext(ctx,
		`SELECT id, unit_id, city, amount, effective_from, effective_to, notes
		 FROM hk_unit_cleaning_rates
		 WHERE unit_id = ? AND city = ? AND effective_from <= ?
		   AND (effective_to IS NULL OR effective_to >= ?)
		 ORDER BY effective_from DESC, id DESC LIMIT 1`,
		unitID, city, date, date,
	).Scan(&r.ID, &r.UnitID, &r.City, &r.Amount, &r.EffectiveFrom, &effectiveTo, &r.Notes)
	if err == sql.ErrNoRows {
		return nil, notFound("cleaning rate", fmt.Sprintf("%d/%s/%s", unitID, city, date))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cleaning rate: %w", err)
	}
	r.EffectiveTo = effectiveTo.String
	return r, nil
}

// CloseOpenRates ends every open rate of (unit, city) on endDate.
func (q *queries) CloseOpenRates(ctx context.Context, unitID int64, city, endDate string) (int64, error) {
	res, err := q.q.ExecContext(ctx,
		`UPDATE hk_unit_cleaning_rates SET effective_to = ?
		 WHERE unit_id = ? AND city = ? AND effective_to IS NULL`,
		endDate, unitID, city,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to close cleaning rates: %w", err)
	}
	return res.RowsAffected()
}

// CreateRate inserts a cleaning rate and assigns its ID.
func (q *queries) CreateRate(ctx context.Context, r *models.CleaningRate) error {
	var effectiveTo any
	if r.EffectiveTo != "" {
		effectiveTo = r.EffectiveTo
	}
	res, err := q.q.ExecContext(ctx,
		`INSERT INTO hk_unit_cleaning_rates (unit_id, city, amount, effective_from, effective_to, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.UnitID, r.City, r.Amount, r.EffectiveFrom, effectiveTo, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cleaning rate: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read cleaning rate id: %w", err)
	}
	r.ID = id
	return nil
}

func scanCleaning(row scanner) (*models.HKCleaning, error) {
	c := &models.HKCleaning{}
	err := row.Scan(
		&c.ID, &c.UnitID, &c.City, &c.CheckoutDate, &c.CleaningType, &c.Status, &c.BookingID,
		&c.O2CollectedFee, &c.CleaningCost, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
