package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/storage"
)

// RateResolver looks up the expected housekeeping cost of a cleaning.
type RateResolver interface {
	// ResolveAmount returns the rate active for (unitID, city) on date
	// (YYYY-MM-DD), or an unset value when there is none.
	ResolveAmount(ctx context.Context, q storage.HousekeepingStore, unitID int64, city, date string) (decimal.NullDecimal, error)
}

// StoredRates resolves amounts from the effective-dated rate table.
type StoredRates struct{}

// ResolveAmount implements RateResolver.
func (StoredRates) ResolveAmount(ctx context.Context, q storage.HousekeepingStore, unitID int64, city, date string) (decimal.NullDecimal, error) {
	rate, err := q.FindActiveRate(ctx, unitID, city, date)
	if errors.Is(err, storage.ErrNotFound) {
		return decimal.NullDecimal{}, nil
	}
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: rate.Amount, Valid: true}, nil
}

// SetRate makes rate the open rate of its (unit, city) from rate.EffectiveFrom.
// Open rates are closed the day before, in the same transaction.
func SetRate(ctx context.Context, store storage.Store, rate *models.CleaningRate) error {
	from, err := time.Parse(time.DateOnly, rate.EffectiveFrom)
	if err != nil {
		return fmt.Errorf("%w: effectiveFrom must be YYYY-MM-DD: %q", ErrInvalidInput, rate.EffectiveFrom)
	}
	if rate.UnitID <= 0 {
		return fmt.Errorf("%w: unitId is required", ErrInvalidInput)
	}
	if rate.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	rate.EffectiveTo = ""

	return store.WithTx(ctx, func(q storage.Queries) error {
		closeOn := from.AddDate(0, 0, -1).Format(time.DateOnly)
		closed, err := q.CloseOpenRates(ctx, rate.UnitID, rate.City, closeOn)
		if err != nil {
			return err
		}
		if err := q.CreateRate(ctx, rate); err != nil {
			return err
		}
		slog.Info("Cleaning rate set",
			"unit_id", rate.UnitID,
			"city", rate.City,
			"amount", rate.Amount,
			"effective_from", rate.EffectiveFrom,
			"closed", closed,
		)
		return nil
	})
}
