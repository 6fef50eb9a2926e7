package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/stayledger/internal/models"
)

const sliceColumns = `booking_id, unit_id, city, source, payment_method, guest_type,
	year_month, month_start, month_end, nights_total, nights_in_month,
	room_fee_in_month, payout_in_month, tax_in_month, net_payout_in_month,
	cleaning_fee_in_month, o2_commission_in_month, owner_payout_in_month, commission_base_in_month`

// DeleteSlices removes every month slice of a booking.
func (q *queries) DeleteSlices(ctx context.Context, bookingID int64) (int64, error) {
	res, err := q.q.ExecContext(ctx, "DELETE FROM booking_month_slices WHERE booking_id = ?", bookingID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete month slices: %w", err)
	}
	return res.RowsAffected()
}

// InsertSlice stores one month slice.
func (q *queries) InsertSlice(ctx context.Context, s *models.MonthSlice) error {
	_, err := q.q.ExecContext(ctx,
		"INSERT INTO booking_month_slices ("+sliceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.BookingID, s.UnitID, s.City, string(s.Source), string(s.PaymentMethod), string(s.GuestType),
		s.YearMonth, s.MonthStart.Format(time.DateOnly), s.MonthEnd.Format(time.DateOnly),
		s.NightsTotal, s.NightsInMonth,
		s.RoomFeeInMonth, s.PayoutInMonth, s.TaxInMonth, s.NetPayoutInMonth,
		s.CleaningFeeInMonth, s.O2CommissionInMonth, s.OwnerPayoutInMonth, s.CommissionBaseInMonth,
	)
	if err != nil {
		return fmt.Errorf("failed to insert month slice: %w", err)
	}
	return nil
}

// ListSlicesByBooking returns a booking's slices in month order.
func (q *queries) ListSlicesByBooking(ctx context.Context, bookingID int64) ([]*models.MonthSlice, error) {
	return q.querySlices(ctx,
		"SELECT "+sliceColumns+" FROM booking_month_slices WHERE booking_id = ? ORDER BY year_month",
		bookingID,
	)
}

// ListSlicesByMonth returns every slice of a month.
func (q *queries) ListSlicesByMonth(ctx context.Context, yearMonth string) ([]*models.MonthSlice, error) {
	return q.querySlices(ctx,
		"SELECT "+sliceColumns+" FROM booking_month_slices WHERE year_month = ? ORDER BY unit_id, booking_id",
		yearMonth,
	)
}

// ListSlicesByUnitMonth returns the slices of one unit in one month.
func (q *queries) ListSlicesByUnitMonth(ctx context.Context, unitID int64, yearMonth string) ([]*models.MonthSlice, error) {
	return q.querySlices(ctx,
		"SELECT "+sliceColumns+" FROM booking_month_slices WHERE unit_id = ? AND year_month = ? ORDER BY booking_id",
		unitID, yearMonth,
	)
}

func (q *queries) querySlices(ctx context.Context, query string, args ...any) ([]*models.MonthSlice, error) {
	rows, err := q.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query month slices: %w", err)
	}
	defer rows.Close()

	var slices []*models.MonthSlice
	for rows.Next() {
		s := &models.MonthSlice{}
		var source, method, guestType, monthStart, monthEnd string
		err := rows.Scan(
			&s.BookingID, &s.UnitID, &s.City, &source, &method, &guestType,
			&s.YearMonth, &monthStart, &monthEnd, &s.NightsTotal, &s.NightsInMonth,
			&s.RoomFeeInMonth, &s.PayoutInMonth, &s.TaxInMonth, &s.NetPayoutInMonth,
			&s.CleaningFeeInMonth, &s.O2CommissionInMonth, &s.OwnerPayoutInMonth, &s.CommissionBaseInMonth,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan month slice: %w", err)
		}
		s.Source = models.Source(source)
		s.PaymentMethod = models.PaymentMethod(method)
		s.GuestType = models.GuestType(guestType)
		if s.MonthStart, err = time.Parse(time.DateOnly, monthStart); err != nil {
			return nil, fmt.Errorf("failed to parse month start: %w", err)
		}
		if s.MonthEnd, err = time.Parse(time.DateOnly, monthEnd); err != nil {
			return nil, fmt.Errorf("failed to parse month end: %w", err)
		}
		slices = append(slices, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate month slices: %w", err)
	}
	return slices, nil
}
