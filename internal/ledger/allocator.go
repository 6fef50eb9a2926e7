package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/metrics"
	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/money"
	"github.com/mmynk/stayledger/internal/stay"
	"github.com/mmynk/stayledger/internal/storage"
)

// cancelledPayoutFloor is the payout at or below which a cancelled booking
// gets no slice.
var cancelledPayoutFloor = decimal.New(1, -5)

// SliceAllocator splits a booking's money fields across the calendar months
// its stay spans.
type SliceAllocator struct {
	rates RateResolver
}

// NewSliceAllocator creates a SliceAllocator. A nil resolver reads the rate table.
func NewSliceAllocator(rates RateResolver) *SliceAllocator {
	if rates == nil {
		rates = StoredRates{}
	}
	return &SliceAllocator{rates: rates}
}

// RefreshForBooking regenerates the month slices of one booking for the stay
// [checkIn, checkOut) and returns the number of rows written. A missing
// booking yields 0 rows and no error.
//
// Every write goes through q, including the housekeeping placeholder for
// the checkout date, so the caller's transaction decides whether they land.
// A failing placeholder never fails the refresh.
func (a *SliceAllocator) RefreshForBooking(ctx context.Context, q storage.Queries, bookingID int64, checkIn, checkOut time.Time) (int, error) {
	b, err := q.GetBooking(ctx, bookingID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Debug("Slice refresh skipped, booking not found", "booking_id", bookingID)
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if !b.Source.SliceEligible() {
		if _, err := q.DeleteSlices(ctx, bookingID); err != nil {
			return 0, err
		}
		return 0, nil
	}

	if b.Status.IsCancelled() {
		return a.refreshCancelled(ctx, q, b, checkIn)
	}

	n, err := a.refreshStay(ctx, q, b, checkIn, checkOut)
	if err != nil {
		return 0, err
	}

	if err := a.ensureCheckoutCleaning(ctx, q, b, checkOut); err != nil {
		metrics.SideEffectFailures.WithLabelValues("checkout_cleaning").Inc()
		slog.Error("Failed to ensure checkout cleaning",
			"booking_id", bookingID,
			"unit_id", b.UnitID,
			"error", err,
		)
	}
	return n, nil
}

// refreshCancelled keeps a single unprorated slice in the check-in month for
// cancelled bookings that still carry a payout.
func (a *SliceAllocator) refreshCancelled(ctx context.Context, q storage.Queries, b *models.Booking, checkIn time.Time) (int, error) {
	if _, err := q.DeleteSlices(ctx, b.ID); err != nil {
		return 0, err
	}

	payout := money.Or(b.Payout, decimal.Zero)
	if payout.LessThanOrEqual(cancelledPayoutFloor) {
		return 0, nil
	}

	tax := money.Or(b.TaxAmount, decimal.Zero)
	month := stay.MonthOf(checkIn)
	s := newSlice(b, month)
	s.RoomFeeInMonth = b.RoomFee
	s.PayoutInMonth = payout
	s.TaxInMonth = tax
	s.NetPayoutInMonth = payout.Sub(tax)
	s.CleaningFeeInMonth = decimal.Zero
	s.O2CommissionInMonth = money.Round(b.CommissionValue)
	s.OwnerPayoutInMonth = money.Round(b.ClientIncome)
	s.CommissionBaseInMonth = money.Or(b.CommissionBase, decimal.Zero)

	if err := q.InsertSlice(ctx, s); err != nil {
		return 0, err
	}
	metrics.SlicesWritten.Inc()
	return 1, nil
}

func (a *SliceAllocator) refreshStay(ctx context.Context, q storage.Queries, b *models.Booking, checkIn, checkOut time.Time) (int, error) {
	months := stay.MonthsTouched(checkIn, checkOut)
	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = m.Key()
	}
	// Every slice goes, including months an edited stay no longer touches.
	if _, err := q.DeleteSlices(ctx, b.ID); err != nil {
		return 0, err
	}

	nightsTotal := stay.Nights(checkIn, checkOut)
	if nightsTotal == 0 {
		return 0, nil
	}

	payout := money.Or(b.Payout, decimal.Zero)
	tax := money.Or(b.TaxAmount, decimal.Zero)
	base := money.Or(b.CommissionBase, decimal.Zero)
	cleaningFee := money.Or(b.CleaningFee, decimal.Zero)
	cleaningMonth := stay.CleaningMonth(checkOut)

	inserted := 0
	for _, m := range months {
		nights := stay.NightsInMonth(checkIn, checkOut, m)
		if nights <= 0 {
			continue
		}

		s := newSlice(b, m)
		s.NightsTotal = nightsTotal
		s.NightsInMonth = nights
		s.RoomFeeInMonth = b.RoomFee
		s.PayoutInMonth = money.Prorate(payout, nights, nightsTotal)
		s.TaxInMonth = money.Prorate(tax, nights, nightsTotal)
		s.NetPayoutInMonth = money.Prorate(b.NetPayout, nights, nightsTotal)
		s.CommissionBaseInMonth = money.Prorate(base, nights, nightsTotal)
		s.O2CommissionInMonth = money.Prorate(b.CommissionValue, nights, nightsTotal)
		s.OwnerPayoutInMonth = money.Prorate(b.ClientIncome, nights, nightsTotal)
		s.CleaningFeeInMonth = decimal.Zero
		if m == cleaningMonth {
			s.CleaningFeeInMonth = cleaningFee
		}

		if err := q.InsertSlice(ctx, s); err != nil {
			return inserted, err
		}
		inserted++
	}

	metrics.SlicesWritten.Add(float64(inserted))
	slog.Debug("Month slices refreshed",
		"booking_id", b.ID,
		"months", keys,
		"inserted", inserted,
	)
	return inserted, nil
}

// ensureCheckoutCleaning stages a pending checkout cleaning for the booking's
// checkout date unless one already exists for the unit on that date. Owner
// stays carry their own owner cleaning; blocks and holds have no guest.
func (a *SliceAllocator) ensureCheckoutCleaning(ctx context.Context, q storage.Queries, b *models.Booking, checkOut time.Time) error {
	if checkOut.IsZero() {
		return nil
	}
	if b.GuestType.Is(models.GuestOwner) || b.GuestType.Is(models.GuestBlock) || b.GuestType.Is(models.GuestHold) {
		return nil
	}
	date := stay.DateKey(checkOut)

	_, err := q.FindCleaning(ctx, b.UnitID, date, models.CleaningTypeCheckout)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return &SideEffectError{Op: "find checkout cleaning", Err: err}
	}

	cost, err := a.rates.ResolveAmount(ctx, q, b.UnitID, b.City, date)
	if err != nil {
		return &SideEffectError{Op: "resolve cleaning rate", Err: err}
	}

	cleaning := &models.HKCleaning{
		UnitID:         b.UnitID,
		City:           b.City,
		CheckoutDate:   date,
		CleaningType:   models.CleaningTypeCheckout,
		Status:         models.CleaningPending,
		BookingID:      b.ID,
		O2CollectedFee: b.CleaningFee,
		CleaningCost:   cost,
	}
	if err := q.CreateCleaning(ctx, cleaning); err != nil {
		return &SideEffectError{Op: "create checkout cleaning", Err: err}
	}
	slog.Info("Checkout cleaning staged",
		"booking_id", b.ID,
		"unit_id", b.UnitID,
		"checkout_date", date,
		"cleaning_cost", cost,
	)
	return nil
}

func newSlice(b *models.Booking, m stay.Month) *models.MonthSlice {
	return &models.MonthSlice{
		BookingID:     b.ID,
		UnitID:        b.UnitID,
		City:          b.City,
		Source:        b.Source,
		PaymentMethod: b.PaymentMethod,
		GuestType:     b.GuestType,
		YearMonth:     m.Key(),
		MonthStart:    m.Start(),
		MonthEnd:      m.End(),
	}
}

