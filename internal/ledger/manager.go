// Package ledger runs the booking financial pipeline: consolidation, overlap
// checks, persistence and month slice allocation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/metrics"
	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/stay"
	"github.com/mmynk/stayledger/internal/storage"
)

// Manager writes bookings through the pipeline
// consolidate → overlap check → persist + enqueue refresh → refresh slices.
// The first three steps share one transaction.
type Manager struct {
	store        storage.Store
	consolidator *Consolidator
	allocator    *SliceAllocator
	worker       *RefreshWorker
	rates        RateResolver
	clock        Clock
	validate     *validator.Validate
}

type settings struct {
	loc          *time.Location
	clock        Clock
	policy       ConsolidationPolicy
	overrideCode string
	rates        RateResolver
}

// Option configures a Manager.
type Option func(*settings)

// WithLocation sets the hotel time zone used for check-in/check-out normalization.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) { s.loc = loc }
}

// WithClock replaces the wall clock used for status derivation.
func WithClock(c Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithPolicy selects the consolidation policy.
func WithPolicy(p ConsolidationPolicy) Option {
	return func(s *settings) { s.policy = p }
}

// WithClientCardConfigCode overrides the configuration code applied to
// card-paid private stays in client units.
func WithClientCardConfigCode(code string) Option {
	return func(s *settings) { s.overrideCode = code }
}

// WithRateResolver replaces the housekeeping rate lookup.
func WithRateResolver(r RateResolver) Option {
	return func(s *settings) { s.rates = r }
}

// NewManager creates a Manager over store.
func NewManager(store storage.Store, opts ...Option) *Manager {
	s := settings{clock: SystemClock}
	for _, opt := range opts {
		opt(&s)
	}
	if s.rates == nil {
		s.rates = StoredRates{}
	}

	allocator := NewSliceAllocator(s.rates)
	return &Manager{
		store:        store,
		consolidator: NewConsolidator(s.loc, s.clock, s.policy, s.overrideCode),
		allocator:    allocator,
		worker:       NewRefreshWorker(store, allocator, s.clock),
		rates:        s.rates,
		clock:        s.clock,
		validate:     newValidator(),
	}
}

// Worker returns the refresh worker draining this manager's outbox.
func (m *Manager) Worker() *RefreshWorker {
	return m.worker
}

// CreatePrivateReservation books a direct reservation. Owner guests are
// booked as owner stays.
func (m *Manager) CreatePrivateReservation(ctx context.Context, in PrivateReservationInput) (*models.Booking, error) {
	if in.GuestType.Is(models.GuestOwner) {
		return m.CreateOwnerStay(ctx, OwnerStayInput{
			UnitID:   in.UnitID,
			Guests:   in.Guests,
			CheckIn:  in.CheckIn,
			CheckOut: in.CheckOut,
			Notes:    in.Notes,
		})
	}
	if err := validateInput(m.validate, in); err != nil {
		return nil, err
	}
	return m.save(ctx, privateReservationBooking(in), "create_private", nil)
}

// CreateOwnerStay books an owner stay and stages its owner cleaning.
func (m *Manager) CreateOwnerStay(ctx context.Context, in OwnerStayInput) (*models.Booking, error) {
	if err := validateInput(m.validate, in); err != nil {
		return nil, err
	}
	return m.save(ctx, ownerStayBooking(in), "create_owner", m.ensureOwnerCleaning)
}

// CreateAirbnbBooking books a manually entered Airbnb reservation.
func (m *Manager) CreateAirbnbBooking(ctx context.Context, in AirbnbBookingInput) (*models.Booking, error) {
	if err := validateInput(m.validate, in); err != nil {
		return nil, err
	}
	return m.save(ctx, airbnbBooking(in), "create_airbnb", nil)
}

// UpdateBooking applies an edit and re-runs the pipeline.
func (m *Manager) UpdateBooking(ctx context.Context, bookingID int64, upd BookingUpdate) (*models.Booking, error) {
	if err := validateInput(m.validate, upd); err != nil {
		return nil, err
	}
	b, err := m.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	upd.apply(b)
	return m.save(ctx, b, "update", nil)
}

// CancelBooking marks a booking cancelled. residualPayout replaces the stored
// payout: a positive amount is what the guest forfeits and lands in a single
// slice for the check-in month, while an unset amount means nothing was
// retained and the payout becomes 0.
func (m *Manager) CancelBooking(ctx context.Context, bookingID int64, residualPayout decimal.NullDecimal) (*models.Booking, error) {
	if residualPayout.Valid && residualPayout.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: residual payout must not be negative", ErrInvalidInput)
	}
	b, err := m.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	b.Status = models.StatusCancelled
	b.Payout = residualPayout

	booking, err := m.save(ctx, b, "cancel", nil)
	if err != nil {
		return nil, err
	}
	m.cancelCleaning(ctx, booking)
	return booking, nil
}

// GetBooking returns a stored booking.
func (m *Manager) GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error) {
	return m.store.GetBooking(ctx, bookingID)
}

// RefreshMonthSlices rebuilds the slices of a booking from its stored stay.
func (m *Manager) RefreshMonthSlices(ctx context.Context, bookingID int64) (int, error) {
	var n int
	err := m.store.WithTx(ctx, func(q storage.Queries) error {
		b, err := q.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		n, err = m.allocator.RefreshForBooking(ctx, q, b.ID, b.CheckIn, b.CheckOut)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to refresh month slices: %w", err)
	}
	return n, nil
}

// ListMonthSlices returns the slices of a booking in month order.
func (m *Manager) ListMonthSlices(ctx context.Context, bookingID int64) ([]*models.MonthSlice, error) {
	return m.store.ListSlicesByBooking(ctx, bookingID)
}

// SetCleaningRate stores a housekeeping rate effective from rate.EffectiveFrom.
func (m *Manager) SetCleaningRate(ctx context.Context, rate *models.CleaningRate) error {
	return SetRate(ctx, m.store, rate)
}

// save runs the transactional part of the pipeline, then attempts the slice
// refresh right away. A failed refresh stays in the outbox for the worker.
func (m *Manager) save(ctx context.Context, b *models.Booking, op string, afterWrite func(context.Context, storage.Queries, *models.Booking)) (*models.Booking, error) {
	var job *models.SliceRefreshJob
	err := m.store.WithTx(ctx, func(q storage.Queries) error {
		if err := m.consolidator.Consolidate(ctx, q, b); err != nil {
			return err
		}
		// Dates are in hotel time now; a same-day stay has no night.
		if stay.Nights(b.CheckIn, b.CheckOut) <= 0 {
			return fmt.Errorf("%w: checkOut must be at least one night after checkIn", ErrInvalidInput)
		}
		if err := ValidateOverlap(ctx, q, b); err != nil {
			return err
		}

		now := m.clock.Now().Unix()
		b.LastUpdatedAt = now
		b.LastUpdatedVia = op
		if b.ID == 0 {
			b.CreatedAt = now
			if err := q.CreateBooking(ctx, b); err != nil {
				return err
			}
		} else if err := q.UpdateBooking(ctx, b); err != nil {
			return err
		}

		if afterWrite != nil {
			afterWrite(ctx, q, b)
		}

		job = &models.SliceRefreshJob{
			BookingID:     b.ID,
			CheckIn:       b.CheckIn,
			CheckOut:      b.CheckOut,
			NextAttemptAt: now,
			CreatedAt:     now,
		}
		return q.EnqueueSliceRefresh(ctx, job)
	})
	if err != nil {
		var conflict *ConflictError
		var cfgErr *ConfigurationError
		switch {
		case errors.As(err, &conflict):
			slog.Info("Booking rejected, stay overlaps", "unit_id", b.UnitID, "conflicts", conflict.BookingIDs)
		case errors.As(err, &cfgErr):
			slog.Warn("Booking rejected, configuration missing", "unit_id", b.UnitID, "error", err)
		}
		return nil, err
	}

	metrics.BookingsWritten.WithLabelValues(op).Inc()
	slog.Info("Booking saved",
		"op", op,
		"booking_id", b.ID,
		"unit_id", b.UnitID,
		"status", b.Status,
		"net_payout", b.NetPayout,
		"commission_value", b.CommissionValue,
	)

	if _, err := m.worker.Process(ctx, job); err != nil {
		slog.Warn("Slice refresh deferred to worker", "booking_id", b.ID, "job_id", job.ID, "error", err)
	}
	return b, nil
}

// ensureOwnerCleaning stages the owner cleaning of an owner stay. The fee
// collected is the unit's default cleaning fee since the stay itself charges
// nothing. Failures are logged and skipped.
func (m *Manager) ensureOwnerCleaning(ctx context.Context, q storage.Queries, b *models.Booking) {
	err := func() error {
		date := stay.DateKey(b.CheckOut)
		existing, err := q.FindCleaning(ctx, b.UnitID, date, models.CleaningTypeOwner)
		if err == nil {
			if existing.BookingID == 0 {
				existing.BookingID = b.ID
				return q.UpdateCleaning(ctx, existing)
			}
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		unit, err := q.GetUnit(ctx, b.UnitID)
		if err != nil {
			return err
		}
		cost, err := m.rates.ResolveAmount(ctx, q, b.UnitID, unit.City, date)
		if err != nil {
			return err
		}
		if !cost.Valid {
			cost = decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}
		}
		collected := unit.CleaningFee
		if !collected.Valid {
			collected = decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}
		}

		return q.CreateCleaning(ctx, &models.HKCleaning{
			UnitID:         b.UnitID,
			City:           unit.City,
			CheckoutDate:   date,
			CleaningType:   models.CleaningTypeOwner,
			Status:         models.CleaningPending,
			BookingID:      b.ID,
			O2CollectedFee: collected,
			CleaningCost:   cost,
		})
	}()
	if err != nil {
		metrics.SideEffectFailures.WithLabelValues("owner_cleaning").Inc()
		slog.Error("Failed to ensure owner cleaning",
			"booking_id", b.ID,
			"unit_id", b.UnitID,
			"error", &SideEffectError{Op: "ensure owner cleaning", Err: err},
		)
	}
}

// cancelCleaning marks the cleaning linked to a cancelled booking as
// cancelled unless housekeeping already did it.
func (m *Manager) cancelCleaning(ctx context.Context, b *models.Booking) {
	if err := syncCleaningCancelled(ctx, m.store, b.ID); err != nil {
		metrics.SideEffectFailures.WithLabelValues("cancel_cleaning").Inc()
		slog.Warn("Failed to cancel cleaning", "booking_id", b.ID, "error", err)
	}
}

func syncCleaningCancelled(ctx context.Context, q storage.HousekeepingStore, bookingID int64) error {
	c, err := q.FindCleaningByBooking(ctx, bookingID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if c.Status == models.CleaningDone || c.Status == models.CleaningCancelled {
		return nil
	}
	c.Status = models.CleaningCancelled
	return q.UpdateCleaning(ctx, c)
}
