// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/stayledger/internal/models"
)

// ErrNotFound is returned (wrapped) when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// UnitStore reads and writes unit profiles.
type UnitStore interface {
	CreateUnit(ctx context.Context, unit *models.Unit) error
	GetUnit(ctx context.Context, unitID int64) (*models.Unit, error)
}

// ConfigStore reads and writes financial configurations.
type ConfigStore interface {
	UpsertFinancialConfig(ctx context.Context, cfg *models.FinancialConfig) error
	// GetFinancialConfig returns ErrNotFound for unknown codes.
	GetFinancialConfig(ctx context.Context, code string) (*models.FinancialConfig, error)
}

// BookingFilter narrows ListBookings. Zero values match everything.
type BookingFilter struct {
	UnitID           int64
	IncludeCancelled bool
}

// BookingStore reads and writes bookings.
type BookingStore interface {
	// CreateBooking inserts the booking and populates booking.ID.
	CreateBooking(ctx context.Context, booking *models.Booking) error
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, bookingID int64) (*models.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID int64, status models.Status) error

	// FindOverlappingBookings returns non-cancelled bookings of unitID whose
	// stay overlaps [checkIn, checkOut), excluding exact edge touches and excludeID.
	FindOverlappingBookings(ctx context.Context, unitID int64, checkIn, checkOut time.Time, excludeID int64) ([]*models.Booking, error)
}

// SliceStore reads and writes month slices.
type SliceStore interface {
	DeleteSlices(ctx context.Context, bookingID int64) (int64, error)
	InsertSlice(ctx context.Context, slice *models.MonthSlice) error
	ListSlicesByBooking(ctx context.Context, bookingID int64) ([]*models.MonthSlice, error)
	ListSlicesByMonth(ctx context.Context, yearMonth string) ([]*models.MonthSlice, error)
	ListSlicesByUnitMonth(ctx context.Context, unitID int64, yearMonth string) ([]*models.MonthSlice, error)
}

// HousekeepingStore reads and writes cleaning placeholders and rates.
type HousekeepingStore interface {
	FindCleaning(ctx context.Context, unitID int64, checkoutDate, cleaningType string) (*models.HKCleaning, error)
	FindCleaningByBooking(ctx context.Context, bookingID int64) (*models.HKCleaning, error)
	CreateCleaning(ctx context.Context, cleaning *models.HKCleaning) error
	UpdateCleaning(ctx context.Context, cleaning *models.HKCleaning) error

	// FindActiveRate returns the rate whose inclusive range covers date (YYYY-MM-DD).
	FindActiveRate(ctx context.Context, unitID int64, city, date string) (*models.CleaningRate, error)
	// CloseOpenRates ends every open rate of (unit, city) on endDate.
	CloseOpenRates(ctx context.Context, unitID int64, city, endDate string) (int64, error)
	CreateRate(ctx context.Context, rate *models.CleaningRate) error
}

// RefreshQueue is the outbox of pending month-slice rebuilds.
type RefreshQueue interface {
	EnqueueSliceRefresh(ctx context.Context, job *models.SliceRefreshJob) error
	ListDueRefreshJobs(ctx context.Context, now int64, limit int) ([]*models.SliceRefreshJob, error)
	CompleteRefreshJob(ctx context.Context, jobID string) error
	FailRefreshJob(ctx context.Context, jobID string, lastError string, nextAttemptAt int64, dead bool) error
}

// Queries is every operation available both on the store and inside a transaction.
type Queries interface {
	UnitStore
	ConfigStore
	BookingStore
	SliceStore
	HousekeepingStore
	RefreshQueue
}

// Store defines the interface for booking storage operations.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	Queries

	// WithTx runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise. Writers are serialized.
	WithTx(ctx context.Context, fn func(q Queries) error) error

	// Close releases any resources held by the store.
	Close() error
}
