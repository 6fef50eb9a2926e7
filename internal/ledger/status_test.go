package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/stayledger/internal/models"
)

func TestSweepStatuses(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store)

	guest, err := m.CreatePrivateReservation(ctx, crossMonthStay())
	require.NoError(t, err)
	require.Equal(t, models.StatusUpcoming, guest.Status)

	blockIn := crossMonthStay()
	blockIn.GuestType = models.GuestBlock
	blockIn.CheckIn, blockIn.CheckOut = date(2024, time.July, 1), date(2024, time.July, 3)
	block, err := m.CreatePrivateReservation(ctx, blockIn)
	require.NoError(t, err)

	serviceIn := crossMonthStay()
	serviceIn.CheckIn, serviceIn.CheckOut = date(2024, time.August, 1), date(2024, time.August, 3)
	service, err := m.CreatePrivateReservation(ctx, serviceIn)
	require.NoError(t, err)
	source, guestType := models.SourceOwners2, models.GuestMaintenance
	_, err = m.UpdateBooking(ctx, service.ID, BookingUpdate{Source: &source, GuestType: &guestType})
	require.NoError(t, err)

	cancelIn := crossMonthStay()
	cancelIn.CheckIn, cancelIn.CheckOut = date(2024, time.September, 1), date(2024, time.September, 3)
	cancelled, err := m.CreatePrivateReservation(ctx, cancelIn)
	require.NoError(t, err)
	_, err = m.CancelBooking(ctx, cancelled.ID, decimal.NullDecimal{})
	require.NoError(t, err)

	// Housekeeping reopened the cleaning by hand.
	c, err := store.FindCleaningByBooking(ctx, cancelled.ID)
	require.NoError(t, err)
	c.Status = models.CleaningPending
	require.NoError(t, store.UpdateCleaning(ctx, c))

	later := newTestManager(t, store, WithClock(FixedClock(time.Date(2024, time.September, 10, 12, 0, 0, 0, hotel))))
	res, err := later.SweepStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Updated: 1, Done: 1, CleaningsCanceled: 1}, res)

	statuses := map[int64]models.Status{
		guest.ID:     models.StatusPast,
		block.ID:     models.StatusActive,
		service.ID:   models.StatusDone,
		cancelled.ID: models.StatusCancelled,
	}
	for id, want := range statuses {
		got, err := store.GetBooking(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, "booking %d", id)
	}

	c, err = store.FindCleaningByBooking(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CleaningCancelled, c.Status)

	t.Run("second sweep changes nothing", func(t *testing.T) {
		res, err := later.SweepStatuses(ctx)
		require.NoError(t, err)
		assert.Equal(t, SweepResult{}, res)
	})
}
