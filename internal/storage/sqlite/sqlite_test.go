package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/money"
	"github.com/mmynk/stayledger/internal/storage"
)

var hotel = time.FixedZone("EST", -5*3600)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "stayledger-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"), WithLocation(hotel))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func stayAt(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, hotel)
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	unit := &models.Unit{ID: 7, Name: "Tulum 7", City: "Tulum", PaymentType: models.PaymentTypeOwners2, CleaningFee: money.Some(decimal.NewFromInt(100))}
	if err := store.CreateUnit(ctx, unit); err != nil {
		t.Fatalf("CreateUnit failed: %v", err)
	}

	t.Run("GetUnit round-trips the profile", func(t *testing.T) {
		got, err := store.GetUnit(ctx, 7)
		if err != nil {
			t.Fatalf("GetUnit failed: %v", err)
		}
		if got.City != "Tulum" || got.PaymentType != models.PaymentTypeOwners2 {
			t.Errorf("Unexpected unit: %+v", got)
		}
		if !got.CleaningFee.Valid || !got.CleaningFee.Decimal.Equal(decimal.NewFromInt(100)) {
			t.Errorf("Expected cleaning fee 100, got %v", got.CleaningFee)
		}
	})

	t.Run("GetUnit returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetUnit(ctx, 999)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("financial config upsert replaces by code", func(t *testing.T) {
		cfg := &models.FinancialConfig{Code: models.ConfigCodeOwners2, DefaultTaxPercentage: money.Some(decimal.NewFromInt(12))}
		if err := store.UpsertFinancialConfig(ctx, cfg); err != nil {
			t.Fatalf("UpsertFinancialConfig failed: %v", err)
		}
		cfg.DefaultTaxPercentage = money.Some(decimal.NewFromInt(16))
		cfg.DefaultCommissionPercentage = money.Some(decimal.NewFromInt(20))
		if err := store.UpsertFinancialConfig(ctx, cfg); err != nil {
			t.Fatalf("UpsertFinancialConfig failed: %v", err)
		}

		got, err := store.GetFinancialConfig(ctx, models.ConfigCodeOwners2)
		if err != nil {
			t.Fatalf("GetFinancialConfig failed: %v", err)
		}
		if !got.DefaultTaxPercentage.Decimal.Equal(decimal.NewFromInt(16)) {
			t.Errorf("Expected tax 16, got %v", got.DefaultTaxPercentage)
		}
		if !got.DefaultCommissionPercentage.Decimal.Equal(decimal.NewFromInt(20)) {
			t.Errorf("Expected commission 20, got %v", got.DefaultCommissionPercentage)
		}

		if _, err := store.GetFinancialConfig(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateBooking assigns ID and round-trips fields", func(t *testing.T) {
		paid := true
		b := &models.Booking{
			UnitID:          7,
			GuestName:       "Ana",
			CheckIn:         stayAt(2025, 3, 1, 15),
			CheckOut:        stayAt(2025, 3, 5, 11),
			Source:          models.SourcePrivate,
			PaymentMethod:   models.PaymentCard,
			GuestType:       models.GuestNew,
			Status:          models.StatusUpcoming,
			Days:            4,
			IsPaid:          &paid,
			Payout:          money.Some(money.MustParse("1000.50")),
			NetPayout:       money.MustParse("880.44"),
			CommissionValue: money.MustParse("156.00"),
		}
		if err := store.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
		if b.ID == 0 {
			t.Fatal("Expected booking ID to be assigned")
		}

		got, err := store.GetBooking(ctx, b.ID)
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if !got.CheckIn.Equal(b.CheckIn) || !got.CheckOut.Equal(b.CheckOut) {
			t.Errorf("Stay mismatch: got %v - %v", got.CheckIn, got.CheckOut)
		}
		if got.IsPaid == nil || !*got.IsPaid {
			t.Errorf("Expected IsPaid true, got %v", got.IsPaid)
		}
		if !got.Payout.Decimal.Equal(money.MustParse("1000.50")) {
			t.Errorf("Expected payout 1000.50, got %v", got.Payout)
		}
		if got.CleaningFee.Valid {
			t.Errorf("Expected unset cleaning fee to stay unset, got %v", got.CleaningFee)
		}
		if !got.NetPayout.Equal(money.MustParse("880.44")) {
			t.Errorf("Expected net payout 880.44, got %v", got.NetPayout)
		}
	})

	t.Run("UpdateBooking unknown ID returns ErrNotFound", func(t *testing.T) {
		err := store.UpdateBooking(ctx, &models.Booking{ID: 4242, UnitID: 7})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestFindOverlappingBookings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateUnit(ctx, &models.Unit{ID: 1, PaymentType: models.PaymentTypeOwners2}); err != nil {
		t.Fatalf("CreateUnit failed: %v", err)
	}

	existing := &models.Booking{UnitID: 1, CheckIn: stayAt(2025, 5, 10, 15), CheckOut: stayAt(2025, 5, 14, 11), Status: models.StatusUpcoming}
	cancelled := &models.Booking{UnitID: 1, CheckIn: stayAt(2025, 5, 20, 15), CheckOut: stayAt(2025, 5, 25, 11), Status: "canceled"}
	for _, b := range []*models.Booking{existing, cancelled} {
		if err := store.CreateBooking(ctx, b); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
	}

	tests := []struct {
		name      string
		checkIn   time.Time
		checkOut  time.Time
		excludeID int64
		wantIDs   []int64
	}{
		{
			name:     "inside existing stay",
			checkIn:  stayAt(2025, 5, 11, 15),
			checkOut: stayAt(2025, 5, 12, 11),
			wantIDs:  []int64{existing.ID},
		},
		{
			name:     "check-in on existing check-out day",
			checkIn:  stayAt(2025, 5, 14, 15),
			checkOut: stayAt(2025, 5, 16, 11),
		},
		{
			name:     "check-out touching existing check-in instant",
			checkIn:  stayAt(2025, 5, 8, 15),
			checkOut: stayAt(2025, 5, 10, 15),
		},
		{
			name:     "same day turnover before check-in",
			checkIn:  stayAt(2025, 5, 8, 15),
			checkOut: stayAt(2025, 5, 10, 11),
		},
		{
			name:     "cancelled bookings never conflict",
			checkIn:  stayAt(2025, 5, 21, 15),
			checkOut: stayAt(2025, 5, 22, 11),
		},
		{
			name:      "excluded booking is ignored",
			checkIn:   stayAt(2025, 5, 11, 15),
			checkOut:  stayAt(2025, 5, 12, 11),
			excludeID: existing.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FindOverlappingBookings(ctx, 1, tt.checkIn, tt.checkOut, tt.excludeID)
			if err != nil {
				t.Fatalf("FindOverlappingBookings failed: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Expected %d conflicts, got %d", len(tt.wantIDs), len(got))
			}
			for i, b := range got {
				if b.ID != tt.wantIDs[i] {
					t.Errorf("Conflict %d: expected ID %d, got %d", i, tt.wantIDs[i], b.ID)
				}
			}
		})
	}
}

func TestMonthSlices(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateUnit(ctx, &models.Unit{ID: 1, PaymentType: models.PaymentTypeOwners2}); err != nil {
		t.Fatalf("CreateUnit failed: %v", err)
	}
	b := &models.Booking{UnitID: 1, CheckIn: stayAt(2025, 1, 30, 15), CheckOut: stayAt(2025, 2, 2, 11)}
	if err := store.CreateBooking(ctx, b); err != nil {
		t.Fatalf("CreateBooking failed: %v", err)
	}

	for _, ym := range []string{"2025-01", "2025-02"} {
		s := &models.MonthSlice{
			BookingID:     b.ID,
			UnitID:        1,
			YearMonth:     ym,
			MonthStart:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			MonthEnd:      time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			NightsTotal:   3,
			NightsInMonth: 2,
			PayoutInMonth: money.MustParse("666.67"),
		}
		if err := store.InsertSlice(ctx, s); err != nil {
			t.Fatalf("InsertSlice failed: %v", err)
		}
	}

	t.Run("duplicate month is rejected", func(t *testing.T) {
		err := store.InsertSlice(ctx, &models.MonthSlice{BookingID: b.ID, UnitID: 1, YearMonth: "2025-01"})
		if err == nil {
			t.Error("Expected primary key violation")
		}
	})

	t.Run("list by booking in month order", func(t *testing.T) {
		got, err := store.ListSlicesByBooking(ctx, b.ID)
		if err != nil {
			t.Fatalf("ListSlicesByBooking failed: %v", err)
		}
		if len(got) != 2 || got[0].YearMonth != "2025-01" || got[1].YearMonth != "2025-02" {
			t.Fatalf("Unexpected slices: %+v", got)
		}
		if !got[0].PayoutInMonth.Equal(money.MustParse("666.67")) {
			t.Errorf("Expected payout 666.67, got %v", got[0].PayoutInMonth)
		}
	})

	t.Run("delete every slice of the booking", func(t *testing.T) {
		n, err := store.DeleteSlices(ctx, b.ID)
		if err != nil {
			t.Fatalf("DeleteSlices failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Expected 2 rows deleted, got %d", n)
		}
		left, err := store.ListSlicesByBooking(ctx, b.ID)
		if err != nil {
			t.Fatalf("ListSlicesByBooking failed: %v", err)
		}
		if len(left) != 0 {
			t.Errorf("Expected no slices left, got %d", len(left))
		}
	})
}

func TestWithTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(q storage.Queries) error {
		if err := q.CreateUnit(ctx, &models.Unit{ID: 3, PaymentType: models.PaymentTypeClient}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	if _, err := store.GetUnit(ctx, 3); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected rolled back unit to be missing, got %v", err)
	}
}

func TestCleaningRates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.CleaningRate{UnitID: 1, City: "Tulum", Amount: decimal.NewFromInt(300), EffectiveFrom: "2025-01-01"}
	if err := store.CreateRate(ctx, first); err != nil {
		t.Fatalf("CreateRate failed: %v", err)
	}
	if n, err := store.CloseOpenRates(ctx, 1, "Tulum", "2025-05-31"); err != nil || n != 1 {
		t.Fatalf("CloseOpenRates: n=%d err=%v", n, err)
	}
	second := &models.CleaningRate{UnitID: 1, City: "Tulum", Amount: decimal.NewFromInt(350), EffectiveFrom: "2025-06-01"}
	if err := store.CreateRate(ctx, second); err != nil {
		t.Fatalf("CreateRate failed: %v", err)
	}

	tests := []struct {
		date    string
		want    string
		missing bool
	}{
		{date: "2024-12-31", missing: true},
		{date: "2025-01-01", want: "300"},
		{date: "2025-05-31", want: "300"},
		{date: "2025-06-01", want: "350"},
		{date: "2030-01-01", want: "350"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			rate, err := store.FindActiveRate(ctx, 1, "Tulum", tt.date)
			if tt.missing {
				if !errors.Is(err, storage.ErrNotFound) {
					t.Errorf("Expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindActiveRate failed: %v", err)
			}
			if !rate.Amount.Equal(money.MustParse(tt.want)) {
				t.Errorf("Expected %s, got %s", tt.want, rate.Amount)
			}
		})
	}
}

func TestCreateCleaningIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		c := &models.HKCleaning{UnitID: 1, CheckoutDate: "2025-03-05", CleaningType: models.CleaningTypeCheckout, Status: models.CleaningPending, BookingID: int64(10 + i)}
		if err := store.CreateCleaning(ctx, c); err != nil {
			t.Fatalf("CreateCleaning failed: %v", err)
		}
	}

	got, err := store.FindCleaning(ctx, 1, "2025-03-05", models.CleaningTypeCheckout)
	if err != nil {
		t.Fatalf("FindCleaning failed: %v", err)
	}
	if got.BookingID != 10 {
		t.Errorf("Expected first insert to win, got booking %d", got.BookingID)
	}
	if got.CleaningCost.Valid {
		t.Errorf("Expected no cleaning cost, got %v", got.CleaningCost)
	}
}

func TestRefreshQueue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	job := &models.SliceRefreshJob{BookingID: 5, CheckIn: stayAt(2025, 3, 1, 15), CheckOut: stayAt(2025, 3, 4, 11), NextAttemptAt: 100}
	if err := store.EnqueueSliceRefresh(ctx, job); err != nil {
		t.Fatalf("EnqueueSliceRefresh failed: %v", err)
	}

	due, err := store.ListDueRefreshJobs(ctx, 99, 10)
	if err != nil {
		t.Fatalf("ListDueRefreshJobs failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("Expected no due jobs before next attempt, got %d", len(due))
	}

	due, err = store.ListDueRefreshJobs(ctx, 100, 10)
	if err != nil {
		t.Fatalf("ListDueRefreshJobs failed: %v", err)
	}
	if len(due) != 1 || !due[0].CheckIn.Equal(job.CheckIn) {
		t.Fatalf("Expected the enqueued job, got %+v", due)
	}

	if err := store.FailRefreshJob(ctx, job.ID, "locked", 200, false); err != nil {
		t.Fatalf("FailRefreshJob failed: %v", err)
	}
	due, _ = store.ListDueRefreshJobs(ctx, 200, 10)
	if len(due) != 1 || due[0].Attempts != 1 || due[0].LastError != "locked" {
		t.Fatalf("Expected rescheduled job with one attempt, got %+v", due)
	}

	if err := store.CompleteRefreshJob(ctx, job.ID); err != nil {
		t.Fatalf("CompleteRefreshJob failed: %v", err)
	}
	due, _ = store.ListDueRefreshJobs(ctx, 1000, 10)
	if len(due) != 0 {
		t.Errorf("Expected no pending jobs after completion, got %d", len(due))
	}
}

func TestEnqueueSliceRefreshSupersedesPendingJobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.SliceRefreshJob{BookingID: 5, CheckIn: stayAt(2025, 3, 1, 15), CheckOut: stayAt(2025, 3, 4, 11), NextAttemptAt: 100}
	if err := store.EnqueueSliceRefresh(ctx, first); err != nil {
		t.Fatalf("EnqueueSliceRefresh failed: %v", err)
	}
	other := &models.SliceRefreshJob{BookingID: 6, CheckIn: stayAt(2025, 3, 1, 15), CheckOut: stayAt(2025, 3, 2, 11), NextAttemptAt: 100}
	if err := store.EnqueueSliceRefresh(ctx, other); err != nil {
		t.Fatalf("EnqueueSliceRefresh failed: %v", err)
	}
	second := &models.SliceRefreshJob{BookingID: 5, CheckIn: stayAt(2025, 3, 10, 15), CheckOut: stayAt(2025, 3, 12, 11), NextAttemptAt: 100}
	if err := store.EnqueueSliceRefresh(ctx, second); err != nil {
		t.Fatalf("EnqueueSliceRefresh failed: %v", err)
	}

	due, err := store.ListDueRefreshJobs(ctx, 100, 10)
	if err != nil {
		t.Fatalf("ListDueRefreshJobs failed: %v", err)
	}
	ids := map[string]bool{}
	for _, j := range due {
		ids[j.ID] = true
	}
	if len(due) != 2 || !ids[second.ID] || !ids[other.ID] {
		t.Errorf("Expected the newest job of booking 5 and the job of booking 6, got %+v", due)
	}
}
