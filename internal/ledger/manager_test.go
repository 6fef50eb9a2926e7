package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/money"
	"github.com/mmynk/stayledger/internal/storage"
	"github.com/mmynk/stayledger/internal/storage/sqlite"
)

var (
	hotel = time.FixedZone("EST", -5*3600)
	now   = time.Date(2024, 5, 1, 12, 0, 0, 0, hotel)
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, hotel)
}

func amount(s string) decimal.NullDecimal {
	return money.Some(money.MustParse(s))
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, got.Equal(money.MustParse(want)), "%s: want %s, got %s", field, want, got)
}

// newBareStore opens an empty database holding only the test units.
func newBareStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"), sqlite.WithLocation(hotel))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, u := range []*models.Unit{
		{ID: 42, Name: "Playa 42", City: "Playa del Carmen", PaymentType: models.PaymentTypeOwners2, CleaningFee: amount("100")},
		{ID: 7, Name: "Tulum 7", City: "Tulum", PaymentType: models.PaymentTypeClient, CleaningFee: amount("80")},
	} {
		require.NoError(t, store.CreateUnit(ctx, u))
	}
	return store
}

// newTestStore adds the financial configurations to newBareStore.
func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	store := newBareStore(t)
	ctx := context.Background()
	for _, cfg := range []*models.FinancialConfig{
		{Code: models.ConfigCodePrivateCash, DefaultTaxPercentage: amount("12"), DefaultCommissionPercentage: amount("20")},
		{Code: models.ConfigCodePrivateCard, DefaultTaxPercentage: amount("16"), DefaultCommissionPercentage: amount("20")},
		{Code: models.ConfigCodeOwners2, DefaultTaxPercentage: amount("0"), DefaultCommissionPercentage: amount("15")},
		{Code: models.ConfigCodeClient, DefaultTaxPercentage: amount("0"), DefaultCommissionPercentage: amount("25")},
		{Code: DefaultClientCardConfigCode, DefaultTaxPercentage: amount("10"), DefaultCommissionPercentage: amount("20")},
	} {
		require.NoError(t, store.UpsertFinancialConfig(ctx, cfg))
	}
	return store
}

func newTestManager(t *testing.T, store storage.Store, opts ...Option) *Manager {
	t.Helper()
	base := []Option{WithLocation(hotel), WithClock(FixedClock(now))}
	return NewManager(store, append(base, opts...)...)
}

// crossMonthStay is five nights from May 29 to June 3 in unit 42.
func crossMonthStay() PrivateReservationInput {
	return PrivateReservationInput{
		UnitID:      42,
		GuestName:   "Ana Torres",
		Guests:      2,
		CheckIn:     date(2024, time.May, 29),
		CheckOut:    date(2024, time.June, 3),
		Payout:      amount("1000"),
		CleaningFee: amount("100"),
	}
}

func TestCreatePrivateReservation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store)

	b, err := m.CreatePrivateReservation(ctx, crossMonthStay())
	require.NoError(t, err)
	require.NotZero(t, b.ID)

	t.Run("derives the financial fields", func(t *testing.T) {
		got, err := m.GetBooking(ctx, b.ID)
		require.NoError(t, err)

		assertAmount(t, "120", got.TaxAmount.Decimal, "taxAmount")
		assertAmount(t, "880", got.NetPayout, "netPayout")
		assertAmount(t, "780", got.CommissionBase.Decimal, "commissionBase")
		assertAmount(t, "156", got.CommissionValue, "commissionValue")
		assertAmount(t, "624", got.ClientIncome, "clientIncome")
		assertAmount(t, "256", got.O2Total, "o2Total")
		assertAmount(t, "180", got.RoomFee, "roomFee")
		assert.Equal(t, 5, got.Days)
		assert.Equal(t, models.StatusUpcoming, got.Status)
		assert.Equal(t, "Playa del Carmen", got.City)
		assert.Equal(t, models.PaymentCash, got.PaymentMethod)
		assert.Equal(t, models.GuestNew, got.GuestType)
		assert.Equal(t, "create_private", got.LastUpdatedVia)
		assert.Regexp(t, `^O2M[0-9A-F]{7}$`, got.ConfirmationCode)
	})

	t.Run("normalizes check-in and check-out hours", func(t *testing.T) {
		got, err := m.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, 15, got.CheckIn.Hour())
		assert.Equal(t, 11, got.CheckOut.Hour())
		assert.Equal(t, 29, got.CheckIn.Day())
		assert.Equal(t, 3, got.CheckOut.Day())
	})

	t.Run("writes month slices right away", func(t *testing.T) {
		slices, err := m.ListMonthSlices(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, slices, 2)

		may, june := slices[0], slices[1]
		assert.Equal(t, "2024-05", may.YearMonth)
		assert.Equal(t, 3, may.NightsInMonth)
		assertAmount(t, "600", may.PayoutInMonth, "may payout")
		assertAmount(t, "0", may.CleaningFeeInMonth, "may cleaning fee")

		assert.Equal(t, "2024-06", june.YearMonth)
		assert.Equal(t, 2, june.NightsInMonth)
		assertAmount(t, "400", june.PayoutInMonth, "june payout")
		assertAmount(t, "100", june.CleaningFeeInMonth, "june cleaning fee")
	})

	t.Run("drains the refresh outbox", func(t *testing.T) {
		due, err := store.ListDueRefreshJobs(ctx, now.Add(time.Hour).Unix(), 10)
		require.NoError(t, err)
		assert.Empty(t, due)
	})

	t.Run("stages the checkout cleaning", func(t *testing.T) {
		c, err := store.FindCleaning(ctx, 42, "2024-06-03", models.CleaningTypeCheckout)
		require.NoError(t, err)
		assert.Equal(t, b.ID, c.BookingID)
		assert.Equal(t, models.CleaningPending, c.Status)
		assertAmount(t, "100", c.O2CollectedFee.Decimal, "collected fee")
		assert.False(t, c.CleaningCost.Valid, "no rate is configured")
	})
}

func TestCreatePrivateReservationLongStay(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	in := crossMonthStay()
	in.CheckOut = date(2024, time.June, 20)
	b, err := m.CreatePrivateReservation(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Check meter", b.CheckInNotes)
	assert.Equal(t, "Check meter", b.CheckOutNotes)
}

func TestCreatePrivateReservationValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	tests := []struct {
		name   string
		mutate func(in *PrivateReservationInput)
	}{
		{name: "missing guest name", mutate: func(in *PrivateReservationInput) { in.GuestName = "" }},
		{name: "missing unit", mutate: func(in *PrivateReservationInput) { in.UnitID = 0 }},
		{name: "checkout before checkin", mutate: func(in *PrivateReservationInput) { in.CheckOut = date(2024, time.May, 20) }},
		{name: "same day stay", mutate: func(in *PrivateReservationInput) { in.CheckOut = in.CheckIn }},
		{name: "negative payout", mutate: func(in *PrivateReservationInput) { in.Payout = amount("-1") }},
		{name: "unknown payment method", mutate: func(in *PrivateReservationInput) { in.PaymentMethod = "crypto" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := crossMonthStay()
			tt.mutate(&in)
			_, err := m.CreatePrivateReservation(ctx, in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateRejectsStayWithoutNights(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store)

	// Both timestamps fall on June 10 in hotel time.
	checkIn := date(2024, time.June, 10)
	checkOut := checkIn.Add(5 * time.Hour)

	t.Run("private reservation", func(t *testing.T) {
		in := crossMonthStay()
		in.CheckIn, in.CheckOut = checkIn, checkOut
		_, err := m.CreatePrivateReservation(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("owner stay", func(t *testing.T) {
		_, err := m.CreateOwnerStay(ctx, OwnerStayInput{UnitID: 42, CheckIn: checkIn, CheckOut: checkOut})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("airbnb booking", func(t *testing.T) {
		_, err := m.CreateAirbnbBooking(ctx, AirbnbBookingInput{
			UnitID:           42,
			ConfirmationCode: "HMX4K2",
			GuestName:        "Jon Park",
			CheckIn:          checkIn,
			CheckOut:         checkOut,
			Payout:           amount("300"),
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("late UTC timestamps on the same hotel day", func(t *testing.T) {
		in := crossMonthStay()
		in.CheckIn = time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC)
		in.CheckOut = time.Date(2024, 6, 11, 4, 0, 0, 0, time.UTC)
		_, err := m.CreatePrivateReservation(ctx, in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	bookings, err := store.ListBookings(ctx, storage.BookingFilter{IncludeCancelled: true})
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestConfigurationErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown unit", func(t *testing.T) {
		m := newTestManager(t, newTestStore(t))
		in := crossMonthStay()
		in.UnitID = 999

		_, err := m.CreatePrivateReservation(ctx, in)
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("unknown financial config writes nothing", func(t *testing.T) {
		store := newBareStore(t)
		m := newTestManager(t, store)

		_, err := m.CreatePrivateReservation(ctx, crossMonthStay())
		var cfgErr *ConfigurationError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Error(), models.ConfigCodePrivateCash)

		bookings, err := store.ListBookings(ctx, storage.BookingFilter{IncludeCancelled: true})
		require.NoError(t, err)
		assert.Empty(t, bookings)
	})
}

func TestOverlapGuard(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	stay := func(in, out time.Time) PrivateReservationInput {
		return PrivateReservationInput{UnitID: 42, GuestName: "Guest", CheckIn: in, CheckOut: out, Payout: amount("500")}
	}

	existing, err := m.CreatePrivateReservation(ctx, stay(date(2024, time.June, 10), date(2024, time.June, 15)))
	require.NoError(t, err)

	t.Run("rejects a stay inside an existing one", func(t *testing.T) {
		_, err := m.CreatePrivateReservation(ctx, stay(date(2024, time.June, 12), date(2024, time.June, 14)))
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, int64(42), conflict.UnitID)
		assert.Equal(t, []int64{existing.ID}, conflict.BookingIDs)
	})

	t.Run("accepts a back-to-back stay", func(t *testing.T) {
		_, err := m.CreatePrivateReservation(ctx, stay(date(2024, time.June, 15), date(2024, time.June, 18)))
		assert.NoError(t, err)
	})

	t.Run("accepts a stay ending on the existing check-in", func(t *testing.T) {
		_, err := m.CreatePrivateReservation(ctx, stay(date(2024, time.June, 7), date(2024, time.June, 10)))
		assert.NoError(t, err)
	})

	t.Run("accepts the same dates in another unit", func(t *testing.T) {
		in := stay(date(2024, time.June, 12), date(2024, time.June, 14))
		in.UnitID = 7
		_, err := m.CreatePrivateReservation(ctx, in)
		assert.NoError(t, err)
	})

	t.Run("edits never conflict with themselves", func(t *testing.T) {
		guests := 3
		_, err := m.UpdateBooking(ctx, existing.ID, BookingUpdate{Guests: &guests})
		assert.NoError(t, err)
	})

	t.Run("cancelled bookings free their dates", func(t *testing.T) {
		_, err := m.CancelBooking(ctx, existing.ID, decimal.NullDecimal{})
		require.NoError(t, err)
		_, err = m.CreatePrivateReservation(ctx, stay(date(2024, time.June, 12), date(2024, time.June, 14)))
		assert.NoError(t, err)
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("without residual payout drops every slice", func(t *testing.T) {
		store := newTestStore(t)
		m := newTestManager(t, store)
		b, err := m.CreatePrivateReservation(ctx, crossMonthStay())
		require.NoError(t, err)

		cancelled, err := m.CancelBooking(ctx, b.ID, decimal.NullDecimal{})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
		require.True(t, cancelled.Payout.Valid)
		assertAmount(t, "0", cancelled.Payout.Decimal, "payout is not retained")
		assertAmount(t, "0", cancelled.CleaningFee.Decimal, "cleaningFee")
		assertAmount(t, "0", cancelled.RoomFee, "roomFee")

		slices, err := m.ListMonthSlices(ctx, b.ID)
		require.NoError(t, err)
		assert.Empty(t, slices)

		c, err := store.FindCleaningByBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.CleaningCancelled, c.Status)
	})

	t.Run("with residual payout keeps one slice in the check-in month", func(t *testing.T) {
		m := newTestManager(t, newTestStore(t))
		b, err := m.CreatePrivateReservation(ctx, crossMonthStay())
		require.NoError(t, err)

		cancelled, err := m.CancelBooking(ctx, b.ID, amount("150"))
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, cancelled.Status)
		assertAmount(t, "120", cancelled.TaxAmount.Decimal, "taxAmount is kept")

		slices, err := m.ListMonthSlices(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, slices, 1)
		assert.Equal(t, "2024-05", slices[0].YearMonth)
		assertAmount(t, "150", slices[0].PayoutInMonth, "payout")
		assertAmount(t, "0", slices[0].CleaningFeeInMonth, "cleaning fee")
	})

	t.Run("rejects a negative residual payout", func(t *testing.T) {
		m := newTestManager(t, newTestStore(t))
		b, err := m.CreatePrivateReservation(ctx, crossMonthStay())
		require.NoError(t, err)

		_, err = m.CancelBooking(ctx, b.ID, amount("-5"))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown booking", func(t *testing.T) {
		m := newTestManager(t, newTestStore(t))
		_, err := m.CancelBooking(ctx, 12345, decimal.NullDecimal{})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestUpdateBookingMovesSlices(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	b, err := m.CreatePrivateReservation(ctx, crossMonthStay())
	require.NoError(t, err)

	in, out := date(2024, time.June, 5), date(2024, time.June, 8)
	updated, err := m.UpdateBooking(ctx, b.ID, BookingUpdate{CheckIn: &in, CheckOut: &out})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Days)
	assert.Equal(t, "update", updated.LastUpdatedVia)

	slices, err := m.ListMonthSlices(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, slices, 1)
	assert.Equal(t, "2024-06", slices[0].YearMonth)
	assert.Equal(t, 3, slices[0].NightsInMonth)
	assertAmount(t, "1000", slices[0].PayoutInMonth, "payout")

	t.Run("rejects an inverted stay", func(t *testing.T) {
		out := date(2024, time.June, 1)
		_, err := m.UpdateBooking(ctx, b.ID, BookingUpdate{CheckOut: &out})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestNoPayStay(t *testing.T) {
	ctx := context.Background()
	noPay := models.PaymentNoPay

	tests := []struct {
		name         string
		policy       ConsolidationPolicy
		clientIncome string
	}{
		{name: "calculator wins", policy: PolicyCalculatorWins, clientIncome: "-80"},
		{name: "consolidation wins", policy: PolicyConsolidationWins, clientIncome: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, newTestStore(t), WithPolicy(tt.policy))
			b, err := m.CreatePrivateReservation(ctx, crossMonthStay())
			require.NoError(t, err)

			got, err := m.UpdateBooking(ctx, b.ID, BookingUpdate{PaymentMethod: &noPay, CleaningFee: amount("80")})
			require.NoError(t, err)

			assertAmount(t, "0", got.Payout.Decimal, "payout")
			assertAmount(t, "0", got.TaxAmount.Decimal, "taxAmount")
			assertAmount(t, "0", got.CommissionValue, "commissionValue")
			assertAmount(t, tt.clientIncome, got.ClientIncome, "clientIncome")
			assertAmount(t, "80", got.O2Total, "o2Total")
			assertAmount(t, "0", got.RoomFee, "roomFee")
		})
	}
}

func TestClientAirbnbPolicy(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		policy       ConsolidationPolicy
		clientIncome string
	}{
		{policy: PolicyConsolidationWins, clientIncome: "315"},
		{policy: PolicyCalculatorWins, clientIncome: "0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			m := newTestManager(t, newTestStore(t), WithPolicy(tt.policy))
			b, err := m.CreateAirbnbBooking(ctx, AirbnbBookingInput{
				UnitID:           7,
				ConfirmationCode: "HMABC123",
				GuestName:        "Lee Park",
				CheckIn:          date(2024, time.July, 1),
				CheckOut:         date(2024, time.July, 5),
				Payout:           amount("500"),
			})
			require.NoError(t, err)

			assert.Equal(t, models.PaymentPlatform, b.PaymentMethod)
			assert.False(t, *b.IsPaid)
			assertAmount(t, "80", b.CleaningFee.Decimal, "cleaning fee from the unit")
			assertAmount(t, "0", b.TaxAmount.Decimal, "taxAmount")
			assertAmount(t, "420", b.CommissionBase.Decimal, "commissionBase")
			assertAmount(t, "105", b.CommissionValue, "commissionValue")
			assertAmount(t, tt.clientIncome, b.ClientIncome, "clientIncome")
			assertAmount(t, "185", b.O2Total, "o2Total")
		})
	}
}

func TestClientCardOverride(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, newTestStore(t))

	in := crossMonthStay()
	in.UnitID = 7
	in.PaymentMethod = models.PaymentCard
	in.CleaningFee = decimal.NullDecimal{}
	b, err := m.CreatePrivateReservation(ctx, in)
	require.NoError(t, err)

	assertAmount(t, "10", b.TaxPercent.Decimal, "taxPercent")
	assertAmount(t, "100", b.TaxAmount.Decimal, "taxAmount")
	assertAmount(t, "900", b.NetPayout, "netPayout")
	assertAmount(t, "820", b.CommissionBase.Decimal, "commissionBase")
	assertAmount(t, "164", b.CommissionValue, "commissionValue")
	assertAmount(t, "656", b.ClientIncome, "clientIncome")
}

func TestBlockAndHold(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store)

	for i, guestType := range []models.GuestType{models.GuestBlock, models.GuestHold} {
		t.Run(string(guestType), func(t *testing.T) {
			in := crossMonthStay()
			in.GuestType = guestType
			in.Payout = decimal.NullDecimal{}
			in.CheckIn = date(2024, time.August, 1+i*10)
			in.CheckOut = date(2024, time.August, 5+i*10)

			b, err := m.CreatePrivateReservation(ctx, in)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, b.Status)
			assertAmount(t, "0", b.TaxAmount.Decimal, "taxAmount")

			_, err = store.FindCleaning(ctx, 42, stayKey(in.CheckOut), models.CleaningTypeCheckout)
			assert.ErrorIs(t, err, storage.ErrNotFound)
		})
	}

	t.Run("block tax percent is forced to zero", func(t *testing.T) {
		in := crossMonthStay()
		in.GuestType = models.GuestBlock
		in.CheckIn = date(2024, time.September, 1)
		in.CheckOut = date(2024, time.September, 3)
		b, err := m.CreatePrivateReservation(ctx, in)
		require.NoError(t, err)
		assertAmount(t, "0", b.TaxPercent.Decimal, "taxPercent")
	})
}

func stayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

func TestOwnerStay(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store)
	require.NoError(t, m.SetCleaningRate(ctx, &models.CleaningRate{
		UnitID: 42, City: "Playa del Carmen", Amount: money.MustParse("300"), EffectiveFrom: "2024-01-01",
	}))

	b, err := m.CreatePrivateReservation(ctx, PrivateReservationInput{
		UnitID:    42,
		GuestName: "ignored",
		GuestType: models.GuestOwner,
		CheckIn:   date(2024, time.July, 10),
		CheckOut:  date(2024, time.July, 14),
		Notes:     "family visit",
	})
	require.NoError(t, err)

	assert.Equal(t, "Reserva Propietario", b.GuestName)
	assert.Equal(t, "Reserva Propietario: family visit", b.Notes)
	assert.Equal(t, models.PaymentNoPay, b.PaymentMethod)
	assert.True(t, *b.IsPaid)
	assertAmount(t, "0", b.Payout.Decimal, "payout")
	assertAmount(t, "0", b.CleaningFee.Decimal, "owner stays do not take the unit fee")

	c, err := store.FindCleaning(ctx, 42, "2024-07-14", models.CleaningTypeOwner)
	require.NoError(t, err)
	assert.Equal(t, b.ID, c.BookingID)
	assertAmount(t, "100", c.O2CollectedFee.Decimal, "collected fee")
	assertAmount(t, "300", c.CleaningCost.Decimal, "cleaning cost")

	_, err = store.FindCleaning(ctx, 42, "2024-07-14", models.CleaningTypeCheckout)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCheckoutCleaningUsesActiveRate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store)
	require.NoError(t, m.SetCleaningRate(ctx, &models.CleaningRate{
		UnitID: 42, City: "Playa del Carmen", Amount: money.MustParse("300"), EffectiveFrom: "2024-01-01",
	}))

	_, err := m.CreatePrivateReservation(ctx, crossMonthStay())
	require.NoError(t, err)

	c, err := store.FindCleaning(ctx, 42, "2024-06-03", models.CleaningTypeCheckout)
	require.NoError(t, err)
	assertAmount(t, "300", c.CleaningCost.Decimal, "cleaning cost")
}

type failingRates struct{}

func (failingRates) ResolveAmount(context.Context, storage.HousekeepingStore, int64, string, string) (decimal.NullDecimal, error) {
	return decimal.NullDecimal{}, errors.New("rate service unavailable")
}

func TestSideEffectFailuresDoNotBlockBookings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store, WithRateResolver(failingRates{}))

	t.Run("checkout cleaning", func(t *testing.T) {
		b, err := m.CreatePrivateReservation(ctx, crossMonthStay())
		require.NoError(t, err)

		slices, err := m.ListMonthSlices(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, slices, 2)

		_, err = store.FindCleaning(ctx, 42, "2024-06-03", models.CleaningTypeCheckout)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("owner cleaning", func(t *testing.T) {
		b, err := m.CreateOwnerStay(ctx, OwnerStayInput{
			UnitID:   42,
			CheckIn:  date(2024, time.July, 10),
			CheckOut: date(2024, time.July, 14),
		})
		require.NoError(t, err)

		_, err = m.GetBooking(ctx, b.ID)
		assert.NoError(t, err)
		_, err = store.FindCleaning(ctx, 42, "2024-07-14", models.CleaningTypeOwner)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestSetCleaningRate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	m := newTestManager(t, store)

	require.NoError(t, m.SetCleaningRate(ctx, &models.CleaningRate{UnitID: 42, City: "Playa del Carmen", Amount: money.MustParse("300"), EffectiveFrom: "2025-01-01"}))
	require.NoError(t, m.SetCleaningRate(ctx, &models.CleaningRate{UnitID: 42, City: "Playa del Carmen", Amount: money.MustParse("350"), EffectiveFrom: "2025-06-01"}))

	tests := []struct {
		date string
		want string
	}{
		{date: "2025-01-01", want: "300"},
		{date: "2025-05-31", want: "300"},
		{date: "2025-06-01", want: "350"},
		{date: "2026-01-01", want: "350"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got, err := StoredRates{}.ResolveAmount(ctx, store, 42, "Playa del Carmen", tt.date)
			require.NoError(t, err)
			require.True(t, got.Valid)
			assertAmount(t, tt.want, got.Decimal, "rate")
		})
	}

	t.Run("before the first rate", func(t *testing.T) {
		got, err := StoredRates{}.ResolveAmount(ctx, store, 42, "Playa del Carmen", "2024-12-31")
		require.NoError(t, err)
		assert.False(t, got.Valid)
	})

	t.Run("invalid input", func(t *testing.T) {
		err := m.SetCleaningRate(ctx, &models.CleaningRate{UnitID: 42, Amount: money.MustParse("1"), EffectiveFrom: "06/01/2025"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		err = m.SetCleaningRate(ctx, &models.CleaningRate{UnitID: 42, Amount: money.MustParse("-1"), EffectiveFrom: "2025-06-01"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
