package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthSlice is one booking's share of one calendar month. Rows are derived
// and always regenerated; they are never edited by hand.
type MonthSlice struct {
	BookingID     int64
	UnitID        int64
	City          string
	Source        Source
	PaymentMethod PaymentMethod
	GuestType     GuestType

	// YearMonth is YYYY-MM.
	YearMonth  string
	MonthStart time.Time
	MonthEnd   time.Time

	NightsTotal   int
	NightsInMonth int

	RoomFeeInMonth        decimal.Decimal
	PayoutInMonth         decimal.Decimal
	TaxInMonth            decimal.Decimal
	NetPayoutInMonth      decimal.Decimal
	CleaningFeeInMonth    decimal.Decimal
	O2CommissionInMonth   decimal.Decimal
	OwnerPayoutInMonth    decimal.Decimal
	CommissionBaseInMonth decimal.Decimal
}
