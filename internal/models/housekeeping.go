package models

import "github.com/shopspring/decimal"

// Cleaning types.
const (
	CleaningTypeCheckout = "checkout"
	CleaningTypeOwner    = "owner"
)

// Cleaning statuses.
const (
	CleaningPending   = "pending"
	CleaningDone      = "done"
	CleaningCancelled = "cancelled"
)

// HKCleaning is a housekeeping job placeholder for one unit on one date.
// (UnitID, CheckoutDate, CleaningType) is unique.
type HKCleaning struct {
	ID           string
	UnitID       int64
	City         string
	CheckoutDate string // YYYY-MM-DD
	CleaningType string
	Status       string
	BookingID    int64

	// O2CollectedFee is what the guest was charged for cleaning.
	O2CollectedFee decimal.NullDecimal
	// CleaningCost is what housekeeping is expected to cost.
	CleaningCost decimal.NullDecimal

	CreatedAt int64
}

// CleaningRate is the housekeeping cost for a unit in a city, effective over
// an inclusive date range. EffectiveTo is empty while the rate is open.
type CleaningRate struct {
	ID            int64
	UnitID        int64
	City          string
	Amount        decimal.Decimal
	EffectiveFrom string // YYYY-MM-DD
	EffectiveTo   string // YYYY-MM-DD or ""
	Notes         string
}
