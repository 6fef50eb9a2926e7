package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source is where a booking originated.
type Source string

const (
	SourceAirbnb  Source = "Airbnb"
	SourcePrivate Source = "Private"
	// SourceOwners2 marks soft blocks entered by the management company
	// (holds, maintenance, cleaning windows).
	SourceOwners2 Source = "Owners2"
)

// SliceEligible reports whether bookings from this source are month-sliced.
func (s Source) SliceEligible() bool {
	switch strings.ToLower(string(s)) {
	case "private", "airbnb":
		return true
	}
	return false
}

// PaymentMethod is how the guest paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentNoPay    PaymentMethod = "no_pay"
	PaymentPlatform PaymentMethod = "platform"
)

// GuestType classifies who occupies the unit.
type GuestType string

const (
	GuestNew          GuestType = "new_guest"
	GuestOwner        GuestType = "owner"
	GuestBlock        GuestType = "block"
	GuestHold         GuestType = "hold"
	GuestAirbnb       GuestType = "Airbnb_guest"
	GuestCleaning     GuestType = "Cleaning"
	GuestMaintenance  GuestType = "Maintenance"
	GuestLateCheckOut GuestType = "Late Check-Out"
)

// Is compares guest types case-insensitively.
func (g GuestType) Is(other GuestType) bool {
	return strings.EqualFold(string(g), string(other))
}

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusOngoing   Status = "Ongoing"
	StatusPast      Status = "Past"
	StatusActive    Status = "Active"
	StatusDone      Status = "Done"
	StatusCancelled Status = "Cancelled"
)

// IsCancelled accepts both spellings in any case.
func (s Status) IsCancelled() bool {
	return strings.EqualFold(string(s), "cancelled") || strings.EqualFold(string(s), "canceled")
}

// Booking is one guest stay in one unit.
type Booking struct {
	// ID is assigned by the store on insert.
	ID     int64
	UnitID int64

	ConfirmationCode string
	GuestName        string
	City             string
	Guests           int

	// CheckIn and CheckOut carry hotel semantics (15:00 / 11:00 local) once consolidated.
	CheckIn  time.Time
	CheckOut time.Time

	Source        Source
	PaymentMethod PaymentMethod
	GuestType     GuestType
	Status        Status

	// Days is the number of whole nights.
	Days int

	// IsPaid is nil until a rule or an operator decides it.
	IsPaid *bool

	// Inputs. Unset values are filled from the unit or configuration.
	Payout            decimal.NullDecimal
	CleaningFee       decimal.NullDecimal
	TaxPercent        decimal.NullDecimal
	TaxAmount         decimal.NullDecimal
	CommissionPercent decimal.NullDecimal
	CommissionBase    decimal.NullDecimal

	// Derived amounts.
	NetPayout       decimal.Decimal
	CommissionValue decimal.Decimal
	ClientIncome    decimal.Decimal
	O2Total         decimal.Decimal
	RoomFee         decimal.Decimal

	Notes         string
	CheckInNotes  string
	CheckOutNotes string

	LastUpdatedVia string
	LastUpdatedAt  int64
	CreatedAt      int64
}
