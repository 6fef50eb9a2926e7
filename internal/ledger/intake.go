package ledger

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/stay"
)

const (
	ownerGuestName = "Reserva Propietario"
	// longStayNights is the stay length above which check-in and check-out
	// carry a meter reading reminder.
	longStayNights = 15
	meterNote      = "Check meter"
)

// PrivateReservationInput is a direct reservation taken by the office.
type PrivateReservationInput struct {
	UnitID        int64                `validate:"required,gt=0"`
	GuestName     string               `validate:"required,max=200"`
	Guests        int                  `validate:"gte=0,lte=50"`
	CheckIn       time.Time            `validate:"required"`
	CheckOut      time.Time            `validate:"required,gtfield=CheckIn"`
	PaymentMethod models.PaymentMethod `validate:"omitempty,oneof=cash card"`
	GuestType     models.GuestType     `validate:"max=50"`
	Payout        decimal.NullDecimal  `validate:"omitempty,gte=0"`
	CleaningFee   decimal.NullDecimal  `validate:"omitempty,gte=0"`
	IsPaid        *bool
	Notes         string               `validate:"max=2000"`
}

// OwnerStayInput is a stay by the unit owner. Nothing is charged.
type OwnerStayInput struct {
	UnitID   int64     `validate:"required,gt=0"`
	Guests   int       `validate:"gte=0,lte=50"`
	CheckIn  time.Time `validate:"required"`
	CheckOut time.Time `validate:"required,gtfield=CheckIn"`
	Notes    string    `validate:"max=2000"`
}

// AirbnbBookingInput is an Airbnb reservation keyed in by hand.
type AirbnbBookingInput struct {
	UnitID           int64               `validate:"required,gt=0"`
	ConfirmationCode string              `validate:"required,max=64"`
	GuestName        string              `validate:"required,max=200"`
	Guests           int                 `validate:"gte=0,lte=50"`
	CheckIn          time.Time           `validate:"required"`
	CheckOut         time.Time           `validate:"required,gtfield=CheckIn"`
	Payout           decimal.NullDecimal `validate:"omitempty,gte=0"`
	CleaningFee      decimal.NullDecimal `validate:"omitempty,gte=0"`
	Notes            string              `validate:"max=2000"`
}

// BookingUpdate is an edit of a stored booking. Nil pointers and unset
// decimals leave the stored value unchanged.
type BookingUpdate struct {
	GuestName         *string               `validate:"omitempty,max=200"`
	Guests            *int                  `validate:"omitempty,gte=0,lte=50"`
	CheckIn           *time.Time
	CheckOut          *time.Time
	Source            *models.Source        `validate:"omitempty,oneof=Airbnb Private Owners2"`
	PaymentMethod     *models.PaymentMethod `validate:"omitempty,oneof=cash card no_pay platform"`
	GuestType         *models.GuestType     `validate:"omitempty,max=50"`
	Status            *models.Status        `validate:"omitempty,oneof=Upcoming Ongoing Past Active Done Cancelled Canceled cancelled canceled"`
	Payout            decimal.NullDecimal   `validate:"omitempty,gte=0"`
	CleaningFee       decimal.NullDecimal   `validate:"omitempty,gte=0"`
	TaxPercent        decimal.NullDecimal   `validate:"omitempty,gte=0,lte=100"`
	CommissionPercent decimal.NullDecimal   `validate:"omitempty,gte=0,lte=100"`
	IsPaid            *bool
	Notes             *string               `validate:"omitempty,max=2000"`
	CheckInNotes      *string               `validate:"omitempty,max=2000"`
	CheckOutNotes     *string               `validate:"omitempty,max=2000"`
}

// newValidator returns a validator that understands decimal fields.
// Unset decimals are treated as empty; set ones are compared numerically.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch d := field.Interface().(type) {
		case decimal.NullDecimal:
			if !d.Valid {
				return nil
			}
			f, _ := d.Decimal.Float64()
			return f
		case decimal.Decimal:
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.NullDecimal{}, decimal.Decimal{})
	return v
}

// validateInput runs struct validation and reports failures as ErrInvalidInput.
func validateInput(v *validator.Validate, in any) error {
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// NewConfirmationCode returns an office confirmation code: "O2M" followed by
// seven upper-case hex digits.
func NewConfirmationCode() string {
	id := uuid.New()
	return "O2M" + strings.ToUpper(fmt.Sprintf("%x", id[:4])[:7])
}

func privateReservationBooking(in PrivateReservationInput) *models.Booking {
	method := in.PaymentMethod
	if method == "" {
		method = models.PaymentCash
	}
	guestType := in.GuestType
	if guestType == "" {
		guestType = models.GuestNew
	}

	b := &models.Booking{
		UnitID:           in.UnitID,
		ConfirmationCode: NewConfirmationCode(),
		GuestName:        strings.TrimSpace(in.GuestName),
		Guests:           in.Guests,
		CheckIn:          in.CheckIn,
		CheckOut:         in.CheckOut,
		Source:           models.SourcePrivate,
		PaymentMethod:    method,
		GuestType:        guestType,
		IsPaid:           in.IsPaid,
		Payout:           in.Payout,
		CleaningFee:      in.CleaningFee,
		Notes:            strings.TrimSpace(in.Notes),
	}
	if stay.DaysBetween(in.CheckIn, in.CheckOut) > longStayNights {
		b.CheckInNotes = meterNote
		b.CheckOutNotes = meterNote
	}
	return b
}

func ownerStayBooking(in OwnerStayInput) *models.Booking {
	paid := true
	notes := ownerGuestName
	if n := strings.TrimSpace(in.Notes); n != "" {
		notes = ownerGuestName + ": " + n
	}
	return &models.Booking{
		UnitID:           in.UnitID,
		ConfirmationCode: NewConfirmationCode(),
		GuestName:        ownerGuestName,
		Guests:           in.Guests,
		CheckIn:          in.CheckIn,
		CheckOut:         in.CheckOut,
		Source:           models.SourcePrivate,
		PaymentMethod:    models.PaymentNoPay,
		GuestType:        models.GuestOwner,
		IsPaid:           &paid,
		Payout:           decimal.NullDecimal{Decimal: decimal.Zero, Valid: true},
		Notes:            notes,
	}
}

func airbnbBooking(in AirbnbBookingInput) *models.Booking {
	return &models.Booking{
		UnitID:           in.UnitID,
		ConfirmationCode: strings.TrimSpace(in.ConfirmationCode),
		GuestName:        strings.TrimSpace(in.GuestName),
		Guests:           in.Guests,
		CheckIn:          in.CheckIn,
		CheckOut:         in.CheckOut,
		Source:           models.SourceAirbnb,
		PaymentMethod:    models.PaymentPlatform,
		GuestType:        models.GuestAirbnb,
		Payout:           in.Payout,
		CleaningFee:      in.CleaningFee,
		Notes:            strings.TrimSpace(in.Notes),
	}
}

// apply merges the set fields of u into b.
func (u BookingUpdate) apply(b *models.Booking) {
	if u.GuestName != nil {
		b.GuestName = strings.TrimSpace(*u.GuestName)
	}
	if u.Guests != nil {
		b.Guests = *u.Guests
	}
	if u.CheckIn != nil {
		b.CheckIn = *u.CheckIn
	}
	if u.CheckOut != nil {
		b.CheckOut = *u.CheckOut
	}
	if u.Source != nil {
		b.Source = *u.Source
	}
	if u.PaymentMethod != nil {
		b.PaymentMethod = *u.PaymentMethod
	}
	if u.GuestType != nil {
		b.GuestType = *u.GuestType
	}
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.Payout.Valid {
		b.Payout = u.Payout
	}
	if u.CleaningFee.Valid {
		b.CleaningFee = u.CleaningFee
	}
	if u.TaxPercent.Valid {
		b.TaxPercent = u.TaxPercent
	}
	if u.CommissionPercent.Valid {
		b.CommissionPercent = u.CommissionPercent
	}
	if u.IsPaid != nil {
		paid := *u.IsPaid
		b.IsPaid = &paid
	}
	if u.Notes != nil {
		b.Notes = *u.Notes
	}
	if u.CheckInNotes != nil {
		b.CheckInNotes = *u.CheckInNotes
	}
	if u.CheckOutNotes != nil {
		b.CheckOutNotes = *u.CheckOutNotes
	}
}
