package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/ledger"
	"github.com/mmynk/stayledger/internal/models"
)

// Booking is the wire form of a stored booking.
type Booking struct {
	ID               int64  `json:"id"`
	UnitID           int64  `json:"unitId"`
	ConfirmationCode string `json:"confirmationCode"`
	GuestName        string `json:"guestName"`
	City             string `json:"city"`
	Guests           int    `json:"guests"`

	CheckIn  time.Time `json:"checkIn"`
	CheckOut time.Time `json:"checkOut"`
	Days     int       `json:"days"`

	Source        string `json:"source"`
	PaymentMethod string `json:"paymentMethod"`
	GuestType     string `json:"guestType"`
	Status        string `json:"status"`
	IsPaid        *bool  `json:"isPaid,omitempty"`

	Payout            decimal.NullDecimal `json:"payout"`
	CleaningFee       decimal.NullDecimal `json:"cleaningFee"`
	TaxPercent        decimal.NullDecimal `json:"taxPercent"`
	TaxAmount         decimal.NullDecimal `json:"taxAmount"`
	CommissionPercent decimal.NullDecimal `json:"commissionPercent"`
	CommissionBase    decimal.NullDecimal `json:"commissionBase"`
	NetPayout         decimal.Decimal     `json:"netPayout"`
	CommissionValue   decimal.Decimal     `json:"commissionValue"`
	ClientIncome      decimal.Decimal     `json:"clientIncome"`
	O2Total           decimal.Decimal     `json:"o2Total"`
	RoomFee           decimal.Decimal     `json:"roomFee"`

	Notes          string `json:"notes,omitempty"`
	CheckInNotes   string `json:"checkInNotes,omitempty"`
	CheckOutNotes  string `json:"checkOutNotes,omitempty"`
	LastUpdatedVia string `json:"lastUpdatedVia"`
	LastUpdatedAt  int64  `json:"lastUpdatedAt"`
	CreatedAt      int64  `json:"createdAt"`
}

// MonthSlice is the wire form of one booking-month slice.
type MonthSlice struct {
	BookingID     int64  `json:"bookingId"`
	UnitID        int64  `json:"unitId"`
	City          string `json:"city"`
	Source        string `json:"source"`
	PaymentMethod string `json:"paymentMethod"`
	GuestType     string `json:"guestType"`
	YearMonth     string `json:"yearMonth"`
	MonthStart    string `json:"monthStart"`
	MonthEnd      string `json:"monthEnd"`
	NightsTotal   int    `json:"nightsTotal"`
	NightsInMonth int    `json:"nightsInMonth"`

	RoomFeeInMonth        decimal.Decimal `json:"roomFeeInMonth"`
	PayoutInMonth         decimal.Decimal `json:"payoutInMonth"`
	TaxInMonth            decimal.Decimal `json:"taxInMonth"`
	NetPayoutInMonth      decimal.Decimal `json:"netPayoutInMonth"`
	CleaningFeeInMonth    decimal.Decimal `json:"cleaningFeeInMonth"`
	O2CommissionInMonth   decimal.Decimal `json:"o2CommissionInMonth"`
	OwnerPayoutInMonth    decimal.Decimal `json:"ownerPayoutInMonth"`
	CommissionBaseInMonth decimal.Decimal `json:"commissionBaseInMonth"`
}

type CommissionLine struct {
	Key          string          `json:"key"`
	UnitID       int64           `json:"unitId,omitempty"`
	City         string          `json:"city,omitempty"`
	Source       string          `json:"source,omitempty"`
	O2Commission decimal.Decimal `json:"o2Commission"`
}

type PayoutLine struct {
	City        string          `json:"city"`
	NetPayout   decimal.Decimal `json:"netPayout"`
	OwnerPayout decimal.Decimal `json:"ownerPayout"`
}

type CleaningRate struct {
	ID            int64           `json:"id"`
	UnitID        int64           `json:"unitId"`
	City          string          `json:"city"`
	Amount        decimal.Decimal `json:"amount"`
	EffectiveFrom string          `json:"effectiveFrom"`
	EffectiveTo   string          `json:"effectiveTo,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// Dates in requests are YYYY-MM-DD in the hotel time zone, or RFC 3339.

type CreatePrivateReservationRequest struct {
	UnitID        int64               `json:"unitId"`
	GuestName     string              `json:"guestName"`
	Guests        int                 `json:"guests"`
	CheckIn       string              `json:"checkIn"`
	CheckOut      string              `json:"checkOut"`
	PaymentMethod string              `json:"paymentMethod"`
	GuestType     string              `json:"guestType"`
	Payout        decimal.NullDecimal `json:"payout"`
	CleaningFee   decimal.NullDecimal `json:"cleaningFee"`
	IsPaid        *bool               `json:"isPaid"`
	Notes         string              `json:"notes"`
}

type CreateOwnerStayRequest struct {
	UnitID   int64  `json:"unitId"`
	Guests   int    `json:"guests"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Notes    string `json:"notes"`
}

type CreateAirbnbBookingRequest struct {
	UnitID           int64               `json:"unitId"`
	ConfirmationCode string              `json:"confirmationCode"`
	GuestName        string              `json:"guestName"`
	Guests           int                 `json:"guests"`
	CheckIn          string              `json:"checkIn"`
	CheckOut         string              `json:"checkOut"`
	Payout           decimal.NullDecimal `json:"payout"`
	CleaningFee      decimal.NullDecimal `json:"cleaningFee"`
	Notes            string              `json:"notes"`
}

// UpdateBookingRequest edits a booking. Omitted fields keep their stored value.
type UpdateBookingRequest struct {
	BookingID         int64               `json:"bookingId"`
	GuestName         *string             `json:"guestName"`
	Guests            *int                `json:"guests"`
	CheckIn           *string             `json:"checkIn"`
	CheckOut          *string             `json:"checkOut"`
	Source            *string             `json:"source"`
	PaymentMethod     *string             `json:"paymentMethod"`
	GuestType         *string             `json:"guestType"`
	Status            *string             `json:"status"`
	Payout            decimal.NullDecimal `json:"payout"`
	CleaningFee       decimal.NullDecimal `json:"cleaningFee"`
	TaxPercent        decimal.NullDecimal `json:"taxPercent"`
	CommissionPercent decimal.NullDecimal `json:"commissionPercent"`
	IsPaid            *bool               `json:"isPaid"`
	Notes             *string             `json:"notes"`
	CheckInNotes      *string             `json:"checkInNotes"`
	CheckOutNotes     *string             `json:"checkOutNotes"`
}

type CancelBookingRequest struct {
	BookingID      int64               `json:"bookingId"`
	ResidualPayout decimal.NullDecimal `json:"residualPayout"`
}

type BookingRequest struct {
	BookingID int64 `json:"bookingId"`
}

type BookingResponse struct {
	Booking *Booking `json:"booking"`
}

type RefreshMonthSlicesResponse struct {
	Written int `json:"written"`
}

type ListMonthSlicesResponse struct {
	Slices []*MonthSlice `json:"slices"`
}

type MonthMetricsRequest struct {
	YearMonth string `json:"yearMonth"`
}

type MonthMetricsResponse struct {
	YearMonth              string           `json:"yearMonth"`
	CommissionByUnit       []CommissionLine `json:"commissionByUnit"`
	CommissionByCity       []CommissionLine `json:"commissionByCity"`
	CommissionBySource     []CommissionLine `json:"commissionBySource"`
	CommissionBySourceCity []CommissionLine `json:"commissionBySourceCity"`
	PayoutByCity           []PayoutLine     `json:"payoutByCity"`
	NetPayoutTotal         decimal.Decimal  `json:"netPayoutTotal"`
	OwnerPayoutTotal       decimal.Decimal  `json:"ownerPayoutTotal"`
	CommissionTotal        decimal.Decimal  `json:"commissionTotal"`
}

type UnitStatementRequest struct {
	UnitID    int64  `json:"unitId"`
	YearMonth string `json:"yearMonth"`
}

type UnitStatementResponse struct {
	UnitID         int64           `json:"unitId"`
	YearMonth      string          `json:"yearMonth"`
	Nights         int             `json:"nights"`
	Payout         decimal.Decimal `json:"payout"`
	Tax            decimal.Decimal `json:"tax"`
	NetPayout      decimal.Decimal `json:"netPayout"`
	CleaningFees   decimal.Decimal `json:"cleaningFees"`
	CommissionBase decimal.Decimal `json:"commissionBase"`
	O2Commission   decimal.Decimal `json:"o2Commission"`
	OwnerPayout    decimal.Decimal `json:"ownerPayout"`
	Slices         []*MonthSlice   `json:"slices"`
}

type SetCleaningRateRequest struct {
	UnitID        int64           `json:"unitId"`
	City          string          `json:"city"`
	Amount        decimal.Decimal `json:"amount"`
	EffectiveFrom string          `json:"effectiveFrom"`
	Notes         string          `json:"notes"`
}

type SetCleaningRateResponse struct {
	Rate *CleaningRate `json:"rate"`
}

type Unit struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	City        string              `json:"city"`
	PaymentType string              `json:"paymentType"`
	CleaningFee decimal.NullDecimal `json:"cleaningFee"`
}

type SaveUnitRequest struct {
	Unit *Unit `json:"unit"`
}

type SaveUnitResponse struct {
	Unit *Unit `json:"unit"`
}

type FinancialConfig struct {
	Code                        string              `json:"code"`
	DefaultTaxPercentage        decimal.NullDecimal `json:"defaultTaxPercentage"`
	DefaultCommissionPercentage decimal.NullDecimal `json:"defaultCommissionPercentage"`
}

type SaveFinancialConfigRequest struct {
	Config *FinancialConfig `json:"config"`
}

type SaveFinancialConfigResponse struct {
	Config *FinancialConfig `json:"config"`
}

type SweepStatusesRequest struct{}

type SweepStatusesResponse struct {
	Updated           int `json:"updated"`
	Done              int `json:"done"`
	CleaningsCanceled int `json:"cleaningsCanceled"`
}

func parseDate(field, s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339, got %q", ledger.ErrInvalidInput, field, s)
	}
	return t, nil
}

func parseDatePtr(field string, s *string, loc *time.Location) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseDate(field, *s, loc)
	if err != nil {
		return nil, err
	}
	if t.IsZero() {
		return nil, nil
	}
	return &t, nil
}

func (r *CreatePrivateReservationRequest) input(loc *time.Location) (ledger.PrivateReservationInput, error) {
	checkIn, err := parseDate("checkIn", r.CheckIn, loc)
	if err != nil {
		return ledger.PrivateReservationInput{}, err
	}
	checkOut, err := parseDate("checkOut", r.CheckOut, loc)
	if err != nil {
		return ledger.PrivateReservationInput{}, err
	}
	return ledger.PrivateReservationInput{
		UnitID:        r.UnitID,
		GuestName:     r.GuestName,
		Guests:        r.Guests,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		PaymentMethod: models.PaymentMethod(r.PaymentMethod),
		GuestType:     models.GuestType(r.GuestType),
		Payout:        r.Payout,
		CleaningFee:   r.CleaningFee,
		IsPaid:        r.IsPaid,
		Notes:         r.Notes,
	}, nil
}

func (r *CreateOwnerStayRequest) input(loc *time.Location) (ledger.OwnerStayInput, error) {
	checkIn, err := parseDate("checkIn", r.CheckIn, loc)
	if err != nil {
		return ledger.OwnerStayInput{}, err
	}
	checkOut, err := parseDate("checkOut", r.CheckOut, loc)
	if err != nil {
		return ledger.OwnerStayInput{}, err
	}
	return ledger.OwnerStayInput{
		UnitID:   r.UnitID,
		Guests:   r.Guests,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Notes:    r.Notes,
	}, nil
}

func (r *CreateAirbnbBookingRequest) input(loc *time.Location) (ledger.AirbnbBookingInput, error) {
	checkIn, err := parseDate("checkIn", r.CheckIn, loc)
	if err != nil {
		return ledger.AirbnbBookingInput{}, err
	}
	checkOut, err := parseDate("checkOut", r.CheckOut, loc)
	if err != nil {
		return ledger.AirbnbBookingInput{}, err
	}
	return ledger.AirbnbBookingInput{
		UnitID:           r.UnitID,
		ConfirmationCode: r.ConfirmationCode,
		GuestName:        r.GuestName,
		Guests:           r.Guests,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Payout:           r.Payout,
		CleaningFee:      r.CleaningFee,
		Notes:            r.Notes,
	}, nil
}

func (r *UpdateBookingRequest) update(loc *time.Location) (ledger.BookingUpdate, error) {
	checkIn, err := parseDatePtr("checkIn", r.CheckIn, loc)
	if err != nil {
		return ledger.BookingUpdate{}, err
	}
	checkOut, err := parseDatePtr("checkOut", r.CheckOut, loc)
	if err != nil {
		return ledger.BookingUpdate{}, err
	}

	upd := ledger.BookingUpdate{
		GuestName:         r.GuestName,
		Guests:            r.Guests,
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		Payout:            r.Payout,
		CleaningFee:       r.CleaningFee,
		TaxPercent:        r.TaxPercent,
		CommissionPercent: r.CommissionPercent,
		IsPaid:            r.IsPaid,
		Notes:             r.Notes,
		CheckInNotes:      r.CheckInNotes,
		CheckOutNotes:     r.CheckOutNotes,
	}
	if r.Source != nil {
		v := models.Source(*r.Source)
		upd.Source = &v
	}
	if r.PaymentMethod != nil {
		v := models.PaymentMethod(*r.PaymentMethod)
		upd.PaymentMethod = &v
	}
	if r.GuestType != nil {
		v := models.GuestType(*r.GuestType)
		upd.GuestType = &v
	}
	if r.Status != nil {
		v := models.Status(*r.Status)
		upd.Status = &v
	}
	return upd, nil
}

func toBooking(b *models.Booking) *Booking {
	return &Booking{
		ID:                b.ID,
		UnitID:            b.UnitID,
		ConfirmationCode:  b.ConfirmationCode,
		GuestName:         b.GuestName,
		City:              b.City,
		Guests:            b.Guests,
		CheckIn:           b.CheckIn,
		CheckOut:          b.CheckOut,
		Days:              b.Days,
		Source:            string(b.Source),
		PaymentMethod:     string(b.PaymentMethod),
		GuestType:         string(b.GuestType),
		Status:            string(b.Status),
		IsPaid:            b.IsPaid,
		Payout:            b.Payout,
		CleaningFee:       b.CleaningFee,
		TaxPercent:        b.TaxPercent,
		TaxAmount:         b.TaxAmount,
		CommissionPercent: b.CommissionPercent,
		CommissionBase:    b.CommissionBase,
		NetPayout:         b.NetPayout,
		CommissionValue:   b.CommissionValue,
		ClientIncome:      b.ClientIncome,
		O2Total:           b.O2Total,
		RoomFee:           b.RoomFee,
		Notes:             b.Notes,
		CheckInNotes:      b.CheckInNotes,
		CheckOutNotes:     b.CheckOutNotes,
		LastUpdatedVia:    b.LastUpdatedVia,
		LastUpdatedAt:     b.LastUpdatedAt,
		CreatedAt:         b.CreatedAt,
	}
}

func toMonthSlices(slices []*models.MonthSlice) []*MonthSlice {
	out := make([]*MonthSlice, len(slices))
	for i, s := range slices {
		out[i] = &MonthSlice{
			BookingID:             s.BookingID,
			UnitID:                s.UnitID,
			City:                  s.City,
			Source:                string(s.Source),
			PaymentMethod:         string(s.PaymentMethod),
			GuestType:             string(s.GuestType),
			YearMonth:             s.YearMonth,
			MonthStart:            s.MonthStart.Format(time.DateOnly),
			MonthEnd:              s.MonthEnd.Format(time.DateOnly),
			NightsTotal:           s.NightsTotal,
			NightsInMonth:         s.NightsInMonth,
			RoomFeeInMonth:        s.RoomFeeInMonth,
			PayoutInMonth:         s.PayoutInMonth,
			TaxInMonth:            s.TaxInMonth,
			NetPayoutInMonth:      s.NetPayoutInMonth,
			CleaningFeeInMonth:    s.CleaningFeeInMonth,
			O2CommissionInMonth:   s.O2CommissionInMonth,
			OwnerPayoutInMonth:    s.OwnerPayoutInMonth,
			CommissionBaseInMonth: s.CommissionBaseInMonth,
		}
	}
	return out
}

func toCommissionLines(lines []ledger.CommissionLine) []CommissionLine {
	out := make([]CommissionLine, len(lines))
	for i, l := range lines {
		out[i] = CommissionLine{
			Key:          l.Key,
			UnitID:       l.UnitID,
			City:         l.City,
			Source:       string(l.Source),
			O2Commission: l.O2Commission,
		}
	}
	return out
}

func toMonthMetrics(m *ledger.MonthMetrics) *MonthMetricsResponse {
	payouts := make([]PayoutLine, len(m.PayoutByCity))
	for i, p := range m.PayoutByCity {
		payouts[i] = PayoutLine{City: p.City, NetPayout: p.NetPayout, OwnerPayout: p.OwnerPayout}
	}
	return &MonthMetricsResponse{
		YearMonth:              m.YearMonth,
		CommissionByUnit:       toCommissionLines(m.CommissionByUnit),
		CommissionByCity:       toCommissionLines(m.CommissionByCity),
		CommissionBySource:     toCommissionLines(m.CommissionBySource),
		CommissionBySourceCity: toCommissionLines(m.CommissionBySourceCity),
		PayoutByCity:           payouts,
		NetPayoutTotal:         m.NetPayoutTotal,
		OwnerPayoutTotal:       m.OwnerPayoutTotal,
		CommissionTotal:        m.CommissionTotal,
	}
}

func toUnitStatement(st *ledger.UnitMonthStatement) *UnitStatementResponse {
	return &UnitStatementResponse{
		UnitID:         st.UnitID,
		YearMonth:      st.YearMonth,
		Nights:         st.Nights,
		Payout:         st.Payout,
		Tax:            st.Tax,
		NetPayout:      st.NetPayout,
		CleaningFees:   st.CleaningFees,
		CommissionBase: st.CommissionBase,
		O2Commission:   st.O2Commission,
		OwnerPayout:    st.OwnerPayout,
		Slices:         toMonthSlices(st.Slices),
	}
}

func toCleaningRate(r *models.CleaningRate) *CleaningRate {
	return &CleaningRate{
		ID:            r.ID,
		UnitID:        r.UnitID,
		City:          r.City,
		Amount:        r.Amount,
		EffectiveFrom: r.EffectiveFrom,
		EffectiveTo:   r.EffectiveTo,
		Notes:         r.Notes,
	}
}

func (u *Unit) input() ledger.UnitInput {
	if u == nil {
		return ledger.UnitInput{}
	}
	return ledger.UnitInput{
		ID:          u.ID,
		Name:        u.Name,
		City:        u.City,
		PaymentType: models.PaymentType(u.PaymentType),
		CleaningFee: u.CleaningFee,
	}
}

func toUnit(u *models.Unit) *Unit {
	return &Unit{
		ID:          u.ID,
		Name:        u.Name,
		City:        u.City,
		PaymentType: string(u.PaymentType),
		CleaningFee: u.CleaningFee,
	}
}

func (c *FinancialConfig) input() ledger.FinancialConfigInput {
	if c == nil {
		return ledger.FinancialConfigInput{}
	}
	return ledger.FinancialConfigInput{
		Code:                        c.Code,
		DefaultTaxPercentage:        c.DefaultTaxPercentage,
		DefaultCommissionPercentage: c.DefaultCommissionPercentage,
	}
}

func toFinancialConfig(c *models.FinancialConfig) *FinancialConfig {
	return &FinancialConfig{
		Code:                        c.Code,
		DefaultTaxPercentage:        c.DefaultTaxPercentage,
		DefaultCommissionPercentage: c.DefaultCommissionPercentage,
	}
}
