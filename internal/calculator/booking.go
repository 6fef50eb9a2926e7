package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/money"
	"github.com/mmynk/stayledger/internal/stay"
)

// Recalculate derives tax, commission, payout and room fee fields of a booking
// from its current attributes. It mutates and returns b and performs no I/O.
//
// Branches, first match wins:
//   - Cancelled: tax is kept as entered, cleaning fee is zeroed, room fee is 0
//   - no_pay (owner stays): everything zero, the owner is charged the cleaning fee
//   - Client unit + Airbnb: no tax, the client collects so client income is 0
//   - Client unit + Private: tax only on card payments
//   - otherwise (Owners2 units): configured tax on the full payout
//
// now is used to re-derive Past / Upcoming / Ongoing for non-cancelled bookings.
func Recalculate(b *models.Booking, unit *models.Unit, cfg *models.FinancialConfig, now time.Time) *models.Booking {
	initDefaults(b)

	if b.Status.IsCancelled() {
		recalculateCancelled(b, unit)
		return b
	}

	payout := b.Payout.Decimal
	cleaningFee := b.CleaningFee.Decimal
	commissionPercent := b.CommissionPercent.Decimal
	days := stay.Nights(b.CheckIn, b.CheckOut)

	configTax := decimal.Zero
	if cfg != nil {
		configTax = money.Or(cfg.DefaultTaxPercentage, decimal.Zero)
	}

	taxPercent := configTax
	taxAmount := decimal.Zero
	netPayout := payout
	commissionBase := decimal.Zero
	commissionValue := decimal.Zero
	clientIncome := decimal.Zero
	o2Total := decimal.Zero

	isClient := unit != nil && unit.PaymentType.IsClient()

	switch {
	case b.PaymentMethod == models.PaymentNoPay:
		payout = decimal.Zero
		b.Payout = money.Some(payout)
		taxPercent = decimal.Zero
		netPayout = decimal.Zero
		clientIncome = cleaningFee.Neg()
		o2Total = cleaningFee

	case isClient && b.Source == models.SourceAirbnb:
		taxPercent = decimal.Zero
		commissionBase, commissionValue = Commission(netPayout, cleaningFee, commissionPercent)
		o2Total = commissionValue.Add(cleaningFee)

	case isClient && b.Source == models.SourcePrivate:
		if b.PaymentMethod == models.PaymentCard {
			taxPercent = configTax
		} else {
			taxPercent = decimal.Zero
		}
		taxAmount = money.Round(money.Percent(payout, taxPercent))
		netPayout = payout.Sub(taxAmount)
		commissionBase, commissionValue = Commission(netPayout, cleaningFee, commissionPercent)
		clientIncome = netPayout.Sub(cleaningFee).Sub(commissionValue)
		o2Total = commissionValue.Add(cleaningFee)

	case isClient:
		// Client units with any other source keep the neutral defaults.

	default:
		taxAmount = money.Round(money.Percent(payout, taxPercent))
		netPayout = payout.Sub(taxAmount)
		commissionBase, commissionValue = Commission(netPayout, cleaningFee, commissionPercent)
		clientIncome = netPayout.Sub(cleaningFee).Sub(commissionValue)
		o2Total = commissionValue.Add(cleaningFee)
	}

	roomFee := decimal.Zero
	if b.PaymentMethod != models.PaymentNoPay {
		roomFee = RoomFee(payout, cleaningFee, days)
	}

	b.TaxPercent = money.Some(taxPercent)
	b.TaxAmount = money.Some(taxAmount)
	b.NetPayout = money.Round(netPayout)
	b.CommissionBase = money.Some(commissionBase)
	b.CommissionValue = commissionValue
	b.ClientIncome = money.Round(clientIncome)
	b.O2Total = money.Round(o2Total)
	b.RoomFee = roomFee

	b.Status = StatusAt(b.CheckIn, b.CheckOut, now)
	return b
}

func recalculateCancelled(b *models.Booking, unit *models.Unit) {
	b.CleaningFee = money.Some(decimal.Zero)

	taxAmount := b.TaxAmount.Decimal
	netPayout := b.Payout.Decimal.Sub(taxAmount)
	base, value := Commission(netPayout, decimal.Zero, b.CommissionPercent.Decimal)

	clientIncome := netPayout.Sub(value)
	if unit != nil && unit.PaymentType.IsClient() {
		clientIncome = decimal.Zero
	}

	b.NetPayout = money.Round(netPayout)
	b.CommissionBase = money.Some(base)
	b.CommissionValue = value
	b.ClientIncome = money.Round(clientIncome)
	b.O2Total = value
	b.RoomFee = decimal.Zero
	b.Status = models.StatusCancelled
}

// Commission returns the commission base, round(max(0, net − cleaning), 2),
// and the commission value, round(base × pct / 100, 2).
func Commission(netPayout, cleaningFee, percent decimal.Decimal) (base, value decimal.Decimal) {
	base = money.Round(money.Floor0(netPayout.Sub(cleaningFee)))
	value = money.Round(money.Percent(base, percent))
	return base, value
}

// RoomFee is the average nightly fee net of cleaning, or 0 for stays without nights.
func RoomFee(payout, cleaningFee decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return money.Round(payout.Sub(cleaningFee).Div(decimal.NewFromInt(int64(days))))
}

// StatusAt derives the date-driven status of a stay relative to now.
func StatusAt(checkIn, checkOut, now time.Time) models.Status {
	switch {
	case !checkOut.IsZero() && checkOut.Before(now):
		return models.StatusPast
	case !checkIn.IsZero() && checkIn.After(now):
		return models.StatusUpcoming
	default:
		return models.StatusOngoing
	}
}

func initDefaults(b *models.Booking) {
	if b.Status == "" {
		b.Status = models.StatusUpcoming
	}
	for _, f := range []*decimal.NullDecimal{
		&b.Payout, &b.CleaningFee, &b.TaxPercent, &b.TaxAmount, &b.CommissionPercent,
	} {
		if !f.Valid {
			*f = money.Some(decimal.Zero)
		}
	}
}
