package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/stay"
)

// CommissionLine is the commission earned by one group in a month.
type CommissionLine struct {
	Key          string
	UnitID       int64
	City         string
	Source       models.Source
	O2Commission decimal.Decimal
}

// PayoutLine is the payout of one city in a month.
type PayoutLine struct {
	City        string
	NetPayout   decimal.Decimal
	OwnerPayout decimal.Decimal
}

// MonthMetrics summarizes the slices of one month.
type MonthMetrics struct {
	YearMonth              string
	CommissionByUnit       []CommissionLine
	CommissionByCity       []CommissionLine
	CommissionBySource     []CommissionLine
	CommissionBySourceCity []CommissionLine
	PayoutByCity           []PayoutLine
	NetPayoutTotal         decimal.Decimal
	OwnerPayoutTotal       decimal.Decimal
	CommissionTotal        decimal.Decimal
}

// UnitMonthStatement is the owner statement of one unit for one month.
type UnitMonthStatement struct {
	UnitID         int64
	YearMonth      string
	Nights         int
	Payout         decimal.Decimal
	Tax            decimal.Decimal
	NetPayout      decimal.Decimal
	CleaningFees   decimal.Decimal
	CommissionBase decimal.Decimal
	O2Commission   decimal.Decimal
	OwnerPayout    decimal.Decimal
	Slices         []*models.MonthSlice
}

// MonthMetrics aggregates every slice of yearMonth (YYYY-MM).
func (m *Manager) MonthMetrics(ctx context.Context, yearMonth string) (*MonthMetrics, error) {
	if _, err := stay.ParseMonth(yearMonth); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	slices, err := m.store.ListSlicesByMonth(ctx, yearMonth)
	if err != nil {
		return nil, err
	}

	byUnit := map[string]*CommissionLine{}
	byCity := map[string]*CommissionLine{}
	bySource := map[string]*CommissionLine{}
	bySourceCity := map[string]*CommissionLine{}
	payouts := map[string]*PayoutLine{}

	out := &MonthMetrics{YearMonth: yearMonth}
	for _, s := range slices {
		add := func(lines map[string]*CommissionLine, key string, line CommissionLine) {
			l, ok := lines[key]
			if !ok {
				line.Key = key
				l = &line
				lines[key] = l
			}
			l.O2Commission = l.O2Commission.Add(s.O2CommissionInMonth)
		}
		add(byUnit, fmt.Sprintf("%d", s.UnitID), CommissionLine{UnitID: s.UnitID, City: s.City})
		add(byCity, s.City, CommissionLine{City: s.City})
		add(bySource, string(s.Source), CommissionLine{Source: s.Source})
		add(bySourceCity, s.City+"/"+string(s.Source), CommissionLine{City: s.City, Source: s.Source})

		p, ok := payouts[s.City]
		if !ok {
			p = &PayoutLine{City: s.City}
			payouts[s.City] = p
		}
		p.NetPayout = p.NetPayout.Add(s.NetPayoutInMonth)
		p.OwnerPayout = p.OwnerPayout.Add(s.OwnerPayoutInMonth)

		out.NetPayoutTotal = out.NetPayoutTotal.Add(s.NetPayoutInMonth)
		out.OwnerPayoutTotal = out.OwnerPayoutTotal.Add(s.OwnerPayoutInMonth)
		out.CommissionTotal = out.CommissionTotal.Add(s.O2CommissionInMonth)
	}

	out.CommissionByUnit = sortedLines(byUnit)
	out.CommissionByCity = sortedLines(byCity)
	out.CommissionBySource = sortedLines(bySource)
	out.CommissionBySourceCity = sortedLines(bySourceCity)

	cities := make([]string, 0, len(payouts))
	for c := range payouts {
		cities = append(cities, c)
	}
	sort.Strings(cities)
	for _, c := range cities {
		out.PayoutByCity = append(out.PayoutByCity, *payouts[c])
	}
	return out, nil
}

// UnitStatement totals the slices of one unit in yearMonth.
func (m *Manager) UnitStatement(ctx context.Context, unitID int64, yearMonth string) (*UnitMonthStatement, error) {
	if _, err := stay.ParseMonth(yearMonth); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	slices, err := m.store.ListSlicesByUnitMonth(ctx, unitID, yearMonth)
	if err != nil {
		return nil, err
	}

	st := &UnitMonthStatement{UnitID: unitID, YearMonth: yearMonth, Slices: slices}
	for _, s := range slices {
		st.Nights += s.NightsInMonth
		st.Payout = st.Payout.Add(s.PayoutInMonth)
		st.Tax = st.Tax.Add(s.TaxInMonth)
		st.NetPayout = st.NetPayout.Add(s.NetPayoutInMonth)
		st.CleaningFees = st.CleaningFees.Add(s.CleaningFeeInMonth)
		st.CommissionBase = st.CommissionBase.Add(s.CommissionBaseInMonth)
		st.O2Commission = st.O2Commission.Add(s.O2CommissionInMonth)
		st.OwnerPayout = st.OwnerPayout.Add(s.OwnerPayoutInMonth)
	}
	return st, nil
}

func sortedLines(lines map[string]*CommissionLine) []CommissionLine {
	out := make([]CommissionLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitID != out[j].UnitID {
			return out[i].UnitID < out[j].UnitID
		}
		return out[i].Key < out[j].Key
	})
	return out
}
