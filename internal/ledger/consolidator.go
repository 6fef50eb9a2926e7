package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/stayledger/internal/calculator"
	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/money"
	"github.com/mmynk/stayledger/internal/stay"
	"github.com/mmynk/stayledger/internal/storage"
)

// ConsolidationPolicy decides which figures survive the final consolidation pass.
type ConsolidationPolicy string

const (
	// PolicyConsolidationWins recomputes client income and O2 total from the
	// commission base for every booking. Historical statements were produced this way.
	PolicyConsolidationWins ConsolidationPolicy = "consolidation-wins"
	// PolicyCalculatorWins keeps the client income and O2 total chosen by the
	// calculator branch and only re-derives the commission value.
	PolicyCalculatorWins ConsolidationPolicy = "calculator-wins"
)

// ParsePolicy accepts the policy names above. Empty selects consolidation-wins.
func ParsePolicy(s string) (ConsolidationPolicy, error) {
	switch p := ConsolidationPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyConsolidationWins, nil
	case PolicyConsolidationWins, PolicyCalculatorWins:
		return p, nil
	default:
		return "", fmt.Errorf("unknown consolidation policy %q", s)
	}
}

// DefaultClientCardConfigCode is the configuration applied to card-paid
// private stays in client units.
const DefaultClientCardConfigCode = "privcard_0825"

var (
	overrideTaxPercent        = decimal.NewFromInt(10)
	overrideCommissionPercent = decimal.NewFromInt(20)
)

// configSource is what consolidation reads from storage.
type configSource interface {
	storage.UnitStore
	storage.ConfigStore
}

// Consolidator prepares a booking for persistence: it picks the financial
// configuration, applies guest-type rules, runs the calculator and settles
// the final status and commission figures.
type Consolidator struct {
	loc          *time.Location
	clock        Clock
	policy       ConsolidationPolicy
	overrideCode string
}

// NewConsolidator creates a Consolidator. A nil location means time.Local.
func NewConsolidator(loc *time.Location, clock Clock, policy ConsolidationPolicy, overrideCode string) *Consolidator {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = SystemClock
	}
	if policy == "" {
		policy = PolicyConsolidationWins
	}
	if overrideCode == "" {
		overrideCode = DefaultClientCardConfigCode
	}
	return &Consolidator{loc: loc, clock: clock, policy: policy, overrideCode: overrideCode}
}

// Policy returns the consolidation policy in effect.
func (c *Consolidator) Policy() ConsolidationPolicy {
	return c.policy
}

// Consolidate recomputes every derived field of b in place. It returns a
// *ConfigurationError when the unit or the configuration cannot be found.
func (c *Consolidator) Consolidate(ctx context.Context, q configSource, b *models.Booking) error {
	unit, err := q.GetUnit(ctx, b.UnitID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ConfigurationError{Reason: fmt.Sprintf("unit %d not found", b.UnitID), Err: err}
		}
		return fmt.Errorf("failed to load unit: %w", err)
	}

	b.CheckIn = stay.NormalizeCheckIn(b.CheckIn, c.loc)
	b.CheckOut = stay.NormalizeCheckOut(b.CheckOut, c.loc)
	if b.City == "" {
		b.City = unit.City
	}

	isBlock := b.GuestType.Is(models.GuestBlock)
	isHold := b.GuestType.Is(models.GuestHold)
	isOwner := b.GuestType.Is(models.GuestOwner)

	if b.IsPaid == nil {
		switch {
		case isOwner:
			paid := true
			b.IsPaid = &paid
		case b.Source == models.SourceAirbnb:
			paid := false
			b.IsPaid = &paid
		}
	}

	code := configCode(b, unit)
	cfg, err := q.GetFinancialConfig(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &ConfigurationError{Reason: fmt.Sprintf("unknown financial config %q", code), Err: err}
		}
		return fmt.Errorf("failed to load financial config: %w", err)
	}

	if b.Source == models.SourcePrivate && unit.PaymentType.IsClient() && b.PaymentMethod == models.PaymentCard {
		cfg = c.applyClientCardOverride(ctx, q, b, cfg)
	}

	if b.Source == models.SourceAirbnb && unit.PaymentType.IsClient() {
		if cfg.DefaultCommissionPercentage.Valid {
			b.CommissionPercent = cfg.DefaultCommissionPercentage
		}
		if cfg.DefaultTaxPercentage.Valid {
			b.TaxPercent = cfg.DefaultTaxPercentage
		}
	}

	if !b.CommissionPercent.Valid && cfg.DefaultCommissionPercentage.Valid {
		b.CommissionPercent = cfg.DefaultCommissionPercentage
	}

	cancelled := b.Status.IsCancelled()
	var taxPercentSnapshot, taxAmountSnapshot decimal.NullDecimal
	if cancelled && !isBlock {
		taxPercentSnapshot, taxAmountSnapshot = b.TaxPercent, b.TaxAmount
	}

	if cancelled {
		b.CleaningFee = money.Some(decimal.Zero)
		b.RoomFee = decimal.Zero
		if !b.Payout.Valid {
			b.Payout = money.Some(decimal.Zero)
		}
	}

	if !isOwner && !b.CleaningFee.Valid && unit.CleaningFee.Valid {
		b.CleaningFee = unit.CleaningFee
	}

	calculator.Recalculate(b, unit, cfg, c.clock.Now())

	if isBlock {
		b.TaxPercent = money.Some(decimal.Zero)
		b.TaxAmount = money.Some(decimal.Zero)
	}

	if cancelled {
		if taxPercentSnapshot.Valid {
			b.TaxPercent = taxPercentSnapshot
		}
		if taxAmountSnapshot.Valid {
			b.TaxAmount = taxAmountSnapshot
		}
	}

	b.Days = stay.Nights(b.CheckIn, b.CheckOut)

	switch {
	case cancelled:
		b.Status = models.StatusCancelled
	case isBlock || isHold:
		b.Status = models.StatusActive
	}

	c.consolidate(b)

	slog.Debug("Booking consolidated",
		"booking_id", b.ID,
		"unit_id", b.UnitID,
		"config", cfg.Code,
		"policy", c.policy,
		"status", b.Status,
	)
	return nil
}

// applyClientCardOverride swaps in the client card configuration when it
// exists and makes sure both percentages are available.
func (c *Consolidator) applyClientCardOverride(ctx context.Context, q storage.ConfigStore, b *models.Booking, cfg *models.FinancialConfig) *models.FinancialConfig {
	override, err := q.GetFinancialConfig(ctx, c.overrideCode)
	switch {
	case err == nil:
		cfg = override
	case !errors.Is(err, storage.ErrNotFound):
		slog.Warn("Client card config lookup failed, keeping base config",
			"code", c.overrideCode,
			"error", err,
		)
	}

	out := *cfg
	if !out.DefaultTaxPercentage.Valid {
		out.DefaultTaxPercentage = money.Some(overrideTaxPercent)
	}
	if !out.DefaultCommissionPercentage.Valid {
		out.DefaultCommissionPercentage = money.Some(overrideCommissionPercent)
	}

	if !b.TaxPercent.Valid {
		b.TaxPercent = money.Some(overrideTaxPercent)
	}
	if !b.CommissionPercent.Valid {
		b.CommissionPercent = money.Some(overrideCommissionPercent)
	}
	return &out
}

// consolidate is the last pass over the commission figures.
func (c *Consolidator) consolidate(b *models.Booking) {
	if !b.CommissionBase.Valid {
		b.CommissionBase = money.Some(b.NetPayout)
	}
	base := b.CommissionBase.Decimal
	percent := money.Or(b.CommissionPercent, decimal.Zero)

	b.CommissionValue = money.Round(money.Percent(base, percent))
	if c.policy == PolicyCalculatorWins {
		return
	}
	b.ClientIncome = money.Round(base.Sub(b.CommissionValue))
	b.O2Total = money.Round(b.CommissionValue.Add(money.Or(b.CleaningFee, decimal.Zero)))
}

// configCode maps source, unit payment type and payment method to a
// financial configuration code.
func configCode(b *models.Booking, unit *models.Unit) string {
	if b.Source == models.SourcePrivate {
		if b.PaymentMethod == models.PaymentCard {
			return models.ConfigCodePrivateCard
		}
		return models.ConfigCodePrivateCash
	}
	if unit.PaymentType.IsClient() {
		return models.ConfigCodeClient
	}
	return models.ConfigCodeOwners2
}
