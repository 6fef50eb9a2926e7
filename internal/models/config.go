package models

import "github.com/shopspring/decimal"

// Financial configuration codes.
const (
	ConfigCodeOwners2     = "o2"
	ConfigCodeClient      = "client"
	ConfigCodePrivateCard = "private_card"
	ConfigCodePrivateCash = "private_cash"
)

// FinancialConfig supplies default percentages for a class of bookings.
type FinancialConfig struct {
	Code                        string
	DefaultTaxPercentage        decimal.NullDecimal
	DefaultCommissionPercentage decimal.NullDecimal
}
