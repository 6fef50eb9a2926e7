package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentType decides who collects the guest's money for a unit.
type PaymentType string

const (
	// PaymentTypeOwners2 units are collected by the management company.
	PaymentTypeOwners2 PaymentType = "Owners2"
	// PaymentTypeClient units are collected by the owner; the company only bills.
	PaymentTypeClient PaymentType = "Client"
)

// IsClient compares case-insensitively; stored values are not always canonical.
func (p PaymentType) IsClient() bool {
	return strings.EqualFold(string(p), string(PaymentTypeClient))
}

// Unit is the rental unit profile the financial rules depend on.
type Unit struct {
	ID          int64
	Name        string
	City        string
	PaymentType PaymentType
	// CleaningFee is the default fee charged per stay.
	CleaningFee decimal.NullDecimal
}
