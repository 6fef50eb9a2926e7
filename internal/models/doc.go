// Package models defines the domain records of the booking financial core.
//
// # Records
//
//   - Booking: one guest stay with its classification and money fields
//   - Unit: the rental unit profile (payment type, default cleaning fee, city)
//   - FinancialConfig: default tax and commission percentages by config code
//   - MonthSlice: a booking's prorated share of one calendar month
//   - HKCleaning / CleaningRate: housekeeping placeholders and their cost table
//   - SliceRefreshJob: outbox row guaranteeing month slices get rebuilt
//
// # Money
//
// Amounts are shopspring decimals with two places. Inputs an operator may
// leave blank are decimal.NullDecimal so "unset" and "zero" stay distinct
// until the calculator fills them.
//
// # Relationships
//
// Records reference each other by ID; there are no pointers between them.
package models
