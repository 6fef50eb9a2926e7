package models

import "time"

// Slice refresh job statuses.
const (
	RefreshPending = "pending"
	RefreshDone    = "done"
	RefreshDead    = "dead"
	// RefreshSuperseded marks a pending job replaced by a newer one for the same booking.
	RefreshSuperseded = "superseded"
)

// SliceRefreshJob is an outbox row written in the same transaction as a
// booking change. It stays pending until the month slices are rebuilt.
type SliceRefreshJob struct {
	ID            string
	BookingID     int64
	CheckIn       time.Time
	CheckOut      time.Time
	Status        string
	Attempts      int
	LastError     string
	NextAttemptAt int64
	CreatedAt     int64
}
