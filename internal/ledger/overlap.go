package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/stayledger/internal/metrics"
	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/storage"
)

// ValidateOverlap rejects a booking whose stay overlaps an active booking of
// the same unit. Stays are half-open [checkIn, checkOut): back-to-back stays
// are allowed and cancelled bookings hold no dates. The booking itself is
// excluded, so edits never conflict with their own stored row.
//
// q must be bound to the transaction that will write the booking.
func ValidateOverlap(ctx context.Context, q storage.BookingStore, b *models.Booking) error {
	if b.Status.IsCancelled() || b.CheckIn.IsZero() || b.CheckOut.IsZero() {
		return nil
	}

	overlaps, err := q.FindOverlappingBookings(ctx, b.UnitID, b.CheckIn, b.CheckOut, b.ID)
	if err != nil {
		return fmt.Errorf("failed to check overlapping bookings: %w", err)
	}
	if len(overlaps) == 0 {
		return nil
	}

	ids := make([]int64, len(overlaps))
	for i, o := range overlaps {
		ids[i] = o.ID
		slog.Info("Overlapping booking",
			"unit_id", b.UnitID,
			"candidate_id", b.ID,
			"existing_id", o.ID,
			"existing_status", o.Status,
			"existing_check_in", o.CheckIn,
			"existing_check_out", o.CheckOut,
		)
	}
	metrics.OverlapConflicts.Inc()
	return &ConflictError{UnitID: b.UnitID, BookingIDs: ids}
}
