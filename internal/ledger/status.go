package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/stayledger/internal/calculator"
	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/storage"
)

// SweepResult counts what a status sweep changed.
type SweepResult struct {
	Updated           int
	Done              int
	CleaningsCanceled int
}

// SweepStatuses re-derives booking statuses from the clock:
//   - cancelled bookings keep their status; their pending cleaning is cancelled
//   - Owners2 cleaning, maintenance and late check-out rows become Done once past
//   - other Owners2 rows, blocks and holds keep the status set by the office
//   - everything else becomes Past, Upcoming or Ongoing
func (m *Manager) SweepStatuses(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := m.clock.Now()

	err := m.store.WithTx(ctx, func(q storage.Queries) error {
		bookings, err := q.ListBookings(ctx, storage.BookingFilter{IncludeCancelled: true})
		if err != nil {
			return err
		}

		for _, b := range bookings {
			if b.Status.IsCancelled() {
				before, err := cleaningStatus(ctx, q, b.ID)
				if err != nil {
					return err
				}
				if err := syncCleaningCancelled(ctx, q, b.ID); err != nil {
					return err
				}
				if before == models.CleaningPending {
					res.CleaningsCanceled++
				}
				continue
			}

			var next models.Status
			switch {
			case b.Source == models.SourceOwners2:
				if !isServiceWindow(b.GuestType) || !b.CheckOut.Before(now) {
					continue
				}
				next = models.StatusDone
			case b.GuestType.Is(models.GuestBlock) || b.GuestType.Is(models.GuestHold):
				continue
			default:
				next = calculator.StatusAt(b.CheckIn, b.CheckOut, now)
			}

			if b.Status == next {
				continue
			}
			if err := q.UpdateBookingStatus(ctx, b.ID, next); err != nil {
				return err
			}
			if next == models.StatusDone {
				res.Done++
			} else {
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to sweep statuses: %w", err)
	}

	slog.Info("Status sweep finished",
		"updated", res.Updated,
		"done", res.Done,
		"cleanings_canceled", res.CleaningsCanceled,
	)
	return res, nil
}

func isServiceWindow(g models.GuestType) bool {
	return g.Is(models.GuestCleaning) || g.Is(models.GuestMaintenance) || g.Is(models.GuestLateCheckOut)
}

func cleaningStatus(ctx context.Context, q storage.HousekeepingStore, bookingID int64) (string, error) {
	c, err := q.FindCleaningByBooking(ctx, bookingID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return c.Status, nil
}
