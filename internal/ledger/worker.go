package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/stayledger/internal/metrics"
	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/storage"
)

const (
	defaultRefreshInterval    = 5 * time.Second
	defaultRefreshMaxAttempts = 8
	defaultRefreshBackoff     = 10 * time.Second
	maxRefreshBackoff         = time.Hour
	refreshBatchSize          = 50
)

// RefreshWorker drains the slice refresh outbox. Each job is retried with
// exponential backoff until it succeeds or runs out of attempts.
type RefreshWorker struct {
	store       storage.Store
	allocator   *SliceAllocator
	clock       Clock
	Interval    time.Duration
	MaxAttempts int
	Backoff     time.Duration
	BatchSize   int
}

// NewRefreshWorker creates a RefreshWorker with default pacing.
func NewRefreshWorker(store storage.Store, allocator *SliceAllocator, clock Clock) *RefreshWorker {
	if clock == nil {
		clock = SystemClock
	}
	return &RefreshWorker{
		store:       store,
		allocator:   allocator,
		clock:       clock,
		Interval:    defaultRefreshInterval,
		MaxAttempts: defaultRefreshMaxAttempts,
		Backoff:     defaultRefreshBackoff,
		BatchSize:   refreshBatchSize,
	}
}

// Run polls for due jobs until ctx is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) {
	slog.Info("Slice refresh worker started", "interval", w.Interval, "max_attempts", w.MaxAttempts)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Slice refresh worker stopped")
			return
		default:
		}
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Slice refresh poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("Slice refresh worker stopped")
			return
		case <-time.After(w.Interval):
		}
	}
}

// RunOnce processes one batch of due jobs and returns how many succeeded.
func (w *RefreshWorker) RunOnce(ctx context.Context) (int, error) {
	jobs, err := w.store.ListDueRefreshJobs(ctx, w.clock.Now().Unix(), w.BatchSize)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if _, err := w.Process(ctx, job); err != nil {
			continue
		}
		done++
	}
	if len(jobs) > 0 {
		slog.Debug("Slice refresh batch processed", "due", len(jobs), "done", done)
	}
	return done, nil
}

// Process rebuilds the slices of one job and marks it done in the same
// transaction. Slices follow the stay stored on the booking, not the dates
// the job was queued with, since the booking may have been edited since.
// On failure the job is rescheduled, or parked as dead once it has used all
// its attempts.
func (w *RefreshWorker) Process(ctx context.Context, job *models.SliceRefreshJob) (int, error) {
	start := time.Now()
	var n int
	err := w.store.WithTx(ctx, func(q storage.Queries) error {
		checkIn, checkOut := job.CheckIn, job.CheckOut
		b, err := q.GetBooking(ctx, job.BookingID)
		switch {
		case err == nil:
			checkIn, checkOut = b.CheckIn, b.CheckOut
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		n, err = w.allocator.RefreshForBooking(ctx, q, job.BookingID, checkIn, checkOut)
		if err != nil {
			return err
		}
		return q.CompleteRefreshJob(ctx, job.ID)
	})
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		w.recordFailure(ctx, job, err)
		return 0, err
	}
	return n, nil
}

func (w *RefreshWorker) recordFailure(ctx context.Context, job *models.SliceRefreshJob, cause error) {
	job.Attempts++
	dead := job.Attempts >= w.MaxAttempts
	next := w.clock.Now().Add(w.backoffFor(job.Attempts)).Unix()

	outcome := "retry"
	if dead {
		outcome = "dead"
	}
	metrics.RefreshFailures.WithLabelValues(outcome).Inc()

	if err := w.store.FailRefreshJob(ctx, job.ID, cause.Error(), next, dead); err != nil {
		slog.Error("Failed to record slice refresh failure",
			"job_id", job.ID,
			"booking_id", job.BookingID,
			"error", err,
		)
		return
	}
	slog.Warn("Slice refresh failed",
		"job_id", job.ID,
		"booking_id", job.BookingID,
		"attempts", job.Attempts,
		"dead", dead,
		"error", cause,
	)
}

// backoffFor doubles the base delay per attempt, capped at one hour.
func (w *RefreshWorker) backoffFor(attempts int) time.Duration {
	d := w.Backoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxRefreshBackoff {
			return maxRefreshBackoff
		}
	}
	return d
}
