package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/stayledger/internal/models"
)

// EnqueueSliceRefresh writes a pending outbox row. Older pending rows of the
// same booking are marked superseded.
func (q *queries) EnqueueSliceRefresh(ctx context.Context, job *models.SliceRefreshJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.CreatedAt == 0 {
		job.CreatedAt = time.Now().Unix()
	}
	if job.NextAttemptAt == 0 {
		job.NextAttemptAt = job.CreatedAt
	}
	if job.Status == "" {
		job.Status = models.RefreshPending
	}

	_, err := q.q.ExecContext(ctx,
		"UPDATE slice_refresh_jobs SET status = ? WHERE booking_id = ? AND status = ?",
		models.RefreshSuperseded, job.BookingID, models.RefreshPending,
	)
	if err != nil {
		return fmt.Errorf("failed to supersede refresh jobs: %w", err)
	}

	_, err = q.q.ExecContext(ctx,
		`INSERT INTO slice_refresh_jobs (id, booking_id, check_in, check_out, status, attempts,
			last_error, next_attempt_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.BookingID, q.formatTime(job.CheckIn), q.formatTime(job.CheckOut), job.Status,
		job.Attempts, job.LastError, job.NextAttemptAt, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue slice refresh: %w", err)
	}
	return nil
}

// ListDueRefreshJobs returns pending jobs whose next attempt is at or before now, oldest first.
func (q *queries) ListDueRefreshJobs(ctx context.Context, now int64, limit int) ([]*models.SliceRefreshJob, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT id, booking_id, check_in, check_out, status, attempts, last_error, next_attempt_at, created_at
		 FROM slice_refresh_jobs
		 WHERE status = ? AND next_attempt_at <= ?
		 ORDER BY next_attempt_at, created_at
		 LIMIT ?`,
		models.RefreshPending, now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.SliceRefreshJob
	for rows.Next() {
		job := &models.SliceRefreshJob{}
		var checkIn, checkOut string
		err := rows.Scan(&job.ID, &job.BookingID, &checkIn, &checkOut, &job.Status, &job.Attempts,
			&job.LastError, &job.NextAttemptAt, &job.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh job: %w", err)
		}
		if job.CheckIn, err = q.parseTime(checkIn); err != nil {
			return nil, err
		}
		if job.CheckOut, err = q.parseTime(checkOut); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refresh jobs: %w", err)
	}
	return jobs, nil
}

// CompleteRefreshJob marks a job done.
func (q *queries) CompleteRefreshJob(ctx context.Context, jobID string) error {
	_, err := q.q.ExecContext(ctx,
		"UPDATE slice_refresh_jobs SET status = ?, last_error = '' WHERE id = ?",
		models.RefreshDone, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete refresh job: %w", err)
	}
	return nil
}

// FailRefreshJob records a failed attempt and schedules the next one, or
// parks the job as dead.
func (q *queries) FailRefreshJob(ctx context.Context, jobID string, lastError string, nextAttemptAt int64, dead bool) error {
	status := models.RefreshPending
	if dead {
		status = models.RefreshDead
	}
	_, err := q.q.ExecContext(ctx,
		`UPDATE slice_refresh_jobs SET status = ?, attempts = attempts + 1, last_error = ?, next_attempt_at = ?
		 WHERE id = ?`,
		status, lastError, nextAttemptAt, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to record refresh failure: %w", err)
	}
	return nil
}
