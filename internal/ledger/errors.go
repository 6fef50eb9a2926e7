package ledger

import (
	"errors"
	"fmt"

	"github.com/mmynk/stayledger/internal/storage"
)

// ErrInvalidInput wraps validation failures of intake and edit payloads.
var ErrInvalidInput = errors.New("invalid input")

// ConfigurationError reports a missing unit or an unknown financial
// configuration. It aborts the pipeline before anything is written.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConflictError reports that a stay overlaps active bookings of the same unit.
type ConflictError struct {
	UnitID     int64
	BookingIDs []int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("overlapping booking for unit %d: %v", e.UnitID, e.BookingIDs)
}

// SideEffectError wraps a best-effort housekeeping failure. It is logged and
// counted, never returned to callers of the pipeline.
type SideEffectError struct {
	Op  string
	Err error
}

func (e *SideEffectError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SideEffectError) Unwrap() error { return e.Err }

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
