package marketplace

import (
	"errors"
	"fmt"
)

// ─── Sentinel errors ─────────────────────────────────────────────────────────

var (
	// ErrUnauthorized is returned when the session is missing or invalid.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a job or bid does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for identifiers that are not UUIDs.
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidPagination is returned for a missing or out-of-range page/size.
	ErrInvalidPagination = errors.New("invalid pagination")
	// ErrDuplicateBid is returned when the bidder already bid on the job.
	ErrDuplicateBid = errors.New("you have already placed a bid on this job")
	// ErrStorageUnavailable wraps every failure of the underlying store.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// StorageError tags err as ErrStorageUnavailable while keeping the driver
// error in the chain.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
