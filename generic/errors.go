/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input errors - malformed dates and ranges
  2. Lookup errors - missing employees, records, requests
  3. Store errors - persistence conflicts

Nothing in the calculation path returns these: a malformed record contributes
zero instead of failing the whole computation. They surface at the
request-submission and persistence boundaries.

USAGE:
  if errors.Is(err, generic.ErrInvalidDateRange) {
      // 400 with a validation message
  }

SEE ALSO:
  - leave/errors.go: Workflow-specific errors
  - api/handlers.go: HTTP status mapping
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidDateRange is returned when a range ends before it starts.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrInvalidPeriod is returned when a period is missing an end.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrEntityNotFound is returned when a referenced employee doesn't exist.
	ErrEntityNotFound = errors.New("employee not found")

	// ErrMalformedRecord is returned when a stored record lacks required fields.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDuplicate is returned when a uniqueness constraint is violated.
	ErrDuplicate = errors.New("duplicate")

	// ErrConcurrentModification is returned when optimistic locking detects a conflict.
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DateRangeError carries the offending range.
type DateRangeError struct {
	Start TimePoint
	End   TimePoint
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s before start %s", e.End, e.Start)
}

func (e *DateRangeError) Unwrap() error {
	return ErrInvalidDateRange
}

// NotFoundError names the missing object.
type NotFoundError struct {
	Kind string // "employee", "record", "request", "agreed day"
	ID   string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ErrNotFound is the generic lookup failure wrapped by NotFoundError.
var ErrNotFound = errors.New("not found")

// EmployeeNotFound builds the NotFoundError for a missing employee.
func EmployeeNotFound(id EntityID) error {
	return &NotFoundError{Kind: "employee", ID: string(id), Err: ErrEntityNotFound}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrMalformedRecord)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound) || errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error is a uniqueness or concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, ErrConcurrentModification)
}
