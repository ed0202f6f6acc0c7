package leave

import (
	"errors"
	"fmt"

	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// WORKFLOW ERRORS
// =============================================================================

var (
	// ErrNoWorkingDays is returned when a range holds no Monday-Friday date.
	ErrNoWorkingDays = errors.New("range contains no working days")

	// ErrOverlappingRequest is returned when a new request intersects a
	// pending or approved one.
	ErrOverlappingRequest = errors.New("request overlaps an existing request")

	// ErrRequestNotPending is returned when approving or rejecting a resolved request.
	ErrRequestNotPending = errors.New("request is not pending")

	// ErrCommentRequired is returned when rejecting without a comment.
	ErrCommentRequired = errors.New("admin comment is required to reject")

	// ErrInvalidKind is returned when a kind is not allowed for the operation.
	ErrInvalidKind = errors.New("record kind not allowed here")

	// ErrNotCertifiable is returned when certifying anything but special leave.
	ErrNotCertifiable = errors.New("only special leave can be certified")

	// ErrZeroAdjustment is returned for a balance adjustment of 0 days.
	ErrZeroAdjustment = errors.New("adjustment must be non-zero")

	// ErrInvalidEmployee is returned when employee profile fields are missing.
	ErrInvalidEmployee = errors.New("invalid employee")

	// ErrDuplicateAgreedDate is returned when a date already has an agreed day.
	ErrDuplicateAgreedDate = fmt.Errorf("agreed day already exists for date: %w", generic.ErrDuplicate)

	// ErrDuplicateException is returned when an agreed day is already excepted.
	ErrDuplicateException = fmt.Errorf("agreed day already excepted: %w", generic.ErrDuplicate)

	// ErrDuplicateEmployee is returned when creating an existing employee id.
	ErrDuplicateEmployee = fmt.Errorf("employee already exists: %w", generic.ErrDuplicate)
)

// OverlapError names the request a new one collides with.
type OverlapError struct {
	ExistingID string
	Period     generic.Period
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("request overlaps %s %s", e.ExistingID, e.Period)
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRequest }

// RecordNotFound builds the not-found error for a record id.
func RecordNotFound(id string) error {
	return &generic.NotFoundError{Kind: "record", ID: id}
}

// RequestNotFound builds the not-found error for a request id.
func RequestNotFound(id string) error {
	return &generic.NotFoundError{Kind: "request", ID: id}
}

// AgreedDayNotFound builds the not-found error for an agreed day id.
func AgreedDayNotFound(id string) error {
	return &generic.NotFoundError{Kind: "agreed day", ID: id}
}

// IsClientError extends generic.IsClientError with workflow validation errors.
func IsClientError(err error) bool {
	return generic.IsClientError(err) ||
		errors.Is(err, ErrNoWorkingDays) ||
		errors.Is(err, ErrCommentRequired) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrNotCertifiable) ||
		errors.Is(err, ErrZeroAdjustment) ||
		errors.Is(err, ErrInvalidEmployee)
}

// IsConflict reports state conflicts: overlaps, resolved requests, duplicates.
func IsConflict(err error) bool {
	return generic.IsConflict(err) ||
		errors.Is(err, ErrOverlappingRequest) ||
		errors.Is(err, ErrRequestNotPending)
}
