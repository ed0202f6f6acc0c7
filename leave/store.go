/*
store.go - Persistence interface for employees, records, requests and agreed days

PURPOSE:
  Defines the boundary between the workflow service and the database.
  The calculator never touches a Store; the Service loads a snapshot,
  hands it to the calculator and persists the workflow transitions.

APPEND-ONLY RECORDS:
  Leave records are only ever appended. The one permitted mutation is the
  justification flag on special leave (SetRecordJustification). Corrections
  are new Exception or BalanceAdjustment records.

IMPLEMENTATIONS:
  - store/sqlite: SQLite with embedded migrations
  - store/memory: In-memory for tests and demos

SEE ALSO:
  - service.go: The only caller
*/
package leave

import (
	"context"
	"time"

	"github.com/warp/leave-engine/generic"
)

// Store persists the leave domain.
type Store interface {
	// GetEmployee returns the employee with records and requests, ordered by
	// insertion. Missing employees return an error wrapping generic.ErrEntityNotFound.
	GetEmployee(ctx context.Context, id generic.EntityID) (Employee, error)

	// ListEmployees returns employees with their logs, ordered by last name.
	ListEmployees(ctx context.Context, includeArchived bool) ([]Employee, error)

	// SaveEmployee inserts or updates the profile fields. Records and
	// requests on the argument are ignored.
	SaveEmployee(ctx context.Context, emp Employee) error

	SetEmployeeActive(ctx context.Context, id generic.EntityID, active bool) error

	// AppendRecord adds a record. A duplicate id returns generic.ErrDuplicate.
	AppendRecord(ctx context.Context, empID generic.EntityID, rec LeaveRecord) error

	SetRecordJustification(ctx context.Context, empID generic.EntityID, recordID string, j Justification) error

	// SaveRequest inserts or updates a request.
	SaveRequest(ctx context.Context, empID generic.EntityID, req LeaveRequest) error

	// ListPendingRequests returns pending requests of active employees,
	// oldest first.
	ListPendingRequests(ctx context.Context) ([]PendingRequest, error)

	// ListAgreedDays returns all agreed days ordered by date.
	ListAgreedDays(ctx context.Context) ([]AgreedDay, error)

	GetAgreedDay(ctx context.Context, id string) (AgreedDay, error)

	// SaveAgreedDay inserts or updates. A date already used by another
	// agreed day returns ErrDuplicateAgreedDate.
	SaveAgreedDay(ctx context.Context, day AgreedDay) error

	DeleteAgreedDay(ctx context.Context, id string) error

	// ActivateAgreedDays marks every inactive agreed day active and returns
	// how many changed.
	ActivateAgreedDays(ctx context.Context) (int, error)

	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, empID generic.EntityID) ([]AuditEntry, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// PendingRequest is a request awaiting review, with its owner.
type PendingRequest struct {
	EmployeeID   generic.EntityID
	EmployeeName string
	Request      LeaveRequest
}

// =============================================================================
// AUDIT LOG - who did what when, separate from the record log
// =============================================================================

type AuditAction string

const (
	AuditRequestSubmitted AuditAction = "request_submitted"
	AuditRequestApproved  AuditAction = "request_approved"
	AuditRequestRejected  AuditAction = "request_rejected"
	AuditRecordAdded      AuditAction = "record_added"
	AuditRecordCertified  AuditAction = "record_certified"
	AuditAdjustment       AuditAction = "balance_adjusted"
	AuditException        AuditAction = "agreed_day_excepted"
	AuditEmployeeArchived AuditAction = "employee_archived"
	AuditEmployeeRestored AuditAction = "employee_reactivated"
)

// AuditEntry is append-only.
type AuditEntry struct {
	ID         string
	At         time.Time
	Action     AuditAction
	EmployeeID generic.EntityID
	SubjectID  string // record or request id
	Detail     string
}
