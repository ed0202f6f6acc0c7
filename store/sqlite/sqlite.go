/*
Package sqlite provides a SQLite-backed implementation of leave.TxStore.

PURPOSE:
  Persists employees, their append-only leave records and requests, the
  company-wide agreed-day calendar and the audit log. Balances are never
  stored; they are derived by leave.Calculator from what is loaded here.

APPEND-ONLY ENFORCEMENT:
  - leave_records has no DELETE path; the only UPDATE touches justified
  - audit_log is insert-only

KEY TABLES:
  employees:      Profile and active flag
  leave_records:  Resolved leave events, ordered by seq (insertion order)
  leave_requests: Requests and their review outcome
  agreed_days:    Company-wide days off, UNIQUE(date)
  audit_log:      Who did what when

CONCURRENCY:
  The pool is capped at one connection, which serializes writers and keeps
  ":memory:" databases alive across calls. WithTx runs every operation of
  the callback on the same *sql.Tx.

MIGRATION:
  Schema is managed by goose from the embedded migrations/ directory and
  applied on New().

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements leave.TxStore using SQLite.
type Store struct {
	*repo
	db *sql.DB
}

var _ leave.TxStore = (*Store)(nil)

// New opens the database at dbPath and applies migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{repo: &repo{q: db}, db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", busyErr(err))
	}
	defer tx.Rollback()

	if err := fn(&repo{q: tx}); err != nil {
		return busyErr(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", busyErr(err))
	}
	return nil
}

// Reset deletes all data. Used when loading demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"audit_log", "leave_records", "leave_requests", "agreed_days", "employees"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// =============================================================================
// REPO - queries shared by *sql.DB and *sql.Tx
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repo struct {
	q querier
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, last_name, hire_date, employment_type, active`

func (r *repo) GetEmployee(ctx context.Context, id generic.EntityID) (leave.Employee, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, string(id))
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.Employee{}, generic.EmployeeNotFound(id)
	}
	if err != nil {
		return leave.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	if err := r.loadLogs(ctx, &emp); err != nil {
		return leave.Employee{}, err
	}
	return emp, nil
}

func (r *repo) ListEmployees(ctx context.Context, includeArchived bool) ([]leave.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	if !includeArchived {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY last_name COLLATE NOCASE, id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	var emps []leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		emps = append(emps, emp)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Logs are loaded after the cursor is closed: the pool has one connection.
	for i := range emps {
		if err := r.loadLogs(ctx, &emps[i]); err != nil {
			return nil, err
		}
	}
	return emps, nil
}

func (r *repo) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO employees (id, name, last_name, hire_date, employment_type, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			last_name = excluded.last_name,
			hire_date = excluded.hire_date,
			employment_type = excluded.employment_type,
			active = excluded.active
	`,
		string(emp.ID), emp.Name, emp.LastName, emp.HireDate.String(), string(emp.Type), emp.Active,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (r *repo) SetEmployeeActive(ctx context.Context, id generic.EntityID, active bool) error {
	res, err := r.q.ExecContext(ctx, `UPDATE employees SET active = ? WHERE id = ?`, active, string(id))
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.EmployeeNotFound(id)
	}
	return nil
}

func (r *repo) loadLogs(ctx context.Context, emp *leave.Employee) error {
	records, err := r.records(ctx, emp.ID)
	if err != nil {
		return err
	}
	requests, err := r.requests(ctx, `WHERE employee_id = ? ORDER BY seq`, string(emp.ID))
	if err != nil {
		return err
	}
	emp.Records = records
	emp.Requests = requests
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(s scanner) (leave.Employee, error) {
	var (
		emp              leave.Employee
		id, hire, empTyp string
	)
	if err := s.Scan(&id, &emp.Name, &emp.LastName, &hire, &empTyp, &emp.Active); err != nil {
		return leave.Employee{}, err
	}
	emp.ID = generic.EntityID(id)
	emp.HireDate = parseDate(hire)
	emp.Type = leave.EmploymentType(empTyp)
	return emp, nil
}

// =============================================================================
// LEAVE RECORDS (append-only)
// =============================================================================

func (r *repo) AppendRecord(ctx context.Context, empID generic.EntityID, rec leave.LeaveRecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO leave_records
		(id, employee_id, kind, start_date, end_date, days, notes, year, justified, agreed_day_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, string(empID), string(rec.Kind), rec.StartDate.String(), rec.EndDate.String(),
		rec.Days.String(), rec.Notes, rec.Year, nullBool(rec.Justification.Bool()), nullString(rec.AgreedDayID),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	switch {
	case err == nil:
		return nil
	case isConstraint(err, sqlite3.ErrConstraintForeignKey):
		return generic.EmployeeNotFound(empID)
	case isConstraint(err, sqlite3.ErrConstraintUnique):
		return generic.ErrDuplicate
	}
	return fmt.Errorf("failed to append record: %w", err)
}

func (r *repo) SetRecordJustification(ctx context.Context, empID generic.EntityID, recordID string, j leave.Justification) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE leave_records SET justified = ? WHERE employee_id = ? AND id = ?`,
		nullBool(j.Bool()), string(empID), recordID,
	)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.RecordNotFound(recordID)
	}
	return nil
}

func (r *repo) records(ctx context.Context, empID generic.EntityID) ([]leave.LeaveRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, kind, start_date, end_date, days, notes, year, justified, agreed_day_id
		FROM leave_records WHERE employee_id = ? ORDER BY seq
	`, string(empID))
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	defer rows.Close()

	var out []leave.LeaveRecord
	for rows.Next() {
		var (
			rec                    leave.LeaveRecord
			kind, start, end, days string
			justified              sql.NullBool
			agreedDayID            sql.NullString
		)
		if err := rows.Scan(&rec.ID, &kind, &start, &end, &days, &rec.Notes, &rec.Year, &justified, &agreedDayID); err != nil {
			return nil, err
		}
		rec.Kind = leave.RecordKind(kind)
		rec.StartDate = parseDate(start)
		rec.EndDate = parseDate(end)
		rec.Days = parseDecimal(days)
		if justified.Valid {
			rec.Justification = leave.JustificationFromBool(&justified.Bool)
		}
		rec.AgreedDayID = agreedDayID.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (r *repo) SaveRequest(ctx context.Context, empID generic.EntityID, req leave.LeaveRequest) error {
	var processed sql.NullString
	if req.ProcessedAt != nil {
		processed = sql.NullString{String: req.ProcessedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO leave_requests
		(id, employee_id, start_date, end_date, days, reason, type, status, admin_comment, created_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			admin_comment = excluded.admin_comment,
			processed_at = excluded.processed_at
	`,
		req.ID, string(empID), req.StartDate.String(), req.EndDate.String(), req.Days, req.Reason,
		string(req.Type), string(req.Status), req.AdminComment,
		req.CreatedAt.UTC().Format(time.RFC3339Nano), processed,
	)
	switch {
	case err == nil:
		return nil
	case isConstraint(err, sqlite3.ErrConstraintForeignKey):
		return generic.EmployeeNotFound(empID)
	}
	return fmt.Errorf("failed to save request: %w", err)
}

func (r *repo) ListPendingRequests(ctx context.Context) ([]leave.PendingRequest, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT q.employee_id, e.name, e.last_name,
		       q.id, q.start_date, q.end_date, q.days, q.reason, q.type, q.status, q.admin_comment, q.created_at, q.processed_at
		FROM leave_requests q JOIN employees e ON e.id = q.employee_id
		WHERE q.status = ? AND e.active = 1
		ORDER BY q.created_at, q.seq
	`, string(leave.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var out []leave.PendingRequest
	for rows.Next() {
		var (
			p              leave.PendingRequest
			empID          string
			name, lastName string
		)
		req, err := scanRequest(rows, &empID, &name, &lastName)
		if err != nil {
			return nil, err
		}
		p.EmployeeID = generic.EntityID(empID)
		p.EmployeeName = leave.Employee{Name: name, LastName: lastName}.FullName()
		p.Request = req
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repo) requests(ctx context.Context, where string, args ...any) ([]leave.LeaveRequest, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, start_date, end_date, days, reason, type, status, admin_comment, created_at, processed_at
		FROM leave_requests `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}
	defer rows.Close()

	var out []leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// scanRequest scans the request columns after any leading columns in prefix.
func scanRequest(s scanner, prefix ...any) (leave.LeaveRequest, error) {
	var (
		req                              leave.LeaveRequest
		start, end, typ, status, created string
		processed                        sql.NullString
	)
	dest := append(prefix, &req.ID, &start, &end, &req.Days, &req.Reason, &typ, &status, &req.AdminComment, &created, &processed)
	if err := s.Scan(dest...); err != nil {
		return leave.LeaveRequest{}, err
	}
	req.StartDate = parseDate(start)
	req.EndDate = parseDate(end)
	req.Type = leave.RecordKind(typ)
	req.Status = leave.RequestStatus(status)
	req.CreatedAt = parseTimestamp(created)
	if processed.Valid {
		if t := parseTimestamp(processed.String); !t.IsZero() {
			req.ProcessedAt = &t
		}
	}
	return req, nil
}

// =============================================================================
// AGREED DAYS
// =============================================================================

func (r *repo) ListAgreedDays(ctx context.Context) ([]leave.AgreedDay, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, date, description, active FROM agreed_days ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agreed days: %w", err)
	}
	defer rows.Close()

	var out []leave.AgreedDay
	for rows.Next() {
		d, err := scanAgreedDay(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repo) GetAgreedDay(ctx context.Context, id string) (leave.AgreedDay, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, date, description, active FROM agreed_days WHERE id = ?`, id)
	d, err := scanAgreedDay(row)
	if errors.Is(err, sql.ErrNoRows) {
		return leave.AgreedDay{}, leave.AgreedDayNotFound(id)
	}
	if err != nil {
		return leave.AgreedDay{}, fmt.Errorf("failed to get agreed day: %w", err)
	}
	return d, nil
}

func (r *repo) SaveAgreedDay(ctx context.Context, day leave.AgreedDay) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO agreed_days (id, date, description, active) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			description = excluded.description,
			active = excluded.active
	`, day.ID, day.Date.String(), day.Description, day.Active)
	if isConstraint(err, sqlite3.ErrConstraintUnique) {
		return leave.ErrDuplicateAgreedDate
	}
	if err != nil {
		return fmt.Errorf("failed to save agreed day: %w", err)
	}
	return nil
}

func (r *repo) DeleteAgreedDay(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM agreed_days WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete agreed day: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.AgreedDayNotFound(id)
	}
	return nil
}

func (r *repo) ActivateAgreedDays(ctx context.Context) (int, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE agreed_days SET active = 1 WHERE active = 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to activate agreed days: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func scanAgreedDay(s scanner) (leave.AgreedDay, error) {
	var (
		d    leave.AgreedDay
		date string
	)
	if err := s.Scan(&d.ID, &date, &d.Description, &d.Active); err != nil {
		return leave.AgreedDay{}, err
	}
	d.Date = parseDate(date)
	return d, nil
}

// =============================================================================
// AUDIT LOG (append-only)
// =============================================================================

func (r *repo) AppendAudit(ctx context.Context, e leave.AuditEntry) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO audit_log (id, at, action, employee_id, subject_id, detail) VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.At.UTC().Format(time.RFC3339Nano), string(e.Action), string(e.EmployeeID), e.SubjectID, e.Detail)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (r *repo) ListAudit(ctx context.Context, empID generic.EntityID) ([]leave.AuditEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, at, action, employee_id, subject_id, detail FROM audit_log WHERE employee_id = ? ORDER BY seq
	`, string(empID))
	if err != nil {
		return nil, fmt.Errorf("failed to list audit log: %w", err)
	}
	defer rows.Close()

	var out []leave.AuditEntry
	for rows.Next() {
		var (
			e               leave.AuditEntry
			at, action, emp string
		)
		if err := rows.Scan(&e.ID, &at, &action, &emp, &e.SubjectID, &e.Detail); err != nil {
			return nil, err
		}
		e.At = parseTimestamp(at)
		e.Action = leave.AuditAction(action)
		e.EmployeeID = generic.EntityID(emp)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

// parseDate returns the zero date for malformed values so a bad row
// contributes nothing instead of failing the whole load.
func parseDate(s string) generic.TimePoint {
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}
	}
	return tp
}

// parseTimestamp returns the zero time for malformed values, matching
// parseDate: a bad audit or request timestamp never fails the load.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDecimal(s string) decimal.Decimal {
	return generic.MustParseDecimal(s)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func isConstraint(err error, code sqlite3.ErrNoExtended) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == code
}

// busyErr marks lock contention from another process as retryable.
func busyErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", generic.ErrConcurrentModification, err)
	}
	return err
}
