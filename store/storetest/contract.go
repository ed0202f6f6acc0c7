// Package storetest holds the behaviour every leave.TxStore must share.
// Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// Run executes the contract against fresh stores returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) leave.TxStore) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s leave.TxStore)
	}{
		{"EmployeeRoundTrip", testEmployeeRoundTrip},
		{"RecordsKeepOrderAndFields", testRecordsKeepOrderAndFields},
		{"DuplicateRecordID", testDuplicateRecordID},
		{"RequestUpsert", testRequestUpsert},
		{"PendingRequests", testPendingRequests},
		{"AgreedDayUniqueDate", testAgreedDayUniqueDate},
		{"TxRollback", testTxRollback},
		{"Audit", testAudit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func date(s string) generic.TimePoint {
	tp, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

func saveEmployee(t *testing.T, s leave.Store, id, lastName string) {
	t.Helper()
	require.NoError(t, s.SaveEmployee(context.Background(), leave.Employee{
		ID: generic.EntityID(id), Name: "N" + id, LastName: lastName,
		HireDate: date("2020-03-02"), Type: leave.EmploymentHourly, Active: true,
	}))
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func testEmployeeRoundTrip(t *testing.T, s leave.TxStore) {
	ctx := context.Background()
	saveEmployee(t, s, "2", "suárez")
	saveEmployee(t, s, "1", "Acosta")

	emp, err := s.GetEmployee(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "suárez", emp.LastName)
	assert.Equal(t, "2020-03-02", emp.HireDate.String())
	assert.Equal(t, leave.EmploymentHourly, emp.Type)
	assert.True(t, emp.Active)

	_, err = s.GetEmployee(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrEntityNotFound)

	require.NoError(t, s.SetEmployeeActive(ctx, "1", false))
	assert.True(t, generic.IsNotFound(s.SetEmployeeActive(ctx, "missing", false)))

	active, err := s.ListEmployees(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, generic.EntityID("2"), active[0].ID)

	all, err := s.ListEmployees(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Acosta", all[0].LastName)
}

// =============================================================================
// RECORDS
// =============================================================================

func testRecordsKeepOrderAndFields(t *testing.T, s leave.TxStore) {
	ctx := context.Background()
	saveEmployee(t, s, "1", "Acosta")

	recs := []leave.LeaveRecord{
		{ID: "r2", Kind: leave.KindSpecial, StartDate: date("2025-03-10"), EndDate: date("2025-03-12"),
			Days: decimal.NewFromInt(3), Notes: "médica", Year: 2025, Justification: leave.JustificationPending},
		{ID: "r1", Kind: leave.KindAdjustment, StartDate: date("2025-01-01"), EndDate: date("2025-01-01"),
			Days: decimal.RequireFromString("-1.5"), Year: 2025},
		{ID: "x1", Kind: leave.KindException, StartDate: date("2025-02-24"), EndDate: date("2025-02-24"),
			Days: decimal.NewFromInt(1), Year: 2025, AgreedDayID: "ag1"},
	}
	for _, r := range recs {
		require.NoError(t, s.AppendRecord(ctx, "1", r))
	}
	require.NoError(t, s.SetRecordJustification(ctx, "1", "r2", leave.JustificationAccepted))
	assert.True(t, generic.IsNotFound(s.SetRecordJustification(ctx, "1", "nope", leave.JustificationAccepted)))
	assert.True(t, generic.IsNotFound(s.AppendRecord(ctx, "missing", recs[0])))

	emp, err := s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	require.Len(t, emp.Records, 3)

	assert.Equal(t, []string{"r2", "r1", "x1"}, []string{emp.Records[0].ID, emp.Records[1].ID, emp.Records[2].ID})
	assert.Equal(t, leave.JustificationAccepted, emp.Records[0].Justification)
	assert.Equal(t, "médica", emp.Records[0].Notes)
	assert.True(t, decimal.RequireFromString("-1.5").Equal(emp.Records[1].Days))
	assert.Equal(t, leave.JustificationNotApplicable, emp.Records[1].Justification)
	assert.Equal(t, "ag1", emp.Records[2].AgreedDayID)
	assert.Equal(t, "2025-02-24", emp.Records[2].StartDate.String())
}

func testDuplicateRecordID(t *testing.T, s leave.TxStore) {
	ctx := context.Background()
	saveEmployee(t, s, "1", "Acosta")
	saveEmployee(t, s, "2", "Bentos")

	rec := leave.LeaveRecord{ID: "app-1", Kind: leave.KindAnnual, StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), Days: decimal.NewFromInt(1), Year: 2025}
	require.NoError(t, s.AppendRecord(ctx, "1", rec))
	assert.ErrorIs(t, s.AppendRecord(ctx, "1", rec), generic.ErrDuplicate)
	assert.NoError(t, s.AppendRecord(ctx, "2", rec), "record ids are scoped to the employee")
}

// =============================================================================
// REQUESTS
// =============================================================================

func testRequestUpsert(t *testing.T, s leave.TxStore) {
	ctx := context.Background()
	saveEmployee(t, s, "1", "Acosta")

	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	req := leave.LeaveRequest{
		ID: "q1", StartDate: date("2025-03-10"), EndDate: date("2025-03-11"), Days: 2,
		Reason: "viaje", Type: leave.KindAnnual, Status: leave.StatusPending, CreatedAt: created,
	}
	require.NoError(t, s.SaveRequest(ctx, "1", req))

	processed := created.Add(48 * time.Hour)
	req.Status = leave.StatusRejected
	req.AdminComment = "sin cobertura"
	req.ProcessedAt = &processed
	require.NoError(t, s.SaveRequest(ctx, "1", req))

	emp, err := s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	require.Len(t, emp.Requests, 1)
	got := emp.Requests[0]
	assert.Equal(t, leave.StatusRejected, got.Status)
	assert.Equal(t, "sin cobertura", got.AdminComment)
	assert.Equal(t, 2, got.Days)
	assert.True(t, created.Equal(got.CreatedAt))
	require.NotNil(t, got.ProcessedAt)
	assert.True(t, processed.Equal(*got.ProcessedAt))
}

func testPendingRequests(t *testing.T, s leave.TxStore) {
	ctx := context.Background()
	saveEmployee(t, s, "1", "Acosta")
	saveEmployee(t, s, "2", "Bentos")
	saveEmployee(t, s, "3", "Castro")
	require.NoError(t, s.SetEmployeeActive(ctx, "3", false))

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, q := range []struct {
		emp, id string
		status  leave.RequestStatus
	}{
		{"2", "late", leave.StatusPending},
		{"1", "early", leave.StatusPending},
		{"1", "done", leave.StatusApproved},
		{"3", "archived", leave.StatusPending},
	} {
		created := base.Add(time.Duration(i) * time.Hour)
		if q.id == "early" {
			created = base.Add(-time.Hour)
		}
		require.NoError(t, s.SaveRequest(ctx, generic.EntityID(q.emp), leave.LeaveRequest{
			ID: q.id, StartDate: date("2025-04-07"), EndDate: date("2025-04-07"), Days: 1,
			Type: leave.KindAnnual, Status: q.status, CreatedAt: created,
		}))
	}

	pending, err := s.ListPendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "early", pending[0].Request.ID)
	assert.Equal(t, "Acosta, N1", pending[0].EmployeeName)
	assert.Equal(t, "late", pending[1].Request.ID)
}

// =============================================================================
// AGREED DAYS
// =============================================================================

func testAgreedDayUniqueDate(t *testing.T, s leave.TxStore) {
	ctx := context.Background()

	require.NoError(t, s.SaveAgreedDay(ctx, leave.AgreedDay{ID: "a", Date: date("2025-02-25"), Description: "Carnaval 2"}))
	require.NoError(t, s.SaveAgreedDay(ctx, leave.AgreedDay{ID: "b", Date: date("2025-02-24"), Description: "Carnaval 1"}))

	err := s.SaveAgreedDay(ctx, leave.AgreedDay{ID: "c", Date: date("2025-02-24")})
	assert.ErrorIs(t, err, leave.ErrDuplicateAgreedDate)

	// Updating a day in place keeps its own date.
	require.NoError(t, s.SaveAgreedDay(ctx, leave.AgreedDay{ID: "b", Date: date("2025-02-24"), Description: "renamed"}))

	n, err := s.ActivateAgreedDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = s.ActivateAgreedDays(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	days, err := s.ListAgreedDays(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "b", days[0].ID, "ordered by date")
	assert.Equal(t, "renamed", days[0].Description)
	assert.True(t, days[0].Active)

	got, err := s.GetAgreedDay(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-25", got.Date.String())

	require.NoError(t, s.DeleteAgreedDay(ctx, "a"))
	_, err = s.GetAgreedDay(ctx, "a")
	assert.True(t, generic.IsNotFound(err))
	assert.True(t, generic.IsNotFound(s.DeleteAgreedDay(ctx, "a")))
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func testTxRollback(t *testing.T, s leave.TxStore) {
	ctx := context.Background()
	saveEmployee(t, s, "1", "Acosta")
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx leave.Store) error {
		if err := tx.AppendRecord(ctx, "1", leave.LeaveRecord{
			ID: "r1", Kind: leave.KindAnnual, StartDate: date("2025-03-10"), EndDate: date("2025-03-10"),
			Days: decimal.NewFromInt(1), Year: 2025,
		}); err != nil {
			return err
		}
		if err := tx.SaveAgreedDay(ctx, leave.AgreedDay{ID: "ag", Date: date("2025-02-24")}); err != nil {
			return err
		}
		// Writes are visible inside the transaction.
		emp, err := tx.GetEmployee(ctx, "1")
		if err != nil {
			return err
		}
		if len(emp.Records) != 1 {
			return errors.New("record not visible in tx")
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	emp, err := s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, emp.Records)
	days, err := s.ListAgreedDays(ctx)
	require.NoError(t, err)
	assert.Empty(t, days)

	require.NoError(t, s.WithTx(ctx, func(tx leave.Store) error {
		return tx.SetEmployeeActive(ctx, "1", false)
	}))
	emp, err = s.GetEmployee(ctx, "1")
	require.NoError(t, err)
	assert.False(t, emp.Active)
}

// =============================================================================
// AUDIT
// =============================================================================

func testAudit(t *testing.T, s leave.TxStore) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, a := range []leave.AuditAction{leave.AuditRequestSubmitted, leave.AuditRequestApproved, leave.AuditRecordCertified} {
		emp := generic.EntityID("1")
		if i == 1 {
			emp = "2"
		}
		require.NoError(t, s.AppendAudit(ctx, leave.AuditEntry{
			ID: string(a), At: at, Action: a, EmployeeID: emp, SubjectID: "q1",
		}))
	}

	entries, err := s.ListAudit(ctx, "1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, leave.AuditRequestSubmitted, entries[0].Action)
	assert.Equal(t, leave.AuditRecordCertified, entries[1].Action)
	assert.True(t, at.Equal(entries[0].At))
}
