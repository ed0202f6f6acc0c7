// Package memory provides an in-memory leave.TxStore for tests and demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Store struct {
	mu        sync.RWMutex
	employees map[generic.EntityID]*leave.Employee
	agreed    map[string]leave.AgreedDay
	audit     []leave.AuditEntry
}

var _ leave.TxStore = (*Store)(nil)

func New() *Store {
	return &Store{
		employees: make(map[generic.EntityID]*leave.Employee),
		agreed:    make(map[string]leave.AgreedDay),
	}
}

// Reset deletes all data.
func (m *Store) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees = make(map[generic.EntityID]*leave.Employee)
	m.agreed = make(map[string]leave.AgreedDay)
	m.audit = nil
	return nil
}

func (m *Store) GetEmployee(ctx context.Context, id generic.EntityID) (leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (*view)(m).GetEmployee(ctx, id)
}

func (m *Store) ListEmployees(ctx context.Context, includeArchived bool) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (*view)(m).ListEmployees(ctx, includeArchived)
}

func (m *Store) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).SaveEmployee(ctx, emp)
}

func (m *Store) SetEmployeeActive(ctx context.Context, id generic.EntityID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).SetEmployeeActive(ctx, id, active)
}

func (m *Store) AppendRecord(ctx context.Context, empID generic.EntityID, rec leave.LeaveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).AppendRecord(ctx, empID, rec)
}

func (m *Store) SetRecordJustification(ctx context.Context, empID generic.EntityID, recordID string, j leave.Justification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).SetRecordJustification(ctx, empID, recordID, j)
}

func (m *Store) SaveRequest(ctx context.Context, empID generic.EntityID, req leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).SaveRequest(ctx, empID, req)
}

func (m *Store) ListPendingRequests(ctx context.Context) ([]leave.PendingRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (*view)(m).ListPendingRequests(ctx)
}

func (m *Store) ListAgreedDays(ctx context.Context) ([]leave.AgreedDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (*view)(m).ListAgreedDays(ctx)
}

func (m *Store) GetAgreedDay(ctx context.Context, id string) (leave.AgreedDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (*view)(m).GetAgreedDay(ctx, id)
}

func (m *Store) SaveAgreedDay(ctx context.Context, day leave.AgreedDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).SaveAgreedDay(ctx, day)
}

func (m *Store) DeleteAgreedDay(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).DeleteAgreedDay(ctx, id)
}

func (m *Store) ActivateAgreedDays(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).ActivateAgreedDays(ctx)
}

func (m *Store) AppendAudit(ctx context.Context, entry leave.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*view)(m).AppendAudit(ctx, entry)
}

func (m *Store) ListAudit(ctx context.Context, empID generic.EntityID) ([]leave.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return (*view)(m).ListAudit(ctx, empID)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn with the store locked. Writes go straight to the maps;
// on error the state is restored from a snapshot taken before fn ran.
func (m *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn((*view)(m)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	employees map[generic.EntityID]*leave.Employee
	agreed    map[string]leave.AgreedDay
	audit     []leave.AuditEntry
}

func (m *Store) snapshot() snapshot {
	emps := make(map[generic.EntityID]*leave.Employee, len(m.employees))
	for id, e := range m.employees {
		c := cloneEmployee(*e)
		emps[id] = &c
	}
	agreed := make(map[string]leave.AgreedDay, len(m.agreed))
	for id, d := range m.agreed {
		agreed[id] = d
	}
	return snapshot{employees: emps, agreed: agreed, audit: append([]leave.AuditEntry{}, m.audit...)}
}

func (m *Store) restore(s snapshot) {
	m.employees = s.employees
	m.agreed = s.agreed
	m.audit = s.audit
}

func cloneEmployee(e leave.Employee) leave.Employee {
	e.Records = append([]leave.LeaveRecord(nil), e.Records...)
	e.Requests = append([]leave.LeaveRequest(nil), e.Requests...)
	return e
}

// =============================================================================
// VIEW - unlocked operations, used directly inside WithTx
// =============================================================================

type view Store

func (v *view) GetEmployee(_ context.Context, id generic.EntityID) (leave.Employee, error) {
	e, ok := v.employees[id]
	if !ok {
		return leave.Employee{}, generic.EmployeeNotFound(id)
	}
	return cloneEmployee(*e), nil
}

func (v *view) ListEmployees(_ context.Context, includeArchived bool) ([]leave.Employee, error) {
	out := make([]leave.Employee, 0, len(v.employees))
	for _, e := range v.employees {
		if !includeArchived && !e.Active {
			continue
		}
		out = append(out, cloneEmployee(*e))
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].LastName), strings.ToLower(out[j].LastName)
		if li != lj {
			return li < lj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *view) SaveEmployee(_ context.Context, emp leave.Employee) error {
	if existing, ok := v.employees[emp.ID]; ok {
		emp.Records = existing.Records
		emp.Requests = existing.Requests
	} else {
		emp.Records = nil
		emp.Requests = nil
	}
	v.employees[emp.ID] = &emp
	return nil
}

func (v *view) SetEmployeeActive(_ context.Context, id generic.EntityID, active bool) error {
	e, ok := v.employees[id]
	if !ok {
		return generic.EmployeeNotFound(id)
	}
	e.Active = active
	return nil
}

func (v *view) AppendRecord(_ context.Context, empID generic.EntityID, rec leave.LeaveRecord) error {
	e, ok := v.employees[empID]
	if !ok {
		return generic.EmployeeNotFound(empID)
	}
	for _, r := range e.Records {
		if r.ID == rec.ID {
			return generic.ErrDuplicate
		}
	}
	e.Records = append(e.Records, rec)
	return nil
}

func (v *view) SetRecordJustification(_ context.Context, empID generic.EntityID, recordID string, j leave.Justification) error {
	e, ok := v.employees[empID]
	if !ok {
		return generic.EmployeeNotFound(empID)
	}
	for i := range e.Records {
		if e.Records[i].ID == recordID {
			e.Records[i].Justification = j
			return nil
		}
	}
	return leave.RecordNotFound(recordID)
}

func (v *view) SaveRequest(_ context.Context, empID generic.EntityID, req leave.LeaveRequest) error {
	e, ok := v.employees[empID]
	if !ok {
		return generic.EmployeeNotFound(empID)
	}
	for i := range e.Requests {
		if e.Requests[i].ID == req.ID {
			e.Requests[i] = req
			return nil
		}
	}
	e.Requests = append(e.Requests, req)
	return nil
}

func (v *view) ListPendingRequests(_ context.Context) ([]leave.PendingRequest, error) {
	var out []leave.PendingRequest
	for _, e := range v.employees {
		if !e.Active {
			continue
		}
		for _, r := range e.Requests {
			if r.Status == leave.StatusPending {
				out = append(out, leave.PendingRequest{EmployeeID: e.ID, EmployeeName: e.FullName(), Request: r})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Request.CreatedAt.Before(out[j].Request.CreatedAt) })
	return out, nil
}

func (v *view) ListAgreedDays(_ context.Context) ([]leave.AgreedDay, error) {
	out := make([]leave.AgreedDay, 0, len(v.agreed))
	for _, d := range v.agreed {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (v *view) GetAgreedDay(_ context.Context, id string) (leave.AgreedDay, error) {
	d, ok := v.agreed[id]
	if !ok {
		return leave.AgreedDay{}, leave.AgreedDayNotFound(id)
	}
	return d, nil
}

func (v *view) SaveAgreedDay(_ context.Context, day leave.AgreedDay) error {
	for id, d := range v.agreed {
		if id != day.ID && d.Date.Equal(day.Date) {
			return leave.ErrDuplicateAgreedDate
		}
	}
	v.agreed[day.ID] = day
	return nil
}

func (v *view) DeleteAgreedDay(_ context.Context, id string) error {
	if _, ok := v.agreed[id]; !ok {
		return leave.AgreedDayNotFound(id)
	}
	delete(v.agreed, id)
	return nil
}

func (v *view) ActivateAgreedDays(_ context.Context) (int, error) {
	n := 0
	for id, d := range v.agreed {
		if !d.Active {
			d.Active = true
			v.agreed[id] = d
			n++
		}
	}
	return n, nil
}

func (v *view) AppendAudit(_ context.Context, entry leave.AuditEntry) error {
	v.audit = append(v.audit, entry)
	return nil
}

func (v *view) ListAudit(_ context.Context, empID generic.EntityID) ([]leave.AuditEntry, error) {
	var out []leave.AuditEntry
	for _, a := range v.audit {
		if a.EmployeeID == empID {
			out = append(out, a)
		}
	}
	return out, nil
}
