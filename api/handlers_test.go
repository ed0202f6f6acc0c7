/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Employee CRUD, archive and status mapping of service errors
- Request workflow through the HTTP surface
- Records, certification, adjustments and exceptions
- Agreed day management and its effect on the balance
- PDF report endpoints
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/report"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	router  http.Handler
	handler *Handler
	svc     *leave.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calc := leave.Calculator{Policy: leave.DefaultAccrualPolicy(), AsOf: generic.NewTimePoint(2025, time.June, 1)}
	clock := func() time.Time { return testNow }

	svc := leave.NewService(store, calc, logger)
	svc.Clock = clock
	reports := report.NewGenerator(calc)
	reports.Now = clock

	h := NewHandler(svc, reports, store, logger)
	h.Clock = clock
	return &testEnv{router: NewRouter(h, []string{"*"}), handler: h, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const empID = "1.234.567-8"

func (e *testEnv) createEmployee(t *testing.T, id, lastName, hire string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/employees", CreateEmployeeRequest{
		ID: id, Name: "Ana", LastName: lastName, HireDate: hire, Type: "Mensual",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CreateAndGet(t *testing.T) {
	env := newTestEnv(t)

	// WHEN: Creating an employee
	env.createEmployee(t, empID, "Pereira", "2022-01-10")

	// THEN: It can be read back with an empty record list
	rec := env.do(t, http.MethodGet, "/api/employees/"+empID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[EmployeeDetailDTO](t, rec)
	assert.Equal(t, "Pereira, Ana", got.FullName)
	assert.Equal(t, "2022-01-10", got.HireDate)
	assert.True(t, got.Active)
	assert.Empty(t, got.Records)
}

func TestEmployees_ErrorStatus(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{
			name:   "duplicate id",
			method: http.MethodPost, path: "/api/employees",
			body: CreateEmployeeRequest{ID: empID, Name: "Ana", HireDate: "2022-01-10"},
			want: http.StatusConflict,
		},
		{
			name:   "missing hire date",
			method: http.MethodPost, path: "/api/employees",
			body: CreateEmployeeRequest{ID: "x", Name: "Ana"},
			want: http.StatusBadRequest,
		},
		{
			name:   "unknown employment type",
			method: http.MethodPost, path: "/api/employees",
			body: CreateEmployeeRequest{ID: "x", Name: "Ana", HireDate: "2022-01-10", Type: "Zafral"},
			want: http.StatusBadRequest,
		},
		{
			name:   "unknown employee",
			method: http.MethodGet, path: "/api/employees/9.999.999-9",
			want: http.StatusNotFound,
		},
		{
			name:   "malformed body",
			method: http.MethodPost, path: "/api/employees",
			body: "not an object",
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestEmployees_ArchiveAndReactivate(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")

	// WHEN: Archiving
	rec := env.do(t, http.MethodPost, "/api/employees/"+empID+"/archive", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[EmployeeDTO](t, rec).Active)

	// THEN: Hidden from the default list, shown with archived=true
	list := decode[[]EmployeeDTO](t, env.do(t, http.MethodGet, "/api/employees", nil))
	assert.Empty(t, list)
	list = decode[[]EmployeeDTO](t, env.do(t, http.MethodGet, "/api/employees?archived=true", nil))
	assert.Len(t, list, 1)

	rec = env.do(t, http.MethodPost, "/api/employees/"+empID+"/reactivate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[EmployeeDTO](t, rec).Active)
}

// =============================================================================
// BALANCE
// =============================================================================

func TestBalance_DefaultsToCurrentYear(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")

	rec := env.do(t, http.MethodGet, "/api/employees/"+empID+"/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[SummaryDTO](t, rec)
	assert.Equal(t, 2025, got.Year)
	assert.Equal(t, 20.0, got.TotalGenerated)
	assert.Equal(t, 20.0, got.RemainingDays)
	assert.Equal(t, 3, got.YearsOfService)
	assert.NotNil(t, got.AgreedDays)
}

func TestBalance_InvalidYear(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")

	rec := env.do(t, http.MethodGet, "/api/employees/"+empID+"/balance?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalances_SortedByLastName(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, "1", "suárez", "2022-01-10")
	env.createEmployee(t, "2", "Acosta", "2022-01-10")

	rec := env.do(t, http.MethodGet, "/api/balances?year=2025", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rows := decode[[]BalanceRowDTO](t, rec)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acosta", rows[0].Employee.LastName)
	assert.Equal(t, 20.0, rows[1].Summary.RemainingDays)
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestRequests_SubmitApproveReject(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")
	base := "/api/employees/" + empID

	// GIVEN: A week of annual leave submitted
	rec := env.do(t, http.MethodPost, base+"/requests", SubmitRequestDTO{
		StartDate: "2025-03-03", EndDate: "2025-03-07", Type: "Anual", Reason: "Vacaciones",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	submitted := decode[RequestDTO](t, rec)
	assert.Equal(t, 5, submitted.Days)
	assert.Equal(t, "Pendiente", submitted.Status)
	assert.Nil(t, submitted.ProcessedAt)

	// THEN: An overlapping request conflicts
	rec = env.do(t, http.MethodPost, base+"/requests", SubmitRequestDTO{
		StartDate: "2025-03-06", EndDate: "2025-03-10", Type: "Anual",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// AND: It is in the review queue
	pending := decode[[]PendingRequestDTO](t, env.do(t, http.MethodGet, "/api/requests/pending", nil))
	require.Len(t, pending, 1)
	assert.Equal(t, "Pereira, Ana", pending[0].EmployeeName)

	// WHEN: Approving without a body
	rec = env.do(t, http.MethodPost, base+"/requests/"+submitted.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	record := decode[RecordDTO](t, rec)
	assert.True(t, strings.HasPrefix(record.ID, "app-"))
	assert.Equal(t, 5.0, record.Days)

	// THEN: A second approval conflicts and the balance drops
	rec = env.do(t, http.MethodPost, base+"/requests/"+submitted.ID+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	summary := decode[SummaryDTO](t, env.do(t, http.MethodGet, base+"/balance?year=2025", nil))
	assert.Equal(t, 5, summary.TakenDays)
	assert.Equal(t, 15.0, summary.RemainingDays)

	// WHEN: Rejecting another request needs a comment
	rec = env.do(t, http.MethodPost, base+"/requests", SubmitRequestDTO{
		StartDate: "2025-04-14", EndDate: "2025-04-15", Type: "Sin Goce",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[RequestDTO](t, rec)

	rec = env.do(t, http.MethodPost, base+"/requests/"+second.ID+"/reject", ReviewRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/requests/"+second.ID+"/reject", ReviewRequest{Comment: "Sin cobertura"})
	require.Equal(t, http.StatusOK, rec.Code)
	rejected := decode[RequestDTO](t, rec)
	assert.Equal(t, "Rechazado", rejected.Status)
	require.NotNil(t, rejected.ProcessedAt)

	// THEN: History holds the approved record and the rejected request
	history := decode[[]HistoryEntryDTO](t, env.do(t, http.MethodGet, base+"/history", nil))
	require.Len(t, history, 2)
	assert.Equal(t, "request", history[0].Source)
	assert.Equal(t, "Sin cobertura", history[0].AdminComment)
	assert.False(t, history[0].Deducts)
	assert.Equal(t, "record", history[1].Source)
	assert.True(t, history[1].Deducts)
}

func TestRequests_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")
	path := "/api/employees/" + empID + "/requests"

	tests := []struct {
		name string
		body SubmitRequestDTO
	}{
		{"weekend only", SubmitRequestDTO{StartDate: "2025-03-08", EndDate: "2025-03-09", Type: "Anual"}},
		{"reversed range", SubmitRequestDTO{StartDate: "2025-03-10", EndDate: "2025-03-03", Type: "Anual"}},
		{"bad date", SubmitRequestDTO{StartDate: "2025-13-01", EndDate: "2025-13-02", Type: "Anual"}},
		{"kind not requestable", SubmitRequestDTO{StartDate: "2025-03-03", EndDate: "2025-03-04", Type: "AjusteSaldo"}},
		{"missing type", SubmitRequestDTO{StartDate: "2025-03-03", EndDate: "2025-03-04"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestRequests_UnknownRequest(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")

	rec := env.do(t, http.MethodPost, "/api/employees/"+empID+"/requests/req-missing/approve", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// RECORDS
// =============================================================================

func TestRecords_CertifyAndAdjust(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")
	base := "/api/employees/" + empID

	// GIVEN: Special leave loaded by HR
	rec := env.do(t, http.MethodPost, base+"/records", ManualRecordRequest{
		Kind: "Especial", StartDate: "2025-02-03", EndDate: "2025-02-07", Notes: "Licencia por estudio",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	special := decode[RecordDTO](t, rec)
	require.NotNil(t, special.Justified)
	assert.False(t, *special.Justified)
	assert.Equal(t, "Licencia por Estudio", special.Label)

	summary := decode[SummaryDTO](t, env.do(t, http.MethodGet, base+"/balance?year=2025", nil))
	assert.Equal(t, 15.0, summary.RemainingDays)

	// WHEN: Certifying it
	rec = env.do(t, http.MethodPost, base+"/records/"+special.ID+"/certify", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	certified := decode[RecordDTO](t, rec)
	require.NotNil(t, certified.Justified)
	assert.True(t, *certified.Justified)

	// THEN: The days no longer count against the balance
	summary = decode[SummaryDTO](t, env.do(t, http.MethodGet, base+"/balance?year=2025", nil))
	assert.Equal(t, 20.0, summary.RemainingDays)

	// WHEN: Adding a fractional adjustment
	rec = env.do(t, http.MethodPost, base+"/adjustments", AdjustmentRequest{Year: 2025, Days: 2.5, Notes: "Horas extra"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	adj := decode[RecordDTO](t, rec)
	assert.Equal(t, "2025-01-01", adj.StartDate)

	summary = decode[SummaryDTO](t, env.do(t, http.MethodGet, base+"/balance?year=2025", nil))
	assert.Equal(t, 22.5, summary.TotalGenerated)
	assert.Equal(t, 2.5, summary.Adjustments)

	// AND: The audit trail records each step in order
	audit := decode[[]AuditEntryDTO](t, env.do(t, http.MethodGet, base+"/audit", nil))
	actions := make([]string, 0, len(audit))
	for _, a := range audit {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []string{
		string(leave.AuditRecordAdded),
		string(leave.AuditRecordCertified),
		string(leave.AuditAdjustment),
	}, actions)
}

func TestRecords_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")
	base := "/api/employees/" + empID

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{
			name: "manual exception kind",
			path: base + "/records",
			body: ManualRecordRequest{Kind: "Excepcion", StartDate: "2025-02-03", EndDate: "2025-02-03"},
			want: http.StatusBadRequest,
		},
		{
			name: "certify unknown record",
			path: base + "/records/man-missing/certify",
			want: http.StatusNotFound,
		},
		{
			name: "zero adjustment",
			path: base + "/adjustments",
			body: AdjustmentRequest{Year: 2025, Days: 0},
			want: http.StatusBadRequest,
		},
		{
			name: "exception for unknown agreed day",
			path: base + "/exceptions",
			body: ExceptionRequest{AgreedDayID: "missing"},
			want: http.StatusNotFound,
		},
		{
			name: "record for unknown employee",
			path: "/api/employees/0.000.000-0/records",
			body: ManualRecordRequest{Kind: "Anual", StartDate: "2025-02-03", EndDate: "2025-02-03"},
			want: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

// =============================================================================
// AGREED DAYS
// =============================================================================

func TestAgreedDays_SeedActivateAndExcept(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")

	// GIVEN: The 2025 template seeded twice
	rec := env.do(t, http.MethodPost, "/api/agreed-days/seed?year=2025", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[[]AgreedDayDTO](t, rec), 6)

	rec = env.do(t, http.MethodPost, "/api/agreed-days/seed?year=2025", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, decode[[]AgreedDayDTO](t, rec))

	// THEN: Inactive days do not affect the balance
	summary := decode[SummaryDTO](t, env.do(t, http.MethodGet, "/api/employees/"+empID+"/balance?year=2025", nil))
	assert.Equal(t, 0, summary.FixedDeductions)

	// WHEN: Activating
	rec = env.do(t, http.MethodPost, "/api/agreed-days/activate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"activated": 6}, decode[map[string]int](t, rec))

	summary = decode[SummaryDTO](t, env.do(t, http.MethodGet, "/api/employees/"+empID+"/balance?year=2025", nil))
	assert.Equal(t, 6, summary.FixedDeductions)
	assert.Equal(t, 14.0, summary.RemainingDays)

	// AND: Excepting one agreed day for the employee
	days := decode[[]AgreedDayDTO](t, env.do(t, http.MethodGet, "/api/agreed-days", nil))
	require.Len(t, days, 6)
	rec = env.do(t, http.MethodPost, "/api/employees/"+empID+"/exceptions", ExceptionRequest{AgreedDayID: days[0].ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/employees/"+empID+"/exceptions", ExceptionRequest{AgreedDayID: days[0].ID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	summary = decode[SummaryDTO](t, env.do(t, http.MethodGet, "/api/employees/"+empID+"/balance?year=2025", nil))
	assert.Equal(t, 5, summary.FixedDeductions)
	assert.Equal(t, 15.0, summary.RemainingDays)
}

func TestAgreedDays_CRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/agreed-days", AgreedDayRequest{Date: "2025-12-24", Description: "Nochebuena"})
	require.Equal(t, http.StatusCreated, rec.Code)
	day := decode[AgreedDayDTO](t, rec)
	assert.False(t, day.Active)

	// Unique dates
	rec = env.do(t, http.MethodPost, "/api/agreed-days", AgreedDayRequest{Date: "2025-12-24"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/agreed-days/"+day.ID, AgreedDayRequest{Date: "2025-12-31", Description: "Fin de año"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-12-31", decode[AgreedDayDTO](t, rec).Date)

	rec = env.do(t, http.MethodPut, "/api/agreed-days/missing", AgreedDayRequest{Date: "2025-12-30"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/agreed-days/"+day.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/agreed-days/"+day.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// REPORTS
// =============================================================================

func TestReports_PDF(t *testing.T) {
	env := newTestEnv(t)
	env.createEmployee(t, empID, "Pereira", "2022-01-10")

	tests := []struct {
		name     string
		path     string
		want     int
		filename string
	}{
		{"employee sheet", "/api/reports/employees/" + empID + "?year=2025", http.StatusOK, "Ficha_Pereira.pdf"},
		{"employee sheet with range", "/api/reports/employees/" + empID + "?from=2025-01-01&to=2025-06-30", http.StatusOK, "Ficha_Pereira.pdf"},
		{"general", "/api/reports/general?year=2025", http.StatusOK, "Reporte_General_2025.pdf"},
		{"unknown employee", "/api/reports/employees/0.000.000-0", http.StatusNotFound, ""},
		{"invalid from", "/api/reports/general?from=01/01/2025", http.StatusBadRequest, ""},
		{"reversed range", "/api/reports/general?from=2025-06-30&to=2025-01-01", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.filename == "" {
				return
			}
			assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), tt.filename)
			assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
		})
	}
}

func TestFileSafe(t *testing.T) {
	assert.Equal(t, "M_ndez", fileSafe("Méndez"))
	assert.Equal(t, "De_Le_n", fileSafe("De León"))
	assert.Equal(t, "empleado", fileSafe(""))
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}
