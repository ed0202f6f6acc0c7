/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes leave.Service over REST. Handles HTTP request/response, JSON
  serialization and validation, and delegates every rule to the service.

ENDPOINTS:
  Employees:
    GET    /api/employees                        List (?archived=true includes archived)
    POST   /api/employees                        Create employee
    GET    /api/employees/{id}                   Employee with records
    POST   /api/employees/{id}/archive           Archive
    POST   /api/employees/{id}/reactivate        Reactivate
    GET    /api/employees/{id}/balance?year=     Derived summary
    GET    /api/employees/{id}/history?from=&to= Unified history
    GET    /api/employees/{id}/audit             Audit trail
    GET    /api/balances?year=                   Summary of every active employee

  Requests:
    POST   /api/employees/{id}/requests                 Submit
    POST   /api/employees/{id}/requests/{reqID}/approve Approve (appends record)
    POST   /api/employees/{id}/requests/{reqID}/reject  Reject (comment required)
    GET    /api/requests/pending                        Review queue

  Records:
    POST   /api/employees/{id}/records               Manual record
    POST   /api/employees/{id}/records/{recID}/certify  Certify special leave
    POST   /api/employees/{id}/adjustments           Balance adjustment
    POST   /api/employees/{id}/exceptions            Agreed-day exception

  Agreed days:
    GET    /api/agreed-days          List
    POST   /api/agreed-days          Add (inactive)
    PUT    /api/agreed-days/{id}     Update
    DELETE /api/agreed-days/{id}     Delete
    POST   /api/agreed-days/activate Confirm all pending
    POST   /api/agreed-days/seed?year=  Add the yearly template

  Reports:
    GET    /api/reports/employees/{id}?year=&from=&to=  Employee sheet PDF
    GET    /api/reports/general?year=&from=&to=         General report PDF

ERROR HANDLING:
  Errors are returned as JSON ErrorResponse with:
  - 400: Validation errors, invalid input
  - 404: Employee, request, record or agreed day not found
  - 409: Overlaps, duplicates, already-resolved requests
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Resetter wipes all stored data. Both store implementations provide it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Reports *report.Generator
	Store   Resetter
	Logger  *slog.Logger
	Clock   func() time.Time

	validate *validator.Validate

	mu              sync.Mutex
	currentScenario string
}

func NewHandler(svc *leave.Service, reports *report.Generator, store Resetter, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Service:  svc,
		Reports:  reports,
		Store:    store,
		Logger:   logger,
		Clock:    time.Now,
		validate: validator.New(),
	}
}

func (h *Handler) now() time.Time {
	if h.Clock == nil {
		return time.Now()
	}
	return h.Clock()
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	emps, err := h.Service.ListEmployees(r.Context(), includeArchived)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(emps))
	for _, e := range emps {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	emp, err := h.Service.CreateEmployee(r.Context(), leave.NewEmployee{
		ID:       req.ID,
		Name:     req.Name,
		LastName: req.LastName,
		HireDate: req.HireDate,
		Type:     leave.EmploymentType(req.Type),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// EmployeeDetailDTO is an employee with its record log.
type EmployeeDetailDTO struct {
	EmployeeDTO
	Records []RecordDTO `json:"records"`
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Service.GetEmployee(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dto := EmployeeDetailDTO{EmployeeDTO: toEmployeeDTO(emp), Records: make([]RecordDTO, 0, len(emp.Records))}
	for _, rec := range emp.Records {
		dto.Records = append(dto.Records, toRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) ArchiveEmployee(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) ReactivateEmployee(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id := employeeID(r)
	if err := h.Service.SetEmployeeActive(r.Context(), id, active); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	summary, err := h.Service.Balance(r.Context(), employeeID(r), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(summary))
}

func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	rows, err := h.Service.Balances(r.Context(), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]BalanceRowDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, BalanceRowDTO{Employee: toEmployeeDTO(row.Employee), Summary: toSummaryDTO(row.Summary)})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	rng, ok := rangeParams(w, r)
	if !ok {
		return
	}
	history, err := h.Service.History(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if rng != nil {
		history = leave.FilterHistory(history, rng.From, rng.To)
	}
	dtos := make([]HistoryEntryDTO, 0, len(history))
	for _, e := range history {
		dtos = append(dtos, toHistoryEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.Audit(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]AuditEntryDTO, 0, len(entries))
	for _, a := range entries {
		dtos = append(dtos, toAuditEntryDTO(a))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestDTO
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	created, err := h.Service.SubmitRequest(r.Context(), employeeID(r), leave.NewRequest{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Type:      leave.RecordKind(req.Type),
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(created))
}

func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}
	rec, err := h.Service.ApproveRequest(r.Context(), employeeID(r), chi.URLParam(r, "reqID"), req.Comment)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rejected, err := h.Service.RejectRequest(r.Context(), employeeID(r), chi.URLParam(r, "reqID"), req.Comment)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(rejected))
}

func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	pending, err := h.Service.PendingRequests(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	dtos := make([]PendingRequestDTO, 0, len(pending))
	for _, p := range pending {
		dtos = append(dtos, PendingRequestDTO{
			EmployeeID:   string(p.EmployeeID),
			EmployeeName: p.EmployeeName,
			Request:      toRequestDTO(p.Request),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

func (h *Handler) AddManualRecord(w http.ResponseWriter, r *http.Request) {
	var req ManualRecordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := h.Service.AddManualRecord(r.Context(), employeeID(r), leave.ManualRecord{
		Kind:      leave.RecordKind(req.Kind),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(rec))
}

func (h *Handler) CertifyRecord(w http.ResponseWriter, r *http.Request) {
	id := employeeID(r)
	recID := chi.URLParam(r, "recID")
	if err := h.Service.CertifyRecord(r.Context(), id, recID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	rec, _ := emp.Record(recID)
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

func (h *Handler) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := h.Service.AddAdjustment(r.Context(), employeeID(r), leave.Adjustment{
		Year:  req.Year,
		Days:  decimal.NewFromFloat(req.Days),
		Notes: req.Notes,
		Date:  req.Date,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(rec))
}

func (h *Handler) AddException(w http.ResponseWriter, r *http.Request) {
	var req ExceptionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	rec, err := h.Service.AddException(r.Context(), employeeID(r), req.AgreedDayID, req.Notes)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(rec))
}

// =============================================================================
// AGREED DAY HANDLERS
// =============================================================================

func (h *Handler) ListAgreedDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.Service.ListAgreedDays(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agreedDayDTOs(days))
}

func (h *Handler) CreateAgreedDay(w http.ResponseWriter, r *http.Request) {
	var req AgreedDayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	day, err := h.Service.AddAgreedDay(r.Context(), req.Date, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAgreedDayDTO(day))
}

func (h *Handler) UpdateAgreedDay(w http.ResponseWriter, r *http.Request) {
	var req AgreedDayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	day, err := h.Service.UpdateAgreedDay(r.Context(), chi.URLParam(r, "id"), req.Date, req.Description)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgreedDayDTO(day))
}

func (h *Handler) DeleteAgreedDay(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteAgreedDay(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ActivateAgreedDays(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.ActivateAgreedDays(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"activated": n})
}

func (h *Handler) SeedAgreedDays(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	added, err := h.Service.SeedAgreedDays(r.Context(), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agreedDayDTOs(added))
}

func agreedDayDTOs(days []leave.AgreedDay) []AgreedDayDTO {
	dtos := make([]AgreedDayDTO, 0, len(days))
	for _, d := range days {
		dtos = append(dtos, toAgreedDayDTO(d))
	}
	return dtos
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) EmployeeReport(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	rng, ok := rangeParams(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.GetEmployee(r.Context(), employeeID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	agreed, err := h.Service.ListAgreedDays(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.Reports.EmployeeSheet(&buf, emp, agreed, year, rng); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writePDF(w, fmt.Sprintf("Ficha_%s.pdf", fileSafe(emp.LastName)), buf.Bytes())
}

func (h *Handler) GeneralReport(w http.ResponseWriter, r *http.Request) {
	year, ok := h.yearParam(w, r)
	if !ok {
		return
	}
	rng, ok := rangeParams(w, r)
	if !ok {
		return
	}
	emps, err := h.Service.ListEmployees(r.Context(), false)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	agreed, err := h.Service.ListAgreedDays(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.Reports.GeneralReport(&buf, emps, agreed, year, rng); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writePDF(w, fmt.Sprintf("Reporte_General_%d.pdf", year), buf.Bytes())
}

func writePDF(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func fileSafe(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "empleado"
	}
	return s
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeID(r *http.Request) generic.EntityID {
	return generic.EntityID(chi.URLParam(r, "id"))
}

// yearParam reads ?year=, defaulting to the current year.
func (h *Handler) yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return h.now().Year(), true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}

// rangeParams reads ?from=&to=. Returns nil when neither is set; a
// missing bound is open.
func rangeParams(w http.ResponseWriter, r *http.Request) (*report.Range, bool) {
	q := r.URL.Query()
	fromRaw, toRaw := q.Get("from"), q.Get("to")
	if fromRaw == "" && toRaw == "" {
		return nil, true
	}
	var rng report.Range
	for _, p := range []struct {
		raw string
		dst *generic.TimePoint
	}{{fromRaw, &rng.From}, {toRaw, &rng.To}} {
		if p.raw == "" {
			continue
		}
		tp, err := generic.ParseDate(p.raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date range", err)
			return nil, false
		}
		*p.dst = tp
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		writeError(w, http.StatusBadRequest, "Invalid date range", generic.ErrInvalidDateRange)
		return nil, false
	}
	return &rng, true
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// decodeOptional accepts an empty body.
func (h *Handler) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return h.decodeAndValidate(w, r, dst)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case leave.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusRequestTimeout, "Request cancelled", nil)
	default:
		h.Logger.Error("request failed",
			"method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
