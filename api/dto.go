/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the leave
  domain model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry go-playground/validator tags and are checked by
  decodeAndValidate before reaching the service. Domain rules (working
  days, overlaps, allowed kinds) stay in leave.Service.

NUMBERS:
  Day amounts are decimals internally and rendered as JSON numbers.
  Justification is null (not applicable), false (pending) or true.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	FullName string `json:"full_name"`
	HireDate string `json:"hire_date"`
	Type     string `json:"type"`
	Active   bool   `json:"active"`
}

type CreateEmployeeRequest struct {
	ID       string `json:"id" validate:"required,max=64"`
	Name     string `json:"name" validate:"required,max=100"`
	LastName string `json:"last_name" validate:"max=100"`
	HireDate string `json:"hire_date" validate:"required,datetime=2006-01-02"`
	Type     string `json:"type" validate:"omitempty,oneof=Jornalero Mensual"`
}

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:       string(e.ID),
		Name:     e.Name,
		LastName: e.LastName,
		FullName: e.FullName(),
		HireDate: e.HireDate.String(),
		Type:     string(e.Type),
		Active:   e.Active,
	}
}

// =============================================================================
// BALANCE
// =============================================================================

type SummaryDTO struct {
	Year            int            `json:"year"`
	BaseDays        float64        `json:"base_days"`
	SeniorityDays   int            `json:"seniority_days"`
	Adjustments     float64        `json:"adjustments"`
	TotalGenerated  float64        `json:"total_generated"`
	AvailablePool   float64        `json:"available_pool"`
	FixedDeductions int            `json:"fixed_deductions"`
	TakenDays       int            `json:"taken_days"`
	RemainingDays   float64        `json:"remaining_days"`
	YearsOfService  int            `json:"years_of_service"`
	Overdrawn       bool           `json:"overdrawn"`
	AgreedDays      []AgreedDayDTO `json:"agreed_days"`
}

func toSummaryDTO(s leave.Summary) SummaryDTO {
	agreed := make([]AgreedDayDTO, 0, len(s.AgreedDays))
	for _, d := range s.AgreedDays {
		agreed = append(agreed, toAgreedDayDTO(d))
	}
	return SummaryDTO{
		Year:            s.Year,
		BaseDays:        toFloat(s.BaseDays),
		SeniorityDays:   s.SeniorityDays,
		Adjustments:     toFloat(s.Adjustments),
		TotalGenerated:  toFloat(s.TotalGenerated),
		AvailablePool:   toFloat(s.AvailablePool),
		FixedDeductions: s.FixedDeductions,
		TakenDays:       s.TakenDays,
		RemainingDays:   toFloat(s.RemainingDays),
		YearsOfService:  s.YearsOfService,
		Overdrawn:       s.Overdrawn(),
		AgreedDays:      agreed,
	}
}

// BalanceRowDTO is one line of the all-employees balance listing.
type BalanceRowDTO struct {
	Employee EmployeeDTO `json:"employee"`
	Summary  SummaryDTO  `json:"summary"`
}

// =============================================================================
// HISTORY AND RECORDS
// =============================================================================

type HistoryEntryDTO struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Label        string  `json:"label"`
	Source       string  `json:"source"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Days         float64 `json:"days"`
	Notes        string  `json:"notes,omitempty"`
	Status       string  `json:"status"`
	AdminComment string  `json:"admin_comment,omitempty"`
	Year         int     `json:"year"`
	Justified    *bool   `json:"justified"`
	Deducts      bool    `json:"deducts"`
}

func toHistoryEntryDTO(e leave.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:           e.ID,
		Kind:         string(e.Kind),
		Label:        e.Label(),
		Source:       string(e.Source),
		StartDate:    e.StartDate.String(),
		EndDate:      e.EndDate.String(),
		Days:         toFloat(e.Days),
		Notes:        e.Notes,
		Status:       string(e.Status),
		AdminComment: e.AdminComment,
		Year:         e.Year,
		Justified:    e.Justification.Bool(),
		Deducts:      e.Deducts,
	}
}

type RecordDTO struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Label       string  `json:"label"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Days        float64 `json:"days"`
	Notes       string  `json:"notes,omitempty"`
	Year        int     `json:"year"`
	Justified   *bool   `json:"justified"`
	AgreedDayID string  `json:"agreed_day_id,omitempty"`
}

func toRecordDTO(r leave.LeaveRecord) RecordDTO {
	return RecordDTO{
		ID:          r.ID,
		Kind:        string(r.Kind),
		Label:       leave.Label(r.Kind, r.Notes),
		StartDate:   r.StartDate.String(),
		EndDate:     r.EndDate.String(),
		Days:        toFloat(r.Days),
		Notes:       r.Notes,
		Year:        r.EffectiveYear(),
		Justified:   r.Justification.Bool(),
		AgreedDayID: r.AgreedDayID,
	}
}

type ManualRecordRequest struct {
	Kind      string `json:"kind" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Notes     string `json:"notes" validate:"max=500"`
}

type AdjustmentRequest struct {
	Year  int     `json:"year" validate:"required,gt=0"`
	Days  float64 `json:"days" validate:"required"`
	Notes string  `json:"notes" validate:"max=500"`
	Date  string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type ExceptionRequest struct {
	AgreedDayID string `json:"agreed_day_id" validate:"required"`
	Notes       string `json:"notes" validate:"max=500"`
}

// =============================================================================
// REQUESTS
// =============================================================================

type SubmitRequestDTO struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Type      string `json:"type" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

type ReviewRequest struct {
	Comment string `json:"comment" validate:"max=500"`
}

type RequestDTO struct {
	ID           string  `json:"id"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Days         int     `json:"days"`
	Reason       string  `json:"reason,omitempty"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	AdminComment string  `json:"admin_comment,omitempty"`
	CreatedAt    string  `json:"created_at"`
	ProcessedAt  *string `json:"processed_at,omitempty"`
}

func toRequestDTO(r leave.LeaveRequest) RequestDTO {
	dto := RequestDTO{
		ID:           r.ID,
		StartDate:    r.StartDate.String(),
		EndDate:      r.EndDate.String(),
		Days:         r.Days,
		Reason:       r.Reason,
		Type:         string(r.Type),
		Status:       string(r.Status),
		AdminComment: r.AdminComment,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.ProcessedAt != nil {
		s := r.ProcessedAt.Format(time.RFC3339)
		dto.ProcessedAt = &s
	}
	return dto
}

type PendingRequestDTO struct {
	EmployeeID   string     `json:"employee_id"`
	EmployeeName string     `json:"employee_name"`
	Request      RequestDTO `json:"request"`
}

// =============================================================================
// AGREED DAYS
// =============================================================================

type AgreedDayDTO struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type AgreedDayRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Description string `json:"description" validate:"max=200"`
}

func toAgreedDayDTO(d leave.AgreedDay) AgreedDayDTO {
	return AgreedDayDTO{ID: d.ID, Date: d.Date.String(), Description: d.Description, Active: d.Active}
}

// =============================================================================
// AUDIT
// =============================================================================

type AuditEntryDTO struct {
	ID        string `json:"id"`
	At        string `json:"at"`
	Action    string `json:"action"`
	SubjectID string `json:"subject_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

func toAuditEntryDTO(a leave.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:        a.ID,
		At:        a.At.Format(time.RFC3339),
		Action:    string(a.Action),
		SubjectID: a.SubjectID,
		Detail:    a.Detail,
	}
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
