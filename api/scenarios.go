/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the store with realistic
	data for demos and manual QA. Every scenario goes through leave.Service,
	so the data is exactly what the HR screens would have produced.

AVAILABLE SCENARIOS:

	first-year:     Hired last March, prorated base days, one pending request
	seniority:      Twelve years of service, agreed days and an exception
	special-leave:  Special leave awaiting and holding certification, unpaid leave
	overdrawn:      Advance leave beyond the balance, manual adjustments

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Seed and activate the current year's agreed days
 3. Create employees
 4. Submit, approve and reject requests; load manual records

Dates are relative to the current year so balances stay meaningful.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "seniority"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler struct
  - leave/service.go: Operations used by the loaders
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "first-year",
		Name:        "First Year",
		Description: "Monthly employee hired last March: prorated base days and a pending request",
	},
	{
		ID:          "seniority",
		Name:        "Seniority",
		Description: "Day laborer with twelve years of service: seniority bonus, agreed days and an exception",
	},
	{
		ID:          "special-leave",
		Name:        "Special Leave",
		Description: "Special leave pending certification next to a certified one, plus unpaid leave",
	},
	{
		ID:          "overdrawn",
		Name:        "Overdrawn",
		Description: "Advance leave beyond the generated days and manual balance adjustments",
	},
}

type scenarioLoader func(h *Handler, ctx context.Context, year int) error

func loaderFor(id string) (scenarioLoader, bool) {
	switch id {
	case "first-year":
		return loadFirstYearScenario, true
	case "seniority":
		return loadSeniorityScenario, true
	case "special-leave":
		return loadSpecialLeaveScenario, true
	case "overdrawn":
		return loadOverdrawnScenario, true
	}
	return nil, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	load, ok := loaderFor(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("no scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(h, ctx, h.now().Year()); err != nil {
		h.Logger.Error("scenario load failed", "scenario", req.ScenarioID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}
	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func loadFirstYearScenario(h *Handler, ctx context.Context, year int) error {
	svc := h.Service
	if err := seedAgreedDays(ctx, svc, year); err != nil {
		return err
	}
	emp, err := svc.CreateEmployee(ctx, leave.NewEmployee{
		ID:       "4.512.330-1",
		Name:     "Lucía",
		LastName: "Fernández",
		HireDate: date(year-1, time.March, 1),
		Type:     leave.EmploymentMonthly,
	})
	if err != nil {
		return err
	}

	start, end := workWeek(year, time.November, 2)
	_, err = svc.SubmitRequest(ctx, emp.ID, leave.NewRequest{
		StartDate: start,
		EndDate:   end,
		Type:      leave.KindAnnual,
		Reason:    "Viaje familiar",
	})
	return err
}

func loadSeniorityScenario(h *Handler, ctx context.Context, year int) error {
	svc := h.Service
	if err := seedAgreedDays(ctx, svc, year); err != nil {
		return err
	}
	emp, err := svc.CreateEmployee(ctx, leave.NewEmployee{
		ID:       "2.876.104-5",
		Name:     "Jorge",
		LastName: "Acosta",
		HireDate: date(year-12, time.March, 2),
		Type:     leave.EmploymentHourly,
	})
	if err != nil {
		return err
	}

	for _, month := range []time.Month{time.January, time.March} {
		start, end := workWeek(year, month, 3)
		req, err := svc.SubmitRequest(ctx, emp.ID, leave.NewRequest{StartDate: start, EndDate: end, Type: leave.KindAnnual})
		if err != nil {
			return err
		}
		if _, err := svc.ApproveRequest(ctx, emp.ID, req.ID, ""); err != nil {
			return err
		}
	}

	start, end := workWeek(year, time.May, 1)
	req, err := svc.SubmitRequest(ctx, emp.ID, leave.NewRequest{
		StartDate: start,
		EndDate:   end,
		Type:      leave.KindAnnual,
		Reason:    "Cierre de balance",
	})
	if err != nil {
		return err
	}
	if _, err := svc.RejectRequest(ctx, emp.ID, req.ID, "Semana de cierre, reprogramar"); err != nil {
		return err
	}

	// Worked the first Carnival day.
	agreed, err := svc.ListAgreedDays(ctx)
	if err != nil {
		return err
	}
	carnival := generic.NewTimePoint(year, time.February, 24)
	for _, d := range agreed {
		if d.Date.Equal(carnival) {
			_, err := svc.AddException(ctx, emp.ID, d.ID, "Guardia de mantenimiento")
			return err
		}
	}
	return nil
}

func loadSpecialLeaveScenario(h *Handler, ctx context.Context, year int) error {
	svc := h.Service
	if err := seedAgreedDays(ctx, svc, year); err != nil {
		return err
	}
	emp, err := svc.CreateEmployee(ctx, leave.NewEmployee{
		ID:       "3.905.221-7",
		Name:     "Valentina",
		LastName: "Suárez",
		HireDate: date(year-4, time.September, 15),
		Type:     leave.EmploymentMonthly,
	})
	if err != nil {
		return err
	}

	start, end := workWeek(year, time.February, 2)
	certified, err := svc.AddManualRecord(ctx, emp.ID, leave.ManualRecord{
		Kind:      leave.KindSpecial,
		StartDate: start,
		EndDate:   end,
		Notes:     "Licencia por estudio",
	})
	if err != nil {
		return err
	}
	if err := svc.CertifyRecord(ctx, emp.ID, certified.ID); err != nil {
		return err
	}

	start, end = workWeek(year, time.June, 1)
	req, err := svc.SubmitRequest(ctx, emp.ID, leave.NewRequest{
		StartDate: start,
		EndDate:   end,
		Type:      leave.KindSpecial,
		Reason:    "Licencia médica",
	})
	if err != nil {
		return err
	}
	if _, err := svc.ApproveRequest(ctx, emp.ID, req.ID, "Presentar certificado"); err != nil {
		return err
	}

	start, end = workWeek(year, time.August, 2)
	_, err = svc.AddManualRecord(ctx, emp.ID, leave.ManualRecord{
		Kind:      leave.KindUnpaid,
		StartDate: start,
		EndDate:   end,
		Notes:     "Mudanza",
	})
	return err
}

func loadOverdrawnScenario(h *Handler, ctx context.Context, year int) error {
	svc := h.Service
	if err := seedAgreedDays(ctx, svc, year); err != nil {
		return err
	}
	emp, err := svc.CreateEmployee(ctx, leave.NewEmployee{
		ID:       "5.018.447-3",
		Name:     "Martín",
		LastName: "Méndez",
		HireDate: date(year-1, time.October, 1),
		Type:     leave.EmploymentHourly,
	})
	if err != nil {
		return err
	}

	for _, month := range []time.Month{time.January, time.March, time.April, time.July, time.September} {
		start, end := workWeek(year, month, 4)
		if _, err := svc.AddManualRecord(ctx, emp.ID, leave.ManualRecord{
			Kind:      leave.KindAdvance,
			StartDate: start,
			EndDate:   end,
			Notes:     "Adelanto acordado con gerencia",
		}); err != nil {
			return err
		}
	}

	if _, err := svc.AddAdjustment(ctx, emp.ID, leave.Adjustment{
		Year:  year,
		Days:  decimal.NewFromFloat(1.5),
		Notes: "Compensación por horas extra",
	}); err != nil {
		return err
	}
	_, err = svc.AddAdjustment(ctx, emp.ID, leave.Adjustment{
		Year:  year - 1,
		Days:  decimal.NewFromInt(-2),
		Notes: "Corrección de saldo anterior",
	})
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func seedAgreedDays(ctx context.Context, svc *leave.Service, year int) error {
	if _, err := svc.SeedAgreedDays(ctx, year); err != nil {
		return err
	}
	_, err := svc.ActivateAgreedDays(ctx)
	return err
}

func date(year int, month time.Month, day int) string {
	return generic.NewTimePoint(year, month, day).String()
}

// workWeek returns the Monday and Friday of the nth week starting in month.
func workWeek(year int, month time.Month, n int) (string, string) {
	monday := generic.NewTimePoint(year, month, 1)
	for monday.Weekday() != time.Monday {
		monday = monday.AddDays(1)
	}
	monday = monday.AddDays(7 * (n - 1))
	return monday.String(), monday.AddDays(4).String()
}
