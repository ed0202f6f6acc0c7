/*
Package report renders leave PDFs.

PURPOSE:
  Two documents, both fed exclusively by leave.Calculator so the numbers
  printed are the numbers the API returns:

  Employee sheet (portrait):
    Profile block, a Generated / Taken (incl. agreed days) / Remaining
    band and the unified history, optionally filtered by start date.

  General report (landscape):
    One row per employee, sorted by last name. Without a range it shows
    the year's generated and taken days. With a range the generated
    column is N/A and taken is the sum of deducting history entries that
    start inside it. Negative balances are printed in red.

USAGE:
  g := report.NewGenerator(calc)
  err := g.EmployeeSheet(w, emp, agreed, 2025, nil)
  err := g.GeneralReport(w, emps, agreed, 2025, &report.Range{From: from, To: to})

SEE ALSO:
  - leave/balance.go, leave/history.go: Numbers
  - api/handlers.go: /api/reports endpoints
*/
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// Range bounds the history shown, inclusive on both ends.
type Range struct {
	From generic.TimePoint
	To   generic.TimePoint
}

func (r *Range) title() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf(" (%s - %s)", displayDate(r.From), displayDate(r.To))
}

type Generator struct {
	Calculator leave.Calculator
	Company    string
	Now        func() time.Time
}

func NewGenerator(calc leave.Calculator) *Generator {
	return &Generator{Calculator: calc, Company: "Leave Engine", Now: time.Now}
}

type rgb struct{ r, g, b int }

var (
	colorInk     = rgb{29, 29, 27}
	colorAccent  = rgb{239, 125, 0}
	colorMuted   = rgb{156, 163, 175}
	colorBand    = rgb{249, 250, 251}
	colorRed     = rgb{239, 68, 68}
	colorYellow  = rgb{234, 179, 8}
	colorGreen   = rgb{34, 197, 94}
	colorStripe  = rgb{243, 244, 246}
	colorWhite   = rgb{255, 255, 255}
	colorDefault = rgb{55, 65, 81}
)

// =============================================================================
// EMPLOYEE SHEET
// =============================================================================

// EmployeeSheet writes the leave sheet of emp for year.
func (g *Generator) EmployeeSheet(w io.Writer, emp leave.Employee, agreed []leave.AgreedDay, year int, r *Range) error {
	summary := g.Calculator.Summarize(emp, year, agreed)
	history := g.Calculator.History(emp, agreed)
	if r != nil {
		history = leave.FilterHistory(history, r.From, r.To)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	g.header(pdf, tr)

	pdf.SetXY(20, 52)
	pdf.SetFont("Helvetica", "B", 18)
	setText(pdf, colorInk)
	pdf.Cell(0, 10, tr("FICHA DE LICENCIAS"+r.title()))

	// Profile block
	pdf.SetFillColor(253, 253, 253)
	pdf.Rect(20, 66, 170, 36, "F")
	setText(pdf, colorDefault)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(25, 74, tr("INFORMACIÓN DEL COLABORADOR"))

	empType := string(emp.Type)
	if empType == "" {
		empType = string(leave.EmploymentMonthly)
	}
	field := func(x, y float64, label, value string, bold bool) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.Text(x, y, tr(label))
		if bold {
			pdf.SetFont("Helvetica", "B", 10)
		}
		pdf.Text(x+40, y, tr(value))
	}
	field(25, 83, "Colaborador:", emp.FullName(), true)
	field(25, 89, "Documento (C.I.):", string(emp.ID), false)
	field(25, 95, "Tipo:", empType, false)
	field(115, 83, "Ingreso:", displayDate(emp.HireDate), false)
	field(115, 89, "Antigüedad:", fmt.Sprintf("%d años", summary.YearsOfService), false)
	field(115, 95, "Año:", fmt.Sprintf("%d", year), false)

	// Totals band
	taken := summary.TakenDays + summary.FixedDeductions
	pdf.SetXY(20, 110)
	widths := []float64{56, 58, 56}
	tableHeader(pdf, tr, widths, []string{"Generados", "Gozados (Inc. Acuerdos)", "Saldo Disponible"}, colorInk)
	pdf.SetFont("Helvetica", "", 11)
	setText(pdf, colorInk)
	pdf.SetX(20)
	pdf.CellFormat(widths[0], 12, summary.TotalGenerated.String()+" d", "1", 0, "C", false, 0, "")
	pdf.CellFormat(widths[1], 12, fmt.Sprintf("%d d", taken), "1", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	if summary.Overdrawn() {
		setText(pdf, colorRed)
	} else {
		setText(pdf, colorAccent)
	}
	pdf.CellFormat(widths[2], 12, tr(summary.RemainingDays.String()+" días"), "1", 1, "C", false, 0, "")

	// History
	pdf.Ln(12)
	pdf.SetX(20)
	cols := []float64{24, 14, 50, 26, 56}
	tableHeader(pdf, tr, cols, []string{"Fecha", "Cant.", "Tipo", "Estado", "Detalle"}, colorAccent)

	if len(history) == 0 {
		historyRow(pdf, tr, cols, []string{"-", "-", "Sin registros en este período", "-", "-"}, "", false)
	}
	for i, e := range history {
		notes := e.Notes
		if notes == "" {
			notes = "-"
		}
		historyRow(pdf, tr, cols, []string{
			displayDate(e.StartDate),
			displayDays(e),
			e.Label(),
			strings.ToUpper(string(e.Status)),
			notes,
		}, e.Status, i%2 == 1)
	}

	return output(pdf, w)
}

func historyRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []float64, cells []string, status leave.RequestStatus, striped bool) {
	pdf.SetX(20)
	if striped {
		setFill(pdf, colorStripe)
	} else {
		setFill(pdf, colorWhite)
	}
	for i, c := range cells {
		pdf.SetFont("Helvetica", "", 9)
		setText(pdf, colorDefault)
		if i == 3 {
			pdf.SetFont("Helvetica", "B", 9)
			setText(pdf, statusColor(status))
		}
		pdf.CellFormat(cols[i], 7, tr(truncate(c, 40)), "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func statusColor(s leave.RequestStatus) rgb {
	switch s {
	case leave.StatusRejected:
		return colorRed
	case leave.StatusPending:
		return colorYellow
	case leave.StatusApproved:
		return colorGreen
	}
	return colorDefault
}

// =============================================================================
// GENERAL REPORT
// =============================================================================

// GeneralReport writes the consolidated report of emps for year.
func (g *Generator) GeneralReport(w io.Writer, emps []leave.Employee, agreed []leave.AgreedDay, year int, r *Range) error {
	sorted := append([]leave.Employee(nil), emps...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].LastName) < strings.ToLower(sorted[j].LastName)
	})

	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	g.header(pdf, tr)

	pdf.SetXY(20, 52)
	pdf.SetFont("Helvetica", "B", 16)
	setText(pdf, colorInk)
	pdf.Cell(0, 10, tr(fmt.Sprintf("REPORTE CONSOLIDADO DE LICENCIAS %d%s", year, r.title())))

	genHead, takenHead := "Generados", "Gozados (Año)"
	if r != nil {
		genHead, takenHead = "Gen. (N/A)", "Gozados (Rango)"
	}
	cols := []float64{80, 40, 30, 40, 40, 27}
	pdf.SetXY(20, 66)
	tableHeader(pdf, tr, cols, []string{"Colaborador", "Documento", "Tipo", genHead, takenHead, "Saldo Actual"}, colorInk)

	for _, row := range g.generalRows(sorted, agreed, year, r) {
		pdf.SetX(20)
		pdf.SetFont("Helvetica", "", 10)
		setText(pdf, colorInk)
		for i, c := range row.cells {
			pdf.CellFormat(cols[i], 8, tr(truncate(c, 45)), "1", 0, "L", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", 10)
		if row.overdrawn {
			setText(pdf, colorRed)
		}
		pdf.CellFormat(cols[len(cols)-1], 8, row.remaining, "1", 1, "R", false, 0, "")
	}

	return output(pdf, w)
}

type generalRow struct {
	cells     []string
	remaining string
	overdrawn bool
}

func (g *Generator) generalRows(emps []leave.Employee, agreed []leave.AgreedDay, year int, r *Range) []generalRow {
	rows := make([]generalRow, 0, len(emps))
	for _, emp := range emps {
		s := g.Calculator.Summarize(emp, year, agreed)

		generated := s.TotalGenerated.String()
		taken := decimal.NewFromInt(int64(s.TakenDays + s.FixedDeductions))
		if r != nil {
			generated = "-"
			taken = TakenInRange(g.Calculator.History(emp, agreed), *r)
		}
		empType := string(emp.Type)
		if empType == "" {
			empType = string(leave.EmploymentMonthly)
		}
		rows = append(rows, generalRow{
			cells:     []string{emp.FullName(), string(emp.ID), empType, generated, taken.String()},
			remaining: s.RemainingDays.String(),
			overdrawn: s.Overdrawn(),
		})
	}
	return rows
}

// TakenInRange sums the deducting entries that start inside r.
func TakenInRange(history []leave.HistoryEntry, r Range) decimal.Decimal {
	inRange := leave.FilterHistory(history, r.From, r.To)
	deducting := generic.Filter(inRange, func(e leave.HistoryEntry) bool { return e.Deducts })
	return generic.SumDecimal(deducting, func(e leave.HistoryEntry) decimal.Decimal { return e.Days })
}

// =============================================================================
// DRAWING HELPERS
// =============================================================================

func (g *Generator) header(pdf *gofpdf.Fpdf, tr func(string) string) {
	pageW, _ := pdf.GetPageSize()
	setFill(pdf, colorBand)
	pdf.Rect(0, 0, pageW, 40, "F")
	pdf.SetDrawColor(colorAccent.r, colorAccent.g, colorAccent.b)
	pdf.SetLineWidth(1.5)
	pdf.Line(0, 40, pageW, 40)
	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(0, 0, 0)

	pdf.SetFont("Helvetica", "B", 14)
	setText(pdf, colorAccent)
	pdf.Text(20, 24, tr(g.Company))

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	pdf.SetFont("Helvetica", "", 8)
	setText(pdf, colorMuted)
	pdf.SetXY(pageW-80, 8)
	pdf.CellFormat(65, 5, "Generado el: "+now().Format("02/01/2006 15:04"), "", 0, "R", false, 0, "")
}

func tableHeader(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, titles []string, fill rgb) {
	pdf.SetFont("Helvetica", "B", 10)
	setFill(pdf, fill)
	setText(pdf, colorWhite)
	x := pdf.GetX()
	for i, t := range titles {
		pdf.CellFormat(widths[i], 9, tr(t), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetX(x)
}

func setText(pdf *gofpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *gofpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }

func output(pdf *gofpdf.Fpdf, w io.Writer) error {
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// displayDate formats as DD/MM/YYYY.
func displayDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return "-"
	}
	return tp.Time.Format("02/01/2006")
}

// displayDays signs positive adjustments so credits read as "+2".
func displayDays(e leave.HistoryEntry) string {
	if e.Kind == leave.KindAdjustment && e.Days.IsPositive() {
		return "+" + e.Days.String()
	}
	return e.Days.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
