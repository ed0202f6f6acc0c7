package leave_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(s string) generic.TimePoint {
	tp, err := generic.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return tp
}

// calcAt returns a calculator with the default policy measuring seniority at asOf.
func calcAt(asOf string) leave.Calculator {
	return leave.Calculator{Policy: leave.DefaultAccrualPolicy(), AsOf: day(asOf)}
}

func record(id string, kind leave.RecordKind, start, end string) leave.LeaveRecord {
	return leave.LeaveRecord{
		ID:        id,
		Kind:      kind,
		StartDate: day(start),
		EndDate:   day(end),
		Days:      decimal.NewFromInt(int64(generic.CountWorkingDays(start, end, nil))),
		Year:      day(start).Year(),
	}
}

func adjustment(id string, year int, days string) leave.LeaveRecord {
	return leave.LeaveRecord{
		ID:        id,
		Kind:      leave.KindAdjustment,
		StartDate: generic.StartOfYear(year),
		EndDate:   generic.StartOfYear(year),
		Days:      decimal.RequireFromString(days),
		Year:      year,
	}
}

func exception(id, agreedDayID, date string) leave.LeaveRecord {
	return leave.LeaveRecord{
		ID:          id,
		Kind:        leave.KindException,
		StartDate:   day(date),
		EndDate:     day(date),
		Days:        decimal.NewFromInt(1),
		Year:        day(date).Year(),
		AgreedDayID: agreedDayID,
	}
}

func agreed(id, date string, active bool) leave.AgreedDay {
	return leave.AgreedDay{ID: id, Date: day(date), Description: "agreed " + date, Active: active}
}

func employee(hire string, records ...leave.LeaveRecord) leave.Employee {
	return leave.Employee{
		ID:       "12345678",
		Name:     "Ana",
		LastName: "Pereira",
		HireDate: day(hire),
		Type:     leave.EmploymentMonthly,
		Active:   true,
		Records:  records,
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !decimal.RequireFromString(want).Equal(got) {
		t.Errorf("expected %s, got %s %v", want, got, msgAndArgs)
	}
}
