package leave_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/leave"
)

// Hired 2022: full 20 base days for 2025, no seniority as of mid-2025.
const hire2022 = "2022-01-10"

func TestSummarize_AgreedDayNotChargedTwice(t *testing.T) {
	// GIVEN: An active agreed day on Monday 2025-02-24
	//        and an annual leave Mon 24 - Fri 28 Feb
	emp := employee(hire2022, record("r1", leave.KindAnnual, "2025-02-24", "2025-02-28"))
	days := []leave.AgreedDay{agreed("ag1", "2025-02-24", true)}

	// WHEN: Summarizing 2025
	s := calcAt("2025-06-01").Summarize(emp, 2025, days)

	// THEN: The agreed day is a fixed deduction and only 4 days are taken
	assert.Equal(t, 1, s.FixedDeductions)
	assert.Equal(t, 4, s.TakenDays)
	assertDecimal(t, "20", s.AvailablePool)
	assertDecimal(t, "15", s.RemainingDays)
	require.Len(t, s.AgreedDays, 1)
	assert.Equal(t, "ag1", s.AgreedDays[0].ID)
}

func TestSummarize_InactiveAndOtherYearAgreedDaysIgnored(t *testing.T) {
	emp := employee(hire2022)
	days := []leave.AgreedDay{
		agreed("pending", "2025-02-25", false),
		agreed("last-year", "2024-02-12", true),
		agreed("this-year", "2025-04-10", true),
	}

	s := calcAt("2025-06-01").Summarize(emp, 2025, days)

	assert.Equal(t, 1, s.FixedDeductions)
	assertDecimal(t, "19", s.RemainingDays)
}

func TestSummarize_NextYearAgreedDayDoesNotOffsetRecord(t *testing.T) {
	// GIVEN: A 2025 annual leave Wed 31 Dec - Fri 2 Jan 2026
	//        and an active agreed day on 2026-01-02
	emp := employee(hire2022, record("r1", leave.KindAnnual, "2025-12-31", "2026-01-02"))
	days := []leave.AgreedDay{agreed("ag1", "2026-01-02", true)}
	calc := calcAt("2026-06-01")

	// WHEN: Summarizing both years
	s2025 := calc.Summarize(emp, 2025, days)
	s2026 := calc.Summarize(emp, 2026, days)

	// THEN: 2025 is charged all three days, the agreed day belongs to 2026
	assert.Equal(t, 3, s2025.TakenDays)
	assert.Equal(t, 0, s2025.FixedDeductions)
	assert.Equal(t, 0, s2026.TakenDays)
	assert.Equal(t, 1, s2026.FixedDeductions)
}

func TestSummarize_ExceptionSuppressesDeductionForThatEmployeeOnly(t *testing.T) {
	// GIVEN: One active agreed day, and two employees: one with an exception
	days := []leave.AgreedDay{agreed("ag1", "2025-02-24", true)}
	excepted := employee(hire2022, exception("x1", "ag1", "2025-02-24"))
	regular := employee(hire2022)
	calc := calcAt("2025-06-01")

	// WHEN: Summarizing both
	a := calc.Summarize(excepted, 2025, days)
	b := calc.Summarize(regular, 2025, days)

	// THEN: Only the employee without the exception has it deducted
	assert.Equal(t, 0, a.FixedDeductions)
	assertDecimal(t, "20", a.RemainingDays)
	assert.Equal(t, 1, b.FixedDeductions)
	assertDecimal(t, "19", b.RemainingDays)
}

func TestSummarize_LegacyExceptionByDate(t *testing.T) {
	// An exception stored before agreed-day ids existed references the date.
	legacy := exception("x1", "", "2025-02-24")
	emp := employee(hire2022, legacy)
	days := []leave.AgreedDay{agreed("ag1", "2025-02-24", true)}

	s := calcAt("2025-06-01").Summarize(emp, 2025, days)
	assert.Equal(t, 0, s.FixedDeductions)
}

func TestSummarize_ExceptedAgreedDayChargesPersonalLeave(t *testing.T) {
	// GIVEN: The employee is excepted from the agreed day and took annual
	//        leave across it
	days := []leave.AgreedDay{agreed("ag1", "2025-02-24", true)}
	emp := employee(hire2022,
		exception("x1", "ag1", "2025-02-24"),
		record("r1", leave.KindAnnual, "2025-02-24", "2025-02-28"),
	)

	s := calcAt("2025-06-01").Summarize(emp, 2025, days)

	// THEN: All 5 days are personal leave
	assert.Equal(t, 0, s.FixedDeductions)
	assert.Equal(t, 5, s.TakenDays)
}

func TestSummarize_SpecialLeaveJustificationRestoresBalance(t *testing.T) {
	// GIVEN: A special leave of 3 working days pending proof
	special := record("s1", leave.KindSpecial, "2025-03-10", "2025-03-12")
	special.Justification = leave.JustificationPending
	emp := employee(hire2022, special)
	calc := calcAt("2025-06-01")

	pending := calc.Summarize(emp, 2025, nil)
	assert.Equal(t, 3, pending.TakenDays)
	assertDecimal(t, "17", pending.RemainingDays)

	// WHEN: HR certifies it
	emp.Records[0].Justification = leave.JustificationAccepted
	certified := calc.Summarize(emp, 2025, nil)

	// THEN: The 3 days are restored and the stored count is untouched
	assert.Equal(t, 0, certified.TakenDays)
	assertDecimal(t, "20", certified.RemainingDays)
	assertDecimal(t, "3", emp.Records[0].Days)
}

func TestSummarize_SpecialWithoutJustificationFlagDeducts(t *testing.T) {
	emp := employee(hire2022, record("s1", leave.KindSpecial, "2025-03-10", "2025-03-12"))
	assert.Equal(t, 3, calcAt("2025-06-01").Summarize(emp, 2025, nil).TakenDays)
}

func TestSummarize_UnpaidLeaveCountsAsTaken(t *testing.T) {
	emp := employee(hire2022, record("u1", leave.KindUnpaid, "2025-05-05", "2025-05-06"))
	assert.Equal(t, 2, calcAt("2025-06-01").Summarize(emp, 2025, nil).TakenDays)
}

func TestSummarize_NegativeBalanceIsRepresentable(t *testing.T) {
	// GIVEN: 20 annual days, 2 advance days and one agreed day
	emp := employee(hire2022,
		record("r1", leave.KindAnnual, "2025-03-03", "2025-03-28"),
		record("r2", leave.KindAdvance, "2025-04-01", "2025-04-02"),
	)
	days := []leave.AgreedDay{agreed("ag1", "2025-01-04", true)}

	s := calcAt("2025-06-01").Summarize(emp, 2025, days)

	assert.Equal(t, 22, s.TakenDays)
	assertDecimal(t, "-3", s.RemainingDays)
	assert.True(t, s.Overdrawn())
}

func TestSummarize_OnlyRecordsOfTargetYear(t *testing.T) {
	// Year falls back to the start date when unset.
	noYear := record("r2", leave.KindAnnual, "2025-03-03", "2025-03-04")
	noYear.Year = 0
	emp := employee(hire2022,
		record("r1", leave.KindAnnual, "2024-03-04", "2024-03-08"),
		noYear,
	)

	s := calcAt("2025-06-01").Summarize(emp, 2025, nil)
	assert.Equal(t, 2, s.TakenDays)
}

func TestSummarize_MalformedRecordContributesZero(t *testing.T) {
	broken := leave.LeaveRecord{ID: "bad", Kind: leave.KindAnnual, Year: 2025}
	reversed := record("rev", leave.KindAnnual, "2025-03-10", "2025-03-10")
	reversed.EndDate = day("2025-03-01")
	unknown := record("unk", leave.RecordKind("Vacaciones"), "2025-03-10", "2025-03-11")

	emp := employee(hire2022, broken, reversed, unknown, record("ok", leave.KindAnnual, "2025-03-17", "2025-03-17"))

	s := calcAt("2025-06-01").Summarize(emp, 2025, nil)
	assert.Equal(t, 1, s.TakenDays)
}

func TestSummarize_Idempotent(t *testing.T) {
	emp := employee("2014-05-02",
		record("r1", leave.KindAnnual, "2025-02-24", "2025-02-28"),
		adjustment("a1", 2025, "1.5"),
		exception("x1", "ag2", "2025-04-10"),
	)
	days := []leave.AgreedDay{agreed("ag1", "2025-02-24", true), agreed("ag2", "2025-04-10", true)}
	calc := calcAt("2025-06-01")

	first := calc.Summarize(emp, 2025, days)
	second := calc.Summarize(emp, 2025, days)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("summaries differ (-first +second):\n%s", diff)
	}
}

func TestSummarize_EmptyEmployee(t *testing.T) {
	s := calcAt("2025-06-01").Summarize(leave.Employee{}, 2025, nil)

	assertDecimal(t, "0", s.AvailablePool)
	assertDecimal(t, "0", s.RemainingDays)
	assert.Equal(t, 0, s.YearsOfService)
}

// =============================================================================
// EFFECT CLASSIFICATION
// =============================================================================

func TestEveryKindHasAKnownEffect(t *testing.T) {
	for _, kind := range leave.AllKinds() {
		for _, j := range []leave.Justification{leave.JustificationNotApplicable, leave.JustificationPending, leave.JustificationAccepted} {
			r := leave.LeaveRecord{Kind: kind, Justification: j}
			assert.NotEqual(t, leave.EffectUnknown, r.Effect(), "kind %q justification %s", kind, j)
		}
		assert.True(t, kind.Valid())
	}

	assert.Equal(t, leave.EffectUnknown, leave.LeaveRecord{Kind: "Vacaciones"}.Effect())
	assert.Equal(t, leave.EffectNone, leave.LeaveRecord{Kind: leave.KindSpecial, Justification: leave.JustificationAccepted}.Effect())
}

func TestParseRecordKind(t *testing.T) {
	k, err := leave.ParseRecordKind("Sin Goce")
	require.NoError(t, err)
	assert.Equal(t, leave.KindUnpaid, k)

	_, err = leave.ParseRecordKind("Vacaciones")
	assert.ErrorIs(t, err, generic.ErrMalformedRecord)
}
