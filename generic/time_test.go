package generic_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseDate_PinnedToNoonUTC(t *testing.T) {
	tp, err := generic.ParseDate("2024-03-10")
	require.NoError(t, err)

	assert.Equal(t, 12, tp.Time.Hour())
	assert.Equal(t, time.UTC, tp.Time.Location())
	assert.Equal(t, "2024-03-10", tp.String())
}

func TestParseDate_RejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "2024-02-30", "10/03/2024", "2024-1-5", "garbage"} {
		_, err := generic.ParseDate(in)
		assert.ErrorIs(t, err, generic.ErrInvalidDate, "input %q", in)
		assert.True(t, generic.IsClientError(err))
	}
}

func TestParseCalendarDate_FallsBackToToday(t *testing.T) {
	assert.Equal(t, generic.Today(), generic.ParseCalendarDate("not-a-date"))
	assert.Equal(t, generic.Today(), generic.ParseCalendarDate(""))
	assert.Equal(t, date(2023, time.December, 31), generic.ParseCalendarDate("2023-12-31"))
}

func TestTimePoint_TextRoundTrip(t *testing.T) {
	var tp generic.TimePoint
	require.NoError(t, tp.UnmarshalText([]byte("2025-07-04")))
	assert.Equal(t, date(2025, time.July, 4), tp)

	require.NoError(t, tp.UnmarshalText([]byte("")))
	assert.True(t, tp.IsZero())

	out, err := generic.TimePoint{}.MarshalText()
	require.NoError(t, err)
	assert.Empty(t, out)
}

// =============================================================================
// ENUMERATION AND WORKING DAYS
// =============================================================================

func TestEnumerateDates(t *testing.T) {
	t.Run("leap day included", func(t *testing.T) {
		got := generic.EnumerateDates("2024-02-28", "2024-03-01")
		assert.Equal(t, []string{"2024-02-28", "2024-02-29", "2024-03-01"}, got)
	})

	t.Run("single day", func(t *testing.T) {
		assert.Equal(t, []string{"2024-05-01"}, generic.EnumerateDates("2024-05-01", "2024-05-01"))
	})

	t.Run("reversed range is empty", func(t *testing.T) {
		got := generic.EnumerateDates("2024-03-05", "2024-03-01")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("crosses year boundary", func(t *testing.T) {
		got := generic.EnumerateDates("2024-12-30", "2025-01-02")
		assert.Len(t, got, 4)
		assert.Equal(t, "2025-01-02", got[3])
	})
}

func TestCountWorkingDays(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		holidays   generic.HolidaySet
		want       int
	}{
		{"single monday", "2024-01-01", "2024-01-01", nil, 1},
		{"weekend only", "2024-01-06", "2024-01-07", nil, 0},
		{"full week", "2024-01-01", "2024-01-07", nil, 5},
		{"holiday excluded", "2024-01-01", "2024-01-07", generic.NewHolidaySet("2024-01-03"), 4},
		{"holiday on weekend ignored", "2024-01-01", "2024-01-07", generic.NewHolidaySet("2024-01-06"), 5},
		{"reversed", "2024-01-07", "2024-01-01", nil, 0},
		{"malformed", "2024-01-01", "nope", nil, 0},
		{"two weeks", "2024-03-04", "2024-03-15", nil, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generic.CountWorkingDays(tt.start, tt.end, tt.holidays))
		})
	}
}

// =============================================================================
// YEARS OF SERVICE
// =============================================================================

func TestYearsOfService_Anniversary(t *testing.T) {
	hire := date(2020, time.June, 15)

	assert.Equal(t, 4, generic.YearsOfService(hire, date(2025, time.June, 14)), "day before anniversary")
	assert.Equal(t, 5, generic.YearsOfService(hire, date(2025, time.June, 15)), "on anniversary")
	assert.Equal(t, 0, generic.YearsOfService(hire, date(2019, time.January, 1)), "future hire clamps to zero")
	assert.Equal(t, 0, generic.YearsOfService(generic.TimePoint{}, date(2025, time.June, 15)))
}

func TestYearsOfService_LeapDayHire(t *testing.T) {
	hire := date(2020, time.February, 29)

	assert.Equal(t, 4, generic.YearsOfService(hire, date(2025, time.February, 28)))
	assert.Equal(t, 5, generic.YearsOfService(hire, date(2025, time.March, 1)))
}

func TestYearsOfServiceISO_Malformed(t *testing.T) {
	assert.Equal(t, 0, generic.YearsOfServiceISO("15/06/2020", date(2025, time.June, 15)))
	assert.Equal(t, 5, generic.YearsOfServiceISO("2020-06-15", date(2025, time.June, 15)))
}
