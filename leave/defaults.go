package leave

import (
	"time"

	"github.com/warp/leave-engine/generic"
)

// DefaultAgreedDays returns the yearly agreed-day template: the first two
// Saturdays of January, two Carnival days and two Tourism Week days. All
// start inactive and have no id; the caller assigns ids on save.
func DefaultAgreedDays(year int) []AgreedDay {
	saturdays := make([]generic.TimePoint, 0, 2)
	for d := generic.StartOfYear(year); d.Month() == time.January && len(saturdays) < 2; d = d.AddDays(1) {
		if d.Weekday() == time.Saturday {
			saturdays = append(saturdays, d)
		}
	}

	return []AgreedDay{
		{Date: saturdays[0], Description: "Sábado Enero 1"},
		{Date: saturdays[1], Description: "Sábado Enero 2"},
		{Date: generic.NewTimePoint(year, time.February, 24), Description: "Feriado Carnaval 1"},
		{Date: generic.NewTimePoint(year, time.February, 25), Description: "Feriado Carnaval 2"},
		{Date: generic.NewTimePoint(year, time.April, 10), Description: "Semana Turismo 1"},
		{Date: generic.NewTimePoint(year, time.April, 11), Description: "Semana Turismo 2"},
	}
}
