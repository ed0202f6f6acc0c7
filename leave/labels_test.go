package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		kind  leave.RecordKind
		notes string
		want  string
	}{
		{leave.KindSpecial, "Licencia MÉDICA", "Licencia Médica"},
		{leave.KindSpecial, "control de salud", "Licencia Médica"},
		{leave.KindAdvance, "examen final", "Licencia por Estudio"},
		{leave.KindSpecial, "Fallecimiento familiar", "Licencia por Duelo"},
		{leave.KindSpecial, "paternidad", "Licencia Parental"},
		{leave.KindSpecial, "Donación de sangre", "Donación de Sangre"},
		{leave.KindSpecial, "", "Licencia Especial"},
		{leave.KindAnnual, "médica", "Licencia Anual"},
		{leave.KindAgreed, "", "Licencia Acordada"},
		{leave.KindUnpaid, "", "Licencia S/G Sueldo"},
		{leave.RecordKind("Otro"), "", "Otro"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.notes, func(t *testing.T) {
			assert.Equal(t, tt.want, leave.Label(tt.kind, tt.notes))
		})
	}
}

func TestDefaultAgreedDays(t *testing.T) {
	// 2025-01-01 is a Wednesday: first Saturdays are the 4th and the 11th.
	days := leave.DefaultAgreedDays(2025)
	require.Len(t, days, 6)

	want := []string{"2025-01-04", "2025-01-11", "2025-02-24", "2025-02-25", "2025-04-10", "2025-04-11"}
	for i, d := range days {
		assert.Equal(t, want[i], d.Date.String())
		assert.False(t, d.Active, "seeded days start inactive")
		assert.NotEmpty(t, d.Description)
	}
	assert.Equal(t, time.Saturday, days[0].Date.Weekday())
}

func TestJustification_JSON(t *testing.T) {
	for j, want := range map[leave.Justification]string{
		leave.JustificationNotApplicable: "null",
		leave.JustificationPending:       "false",
		leave.JustificationAccepted:      "true",
	} {
		b, err := j.MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, want, string(b))

		var back leave.Justification
		require.NoError(t, back.UnmarshalJSON(b))
		assert.Equal(t, j, back)
	}
}
