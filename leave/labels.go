package leave

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type labelRule struct {
	label    string
	keywords []string
}

// Keywords are matched against lowercased notes with accents removed.
var specialLabelRules = []labelRule{
	{"Licencia Médica", []string{"medica", "salud", "enfermedad"}},
	{"Licencia por Estudio", []string{"estudio", "examen"}},
	{"Licencia por Duelo", []string{"duelo", "fallecimiento"}},
	{"Licencia Parental", []string{"maternidad", "paternidad"}},
	{"Donación de Sangre", []string{"sangre", "donacion"}},
}

// Label returns the display label for a kind. Special and advance leave are
// further classified by keywords found in the notes.
func Label(kind RecordKind, notes string) string {
	switch kind {
	case KindSpecial, KindAdvance:
		folded := foldAccents(strings.ToLower(notes))
		for _, rule := range specialLabelRules {
			for _, kw := range rule.keywords {
				if strings.Contains(folded, kw) {
					return rule.label
				}
			}
		}
		return "Licencia Especial"
	case KindAgreed:
		return "Licencia Acordada"
	case KindAnnual:
		return "Licencia Anual"
	case KindUnpaid:
		return "Licencia S/G Sueldo"
	case KindException:
		return "Excepción"
	case KindAdjustment:
		return "Ajuste de Saldo"
	}
	return string(kind)
}

func foldAccents(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
