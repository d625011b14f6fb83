package render

import "strings"

// Escape neutraliza caracteres de control en texto ajeno antes de componerlo
// en un fragmento. Es la única defensa contra inyección de secuencias de
// escape de terminal: todo string que venga de la red (usuarios, contenido,
// comentarios) pasa por acá antes de renderizarse. El texto con pinta de
// markup queda como texto literal.
func Escape(s string) string {
	if !needsEscape(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r == '\t':
			b.WriteString("    ")
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f):
			b.WriteRune('�')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsEscape(s string) bool {
	for _, r := range s {
		if r == '\t' || (r != '\n' && (r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f))) {
			return true
		}
	}
	return false
}
