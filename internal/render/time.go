package render

import (
	"fmt"
	"time"
)

var spanishMonths = [...]string{
	"ene", "feb", "mar", "abr", "may", "jun",
	"jul", "ago", "sep", "oct", "nov", "dic",
}

// RelativeTime formatea un instante como tiempo relativo en castellano.
// El instante de referencia se inyecta para que la función sea pura.
func RelativeTime(t, now time.Time) string {
	diff := int(now.Sub(t).Seconds())

	if diff < 60 {
		return "Ahora"
	}
	if diff < 3600 {
		return fmt.Sprintf("Hace %d min", diff/60)
	}
	if diff < 86400 {
		return fmt.Sprintf("Hace %d h", diff/3600)
	}

	days := diff / 86400
	if days == 1 {
		return "Ayer"
	}
	if days < 7 {
		return fmt.Sprintf("Hace %d días", days)
	}

	return fmt.Sprintf("%d %s", t.Day(), spanishMonths[t.Month()-1])
}

// TimeLeft formatea cuánto falta para que expire un post. Se recalcula en
// cada render porque depende del reloj de pared.
func TimeLeft(expiry, now time.Time) string {
	diff := int(expiry.Sub(now).Seconds())

	if diff < 0 {
		return "Expirado"
	}
	if diff < 60 {
		return fmt.Sprintf("%ds", diff)
	}
	if diff < 3600 {
		return fmt.Sprintf("%dm", diff/60)
	}
	return fmt.Sprintf("%dh %dm", diff/3600, (diff%3600)/60)
}
