package render

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"fugaz/internal/feed"
)

var (
	emptyIconStyle = lipgloss.NewStyle().
			Align(lipgloss.Center)

	emptyTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Align(lipgloss.Center)

	emptySubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Align(lipgloss.Center)
)

// RenderFeed concatena los fragmentos de todos los posts en el orden en que
// los entregó el servidor: acá no se reordena nada. Con la colección vacía
// se dibuja el estado vacío fijo.
func RenderFeed(posts []feed.Post, current feed.User, drafts map[int]CommentInput, now time.Time, width int) string {
	if len(posts) == 0 {
		return renderEmptyState(width)
	}

	fragments := make([]string, 0, len(posts))
	for _, p := range posts {
		fragments = append(fragments, RenderPost(p, current, drafts[p.ID], now, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, fragments...)
}

func renderEmptyState(width int) string {
	return lipgloss.JoinVertical(lipgloss.Center,
		emptyIconStyle.Width(width).Render("📝"),
		emptyTitleStyle.Width(width).Render("No hay publicaciones aún"),
		emptySubtitleStyle.Width(width).Render("Sé el primero en compartir algo"),
	)
}
