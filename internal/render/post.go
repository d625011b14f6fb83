package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"fugaz/internal/feed"
)

var (
	postBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	trendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Bold(true)

	avatarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	usernameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")).
			Bold(true)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	expiryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	interactionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("247"))

	commentNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("114")).
				Bold(true)

	commentTimeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)

	sendEnabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("75")).
				Bold(true)

	sendDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("238"))
)

// CommentInput es el estado visual del campo de comentario de un post.
// El borrador vive en el controlador de interacción; acá solo se dibuja.
type CommentInput struct {
	Draft   string
	Focused bool
}

// SendEnabled indica si el botón de enviar está habilitado: solo cuando el
// borrador tiene texto que no sea puro espacio.
func (c CommentInput) SendEnabled() bool {
	return strings.TrimSpace(c.Draft) != ""
}

// RenderPost arma el fragmento de un post. Es una función pura: con el mismo
// post, usuario e instante produce siempre la misma salida.
func RenderPost(p feed.Post, current feed.User, input CommentInput, now time.Time, width int) string {
	inner := width - 4 // borde y padding
	if inner < 20 {
		inner = 20
	}

	var sections []string

	if p.IsTrending() {
		sections = append(sections, trendingStyle.Render("🔥 Trending"))
	}

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		avatarStyle.Render(feed.Avatar(p.Username)),
		" ",
		usernameStyle.Render(Escape(p.Username)),
		timeStyle.Render("  "+RelativeTime(p.Timestamp, now)+"  "),
		expiryStyle.Render("⏱️ "+TimeLeft(p.ExpiresAt, now)),
	)
	sections = append(sections, header)

	content := lipgloss.NewStyle().Width(inner).Render(Escape(p.Content))
	sections = append(sections, "", content)

	if stats := renderStats(p); stats != "" {
		sections = append(sections, "", stats)
	}

	sections = append(sections, "",
		interactionStyle.Render("👍 Me gusta   💬 Comentar   ↗️ Compartir"))

	for _, c := range p.Comments {
		sections = append(sections, renderComment(c, now, inner))
	}

	sections = append(sections, renderCommentInput(current, input, inner))

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return postBorderStyle.Width(width - 2).Render(body)
}

// renderStats arma la línea de actividad. Vacía si el post no tiene ninguna.
func renderStats(p feed.Post) string {
	reactions := p.ReactionsCount()
	comments := p.CommentsCount()
	if reactions == 0 && comments == 0 {
		return ""
	}

	var parts []string
	if reactions > 0 {
		parts = append(parts, fmt.Sprintf("%s %d", strings.Join(p.TopEmojis(), " "), reactions))
	}
	if comments > 0 {
		word := "comentarios"
		if comments == 1 {
			word = "comentario"
		}
		parts = append(parts, fmt.Sprintf("%d %s", comments, word))
	}
	return statsStyle.Render(strings.Join(parts, " · "))
}

func renderComment(c feed.Comment, now time.Time, width int) string {
	bubble := fmt.Sprintf("%s %s  %s",
		commentNameStyle.Render(Escape(c.Username)),
		lipgloss.NewStyle().Width(width-4).Render(Escape(c.Content)),
		commentTimeStyle.Render(RelativeTime(c.Timestamp, now)),
	)
	return "  " + feed.Avatar(c.Username) + " " + bubble
}

func renderCommentInput(current feed.User, input CommentInput, width int) string {
	send := sendDisabledStyle.Render("➤")
	if input.SendEnabled() {
		send = sendEnabledStyle.Render("➤")
	}

	field := placeholderStyle.Render("Escribe un comentario...")
	if input.Draft != "" {
		field = Escape(input.Draft)
	}
	if input.Focused {
		field = "▸ " + field
	}

	return fmt.Sprintf("  %s %s %s", feed.Avatar(current.Username), field, send)
}
