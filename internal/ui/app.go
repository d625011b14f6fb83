package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"fugaz/internal/client"
	"fugaz/internal/feed"
	"fugaz/internal/render"
)

type sessionState int

const (
	stateLogin sessionState = iota
	stateFeed
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	headerStatsStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	headerUserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	composerHintStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true)

	popoverStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	popoverCursorStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	popoverChoiceStyle = lipgloss.NewStyle().
				Padding(0, 1)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(1, 3).
			Bold(true)

	confirmStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(1, 3)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	selectedMarkStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)
)

// Model es la aplicación completa del cliente: pantalla de entrada, feed con
// poll periódico y la capa transitoria de interacción.
type Model struct {
	svc    Service
	logger *zap.Logger

	state sessionState
	login loginForm

	user  feed.User
	posts []feed.Post
	stats feed.Stats

	cursor int
	scroll int

	composerOpen bool
	composer     textarea.Model

	commentFocus int // ID del post con el input de comentario activo; 0 = ninguno
	commentInput textinput.Model
	drafts       map[int]string

	overlays *OverlayManager
	menuOpen bool

	alert         string
	confirmLogout bool

	width, height int
	polling       bool
}

func NewModel(svc Service, logger *zap.Logger) Model {
	composer := textarea.New()
	composer.Placeholder = "¿Qué está pasando?"
	composer.CharLimit = 500
	composer.SetHeight(3)

	commentInput := textinput.New()
	commentInput.Placeholder = "Escribe un comentario..."
	commentInput.CharLimit = 280

	return Model{
		svc:          svc,
		logger:       logger,
		state:        stateLogin,
		login:        newLoginForm(),
		composer:     composer,
		commentInput: commentInput,
		drafts:       make(map[int]string),
		overlays:     NewOverlayManager(),
		width:        80,
		height:       24,
	}
}

// Init arranca el bootstrap de sesión: si hay cookie válida se entra directo
// al feed, si no queda la pantalla de login.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, fetchCurrentUser(m.svc))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.composer.SetWidth(max(20, m.width-8))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case currentUserMsg:
		if msg.err != nil {
			// Sesión inválida o bootstrap fallido: a la pantalla de entrada.
			m.logger.Info("🔒 Sin sesión válida", zap.Error(msg.err))
			return m.toLogin(), nil
		}
		m.user = msg.user
		m.state = stateFeed
		cmds := []tea.Cmd{fetchPosts(m.svc), fetchStats(m.svc)}
		if !m.polling {
			m.polling = true
			cmds = append(cmds, pollTick())
		}
		return m, tea.Batch(cmds...)

	case pollTickMsg:
		if m.state != stateFeed {
			m.polling = false
			return m, nil
		}
		return m, tea.Batch(fetchPosts(m.svc), fetchStats(m.svc), pollTick())

	case postsMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrUnauthorized) {
				return m.toLogin(), nil
			}
			// Fail-soft: se deja el último render bueno y el próximo poll
			// hace de reintento.
			m.logger.Warn("❌ Error al cargar posts", zap.Error(msg.err))
			return m, nil
		}
		m.posts = msg.posts
		if m.cursor >= len(m.posts) {
			m.cursor = max(0, len(m.posts)-1)
		}
		return m, nil

	case statsMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrUnauthorized) {
				return m.toLogin(), nil
			}
			m.logger.Warn("❌ Error al cargar estadísticas", zap.Error(msg.err))
			return m, nil
		}
		m.stats = msg.stats
		return m, nil

	case armPopoverMsg:
		m.overlays.Arm()
		return m, nil

	case effectTickMsg:
		m.overlays.Effects()
		return m, nil

	case loginDoneMsg:
		if msg.err != nil {
			m.login.fail(msg.err)
			return m, nil
		}
		return m, fetchCurrentUser(m.svc)

	case registerDoneMsg:
		if msg.err != nil {
			m.login.fail(msg.err)
			return m, nil
		}
		return m, fetchCurrentUser(m.svc)

	case postCreatedMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrUnauthorized) {
				return m.toLogin(), nil
			}
			m.logger.Error("❌ Error al crear post", zap.Error(msg.err))
			m.alert = "Error al publicar. Intenta de nuevo."
			return m, nil
		}
		m.composer.Reset()
		m.composer.Blur()
		m.composerOpen = false
		return m, tea.Batch(fetchPosts(m.svc), fetchStats(m.svc))

	case reactionSentMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrUnauthorized) {
				return m.toLogin(), nil
			}
			// Las reacciones fallan en silencio: solo queda el log.
			m.logger.Warn("❌ Error al reaccionar", zap.Error(msg.err))
			return m, nil
		}
		return m, tea.Batch(fetchPosts(m.svc), fetchStats(m.svc))

	case commentSentMsg:
		if msg.err != nil {
			if errors.Is(msg.err, client.ErrUnauthorized) {
				return m.toLogin(), nil
			}
			m.logger.Warn("❌ Error al comentar", zap.Error(msg.err))
			return m, nil
		}
		delete(m.drafts, msg.postID)
		if m.commentFocus == msg.postID {
			m.commentInput.Reset()
		}
		return m, tea.Batch(fetchPosts(m.svc), fetchStats(m.svc))

	case loggedOutMsg:
		return m.toLogin(), nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// El alert es bloqueante: cualquier tecla lo despacha y nada más pasa.
	if m.alert != "" {
		m.alert = ""
		return m, nil
	}

	if m.state == stateLogin {
		cmd := m.login.update(msg, m.svc)
		return m, cmd
	}

	if m.confirmLogout {
		switch msg.String() {
		case "s", "y", "enter":
			m.confirmLogout = false
			return m, doLogout(m.svc)
		default:
			m.confirmLogout = false
			return m, nil
		}
	}

	if m.overlays.Popover() != nil {
		return m.handlePopoverKey(msg)
	}

	if m.composerOpen && m.composer.Focused() {
		return m.handleComposerKey(msg)
	}

	if m.commentFocus != 0 {
		return m.handleCommentKey(msg)
	}

	if m.menuOpen {
		switch msg.String() {
		case "l":
			m.menuOpen = false
			m.confirmLogout = true
			return m, nil
		case "m", "esc":
			m.menuOpen = false
			return m, nil
		default:
			// Listener permanente: cualquier gesto fuera del menú lo cierra,
			// y la tecla sigue su curso normal.
			m.menuOpen = false
		}
	}

	return m.handleFeedKey(msg)
}

func (m Model) handlePopoverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.overlays.MoveCursor(-1)
		return m, nil
	case "right", "l":
		m.overlays.MoveCursor(1)
		return m, nil
	case "enter", " ":
		p := m.overlays.Popover()
		emoji := p.Choices[p.Cursor]
		at := Coords{X: p.Anchor.X + p.Cursor*4, Y: p.Anchor.Y}
		m.overlays.Choose(at)
		return m, tea.Batch(doReact(m.svc, p.PostID, emoji), effectTick())
	case "esc":
		m.overlays.Close()
		return m, nil
	case "r":
		// Toggle sobre el mismo disparador: cierra en vez de reabrir. Si el
		// cursor quedó sobre otro post, el popover nuevo también arma su
		// cierre externo.
		if post, ok := m.selectedPost(); ok {
			if m.openPopover(post.ID) {
				return m, armPopover()
			}
		}
		return m, nil
	default:
		// Interacción fuera del popover: cierra (si ya está armado) y la
		// tecla sigue su curso.
		if m.overlays.OutsideInteraction() {
			return m.handleFeedKey(msg)
		}
		return m, nil
	}
}

func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+p":
		return m.submitPost()
	case "esc":
		// Se suelta el foco pero el compositor queda expandido: solo una
		// publicación exitosa lo colapsa.
		m.composer.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m Model) submitPost() (tea.Model, tea.Cmd) {
	content := strings.TrimSpace(m.composer.Value())
	if content == "" {
		// Sin red: el rechazo es local y bloqueante.
		m.alert = "Escribe algo para publicar"
		return m, nil
	}
	return m, doCreatePost(m.svc, content)
}

func (m Model) handleCommentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	postID := m.commentFocus

	switch msg.String() {
	case "enter":
		content := strings.TrimSpace(m.commentInput.Value())
		if content == "" {
			// Solo espacios: ni una llamada de red, el botón sigue apagado.
			return m, nil
		}
		return m, doComment(m.svc, postID, content)
	case "esc":
		m.drafts[postID] = m.commentInput.Value()
		m.commentInput.Blur()
		m.commentFocus = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(msg)
	// El borrador vive con el post; la habilitación del botón se recalcula
	// en cada tecla a partir de él.
	m.drafts[postID] = m.commentInput.Value()
	return m, cmd
}

func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		if m.cursor < len(m.posts)-1 {
			m.cursor++
		}
		m.ensureCursorVisible()
		return m, nil
	case "n":
		m.composerOpen = true
		return m, m.composer.Focus()
	case "r":
		if post, ok := m.selectedPost(); ok {
			if m.openPopover(post.ID) {
				return m, armPopover()
			}
		}
		return m, nil
	case "c":
		if post, ok := m.selectedPost(); ok {
			m.commentFocus = post.ID
			m.commentInput.SetValue(m.drafts[post.ID])
			return m, m.commentInput.Focus()
		}
		return m, nil
	case "m":
		m.menuOpen = !m.menuOpen
		return m, nil
	}
	return m, nil
}

func (m *Model) openPopover(postID int) bool {
	anchor := Rect{X: 2, Y: m.postOffset(postID), W: m.width - 4, H: 1}
	return m.overlays.ShowPopover(postID, anchor, feed.Emojis, nil)
}

func (m Model) selectedPost() (feed.Post, bool) {
	if len(m.posts) == 0 || m.cursor >= len(m.posts) {
		return feed.Post{}, false
	}
	return m.posts[m.cursor], true
}

func (m Model) toLogin() Model {
	m.state = stateLogin
	m.login = newLoginForm()
	m.user = feed.User{}
	m.posts = nil
	m.stats = feed.Stats{}
	m.cursor = 0
	m.scroll = 0
	m.composerOpen = false
	m.composer.Reset()
	m.composer.Blur()
	m.commentFocus = 0
	m.commentInput.Reset()
	m.drafts = make(map[int]string)
	m.overlays.Close()
	m.menuOpen = false
	m.confirmLogout = false
	return m
}

func (m Model) View() string {
	if m.state == stateLogin {
		return m.login.view(m.width)
	}

	header := m.headerView()
	composer := m.composerView()
	body := m.feedView()

	view := lipgloss.JoinVertical(lipgloss.Left, header, composer, body)

	// El popover se compone como capa sobre la vista ya armada: queda
	// clavado donde se abrió aunque el poll redibuje el feed de abajo.
	if p := m.overlays.Popover(); p != nil {
		view = spliceLine(view, m.popoverView(p), p.Anchor.Y)
	}
	view = m.clipToWindow(view)

	if m.alert != "" {
		return m.centerBox(alertStyle.Render(m.alert + "\n\n(cualquier tecla para seguir)"))
	}
	if m.confirmLogout {
		return m.centerBox(confirmStyle.Render("¿Estás seguro que quieres cerrar sesión?  (s/n)"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, view, m.statusView())
}

func (m Model) headerView() string {
	stats := fmt.Sprintf("%d publicaciones · %d reacciones · %d comentarios",
		m.stats.TotalPosts, m.stats.TotalReactions, m.stats.TotalComments)

	left := headerStyle.Render("⚡ FUGAZ")
	mid := headerStatsStyle.Render("  " + stats + "  ")
	right := headerUserStyle.Render("@" + m.user.Username + " ▾ (m)")

	header := lipgloss.JoinHorizontal(lipgloss.Center, left, mid, right)
	if !m.menuOpen {
		return header
	}

	menu := menuStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		"👤 "+m.user.Username,
		"🚪 Cerrar sesión (l)",
	))
	return lipgloss.JoinVertical(lipgloss.Left, header, menu)
}

func (m Model) composerView() string {
	if !m.composerOpen {
		return composerHintStyle.Render("[ n ] ¿Qué está pasando?")
	}

	hint := "ctrl+p publica"
	if strings.TrimSpace(m.composer.Value()) == "" {
		hint = "escribe algo para poder publicar"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.composer.View(),
		composerHintStyle.Render(hint),
	)
}

// feedView redibuja el contenedor completo en cada pasada, sin diffing.
func (m Model) feedView() string {
	now := time.Now()

	if len(m.posts) == 0 {
		return render.RenderFeed(nil, m.user, nil, now, m.width)
	}

	drafts := m.renderDrafts()
	body := render.RenderFeed(m.posts, m.user, drafts, now, m.width)
	return m.markSelected(body, drafts, now)
}

// renderDrafts arma el estado visual de los inputs de comentario. Todo cálculo
// de alturas tiene que usar este mismo mapa, o el ancla y el scroll quedan
// corridos por las líneas envueltas de un borrador largo.
func (m Model) renderDrafts() map[int]render.CommentInput {
	drafts := make(map[int]render.CommentInput, len(m.drafts)+1)
	for id, draft := range m.drafts {
		drafts[id] = render.CommentInput{Draft: draft}
	}
	if m.commentFocus != 0 {
		drafts[m.commentFocus] = render.CommentInput{Draft: m.commentInput.Value(), Focused: true}
	}
	return drafts
}

// markSelected pinta el margen del post seleccionado para navegar con el teclado.
func (m Model) markSelected(body string, drafts map[int]render.CommentInput, now time.Time) string {
	post, ok := m.selectedPost()
	if !ok {
		return body
	}

	start := m.fragmentOffset(post.ID, drafts, now)
	height := lipgloss.Height(render.RenderPost(post, m.user, drafts[post.ID], now, m.width))

	lines := strings.Split(body, "\n")
	for i := start; i < start+height && i < len(lines); i++ {
		lines[i] = selectedMarkStyle.Render("▌") + lines[i]
	}
	return strings.Join(lines, "\n")
}

// postOffset da la línea de la vista completa donde arranca el fragmento de
// un post, para anclar el popover a su área.
func (m Model) postOffset(postID int) int {
	now := time.Now()
	offset := lipgloss.Height(m.headerView()) + lipgloss.Height(m.composerView())
	return offset + m.fragmentOffset(postID, m.renderDrafts(), now)
}

func (m Model) fragmentOffset(postID int, drafts map[int]render.CommentInput, now time.Time) int {
	offset := 0
	for _, p := range m.posts {
		if p.ID == postID {
			return offset
		}
		offset += lipgloss.Height(render.RenderPost(p, m.user, drafts[p.ID], now, m.width))
	}
	return offset
}

func (m Model) popoverView(p *Popover) string {
	choices := make([]string, len(p.Choices))
	for i, emoji := range p.Choices {
		if i == p.Cursor {
			choices[i] = popoverCursorStyle.Render(emoji)
		} else {
			choices[i] = popoverChoiceStyle.Render(emoji)
		}
	}
	return popoverStyle.Render(lipgloss.JoinHorizontal(lipgloss.Center, choices...))
}

func (m Model) statusView() string {
	var floats []string
	for _, e := range m.overlays.Effects() {
		floats = append(floats, e.Glyph)
	}

	help := "↑/↓ moverse · n publicar · r reaccionar · c comentar · m menú · q salir"
	if len(floats) > 0 {
		return statusStyle.Render(help) + "  " + strings.Join(floats, " ")
	}
	return statusStyle.Render(help)
}

// clipToWindow recorta la vista a la ventana visible según el scroll.
func (m Model) clipToWindow(view string) string {
	lines := strings.Split(view, "\n")
	visible := m.height - 1 // la línea de estado va aparte
	if visible <= 0 || len(lines) <= visible {
		return view
	}

	start := m.scroll
	if start > len(lines)-visible {
		start = len(lines) - visible
	}
	if start < 0 {
		start = 0
	}
	return strings.Join(lines[start:start+visible], "\n")
}

func (m *Model) ensureCursorVisible() {
	post, ok := m.selectedPost()
	if !ok {
		return
	}

	now := time.Now()
	drafts := m.renderDrafts()
	top := lipgloss.Height(m.headerView()) + lipgloss.Height(m.composerView()) +
		m.fragmentOffset(post.ID, drafts, now)
	height := lipgloss.Height(render.RenderPost(post, m.user, drafts[post.ID], now, m.width))
	visible := m.height - 1

	if top < m.scroll {
		m.scroll = top
	}
	if bottom := top + height; bottom > m.scroll+visible {
		m.scroll = bottom - visible
	}
}

func (m Model) centerBox(box string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// spliceLine superpone una caja sobre la vista a partir de la línea dada,
// sin desplazar el contenido de abajo: es una capa, no parte del feed.
func spliceLine(base, overlay string, at int) string {
	lines := strings.Split(base, "\n")
	overlayLines := strings.Split(overlay, "\n")

	if at < 0 {
		at = 0
	}
	for i, ol := range overlayLines {
		idx := at + i
		if idx >= len(lines) {
			lines = append(lines, ol)
			continue
		}
		lines[idx] = ol
	}
	return strings.Join(lines, "\n")
}
