package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	loginTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	loginBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	loginErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	loginHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// loginForm es la pantalla de entrada: login o registro, según el modo.
type loginForm struct {
	registering bool
	username    textinput.Model
	email       textinput.Model
	password    textinput.Model
	focus       int
	errMsg      string
	waiting     bool
}

func newLoginForm() loginForm {
	username := textinput.New()
	username.Placeholder = "usuario"
	username.CharLimit = 32
	username.Focus()

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 64

	password := textinput.New()
	password.Placeholder = "contraseña"
	password.CharLimit = 64
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginForm{username: username, email: email, password: password}
}

// fields devuelve los campos visibles en orden de foco.
func (f *loginForm) fields() []*textinput.Model {
	if f.registering {
		return []*textinput.Model{&f.username, &f.email, &f.password}
	}
	return []*textinput.Model{&f.username, &f.password}
}

func (f *loginForm) cycleFocus(delta int) {
	fields := f.fields()
	f.focus = (f.focus + delta + len(fields)) % len(fields)
	for i, field := range fields {
		if i == f.focus {
			field.Focus()
		} else {
			field.Blur()
		}
	}
}

func (f *loginForm) toggleMode() {
	f.registering = !f.registering
	f.errMsg = ""
	f.focus = 0
	f.cycleFocus(0)
}

// update procesa una tecla y devuelve el comando a disparar si el formulario
// se envió.
func (f *loginForm) update(msg tea.KeyMsg, svc Service) tea.Cmd {
	if f.waiting {
		return nil
	}

	switch msg.String() {
	case "tab", "down":
		f.cycleFocus(1)
		return nil
	case "shift+tab", "up":
		f.cycleFocus(-1)
		return nil
	case "ctrl+r":
		f.toggleMode()
		return nil
	case "enter":
		return f.submit(svc)
	}

	var cmd tea.Cmd
	fields := f.fields()
	*fields[f.focus], cmd = fields[f.focus].Update(msg)
	return cmd
}

func (f *loginForm) submit(svc Service) tea.Cmd {
	username := strings.TrimSpace(f.username.Value())
	password := f.password.Value()

	if f.registering {
		email := strings.TrimSpace(f.email.Value())
		if username == "" || email == "" || password == "" {
			f.errMsg = "Todos los campos son requeridos"
			return nil
		}
		f.waiting = true
		return doRegister(svc, username, email, password)
	}

	if username == "" || password == "" {
		f.errMsg = "Usuario y contraseña requeridos"
		return nil
	}
	f.waiting = true
	return doLogin(svc, username, password)
}

func (f *loginForm) fail(err error) {
	f.waiting = false
	f.errMsg = err.Error()
}

func (f loginForm) view(width int) string {
	title := "⚡ FUGAZ — Iniciar sesión"
	action := "enter entra · ctrl+r registrarse"
	if f.registering {
		title = "⚡ FUGAZ — Crear cuenta"
		action = "enter crea la cuenta · ctrl+r volver al login"
	}

	rows := []string{loginTitleStyle.Render(title), ""}
	for _, field := range f.fields() {
		rows = append(rows, field.View())
	}

	if f.errMsg != "" {
		rows = append(rows, "", loginErrStyle.Render(f.errMsg))
	}
	if f.waiting {
		rows = append(rows, "", loginHintStyle.Render("..."))
	}
	rows = append(rows, "", loginHintStyle.Render(action))

	box := loginBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	if width > lipgloss.Width(box) {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(box)
	}
	return box
}
