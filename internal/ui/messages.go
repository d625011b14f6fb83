package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"fugaz/internal/feed"
)

// Cadencia fija del poll de feed y estadísticas.
const pollInterval = 5 * time.Second

// Demora antes de armar el cierre por interacción externa del popover.
const popoverArmDelay = 100 * time.Millisecond

// Service es lo que el modelo necesita del backend. *client.Client lo
// implementa; los tests usan un doble.
type Service interface {
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (feed.User, error)
	Posts(ctx context.Context) ([]feed.Post, error)
	Stats(ctx context.Context) (feed.Stats, error)
	CreatePost(ctx context.Context, content string) error
	React(ctx context.Context, postID int, emoji string) error
	AddComment(ctx context.Context, postID int, content string) error
}

type currentUserMsg struct {
	user feed.User
	err  error
}

type postsMsg struct {
	posts []feed.Post
	err   error
}

type statsMsg struct {
	stats feed.Stats
	err   error
}

type pollTickMsg time.Time

type armPopoverMsg struct{}

type effectTickMsg time.Time

type loginDoneMsg struct{ err error }

type registerDoneMsg struct{ err error }

type postCreatedMsg struct{ err error }

type reactionSentMsg struct{ err error }

type commentSentMsg struct {
	postID int
	err    error
}

type loggedOutMsg struct{}

func fetchCurrentUser(svc Service) tea.Cmd {
	return func() tea.Msg {
		user, err := svc.CurrentUser(context.Background())
		return currentUserMsg{user: user, err: err}
	}
}

func fetchPosts(svc Service) tea.Cmd {
	return func() tea.Msg {
		posts, err := svc.Posts(context.Background())
		return postsMsg{posts: posts, err: err}
	}
}

func fetchStats(svc Service) tea.Cmd {
	return func() tea.Msg {
		stats, err := svc.Stats(context.Background())
		return statsMsg{stats: stats, err: err}
	}
}

// pollTick arma el próximo latido del poll. Los polls en vuelo no se
// cancelan cuando llega el siguiente; a esta cadencia no se pisan.
func pollTick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

func armPopover() tea.Cmd {
	return tea.Tick(popoverArmDelay, func(time.Time) tea.Msg {
		return armPopoverMsg{}
	})
}

func effectTick() tea.Cmd {
	return tea.Tick(effectLifetime, func(t time.Time) tea.Msg {
		return effectTickMsg(t)
	})
}

func doLogin(svc Service, username, password string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: svc.Login(context.Background(), username, password)}
	}
}

func doRegister(svc Service, username, email, password string) tea.Cmd {
	return func() tea.Msg {
		return registerDoneMsg{err: svc.Register(context.Background(), username, email, password)}
	}
}

func doCreatePost(svc Service, content string) tea.Cmd {
	return func() tea.Msg {
		return postCreatedMsg{err: svc.CreatePost(context.Background(), content)}
	}
}

func doReact(svc Service, postID int, emoji string) tea.Cmd {
	return func() tea.Msg {
		return reactionSentMsg{err: svc.React(context.Background(), postID, emoji)}
	}
}

func doComment(svc Service, postID int, content string) tea.Cmd {
	return func() tea.Msg {
		return commentSentMsg{postID: postID, err: svc.AddComment(context.Background(), postID, content)}
	}
}

// doLogout cierra la sesión en el servidor; pase lo que pase se vuelve al
// login.
func doLogout(svc Service) tea.Cmd {
	return func() tea.Msg {
		_ = svc.Logout(context.Background())
		return loggedOutMsg{}
	}
}
