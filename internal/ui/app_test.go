package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fugaz/internal/client"
	"fugaz/internal/feed"
)

// fakeService registra las llamadas y devuelve lo configurado.
type fakeService struct {
	calls []string

	posts    []feed.Post
	postsErr error
	reactErr error
}

func (f *fakeService) Register(ctx context.Context, u, e, p string) error {
	f.calls = append(f.calls, "register")
	return nil
}

func (f *fakeService) Login(ctx context.Context, u, p string) error {
	f.calls = append(f.calls, "login")
	return nil
}

func (f *fakeService) Logout(ctx context.Context) error {
	f.calls = append(f.calls, "logout")
	return nil
}

func (f *fakeService) CurrentUser(ctx context.Context) (feed.User, error) {
	f.calls = append(f.calls, "current-user")
	return feed.User{Username: "ana"}, nil
}

func (f *fakeService) Posts(ctx context.Context) ([]feed.Post, error) {
	f.calls = append(f.calls, "posts")
	return f.posts, f.postsErr
}

func (f *fakeService) Stats(ctx context.Context) (feed.Stats, error) {
	f.calls = append(f.calls, "stats")
	return feed.Stats{}, nil
}

func (f *fakeService) CreatePost(ctx context.Context, content string) error {
	f.calls = append(f.calls, "create-post")
	return nil
}

func (f *fakeService) React(ctx context.Context, postID int, emoji string) error {
	f.calls = append(f.calls, "react")
	return f.reactErr
}

func (f *fakeService) AddComment(ctx context.Context, postID int, content string) error {
	f.calls = append(f.calls, "comment")
	return nil
}

func somePosts() []feed.Post {
	now := time.Now()
	return []feed.Post{
		{ID: 1, Username: "ana", Content: "hola", Timestamp: now, ExpiresAt: now.Add(time.Minute)},
		{ID: 2, Username: "beto", Content: "chau", Timestamp: now, ExpiresAt: now.Add(time.Minute)},
	}
}

// feedModel deja el modelo ya adentro del feed, con posts cargados.
func feedModel(svc *fakeService) Model {
	m := NewModel(svc, zap.NewNop())
	next, _ := m.Update(currentUserMsg{user: feed.User{Username: "ana"}})
	m = next.(Model)
	next, _ = m.Update(postsMsg{posts: somePosts()})
	return next.(Model)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// drainBatch ejecuta un comando (y sus batches) y devuelve los mensajes.
// Solo sirve para comandos que no bloquean (nada de ticks).
func drainBatch(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, sub := range batch {
			out = append(out, drainBatch(sub)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestBootstrapFailureGoesToLogin(t *testing.T) {
	svc := &fakeService{}
	m := NewModel(svc, zap.NewNop())

	next, _ := m.Update(currentUserMsg{err: client.ErrUnauthorized})
	m = next.(Model)
	assert.Equal(t, stateLogin, m.state)
}

func TestPollFailureKeepsLastGoodFeed(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)
	require.Len(t, m.posts, 2)

	next, cmd := m.Update(postsMsg{err: assert.AnError})
	m = next.(Model)

	// Fail-soft: los posts anteriores siguen ahí y no se dispara nada.
	assert.Len(t, m.posts, 2)
	assert.Nil(t, cmd)
}

func TestPollUnauthorizedGoesToLoginAndStopsFlow(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	next, _ := m.Update(postsMsg{err: client.ErrUnauthorized})
	m = next.(Model)
	require.Equal(t, stateLogin, m.state)

	// El siguiente latido del poll muere sin reprogramarse.
	next, cmd := m.Update(pollTickMsg(time.Now()))
	m = next.(Model)
	assert.Nil(t, cmd)
	assert.False(t, m.polling)
}

func TestWhitespaceCommentMakesNoNetworkCall(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)
	svc.calls = nil

	next, _ := m.Update(keyRune('c'))
	m = next.(Model)
	require.Equal(t, 1, m.commentFocus)

	for _, r := range "   " {
		next, _ = m.Update(keyRune(r))
		m = next.(Model)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Empty(t, svc.calls)
	assert.Equal(t, 1, m.commentFocus, "el input sigue activo, el envío sigue apagado")
}

func TestCommentSuccessClearsDraftAndRefreshesNow(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)
	m.drafts[1] = "buenísimo"

	next, cmd := m.Update(commentSentMsg{postID: 1})
	m = next.(Model)

	assert.NotContains(t, m.drafts, 1)

	svc.calls = nil
	drainBatch(cmd)
	// Refresco inmediato, sin esperar el próximo poll de 5 segundos.
	assert.ElementsMatch(t, []string{"posts", "stats"}, svc.calls)
}

func TestReactUnauthorizedReturnsToLogin(t *testing.T) {
	svc := &fakeService{reactErr: client.ErrUnauthorized}

	msgs := drainBatch(doReact(svc, 1, "👍"))
	require.Len(t, msgs, 1)

	m := feedModel(svc)
	svc.calls = nil
	next, cmd := m.Update(msgs[0])
	m = next.(Model)

	assert.Equal(t, stateLogin, m.state)
	// Sin refresco de feed ni reintento después del 401.
	assert.Nil(t, cmd)
	assert.Empty(t, svc.calls)
}

func TestEmptyPostShowsBlockingAlertWithoutNetwork(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)
	svc.calls = nil

	next, _ := m.Update(keyRune('n'))
	m = next.(Model)
	require.True(t, m.composerOpen)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	m = next.(Model)

	assert.Equal(t, "Escribe algo para publicar", m.alert)
	assert.Nil(t, cmd)
	assert.Empty(t, svc.calls)

	// El alert es bloqueante: la primera tecla solo lo despacha.
	next, _ = m.Update(keyRune('q'))
	m = next.(Model)
	assert.Empty(t, m.alert)
	assert.Equal(t, stateFeed, m.state)
}

func TestPostSuccessCollapsesComposer(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	next, _ := m.Update(keyRune('n'))
	m = next.(Model)
	m.composer.SetValue("mi primer post")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	m = next.(Model)
	require.NotNil(t, cmd)

	next, cmd = m.Update(postCreatedMsg{})
	m = next.(Model)

	assert.False(t, m.composerOpen)
	assert.Empty(t, m.composer.Value())

	svc.calls = nil
	drainBatch(cmd)
	assert.ElementsMatch(t, []string{"posts", "stats"}, svc.calls)
}

func TestPopoverOpensTogglesAndCloses(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	next, cmd := m.Update(keyRune('r'))
	m = next.(Model)
	require.NotNil(t, m.overlays.Popover())
	require.NotNil(t, cmd, "debe armarse el cierre externo con demora")

	// Mismo disparador: toggle y queda cerrado.
	next, _ = m.Update(keyRune('r'))
	m = next.(Model)
	assert.Nil(t, m.overlays.Popover())
}

func TestPopoverChoiceDispatchesReaction(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	next, _ := m.Update(keyRune('r'))
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRight})
	m = next.(Model)

	svc.calls = nil
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Nil(t, m.overlays.Popover(), "elegir cierra el popover")
	assert.NotEmpty(t, m.overlays.Effects(), "queda el emoji flotante")

	var reacted bool
	for _, msg := range drainBatch(cmd) {
		if _, ok := msg.(reactionSentMsg); ok {
			reacted = true
		}
	}
	assert.True(t, reacted)
	assert.Contains(t, svc.calls, "react")
}

func TestPopoverReopenedForAnotherPostArms(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	next, _ := m.Update(keyRune('r'))
	m = next.(Model)
	next, _ = m.Update(armPopoverMsg{})
	m = next.(Model)
	require.Equal(t, 1, m.overlays.Popover().PostID)

	// El poll reordena el feed bajo el cursor con el popover abierto.
	posts := somePosts()
	posts[0], posts[1] = posts[1], posts[0]
	next, _ = m.Update(postsMsg{posts: posts})
	m = next.(Model)

	next, cmd := m.Update(keyRune('r'))
	m = next.(Model)
	require.NotNil(t, m.overlays.Popover())
	assert.Equal(t, 2, m.overlays.Popover().PostID)
	require.NotNil(t, cmd, "el popover nuevo también arma su cierre externo")

	// Armado, el cierre externo funciona y la tecla sigue su curso.
	next, _ = m.Update(armPopoverMsg{})
	m = next.(Model)
	next, _ = m.Update(keyRune('j'))
	m = next.(Model)
	assert.Nil(t, m.overlays.Popover())
	assert.Equal(t, 1, m.cursor)
}

func TestPopoverAnchorTracksFocusedDraftHeight(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	base := m.postOffset(2)

	// Un borrador enfocado que envuelve varias líneas empuja el ancla del
	// post siguiente hacia abajo.
	next, _ := m.Update(keyRune('c'))
	m = next.(Model)
	require.Equal(t, 1, m.commentFocus)
	m.commentInput.SetValue(strings.Repeat("palabra ", 30))

	assert.Greater(t, m.postOffset(2), base)
}

func TestOutsideKeyClosesArmedPopover(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	next, _ := m.Update(keyRune('r'))
	m = next.(Model)

	// Antes de armarse, la tecla de apertura no cierra nada.
	next, _ = m.Update(keyRune('j'))
	m = next.(Model)
	require.NotNil(t, m.overlays.Popover())

	next, _ = m.Update(armPopoverMsg{})
	m = next.(Model)
	next, _ = m.Update(keyRune('j'))
	m = next.(Model)
	assert.Nil(t, m.overlays.Popover())
}

func TestUserMenuClosesOnOutsideKey(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	next, _ := m.Update(keyRune('m'))
	m = next.(Model)
	require.True(t, m.menuOpen)

	// La tecla de afuera cierra el menú y sigue su curso (mueve el cursor).
	next, _ = m.Update(keyRune('j'))
	m = next.(Model)
	assert.False(t, m.menuOpen)
	assert.Equal(t, 1, m.cursor)

	// El listener es permanente: el menú puede reabrirse las veces que sea.
	next, _ = m.Update(keyRune('m'))
	m = next.(Model)
	assert.True(t, m.menuOpen)
}

func TestLogoutNeedsConfirmation(t *testing.T) {
	svc := &fakeService{}
	m := feedModel(svc)

	next, _ := m.Update(keyRune('m'))
	m = next.(Model)
	next, _ = m.Update(keyRune('l'))
	m = next.(Model)
	require.True(t, m.confirmLogout)

	// 'n' cancela sin llamar a la red.
	svc.calls = nil
	next, _ = m.Update(keyRune('n'))
	m = next.(Model)
	assert.False(t, m.confirmLogout)
	assert.Empty(t, svc.calls)

	// Confirmar dispara el logout y siempre se vuelve al login.
	next, _ = m.Update(keyRune('m'))
	m = next.(Model)
	next, _ = m.Update(keyRune('l'))
	m = next.(Model)
	next, cmd := m.Update(keyRune('s'))
	m = next.(Model)

	msgs := drainBatch(cmd)
	require.Len(t, msgs, 1)
	next, _ = m.Update(msgs[0])
	m = next.(Model)
	assert.Equal(t, stateLogin, m.state)
	assert.Contains(t, svc.calls, "logout")
}
