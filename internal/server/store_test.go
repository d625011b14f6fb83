package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, *time.Time) {
	s := NewStore(30 * time.Minute)
	clock := time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	return s, &clock
}

func TestCreateUserDuplicates(t *testing.T) {
	s, _ := newTestStore()

	require.NoError(t, s.CreateUser("ana", "ana@mail.com", "hash"))
	assert.ErrorIs(t, s.CreateUser("ana", "otra@mail.com", "hash"), ErrUserExists)
	assert.ErrorIs(t, s.CreateUser("beto", "ana@mail.com", "hash"), ErrEmailTaken)

	u, ok := s.GetUser("ana")
	require.True(t, ok)
	assert.Equal(t, "A", u.ProfilePic)
}

func TestActivePostsFiltersExpired(t *testing.T) {
	s, clock := newTestStore()

	s.CreatePost("ana", "se va a vencer")
	*clock = clock.Add(31 * time.Minute)
	s.CreatePost("beto", "recién salido")

	posts := s.ActivePosts()
	require.Len(t, posts, 1)
	assert.Equal(t, "recién salido", posts[0].Content)
}

func TestActivePostsSortedByEngagementThenDate(t *testing.T) {
	s, clock := newTestStore()

	quiet := s.CreatePost("ana", "tranquilo")
	*clock = clock.Add(time.Minute)
	popular := s.CreatePost("beto", "popular")
	*clock = clock.Add(time.Minute)
	newest := s.CreatePost("carla", "nuevo")

	_, err := s.React(popular.ID, "ana", "👍")
	require.NoError(t, err)
	_, err = s.AddComment(popular.ID, "carla", "buenísimo")
	require.NoError(t, err)

	posts := s.ActivePosts()
	require.Len(t, posts, 3)
	// Más actividad primero; empate de actividad se resuelve por fecha.
	assert.Equal(t, popular.ID, posts[0].ID)
	assert.Equal(t, newest.ID, posts[1].ID)
	assert.Equal(t, quiet.ID, posts[2].ID)
}

func TestReactSwitchesInsteadOfStacking(t *testing.T) {
	s, _ := newTestStore()
	p := s.CreatePost("ana", "hola")

	out, err := s.React(p.ID, "beto", "👍")
	require.NoError(t, err)
	assert.Equal(t, 1, out.ReactionsCount)

	// El mismo usuario cambia de emoji: sigue contando una sola reacción.
	out, err = s.React(p.ID, "beto", "❤️")
	require.NoError(t, err)
	assert.Equal(t, 1, out.ReactionsCount)
	assert.Empty(t, out.Reactions.Reactors("👍"))
	assert.Equal(t, []string{"beto"}, out.Reactions.Reactors("❤️"))

	// Repetir el mismo emoji tampoco duplica.
	out, err = s.React(p.ID, "beto", "❤️")
	require.NoError(t, err)
	assert.Equal(t, 1, out.ReactionsCount)

	// La clave del primer emoji queda registrada en orden de primer toque.
	assert.Equal(t, []string{"👍", "❤️"}, out.Reactions.Emojis())
}

func TestReactUnknownPost(t *testing.T) {
	s, _ := newTestStore()
	_, err := s.React(99, "ana", "👍")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestAddCommentSequentialIDs(t *testing.T) {
	s, _ := newTestStore()
	p := s.CreatePost("ana", "hola")

	_, err := s.AddComment(p.ID, "beto", "primero")
	require.NoError(t, err)
	out, err := s.AddComment(p.ID, "carla", "segundo")
	require.NoError(t, err)

	require.Len(t, out.Comments, 2)
	assert.Equal(t, 1, out.Comments[0].ID)
	assert.Equal(t, 2, out.Comments[1].ID)
}

func TestStatsCountsOnlyActivePosts(t *testing.T) {
	s, clock := newTestStore()
	require.NoError(t, s.CreateUser("ana", "ana@mail.com", "h"))
	require.NoError(t, s.CreateUser("beto", "beto@mail.com", "h"))

	old := s.CreatePost("ana", "viejo")
	_, err := s.React(old.ID, "beto", "👍")
	require.NoError(t, err)

	*clock = clock.Add(31 * time.Minute)
	fresh := s.CreatePost("beto", "nuevo")
	_, err = s.AddComment(fresh.ID, "ana", "hola")
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, 1, stats.TotalPosts)
	assert.Equal(t, 0, stats.TotalReactions)
	assert.Equal(t, 1, stats.TotalComments)
	assert.Equal(t, 2, stats.TotalUsers)
}

func TestSnapshotDoesNotShareMemory(t *testing.T) {
	s, _ := newTestStore()
	p := s.CreatePost("ana", "hola")

	before, err := s.React(p.ID, "beto", "👍")
	require.NoError(t, err)

	_, err = s.React(p.ID, "carla", "👍")
	require.NoError(t, err)

	// El snapshot anterior no ve la reacción nueva.
	assert.Equal(t, []string{"beto"}, before.Reactions.Reactors("👍"))
}
