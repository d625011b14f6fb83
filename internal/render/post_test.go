package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fugaz/internal/feed"
)

var currentUser = feed.User{Username: "carla"}

func samplePost() feed.Post {
	return feed.Post{
		ID:        1,
		Username:  "ana",
		Content:   "hola mundo",
		Timestamp: now.Add(-5 * time.Minute),
		ExpiresAt: now.Add(25 * time.Minute),
		Reactions: feed.NewReactions(
			feed.ReactionGroup{Emoji: "👍", Users: []string{"beto", "carla"}},
		),
		Comments: []feed.Comment{
			{ID: 1, Username: "beto", Content: "buenas", Timestamp: now.Add(-2 * time.Minute)},
		},
	}
}

func TestRenderPostSections(t *testing.T) {
	out := RenderPost(samplePost(), currentUser, CommentInput{}, now, 60)

	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "Hace 5 min")
	assert.Contains(t, out, "⏱️ 25m")
	assert.Contains(t, out, "hola mundo")
	assert.Contains(t, out, "Me gusta")
	assert.Contains(t, out, "buenas")
	assert.Contains(t, out, "Escribe un comentario...")
}

func TestRenderPostIsPure(t *testing.T) {
	p := samplePost()
	a := RenderPost(p, currentUser, CommentInput{}, now, 60)
	b := RenderPost(p, currentUser, CommentInput{}, now, 60)
	assert.Equal(t, a, b)
}

func TestRenderPostTrendingBadge(t *testing.T) {
	p := samplePost()
	assert.NotContains(t, RenderPost(p, currentUser, CommentInput{}, now, 60), "Trending")

	p.Reactions = feed.NewReactions(
		feed.ReactionGroup{Emoji: "👍", Users: []string{"a", "b", "c", "d"}},
	)
	// 4 reacciones + 1 comentario = 5: justo en el umbral.
	assert.Contains(t, RenderPost(p, currentUser, CommentInput{}, now, 60), "🔥 Trending")
}

func TestRenderPostStatsWording(t *testing.T) {
	p := samplePost()
	out := RenderPost(p, currentUser, CommentInput{}, now, 60)
	assert.Contains(t, out, "1 comentario")
	assert.NotContains(t, out, "1 comentarios")

	p.Comments = append(p.Comments, feed.Comment{ID: 2, Username: "dani", Content: "che", Timestamp: now})
	out = RenderPost(p, currentUser, CommentInput{}, now, 60)
	assert.Contains(t, out, "2 comentarios")
}

func TestRenderPostOmitsStatsWithoutActivity(t *testing.T) {
	p := samplePost()
	p.Reactions = feed.Reactions{}
	p.Comments = nil
	out := RenderPost(p, currentUser, CommentInput{}, now, 60)
	assert.NotContains(t, out, "comentarios")
	assert.NotContains(t, out, " · ")
}

func TestRenderPostEscapesNetworkContent(t *testing.T) {
	p := samplePost()
	p.Content = "colores \x1b[31mfalsos"
	p.Username = "ana\x1b[0m"
	p.Comments[0].Content = "también \x1b[9m acá"

	out := RenderPost(p, currentUser, CommentInput{}, now, 60)
	assert.NotContains(t, out[strings.Index(out, "colores"):], "\x1b[31m")
	assert.NotContains(t, out, "\x1b[9m")
}

func TestCommentInputSendEnablement(t *testing.T) {
	assert.False(t, CommentInput{}.SendEnabled())
	assert.False(t, CommentInput{Draft: "   "}.SendEnabled())
	assert.True(t, CommentInput{Draft: " dale "}.SendEnabled())
}

func TestRenderPostShowsDraftOverPlaceholder(t *testing.T) {
	out := RenderPost(samplePost(), currentUser, CommentInput{Draft: "escribiendo", Focused: true}, now, 60)
	assert.Contains(t, out, "escribiendo")
	assert.NotContains(t, out, "Escribe un comentario...")
}
