package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Umbral de actividad (reacciones + comentarios) para marcar un post como trending.
const TrendingThreshold = 5

// Emojis disponibles para reaccionar, en el orden que muestra el selector.
var Emojis = []string{"👍", "❤️", "😂", "😮", "😢", "😡"}

// Post es una publicación efímera tal como la entrega el servidor.
// El cliente nunca la muta: cada poll reemplaza la colección completa.
type Post struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expires_at"`
	Reactions Reactions `json:"reactions"`
	Comments  []Comment `json:"comments"`
}

type Comment struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// User es la identidad de la sesión, cargada una sola vez en el bootstrap.
type User struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	ProfilePic string `json:"profile_pic"`
	CreatedAt  string `json:"created_at"`
}

// Stats son los contadores agregados del feed, reemplazados en cada poll.
type Stats struct {
	TotalPosts     int `json:"total_posts"`
	TotalReactions int `json:"total_reactions"`
	TotalComments  int `json:"total_comments"`
	TotalUsers     int `json:"total_users"`
}

func (p Post) ReactionsCount() int { return p.Reactions.Count() }

func (p Post) CommentsCount() int { return len(p.Comments) }

// IsTrending indica si la actividad combinada alcanza el umbral.
func (p Post) IsTrending() bool {
	return p.ReactionsCount()+p.CommentsCount() >= TrendingThreshold
}

// TopEmojis devuelve hasta tres emojis ordenados por cantidad de reacciones.
func (p Post) TopEmojis() []string {
	return p.Reactions.Top(3)
}

// Avatar devuelve la inicial del usuario en mayúscula, o "?" si no hay nombre.
func Avatar(username string) string {
	for _, r := range username {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// Reactions agrupa los usuarios que reaccionaron por emoji, conservando el
// orden de aparición de las claves del JSON. El orden importa: los empates
// del top de emojis se resuelven por orden de declaración.
type Reactions struct {
	keys     []string
	reactors map[string][]string
}

// NewReactions construye el mapa a partir de pares emoji/usuarios en orden.
func NewReactions(pairs ...ReactionGroup) Reactions {
	r := Reactions{reactors: make(map[string][]string)}
	for _, p := range pairs {
		r.keys = append(r.keys, p.Emoji)
		r.reactors[p.Emoji] = p.Users
	}
	return r
}

type ReactionGroup struct {
	Emoji string
	Users []string
}

// Count suma los largos de todas las listas de reactores.
func (r Reactions) Count() int {
	total := 0
	for _, emoji := range r.keys {
		total += len(r.reactors[emoji])
	}
	return total
}

// Reactors devuelve la lista de usuarios que reaccionaron con el emoji dado.
func (r Reactions) Reactors(emoji string) []string {
	return r.reactors[emoji]
}

// Emojis devuelve las claves en su orden original.
func (r Reactions) Emojis() []string {
	return r.keys
}

// Top devuelve hasta n emojis ordenados por cantidad descendente.
// El orden relativo de los empates se conserva (sort estable).
func (r Reactions) Top(n int) []string {
	top := make([]string, len(r.keys))
	copy(top, r.keys)
	sort.SliceStable(top, func(i, j int) bool {
		return len(r.reactors[top[i]]) > len(r.reactors[top[j]])
	})
	if len(top) > n {
		top = top[:n]
	}
	return top
}

// Los mutadores siguientes los usa el servidor, que es dueño del dato.
// El cliente solo observa snapshots y nunca los toca.

// Ensure registra la clave del emoji si todavía no existe, sin reactores.
func (r *Reactions) Ensure(emoji string) {
	if r.reactors == nil {
		r.reactors = make(map[string][]string)
	}
	if _, ok := r.reactors[emoji]; !ok {
		r.keys = append(r.keys, emoji)
		r.reactors[emoji] = nil
	}
}

// Add suma un reactor al emoji dado, si no estaba ya.
func (r *Reactions) Add(emoji, username string) {
	r.Ensure(emoji)
	for _, u := range r.reactors[emoji] {
		if u == username {
			return
		}
	}
	r.reactors[emoji] = append(r.reactors[emoji], username)
}

// RemoveReactor quita al usuario de todas las listas y devuelve cuántas
// reacciones se le sacaron.
func (r *Reactions) RemoveReactor(username string) int {
	removed := 0
	for emoji, users := range r.reactors {
		kept := users[:0]
		for _, u := range users {
			if u == username {
				removed++
				continue
			}
			kept = append(kept, u)
		}
		r.reactors[emoji] = kept
	}
	return removed
}

// Clone copia el mapa completo para entregar snapshots sin compartir memoria.
func (r Reactions) Clone() Reactions {
	out := Reactions{reactors: make(map[string][]string, len(r.keys))}
	out.keys = append(out.keys, r.keys...)
	for emoji, users := range r.reactors {
		out.reactors[emoji] = append([]string(nil), users...)
	}
	return out
}

// UnmarshalJSON decodifica el objeto conservando el orden de las claves,
// algo que un map[string][]string no puede garantizar.
func (r *Reactions) UnmarshalJSON(data []byte) error {
	r.keys = nil
	r.reactors = make(map[string][]string)

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("reactions: se esperaba un objeto JSON, llegó %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		emoji := keyTok.(string)

		var users []string
		if err := dec.Decode(&users); err != nil {
			return err
		}
		r.keys = append(r.keys, emoji)
		r.reactors[emoji] = users
	}

	_, err = dec.Token() // '}'
	return err
}

// MarshalJSON emite las claves en el mismo orden en que se recibieron.
func (r Reactions) MarshalJSON() ([]byte, error) {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, emoji := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(emoji)
		if err != nil {
			return nil, err
		}
		// Lista vacía emite [], nunca null.
		list := r.reactors[emoji]
		if list == nil {
			list = []string{}
		}
		users, err := json.Marshal(list)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(users)
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}
