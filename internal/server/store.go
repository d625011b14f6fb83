package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"fugaz/internal/feed"
)

// Cuánto vive un post antes de expirar, salvo configuración en contrario.
const DefaultPostLifetime = 30 * time.Minute

var (
	ErrPostNotFound = errors.New("Post no encontrado")
	ErrUserExists   = errors.New("El usuario ya existe")
	ErrEmailTaken   = errors.New("El email ya está registrado")
	ErrBadLogin     = errors.New("Usuario o contraseña incorrectos")
)

// Post es la forma que el servidor persiste y sirve por la API. A diferencia
// del modelo del cliente lleva el contador ya calculado y las vistas.
type Post struct {
	ID             int            `json:"id"`
	Username       string         `json:"username"`
	Content        string         `json:"content"`
	Timestamp      time.Time      `json:"timestamp"`
	ExpiresAt      time.Time      `json:"expires_at"`
	Reactions      feed.Reactions `json:"reactions"`
	ReactionsCount int            `json:"reactions_count"`
	Comments       []feed.Comment `json:"comments"`
	Views          int            `json:"views"`
}

type User struct {
	Username     string
	PasswordHash string
	Email        string
	ProfilePic   string
	CreatedAt    time.Time
}

// Store guarda todo en memoria: los posts mueren con el proceso y la
// expiración se aplica al leer, no con un reaper.
type Store struct {
	mu       sync.RWMutex
	posts    []*Post
	users    map[string]*User
	nextID   int
	lifetime time.Duration
	now      func() time.Time
}

func NewStore(lifetime time.Duration) *Store {
	if lifetime <= 0 {
		lifetime = DefaultPostLifetime
	}
	return &Store{
		users:    make(map[string]*User),
		nextID:   1,
		lifetime: lifetime,
		now:      time.Now,
	}
}

func (s *Store) CreateUser(username, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrUserExists
	}
	for _, u := range s.users {
		if u.Email == email {
			return ErrEmailTaken
		}
	}

	s.users[username] = &User{
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		ProfilePic:   feed.Avatar(username),
		CreatedAt:    s.now(),
	}
	return nil
}

func (s *Store) GetUser(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	return *u, true
}

func (s *Store) CreatePost(username, content string) Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := &Post{
		ID:        s.nextID,
		Username:  username,
		Content:   content,
		Timestamp: now,
		ExpiresAt: now.Add(s.lifetime),
	}
	s.posts = append(s.posts, p)
	s.nextID++
	return snapshot(p)
}

// ActivePosts devuelve los posts sin expirar ordenados por actividad
// (reacciones + comentarios) y, a igual actividad, por fecha, ambos
// descendentes. Este es el orden que el cliente respeta tal cual.
func (s *Store) ActivePosts() []Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	active := make([]Post, 0, len(s.posts))
	for _, p := range s.posts {
		if p.ExpiresAt.After(now) {
			active = append(active, snapshot(p))
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		ei := active[i].ReactionsCount + len(active[i].Comments)
		ej := active[j].ReactionsCount + len(active[j].Comments)
		if ei != ej {
			return ei > ej
		}
		return active[i].Timestamp.After(active[j].Timestamp)
	})
	return active
}

// React registra la reacción de un usuario. Un usuario tiene a lo sumo una
// reacción por post: reaccionar de nuevo cambia el emoji, no suma otra.
func (s *Store) React(postID int, username, emoji string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(postID)
	if p == nil {
		return Post{}, ErrPostNotFound
	}

	// La clave se registra antes de sacar la reacción anterior para que el
	// orden de aparición de los emojis quede fijado por el primer toque.
	p.Reactions.Ensure(emoji)
	p.ReactionsCount -= p.Reactions.RemoveReactor(username)
	p.Reactions.Add(emoji, username)
	p.ReactionsCount++

	return snapshot(p), nil
}

func (s *Store) AddComment(postID int, username, content string) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findLocked(postID)
	if p == nil {
		return Post{}, ErrPostNotFound
	}

	p.Comments = append(p.Comments, feed.Comment{
		ID:        len(p.Comments) + 1,
		Username:  username,
		Content:   content,
		Timestamp: s.now(),
	})
	return snapshot(p), nil
}

// Stats cuenta solo sobre los posts activos; los expirados ya no existen
// para nadie.
func (s *Store) Stats() feed.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	stats := feed.Stats{TotalUsers: len(s.users)}
	for _, p := range s.posts {
		if !p.ExpiresAt.After(now) {
			continue
		}
		stats.TotalPosts++
		stats.TotalReactions += p.ReactionsCount
		stats.TotalComments += len(p.Comments)
	}
	return stats
}

func (s *Store) findLocked(postID int) *Post {
	for _, p := range s.posts {
		if p.ID == postID {
			return p
		}
	}
	return nil
}

// snapshot copia el post para que el JSON se arme sin compartir memoria con
// el dato vivo bajo el lock.
func snapshot(p *Post) Post {
	out := *p
	out.Reactions = p.Reactions.Clone()
	// Siempre no-nil para que el JSON lleve [] y no null.
	out.Comments = make([]feed.Comment, len(p.Comments))
	copy(out.Comments, p.Comments)
	return out
}
