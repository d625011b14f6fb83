package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.uber.org/zap"

	"fugaz/internal/feed"
)

// ErrUnauthorized señala que el servidor rechazó la sesión: el que llama debe
// volver a la pantalla de login, sin reintentos.
var ErrUnauthorized = errors.New("no autenticado")

// Client habla con la API de fugaz. La cookie de sesión vive en el jar, así
// que un login exitoso autentica todas las llamadas siguientes.
type Client struct {
	base   string
	http   *http.Client
	logger *zap.Logger
}

func New(baseURL string, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	return nil
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/logout", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// CurrentUser trae la identidad de la sesión. Cualquier respuesta que no sea
// 2xx invalida la sesión, a diferencia de React/AddComment que solo miran 401.
func (c *Client) CurrentUser(ctx context.Context) (feed.User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/current-user", nil)
	if err != nil {
		return feed.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return feed.User{}, ErrUnauthorized
	}

	var u feed.User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return feed.User{}, err
	}
	return u, nil
}

func (c *Client) Posts(ctx context.Context) ([]feed.Post, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/posts", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var posts []feed.Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) Stats(ctx context.Context) (feed.Stats, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/stats", nil)
	if err != nil {
		return feed.Stats{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return feed.Stats{}, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return feed.Stats{}, apiError(resp)
	}

	var s feed.Stats
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return feed.Stats{}, err
	}
	return s, nil
}

func (c *Client) CreatePost(ctx context.Context, content string) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/posts", map[string]string{"content": content})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// React registra una reacción. Se mira el status 401 antes de leer el cuerpo;
// cualquier otro error se informa tal cual.
func (c *Client) React(ctx context.Context, postID int, emoji string) error {
	path := fmt.Sprintf("/api/posts/%d/react", postID)
	resp, err := c.do(ctx, http.MethodPost, path, map[string]string{"emoji": emoji})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func (c *Client) AddComment(ctx context.Context, postID int, content string) error {
	path := fmt.Sprintf("/api/posts/%d/comment", postID)
	resp, err := c.do(ctx, http.MethodPost, path, map[string]string{"content": content})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("❌ Error de red", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	c.logger.Debug("↔️ Llamada a la API",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode))
	return resp, nil
}

// apiError extrae el mensaje {"error": ...} del cuerpo, si lo hay.
func apiError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return errors.New(payload.Error)
	}
	return fmt.Errorf("el servidor respondió %d", resp.StatusCode)
}
