package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fugaz/internal/auth"
)

// API agrupa los handlers HTTP con sus dependencias.
type API struct {
	store  *Store
	auth   *auth.Service
	logger *zap.Logger
}

func NewAPI(store *Store, authService *auth.Service, logger *zap.Logger) *API {
	return &API{store: store, auth: authService, logger: logger}
}

// SetupRoutes registra todas las rutas de la API bajo /api.
func (a *API) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.POST("/register", a.register)
	api.POST("/login", a.login)
	api.POST("/logout", a.logout)

	protected := api.Group("")
	protected.Use(a.loginRequired())
	protected.GET("/current-user", a.currentUser)
	protected.GET("/posts", a.getPosts)
	protected.POST("/posts", a.createPost)
	protected.POST("/posts/:id/react", a.react)
	protected.POST("/posts/:id/comment", a.comment)
	protected.GET("/stats", a.stats)
}

// loginRequired corta con 401 si la cookie de sesión falta o no valida.
func (a *API) loginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(auth.CookieName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No autenticado"})
			return
		}

		claims, err := a.auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No autenticado"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

func (a *API) register(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Todos los campos son requeridos"})
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	switch {
	case username == "" || email == "" || req.Password == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "Todos los campos son requeridos"})
		return
	case len(username) < 3:
		c.JSON(http.StatusBadRequest, gin.H{"error": "El usuario debe tener al menos 3 caracteres"})
		return
	case len(req.Password) < 6:
		c.JSON(http.StatusBadRequest, gin.H{"error": "La contraseña debe tener al menos 6 caracteres"})
		return
	}

	hash, err := a.auth.HashPassword(req.Password)
	if err != nil {
		a.logger.Error("❌ Error generando hash de contraseña", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno"})
		return
	}

	if err := a.store.CreateUser(username, email, hash); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !a.startSession(c, username) {
		return
	}

	a.logger.Info("👤 Usuario registrado", zap.String("username", username))
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"username": username,
		"message":  "Usuario registrado exitosamente",
	})
}

func (a *API) login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Usuario y contraseña requeridos"})
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Usuario y contraseña requeridos"})
		return
	}

	user, ok := a.store.GetUser(username)
	if !ok || !a.auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrBadLogin.Error()})
		return
	}

	if !a.startSession(c, username) {
		return
	}

	a.logger.Info("🔑 Sesión iniciada", zap.String("username", username))
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"username": username,
		"message":  "Inicio de sesión exitoso",
	})
}

func (a *API) logout(c *gin.Context) {
	c.SetCookie(auth.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Sesión cerrada"})
}

func (a *API) currentUser(c *gin.Context) {
	username := c.GetString("username")

	user, ok := a.store.GetUser(username)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No autenticado"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":    user.Username,
		"email":       user.Email,
		"profile_pic": user.ProfilePic,
		"created_at":  user.CreatedAt,
	})
}

func (a *API) getPosts(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.ActivePosts())
}

func (a *API) createPost(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contenido inválido"})
		return
	}

	post := a.store.CreatePost(c.GetString("username"), req.Content)
	c.JSON(http.StatusCreated, post)
}

func (a *API) react(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrPostNotFound.Error()})
		return
	}

	var req struct {
		Emoji string `json:"emoji"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Emoji == "" {
		req.Emoji = "👍"
	}

	post, err := a.store.React(postID, c.GetString("username"), req.Emoji)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (a *API) comment(c *gin.Context) {
	postID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrPostNotFound.Error()})
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contenido inválido"})
		return
	}

	post, err := a.store.AddComment(postID, c.GetString("username"), req.Content)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (a *API) stats(c *gin.Context) {
	c.JSON(http.StatusOK, a.store.Stats())
}

// startSession emite el token y lo deja en la cookie. Devuelve false si la
// respuesta ya se escribió por un error interno.
func (a *API) startSession(c *gin.Context, username string) bool {
	token, err := a.auth.GenerateToken(username)
	if err != nil {
		a.logger.Error("❌ Error generando token de sesión", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error interno"})
		return false
	}

	c.SetCookie(auth.CookieName, token, 24*60*60, "/", "", false, true)
	return true
}
