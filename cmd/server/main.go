// FUGAZ - Red social efímera
// ==========================
//
// CARACTERÍSTICAS:
// - Posts que expiran a los 30 minutos
// - Reacciones con emoji y comentarios
// - Sesiones JWT en cookie HttpOnly
// - API REST en JSON para el cliente de terminal
// - Todo en memoria: al bajar el proceso, se va el feed

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fugaz/internal/auth"
	"fugaz/internal/server"
)

func main() {
	// Configurar logger estructurado
	logger := initLogger()
	defer logger.Sync()

	logger.Info("⚡ Iniciando FUGAZ - feed efímero")

	config := loadConfig(logger)

	store := server.NewStore(config.PostLifetime)
	authService := auth.NewService(config.JWTSecret, config.JWTExpiration)

	// Configurar Gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS para clientes externos
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(securityMiddleware())

	api := server.NewAPI(store, authService, logger)
	api.SetupRoutes(router)

	srv := &http.Server{
		Addr:         config.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Iniciar servidor en goroutine
	go func() {
		logger.Info("🌐 Servidor escuchando", zap.String("address", config.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("❌ Error iniciando servidor", zap.Error(err))
		}
	}()

	// Esperar señal de interrupción
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Cerrando servidor...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("❌ Error cerrando servidor", zap.Error(err))
	}

	logger.Info("✅ Servidor cerrado exitosamente")
}

type Config struct {
	Addr          string
	JWTSecret     string
	JWTExpiration time.Duration
	PostLifetime  time.Duration
}

func loadConfig(logger *zap.Logger) Config {
	// .env es opcional; las variables de entorno mandan.
	if err := godotenv.Load(); err == nil {
		logger.Info("📄 Configuración cargada desde .env")
	}

	config := Config{
		Addr:          ":8080",
		JWTSecret:     "cambiar-en-produccion",
		JWTExpiration: 24 * time.Hour,
		PostLifetime:  server.DefaultPostLifetime,
	}

	if addr := os.Getenv("FUGAZ_ADDR"); addr != "" {
		config.Addr = addr
	}
	if secret := os.Getenv("FUGAZ_JWT_SECRET"); secret != "" {
		config.JWTSecret = secret
	} else {
		logger.Warn("⚠️ FUGAZ_JWT_SECRET sin definir, usando el secreto por defecto")
	}
	if minutes := os.Getenv("FUGAZ_POST_LIFETIME_MINUTES"); minutes != "" {
		n, err := strconv.Atoi(minutes)
		if err != nil || n <= 0 {
			logger.Warn("⚠️ FUGAZ_POST_LIFETIME_MINUTES inválido", zap.String("valor", minutes))
		} else {
			config.PostLifetime = time.Duration(n) * time.Minute
		}
	}

	return config
}

func initLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.StacktraceKey = ""

	logger, err := config.Build()
	if err != nil {
		log.Fatal("Error inicializando logger:", err)
	}

	return logger
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("📨 Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func securityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Headers de seguridad
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")

		// Prevenir cache de contenido sensible
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
		c.Header("Pragma", "no-cache")

		c.Next()
	}
}
