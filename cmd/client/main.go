// Cliente de terminal de FUGAZ: muestra el feed efímero, reacciona y
// comenta contra el servidor por la API JSON.

package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fugaz/internal/client"
	"fugaz/internal/ui"
)

func main() {
	godotenv.Load()

	serverURL := os.Getenv("FUGAZ_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	logFile := os.Getenv("FUGAZ_LOG_FILE")
	if logFile == "" {
		logFile = "fugaz-client.log"
	}

	// El terminal es de la TUI: el logger escribe a archivo.
	logger := initLogger(logFile)
	defer logger.Sync()

	api, err := client.New(serverURL, logger)
	if err != nil {
		log.Fatal("Error creando el cliente:", err)
	}

	logger.Info("⚡ Cliente FUGAZ iniciado", zap.String("server", serverURL))

	program := tea.NewProgram(ui.NewModel(api, logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initLogger(path string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.StacktraceKey = ""

	logger, err := config.Build()
	if err != nil {
		log.Fatal("Error inicializando logger:", err)
	}

	return logger
}
