package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// Renderer kinds accepted in PDF_RENDERER
const (
	RendererPDFium = "pdfium"
	RendererFitz   = "fitz"
)

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP      string
	ListenAddrPort    string
	PublicPath        string // absolute path of the directory served at /
	Renderer          string
	AllowRemotePDF    bool
	FetchTimeout      time.Duration
	MaxPDFBytes       int64
	HandleIdleMinutes int
	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	ServerAPIURL string
	PDFURL       string // locator the panel opens on start
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	serverConfigLive, logger := setupServerConfig()

	fmt.Println("\n========================================")
	fmt.Println("   pdfpanel - PDF Viewer Panel")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", serverConfigLive.ListenAddrIP, serverConfigLive.ListenAddrPort)
	if serverConfigLive.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Detailed logs: %s\n", getEnv("LOG_FILE", "pdfpanel.log"))

	return serverConfigLive, logger
}

// SetupShell loads the same configuration as the server without the banner
func SetupShell() (ServerConfig, *slog.Logger) {
	return setupServerConfig()
}

func setupServerConfig() (ServerConfig, *slog.Logger) {
	serverConfigLive := ServerConfig{}

	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	// Server configuration
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Document sources
	publicDir := filepath.ToSlash(getEnv("PUBLIC_PATH", "public"))
	publicDirAbs, err := filepath.Abs(publicDir)
	if err != nil {
		logger.Error("Failed creating absolute path for public directory", "error", err)
		publicDirAbs = publicDir
	}
	serverConfigLive.PublicPath = publicDirAbs
	serverConfigLive.AllowRemotePDF = getEnvBool("ALLOW_REMOTE_PDF", false)
	serverConfigLive.FetchTimeout = time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second
	serverConfigLive.MaxPDFBytes = int64(getEnvInt("MAX_PDF_MB", 100)) << 20

	// Rendering
	serverConfigLive.Renderer = getEnv("PDF_RENDERER", RendererPDFium)
	if err := checkRenderer(serverConfigLive.Renderer, logger); err != nil {
		serverConfigLive.Renderer = RendererPDFium
	}
	serverConfigLive.HandleIdleMinutes = getEnvInt("HANDLE_IDLE_MINUTES", 10)

	logger.Info("Document configuration loaded",
		"publicPath", serverConfigLive.PublicPath,
		"renderer", serverConfigLive.Renderer,
		"allowRemote", serverConfigLive.AllowRemotePDF)

	// Frontend configuration
	serverConfigLive.FrontEndConfig = loadFrontEnd("")

	return serverConfigLive, logger
}

// SetupFrontend loads configuration for frontend-only server
func SetupFrontend() (FrontEndConfig, *slog.Logger) {
	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")
	_ = godotenv.Load("frontend.env")

	logger := setupLogging()
	Logger = logger

	frontendConfig := loadFrontEnd("http://localhost:8000")

	logger.Info("Frontend configuration loaded",
		"apiURL", frontendConfig.ServerAPIURL,
		"pdfURL", frontendConfig.PDFURL)

	return frontendConfig, logger
}

func loadFrontEnd(defaultAPIURL string) FrontEndConfig {
	return FrontEndConfig{
		ServerAPIURL: getEnv("SERVER_API_URL", defaultAPIURL),
		PDFURL:       getEnv("PDF_URL", "/example.pdf"),
	}
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "debug")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelDebug
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "file")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pdfpanel.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}

// checkRenderer verifies that the renderer kind is one we can build
func checkRenderer(kind string, logger *slog.Logger) error {
	switch kind {
	case RendererPDFium, RendererFitz:
		logger.Debug("PDF renderer selected", "renderer", kind)
		return nil
	}
	logger.Error("Unknown PDF renderer, falling back to pdfium", "renderer", kind)
	return fmt.Errorf("unknown PDF renderer %q", kind)
}
