package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/pdfpanel/config"
	engine "github.com/drummonds/pdfpanel/engine"
	"github.com/drummonds/pdfpanel/pdfengine"
	"github.com/drummonds/pdfpanel/source"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	engine.Logger = Logger
	pdfengine.Logger = Logger
	source.Logger = Logger
}

// @title pdfpanel Backend API
// @version 1.0
// @description Opens PDF documents and rasterizes their pages for the viewer panel

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @tag.name Documents
// @tag.description Document handles and page rendering

// @tag.name Health
// @tag.description Service health check

func main() {
	// Parse command-line flags
	port := flag.String("port", "8000", "Port to run backend server on")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("pdfpanel Backend API Server")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• API and documents only (no frontend)")
	fmt.Println("• All endpoints under /api/*")
	fmt.Println("• CORS enabled for frontend access")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = engine.APIErrorHandler(e)

	serverHandler, shutdown, err := engine.NewServerHandler(e, serverConfig)
	if err != nil {
		Logger.Error("Unable to set up document engine", "error", err)
		os.Exit(1)
	}
	defer shutdown()

	Logger.Info("Initializing backend services...")
	scheduler := serverHandler.InitializeSchedules() //initialize all the cron jobs
	defer scheduler.Stop()
	serverHandler.StartupChecks() //Run all the sanity checks
	Logger.Info("Backend services initialized")

	// CORS configuration - allow frontend from different origin
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // In production, specify your frontend URL
		AllowMethods: []string{http.MethodGet, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	// Documents in the public directory, the frontend proxies them here
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{Root: serverConfig.PublicPath}))

	Logger.Info("Setting up API routes...")
	serverHandler.AddRoutes()

	// Override port if specified via flag
	if *port != "8000" {
		serverConfig.ListenAddrPort = *port
	}

	// Start server
	addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
	Logger.Info("Starting Backend API Server", "address", addr)
	fmt.Printf("\nBackend API Server running on %s\n", addr)
	fmt.Printf("API endpoints available at http://%s/api/\n", addr)
	fmt.Printf("Health check: http://%s/api/health\n\n", addr)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
