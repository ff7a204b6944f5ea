package main

import (
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
	"github.com/drummonds/pdfpanel/remote"
	"github.com/drummonds/pdfpanel/source"
	"github.com/drummonds/pdfpanel/viewer"
	"github.com/drummonds/pdfpanel/webapp"
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
	remote.Logger = Logger
	viewer.Logger = Logger
}

// newServer builds the combined API and UI server
func newServer(serverConfig config.ServerConfig) (*echo.Echo, func(), error) {
	e := echo.New()
	e.HideBanner = true
	Logger.Info("Echo created")

	// Custom 404 handler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == http.StatusNotFound {
			if strings.HasPrefix(c.Request().URL.Path, "/api/") {
				// Return JSON for API endpoints
				c.JSON(http.StatusNotFound, map[string]string{
					"error":   "Not Found",
					"message": "The requested API endpoint does not exist",
					"path":    c.Request().URL.Path,
				})
				return
			}

			c.HTML(http.StatusNotFound, `<!DOCTYPE html>
<html>
<head><title>404 - Not Found</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
	<h1>404 - Page Not Found</h1>
	<a href="/" style="color: #3498db; text-decoration: none; font-size: 18px;">Back to the viewer</a>
</body>
</html>`)
			return
		}

		// For other errors, use default handler
		e.DefaultHTTPErrorHandler(err, c)
	}

	serverHandler, shutdown, err := engine.NewServerHandler(e, serverConfig)
	if err != nil {
		return nil, nil, err
	}
	Logger.Info("About to initialize schedules")
	scheduler := serverHandler.InitializeSchedules() //initialize all the cron jobs
	Logger.Info("Schedules initialized, about to run startup checks")
	serverHandler.StartupChecks() //Run all the sanity checks
	Logger.Info("Startup checks complete")
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))

	// Documents are served from the public directory, anything else falls through
	e.Use(middleware.StaticWithConfig(middleware.StaticConfig{Root: serverConfig.PublicPath}))

	serverHandler.AddRoutes()

	Logger.Info("Setting up go-app WASM UI")
	appHandler := webapp.Handler()

	// Register go-app specific resources
	for _, resource := range webapp.Resources {
		e.GET(resource, echo.WrapHandler(appHandler))
	}
	e.Static("/web", "web") // app.wasm build output

	e.GET(webapp.StylesPath, func(c echo.Context) error {
		return c.Blob(http.StatusOK, "text/css", webapp.Styles())
	})

	// Same-origin API, only the document to open is injected
	e.GET("/config.js", func(c echo.Context) error {
		configJS := fmt.Sprintf(`
// pdfpanel Frontend Configuration
window.pdfpanelConfig = {
    apiURL: %q,
    pdfURL: %q
};
`, serverConfig.ServerAPIURL, serverConfig.PDFURL)
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, configJS)
	})

	// Serve go-app handler for all other routes (must be last)
	// The WASM app handles its own client-side routing and 404s via NotFoundPage component
	e.Any("/*", echo.WrapHandler(appHandler))

	stop := func() {
		scheduler.Stop()
		shutdown()
	}
	return e, stop, nil
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	e, stop, err := newServer(serverConfig)
	if err != nil {
		Logger.Error("Unable to set up server", "error", err)
		os.Exit(1)
	}
	defer stop()

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}

	Logger.Info("Starting HTTP server")

	// Try to start server with automatic port increment if port is in use
	maxRetries := 5
	startPort := serverConfig.ListenAddrPort
	var startErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)

		startErr = e.Start(addr)

		// Check if error is "address already in use"
		if startErr != nil && isAddressInUse(startErr) {
			Logger.Warn("Port already in use, trying next port",
				"port", serverConfig.ListenAddrPort,
				"attempt", attempt+1,
				"max_attempts", maxRetries)

			// Increment port for next attempt
			portNum := 0
			fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
			portNum++
			serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum)

			if attempt == maxRetries-1 {
				Logger.Error("Failed to find available port after maximum retries",
					"start_port", startPort,
					"end_port", serverConfig.ListenAddrPort,
					"max_retries", maxRetries)
				os.Exit(1)
			}
		} else if startErr != nil && startErr != http.ErrServerClosed {
			// Some other error occurred
			Logger.Error("Failed to start server", "error", startErr)
			os.Exit(1)
		} else {
			break
		}
	}

	if serverConfig.ListenAddrPort != startPort {
		Logger.Warn("Server started on alternative port due to conflicts",
			"requested_port", startPort,
			"actual_port", serverConfig.ListenAddrPort)
	}
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "address already in use")
}
