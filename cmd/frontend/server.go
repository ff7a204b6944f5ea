package main

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/pdfpanel/config"
	"github.com/drummonds/pdfpanel/webapp"
)

// proxied reports whether a request belongs to the backend: the API and
// the documents in its public directory.
func proxied(p string) bool {
	return strings.HasPrefix(p, "/api/") || strings.EqualFold(path.Ext(p), ".pdf")
}

// newFrontend builds the UI server, forwarding API and document requests
// to the backend at frontendConfig.ServerAPIURL
func newFrontend(frontendConfig config.FrontEndConfig) (*echo.Echo, error) {
	backendURL, err := url.Parse(frontendConfig.ServerAPIURL)
	if err != nil || backendURL.Scheme == "" || backendURL.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", frontendConfig.ServerAPIURL)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.CORS())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))
	e.Use(middleware.ProxyWithConfig(middleware.ProxyConfig{
		Skipper: func(c echo.Context) bool {
			return !proxied(c.Request().URL.Path)
		},
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{
			{URL: backendURL},
		}),
	}))

	Logger.Info("Setting up WASM application...")
	appHandler := webapp.Handler()
	for _, resource := range webapp.Resources {
		e.GET(resource, echo.WrapHandler(appHandler))
	}
	e.Static("/web", "web") // app.wasm build output
	e.GET(webapp.StylesPath, func(c echo.Context) error {
		return c.Blob(http.StatusOK, "text/css", webapp.Styles())
	})

	// The API is same-origin through the proxy, only the document is injected
	e.GET("/config.js", func(c echo.Context) error {
		configJS := fmt.Sprintf(`
// pdfpanel Frontend Configuration
window.pdfpanelConfig = {
    apiURL: "",
    pdfURL: %q
};
`, frontendConfig.PDFURL)
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, configJS)
	})

	// Serve go-app handler for all other routes (must be last)
	e.Any("/*", echo.WrapHandler(appHandler))
	return e, nil
}
