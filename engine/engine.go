package engine

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/drummonds/pdfpanel/config"
	"github.com/drummonds/pdfpanel/pdfengine"
	"github.com/drummonds/pdfpanel/source"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	Registry     *Registry
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
}

// NewServerHandler wires the document source, the rasterizer and the
// registry described by serverConfig. The returned function shuts them down.
func NewServerHandler(e *echo.Echo, serverConfig config.ServerConfig) (*ServerHandler, func(), error) {
	fetcher := source.NewFetcher(serverConfig.PublicPath)
	fetcher.AllowRemote = serverConfig.AllowRemotePDF
	fetcher.MaxBytes = serverConfig.MaxPDFBytes
	fetcher.Client = &http.Client{Timeout: serverConfig.FetchTimeout}

	renderer, err := pdfengine.New(serverConfig.Renderer, fetcher)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s renderer: %w", serverConfig.Renderer, err)
	}
	Logger.Info("PDF renderer ready", "renderer", serverConfig.Renderer)

	registry := NewRegistry(renderer)
	shutdown := func() {
		registry.Close()
		renderer.Close()
	}
	return &ServerHandler{Registry: registry, Echo: e, ServerConfig: serverConfig}, shutdown, nil
}

// AddRoutes registers the document API on the handler's echo instance
func (serverHandler *ServerHandler) AddRoutes() {
	e := serverHandler.Echo
	e.GET("/api/health", serverHandler.Health)
	e.GET("/api/document", serverHandler.OpenDocument)
	e.DELETE("/api/document/:id", serverHandler.CloseDocument)
	e.GET("/api/document/:id/page/:page", serverHandler.RenderPage)
	e.GET("/api/document/:id/page/:page/thumbnail", serverHandler.RenderThumbnail)
}

// APIErrorHandler answers unknown API routes with JSON
func APIErrorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code := 0
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		if code == 404 {
			c.JSON(404, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}

		e.DefaultHTTPErrorHandler(err, c)
	}
}
