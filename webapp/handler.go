package webapp

import (
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// Resources are the paths the go-app handler serves itself
var Resources = []string{
	"/wasm_exec.js",
	"/app.js",
	"/app-worker.js",
	"/app.css",
	"/manifest.webmanifest",
}

// Routes registers the client-side routes
func Routes() {
	app.Route("/", func() app.Composer { return &App{} })
}

// Handler returns an HTTP handler for the web app
func Handler() http.Handler {
	Routes()
	app.RunWhenOnBrowser()

	// app.wasm is served from /web/app.wasm by Echo
	return &app.Handler{
		Name:        "PDF Viewer Panel",
		Title:       "PDF Viewer Panel",
		Description: "PDF panel with zoom and pan capabilities",
		Styles: []string{
			StylesPath,
		},
		Scripts: []string{
			"/config.js", // Load backend API configuration
		},
		RawHeaders: []string{
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
		},
	}
}
