package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// App is the root component of the application
type App struct {
	app.Compo
}

// Render renders the app
func (a *App) Render() app.UI {
	return app.Div().
		Class("app-container").
		Body(
			app.Header().Body(
				app.H1().Text("PDF Viewer Panel"),
			),
			app.Main().Body(
				a.renderPage(),
			),
			app.Footer().Body(
				app.P().Text("PDF panel with zoom and pan capabilities."),
			),
		)
}

// renderPage renders the current page based on the route
func (a *App) renderPage() app.UI {
	return routeComponent(app.Window().URL().Path)
}

func routeComponent(path string) app.UI {
	switch path {
	case "/", "":
		return &PDFViewer{PDFURL: GetPDFURL()}
	default:
		return &NotFoundPage{}
	}
}
