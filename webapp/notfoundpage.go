package webapp

import (
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// NotFoundPage displays a 404 error message
type NotFoundPage struct {
	app.Compo
}

// Render renders the 404 page
func (p *NotFoundPage) Render() app.UI {
	return app.Div().
		Class("not-found-page").
		Body(
			app.H2().
				Class("not-found-title").
				Text("404 - Page Not Found"),
			app.P().
				Class("not-found-message").
				Text("There is no document panel at this address."),
			app.A().
				Href("/").
				Class("not-found-home-link").
				Text("Back to the viewer"),
		)
}
