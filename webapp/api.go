package webapp

import (
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// DefaultPDFURL is opened when no document is configured
const DefaultPDFURL = "/example.pdf"

// configValue reads a field of window.pdfpanelConfig, set by /config.js.
// Returns "" during server-side rendering or when the field is missing.
func configValue(key string) string {
	if !app.IsClient {
		return ""
	}
	config := app.Window().Get("pdfpanelConfig")
	if !config.Truthy() {
		return ""
	}
	value := config.Get(key)
	if !value.Truthy() {
		return ""
	}
	return value.String()
}

// GetAPIBaseURL returns the configured API base URL
// It reads from window.pdfpanelConfig.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	return strings.TrimSuffix(configValue("apiURL"), "/")
}

// GetPDFURL returns the document the panel opens on start
func GetPDFURL() string {
	if u := configValue("pdfURL"); u != "" {
		return u
	}
	return DefaultPDFURL
}
