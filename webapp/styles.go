package webapp

import (
	_ "embed"
)

// StylesPath is where the servers expose the panel stylesheet
const StylesPath = "/webapp/webapp.css"

//go:embed webapp.css
var styles []byte

// Styles returns the panel stylesheet
func Styles() []byte {
	return styles
}
