package webapp

import (
	"testing"
)

// TestNotFoundPageRender tests that the component can be rendered
func TestNotFoundPageRender(t *testing.T) {
	page := &NotFoundPage{}

	ui := page.Render()
	if ui == nil {
		t.Error("NotFoundPage Render should not return nil")
	}
}
