package viewer

import (
	"fmt"
	"math"
)

// Zoom limits of the discrete, re-rendering zoom.
const (
	DefaultScale = 1.5
	MinScale     = 0.5
	MaxScale     = 3.0
	ScaleStep    = 0.2
)

// State is a snapshot of what the panel displays.
type State struct {
	Locator     string
	Title       string
	CurrentPage int
	NumPages    int
	Scale       float64
	Loading     bool
	Error       string
}

// CanGoPrevious reports whether the Previous control is enabled.
func (s State) CanGoPrevious() bool {
	return s.CurrentPage > 1
}

// CanGoNext reports whether the Next control is enabled.
func (s State) CanGoNext() bool {
	return s.CurrentPage < s.NumPages
}

// PageLabel is the page indicator text.
func (s State) PageLabel() string {
	return fmt.Sprintf("Page %d of %d", s.CurrentPage, s.NumPages)
}

// ZoomPercent is the zoom readout, e.g. 150 for a scale of 1.5.
func (s State) ZoomPercent() int {
	return int(math.Round(s.Scale * 100))
}

func zoomIn(scale float64) float64 {
	return math.Min(scale+ScaleStep, MaxScale)
}

func zoomOut(scale float64) float64 {
	return math.Max(scale-ScaleStep, MinScale)
}
