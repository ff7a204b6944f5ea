// Package overlay models the pan/zoom transform layered over the rendered
// page. It is purely visual and never triggers a re-render.
package overlay

import (
	"fmt"
	"math"
)

// Config mirrors the options of the wrapper around the canvas.
type Config struct {
	MinScale     float64
	MaxScale     float64
	InitialScale float64
	// WheelStep is the zoom step of one wheel notch.
	WheelStep float64
	// ButtonStep is the zoom step of ZoomIn and ZoomOut.
	ButtonStep float64
	// LimitToBounds keeps the content inside the wrapper when panning.
	LimitToBounds bool
	// DoubleClick enables zoom on double click.
	DoubleClick bool
	// CenterOnInit centres the content in the wrapper on the first layout.
	CenterOnInit bool
}

// DefaultConfig is the configuration used by the panel.
func DefaultConfig() Config {
	return Config{
		MinScale:      0.5,
		MaxScale:      3.0,
		InitialScale:  1.0,
		WheelStep:     0.1,
		ButtonStep:    0.5,
		LimitToBounds: false,
		DoubleClick:   false,
		CenterOnInit:  true,
	}
}

// Transform is the current scale and translation of the content.
type Transform struct {
	cfg Config

	Scale float64
	X, Y  float64

	wrapperW, wrapperH float64
	contentW, contentH float64

	panning        bool
	panX, panY     float64
	startX, startY float64
}

// New returns a transform at its initial state.
func New(cfg Config) *Transform {
	t := &Transform{cfg: cfg}
	t.Reset()
	return t
}

// Config returns the transform's configuration.
func (t *Transform) Config() Config {
	return t.cfg
}

// Layout records the wrapper and content sizes, centring the content when
// configured to. Called whenever the canvas is resized.
func (t *Transform) Layout(wrapperW, wrapperH, contentW, contentH float64) {
	first := t.contentW == 0 && t.contentH == 0
	t.wrapperW, t.wrapperH = wrapperW, wrapperH
	t.contentW, t.contentH = contentW, contentH
	if first && t.cfg.CenterOnInit {
		t.center()
	}
	t.bound()
}

// ZoomIn zooms by one button step around the wrapper centre.
func (t *Transform) ZoomIn() {
	t.zoomAround(t.Scale*math.Exp(t.cfg.ButtonStep), t.wrapperW/2, t.wrapperH/2)
}

// ZoomOut zooms out by one button step around the wrapper centre.
func (t *Transform) ZoomOut() {
	t.zoomAround(t.Scale*math.Exp(-t.cfg.ButtonStep), t.wrapperW/2, t.wrapperH/2)
}

// Wheel applies a wheel event at wrapper coordinates (x, y).
// A negative deltaY zooms in.
func (t *Transform) Wheel(deltaY, x, y float64) {
	switch {
	case deltaY < 0:
		t.zoomAround(t.Scale*math.Exp(t.cfg.WheelStep), x, y)
	case deltaY > 0:
		t.zoomAround(t.Scale*math.Exp(-t.cfg.WheelStep), x, y)
	}
}

// DoubleClick zooms in at (x, y) when enabled.
func (t *Transform) DoubleClick(x, y float64) {
	if !t.cfg.DoubleClick {
		return
	}
	t.zoomAround(t.Scale*math.Exp(t.cfg.ButtonStep), x, y)
}

// Reset restores the initial scale and position.
func (t *Transform) Reset() {
	t.Scale = t.clamp(t.cfg.InitialScale)
	t.X, t.Y = 0, 0
	t.panning = false
	if t.cfg.CenterOnInit {
		t.center()
	}
}

// StartPan begins a drag at pointer position (x, y).
func (t *Transform) StartPan(x, y float64) {
	t.panning = true
	t.panX, t.panY = x, y
	t.startX, t.startY = t.X, t.Y
}

// MoveTo continues a drag. It is ignored when no drag is active.
func (t *Transform) MoveTo(x, y float64) {
	if !t.panning {
		return
	}
	t.X = t.startX + (x - t.panX)
	t.Y = t.startY + (y - t.panY)
	t.bound()
}

// EndPan finishes a drag.
func (t *Transform) EndPan() {
	t.panning = false
}

// Panning reports whether a drag is active.
func (t *Transform) Panning() bool {
	return t.panning
}

// PanBy translates the content.
func (t *Transform) PanBy(dx, dy float64) {
	t.X += dx
	t.Y += dy
	t.bound()
}

// CSS returns the value of the content's CSS transform property.
func (t *Transform) CSS() string {
	return fmt.Sprintf("translate(%.2fpx, %.2fpx) scale(%.4f)", t.X, t.Y, t.Scale)
}

// Percent is the overlay zoom readout.
func (t *Transform) Percent() int {
	return int(math.Round(t.Scale * 100))
}

func (t *Transform) zoomAround(scale, x, y float64) {
	scale = t.clamp(scale)
	if scale == t.Scale {
		return
	}
	// keep the content point under (x, y) fixed
	ratio := scale / t.Scale
	t.X = x - (x-t.X)*ratio
	t.Y = y - (y-t.Y)*ratio
	t.Scale = scale
	t.bound()
}

func (t *Transform) clamp(scale float64) float64 {
	return math.Min(math.Max(scale, t.cfg.MinScale), t.cfg.MaxScale)
}

func (t *Transform) center() {
	t.X = (t.wrapperW - t.contentW*t.Scale) / 2
	t.Y = (t.wrapperH - t.contentH*t.Scale) / 2
}

func (t *Transform) bound() {
	if !t.cfg.LimitToBounds {
		return
	}
	w, h := t.contentW*t.Scale, t.contentH*t.Scale
	t.X = boundAxis(t.X, t.wrapperW, w)
	t.Y = boundAxis(t.Y, t.wrapperH, h)
}

func boundAxis(pos, wrapper, content float64) float64 {
	if content <= wrapper {
		return math.Min(math.Max(pos, 0), wrapper-content)
	}
	return math.Min(math.Max(pos, wrapper-content), 0)
}

// Controls is the imperative capability handed to the panel's overlay
// buttons.
type Controls struct {
	ZoomIn         func()
	ZoomOut        func()
	ResetTransform func()
}

// Controls returns the transform's imperative controls.
func (t *Transform) Controls() Controls {
	return Controls{
		ZoomIn:         t.ZoomIn,
		ZoomOut:        t.ZoomOut,
		ResetTransform: t.Reset,
	}
}
