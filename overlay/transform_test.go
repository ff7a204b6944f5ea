package overlay

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.5, cfg.MinScale)
	assert.Equal(t, 3.0, cfg.MaxScale)
	assert.Equal(t, 1.0, cfg.InitialScale)
	assert.Equal(t, 0.1, cfg.WheelStep)
	assert.False(t, cfg.LimitToBounds)
	assert.False(t, cfg.DoubleClick)
	assert.True(t, cfg.CenterOnInit)
}

func TestZoomButtonsClamp(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Layout(800, 600, 400, 300)

	for i := 0; i < 10; i++ {
		tr.ZoomIn()
	}
	assert.Equal(t, 3.0, tr.Scale)
	assert.Equal(t, 300, tr.Percent())

	for i := 0; i < 10; i++ {
		tr.ZoomOut()
	}
	assert.Equal(t, 0.5, tr.Scale)
}

func TestWheelStep(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Wheel(-1, 0, 0)
	assert.InDelta(t, math.Exp(0.1), tr.Scale, 1e-9)
	tr.Wheel(1, 0, 0)
	assert.InDelta(t, 1.0, tr.Scale, 1e-9)
	tr.Wheel(0, 0, 0)
	assert.InDelta(t, 1.0, tr.Scale, 1e-9)
}

func TestZoomKeepsPointFixed(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Layout(800, 600, 400, 300)
	x, y := 300.0, 200.0
	cx := (x - tr.X) / tr.Scale
	cy := (y - tr.Y) / tr.Scale

	tr.Wheel(-1, x, y)

	assert.InDelta(t, x, tr.X+cx*tr.Scale, 1e-9)
	assert.InDelta(t, y, tr.Y+cy*tr.Scale, 1e-9)
}

func TestCenterOnInitAndReset(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Layout(800, 600, 400, 300)
	assert.Equal(t, 200.0, tr.X)
	assert.Equal(t, 150.0, tr.Y)

	tr.ZoomIn()
	tr.PanBy(-5000, 4000)
	tr.Reset()
	assert.Equal(t, 1.0, tr.Scale)
	assert.Equal(t, 200.0, tr.X)
	assert.Equal(t, 150.0, tr.Y)
	assert.Equal(t, "translate(200.00px, 150.00px) scale(1.0000)", tr.CSS())
}

func TestPanIsUnbounded(t *testing.T) {
	tr := New(DefaultConfig())
	tr.Layout(100, 100, 50, 50)
	tr.StartPan(10, 10)
	assert.True(t, tr.Panning())
	tr.MoveTo(-1000, 2010)
	assert.Equal(t, 25.0-1010, tr.X)
	assert.Equal(t, 25.0+2000, tr.Y)
	tr.EndPan()
	tr.MoveTo(0, 0)
	assert.Equal(t, 25.0-1010, tr.X, "moves after EndPan are ignored")
}

func TestPanBoundedWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LimitToBounds = true
	cfg.CenterOnInit = false
	tr := New(cfg)
	tr.Layout(100, 100, 50, 50)
	tr.PanBy(500, -500)
	assert.Equal(t, 50.0, tr.X)
	assert.Equal(t, 0.0, tr.Y)
}

func TestDoubleClickDisabled(t *testing.T) {
	tr := New(DefaultConfig())
	tr.DoubleClick(10, 10)
	assert.Equal(t, 1.0, tr.Scale)

	cfg := DefaultConfig()
	cfg.DoubleClick = true
	tr = New(cfg)
	tr.DoubleClick(10, 10)
	assert.Greater(t, tr.Scale, 1.0)
}

func TestControls(t *testing.T) {
	tr := New(DefaultConfig())
	c := tr.Controls()
	c.ZoomIn()
	assert.Greater(t, tr.Scale, 1.0)
	c.ResetTransform()
	assert.Equal(t, 1.0, tr.Scale)
	c.ZoomOut()
	assert.Less(t, tr.Scale, 1.0)
}
