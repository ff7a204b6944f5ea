package webapp

import (
	"errors"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// CanvasSurface draws pages onto an HTML canvas element.
// The canvas may come and go with re-renders; the last drawn page is kept
// and repainted when a new element is attached.
type CanvasSurface struct {
	mu            sync.Mutex
	canvas        app.Value
	width, height int
	last          *image.NRGBA
}

// NewCanvasSurface returns a detached surface
func NewCanvasSurface() *CanvasSurface {
	return &CanvasSurface{}
}

func (s *CanvasSurface) attached() bool {
	return s.canvas != nil && s.canvas.Truthy()
}

// Attach binds the surface to a canvas element and repaints it
func (s *CanvasSurface) Attach(canvas app.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas = canvas
	if !s.attached() || s.width == 0 {
		return
	}
	s.canvas.Set("width", s.width)
	s.canvas.Set("height", s.height)
	if s.last != nil {
		s.paintLocked()
	}
}

// Detach forgets the canvas element
func (s *CanvasSurface) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas = nil
}

// Size reports the current bitmap size
func (s *CanvasSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *CanvasSurface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("canvas: empty size")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.last = nil
	if s.attached() {
		// Assigning the size also wipes the bitmap.
		s.canvas.Set("width", width)
		s.canvas.Set("height", height)
	}
	return nil
}

func (s *CanvasSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
	if s.attached() {
		s.context2D().Call("clearRect", 0, 0, s.width, s.height)
	}
}

func (s *CanvasSurface) Draw(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return errors.New("canvas: draw before resize")
	}
	// ImageData is non-premultiplied RGBA anchored at the origin.
	s.last = imaging.Clone(img)
	if s.attached() {
		s.paintLocked()
	}
	return nil
}

func (s *CanvasSurface) context2D() app.Value {
	return s.canvas.Call("getContext", "2d")
}

func (s *CanvasSurface) paintLocked() {
	b := s.last.Bounds()
	ctx := s.context2D()
	data := ctx.Call("createImageData", b.Dx(), b.Dy())
	app.CopyBytesToJS(data.Get("data"), s.last.Pix)
	ctx.Call("putImageData", data, 0, 0)
}
