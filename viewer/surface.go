package viewer

import (
	"errors"
	"image"
	"image/draw"
	"sync"
)

// Surface is the 2D raster the controller draws a page onto.
// Its methods are called with the viewer lock held and must not call back
// into the Viewer; see WithResizeListener.
type Surface interface {
	// Resize sets the pixel size of the surface.
	Resize(width, height int) error
	// Clear wipes all prior content.
	Clear()
	// Draw paints img at the origin.
	Draw(img image.Image) error
}

// ImageSurface is an in-memory Surface backed by an RGBA image.
type ImageSurface struct {
	mu  sync.Mutex
	img *image.RGBA
}

// NewImageSurface returns an empty surface.
func NewImageSurface() *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, 0, 0))}
}

func (s *ImageSurface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.New("surface: invalid size")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.img.Bounds().Dx() == width && s.img.Bounds().Dy() == height {
		return nil
	}
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

func (s *ImageSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (s *ImageSurface) Draw(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	draw.Draw(s.img, s.img.Bounds(), img, img.Bounds().Min, draw.Src)
	return nil
}

// Size returns the current pixel size.
func (s *ImageSurface) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img.Bounds().Dx(), s.img.Bounds().Dy()
}

// Image returns a copy of the current content.
func (s *ImageSurface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}
