package viewer

import (
	"context"
	"image"
	"math"
)

// Engine opens documents from a source locator. Implementations live in
// pdfengine (native rasterizers) and remote (HTTP backend).
type Engine interface {
	Open(ctx context.Context, locator string) (Document, error)
}

// Document is a live handle to a parsed PDF document.
type Document interface {
	// NumPages is fixed once the document is open and is at least 1.
	NumPages() int
	// Page fetches a page by its 1-indexed number.
	Page(ctx context.Context, number int) (Page, error)
	// Destroy releases the handle. Calling it twice is a no-op.
	Destroy() error
}

// Page is a single page of a Document.
type Page interface {
	Number() int
	// Size returns the intrinsic page size in points (1/72 inch).
	Size() (width, height float64)
	// Render rasterizes the page at exactly vp.Width x vp.Height pixels.
	// A cancelled ctx must make Render return an error satisfying IsCancelled
	// as soon as the engine is able to notice it.
	Render(ctx context.Context, vp Viewport) (image.Image, error)
}

// Describer is implemented by documents able to report metadata.
type Describer interface {
	Info() DocumentInfo
}

// DocumentInfo is optional metadata about an open document.
type DocumentInfo struct {
	Title  string     `json:"title,omitempty"`
	Author string     `json:"author,omitempty"`
	Pages  []PageSize `json:"pages,omitempty"`
}

// PageSize is a page's size in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the pixel rectangle a page occupies at a given scale.
type Viewport struct {
	Scale  float64
	Width  int
	Height int
}

// ViewportFor computes the viewport of a page of the given size in points.
// At scale 1 one point maps to one pixel.
func ViewportFor(width, height, scale float64) Viewport {
	return Viewport{
		Scale:  scale,
		Width:  scaledDimension(width, scale),
		Height: scaledDimension(height, scale),
	}
}

func scaledDimension(points, scale float64) int {
	px := int(math.Floor(points * scale))
	if px < 1 {
		return 1
	}
	return px
}
