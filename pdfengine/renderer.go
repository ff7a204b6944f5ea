// Package pdfengine adapts native PDF rasterizers to viewer.Engine.
package pdfengine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/drummonds/pdfpanel/viewer"
)

// Logger is injected by main
var Logger = slog.Default()

// Renderer kinds understood by New
const (
	KindPDFium = "pdfium"
	KindFitz   = "fitz"
)

var ErrUnknownKind = errors.New("unknown renderer kind")

// Fetcher supplies the raw bytes behind a locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// Engine is a viewer.Engine backed by a native library that must be
// shut down when no longer needed.
type Engine interface {
	viewer.Engine
	Close() error
}

// New creates an engine of the given kind. An empty kind selects PDFium.
func New(kind string, fetcher Fetcher) (Engine, error) {
	switch kind {
	case "", KindPDFium:
		return NewPDFiumEngine(fetcher)
	case KindFitz:
		return NewFitzEngine(fetcher), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// rasterizer is the per-document native handle. Calls are serialised by
// the owning document.
type rasterizer interface {
	pageSize(index int) (width, height float64, err error)
	render(index int, vp viewer.Viewport) (image.Image, error)
	close() error
}

// document implements viewer.Document over a rasterizer.
type document struct {
	locator string
	info    viewer.DocumentInfo
	pages   int

	mu        sync.Mutex
	raster    rasterizer
	destroyed bool
}

func newDocument(locator string, info viewer.DocumentInfo, pages int, r rasterizer) *document {
	return &document{locator: locator, info: info, pages: pages, raster: r}
}

func (d *document) NumPages() int { return d.pages }

func (d *document) Info() viewer.DocumentInfo { return d.info }

func (d *document) Page(ctx context.Context, number int) (viewer.Page, error) {
	if number < 1 || number > d.pages {
		return nil, fmt.Errorf("%w: %d of %d", viewer.ErrPageOutOfRange, number, d.pages)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if number <= len(d.info.Pages) {
		size := d.info.Pages[number-1]
		if size.Width > 0 && size.Height > 0 {
			return &page{doc: d, number: number, width: size.Width, height: size.Height}, nil
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil, viewer.ErrClosed
	}
	w, h, err := d.raster.pageSize(number - 1)
	if err != nil {
		return nil, fmt.Errorf("unable to read size of page %d: %w", number, err)
	}
	return &page{doc: d, number: number, width: w, height: h}, nil
}

func (d *document) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return nil
	}
	d.destroyed = true
	Logger.Debug("Destroying document", "locator", d.locator)
	return d.raster.close()
}

type page struct {
	doc           *document
	number        int
	width, height float64
}

func (p *page) Number() int { return p.number }

func (p *page) Size() (float64, float64) { return p.width, p.height }

// Render cannot interrupt the native call, so the context is checked on
// both sides of it.
func (p *page) Render(ctx context.Context, vp viewer.Viewport) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.doc.mu.Lock()
	if p.doc.destroyed {
		p.doc.mu.Unlock()
		return nil, viewer.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		p.doc.mu.Unlock()
		return nil, err
	}
	img, err := p.doc.raster.render(p.number-1, vp)
	p.doc.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", p.number, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fitViewport(img, vp), nil
}

// fitViewport resizes img when the rasterizer rounded differently.
func fitViewport(img image.Image, vp viewer.Viewport) image.Image {
	b := img.Bounds()
	if b.Dx() == vp.Width && b.Dy() == vp.Height {
		return img
	}
	return imaging.Resize(img, vp.Width, vp.Height, imaging.Lanczos)
}

// open fetches and inspects a document before handing it to a rasterizer.
func open(ctx context.Context, fetcher Fetcher, locator string, build func(data []byte) (rasterizer, int, error)) (*document, error) {
	data, err := fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := ReadInfo(data)
	if err != nil {
		Logger.Warn("Unable to read document info", "locator", locator, "error", err)
	}
	r, pages, err := build(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		r.close()
		return nil, err
	}
	if len(info.Pages) != pages {
		info.Pages = nil
	}
	Logger.Info("Opened document", "locator", locator, "pages", pages, "title", info.Title)
	return newDocument(locator, info, pages, r), nil
}
