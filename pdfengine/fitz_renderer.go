package pdfengine

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"github.com/drummonds/pdfpanel/viewer"
)

// FitzEngine renders with go-fitz (requires CGo and MuPDF)
type FitzEngine struct {
	fetcher Fetcher
}

// NewFitzEngine creates a new Fitz-based engine
func NewFitzEngine(fetcher Fetcher) *FitzEngine {
	return &FitzEngine{fetcher: fetcher}
}

// Open fetches the document and parses it with MuPDF
func (e *FitzEngine) Open(ctx context.Context, locator string) (viewer.Document, error) {
	return open(ctx, e.fetcher, locator, func(data []byte) (rasterizer, int, error) {
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, 0, fmt.Errorf("unable to open PDF document: %w", err)
		}
		return &fitzRaster{doc: doc}, doc.NumPage(), nil
	})
}

// Close is a no-op, MuPDF state lives with each document
func (e *FitzEngine) Close() error {
	return nil
}

type fitzRaster struct {
	doc *fitz.Document
}

func (r *fitzRaster) pageSize(index int) (float64, float64, error) {
	b, err := r.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(b.Dx()), float64(b.Dy()), nil
}

func (r *fitzRaster) render(index int, vp viewer.Viewport) (image.Image, error) {
	img, err := r.doc.ImageDPI(index, 72*vp.Scale)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (r *fitzRaster) close() error {
	return r.doc.Close()
}
